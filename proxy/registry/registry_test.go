package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/wiretap-proxy/wiretap/internal/conn"
	"github.com/wiretap-proxy/wiretap/internal/session"
)

func newSession(t *testing.T, identity string) *session.Session {
	t.Helper()
	s, err := session.New(conn.NewMock(identity), conn.NewMock("target:80"), nil)
	if err != nil {
		t.Fatalf("session.New failed: %v", err)
	}
	return s
}

func TestRegistry_AddGetRemove(t *testing.T) {
	reg := New()
	s := newSession(t, "client:1")

	reg.Add(s)
	if reg.Count() != 1 {
		t.Fatalf("Expected count 1, got %d", reg.Count())
	}

	got, err := reg.Get(s.ID())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != s {
		t.Error("Expected to get the registered session back")
	}

	reg.Remove(s.ID())
	if reg.Count() != 0 {
		t.Errorf("Expected count 0 after remove, got %d", reg.Count())
	}
}

func TestRegistry_GetMissing(t *testing.T) {
	reg := New()

	_, err := reg.Get("no-such-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}

func TestRegistry_ListOrderedByStartTime(t *testing.T) {
	reg := New()

	first := newSession(t, "client:1")
	second := newSession(t, "client:2")
	third := newSession(t, "client:3")

	// Insert out of order
	reg.Add(third)
	reg.Add(first)
	reg.Add(second)

	list := reg.List()
	if len(list) != 3 {
		t.Fatalf("Expected 3 sessions, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].StartTime().Before(list[i-1].StartTime()) {
			t.Error("Expected list ordered by start time")
		}
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := New()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				s, err := session.New(conn.NewMock("client:n"), conn.NewMock("target:80"), nil)
				if err != nil {
					t.Errorf("session.New failed: %v", err)
					return
				}
				reg.Add(s)
				_, _ = reg.Get(s.ID())
				_ = reg.List()
			}
		}()
	}
	wg.Wait()

	if reg.Count() != 160 {
		t.Errorf("Expected 160 sessions, got %d", reg.Count())
	}
}
