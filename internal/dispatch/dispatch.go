// Package dispatch marshals change notifications onto a host-supplied
// execution context.
//
// The relay core raises notifications from whatever goroutine delivered
// the underlying connection event. Hosts that need those notifications
// on a specific context (a UI loop, a single consumer goroutine, a test
// running synchronously) inject a Func; the Bridge is a stateless
// pass-through that runs each notification through it exactly once.
package dispatch

import "sync"

// Func runs the given action on the host's designated execution
// context. Implementations must execute each action exactly once and
// preserve the relative order of actions submitted from one goroutine.
type Func func(action func())

// Sync returns a Func that runs actions inline on the caller's goroutine
func Sync() Func {
	return func(action func()) {
		action()
	}
}

// Bridge routes notifications through a dispatch Func
type Bridge struct {
	dispatch Func
}

// NewBridge creates a Bridge. A nil dispatch falls back to Sync.
func NewBridge(dispatch Func) *Bridge {
	if dispatch == nil {
		dispatch = Sync()
	}
	return &Bridge{dispatch: dispatch}
}

// Notify submits one notification action. The caller must only invoke
// Notify after the state change the action reports is already visible.
func (b *Bridge) Notify(action func()) {
	if action == nil {
		return
	}
	b.dispatch(action)
}

// Queue is a Func implementation backed by a single goroutine, so all
// dispatched actions run serially in submission order.
type Queue struct {
	mu      sync.Mutex
	actions chan func()
	closed  bool
	done    chan struct{}
}

// NewQueue creates a Queue and starts its worker goroutine
func NewQueue() *Queue {
	q := &Queue{
		actions: make(chan func(), 64),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for action := range q.actions {
		action()
	}
}

// Dispatch submits an action to the worker goroutine. Actions submitted
// after Close are dropped.
func (q *Queue) Dispatch(action func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.actions <- action
}

// Close stops the queue after draining all pending actions.
// It blocks until the worker goroutine has exited.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	close(q.actions)
	q.mu.Unlock()
	<-q.done
}
