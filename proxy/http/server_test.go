package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wiretap-proxy/wiretap/internal/api"
	"github.com/wiretap-proxy/wiretap/internal/conn"
	"github.com/wiretap-proxy/wiretap/internal/session"
	"github.com/wiretap-proxy/wiretap/proxy/registry"
)

func testServer(t *testing.T) (*Server, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	srv := NewServer(&Options{Port: 8080, Registry: reg})
	return srv, reg
}

func TestServer_Port(t *testing.T) {
	srv, _ := testServer(t)
	if srv.Port() != 8080 {
		t.Errorf("Expected port 8080, got %d", srv.Port())
	}
}

func TestServer_Healthz(t *testing.T) {
	srv, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("Expected telemetry middleware to set X-Request-Id")
	}
}

func TestServer_SessionsEndToEnd(t *testing.T) {
	srv, reg := testServer(t)

	client := conn.NewMock("client:50001")
	server := conn.NewMock("target:8080")
	s, err := session.New(client, server, nil)
	if err != nil {
		t.Fatalf("session.New failed: %v", err)
	}
	reg.Add(s)
	client.DeliverData([]byte{0x0A, 0x0B})

	// List
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var summaries []api.SessionSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(summaries) != 1 || summaries[0].RecordCount != 1 {
		t.Errorf("Unexpected summaries: %+v", summaries)
	}

	// Capture dump through the routed path
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+s.ID()+"/capture", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var dump api.CaptureResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &dump); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(dump.Records) != 1 || dump.Records[0].Payload != "0a0b" {
		t.Errorf("Unexpected capture dump: %+v", dump)
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	// Generate one request so a counter exists
	srv.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "wiretap_api_requests_total") {
		t.Error("Expected request counter in metrics output")
	}
}

func TestServer_UnknownRoute(t *testing.T) {
	srv, _ := testServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}
