package trace

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"schoolledger/internal/metrics"
)

type httpRecorder struct {
	metrics.NoOpCollector
	mu     sync.Mutex
	routes []string
	codes  []int
}

func (h *httpRecorder) RecordHTTPRequest(method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.routes = append(h.routes, method+" "+route)
	h.codes = append(h.codes, status)
}

func TestMiddlewareRecordsRouteAndStatus(t *testing.T) {
	rec := &httpRecorder{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/accounts/{id}/balance", func(w http.ResponseWriter, r *http.Request) {
		SetRoute(r.Context(), r.Pattern)
		if GetRequestID(r.Context()) == "" {
			t.Error("missing request id in context")
		}
		w.WriteHeader(http.StatusNotFound)
	})
	h := NewMiddleware(nil, rec).Middleware(mux)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/accounts/7/balance", nil))

	if _, err := uuid.Parse(rr.Header().Get("X-Request-ID")); err != nil {
		t.Errorf("X-Request-ID = %q", rr.Header().Get("X-Request-ID"))
	}
	if len(rec.routes) != 1 || rec.routes[0] != "GET /api/accounts/{id}/balance" || rec.codes[0] != http.StatusNotFound {
		t.Errorf("recorded %v %v", rec.routes, rec.codes)
	}
}

func TestMiddlewareUnmatchedRoute(t *testing.T) {
	rec := &httpRecorder{}
	h := NewMiddleware(nil, rec).Middleware(http.NotFoundHandler())
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	if len(rec.routes) != 1 || rec.routes[0] != "GET unmatched" {
		t.Errorf("routes = %v", rec.routes)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	inbound := uuid.NewString()
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"valid inbound id", inbound, true},
		{"garbage inbound id", "<script>", false},
		{"no inbound id", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-ID", tt.header)
			}
			got := requestIDFrom(req)
			if tt.keep && got != tt.header {
				t.Errorf("id = %q, want %q", got, tt.header)
			}
			if !tt.keep && got == tt.header {
				t.Errorf("id %q should have been replaced", got)
			}
		})
	}
}
