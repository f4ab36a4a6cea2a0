// Package trace assigns request ids, logs request completion and records
// per-route HTTP metrics.
package trace

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"schoolledger/internal/log"
	"schoolledger/internal/metrics"
)

type contextKey string

const requestKey contextKey = "trace"

// requestInfo is shared between the middleware and the matched route.
type requestInfo struct {
	id    string
	route string
}

type Middleware struct {
	extractIP func(*http.Request) string
	metrics   metrics.Collector
	now       func() time.Time
}

func NewMiddleware(extractIP func(*http.Request) string, m metrics.Collector) *Middleware {
	if m == nil {
		m = metrics.NoOpCollector{}
	}
	return &Middleware{extractIP: extractIP, metrics: m, now: time.Now}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := m.now()

		info := &requestInfo{id: requestIDFrom(r)}
		ctx := context.WithValue(r.Context(), requestKey, info)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", info.id)

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := m.now().Sub(start)
		route := info.route
		if route == "" {
			route = "unmatched"
		}
		m.metrics.RecordHTTPRequest(r.Method, route, rw.statusCode, duration)

		level := slog.LevelInfo
		switch {
		case rw.statusCode >= 500:
			level = slog.LevelError
		case rw.statusCode >= 400:
			level = slog.LevelWarn
		}
		fields := log.NewFields().
			WithRequestID(info.id).
			WithClientIP(clientIP).
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
			WithHTTPResponse(info.route, rw.statusCode, duration.Milliseconds())
		slog.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
	})
}

// requestIDFrom keeps a well-formed inbound X-Request-ID and generates one
// otherwise.
func requestIDFrom(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
	}
	return GenerateRequestID()
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func GenerateRequestID() string {
	return uuid.NewString()
}

// GetRequestID returns the request id stored by the middleware.
func GetRequestID(ctx context.Context) string {
	if info, ok := ctx.Value(requestKey).(*requestInfo); ok {
		return info.id
	}
	return ""
}

// SetRoute records the matched ServeMux pattern, without its method, as the
// metrics route label.
func SetRoute(ctx context.Context, pattern string) {
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		pattern = pattern[i+1:]
	}
	if info, ok := ctx.Value(requestKey).(*requestInfo); ok {
		info.route = pattern
	}
}
