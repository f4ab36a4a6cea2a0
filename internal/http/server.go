// Package http exposes the ledger reports and ingestion over a JSON API.
//
// Handlers return a JSONResponseBuilder which the server writes. Service
// errors are mapped to status codes in FromError.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schoolledger/internal/log"
	"schoolledger/internal/metrics"
	"schoolledger/internal/middleware/ratelimit"
	"schoolledger/internal/middleware/security"
	"schoolledger/internal/middleware/trace"
	"schoolledger/internal/services"
)

// apiHandler handles a request and returns the response to write.
type apiHandler func(w http.ResponseWriter, r *http.Request) *JSONResponseBuilder

// Deps are the collaborators of the server. Reports and Ledger are
// required; the rest fall back to safe defaults.
type Deps struct {
	Reports ReportQueries
	Ledger  Ingestor
	Exports Exporter

	// Ready reports whether the backing store answers.
	Ready func(ctx context.Context) error

	Auth           Authorizer
	Metrics        metrics.Collector
	Gatherer       prometheus.Gatherer
	RateLimit      ratelimit.Config
	TrustedProxies []string
	Logger         *log.Logger
	Clock          func() time.Time
}

type Server struct {
	http.Server
	reports ReportQueries
	ledger  Ingestor
	exports Exporter
	ready   func(ctx context.Context) error
	auth    Authorizer
	now     func() time.Time

	limiter  *ratelimit.Limiter
	detector *security.Detector
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Reports == nil || deps.Ledger == nil {
		return nil, errors.New("reports and ledger services are required")
	}
	if deps.Auth == nil {
		deps.Auth = NewTokenAuthorizer(nil)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NoOpCollector{}
	}
	if deps.Logger == nil {
		deps.Logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	detector := security.NewDetector()
	for _, cidr := range deps.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	s := &Server{
		reports:  deps.Reports,
		ledger:   deps.Ledger,
		exports:  deps.Exports,
		ready:    deps.Ready,
		auth:     deps.Auth,
		now:      deps.Clock,
		limiter:  ratelimit.NewLimiter(deps.RateLimit),
		detector: detector,
	}

	mux := http.NewServeMux()
	s.routes(mux, deps.Gatherer)

	var handler http.Handler = mux
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = detector.Middleware(handler)
	handler = log.Middleware(deps.Logger, trace.GetRequestID)(handler)
	handler = trace.NewMiddleware(detector.ExtractClientIP, deps.Metrics).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux, gatherer prometheus.Gatherer) {
	mux.HandleFunc("GET /healthz", s.open(handleHealth))
	mux.HandleFunc("GET /readyz", s.open(s.handleReady))
	if gatherer != nil {
		metricsHandler := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
		mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
			trace.SetRoute(r.Context(), r.Pattern)
			metricsHandler.ServeHTTP(w, r)
		})
	}

	mux.HandleFunc("GET /api/reports/balance-sheet", s.read(s.handleBalanceSheet))
	mux.HandleFunc("GET /api/reports/bank", s.read(rangeReport(s, services.KindBank, s.reports.BankReport)))
	mux.HandleFunc("GET /api/reports/income-expenditure", s.read(rangeReport(s, services.KindIncomeExpenditure, s.reports.IncomeExpenditure)))
	mux.HandleFunc("GET /api/reports/receipt-payment", s.read(rangeReport(s, services.KindReceiptPayment, s.reports.ReceiptPayment)))
	mux.HandleFunc("GET /api/reports/due", s.read(s.handleDueReport))
	mux.HandleFunc("GET /api/accounts/{id}/balance", s.read(s.handleAccountBalance))

	mux.HandleFunc("POST /api/accounts", s.write(create(s.ledger.CreateAccount)))
	mux.HandleFunc("POST /api/funds", s.write(create(s.ledger.CreateFund)))
	mux.HandleFunc("POST /api/categories", s.write(create(s.ledger.CreateCategory)))
	mux.HandleFunc("POST /api/transactions", s.write(create(s.ledger.CreateTransaction)))
	mux.HandleFunc("POST /api/fund-transactions", s.write(create(s.ledger.CreateFundTransaction)))
	mux.HandleFunc("POST /api/fixed-assets", s.write(create(s.ledger.CreateFixedAsset)))
	mux.HandleFunc("POST /api/fee-collections", s.write(create(s.ledger.CreateFeeCollection)))
	mux.HandleFunc("POST /api/reports/export", s.write(s.handleExport))
}

// open serves an unauthenticated route.
func (s *Server) open(h apiHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trace.SetRoute(r.Context(), r.Pattern)
		h(w, r).Write(w)
	}
}

// read serves a route behind the manage_accounting permission.
func (s *Server) read(h apiHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trace.SetRoute(r.Context(), r.Pattern)
		if !s.auth.Allowed(r, PermManageAccounting) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Permission denied",
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.detector.ExtractClientIP(r))
			ForbiddenError().Write(w)
			return
		}
		h(w, r).Write(w)
	}
}

// write is read plus per-client rate limiting.
func (s *Server) write(h apiHandler) http.HandlerFunc {
	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		TooManyRequestsError().Write(w)
	})(s.read(h))
	return func(w http.ResponseWriter, r *http.Request) {
		trace.SetRoute(r.Context(), r.Pattern)
		limited.ServeHTTP(w, r)
	}
}

type status struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func handleHealth(w http.ResponseWriter, r *http.Request) *JSONResponseBuilder {
	return NewJSONResponse().Body(status{Status: "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) *JSONResponseBuilder {
	if s.ready == nil {
		return NewJSONResponse().Body(status{Status: "ok"})
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ready(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		return NewJSONResponse().Status(http.StatusServiceUnavailable).Body(status{Status: "unavailable", Error: err.Error()})
	}
	return NewJSONResponse().Body(status{Status: "ok"})
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}
