package http

import (
	"context"
	"net/http"

	"schoolledger/internal/core"
	"schoolledger/internal/log"
	"schoolledger/internal/services"
)

// ReportQueries is the read side used by the report endpoints.
type ReportQueries interface {
	BalanceSheet(ctx context.Context, asOn core.Date) (core.BalanceSheet, error)
	BankReport(ctx context.Context, start, end core.Date, accountID *int64) (core.BankReport, error)
	IncomeExpenditure(ctx context.Context, start, end core.Date, accountID *int64) (core.IncomeExpenditure, error)
	ReceiptPayment(ctx context.Context, start, end core.Date, accountID *int64) (core.ReceiptPayment, error)
	DueReport(ctx context.Context, organization, className string) (core.DueReport, error)
	Balance(ctx context.Context, accountID int64, asOf core.Date) (core.Money, error)
}

type balanceResponse struct {
	AccountID int64      `json:"account_id"`
	AsOf      core.Date  `json:"as_of"`
	Balance   core.Money `json:"balance"`
}

func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}

func (s *Server) logReport(r *http.Request, kind, start, end string, accountID *int64) {
	fields := log.NewFields().WithReport(kind, start, end, accountID)
	log.FromContext(r.Context()).DebugContext(r.Context(), "Serving report", fields.ToSlice()...)
}

func (s *Server) handleBalanceSheet(w http.ResponseWriter, r *http.Request) *JSONResponseBuilder {
	asOn, err := ParseDateParam(r.URL.Query(), "as_on_date", s.today())
	if err != nil {
		return FromError(r.Context(), err)
	}
	s.logReport(r, services.KindBalanceSheet, "", asOn.String(), nil)

	bs, err := s.reports.BalanceSheet(r.Context(), asOn)
	if err != nil {
		return FromError(r.Context(), err)
	}
	return NewJSONResponse().Body(bs)
}

// rangeReport serves the reports filtered by start, end and account_id.
func rangeReport[T any](s *Server, kind string, run func(context.Context, core.Date, core.Date, *int64) (T, error)) apiHandler {
	return func(w http.ResponseWriter, r *http.Request) *JSONResponseBuilder {
		q := r.URL.Query()
		start, end, err := ParseRangeParams(q, s.today())
		if err != nil {
			return FromError(r.Context(), err)
		}
		accountID, err := ParseAccountParam(q)
		if err != nil {
			return FromError(r.Context(), err)
		}
		s.logReport(r, kind, start.String(), end.String(), accountID)

		report, err := run(r.Context(), start, end, accountID)
		if err != nil {
			return FromError(r.Context(), err)
		}
		return NewJSONResponse().Body(report)
	}
}

func (s *Server) handleDueReport(w http.ResponseWriter, r *http.Request) *JSONResponseBuilder {
	q := r.URL.Query()
	report, err := s.reports.DueReport(r.Context(), sanitizeInput(q.Get("organization")), sanitizeInput(q.Get("class")))
	if err != nil {
		return FromError(r.Context(), err)
	}
	return NewJSONResponse().Body(report)
}

func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request) *JSONResponseBuilder {
	id, err := PathID(r, "id")
	if err != nil {
		return FromError(r.Context(), err)
	}
	asOf, err := ParseDateParam(r.URL.Query(), "as_of", s.today())
	if err != nil {
		return FromError(r.Context(), err)
	}

	balance, err := s.reports.Balance(r.Context(), id, asOf)
	if err != nil {
		return FromError(r.Context(), err)
	}
	return NewJSONResponse().Body(balanceResponse{AccountID: id, AsOf: asOf, Balance: balance})
}
