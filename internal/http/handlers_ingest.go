package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"schoolledger/internal/core"
	"schoolledger/internal/services"
)

// Ingestor is the write side used by the POST endpoints.
type Ingestor interface {
	CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
	CreateFund(ctx context.Context, f core.Fund) (core.Fund, error)
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	CreateFundTransaction(ctx context.Context, f core.FundTransaction) (core.FundTransaction, error)
	CreateFixedAsset(ctx context.Context, a core.FixedAsset) (core.FixedAsset, error)
	CreateFeeCollection(ctx context.Context, f core.FeeCollection) (core.FeeCollection, error)
}

type Exporter interface {
	RequestExport(ctx context.Context, req services.ExportRequest) (uuid.UUID, error)
}

// create decodes a JSON entity, stores it and answers 201 with the stored
// row. Ids in the body are ignored.
func create[T any](run func(context.Context, T) (T, error)) apiHandler {
	return func(w http.ResponseWriter, r *http.Request) *JSONResponseBuilder {
		var in T
		if err := DecodeJSONBody(w, r, &in); err != nil {
			return FromError(r.Context(), err)
		}
		out, err := run(r.Context(), in)
		if err != nil {
			return FromError(r.Context(), err)
		}
		return NewJSONResponse().Status(http.StatusCreated).Body(out)
	}
}

type exportBody struct {
	Kind         string     `json:"kind"`
	Start        *core.Date `json:"start,omitempty"`
	End          *core.Date `json:"end,omitempty"`
	AsOn         *core.Date `json:"as_on_date,omitempty"`
	AccountID    *int64     `json:"account_id,omitempty"`
	Organization string     `json:"organization,omitempty"`
	ClassName    string     `json:"class,omitempty"`
}

type exportAccepted struct {
	ID   uuid.UUID `json:"id"`
	Kind string    `json:"kind"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) *JSONResponseBuilder {
	var body exportBody
	if err := DecodeJSONBody(w, r, &body); err != nil {
		return FromError(r.Context(), err)
	}
	if s.exports == nil {
		return FromError(r.Context(), services.ErrExportUnavailable)
	}

	id, err := s.exports.RequestExport(r.Context(), services.ExportRequest{
		Kind:         sanitizeInput(body.Kind),
		Start:        body.Start,
		End:          body.End,
		AsOn:         body.AsOn,
		AccountID:    body.AccountID,
		Organization: sanitizeInput(body.Organization),
		ClassName:    sanitizeInput(body.ClassName),
	})
	if err != nil {
		return FromError(r.Context(), err)
	}
	return NewJSONResponse().Status(http.StatusAccepted).Body(exportAccepted{ID: id, Kind: body.Kind})
}
