package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"schoolledger/internal/amqp"
	"schoolledger/internal/core"
	"schoolledger/internal/services"
)

func TestJSONResponseBuilder(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Test", "yes").
		Body(core.Fund{ID: 3, Name: "Library", Status: core.StatusActive}).
		Write(rr)

	if rr.Code != http.StatusCreated || rr.Header().Get("X-Test") != "yes" {
		t.Fatalf("code %d headers %v", rr.Code, rr.Header())
	}
	var got core.Fund
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != 3 || got.Name != "Library" {
		t.Errorf("body = %+v", got)
	}
}

func TestJSONResponseBuilderNoBody(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(rr)
	if rr.Code != http.StatusNoContent || rr.Body.Len() != 0 {
		t.Errorf("code %d body %q", rr.Code, rr.Body)
	}
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"malformed body", fmt.Errorf("%w: eof", errMalformedBody), http.StatusBadRequest},
		{"bad parameter", fmt.Errorf("%w: start", errInvalidParam), http.StatusUnprocessableEntity},
		{"validation", fmt.Errorf("%w: %w", services.ErrValidation, core.ErrSelfTransfer), http.StatusUnprocessableEntity},
		{"inverted range", services.ErrInvalidRange, http.StatusUnprocessableEntity},
		{"range too long", fmt.Errorf("bank report: %w", services.ErrRangeTooLong), http.StatusUnprocessableEntity},
		{"unknown account", fmt.Errorf("bank report: %w", services.ErrAccountNotFound), http.StatusNotFound},
		{"export unavailable", services.ErrExportUnavailable, http.StatusServiceUnavailable},
		{"circuit open", fmt.Errorf("publish export request: %w", amqp.ErrCircuitOpen), http.StatusServiceUnavailable},
		{"timeout", fmt.Errorf("load ledger: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := FromError(context.Background(), tt.err)
			if b.StatusCode() != tt.want {
				t.Errorf("status = %d, want %d", b.StatusCode(), tt.want)
			}
		})
	}
}

func TestInternalErrorHidesCause(t *testing.T) {
	rr := httptest.NewRecorder()
	FromError(context.Background(), errors.New("pq: password authentication failed")).Write(rr)

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "internal error" {
		t.Errorf("error = %q", body["error"])
	}
}
