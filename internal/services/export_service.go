package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"schoolledger/internal/amqp"
	"schoolledger/internal/core"
)

var (
	ErrUnknownReportKind = errors.New("unknown report kind")
	ErrExportUnavailable = errors.New("report export is not configured")
)

// Publisher enqueues export requests.
type Publisher interface {
	PublishReportExport(ctx context.Context, msg *amqp.ReportExportMessage) error
}

// ExportRequest names a report and its parameters. Dates are required for
// the kinds that use them.
type ExportRequest struct {
	Kind         string
	Start        *core.Date
	End          *core.Date
	AsOn         *core.Date
	AccountID    *int64
	Organization string
	ClassName    string
}

// Validate checks that the request names a known kind with the inputs that
// kind needs.
func (r ExportRequest) Validate() error {
	switch r.Kind {
	case KindBalanceSheet:
		if r.AsOn == nil {
			return fmt.Errorf("%s export needs as_on_date", r.Kind)
		}
	case KindBank, KindIncomeExpenditure, KindReceiptPayment:
		if r.Start == nil || r.End == nil {
			return fmt.Errorf("%s export needs start and end", r.Kind)
		}
		if r.End.Before(*r.Start) {
			return ErrInvalidRange
		}
	case KindDue:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownReportKind, r.Kind)
	}
	return nil
}

// Message converts the request into its queue representation.
func (r ExportRequest) Message() *amqp.ReportExportMessage {
	msg := amqp.NewReportExportMessage(r.Kind)
	if r.Start != nil {
		msg.Start = r.Start.String()
	}
	if r.End != nil {
		msg.End = r.End.String()
	}
	if r.AsOn != nil {
		msg.AsOn = r.AsOn.String()
	}
	msg.AccountID = r.AccountID
	msg.Organization = r.Organization
	msg.ClassName = r.ClassName
	return msg
}

// ExportRequestFromMessage parses a queued message back into a request.
func ExportRequestFromMessage(msg *amqp.ReportExportMessage) (ExportRequest, error) {
	req := ExportRequest{
		Kind:         msg.Kind,
		AccountID:    msg.AccountID,
		Organization: msg.Organization,
		ClassName:    msg.ClassName,
	}
	for _, f := range []struct {
		raw string
		dst **core.Date
	}{
		{msg.Start, &req.Start},
		{msg.End, &req.End},
		{msg.AsOn, &req.AsOn},
	} {
		if f.raw == "" {
			continue
		}
		d, err := core.ParseDate(f.raw)
		if err != nil {
			return ExportRequest{}, fmt.Errorf("parse %q: %w", f.raw, err)
		}
		*f.dst = &d
	}
	return req, req.Validate()
}

// ExportService queues reports for asynchronous export to a spreadsheet.
type ExportService struct {
	publisher Publisher
}

func NewExportService(p Publisher) *ExportService {
	return &ExportService{publisher: p}
}

// RequestExport validates and enqueues a request, returning the message id.
func (s *ExportService) RequestExport(ctx context.Context, req ExportRequest) (uuid.UUID, error) {
	if err := req.Validate(); err != nil {
		return uuid.Nil, invalid(err)
	}
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, export request dropped", "kind", req.Kind)
		return uuid.Nil, ErrExportUnavailable
	}

	msg := req.Message()
	if err := s.publisher.PublishReportExport(ctx, msg); err != nil {
		return uuid.Nil, fmt.Errorf("publish export request: %w", err)
	}
	return msg.ID, nil
}
