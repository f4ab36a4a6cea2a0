// Package worker consumes report export requests and writes the computed
// reports to the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"schoolledger/internal/amqp"
	"schoolledger/internal/core"
	"schoolledger/internal/metrics"
	"schoolledger/internal/services"
	"schoolledger/internal/sheets"
)

// Reports is the part of the report service the worker runs.
type Reports interface {
	BalanceSheet(ctx context.Context, asOn core.Date) (core.BalanceSheet, error)
	BankReport(ctx context.Context, start, end core.Date, accountID *int64) (core.BankReport, error)
	IncomeExpenditure(ctx context.Context, start, end core.Date, accountID *int64) (core.IncomeExpenditure, error)
	ReceiptPayment(ctx context.Context, start, end core.Date, accountID *int64) (core.ReceiptPayment, error)
	DueReport(ctx context.Context, organization, className string) (core.DueReport, error)
}

// ExportWorker turns export messages into spreadsheet tabs.
type ExportWorker struct {
	reports Reports
	writer  sheets.ReportWriter
	metrics metrics.Collector
	now     func() time.Time
}

func NewExportWorker(reports Reports, writer sheets.ReportWriter, m metrics.Collector) *ExportWorker {
	if m == nil {
		m = metrics.NoOpCollector{}
	}
	return &ExportWorker{reports: reports, writer: writer, metrics: m, now: time.Now}
}

// HandleExport computes the requested report and writes it to a tab named
// "<kind> <date>", where date is the report's end or as-on date. Requests
// that can never succeed are returned wrapped in amqp.ErrPoisonMessage.
func (w *ExportWorker) HandleExport(ctx context.Context, msg *amqp.ReportExportMessage) (err error) {
	started := time.Now()
	defer func() { w.metrics.RecordExport(msg.Kind, err == nil, time.Since(started)) }()

	req, err := services.ExportRequestFromMessage(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", amqp.ErrPoisonMessage, err)
	}

	title, table, err := w.build(ctx, req)
	if err != nil {
		if permanent(err) {
			return fmt.Errorf("%w: %w", amqp.ErrPoisonMessage, err)
		}
		return fmt.Errorf("compute %s report: %w", req.Kind, err)
	}

	if err := w.writer.WriteReport(ctx, title, table); err != nil {
		return fmt.Errorf("write %s report: %w", req.Kind, err)
	}

	slog.InfoContext(ctx, "Report exported",
		"id", msg.ID,
		"kind", req.Kind,
		"tab", title,
		"rows", len(table.Rows),
		"duration", time.Since(started))
	return nil
}

func (w *ExportWorker) build(ctx context.Context, req services.ExportRequest) (string, sheets.Table, error) {
	switch req.Kind {
	case services.KindBalanceSheet:
		bs, err := w.reports.BalanceSheet(ctx, *req.AsOn)
		return tabTitle(req.Kind, *req.AsOn), sheets.BalanceSheetTable(bs), err
	case services.KindBank:
		r, err := w.reports.BankReport(ctx, *req.Start, *req.End, req.AccountID)
		return tabTitle(req.Kind, *req.End), sheets.BankReportTable(r), err
	case services.KindIncomeExpenditure:
		ie, err := w.reports.IncomeExpenditure(ctx, *req.Start, *req.End, req.AccountID)
		return tabTitle(req.Kind, *req.End), sheets.IncomeExpenditureTable(ie), err
	case services.KindReceiptPayment:
		rp, err := w.reports.ReceiptPayment(ctx, *req.Start, *req.End, req.AccountID)
		return tabTitle(req.Kind, *req.End), sheets.ReceiptPaymentTable(rp), err
	case services.KindDue:
		due, err := w.reports.DueReport(ctx, req.Organization, req.ClassName)
		return tabTitle(req.Kind, core.DateOf(w.now())), sheets.DueReportTable(due), err
	default:
		return "", sheets.Table{}, fmt.Errorf("%w: %q", services.ErrUnknownReportKind, req.Kind)
	}
}

func tabTitle(kind string, d core.Date) string {
	return kind + " " + d.String()
}

func permanent(err error) bool {
	return errors.Is(err, services.ErrAccountNotFound) ||
		errors.Is(err, services.ErrInvalidRange) ||
		errors.Is(err, services.ErrRangeTooLong) ||
		errors.Is(err, services.ErrUnknownReportKind)
}
