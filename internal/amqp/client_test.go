package amqp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"schoolledger/internal/metrics"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{10, 30 * time.Second},
		{70, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"closed connection", errors.New("connection closed"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"amqp closed", fmt.Errorf("consume: %w", amqp091.ErrClosed), true},
		{"other error", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

type stateRecorder struct {
	metrics.NoOpCollector
	states []metrics.CircuitState
}

func (r *stateRecorder) RecordCircuitState(_ string, s metrics.CircuitState) {
	r.states = append(r.states, s)
}

func TestPublishOpensCircuitAfterFailures(t *testing.T) {
	rec := &stateRecorder{}
	client := newClient("", "exports", "exports", rec)
	msg := NewReportExportMessage("bank")

	for i := 0; i < 5; i++ {
		if err := client.PublishReportExport(context.Background(), msg); !errors.Is(err, ErrNotConnected) {
			t.Fatalf("attempt %d: expected ErrNotConnected, got %v", i, err)
		}
	}

	err := client.PublishReportExport(context.Background(), msg)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if len(rec.states) != 1 || rec.states[0] != metrics.CircuitOpen {
		t.Errorf("recorded states = %v", rec.states)
	}
}

func TestPublishRespectsCancelledContext(t *testing.T) {
	client := newClient("", "exports", "exports", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := client.PublishReportExport(ctx, NewReportExportMessage("due")); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(uint64, bool) error {
	f.acked = true
	return nil
}

func (f *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}

func (f *fakeAck) Reject(_ uint64, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}

func TestHandleDelivery(t *testing.T) {
	valid, err := NewReportExportMessage("bank").ToJSON()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		body     []byte
		err      error
		acked    bool
		requeued bool
	}{
		{name: "success", body: valid, acked: true},
		{name: "malformed body", body: []byte(`{"kind":`)},
		{name: "missing kind", body: []byte(`{"id":"6ba7b810-9dad-11d1-80b4-00c04fd430c8"}`)},
		{name: "poison", body: valid, err: fmt.Errorf("unknown kind: %w", ErrPoisonMessage)},
		{name: "transient failure", body: valid, err: errors.New("sheets unavailable"), requeued: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAck{}
			d := amqp091.Delivery{Acknowledger: ack, Body: tt.body}
			handleDelivery(context.Background(), d, func(context.Context, *ReportExportMessage) error {
				return tt.err
			})

			if ack.acked != tt.acked {
				t.Errorf("acked = %v, want %v", ack.acked, tt.acked)
			}
			if !tt.acked && !ack.nacked {
				t.Error("expected nack")
			}
			if ack.requeued != tt.requeued {
				t.Errorf("requeued = %v, want %v", ack.requeued, tt.requeued)
			}
		})
	}
}

func TestReportExportMessageJSON(t *testing.T) {
	account := int64(7)
	msg := NewReportExportMessage("bank")
	msg.Start, msg.End, msg.AccountID = "2025-03-01", "2025-03-31", &account

	raw, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	got, err := ReportExportMessageFromJSON(raw)
	if err != nil {
		t.Fatalf("ReportExportMessageFromJSON() error = %v", err)
	}
	if got.ID != msg.ID || got.Kind != "bank" || got.Start != msg.Start || got.End != msg.End {
		t.Errorf("decoded %+v, want %+v", got, msg)
	}
	if got.AccountID == nil || *got.AccountID != 7 {
		t.Errorf("account id = %v", got.AccountID)
	}
	if !got.RequestedAt.Equal(msg.RequestedAt) {
		t.Errorf("requested_at = %v, want %v", got.RequestedAt, msg.RequestedAt)
	}
}
