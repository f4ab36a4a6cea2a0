package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReportExportMessage asks the worker to compute a report and write it to
// the spreadsheet. Only the fields relevant to Kind are set.
type ReportExportMessage struct {
	ID           uuid.UUID `json:"id"`
	Kind         string    `json:"kind"`
	Start        string    `json:"start,omitempty"`
	End          string    `json:"end,omitempty"`
	AsOn         string    `json:"as_on_date,omitempty"`
	AccountID    *int64    `json:"account_id,omitempty"`
	Organization string    `json:"organization,omitempty"`
	ClassName    string    `json:"class,omitempty"`
	RequestedAt  time.Time `json:"requested_at"`
}

// NewReportExportMessage stamps a fresh id and request time.
func NewReportExportMessage(kind string) *ReportExportMessage {
	return &ReportExportMessage{
		ID:          uuid.New(),
		Kind:        kind,
		RequestedAt: time.Now().UTC(),
	}
}

func (m *ReportExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReportExportMessageFromJSON decodes a message body. A body without a kind
// is rejected.
func ReportExportMessageFromJSON(data []byte) (*ReportExportMessage, error) {
	var msg ReportExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Kind == "" {
		return nil, fmt.Errorf("message %s has no kind", msg.ID)
	}
	return &msg, nil
}
