package services

import (
	"context"
)

// Message is a rendered notification
type Message struct {
	Event   string   `json:"event"`
	To      []string `json:"to,omitempty"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Sender delivers rendered notifications (webhook, log, ...)
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// WorkbookRenderer renders a lorry settlement report as a spreadsheet
type WorkbookRenderer interface {
	Render(report *SettlementReport) ([]byte, error)
}

// ReportArchiver stores rendered reports and returns their location
type ReportArchiver interface {
	Archive(ctx context.Context, name string, data []byte) (string, error)
}
