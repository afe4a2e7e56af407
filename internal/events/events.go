// Package events publishes report lifecycle events for downstream consumers.
// Delivery is best effort: callers log failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const TypeReportAnalyzed = "report.analyzed"

// Event is the JSON payload published for a report.
type Event struct {
	Type               string    `json:"type"`
	ReportID           int64     `json:"report_id"`
	Owner              string    `json:"owner"`
	ReportName         string    `json:"report_name"`
	NotificationStatus string    `json:"notification_status"`
	DocumentKey        string    `json:"document_key,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}

func (e Event) key() []byte {
	return []byte(fmt.Sprintf("report-%d", e.ReportID))
}

func (e Event) encode() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Settings selects and configures a publisher.
type Settings struct {
	Driver       string // "none", "kafka" or "sqs"
	KafkaBrokers []string
	KafkaTopic   string
	SQSQueueURL  string
	AWSRegion    string
}

// New builds the publisher named by s.Driver.
func New(ctx context.Context, s Settings) (Publisher, error) {
	switch s.Driver {
	case "", "none":
		return Nop{}, nil
	case "kafka":
		return NewKafkaPublisher(s.KafkaBrokers, s.KafkaTopic)
	case "sqs":
		return NewSQSPublisher(ctx, s.AWSRegion, s.SQSQueueURL)
	}
	return nil, fmt.Errorf("unknown events driver %q", s.Driver)
}
