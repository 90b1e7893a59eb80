package kafka

import (
	"encoding/json"
	"time"
)

const (
	TopicNotificationEmail = "notification.email"
	TopicNotificationSMS   = "notification.sms"

	// Callback reconciliation failures land here instead of being lost:
	// the gateway is always acked, so this topic is the only trail.
	TopicPaymentDeadLetter = "payments.callback.deadletter"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}
