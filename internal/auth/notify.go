package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/smartrestaurant/backoffice.git/internal/kafka"
	"github.com/smartrestaurant/backoffice.git/internal/accounts"
)

// CodeSender dispatches a one-time code through the account's preferred
// channel. Delivery itself (SMTP, SMS gateway) is someone else's job.
type CodeSender interface {
	Send(ctx context.Context, acct *accounts.Account, code string, purpose Purpose) error
}

const EventCodeIssued = "OneTimeCodeIssued"

type CodeIssuedPayload struct {
	AccountID uuid.UUID `json:"account_id"`
	Recipient string    `json:"recipient"`
	Channel   string    `json:"channel"`
	Code      string    `json:"code"`
	Purpose   string    `json:"purpose"`
}

// KafkaCodeSender publishes code-issued events for the notification
// consumer; email and sms ride separate topics.
type KafkaCodeSender struct {
	Email       *kafkax.Producer
	SMS         *kafkax.Producer
	ServiceName string
}

func (s *KafkaCodeSender) Send(ctx context.Context, acct *accounts.Account, code string, purpose Purpose) error {
	channel := "email"
	recipient := acct.Email
	prod := s.Email
	if acct.TwoFactorMethod == accounts.TwoFactorSMS && acct.Phone != "" {
		channel = "sms"
		recipient = acct.Phone
		prod = s.SMS
	}

	ev := kafkax.Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventCodeIssued,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: acct.ID.String(),
		Payload: kafkax.MustMarshal(CodeIssuedPayload{
			AccountID: acct.ID,
			Recipient: recipient,
			Channel:   channel,
			Code:      code,
			Purpose:   string(purpose),
		}),
	}
	prod.Publish([]byte(acct.ID.String()), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventCodeIssued)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	return nil
}
