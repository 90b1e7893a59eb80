package payments

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusFailed }

// Transaction is keyed by the gateway's CheckoutRequestID, not the order id:
// the checkout id is the only correlation key the callback can be trusted
// to carry. The record is write-once-then-finalize, never reopened.
type Transaction struct {
	CheckoutRequestID string
	MerchantRequestID string
	OrderID           *uuid.UUID
	PhoneNumber       string
	AmountCents       int
	Status            Status
	ResultCode        *int
	ResultDesc        string
	ReceiptNumber     string
	TransactionDate   string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
