package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/smartrestaurant/backoffice.git/internal/kafka"
	"github.com/smartrestaurant/backoffice.git/internal/orders"
)

type Gateway interface {
	STKPush(ctx context.Context, phone string, amountCents int, accountRef, desc string) (*STKPushResponse, error)
	QueryStatus(ctx context.Context, checkoutRequestID string) (*QueryResponse, error)
}

type Store interface {
	CreatePending(ctx context.Context, t *Transaction) error
	Get(ctx context.Context, checkoutRequestID string) (*Transaction, error)
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]Transaction, error)
	Finalize(ctx context.Context, f FinalizeInput) (bool, error)
}

type OrderDirectory interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*orders.Order, error)
	MarkPaymentProcessing(ctx context.Context, id uuid.UUID) error
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

const EventReconcileFailed = "PaymentReconcileFailed"

type reconcileFailedPayload struct {
	CheckoutRequestID string          `json:"checkout_request_id"`
	Error             string          `json:"error"`
	Callback          json.RawMessage `json:"callback"`
}

// Service is the gateway adapter: it initiates charges, polls for status,
// and reconciles asynchronous callbacks exactly once.
type Service struct {
	Gateway     Gateway
	Store       Store
	Orders      OrderDirectory
	DeadLetter  Publisher
	Log         *zap.Logger
	ServiceName string
}

// Initiate pushes a charge for the order total. The local transaction is
// recorded only after the gateway returns a well-formed acknowledgement, so
// a timeout leaves nothing half-written.
func (s *Service) Initiate(ctx context.Context, orderID uuid.UUID, rawPhone string, amountCents int) (*STKPushResponse, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}

	order, err := s.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	resp, err := s.Gateway.STKPush(ctx, phone, amountCents, order.Number, "Restaurant Payment")
	if err != nil {
		return nil, err
	}

	if err := s.Store.CreatePending(ctx, &Transaction{
		CheckoutRequestID: resp.CheckoutRequestID,
		MerchantRequestID: resp.MerchantRequestID,
		OrderID:           &orderID,
		PhoneNumber:       phone,
		AmountCents:       amountCents,
		Status:            StatusPending,
	}); err != nil {
		return nil, err
	}

	if err := s.Orders.MarkPaymentProcessing(ctx, orderID); err != nil {
		s.Log.Warn("mark payment processing failed",
			zap.String("order_id", orderID.String()), zap.Error(err))
	}

	s.Log.Info("stk push initiated",
		zap.String("checkout_request_id", resp.CheckoutRequestID),
		zap.String("order_id", orderID.String()),
		zap.Int("amount_cents", amountCents))
	return resp, nil
}

// Query actively polls the gateway and finalizes the local transaction if
// the push has reached a terminal state. Fallback for callbacks that never
// arrive.
func (s *Service) Query(ctx context.Context, checkoutRequestID string) (*Transaction, error) {
	if _, err := s.Store.Get(ctx, checkoutRequestID); err != nil {
		return nil, err
	}

	resp, err := s.Gateway.QueryStatus(ctx, checkoutRequestID)
	if err != nil {
		return nil, err
	}

	// ResultCode is only present once the push has resolved; an in-flight
	// push keeps the local record pending.
	if resp.ResultCode != "" {
		status := StatusFailed
		code := 1
		if resp.ResultCode == "0" {
			status = StatusCompleted
			code = 0
		}
		if _, err := s.Store.Finalize(ctx, FinalizeInput{
			CheckoutRequestID: checkoutRequestID,
			Status:            status,
			ResultCode:        code,
			ResultDesc:        resp.ResultDesc,
		}); err != nil {
			return nil, err
		}
	}
	return s.Store.Get(ctx, checkoutRequestID)
}

// ReconcileCallback matches a gateway callback to the transaction issued at
// initiate time, keyed solely by CheckoutRequestID, and applies it at most
// once. Failures are published to the dead-letter topic; the HTTP handler
// acks the gateway regardless, so that topic is the recovery path.
func (s *Service) ReconcileCallback(ctx context.Context, cb CallbackBody) error {
	stk := cb.Body.STKCallback
	if stk.CheckoutRequestID == "" {
		err := fmt.Errorf("callback missing CheckoutRequestID")
		s.deadLetter(stk.CheckoutRequestID, cb, err)
		return err
	}

	in := FinalizeInput{
		CheckoutRequestID: stk.CheckoutRequestID,
		ResultCode:        stk.ResultCode,
		ResultDesc:        stk.ResultDesc,
		Status:            StatusFailed,
	}
	if stk.Succeeded() {
		meta := stk.Meta()
		in.Status = StatusCompleted
		in.ReceiptNumber = meta.ReceiptNumber
		in.TransactionDate = meta.TransactionDate
		in.PhoneNumber = meta.PhoneNumber
		in.AmountCents = meta.AmountCents
	}

	applied, err := s.Store.Finalize(ctx, in)
	if err != nil {
		s.Log.Error("callback reconciliation failed",
			zap.String("checkout_request_id", stk.CheckoutRequestID), zap.Error(err))
		s.deadLetter(stk.CheckoutRequestID, cb, err)
		return err
	}
	if !applied {
		s.Log.Info("duplicate callback ignored",
			zap.String("checkout_request_id", stk.CheckoutRequestID))
		return nil
	}

	s.Log.Info("payment reconciled",
		zap.String("checkout_request_id", stk.CheckoutRequestID),
		zap.String("status", string(in.Status)))
	return nil
}

func (s *Service) Transactions(ctx context.Context, checkoutRequestID string) (*Transaction, error) {
	return s.Store.Get(ctx, checkoutRequestID)
}

// TransactionsForOrder lists every charge attempt made against an order,
// newest first.
func (s *Service) TransactionsForOrder(ctx context.Context, orderID uuid.UUID) ([]Transaction, error) {
	return s.Store.ListForOrder(ctx, orderID)
}

func (s *Service) deadLetter(checkoutRequestID string, cb CallbackBody, cause error) {
	if s.DeadLetter == nil {
		return
	}
	raw, _ := json.Marshal(cb)
	ev := kafkax.Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventReconcileFailed,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: checkoutRequestID,
		Payload: kafkax.MustMarshal(reconcileFailedPayload{
			CheckoutRequestID: checkoutRequestID,
			Error:             cause.Error(),
			Callback:          raw,
		}),
	}
	s.DeadLetter.Publish([]byte(checkoutRequestID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventReconcileFailed)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
