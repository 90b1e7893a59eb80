package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartrestaurant/backoffice.git/internal/auth"
	"github.com/smartrestaurant/backoffice.git/internal/payments"
)

type stubPaymentStore struct {
	finalize     func(ctx context.Context, f payments.FinalizeInput) (bool, error)
	listForOrder func(ctx context.Context, orderID uuid.UUID) ([]payments.Transaction, error)
}

func (s *stubPaymentStore) CreatePending(context.Context, *payments.Transaction) error { return nil }

func (s *stubPaymentStore) Get(context.Context, string) (*payments.Transaction, error) {
	return nil, payments.ErrNotFound
}

func (s *stubPaymentStore) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]payments.Transaction, error) {
	if s.listForOrder == nil {
		return nil, nil
	}
	return s.listForOrder(ctx, orderID)
}

func (s *stubPaymentStore) Finalize(ctx context.Context, f payments.FinalizeInput) (bool, error) {
	return s.finalize(ctx, f)
}

func callbackRouter(store payments.Store) *chi.Mux {
	r := chi.NewRouter()
	h := &PaymentsHandler{
		Service: &payments.Service{Store: store, Log: zap.NewNop()},
		Log:     zap.NewNop(),
	}
	r.Post("/payments/mpesa/callback", h.callback)
	return r
}

func postCallback(t *testing.T, r *chi.Mux, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/payments/mpesa/callback", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func assertAck(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, 200, rec.Code)
	var body struct {
		ResultCode int    `json:"ResultCode"`
		ResultDesc string `json:"ResultDesc"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0, body.ResultCode)
	assert.Equal(t, "Success", body.ResultDesc)
}

const callbackJSON = `{
  "Body": {
    "stkCallback": {
      "CheckoutRequestID": "ws_CO_1",
      "ResultCode": 0,
      "ResultDesc": "ok",
      "CallbackMetadata": {"Item": [{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"}]}
    }
  }
}`

func TestCallbackAcksOnSuccess(t *testing.T) {
	r := callbackRouter(&stubPaymentStore{
		finalize: func(context.Context, payments.FinalizeInput) (bool, error) { return true, nil },
	})
	assertAck(t, postCallback(t, r, callbackJSON))
}

func TestCallbackAcksWhenReconcileFails(t *testing.T) {
	// The gateway must never see an error, or it retries forever.
	r := callbackRouter(&stubPaymentStore{
		finalize: func(context.Context, payments.FinalizeInput) (bool, error) {
			return false, payments.ErrNotFound
		},
	})
	assertAck(t, postCallback(t, r, callbackJSON))
}

func TestCallbackAcksOnDuplicate(t *testing.T) {
	r := callbackRouter(&stubPaymentStore{
		finalize: func(context.Context, payments.FinalizeInput) (bool, error) { return false, nil },
	})
	assertAck(t, postCallback(t, r, callbackJSON))
}

func TestCallbackAcksOnGarbageBody(t *testing.T) {
	r := callbackRouter(&stubPaymentStore{
		finalize: func(context.Context, payments.FinalizeInput) (bool, error) {
			t.Fatal("undecodable body must not reach the service")
			return false, nil
		},
	})
	assertAck(t, postCallback(t, r, "{not json"))
}

func paymentsRouter(store payments.Store, sessions auth.SessionRepo) *chi.Mux {
	r := chi.NewRouter()
	h := &PaymentsHandler{
		Service:  &payments.Service{Store: store, Log: zap.NewNop()},
		Sessions: sessions,
		Log:      zap.NewNop(),
	}
	h.Register(r)
	return r
}

func TestListPaymentsForOrder(t *testing.T) {
	orderID := uuid.New()
	store := &stubPaymentStore{
		listForOrder: func(_ context.Context, id uuid.UUID) ([]payments.Transaction, error) {
			assert.Equal(t, orderID, id)
			return []payments.Transaction{{
				CheckoutRequestID: "ws_CO_1",
				OrderID:           &orderID,
				AmountCents:       11600,
				Status:            payments.StatusCompleted,
			}}, nil
		},
	}
	sessions := &stubSessions{byID: map[string]*auth.Session{
		"sid": {ID: "sid", State: auth.StateAuthenticated, AccountID: uuid.New()},
	}}
	r := paymentsRouter(store, sessions)

	req := httptest.NewRequest("GET", "/orders/"+orderID.String()+"/payments", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "sid"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var list []payments.Transaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "ws_CO_1", list[0].CheckoutRequestID)
	assert.Equal(t, payments.StatusCompleted, list[0].Status)
}

func TestListPaymentsRequiresAuth(t *testing.T) {
	store := &stubPaymentStore{
		listForOrder: func(context.Context, uuid.UUID) ([]payments.Transaction, error) {
			t.Fatal("unauthenticated request must not reach the store")
			return nil, nil
		},
	}
	r := paymentsRouter(store, &stubSessions{byID: map[string]*auth.Session{}})

	req := httptest.NewRequest("GET", "/orders/"+uuid.NewString()+"/payments", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
