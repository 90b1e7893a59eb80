package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartrestaurant/backoffice.git/internal/auth"
	"github.com/smartrestaurant/backoffice.git/internal/payments"
)

type PaymentsHandler struct {
	Service  *payments.Service
	Sessions auth.SessionRepo
	Log      *zap.Logger
}

func (h *PaymentsHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.Sessions))
		r.Post("/payments/mpesa", h.initiate)
		r.Get("/payments/mpesa/{id}", h.query)
		r.Get("/orders/{id}/payments", h.listForOrder)
	})
	// The gateway calls this; it carries no session.
	r.Post("/payments/mpesa/callback", h.callback)
}

type initiateReq struct {
	PhoneNumber string    `json:"phone_number"`
	AmountCents int       `json:"amount_cents"`
	OrderID     uuid.UUID `json:"order_id"`
}

func (h *PaymentsHandler) initiate(w http.ResponseWriter, r *http.Request) {
	var req initiateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.AmountCents < 100 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must be at least one shilling"})
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	resp, err := h.Service.Initiate(ctx, req.OrderID, req.PhoneNumber, req.AmountCents)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"checkout_request_id": resp.CheckoutRequestID,
		"merchant_request_id": resp.MerchantRequestID,
		"customer_message":    resp.CustomerMessage,
	})
}

func (h *PaymentsHandler) query(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := reqCtx(r)
	defer cancel()

	t, err := h.Service.Query(ctx, id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *PaymentsHandler) listForOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	list, err := h.Service.TransactionsForOrder(ctx, id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if list == nil {
		list = []payments.Transaction{}
	}
	writeJSON(w, http.StatusOK, list)
}

// callback always acks with ResultCode 0. The gateway retries on anything
// else, and a reconciliation failure is already on the dead-letter topic.
func (h *PaymentsHandler) callback(w http.ResponseWriter, r *http.Request) {
	var cb payments.CallbackBody
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		h.Log.Warn("undecodable mpesa callback", zap.Error(err))
		h.ack(w)
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	if err := h.Service.ReconcileCallback(ctx, cb); err != nil {
		h.Log.Error("mpesa callback not reconciled", zap.Error(err))
	}
	h.ack(w)
}

func (h *PaymentsHandler) ack(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ResultCode": 0,
		"ResultDesc": "Success",
	})
}
