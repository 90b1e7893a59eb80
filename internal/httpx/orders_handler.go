package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/smartrestaurant/backoffice.git/internal/auth"
	"github.com/smartrestaurant/backoffice.git/internal/orders"
)

type OrdersHandler struct {
	Pipeline *orders.Pipeline
	Cache    *orders.StatusCache
	Sessions auth.SessionRepo
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.Sessions))
		r.Post("/orders", h.create)
		r.Get("/orders", h.list)
		r.Get("/orders/{id}", h.get)
		r.Get("/orders/{id}/status", h.status)
		r.Put("/orders/{id}/status", h.updateStatus)
		r.Delete("/orders/{id}", h.cancel)
	})
}

type createOrderReq struct {
	CustomerName        string             `json:"customer_name"`
	CustomerEmail       string             `json:"customer_email"`
	CustomerPhone       string             `json:"customer_phone"`
	TableNumber         *int               `json:"table_number"`
	SpecialInstructions string             `json:"special_instructions"`
	Items               []orders.LineInput `json:"items"`
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	order, err := h.Pipeline.CreateOrder(ctx, orders.CustomerInfo{
		Name:                req.CustomerName,
		Email:               req.CustomerEmail,
		Phone:               req.CustomerPhone,
		TableNumber:         req.TableNumber,
		SpecialInstructions: req.SpecialInstructions,
	}, req.Items)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, orderJSON(order))
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	order, err := h.Pipeline.GetOrder(ctx, id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, orderJSON(order))
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePage(r)
	f := orders.ListFilter{
		Status: r.URL.Query().Get("status"),
		Page:   page,
		Limit:  limit,
	}
	if from := r.URL.Query().Get("date_from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			f.DateFrom = &t
		}
	}
	if to := r.URL.Query().Get("date_to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			end := t.Add(24*time.Hour - time.Nanosecond)
			f.DateTo = &end
		}
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	list, total, err := h.Pipeline.ListOrders(ctx, f)
	if err != nil {
		writeErr(w, err)
		return
	}
	items := make([]map[string]any, 0, len(list))
	for i := range list {
		items = append(items, orderJSON(&list[i]))
	}
	listJSON(w, items, page, limit, total)
}

// status serves the polled fields from the Redis cache, falling back to
// Postgres on a miss.
func (h *OrdersHandler) status(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	if h.Cache != nil {
		if st, pay, ok := h.Cache.Get(ctx, id); ok {
			writeJSON(w, http.StatusOK, map[string]any{"status": st, "payment_status": pay})
			return
		}
	}

	order, err := h.Pipeline.GetOrder(ctx, id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if h.Cache != nil {
		_ = h.Cache.Put(ctx, id, order.Status, order.PaymentStatus)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
	})
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}
	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	if err := h.Pipeline.UpdateStatus(ctx, id, orders.Status(req.Status)); err != nil {
		writeErr(w, err)
		return
	}
	if h.Cache != nil {
		_ = h.Cache.Invalidate(ctx, id)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	if err := h.Pipeline.UpdateStatus(ctx, id, orders.StatusCancelled); err != nil {
		writeErr(w, err)
		return
	}
	if h.Cache != nil {
		_ = h.Cache.Invalidate(ctx, id)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(orders.StatusCancelled)})
}

func orderJSON(o *orders.Order) map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, map[string]any{
			"sku":              it.SKU,
			"name":             it.Name,
			"quantity":         it.Quantity,
			"unit_price_cents": it.UnitPriceCents,
		})
	}
	return map[string]any{
		"id":                   o.ID,
		"order_number":         o.Number,
		"customer_name":        o.CustomerName,
		"customer_email":       o.CustomerEmail,
		"customer_phone":       o.CustomerPhone,
		"table_number":         o.TableNumber,
		"status":               o.Status,
		"payment_status":       o.PaymentStatus,
		"payment_receipt":      o.PaymentReceipt,
		"subtotal_cents":       o.SubtotalCents,
		"tax_cents":            o.TaxCents,
		"total_cents":          o.TotalCents,
		"special_instructions": o.SpecialInstructions,
		"items":                items,
		"created_at":           o.CreatedAt,
	}
}
