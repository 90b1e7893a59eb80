package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/smartrestaurant/backoffice.git/internal/auth"
	"github.com/smartrestaurant/backoffice.git/internal/inventory"
)

type InventoryHandler struct {
	Ledger   *inventory.Ledger
	Sessions auth.SessionRepo
}

func (h *InventoryHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.Sessions))
		r.Post("/inventory", h.create)
		r.Get("/inventory", h.list)
		r.Get("/inventory/low-stock", h.lowStock)
		r.Get("/inventory/{id}", h.get)
		r.Post("/inventory/{id}/receive", h.receive)
		r.Post("/inventory/{id}/adjust", h.adjust)
		r.Get("/inventory/{id}/movements", h.movements)
	})
}

type createItemReq struct {
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	UnitCostCents  int    `json:"unit_cost_cents"`
	UnitPriceCents int    `json:"unit_price_cents"`
	CurrentStock   int    `json:"current_stock"`
	MinimumStock   int    `json:"minimum_stock"`
	MaximumStock   int    `json:"maximum_stock"`
}

func (h *InventoryHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.SKU == "" || req.Name == "" || req.CurrentStock < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sku, name and a non-negative stock are required"})
		return
	}
	if req.MaximumStock == 0 {
		req.MaximumStock = 100
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	it := &inventory.Item{
		ID:             uuid.New(),
		SKU:            req.SKU,
		Name:           req.Name,
		UnitCostCents:  req.UnitCostCents,
		UnitPriceCents: req.UnitPriceCents,
		CurrentStock:   req.CurrentStock,
		MinimumStock:   req.MinimumStock,
		MaximumStock:   req.MaximumStock,
		Status:         inventory.StatusActive,
	}
	if err := h.Ledger.CreateItem(ctx, it); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *InventoryHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item id"})
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	it, err := h.Ledger.GetItem(ctx, id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *InventoryHandler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePage(r)

	ctx, cancel := reqCtx(r)
	defer cancel()

	items, total, err := h.Ledger.ListItems(ctx, inventory.ListFilter{
		Status: r.URL.Query().Get("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	listJSON(w, items, page, limit, total)
}

func (h *InventoryHandler) lowStock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r)
	defer cancel()

	items, err := h.Ledger.LowStock(ctx)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type receiveReq struct {
	Quantity      int    `json:"quantity"`
	UnitCostCents int    `json:"unit_cost_cents"`
	Notes         string `json:"notes"`
}

func (h *InventoryHandler) receive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item id"})
		return
	}
	var req receiveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	if err := h.Ledger.Receive(ctx, id, req.Quantity, req.UnitCostCents, req.Notes); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

type adjustReq struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

func (h *InventoryHandler) adjust(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item id"})
		return
	}
	var req adjustReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	if err := h.Ledger.Adjust(ctx, id, req.Delta, req.Reason); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "adjusted"})
}

func (h *InventoryHandler) movements(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item id"})
		return
	}
	page, limit := parsePage(r)

	ctx, cancel := reqCtx(r)
	defer cancel()

	moves, total, err := h.Ledger.Movements(ctx, id, page, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	listJSON(w, moves, page, limit, total)
}
