package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/smartrestaurant/backoffice.git/internal/accounts"
	"github.com/smartrestaurant/backoffice.git/internal/auth"
	"github.com/smartrestaurant/backoffice.git/internal/inventory"
	"github.com/smartrestaurant/backoffice.git/internal/orders"
	"github.com/smartrestaurant/backoffice.git/internal/payments"
	"github.com/smartrestaurant/backoffice.git/internal/reservations"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	writeJSON(w, errStatus(err), map[string]string{"error": err.Error()})
}

// errStatus maps service sentinels onto HTTP statuses; anything unmapped is
// a 500.
func errStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidCode),
		errors.Is(err, auth.ErrNoPendingLogin):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, accounts.ErrNotFound),
		errors.Is(err, inventory.ErrItemNotFound),
		errors.Is(err, orders.ErrNotFound),
		errors.Is(err, payments.ErrNotFound),
		errors.Is(err, reservations.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, accounts.ErrAlreadyExists),
		errors.Is(err, inventory.ErrSKUExists),
		errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, orders.ErrInvalidTransition),
		errors.Is(err, payments.ErrTransactionExists):
		return http.StatusConflict
	case errors.Is(err, orders.ErrEmptyItems),
		errors.Is(err, orders.ErrInvalidQuantity),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, inventory.ErrInactiveItem),
		errors.Is(err, payments.ErrInvalidPhone),
		errors.Is(err, reservations.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, payments.ErrGateway):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

type Pagination struct {
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
	TotalRecords int `json:"total_records"`
	PerPage      int `json:"per_page"`
}

type listResponse struct {
	Items      any        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

func parsePage(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func newPagination(page, limit, total int) Pagination {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	if pages < 1 {
		pages = 1
	}
	return Pagination{
		CurrentPage:  page,
		TotalPages:   pages,
		TotalRecords: total,
		PerPage:      limit,
	}
}

func listJSON(w http.ResponseWriter, items any, page, limit, total int) {
	writeJSON(w, http.StatusOK, listResponse{
		Items:      items,
		Pagination: newPagination(page, limit, total),
	})
}
