package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smartrestaurant/backoffice.git/internal/auth"
	"github.com/smartrestaurant/backoffice.git/internal/inventory"
	"github.com/smartrestaurant/backoffice.git/internal/orders"
	"github.com/smartrestaurant/backoffice.git/internal/payments"
)

func TestErrStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{auth.ErrInvalidCode, http.StatusUnauthorized},
		{auth.ErrNoPendingLogin, http.StatusUnauthorized},
		{auth.ErrRateLimited, http.StatusTooManyRequests},
		{orders.ErrNotFound, http.StatusNotFound},
		{payments.ErrNotFound, http.StatusNotFound},
		{inventory.ErrInsufficientStock, http.StatusConflict},
		{orders.ErrInvalidTransition, http.StatusConflict},
		{payments.ErrTransactionExists, http.StatusConflict},
		{payments.ErrInvalidPhone, http.StatusBadRequest},
		{orders.ErrEmptyItems, http.StatusBadRequest},
		{payments.ErrGateway, http.StatusBadGateway},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, errStatus(c.err), c.err.Error())
	}
}

func TestErrStatusWrapped(t *testing.T) {
	err := errors.Join(errors.New("reserve SKU-1"), inventory.ErrInsufficientStock)
	assert.Equal(t, http.StatusConflict, errStatus(err))
}

func TestParsePageDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/orders", nil)
	page, limit := parsePage(r)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)
}

func TestParsePageBounds(t *testing.T) {
	r := httptest.NewRequest("GET", "/orders?page=-3&limit=5000", nil)
	page, limit := parsePage(r)
	assert.Equal(t, 1, page)
	assert.Equal(t, 100, limit)

	r = httptest.NewRequest("GET", "/orders?page=7&limit=25", nil)
	page, limit = parsePage(r)
	assert.Equal(t, 7, page)
	assert.Equal(t, 25, limit)
}

func TestNewPagination(t *testing.T) {
	p := newPagination(2, 20, 45)
	assert.Equal(t, 2, p.CurrentPage)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 45, p.TotalRecords)
	assert.Equal(t, 20, p.PerPage)

	p = newPagination(1, 20, 0)
	assert.Equal(t, 1, p.TotalPages)
}
