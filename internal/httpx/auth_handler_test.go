package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartrestaurant/backoffice.git/internal/accounts"
	"github.com/smartrestaurant/backoffice.git/internal/auth"
)

type fakeDirectory struct {
	account *accounts.Account

	setID      uuid.UUID
	setEnabled bool
	setMethod  accounts.TwoFactorMethod
	setCalls   int
}

func (f *fakeDirectory) Create(context.Context, *accounts.Account) error { return nil }

func (f *fakeDirectory) GetByID(_ context.Context, id uuid.UUID) (*accounts.Account, error) {
	if f.account != nil && f.account.ID == id {
		return f.account, nil
	}
	return nil, accounts.ErrNotFound
}

func (f *fakeDirectory) SetTwoFactor(_ context.Context, id uuid.UUID, enabled bool, method accounts.TwoFactorMethod) error {
	f.setID, f.setEnabled, f.setMethod = id, enabled, method
	f.setCalls++
	return nil
}

func authRouter(dir *fakeDirectory, sessions auth.SessionRepo, tokens *auth.TokenProvider) *chi.Mux {
	r := chi.NewRouter()
	(&AuthHandler{Accounts: dir, Sessions: sessions, Tokens: tokens}).Register(r)
	return r
}

func TestSetTwoFactorRequiresAuth(t *testing.T) {
	dir := &fakeDirectory{}
	r := authRouter(dir, &stubSessions{byID: map[string]*auth.Session{}}, nil)

	req := httptest.NewRequest("PUT", "/auth/2fa", strings.NewReader(`{"enabled":true}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, dir.setCalls)
}

func TestSetTwoFactor(t *testing.T) {
	accountID := uuid.New()
	dir := &fakeDirectory{}
	sessions := &stubSessions{byID: map[string]*auth.Session{
		"sid": {ID: "sid", State: auth.StateAuthenticated, AccountID: accountID},
	}}
	r := authRouter(dir, sessions, nil)

	req := httptest.NewRequest("PUT", "/auth/2fa", strings.NewReader(`{"enabled":true,"method":"sms"}`))
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "sid"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, dir.setCalls)
	assert.Equal(t, accountID, dir.setID)
	assert.True(t, dir.setEnabled)
	assert.Equal(t, accounts.TwoFactorSMS, dir.setMethod)
}

func TestSetTwoFactorDisable(t *testing.T) {
	accountID := uuid.New()
	dir := &fakeDirectory{}
	sessions := &stubSessions{byID: map[string]*auth.Session{
		"sid": {ID: "sid", State: auth.StateAuthenticated, AccountID: accountID},
	}}
	r := authRouter(dir, sessions, nil)

	req := httptest.NewRequest("PUT", "/auth/2fa", strings.NewReader(`{"enabled":false}`))
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "sid"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, dir.setEnabled)
	assert.Equal(t, accounts.TwoFactorEmail, dir.setMethod)
}

func TestSetTwoFactorUnknownMethod(t *testing.T) {
	dir := &fakeDirectory{}
	sessions := &stubSessions{byID: map[string]*auth.Session{
		"sid": {ID: "sid", State: auth.StateAuthenticated, AccountID: uuid.New()},
	}}
	r := authRouter(dir, sessions, nil)

	req := httptest.NewRequest("PUT", "/auth/2fa", strings.NewReader(`{"enabled":true,"method":"pigeon"}`))
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "sid"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, dir.setCalls)
}

func TestMe(t *testing.T) {
	tokens := &auth.TokenProvider{Secret: []byte("test-secret"), TTL: time.Minute}
	acct := &accounts.Account{ID: uuid.New(), Username: "manager", Email: "manager@example.com"}
	dir := &fakeDirectory{account: acct}
	r := authRouter(dir, &stubSessions{byID: map[string]*auth.Session{}}, tokens)

	token, err := tokens.Mint(acct.ID, acct.Username)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "manager", body["username"])
	assert.Equal(t, acct.ID.String(), body["account_id"])
}

func TestMeWithoutToken(t *testing.T) {
	tokens := &auth.TokenProvider{Secret: []byte("test-secret"), TTL: time.Minute}
	r := authRouter(&fakeDirectory{}, &stubSessions{byID: map[string]*auth.Session{}}, tokens)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeBadToken(t *testing.T) {
	tokens := &auth.TokenProvider{Secret: []byte("test-secret"), TTL: time.Minute}
	r := authRouter(&fakeDirectory{}, &stubSessions{byID: map[string]*auth.Session{}}, tokens)

	req := httptest.NewRequest("GET", "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
