package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/smartrestaurant/backoffice.git/internal/accounts"
	"github.com/smartrestaurant/backoffice.git/internal/auth"
)

// AccountDirectory is the slice of the accounts repo the handler needs.
type AccountDirectory interface {
	Create(ctx context.Context, a *accounts.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*accounts.Account, error)
	SetTwoFactor(ctx context.Context, id uuid.UUID, enabled bool, method accounts.TwoFactorMethod) error
}

type AuthHandler struct {
	Machine  *auth.Machine
	Accounts AccountDirectory
	Hasher   auth.Hasher
	Sessions auth.SessionRepo
	Tokens   *auth.TokenProvider
}

func (h *AuthHandler) Register(r *chi.Mux) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
	r.Post("/auth/verify-2fa", h.verifySecondFactor)
	r.Post("/auth/logout", h.logout)
	r.Post("/auth/forgot-password", h.forgotPassword)
	r.Post("/auth/reset-password", h.resetPassword)
	r.Get("/auth/me", h.me)
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.Sessions))
		r.Put("/auth/2fa", h.setTwoFactor)
	})
}

type registerReq struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	TwoFactor       bool   `json:"two_factor_enabled"`
	TwoFactorMethod string `json:"two_factor_method"`
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if len(req.Username) < 3 || !strings.Contains(req.Email, "@") || len(req.Password) < 8 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username, valid email and a password of at least 8 characters are required"})
		return
	}
	method := accounts.TwoFactorEmail
	if req.TwoFactorMethod == string(accounts.TwoFactorSMS) {
		method = accounts.TwoFactorSMS
	}

	hash, err := h.Hasher.Hash(req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	acct := &accounts.Account{
		ID:               uuid.New(),
		Username:         req.Username,
		Email:            req.Email,
		Phone:            req.Phone,
		PasswordHash:     hash,
		TwoFactorEnabled: req.TwoFactor,
		TwoFactorMethod:  method,
	}
	if err := h.Accounts.Create(ctx, acct); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"account_id": acct.ID.String()})
}

type loginReq struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Identifier == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	sid := sessionID(w, r)
	res, err := h.Machine.Login(ctx, sid, req.Identifier, req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}
	if res.RequiresSecondFactor {
		writeJSON(w, http.StatusOK, map[string]any{"requires_2fa": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"requires_2fa": false,
		"token":        res.Token,
		"csrf_token":   res.CSRFToken,
	})
}

type verifyReq struct {
	Code string `json:"code"`
}

func (h *AuthHandler) verifySecondFactor(w http.ResponseWriter, r *http.Request) {
	var req verifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	sid := sessionID(w, r)
	res, err := h.Machine.SubmitSecondFactor(ctx, sid, req.Code)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCode) && res != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error":              err.Error(),
				"remaining_attempts": res.RemainingAttempts,
			})
			return
		}
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      res.Token,
		"csrf_token": res.CSRFToken,
	})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := reqCtx(r)
	defer cancel()

	if err := h.Machine.Logout(ctx, sessionID(w, r)); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

type forgotReq struct {
	Email string `json:"email"`
}

func (h *AuthHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email required"})
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	if err := h.Machine.RequestPasswordReset(ctx, req.Email); err != nil {
		writeErr(w, err)
		return
	}
	// Same answer whether or not the address exists.
	writeJSON(w, http.StatusOK, map[string]string{"status": "if the address exists, a reset code was sent"})
}

type resetReq struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

func (h *AuthHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if len(req.NewPassword) < 8 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	if err := h.Machine.ResetPassword(ctx, req.Email, req.Code, req.NewPassword); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

type twoFactorReq struct {
	Enabled bool   `json:"enabled"`
	Method  string `json:"method"`
}

// setTwoFactor lets the logged-in account switch the second factor on or off
// and pick the delivery channel.
func (h *AuthHandler) setTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req twoFactorReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	method := accounts.TwoFactorEmail
	switch req.Method {
	case "", string(accounts.TwoFactorEmail):
	case string(accounts.TwoFactorSMS):
		method = accounts.TwoFactorSMS
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown two-factor method"})
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}
	sess, err := h.Sessions.Get(ctx, c.Value)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := h.Accounts.SetTwoFactor(ctx, sess.AccountID, req.Enabled, method); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"two_factor_enabled": req.Enabled,
		"two_factor_method":  method,
	})
}

// me resolves a bearer access token to its account; API clients use this
// instead of the cookie session.
func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	raw := strings.TrimPrefix(header, "Bearer ")
	if raw == "" || raw == header {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "bearer token required"})
		return
	}
	id, err := h.Tokens.Verify(raw)
	if err != nil {
		writeErr(w, err)
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	acct, err := h.Accounts.GetByID(ctx, id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account_id":         acct.ID,
		"username":           acct.Username,
		"email":              acct.Email,
		"two_factor_enabled": acct.TwoFactorEnabled,
		"two_factor_method":  acct.TwoFactorMethod,
	})
}

func reqCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 5*time.Second)
}
