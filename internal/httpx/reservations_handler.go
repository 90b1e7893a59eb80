package httpx

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/smartrestaurant/backoffice.git/internal/auth"
	"github.com/smartrestaurant/backoffice.git/internal/reservations"
)

type ReservationsHandler struct {
	Repo     *reservations.Repo
	Sessions auth.SessionRepo
}

func (h *ReservationsHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(h.Sessions))
		r.Post("/reservations", h.create)
		r.Get("/reservations", h.list)
		r.Get("/reservations/{id}", h.get)
		r.Put("/reservations/{id}/status", h.updateStatus)
	})
}

type createReservationReq struct {
	GuestName       string    `json:"guest_name"`
	GuestEmail      string    `json:"guest_email"`
	GuestPhone      string    `json:"guest_phone"`
	PartySize       int       `json:"party_size"`
	ReservationTime time.Time `json:"reservation_time"`
	TableNumber     *int      `json:"table_number"`
	Notes           string    `json:"notes"`
}

func (h *ReservationsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createReservationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.GuestName == "" || req.PartySize < 1 || req.ReservationTime.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "guest name, party size and reservation time are required"})
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	res := &reservations.Reservation{
		ID:              uuid.New(),
		GuestName:       req.GuestName,
		GuestEmail:      req.GuestEmail,
		GuestPhone:      req.GuestPhone,
		PartySize:       req.PartySize,
		ReservationTime: req.ReservationTime,
		TableNumber:     req.TableNumber,
		Status:          reservations.StatusPending,
		Notes:           req.Notes,
	}
	if err := h.Repo.Create(ctx, res); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *ReservationsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid reservation id"})
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	res, err := h.Repo.Get(ctx, id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ReservationsHandler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePage(r)
	f := reservations.ListFilter{
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

	list, total, err := h.Repo.List(ctx, f)
	if err != nil {
		writeErr(w, err)
		return
	}
	listJSON(w, list, page, limit, total)
}

func (h *ReservationsHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid reservation id"})
		return
	}
	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := reqCtx(r)
	defer cancel()

	if err := h.Repo.UpdateStatus(ctx, id, reservations.Status(req.Status)); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}
