package reservations

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusSeated    Status = "seated"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

var validStatus = map[Status]bool{
	StatusPending: true, StatusConfirmed: true, StatusSeated: true,
	StatusCompleted: true, StatusCancelled: true, StatusNoShow: true,
}

func ValidStatus(s Status) bool { return validStatus[s] }

type Reservation struct {
	ID              uuid.UUID
	GuestName       string
	GuestEmail      string
	GuestPhone      string
	PartySize       int
	ReservationTime time.Time
	TableNumber     *int
	Status          Status
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
