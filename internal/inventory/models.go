package inventory

import (
	"time"

	"github.com/google/uuid"
)

type ItemStatus string

const (
	StatusActive   ItemStatus = "active"
	StatusInactive ItemStatus = "inactive"
)

type Item struct {
	ID             uuid.UUID
	SKU            string
	Name           string
	UnitCostCents  int
	UnitPriceCents int
	CurrentStock   int
	MinimumStock   int
	MaximumStock   int
	Status         ItemStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NeedsReorder reports whether the item has fallen to its minimum threshold.
func (i Item) NeedsReorder() bool { return i.CurrentStock <= i.MinimumStock }

type MovementType string

const (
	MovementIn  MovementType = "in"
	MovementOut MovementType = "out"
)

type ReferenceType string

const (
	ReferenceOrder        ReferenceType = "order"
	ReferenceManual       ReferenceType = "manual"
	ReferenceInitialStock ReferenceType = "initial_stock"
)

// Movement is an append-only ledger entry; rows are never updated or
// deleted once written.
type Movement struct {
	ID            uuid.UUID
	ItemID        uuid.UUID
	Type          MovementType
	Quantity      int
	UnitCostCents int
	ReferenceType ReferenceType
	ReferenceID   *uuid.UUID
	Notes         string
	CreatedAt     time.Time
}

// Signed returns the quantity with the movement's direction applied.
func (m Movement) Signed() int {
	if m.Type == MovementOut {
		return -m.Quantity
	}
	return m.Quantity
}
