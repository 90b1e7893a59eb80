package orders

import (
	"time"

	"github.com/google/uuid"
)

type Order struct {
	ID                  uuid.UUID
	Number              string
	CustomerName        string
	CustomerEmail       string
	CustomerPhone       string
	TableNumber         *int
	Status              Status
	PaymentStatus       PaymentStatus
	PaymentReceipt      string
	SubtotalCents       int
	TaxCents            int
	TotalCents          int
	SpecialInstructions string
	Items               []OrderItem
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// OrderItem snapshots sku, name and unit price at creation time; later
// price changes on the inventory item do not touch existing orders.
type OrderItem struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	ItemID         uuid.UUID
	SKU            string
	Name           string
	Quantity       int
	UnitPriceCents int
}

type CustomerInfo struct {
	Name                string
	Email               string
	Phone               string
	TableNumber         *int
	SpecialInstructions string
}

type LineInput struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}
