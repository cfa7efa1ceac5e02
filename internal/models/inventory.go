package models

import (
	"time"

	"github.com/google/uuid"
)

// Inventory unit statuses
const (
	UnitStatusAvailable = "available"
	UnitStatusLocked    = "locked"
	UnitStatusSold      = "sold"
)

// InventoryUnit is one sellable instance of a digital good (a single key or
// access URL). A unit with status != available always has OrderID set; an
// available unit never does.
type InventoryUnit struct {
	ID         uuid.UUID  `json:"id"`
	ProductID  uuid.UUID  `json:"product_id"`
	SecretData string     `json:"-"`
	Status     string     `json:"status"`
	OrderID    *uuid.UUID `json:"order_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
