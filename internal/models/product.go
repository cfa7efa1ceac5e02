package models

import (
	"time"

	"github.com/google/uuid"
)

// Product types
const (
	ProductTypeSerialKey = "serial_key"
	ProductTypeFile      = "file"
	ProductTypeDirectAPI = "direct_api"
)

func IsValidProductType(t string) bool {
	return t == ProductTypeSerialKey || t == ProductTypeFile || t == ProductTypeDirectAPI
}

type Product struct {
	ID          uuid.UUID    `json:"id"`
	SellerID    uuid.UUID    `json:"seller_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	PriceCents  int64        `json:"price_cents"`
	Type        string       `json:"type"`
	InputSchema *InputSchema `json:"input_schema,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// ProductWithStock embeds Product and the count of available units.
type ProductWithStock struct {
	Product
	AvailableUnits int `json:"available_units"`
}
