package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusEscrow    = "escrow"
	OrderStatusCompleted = "completed"
	OrderStatusDisputed  = "disputed"
	OrderStatusRefunded  = "refunded"
)

// Valid state transitions: from -> []to.
// pending is transient: checkout writes escrow directly and rolls back by
// deleting the row, so pending never survives a failed creation.
// escrow -> refunded exists for admin force-refunds of undisputed orders.
var ValidOrderTransitions = map[string][]string{
	OrderStatusPending:   {OrderStatusEscrow},
	OrderStatusEscrow:    {OrderStatusCompleted, OrderStatusDisputed, OrderStatusRefunded},
	OrderStatusDisputed:  {OrderStatusCompleted, OrderStatusRefunded},
	OrderStatusCompleted: {},
	OrderStatusRefunded:  {},
}

func IsValidTransition(from, to string) bool {
	allowed, ok := ValidOrderTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist for the status.
func IsTerminal(status string) bool {
	allowed, ok := ValidOrderTransitions[status]
	return ok && len(allowed) == 0
}

// TransitionsInto returns every status that may move into the given one.
// The check-and-set transitions derive their from-lists here, so the table
// above is the single source of truth for the state machine.
func TransitionsInto(to string) []string {
	var from []string
	for status, allowed := range ValidOrderTransitions {
		for _, next := range allowed {
			if next == to {
				from = append(from, status)
			}
		}
	}
	sort.Strings(from)
	return from
}

type Order struct {
	ID              uuid.UUID `json:"id"`
	BuyerID         uuid.UUID `json:"buyer_id"`
	TotalCents      int64     `json:"total_cents"`
	Status          string    `json:"status"`
	EscrowReleaseAt time.Time `json:"escrow_release_at"`
	PaymentMethod   string    `json:"payment_method"`
	ContactEmail    string    `json:"contact_email"`
	DeliveryNotes   *string   `json:"delivery_notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// OrderItem is a price/title snapshot taken at checkout. Later catalog price
// changes never affect an existing order.
type OrderItem struct {
	ID         uuid.UUID         `json:"id"`
	OrderID    uuid.UUID         `json:"order_id"`
	ProductID  uuid.UUID         `json:"product_id"`
	Title      string            `json:"title"`
	PriceCents int64             `json:"price_cents"`
	SellerID   uuid.UUID         `json:"seller_id"`
	BuyerInput map[string]string `json:"buyer_input,omitempty"`
}

// OrderWithItems embeds Order and its line items to avoid N+1 queries.
type OrderWithItems struct {
	Order
	Items []OrderItem `json:"items"`
}
