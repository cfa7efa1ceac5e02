package dto

import "github.com/keymarket/backend/internal/models"

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"` // buyer / seller, defaults to buyer
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateProductRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	PriceCents  int64               `json:"price_cents"`
	Type        string              `json:"type"` // serial_key / file / direct_api
	InputSchema *models.InputSchema `json:"input_schema,omitempty"`
}

type AddInventoryUnitRequest struct {
	SecretData string `json:"secret_data"`
}

type CheckoutItemRequest struct {
	ProductID string            `json:"product_id"`
	Input     map[string]string `json:"input,omitempty"`
}

type CheckoutRequest struct {
	Items         []CheckoutItemRequest `json:"items"`
	PaymentMethod string                `json:"payment_method"`
	ContactEmail  string                `json:"contact_email"`
	DeliveryNotes *string               `json:"delivery_notes,omitempty"`
}

type ResolveDisputeRequest struct {
	Action string `json:"action"` // release / refund
}
