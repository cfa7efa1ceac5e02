package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/keymarket/backend/internal/models"
	"github.com/keymarket/backend/internal/repositories"
)

// Store interfaces consumed by the services. The pgx repositories satisfy
// them; tests substitute in-memory fakes.

type OrderStore interface {
	Create(ctx context.Context, o *models.Order, items []models.OrderItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	List(ctx context.Context, f repositories.OrderFilter) ([]models.Order, error)
	ListDueEscrow(ctx context.Context, now time.Time, limit int) ([]models.Order, error)
	UpdateStatusIf(ctx context.Context, id uuid.UUID, from []string, to string) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type InventoryStore interface {
	AddUnit(ctx context.Context, u *models.InventoryUnit) error
	ReserveUnit(ctx context.Context, productID uuid.UUID) (*models.InventoryUnit, error)
	BindToOrder(ctx context.Context, unitID, orderID uuid.UUID) error
	Release(ctx context.Context, unitID uuid.UUID) error
	MarkSold(ctx context.Context, unitID uuid.UUID) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.InventoryUnit, error)
	CountAvailable(ctx context.Context, productID uuid.UUID) (int, error)
}

type WalletStore interface {
	CreditOnce(ctx context.Context, orderID, userID uuid.UUID, amountCents int64) error
}

type ProductStore interface {
	Create(ctx context.Context, p *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.ProductWithStock, error)
	IsOwnedBy(ctx context.Context, productID, sellerID uuid.UUID) (bool, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Count(ctx context.Context) (int, error)
}

type AuditStore interface {
	Log(ctx context.Context, entry models.AuditLog) error
	GetByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]models.AuditLog, error)
}

type StatsStore interface {
	RevenueByDay(ctx context.Context, since time.Time) ([]repositories.RevenuePoint, error)
	StatusDistribution(ctx context.Context) ([]repositories.StatusCount, error)
	TopProducts(ctx context.Context, limit int) ([]repositories.TopProduct, error)
}
