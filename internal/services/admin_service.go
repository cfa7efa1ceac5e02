package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keymarket/backend/internal/marketerr"
	"github.com/keymarket/backend/internal/models"
	"github.com/keymarket/backend/internal/rbac"
	"github.com/keymarket/backend/internal/repositories"
)

const (
	ResolutionRelease = "release"
	ResolutionRefund  = "refund"
)

// AdminService exposes the privileged surface: dispute resolution and
// marketplace stats. Every entry point re-checks the caller's role against
// the user store rather than trusting token claims.
type AdminService struct {
	orders     *OrderService
	orderStore OrderStore
	users      UserStore
	stats      StatsStore
	audit      AuditStore
	log        *zap.Logger
}

func NewAdminService(orders *OrderService, orderStore OrderStore, users UserStore, stats StatsStore, audit AuditStore, log *zap.Logger) *AdminService {
	return &AdminService{
		orders:     orders,
		orderStore: orderStore,
		users:      users,
		stats:      stats,
		audit:      audit,
		log:        log,
	}
}

// ResolveDispute settles a disputed order either way. Release pays the
// seller, refund returns the money to the buyer. The underlying settlement
// is idempotent, so a resolution racing the escrow sweep cannot double-move
// funds.
func (s *AdminService) ResolveDispute(ctx context.Context, adminID, orderID uuid.UUID, resolution string) error {
	if err := s.requirePermission(ctx, adminID, rbac.PermResolveDispute); err != nil {
		return err
	}

	order, err := s.orderStore.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	switch resolution {
	case ResolutionRelease:
		items, err := s.orderStore.GetItems(ctx, orderID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("order %s has no items", orderID)
		}
		if _, err := s.orders.ConfirmOrder(ctx, orderID, items[0].SellerID, order.TotalCents); err != nil {
			return err
		}
	case ResolutionRefund:
		if _, err := s.orders.RefundOrder(ctx, orderID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown resolution %q", resolution)
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &adminID,
		ActorType:   "admin",
		Action:      "dispute_resolved",
		EntityType:  "order",
		EntityID:    &orderID,
		Meta:        map[string]any{"resolution": resolution},
	})

	return nil
}

// ListDisputed returns the admin's work queue, oldest first.
func (s *AdminService) ListDisputed(ctx context.Context, adminID uuid.UUID, limit, offset int) ([]models.Order, error) {
	if err := s.requirePermission(ctx, adminID, rbac.PermResolveDispute); err != nil {
		return nil, err
	}
	status := models.OrderStatusDisputed
	return s.orderStore.List(ctx, repositories.OrderFilter{
		Status: &status,
		Limit:  limit,
		Offset: offset,
	})
}

// OrderAudit returns the audit trail for one order, newest first. Used by
// admins to reconstruct what happened before resolving a dispute.
func (s *AdminService) OrderAudit(ctx context.Context, adminID, orderID uuid.UUID, limit, offset int) ([]models.AuditLog, error) {
	if err := s.requirePermission(ctx, adminID, rbac.PermResolveDispute); err != nil {
		return nil, err
	}
	return s.audit.GetByEntity(ctx, "order", orderID, limit, offset)
}

type MarketStats struct {
	Revenue     []repositories.RevenuePoint `json:"revenue_by_day"`
	Statuses    []repositories.StatusCount  `json:"status_distribution"`
	TopProducts []repositories.TopProduct   `json:"top_products"`
	TotalUsers  int                         `json:"total_users"`
}

func (s *AdminService) GetStats(ctx context.Context, adminID uuid.UUID, since time.Time) (*MarketStats, error) {
	if err := s.requirePermission(ctx, adminID, rbac.PermViewStats); err != nil {
		return nil, err
	}
	revenue, err := s.stats.RevenueByDay(ctx, since)
	if err != nil {
		return nil, err
	}
	statuses, err := s.stats.StatusDistribution(ctx)
	if err != nil {
		return nil, err
	}
	top, err := s.stats.TopProducts(ctx, 10)
	if err != nil {
		return nil, err
	}
	userCount, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &MarketStats{Revenue: revenue, Statuses: statuses, TopProducts: top, TotalUsers: userCount}, nil
}

func (s *AdminService) requirePermission(ctx context.Context, userID uuid.UUID, permission string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !rbac.HasPermission(user.Role, permission) {
		return marketerr.ErrForbidden
	}
	return nil
}
