package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keymarket/backend/internal/config"
	"github.com/keymarket/backend/internal/events"
	"github.com/keymarket/backend/internal/marketerr"
	"github.com/keymarket/backend/internal/models"
	"github.com/keymarket/backend/internal/repositories"
)

// OrderService owns the order state machine and the movement of funds
// between buyer and seller balances. Every transition goes through the
// status check-and-set in the order store, so concurrent resolvers of the
// same order (sweep, buyer, admin) settle exactly once.
type OrderService struct {
	orders    OrderStore
	inventory InventoryStore
	wallets   WalletStore
	products  ProductStore
	audit     AuditStore
	publisher events.Publisher
	cfg       *config.Config
	log       *zap.Logger
	now       func() time.Time
}

func NewOrderService(
	orders OrderStore,
	inventory InventoryStore,
	wallets WalletStore,
	products ProductStore,
	audit AuditStore,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		inventory: inventory,
		wallets:   wallets,
		products:  products,
		audit:     audit,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// CheckoutItem is one finalized cart line handed over at checkout: a product
// reference plus the buyer's answers to the product's input schema.
type CheckoutItem struct {
	ProductID uuid.UUID         `json:"product_id"`
	Input     map[string]string `json:"input,omitempty"`
}

type CheckoutRequest struct {
	Items         []CheckoutItem
	PaymentMethod string
	ContactEmail  string
	DeliveryNotes *string
}

// CreateOrder runs the all-or-nothing checkout: snapshot prices, insert the
// order in escrow, then reserve one unit per item. Any reservation failure
// releases what was reserved and deletes the order, so no partial order
// survives.
func (s *OrderService) CreateOrder(ctx context.Context, buyerID uuid.UUID, req CheckoutRequest) (*models.Order, error) {
	if buyerID == uuid.Nil {
		return nil, marketerr.ErrUnauthorized
	}
	if len(req.Items) == 0 {
		return nil, marketerr.ErrEmptyCart
	}

	// Snapshot title/price/seller per item before any side effect. Later
	// catalog price changes must not move this order's total.
	items := make([]models.OrderItem, 0, len(req.Items))
	var total int64
	for _, ci := range req.Items {
		product, err := s.products.GetByID(ctx, ci.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", ci.ProductID, err)
		}
		if product.InputSchema != nil {
			if err := product.InputSchema.ValidateInput(ci.Input); err != nil {
				return nil, fmt.Errorf("product %q: %w", product.Title, err)
			}
		}
		items = append(items, models.OrderItem{
			ProductID:  product.ID,
			Title:      product.Title,
			PriceCents: product.PriceCents,
			SellerID:   product.SellerID,
			BuyerInput: ci.Input,
		})
		total += product.PriceCents
	}

	order := &models.Order{
		BuyerID:         buyerID,
		TotalCents:      total,
		Status:          models.OrderStatusEscrow,
		EscrowReleaseAt: s.now().Add(s.cfg.EscrowHoldPeriod),
		PaymentMethod:   req.PaymentMethod,
		ContactEmail:    req.ContactEmail,
		DeliveryNotes:   req.DeliveryNotes,
	}
	if err := s.orders.Create(ctx, order, items); err != nil {
		return nil, err
	}

	// Reserve one unit per line. On failure the order row must not survive.
	reserved := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		unit, err := s.inventory.ReserveUnit(ctx, item.ProductID)
		if err != nil {
			s.rollbackCheckout(ctx, order.ID, reserved)
			if err == marketerr.ErrOutOfStock {
				return nil, fmt.Errorf("%w: %s", marketerr.ErrOutOfStock, item.Title)
			}
			return nil, err
		}
		reserved = append(reserved, unit.ID)
	}

	for _, unitID := range reserved {
		if err := s.inventory.BindToOrder(ctx, unitID, order.ID); err != nil {
			s.rollbackCheckout(ctx, order.ID, reserved)
			return nil, err
		}
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &buyerID,
		ActorType:   "user",
		Action:      "order_created",
		EntityType:  "order",
		EntityID:    &order.ID,
		Meta:        map[string]any{"total_cents": total, "items": len(items)},
	})
	s.publish(ctx, events.EventOrderCreated, order.ID, order.BuyerID, order.Status)

	return order, nil
}

func (s *OrderService) rollbackCheckout(ctx context.Context, orderID uuid.UUID, reserved []uuid.UUID) {
	for _, unitID := range reserved {
		if err := s.inventory.Release(ctx, unitID); err != nil {
			s.log.Error("checkout rollback: release failed",
				zap.String("unit_id", unitID.String()), zap.Error(err))
		}
	}
	if err := s.orders.Delete(ctx, orderID); err != nil {
		s.log.Error("checkout rollback: order delete failed",
			zap.String("order_id", orderID.String()), zap.Error(err))
	}
}

// ConfirmOrder settles an order in the seller's favor. The check-and-set
// into completed decides the winner; the settlement steps behind it are all
// idempotent (order-keyed credit, conditional unit updates), so a losing or
// repeated call re-runs them and finishes whatever a previous caller failed
// partway through. Returns whether this call won the transition.
func (s *OrderService) ConfirmOrder(ctx context.Context, orderID, sellerID uuid.UUID, amountCents int64) (bool, error) {
	won, err := s.orders.UpdateStatusIf(ctx, orderID,
		models.TransitionsInto(models.OrderStatusCompleted), models.OrderStatusCompleted)
	if err != nil {
		return false, err
	}
	if !won {
		order, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return false, err
		}
		if order.Status != models.OrderStatusCompleted {
			return false, fmt.Errorf("order is %s, cannot complete", order.Status)
		}
		return false, s.settleCompleted(ctx, orderID, sellerID, amountCents)
	}

	if err := s.settleCompleted(ctx, orderID, sellerID, amountCents); err != nil {
		// The order is completed but the settlement did not finish; a retry
		// through any confirm path resumes it.
		s.log.Error("settlement incomplete after completion",
			zap.String("order_id", orderID.String()),
			zap.String("seller_id", sellerID.String()), zap.Error(err))
		return true, err
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorType:  "system",
		Action:     "order_completed",
		EntityType: "order",
		EntityID:   &orderID,
		Meta:       map[string]any{"seller_id": sellerID.String(), "amount_cents": amountCents},
	})
	if order, err := s.orders.GetByID(ctx, orderID); err == nil {
		s.publish(ctx, events.EventOrderStatusChanged, orderID, order.BuyerID, models.OrderStatusCompleted)
	}

	return true, nil
}

// settleCompleted runs the post-completion side effects. Every step is safe
// to repeat: the credit is keyed by order, MarkSold only flips locked units.
func (s *OrderService) settleCompleted(ctx context.Context, orderID, sellerID uuid.UUID, amountCents int64) error {
	if err := s.wallets.CreditOnce(ctx, orderID, sellerID, amountCents); err != nil {
		return err
	}
	units, err := s.inventory.ListByOrder(ctx, orderID)
	if err != nil {
		return err
	}
	for _, u := range units {
		if err := s.inventory.MarkSold(ctx, u.ID); err != nil {
			return err
		}
	}
	return nil
}

// ConfirmReceived is the buyer-facing completion path: verifies ownership,
// resolves seller and amount from the order itself, then settles.
func (s *OrderService) ConfirmReceived(ctx context.Context, orderID, buyerID uuid.UUID) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.BuyerID != buyerID {
		return marketerr.ErrForbidden
	}
	items, err := s.orders.GetItems(ctx, orderID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("order %s has no items", orderID)
	}
	// Single payout per order: multi-seller carts settle to the first
	// line's seller, matching the one-payout invariant.
	_, err = s.ConfirmOrder(ctx, orderID, items[0].SellerID, order.TotalCents)
	return err
}

// DisputeOrder freezes an escrow order pending admin resolution. No fund
// movement.
func (s *OrderService) DisputeOrder(ctx context.Context, orderID, buyerID uuid.UUID) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.BuyerID != buyerID {
		return marketerr.ErrForbidden
	}

	won, err := s.orders.UpdateStatusIf(ctx, orderID,
		models.TransitionsInto(models.OrderStatusDisputed), models.OrderStatusDisputed)
	if err != nil {
		return err
	}
	if !won {
		return fmt.Errorf("order is %s, only escrow orders can be disputed", order.Status)
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &buyerID,
		ActorType:   "user",
		Action:      "order_disputed",
		EntityType:  "order",
		EntityID:    &orderID,
	})
	s.publish(ctx, events.EventOrderStatusChanged, orderID, buyerID, models.OrderStatusDisputed)

	return nil
}

// RefundOrder settles in the buyer's favor: every bound unit returns to
// available and the buyer is credited the order total as store credit. Like
// completion, the transition has one winner but the settlement steps are
// idempotent and resumable. Refunded orders never reached completed, so
// their secrets were never served; returning units to the pool is safe. If
// the state machine ever grows a completed->disputed edge, revealed units
// must be retired here instead.
func (s *OrderService) RefundOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return false, err
	}

	won, err := s.orders.UpdateStatusIf(ctx, orderID,
		models.TransitionsInto(models.OrderStatusRefunded), models.OrderStatusRefunded)
	if err != nil {
		return false, err
	}
	if !won {
		fresh, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return false, err
		}
		if fresh.Status != models.OrderStatusRefunded {
			return false, fmt.Errorf("order is %s, cannot refund", fresh.Status)
		}
		return false, s.settleRefunded(ctx, fresh)
	}

	if err := s.settleRefunded(ctx, order); err != nil {
		s.log.Error("settlement incomplete after refund",
			zap.String("order_id", orderID.String()), zap.Error(err))
		return true, err
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorType:  "system",
		Action:     "order_refunded",
		EntityType: "order",
		EntityID:   &orderID,
		Meta:       map[string]any{"buyer_id": order.BuyerID.String(), "amount_cents": order.TotalCents},
	})
	s.publish(ctx, events.EventOrderStatusChanged, orderID, order.BuyerID, models.OrderStatusRefunded)

	return true, nil
}

// settleRefunded credits the buyer and returns the order's units to the
// pool. Release clears the unit's order binding, so already-released units
// drop out of ListByOrder and a retry only touches what is left.
func (s *OrderService) settleRefunded(ctx context.Context, order *models.Order) error {
	if err := s.wallets.CreditOnce(ctx, order.ID, order.BuyerID, order.TotalCents); err != nil {
		return err
	}
	units, err := s.inventory.ListByOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	for _, u := range units {
		if err := s.inventory.Release(ctx, u.ID); err != nil {
			return err
		}
	}
	return nil
}

// SweepEscrow auto-completes every escrow order whose hold window has
// elapsed. Each order is processed independently; one failure is logged and
// the sweep moves on. Safe to run concurrently with itself and with manual
// confirmation thanks to the settlement check-and-set.
func (s *OrderService) SweepEscrow(ctx context.Context) ([]uuid.UUID, error) {
	limit := 100
	if s.cfg != nil && s.cfg.SweepBatchSize > 0 {
		limit = s.cfg.SweepBatchSize
	}
	due, err := s.orders.ListDueEscrow(ctx, s.now(), limit)
	if err != nil {
		return nil, err
	}

	var released []uuid.UUID
	for _, order := range due {
		items, err := s.orders.GetItems(ctx, order.ID)
		if err != nil || len(items) == 0 {
			s.log.Error("sweep: cannot resolve seller",
				zap.String("order_id", order.ID.String()), zap.Error(err))
			continue
		}
		won, err := s.ConfirmOrder(ctx, order.ID, items[0].SellerID, order.TotalCents)
		if err != nil {
			s.log.Error("sweep: auto-release failed",
				zap.String("order_id", order.ID.String()), zap.Error(err))
			continue
		}
		if won {
			s.log.Info("escrow auto-released", zap.String("order_id", order.ID.String()))
			released = append(released, order.ID)
		}
	}
	return released, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID, buyerID uuid.UUID) (*models.OrderWithItems, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, marketerr.ErrForbidden
	}
	items, err := s.orders.GetItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &models.OrderWithItems{Order: *order, Items: items}, nil
}

func (s *OrderService) ListOrders(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Order, error) {
	return s.orders.List(ctx, repositories.OrderFilter{
		BuyerID: &buyerID,
		Limit:   limit,
		Offset:  offset,
	})
}

// OrderSecret is one delivered key/URL from a settled order.
type OrderSecret struct {
	UnitID     uuid.UUID `json:"unit_id"`
	ProductID  uuid.UUID `json:"product_id"`
	SecretData string    `json:"secret_data"`
}

// GetOrderSecrets serves the purchased payloads. Secrets are only ever
// revealed to the order's buyer and only once the order is completed.
func (s *OrderService) GetOrderSecrets(ctx context.Context, orderID, buyerID uuid.UUID) ([]OrderSecret, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, marketerr.ErrForbidden
	}
	if order.Status != models.OrderStatusCompleted {
		return nil, fmt.Errorf("%w: secrets are revealed after completion", marketerr.ErrForbidden)
	}

	units, err := s.inventory.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	secrets := make([]OrderSecret, 0, len(units))
	for _, u := range units {
		secrets = append(secrets, OrderSecret{
			UnitID:     u.ID,
			ProductID:  u.ProductID,
			SecretData: u.SecretData,
		})
	}
	return secrets, nil
}

func (s *OrderService) publish(ctx context.Context, eventType string, orderID, buyerID uuid.UUID, status string) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(ctx, events.StreamOrders, events.Event{
		Type: eventType,
		Payload: map[string]any{
			"order_id": orderID.String(),
			"buyer_id": buyerID.String(),
			"status":   status,
		},
	})
}
