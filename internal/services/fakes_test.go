package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/keymarket/backend/internal/marketerr"
	"github.com/keymarket/backend/internal/models"
	"github.com/keymarket/backend/internal/repositories"
)

// In-memory stores backing the service tests. All methods are guarded by a
// single mutex per store so concurrency tests exercise the same races the
// SQL versions face.

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
	items  map[uuid.UUID][]models.OrderItem
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders: make(map[uuid.UUID]*models.Order),
		items:  make(map[uuid.UUID][]models.OrderItem),
	}
}

func (s *fakeOrderStore) Create(_ context.Context, o *models.Order, items []models.OrderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	cp := *o
	s.orders[o.ID] = &cp
	stored := make([]models.OrderItem, len(items))
	for i, it := range items {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		it.OrderID = o.ID
		stored[i] = it
	}
	s.items[o.ID] = stored
	return nil
}

func (s *fakeOrderStore) GetByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, marketerr.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *fakeOrderStore) GetItems(_ context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.OrderItem(nil), s.items[orderID]...), nil
}

func (s *fakeOrderStore) List(_ context.Context, f repositories.OrderFilter) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if f.BuyerID != nil && o.BuyerID != *f.BuyerID {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (s *fakeOrderStore) ListDueEscrow(_ context.Context, now time.Time, limit int) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.Status == models.OrderStatusEscrow && !o.EscrowReleaseAt.After(now) {
			out = append(out, *o)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *fakeOrderStore) UpdateStatusIf(_ context.Context, id uuid.UUID, from []string, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if o.Status == f {
			o.Status = to
			o.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeOrderStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, id)
	delete(s.items, id)
	return nil
}

type fakeInventoryStore struct {
	mu    sync.Mutex
	units map[uuid.UUID]*models.InventoryUnit
}

func newFakeInventoryStore() *fakeInventoryStore {
	return &fakeInventoryStore{units: make(map[uuid.UUID]*models.InventoryUnit)}
}

func (s *fakeInventoryStore) AddUnit(_ context.Context, u *models.InventoryUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	cp := *u
	s.units[u.ID] = &cp
	return nil
}

func (s *fakeInventoryStore) ReserveUnit(_ context.Context, productID uuid.UUID) (*models.InventoryUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.units {
		if u.ProductID == productID && u.Status == models.UnitStatusAvailable {
			u.Status = models.UnitStatusLocked
			cp := *u
			return &cp, nil
		}
	}
	return nil, marketerr.ErrOutOfStock
}

func (s *fakeInventoryStore) BindToOrder(_ context.Context, unitID, orderID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.units[unitID]
	if !ok || u.Status != models.UnitStatusLocked {
		return marketerr.ErrNotFound
	}
	id := orderID
	u.OrderID = &id
	return nil
}

func (s *fakeInventoryStore) Release(_ context.Context, unitID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.units[unitID]
	if !ok {
		return marketerr.ErrNotFound
	}
	u.Status = models.UnitStatusAvailable
	u.OrderID = nil
	return nil
}

func (s *fakeInventoryStore) MarkSold(_ context.Context, unitID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.units[unitID]
	if !ok {
		return marketerr.ErrNotFound
	}
	if u.Status == models.UnitStatusLocked {
		u.Status = models.UnitStatusSold
	}
	return nil
}

func (s *fakeInventoryStore) ListByOrder(_ context.Context, orderID uuid.UUID) ([]models.InventoryUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.InventoryUnit
	for _, u := range s.units {
		if u.OrderID != nil && *u.OrderID == orderID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (s *fakeInventoryStore) CountAvailable(_ context.Context, productID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.units {
		if u.ProductID == productID && u.Status == models.UnitStatusAvailable {
			n++
		}
	}
	return n, nil
}

func (s *fakeInventoryStore) statusCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int)
	for _, u := range s.units {
		out[u.Status]++
	}
	return out
}

type fakeWalletStore struct {
	mu       sync.Mutex
	balances map[uuid.UUID]int64
	settled  map[uuid.UUID]bool
	failures int
}

func newFakeWalletStore() *fakeWalletStore {
	return &fakeWalletStore{
		balances: make(map[uuid.UUID]int64),
		settled:  make(map[uuid.UUID]bool),
	}
}

// failCredits makes the next n CreditOnce calls fail, for exercising
// settlement retry behavior.
func (s *fakeWalletStore) failCredits(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = n
}

func (s *fakeWalletStore) CreditOnce(_ context.Context, orderID, userID uuid.UUID, amountCents int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("wallet store unavailable")
	}
	if s.settled[orderID] {
		return nil
	}
	s.settled[orderID] = true
	s.balances[userID] += amountCents
	return nil
}

func (s *fakeWalletStore) balance(userID uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[userID]
}

type fakeProductStore struct {
	mu       sync.Mutex
	products map[uuid.UUID]*models.Product
}

func newFakeProductStore() *fakeProductStore {
	return &fakeProductStore{products: make(map[uuid.UUID]*models.Product)}
}

func (s *fakeProductStore) Create(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	cp := *p
	s.products[p.ID] = &cp
	return nil
}

func (s *fakeProductStore) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, marketerr.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeProductStore) ListBySeller(_ context.Context, sellerID uuid.UUID) ([]models.ProductWithStock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ProductWithStock
	for _, p := range s.products {
		if p.SellerID == sellerID {
			out = append(out, models.ProductWithStock{Product: *p})
		}
	}
	return out, nil
}

func (s *fakeProductStore) IsOwnedBy(_ context.Context, productID, sellerID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	return ok && p.SellerID == sellerID, nil
}

func (s *fakeProductStore) setPrice(productID uuid.UUID, priceCents int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[productID]; ok {
		p.PriceCents = priceCents
	}
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*models.User)}
}

func (s *fakeUserStore) add(role string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.users[id] = &models.User{ID: id, Role: role}
	return id
}

func (s *fakeUserStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, marketerr.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeAuditStore struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (s *fakeAuditStore) Log(_ context.Context, entry models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *fakeAuditStore) GetByEntity(_ context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]models.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Newest first, like the SQL version.
	var out []models.AuditLog
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.EntityType == entityType && e.EntityID != nil && *e.EntityID == entityID {
			out = append(out, e)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeAuditStore) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Action
	}
	return out
}

type fakeStatsStore struct{}

func (fakeStatsStore) RevenueByDay(_ context.Context, _ time.Time) ([]repositories.RevenuePoint, error) {
	return nil, nil
}

func (fakeStatsStore) StatusDistribution(_ context.Context) ([]repositories.StatusCount, error) {
	return nil, nil
}

func (fakeStatsStore) TopProducts(_ context.Context, _ int) ([]repositories.TopProduct, error) {
	return nil, nil
}

func ordersByBuyer(buyerID uuid.UUID) repositories.OrderFilter {
	return repositories.OrderFilter{BuyerID: &buyerID}
}
