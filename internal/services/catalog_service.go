package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keymarket/backend/internal/marketerr"
	"github.com/keymarket/backend/internal/models"
	"github.com/keymarket/backend/internal/rbac"
)

// CatalogService handles the seller side: product definitions and inventory
// stocking. Ownership is enforced here, not in handlers.
type CatalogService struct {
	products  ProductStore
	inventory InventoryStore
	users     UserStore
	audit     AuditStore
	log       *zap.Logger
}

func NewCatalogService(products ProductStore, inventory InventoryStore, users UserStore, audit AuditStore, log *zap.Logger) *CatalogService {
	return &CatalogService{
		products:  products,
		inventory: inventory,
		users:     users,
		audit:     audit,
		log:       log,
	}
}

type CreateProductRequest struct {
	Title       string
	Description string
	PriceCents  int64
	Type        string
	InputSchema *models.InputSchema
}

func (s *CatalogService) CreateProduct(ctx context.Context, sellerID uuid.UUID, req CreateProductRequest) (*models.Product, error) {
	if err := s.requireSeller(ctx, sellerID); err != nil {
		return nil, err
	}
	if req.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if req.PriceCents <= 0 {
		return nil, fmt.Errorf("price must be positive")
	}
	if !models.IsValidProductType(req.Type) {
		return nil, fmt.Errorf("unknown product type %q", req.Type)
	}
	if req.InputSchema != nil {
		if err := req.InputSchema.ValidateDefinition(); err != nil {
			return nil, err
		}
	}

	product := &models.Product{
		SellerID:    sellerID,
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Type:        req.Type,
		InputSchema: req.InputSchema,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &sellerID,
		ActorType:   "user",
		Action:      "product_created",
		EntityType:  "product",
		EntityID:    &product.ID,
	})

	return product, nil
}

// AddInventoryUnit stocks one deliverable secret under a product the caller
// owns. The secret is stored as-is and never logged.
func (s *CatalogService) AddInventoryUnit(ctx context.Context, sellerID, productID uuid.UUID, secretData string) (*models.InventoryUnit, error) {
	if secretData == "" {
		return nil, fmt.Errorf("secret data is required")
	}
	owned, err := s.products.IsOwnedBy(ctx, productID, sellerID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, marketerr.ErrForbidden
	}

	unit := &models.InventoryUnit{
		ProductID:  productID,
		SecretData: secretData,
		Status:     models.UnitStatusAvailable,
	}
	if err := s.inventory.AddUnit(ctx, unit); err != nil {
		return nil, err
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorUserID: &sellerID,
		ActorType:   "user",
		Action:      "inventory_unit_added",
		EntityType:  "inventory_unit",
		EntityID:    &unit.ID,
		Meta:        map[string]any{"product_id": productID.String()},
	})

	return unit, nil
}

func (s *CatalogService) ListSellerProducts(ctx context.Context, sellerID uuid.UUID) ([]models.ProductWithStock, error) {
	return s.products.ListBySeller(ctx, sellerID)
}

// GetProduct returns a product with its live availability count.
func (s *CatalogService) GetProduct(ctx context.Context, productID uuid.UUID) (*models.ProductWithStock, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	available, err := s.inventory.CountAvailable(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &models.ProductWithStock{Product: *product, AvailableUnits: available}, nil
}

func (s *CatalogService) requireSeller(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !rbac.HasPermission(user.Role, rbac.PermManageProducts) {
		return marketerr.ErrForbidden
	}
	return nil
}
