package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keymarket/backend/internal/marketerr"
	"github.com/keymarket/backend/internal/models"
	"github.com/keymarket/backend/internal/rbac"
)

type catalogEnv struct {
	products  *fakeProductStore
	inventory *fakeInventoryStore
	users     *fakeUserStore
	svc       *CatalogService
}

func newCatalogEnv() *catalogEnv {
	env := &catalogEnv{
		products:  newFakeProductStore(),
		inventory: newFakeInventoryStore(),
		users:     newFakeUserStore(),
	}
	env.svc = NewCatalogService(env.products, env.inventory, env.users, &fakeAuditStore{}, zap.NewNop())
	return env
}

func TestCreateProductValidation(t *testing.T) {
	env := newCatalogEnv()
	seller := env.users.add(rbac.RoleSeller)
	buyer := env.users.add(rbac.RoleBuyer)

	tests := []struct {
		name    string
		caller  uuid.UUID
		req     CreateProductRequest
		wantErr bool
	}{
		{
			name:   "valid",
			caller: seller,
			req:    CreateProductRequest{Title: "Game Key", PriceCents: 1999, Type: models.ProductTypeSerialKey},
		},
		{
			name:    "buyer cannot create",
			caller:  buyer,
			req:     CreateProductRequest{Title: "Game Key", PriceCents: 1999, Type: models.ProductTypeSerialKey},
			wantErr: true,
		},
		{
			name:    "missing title",
			caller:  seller,
			req:     CreateProductRequest{PriceCents: 1999, Type: models.ProductTypeSerialKey},
			wantErr: true,
		},
		{
			name:    "zero price",
			caller:  seller,
			req:     CreateProductRequest{Title: "Free", PriceCents: 0, Type: models.ProductTypeSerialKey},
			wantErr: true,
		},
		{
			name:    "unknown type",
			caller:  seller,
			req:     CreateProductRequest{Title: "X", PriceCents: 100, Type: "subscription"},
			wantErr: true,
		},
		{
			name:   "bad schema",
			caller: seller,
			req: CreateProductRequest{
				Title: "Account", PriceCents: 100, Type: models.ProductTypeDirectAPI,
				InputSchema: &models.InputSchema{Fields: []models.InputField{{Name: "region", Kind: "select"}}},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.CreateProduct(context.Background(), tt.caller, tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateProductKeepsDescription(t *testing.T) {
	env := newCatalogEnv()
	seller := env.users.add(rbac.RoleSeller)

	product, err := env.svc.CreateProduct(context.Background(), seller, CreateProductRequest{
		Title:       "Elden Ring",
		Description: "Steam key, global activation",
		PriceCents:  5999,
		Type:        models.ProductTypeSerialKey,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	if product.Description != "Steam key, global activation" {
		t.Errorf("description = %q", product.Description)
	}

	got, err := env.svc.GetProduct(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if got.Description != product.Description {
		t.Errorf("stored description = %q, want %q", got.Description, product.Description)
	}
}

func TestAddInventoryUnitOwnership(t *testing.T) {
	env := newCatalogEnv()
	owner := env.users.add(rbac.RoleSeller)
	other := env.users.add(rbac.RoleSeller)

	product, err := env.svc.CreateProduct(context.Background(), owner, CreateProductRequest{
		Title: "Key", PriceCents: 500, Type: models.ProductTypeSerialKey,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	if _, err := env.svc.AddInventoryUnit(context.Background(), owner, product.ID, "XXXX-1111"); err != nil {
		t.Errorf("owner stocking failed: %v", err)
	}
	if _, err := env.svc.AddInventoryUnit(context.Background(), other, product.ID, "XXXX-2222"); !errors.Is(err, marketerr.ErrForbidden) {
		t.Errorf("foreign stocking: got %v, want ErrForbidden", err)
	}
	if _, err := env.svc.AddInventoryUnit(context.Background(), owner, product.ID, ""); err == nil {
		t.Error("empty secret accepted")
	}

	got, err := env.svc.GetProduct(context.Background(), product.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if got.AvailableUnits != 1 {
		t.Errorf("available = %d, want 1", got.AvailableUnits)
	}
}
