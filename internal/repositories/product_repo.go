package repositories

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keymarket/backend/internal/marketerr"
	"github.com/keymarket/backend/internal/models"
)

type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

func (r *ProductRepo) Create(ctx context.Context, p *models.Product) error {
	schemaBytes, _ := json.Marshal(p.InputSchema)
	return r.pool.QueryRow(ctx, `
		INSERT INTO products (seller_id, title, description, price_cents, type, input_schema)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, p.SellerID, p.Title, p.Description, p.PriceCents, p.Type, schemaBytes).Scan(&p.ID, &p.CreatedAt)
}

func (r *ProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	var schemaBytes []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, seller_id, title, description, price_cents, type, input_schema, created_at
		FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.SellerID, &p.Title, &p.Description, &p.PriceCents, &p.Type, &schemaBytes, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, marketerr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(schemaBytes) > 0 {
		_ = json.Unmarshal(schemaBytes, &p.InputSchema)
	}
	return &p, nil
}

// ListBySeller returns the seller's products with their available stock, the
// shape the seller dashboard renders.
func (r *ProductRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.ProductWithStock, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.seller_id, p.title, p.description, p.price_cents, p.type, p.input_schema, p.created_at,
		       COUNT(u.id) FILTER (WHERE u.status = 'available') AS available_units
		FROM products p
		LEFT JOIN inventory_units u ON u.product_id = p.id
		WHERE p.seller_id = $1
		GROUP BY p.id
		ORDER BY p.created_at DESC
	`, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.ProductWithStock
	for rows.Next() {
		var p models.ProductWithStock
		var schemaBytes []byte
		if err := rows.Scan(&p.ID, &p.SellerID, &p.Title, &p.Description, &p.PriceCents, &p.Type,
			&schemaBytes, &p.CreatedAt, &p.AvailableUnits); err != nil {
			return nil, err
		}
		if len(schemaBytes) > 0 {
			_ = json.Unmarshal(schemaBytes, &p.InputSchema)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// IsOwnedBy reports whether the product belongs to the seller. Stocking
// checks this before inserting inventory.
func (r *ProductRepo) IsOwnedBy(ctx context.Context, productID, sellerID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM products WHERE id = $1 AND seller_id = $2)
	`, productID, sellerID).Scan(&exists)
	return exists, err
}
