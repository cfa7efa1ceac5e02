package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keymarket/backend/internal/marketerr"
	"github.com/keymarket/backend/internal/models"
)

// InventoryRepo owns inventory_units. Every mutation is a single-row
// conditional update so concurrent callers and retries interleave safely.
type InventoryRepo struct {
	pool *pgxpool.Pool
}

func NewInventoryRepo(pool *pgxpool.Pool) *InventoryRepo {
	return &InventoryRepo{pool: pool}
}

func (r *InventoryRepo) AddUnit(ctx context.Context, u *models.InventoryUnit) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO inventory_units (product_id, secret_data, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, u.ProductID, u.SecretData, models.UnitStatusAvailable).Scan(&u.ID, &u.CreatedAt)
}

// ReserveUnit flips exactly one available unit of the product to locked and
// returns it. SKIP LOCKED keeps concurrent reservations from colliding: each
// caller either wins a distinct row or sees none left.
func (r *InventoryRepo) ReserveUnit(ctx context.Context, productID uuid.UUID) (*models.InventoryUnit, error) {
	var u models.InventoryUnit
	err := r.pool.QueryRow(ctx, `
		UPDATE inventory_units SET status = $1
		WHERE id = (
			SELECT id FROM inventory_units
			WHERE product_id = $2 AND status = $3
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, product_id, secret_data, status, order_id, created_at
	`, models.UnitStatusLocked, productID, models.UnitStatusAvailable).Scan(
		&u.ID, &u.ProductID, &u.SecretData, &u.Status, &u.OrderID, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, marketerr.ErrOutOfStock
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// BindToOrder attaches the order reference once the order row exists.
func (r *InventoryRepo) BindToOrder(ctx context.Context, unitID, orderID uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE inventory_units SET order_id = $1
		WHERE id = $2 AND status = $3
	`, orderID, unitID, models.UnitStatusLocked)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return marketerr.ErrNotFound
	}
	return nil
}

// Release returns a unit to available and clears its binding. Used on refund
// and on failed order creation. A no-op for units already available.
func (r *InventoryRepo) Release(ctx context.Context, unitID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE inventory_units SET status = $1, order_id = NULL
		WHERE id = $2 AND status <> $1
	`, models.UnitStatusAvailable, unitID)
	return err
}

// MarkSold is the terminal transition on order completion. Safe to re-run.
func (r *InventoryRepo) MarkSold(ctx context.Context, unitID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE inventory_units SET status = $1
		WHERE id = $2 AND status = $3
	`, models.UnitStatusSold, unitID, models.UnitStatusLocked)
	return err
}

func (r *InventoryRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.InventoryUnit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, secret_data, status, order_id, created_at
		FROM inventory_units WHERE order_id = $1
		ORDER BY created_at
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []models.InventoryUnit
	for rows.Next() {
		var u models.InventoryUnit
		if err := rows.Scan(&u.ID, &u.ProductID, &u.SecretData, &u.Status, &u.OrderID, &u.CreatedAt); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

func (r *InventoryRepo) CountAvailable(ctx context.Context, productID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM inventory_units WHERE product_id = $1 AND status = $2
	`, productID, models.UnitStatusAvailable).Scan(&n)
	return n, err
}
