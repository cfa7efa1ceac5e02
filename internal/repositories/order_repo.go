package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keymarket/backend/internal/marketerr"
	"github.com/keymarket/backend/internal/models"
)

type OrderRepo struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// Create inserts the order and its line-item snapshots. Items are written
// after the order row; a reservation failure later rolls the whole thing
// back through Delete, so a partially created order never survives.
func (r *OrderRepo) Create(ctx context.Context, o *models.Order, items []models.OrderItem) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO orders (buyer_id, total_cents, status, escrow_release_at, payment_method, contact_email, delivery_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, o.BuyerID, o.TotalCents, o.Status, o.EscrowReleaseAt, o.PaymentMethod, o.ContactEmail, o.DeliveryNotes,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}

	for i := range items {
		items[i].OrderID = o.ID
		inputBytes, _ := json.Marshal(items[i].BuyerInput)
		err := r.pool.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, title, price_cents, seller_id, buyer_input)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, o.ID, items[i].ProductID, items[i].Title, items[i].PriceCents, items[i].SellerID, inputBytes,
		).Scan(&items[i].ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *OrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := r.pool.QueryRow(ctx, `
		SELECT id, buyer_id, total_cents, status, escrow_release_at, payment_method, contact_email, delivery_notes, created_at, updated_at
		FROM orders WHERE id = $1
	`, id).Scan(&o.ID, &o.BuyerID, &o.TotalCents, &o.Status, &o.EscrowReleaseAt,
		&o.PaymentMethod, &o.ContactEmail, &o.DeliveryNotes, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, marketerr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) GetItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_id, title, price_cents, seller_id, buyer_input
		FROM order_items WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		var inputBytes []byte
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Title, &it.PriceCents, &it.SellerID, &inputBytes); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(inputBytes, &it.BuyerInput)
		items = append(items, it)
	}
	return items, rows.Err()
}

type OrderFilter struct {
	BuyerID *uuid.UUID
	Status  *string
	Limit   int
	Offset  int
}

func (r *OrderRepo) List(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	query := `
		SELECT id, buyer_id, total_cents, status, escrow_release_at, payment_method, contact_email, delivery_notes, created_at, updated_at
		FROM orders
	`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.BuyerID != nil {
		where = append(where, fmt.Sprintf("buyer_id = $%d", argIdx))
		args = append(args, *f.BuyerID)
		argIdx++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *f.Status)
		argIdx++
	}

	if len(where) > 0 {
		query += " WHERE "
		for i, w := range where {
			if i > 0 {
				query += " AND "
			}
			query += w
		}
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.BuyerID, &o.TotalCents, &o.Status, &o.EscrowReleaseAt,
			&o.PaymentMethod, &o.ContactEmail, &o.DeliveryNotes, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ListDueEscrow returns orders whose hold window has elapsed, oldest first.
func (r *OrderRepo) ListDueEscrow(ctx context.Context, now time.Time, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, buyer_id, total_cents, status, escrow_release_at, payment_method, contact_email, delivery_notes, created_at, updated_at
		FROM orders
		WHERE status = $1 AND escrow_release_at <= $2
		ORDER BY escrow_release_at
		LIMIT $3
	`, models.OrderStatusEscrow, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.BuyerID, &o.TotalCents, &o.Status, &o.EscrowReleaseAt,
			&o.PaymentMethod, &o.ContactEmail, &o.DeliveryNotes, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateStatusIf performs the check-and-set transition guarding settlement:
// the row moves to `to` only if its current status is one of `from`, and the
// caller learns whether it won. Concurrent resolvers of the same order get
// exactly one winner.
func (r *OrderRepo) UpdateStatusIf(ctx context.Context, id uuid.UUID, from []string, to string) (bool, error) {
	ct, err := r.pool.Exec(ctx, `
		UPDATE orders SET status = $1, updated_at = now()
		WHERE id = $2 AND status = ANY($3)
	`, to, id, from)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

// Delete removes a failed order during creation rollback. order_items go
// with it via ON DELETE CASCADE.
func (r *OrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	return err
}
