package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WalletRepo mutates the per-user platform balance. Every credit is keyed by
// the order it settles; the core never decrements a balance.
type WalletRepo struct {
	pool *pgxpool.Pool
}

func NewWalletRepo(pool *pgxpool.Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// CreditOnce applies at most one credit per order. The settlement insert and
// the balance increment are one statement, so a retry after a partial
// settlement failure either lands the credit or finds it already recorded,
// never both.
func (r *WalletRepo) CreditOnce(ctx context.Context, orderID, userID uuid.UUID, amountCents int64) error {
	_, err := r.pool.Exec(ctx, `
		WITH recorded AS (
			INSERT INTO settlements (order_id, user_id, amount_cents)
			VALUES ($1, $2, $3)
			ON CONFLICT (order_id) DO NOTHING
			RETURNING amount_cents
		)
		UPDATE users SET wallet_balance_cents = wallet_balance_cents + recorded.amount_cents
		FROM recorded
		WHERE users.id = $2
	`, orderID, userID, amountCents)
	return err
}

func (r *WalletRepo) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx, `
		SELECT wallet_balance_cents FROM users WHERE id = $1
	`, userID).Scan(&balance)
	return balance, err
}
