package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keymarket/backend/internal/models"
)

// StatsRepo backs the admin dashboard. Aggregation happens in SQL; only
// completed orders count toward revenue.
type StatsRepo struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

type RevenuePoint struct {
	Date         time.Time `json:"date"`
	RevenueCents int64     `json:"revenue_cents"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type TopProduct struct {
	ProductID    string `json:"product_id"`
	Title        string `json:"title"`
	SoldCount    int    `json:"sold_count"`
	RevenueCents int64  `json:"revenue_cents"`
}

func (r *StatsRepo) RevenueByDay(ctx context.Context, since time.Time) ([]RevenuePoint, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date_trunc('day', created_at) AS day, SUM(total_cents)
		FROM orders
		WHERE status = $1 AND created_at >= $2
		GROUP BY day
		ORDER BY day
	`, models.OrderStatusCompleted, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []RevenuePoint
	for rows.Next() {
		var p RevenuePoint
		if err := rows.Scan(&p.Date, &p.RevenueCents); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *StatsRepo) StatusDistribution(ctx context.Context) ([]StatusCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM orders GROUP BY status ORDER BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []StatusCount
	for rows.Next() {
		var c StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *StatsRepo) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.pool.Query(ctx, `
		SELECT i.product_id, i.title, COUNT(*) AS sold, SUM(i.price_cents) AS revenue
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		WHERE o.status = $1
		GROUP BY i.product_id, i.title
		ORDER BY revenue DESC
		LIMIT $2
	`, models.OrderStatusCompleted, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var top []TopProduct
	for rows.Next() {
		var t TopProduct
		if err := rows.Scan(&t.ProductID, &t.Title, &t.SoldCount, &t.RevenueCents); err != nil {
			return nil, err
		}
		top = append(top, t)
	}
	return top, rows.Err()
}
