package postgres

import (
	"context"
	"database/sql"

	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/portfolio"
)

// StockRepo stores portfolio holdings.
type StockRepo struct {
	db *sql.DB
}

func NewStockRepo(db *sql.DB) *StockRepo {
	return &StockRepo{db: db}
}

func (r *StockRepo) ListByUser(ctx context.Context, userID string) ([]portfolio.Stock, error) {
	const q = `
SELECT id, user_id, symbol, quantity, average_price, created_at
FROM stocks
WHERE user_id = $1
ORDER BY symbol ASC;
`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []portfolio.Stock
	for rows.Next() {
		var s portfolio.Stock
		if err := rows.Scan(&s.ID, &s.UserID, &s.Symbol, &s.Quantity, &s.AveragePrice, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Upsert inserts a holding or, when the user already holds the symbol,
// replaces quantity and average price.
func (r *StockRepo) Upsert(ctx context.Context, s portfolio.Stock) (portfolio.Stock, error) {
	const q = `
INSERT INTO stocks (user_id, symbol, quantity, average_price)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, symbol)
DO UPDATE SET quantity = EXCLUDED.quantity, average_price = EXCLUDED.average_price
RETURNING id, created_at;
`
	if err := r.db.QueryRowContext(ctx, q, s.UserID, s.Symbol, s.Quantity, s.AveragePrice).Scan(&s.ID, &s.CreatedAt); err != nil {
		return portfolio.Stock{}, err
	}
	return s, nil
}

// Delete removes one holding. Missing rows report sql.ErrNoRows so handlers
// can answer 404.
func (r *StockRepo) Delete(ctx context.Context, userID string, id int64) error {
	const q = `DELETE FROM stocks WHERE id = $1 AND user_id = $2;`
	res, err := r.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
