package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/application/scan"
	alertDomain "github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/alert"
)

// LogRepo stores system log rows.
type LogRepo struct {
	db *sql.DB
}

func NewLogRepo(db *sql.DB) *LogRepo {
	return &LogRepo{db: db}
}

func (r *LogRepo) Append(ctx context.Context, e alertDomain.LogEntry) error {
	const q = `
INSERT INTO system_logs (user_id, message, level)
VALUES ($1, $2, $3);
`
	level := e.Level
	if level == "" {
		level = alertDomain.LevelInfo
	}
	_, err := r.db.ExecContext(ctx, q, e.UserID, e.Message, level)
	return err
}

func (r *LogRepo) ListRecent(ctx context.Context, userID string, limit int) ([]alertDomain.LogEntry, error) {
	const q = `
SELECT id, user_id, message, level, created_at
FROM system_logs
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2;
`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []alertDomain.LogEntry
	for rows.Next() {
		var e alertDomain.LogEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Message, &e.Level, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LastScanAt returns when the newest scan marker row was written, across
// all users. Used by the scan gate to coordinate instances.
func (r *LogRepo) LastScanAt(ctx context.Context) (*time.Time, error) {
	const q = `
SELECT created_at
FROM system_logs
WHERE message LIKE '%' || $1 || '%'
ORDER BY created_at DESC
LIMIT 1;
`
	var at time.Time
	err := r.db.QueryRowContext(ctx, q, scan.LogMarker).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &at, nil
}
