package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/application/scan"
	alertDomain "github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/alert"
)

const settingsColumns = `
id, user_id, webhook_url, phone_number, auto_alerts, master_switch,
custom_message, scan_interval, work_start, work_end,
last_alert_hash, last_alert_time, last_full_message, created_at, updated_at`

// SettingsRepo stores per-user alert settings and the engine state columns.
type SettingsRepo struct {
	db *sql.DB
}

func NewSettingsRepo(db *sql.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// FindByUserID loads the user's settings, creating the default row on first
// access.
func (r *SettingsRepo) FindByUserID(ctx context.Context, userID string) (alertDomain.Settings, error) {
	const q = `SELECT ` + settingsColumns + ` FROM settings WHERE user_id = $1 LIMIT 1;`
	s, err := scanSettings(r.db.QueryRowContext(ctx, q, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return r.createDefault(ctx, userID)
	}
	return s, err
}

func (r *SettingsRepo) createDefault(ctx context.Context, userID string) (alertDomain.Settings, error) {
	def := alertDomain.NewDefaultSettings(userID)
	const q = `
INSERT INTO settings (user_id, webhook_url, phone_number, auto_alerts, master_switch,
                      custom_message, scan_interval, work_start, work_end)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
RETURNING ` + settingsColumns + `;`
	return scanSettings(r.db.QueryRowContext(ctx, q,
		def.UserID, def.WebhookURL, def.PhoneNumber, def.AutoAlerts, def.MasterSwitch,
		def.CustomMessage, def.ScanInterval, def.WorkStart, def.WorkEnd))
}

// Save writes the user-editable fields.
func (r *SettingsRepo) Save(ctx context.Context, s alertDomain.Settings) (alertDomain.Settings, error) {
	const q = `
UPDATE settings
SET webhook_url = $2, phone_number = $3, auto_alerts = $4, master_switch = $5,
    custom_message = $6, scan_interval = $7, work_start = $8, work_end = $9,
    updated_at = NOW()
WHERE user_id = $1
RETURNING ` + settingsColumns + `;`
	return scanSettings(r.db.QueryRowContext(ctx, q,
		s.UserID, s.WebhookURL, s.PhoneNumber, s.AutoAlerts, s.MasterSwitch,
		s.CustomMessage, s.ScanInterval, s.WorkStart, s.WorkEnd))
}

// UpdateAlertState persists the dedup state after a confirmed delivery.
func (r *SettingsRepo) UpdateAlertState(ctx context.Context, settingsID int64, hash string, sentAt time.Time, fullMessage string) error {
	const q = `
UPDATE settings
SET last_alert_hash = $2, last_alert_time = $3, last_full_message = $4, updated_at = NOW()
WHERE id = $1;
`
	res, err := r.db.ExecContext(ctx, q, settingsID, hash, sentAt, fullMessage)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AdminSettings returns the admin user's settings, the reference for the
// master switch and the working window. No admin row means nil.
func (r *SettingsRepo) AdminSettings(ctx context.Context) (*alertDomain.Settings, error) {
	const q = `
SELECT ` + settingsColumns + `
FROM settings s
WHERE s.user_id IN (SELECT id FROM users WHERE role = 'admin' ORDER BY created_at ASC LIMIT 1)
LIMIT 1;`
	s, err := scanSettings(r.db.QueryRowContext(ctx, q))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FirstSettings returns the oldest settings row, used as the reference for
// the admin global-settings view. Nil when no row exists yet.
func (r *SettingsRepo) FirstSettings(ctx context.Context) (*alertDomain.Settings, error) {
	const q = `SELECT ` + settingsColumns + ` FROM settings ORDER BY id ASC LIMIT 1;`
	s, err := scanSettings(r.db.QueryRowContext(ctx, q))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateGlobalSettings pushes the webhook URL and scan interval onto every
// settings row at once.
func (r *SettingsRepo) UpdateGlobalSettings(ctx context.Context, webhookURL string, scanInterval int) error {
	const q = `UPDATE settings SET webhook_url = $1, scan_interval = $2, updated_at = NOW();`
	_, err := r.db.ExecContext(ctx, q, webhookURL, scanInterval)
	return err
}

// ListAutoAlertTargets returns every user with automatic alerts on.
func (r *SettingsRepo) ListAutoAlertTargets(ctx context.Context) ([]scan.Target, error) {
	const q = `
SELECT s.user_id, COALESCE(u.name, '')
FROM settings s
JOIN users u ON u.id = s.user_id
WHERE s.auto_alerts = TRUE
ORDER BY s.id ASC;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []scan.Target
	for rows.Next() {
		var t scan.Target
		if err := rows.Scan(&t.UserID, &t.UserName); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSettings(row rowScanner) (alertDomain.Settings, error) {
	var s alertDomain.Settings
	var lastAlertTime sql.NullTime
	err := row.Scan(
		&s.ID, &s.UserID, &s.WebhookURL, &s.PhoneNumber, &s.AutoAlerts, &s.MasterSwitch,
		&s.CustomMessage, &s.ScanInterval, &s.WorkStart, &s.WorkEnd,
		&s.LastAlertHash, &lastAlertTime, &s.LastFullMessage, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return alertDomain.Settings{}, err
	}
	if lastAlertTime.Valid {
		t := lastAlertTime.Time
		s.LastAlertTime = &t
	}
	return s, nil
}
