package scan

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	appalert "github.com/engenhariadahumanidade/RAPERStockDASH/internal/application/alert"
	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/application/dashboard"
	alertDomain "github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/alert"
)

// LogMarker identifies scan execution rows in the system log. The recency
// checker queries for it, so the literal must stay in sync with the log
// message below.
const LogMarker = "Varredura automática via interface"

// Target is one user the scan will process.
type Target struct {
	UserID   string
	UserName string
}

// Directory exposes the reference (admin) settings and the set of users
// with automatic alerts enabled.
type Directory interface {
	AdminSettings(ctx context.Context) (*alertDomain.Settings, error)
	ListAutoAlertTargets(ctx context.Context) ([]Target, error)
}

// Runner executes one dashboard analysis pass for a user.
type Runner interface {
	Run(ctx context.Context, userID, userName string, triggerAlert, isTest bool) (dashboard.View, error)
}

// Stats aggregates one scan run.
type Stats struct {
	Checked int `json:"totalUsersChecked"`
	Sent    int `json:"messagesSentTotal"`
	Skipped int `json:"skippedTotal"`
	Errors  int `json:"errors"`
}

// Result is the scan outcome returned to the caller.
type Result struct {
	Triggered bool      `json:"triggered"`
	Reason    string    `json:"reason,omitempty"`
	Message   string    `json:"message,omitempty"`
	Stats     *Stats    `json:"stats,omitempty"`
	NextCheck int64     `json:"nextCheck"`
	Timestamp time.Time `json:"timestamp"`
}

// RunInput identifies who triggered the scan, for the audit log and the
// admin report.
type RunInput struct {
	UserID    string
	UserEmail string
}

// UseCase walks every auto-alert user through a full dashboard analysis
// with the alert dispatch armed. The gate keeps concurrent and too-frequent
// runs out.
type UseCase struct {
	dir     Directory
	runner  Runner
	gate    *Gate
	webhook appalert.WebhookSender
	logs    appalert.LogAppender
	clock   alertDomain.Clock
	loc     *time.Location
	log     *zap.Logger
}

type Deps struct {
	Directory Directory
	Runner    Runner
	Gate      *Gate
	Webhook   appalert.WebhookSender
	Logs      appalert.LogAppender
	Clock     alertDomain.Clock
	Location  *time.Location
	Logger    *zap.Logger
}

func NewUseCase(d Deps) *UseCase {
	if d.Clock == nil {
		d.Clock = alertDomain.SystemClock{}
	}
	if d.Location == nil {
		loc, err := time.LoadLocation("America/Sao_Paulo")
		if err != nil {
			loc = time.UTC
		}
		d.Location = loc
	}
	if d.Gate == nil {
		d.Gate = NewGate(nil, MinInterval)
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &UseCase{
		dir:     d.Directory,
		runner:  d.Runner,
		gate:    d.Gate,
		webhook: d.Webhook,
		logs:    d.Logs,
		clock:   d.Clock,
		loc:     d.Location,
		log:     d.Logger,
	}
}

// Run executes one scan cycle.
func (u *UseCase) Run(ctx context.Context, in RunInput) (Result, error) {
	now := u.clock.Now().In(u.loc)
	res := Result{Timestamp: now, NextCheck: MinInterval.Milliseconds()}

	adminSettings, err := u.dir.AdminSettings(ctx)
	if err != nil {
		return res, fmt.Errorf("load admin settings: %w", err)
	}

	if adminSettings != nil && !adminSettings.MasterSwitch {
		res.Reason = "master_switch_off"
		res.Message = "O Motor Principal está DESLIGADO na área Admin."
		return res, nil
	}

	workStart, workEnd := alertDomain.DefaultWorkStart, alertDomain.DefaultWorkEnd
	if adminSettings != nil {
		workStart, workEnd = adminSettings.Window()
	}
	spTime := now.Format("15:04")
	if spTime < workStart || spTime > workEnd {
		res.Reason = "fora_do_horario"
		res.Message = fmt.Sprintf("Fora do horário de operação (%s). O scanner está operando de %s às %s.",
			spTime, workStart, workEnd)
		return res, nil
	}

	ok, reason, msg := u.gate.Acquire(ctx, now)
	if !ok {
		res.Reason = reason
		res.Message = msg
		return res, nil
	}

	targets, err := u.dir.ListAutoAlertTargets(ctx)
	if err != nil {
		return res, fmt.Errorf("list auto alert users: %w", err)
	}

	stats := Stats{Checked: len(targets)}
	for _, t := range targets {
		outcome := u.runUser(ctx, t)
		switch {
		case outcome == nil:
			stats.Errors++
		case outcome.Status == appalert.StatusSent:
			stats.Sent++
		case outcome.Status == appalert.StatusSkipped:
			stats.Skipped++
		case outcome.Status == appalert.StatusFailed:
			stats.Errors++
		}
	}

	if u.logs != nil {
		level := alertDomain.LevelInfo
		if stats.Errors > 0 {
			level = alertDomain.LevelWarning
		}
		entry := alertDomain.LogEntry{
			UserID: in.UserID,
			Message: fmt.Sprintf("🔄 %s — %d enviadas, %d retidas, %d erros.",
				LogMarker, stats.Sent, stats.Skipped, stats.Errors),
			Level: level,
		}
		if err := u.logs.Append(ctx, entry); err != nil {
			u.log.Warn("scan log append failed", zap.Error(err))
		}
	}

	if stats.Sent > 0 {
		u.sendAdminReport(ctx, adminSettings, in, now, stats)
	}

	interval := alertDomain.DefaultScanIntervalMinutes
	if adminSettings != nil && adminSettings.ScanInterval > 0 {
		interval = adminSettings.ScanInterval
	}

	res.Triggered = true
	res.Stats = &stats
	res.NextCheck = int64(interval) * time.Minute.Milliseconds()
	return res, nil
}

// runUser isolates one user's pass; a panic in analysis code must not take
// the whole scan down.
func (u *UseCase) runUser(ctx context.Context, t Target) (outcome *appalert.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			u.log.Error("scan user panicked", zap.String("user_id", t.UserID), zap.Any("panic", r))
			outcome = nil
		}
	}()

	view, err := u.runner.Run(ctx, t.UserID, t.UserName, true, false)
	if err != nil {
		u.log.Warn("scan user failed", zap.String("user_id", t.UserID), zap.Error(err))
		return nil
	}
	return view.AlertOutcome
}

func (u *UseCase) sendAdminReport(ctx context.Context, adminSettings *alertDomain.Settings, in RunInput, now time.Time, stats Stats) {
	if adminSettings == nil || adminSettings.WebhookURL == "" || adminSettings.PhoneNumber == "" {
		return
	}

	msg := "🔄 *VARREDURA VIA INTERFACE* 🔄\n\n" +
		fmt.Sprintf("⏰ Horário: %s\n", now.Format("15:04:05")) +
		fmt.Sprintf("👤 Disparada por: %s\n", in.UserEmail) +
		fmt.Sprintf("👥 Usuários verificados: %d\n", stats.Checked) +
		fmt.Sprintf("✅ Mensagens enviadas: %d\n", stats.Sent) +
		fmt.Sprintf("⏳ Retidas: %d\n", stats.Skipped)
	if stats.Errors > 0 {
		msg += fmt.Sprintf("🚨 Erros: %d\n", stats.Errors)
	}

	if err := u.webhook.Send(ctx, adminSettings.WebhookURL, adminSettings.PhoneNumber, msg); err != nil {
		u.log.Warn("admin report delivery failed", zap.Error(err))
	}
}
