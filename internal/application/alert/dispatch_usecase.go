package alert

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	domain "github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/alert"
	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/market"
	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/portfolio"
)

// Cooldown is the minimum gap between two deliveries for the same user.
// Consecutive scan ticks inside this window are dropped silently. It is a
// best-effort duplicate suppressor, not a lock: two racing invocations may
// both pass before either persists, and the design accepts that.
const Cooldown = 120 * time.Second

// postponeMinute defers signal-only sends that land this close to the top
// of the hour, so they fold into the richer hourly bulletin instead.
const postponeMinute = 55

// DefaultHeartbeatHours are the local hours that get a bulletin even with
// no signal changes, as a periodic still-alive ping.
var DefaultHeartbeatHours = []int{11, 16}

// WebhookSender posts a formatted message to the user's configured webhook.
type WebhookSender interface {
	Send(ctx context.Context, webhookURL, phone, msg string) error
}

// PushSender delivers a push notification to the user's subscribed devices.
type PushSender interface {
	SendToUsers(ctx context.Context, title, message string, userIDs []string) error
}

// StateStore persists the dedup state after a confirmed delivery.
type StateStore interface {
	UpdateAlertState(ctx context.Context, settingsID int64, hash string, sentAt time.Time, fullMessage string) error
}

// LogAppender writes audit rows shown in the dashboard log panel.
type LogAppender interface {
	Append(ctx context.Context, entry domain.LogEntry) error
}

// Status is the outcome class of one dispatch decision.
type Status string

const (
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome summarizes one dispatch decision for the scan loop's stats.
type Outcome struct {
	Status  Status
	Reason  string
	Message string // final message text when one was sent
}

func skipped(reason string) Outcome { return Outcome{Status: StatusSkipped, Reason: reason} }

// DispatchInput carries one user's snapshot for one scan tick.
type DispatchInput struct {
	Signals     []string
	Suggestions []market.StockAnalysis
	Trending    []market.StockAnalysis
	Portfolio   []portfolio.AnalyzedStock
	Settings    domain.Settings
	UserID      string
	UserName    string
	IsTest      bool
}

// DispatchUseCase decides, once per user per scan tick, whether a
// notification goes out, formats it, delivers it and writes back the dedup
// state. It never returns an error: failures become warning logs and a
// failed Outcome so one user cannot abort the batch scan.
type DispatchUseCase struct {
	webhook WebhookSender
	push    PushSender
	store   StateStore
	logs    LogAppender
	clock   domain.Clock
	loc     *time.Location
	hours   []int
	log     *zap.Logger
}

// Deps wires the dispatcher's collaborators. Clock, Location,
// HeartbeatHours and Logger may be left zero for production defaults.
type Deps struct {
	Webhook        WebhookSender
	Push           PushSender
	Store          StateStore
	Logs           LogAppender
	Clock          domain.Clock
	Location       *time.Location
	HeartbeatHours []int
	Logger         *zap.Logger
}

// NewDispatchUseCase builds the dispatcher, defaulting the clock to the
// system clock and the location to the business timezone.
func NewDispatchUseCase(d Deps) *DispatchUseCase {
	clock := d.Clock
	if clock == nil {
		clock = domain.SystemClock{}
	}
	loc := d.Location
	if loc == nil {
		var err error
		loc, err = time.LoadLocation("America/Sao_Paulo")
		if err != nil {
			loc = time.UTC
		}
	}
	hours := d.HeartbeatHours
	if len(hours) == 0 {
		hours = DefaultHeartbeatHours
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DispatchUseCase{
		webhook: d.Webhook,
		push:    d.Push,
		store:   d.Store,
		logs:    d.Logs,
		clock:   clock,
		loc:     loc,
		hours:   hours,
		log:     logger,
	}
}

// Execute runs the full decision for one user: guard clauses, content-hash
// dedup, hour bucketing, message composition, working-window check,
// delivery and the post-send state write.
func (u *DispatchUseCase) Execute(ctx context.Context, in DispatchInput) Outcome {
	st := in.Settings

	// A test dispatch still needs a target; everything else it bypasses.
	if st.WebhookURL == "" || st.PhoneNumber == "" {
		return skipped("sem_destino")
	}
	if !in.IsTest && !st.AutoAlerts {
		return skipped("alertas_desligados")
	}

	signalsText := joinSignals(in.Signals)
	suggestionsText := formatSuggestions(in.Suggestions)
	activeHash := contentHash(signalsText, suggestionsText)

	now := u.clock.Now().In(u.loc)

	if !in.IsTest && st.LastAlertTime != nil && now.Sub(*st.LastAlertTime) < Cooldown {
		return skipped("cooldown")
	}

	isFirstTime := st.LastAlertTime == nil
	isChanged := activeHash != st.LastAlertHash
	isNewHour := true
	if st.LastAlertTime != nil {
		// Minute-zero truncation only; day rollover and DST shifts are
		// intentionally not special-cased (23:xx vs 00:xx are simply
		// different buckets).
		isNewHour = hourBucket(now).After(hourBucket(st.LastAlertTime.In(u.loc)))
	}

	if !in.IsTest && !isNewHour && isChanged && now.Minute() >= postponeMinute {
		u.appendLog(ctx, in.UserID, "⏳ Sinais novos perto da hora cheia. Envio adiado para o próximo boletim.", domain.LevelInfo)
		return skipped("adiado_proxima_hora")
	}

	isIdleReportHour := false
	for _, h := range u.hours {
		if now.Hour() == h {
			isIdleReportHour = true
			break
		}
	}

	shouldSend := isChanged || isFirstTime || (isNewHour && isIdleReportHour)
	if !in.IsTest && !shouldSend {
		return skipped("sem_mudancas")
	}

	msg := u.composeMessage(in, composeState{
		now:          now,
		signalsText:  signalsText,
		suggestions:  suggestionsText,
		isFirstTime:  isFirstTime,
		isChanged:    isChanged,
		isNewHour:    isNewHour,
		isIdleReport: isIdleReportHour,
	})

	if !in.IsTest {
		cur := now.Format("15:04")
		wStart, wEnd := st.Window()
		if cur < wStart || cur > wEnd {
			return skipped("fora_do_horario")
		}
	}

	if err := u.webhook.Send(ctx, st.WebhookURL, st.PhoneNumber, msg); err != nil {
		u.log.Warn("webhook delivery failed",
			zap.String("user_id", in.UserID),
			zap.Bool("test", in.IsTest),
			zap.Error(err))
		u.appendLog(ctx, in.UserID, "❌ Falha ao tentar disparar a mensagem para a URL de Webhook configurada.", domain.LevelWarning)
		return Outcome{Status: StatusFailed, Reason: "webhook_falhou"}
	}

	if in.IsTest {
		// Test sends must not perturb the real dedup state.
		u.appendLog(ctx, in.UserID, "✅ Disparo de teste manual enviado com sucesso.", domain.LevelSuccess)
		return Outcome{Status: StatusSent, Reason: "teste", Message: msg}
	}

	if err := u.store.UpdateAlertState(ctx, st.ID, activeHash, now, msg); err != nil {
		// Delivery happened but the state write did not; the same content
		// will be re-sent on the next eligible cycle.
		u.log.Warn("alert state update failed", zap.String("user_id", in.UserID), zap.Error(err))
		u.appendLog(ctx, in.UserID, "⚠️ Alerta enviado, mas falhou o registro do estado de envio.", domain.LevelWarning)
	}

	var logMsg string
	switch {
	case isFirstTime:
		logMsg = "🚀 Primeiro boletim executado e enviado!"
	case isNewHour && !isChanged:
		logMsg = fmt.Sprintf("🕘 Boletim das %dh enviado (Resumo de hora em hora).", now.Hour())
	case isChanged:
		logMsg = fmt.Sprintf("🚀 Sinais detectados! Novo alerta enviado para (%s).", st.PhoneNumber)
	default:
		logMsg = "🚀 Alerta dinâmico enviado!"
	}
	u.appendLog(ctx, in.UserID, logMsg, domain.LevelSuccess)

	if u.push != nil {
		if err := u.push.SendToUsers(ctx, "📈 Novo boletim de mercado", pushPreview(msg), []string{in.UserID}); err != nil {
			// Push is best-effort on top of the webhook delivery.
			u.log.Warn("push delivery failed", zap.String("user_id", in.UserID), zap.Error(err))
		}
	}

	return Outcome{Status: StatusSent, Message: msg}
}

func (u *DispatchUseCase) appendLog(ctx context.Context, userID, msg string, level domain.Level) {
	if u.logs == nil {
		return
	}
	if err := u.logs.Append(ctx, domain.LogEntry{UserID: userID, Message: msg, Level: level}); err != nil {
		u.log.Warn("system log append failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func contentHash(signalsText, suggestionsText string) string {
	sum := md5.Sum([]byte(signalsText + suggestionsText))
	return hex.EncodeToString(sum[:])
}

// hourBucket truncates to the top of the hour in t's location.
func hourBucket(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

func joinSignals(signals []string) string {
	if len(signals) == 0 {
		return "Nenhum sinal de compra ou venda no momento."
	}
	return strings.Join(signals, "\n")
}
