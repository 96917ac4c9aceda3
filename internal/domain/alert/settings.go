package alert

import (
	"fmt"
	"time"
)

// DefaultWorkStart and DefaultWorkEnd bound the daily send window when the
// user has not configured one (business timezone, "HH:MM").
const (
	DefaultWorkStart = "10:00"
	DefaultWorkEnd   = "19:00"
)

// DefaultScanIntervalMinutes is the dashboard refresh cadence fallback.
const DefaultScanIntervalMinutes = 15

// DefaultMessageTemplate is the full hourly bulletin. It references every
// template token and closes with a caution line; new users start with it and
// the dispatcher falls back to it for new-hour sends whose custom template
// has no {{panorama}}.
const DefaultMessageTemplate = "🕘 *BOLETIM DE MERCADO* 🕘\n\n" +
	"📊 *PANORAMA GERAL:*\n{{panorama}}\n\n" +
	"📈 *TENDÊNCIAS QUENTES:*\n{{trends}}\n\n" +
	"💼 *DESTAQUES CARTEIRA:*\n{{highlights}}\n\n" +
	"🚨 *SINAIS/ALERTAS:*\n{{alerts}}\n\n" +
	"💡 *DICAS DO SCANNER:*\n{{suggestions}}\n\n" +
	"⚠️ *ATENÇÃO:* Evite entradas pesadas sem confirmação."

// Settings is the per-user notification record. LastAlertHash, LastAlertTime
// and LastFullMessage are owned by the alert dispatcher: they are written
// together, only after a confirmed delivery, and never for test dispatches.
type Settings struct {
	ID            int64      `json:"id"`
	UserID        string     `json:"userId"`
	WebhookURL    string     `json:"webhookUrl"`
	PhoneNumber   string     `json:"phoneNumber"`
	AutoAlerts    bool       `json:"autoAlerts"`
	MasterSwitch  bool       `json:"masterSwitch"`
	CustomMessage string     `json:"customMessage"`
	ScanInterval  int        `json:"scanInterval"` // minutes
	WorkStart     string     `json:"workStart"`    // "HH:MM"
	WorkEnd       string     `json:"workEnd"`      // "HH:MM"

	LastAlertHash   string     `json:"lastAlertHash"`
	LastAlertTime   *time.Time `json:"lastAlertTime"`
	LastFullMessage string     `json:"lastFullMessage"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewDefaultSettings builds the record lazily created on first settings
// access for a user.
func NewDefaultSettings(userID string) Settings {
	return Settings{
		UserID:        userID,
		AutoAlerts:    true,
		MasterSwitch:  true,
		CustomMessage: DefaultMessageTemplate,
		ScanInterval:  DefaultScanIntervalMinutes,
		WorkStart:     DefaultWorkStart,
		WorkEnd:       DefaultWorkEnd,
	}
}

// Window returns the effective send window, falling back to the defaults
// when either bound is unset.
func (s Settings) Window() (start, end string) {
	start, end = s.WorkStart, s.WorkEnd
	if start == "" {
		start = DefaultWorkStart
	}
	if end == "" {
		end = DefaultWorkEnd
	}
	return start, end
}

// Validate checks user-editable fields before persisting.
func (s Settings) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	for _, b := range []string{s.WorkStart, s.WorkEnd} {
		if b == "" {
			continue
		}
		if _, err := time.Parse("15:04", b); err != nil {
			return fmt.Errorf("invalid work window bound %q: %w", b, err)
		}
	}
	if s.ScanInterval < 0 {
		return fmt.Errorf("scan interval must not be negative")
	}
	return nil
}
