package alert

import (
	"fmt"
	"strings"
	"time"

	domain "github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/alert"
	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/market"
	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/portfolio"
)

// RSI bands for the portfolio panorama and the per-holding highlights.
const (
	rsiOversold   = 35
	rsiOverbought = 65
	rsiCorrection = 40
)

const maxTrendLines = 3

type composeState struct {
	now          time.Time
	signalsText  string
	suggestions  string
	isFirstTime  bool
	isChanged    bool
	isNewHour    bool
	isIdleReport bool
}

func (u *DispatchUseCase) composeMessage(in DispatchInput, st composeState) string {
	tpl := in.Settings.CustomMessage
	if tpl == "" {
		tpl = domain.DefaultMessageTemplate
	}
	// New-hour and first-time sends are full bulletins: a custom template
	// that never mentions the panorama gets replaced by the complete one.
	if (st.isNewHour || st.isFirstTime) && !strings.Contains(tpl, string(TokenPanorama)) {
		tpl = domain.DefaultMessageTemplate
	}

	msg := Render(tpl, map[Token]string{
		TokenAlerts:      st.signalsText,
		TokenSuggestions: st.suggestions,
		TokenPanorama:    panoramaText(averageRSI(in.Portfolio)),
		TokenTrends:      formatTrends(in.Trending),
		TokenHighlights:  formatHighlights(in.Portfolio),
	})

	name := strings.TrimSpace(in.UserName)
	if name == "" {
		name = "investidor"
	}
	msg = fmt.Sprintf("👋 Olá, %s!\n\n", name) + msg

	if st.isIdleReport && !st.isChanged && !st.isFirstTime && !in.IsTest {
		msg = "😴 *MERCADO CALMO* Sem novos sinais, seguimos monitorando.\n\n" + msg
	}
	if in.IsTest {
		msg = "🧪 *[DISPARO DE TESTE]*\n\n" + msg
	}

	return msg + "\n\n⏰ Horário da Análise: " + st.now.Format("15:04:05")
}

func formatSuggestions(suggestions []market.StockAnalysis) string {
	if len(suggestions) == 0 {
		return "Nenhuma grande oportunidade no momento."
	}
	var b strings.Builder
	for _, s := range suggestions {
		fmt.Fprintf(&b, "• [%s] - Motivo: %s \n  (Preço: R$ %s)\n", s.Symbol, s.Reason, brl(s.Price))
	}
	return b.String()
}

func formatTrends(trending []market.StockAnalysis) string {
	if len(trending) == 0 {
		return "Sem tendências em alta no momento."
	}
	lines := make([]string, 0, maxTrendLines)
	for i, t := range trending {
		if i >= maxTrendLines {
			break
		}
		lines = append(lines, fmt.Sprintf("🔥 [%s] %s%% (RSI: %.0f)", t.Symbol, pct(t.ChangePercent), t.RSI))
	}
	return strings.Join(lines, "\n")
}

// averageRSI averages the analyzed portfolio, counting holdings without an
// analysis as neutral 50.
func averageRSI(stocks []portfolio.AnalyzedStock) float64 {
	if len(stocks) == 0 {
		return 50
	}
	total := 0.0
	for _, s := range stocks {
		if s.Analysis != nil {
			total += s.Analysis.RSI
		} else {
			total += 50
		}
	}
	return total / float64(len(stocks))
}

func panoramaText(avgRSI float64) string {
	switch {
	case avgRSI < rsiCorrection:
		return "📉 Mercado em correção generalizada. Bons pontos de acumulação podem surgir, mas com cautela."
	case avgRSI > rsiOverbought:
		return "🔥 Mercado aquecido (euforia). Risco de correção no curto prazo, evite comprar topo."
	default:
		return "⚖️ Mercado em equilíbrio lateral. Sem tendência dominante no momento."
	}
}

func formatHighlights(stocks []portfolio.AnalyzedStock) string {
	var lines []string
	for _, s := range stocks {
		if s.Analysis == nil {
			continue
		}
		switch {
		case s.Analysis.RSI < rsiOversold:
			lines = append(lines, fmt.Sprintf("💎 [%s] Oportunidade de preço (RSI %.0f)", s.Symbol, s.Analysis.RSI))
		case s.Analysis.RSI > rsiOverbought:
			lines = append(lines, fmt.Sprintf("🚨 [%s] Alerta de topo (RSI %.0f)", s.Symbol, s.Analysis.RSI))
		}
	}
	if len(lines) == 0 {
		return "Sua carteira está sem destaques técnicos no momento."
	}
	return strings.Join(lines, "\n")
}

// pushPreview trims the full bulletin down to a push-sized summary.
func pushPreview(msg string) string {
	const limit = 180
	flat := []rune(strings.Join(strings.Fields(msg), " "))
	if len(flat) <= limit {
		return string(flat)
	}
	return string(flat[:limit]) + "…"
}

// brl renders a price with the Brazilian decimal comma.
func brl(v float64) string {
	return strings.Replace(fmt.Sprintf("%.2f", v), ".", ",", 1)
}

// pct renders a signed percentage with the Brazilian decimal comma.
func pct(v float64) string {
	return strings.Replace(fmt.Sprintf("%+.2f", v), ".", ",", 1)
}
