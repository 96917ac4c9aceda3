package market

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/market"
)

type fakeQuotes struct {
	quotes map[string]domain.Quote
}

func (f *fakeQuotes) FetchQuote(_ context.Context, symbol string) (domain.Quote, error) {
	q, ok := f.quotes[symbol]
	if !ok {
		return domain.Quote{}, fmt.Errorf("unknown symbol %s", symbol)
	}
	return q, nil
}

func newAnalyzer(quotes map[string]domain.Quote) *AnalyzeUseCase {
	u := NewAnalyzeUseCase(&fakeQuotes{quotes: quotes}, nil)
	u.shuffle = func([]string) {} // deterministic sampling in tests
	u.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return u
}

// closesEndingFlat builds n closes ending at price with no net movement in
// the RSI window, so RSI stays near 50.
func closesEndingFlat(n int, price float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = price
		} else {
			closes[i] = price + 1
		}
	}
	closes[n-1] = price
	return closes
}

func TestAnalyzeSymbolDefaultsWithShortHistory(t *testing.T) {
	u := newAnalyzer(map[string]domain.Quote{
		"PETR4": {Symbol: "PETR4", Price: 31.5, ChangePercent: 1.234, Closes: []float64{30, 31}},
	})

	a, err := u.AnalyzeSymbol(context.Background(), "PETR4")
	require.NoError(t, err)

	assert.Equal(t, 50.0, a.RSI, "short history defaults RSI to neutral")
	assert.Equal(t, 31.5, a.SMA50, "short history defaults SMA50 to price")
	assert.Equal(t, 31.5, a.SMA200, "SMA200 falls back to SMA50")
	assert.Equal(t, 1.23, a.ChangePercent, "rounded to two decimals")
	assert.Equal(t, domain.ActionHold, a.Action)
}

func TestAnalyzeSymbolErrors(t *testing.T) {
	u := newAnalyzer(map[string]domain.Quote{
		"ZERO3": {Symbol: "ZERO3"},
	})

	_, err := u.AnalyzeSymbol(context.Background(), "ZERO3")
	assert.Error(t, err, "quote without any price is unusable")

	_, err = u.AnalyzeSymbol(context.Background(), "NOPE3")
	assert.Error(t, err)
}

func TestAnalyzeSymbolStripsSASuffix(t *testing.T) {
	u := newAnalyzer(map[string]domain.Quote{
		"VALE3": {Symbol: "VALE3", Price: 60},
	})

	a, err := u.AnalyzeSymbol(context.Background(), "VALE3.SA")
	require.NoError(t, err)
	assert.Equal(t, "VALE3.SA", a.Symbol, "caller's symbol is preserved in the result")
}

func TestDeriveAction(t *testing.T) {
	cases := []struct {
		name                     string
		rsi, price, sma50, sma200 float64
		want                     domain.Action
	}{
		{"oversold uptrend", 25, 110, 100, 100, domain.ActionBuy},
		{"overbought downtrend", 75, 90, 100, 100, domain.ActionSell},
		{"golden cross pullback", 45, 100, 110, 100, domain.ActionBuy},
		{"death cross top", 55, 100, 90, 100, domain.ActionSell},
		{"near extreme oversold", 33, 100, 100, 100, domain.ActionBuy},
		{"near extreme overbought", 67, 100, 100, 100, domain.ActionSell},
		{"sideways", 50, 100, 100, 100, domain.ActionHold},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			action, reason := deriveAction(tc.rsi, tc.price, tc.sma50, tc.sma200)
			assert.Equal(t, tc.want, action)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestTrailingYield(t *testing.T) {
	u := newAnalyzer(nil)

	dy := u.trailingYield([]domain.Dividend{
		{Rate: 2, PaymentDate: "05/01/2026 00:00:00"}, // inside window
		{Rate: 3, PaymentDate: "2025-09-10"},          // inside window, ISO
		{Rate: 10, PaymentDate: "01/01/2020 00:00:00"}, // too old
		{Rate: 10, PaymentDate: "not-a-date"},
	}, 100)

	assert.InDelta(t, 5.0, dy, 1e-9)
	assert.Zero(t, u.trailingYield(nil, 100))
	assert.Zero(t, u.trailingYield([]domain.Dividend{{Rate: 1, PaymentDate: "2026-01-01"}}, 0))
}

func TestTopSuggestionsRulesAndOrder(t *testing.T) {
	quotes := map[string]domain.Quote{}
	// PETR4: grinding downtrend (down 3, up 1) -> RSI around 25, Buy via
	// the near-oversold rule, so suggestion rule one matches.
	petr := make([]float64, 60)
	petr[0] = 160
	for i := 1; i < len(petr); i++ {
		if i%2 == 1 {
			petr[i] = petr[i-1] - 3
		} else {
			petr[i] = petr[i-1] + 1
		}
	}
	quotes["PETR4"] = domain.Quote{Symbol: "PETR4", Closes: petr}
	// VALE3: flat with a fat dividend trail -> DIVIDEND KING.
	quotes["VALE3"] = domain.Quote{
		Symbol: "VALE3", Price: 50, Closes: closesEndingFlat(60, 50),
		Dividends: []domain.Dividend{{Rate: 5, PaymentDate: "05/01/2026 00:00:00"}},
	}
	for _, sym := range suggestionCandidates {
		if _, ok := quotes[sym]; !ok {
			// Neutral filler that matches no rule.
			quotes[sym] = domain.Quote{Symbol: sym, Price: 100, Closes: closesEndingFlat(60, 99)}
		}
	}

	u := newAnalyzer(quotes)
	got := u.TopSuggestions(context.Background())

	require.Len(t, got, 2)
	assert.Equal(t, "PETR4", got[0].Symbol, "lowest RSI first")
	assert.Contains(t, got[0].Reason, "OPORTUNIDADE TÉCNICA")
	assert.Equal(t, "VALE3", got[1].Symbol)
	assert.Contains(t, got[1].Reason, "DIVIDEND KING")
}

func TestTrendingStocksFilterAndFallback(t *testing.T) {
	quotes := map[string]domain.Quote{}
	for i, sym := range trendingCandidates {
		// Only MGLU3 passes the strict trend filter; the rest are flat or
		// negative and only enter through the fallback fill.
		if sym == "MGLU3" {
			up := make([]float64, 60)
			for j := range up {
				up[j] = 100 + 0.2*float64(j%3)
			}
			up[len(up)-1] = 102
			quotes[sym] = domain.Quote{Symbol: sym, Price: 102, ChangePercent: 2.0, Closes: up}
			continue
		}
		quotes[sym] = domain.Quote{
			Symbol: sym, Price: 100, ChangePercent: -float64(i),
			Closes: closesEndingFlat(60, 101),
		}
	}

	u := newAnalyzer(quotes)
	got := u.TrendingStocks(context.Background())

	require.Len(t, got, maxTrending, "fallback fills up to the cap")
	assert.Equal(t, "MGLU3", got[0].Symbol, "strongest change percent leads")
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].ChangePercent, got[i].ChangePercent)
	}
}
