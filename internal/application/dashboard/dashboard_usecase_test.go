package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appalert "github.com/engenhariadahumanidade/RAPERStockDASH/internal/application/alert"
	alertDomain "github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/alert"
	marketDomain "github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/market"
	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/portfolio"
)

type fakeStocks struct {
	items []portfolio.Stock
	err   error
}

func (f *fakeStocks) ListByUser(ctx context.Context, userID string) ([]portfolio.Stock, error) {
	return f.items, f.err
}

type fakeSettings struct {
	settings alertDomain.Settings
	err      error
}

func (f *fakeSettings) FindByUserID(ctx context.Context, userID string) (alertDomain.Settings, error) {
	return f.settings, f.err
}

type fakeLogReader struct {
	entries []alertDomain.LogEntry
	err     error
	limit   int
}

func (f *fakeLogReader) ListRecent(ctx context.Context, userID string, limit int) ([]alertDomain.LogEntry, error) {
	f.limit = limit
	return f.entries, f.err
}

type fakeAnalyzer struct {
	bySymbol    map[string]marketDomain.StockAnalysis
	suggestions []marketDomain.StockAnalysis
	trending    []marketDomain.StockAnalysis
}

func (f *fakeAnalyzer) AnalyzeSymbol(ctx context.Context, symbol string) (marketDomain.StockAnalysis, error) {
	a, ok := f.bySymbol[symbol]
	if !ok {
		return marketDomain.StockAnalysis{}, errors.New("no data")
	}
	return a, nil
}

func (f *fakeAnalyzer) TopSuggestions(ctx context.Context) []marketDomain.StockAnalysis {
	return f.suggestions
}

func (f *fakeAnalyzer) TrendingStocks(ctx context.Context) []marketDomain.StockAnalysis {
	return f.trending
}

type fakeDispatcher struct {
	calls   []appalert.DispatchInput
	outcome appalert.Outcome
}

func (f *fakeDispatcher) Execute(ctx context.Context, in appalert.DispatchInput) appalert.Outcome {
	f.calls = append(f.calls, in)
	return f.outcome
}

func newDashboardFixture() (*UseCase, *fakeStocks, *fakeAnalyzer, *fakeDispatcher, *fakeLogReader) {
	stocks := &fakeStocks{items: []portfolio.Stock{
		{ID: 1, UserID: "user_1", Symbol: "PETR4", Quantity: 100, AveragePrice: 30},
		{ID: 2, UserID: "user_1", Symbol: "VALE3", Quantity: 50, AveragePrice: 60},
		{ID: 3, UserID: "user_1", Symbol: "FAIL3", Quantity: 10, AveragePrice: 5},
	}}
	analyzer := &fakeAnalyzer{
		bySymbol: map[string]marketDomain.StockAnalysis{
			"PETR4": {Symbol: "PETR4", Price: 31.5, RSI: 28, Action: marketDomain.ActionBuy, Reason: "RSI baixo"},
			"VALE3": {Symbol: "VALE3", Price: 61.2, RSI: 55, Action: marketDomain.ActionHold, Reason: "Mercado lateral, aguardando definição."},
		},
		suggestions: []marketDomain.StockAnalysis{{Symbol: "BBAS3", Action: marketDomain.ActionBuy}},
		trending:    []marketDomain.StockAnalysis{{Symbol: "MGLU3", ChangePercent: 4.2}},
	}
	dispatcher := &fakeDispatcher{outcome: appalert.Outcome{Status: appalert.StatusSent}}
	logReader := &fakeLogReader{entries: []alertDomain.LogEntry{{ID: "9", Message: "ok"}}}
	settings := &fakeSettings{settings: alertDomain.Settings{ID: 7, UserID: "user_1", ScanInterval: 30}}
	uc := NewUseCase(stocks, settings, logReader, analyzer, dispatcher, nil)
	return uc, stocks, analyzer, dispatcher, logReader
}

func TestRunAggregatesView(t *testing.T) {
	uc, _, _, dispatcher, logReader := newDashboardFixture()

	view, err := uc.Run(context.Background(), "user_1", "Rafael", false, false)
	require.NoError(t, err)

	require.Len(t, view.Portfolio, 3)
	assert.Equal(t, "PETR4", view.Portfolio[0].Symbol)
	require.NotNil(t, view.Portfolio[0].Analysis)
	assert.Equal(t, marketDomain.ActionBuy, view.Portfolio[0].Analysis.Action)
	// Failed analysis keeps the holding, without a snapshot.
	assert.Nil(t, view.Portfolio[2].Analysis)

	assert.Equal(t, 30, view.ScanInterval)
	assert.Len(t, view.Suggestions, 1)
	assert.Len(t, view.Trending, 1)
	assert.Len(t, view.Logs, 1)
	assert.Equal(t, recentLogCount, logReader.limit)

	assert.Nil(t, view.AlertOutcome)
	assert.Empty(t, dispatcher.calls)
}

func TestRunTriggerAlertPassesSignals(t *testing.T) {
	uc, _, _, dispatcher, _ := newDashboardFixture()

	view, err := uc.Run(context.Background(), "user_1", "Rafael", true, true)
	require.NoError(t, err)

	require.NotNil(t, view.AlertOutcome)
	assert.Equal(t, appalert.StatusSent, view.AlertOutcome.Status)

	require.Len(t, dispatcher.calls, 1)
	in := dispatcher.calls[0]
	assert.True(t, in.IsTest)
	assert.Equal(t, "user_1", in.UserID)
	assert.Equal(t, "Rafael", in.UserName)
	// Only the non-Hold holding produces a signal line.
	require.Len(t, in.Signals, 1)
	assert.Equal(t, "[PETR4] - SINAL DE BUY: RSI baixo (Preço: R$ 31,50 | RSI: 28)", in.Signals[0])
}

func TestRunDefaultsScanInterval(t *testing.T) {
	uc, _, _, _, _ := newDashboardFixture()
	uc.settings = &fakeSettings{settings: alertDomain.Settings{UserID: "user_1"}}

	view, err := uc.Run(context.Background(), "user_1", "", false, false)
	require.NoError(t, err)
	assert.Equal(t, alertDomain.DefaultScanIntervalMinutes, view.ScanInterval)
}

func TestRunStockFetchFailure(t *testing.T) {
	uc, stocks, _, _, _ := newDashboardFixture()
	stocks.err = errors.New("db down")

	_, err := uc.Run(context.Background(), "user_1", "", false, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list stocks")
}

func TestRunLogFetchFailureIsNonFatal(t *testing.T) {
	uc, _, _, _, logReader := newDashboardFixture()
	logReader.err = errors.New("db down")

	view, err := uc.Run(context.Background(), "user_1", "", false, false)
	require.NoError(t, err)
	assert.Nil(t, view.Logs)
}

func TestSignalLineFormatting(t *testing.T) {
	line := SignalLine(marketDomain.StockAnalysis{
		Symbol: "WEGE3",
		Price:  42.1,
		RSI:    71.5,
		Action: marketDomain.ActionSell,
		Reason: "Sobrecomprado",
	})
	assert.Equal(t, "[WEGE3] - SINAL DE VENDA: Sobrecomprado (Preço: R$ 42,10 | RSI: 71.5)", line)
}
