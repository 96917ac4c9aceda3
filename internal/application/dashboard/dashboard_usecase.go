package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	appalert "github.com/engenhariadahumanidade/RAPERStockDASH/internal/application/alert"
	alertDomain "github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/alert"
	marketDomain "github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/market"
	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/portfolio"
)

const recentLogCount = 5

// StockReader lists a user's holdings.
type StockReader interface {
	ListByUser(ctx context.Context, userID string) ([]portfolio.Stock, error)
}

// SettingsReader loads (lazily creating) a user's settings record.
type SettingsReader interface {
	FindByUserID(ctx context.Context, userID string) (alertDomain.Settings, error)
}

// LogReader tails the user's recent system log rows.
type LogReader interface {
	ListRecent(ctx context.Context, userID string, limit int) ([]alertDomain.LogEntry, error)
}

// Analyzer produces per-symbol snapshots and the curated lists.
type Analyzer interface {
	AnalyzeSymbol(ctx context.Context, symbol string) (marketDomain.StockAnalysis, error)
	TopSuggestions(ctx context.Context) []marketDomain.StockAnalysis
	TrendingStocks(ctx context.Context) []marketDomain.StockAnalysis
}

// Dispatcher decides and performs the alert delivery for one scan tick.
type Dispatcher interface {
	Execute(ctx context.Context, in appalert.DispatchInput) appalert.Outcome
}

// View is the aggregated dashboard payload.
type View struct {
	Portfolio    []portfolio.AnalyzedStock      `json:"portfolio"`
	Suggestions  []marketDomain.StockAnalysis   `json:"suggestions"`
	Trending     []marketDomain.StockAnalysis   `json:"trending"`
	ScanInterval int                            `json:"scanInterval"`
	Logs         []alertDomain.LogEntry         `json:"logs"`
	AlertOutcome *appalert.Outcome              `json:"alertStatus,omitempty"`
}

// UseCase assembles one full analysis pass for a user: portfolio analysis,
// suggestion/trending lists and, when asked, the alert dispatch.
type UseCase struct {
	stocks   StockReader
	settings SettingsReader
	logs     LogReader
	analyzer Analyzer
	alerts   Dispatcher
	log      *zap.Logger
}

func NewUseCase(stocks StockReader, settings SettingsReader, logs LogReader, analyzer Analyzer, alerts Dispatcher, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		stocks:   stocks,
		settings: settings,
		logs:     logs,
		analyzer: analyzer,
		alerts:   alerts,
		log:      logger,
	}
}

// Run fetches everything concurrently, analyzes the holdings and optionally
// triggers the alert dispatch for the user.
func (u *UseCase) Run(ctx context.Context, userID, userName string, triggerAlert, isTest bool) (View, error) {
	var (
		holdings    []portfolio.Stock
		suggestions []marketDomain.StockAnalysis
		trending    []marketDomain.StockAnalysis
		settings    alertDomain.Settings
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		holdings, err = u.stocks.ListByUser(gctx, userID)
		if err != nil {
			return fmt.Errorf("list stocks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		settings, err = u.settings.FindByUserID(gctx, userID)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		suggestions = u.analyzer.TopSuggestions(gctx)
		return nil
	})
	g.Go(func() error {
		trending = u.analyzer.TrendingStocks(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return View{}, err
	}

	analyzed, signals := u.analyzePortfolio(ctx, holdings)

	view := View{
		Portfolio:    analyzed,
		Suggestions:  suggestions,
		Trending:     trending,
		ScanInterval: settings.ScanInterval,
	}
	if view.ScanInterval == 0 {
		view.ScanInterval = alertDomain.DefaultScanIntervalMinutes
	}

	if triggerAlert {
		outcome := u.alerts.Execute(ctx, appalert.DispatchInput{
			Signals:     signals,
			Suggestions: suggestions,
			Trending:    trending,
			Portfolio:   analyzed,
			Settings:    settings,
			UserID:      userID,
			UserName:    userName,
			IsTest:      isTest,
		})
		view.AlertOutcome = &outcome
	}

	if u.logs != nil {
		logs, err := u.logs.ListRecent(ctx, userID, recentLogCount)
		if err != nil {
			u.log.Warn("recent logs fetch failed", zap.String("user_id", userID), zap.Error(err))
		} else {
			view.Logs = logs
		}
	}

	return view, nil
}

// analyzePortfolio fans out one analysis per holding and collects the
// signal lines in portfolio order, so the content hash downstream is stable
// across runs with identical data.
func (u *UseCase) analyzePortfolio(ctx context.Context, holdings []portfolio.Stock) ([]portfolio.AnalyzedStock, []string) {
	analyzed := make([]portfolio.AnalyzedStock, len(holdings))
	g, gctx := errgroup.WithContext(ctx)
	for i, h := range holdings {
		g.Go(func() error {
			a, err := u.analyzer.AnalyzeSymbol(gctx, h.Symbol)
			if err != nil {
				u.log.Debug("holding analysis failed", zap.String("symbol", h.Symbol), zap.Error(err))
				analyzed[i] = portfolio.AnalyzedStock{Stock: h}
				return nil
			}
			analyzed[i] = portfolio.AnalyzedStock{Stock: h, Analysis: &a}
			return nil
		})
	}
	_ = g.Wait()

	var signals []string
	for _, s := range analyzed {
		if s.Analysis != nil && s.Analysis.Action != marketDomain.ActionHold {
			signals = append(signals, SignalLine(*s.Analysis))
		}
	}
	return analyzed, signals
}

// SignalLine renders the pre-formatted alert line for a non-Hold analysis.
func SignalLine(a marketDomain.StockAnalysis) string {
	return fmt.Sprintf("[%s] - SINAL DE %s: %s (Preço: R$ %s | RSI: %s)",
		a.Symbol,
		strings.ToUpper(string(a.Action)),
		a.Reason,
		strings.Replace(fmt.Sprintf("%.2f", a.Price), ".", ",", 1),
		strconv.FormatFloat(a.RSI, 'f', -1, 64),
	)
}
