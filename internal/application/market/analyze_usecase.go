package market

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domain "github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/market"
)

const (
	rsiPeriod      = 14
	suggestionPool = 12
	maxSuggestions = 4
	maxTrending    = 6
)

// suggestionCandidates is the wider B3 universe the scanner samples from on
// every pass, so the suggestion list stays dynamic.
var suggestionCandidates = []string{
	"PETR4", "VALE3", "ITUB4", "BBDC4", "ABEV3", "WEGE3", "BBAS3", "B3SA3",
	"PETR3", "ITSA4", "EGIE3", "TRPL4", "VBBR3", "RENT3", "PRIO3", "CSNA3",
	"ELET3", "GGBR4", "SANB11", "LREN3", "SUZB3", "KLBN11", "RADL3", "EQTL3",
}

// trendingCandidates is the fixed watchlist scanned for momentum.
var trendingCandidates = []string{
	"MGLU3", "B3SA3", "WEGE3", "ELET3", "RENT3", "PRIO3", "SUZB3", "RADL3", "EQTL3", "VIVT3",
}

// QuoteProvider fetches the raw quote and price history for one symbol.
type QuoteProvider interface {
	FetchQuote(ctx context.Context, symbol string) (domain.Quote, error)
}

// AnalyzeUseCase turns raw quotes into StockAnalysis snapshots and derives
// the curated suggestion and trending lists.
type AnalyzeUseCase struct {
	quotes  QuoteProvider
	now     func() time.Time
	shuffle func([]string)
	log     *zap.Logger
}

// NewAnalyzeUseCase builds the analyzer with production defaults for the
// clock and the candidate shuffle.
func NewAnalyzeUseCase(quotes QuoteProvider, logger *zap.Logger) *AnalyzeUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyzeUseCase{
		quotes: quotes,
		now:    time.Now,
		shuffle: func(syms []string) {
			rand.Shuffle(len(syms), func(i, j int) { syms[i], syms[j] = syms[j], syms[i] })
		},
		log: logger,
	}
}

// AnalyzeSymbol fetches one symbol and computes indicators plus the derived
// action. Errors mean "no usable analysis" and callers treat the holding as
// unanalyzed rather than failing the batch.
func (u *AnalyzeUseCase) AnalyzeSymbol(ctx context.Context, symbol string) (domain.StockAnalysis, error) {
	var res domain.StockAnalysis

	q, err := u.quotes.FetchQuote(ctx, strings.TrimSpace(strings.TrimSuffix(symbol, ".SA")))
	if err != nil {
		return res, fmt.Errorf("fetch quote %s: %w", symbol, err)
	}

	price := q.Price
	if price == 0 && len(q.Closes) > 0 {
		price = q.Closes[len(q.Closes)-1]
	}
	if price == 0 {
		return res, fmt.Errorf("no price available for %s", symbol)
	}

	// The free quote tier returns roughly three months of history; enough
	// for RSI and SMA50, with SMA200 falling back to SMA50.
	rsi := 50.0
	if len(q.Closes) >= rsiPeriod+1 {
		if v := domain.RSI(q.Closes, rsiPeriod); v != 0 {
			rsi = v
		}
	}
	sma50 := price
	if len(q.Closes) >= 50 {
		if v := domain.SMA(q.Closes, 50); v != 0 {
			sma50 = v
		}
	}
	sma200 := sma50
	if len(q.Closes) >= 200 {
		if v := domain.SMA(q.Closes, 200); v != 0 {
			sma200 = v
		}
	}

	dy := u.trailingYield(q.Dividends, price)
	action, reason := deriveAction(rsi, price, sma50, sma200)

	return domain.StockAnalysis{
		Symbol:        symbol,
		Price:         round2(price),
		ChangePercent: round2(q.ChangePercent),
		RSI:           round2(rsi),
		SMA50:         round2(sma50),
		SMA200:        round2(sma200),
		Action:        action,
		Reason:        reason,
		DY:            round2(dy),
		Logo:          q.Logo,
	}, nil
}

// TopSuggestions samples the candidate universe, analyzes the sample and
// keeps the symbols matching one of the three opportunity rules, best RSI
// first.
func (u *AnalyzeUseCase) TopSuggestions(ctx context.Context) []domain.StockAnalysis {
	pool := make([]string, len(suggestionCandidates))
	copy(pool, suggestionCandidates)
	u.shuffle(pool)
	if len(pool) > suggestionPool {
		pool = pool[:suggestionPool]
	}

	analyses := u.analyzeAll(ctx, pool)

	var results []domain.StockAnalysis
	seen := map[string]bool{}
	for _, a := range analyses {
		if a == nil || seen[a.Symbol] {
			continue
		}
		picked := *a
		switch {
		case a.RSI < 32 && a.Action == domain.ActionBuy:
			picked.Reason = "💎 OPORTUNIDADE TÉCNICA: Ativo em sobrevenda extrema + RSI abaixo de 32."
		case a.DY >= 8.0:
			picked.Reason = "💰 DIVIDEND KING: Excelente retorno de dividendos (>8%) com preço estável."
		case a.RSI < 45 && a.Price > a.SMA50:
			picked.Reason = "🚀 RECOMPOSIÇÃO: Em recuperação técnica, preço acima da média de 50 dias."
		default:
			continue
		}
		seen[a.Symbol] = true
		results = append(results, picked)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].RSI < results[j].RSI })
	if len(results) > maxSuggestions {
		results = results[:maxSuggestions]
	}
	return results
}

// TrendingStocks scans the momentum watchlist: positive day change, RSI in
// the 50-70 band and price above SMA50. When too few qualify, the most
// positive of the rest fill the list.
func (u *AnalyzeUseCase) TrendingStocks(ctx context.Context) []domain.StockAnalysis {
	analyses := u.analyzeAll(ctx, trendingCandidates)

	var results []domain.StockAnalysis
	for _, a := range analyses {
		if a != nil && a.ChangePercent > 0 && a.RSI >= 50 && a.RSI <= 70 && a.Price > a.SMA50 {
			results = append(results, *a)
		}
	}

	if len(results) < maxTrending {
		var rest []domain.StockAnalysis
		for _, a := range analyses {
			if a == nil {
				continue
			}
			dup := false
			for _, r := range results {
				if r.Symbol == a.Symbol {
					dup = true
					break
				}
			}
			if !dup {
				rest = append(rest, *a)
			}
		}
		sort.Slice(rest, func(i, j int) bool { return rest[i].ChangePercent > rest[j].ChangePercent })
		for _, a := range rest {
			if len(results) >= maxTrending {
				break
			}
			results = append(results, a)
		}
	}

	if len(results) > maxTrending {
		results = results[:maxTrending]
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ChangePercent > results[j].ChangePercent })
	return results
}

// analyzeAll fans out one analysis per symbol; failures become nil slots so
// list order stays aligned with the input.
func (u *AnalyzeUseCase) analyzeAll(ctx context.Context, symbols []string) []*domain.StockAnalysis {
	out := make([]*domain.StockAnalysis, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	for i, sym := range symbols {
		g.Go(func() error {
			a, err := u.AnalyzeSymbol(gctx, sym)
			if err != nil {
				u.log.Debug("symbol analysis skipped", zap.String("symbol", sym), zap.Error(err))
				return nil
			}
			out[i] = &a
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// trailingYield sums cash dividends paid in the last 12 months.
func (u *AnalyzeUseCase) trailingYield(dividends []domain.Dividend, price float64) float64 {
	if len(dividends) == 0 || price <= 0 {
		return 0
	}
	oneYearAgo := u.now().AddDate(-1, 0, 0)
	total := 0.0
	for _, d := range dividends {
		paid, ok := parsePaymentDate(d.PaymentDate)
		if ok && !paid.Before(oneYearAgo) {
			total += d.Rate
		}
	}
	return total / price * 100
}

// parsePaymentDate accepts the API's "DD/MM/YYYY HH:MM:SS" form as well as
// plain ISO timestamps.
func parsePaymentDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if strings.Contains(s, "/") {
		if t, err := time.Parse("02/01/2006 15:04:05", s); err == nil {
			return t, true
		}
		if t, err := time.Parse("02/01/2006", strings.Fields(s)[0]); err == nil {
			return t, true
		}
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func deriveAction(rsi, price, sma50, sma200 float64) (domain.Action, string) {
	switch {
	case rsi < 30 && price > sma200:
		return domain.ActionBuy, "Ativo sobrevendido (RSI < 30) em tendência de alta."
	case rsi > 70 && price < sma200:
		return domain.ActionSell, "Ativo sobrecomprado (RSI > 70) em tendência de baixa."
	case sma50 > sma200 && rsi < 50:
		return domain.ActionBuy, "Golden Cross (SMA50 > SMA200) em correção (RSI < 50)."
	case sma50 < sma200 && rsi > 50:
		return domain.ActionSell, "Death Cross (SMA50 < SMA200) e possível topo local (RSI > 50)."
	case rsi < 35:
		return domain.ActionBuy, "Ativo perto de sobrevenda extrema (RSI < 35)."
	case rsi > 65:
		return domain.ActionSell, "Ativo perto de sobrecompra extrema (RSI > 65)."
	default:
		return domain.ActionHold, "Mercado lateralizado, sem sinais claros."
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
