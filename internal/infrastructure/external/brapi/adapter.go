package brapi

import (
	"context"

	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/market"
)

// QuoteAdapter implements the analyzer's QuoteProvider on top of the brapi
// client.
type QuoteAdapter struct {
	client *Client
}

func NewQuoteAdapter(client *Client) *QuoteAdapter {
	return &QuoteAdapter{client: client}
}

func (a *QuoteAdapter) FetchQuote(ctx context.Context, symbol string) (market.Quote, error) {
	res, err := a.client.GetQuote(ctx, symbol)
	if err != nil {
		return market.Quote{}, err
	}

	closes := make([]float64, 0, len(res.HistoricalDataPrice))
	for _, bar := range res.HistoricalDataPrice {
		if bar.Close > 0 {
			closes = append(closes, bar.Close)
		}
	}

	var dividends []market.Dividend
	if res.DividendsData != nil {
		for _, d := range res.DividendsData.CashDividends {
			dividends = append(dividends, market.Dividend{
				Rate:        d.Rate,
				PaymentDate: d.PaymentDate,
			})
		}
	}

	return market.Quote{
		Symbol:        res.Symbol,
		Price:         res.RegularMarketPrice,
		ChangePercent: res.RegularMarketChangePercent,
		Closes:        closes,
		Dividends:     dividends,
		Logo:          res.LogoURL,
	}, nil
}
