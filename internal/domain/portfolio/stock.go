package portfolio

import (
	"fmt"
	"strings"
	"time"

	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/market"
)

// Stock is one portfolio holding registered by a user.
type Stock struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"userId"`
	Symbol       string    `json:"symbol"`
	Quantity     float64   `json:"quantity"`
	AveragePrice float64   `json:"averagePrice"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Validate checks the fields a create/update must carry.
func (s Stock) Validate() error {
	if strings.TrimSpace(s.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	if s.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative")
	}
	if s.AveragePrice < 0 {
		return fmt.Errorf("average price must not be negative")
	}
	return nil
}

// AnalyzedStock pairs a holding with its latest analysis snapshot.
// Analysis is nil when the quote fetch failed for the symbol.
type AnalyzedStock struct {
	Stock
	Analysis *market.StockAnalysis `json:"analysis"`
}
