package market

// Action is the suggested operation for a symbol. The sell label stays in
// Portuguese because it is rendered verbatim in user-facing messages.
type Action string

const (
	ActionBuy  Action = "Buy"
	ActionSell Action = "Venda"
	ActionHold Action = "Hold"
)

// StockAnalysis is the per-symbol snapshot produced by one analysis pass:
// latest quote, technical indicators and the derived action.
type StockAnalysis struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"changePercent"`
	RSI           float64 `json:"rsi"`
	SMA50         float64 `json:"sma50"`
	SMA200        float64 `json:"sma200"`
	Action        Action  `json:"action"`
	Reason        string  `json:"reason"`
	DY            float64 `json:"dy"`
	Logo          string  `json:"logo"`
}

// Quote is the raw market data needed to analyze one symbol.
type Quote struct {
	Symbol        string
	Price         float64
	ChangePercent float64
	Closes        []float64 // daily closes, oldest first
	Dividends     []Dividend
	Logo          string
}

// Dividend is a single cash payout used for the trailing yield.
type Dividend struct {
	Rate        float64
	PaymentDate string // DD/MM/YYYY or ISO, as delivered by the quote API
}
