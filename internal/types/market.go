package types

import "time"

// PriceBar is one daily OHLCV bar. Bars for a single run are strictly
// increasing by date with one bar per trading day; missing days are
// simply absent.
type PriceBar struct {
	Date   time.Time `yaml:"date" json:"date" csv:"date"`
	Open   float64   `yaml:"open" json:"open" csv:"open"`
	High   float64   `yaml:"high" json:"high" csv:"high"`
	Low    float64   `yaml:"low" json:"low" csv:"low"`
	Close  float64   `yaml:"close" json:"close" csv:"close"`
	Volume float64   `yaml:"volume" json:"volume" csv:"volume"`
}

// Window is the slice of price history available to a strategy on a given
// day: all bars up to and including that day, never beyond it.
type Window []PriceBar

// Last returns the most recent bar in the window.
// The second return value is false for an empty window.
func (w Window) Last() (PriceBar, bool) {
	if len(w) == 0 {
		return PriceBar{}, false
	}

	return w[len(w)-1], true
}

// Closes returns the closing prices of the window in chronological order.
func (w Window) Closes() []float64 {
	closes := make([]float64, len(w))
	for i, bar := range w {
		closes[i] = bar.Close
	}

	return closes
}

// FinancialSnapshot holds per-ticker fundamentals consumed by the value and
// growth strategies. The engine treats it as opaque strategy input.
type FinancialSnapshot struct {
	PERatio       float64 `yaml:"pe_ratio" json:"peRatio"`
	PBRatio       float64 `yaml:"pb_ratio" json:"pbRatio"`
	DividendYield float64 `yaml:"dividend_yield" json:"dividendYield"`
	EPSGrowth     float64 `yaml:"eps_growth" json:"epsGrowth"`
	ProfitMargin  float64 `yaml:"profit_margin" json:"profitMargin"`
	CurrentRatio  float64 `yaml:"current_ratio" json:"currentRatio"`
	DebtToEquity  float64 `yaml:"debt_to_equity" json:"debtToEquity"`
	RevenueGrowth float64 `yaml:"revenue_growth" json:"revenueGrowth"`
}

// NewsItem is a dated headline with a sentiment score in [-1, 1].
type NewsItem struct {
	Date      time.Time `yaml:"date" json:"date"`
	Headline  string    `yaml:"headline" json:"headline"`
	Sentiment float64   `yaml:"sentiment" json:"sentiment"`
}
