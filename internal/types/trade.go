package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/quantagent/backtest/pkg/errors"
)

type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Order is a sized instruction produced by the engine's sizing policy and
// handed to the portfolio ledger for execution at the bar's closing price.
type Order struct {
	ID     string    `yaml:"id" json:"id" csv:"id" validate:"required,uuid"`
	Date   time.Time `yaml:"date" json:"date" csv:"date" validate:"required"`
	Ticker string    `yaml:"ticker" json:"ticker" csv:"ticker" validate:"required"`
	Side   Side      `yaml:"side" json:"side" csv:"side" validate:"required,oneof=buy sell"`
	Shares int64     `yaml:"shares" json:"shares" csv:"shares" validate:"required,gt=0"`
	Price  float64   `yaml:"price" json:"price" csv:"price" validate:"required,gt=0"`
}

// Validate validates the Order struct.
func (o *Order) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeOrderRejected, "invalid order", err)
	}

	return nil
}

// Trade is the immutable record of a filled order. RealizedProfit is
// populated only for sell trades: (sellPrice - avgCostAtSale) * shares.
type Trade struct {
	ID             string                   `yaml:"id" json:"id" csv:"id"`
	Date           time.Time                `yaml:"date" json:"date" csv:"date"`
	Ticker         string                   `yaml:"ticker" json:"ticker" csv:"ticker"`
	Side           Side                     `yaml:"side" json:"side" csv:"side"`
	Price          float64                  `yaml:"price" json:"price" csv:"price"`
	Shares         int64                    `yaml:"shares" json:"shares" csv:"shares"`
	RealizedProfit optional.Option[float64] `yaml:"realized_profit" json:"realizedProfit"`
}

// Position represents the current holding of one instrument. A position
// with zero shares carries no cost basis and is removed from the ledger
// rather than kept zero-padded.
type Position struct {
	Ticker  string  `yaml:"ticker" json:"ticker" csv:"ticker"`
	Shares  int64   `yaml:"shares" json:"shares" csv:"shares"`
	AvgCost float64 `yaml:"avg_cost" json:"avgCost" csv:"avg_cost"`
}

// MarketValue returns the position marked to the given price.
func (p Position) MarketValue(price float64) float64 {
	value, _ := decimal.NewFromInt(p.Shares).Mul(decimal.NewFromFloat(price)).Float64()
	return value
}

// UnrealizedProfit returns the profit the position would realize if sold
// in full at the given price.
func (p Position) UnrealizedProfit(price float64) float64 {
	profit, _ := decimal.NewFromFloat(price).
		Sub(decimal.NewFromFloat(p.AvgCost)).
		Mul(decimal.NewFromInt(p.Shares)).
		Float64()

	return profit
}

// PortfolioSnapshot is the read-only view of ledger state handed to
// strategies. Mutating it has no effect on the run.
type PortfolioSnapshot struct {
	Cash      float64             `yaml:"cash" json:"cash"`
	Positions map[string]Position `yaml:"positions" json:"positions"`
	// Equity is cash plus the mark-to-market value of all positions at
	// the most recent close seen by the ledger.
	Equity float64 `yaml:"equity" json:"equity"`
}

// Holding returns the snapshot's position for a ticker, or a zero
// position when none is held.
func (s PortfolioSnapshot) Holding(ticker string) Position {
	if p, ok := s.Positions[ticker]; ok {
		return p
	}

	return Position{Ticker: ticker}
}
