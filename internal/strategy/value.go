package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/quantagent/backtest/internal/types"
)

// Value buys price dips in cheaply valued instruments and exits when the
// valuation stretches: buy on a down day while PE < 15 and PB < 1.5,
// sell whenever PE > 25 or PB > 3.
type Value struct {
	ticker       string
	fundamentals types.FinancialSnapshot
}

// NewValue creates a value strategy over the given fundamentals snapshot.
func NewValue(ticker string, fundamentals types.FinancialSnapshot) *Value {
	return &Value{
		ticker:       ticker,
		fundamentals: fundamentals,
	}
}

// Name implements Strategy.
func (v *Value) Name() string {
	return "value"
}

// GenerateSignal implements Strategy.
func (v *Value) GenerateSignal(_ context.Context, window types.Window, date time.Time, _ types.PortfolioSnapshot) (types.Signal, error) {
	if len(window) < 2 {
		return types.HoldSignal(v.ticker, date), nil
	}

	current := window[len(window)-1]
	previous := window[len(window)-2]

	if v.fundamentals.PERatio > 25 || v.fundamentals.PBRatio > 3 {
		return signal(v.ticker, date, types.ActionSell, 0.8,
			fmt.Sprintf("valuation stretched: PE %.1f, PB %.1f", v.fundamentals.PERatio, v.fundamentals.PBRatio)), nil
	}

	priceDipped := current.Close < previous.Close
	cheap := v.fundamentals.PERatio < 15 && v.fundamentals.PBRatio < 1.5

	if priceDipped && cheap {
		return signal(v.ticker, date, types.ActionBuy, 0.7,
			fmt.Sprintf("dip in a cheap name: PE %.1f, PB %.1f", v.fundamentals.PERatio, v.fundamentals.PBRatio)), nil
	}

	return types.HoldSignal(v.ticker, date), nil
}
