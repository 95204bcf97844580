package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/quantagent/backtest/internal/indicator"
	"github.com/quantagent/backtest/internal/types"
)

const (
	riskVolatilityPeriod = 20
	riskBreakoutPeriod   = 10

	riskHighVolatility = 0.04
	riskLowVolatility  = 0.015
)

// RiskManaged scales its appetite with realized volatility: in calm
// markets it buys 10-day breakouts, in stormy ones it sells 10-day
// breakdowns and otherwise stays out.
type RiskManaged struct {
	ticker string
}

// NewRiskManaged creates a volatility-gated breakout strategy.
func NewRiskManaged(ticker string) *RiskManaged {
	return &RiskManaged{ticker: ticker}
}

// Name implements Strategy.
func (r *RiskManaged) Name() string {
	return "riskManaged"
}

// GenerateSignal implements Strategy.
func (r *RiskManaged) GenerateSignal(_ context.Context, window types.Window, date time.Time, _ types.PortfolioSnapshot) (types.Signal, error) {
	closes := window.Closes()

	vol, err := indicator.Volatility(closes, riskVolatilityPeriod)
	if err != nil {
		return holdOnWarmup(r.ticker, date, err)
	}

	current, ok := window.Last()
	if !ok {
		return types.HoldSignal(r.ticker, date), nil
	}

	// Breakout levels exclude today so the close can actually break them.
	prior := closes[:len(closes)-1]

	high, err := indicator.Highest(prior, riskBreakoutPeriod)
	if err != nil {
		return holdOnWarmup(r.ticker, date, err)
	}

	low, err := indicator.Lowest(prior, riskBreakoutPeriod)
	if err != nil {
		return holdOnWarmup(r.ticker, date, err)
	}

	switch {
	case vol > riskHighVolatility && current.Close < low:
		return signal(r.ticker, date, types.ActionSell, 0.8,
			fmt.Sprintf("breakdown below %.2f in high volatility %.3f", low, vol)), nil
	case vol < riskLowVolatility && current.Close > high:
		return signal(r.ticker, date, types.ActionBuy, 0.7,
			fmt.Sprintf("breakout above %.2f in low volatility %.3f", high, vol)), nil
	case vol > riskHighVolatility:
		// Too rough to add risk, not rough enough to force an exit.
		return signal(r.ticker, date, types.ActionSell, 0.4,
			fmt.Sprintf("trimming exposure: volatility %.3f", vol)), nil
	}

	return types.HoldSignal(r.ticker, date), nil
}
