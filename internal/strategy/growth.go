package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/quantagent/backtest/internal/indicator"
	"github.com/quantagent/backtest/internal/types"
	"github.com/quantagent/backtest/pkg/errors"
)

const growthTrendPeriod = 20

// Growth chases improving fundamentals confirmed by price momentum: buy
// when EPS and revenue growth are both positive and the close sits above
// its 20-day average, sell when either growth rate turns negative.
type Growth struct {
	ticker       string
	fundamentals types.FinancialSnapshot
}

// NewGrowth creates a growth strategy over the given fundamentals snapshot.
func NewGrowth(ticker string, fundamentals types.FinancialSnapshot) *Growth {
	return &Growth{
		ticker:       ticker,
		fundamentals: fundamentals,
	}
}

// Name implements Strategy.
func (g *Growth) Name() string {
	return "growth"
}

// GenerateSignal implements Strategy.
func (g *Growth) GenerateSignal(_ context.Context, window types.Window, date time.Time, _ types.PortfolioSnapshot) (types.Signal, error) {
	if g.fundamentals.EPSGrowth < 0 || g.fundamentals.RevenueGrowth < 0 {
		return signal(g.ticker, date, types.ActionSell, 0.75,
			fmt.Sprintf("growth deteriorating: EPS %.1f%%, revenue %.1f%%",
				g.fundamentals.EPSGrowth*100, g.fundamentals.RevenueGrowth*100)), nil
	}

	sma, err := indicator.SMA(window.Closes(), growthTrendPeriod)
	if err != nil {
		if errors.IsInsufficientDataError(err) {
			return types.HoldSignal(g.ticker, date), nil
		}
		return types.Signal{}, err
	}

	current, ok := window.Last()
	if !ok {
		return types.HoldSignal(g.ticker, date), nil
	}

	if g.fundamentals.EPSGrowth > 0 && g.fundamentals.RevenueGrowth > 0 && current.Close > sma {
		return signal(g.ticker, date, types.ActionBuy, 0.7,
			fmt.Sprintf("growth intact and price above %d-day average", growthTrendPeriod)), nil
	}

	return types.HoldSignal(g.ticker, date), nil
}
