package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/quantagent/backtest/internal/indicator"
	"github.com/quantagent/backtest/internal/types"
	"github.com/quantagent/backtest/pkg/errors"
)

const (
	trendFastPeriod = 20
	trendSlowPeriod = 60
	trendRSIPeriod  = 14

	rsiOverbought = 70.0
	rsiOversold   = 30.0
)

// Trend follows the 20/60-day moving average crossover, filtered by a
// 14-day RSI so it does not buy into an overbought move or sell into an
// oversold one.
type Trend struct {
	ticker string
}

// NewTrend creates a moving average crossover strategy.
func NewTrend(ticker string) *Trend {
	return &Trend{ticker: ticker}
}

// Name implements Strategy.
func (t *Trend) Name() string {
	return "trend"
}

// GenerateSignal implements Strategy.
func (t *Trend) GenerateSignal(_ context.Context, window types.Window, date time.Time, _ types.PortfolioSnapshot) (types.Signal, error) {
	closes := window.Closes()

	fast, err := indicator.SMA(closes, trendFastPeriod)
	if err != nil {
		return holdOnWarmup(t.ticker, date, err)
	}

	slow, err := indicator.SMA(closes, trendSlowPeriod)
	if err != nil {
		return holdOnWarmup(t.ticker, date, err)
	}

	rsi, err := indicator.RSI(closes, trendRSIPeriod)
	if err != nil {
		return holdOnWarmup(t.ticker, date, err)
	}

	// Crossover direction is judged against yesterday's averages.
	prevCloses := closes[:len(closes)-1]

	prevFast, err := indicator.SMA(prevCloses, trendFastPeriod)
	if err != nil {
		return holdOnWarmup(t.ticker, date, err)
	}

	prevSlow, err := indicator.SMA(prevCloses, trendSlowPeriod)
	if err != nil {
		return holdOnWarmup(t.ticker, date, err)
	}

	crossedUp := prevFast <= prevSlow && fast > slow
	crossedDown := prevFast >= prevSlow && fast < slow

	switch {
	case crossedUp && rsi < rsiOverbought:
		return signal(t.ticker, date, types.ActionBuy, 0.75,
			fmt.Sprintf("golden cross with RSI %.1f", rsi)), nil
	case crossedDown && rsi > rsiOversold:
		return signal(t.ticker, date, types.ActionSell, 0.75,
			fmt.Sprintf("death cross with RSI %.1f", rsi)), nil
	case rsi > rsiOverbought:
		return signal(t.ticker, date, types.ActionSell, 0.6,
			fmt.Sprintf("overbought: RSI %.1f", rsi)), nil
	case rsi < rsiOversold:
		return signal(t.ticker, date, types.ActionBuy, 0.6,
			fmt.Sprintf("oversold: RSI %.1f", rsi)), nil
	}

	return types.HoldSignal(t.ticker, date), nil
}

// holdOnWarmup converts indicator warmup errors into hold signals so a
// strategy stays quiet until its lookback fills, while real errors still
// surface.
func holdOnWarmup(ticker string, date time.Time, err error) (types.Signal, error) {
	if errors.IsInsufficientDataError(err) {
		return types.HoldSignal(ticker, date), nil
	}

	return types.Signal{}, err
}
