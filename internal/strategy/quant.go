package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/quantagent/backtest/internal/indicator"
	"github.com/quantagent/backtest/internal/types"
)

const (
	quantBollingerPeriod = 20
	quantBollingerWidth  = 2.0
)

// Quant trades mean reversion against Bollinger(20, 2) bands: buy when
// the close breaks below the lower band, sell when it breaks above the
// upper band.
type Quant struct {
	ticker string
}

// NewQuant creates a Bollinger band mean reversion strategy.
func NewQuant(ticker string) *Quant {
	return &Quant{ticker: ticker}
}

// Name implements Strategy.
func (q *Quant) Name() string {
	return "quant"
}

// GenerateSignal implements Strategy.
func (q *Quant) GenerateSignal(_ context.Context, window types.Window, date time.Time, _ types.PortfolioSnapshot) (types.Signal, error) {
	bands, err := indicator.Bollinger(window.Closes(), quantBollingerPeriod, quantBollingerWidth)
	if err != nil {
		return holdOnWarmup(q.ticker, date, err)
	}

	current, ok := window.Last()
	if !ok {
		return types.HoldSignal(q.ticker, date), nil
	}

	switch {
	case current.Close < bands.Lower:
		return signal(q.ticker, date, types.ActionBuy, 0.7,
			fmt.Sprintf("close %.2f below lower band %.2f", current.Close, bands.Lower)), nil
	case current.Close > bands.Upper:
		return signal(q.ticker, date, types.ActionSell, 0.7,
			fmt.Sprintf("close %.2f above upper band %.2f", current.Close, bands.Upper)), nil
	}

	return types.HoldSignal(q.ticker, date), nil
}
