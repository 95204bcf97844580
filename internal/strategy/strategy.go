// Package strategy defines the decision contract every trading strategy
// satisfies and the factory that builds the built-in variants. Strategies
// are pure capabilities from the engine's point of view: given today's
// price window, today's date, and the current portfolio snapshot, produce
// a signal. Strategies must never see bars after the given date.
package strategy

import (
	"context"
	"time"

	"github.com/quantagent/backtest/internal/types"
)

// Strategy is the capability contract all trading strategies implement.
// Strategies should be stateless across days; the engine owns all
// portfolio state and hands a read-only snapshot to each call.
type Strategy interface {
	// Name returns the display name of the strategy.
	Name() string
	// GenerateSignal produces the strategy's recommendation for one
	// trading day. The window holds all bars up to and including date;
	// implementations that consult remote services must honor ctx.
	GenerateSignal(ctx context.Context, window types.Window, date time.Time, portfolio types.PortfolioSnapshot) (types.Signal, error)
}

// Func adapts a plain function to the Strategy interface.
type Func struct {
	StrategyName string
	Fn           func(ctx context.Context, window types.Window, date time.Time, portfolio types.PortfolioSnapshot) (types.Signal, error)
}

// Name implements Strategy.
func (f Func) Name() string {
	return f.StrategyName
}

// GenerateSignal implements Strategy.
func (f Func) GenerateSignal(ctx context.Context, window types.Window, date time.Time, portfolio types.PortfolioSnapshot) (types.Signal, error) {
	return f.Fn(ctx, window, date, portfolio)
}

// signal is a small helper shared by the built-in variants.
func signal(ticker string, date time.Time, action types.Action, confidence float64, reasoning string) types.Signal {
	sig := types.Signal{
		Date:       date,
		Ticker:     ticker,
		Action:     action,
		Confidence: confidence,
		Reasoning:  reasoning,
	}
	sig.Clamp()

	return sig
}
