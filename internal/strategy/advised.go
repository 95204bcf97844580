package strategy

import (
	"context"
	"time"

	"github.com/quantagent/backtest/internal/advisor"
	"github.com/quantagent/backtest/internal/types"
	"github.com/quantagent/backtest/pkg/errors"
)

// advisedRecentBars is how much trailing context an advisor sees.
const advisedRecentBars = 5

// Advised wraps an external advisor as a strategy. Each day it sends the
// current bar plus a short trail of recent bars and parses the free-text
// verdict into a signal; the raw text is kept as the signal's reasoning.
type Advised struct {
	name    string
	ticker  string
	advisor advisor.Advisor
}

// NewAdvised creates a strategy backed by an external advisor.
func NewAdvised(name, ticker string, adv advisor.Advisor) (*Advised, error) {
	if adv == nil {
		return nil, errors.New(errors.ErrCodeAdvisorUnavailable, "advised strategy needs an advisor")
	}

	if name == "" {
		name = "advised"
	}

	return &Advised{
		name:    name,
		ticker:  ticker,
		advisor: adv,
	}, nil
}

// Name implements Strategy.
func (a *Advised) Name() string {
	return a.name
}

// GenerateSignal implements Strategy.
func (a *Advised) GenerateSignal(ctx context.Context, window types.Window, date time.Time, _ types.PortfolioSnapshot) (types.Signal, error) {
	bar, ok := window.Last()
	if !ok {
		return types.HoldSignal(a.ticker, date), nil
	}

	recent := window[:len(window)-1]
	if len(recent) > advisedRecentBars {
		recent = recent[len(recent)-advisedRecentBars:]
	}

	text, err := a.advisor.Advise(ctx, advisor.Request{
		Ticker: a.ticker,
		Date:   date,
		Bar:    bar,
		Recent: recent,
	})
	if err != nil {
		return types.Signal{}, errors.Wrap(errors.ErrCodeAdvisorUnavailable, "advisor call failed", err)
	}

	verdict := advisor.ParseVerdict(text)

	sig := types.Signal{
		Date:           date,
		Ticker:         a.ticker,
		Action:         verdict.Action,
		Confidence:     verdict.Confidence,
		TargetPosition: verdict.TargetPosition,
		Reasoning:      text,
	}
	sig.Clamp()

	return sig, nil
}
