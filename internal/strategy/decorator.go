package strategy

import (
	"context"
	"time"

	"github.com/quantagent/backtest/internal/advisor"
	"github.com/quantagent/backtest/internal/types"
)

// reparsed re-reads the reasoning text of every signal its inner
// strategy produces and lets the parsed verdict override the structured
// fields. This recovers signals from strategies whose structured output
// drifts from what their own reasoning says, without touching the inner
// strategy.
type reparsed struct {
	inner Strategy
}

// WithReparsedReasoning decorates a strategy so that any action,
// confidence, or target position stated in the signal's reasoning text
// replaces the structured fields. Signals with empty reasoning pass
// through unchanged.
func WithReparsedReasoning(inner Strategy) Strategy {
	return &reparsed{inner: inner}
}

// Name implements Strategy, passing the inner name through so results
// stay attributed to the wrapped strategy.
func (r *reparsed) Name() string {
	return r.inner.Name()
}

// GenerateSignal implements Strategy.
func (r *reparsed) GenerateSignal(ctx context.Context, window types.Window, date time.Time, portfolio types.PortfolioSnapshot) (types.Signal, error) {
	sig, err := r.inner.GenerateSignal(ctx, window, date, portfolio)
	if err != nil {
		return types.Signal{}, err
	}

	if sig.Reasoning == "" {
		return sig, nil
	}

	verdict := advisor.ParseVerdict(sig.Reasoning)
	sig.Action = verdict.Action
	sig.Confidence = verdict.Confidence
	if verdict.TargetPosition.IsSome() {
		sig.TargetPosition = verdict.TargetPosition
	}
	sig.Clamp()

	return sig, nil
}
