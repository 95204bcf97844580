package portfolio

import (
	"math"

	"github.com/quantagent/backtest/internal/types"
)

// SizingPolicy translates a strategy signal into a sized order. The
// policy works in target exposure space: the signal names a desired
// fraction of total equity and the policy trades the difference.
type SizingPolicy struct {
	// ConfidenceThreshold suppresses any order for signals below it.
	ConfidenceThreshold float64 `yaml:"confidence_threshold" json:"confidence_threshold"`
	// MaxExposure caps the target fraction of equity in the instrument.
	MaxExposure float64 `yaml:"max_exposure" json:"max_exposure"`
}

// DefaultSizingPolicy returns the policy the engine uses unless the run
// config overrides it.
func DefaultSizingPolicy() SizingPolicy {
	return SizingPolicy{
		ConfidenceThreshold: 0.05,
		MaxExposure:         1.0,
	}
}

// Size converts a signal into an order quantity at the given price.
// It returns the side, the share count, and whether an order should be
// placed at all.
//
// When the signal carries no explicit target position, the default is
// targetPosition = confidence for buys (capped at MaxExposure), and a
// proportional reduction of the current exposure for sells, mirroring
// how much conviction the strategy has in exiting.
func (p SizingPolicy) Size(signal types.Signal, snapshot types.PortfolioSnapshot, price float64) (types.Side, int64, bool) {
	if price <= 0 || snapshot.Equity <= 0 {
		return "", 0, false
	}

	if signal.Action == types.ActionHold || signal.Confidence < p.ConfidenceThreshold {
		return "", 0, false
	}

	currentExposure := float64(snapshot.Holding(signal.Ticker).Shares) * price

	target := p.targetFraction(signal, currentExposure/snapshot.Equity)
	if target > p.MaxExposure {
		target = p.MaxExposure
	}

	delta := target*snapshot.Equity - currentExposure
	shares := int64(math.Floor(math.Abs(delta) / price))
	if shares == 0 {
		// A buy sized to zero shares is silently a no-op.
		return "", 0, false
	}

	if delta > 0 {
		return types.SideBuy, shares, true
	}

	if held := snapshot.Holding(signal.Ticker).Shares; shares > held {
		// Sell-all semantics: clamp an over-sized sell to the full
		// holding instead of rejecting it.
		shares = held
	}

	if shares == 0 {
		return "", 0, false
	}

	return types.SideSell, shares, true
}

func (p SizingPolicy) targetFraction(signal types.Signal, currentFraction float64) float64 {
	if signal.TargetPosition.IsSome() {
		return signal.TargetPosition.Unwrap()
	}

	if signal.Action == types.ActionSell {
		return currentFraction * (1 - signal.Confidence)
	}

	return signal.Confidence
}
