package strategy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/moznion/go-optional"

	"github.com/quantagent/backtest/internal/types"
	"github.com/quantagent/backtest/pkg/errors"
)

// Weighted pairs a child strategy with its vote weight in a mixed
// strategy. A zero weight means "use an equal share".
type Weighted struct {
	Strategy Strategy
	Weight   float64
}

// Mixed combines child strategies by weighted vote: the action with the
// most weight behind it wins, ties resolve to hold, and confidence and
// target position are the weighted averages of the children that voted
// for the winning action.
type Mixed struct {
	children []Weighted
}

// NewMixed creates a mixed strategy from the given children. Weights are
// normalized to sum to one; if every weight is zero the children share
// equally.
func NewMixed(children []Weighted) (*Mixed, error) {
	if len(children) == 0 {
		return nil, errors.New(errors.ErrCodeStrategyConfigError, "mixed strategy needs at least one child")
	}

	total := 0.0
	for _, child := range children {
		if child.Strategy == nil {
			return nil, errors.New(errors.ErrCodeStrategyConfigError, "mixed strategy child is nil")
		}
		if child.Weight < 0 {
			return nil, errors.Newf(errors.ErrCodeStrategyConfigError,
				"negative weight %.2f for child %q", child.Weight, child.Strategy.Name())
		}
		total += child.Weight
	}

	normalized := make([]Weighted, len(children))
	for i, child := range children {
		weight := 1.0 / float64(len(children))
		if total > 0 {
			weight = child.Weight / total
		}
		normalized[i] = Weighted{Strategy: child.Strategy, Weight: weight}
	}

	return &Mixed{children: normalized}, nil
}

// Name implements Strategy. The name lists the children so comparison
// output stays readable.
func (m *Mixed) Name() string {
	names := make([]string, len(m.children))
	for i, child := range m.children {
		names[i] = child.Strategy.Name()
	}

	return fmt.Sprintf("mixed(%s)", strings.Join(names, "+"))
}

// GenerateSignal implements Strategy.
func (m *Mixed) GenerateSignal(ctx context.Context, window types.Window, date time.Time, portfolio types.PortfolioSnapshot) (types.Signal, error) {
	type vote struct {
		signal types.Signal
		weight float64
	}

	votes := make(map[types.Action][]vote, 3)
	tally := make(map[types.Action]float64, 3)

	for _, child := range m.children {
		sig, err := child.Strategy.GenerateSignal(ctx, window, date, portfolio)
		if err != nil {
			return types.Signal{}, errors.Wrapf(errors.ErrCodeStrategyRuntimeError, err,
				"child strategy %s failed", child.Strategy.Name())
		}
		sig.Clamp()

		votes[sig.Action] = append(votes[sig.Action], vote{signal: sig, weight: child.Weight})
		tally[sig.Action] += child.Weight
	}

	winner := types.ActionHold
	best := tally[types.ActionHold]

	for _, action := range []types.Action{types.ActionBuy, types.ActionSell} {
		switch {
		case tally[action] > best:
			winner = action
			best = tally[action]
		case tally[action] == best && action != winner && tally[action] > 0:
			// A tie between distinct actions is no consensus.
			winner = types.ActionHold
		}
	}

	if winner == types.ActionHold {
		return types.HoldSignal("", date), nil
	}

	confidence := 0.0
	targetSum := 0.0
	targetWeight := 0.0
	reasons := make([]string, 0, len(votes[winner]))
	ticker := ""

	for _, v := range votes[winner] {
		share := v.weight / tally[winner]
		confidence += v.signal.Confidence * share
		if v.signal.TargetPosition.IsSome() {
			targetSum += v.signal.TargetPosition.TakeOr(0) * v.weight
			targetWeight += v.weight
		}
		if v.signal.Reasoning != "" {
			reasons = append(reasons, v.signal.Reasoning)
		}
		if ticker == "" {
			ticker = v.signal.Ticker
		}
	}

	sig := types.Signal{
		Date:       date,
		Ticker:     ticker,
		Action:     winner,
		Confidence: confidence,
		Reasoning:  strings.Join(reasons, "; "),
	}
	if targetWeight > 0 {
		sig.TargetPosition = optional.Some(targetSum / targetWeight)
	}
	sig.Clamp()

	return sig, nil
}
