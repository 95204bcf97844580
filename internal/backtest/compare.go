package backtest

import (
	"context"
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quantagent/backtest/internal/logger"
	"github.com/quantagent/backtest/internal/strategy"
	"github.com/quantagent/backtest/internal/types"
	"github.com/quantagent/backtest/pkg/errors"
)

// Entrant names one strategy in a comparison.
type Entrant struct {
	Name     string
	Strategy strategy.Strategy
}

// StrategyOutcome is one strategy's row in a comparison. Exactly one of
// Result and Error is set: a failed run contributes its error text, not
// a failed batch.
type StrategyOutcome struct {
	Name string `json:"name"`
	// Result is nil when the run failed.
	Result *types.BacktestResult `json:"result,omitempty"`
	// Error holds the failure text for a failed run.
	Error string `json:"error,omitempty"`
	// Curve holds the strategy's equity aligned to Comparison.Dates;
	// dates the strategy has no point for stay None.
	Curve []optional.Option[float64] `json:"curve"`
}

// Comparison is the aligned outcome of racing several strategies over
// the same bars.
type Comparison struct {
	Ticker string `json:"ticker"`
	// Dates is the ascending union of every equity curve's dates.
	Dates    []time.Time       `json:"dates"`
	Outcomes []StrategyOutcome `json:"outcomes"`
}

// Comparator races strategies concurrently, one engine and one ledger
// per strategy, over a shared read-only bar slice.
type Comparator struct {
	config Config
	log    *logger.Logger
}

// NewComparator validates the config and returns a comparator.
func NewComparator(config Config, log *logger.Logger) (*Comparator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Comparator{
		config: config,
		log:    log,
	}, nil
}

// Compare runs every entrant over the bars and aligns the equity curves
// on the union of their dates, without interpolating missing points.
func (c *Comparator) Compare(ctx context.Context, entrants []Entrant, bars types.Window) (*Comparison, error) {
	if len(entrants) == 0 {
		return nil, errors.New(errors.ErrCodeBacktestNoStrategies, "no strategies to compare")
	}

	results := make([]*types.BacktestResult, len(entrants))
	failures := make([]error, len(entrants))

	g, runCtx := errgroup.WithContext(ctx)

	for i, entrant := range entrants {
		g.Go(func() error {
			engine, err := NewEngine(c.config, c.log)
			if err != nil {
				return err
			}

			result, err := engine.Run(runCtx, entrant.Strategy, bars)
			if err != nil {
				c.log.Warn("comparison entrant failed",
					zap.String("strategy", entrant.Name),
					zap.Error(err),
				)
				failures[i] = err

				return nil
			}

			results[i] = result

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestFailed, "comparison failed", err)
	}

	comparison := &Comparison{
		Ticker: c.config.Ticker,
		Dates:  unionDates(results),
	}

	for i, entrant := range entrants {
		outcome := StrategyOutcome{Name: entrant.Name}

		switch {
		case failures[i] != nil:
			outcome.Error = failures[i].Error()
			outcome.Curve = make([]optional.Option[float64], len(comparison.Dates))
		default:
			outcome.Result = results[i]
			outcome.Curve = projectCurve(results[i].EquityCurve, comparison.Dates)
		}

		comparison.Outcomes = append(comparison.Outcomes, outcome)
	}

	return comparison, nil
}

// unionDates merges the equity curve dates of every successful run into
// one ascending, de-duplicated slice.
func unionDates(results []*types.BacktestResult) []time.Time {
	seen := make(map[time.Time]struct{})
	dates := make([]time.Time, 0)

	for _, result := range results {
		if result == nil {
			continue
		}

		for _, point := range result.EquityCurve {
			if _, ok := seen[point.Date]; ok {
				continue
			}

			seen[point.Date] = struct{}{}
			dates = append(dates, point.Date)
		}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	return dates
}

// projectCurve places each equity point at its date in the aligned
// timeline. Dates with no point stay None rather than interpolated.
func projectCurve(curve []types.EquityPoint, dates []time.Time) []optional.Option[float64] {
	byDate := make(map[time.Time]float64, len(curve))
	for _, point := range curve {
		byDate[point.Date] = point.Value
	}

	aligned := make([]optional.Option[float64], len(dates))
	for i, date := range dates {
		if value, ok := byDate[date]; ok {
			aligned[i] = optional.Some(value)
		}
	}

	return aligned
}
