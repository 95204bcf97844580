package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/quantagent/backtest/internal/strategy"
	"github.com/quantagent/backtest/internal/types"
	"github.com/quantagent/backtest/pkg/errors"
)

type CompareTestSuite struct {
	suite.Suite
	start  time.Time
	config Config
	bars   types.Window
}

func TestCompareTestSuite(t *testing.T) {
	suite.Run(t, new(CompareTestSuite))
}

func (suite *CompareTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	suite.config = Config{
		Ticker:         "AAPL",
		InitialCapital: 10000,
	}
	suite.bars = barsFromCloses(suite.start, 100, 102, 104, 103, 106, 108, 107, 110, 112, 115)
}

func (suite *CompareTestSuite) TestTwoStrategiesAligned() {
	comparator, err := NewComparator(suite.config, nil)
	suite.Require().NoError(err)

	comparison, err := comparator.Compare(context.Background(), []Entrant{
		{Name: "buyAndHold", Strategy: buyOnceAt(1.0)},
		{Name: "alwaysHold", Strategy: alwaysHold},
	}, suite.bars)
	suite.Require().NoError(err)

	suite.Equal("AAPL", comparison.Ticker)
	suite.Require().Len(comparison.Dates, 10)
	suite.Require().Len(comparison.Outcomes, 2)

	for i := 1; i < len(comparison.Dates); i++ {
		suite.True(comparison.Dates[i].After(comparison.Dates[i-1]))
	}

	for _, outcome := range comparison.Outcomes {
		suite.Require().NotNil(outcome.Result, outcome.Name)
		suite.Empty(outcome.Error)
		suite.Require().Len(outcome.Curve, 10)

		for _, value := range outcome.Curve {
			suite.True(value.IsSome())
		}
	}

	// Shared bars mean shared dates, so both curves stay on one axis.
	hold := comparison.Outcomes[1]
	for _, value := range hold.Curve {
		suite.InDelta(10000, value.TakeOr(0), 1e-9)
	}
}

func (suite *CompareTestSuite) TestFailedEntrantDoesNotFailBatch() {
	exploding := strategy.Func{
		StrategyName: "exploding",
		Fn: func(_ context.Context, _ types.Window, _ time.Time, _ types.PortfolioSnapshot) (types.Signal, error) {
			return types.Signal{}, errors.New(errors.ErrCodeStrategyRuntimeError, "boom")
		},
	}

	// A nil strategy makes the run itself fail rather than fall back to
	// holds, which is what exercises the per-entrant error note.
	comparator, err := NewComparator(suite.config, nil)
	suite.Require().NoError(err)

	comparison, err := comparator.Compare(context.Background(), []Entrant{
		{Name: "alwaysHold", Strategy: alwaysHold},
		{Name: "nilStrategy", Strategy: nil},
		{Name: "exploding", Strategy: exploding},
	}, suite.bars)
	suite.Require().NoError(err)
	suite.Require().Len(comparison.Outcomes, 3)

	good := comparison.Outcomes[0]
	suite.NotNil(good.Result)
	suite.Empty(good.Error)

	failed := comparison.Outcomes[1]
	suite.Nil(failed.Result)
	suite.NotEmpty(failed.Error)
	suite.Len(failed.Curve, len(comparison.Dates))

	// Strategy errors degrade to holds inside the run, so the entrant
	// still produces a result, just with warnings.
	degraded := comparison.Outcomes[2]
	suite.Require().NotNil(degraded.Result)
	suite.NotEmpty(degraded.Result.Warnings)
}

func (suite *CompareTestSuite) TestNoEntrants() {
	comparator, err := NewComparator(suite.config, nil)
	suite.Require().NoError(err)

	_, err = comparator.Compare(context.Background(), nil, suite.bars)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestNoStrategies))
}
