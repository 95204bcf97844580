package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/quantagent/backtest/internal/advisor"
	"github.com/quantagent/backtest/internal/types"
	"github.com/quantagent/backtest/pkg/errors"
)

type AdvisedTestSuite struct {
	suite.Suite
	window    types.Window
	date      time.Time
	portfolio types.PortfolioSnapshot
}

func TestAdvisedTestSuite(t *testing.T) {
	suite.Run(t, new(AdvisedTestSuite))
}

func (suite *AdvisedTestSuite) SetupTest() {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	suite.window = barsFromCloses(start, 100, 102, 101, 104, 103, 105, 107)
	suite.date = suite.window[len(suite.window)-1].Date
	suite.portfolio = types.PortfolioSnapshot{Cash: 10000, Equity: 10000}
}

func (suite *AdvisedTestSuite) TestParsesAdvisorText() {
	adv := advisor.AdvisorFunc(func(_ context.Context, req advisor.Request) (string, error) {
		suite.Equal("AAPL", req.Ticker)
		suite.Equal(107.0, req.Bar.Close)
		suite.Len(req.Recent, advisedRecentBars)

		return "Momentum looks strong, I would buy here. Confidence: 80%", nil
	})

	s, err := NewAdvised("analyst", "AAPL", adv)
	suite.Require().NoError(err)
	suite.Equal("analyst", s.Name())

	sig, err := s.GenerateSignal(context.Background(), suite.window, suite.date, suite.portfolio)
	suite.Require().NoError(err)
	suite.Equal(types.ActionBuy, sig.Action)
	suite.InDelta(0.8, sig.Confidence, 1e-9)
	suite.Contains(sig.Reasoning, "Momentum looks strong")
}

func (suite *AdvisedTestSuite) TestAdvisorErrorSurfaces() {
	adv := advisor.AdvisorFunc(func(_ context.Context, _ advisor.Request) (string, error) {
		return "", errors.New(errors.ErrCodeAdvisorUnavailable, "service down")
	})

	s, err := NewAdvised("", "AAPL", adv)
	suite.Require().NoError(err)
	suite.Equal("advised", s.Name())

	_, err = s.GenerateSignal(context.Background(), suite.window, suite.date, suite.portfolio)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeAdvisorUnavailable))
}

func (suite *AdvisedTestSuite) TestRejectsNilAdvisor() {
	_, err := NewAdvised("analyst", "AAPL", nil)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeAdvisorUnavailable))
}

func (suite *AdvisedTestSuite) TestReparsedOverridesStructuredFields() {
	inner := Func{
		StrategyName: "verbose",
		Fn: func(_ context.Context, _ types.Window, date time.Time, _ types.PortfolioSnapshot) (types.Signal, error) {
			sig := types.Signal{
				Date:       date,
				Ticker:     "AAPL",
				Action:     types.ActionHold,
				Confidence: 0.1,
				Reasoning:  "Clear breakdown ahead, sell. Confidence: 0.9, target position: 0.2",
			}
			sig.Clamp()

			return sig, nil
		},
	}

	s := WithReparsedReasoning(inner)
	suite.Equal("verbose", s.Name())

	sig, err := s.GenerateSignal(context.Background(), suite.window, suite.date, suite.portfolio)
	suite.Require().NoError(err)
	suite.Equal(types.ActionSell, sig.Action)
	suite.InDelta(0.9, sig.Confidence, 1e-9)
	suite.Require().True(sig.TargetPosition.IsSome())
	suite.InDelta(0.2, sig.TargetPosition.TakeOr(0), 1e-9)
}

func (suite *AdvisedTestSuite) TestReparsedPassesEmptyReasoningThrough() {
	inner := fixedSignal("quiet", types.ActionBuy, 0.7)
	s := WithReparsedReasoning(inner)

	sig, err := s.GenerateSignal(context.Background(), suite.window, suite.date, suite.portfolio)
	suite.Require().NoError(err)
	suite.Equal(types.ActionBuy, sig.Action)
	suite.InDelta(0.7, sig.Confidence, 1e-9)
}
