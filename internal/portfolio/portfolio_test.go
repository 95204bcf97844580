package portfolio

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/quantagent/backtest/internal/types"
)

type LedgerTestSuite struct {
	suite.Suite
	ledger *Ledger
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func (suite *LedgerTestSuite) SetupTest() {
	suite.ledger = NewLedger(10000, nil)
}

func (suite *LedgerTestSuite) order(side types.Side, shares int64, price float64) types.Order {
	return types.Order{
		ID:     uuid.New().String(),
		Date:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Ticker: "AAPL",
		Side:   side,
		Shares: shares,
		Price:  price,
	}
}

func (suite *LedgerTestSuite) TestBuyUpdatesCashAndPosition() {
	trade, ok := suite.ledger.ApplyOrder(suite.order(types.SideBuy, 50, 100))
	suite.True(ok)
	suite.Equal(int64(50), trade.Shares)
	suite.True(trade.RealizedProfit.IsNone())
	suite.Equal(5000.0, suite.ledger.Cash())
	suite.Equal(int64(50), suite.ledger.Shares("AAPL"))
}

func (suite *LedgerTestSuite) TestBuyRejectedWhenCostExceedsCash() {
	_, ok := suite.ledger.ApplyOrder(suite.order(types.SideBuy, 200, 100))
	suite.False(ok)

	// Rejected orders leave the ledger untouched.
	suite.Equal(10000.0, suite.ledger.Cash())
	suite.Equal(int64(0), suite.ledger.Shares("AAPL"))
}

func (suite *LedgerTestSuite) TestWeightedAverageCost() {
	suite.ledger.ApplyOrder(suite.order(types.SideBuy, 10, 100))
	suite.ledger.ApplyOrder(suite.order(types.SideBuy, 10, 110))

	snapshot := suite.ledger.Snapshot()
	suite.InDelta(105.0, snapshot.Positions["AAPL"].AvgCost, 1e-9)
	suite.Equal(int64(20), snapshot.Positions["AAPL"].Shares)
}

func (suite *LedgerTestSuite) TestSellRealizesProfitAgainstAvgCost() {
	suite.ledger.ApplyOrder(suite.order(types.SideBuy, 50, 100))

	trade, ok := suite.ledger.ApplyOrder(suite.order(types.SideSell, 20, 110))
	suite.True(ok)
	suite.True(trade.RealizedProfit.IsSome())
	suite.InDelta(200.0, trade.RealizedProfit.Unwrap(), 1e-9)
	suite.Equal(int64(30), suite.ledger.Shares("AAPL"))
}

func (suite *LedgerTestSuite) TestFullSellRemovesPosition() {
	suite.ledger.ApplyOrder(suite.order(types.SideBuy, 50, 100))
	suite.ledger.ApplyOrder(suite.order(types.SideSell, 50, 110))

	snapshot := suite.ledger.Snapshot()
	suite.Empty(snapshot.Positions)
	suite.InDelta(10500.0, snapshot.Cash, 1e-9)
}

func (suite *LedgerTestSuite) TestSellRejectedBeyondHolding() {
	suite.ledger.ApplyOrder(suite.order(types.SideBuy, 10, 100))

	_, ok := suite.ledger.ApplyOrder(suite.order(types.SideSell, 20, 100))
	suite.False(ok)
	suite.Equal(int64(10), suite.ledger.Shares("AAPL"))
}

func (suite *LedgerTestSuite) TestMarkToMarket() {
	suite.ledger.ApplyOrder(suite.order(types.SideBuy, 50, 100))

	equity := suite.ledger.MarkToMarket(map[string]float64{"AAPL": 105})
	suite.InDelta(10250.0, equity, 1e-9)

	// Cached price carries into snapshots.
	snapshot := suite.ledger.Snapshot()
	suite.InDelta(10250.0, snapshot.Equity, 1e-9)
}

func (suite *LedgerTestSuite) TestNoTradesExactCapital() {
	equity := suite.ledger.MarkToMarket(map[string]float64{"AAPL": 123.45})
	suite.Equal(10000.0, equity)
	suite.Equal(10000.0, suite.ledger.Cash())
}

func withTarget(sig types.Signal, target float64) types.Signal {
	sig.TargetPosition = optional.Some(target)
	return sig
}

type SizingTestSuite struct {
	suite.Suite
	policy SizingPolicy
}

func TestSizingSuite(t *testing.T) {
	suite.Run(t, new(SizingTestSuite))
}

func (suite *SizingTestSuite) SetupTest() {
	suite.policy = DefaultSizingPolicy()
}

func (suite *SizingTestSuite) snapshot(cash float64, shares int64, price float64) types.PortfolioSnapshot {
	positions := map[string]types.Position{}
	if shares > 0 {
		positions["AAPL"] = types.Position{Ticker: "AAPL", Shares: shares, AvgCost: price}
	}

	return types.PortfolioSnapshot{
		Cash:      cash,
		Positions: positions,
		Equity:    cash + float64(shares)*price,
	}
}

func (suite *SizingTestSuite) TestHoldSuppressesOrder() {
	sig := types.Signal{Ticker: "AAPL", Action: types.ActionHold, Confidence: 1}
	_, _, ok := suite.policy.Size(sig, suite.snapshot(10000, 0, 100), 100)
	suite.False(ok)
}

func (suite *SizingTestSuite) TestLowConfidenceSuppressesOrder() {
	sig := types.Signal{Ticker: "AAPL", Action: types.ActionBuy, Confidence: 0.01}
	_, _, ok := suite.policy.Size(sig, suite.snapshot(10000, 0, 100), 100)
	suite.False(ok)
}

func (suite *SizingTestSuite) TestBuySizedFromConfidence() {
	sig := types.Signal{Ticker: "AAPL", Action: types.ActionBuy, Confidence: 0.5}
	side, shares, ok := suite.policy.Size(sig, suite.snapshot(10000, 0, 100), 100)
	suite.True(ok)
	suite.Equal(types.SideBuy, side)
	// 0.5 * 10000 / 100 = 50 shares
	suite.Equal(int64(50), shares)
}

func (suite *SizingTestSuite) TestBuyRoundsDownToZeroIsNoOp() {
	sig := types.Signal{Ticker: "AAPL", Action: types.ActionBuy, Confidence: 0.5}
	_, _, ok := suite.policy.Size(sig, suite.snapshot(10, 0, 100), 100)
	suite.False(ok)
}

func (suite *SizingTestSuite) TestSellClampsToHolding() {
	sig := types.Signal{Ticker: "AAPL", Action: types.ActionSell, Confidence: 1}
	side, shares, ok := suite.policy.Size(sig, suite.snapshot(0, 30, 100), 100)
	suite.True(ok)
	suite.Equal(types.SideSell, side)
	suite.Equal(int64(30), shares)
}

func (suite *SizingTestSuite) TestExplicitTargetPositionTradesDelta() {
	sig := withTarget(types.Signal{Ticker: "AAPL", Action: types.ActionBuy, Confidence: 1}, 0.25)

	// Equity 10000, current exposure 0 -> want 2500 -> 25 shares at 100.
	side, shares, ok := suite.policy.Size(sig, suite.snapshot(10000, 0, 100), 100)
	suite.True(ok)
	suite.Equal(types.SideBuy, side)
	suite.Equal(int64(25), shares)
}

func (suite *SizingTestSuite) TestTargetBelowCurrentExposureSells() {
	sig := withTarget(types.Signal{Ticker: "AAPL", Action: types.ActionSell, Confidence: 1}, 0.2)

	// Equity 10000 with 50 shares at 100 (exposure 0.5); target 0.2 -> sell 30.
	side, shares, ok := suite.policy.Size(sig, suite.snapshot(5000, 50, 100), 100)
	suite.True(ok)
	suite.Equal(types.SideSell, side)
	suite.Equal(int64(30), shares)
}
