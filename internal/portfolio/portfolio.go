// Package portfolio implements the ledger that backs a backtest run: cash,
// positions, order application, and mark-to-market valuation. Rejected
// orders are normal simulation outcomes, not errors.
package portfolio

import (
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantagent/backtest/internal/logger"
	"github.com/quantagent/backtest/internal/types"
)

// Ledger holds the portfolio state owned by one engine run. Cash never
// goes negative: an order whose cost exceeds available cash is rejected
// whole, never partially filled. All money math runs on decimals so a
// run that never trades ends at exactly its initial capital.
type Ledger struct {
	cash       decimal.Decimal
	positions  map[string]position
	lastPrices map[string]float64
	log        *logger.Logger
}

// position keeps the cost basis in decimal to avoid drift across many
// weighted-average updates.
type position struct {
	shares  int64
	avgCost decimal.Decimal
}

// NewLedger creates a ledger holding only cash.
func NewLedger(initialCapital float64, log *logger.Logger) *Ledger {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Ledger{
		cash:       decimal.NewFromFloat(initialCapital),
		positions:  make(map[string]position),
		lastPrices: make(map[string]float64),
		log:        log,
	}
}

// ApplyOrder executes the order against the ledger. The boolean reports
// whether the order filled; a rejected order leaves the ledger untouched.
//
// Buys are rejected when shares*price exceeds cash. Sells are rejected
// when the order exceeds the current holding; the engine clamps sell
// orders before they reach the ledger, so a rejection here indicates a
// sizing bug rather than a normal outcome.
func (l *Ledger) ApplyOrder(order types.Order) (types.Trade, bool) {
	if order.Shares <= 0 || order.Price <= 0 {
		return types.Trade{}, false
	}

	price := decimal.NewFromFloat(order.Price)
	amount := price.Mul(decimal.NewFromInt(order.Shares))

	switch order.Side {
	case types.SideBuy:
		if amount.GreaterThan(l.cash) {
			l.log.Debug("buy order rejected: insufficient cash",
				zap.String("ticker", order.Ticker),
				zap.Int64("shares", order.Shares),
				zap.Float64("price", order.Price),
			)

			return types.Trade{}, false
		}

		l.cash = l.cash.Sub(amount)

		pos := l.positions[order.Ticker]
		oldValue := pos.avgCost.Mul(decimal.NewFromInt(pos.shares))
		newShares := pos.shares + order.Shares
		pos.avgCost = oldValue.Add(amount).Div(decimal.NewFromInt(newShares))
		pos.shares = newShares
		l.positions[order.Ticker] = pos

		return l.newTrade(order, optional.None[float64]()), true

	case types.SideSell:
		pos, held := l.positions[order.Ticker]
		if !held || order.Shares > pos.shares {
			l.log.Debug("sell order rejected: insufficient shares",
				zap.String("ticker", order.Ticker),
				zap.Int64("shares", order.Shares),
				zap.Int64("held", pos.shares),
			)

			return types.Trade{}, false
		}

		l.cash = l.cash.Add(amount)

		profit, _ := price.Sub(pos.avgCost).
			Mul(decimal.NewFromInt(order.Shares)).
			Float64()

		pos.shares -= order.Shares
		if pos.shares == 0 {
			// Closed positions carry no cost basis; drop the entry.
			delete(l.positions, order.Ticker)
		} else {
			l.positions[order.Ticker] = pos
		}

		return l.newTrade(order, optional.Some(profit)), true
	}

	return types.Trade{}, false
}

func (l *Ledger) newTrade(order types.Order, profit optional.Option[float64]) types.Trade {
	id := order.ID
	if id == "" {
		id = uuid.New().String()
	}

	return types.Trade{
		ID:             id,
		Date:           order.Date,
		Ticker:         order.Ticker,
		Side:           order.Side,
		Price:          order.Price,
		Shares:         order.Shares,
		RealizedProfit: profit,
	}
}

// MarkToMarket values the portfolio at the given per-ticker prices and
// returns total equity. The only mutation is caching each last-seen
// price for later snapshots.
func (l *Ledger) MarkToMarket(pricesByTicker map[string]float64) float64 {
	for ticker, price := range pricesByTicker {
		l.lastPrices[ticker] = price
	}

	equity := l.cash
	for ticker, pos := range l.positions {
		price, ok := l.lastPrices[ticker]
		if !ok {
			// No price seen yet; fall back to cost basis.
			price, _ = pos.avgCost.Float64()
		}

		equity = equity.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(pos.shares)))
	}

	value, _ := equity.Float64()

	return value
}

// Cash returns the uninvested cash balance.
func (l *Ledger) Cash() float64 {
	cash, _ := l.cash.Float64()
	return cash
}

// Shares returns the current holding for a ticker, zero when none.
func (l *Ledger) Shares(ticker string) int64 {
	return l.positions[ticker].shares
}

// Snapshot returns a read-only copy of the ledger state, valued at the
// last marked prices. Strategies receive this copy; mutating it has no
// effect on the run.
func (l *Ledger) Snapshot() types.PortfolioSnapshot {
	positions := make(map[string]types.Position, len(l.positions))
	for ticker, pos := range l.positions {
		avgCost, _ := pos.avgCost.Float64()
		positions[ticker] = types.Position{
			Ticker:  ticker,
			Shares:  pos.shares,
			AvgCost: avgCost,
		}
	}

	return types.PortfolioSnapshot{
		Cash:      l.Cash(),
		Positions: positions,
		Equity:    l.MarkToMarket(nil),
	}
}
