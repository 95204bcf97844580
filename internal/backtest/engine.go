package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quantagent/backtest/internal/logger"
	"github.com/quantagent/backtest/internal/metrics"
	"github.com/quantagent/backtest/internal/portfolio"
	"github.com/quantagent/backtest/internal/strategy"
	"github.com/quantagent/backtest/internal/types"
	"github.com/quantagent/backtest/pkg/errors"
)

// Engine replays a daily bar series through one strategy against a
// fresh portfolio ledger. An Engine is cheap; build one per run.
type Engine struct {
	config Config
	log    *logger.Logger
}

// NewEngine validates the config and returns an engine. A nil logger
// falls back to a no-op logger.
func NewEngine(config Config, log *logger.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Engine{
		config: config,
		log:    log,
	}, nil
}

// OnDayCallback reports day-loop progress: days consumed so far and the
// total day count.
type OnDayCallback func(current, total int)

// Run executes the backtest. Bars must be in ascending date order; the
// run consumes the bars inside the configured date range one day at a
// time and never shows the strategy a bar after the day under
// evaluation. ctx cancels the whole run; each strategy call additionally
// runs under the per-day timeout.
func (e *Engine) Run(ctx context.Context, strat strategy.Strategy, bars types.Window, onDay ...OnDayCallback) (*types.BacktestResult, error) {
	if strat == nil {
		return nil, errors.New(errors.ErrCodeBacktestNoStrategies, "no strategy provided")
	}

	bars = e.clip(bars)
	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no bars in range for %s", e.config.Ticker)
	}

	if err := checkAscending(bars); err != nil {
		return nil, err
	}

	e.log.Debug("starting backtest",
		zap.String("strategy", strat.Name()),
		zap.String("ticker", e.config.Ticker),
		zap.Int("bars", len(bars)),
		zap.Float64("initial_capital", e.config.InitialCapital),
	)

	ledger := portfolio.NewLedger(e.config.InitialCapital, e.log)
	sizing := e.config.sizing()

	equityCurve := make([]types.EquityPoint, 0, len(bars))
	trades := make([]types.Trade, 0)
	warnings := make([]types.Warning, 0)

	for i, bar := range bars {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeBacktestFailed, "backtest canceled", err)
		}

		prices := map[string]float64{e.config.Ticker: bar.Close}
		ledger.MarkToMarket(prices)

		window := bars[:i+1]
		snapshot := ledger.Snapshot()

		sig, warning := e.signalForDay(ctx, strat, window, bar.Date, snapshot)
		if warning != nil {
			warnings = append(warnings, *warning)
		}

		side, shares, ok := sizing.Size(sig, snapshot, bar.Close)
		if ok {
			order := types.Order{
				ID:     uuid.New().String(),
				Date:   bar.Date,
				Ticker: e.config.Ticker,
				Side:   side,
				Shares: shares,
				Price:  bar.Close,
			}

			trade, filled := ledger.ApplyOrder(order)
			if filled {
				trades = append(trades, trade)
			} else {
				warnings = append(warnings, types.Warning{
					Date: bar.Date,
					Message: fmt.Sprintf("order rejected: %s %d shares at %.2f",
						order.Side, order.Shares, order.Price),
				})
			}
		}

		equityCurve = append(equityCurve, types.EquityPoint{
			Date:  bar.Date,
			Value: ledger.MarkToMarket(prices),
		})

		for _, cb := range onDay {
			cb(i+1, len(bars))
		}
	}

	result := e.assemble(strat.Name(), bars, equityCurve, trades, warnings)

	e.log.Debug("backtest finished",
		zap.String("strategy", strat.Name()),
		zap.Float64("final_value", result.FinalValue),
		zap.Int("trades", len(result.Trades)),
		zap.Int("warnings", len(result.Warnings)),
	)

	return result, nil
}

// signalForDay runs one strategy call under the per-day timeout. An
// error or a timeout degrades to a hold with zero confidence plus a
// warning; the run keeps going.
func (e *Engine) signalForDay(ctx context.Context, strat strategy.Strategy, window types.Window, date time.Time, snapshot types.PortfolioSnapshot) (types.Signal, *types.Warning) {
	dayCtx, cancel := context.WithTimeout(ctx, e.config.dayTimeout())
	defer cancel()

	type outcome struct {
		sig types.Signal
		err error
	}

	done := make(chan outcome, 1)

	go func() {
		sig, err := strat.GenerateSignal(dayCtx, window, date, snapshot)
		done <- outcome{sig: sig, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			e.log.Warn("strategy error, holding",
				zap.String("strategy", strat.Name()),
				zap.Time("date", date),
				zap.Error(out.err),
			)

			return holdFallback(e.config.Ticker, date), &types.Warning{
				Date:    date,
				Message: fmt.Sprintf("strategy error, holding: %v", out.err),
			}
		}

		out.sig.Clamp()

		return out.sig, nil
	case <-dayCtx.Done():
		e.log.Warn("strategy timed out, holding",
			zap.String("strategy", strat.Name()),
			zap.Time("date", date),
		)

		return holdFallback(e.config.Ticker, date), &types.Warning{
			Date:    date,
			Message: "strategy timed out, holding",
		}
	}
}

// clip trims the bar slice to the configured date range.
func (e *Engine) clip(bars types.Window) types.Window {
	clipped := bars

	if e.config.StartDate.IsSome() {
		start := e.config.StartDate.TakeOr(time.Time{})
		for len(clipped) > 0 && clipped[0].Date.Before(start) {
			clipped = clipped[1:]
		}
	}

	if e.config.EndDate.IsSome() {
		end := e.config.EndDate.TakeOr(time.Time{})
		for len(clipped) > 0 && clipped[len(clipped)-1].Date.After(end) {
			clipped = clipped[:len(clipped)-1]
		}
	}

	return clipped
}

func (e *Engine) assemble(strategyName string, bars types.Window, equityCurve []types.EquityPoint, trades []types.Trade, warnings []types.Warning) *types.BacktestResult {
	m := metrics.Calculate(equityCurve, trades, e.config.InitialCapital, e.config.RiskFreeRate)

	return &types.BacktestResult{
		Ticker:            e.config.Ticker,
		StrategyName:      strategyName,
		StartDate:         bars[0].Date,
		EndDate:           bars[len(bars)-1].Date,
		InitialCapital:    e.config.InitialCapital,
		FinalValue:        equityCurve[len(equityCurve)-1].Value,
		Returns:           m.TotalReturn,
		AnnualizedReturns: m.AnnualizedReturn,
		MaxDrawdown:       m.MaxDrawdown,
		SharpeRatio:       m.SharpeRatio,
		EquityCurve:       equityCurve,
		Trades:            trades,
		Metrics:           m,
		Warnings:          warnings,
	}
}

func holdFallback(ticker string, date time.Time) types.Signal {
	sig := types.HoldSignal(ticker, date)
	sig.Confidence = 0

	return sig
}

func checkAscending(bars types.Window) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Date.After(bars[i-1].Date) {
			return errors.Newf(errors.ErrCodeInvalidConfiguration,
				"bars out of order at %s", bars[i].Date.Format(time.DateOnly))
		}
	}

	return nil
}
