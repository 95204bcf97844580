// Package metrics turns a finished run's equity curve and trade log into
// risk/return statistics. Everything here is a pure function of its
// inputs; nothing touches engine or ledger state.
package metrics

import (
	"math"

	"github.com/quantagent/backtest/internal/types"
)

// ProfitFactorSentinel is reported when a run has winning trades but no
// losing ones. A finite sentinel keeps the result JSON-serializable.
const ProfitFactorSentinel = 1e9

// tradingDaysPerYear annualizes daily return statistics.
const tradingDaysPerYear = 252

// Calculate computes the full metrics block for a run.
// dailyRiskFreeRate is the per-day risk-free rate used by the Sharpe
// ratio; pass 0 unless the caller supplies one.
func Calculate(equityCurve []types.EquityPoint, trades []types.Trade, initialCapital, dailyRiskFreeRate float64) types.Metrics {
	totalReturn := TotalReturn(equityCurve, initialCapital)

	return types.Metrics{
		TotalReturn:      totalReturn,
		AnnualizedReturn: AnnualizedReturn(equityCurve, totalReturn),
		MaxDrawdown:      MaxDrawdown(equityCurve),
		SharpeRatio:      SharpeRatio(equityCurve, dailyRiskFreeRate),
		WinRate:          WinRate(trades),
		ProfitFactor:     ProfitFactor(trades),
	}
}

// TotalReturn is (finalValue - initialCapital) / initialCapital.
func TotalReturn(equityCurve []types.EquityPoint, initialCapital float64) float64 {
	if len(equityCurve) == 0 || initialCapital <= 0 {
		return 0
	}

	return (equityCurve[len(equityCurve)-1].Value - initialCapital) / initialCapital
}

// AnnualizedReturn compounds the total return over the actual elapsed
// calendar days between the first and last equity point. Spans under one
// day fall back to the total return itself.
func AnnualizedReturn(equityCurve []types.EquityPoint, totalReturn float64) float64 {
	if len(equityCurve) < 2 {
		return totalReturn
	}

	span := equityCurve[len(equityCurve)-1].Date.Sub(equityCurve[0].Date).Hours() / 24
	if span < 1 {
		return totalReturn
	}

	return math.Pow(1+totalReturn, 365/span) - 1
}

// MaxDrawdown is the largest fractional decline from a running equity
// peak, expressed as a positive fraction.
func MaxDrawdown(equityCurve []types.EquityPoint) float64 {
	if len(equityCurve) == 0 {
		return 0
	}

	peak := equityCurve[0].Value
	maxDrawdown := 0.0

	for _, point := range equityCurve[1:] {
		if point.Value > peak {
			peak = point.Value
			continue
		}

		if peak > 0 {
			if drawdown := (peak - point.Value) / peak; drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}

// SharpeRatio is the annualized mean excess daily return divided by the
// daily return volatility. Zero-volatility runs report 0 rather than
// NaN or infinity.
func SharpeRatio(equityCurve []types.EquityPoint, dailyRiskFreeRate float64) float64 {
	returns := dailyReturns(equityCurve)
	if len(returns) == 0 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	stdDev := math.Sqrt(variance / float64(len(returns)))

	if stdDev == 0 {
		return 0
	}

	return (mean - dailyRiskFreeRate) / stdDev * math.Sqrt(tradingDaysPerYear)
}

// WinRate is the fraction of sell trades that realized a profit, 0 when
// the run never sold.
func WinRate(trades []types.Trade) float64 {
	sells := 0
	wins := 0

	for _, trade := range trades {
		if trade.RealizedProfit.IsNone() {
			continue
		}

		sells++
		if trade.RealizedProfit.Unwrap() > 0 {
			wins++
		}
	}

	if sells == 0 {
		return 0
	}

	return float64(wins) / float64(sells)
}

// ProfitFactor is gross realized gains over gross realized losses.
// Runs with no winning trades report 0; runs with wins but no losses
// report ProfitFactorSentinel.
func ProfitFactor(trades []types.Trade) float64 {
	grossProfit := 0.0
	grossLoss := 0.0

	for _, trade := range trades {
		if trade.RealizedProfit.IsNone() {
			continue
		}

		profit := trade.RealizedProfit.Unwrap()
		if profit > 0 {
			grossProfit += profit
		} else {
			grossLoss -= profit
		}
	}

	if grossProfit == 0 {
		return 0
	}

	if grossLoss == 0 {
		return ProfitFactorSentinel
	}

	return grossProfit / grossLoss
}

func dailyReturns(equityCurve []types.EquityPoint) []float64 {
	if len(equityCurve) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(equityCurve)-1)
	for i := 1; i < len(equityCurve); i++ {
		prev := equityCurve[i-1].Value
		if prev == 0 {
			continue
		}

		returns = append(returns, equityCurve[i].Value/prev-1)
	}

	return returns
}
