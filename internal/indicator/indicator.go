// Package indicator provides the technical calculations consumed by the
// built-in strategies. All functions operate on a chronological slice of
// values ending at the current trading day, so callers that pass a
// no-lookahead window cannot accidentally peek ahead.
package indicator

import (
	"math"

	"github.com/quantagent/backtest/pkg/errors"
)

// SMA returns the simple moving average of the last period values.
func SMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "period must be positive, got %d", period)
	}

	if len(values) < period {
		return 0, errors.NewInsufficientDataError(period, len(values), "",
			"not enough values for SMA")
	}

	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}

	return sum / float64(period), nil
}

// EMA returns the exponential moving average of the values with the
// standard smoothing factor 2/(period+1), seeded with the SMA of the
// first period values.
func EMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "period must be positive, got %d", period)
	}

	if len(values) < period {
		return 0, errors.NewInsufficientDataError(period, len(values), "",
			"not enough values for EMA")
	}

	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}

	ema := seed / float64(period)
	k := 2.0 / float64(period+1)

	for _, v := range values[period:] {
		ema = v*k + ema*(1-k)
	}

	return ema, nil
}

// RSI returns the relative strength index over the last period price
// changes. With no losses in the lookback the RSI is 100.
func RSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "period must be positive, got %d", period)
	}

	if len(closes) < period+1 {
		return 0, errors.NewInsufficientDataError(period+1, len(closes), "",
			"not enough closes for RSI")
	}

	gains := 0.0
	losses := 0.0

	recent := closes[len(closes)-period-1:]
	for i := 1; i < len(recent); i++ {
		change := recent[i] - recent[i-1]
		if change >= 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	if losses == 0 {
		return 100, nil
	}

	rs := gains / losses

	return 100 - (100 / (1 + rs)), nil
}

// Bands holds one Bollinger band reading.
type Bands struct {
	Middle float64
	Upper  float64
	Lower  float64
}

// Bollinger returns the Bollinger bands over the last period closes with
// the given standard deviation multiplier.
func Bollinger(closes []float64, period int, stdDevs float64) (Bands, error) {
	middle, err := SMA(closes, period)
	if err != nil {
		return Bands{}, err
	}

	sd := stdDev(closes[len(closes)-period:], middle)

	return Bands{
		Middle: middle,
		Upper:  middle + stdDevs*sd,
		Lower:  middle - stdDevs*sd,
	}, nil
}

// Volatility returns the relative volatility of the last period values:
// the population standard deviation divided by the mean.
func Volatility(values []float64, period int) (float64, error) {
	mean, err := SMA(values, period)
	if err != nil {
		return 0, err
	}

	if mean == 0 {
		return 0, nil
	}

	return stdDev(values[len(values)-period:], mean) / mean, nil
}

// Highest returns the maximum of the last period values.
func Highest(values []float64, period int) (float64, error) {
	if len(values) < period || period <= 0 {
		return 0, errors.NewInsufficientDataError(period, len(values), "",
			"not enough values for highest")
	}

	highest := values[len(values)-period]
	for _, v := range values[len(values)-period:] {
		if v > highest {
			highest = v
		}
	}

	return highest, nil
}

// Lowest returns the minimum of the last period values.
func Lowest(values []float64, period int) (float64, error) {
	if len(values) < period || period <= 0 {
		return 0, errors.NewInsufficientDataError(period, len(values), "",
			"not enough values for lowest")
	}

	lowest := values[len(values)-period]
	for _, v := range values[len(values)-period:] {
		if v < lowest {
			lowest = v
		}
	}

	return lowest, nil
}

func stdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(values)))
}
