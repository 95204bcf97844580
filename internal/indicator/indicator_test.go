package indicator

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/quantagent/backtest/pkg/errors"
)

type IndicatorTestSuite struct {
	suite.Suite
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

func (suite *IndicatorTestSuite) TestSMA() {
	tests := []struct {
		name        string
		values      []float64
		period      int
		expected    float64
		expectError bool
	}{
		{
			name:     "Exact window",
			values:   []float64{1, 2, 3, 4, 5},
			period:   5,
			expected: 3,
		},
		{
			name:     "Uses only the tail",
			values:   []float64{100, 100, 2, 4, 6},
			period:   3,
			expected: 4,
		},
		{
			name:        "Insufficient data",
			values:      []float64{1, 2},
			period:      3,
			expectError: true,
		},
		{
			name:        "Non-positive period",
			values:      []float64{1, 2, 3},
			period:      0,
			expectError: true,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			result, err := SMA(tt.values, tt.period)
			if tt.expectError {
				suite.Error(err)
				return
			}
			suite.NoError(err)
			suite.InDelta(tt.expected, result, 1e-9)
		})
	}
}

func (suite *IndicatorTestSuite) TestSMAInsufficientDataError() {
	_, err := SMA([]float64{1, 2}, 10)
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *IndicatorTestSuite) TestEMA() {
	// Seeded with SMA(3) = 2, k = 0.5: 2 -> 4*0.5+2*0.5 = 3 -> 5*0.5+3*0.5 = 4
	result, err := EMA([]float64{1, 2, 3, 4, 5}, 3)
	suite.NoError(err)
	suite.InDelta(4.0, result, 1e-9)
}

func (suite *IndicatorTestSuite) TestRSI() {
	tests := []struct {
		name     string
		closes   []float64
		period   int
		expected float64
	}{
		{
			name:     "All gains is 100",
			closes:   []float64{1, 2, 3, 4, 5},
			period:   4,
			expected: 100,
		},
		{
			name: "Equal gains and losses is 50",
			// changes: +1, -1, +1, -1
			closes:   []float64{10, 11, 10, 11, 10},
			period:   4,
			expected: 50,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			result, err := RSI(tt.closes, tt.period)
			suite.NoError(err)
			suite.InDelta(tt.expected, result, 1e-9)
		})
	}
}

func (suite *IndicatorTestSuite) TestBollinger() {
	// Constant series: zero deviation, all bands collapse to the mean.
	bands, err := Bollinger([]float64{10, 10, 10, 10}, 4, 2)
	suite.NoError(err)
	suite.Equal(10.0, bands.Middle)
	suite.Equal(10.0, bands.Upper)
	suite.Equal(10.0, bands.Lower)

	// Values {9, 11} around mean 10 with population stddev 1.
	bands, err = Bollinger([]float64{9, 11}, 2, 2)
	suite.NoError(err)
	suite.InDelta(10.0, bands.Middle, 1e-9)
	suite.InDelta(12.0, bands.Upper, 1e-9)
	suite.InDelta(8.0, bands.Lower, 1e-9)
}

func (suite *IndicatorTestSuite) TestVolatility() {
	vol, err := Volatility([]float64{10, 10, 10}, 3)
	suite.NoError(err)
	suite.Equal(0.0, vol)

	vol, err = Volatility([]float64{9, 11}, 2)
	suite.NoError(err)
	suite.InDelta(0.1, vol, 1e-9)
}

func (suite *IndicatorTestSuite) TestHighestLowest() {
	values := []float64{5, 9, 2, 7, 4}

	high, err := Highest(values, 3)
	suite.NoError(err)
	suite.Equal(7.0, high)

	low, err := Lowest(values, 3)
	suite.NoError(err)
	suite.Equal(2.0, low)

	_, err = Highest(values, 10)
	suite.Error(err)
}
