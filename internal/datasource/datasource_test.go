package datasource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/quantagent/backtest/pkg/errors"
)

type SyntheticTestSuite struct {
	suite.Suite
	source *Synthetic
	start  time.Time
	end    time.Time
}

func TestSyntheticTestSuite(t *testing.T) {
	suite.Run(t, new(SyntheticTestSuite))
}

func (suite *SyntheticTestSuite) SetupTest() {
	suite.source = NewSynthetic()
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.end = time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
}

func (suite *SyntheticTestSuite) TestDeterministicPerTicker() {
	first, err := suite.source.Bars(context.Background(), "AAPL",
		optional.Some(suite.start), optional.Some(suite.end))
	suite.Require().NoError(err)

	second, err := suite.source.Bars(context.Background(), "AAPL",
		optional.Some(suite.start), optional.Some(suite.end))
	suite.Require().NoError(err)

	suite.Equal(first, second)

	other, err := suite.source.Bars(context.Background(), "MSFT",
		optional.Some(suite.start), optional.Some(suite.end))
	suite.Require().NoError(err)
	suite.NotEqual(first[len(first)-1].Close, other[len(other)-1].Close)
}

func (suite *SyntheticTestSuite) TestSkipsWeekends() {
	bars, err := suite.source.Bars(context.Background(), "AAPL",
		optional.Some(suite.start), optional.Some(suite.end))
	suite.Require().NoError(err)
	suite.NotEmpty(bars)

	for _, bar := range bars {
		suite.NotEqual(time.Saturday, bar.Date.Weekday())
		suite.NotEqual(time.Sunday, bar.Date.Weekday())
	}

	for i := 1; i < len(bars); i++ {
		suite.True(bars[i].Date.After(bars[i-1].Date))
	}
}

func (suite *SyntheticTestSuite) TestBarShape() {
	bars, err := suite.source.Bars(context.Background(), "AAPL",
		optional.Some(suite.start), optional.Some(suite.end))
	suite.Require().NoError(err)

	for _, bar := range bars {
		suite.GreaterOrEqual(bar.High, bar.Open)
		suite.GreaterOrEqual(bar.High, bar.Close)
		suite.LessOrEqual(bar.Low, bar.Open)
		suite.LessOrEqual(bar.Low, bar.Close)
		suite.Greater(bar.Close, 0.0)
	}
}

func (suite *SyntheticTestSuite) TestRequiresRange() {
	_, err := suite.source.Bars(context.Background(), "AAPL",
		optional.None[time.Time](), optional.Some(suite.end))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidDateRange))
}

func (suite *SyntheticTestSuite) TestFundamentalsStableAndBounded() {
	first := suite.source.Fundamentals("AAPL")
	second := suite.source.Fundamentals("AAPL")
	suite.Equal(first, second)

	suite.GreaterOrEqual(first.PERatio, 10.0)
	suite.LessOrEqual(first.PERatio, 35.0)
	suite.GreaterOrEqual(first.PBRatio, 0.5)
	suite.LessOrEqual(first.PBRatio, 6.5)
}

func (suite *SyntheticTestSuite) TestNewsSortedAndBounded() {
	news := suite.source.News("AAPL", suite.start, suite.end)
	suite.NotEmpty(news)

	for i, item := range news {
		suite.GreaterOrEqual(item.Sentiment, -1.0)
		suite.LessOrEqual(item.Sentiment, 1.0)
		suite.False(item.Date.Before(suite.start))
		suite.False(item.Date.After(suite.end))
		suite.NotEmpty(item.Headline)

		if i > 0 {
			suite.False(item.Date.Before(news[i-1].Date))
		}
	}
}

type CSVTestSuite struct {
	suite.Suite
	path string
}

func TestCSVTestSuite(t *testing.T) {
	suite.Run(t, new(CSVTestSuite))
}

func (suite *CSVTestSuite) SetupTest() {
	suite.path = filepath.Join(suite.T().TempDir(), "bars.csv")

	content := `ticker,date,open,high,low,close,volume
AAPL,2024-01-03,100,106,99,105,1200
AAPL,2024-01-02,99,101,98,100,1000
AAPL,2024-01-04,105,111,104,110,1500
MSFT,2024-01-02,300,305,299,304,2000
`

	err := os.WriteFile(suite.path, []byte(content), 0o644)
	suite.Require().NoError(err)
}

func (suite *CSVTestSuite) TestReadsAndSortsTickerRows() {
	source := NewCSV(suite.path)
	defer source.Close()

	bars, err := source.Bars(context.Background(), "AAPL",
		optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Len(bars, 3)

	suite.Equal(100.0, bars[0].Close)
	suite.Equal(105.0, bars[1].Close)
	suite.Equal(110.0, bars[2].Close)
}

func (suite *CSVTestSuite) TestRangeFilter() {
	source := NewCSV(suite.path)
	defer source.Close()

	start := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	bars, err := source.Bars(context.Background(), "AAPL",
		optional.Some(start), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Len(bars, 2)
	suite.Equal(105.0, bars[0].Close)
}

func (suite *CSVTestSuite) TestUnknownTicker() {
	source := NewCSV(suite.path)
	defer source.Close()

	_, err := source.Bars(context.Background(), "TSLA",
		optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoDataFound))
}

func (suite *CSVTestSuite) TestMissingFile() {
	source := NewCSV(filepath.Join(suite.T().TempDir(), "missing.csv"))
	defer source.Close()

	_, err := source.Bars(context.Background(), "AAPL",
		optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))
}
