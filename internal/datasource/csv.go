package datasource

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/moznion/go-optional"

	"github.com/quantagent/backtest/internal/types"
	"github.com/quantagent/backtest/pkg/errors"
)

// csvBar is the on-disk row shape. Dates are plain YYYY-MM-DD strings.
type csvBar struct {
	Ticker string  `csv:"ticker"`
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

// CSV reads daily bars from a CSV file. The file is parsed once and
// cached for the source's lifetime.
type CSV struct {
	path  string
	cache []csvBar
}

// NewCSV creates a CSV-backed source for the given file path.
func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

// Bars implements Source.
func (c *CSV) Bars(ctx context.Context, ticker string, start, end optional.Option[time.Time]) (types.Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := c.load(); err != nil {
		return nil, err
	}

	bars := make(types.Window, 0, len(c.cache))

	for _, row := range c.cache {
		if row.Ticker != "" && row.Ticker != ticker {
			continue
		}

		date, err := time.Parse(time.DateOnly, row.Date)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeDataParseFailed, err, "bad date %q in %s", row.Date, c.path)
		}

		if !inRange(date, start, end) {
			continue
		}

		bars = append(bars, types.PriceBar{
			Date:   date,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no bars for %s in %s", ticker, c.path)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	return bars, nil
}

// Close implements Source.
func (c *CSV) Close() error {
	c.cache = nil

	return nil
}

func (c *CSV) load() error {
	if c.cache != nil {
		return nil
	}

	file, err := os.Open(c.path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open %s", c.path)
	}
	defer file.Close()

	if err := gocsv.UnmarshalFile(file, &c.cache); err != nil {
		return errors.Wrapf(errors.ErrCodeDataParseFailed, err, "failed to parse %s", c.path)
	}

	return nil
}

func inRange(date time.Time, start, end optional.Option[time.Time]) bool {
	if start.IsSome() && date.Before(start.TakeOr(time.Time{})) {
		return false
	}

	if end.IsSome() && date.After(end.TakeOr(time.Time{})) {
		return false
	}

	return true
}
