package datasource

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/moznion/go-optional"

	"github.com/quantagent/backtest/internal/types"
	"github.com/quantagent/backtest/pkg/errors"
)

// Synthetic generates deterministic daily bars, fundamentals, and news
// for a ticker. The ticker's characters seed the series, so the same
// ticker always produces the same data and different tickers diverge.
// Weekends are skipped; prices never fall below 0.10.
type Synthetic struct {
	// InitialPrice is the first close. Zero means 100.
	InitialPrice float64
	// Volatility scales the daily swing. Zero means 0.015.
	Volatility float64
	// Trend is the per-day drift. Zero means 0.0002.
	Trend float64
}

// NewSynthetic creates a generator with the default parameters.
func NewSynthetic() *Synthetic {
	return &Synthetic{
		InitialPrice: 100,
		Volatility:   0.015,
		Trend:        0.0002,
	}
}

// Bars implements Source. Both range bounds are required: a synthetic
// series has no natural first or last day.
func (s *Synthetic) Bars(ctx context.Context, ticker string, start, end optional.Option[time.Time]) (types.Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if start.IsNone() || end.IsNone() {
		return nil, errors.New(errors.ErrCodeInvalidDateRange, "synthetic source needs an explicit date range")
	}

	from := start.TakeOr(time.Time{})
	to := end.TakeOr(time.Time{})

	if to.Before(from) {
		return nil, errors.Newf(errors.ErrCodeInvalidDateRange,
			"end %s before start %s", to.Format(time.DateOnly), from.Format(time.DateOnly))
	}

	seed := tickerSeed(ticker)
	price := s.initialPrice()
	volatility := s.volatility()

	bars := make(types.Window, 0)

	for i, date := 0, from; !date.After(to); i, date = i+1, date.AddDate(0, 0, 1) {
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}

		dailyReturn := math.Sin(float64(seed+i)/1000)*volatility + s.trend()

		open := price
		price *= 1 + dailyReturn

		if price < 0.1 {
			price = 0.1
		}

		high := math.Max(open, price) * (1 + volatility/2)
		low := math.Min(open, price) * (1 - volatility/2)

		bars = append(bars, types.PriceBar{
			Date:   date,
			Open:   round4(open),
			High:   round4(high),
			Low:    round4(low),
			Close:  round4(price),
			Volume: float64(1_000_000 + (seed+i)%500_000),
		})
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no trading days between %s and %s",
			from.Format(time.DateOnly), to.Format(time.DateOnly))
	}

	return bars, nil
}

// Fundamentals returns the ticker's deterministic financial snapshot.
func (s *Synthetic) Fundamentals(ticker string) types.FinancialSnapshot {
	seed := tickerSeed(ticker)
	sr := func(offset int) float64 {
		return float64((seed+offset)%100) / 100
	}

	return types.FinancialSnapshot{
		PERatio:       round2(10 + sr(1)*25),
		PBRatio:       round2(0.5 + sr(2)*6),
		DividendYield: round4(sr(3) * 0.06),
		EPSGrowth:     round4((sr(4) - 0.3) * 0.4),
		ProfitMargin:  round4(0.05 + sr(5)*0.25),
		CurrentRatio:  round2(1 + sr(6)*3),
		DebtToEquity:  round2(sr(7) * 2),
		RevenueGrowth: round4((sr(9) - 0.2) * 0.5),
	}
}

// News returns a deterministic feed of roughly one item per week inside
// the range, sorted by date.
func (s *Synthetic) News(ticker string, from, to time.Time) []types.NewsItem {
	if to.Before(from) {
		return nil
	}

	seed := tickerSeed(ticker)
	days := int(to.Sub(from).Hours()/24) + 1
	count := days/7 + 2

	items := make([]types.NewsItem, 0, count)

	for i := 0; i < count; i++ {
		offset := (seed*7 + i*days/count) % days
		sentiment := float64(seed%7+i)/10 + float64((seed+i*13)%100)/100 - 0.8

		if sentiment > 1 {
			sentiment = 1
		}

		if sentiment < -1 {
			sentiment = -1
		}

		items = append(items, types.NewsItem{
			Date:      from.AddDate(0, 0, offset),
			Headline:  headline(ticker, sentiment),
			Sentiment: round2(sentiment),
		})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Date.Before(items[j].Date) })

	return items
}

// Close implements Source.
func (s *Synthetic) Close() error {
	return nil
}

func (s *Synthetic) initialPrice() float64 {
	if s.InitialPrice <= 0 {
		return 100
	}

	return s.InitialPrice
}

func (s *Synthetic) volatility() float64 {
	if s.Volatility <= 0 {
		return 0.015
	}

	return s.Volatility
}

func (s *Synthetic) trend() float64 {
	if s.Trend == 0 {
		return 0.0002
	}

	return s.Trend
}

// tickerSeed folds the ticker's bytes into a stable seed.
func tickerSeed(ticker string) int {
	seed := 0
	for _, ch := range ticker {
		seed += int(ch)
	}

	return seed
}

func headline(ticker string, sentiment float64) string {
	switch {
	case sentiment > 0.3:
		return fmt.Sprintf("%s beats expectations, shares rally", ticker)
	case sentiment < -0.3:
		return fmt.Sprintf("%s under pressure after weak guidance", ticker)
	default:
		return fmt.Sprintf("%s trades sideways as investors weigh outlook", ticker)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
