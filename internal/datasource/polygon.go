package datasource

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"go.uber.org/zap"

	"github.com/quantagent/backtest/internal/logger"
	"github.com/quantagent/backtest/internal/types"
	"github.com/quantagent/backtest/pkg/errors"
)

// polygonDefaultLookbackYears applies when the caller gives no range;
// an unbounded aggs query is rejected by the API.
const polygonDefaultLookbackYears = 2

// Polygon fetches daily aggregates from the Polygon REST API.
type Polygon struct {
	client *polygon.Client
	log    *logger.Logger
}

// NewPolygon creates a Polygon-backed source.
func NewPolygon(apiKey string, log *logger.Logger) (*Polygon, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "polygon api key not set")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Polygon{
		client: polygon.New(apiKey),
		log:    log,
	}, nil
}

// Bars implements Source.
func (p *Polygon) Bars(ctx context.Context, ticker string, start, end optional.Option[time.Time]) (types.Window, error) {
	to := end.TakeOr(time.Now().UTC().Truncate(24 * time.Hour))
	from := start.TakeOr(to.AddDate(-polygonDefaultLookbackYears, 0, 0))

	params := models.ListAggsParams{
		Ticker:     ticker,
		From:       models.Millis(from),
		To:         models.Millis(to),
		Multiplier: 1,
		Timespan:   models.Day,
	}

	p.log.Debug("fetching daily aggregates",
		zap.String("ticker", ticker),
		zap.Time("from", from),
		zap.Time("to", to),
	)

	iter := p.client.ListAggs(ctx, &params)

	bars := make(types.Window, 0, 512)

	for iter.Next() {
		agg := iter.Item()

		bars = append(bars, types.PriceBar{
			Date:   time.Time(agg.Timestamp).UTC(),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}

	if err := iter.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataFetchFailed, err, "failed to fetch aggregates for %s", ticker)
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no bars for %s", ticker)
	}

	return bars, nil
}

// Close implements Source.
func (p *Polygon) Close() error {
	return nil
}
