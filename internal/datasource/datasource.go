// Package datasource loads daily price bars from the supported backends:
// CSV files, DuckDB-backed Parquet files, the Polygon REST API, and a
// deterministic synthetic generator for tests and offline runs.
package datasource

import (
	"context"
	"time"

	"github.com/moznion/go-optional"

	"github.com/quantagent/backtest/internal/types"
)

// Source yields the daily bar series a backtest consumes.
type Source interface {
	// Bars returns the ticker's daily bars inside the optional date
	// range, in ascending date order.
	Bars(ctx context.Context, ticker string, start, end optional.Option[time.Time]) (types.Window, error)
	// Close releases any resources held by the source.
	Close() error
}
