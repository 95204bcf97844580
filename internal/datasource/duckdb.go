package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/quantagent/backtest/internal/logger"
	"github.com/quantagent/backtest/internal/types"
	"github.com/quantagent/backtest/pkg/errors"
)

// DuckDB reads daily bars from a Parquet file through an in-memory
// DuckDB view named price_bars.
type DuckDB struct {
	db  *sql.DB
	log *logger.Logger
	sq  squirrel.StatementBuilderType
}

// NewDuckDB opens an in-memory DuckDB instance and exposes the Parquet
// file at path as a view. The file must carry ticker, date and OHLCV
// columns.
func NewDuckDB(path string, log *logger.Logger) (*DuckDB, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open DuckDB", err)
	}

	query := fmt.Sprintf(`
		CREATE VIEW price_bars AS
		SELECT * FROM read_parquet('%s');
	`, path)

	if _, err := db.Exec(query); err != nil {
		db.Close()

		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to read %s", path)
	}

	log.Debug("DuckDB data source ready", zap.String("path", path))

	return &DuckDB{
		db:  db,
		log: log,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Bars implements Source.
func (d *DuckDB) Bars(ctx context.Context, ticker string, start, end optional.Option[time.Time]) (types.Window, error) {
	builder := d.sq.
		Select("date", "open", "high", "low", "close", "volume").
		From("price_bars").
		Where(squirrel.Eq{"ticker": ticker}).
		OrderBy("date ASC")

	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"date": start.TakeOr(time.Time{})})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"date": end.TakeOr(time.Time{})})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query bars", err)
	}
	defer rows.Close()

	bars := make(types.Window, 0, 1000)

	for rows.Next() {
		var (
			date                           time.Time
			open, high, low, close, volume float64
		)

		if err := rows.Scan(&date, &open, &high, &low, &close, &volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeDataParseFailed, "failed to scan row", err)
		}

		bars = append(bars, types.PriceBar{
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: volume,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no bars for %s", ticker)
	}

	return bars, nil
}

// Close implements Source.
func (d *DuckDB) Close() error {
	return d.db.Close()
}
