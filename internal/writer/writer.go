// Package writer persists backtest results to disk for inspection:
// trades.csv, equity.csv, and metrics.yaml per run.
package writer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quantagent/backtest/internal/types"
	"github.com/quantagent/backtest/pkg/errors"
)

// ResultWriter writes one backtest result somewhere durable.
type ResultWriter interface {
	// WriteResult persists the whole run and returns the directory the
	// files landed in.
	WriteResult(result *types.BacktestResult) (string, error)
}

// CSVWriter implements ResultWriter with one directory per run under a
// base directory, named <strategy>_<timestamp>.
type CSVWriter struct {
	baseDir string
}

// NewCSVWriter creates a writer rooted at baseDir. The directory is
// created on first write.
func NewCSVWriter(baseDir string) *CSVWriter {
	return &CSVWriter{baseDir: baseDir}
}

// WriteResult implements ResultWriter.
func (w *CSVWriter) WriteResult(result *types.BacktestResult) (string, error) {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	runDir := filepath.Join(w.baseDir, fmt.Sprintf("%s_%s", result.StrategyName, timestamp))

	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create run directory", err)
	}

	if err := w.writeTrades(filepath.Join(runDir, "trades.csv"), result.Trades); err != nil {
		return "", err
	}

	if err := w.writeEquity(filepath.Join(runDir, "equity.csv"), result.EquityCurve); err != nil {
		return "", err
	}

	if err := w.writeMetrics(filepath.Join(runDir, "metrics.yaml"), result); err != nil {
		return "", err
	}

	return runDir, nil
}

func (w *CSVWriter) writeTrades(path string, trades []types.Trade) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create trades file", err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	defer cw.Flush()

	if err := cw.Write([]string{"id", "date", "ticker", "side", "shares", "price", "realized_profit"}); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write trades header", err)
	}

	for _, trade := range trades {
		profit := ""
		if trade.RealizedProfit.IsSome() {
			profit = fmt.Sprintf("%f", trade.RealizedProfit.TakeOr(0))
		}

		record := []string{
			trade.ID,
			trade.Date.Format(time.DateOnly),
			trade.Ticker,
			string(trade.Side),
			fmt.Sprintf("%d", trade.Shares),
			fmt.Sprintf("%f", trade.Price),
			profit,
		}

		if err := cw.Write(record); err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write trade", err)
		}
	}

	return nil
}

func (w *CSVWriter) writeEquity(path string, curve []types.EquityPoint) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create equity file", err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	defer cw.Flush()

	if err := cw.Write([]string{"date", "equity"}); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write equity header", err)
	}

	for _, point := range curve {
		record := []string{
			point.Date.Format(time.DateOnly),
			fmt.Sprintf("%f", point.Value),
		}

		if err := cw.Write(record); err != nil {
			return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write equity point", err)
		}
	}

	return nil
}

// metricsFile is the YAML summary shape.
type metricsFile struct {
	Ticker         string        `yaml:"ticker"`
	Strategy       string        `yaml:"strategy"`
	StartDate      string        `yaml:"start_date"`
	EndDate        string        `yaml:"end_date"`
	InitialCapital float64       `yaml:"initial_capital"`
	FinalValue     float64       `yaml:"final_value"`
	Metrics        types.Metrics `yaml:"metrics"`
	TradeCount     int           `yaml:"trade_count"`
	WarningCount   int           `yaml:"warning_count"`
}

func (w *CSVWriter) writeMetrics(path string, result *types.BacktestResult) error {
	summary := metricsFile{
		Ticker:         result.Ticker,
		Strategy:       result.StrategyName,
		StartDate:      result.StartDate.Format(time.DateOnly),
		EndDate:        result.EndDate.Format(time.DateOnly),
		InitialCapital: result.InitialCapital,
		FinalValue:     result.FinalValue,
		Metrics:        result.Metrics,
		TradeCount:     len(result.Trades),
		WarningCount:   len(result.Warnings),
	}

	data, err := yaml.Marshal(summary)
	if err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to marshal metrics", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write metrics file", err)
	}

	return nil
}
