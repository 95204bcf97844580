package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/quantagent/backtest/internal/backtest"
	"github.com/quantagent/backtest/internal/datasource"
	"github.com/quantagent/backtest/internal/logger"
	"github.com/quantagent/backtest/internal/strategy"
	"github.com/quantagent/backtest/internal/types"
	"github.com/quantagent/backtest/internal/writer"
)

const dateLayout = "2006-01-02"

func sharedFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML run config; flags override its values",
		},
		&cli.StringFlag{
			Name:     "ticker",
			Aliases:  []string{"t"},
			Usage:    "Stock ticker symbol",
			Required: true,
		},
		&cli.FloatFlag{
			Name:  "capital",
			Usage: "Initial capital",
			Value: 10000,
		},
		&cli.TimestampFlag{
			Name:    "start",
			Aliases: []string{"s"},
			Usage:   "Start date in `YYYY-MM-DD` format",
			Config: cli.TimestampConfig{
				Layouts: []string{dateLayout},
			},
			Required: true,
		},
		&cli.TimestampFlag{
			Name:    "end",
			Aliases: []string{"e"},
			Usage:   "End date in `YYYY-MM-DD` format. Defaults to today.",
			Value:   time.Now(),
			Config: cli.TimestampConfig{
				Layouts: []string{dateLayout},
			},
		},
		&cli.StringFlag{
			Name:  "source",
			Usage: "Data source: synthetic, csv, parquet, or polygon",
			Value: "synthetic",
		},
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "Path to the data file for csv and parquet sources",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Directory for result files",
			Value:   "results",
		},
	}
}

// loadConfig builds the run config from the optional YAML file and the
// command line. Flags win over the file.
func loadConfig(cmd *cli.Command) (backtest.Config, error) {
	var cfg backtest.Config

	if path := cmd.String("config"); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}

		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if ticker := cmd.String("ticker"); ticker != "" {
		cfg.Ticker = ticker
	}

	if cmd.IsSet("capital") || cfg.InitialCapital == 0 {
		cfg.InitialCapital = cmd.Float("capital")
	}

	if start := cmd.Timestamp("start"); !start.IsZero() {
		cfg.StartDate = optional.Some(start.UTC().Truncate(24 * time.Hour))
	}

	if end := cmd.Timestamp("end"); !end.IsZero() {
		cfg.EndDate = optional.Some(end.UTC().Truncate(24 * time.Hour))
	}

	return cfg, nil
}

func buildSource(cmd *cli.Command, log *logger.Logger) (datasource.Source, error) {
	switch cmd.String("source") {
	case "synthetic":
		return datasource.NewSynthetic(), nil
	case "csv":
		return datasource.NewCSV(cmd.String("data")), nil
	case "parquet":
		return datasource.NewDuckDB(cmd.String("data"), log)
	case "polygon":
		return datasource.NewPolygon(os.Getenv("POLYGON_API_KEY"), log)
	default:
		return nil, fmt.Errorf("unknown source: %s", cmd.String("source"))
	}
}

// buildStrategy resolves one variant. Fundamentals and news come from
// the deterministic generator regardless of where the bars come from.
func buildStrategy(kind string, cfg backtest.Config) (strategy.Strategy, error) {
	syn := datasource.NewSynthetic()

	start := cfg.StartDate.TakeOr(time.Now().AddDate(-1, 0, 0))
	end := cfg.EndDate.TakeOr(time.Now())

	return strategy.New(strategy.Kind(kind), strategy.Config{
		Ticker:       cfg.Ticker,
		Fundamentals: syn.Fundamentals(cfg.Ticker),
		News:         syn.News(cfg.Ticker, start, end),
	})
}

func loadBars(ctx context.Context, cmd *cli.Command, cfg backtest.Config, log *logger.Logger) (types.Window, error) {
	source, err := buildSource(cmd, log)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	return source.Bars(ctx, cfg.Ticker, cfg.StartDate, cfg.EndDate)
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	strat, err := buildStrategy(cmd.String("strategy"), cfg)
	if err != nil {
		return err
	}

	bars, err := loadBars(ctx, cmd, cfg, log)
	if err != nil {
		return err
	}

	engine, err := backtest.NewEngine(cfg, log)
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(bars)), "backtesting")

	result, err := engine.Run(ctx, strat, bars, func(current, total int) {
		bar.Set(current)
	})
	if err != nil {
		return err
	}

	runDir, err := writer.NewCSVWriter(cmd.String("output")).WriteResult(result)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s on %s: %.2f -> %.2f (%.2f%%), %d trades, %d warnings\n",
		result.StrategyName, result.Ticker,
		result.InitialCapital, result.FinalValue, result.Returns*100,
		len(result.Trades), len(result.Warnings))
	fmt.Printf("results written to %s\n", runDir)

	return nil
}

func compareAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	kinds := cmd.StringSlice("strategy")
	if len(kinds) == 0 {
		for _, kind := range strategy.AllKinds {
			kinds = append(kinds, string(kind))
		}
	}

	entrants := make([]backtest.Entrant, 0, len(kinds))

	for _, kind := range kinds {
		strat, err := buildStrategy(kind, cfg)
		if err != nil {
			return err
		}

		entrants = append(entrants, backtest.Entrant{Name: kind, Strategy: strat})
	}

	bars, err := loadBars(ctx, cmd, cfg, log)
	if err != nil {
		return err
	}

	comparator, err := backtest.NewComparator(cfg, log)
	if err != nil {
		return err
	}

	comparison, err := comparator.Compare(ctx, entrants, bars)
	if err != nil {
		return err
	}

	for _, outcome := range comparison.Outcomes {
		if outcome.Error != "" {
			fmt.Printf("%-14s failed: %s\n", outcome.Name, outcome.Error)

			continue
		}

		m := outcome.Result.Metrics
		fmt.Printf("%-14s return %7.2f%%  drawdown %6.2f%%  sharpe %6.2f  winRate %5.2f\n",
			outcome.Name, m.TotalReturn*100, m.MaxDrawdown*100, m.SharpeRatio, m.WinRate)
	}

	if output := cmd.String("output"); output != "" {
		if err := os.MkdirAll(output, 0o755); err != nil {
			return err
		}

		data, err := json.MarshalIndent(comparison, "", "  ")
		if err != nil {
			return err
		}

		path := fmt.Sprintf("%s/comparison_%s.json", output, time.Now().Format("2006-01-02_15-04-05"))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}

		fmt.Printf("comparison written to %s\n", path)
	}

	return nil
}

func schemaAction(_ context.Context, _ *cli.Command) error {
	var cfg backtest.Config

	schema, err := cfg.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Backtest trading strategies over historical daily bars",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run one strategy over a price series",
				Flags: append(sharedFlags(),
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "Strategy kind: value, growth, trend, quant, sentiment, riskManaged, or mixed",
						Value: "trend",
					},
				),
				Action: runAction,
			},
			{
				Name:  "compare",
				Usage: "Race several strategies over the same price series",
				Flags: append(sharedFlags(),
					&cli.StringSliceFlag{
						Name:  "strategy",
						Usage: "Strategy kind, repeatable. Defaults to every built-in.",
					},
				),
				Action: compareAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the YAML run config",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
