// Package backtest contains the sequential backtest engine and the
// comparison harness that races several strategies over the same data.
package backtest

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"

	"github.com/quantagent/backtest/internal/portfolio"
	"github.com/quantagent/backtest/pkg/errors"
)

// DefaultDayTimeout bounds one strategy call. A strategy that blocks
// past it contributes a hold for the day instead of stalling the run.
const DefaultDayTimeout = 10 * time.Second

// Config describes one backtest run.
type Config struct {
	// Ticker is the instrument under test.
	Ticker string `yaml:"ticker" json:"ticker" validate:"required" jsonschema:"title=Ticker,description=Instrument symbol the run trades"`
	// InitialCapital is the starting cash in account currency.
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital" validate:"required,gt=0" jsonschema:"title=Initial Capital,description=Starting cash for the run,minimum=0"`
	// StartDate optionally clips bars before it from the run.
	StartDate optional.Option[time.Time] `yaml:"start_date" json:"start_date" jsonschema:"title=Start Date,description=Optional first trading day of the run"`
	// EndDate optionally clips bars after it from the run.
	EndDate optional.Option[time.Time] `yaml:"end_date" json:"end_date" jsonschema:"title=End Date,description=Optional last trading day of the run"`
	// DayTimeout bounds a single strategy call; zero means DefaultDayTimeout.
	DayTimeout time.Duration `yaml:"day_timeout" json:"day_timeout" jsonschema:"title=Day Timeout,description=Upper bound on one strategy call in nanoseconds"`
	// RiskFreeRate is the daily risk-free rate used by the Sharpe ratio.
	RiskFreeRate float64 `yaml:"risk_free_rate" json:"risk_free_rate" jsonschema:"title=Risk Free Rate,description=Daily risk-free rate for the Sharpe ratio"`
	// Sizing overrides the default order sizing policy when set.
	Sizing optional.Option[portfolio.SizingPolicy] `yaml:"sizing" json:"sizing" jsonschema:"title=Sizing,description=Order sizing policy overrides"`
}

// UnmarshalYAML maps nullable YAML fields onto the optional fields.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain struct {
		Ticker         string                  `yaml:"ticker"`
		InitialCapital float64                 `yaml:"initial_capital"`
		StartDate      *time.Time              `yaml:"start_date"`
		EndDate        *time.Time              `yaml:"end_date"`
		DayTimeout     time.Duration           `yaml:"day_timeout"`
		RiskFreeRate   float64                 `yaml:"risk_free_rate"`
		Sizing         *portfolio.SizingPolicy `yaml:"sizing"`
	}

	var cfg plain
	if err := unmarshal(&cfg); err != nil {
		return err
	}

	c.Ticker = cfg.Ticker
	c.InitialCapital = cfg.InitialCapital
	c.DayTimeout = cfg.DayTimeout
	c.RiskFreeRate = cfg.RiskFreeRate

	if cfg.StartDate != nil {
		c.StartDate = optional.Some(*cfg.StartDate)
	}

	if cfg.EndDate != nil {
		c.EndDate = optional.Some(*cfg.EndDate)
	}

	if cfg.Sizing != nil {
		c.Sizing = optional.Some(*cfg.Sizing)
	}

	return nil
}

// Validate checks the config and returns a configuration error on the
// first violation.
func (c *Config) Validate() error {
	if c.InitialCapital <= 0 {
		return errors.Newf(errors.ErrCodeInvalidCapital, "initial capital must be positive, got %.2f", c.InitialCapital)
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest config", err)
	}

	if c.StartDate.IsSome() && c.EndDate.IsSome() {
		start := c.StartDate.TakeOr(time.Time{})
		end := c.EndDate.TakeOr(time.Time{})

		if !end.After(start) {
			return errors.Newf(errors.ErrCodeInvalidDateRange,
				"end date %s must be after start date %s",
				end.Format(time.DateOnly), start.Format(time.DateOnly))
		}
	}

	if c.DayTimeout < 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "day timeout must not be negative")
	}

	return nil
}

// dayTimeout returns the effective per-day strategy call bound.
func (c *Config) dayTimeout() time.Duration {
	if c.DayTimeout <= 0 {
		return DefaultDayTimeout
	}

	return c.DayTimeout
}

// sizing returns the effective sizing policy.
func (c *Config) sizing() portfolio.SizingPolicy {
	return c.Sizing.TakeOr(portfolio.DefaultSizingPolicy())
}

// GenerateSchema generates a JSON schema for the run config.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "backtest-run-config"
	schema.Description = "Configuration schema for a backtest run"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates the JSON schema as an indented string.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
