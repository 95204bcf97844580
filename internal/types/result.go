package types

import "time"

// EquityPoint is the total portfolio value at one bar's close.
type EquityPoint struct {
	Date  time.Time `yaml:"date" json:"date" csv:"date"`
	Value float64   `yaml:"value" json:"value" csv:"value"`
}

// Metrics holds the risk/return statistics computed from a finished run.
type Metrics struct {
	TotalReturn      float64 `yaml:"total_return" json:"totalReturn"`
	AnnualizedReturn float64 `yaml:"annualized_return" json:"annualizedReturn"`
	MaxDrawdown      float64 `yaml:"max_drawdown" json:"maxDrawdown"`
	SharpeRatio      float64 `yaml:"sharpe_ratio" json:"sharpeRatio"`
	WinRate          float64 `yaml:"win_rate" json:"winRate"`
	ProfitFactor     float64 `yaml:"profit_factor" json:"profitFactor"`
}

// Warning is one recovered per-day diagnostic. It replaces logging into
// an implicit global: warnings travel with the result.
type Warning struct {
	Date    time.Time `yaml:"date" json:"date"`
	Message string    `yaml:"message" json:"message"`
}

// BacktestResult is the only artifact that survives an engine run. It is
// immutable after return; the comparison harness only reads it.
type BacktestResult struct {
	Ticker            string        `yaml:"ticker" json:"ticker"`
	StrategyName      string        `yaml:"strategy_name" json:"strategyName"`
	StartDate         time.Time     `yaml:"start_date" json:"startDate"`
	EndDate           time.Time     `yaml:"end_date" json:"endDate"`
	InitialCapital    float64       `yaml:"initial_capital" json:"initialCapital"`
	FinalValue        float64       `yaml:"final_value" json:"finalValue"`
	Returns           float64       `yaml:"returns" json:"returns"`
	AnnualizedReturns float64       `yaml:"annualized_returns" json:"annualizedReturns"`
	MaxDrawdown       float64       `yaml:"max_drawdown" json:"maxDrawdown"`
	SharpeRatio       float64       `yaml:"sharpe_ratio" json:"sharpeRatio"`
	EquityCurve       []EquityPoint `yaml:"equity_curve" json:"equityCurve"`
	Trades            []Trade       `yaml:"trades" json:"trades"`
	Metrics           Metrics       `yaml:"metrics" json:"metrics"`
	Warnings          []Warning     `yaml:"warnings" json:"warnings,omitempty"`
}
