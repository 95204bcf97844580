package strategy

import (
	"github.com/quantagent/backtest/internal/types"
	"github.com/quantagent/backtest/pkg/errors"
)

// Kind is the closed enumeration of built-in strategy variants. The
// factory resolves a Kind exactly once at construction time; the engine
// never branches on strategy type strings.
type Kind string

const (
	KindValue       Kind = "value"
	KindGrowth      Kind = "growth"
	KindTrend       Kind = "trend"
	KindQuant       Kind = "quant"
	KindSentiment   Kind = "sentiment"
	KindRiskManaged Kind = "riskManaged"
	KindMixed       Kind = "mixed"
)

// AllKinds lists every variant the factory can build.
var AllKinds = []Kind{
	KindValue, KindGrowth, KindTrend, KindQuant,
	KindSentiment, KindRiskManaged, KindMixed,
}

// Config carries the per-variant inputs a built-in strategy needs at
// construction. Unused fields are ignored by variants that do not
// consume them.
type Config struct {
	// Ticker is the instrument every signal will name.
	Ticker string
	// Fundamentals feeds the value and growth variants.
	Fundamentals types.FinancialSnapshot
	// News feeds the sentiment variant; items dated after the trading
	// day under evaluation are never consulted.
	News []types.NewsItem
	// Children selects the variants a mixed strategy combines. Empty
	// defaults to value, trend, and sentiment.
	Children []Kind
	// Weights aligns with Children; empty defaults to an equal split.
	Weights []float64
}

// New builds a built-in strategy variant.
func New(kind Kind, cfg Config) (Strategy, error) {
	switch kind {
	case KindValue:
		return NewValue(cfg.Ticker, cfg.Fundamentals), nil
	case KindGrowth:
		return NewGrowth(cfg.Ticker, cfg.Fundamentals), nil
	case KindTrend:
		return NewTrend(cfg.Ticker), nil
	case KindQuant:
		return NewQuant(cfg.Ticker), nil
	case KindSentiment:
		return NewSentiment(cfg.Ticker, cfg.News), nil
	case KindRiskManaged:
		return NewRiskManaged(cfg.Ticker), nil
	case KindMixed:
		return newMixedFromConfig(cfg)
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy kind: %s", kind)
	}
}

func newMixedFromConfig(cfg Config) (Strategy, error) {
	children := cfg.Children
	if len(children) == 0 {
		children = []Kind{KindValue, KindTrend, KindSentiment}
	}

	built := make([]Weighted, 0, len(children))

	for i, childKind := range children {
		if childKind == KindMixed {
			return nil, errors.New(errors.ErrCodeUnsupportedStrategy, "mixed strategies cannot nest")
		}

		child, err := New(childKind, cfg)
		if err != nil {
			return nil, err
		}

		weight := 0.0
		if i < len(cfg.Weights) {
			weight = cfg.Weights[i]
		}

		built = append(built, Weighted{Strategy: child, Weight: weight})
	}

	return NewMixed(built)
}
