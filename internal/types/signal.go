package types

import (
	"time"

	"github.com/moznion/go-optional"
)

type Action string

const (
	// ActionBuy tells the engine to increase exposure to the instrument
	ActionBuy Action = "buy"
	// ActionSell tells the engine to decrease exposure to the instrument
	ActionSell Action = "sell"
	// ActionHold tells the engine to leave the portfolio untouched
	ActionHold Action = "hold"
)

// Signal is a strategy's dated recommendation for one trading day.
type Signal struct {
	// Date is the trading day the signal applies to
	Date time.Time `yaml:"date" json:"date"`
	// Ticker is the instrument the signal applies to
	Ticker string `yaml:"ticker" json:"ticker"`
	// Action is the recommended action
	Action Action `yaml:"action" json:"action"`
	// Confidence is the strategy's conviction in [0, 1]
	Confidence float64 `yaml:"confidence" json:"confidence"`
	// TargetPosition is the desired fraction of total portfolio value
	// allocated to the instrument, in [0, 1]. When absent the engine
	// applies its default sizing rule.
	TargetPosition optional.Option[float64] `yaml:"target_position" json:"targetPosition"`
	// Reasoning is optional free text explaining the signal, typically
	// produced by an external reasoning service.
	Reasoning string `yaml:"reasoning" json:"reasoning"`
}

// HoldSignal returns the neutral signal the engine substitutes when a
// strategy fails or times out: hold with zero confidence.
func HoldSignal(ticker string, date time.Time) Signal {
	return Signal{
		Date:       date,
		Ticker:     ticker,
		Action:     ActionHold,
		Confidence: 0,
	}
}

// Clamp normalizes a signal in place: unknown actions become hold and
// confidence is bounded to [0, 1].
func (s *Signal) Clamp() {
	switch s.Action {
	case ActionBuy, ActionSell, ActionHold:
	default:
		s.Action = ActionHold
	}

	if s.Confidence < 0 {
		s.Confidence = 0
	}

	if s.Confidence > 1 {
		s.Confidence = 1
	}

	if s.TargetPosition.IsSome() {
		target := s.TargetPosition.Unwrap()
		if target < 0 {
			target = 0
		}

		if target > 1 {
			target = 1
		}

		s.TargetPosition = optional.Some(target)
	}
}
