package advisor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/moznion/go-optional"

	"github.com/quantagent/backtest/internal/types"
)

// Verdict is the structured reading of an advisor's free text.
type Verdict struct {
	Action         types.Action
	Confidence     float64
	TargetPosition optional.Option[float64]
}

var (
	confidencePattern = regexp.MustCompile(`(?i)confidence[\s:=]+([0-9]*\.?[0-9]+)\s*(%?)`)
	positionPattern   = regexp.MustCompile(`(?i)(?:target\s+)?position[\s:=]+([0-9]*\.?[0-9]+)\s*(%?)`)
)

// buy/sell vocabularies the reasoning services have been observed to use.
var (
	buyWords  = []string{"buy", "bullish", "accumulate", "long"}
	sellWords = []string{"sell", "bearish", "reduce", "exit"}
)

// ParseVerdict extracts an action, a confidence, and an optional target
// position from free-text advisor output. Unrecognizable text yields a
// hold with confidence 0.5: the advisor responded, it just was not
// actionable.
//
// Confidence and position accept both percentages (0-100, with or
// without a % sign when greater than 1) and fractions (0-1).
func ParseVerdict(text string) Verdict {
	lower := strings.ToLower(text)

	verdict := Verdict{
		Action:     types.ActionHold,
		Confidence: 0.5,
	}

	switch {
	case containsAny(lower, buyWords) && !containsAny(lower, sellWords):
		verdict.Action = types.ActionBuy
	case containsAny(lower, sellWords) && !containsAny(lower, buyWords):
		verdict.Action = types.ActionSell
	}

	if m := confidencePattern.FindStringSubmatch(text); m != nil {
		verdict.Confidence = parseFraction(m[1], m[2])
	}

	if m := positionPattern.FindStringSubmatch(text); m != nil {
		verdict.TargetPosition = optional.Some(parseFraction(m[1], m[2]))
	}

	return verdict
}

func containsAny(text string, words []string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}

	return false
}

func parseFraction(number, percentSign string) float64 {
	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0
	}

	if percentSign == "%" || value > 1 {
		value /= 100
	}

	if value < 0 {
		value = 0
	}

	if value > 1 {
		value = 1
	}

	return value
}
