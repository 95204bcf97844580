// Package advisor is the boundary to an external reasoning service (for
// example an LLM agent) that strategies may consult for a trading
// opinion. The engine never sees this package: a strategy that uses an
// advisor still satisfies the plain strategy contract.
package advisor

import (
	"context"
	"time"

	"github.com/quantagent/backtest/internal/types"
)

// Request is the context handed to an advisor for one trading day.
type Request struct {
	Ticker string
	Date   time.Time
	// Bar is the current day's bar.
	Bar types.PriceBar
	// Recent holds up to the last few bars before the current one, most
	// recent last, for advisors that want short-term context.
	Recent []types.PriceBar
}

// Advisor produces a free-text verdict for a trading day. The text is
// expected to contain an action and ideally a confidence; ParseVerdict
// recovers the structured signal from it.
type Advisor interface {
	// Advise returns the advisor's free-text opinion. Implementations
	// must honor ctx cancellation: a slow remote call is cut off by the
	// engine's per-day timeout.
	Advise(ctx context.Context, req Request) (string, error)
}

// AdvisorFunc adapts a function to the Advisor interface.
type AdvisorFunc func(ctx context.Context, req Request) (string, error)

// Advise implements Advisor.
func (f AdvisorFunc) Advise(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
