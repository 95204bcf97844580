package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/quantagent/backtest/internal/types"
)

const (
	sentimentLookback = 5

	sentimentBuyThreshold  = 0.6
	sentimentSellThreshold = -0.3
)

// Sentiment trades off the average score of the most recent news items.
// Only items dated on or before the trading day count, so future
// headlines never leak into a signal.
type Sentiment struct {
	ticker string
	news   []types.NewsItem
}

// NewSentiment creates a news sentiment strategy over the given feed.
func NewSentiment(ticker string, news []types.NewsItem) *Sentiment {
	return &Sentiment{
		ticker: ticker,
		news:   news,
	}
}

// Name implements Strategy.
func (s *Sentiment) Name() string {
	return "sentiment"
}

// GenerateSignal implements Strategy.
func (s *Sentiment) GenerateSignal(_ context.Context, _ types.Window, date time.Time, _ types.PortfolioSnapshot) (types.Signal, error) {
	recent := s.recentNews(date)
	if len(recent) == 0 {
		return types.HoldSignal(s.ticker, date), nil
	}

	sum := 0.0
	for _, item := range recent {
		sum += item.Sentiment
	}
	avg := sum / float64(len(recent))

	switch {
	case avg > sentimentBuyThreshold:
		return signal(s.ticker, date, types.ActionBuy, 0.65,
			fmt.Sprintf("average sentiment %.2f over last %d items", avg, len(recent))), nil
	case avg < sentimentSellThreshold:
		return signal(s.ticker, date, types.ActionSell, 0.65,
			fmt.Sprintf("average sentiment %.2f over last %d items", avg, len(recent))), nil
	}

	return types.HoldSignal(s.ticker, date), nil
}

// recentNews returns the last sentimentLookback items dated on or before
// the trading day, assuming the feed is in chronological order.
func (s *Sentiment) recentNews(date time.Time) []types.NewsItem {
	visible := make([]types.NewsItem, 0, len(s.news))
	for _, item := range s.news {
		if !item.Date.After(date) {
			visible = append(visible, item)
		}
	}

	if len(visible) > sentimentLookback {
		visible = visible[len(visible)-sentimentLookback:]
	}

	return visible
}
