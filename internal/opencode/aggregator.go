package opencode

import "time"

// Metrics is the cumulative aggregate over a set of usage parts. It is
// a plain value; once built it is never mutated.
type Metrics struct {
	TotalInputTokens      int64
	TotalOutputTokens     int64
	TotalReasoningTokens  int64
	TotalCacheWriteTokens int64
	TotalCacheReadTokens  int64
	TotalCost             float64
	TotalInteractions     int64
	LastUpdated           time.Time
}

// Aggregator folds usage parts into running totals. The zero value is
// ready to use. Cost is a plain float sum; the token counters are the
// primary metric, and summation order does not matter at the magnitudes
// involved here.
type Aggregator struct {
	inputTokens      int64
	outputTokens     int64
	reasoningTokens  int64
	cacheWriteTokens int64
	cacheReadTokens  int64
	cost             float64
	interactions     int64
}

// Add folds one part into the totals. Parts without token data
// contribute nothing and do not count as an interaction.
func (a *Aggregator) Add(part *UsagePart) {
	if part == nil || part.Tokens == nil {
		return
	}
	a.inputTokens += part.Tokens.Input
	a.outputTokens += part.Tokens.Output
	a.reasoningTokens += part.Tokens.Reasoning
	a.cacheWriteTokens += part.Tokens.Cache.Write
	a.cacheReadTokens += part.Tokens.Cache.Read
	a.cost += part.Cost
	a.interactions++
}

// Finalize stamps the result with now and returns it.
func (a *Aggregator) Finalize(now time.Time) Metrics {
	return Metrics{
		TotalInputTokens:      a.inputTokens,
		TotalOutputTokens:     a.outputTokens,
		TotalReasoningTokens:  a.reasoningTokens,
		TotalCacheWriteTokens: a.cacheWriteTokens,
		TotalCacheReadTokens:  a.cacheReadTokens,
		TotalCost:             a.cost,
		TotalInteractions:     a.interactions,
		LastUpdated:           now,
	}
}
