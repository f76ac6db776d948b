package policies

import "time"

// PricingMetrics receives pricing and quoting observations.
type PricingMetrics interface {
	CalendarResolved(days int, elapsed time.Duration)
	RuleSkipped(reason string)
	QuoteEvaluated(outcome string)
	CacheLookup(hit bool)
}

type NopMetrics struct{}

func (NopMetrics) CalendarResolved(int, time.Duration) {}
func (NopMetrics) RuleSkipped(string)                  {}
func (NopMetrics) QuoteEvaluated(string)               {}
func (NopMetrics) CacheLookup(bool)                    {}
