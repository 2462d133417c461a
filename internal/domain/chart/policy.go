package chart

// Reason explains why an item was kept off the chart.
type Reason string

// Exit reasons, in evaluation order.
const (
	ReasonNone           Reason = "none"
	ReasonOutsideChart   Reason = "outside_chart"
	ReasonLongTenure     Reason = "long_tenure"
	ReasonLowPerformance Reason = "low_performance"
)

// Decision is the policy outcome for one item.
type Decision struct {
	Chart  bool
	Reason Reason
}

// Policy decides whether a ranked player item holds a visible position.
type Policy struct {
	params Params
}

// NewPolicy returns a policy with params, defaults applied.
func NewPolicy(params Params) Policy {
	return Policy{params: params.WithDefaults()}
}

// Params returns the effective thresholds.
func (p Policy) Params() Params { return p.params }

// Evaluate applies the exit rules in order; the first match disqualifies.
// weeksCharted counts only periods strictly before the current one.
func (p Policy) Evaluate(performance int64, weeksCharted, position int) Decision {
	switch {
	case position > p.params.MaxChartSize:
		return Decision{Reason: ReasonOutsideChart}
	case weeksCharted > p.params.LongTenureWeeks && position > p.params.LongTenurePosition:
		return Decision{Reason: ReasonLongTenure}
	case performance < p.params.LowPerformanceThreshold && position > p.params.LowPerformancePosition:
		return Decision{Reason: ReasonLowPerformance}
	}
	return Decision{Chart: true, Reason: ReasonNone}
}

// ShouldChart is Evaluate reduced to its boolean.
func (p Policy) ShouldChart(performance int64, weeksCharted, position int) bool {
	return p.Evaluate(performance, weeksCharted, position).Chart
}

// CompetitorCharts reports whether a competitor at position charts.
// Competitors carry no tenure or decay, so only the cutoff applies.
func (p Policy) CompetitorCharts(position int) bool {
	return position >= 1 && position <= MaxPosition
}

// chartPosition returns the persisted position for a player item.
func (p Policy) chartPosition(d Decision, position int) *int {
	if !d.Chart || position < 1 || position > MaxPosition {
		return nil
	}
	return intPtr(position)
}
