package chart

// Default engine tunables.
const (
	DefaultVarianceMin             = 0.8
	DefaultVarianceMax             = 1.2
	DefaultMaxChartSize            = MaxPosition
	DefaultLongTenureWeeks         = 30
	DefaultLongTenurePosition      = 80
	DefaultLowPerformanceThreshold = 1000
	DefaultLowPerformancePosition  = 90
)

// Params are the tunables consumed by the sampler and the policy.
type Params struct {
	VarianceMin             float64 `json:"variance_min"`
	VarianceMax             float64 `json:"variance_max"`
	MaxChartSize            int     `json:"max_chart_size"`
	LongTenureWeeks         int     `json:"long_tenure_weeks"`
	LongTenurePosition      int     `json:"long_tenure_position"`
	LowPerformanceThreshold int64   `json:"low_performance_threshold"`
	LowPerformancePosition  int     `json:"low_performance_position"`
}

// DefaultParams returns the engine defaults.
func DefaultParams() Params {
	return Params{
		VarianceMin:             DefaultVarianceMin,
		VarianceMax:             DefaultVarianceMax,
		MaxChartSize:            DefaultMaxChartSize,
		LongTenureWeeks:         DefaultLongTenureWeeks,
		LongTenurePosition:      DefaultLongTenurePosition,
		LowPerformanceThreshold: DefaultLowPerformanceThreshold,
		LowPerformancePosition:  DefaultLowPerformancePosition,
	}
}

// WithDefaults fills unset or unusable fields with defaults. A zero field
// means unset, so a zero tenure or cutoff cannot be expressed here;
// config.Validate rejects it before it reaches the engine. An unset or
// inverted variance range falls back to the default range as a whole.
func (p Params) WithDefaults() Params {
	d := DefaultParams()
	if p.VarianceMin <= 0 || p.VarianceMax <= 0 || p.VarianceMin > p.VarianceMax {
		p.VarianceMin, p.VarianceMax = d.VarianceMin, d.VarianceMax
	}
	if p.MaxChartSize <= 0 || p.MaxChartSize > MaxPosition {
		p.MaxChartSize = d.MaxChartSize
	}
	if p.LongTenureWeeks <= 0 {
		p.LongTenureWeeks = d.LongTenureWeeks
	}
	if p.LongTenurePosition <= 0 {
		p.LongTenurePosition = d.LongTenurePosition
	}
	if p.LowPerformanceThreshold <= 0 {
		p.LowPerformanceThreshold = d.LowPerformanceThreshold
	}
	if p.LowPerformancePosition <= 0 {
		p.LowPerformancePosition = d.LowPerformancePosition
	}
	return p
}
