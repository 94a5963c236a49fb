// Package trend estimates long-term subsidence rates from a recurring
// seasonal window of an anchor or layer series.
package trend

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"soilmm/adapters/stats/temporal"
	"soilmm/domain/core"
	"soilmm/domain/series"
)

// Config selects the seasonal window and the output unit.
type Config struct {
	// Months restricts the fit to samples in these calendar months.
	// Defaults to January and February.
	Months core.MonthSet
	// UnitScale multiplies the annualised slope, e.g. 10 for cm/yr to mm/yr.
	// Zero means 1.
	UnitScale float64
}

// DefaultConfig fits January and February and keeps the series' unit.
func DefaultConfig() Config {
	return Config{Months: core.NewMonthSet(time.January, time.February), UnitScale: 1}
}

// Polynomial is a first-order polynomial in date ordinal days.
type Polynomial struct {
	Slope     float64 // value per day
	Intercept float64
}

// Eval evaluates the line at date ordinal x.
func (p Polynomial) Eval(x float64) float64 {
	return p.Slope*x + p.Intercept
}

// EvalTime evaluates the line at t.
func (p Polynomial) EvalTime(t time.Time) float64 {
	return p.Eval(core.DateOrdinal(t))
}

// TrendFit is the result of one fit; it is never modified after Fit returns.
type TrendFit struct {
	Slope           float64 // per year, times UnitScale
	RSquared        float64 // NaN when RSquaredDefined is false
	RSquaredDefined bool
	Intercept       float64
	Line            Polynomial
	X               []float64 // date ordinals used for the fit
	N               int
}

// Fit filters ts to the seasonal window, averages it per hour, drops empty
// hours and fits value = slope*ordinal + intercept by least squares.
//
// A constant window gives slope 0 and an undefined R². Fewer than two
// usable hours is core.ErrInsufficientData.
func Fit(ts series.TimeSeries, cfg Config) (*TrendFit, error) {
	if len(cfg.Months) == 0 {
		cfg.Months = DefaultConfig().Months
	}
	scale := cfg.UnitScale
	if scale == 0 {
		scale = 1
	}

	window := ts.Filter(cfg.Months.Contains)
	hourly := temporal.DropMissing(temporal.ResampleHourly(window, temporal.AggMean))
	if hourly.Len() < 2 {
		return nil, core.NewInsufficientDataError(ts.Name, hourly.Len(), 2)
	}

	xs := make([]float64, hourly.Len())
	for i, t := range hourly.Timestamps {
		xs[i] = core.DateOrdinal(t)
	}
	ys := hourly.Values

	if constant(ys) {
		return &TrendFit{
			Slope:     0,
			RSquared:  math.NaN(),
			Intercept: ys[0],
			Line:      Polynomial{Slope: 0, Intercept: ys[0]},
			X:         xs,
			N:         len(xs),
		}, nil
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	line := Polynomial{Slope: slope, Intercept: intercept}

	fitted := make([]float64, len(xs))
	for i, x := range xs {
		fitted[i] = line.Eval(x)
	}
	r := stat.Correlation(fitted, ys, nil)
	fit := &TrendFit{
		Slope:     slope * core.DaysPerYear * scale,
		Intercept: intercept,
		Line:      line,
		X:         xs,
		N:         len(xs),
	}
	if math.IsNaN(r) {
		fit.RSquared = math.NaN()
	} else {
		fit.RSquared = r * r
		fit.RSquaredDefined = true
	}
	return fit, nil
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// ChannelFit is the outcome of fitting one channel in a batch. Exactly one
// of Fit and Err is set.
type ChannelFit struct {
	Name string
	Fit  *TrendFit
	Err  error
}

// FitAll fits every channel independently. A sparse channel records its
// error and the batch carries on.
func FitAll(channels []series.TimeSeries, cfg Config) []ChannelFit {
	out := make([]ChannelFit, len(channels))
	for i, ch := range channels {
		fit, err := Fit(ch, cfg)
		out[i] = ChannelFit{Name: ch.Name, Fit: fit, Err: err}
	}
	return out
}

// Contributions expresses every slope as a percentage of the first channel's
// slope, which for an anchor batch is the surface-most anchor.
func Contributions(fits []ChannelFit) []float64 {
	if len(fits) == 0 {
		return []float64{}
	}
	return ContributionsTo(SurfaceSlope(fits), fits)
}

// ContributionsTo expresses every slope as a percentage of ref, e.g. the
// share of each layer in the subsidence of the surface anchor. Channels
// without a fit, or a ref that is zero or NaN, give NaN.
func ContributionsTo(ref float64, fits []ChannelFit) []float64 {
	out := make([]float64, len(fits))
	for i, f := range fits {
		if f.Fit == nil || ref == 0 || math.IsNaN(ref) {
			out[i] = math.NaN()
			continue
		}
		out[i] = f.Fit.Slope / ref * 100
	}
	return out
}

// SurfaceSlope returns the slope of the first fit, or NaN when it failed.
func SurfaceSlope(fits []ChannelFit) float64 {
	if len(fits) == 0 || fits[0].Fit == nil {
		return math.NaN()
	}
	return fits[0].Fit.Slope
}

// LayerStrain converts a layer slope in mm/yr into strain per year for a
// layer of the given installed thickness in cm.
func LayerStrain(slopeMMPerYear, thicknessCM float64) float64 {
	if thicknessCM == 0 {
		return math.NaN()
	}
	return slopeMMPerYear / (thicknessCM * 10)
}

// sortedYears returns the keys of m in ascending order.
func sortedYears[V any](m map[int]V) []int {
	years := make([]int, 0, len(m))
	for y := range m {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
