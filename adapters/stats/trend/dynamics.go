package trend

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"soilmm/domain/core"
	"soilmm/domain/series"
)

// Dynamics is the spread of one channel within one hydrological year
// (1 November of the previous year up to 31 October).
type Dynamics struct {
	Year  int
	Min   float64
	Max   float64
	Range float64
	N     int
}

// AnchorDynamics is the yearly spread of one anchor.
type AnchorDynamics struct {
	Dynamics
	// PercentOfSurface is Range as a percentage of the surface anchor's
	// range in the same year. NaN when the surface anchor has no range.
	PercentOfSurface float64
}

// LayerDeformation is the yearly spread of one layer's thickness change.
type LayerDeformation struct {
	Dynamics
	InitialThickness float64 // cm
	MinThickness     float64 // InitialThickness + Min
	MaxThickness     float64 // InitialThickness + Max
	Strain           float64 // Range / InitialThickness
}

type dynamicsOptions struct {
	partialYears bool
}

// DynamicsOption configures the yearly statistics.
type DynamicsOption func(*dynamicsOptions)

// WithPartialYears also reports hydrological years whose first or last day
// is missing from the index.
func WithPartialYears() DynamicsOption {
	return func(o *dynamicsOptions) { o.partialYears = true }
}

// YearlyDynamics computes min, max and range per hydrological year. By
// default a year is reported only when the index holds both 1 November
// 00:00 of the previous year and 31 October 00:00. Years without any
// present sample are omitted.
func YearlyDynamics(ts series.TimeSeries, opts ...DynamicsOption) []Dynamics {
	var o dynamicsOptions
	for _, opt := range opts {
		opt(&o)
	}

	byYear := make(map[int][]float64)
	for i, t := range ts.Timestamps {
		v := ts.Values[i]
		if math.IsNaN(v) {
			continue
		}
		y := core.HydrologicalYear(t)
		byYear[y] = append(byYear[y], v)
	}

	var index map[int64]bool
	if !o.partialYears {
		index = make(map[int64]bool, ts.Len())
		for _, t := range ts.Timestamps {
			index[t.UnixNano()] = true
		}
	}

	loc := time.UTC
	if ts.Len() > 0 {
		loc = ts.Timestamps[0].Location()
	}

	out := make([]Dynamics, 0, len(byYear))
	for _, y := range sortedYears(byYear) {
		if !o.partialYears {
			first := time.Date(y-1, time.November, 1, 0, 0, 0, 0, loc)
			last := time.Date(y, time.October, 31, 0, 0, 0, 0, loc)
			if !index[first.UnixNano()] || !index[last.UnixNano()] {
				continue
			}
		}
		values := byYear[y]
		lo, err := stats.Min(values)
		if err != nil {
			continue
		}
		hi, err := stats.Max(values)
		if err != nil {
			continue
		}
		out = append(out, Dynamics{Year: y, Min: lo, Max: hi, Range: hi - lo, N: len(values)})
	}
	return out
}

// AnchorYearlyDynamics computes the yearly dynamics of every anchor, keyed
// by series name. The first anchor is the surface reference.
func AnchorYearlyDynamics(anchors []series.TimeSeries, opts ...DynamicsOption) map[string][]AnchorDynamics {
	out := make(map[string][]AnchorDynamics, len(anchors))
	if len(anchors) == 0 {
		return out
	}

	surface := make(map[int]float64)
	for _, d := range YearlyDynamics(anchors[0], opts...) {
		surface[d.Year] = d.Range
	}

	for _, a := range anchors {
		years := YearlyDynamics(a, opts...)
		ad := make([]AnchorDynamics, len(years))
		for i, d := range years {
			pct := math.NaN()
			if ref, ok := surface[d.Year]; ok && ref != 0 {
				pct = d.Range / ref * 100
			}
			ad[i] = AnchorDynamics{Dynamics: d, PercentOfSurface: pct}
		}
		out[a.Name] = ad
	}
	return out
}

// LayerYearlyDeformation computes the yearly deformation of a layer of the
// given installed thickness in cm. Strain is NaN for a zero thickness.
func LayerYearlyDeformation(layer series.LayerThicknessSeries, initial float64, opts ...DynamicsOption) []LayerDeformation {
	years := YearlyDynamics(layer.Series, opts...)
	out := make([]LayerDeformation, len(years))
	for i, d := range years {
		strain := math.NaN()
		if initial != 0 {
			strain = d.Range / initial
		}
		out[i] = LayerDeformation{
			Dynamics:         d,
			InitialThickness: initial,
			MinThickness:     initial + d.Min,
			MaxThickness:     initial + d.Max,
			Strain:           strain,
		}
	}
	return out
}
