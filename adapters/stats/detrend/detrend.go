// Package detrend removes slow drift from thickness series before they are
// correlated against hydrological drivers.
package detrend

import (
	"fmt"
	"math"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"soilmm/domain/core"
	"soilmm/domain/series"
)

// Method selects how the trend component is estimated.
type Method string

const (
	MethodLinear        Method = "linear"
	MethodMovingAverage Method = "moving_average"
)

// DefaultWindow is the moving-average window length in samples.
const DefaultWindow = 7

// ParseMethod validates a method name. There is no fallback method.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.TrimSpace(s)); m {
	case MethodLinear, MethodMovingAverage:
		return m, nil
	default:
		return "", core.NewDetrendMethodError(s)
	}
}

// Detrend returns a new series with the trend removed. The output keeps the
// input index exactly; missing samples stay missing.
//
// MethodLinear subtracts one least-squares line fitted over all present
// samples against their position in the series. MethodMovingAverage subtracts
// the trailing mean of the last window samples; the first window-1 samples,
// and any sample whose window holds a gap, come out missing.
func Detrend(ts series.TimeSeries, method Method, window int) (series.TimeSeries, error) {
	switch method {
	case MethodLinear:
		return ts.WithValues(ts.Name, linear(ts.Values)), nil
	case MethodMovingAverage:
		if window <= 0 {
			window = DefaultWindow
		}
		return ts.WithValues(ts.Name, movingAverage(ts.Values, window)), nil
	default:
		return series.TimeSeries{}, core.NewDetrendMethodError(string(method))
	}
}

// DetrendLayers detrends every layer, keeping labels and bounds.
func DetrendLayers(layers []series.LayerThicknessSeries, method Method, window int) ([]series.LayerThicknessSeries, error) {
	out := make([]series.LayerThicknessSeries, len(layers))
	for i, l := range layers {
		d, err := Detrend(l.Series, method, window)
		if err != nil {
			return nil, fmt.Errorf("detrend %s: %w", l.Label, err)
		}
		l.Series = d
		out[i] = l
	}
	return out, nil
}

func linear(values []float64) []float64 {
	xs := make([]float64, 0, len(values))
	ys := make([]float64, 0, len(values))
	for i, v := range values {
		if !math.IsNaN(v) {
			xs = append(xs, float64(i))
			ys = append(ys, v)
		}
	}

	out := make([]float64, len(values))
	var intercept, slope float64
	switch len(ys) {
	case 0:
	case 1:
		intercept = ys[0]
	default:
		intercept, slope = stat.LinearRegression(xs, ys, nil, false)
	}
	for i, v := range values {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		out[i] = v - (intercept + slope*float64(i))
	}
	return out
}

func movingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if i < window-1 || math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		win := values[i-window+1 : i+1]
		if hasGap(win) {
			out[i] = math.NaN()
			continue
		}
		mean, err := stats.Mean(win)
		if err != nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = v - mean
	}
	return out
}

func hasGap(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
