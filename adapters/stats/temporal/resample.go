package temporal

import (
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"soilmm/domain/core"
	"soilmm/domain/series"
)

// AggregationFunc defines how samples falling in the same hour are combined.
type AggregationFunc string

const (
	AggMean AggregationFunc = "mean"
	AggSum  AggregationFunc = "sum"
	AggMax  AggregationFunc = "max"
	AggMin  AggregationFunc = "min"
)

// ResampleHourly puts ts on a regular hourly grid from the hour of its first
// sample to the hour of its last. Hours without a present sample are NaN,
// so gaps stay explicit. The input must be sorted.
func ResampleHourly(ts series.TimeSeries, agg AggregationFunc) series.TimeSeries {
	out := series.TimeSeries{Name: ts.Name}
	if ts.Len() == 0 {
		return out
	}

	start := core.TruncateHour(ts.Timestamps[0])
	end := core.TruncateHour(ts.Timestamps[ts.Len()-1])

	j := 0
	for bucket := start; !bucket.After(end); bucket = bucket.Add(time.Hour) {
		next := bucket.Add(time.Hour)
		var values []float64
		for ; j < ts.Len() && ts.Timestamps[j].Before(next); j++ {
			if !math.IsNaN(ts.Values[j]) {
				values = append(values, ts.Values[j])
			}
		}
		out.Timestamps = append(out.Timestamps, bucket)
		out.Values = append(out.Values, aggregate(values, agg))
	}
	return out
}

// DropMissing removes NaN samples.
func DropMissing(ts series.TimeSeries) series.TimeSeries {
	out := series.TimeSeries{Name: ts.Name}
	for i, v := range ts.Values {
		if !math.IsNaN(v) {
			out.Timestamps = append(out.Timestamps, ts.Timestamps[i])
			out.Values = append(out.Values, v)
		}
	}
	return out
}

func aggregate(values []float64, fn AggregationFunc) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	var (
		v   float64
		err error
	)
	switch fn {
	case AggSum:
		v, err = stats.Sum(values)
	case AggMax:
		v, err = stats.Max(values)
	case AggMin:
		v, err = stats.Min(values)
	default:
		v, err = stats.Mean(values)
	}
	if err != nil {
		return math.NaN()
	}
	return v
}

// Align restricts a and b to the timestamps they share, dropping repeated
// timestamps (first occurrence wins). Both inputs must be sorted.
func Align(a, b series.TimeSeries) (series.TimeSeries, series.TimeSeries) {
	a, b = a.Dedupe(), b.Dedupe()
	outA := series.TimeSeries{Name: a.Name}
	outB := series.TimeSeries{Name: b.Name}

	i, j := 0, 0
	for i < a.Len() && j < b.Len() {
		ta, tb := a.Timestamps[i], b.Timestamps[j]
		switch {
		case ta.Before(tb):
			i++
		case tb.Before(ta):
			j++
		default:
			outA.Timestamps = append(outA.Timestamps, ta)
			outA.Values = append(outA.Values, a.Values[i])
			outB.Timestamps = append(outB.Timestamps, tb)
			outB.Values = append(outB.Values, b.Values[j])
			i++
			j++
		}
	}
	return outA, outB
}

// SubtractReference expresses ts relative to its mean value on 1 January of
// the year after its first valid sample, and returns that reference date.
func SubtractReference(ts series.TimeSeries) (time.Time, series.TimeSeries, error) {
	first, ok := ts.FirstValid()
	if !ok {
		return time.Time{}, series.TimeSeries{}, core.NewInsufficientDataError(ts.Name, 0, 1)
	}
	ref := time.Date(first.Year()+1, time.January, 1, 0, 0, 0, 0, first.Location())
	day := ts.Between(ref, ref.Add(24*time.Hour-time.Nanosecond))

	present := DropMissing(day).Values
	if len(present) == 0 {
		return ref, series.TimeSeries{}, fmt.Errorf("no reference value on %s: %w",
			ref.Format("2006-01-02"), core.NewInsufficientDataError(ts.Name, 0, 1))
	}
	mean, err := stats.Mean(present)
	if err != nil {
		return ref, series.TimeSeries{}, err
	}

	values := make([]float64, ts.Len())
	for i, v := range ts.Values {
		values[i] = v - mean
	}
	return ref, ts.WithValues(ts.Name, values), nil
}
