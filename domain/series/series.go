package series

import (
	"fmt"
	"math"
	"time"

	"soilmm/domain/core"
)

// TimeSeries is one named channel of timestamped measurements.
// Missing samples are stored as NaN on an explicit timestamp; nothing in
// this module interpolates them.
type TimeSeries struct {
	Name       string
	Timestamps []time.Time
	Values     []float64
}

// New builds a series, copying both slices.
func New(name string, timestamps []time.Time, values []float64) (TimeSeries, error) {
	if len(timestamps) != len(values) {
		return TimeSeries{}, fmt.Errorf("series %q: %d timestamps but %d values", name, len(timestamps), len(values))
	}
	ts := TimeSeries{
		Name:       name,
		Timestamps: append([]time.Time(nil), timestamps...),
		Values:     append([]float64(nil), values...),
	}
	return ts, nil
}

// Len returns the number of samples, present or missing.
func (s TimeSeries) Len() int {
	return len(s.Timestamps)
}

// Present reports whether sample i holds a value.
func (s TimeSeries) Present(i int) bool {
	return !math.IsNaN(s.Values[i])
}

// PresentCount returns the number of non-missing samples.
func (s TimeSeries) PresentCount() int {
	n := 0
	for _, v := range s.Values {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// WithValues returns a series with the same name and index but new values.
func (s TimeSeries) WithValues(name string, values []float64) TimeSeries {
	return TimeSeries{
		Name:       name,
		Timestamps: append([]time.Time(nil), s.Timestamps...),
		Values:     values,
	}
}

// Validate checks that timestamps are strictly increasing.
func (s TimeSeries) Validate() error {
	if len(s.Timestamps) != len(s.Values) {
		return fmt.Errorf("series %q: %d timestamps but %d values", s.Name, len(s.Timestamps), len(s.Values))
	}
	for i := 1; i < len(s.Timestamps); i++ {
		if !s.Timestamps[i].After(s.Timestamps[i-1]) {
			return fmt.Errorf("%w: series %q at index %d (%s)", core.ErrUnorderedTimestamps,
				s.Name, i, s.Timestamps[i].Format(time.RFC3339))
		}
	}
	return nil
}

// Dedupe drops repeated timestamps, keeping the first occurrence.
// The input must already be sorted.
func (s TimeSeries) Dedupe() TimeSeries {
	out := TimeSeries{Name: s.Name}
	for i, t := range s.Timestamps {
		if i > 0 && t.Equal(s.Timestamps[i-1]) {
			continue
		}
		out.Timestamps = append(out.Timestamps, t)
		out.Values = append(out.Values, s.Values[i])
	}
	return out
}

// Between returns the samples with from <= t <= to. A zero bound is open.
func (s TimeSeries) Between(from, to time.Time) TimeSeries {
	out := TimeSeries{Name: s.Name}
	for i, t := range s.Timestamps {
		if !from.IsZero() && t.Before(from) {
			continue
		}
		if !to.IsZero() && t.After(to) {
			continue
		}
		out.Timestamps = append(out.Timestamps, t)
		out.Values = append(out.Values, s.Values[i])
	}
	return out
}

// Filter keeps the samples whose timestamp satisfies keep.
func (s TimeSeries) Filter(keep func(time.Time) bool) TimeSeries {
	out := TimeSeries{Name: s.Name}
	for i, t := range s.Timestamps {
		if keep(t) {
			out.Timestamps = append(out.Timestamps, t)
			out.Values = append(out.Values, s.Values[i])
		}
	}
	return out
}

// FirstValid returns the timestamp of the first non-missing sample.
func (s TimeSeries) FirstValid() (time.Time, bool) {
	for i, v := range s.Values {
		if !math.IsNaN(v) {
			return s.Timestamps[i], true
		}
	}
	return time.Time{}, false
}

// SameIndex reports whether both series share exactly the same timestamps.
func SameIndex(a, b TimeSeries) bool {
	if len(a.Timestamps) != len(b.Timestamps) {
		return false
	}
	for i := range a.Timestamps {
		if !a.Timestamps[i].Equal(b.Timestamps[i]) {
			return false
		}
	}
	return true
}
