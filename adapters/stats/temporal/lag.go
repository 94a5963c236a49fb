// Package temporal relates response series (layer thickness, anchor
// displacement) to driver series (precipitation deficit, groundwater level)
// across a sweep of time lags.
package temporal

import (
	"fmt"
	"math"
	"sort"
	"time"

	"soilmm/domain/core"
	"soilmm/domain/series"
)

// LagRange is an inclusive range of integer lags in sampling periods.
type LagRange struct {
	Min int
	Max int
}

// Symmetric returns the range [-n, n].
func Symmetric(n int) LagRange {
	return LagRange{Min: -n, Max: n}
}

// Len returns the number of lags in the range.
func (r LagRange) Len() int {
	return r.Max - r.Min + 1
}

// Validate rejects an empty range.
func (r LagRange) Validate() error {
	if r.Min > r.Max {
		return fmt.Errorf("%w: min %d > max %d", core.ErrInvalidLagRange, r.Min, r.Max)
	}
	return nil
}

// LagCoefficient is the correlation at one lag. PValue is NaN unless
// significance was requested and the coefficient is defined.
type LagCoefficient struct {
	Lag         int
	Coefficient float64
	Defined     bool
	N           int
	PValue      float64
}

// LagCorrelationProfile holds one coefficient per lag, in ascending lag order.
type LagCorrelationProfile []LagCoefficient

// At returns the coefficient for lag.
func (p LagCorrelationProfile) At(lag int) (LagCoefficient, bool) {
	if len(p) == 0 {
		return LagCoefficient{}, false
	}
	i := lag - p[0].Lag
	if i < 0 || i >= len(p) || p[i].Lag != lag {
		return LagCoefficient{}, false
	}
	return p[i], true
}

// DefinedCount returns the number of lags with a defined coefficient.
func (p LagCorrelationProfile) DefinedCount() int {
	n := 0
	for _, c := range p {
		if c.Defined {
			n++
		}
	}
	return n
}

// PartitionFunc assigns a timestamp to a partition, e.g. a calendar year.
// Keys need not be contiguous in time: every sample with the same key
// belongs to one partition.
type PartitionFunc func(time.Time) int

// ByYear partitions by calendar year.
func ByYear(t time.Time) int { return t.Year() }

// ByHydrologicalYear partitions by hydrological year (November to October).
func ByHydrologicalYear(t time.Time) int { return core.HydrologicalYear(t) }

type options struct {
	partition    PartitionFunc
	significance bool
}

// Option configures LagCorrelation.
type Option func(*options)

// WithPartition correlates within each partition separately and reports
// the mean of the defined partition coefficients.
func WithPartition(fn PartitionFunc) Option {
	return func(o *options) { o.partition = fn }
}

// WithSignificance attaches a two-sided p-value to every defined coefficient
// of an unpartitioned sweep.
func WithSignificance() Option {
	return func(o *options) { o.significance = true }
}

// Shift moves values by lag positions with pandas shift semantics:
// out[i] = values[i-lag]. Positions shifted in from outside are NaN.
func Shift(values []float64, lag int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		j := i - lag
		if j < 0 || j >= len(values) {
			out[i] = math.NaN()
			continue
		}
		out[i] = values[j]
	}
	return out
}

// LagCorrelation sweeps every lag in r and correlates the driver with the
// lag-shifted response: corr(lag) = Pearson(driver, Shift(response, lag)).
// Only timestamps present in both operands after the shift contribute.
//
// Both series must share one regular time index; aligning and resampling
// is the caller's job (see ResampleHourly and Align). A lag whose overlap is
// too short or constant yields an undefined coefficient, not an error.
func LagCorrelation(driver, response series.TimeSeries, r LagRange, opts ...Option) (LagCorrelationProfile, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if !series.SameIndex(driver, response) {
		return nil, core.NewMisalignedError(driver.Name, response.Name)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	profile := make(LagCorrelationProfile, 0, r.Len())
	if o.partition != nil {
		groups := partition(driver.Timestamps, o.partition)
		for lag := r.Min; lag <= r.Max; lag++ {
			profile = append(profile, partitionedCoefficient(driver.Values, response.Values, groups, lag))
		}
		return profile, nil
	}

	for lag := r.Min; lag <= r.Max; lag++ {
		c := PearsonCorrelation(driver.Values, Shift(response.Values, lag))
		lc := LagCoefficient{Lag: lag, Coefficient: c.Coefficient, Defined: c.Defined, N: c.N, PValue: math.NaN()}
		if o.significance && c.Defined {
			lc.PValue = significance(c.Coefficient, c.N)
		}
		profile = append(profile, lc)
	}
	return profile, nil
}

// span is a contiguous run of indices with one partition key.
type span struct {
	from, to int
}

// group is one partition: every run of indices sharing a key. A key may
// recur after a gap, e.g. the same month in successive years.
type group struct {
	key   int
	spans []span
}

// partition groups a sorted index by key, ordered by key.
func partition(timestamps []time.Time, fn PartitionFunc) []group {
	var groups []group
	byKey := make(map[int]int)
	lastKey, lastGroup := 0, -1
	for i, t := range timestamps {
		k := fn(t)
		if lastGroup >= 0 && k == lastKey {
			g := &groups[lastGroup]
			g.spans[len(g.spans)-1].to = i + 1
			continue
		}
		gi, ok := byKey[k]
		if !ok {
			gi = len(groups)
			byKey[k] = gi
			groups = append(groups, group{key: k})
		}
		groups[gi].spans = append(groups[gi].spans, span{from: i, to: i + 1})
		lastKey, lastGroup = k, gi
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].key < groups[j].key })
	return groups
}

// partitionedCoefficient shifts the response inside every run, so no lag
// crosses a run boundary, pools the pairs of each partition and averages
// the defined partition coefficients.
func partitionedCoefficient(driver, response []float64, groups []group, lag int) LagCoefficient {
	sum := 0.0
	defined := 0
	n := 0
	for _, g := range groups {
		var xs, ys []float64
		for _, sp := range g.spans {
			xs = append(xs, driver[sp.from:sp.to]...)
			ys = append(ys, Shift(response[sp.from:sp.to], lag)...)
		}
		c := PearsonCorrelation(xs, ys)
		if !c.Defined {
			continue
		}
		sum += c.Coefficient
		defined++
		n += c.N
	}
	if defined == 0 {
		return LagCoefficient{Lag: lag, Coefficient: math.NaN(), N: n, PValue: math.NaN()}
	}
	return LagCoefficient{Lag: lag, Coefficient: clamp(sum / float64(defined)), Defined: true, N: n, PValue: math.NaN()}
}
