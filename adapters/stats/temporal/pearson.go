package temporal

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Correlation is one Pearson coefficient together with the number of
// complete pairs it was computed from. Defined is false when fewer than two
// pairs overlap or either operand has zero variance; Coefficient is then NaN.
type Correlation struct {
	Coefficient float64
	N           int
	Defined     bool
}

// Undefined is the sentinel for a coefficient that cannot be computed.
// It is never folded into means and never equals a true zero.
func Undefined(n int) Correlation {
	return Correlation{Coefficient: math.NaN(), N: n}
}

// PearsonCorrelation correlates x and y over the indices where both are
// present. The slices must have equal length.
func PearsonCorrelation(x, y []float64) Correlation {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}

	if len(xs) < 2 || constant(xs) || constant(ys) {
		return Undefined(len(xs))
	}

	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return Undefined(len(xs))
	}
	return Correlation{Coefficient: clamp(r), N: len(xs), Defined: true}
}

// constant reports zero variance exactly; a computed variance can come out
// as a tiny positive number for identical inputs.
func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func clamp(r float64) float64 {
	if r > 1 {
		return 1
	}
	if r < -1 {
		return -1
	}
	return r
}

// significance returns the two-sided p-value of r under the null hypothesis
// of no correlation, using a Student t distribution with n-2 degrees of
// freedom.
func significance(r float64, n int) float64 {
	if n < 3 || math.IsNaN(r) {
		return math.NaN()
	}
	absR := math.Abs(r)
	if absR >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := absR * math.Sqrt(df/(1-absR*absR))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.Survival(t)
}
