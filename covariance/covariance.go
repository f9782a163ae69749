// Package covariance implements the covariance functions (kernels) used for
// Gaussian process regression over a one-dimensional input, together with
// their analytic gradients with respect to every hyperparameter.
//
// Hyperparameters are kept in log space so that positivity is implicit:
// Evaluate exponentiates internally, and the returned gradients are taken
// with respect to the log-valued parameters. That makes the vectors directly
// usable by an unconstrained gradient-based optimizer.
package covariance

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/n0madic/go-gp-drift/mathtools"
)

// ErrParameterCount is returned when a parameter vector of the wrong length
// is supplied to SetParameters or SetExtraParameters.
var ErrParameterCount = errors.New("covariance: parameter count mismatch")

// Function is the capability interface shared by all kernel variants.
//
// Evaluate returns the covariance matrix K between the two location sets
// (len(x1) rows, len(x2) columns) and one partial-derivative matrix per
// hyperparameter, in parameter order, evaluated at the current parameters.
type Function interface {
	Evaluate(x1, x2 mat.Vector) (*mat.Dense, []*mat.Dense)

	// SetParameters replaces the log-valued hyperparameters. It fails with
	// ErrParameterCount if len(params) != ParameterCount().
	SetParameters(params []float64) error
	Parameters() []float64
	ParameterCount() int

	// SetExtraParameters replaces the fixed, non-optimized parameters
	// (for most variants there are none).
	SetExtraParameters(params []float64) error
	ExtraParameterCount() int
}

func checkCount(got, want int) error {
	if got != want {
		return fmt.Errorf("%w: got %d, want %d", ErrParameterCount, got, want)
	}
	return nil
}

// distance returns the matrix of pairwise absolute distances |x1_i - x2_j|.
func distance(x1, x2 mat.Vector) *mat.Dense {
	r1 := vecAsRow(x1)
	r2 := vecAsRow(x2)
	d := mathtools.SquareDistance(r1, r2)
	d.Apply(func(_, _ int, v float64) float64 { return math.Sqrt(v) }, d)
	return d
}

func vecAsRow(x mat.Vector) *mat.Dense {
	n := x.Len()
	row := mat.NewDense(1, n, nil)
	for i := 0; i < n; i++ {
		row.Set(0, i, x.AtVec(i))
	}
	return row
}

// periodicTerm fills per with exp(-2*sin²(π*d/period)/lengthscale²) and
// grad with the elementwise factors needed for the log-parameter gradients:
// gradLen such that ∂per/∂(log ℓ) = per ∘ gradLen, and gradPeriod such that
// ∂per/∂(log T) = per ∘ gradPeriod.
func periodicTerm(d *mat.Dense, lengthscale, period float64) (per, gradLen, gradPeriod *mat.Dense) {
	r, c := d.Dims()
	per = mat.NewDense(r, c, nil)
	gradLen = mat.NewDense(r, c, nil)
	gradPeriod = mat.NewDense(r, c, nil)
	l2 := lengthscale * lengthscale
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			dist := d.At(i, j)
			arg := math.Pi * dist / period
			s := math.Sin(arg)
			s2 := s * s
			per.Set(i, j, math.Exp(-2*s2/l2))
			gradLen.Set(i, j, 4*s2/l2)
			gradPeriod.Set(i, j, 2*arg*math.Sin(2*arg)/l2)
		}
	}
	return per, gradLen, gradPeriod
}

// squareExponentialTerm fills se with exp(-d²/(2*lengthscale²)) and gradLen
// with the factor such that ∂se/∂(log ℓ) = se ∘ gradLen.
func squareExponentialTerm(d *mat.Dense, lengthscale float64) (se, gradLen *mat.Dense) {
	r, c := d.Dims()
	se = mat.NewDense(r, c, nil)
	gradLen = mat.NewDense(r, c, nil)
	l2 := lengthscale * lengthscale
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d2 := d.At(i, j) * d.At(i, j)
			se.Set(i, j, math.Exp(-0.5*d2/l2))
			gradLen.Set(i, j, d2/l2)
		}
	}
	return se, gradLen
}

// scaled returns alpha * a ∘ b (elementwise product), with b == nil treated
// as the all-ones matrix.
func scaled(alpha float64, a, b *mat.Dense) *mat.Dense {
	r, c := a.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := alpha * a.At(i, j)
			if b != nil {
				v *= b.At(i, j)
			}
			out.Set(i, j, v)
		}
	}
	return out
}
