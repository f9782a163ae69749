package covariance

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

var _ Function = (*PeriodicSquareExponential2)(nil)

// PeriodicSquareExponential2 is the three-component additive kernel
//
//	k(d) = σ1² · exp(-d²/(2·ℓ1²))
//	     + σP² · exp(-2·sin²(π·d/T)/ℓP²)
//	     + σ2² · exp(-d²/(2·ℓ2²))
//
// with the period length T held as a fixed extra parameter that is excluded
// from the optimized vector (and therefore from the returned gradients).
// The long square-exponential component absorbs slow drift, the periodic
// component the repeating error, and the short square-exponential component
// the fast residual.
//
// Log-valued parameters, in order: ℓ1, σ1, ℓP, σP, ℓ2, σ2.
// Log-valued extra parameter: T (defaults to log 1).
type PeriodicSquareExponential2 struct {
	params    []float64
	logPeriod float64
}

// NewPeriodicSquareExponential2 creates the kernel with the given log-valued
// parameters. A nil slice yields all-zero parameters.
func NewPeriodicSquareExponential2(params []float64) (*PeriodicSquareExponential2, error) {
	k := &PeriodicSquareExponential2{params: make([]float64, 6)}
	if params != nil {
		if err := k.SetParameters(params); err != nil {
			return nil, err
		}
	}
	return k, nil
}

func (k *PeriodicSquareExponential2) ParameterCount() int      { return 6 }
func (k *PeriodicSquareExponential2) ExtraParameterCount() int { return 1 }

func (k *PeriodicSquareExponential2) Parameters() []float64 {
	out := make([]float64, len(k.params))
	copy(out, k.params)
	return out
}

func (k *PeriodicSquareExponential2) SetParameters(params []float64) error {
	if err := checkCount(len(params), k.ParameterCount()); err != nil {
		return err
	}
	copy(k.params, params)
	return nil
}

// SetExtraParameters sets the fixed log period length.
func (k *PeriodicSquareExponential2) SetExtraParameters(params []float64) error {
	if err := checkCount(len(params), k.ExtraParameterCount()); err != nil {
		return err
	}
	k.logPeriod = params[0]
	return nil
}

// ExtraParameters returns the fixed log period length.
func (k *PeriodicSquareExponential2) ExtraParameters() []float64 {
	return []float64{k.logPeriod}
}

func (k *PeriodicSquareExponential2) Evaluate(x1, x2 mat.Vector) (*mat.Dense, []*mat.Dense) {
	ls1 := math.Exp(k.params[0])
	sv12 := math.Exp(2 * k.params[1])
	lsP := math.Exp(k.params[2])
	svP2 := math.Exp(2 * k.params[3])
	ls2 := math.Exp(k.params[4])
	sv22 := math.Exp(2 * k.params[5])
	period := math.Exp(k.logPeriod)

	d := distance(x1, x2)
	se1, se1GradLen := squareExponentialTerm(d, ls1)
	per, perGradLen, _ := periodicTerm(d, lsP, period)
	se2, se2GradLen := squareExponentialTerm(d, ls2)

	cov1 := scaled(sv12, se1, nil)
	covP := scaled(svP2, per, nil)
	cov2 := scaled(sv22, se2, nil)

	cov := mat.DenseCopyOf(cov1)
	cov.Add(cov, covP)
	cov.Add(cov, cov2)

	grad := []*mat.Dense{
		scaled(1, cov1, se1GradLen),
		scaled(2, cov1, nil),
		scaled(1, covP, perGradLen),
		scaled(2, covP, nil),
		scaled(1, cov2, se2GradLen),
		scaled(2, cov2, nil),
	}
	return cov, grad
}
