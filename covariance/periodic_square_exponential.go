package covariance

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

var _ Function = (*PeriodicSquareExponential)(nil)

// PeriodicSquareExponential is a square-exponential kernel modulated by a
// periodic term, with a single shared signal variance:
//
//	k(d) = σ² · exp(-2·sin²(π·d/T)/ℓP²) · exp(-d²/(2·ℓSE²))
//
// Log-valued parameters, in order: periodic lengthscale ℓP, period length T,
// signal standard deviation σ, square-exponential lengthscale ℓSE.
type PeriodicSquareExponential struct {
	params []float64
}

// NewPeriodicSquareExponential creates the kernel with the given log-valued
// parameters. A nil slice yields all-zero parameters.
func NewPeriodicSquareExponential(params []float64) (*PeriodicSquareExponential, error) {
	k := &PeriodicSquareExponential{params: make([]float64, 4)}
	if params != nil {
		if err := k.SetParameters(params); err != nil {
			return nil, err
		}
	}
	return k, nil
}

func (k *PeriodicSquareExponential) ParameterCount() int      { return 4 }
func (k *PeriodicSquareExponential) ExtraParameterCount() int { return 0 }

func (k *PeriodicSquareExponential) Parameters() []float64 {
	out := make([]float64, len(k.params))
	copy(out, k.params)
	return out
}

func (k *PeriodicSquareExponential) SetParameters(params []float64) error {
	if err := checkCount(len(params), k.ParameterCount()); err != nil {
		return err
	}
	copy(k.params, params)
	return nil
}

func (k *PeriodicSquareExponential) SetExtraParameters(params []float64) error {
	return checkCount(len(params), 0)
}

func (k *PeriodicSquareExponential) Evaluate(x1, x2 mat.Vector) (*mat.Dense, []*mat.Dense) {
	lsP := math.Exp(k.params[0])
	period := math.Exp(k.params[1])
	sv2 := math.Exp(2 * k.params[2])
	lsSE := math.Exp(k.params[3])

	d := distance(x1, x2)
	per, perGradLen, perGradPeriod := periodicTerm(d, lsP, period)
	se, seGradLen := squareExponentialTerm(d, lsSE)

	cov := scaled(sv2, per, se)

	grad := []*mat.Dense{
		scaled(1, cov, perGradLen),
		scaled(1, cov, perGradPeriod),
		scaled(2, cov, nil),
		scaled(1, cov, seGradLen),
	}
	return cov, grad
}
