package covariance

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

var _ Function = (*SquareExponentialPeriodic)(nil)

// SquareExponentialPeriodic is the composite (additive) kernel
//
//	k(d) = σP² · exp(-2·sin²(π·d/T)/ℓP²) + σSE² · exp(-d²/(2·ℓSE²))
//
// Log-valued parameters, in order: periodic lengthscale ℓP, period length T,
// periodic signal standard deviation σP, square-exponential lengthscale ℓSE,
// square-exponential signal standard deviation σSE.
type SquareExponentialPeriodic struct {
	params []float64
}

// NewSquareExponentialPeriodic creates the kernel with the given log-valued
// parameters. A nil slice yields all-zero parameters.
func NewSquareExponentialPeriodic(params []float64) (*SquareExponentialPeriodic, error) {
	k := &SquareExponentialPeriodic{params: make([]float64, 5)}
	if params != nil {
		if err := k.SetParameters(params); err != nil {
			return nil, err
		}
	}
	return k, nil
}

func (k *SquareExponentialPeriodic) ParameterCount() int      { return 5 }
func (k *SquareExponentialPeriodic) ExtraParameterCount() int { return 0 }

func (k *SquareExponentialPeriodic) Parameters() []float64 {
	out := make([]float64, len(k.params))
	copy(out, k.params)
	return out
}

func (k *SquareExponentialPeriodic) SetParameters(params []float64) error {
	if err := checkCount(len(params), k.ParameterCount()); err != nil {
		return err
	}
	copy(k.params, params)
	return nil
}

func (k *SquareExponentialPeriodic) SetExtraParameters(params []float64) error {
	return checkCount(len(params), 0)
}

func (k *SquareExponentialPeriodic) Evaluate(x1, x2 mat.Vector) (*mat.Dense, []*mat.Dense) {
	lsP := math.Exp(k.params[0])
	period := math.Exp(k.params[1])
	svP2 := math.Exp(2 * k.params[2])
	lsSE := math.Exp(k.params[3])
	svSE2 := math.Exp(2 * k.params[4])

	d := distance(x1, x2)
	per, perGradLen, perGradPeriod := periodicTerm(d, lsP, period)
	se, seGradLen := squareExponentialTerm(d, lsSE)

	covP := scaled(svP2, per, nil)
	covSE := scaled(svSE2, se, nil)

	cov := mat.DenseCopyOf(covP)
	cov.Add(cov, covSE)

	grad := []*mat.Dense{
		scaled(1, covP, perGradLen),
		scaled(1, covP, perGradPeriod),
		scaled(2, covP, nil),
		scaled(1, covSE, seGradLen),
		scaled(2, covSE, nil),
	}
	return cov, grad
}
