// Package fit provides gradient-based hyperparameter fitting for a Gaussian
// process, minimizing the negative log marginal likelihood with its analytic
// gradient. Scheduling (how often to re-fit relative to incoming data) is
// left to the caller.
package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/n0madic/go-gp-drift/gp"
)

// Minimize runs an L-BFGS minimization of the GP's negative log likelihood
// over the full hyperparameter vector (log noise first), starting from
// initial. The GP must have inferred training data.
//
// Hyperparameter points where the data covariance matrix cannot be
// factorized evaluate to +Inf, so line searches back away from them.
// On success the best vector is applied to the GP and returned; if the
// optimizer makes no progress the initial parameters are restored.
func Minimize(g *gp.GP, initial []float64) ([]float64, error) {
	if !g.Inferred() {
		return nil, gp.ErrNotInferred
	}

	if err := g.SetHyperParameters(initial); err != nil {
		return nil, err
	}
	initialNLL, err := g.NegLogLikelihood()
	if err != nil {
		return nil, err
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if err := g.SetHyperParameters(x); err != nil {
				return math.Inf(1)
			}
			nll, err := g.NegLogLikelihood()
			if err != nil || math.IsNaN(nll) {
				return math.Inf(1)
			}
			return nll
		},
		Grad: func(grad []float64, x []float64) {
			if err := g.SetHyperParameters(x); err != nil {
				for i := range grad {
					grad[i] = 0
				}
				return
			}
			nllGrad, err := g.NegLogLikelihoodGradient()
			if err != nil {
				for i := range grad {
					grad[i] = 0
				}
				return
			}
			copy(grad, nllGrad)
		},
	}

	x0 := make([]float64, len(initial))
	copy(x0, initial)
	result, optErr := optimize.Minimize(problem, x0, nil, &optimize.LBFGS{})

	improved := result != nil &&
		!math.IsNaN(result.F) && !math.IsInf(result.F, 0) &&
		result.F < initialNLL

	if !improved {
		if err := g.SetHyperParameters(initial); err != nil {
			return nil, err
		}
		if optErr != nil {
			return nil, fmt.Errorf("fit: %w", optErr)
		}
		out := make([]float64, len(initial))
		copy(out, initial)
		return out, nil
	}

	if err := g.SetHyperParameters(result.X); err != nil {
		return nil, err
	}
	out := make([]float64, len(result.X))
	copy(out, result.X)
	return out, nil
}
