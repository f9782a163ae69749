// Package gp implements Gaussian process regression over a scalar input,
// built around a cached Cholesky factorization of the training covariance.
//
// A GP is either Empty (no training data) or Inferred (training data stored
// and the factorization cache valid). Infer transitions to Inferred, Clear
// back to Empty. Setting hyperparameters while Inferred eagerly rebuilds the
// cache from the stored training set, so Predict and the likelihood methods
// always observe the currently set parameters.
//
// All mutable state belongs to a single instance; a GP is not safe for
// concurrent use and must be confined to one goroutine or guarded by the
// caller.
package gp

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/n0madic/go-gp-drift/covariance"
)

var (
	// ErrNotInferred is returned by the likelihood methods on an Empty GP.
	ErrNotInferred = errors.New("gp: no training data inferred")
	// ErrInferred is returned when an Empty-only operation such as
	// SetCovarianceFunction is attempted on an Inferred GP.
	ErrInferred = errors.New("gp: not allowed while training data is inferred")
	// ErrNotPositiveDefinite is returned when the data covariance matrix
	// cannot be Cholesky-factorized even after a jitter retry.
	ErrNotPositiveDefinite = errors.New("gp: covariance matrix not positive definite")
	// ErrDimensionMismatch is returned when vector lengths disagree.
	ErrDimensionMismatch = errors.New("gp: dimension mismatch")
)

// sampleJitter regularizes the (possibly rank-deficient) covariance matrix
// before sampling from it.
const sampleJitter = 1e-6

// defaultLogNoise keeps the default measurement noise small enough that a
// posterior prediction at a training location reproduces the training output.
var defaultLogNoise = math.Log(1e-4)

// GP is a Gaussian process over one covariance function and, once Infer has
// run, one training set with its cached Cholesky factor and solve vector.
type GP struct {
	cov      covariance.Function
	logNoise float64
	rng      *rand.Rand

	// Inferred-state cache: x is non-nil exactly while Inferred, and then
	// chol and alpha are valid for the current hyperparameters.
	x     *mat.VecDense
	y     *mat.VecDense
	chol  mat.Cholesky
	alpha *mat.VecDense
}

// Option configures a GP at construction time.
type Option func(*GP)

// WithSeed fixes the seed of the internal random source used by DrawSample,
// for reproducibility.
func WithSeed(seed int64) Option {
	return func(g *GP) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// WithLogNoise sets the log of the measurement noise standard deviation
// (the first entry of the GP hyperparameter vector).
func WithLogNoise(logNoise float64) Option {
	return func(g *GP) {
		g.logNoise = logNoise
	}
}

// New creates an Empty GP around the given covariance function.
func New(cov covariance.Function, opts ...Option) *GP {
	g := &GP{
		cov:      cov,
		logNoise: defaultLogNoise,
		rng:      rand.New(rand.NewSource(rand.Int63())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Inferred reports whether the GP holds a training set and a valid cache.
func (g *GP) Inferred() bool {
	return g.x != nil
}

// CovarianceFunction returns the owned covariance function.
func (g *GP) CovarianceFunction() covariance.Function {
	return g.cov
}

// SetCovarianceFunction replaces the owned covariance function. It fails
// with ErrInferred, leaving the GP unchanged, if training data has been
// inferred: the cache is tied to the old kernel's parameter layout, so the
// caller must Clear first.
func (g *GP) SetCovarianceFunction(cov covariance.Function) error {
	if g.Inferred() {
		return ErrInferred
	}
	g.cov = cov
	return nil
}

// HyperParameters returns the full hyperparameter vector: the log noise
// followed by the covariance function's parameters.
func (g *GP) HyperParameters() []float64 {
	params := g.cov.Parameters()
	out := make([]float64, 1+len(params))
	out[0] = g.logNoise
	copy(out[1:], params)
	return out
}

// SetHyperParameters replaces the full hyperparameter vector (log noise
// first). While Inferred it eagerly re-factorizes against the stored
// training set; if the new parameters make the data covariance matrix
// numerically indefinite, the previous parameters and cache are restored
// and ErrNotPositiveDefinite is returned.
func (g *GP) SetHyperParameters(params []float64) error {
	want := 1 + g.cov.ParameterCount()
	if len(params) != want {
		return fmt.Errorf("%w: got %d, want %d", covariance.ErrParameterCount, len(params), want)
	}

	oldNoise := g.logNoise
	oldParams := g.cov.Parameters()

	g.logNoise = params[0]
	if err := g.cov.SetParameters(params[1:]); err != nil {
		g.logNoise = oldNoise
		return err
	}

	if !g.Inferred() {
		return nil
	}

	chol, alpha, err := g.factorize(g.x, g.y)
	if err != nil {
		g.logNoise = oldNoise
		if restoreErr := g.cov.SetParameters(oldParams); restoreErr != nil {
			return restoreErr
		}
		return err
	}
	g.chol = *chol
	g.alpha = alpha
	return nil
}

// Infer stores the training set, builds the regularized data covariance
// matrix K(X,X) + σn²·I and caches its Cholesky factor together with
// α = K⁻¹y. On factorization failure the GP is left unchanged.
func (g *GP) Infer(locations, outputs mat.Vector) error {
	if locations.Len() == 0 || locations.Len() != outputs.Len() {
		return fmt.Errorf("%w: %d locations, %d outputs", ErrDimensionMismatch, locations.Len(), outputs.Len())
	}

	x := vecCopy(locations)
	y := vecCopy(outputs)
	chol, alpha, err := g.factorize(x, y)
	if err != nil {
		return err
	}

	g.x = x
	g.y = y
	g.chol = *chol
	g.alpha = alpha
	return nil
}

// Clear discards the training set and the cache, returning to Empty.
func (g *GP) Clear() {
	g.x = nil
	g.y = nil
	g.alpha = nil
	g.chol.Reset()
}

// Predict returns the posterior mean and covariance at the query locations.
// On an Empty GP it returns the degenerate zero-mean, zero-covariance
// result; that is not an error.
//
// The inverse-vector products are computed with triangular solves against
// the cached factor, so a prediction costs O(n²) per query point after the
// one-time O(n³) factorization in Infer.
func (g *GP) Predict(locations mat.Vector) (*mat.VecDense, *mat.Dense) {
	m := locations.Len()
	if !g.Inferred() {
		return mat.NewVecDense(m, nil), mat.NewDense(m, m, nil)
	}

	loc := vecCopy(locations)
	kss, _ := g.cov.Evaluate(loc, loc)
	ksX, _ := g.cov.Evaluate(loc, g.x)

	mean := mat.NewVecDense(m, nil)
	mean.MulVec(ksX, g.alpha)

	// kss - ksX · K⁻¹ · ksXᵀ
	n := g.x.Len()
	solved := mat.NewDense(n, m, nil)
	if err := g.chol.SolveTo(solved, ksX.T()); isFatal(err) {
		// The factorization succeeded in Infer, so the solve cannot fail.
		panic(fmt.Sprintf("gp: solve against cached factor failed: %v", err))
	}
	var cross mat.Dense
	cross.Mul(ksX, solved)
	kss.Sub(kss, &cross)

	return mean, kss
}

// DrawSample draws one sample of the process at the given locations, from
// the prior covariance while Empty and from the posterior while Inferred,
// using the internal random source.
func (g *GP) DrawSample(locations mat.Vector) (*mat.VecDense, error) {
	m := locations.Len()
	z := mat.NewVecDense(m, nil)
	for i := 0; i < m; i++ {
		z.SetVec(i, g.rng.NormFloat64())
	}
	return g.DrawSampleWith(locations, z)
}

// DrawSampleWith is DrawSample with an explicit standard-normal vector, for
// deterministic sampling in tests.
func (g *GP) DrawSampleWith(locations, normal mat.Vector) (*mat.VecDense, error) {
	m := locations.Len()
	if normal.Len() != m {
		return nil, fmt.Errorf("%w: %d locations, %d normal draws", ErrDimensionMismatch, m, normal.Len())
	}

	var mean *mat.VecDense
	var cov *mat.Dense
	if g.Inferred() {
		mean, cov = g.Predict(locations)
	} else {
		loc := vecCopy(locations)
		mean = mat.NewVecDense(m, nil)
		cov, _ = g.cov.Evaluate(loc, loc)
	}

	sym := denseToSym(cov, sampleJitter)
	chol, err := safeFactorize(sym)
	if err != nil {
		return nil, err
	}
	l := mat.NewTriDense(m, mat.Lower, nil)
	chol.LTo(l)

	sample := mat.NewVecDense(m, nil)
	sample.MulVec(l, normal)
	sample.AddVec(sample, mean)
	return sample, nil
}

// NegLogLikelihood returns the negative log marginal likelihood of the
// inferred training set, 0.5·(yᵀα + log|K| + n·log 2π).
func (g *GP) NegLogLikelihood() (float64, error) {
	if !g.Inferred() {
		return 0, ErrNotInferred
	}
	n := float64(g.y.Len())
	return 0.5 * (mat.Dot(g.y, g.alpha) + g.chol.LogDet() + n*math.Log(2*math.Pi)), nil
}

// NegLogLikelihoodGradient returns the gradient of the negative log
// likelihood with respect to every hyperparameter, log noise first,
// each entry being 0.5·tr((K⁻¹ − ααᵀ)·∂K/∂θ).
//
// K⁻¹ is formed explicitly once per call; this path is O(n³) and meant for
// infrequent hyperparameter optimization, not the per-cycle prediction path.
func (g *GP) NegLogLikelihoodGradient() ([]float64, error) {
	if !g.Inferred() {
		return nil, ErrNotInferred
	}

	n := g.x.Len()
	var inv mat.SymDense
	if err := g.chol.InverseTo(&inv); isFatal(err) {
		return nil, fmt.Errorf("%w: %v", ErrNotPositiveDefinite, err)
	}

	// M = K⁻¹ - α·αᵀ
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		ai := g.alpha.AtVec(i)
		for j := 0; j < n; j++ {
			m.Set(i, j, inv.At(i, j)-ai*g.alpha.AtVec(j))
		}
	}

	_, kernGrad := g.cov.Evaluate(g.x, g.x)
	grad := make([]float64, 1+len(kernGrad))

	// Noise term: ∂K/∂(log σn) = 2·σn²·I.
	noiseVar := math.Exp(2 * g.logNoise)
	grad[0] = noiseVar * mat.Trace(m)

	for h, dk := range kernGrad {
		var sum float64
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				sum += m.At(i, j) * dk.At(j, i)
			}
		}
		grad[1+h] = 0.5 * sum
	}
	return grad, nil
}

// factorize builds the regularized data covariance for the candidate
// training set and returns its Cholesky factor and solve vector. The GP
// itself is not mutated, so callers can commit the result atomically.
func (g *GP) factorize(x, y *mat.VecDense) (*mat.Cholesky, *mat.VecDense, error) {
	k, _ := g.cov.Evaluate(x, x)
	sym := denseToSym(k, math.Exp(2*g.logNoise))

	chol, err := safeFactorize(sym)
	if err != nil {
		return nil, nil, err
	}

	alpha := mat.NewVecDense(x.Len(), nil)
	if err := chol.SolveVecTo(alpha, y); isFatal(err) {
		return nil, nil, fmt.Errorf("%w: %v", ErrNotPositiveDefinite, err)
	}
	return chol, alpha, nil
}

// isFatal reports whether a solver error is a real failure. A mat.Condition
// value only warns about ill conditioning; the solution is still produced.
func isFatal(err error) bool {
	if err == nil {
		return false
	}
	_, warning := err.(mat.Condition)
	return !warning
}

// safeFactorize attempts a Cholesky factorization and, if the matrix is not
// numerically positive definite, retries once with adaptive diagonal jitter
// before giving up.
func safeFactorize(sym *mat.SymDense) (*mat.Cholesky, error) {
	var chol mat.Cholesky
	if chol.Factorize(sym) {
		return &chol, nil
	}

	n := sym.SymmetricDim()
	trace := 0.0
	for i := 0; i < n; i++ {
		trace += sym.At(i, i)
	}
	eps := 1e-8 * trace / float64(n)
	for i := 0; i < n; i++ {
		sym.SetSym(i, i, sym.At(i, i)+eps)
	}
	if chol.Factorize(sym) {
		return &chol, nil
	}
	return nil, fmt.Errorf("%w even with jitter", ErrNotPositiveDefinite)
}

// denseToSym converts a (numerically) symmetric dense matrix to SymDense,
// adding the given value to the diagonal.
func denseToSym(d *mat.Dense, diag float64) *mat.SymDense {
	n, _ := d.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			sym.SetSym(j, i, 0.5*(d.At(i, j)+d.At(j, i)))
		}
		sym.SetSym(i, i, d.At(i, i)+diag)
	}
	return sym
}

func vecCopy(v mat.Vector) *mat.VecDense {
	out := mat.NewVecDense(v.Len(), nil)
	out.CopyVec(v)
	return out
}
