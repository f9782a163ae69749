package gp

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/n0madic/go-gp-drift/covariance"
)

func benchmarkGP(b *testing.B, points int) (*GP, *mat.VecDense, *mat.VecDense) {
	b.Helper()
	k, err := covariance.NewPeriodicSquareExponential([]float64{1, 2, 3, 4})
	if err != nil {
		b.Fatalf("Failed to create kernel: %v", err)
	}
	g := New(k, WithSeed(42))

	rng := rand.New(rand.NewSource(123))
	x := mat.NewVecDense(points, nil)
	y := mat.NewVecDense(points, nil)
	for i := 0; i < points; i++ {
		x.SetVec(i, 400*rng.Float64()-200)
		y.SetVec(i, rng.NormFloat64())
	}
	return g, x, y
}

// BenchmarkInfer measures the O(n³) factorization path.
func BenchmarkInfer(b *testing.B) {
	const points = 100

	g, x, y := benchmarkGP(b, points)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if err := g.Infer(x, y); err != nil {
			b.Fatalf("Infer failed: %v", err)
		}
	}
}

// BenchmarkPredict measures the O(n²) per-query path against a cached factor.
func BenchmarkPredict(b *testing.B) {
	const points = 100

	g, x, y := benchmarkGP(b, points)
	if err := g.Infer(x, y); err != nil {
		b.Fatalf("Infer failed: %v", err)
	}
	query := mat.NewVecDense(1, []float64{250})

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		g.Predict(query)
	}
}

// BenchmarkNegLogLikelihoodGradient measures the O(n³) optimization path.
func BenchmarkNegLogLikelihoodGradient(b *testing.B) {
	const points = 100

	g, x, y := benchmarkGP(b, points)
	if err := g.Infer(x, y); err != nil {
		b.Fatalf("Infer failed: %v", err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := g.NegLogLikelihoodGradient(); err != nil {
			b.Fatalf("NegLogLikelihoodGradient failed: %v", err)
		}
	}
}
