// Package mathtools provides the small set of matrix helpers shared by the
// covariance functions and the Gaussian process core: pairwise squared
// distances and seeded random-matrix generation.
package mathtools

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// SquareDistance returns the matrix of pairwise squared Euclidean distances
// between the columns of a and the columns of b. The result has
// cols(a) rows and cols(b) columns, so
// SquareDistance(a, b) == SquareDistance(b, a)ᵀ.
// Both matrices must have the same number of rows.
func SquareDistance(a, b mat.Matrix) *mat.Dense {
	ra, ca := a.Dims()
	rb, cb := b.Dims()
	if ra != rb {
		panic("mathtools: row dimension mismatch")
	}

	out := mat.NewDense(ca, cb, nil)
	for i := 0; i < ca; i++ {
		for j := 0; j < cb; j++ {
			var sum float64
			for k := 0; k < ra; k++ {
				d := a.At(k, i) - b.At(k, j)
				sum += d * d
			}
			out.Set(i, j, sum)
		}
	}
	return out
}

// SquareDistanceSelf is shorthand for SquareDistance(a, a).
func SquareDistanceSelf(a mat.Matrix) *mat.Dense {
	return SquareDistance(a, a)
}

// UniformRandomMatrix returns a rows×cols matrix with entries drawn
// uniformly from [0, 1) using the supplied source.
func UniformRandomMatrix(rng *rand.Rand, rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.Float64()
	}
	return mat.NewDense(rows, cols, data)
}

// NormalRandomMatrix returns a rows×cols matrix with standard-normal
// entries using the supplied source.
func NormalRandomMatrix(rng *rand.Rand, rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return mat.NewDense(rows, cols, data)
}

// Eye returns the n×n identity matrix.
func Eye(n int) *mat.Dense {
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		out.Set(i, i, 1)
	}
	return out
}
