package mathtools

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestSquareDistanceSymmetry(t *testing.T) {
	const tol = 1e-12

	a := mat.NewDense(4, 3, []float64{
		3, 5, 5,
		4, 6, 6,
		3, 2, 3,
		1, 0, 3,
	})
	b := mat.NewDense(4, 5, []float64{
		1, 4, 5, 6, 7,
		3, 4, 5, 6, 7,
		0, 2, 4, 20, 2,
		2, 3, -2, -2, 2,
	})

	ab := SquareDistance(a, b)
	ba := SquareDistance(b, a)

	r, c := ab.Dims()
	if rb, cb := ba.Dims(); rb != c || cb != r {
		t.Fatalf("Dimension mismatch: got %dx%d and %dx%d", r, c, rb, cb)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.Abs(ab.At(i, j)-ba.At(j, i)) > tol {
				t.Errorf("SquareDistance(a,b) not transpose of SquareDistance(b,a) at (%d,%d)", i, j)
			}
		}
	}
}

func TestSquareDistanceCopyInvariance(t *testing.T) {
	const tol = 1e-12

	a := mat.NewDense(4, 3, []float64{
		3, 5, 5,
		4, 6, 6,
		3, 2, 3,
		1, 0, 3,
	})
	aCopy := mat.DenseCopyOf(a)

	same := SquareDistance(a, a)
	copied := SquareDistance(a, aCopy)
	self := SquareDistanceSelf(a)

	r, c := same.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.Abs(same.At(i, j)-copied.At(i, j)) > tol {
				t.Errorf("Copy changed result at (%d,%d)", i, j)
			}
			if math.Abs(same.At(i, j)-self.At(i, j)) > tol {
				t.Errorf("Self shorthand differs at (%d,%d)", i, j)
			}
		}
	}
}

func TestSquareDistanceReference(t *testing.T) {
	const tol = 1e-12

	a := mat.NewDense(4, 3, []float64{
		3, 5, 5,
		4, 6, 6,
		3, 2, 3,
		1, 0, 3,
	})
	b := mat.NewDense(4, 5, []float64{
		1, 4, 5, 6, 7,
		3, 4, 5, 6, 7,
		0, 2, 4, 20, 2,
		2, 3, -2, -2, 2,
	})
	c := mat.NewDense(3, 4, []float64{
		1, 2, 3, 4,
		4, 5, 6, 7,
		6, 7, 8, 9,
	})

	wantCC := mat.NewDense(4, 4, []float64{
		0, 3, 12, 27,
		3, 0, 3, 12,
		12, 3, 0, 3,
		27, 12, 3, 0,
	})
	wantAB := mat.NewDense(3, 5, []float64{
		15, 6, 15, 311, 27,
		33, 14, 9, 329, 9,
		35, 6, 27, 315, 7,
	})

	if got := SquareDistance(c, c); !mat.EqualApprox(got, wantCC, tol) {
		t.Errorf("SquareDistance(c,c) mismatch:\ngot:\n%v\nwant:\n%v",
			mat.Formatted(got), mat.Formatted(wantCC))
	}
	if got := SquareDistance(a, b); !mat.EqualApprox(got, wantAB, tol) {
		t.Errorf("SquareDistance(a,b) mismatch:\ngot:\n%v\nwant:\n%v",
			mat.Formatted(got), mat.Formatted(wantAB))
	}
}

func TestUniformRandomMatrix(t *testing.T) {
	const (
		rows = 200
		cols = 100
		seed = 42
	)

	rng := rand.New(rand.NewSource(seed))
	m := UniformRandomMatrix(rng, rows, cols)

	if r, c := m.Dims(); r != rows || c != cols {
		t.Fatalf("Wrong shape: got %dx%d", r, c)
	}

	var sum float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := m.At(i, j)
			if v < 0 || v >= 1 {
				t.Fatalf("Entry out of [0,1): %f", v)
			}
			sum += v
		}
	}
	mean := sum / (rows * cols)
	if math.Abs(mean-0.5) > 0.02 {
		t.Errorf("Uniform sample mean too far from 0.5: got %f", mean)
	}
}

func TestNormalRandomMatrix(t *testing.T) {
	const (
		rows = 200
		cols = 100
		seed = 42
	)

	rng := rand.New(rand.NewSource(seed))
	m := NormalRandomMatrix(rng, rows, cols)

	if r, c := m.Dims(); r != rows || c != cols {
		t.Fatalf("Wrong shape: got %dx%d", r, c)
	}

	raw := m.RawMatrix().Data
	mean := stat.Mean(raw, nil)
	variance := stat.Variance(raw, nil)
	if math.Abs(mean) > 0.03 {
		t.Errorf("Normal sample mean too far from 0: got %f", mean)
	}
	if math.Abs(variance-1) > 0.05 {
		t.Errorf("Normal sample variance too far from 1: got %f", variance)
	}
}

func TestNormalRandomMatrixReproducible(t *testing.T) {
	const seed = 7

	a := NormalRandomMatrix(rand.New(rand.NewSource(seed)), 5, 5)
	b := NormalRandomMatrix(rand.New(rand.NewSource(seed)), 5, 5)
	if !mat.Equal(a, b) {
		t.Error("Same seed produced different matrices")
	}
}

func TestEye(t *testing.T) {
	const n = 4

	m := Eye(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if m.At(i, j) != want {
				t.Errorf("Eye(%d) wrong at (%d,%d): got %f, want %f", n, i, j, m.At(i, j), want)
			}
		}
	}
}
