package blas

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSdotProvidersAgree pins the builtin dot product to the gonum one.
func TestSdotProvidersAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	x := randSlice(rng, 17)
	y := randSlice(rng, 17)

	got := Builtin().Sdot(17, x, 1, y, 1)
	want := Default().Sdot(17, x, 1, y, 1)
	require.InDelta(t, want, got, 1e-4)
}

// TestSaxpyProvidersAgree pins the builtin scaled accumulate to the
// gonum one, including a strided access pattern.
func TestSaxpyProvidersAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	x := randSlice(rng, 20)
	y1 := randSlice(rng, 20)
	y2 := append([]float32(nil), y1...)

	Builtin().Saxpy(10, 0.75, x, 2, y1, 2)
	Default().Saxpy(10, 0.75, x, 2, y2, 2)
	for i := range y1 {
		require.InDelta(t, y2[i], y1[i], 1e-5)
	}
}

// TestSgemmProvidersAgree pins the builtin row-major matrix multiply to
// the gonum one for every transpose combination.
func TestSgemmProvidersAgree(t *testing.T) {
	const m, n, k = 4, 5, 3
	rng := rand.New(rand.NewSource(3))

	for _, tc := range []struct {
		name           string
		transA, transB bool
	}{
		{"NN", false, false},
		{"TN", true, false},
		{"NT", false, true},
		{"TT", true, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// op(A) is m x k, op(B) is k x n.
			lda := k
			if tc.transA {
				lda = m
			}
			ldb := n
			if tc.transB {
				ldb = k
			}
			a := randSlice(rng, m*k)
			b := randSlice(rng, k*n)
			c1 := make([]float32, m*n)
			c2 := make([]float32, m*n)

			Builtin().Sgemm(tc.transA, tc.transB, m, n, k, 1.5, a, lda, b, ldb, 0, c1, n)
			Default().Sgemm(tc.transA, tc.transB, m, n, k, 1.5, a, lda, b, ldb, 0, c2, n)
			for i := range c1 {
				require.InDelta(t, c2[i], c1[i], 1e-4)
			}
		})
	}
}

// TestSgemmBuiltinTransposedShapes pins the builtin's transposed
// indexing on a rectangular product where the untransposed index would
// run past the operand buffers.
func TestSgemmBuiltinTransposedShapes(t *testing.T) {
	// op(A) = Aᵀ with A stored 3x2, op(B) = Bᵀ with B stored 2x3.
	a := []float32{1, 2, 3, 4, 5, 6}
	b := []float32{1, 0, 1, 0, 1, 1}
	c := make([]float32, 4)

	Builtin().Sgemm(true, true, 2, 2, 3, 1, a, 2, b, 3, 0, c, 2)
	require.Equal(t, []float32{6, 8, 8, 10}, c)
}

// TestSgemmAccumulates verifies the beta term against a hand-computed
// product.
func TestSgemmAccumulates(t *testing.T) {
	// A = [1 2; 3 4], B = I, C starts at ones.
	a := []float32{1, 2, 3, 4}
	b := []float32{1, 0, 0, 1}
	c := []float32{1, 1, 1, 1}

	Builtin().Sgemm(false, false, 2, 2, 2, 1, a, 2, b, 2, 1, c, 2)
	require.Equal(t, []float32{2, 3, 4, 5}, c)
}

func randSlice(rng *rand.Rand, n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = rng.Float32()*2 - 1
	}
	return s
}
