// Package blas exposes the few dense float32 kernels the inference
// engine needs: dot product, scaled accumulate and matrix multiply over
// contiguous row-major buffers.  The default provider delegates to
// gonum's native BLAS; a pure-Go builtin exists so the engine keeps
// working where gonum is not wanted (tests pin both to equal results).
package blas

import (
	gblas "gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/gonum"
)

// Provider is a stateless kernel set, safe for concurrent use from any
// worker.
type Provider interface {
	// Sdot returns sum(x[i*incX] * y[i*incY]) over n elements.
	Sdot(n int, x []float32, incX int, y []float32, incY int) float32
	// Saxpy computes y[i*incY] += alpha * x[i*incX] over n elements.
	Saxpy(n int, alpha float32, x []float32, incX int, y []float32, incY int)
	// Sgemm computes C = alpha*op(A)*op(B) + beta*C for row-major
	// m x k, k x n and m x n buffers, where op transposes when the
	// corresponding flag is set.
	Sgemm(transA, transB bool, m, n, k int, alpha float32,
		a []float32, lda int, b []float32, ldb int,
		beta float32, c []float32, ldc int)
}

// Default returns the gonum-backed provider.
func Default() Provider {
	return gonumProvider{}
}

// Builtin returns the fallback pure-Go provider.
func Builtin() Provider {
	return builtinProvider{}
}

type gonumProvider struct{}

var impl = gonum.Implementation{}

func (gonumProvider) Sdot(n int, x []float32, incX int, y []float32, incY int) float32 {
	return impl.Sdot(n, x, incX, y, incY)
}

func (gonumProvider) Saxpy(n int, alpha float32, x []float32, incX int, y []float32, incY int) {
	impl.Saxpy(n, alpha, x, incX, y, incY)
}

func (gonumProvider) Sgemm(transA, transB bool, m, n, k int, alpha float32,
	a []float32, lda int, b []float32, ldb int,
	beta float32, c []float32, ldc int) {
	ta, tb := gblas.NoTrans, gblas.NoTrans
	if transA {
		ta = gblas.Trans
	}
	if transB {
		tb = gblas.Trans
	}
	impl.Sgemm(ta, tb, m, n, k, alpha, a, lda, b, ldb, beta, c, ldc)
}
