package mat

import "fmt"

// Csr is a compressed-sparse-row matrix of float32.  RowPtr has M+1
// entries; the nonzeros of row i live in [RowPtr[i], RowPtr[i+1]).
// Once built, a Csr is never mutated except by Transpose, which the
// solvers apply to a private copy.
type Csr struct {
	M, N   int
	Val    []float32
	RowPtr []int
	ColInd []int
}

// NewCsr wraps pre-built CSR buffers.  N cannot be deduced from the
// buffers and must be supplied by the caller.
func NewCsr(n int, val []float32, rowPtr, colInd []int) *Csr {
	if len(rowPtr) < 1 {
		panic("mat: CSR row pointer must have at least one entry")
	}
	if len(val) != len(colInd) {
		panic(fmt.Sprintf("mat: CSR val/colInd length mismatch %d vs %d",
			len(val), len(colInd)))
	}
	return &Csr{
		M:      len(rowPtr) - 1,
		N:      n,
		Val:    val,
		RowPtr: rowPtr,
		ColInd: colInd,
	}
}

func (c *Csr) Nnz() int {
	return len(c.Val)
}

func (c *Csr) Clone() *Csr {
	n := &Csr{
		M:      c.M,
		N:      c.N,
		Val:    make([]float32, len(c.Val)),
		RowPtr: make([]int, len(c.RowPtr)),
		ColInd: make([]int, len(c.ColInd)),
	}
	copy(n.Val, c.Val)
	copy(n.RowPtr, c.RowPtr)
	copy(n.ColInd, c.ColInd)
	return n
}

// Transpose converts the matrix in place to the CSR form of its
// transpose, i.e. a CSR-to-CSC conversion followed by a swap of the
// roles of rows and columns.  Runs in O(nnz + N) with a counting pass.
func (c *Csr) Transpose() {
	nnz := c.Nnz()
	newRowPtr := make([]int, c.N+1)
	newColInd := make([]int, nnz)
	newVal := make([]float32, nnz)

	for _, col := range c.ColInd {
		newRowPtr[col+1]++
	}
	for i := 0; i < c.N; i++ {
		newRowPtr[i+1] += newRowPtr[i]
	}

	next := make([]int, c.N)
	copy(next, newRowPtr[:c.N])
	for row := 0; row < c.M; row++ {
		for i := c.RowPtr[row]; i < c.RowPtr[row+1]; i++ {
			col := c.ColInd[i]
			dst := next[col]
			next[col]++
			newColInd[dst] = row
			newVal[dst] = c.Val[i]
		}
	}

	c.M, c.N = c.N, c.M
	c.Val = newVal
	c.RowPtr = newRowPtr
	c.ColInd = newColInd
}
