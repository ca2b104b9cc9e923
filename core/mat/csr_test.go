package mat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// csrToDense expands a CSR matrix for comparison in tests.
func csrToDense(c *Csr) [][]float32 {
	d := make([][]float32, c.M)
	for i := range d {
		d[i] = make([]float32, c.N)
		for j := c.RowPtr[i]; j < c.RowPtr[i+1]; j++ {
			d[i][c.ColInd[j]] += c.Val[j]
		}
	}
	return d
}

// TestCsrTranspose verifies that Transpose produces the CSR form of the
// transposed matrix.
func TestCsrTranspose(t *testing.T) {
	// 2x3: [1 0 2; 0 3 0]
	c := NewCsr(3, []float32{1, 2, 3}, []int{0, 2, 3}, []int{0, 2, 1})
	c.Transpose()

	require.Equal(t, 3, c.M)
	require.Equal(t, 2, c.N)
	require.Equal(t, [][]float32{{1, 0}, {0, 3}, {2, 0}}, csrToDense(c))
}

// TestCsrTransposeRoundTrip verifies that transposing twice restores
// the original matrix.
func TestCsrTransposeRoundTrip(t *testing.T) {
	c := NewCsr(4, []float32{5, 1, 2, 7}, []int{0, 1, 3, 4}, []int{3, 0, 2, 1})
	want := csrToDense(c)

	c.Transpose()
	c.Transpose()
	require.Equal(t, want, csrToDense(c))
}

// TestCsrTransposeEmptyRows covers rows and columns with no nonzeros.
func TestCsrTransposeEmptyRows(t *testing.T) {
	// 3x3 with an empty middle row and an empty first column.
	c := NewCsr(3, []float32{4, 6}, []int{0, 1, 1, 2}, []int{1, 2})
	c.Transpose()
	require.Equal(t, [][]float32{{0, 0, 0}, {4, 0, 0}, {0, 0, 6}}, csrToDense(c))
}
