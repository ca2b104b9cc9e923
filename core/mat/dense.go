package mat

import (
	"encoding/gob"
	"fmt"
)

// Dense is a matrix of float32 stored in one contiguous buffer, either
// row-major or column-major.  The EM solvers keep Theta column-major on
// the sparse path so a whole item column is one contiguous stride for
// the vector kernels, and row-major everywhere else.
type Dense struct {
	Rows, Cols int
	ByRows     bool
	Data       []float32
}

func init() {
	gob.Register(&Dense{})
}

// NewDense creates a zero-initialized rows x cols row-major matrix.
func NewDense(rows, cols int) *Dense {
	return newDense(rows, cols, true)
}

// NewDenseByCols creates a zero-initialized rows x cols column-major matrix.
func NewDenseByCols(rows, cols int) *Dense {
	return newDense(rows, cols, false)
}

func newDense(rows, cols int, byRows bool) *Dense {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("mat: invalid dimensions %dx%d", rows, cols))
	}
	return &Dense{
		Rows:   rows,
		Cols:   cols,
		ByRows: byRows,
		Data:   make([]float32, rows*cols),
	}
}

func (m *Dense) At(i, j int) float32 {
	if m.ByRows {
		return m.Data[i*m.Cols+j]
	}
	return m.Data[j*m.Rows+i]
}

func (m *Dense) Set(i, j int, v float32) {
	if m.ByRows {
		m.Data[i*m.Cols+j] = v
	} else {
		m.Data[j*m.Rows+i] = v
	}
}

// Row returns the contiguous slice backing row i.  Panics if the matrix
// is column-major.
func (m *Dense) Row(i int) []float32 {
	if !m.ByRows {
		panic("mat: Row on a column-major matrix")
	}
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// Col returns the contiguous slice backing column j.  Panics if the
// matrix is row-major.
func (m *Dense) Col(j int) []float32 {
	if m.ByRows {
		panic("mat: Col on a row-major matrix")
	}
	return m.Data[j*m.Rows : (j+1)*m.Rows]
}

func (m *Dense) Zero() {
	for i := range m.Data {
		m.Data[i] = 0
	}
}

func (m *Dense) Clone() *Dense {
	n := &Dense{
		Rows:   m.Rows,
		Cols:   m.Cols,
		ByRows: m.ByRows,
		Data:   make([]float32, len(m.Data)),
	}
	copy(n.Data, m.Data)
	return n
}

// MulElement sets dst[i] = a[i] * b[i].  All three matrices must share
// dimensions; dst may alias a or b.
func MulElement(dst, a, b *Dense) {
	checkSameShape(a, b)
	checkSameShape(dst, a)
	for i := range dst.Data {
		dst.Data[i] = a.Data[i] * b.Data[i]
	}
}

// DivElement sets dst[i] = a[i] / b[i], with the convention that the
// result is zero whenever either operand is zero.  The zero guard is
// what lets callers divide counts by model probabilities without
// special-casing empty cells.
func DivElement(dst, a, b *Dense) {
	checkSameShape(a, b)
	checkSameShape(dst, a)
	for i := range dst.Data {
		if a.Data[i] == 0 || b.Data[i] == 0 {
			dst.Data[i] = 0
		} else {
			dst.Data[i] = a.Data[i] / b.Data[i]
		}
	}
}

func checkSameShape(a, b *Dense) {
	if a.Rows != b.Rows || a.Cols != b.Cols || a.ByRows != b.ByRows {
		panic(fmt.Sprintf("mat: shape mismatch %dx%d vs %dx%d",
			a.Rows, a.Cols, b.Rows, b.Cols))
	}
}
