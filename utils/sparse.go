package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
)

// CSR is a read only sparse operator used to apply precomputed weight
// factors to a dense field.
type CSR struct {
	M    *sparse.CSR
	name string
}

// NewCSRFromRows composes an nr x nc CSR matrix where row i holds the values
// vals[i] at columns cols[i]. Columns within each row are expected in
// ascending order, which fixes the summation order of MulVec.
func NewCSRFromRows(nc int, cols [][]int, vals [][]float64, name string) (R CSR) {
	var (
		nr     = len(cols)
		nnz    int
		indptr = make([]int, nr+1)
	)
	if len(vals) != nr {
		panic(fmt.Errorf("row count mismatch for %s: %d column rows, %d value rows", name, nr, len(vals)))
	}
	for i := range cols {
		if len(cols[i]) != len(vals[i]) {
			panic(fmt.Errorf("row %d of %s has %d columns and %d values", i, name, len(cols[i]), len(vals[i])))
		}
		nnz += len(cols[i])
		indptr[i+1] = nnz
	}
	ind := make([]int, 0, nnz)
	data := make([]float64, 0, nnz)
	for i := range cols {
		for ii, j := range cols[i] {
			if j < 0 || j >= nc {
				panic(fmt.Errorf("column %d out of range [0,%d) in row %d of %s", j, nc, i, name))
			}
			ind = append(ind, j)
			data = append(data, vals[i][ii])
		}
	}
	R = CSR{
		M:    sparse.NewCSR(nr, nc, indptr, ind, data),
		name: name,
	}
	return
}

func (m CSR) Dims() (r, c int) { return m.M.Dims() }

// MulVec returns A*x in a newly allocated slice.
func (m CSR) MulVec(x []float64) (y []float64) {
	var (
		nr, nc = m.Dims()
	)
	if len(x) != nc {
		panic(fmt.Errorf("dimension mismatch multiplying %s: %d columns, vector length %d", m.name, nc, len(x)))
	}
	y = make([]float64, nr)
	m.M.MulVecTo(y, false, x)
	return
}

// RowSums returns the sum of the stored values of every row.
func (m CSR) RowSums() (sums []float64) {
	_, nc := m.Dims()
	return m.MulVec(ConstArray(nc, 1))
}
