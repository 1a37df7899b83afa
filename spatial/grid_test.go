package spatial

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestStencils(t *testing.T) {
	var (
		c       = Cell{3, -2, 7}
		full    = c.Neighborhood()
		forward = c.ForwardNeighbors()
		seen    = make(map[Cell]int)
	)
	for _, n := range full {
		seen[n]++
	}
	assert.Equal(t, 27, len(seen))
	assert.Equal(t, 1, seen[c])
	for _, n := range forward {
		off := Cell{n[0] - c[0], n[1] - c[1], n[2] - c[2]}
		back := Cell{c[0] - off[0], c[1] - off[1], c[2] - off[2]}
		assert.Equal(t, 1, seen[n])
		seen[n]++
		assert.Equal(t, 1, seen[back], "forward stencil must not hold both %v and its mirror", off)
	}
	// Forward cells, their mirrors and the center cover the block
	assert.Equal(t, 13, len(forward))
}

func TestCellAssignment(t *testing.T) {
	g, err := NewGrid(r3.Vec{X: -1, Y: 0, Z: 2}, 0.5)
	require.NoError(t, err)
	assert.Equal(t, Cell{0, 0, 0}, g.CellOf(r3.Vec{X: -1, Y: 0, Z: 2}))
	// Points on a cell face go to the upper cell
	assert.Equal(t, Cell{1, 2, 0}, g.CellOf(r3.Vec{X: -0.5, Y: 1, Z: 2.25}))
	assert.Equal(t, Cell{-1, -1, -1}, g.CellOf(r3.Vec{X: -1.25, Y: -0.01, Z: 1.9}))
	assert.Equal(t, r3.Vec{X: -0.25, Y: 1.25, Z: 2.25}, g.CellCenter(Cell{1, 2, 0}))
	for _, c := range []Cell{{0, 0, 0}, {4, -3, 9}} {
		assert.Equal(t, c, g.CellOf(g.CellCenter(c)))
	}

	{ // Large offsets with a small cell size
		origin := r3.Vec{X: 1.e6, Y: -3.e7, Z: 42}
		g, err = NewGrid(origin, 1.e-3)
		require.NoError(t, err)
		p := r3.Add(origin, r3.Vec{X: 2.5e-3, Y: 0.5e-3, Z: 10.0005})
		assert.Equal(t, Cell{2, 0, 10000}, g.CellOf(p))
	}

	for _, size := range []float64{0, -1} {
		_, err = NewGrid(r3.Vec{}, size)
		assert.Error(t, err)
	}

	{ // Extents beyond the cell index range are rejected
		pts := []r3.Vec{{X: -1}, {X: 1, Y: 2, Z: 3}}
		g, err = NewGridOf(pts, 1.e-3)
		require.NoError(t, err)
		assert.Equal(t, 2, g.Len())
		_, err = NewGridOf(pts, 2./MaxCellsPerAxis)
		assert.Error(t, err)
		_, err = NewGridOf([]r3.Vec{{X: -1.e300}, {X: 1.e300}}, 1)
		assert.Error(t, err)
		g, err = NewGrid(r3.Vec{}, 1)
		require.NoError(t, err)
		assert.NoError(t, g.CheckExtent(r3.Vec{X: -(MaxCellsPerAxis - 1)}, r3.Vec{Z: MaxCellsPerAxis - 1}))
		assert.Error(t, g.CheckExtent(r3.Vec{}, r3.Vec{Y: MaxCellsPerAxis}))
	}
}

func randomPoints(rng *rand.Rand, n int, scale float64) (pts []r3.Vec) {
	pts = make([]r3.Vec, n)
	for i := range pts {
		pts[i] = r3.Vec{X: rng.Float64() * scale, Y: rng.Float64() * scale * 0.5, Z: rng.Float64() * scale * 0.25}
	}
	return
}

func TestWithinMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, radius := range []float64{0.05, 0.2, 0.7, 3} {
		var (
			pts     = randomPoints(rng, 400, 2)
			queries = randomPoints(rng, 60, 2)
		)
		g, err := NewGridOf(pts, radius)
		require.NoError(t, err)
		assert.Equal(t, len(pts), g.Len())
		for _, q := range queries {
			var got, want []int
			g.Within(q, pts, func(ind int, dist float64) {
				got = append(got, ind)
				assert.True(t, dist < radius)
			})
			for i, p := range pts {
				if r3.Norm(r3.Sub(q, p)) < radius {
					want = append(want, i)
				}
			}
			sort.Ints(got)
			assert.Equal(t, want, got)
		}
	}
}

func TestPairsMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	type pair struct{ a, b int }
	for _, radius := range []float64{0.1, 0.35, 1.1} {
		pts := randomPoints(rng, 300, 3)
		g, err := NewGridOf(pts, radius)
		require.NoError(t, err)
		var (
			cells = g.Cells()
			got   = make(map[pair]int)
			want  = make(map[pair]int)
		)
		for i := 1; i < len(cells); i++ {
			require.True(t, cells[i-1].Less(cells[i]))
		}
		// Visit the cells in two halves, the way workers would
		half := len(cells) / 2
		for _, part := range [][]Cell{cells[:half], cells[half:]} {
			g.Pairs(part, pts, func(a, b int, dist float64) {
				if a > b {
					a, b = b, a
				}
				got[pair{a, b}]++
				assert.Equal(t, r3.Norm(r3.Sub(pts[a], pts[b])), dist)
			})
		}
		for a := range pts {
			for b := a + 1; b < len(pts); b++ {
				if r3.Norm(r3.Sub(pts[a], pts[b])) < radius {
					want[pair{a, b}] = 1
				}
			}
		}
		assert.Equal(t, want, got)
	}
}

func TestBounds(t *testing.T) {
	lo, hi := Bounds(nil)
	assert.Equal(t, r3.Vec{}, lo)
	assert.Equal(t, r3.Vec{}, hi)
	lo, hi = Bounds([]r3.Vec{{X: 1, Y: -2, Z: 3}, {X: -1, Y: 5, Z: 0}, {X: 0, Y: 0, Z: 9}})
	assert.Equal(t, r3.Vec{X: -1, Y: -2, Z: 0}, lo)
	assert.Equal(t, r3.Vec{X: 1, Y: 5, Z: 9}, hi)
}
