// Package spatial buckets points into a uniform grid whose cell edge equals
// the search radius, so that every point closer than the radius to a query
// lies in the 3x3x3 block of cells around the query cell.
//
// Cells are addressed by integer indices floor((p - Origin) / Size) per
// axis. A point lying exactly on a cell face belongs to the upper cell.
// A grid spans at most MaxCellsPerAxis cells along each axis from its origin,
// so radii far below the extent of the points are rejected instead of
// overflowing the integer cell indices.
package spatial

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

const MaxCellsPerAxis = 1 << 30

// Cell is the integer index of a grid cell along x, y and z
type Cell [3]int

func (c Cell) Add(o Cell) Cell {
	return Cell{c[0] + o[0], c[1] + o[1], c[2] + o[2]}
}

// Less orders cells lexicographically by x, then y, then z
func (c Cell) Less(o Cell) bool {
	for i := 0; i < 3; i++ {
		if c[i] != o[i] {
			return c[i] < o[i]
		}
	}
	return false
}

var (
	fullStencil    [27]Cell
	forwardStencil [13]Cell
)

func init() {
	var nf, nh int
	for i := -1; i <= 1; i++ {
		for j := -1; j <= 1; j++ {
			for k := -1; k <= 1; k++ {
				off := Cell{i, j, k}
				fullStencil[nf] = off
				nf++
				if (Cell{}).Less(off) {
					forwardStencil[nh] = off
					nh++
				}
			}
		}
	}
}

// Neighborhood returns the 27 cells of the 3x3x3 block centered on c
func (c Cell) Neighborhood() (cells [27]Cell) {
	for i, off := range fullStencil {
		cells[i] = c.Add(off)
	}
	return
}

// ForwardNeighbors returns the 13 cells of the block around c whose offset is
// lexicographically positive. Over all cells every unordered pair of
// adjacent cells appears exactly once.
func (c Cell) ForwardNeighbors() (cells [13]Cell) {
	for i, off := range forwardStencil {
		cells[i] = c.Add(off)
	}
	return
}

type Grid struct {
	Origin r3.Vec
	Size   float64
	cells  map[Cell][]int
	count  int
}

func NewGrid(origin r3.Vec, size float64) (g *Grid, err error) {
	if !(size > 0) || math.IsInf(size, 0) {
		return nil, fmt.Errorf("grid cell size must be positive and finite, have %v", size)
	}
	g = &Grid{
		Origin: origin,
		Size:   size,
		cells:  make(map[Cell][]int),
	}
	return
}

// NewGridOf creates a grid anchored at the lower corner of the bounding box
// of pts and inserts every point under its slice index.
func NewGridOf(pts []r3.Vec, size float64) (g *Grid, err error) {
	var (
		lo, hi = Bounds(pts)
	)
	if g, err = NewGrid(lo, size); err != nil {
		return
	}
	if err = g.CheckExtent(lo, hi); err != nil {
		return nil, err
	}
	for i, p := range pts {
		g.Insert(i, p)
	}
	return
}

// CheckExtent fails when a point of the box [lo, hi] is MaxCellsPerAxis or
// more cells away from the origin along some axis
func (g *Grid) CheckExtent(lo, hi r3.Vec) error {
	for _, p := range [2]r3.Vec{lo, hi} {
		d := r3.Sub(p, g.Origin)
		for _, x := range [3]float64{d.X, d.Y, d.Z} {
			if !(math.Abs(x)/g.Size < MaxCellsPerAxis) {
				return fmt.Errorf("grid cell size %g is too small for a point extent of %g, at most %d cells per axis",
					g.Size, math.Abs(x), MaxCellsPerAxis)
			}
		}
	}
	return nil
}

func (g *Grid) CellOf(p r3.Vec) Cell {
	return Cell{
		int(math.Floor((p.X - g.Origin.X) / g.Size)),
		int(math.Floor((p.Y - g.Origin.Y) / g.Size)),
		int(math.Floor((p.Z - g.Origin.Z) / g.Size)),
	}
}

// CellCenter is Origin + Size*(0.5 + k) per axis
func (g *Grid) CellCenter(c Cell) r3.Vec {
	return r3.Vec{
		X: g.Origin.X + g.Size*(0.5+float64(c[0])),
		Y: g.Origin.Y + g.Size*(0.5+float64(c[1])),
		Z: g.Origin.Z + g.Size*(0.5+float64(c[2])),
	}
}

func (g *Grid) Insert(index int, p r3.Vec) {
	c := g.CellOf(p)
	g.cells[c] = append(g.cells[c], index)
	g.count++
}

// Bucket returns the indices inserted into cell c, in insertion order
func (g *Grid) Bucket(c Cell) []int { return g.cells[c] }

// Cells returns the occupied cells in lexicographic order
func (g *Grid) Cells() (cells []Cell) {
	cells = make([]Cell, 0, len(g.cells))
	for c := range g.cells {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].Less(cells[j]) })
	return
}

// Len is the number of inserted points
func (g *Grid) Len() int { return g.count }

// Within calls fn for every point of pts stored in the grid whose distance to
// p is less than the cell size. pts is indexed by the inserted indices.
func (g *Grid) Within(p r3.Vec, pts []r3.Vec, fn func(index int, dist float64)) {
	for _, c := range g.CellOf(p).Neighborhood() {
		for _, ind := range g.cells[c] {
			if dist := r3.Norm(r3.Sub(p, pts[ind])); dist < g.Size {
				fn(ind, dist)
			}
		}
	}
}

// Pairs calls fn once for every unordered pair of stored points closer than
// the cell size, where the first point of the pair lives in one of cells.
// Calling Pairs over a partition of Cells() visits every pair exactly once.
func (g *Grid) Pairs(cells []Cell, pts []r3.Vec, fn func(a, b int, dist float64)) {
	for _, c := range cells {
		bucket := g.cells[c]
		for i, a := range bucket {
			for _, b := range bucket[i+1:] {
				if dist := r3.Norm(r3.Sub(pts[a], pts[b])); dist < g.Size {
					fn(a, b, dist)
				}
			}
		}
		for _, nc := range c.ForwardNeighbors() {
			for _, b := range g.cells[nc] {
				for _, a := range bucket {
					if dist := r3.Norm(r3.Sub(pts[a], pts[b])); dist < g.Size {
						fn(a, b, dist)
					}
				}
			}
		}
	}
}

// Bounds returns the componentwise minimum and maximum of pts
func Bounds(pts []r3.Vec) (lo, hi r3.Vec) {
	if len(pts) == 0 {
		return
	}
	lo, hi = pts[0], pts[0]
	for _, p := range pts[1:] {
		lo = r3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = r3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	return
}
