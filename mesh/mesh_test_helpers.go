package mesh

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// Standard meshes shared by the tests of the geometry, neighbor and filter
// packages.

// UnitTetParts is the right corner tetrahedron with unit edges along the axes
func UnitTetParts() (nodes []Node, elements []Element) {
	nodes = []Node{
		{ID: 1, Pos: r3.Vec{X: 0, Y: 0, Z: 0}},
		{ID: 2, Pos: r3.Vec{X: 1, Y: 0, Z: 0}},
		{ID: 3, Pos: r3.Vec{X: 0, Y: 1, Z: 0}},
		{ID: 4, Pos: r3.Vec{X: 0, Y: 0, Z: 1}},
	}
	elements = []Element{{ID: 1, Variant: Tetra4, Nodes: []int{1, 2, 3, 4}}}
	return
}

// QuadraticTetParts is UnitTetParts with midside nodes added, the midside
// nodes being displaced off the straight edges.
func QuadraticTetParts() (nodes []Node, elements []Element) {
	nodes, _ = UnitTetParts()
	mid := [][2]int{{1, 2}, {2, 3}, {3, 1}, {1, 4}, {2, 4}, {3, 4}}
	ids := make([]int, 0, 10)
	ids = append(ids, 1, 2, 3, 4)
	for i, pair := range mid {
		a, b := nodes[pair[0]-1].Pos, nodes[pair[1]-1].Pos
		p := r3.Add(r3.Scale(0.5, r3.Add(a, b)), r3.Vec{X: 0.1, Y: 0.1, Z: 0.1})
		nodes = append(nodes, Node{ID: 5 + i, Pos: p})
		ids = append(ids, 5+i)
	}
	elements = []Element{{ID: 1, Variant: Tetra10, Nodes: ids}}
	return
}

// EquilateralShellParts is a single triangle of the given side in the z=0
// plane, optionally quadratic.
func EquilateralShellParts(side float64, quadratic bool) (nodes []Node, elements []Element) {
	h := side * math.Sqrt(3) / 2
	nodes = []Node{
		{ID: 1, Pos: r3.Vec{X: 0, Y: 0}},
		{ID: 2, Pos: r3.Vec{X: side, Y: 0}},
		{ID: 3, Pos: r3.Vec{X: side / 2, Y: h}},
	}
	if !quadratic {
		elements = []Element{{ID: 1, Variant: Tri3, Nodes: []int{1, 2, 3}}}
		return
	}
	nodes = append(nodes,
		Node{ID: 4, Pos: r3.Vec{X: side / 2, Y: 0, Z: 0.3}},
		Node{ID: 5, Pos: r3.Vec{X: 3 * side / 4, Y: h / 2, Z: 0.3}},
		Node{ID: 6, Pos: r3.Vec{X: side / 4, Y: h / 2, Z: 0.3}},
	)
	elements = []Element{{ID: 1, Variant: Tri6, Nodes: []int{1, 2, 3, 4, 5, 6}}}
	return
}

// TetBlockParts builds an nx x ny x nz block of cubes of edge h, each cube
// split into six tetrahedra around its main diagonal. When jitter is non zero
// the interior nodes are displaced randomly by up to jitter*h per axis.
func TetBlockParts(nx, ny, nz int, h, jitter float64, seed int64) (nodes []Node, elements []Element) {
	var (
		rng    = rand.New(rand.NewSource(seed))
		nodeID = func(i, j, k int) int {
			return 1 + i + (nx+1)*(j+(ny+1)*k)
		}
	)
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				p := r3.Vec{X: float64(i) * h, Y: float64(j) * h, Z: float64(k) * h}
				interior := i > 0 && i < nx && j > 0 && j < ny && k > 0 && k < nz
				if jitter != 0 && interior {
					p = r3.Add(p, r3.Vec{
						X: (2*rng.Float64() - 1) * jitter * h,
						Y: (2*rng.Float64() - 1) * jitter * h,
						Z: (2*rng.Float64() - 1) * jitter * h,
					})
				}
				nodes = append(nodes, Node{ID: nodeID(i, j, k), Pos: p})
			}
		}
	}
	var eid int
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				var (
					v000 = nodeID(i, j, k)
					v100 = nodeID(i+1, j, k)
					v010 = nodeID(i, j+1, k)
					v001 = nodeID(i, j, k+1)
					v110 = nodeID(i+1, j+1, k)
					v101 = nodeID(i+1, j, k+1)
					v011 = nodeID(i, j+1, k+1)
					v111 = nodeID(i+1, j+1, k+1)
				)
				for _, tet := range [][4]int{
					{v000, v100, v110, v111},
					{v000, v100, v101, v111},
					{v000, v010, v110, v111},
					{v000, v010, v011, v111},
					{v000, v001, v101, v111},
					{v000, v001, v011, v111},
				} {
					eid++
					elements = append(elements, Element{ID: eid, Variant: Tetra4, Nodes: append([]int(nil), tet[:]...)})
				}
			}
		}
	}
	return
}

// NewTestMesh wraps parts into a mesh with one optimized domain holding every
// element. It panics on invalid input.
func NewTestMesh(nodes []Node, elements []Element, thickness float64) *Mesh {
	m, err := NewMesh(nodes, elements, []Domain{
		{Name: "Eall", AllElements: true, Thickness: thickness, Optimized: true},
	})
	if err != nil {
		panic(err)
	}
	return m
}
