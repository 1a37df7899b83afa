// Package neighbors derives the weight data used by the sensitivity filters:
// node to element adjacency with node weight factors, and the radius bounded
// near sets of the optimization elements.
package neighbors

import (
	"fmt"
	"math"
	"sort"

	"github.com/notargets/gobeso/geometry"
	"github.com/notargets/gobeso/mesh"
	"github.com/notargets/gobeso/spatial"
	"github.com/notargets/gobeso/utils"
	"gonum.org/v1/gonum/spatial/r3"
)

// Weighted is one neighbor with its weight factor. Index is a node or element
// index of the mesh, depending on the table holding it.
type Weighted struct {
	Index  int
	Weight float64
}

// BuildAdjacency returns, for every node index, the distinct indices of the
// elements referencing the node in ascending order. Nodes referenced by no
// element get an empty list.
func BuildAdjacency(m *mesh.Mesh) (adj [][]int) {
	adj = make([][]int, m.NumNodes())
	for k := 0; k < m.NumElements(); k++ {
		for _, ni := range m.ElementNodes(k) {
			if l := len(adj[ni]); l != 0 && adj[ni][l-1] == k {
				continue
			}
			adj[ni] = append(adj[ni], k)
		}
	}
	return
}

// NodeWeights computes the share of each adjacent element's sensitivity
// attributed to a node. For a node with adjacent elements E at centroid
// distances d(e), S = sum d(e):
//
//	w(e) = 1/(|E|-1) * (1 - d(e)/S)   when |E| > 1
//	w(e) = 1                          when |E| = 1
//
// The weights of a node sum to one. If every adjacent centroid coincides with
// the node, S is zero and the weights are 1/|E|.
func NodeWeights(m *mesh.Mesh, adj [][]int, cg *geometry.Centroids, NP int) (weights [][]Weighted) {
	weights = make([][]Weighted, len(adj))
	utils.ParallelFor(NP, len(adj), func(_, nMin, nMax int) {
		for ni := nMin; ni < nMax; ni++ {
			var (
				E    = adj[ni]
				pos  = m.Nodes[ni].Pos
				dist = make([]float64, len(E))
				sum  float64
			)
			if len(E) == 0 {
				continue
			}
			row := make([]Weighted, len(E))
			if len(E) == 1 {
				row[0] = Weighted{Index: E[0], Weight: 1}
				weights[ni] = row
				continue
			}
			for i, k := range E {
				dist[i] = r3.Norm(r3.Sub(cg.Points[k], pos))
				sum += dist[i]
			}
			scale := 1 / float64(len(E)-1)
			for i, k := range E {
				w := 1 / float64(len(E))
				if sum != 0 {
					w = scale * (1 - dist[i]/sum)
				}
				row[i] = Weighted{Index: k, Weight: w}
			}
			weights[ni] = row
		}
	})
	return
}

func checkRadius(rmin float64) error {
	if !(rmin > 0) || math.IsInf(rmin, 0) {
		return fmt.Errorf("filter radius must be positive and finite, have %v", rmin)
	}
	return nil
}

// NearNodes returns, for every element of the optimization set in order, the
// nodes closer than rmin to the element centroid with weight rmin - distance,
// sorted by node index.
func NearNodes(m *mesh.Mesh, cg *geometry.Centroids, rmin float64, NP int) (near [][]Weighted, err error) {
	if err = checkRadius(rmin); err != nil {
		return
	}
	var (
		opt = m.Optimization()
		pts = make([]r3.Vec, m.NumNodes())
		g   *spatial.Grid
	)
	for ni, n := range m.Nodes {
		pts[ni] = n.Pos
	}
	if g, err = spatial.NewGridOf(pts, rmin); err != nil {
		return
	}
	near = make([][]Weighted, len(opt))
	utils.ParallelFor(NP, len(opt), func(_, pMin, pMax int) {
		for pos := pMin; pos < pMax; pos++ {
			var row []Weighted
			g.Within(cg.Points[opt[pos]], pts, func(ni int, dist float64) {
				row = append(row, Weighted{Index: ni, Weight: rmin - dist})
			})
			sortWeighted(row)
			near[pos] = row
		}
	})
	return
}

type pair struct {
	a, b int // Positions within the optimization set
	w    float64
}

// NearElements returns, for every element of the optimization set in order,
// the other optimization elements whose centroids are closer than rmin, with
// weight rmin - distance, sorted by element index. Each pair weight is
// computed once and stored on both sides.
func NearElements(m *mesh.Mesh, cg *geometry.Centroids, rmin float64, NP int) (near [][]Weighted, err error) {
	if err = checkRadius(rmin); err != nil {
		return
	}
	var (
		opt = m.Optimization()
		pts = make([]r3.Vec, len(opt))
		g   *spatial.Grid
	)
	if g, err = spatial.NewGrid(cg.Min, rmin); err != nil {
		return
	}
	if err = g.CheckExtent(cg.Min, cg.Max); err != nil {
		return
	}
	for pos, k := range opt {
		pts[pos] = cg.Points[k]
		g.Insert(pos, pts[pos])
	}
	var (
		cells = g.Cells()
		pm    = utils.NewPartitionMap(NP, len(cells))
		found = make([][]pair, pm.ParallelDegree)
	)
	utils.ParallelFor(pm.ParallelDegree, len(cells), func(bn, cMin, cMax int) {
		g.Pairs(cells[cMin:cMax], pts, func(a, b int, dist float64) {
			found[bn] = append(found[bn], pair{a: a, b: b, w: rmin - dist})
		})
	})
	near = make([][]Weighted, len(opt))
	for _, pairs := range found {
		for _, p := range pairs {
			near[p.a] = append(near[p.a], Weighted{Index: opt[p.b], Weight: p.w})
			near[p.b] = append(near[p.b], Weighted{Index: opt[p.a], Weight: p.w})
		}
	}
	utils.ParallelFor(NP, len(near), func(_, pMin, pMax int) {
		for pos := pMin; pos < pMax; pos++ {
			sortWeighted(near[pos])
		}
	})
	return
}

func sortWeighted(row []Weighted) {
	sort.Slice(row, func(i, j int) bool { return row[i].Index < row[j].Index })
}

// Graph bundles the neighbor data of one mesh and radius. Tables not needed by
// the requested filter are left nil.
type Graph struct {
	RMin         float64
	Adjacency    [][]int      // Node index to element indices
	NodeWeights  [][]Weighted // Node index to element weights
	NearNodes    [][]Weighted // Optimization position to node weights
	NearElements [][]Weighted // Optimization position to element weights
}

func Build(m *mesh.Mesh, cg *geometry.Centroids, rmin float64, withNodes, withElements bool, NP int) (gr *Graph, err error) {
	if err = checkRadius(rmin); err != nil {
		return
	}
	gr = &Graph{RMin: rmin}
	if withNodes {
		gr.Adjacency = BuildAdjacency(m)
		gr.NodeWeights = NodeWeights(m, gr.Adjacency, cg, NP)
		if gr.NearNodes, err = NearNodes(m, cg, rmin, NP); err != nil {
			return nil, err
		}
	}
	if withElements {
		if gr.NearElements, err = NearElements(m, cg, rmin, NP); err != nil {
			return nil, err
		}
	}
	return
}
