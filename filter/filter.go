// Package filter smooths element sensitivity numbers over a radius r_min to
// suppress checkerboard patterns. Prepare builds an immutable Context once per
// mesh and radius; Run applies it to the sensitivity numbers of an iteration
// and may be called repeatedly and concurrently.
package filter

import (
	"fmt"

	"github.com/notargets/gobeso/geometry"
	"github.com/notargets/gobeso/mesh"
	"github.com/notargets/gobeso/neighbors"
	"github.com/notargets/gobeso/utils"
)

type Context struct {
	Type Type
	RMin float64

	mesh  *mesh.Mesh
	graph *neighbors.Graph
	diag  utils.Diagnostics

	// filter1: node weights (nodes x elements) and their row sums
	nodeOp   utils.CSR
	nodeSums []float64
	// filter1: distance weights (optimization elements x nodes)
	// filter2: pair weights (optimization elements x elements)
	nearOp   utils.CSR
	nearSums []float64
}

func Prepare(m *mesh.Mesh, cg *geometry.Centroids, rmin float64, t Type, d utils.Diagnostics) (*Context, error) {
	return PrepareNP(m, cg, rmin, t, d, utils.ParallelDegree())
}

func PrepareNP(m *mesh.Mesh, cg *geometry.Centroids, rmin float64, t Type, d utils.Diagnostics, NP int) (fc *Context, err error) {
	if cg.Mesh() != m {
		return nil, fmt.Errorf("centroids were computed for a different mesh")
	}
	if t != Filter1 && t != Filter2 {
		return nil, fmt.Errorf("unknown filter type %d", t)
	}
	fc = &Context{
		Type: t,
		RMin: rmin,
		mesh: m,
		diag: utils.OrDefault(d),
	}
	if fc.graph, err = neighbors.Build(m, cg, rmin, t == Filter1, t == Filter2, NP); err != nil {
		return nil, err
	}
	switch t {
	case Filter1:
		fc.nodeOp = toCSR(fc.graph.NodeWeights, m.NumElements(), "node weights")
		fc.nodeSums = fc.nodeOp.RowSums()
		fc.nearOp = toCSR(fc.graph.NearNodes, m.NumNodes(), "distance weights")
	case Filter2:
		fc.nearOp = toCSR(fc.graph.NearElements, m.NumElements(), "pair weights")
	}
	fc.nearSums = fc.nearOp.RowSums()
	return
}

func toCSR(rows [][]neighbors.Weighted, nc int, name string) utils.CSR {
	var (
		cols = make([][]int, len(rows))
		vals = make([][]float64, len(rows))
	)
	for i, row := range rows {
		cols[i] = make([]int, len(row))
		vals[i] = make([]float64, len(row))
		for ii, w := range row {
			cols[i][ii], vals[i][ii] = w.Index, w.Weight
		}
	}
	return utils.NewCSRFromRows(nc, cols, vals, name)
}

// Run returns a new map holding every entry of sn, with the optimization
// elements replaced by their filtered values. When an optimization element has
// a zero weight sum the whole pass fails open: a FilterFailOpen notice is sent
// and an unmodified copy of sn is returned.
func (fc *Context) Run(sn SensitivityMap) (filtered SensitivityMap, err error) {
	var (
		m       = fc.mesh
		opt     = m.Optimization()
		s       = make([]float64, m.NumElements())
		present = make([]float64, m.NumElements())
	)
	for id, val := range sn {
		if k, ok := m.ElementIndex(id); ok {
			s[k], present[k] = val, 1
		}
	}
	for _, k := range opt {
		if present[k] == 0 {
			return nil, &MissingSensitivityError{ElementID: m.Elements[k].ID}
		}
	}

	var (
		num, den []float64
	)
	switch fc.Type {
	case Filter1:
		num, den = fc.stage(fc.nodeSensitivity(s, present))
	case Filter2:
		num, den = fc.nearOp.MulVec(s), fc.nearSums
	}

	filtered = make(SensitivityMap, len(sn))
	for id, val := range sn {
		filtered[id] = val
	}
	var degenerate *DegenerateGeometryError
	for pos, k := range opt {
		if den[pos] != 0 {
			continue
		}
		if degenerate == nil {
			degenerate = &DegenerateGeometryError{Type: fc.Type, RMin: fc.RMin, ElementID: m.Elements[k].ID}
		}
		degenerate.Count++
	}
	if degenerate != nil {
		fc.diag.Notify(utils.Notice{
			Kind:      utils.FilterFailOpen,
			Message:   degenerate.Error() + "; sensitivity numbers are left unfiltered",
			ElementID: degenerate.ElementID,
			RMin:      fc.RMin,
			Count:     degenerate.Count,
			Err:       degenerate,
		})
		return
	}
	for pos, k := range opt {
		filtered[m.Elements[k].ID] = num[pos] / den[pos]
	}
	return
}

// nodeSensitivity is stage A of filter1: a hypothetical sensitivity for every
// node, weighted from the raw numbers of the adjacent elements. Elements
// without a number are left out and the remaining weights renormalized; nodes
// with no numbered element get mask 0.
func (fc *Context) nodeSensitivity(s, present []float64) (nodeS, mask []float64) {
	var (
		num = fc.nodeOp.MulVec(s)
		den = fc.nodeOp.MulVec(present)
	)
	nodeS = make([]float64, len(num))
	mask = make([]float64, len(num))
	for n := range num {
		switch {
		case den[n] == 0:
		case den[n] == fc.nodeSums[n]:
			nodeS[n], mask[n] = num[n], 1
		default:
			nodeS[n], mask[n] = num[n]/den[n], 1
		}
	}
	return
}

// stage is stage B of filter1: distance weighted averages of the node
// sensitivities near each optimization element.
func (fc *Context) stage(nodeS, mask []float64) (num, den []float64) {
	num = fc.nearOp.MulVec(nodeS)
	den = fc.nearOp.MulVec(mask)
	return
}

func (fc *Context) Mesh() *mesh.Mesh { return fc.mesh }

func (fc *Context) Graph() *neighbors.Graph { return fc.graph }

func (fc *Context) nearRow(elementID int) (row []neighbors.Weighted, ok bool) {
	k, found := fc.mesh.ElementIndex(elementID)
	if !found || !fc.mesh.IsOptimized(k) {
		return nil, false
	}
	pos := fc.mesh.OptimizationPosition(k)
	switch fc.Type {
	case Filter1:
		return fc.graph.NearNodes[pos], true
	default:
		return fc.graph.NearElements[pos], true
	}
}

// NearNodes returns the ids of the nodes closer than RMin to the centroid of
// an optimization element, for a filter1 context.
func (fc *Context) NearNodes(elementID int) (ids []int, ok bool) {
	if fc.Type != Filter1 {
		return nil, false
	}
	row, ok := fc.nearRow(elementID)
	for _, w := range row {
		ids = append(ids, fc.mesh.Nodes[w.Index].ID)
	}
	return
}

// NearElements returns the ids of the optimization elements closer than RMin
// to an optimization element, for a filter2 context.
func (fc *Context) NearElements(elementID int) (ids []int, ok bool) {
	if fc.Type != Filter2 {
		return nil, false
	}
	row, ok := fc.nearRow(elementID)
	for _, w := range row {
		ids = append(ids, fc.mesh.Elements[w.Index].ID)
	}
	return
}

// NodeWeights maps the ids of the elements adjacent to a node to their weight
// factors, for a filter1 context.
func (fc *Context) NodeWeights(nodeID int) (weights map[int]float64, ok bool) {
	ni, found := fc.mesh.NodeIndex(nodeID)
	if fc.Type != Filter1 || !found {
		return nil, false
	}
	weights = make(map[int]float64, len(fc.graph.NodeWeights[ni]))
	for _, w := range fc.graph.NodeWeights[ni] {
		weights[fc.mesh.Elements[w.Index].ID] = w.Weight
	}
	return weights, true
}

// PairWeight is the weight between two optimization elements of a filter2
// context, false when they are not within RMin of each other.
func (fc *Context) PairWeight(a, b int) (w float64, ok bool) {
	if fc.Type != Filter2 {
		return
	}
	row, found := fc.nearRow(a)
	kb, foundB := fc.mesh.ElementIndex(b)
	if !found || !foundB {
		return
	}
	for _, n := range row {
		if n.Index == kb {
			return n.Weight, true
		}
	}
	return
}

// DistanceWeight is the weight between an optimization element and a node of
// a filter1 context, false when the node is not within RMin of the centroid.
func (fc *Context) DistanceWeight(elementID, nodeID int) (w float64, ok bool) {
	if fc.Type != Filter1 {
		return
	}
	row, found := fc.nearRow(elementID)
	ni, foundN := fc.mesh.NodeIndex(nodeID)
	if !found || !foundN {
		return
	}
	for _, n := range row {
		if n.Index == ni {
			return n.Weight, true
		}
	}
	return
}
