// Package geometry computes element volumes and centroids from the corner
// nodes of a mesh. Quadratic elements are treated as their linear
// counterparts: midside nodes are ignored.
package geometry

import (
	"fmt"
	"math"

	"github.com/notargets/gobeso/mesh"
	"github.com/notargets/gobeso/utils"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// TetVolume is |(v1-v0).((v2-v0)x(v3-v0))| / 6
func TetVolume(v0, v1, v2, v3 r3.Vec) float64 {
	var (
		a = r3.Sub(v1, v0)
		b = r3.Sub(v2, v0)
		c = r3.Sub(v3, v0)
	)
	return math.Abs(r3.Dot(a, r3.Cross(b, c))) / 6
}

// TriangleArea is |(v1-v0)x(v2-v0)| / 2
func TriangleArea(v0, v1, v2 r3.Vec) float64 {
	return r3.Norm(r3.Cross(r3.Sub(v1, v0), r3.Sub(v2, v0))) / 2
}

type Volumes struct {
	mesh              *mesh.Mesh
	PerElement        []float64 // By element index
	Computed          []bool    // False for shells without thickness
	OptimizationTotal float64
	Skipped           int // Shells of domains with 0 thickness
	Unassigned        int // Shells outside every domain
}

// ComputeVolumes computes the volume of every tetra element and of every shell
// element with a positive thickness, and the total over the optimization set.
func ComputeVolumes(m *mesh.Mesh, d utils.Diagnostics) *Volumes {
	return ComputeVolumesNP(m, d, utils.ParallelDegree())
}

func ComputeVolumesNP(m *mesh.Mesh, d utils.Diagnostics, NP int) (v *Volumes) {
	var (
		K = m.NumElements()
	)
	d = utils.OrDefault(d)
	warnQuadratic(m, d, "volumes")
	v = &Volumes{
		mesh:       m,
		PerElement: make([]float64, K),
		Computed:   make([]bool, K),
	}
	utils.ParallelFor(NP, K, func(_, kMin, kMax int) {
		for k := kMin; k < kMax; k++ {
			var (
				c = m.CornerNodes(k)
				p = func(i int) r3.Vec { return m.Nodes[c[i]].Pos }
			)
			if !m.Elements[k].Variant.IsShell() {
				v.PerElement[k] = TetVolume(p(0), p(1), p(2), p(3))
				v.Computed[k] = true
				continue
			}
			if t, _ := m.Thickness(k); t > 0 {
				v.PerElement[k] = TriangleArea(p(0), p(1), p(2)) * t
				v.Computed[k] = true
			}
		}
	})
	for k := 0; k < K; k++ {
		if v.Computed[k] {
			continue
		}
		if _, inDomain := m.Thickness(k); inDomain {
			v.Skipped++
		} else {
			v.Unassigned++
		}
	}
	if v.Skipped != 0 {
		d.Notify(utils.Notice{
			Kind:    utils.ZeroThicknessShellSkipped,
			Message: fmt.Sprintf("volume evaluation of %d shell elements in domains with 0 thickness is skipped", v.Skipped),
			Count:   v.Skipped,
		})
	}
	if v.Unassigned != 0 {
		d.Notify(utils.Notice{
			Kind:    utils.ZeroThicknessShellSkipped,
			Message: fmt.Sprintf("volume evaluation of %d shell elements outside every domain is skipped, no thickness is known", v.Unassigned),
			Count:   v.Unassigned,
		})
	}
	opt := make([]float64, len(m.Optimization()))
	for i, k := range m.Optimization() {
		opt[i] = v.PerElement[k]
	}
	v.OptimizationTotal = floats.Sum(opt)
	return
}

func (v *Volumes) Volume(id int) (vol float64, ok bool) {
	k, found := v.mesh.ElementIndex(id)
	if !found || !v.Computed[k] {
		return 0, false
	}
	return v.PerElement[k], true
}

type Centroids struct {
	mesh     *mesh.Mesh
	Points   []r3.Vec // By element index
	Min, Max r3.Vec   // Bounding box of all centroids
}

// ComputeCentroids computes the corner node mean of every element, including
// elements outside the optimization set since they can still be neighbors.
func ComputeCentroids(m *mesh.Mesh, d utils.Diagnostics) *Centroids {
	return ComputeCentroidsNP(m, d, utils.ParallelDegree())
}

func ComputeCentroidsNP(m *mesh.Mesh, d utils.Diagnostics, NP int) (c *Centroids) {
	var (
		K    = m.NumElements()
		pm   = utils.NewPartitionMap(NP, K)
		bMin = make([]r3.Vec, pm.ParallelDegree)
		bMax = make([]r3.Vec, pm.ParallelDegree)
		used = make([]bool, pm.ParallelDegree)
	)
	d = utils.OrDefault(d)
	warnQuadratic(m, d, "centres of gravity")
	c = &Centroids{
		mesh:   m,
		Points: make([]r3.Vec, K),
	}
	utils.ParallelFor(pm.ParallelDegree, K, func(bn, kMin, kMax int) {
		for k := kMin; k < kMax; k++ {
			var (
				corners = m.CornerNodes(k)
				sum     r3.Vec
			)
			for _, ni := range corners {
				sum = r3.Add(sum, m.Nodes[ni].Pos)
			}
			cg := r3.Scale(1/float64(len(corners)), sum)
			c.Points[k] = cg
			if !used[bn] {
				bMin[bn], bMax[bn], used[bn] = cg, cg, true
				continue
			}
			bMin[bn], bMax[bn] = minVec(bMin[bn], cg), maxVec(bMax[bn], cg)
		}
	})
	var first = true
	for bn := range used {
		if !used[bn] {
			continue
		}
		if first {
			c.Min, c.Max, first = bMin[bn], bMax[bn], false
			continue
		}
		c.Min, c.Max = minVec(c.Min, bMin[bn]), maxVec(c.Max, bMax[bn])
	}
	return
}

func (c *Centroids) Centroid(id int) (cg r3.Vec, ok bool) {
	k, found := c.mesh.ElementIndex(id)
	if !found {
		return
	}
	return c.Points[k], true
}

func (c *Centroids) Bounds() r3.Box {
	return r3.Box{Min: c.Min, Max: c.Max}
}

func (c *Centroids) Mesh() *mesh.Mesh { return c.mesh }

func warnQuadratic(m *mesh.Mesh, d utils.Diagnostics, what string) {
	if m.HasQuadratic(false) {
		d.Notify(utils.Notice{
			Kind:    utils.MidsideNodesIgnored,
			Message: fmt.Sprintf("%s of %s elements ignore mid-node positions", what, mesh.Tetra10),
		})
	}
	if m.HasQuadratic(true) {
		d.Notify(utils.Notice{
			Kind:    utils.MidsideNodesIgnored,
			Message: fmt.Sprintf("%s of %s elements ignore mid-node positions", what, mesh.Tri6),
		})
	}
}

func minVec(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

func maxVec(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}
