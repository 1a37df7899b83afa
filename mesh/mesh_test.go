package mesh

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestVariant(t *testing.T) {
	for _, tc := range []struct {
		name             string
		v                Variant
		arity, corners   int
		shell, quadratic bool
	}{
		{"C3D4", Tetra4, 4, 4, false, false},
		{"C3D10", Tetra10, 10, 4, false, true},
		{"S3", Tri3, 3, 3, true, false},
		{"s6", Tri6, 6, 3, true, true},
	} {
		v, err := ParseVariant(tc.name)
		require.NoError(t, err)
		assert.Equal(t, tc.v, v)
		assert.Equal(t, tc.arity, v.Arity())
		assert.Equal(t, tc.corners, v.Corners())
		assert.Equal(t, tc.shell, v.IsShell())
		assert.Equal(t, tc.quadratic, v.IsQuadratic())
	}
	_, err := ParseVariant("B31")
	assert.Error(t, err)
	assert.Equal(t, "Tri6", Tri6.String())
	assert.Equal(t, "C3D10", Tetra10.CalculiXName())
}

func TestNewMesh(t *testing.T) {
	{ // Input order does not matter
		nodes, elements := TetBlockParts(2, 1, 1, 1, 0, 1)
		for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
			nodes[i], nodes[j] = nodes[j], nodes[i]
		}
		for i, j := 0, len(elements)-1; i < j; i, j = i+1, j-1 {
			elements[i], elements[j] = elements[j], elements[i]
		}
		m := NewTestMesh(nodes, elements, 0)
		assert.Equal(t, 12, m.NumNodes())
		assert.Equal(t, 12, m.NumElements())
		for i := 1; i < m.NumNodes(); i++ {
			assert.True(t, m.Nodes[i-1].ID < m.Nodes[i].ID)
		}
		for k := 1; k < m.NumElements(); k++ {
			assert.True(t, m.Elements[k-1].ID < m.Elements[k].ID)
		}
		k, ok := m.ElementIndex(5)
		require.True(t, ok)
		assert.Equal(t, 5, m.Elements[k].ID)
		for ii, ni := range m.ElementNodes(k) {
			assert.Equal(t, m.Elements[k].Nodes[ii], m.Nodes[ni].ID)
		}
		assert.Equal(t, 12, len(m.Optimization()))
		assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, m.OptimizationIDs())
		assert.Equal(t, map[Variant]int{Tetra4: 12}, m.CountByVariant())
		assert.False(t, m.HasQuadratic(false))
		_, ok = m.NodeIndex(1000)
		assert.False(t, ok)
	}
	{ // Domains, thickness and the optimization set
		nodes, _ := TetBlockParts(1, 1, 1, 1, 0, 1)
		elements := []Element{
			{ID: 10, Variant: Tri3, Nodes: []int{1, 2, 3}},
			{ID: 20, Variant: Tri3, Nodes: []int{2, 3, 4}},
			{ID: 30, Variant: Tetra4, Nodes: []int{1, 2, 3, 5}},
		}
		m, err := NewMesh(nodes, elements, []Domain{
			{Name: "fixed", Elements: []int{20}, Thickness: 2},
			{Name: "design", Elements: []int{10, 20, 10}, Thickness: 0.5, Optimized: true},
		})
		require.NoError(t, err)
		assert.Equal(t, []int{10, 20}, m.Domains[1].Elements)
		assert.Equal(t, []int{10, 20}, m.OptimizationIDs())
		k20, _ := m.ElementIndex(20)
		th, ok := m.Thickness(k20)
		assert.True(t, ok)
		assert.Equal(t, 2., th)
		k30, _ := m.ElementIndex(30)
		_, ok = m.Thickness(k30)
		assert.False(t, ok)
		assert.False(t, m.IsOptimized(k30))
		assert.Equal(t, -1, m.OptimizationPosition(k30))
		assert.Equal(t, 1, m.OptimizationPosition(k20))
		assert.Equal(t, 3, len(m.CornerNodes(k20)))

		var buf bytes.Buffer
		m.PrintStatistics(&buf)
		assert.Contains(t, buf.String(), "Tri3 (S3): 2")
		assert.Contains(t, buf.String(), "Optimization elements: 2")
	}
}

func TestNewMeshErrors(t *testing.T) {
	nodes, elements := UnitTetParts()
	all := []Domain{{Name: "Eall", AllElements: true, Optimized: true}}
	malformed := func(err error) *MalformedMeshError {
		var me *MalformedMeshError
		require.True(t, errors.As(err, &me), "expected MalformedMeshError, got %v", err)
		return me
	}
	{ // Unknown node
		bad := []Element{{ID: 1, Variant: Tetra4, Nodes: []int{1, 2, 3, 99}}}
		_, err := NewMesh(nodes, bad, all)
		me := malformed(err)
		assert.Equal(t, "element", me.Kind)
		assert.Equal(t, 1, me.ID)
		assert.Contains(t, err.Error(), "unknown node 99")
	}
	{ // Arity mismatch
		bad := []Element{{ID: 7, Variant: Tetra10, Nodes: []int{1, 2, 3, 4}}}
		_, err := NewMesh(nodes, bad, all)
		assert.Equal(t, 7, malformed(err).ID)
	}
	{ // Element id collision across families
		bad := append(append([]Element(nil), elements...), Element{ID: 1, Variant: Tri3, Nodes: []int{1, 2, 3}})
		_, err := NewMesh(nodes, bad, all)
		assert.Contains(t, malformed(err).Detail, "duplicate")
	}
	{ // Duplicate node
		bad := append(append([]Node(nil), nodes...), Node{ID: 2, Pos: r3.Vec{X: 5}})
		_, err := NewMesh(bad, elements, all)
		assert.Equal(t, "node", malformed(err).Kind)
	}
	{ // Domain references unknown element
		_, err := NewMesh(nodes, elements, []Domain{{Name: "d", Elements: []int{1, 2}, Optimized: true}})
		me := malformed(err)
		assert.Equal(t, "domain", me.Kind)
		assert.Equal(t, "d", me.Name)
	}
	{ // Negative thickness
		_, err := NewMesh(nodes, elements, []Domain{{Name: "d", AllElements: true, Thickness: -1, Optimized: true}})
		malformed(err)
	}
	{ // No optimized domain
		_, err := NewMesh(nodes, elements, []Domain{{Name: "d", AllElements: true}})
		var ee *EmptyOptimizationDomainError
		require.True(t, errors.As(err, &ee))
		assert.Equal(t, 1, ee.Domains)
	}
	{ // Optimized domain without elements
		_, err := NewMesh(nodes, elements, []Domain{{Name: "d", Optimized: true}})
		var ee *EmptyOptimizationDomainError
		require.True(t, errors.As(err, &ee))
	}
}
