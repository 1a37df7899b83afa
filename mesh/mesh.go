package mesh

import (
	"fmt"
	"io"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Node is a mesh vertex
type Node struct {
	ID  int
	Pos r3.Vec
}

// Element holds the ordered node ids of one element. Only the leading
// Variant.Corners() ids take part in volume and centroid computation.
type Element struct {
	ID      int
	Variant Variant
	Nodes   []int
}

func (e Element) CornerNodes() []int {
	return e.Nodes[:e.Variant.Corners()]
}

// Domain is a named element set with a shell thickness (0 for solids) and an
// optimization flag.
type Domain struct {
	Name        string
	Elements    []int // Element ids, ignored when AllElements is set
	AllElements bool
	Thickness   float64
	Optimized   bool
}

// Mesh is the read only container of nodes, elements and domains. Nodes and
// elements are kept in ascending id order; all derived per element data is
// addressed by the element index in that order.
type Mesh struct {
	Nodes    []Node
	Elements []Element
	Domains  []Domain

	nodeIndex    map[int]int
	elemIndex    map[int]int
	elemNodes    [][]int   // Element index to node index connectivity, all nodes
	thickness    []float64 // Thickness of the first domain holding each element
	inDomain     []bool
	optimization []int // Element indices of the optimization set, ascending
	optPosition  []int // Element index to position within optimization, -1 if outside
}

// NewMesh validates the connectivity and builds the lookup tables. The input
// slices are copied, so the order they are supplied in has no effect.
func NewMesh(nodes []Node, elements []Element, domains []Domain) (m *Mesh, err error) {
	m = &Mesh{
		Nodes:     make([]Node, len(nodes)),
		Elements:  make([]Element, len(elements)),
		nodeIndex: make(map[int]int, len(nodes)),
		elemIndex: make(map[int]int, len(elements)),
	}
	copy(m.Nodes, nodes)
	sort.Slice(m.Nodes, func(i, j int) bool { return m.Nodes[i].ID < m.Nodes[j].ID })
	for i, n := range m.Nodes {
		if n.ID <= 0 {
			return nil, &MalformedMeshError{Kind: "node", ID: n.ID, Detail: "ids must be positive"}
		}
		if _, exists := m.nodeIndex[n.ID]; exists {
			return nil, &MalformedMeshError{Kind: "node", ID: n.ID, Detail: "duplicate id"}
		}
		if !finite(n.Pos) {
			return nil, &MalformedMeshError{Kind: "node", ID: n.ID, Detail: fmt.Sprintf("non finite position %v", n.Pos)}
		}
		m.nodeIndex[n.ID] = i
	}

	for i, e := range elements {
		m.Elements[i] = Element{ID: e.ID, Variant: e.Variant, Nodes: append([]int(nil), e.Nodes...)}
	}
	sort.Slice(m.Elements, func(i, j int) bool { return m.Elements[i].ID < m.Elements[j].ID })
	m.elemNodes = make([][]int, len(m.Elements))
	for i, e := range m.Elements {
		if e.ID <= 0 {
			return nil, &MalformedMeshError{Kind: "element", ID: e.ID, Detail: "ids must be positive"}
		}
		if _, exists := m.elemIndex[e.ID]; exists {
			return nil, &MalformedMeshError{Kind: "element", ID: e.ID, Detail: "duplicate id"}
		}
		if !e.Variant.Valid() {
			return nil, &MalformedMeshError{Kind: "element", ID: e.ID, Detail: fmt.Sprintf("unknown variant %d", e.Variant)}
		}
		if len(e.Nodes) != e.Variant.Arity() {
			return nil, &MalformedMeshError{Kind: "element", ID: e.ID,
				Detail: fmt.Sprintf("%s requires %d nodes, got %d", e.Variant, e.Variant.Arity(), len(e.Nodes))}
		}
		m.elemIndex[e.ID] = i
		m.elemNodes[i] = make([]int, len(e.Nodes))
		for ii, nid := range e.Nodes {
			ni, ok := m.nodeIndex[nid]
			if !ok {
				return nil, &MalformedMeshError{Kind: "element", ID: e.ID, Detail: fmt.Sprintf("references unknown node %d", nid)}
			}
			m.elemNodes[i][ii] = ni
		}
	}

	if err = m.resolveDomains(domains); err != nil {
		return nil, err
	}
	return
}

func (m *Mesh) resolveDomains(domains []Domain) (err error) {
	var (
		K        = len(m.Elements)
		selected = make([]bool, K)
	)
	m.Domains = make([]Domain, len(domains))
	m.thickness = make([]float64, K)
	m.inDomain = make([]bool, K)
	for dn, d := range domains {
		if d.Thickness < 0 || math.IsNaN(d.Thickness) || math.IsInf(d.Thickness, 0) {
			return &MalformedMeshError{Kind: "domain", Name: d.Name, Detail: fmt.Sprintf("invalid thickness %v", d.Thickness)}
		}
		resolved := Domain{Name: d.Name, AllElements: d.AllElements, Thickness: d.Thickness, Optimized: d.Optimized}
		if d.AllElements {
			resolved.Elements = make([]int, K)
			for k, e := range m.Elements {
				resolved.Elements[k] = e.ID
			}
		} else {
			seen := make(map[int]bool, len(d.Elements))
			resolved.Elements = make([]int, 0, len(d.Elements))
			for _, id := range d.Elements {
				if _, ok := m.elemIndex[id]; !ok {
					return &MalformedMeshError{Kind: "domain", Name: d.Name, Detail: fmt.Sprintf("references unknown element %d", id)}
				}
				if !seen[id] {
					seen[id] = true
					resolved.Elements = append(resolved.Elements, id)
				}
			}
		}
		for _, id := range resolved.Elements {
			k := m.elemIndex[id]
			if !m.inDomain[k] {
				m.inDomain[k] = true
				m.thickness[k] = d.Thickness
			}
			if d.Optimized {
				selected[k] = true
			}
		}
		m.Domains[dn] = resolved
	}
	m.optPosition = make([]int, K)
	for k := 0; k < K; k++ {
		m.optPosition[k] = -1
		if selected[k] {
			m.optPosition[k] = len(m.optimization)
			m.optimization = append(m.optimization, k)
		}
	}
	if len(m.optimization) == 0 {
		return &EmptyOptimizationDomainError{Domains: len(domains)}
	}
	return
}

func finite(v r3.Vec) bool {
	for _, x := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func (m *Mesh) NumNodes() int    { return len(m.Nodes) }
func (m *Mesh) NumElements() int { return len(m.Elements) }

func (m *Mesh) NodeIndex(id int) (ind int, ok bool) {
	ind, ok = m.nodeIndex[id]
	return
}

func (m *Mesh) ElementIndex(id int) (ind int, ok bool) {
	ind, ok = m.elemIndex[id]
	return
}

// ElementNodes returns the node indices of element k, corner nodes first
func (m *Mesh) ElementNodes(k int) []int { return m.elemNodes[k] }

// CornerNodes returns the node indices of the corner nodes of element k
func (m *Mesh) CornerNodes(k int) []int {
	return m.elemNodes[k][:m.Elements[k].Variant.Corners()]
}

// Thickness returns the thickness of the first domain holding element k, and
// whether element k belongs to any domain.
func (m *Mesh) Thickness(k int) (t float64, ok bool) {
	return m.thickness[k], m.inDomain[k]
}

// Optimization returns the element indices of the optimization set in
// ascending order. The returned slice must not be modified.
func (m *Mesh) Optimization() []int { return m.optimization }

// OptimizationIDs returns the element ids of the optimization set
func (m *Mesh) OptimizationIDs() (ids []int) {
	ids = make([]int, len(m.optimization))
	for i, k := range m.optimization {
		ids[i] = m.Elements[k].ID
	}
	return
}

// OptimizationPosition returns the position of element k within the
// optimization set, or -1.
func (m *Mesh) OptimizationPosition(k int) int { return m.optPosition[k] }

func (m *Mesh) IsOptimized(k int) bool { return m.optPosition[k] >= 0 }

func (m *Mesh) CountByVariant() (counts map[Variant]int) {
	counts = make(map[Variant]int)
	for _, e := range m.Elements {
		counts[e.Variant]++
	}
	return
}

// HasQuadratic reports whether any element of the tetra (shell == false) or
// shell (shell == true) family carries midside nodes.
func (m *Mesh) HasQuadratic(shell bool) bool {
	for _, e := range m.Elements {
		if e.Variant.IsQuadratic() && e.Variant.IsShell() == shell {
			return true
		}
	}
	return false
}

// PrintStatistics prints mesh statistics
func (m *Mesh) PrintStatistics(w io.Writer) {
	counts := m.CountByVariant()
	fmt.Fprintf(w, "Mesh Statistics:\n")
	fmt.Fprintf(w, "  Nodes: %d\n", m.NumNodes())
	fmt.Fprintf(w, "  Elements: %d\n", m.NumElements())
	fmt.Fprintf(w, "  Element types:\n")
	for v := Tetra4; v <= Tri6; v++ {
		fmt.Fprintf(w, "    %s (%s): %d\n", v, v.CalculiXName(), counts[v])
	}
	fmt.Fprintf(w, "  Domains: %d\n", len(m.Domains))
	for _, d := range m.Domains {
		fmt.Fprintf(w, "    %s: %d elements, thickness %g, optimized %v\n",
			d.Name, len(d.Elements), d.Thickness, d.Optimized)
	}
	fmt.Fprintf(w, "  Optimization elements: %d\n", len(m.optimization))
}
