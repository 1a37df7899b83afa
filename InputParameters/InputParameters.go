package InputParameters

import (
	"fmt"
	"io"
	"math"

	"github.com/ghodss/yaml"
	"github.com/notargets/gobeso/filter"
	"github.com/notargets/gobeso/mesh"
)

// Parameters obtained from the YAML input file
type FilterParameters struct {
	Title          string             `yaml:"Title"`
	FilterType     string             `yaml:"FilterType"` // filter1 or filter2
	RMin           float64            `yaml:"RMin"`
	ParallelDegree int                `yaml:"ParallelDegree"` // 0 uses every CPU
	Domains        []DomainParameters `yaml:"Domains"`
}

// DomainParameters names an element set of the mesh file
type DomainParameters struct {
	ElSet     string  `yaml:"ElSet"`
	Thickness float64 `yaml:"Thickness"` // Shell thickness, 0 for solids
	Optimized bool    `yaml:"Optimized"`
}

var ExampleFile = `
########################################
Title: "Cantilever"
FilterType: filter1 # or filter2
RMin: 2.5
ParallelDegree: 0 # 0 means all CPUs
Domains:
  - ElSet: SolidDesign
    Optimized: true
  - ElSet: ShellNonDesign
    Thickness: 0.5
    Optimized: false
########################################
`

func (fp *FilterParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, fp)
}

func (fp *FilterParameters) Validate() (err error) {
	if _, err = fp.Type(); err != nil {
		return
	}
	if !(fp.RMin > 0) || math.IsInf(fp.RMin, 0) {
		return fmt.Errorf("RMin must be positive and finite, got %v", fp.RMin)
	}
	if fp.ParallelDegree < 0 {
		return fmt.Errorf("ParallelDegree must not be negative, got %d", fp.ParallelDegree)
	}
	if len(fp.Domains) == 0 {
		return fmt.Errorf("at least one domain is required")
	}
	var optimized bool
	for i, d := range fp.Domains {
		if d.ElSet == "" {
			return fmt.Errorf("domain %d has no ElSet", i)
		}
		if d.Thickness < 0 {
			return fmt.Errorf("domain %s has negative thickness %v", d.ElSet, d.Thickness)
		}
		optimized = optimized || d.Optimized
	}
	if !optimized {
		return fmt.Errorf("none of the %d domains is optimized", len(fp.Domains))
	}
	return
}

func (fp *FilterParameters) Type() (filter.Type, error) {
	return filter.NewType(fp.FilterType)
}

// MeshDomains converts the domain list for mesh construction
func (fp *FilterParameters) MeshDomains() (domains []mesh.Domain) {
	domains = make([]mesh.Domain, len(fp.Domains))
	for i, d := range fp.Domains {
		domains[i] = mesh.Domain{
			Name:      d.ElSet,
			Thickness: d.Thickness,
			Optimized: d.Optimized,
		}
	}
	return
}

func (fp *FilterParameters) Print(w io.Writer) {
	fmt.Fprintf(w, "\"%s\"\t\t= Title\n", fp.Title)
	fmt.Fprintf(w, "[%s]\t\t= Filter Type\n", fp.FilterType)
	fmt.Fprintf(w, "%8.5f\t\t= RMin\n", fp.RMin)
	fmt.Fprintf(w, "[%d]\t\t\t= Parallel Degree\n", fp.ParallelDegree)
	for _, d := range fp.Domains {
		fmt.Fprintf(w, "Domains[%s] = thickness %g, optimized %v\n", d.ElSet, d.Thickness, d.Optimized)
	}
}
