package filter

import (
	"fmt"
	"strings"
)

// Type selects the filter variant
type Type uint8

const (
	// Filter1 averages node sensitivities, themselves weighted from the
	// elements around each node, over the nodes near an element centroid.
	Filter1 Type = iota
	// Filter2 averages the sensitivities of the elements near an element
	// centroid directly.
	Filter2
)

func (t Type) String() string {
	switch t {
	case Filter1:
		return "filter1"
	case Filter2:
		return "filter2"
	default:
		return fmt.Sprintf("filter(%d)", uint8(t))
	}
}

func NewType(label string) (t Type, err error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "filter1", "1", "node":
		t = Filter1
	case "filter2", "2", "element":
		t = Filter2
	default:
		err = fmt.Errorf("unknown filter type %q, use filter1 or filter2", label)
	}
	return
}

// SensitivityMap holds one sensitivity number per element id
type SensitivityMap map[int]float64

// DegenerateGeometryError reports an optimization element without any
// neighbor weight under the filter radius. The filter pass that finds it
// leaves the sensitivity numbers unfiltered.
type DegenerateGeometryError struct {
	Type      Type
	RMin      float64
	ElementID int // Lowest id among the affected elements
	Count     int // Number of affected elements
}

func (e *DegenerateGeometryError) Error() string {
	what := "a node"
	if e.Type == Filter2 {
		what = "a near element"
	}
	return fmt.Sprintf("%s failed due to division by 0: element %d has not %s in distance < r_min = %g (%d elements affected)",
		e.Type, e.ElementID, what, e.RMin, e.Count)
}

// MissingSensitivityError is returned when an optimization element has no
// sensitivity number.
type MissingSensitivityError struct {
	ElementID int
}

func (e *MissingSensitivityError) Error() string {
	return fmt.Sprintf("missing sensitivity number for optimization element %d", e.ElementID)
}
