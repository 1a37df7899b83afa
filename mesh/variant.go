package mesh

import (
	"fmt"
	"strings"
)

// Variant represents the supported element families
type Variant uint8

const (
	Tetra4 Variant = iota
	Tetra10
	Tri3
	Tri6
)

func (v Variant) String() string {
	return [...]string{"Tetra4", "Tetra10", "Tri3", "Tri6"}[v]
}

// Arity is the number of node ids stored for the variant
func (v Variant) Arity() int {
	return [...]int{4, 10, 3, 6}[v]
}

// Corners is the number of geometrically significant leading node ids
func (v Variant) Corners() int {
	if v.IsShell() {
		return 3
	}
	return 4
}

func (v Variant) IsShell() bool { return v == Tri3 || v == Tri6 }

func (v Variant) IsQuadratic() bool { return v == Tetra10 || v == Tri6 }

func (v Variant) Valid() bool { return v <= Tri6 }

// CalculiXName is the element type keyword used in .inp files
func (v Variant) CalculiXName() string {
	return [...]string{"C3D4", "C3D10", "S3", "S6"}[v]
}

// ParseVariant maps a CalculiX/Abaqus element type name to a Variant
func ParseVariant(name string) (v Variant, err error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "C3D4":
		v = Tetra4
	case "C3D10":
		v = Tetra10
	case "S3":
		v = Tri3
	case "S6":
		v = Tri6
	default:
		err = fmt.Errorf("unsupported element type: %q", name)
	}
	return
}
