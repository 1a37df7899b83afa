package mesh

import "fmt"

// MalformedMeshError reports connectivity that cannot be used, found while
// validating the mesh at import time.
type MalformedMeshError struct {
	Kind   string // "node", "element" or "domain"
	ID     int
	Name   string // domain name, when Kind is "domain"
	Detail string
}

func (e *MalformedMeshError) Error() string {
	if e.Kind == "domain" {
		return fmt.Sprintf("malformed mesh: domain %q: %s", e.Name, e.Detail)
	}
	return fmt.Sprintf("malformed mesh: %s %d: %s", e.Kind, e.ID, e.Detail)
}

// EmptyOptimizationDomainError is returned when no domain is marked optimized,
// or every optimized domain is empty.
type EmptyOptimizationDomainError struct {
	Domains int
}

func (e *EmptyOptimizationDomainError) Error() string {
	return fmt.Sprintf("no optimized domain with elements found among %d domains", e.Domains)
}
