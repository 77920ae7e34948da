package core

import "fmt"

// Variant identifies a concrete graph representation kind. All variants honor
// the shared GraphStorage capability contract while retaining variant-specific
// payload fields only they understand.
type Variant string

const (
	// VariantProperty is a general-purpose labeled property graph.
	VariantProperty Variant = "property"
	// VariantConcept is a semantic graph whose nodes carry quality-dimension
	// coordinates.
	VariantConcept Variant = "concept"
	// VariantWorkflow is a process graph whose nodes carry execution state.
	VariantWorkflow Variant = "workflow"
	// VariantContentAddressed is an acyclic graph addressed purely by
	// content; adding an edge that would close a cycle is rejected.
	VariantContentAddressed Variant = "content_addressed"
)

// Valid reports whether v names a known variant.
func (v Variant) Valid() bool {
	switch v {
	case VariantProperty, VariantConcept, VariantWorkflow, VariantContentAddressed:
		return true
	}
	return false
}

// ParseVariant converts a string into a Variant, rejecting unknown names.
func ParseVariant(s string) (Variant, error) {
	v := Variant(s)
	if !v.Valid() {
		return "", fmt.Errorf("unknown graph variant %q", s)
	}
	return v, nil
}

// Payload keys interpreted by specific variants. They live in the shared
// namespace because transformation rules translate between them.
const (
	// PayloadCoordinates holds a concept node's quality-dimension
	// coordinates as map[string]float64 (dimension name -> position).
	PayloadCoordinates = "coordinates"
	// PayloadExecutionState holds a workflow node's execution status string
	// (e.g. "pending", "running", "completed", "failed").
	PayloadExecutionState = "execution_state"
)
