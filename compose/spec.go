package compose

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/graphmesh/core"
)

// ReadSpec parses a declarative CompositionSpec from YAML.
func ReadSpec(r io.Reader) (core.CompositionSpec, error) {
	var spec core.CompositionSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return core.CompositionSpec{}, fmt.Errorf("decode composition spec: %w", err)
	}
	switch spec.Operator {
	case core.OpUnion, core.OpIntersection, core.OpFederation, core.OpSplit:
	case "":
		return core.CompositionSpec{}, core.NewValidationError("composition spec missing operator")
	default:
		return core.CompositionSpec{}, core.NewValidationError("unknown composition operator %q", spec.Operator)
	}
	if len(spec.Operands) == 0 {
		return core.CompositionSpec{}, core.NewValidationError("composition spec missing operands")
	}
	if spec.Operator == core.OpSplit && spec.SplitBy == "" {
		return core.CompositionSpec{}, core.NewValidationError("split composition missing split_by property")
	}
	return spec, nil
}

// LoadSpec reads a CompositionSpec from a YAML file.
func LoadSpec(path string) (core.CompositionSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.CompositionSpec{}, err
	}
	defer f.Close()
	return ReadSpec(f)
}
