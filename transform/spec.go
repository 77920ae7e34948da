package transform

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/graphmesh/core"
)

// ReadSpec parses a declarative TransformationSpec from YAML.
func ReadSpec(r io.Reader) (core.TransformationSpec, error) {
	var spec core.TransformationSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return core.TransformationSpec{}, fmt.Errorf("decode transformation spec: %w", err)
	}
	if spec.Target == "" {
		return core.TransformationSpec{}, core.NewValidationError("transformation spec missing target variant")
	}
	if !spec.Target.Valid() {
		return core.TransformationSpec{}, core.NewValidationError("unknown target variant %q", spec.Target)
	}
	if spec.Source != "" && !spec.Source.Valid() {
		return core.TransformationSpec{}, core.NewValidationError("unknown source variant %q", spec.Source)
	}
	return spec, nil
}

// LoadSpec reads a TransformationSpec from a YAML file.
func LoadSpec(path string) (core.TransformationSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.TransformationSpec{}, err
	}
	defer f.Close()
	return ReadSpec(f)
}
