package compose

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/graphmesh/core"
)

func TestReadSpec(t *testing.T) {
	spec, err := ReadSpec(strings.NewReader(`
operator: union
operands: [g1, g2]
name: merged
collision: keep_newer
`))
	require.NoError(t, err)
	assert.Equal(t, core.OpUnion, spec.Operator)
	assert.Equal(t, []string{"g1", "g2"}, spec.Operands)
	assert.Equal(t, core.CollisionKeepNewer, spec.Collision)
}

func TestReadSpec_Split(t *testing.T) {
	spec, err := ReadSpec(strings.NewReader(`
operator: split
operands: [g1]
split_by: team
boundary: duplicate
`))
	require.NoError(t, err)
	assert.Equal(t, core.OpSplit, spec.Operator)
	assert.Equal(t, "team", spec.SplitBy)
	assert.Equal(t, core.BoundaryDuplicate, spec.Boundary)
}

func TestReadSpec_Validation(t *testing.T) {
	_, err := ReadSpec(strings.NewReader(`operands: [g1, g2]`))
	assert.True(t, core.IsValidation(err))

	_, err = ReadSpec(strings.NewReader("operator: blend\noperands: [g1]\n"))
	assert.True(t, core.IsValidation(err))

	_, err = ReadSpec(strings.NewReader(`operator: union`))
	assert.True(t, core.IsValidation(err))

	_, err = ReadSpec(strings.NewReader("operator: split\noperands: [g1]\n"))
	assert.True(t, core.IsValidation(err))

	_, err = ReadSpec(strings.NewReader("operator: union\noperands: [g1]\nbogus: 1\n"))
	require.Error(t, err)
}

func TestLoadSpec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte("operator: intersection\noperands: [g1, g2]\n"), 0o600))

	spec, err := LoadSpec(path)
	require.NoError(t, err)
	assert.Equal(t, core.OpIntersection, spec.Operator)
	assert.Equal(t, []string{"g1", "g2"}, spec.Operands)

	_, err = LoadSpec(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
