package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_Overrides(t *testing.T) {
	data := []byte("vector_widths: [4, 8]\nstrict_recursion_cascade: true\n")
	cfg, err := ParseConfig(data, "vscfl.yaml")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 8}, cfg.VectorWidths)
	assert.True(t, cfg.StrictRecursionCascade)
}

func TestParseConfig_DefaultsWhenOmitted(t *testing.T) {
	cfg, err := ParseConfig([]byte(""), "vscfl.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultVectorWidths, cfg.VectorWidths)
	assert.False(t, cfg.StrictRecursionCascade)
}

func TestFindConfig_WalksUpToMissing(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := FindConfig(nested)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestLoadOrDefault_NoConfigFound(t *testing.T) {
	cfg, err := LoadOrDefault(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultVectorWidths, cfg.VectorWidths)
}
