package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vscfl/vscfl/internal/config"
	"github.com/vscfl/vscfl/internal/stdlib"
)

func TestCompile_PreludeAlonePasses(t *testing.T) {
	cfg := config.Default()
	_, errs := compile(stdlib.Prelude(cfg), "", "<test>")
	assert.Empty(t, errs)
}

func TestCompile_UserDefinitionOnTopOfPrelude(t *testing.T) {
	cfg := config.Default()
	tree, errs := compile(stdlib.Prelude(cfg), "answer: Int = add(1, 2);", "<test>")
	require.Empty(t, errs)
	require.Contains(t, tree.ValueVars, "answer")
}

func TestCompile_NamerErrorStopsBeforeEvaluation(t *testing.T) {
	cfg := config.Default()
	_, errs := compile(stdlib.Prelude(cfg), "bad: Int = undefinedThing;", "<test>")
	require.NotEmpty(t, errs)
}
