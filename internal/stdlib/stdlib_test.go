package stdlib

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vscfl/vscfl/internal/config"
	"github.com/vscfl/vscfl/internal/parser"
)

func TestGeneratedHeader_ScalarImplsPresent(t *testing.T) {
	header := GeneratedHeader(config.Default())
	assert.Contains(t, header, "builtin impl Eq for Int;")
	assert.Contains(t, header, "builtin impl OpAdd for Double;")
}

func TestGeneratedHeader_BitwiseSkipsFloats(t *testing.T) {
	header := GeneratedHeader(config.Default())
	assert.NotContains(t, header, "builtin impl OpShl for Double;")
	assert.NotContains(t, header, "builtin impl OpAnd for Half;")
	assert.Contains(t, header, "builtin impl OpShl for Int;")
}

func TestGeneratedHeader_VectorWidths(t *testing.T) {
	cfg := &config.Config{VectorWidths: []int{4}}
	header := GeneratedHeader(cfg)
	assert.Contains(t, header, "builtin type int4;")
	assert.Contains(t, header, "builtin impl Eq for int4;")
	assert.Contains(t, header, "builtin type float4;")
}

func TestGeneratedHeader_CollectionTraits(t *testing.T) {
	header := GeneratedHeader(config.Default())
	assert.Contains(t, header, "builtin impl Map for Array;")
	assert.Contains(t, header, "builtin impl GetRef for Ref;")
	assert.Contains(t, header, "builtin impl SliceFrom for Slice;")
}

func TestPrelude_Parses(t *testing.T) {
	src := Prelude(config.Default())
	require.NotEmpty(t, src)

	p := parser.New("<prelude>", src)
	_, errs := p.ParseTree()
	require.Empty(t, errs, "prelude must parse cleanly: %v", errs)
}

func TestPrelude_ContainsBothSnippets(t *testing.T) {
	src := Prelude(config.Default())
	assert.True(t, strings.Contains(src, "builtin type Bool;"))
	assert.True(t, strings.Contains(src, "abs(x: Int)"))
}
