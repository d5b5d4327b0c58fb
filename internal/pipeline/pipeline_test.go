package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stageFunc func(ctx *PipelineContext) *PipelineContext

func (f stageFunc) Process(ctx *PipelineContext) *PipelineContext { return f(ctx) }

func TestPipeline_RunsStagesInOrder(t *testing.T) {
	var order []string
	pl := New(
		stageFunc(func(ctx *PipelineContext) *PipelineContext { order = append(order, "a"); return ctx }),
		stageFunc(func(ctx *PipelineContext) *PipelineContext { order = append(order, "b"); return ctx }),
	)
	pl.Run(NewPipelineContext("src"))
	assert.Equal(t, []string{"a", "b"}, order)
}

func TestPipeline_ContinuesPastStageErrors(t *testing.T) {
	var ran bool
	pl := New(
		stageFunc(func(ctx *PipelineContext) *PipelineContext {
			ctx.Errors = append(ctx.Errors, nil)
			return ctx
		}),
		stageFunc(func(ctx *PipelineContext) *PipelineContext { ran = true; return ctx }),
	)
	pl.Run(NewPipelineContext("src"))
	assert.True(t, ran, "later stages must run even after an earlier stage reports errors")
}

func TestNewPipelineContext_Defaults(t *testing.T) {
	ctx := NewPipelineContext("hello")
	require.Equal(t, "hello", ctx.SourceCode)
	assert.Equal(t, "<input>", ctx.FilePath)
	assert.NotNil(t, ctx.Evaluated)
}
