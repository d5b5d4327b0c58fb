// Package pipeline runs an ordered list of Processors over a shared
// PipelineContext, mutating its Tree in place. The lexer and parser are the
// only Processors; pkg/cli calls the later stages (namer, typer, instancer,
// limiter, evaluator) directly on the resulting Tree. Grounded on the teacher's internal/pipeline.Pipeline/Processor
// shape (Run loops over processors, never stopping early, so every stage
// gets a chance to contribute diagnostics — e.g. an LSP client wants both
// parse and semantic errors in one pass) and on the construction call site
// in pkg/cli, which builds a PipelineContext with
// NewPipelineContext(sourceCode) before running it through a Pipeline.
package pipeline

import (
	"github.com/vscfl/vscfl/internal/ast"
	"github.com/vscfl/vscfl/internal/diagnostics"
	"github.com/vscfl/vscfl/internal/token"
)

// PipelineContext threads one compilation unit's state through every stage.
// Each Processor reads what earlier stages produced and may append to
// Errors; a stage never clears another stage's Errors.
type PipelineContext struct {
	SourceCode string
	FilePath   string

	TokenStream []token.Token
	AstRoot     *ast.Tree

	Errors diagnostics.Errors

	// Evaluated is a flat per-variable lookup keyed by Ident. NewPipelineContext
	// allocates it empty and no stage writes to it; evaluated values live on
	// each VariableDef.Value instead.
	Evaluated map[string]ast.EvaluatedValue
}

// NewPipelineContext builds a PipelineContext for one source file's text.
// FilePath defaults to "<input>" and can be overridden before Run.
func NewPipelineContext(sourceCode string) *PipelineContext {
	return &PipelineContext{
		SourceCode: sourceCode,
		FilePath:   "<input>",
		Evaluated:  map[string]ast.EvaluatedValue{},
	}
}

// Processor is one pipeline stage. It must tolerate ctx.Errors already being
// non-empty (an earlier stage's diagnostics) and should still attempt its
// own work so later-stage errors aren't masked by earlier ones, mirroring
// the teacher's Pipeline.Run "continue on errors" contract.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}
