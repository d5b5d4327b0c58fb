package parser

import (
	"github.com/vscfl/vscfl/internal/diagnostics"
	"github.com/vscfl/vscfl/internal/pipeline"
	"github.com/vscfl/vscfl/internal/token"
)

// Processor is the pipeline's second stage: it parses ctx.TokenStream into
// ctx.AstRoot. If the lexer stage hasn't run (ctx.TokenStream is nil), it
// does not tokenize ctx.SourceCode itself: it appends a P000 diagnostic and
// leaves ctx.AstRoot unset.
type Processor struct{}

func (pp *Processor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.TokenStream == nil {
		err := diagnostics.NewError(diagnostics.ErrP000, token.Pos{}, "parser: token stream is nil")
		err.File = ctx.FilePath
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}

	p := &Parser{file: ctx.FilePath, toks: ctx.TokenStream}
	tree, errs := p.ParseTree()
	ctx.AstRoot = tree

	for _, err := range errs {
		if err.File == "" {
			err.File = ctx.FilePath
		}
		ctx.Errors = append(ctx.Errors, err)
	}

	return ctx
}
