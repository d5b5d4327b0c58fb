package lexer

import "github.com/vscfl/vscfl/internal/pipeline"

// Processor is the pipeline's first stage: it tokenizes ctx.SourceCode into
// ctx.TokenStream. Lexing never itself produces diagnostics (spec.md §1
// treats the lexer as an external collaborator; ILLEGAL tokens are left for
// the parser to report as P000s with full context).
type Processor struct{}

func (lp *Processor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	ctx.TokenStream = Tokenize(ctx.FilePath, ctx.SourceCode)
	return ctx
}
