// Package cli drives the VSCFL front-end over a single source file: lex,
// parse, name-resolve, elaborate types, instantiate generics, check limiter
// policy, and evaluate global initializers — printing whatever diagnostics
// accumulate along the way. Grounded on the teacher's pkg/cli/entry.go
// (os.Args-driven dispatch, fmt.Fprintf to stderr, os.Exit(1) on failure)
// trimmed to what SPEC_FULL.md's core actually owns: there is no backend,
// bytecode, ext/FFI layer, or self-contained binary packing here, since
// code generation, linking, and a runtime are explicit Non-goals.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/vscfl/vscfl/internal/ast"
	"github.com/vscfl/vscfl/internal/config"
	"github.com/vscfl/vscfl/internal/diagnostics"
	"github.com/vscfl/vscfl/internal/evaluator"
	"github.com/vscfl/vscfl/internal/instancer"
	"github.com/vscfl/vscfl/internal/lexer"
	"github.com/vscfl/vscfl/internal/limiter"
	"github.com/vscfl/vscfl/internal/namer"
	"github.com/vscfl/vscfl/internal/parser"
	"github.com/vscfl/vscfl/internal/pipeline"
	"github.com/vscfl/vscfl/internal/stdlib"
	"github.com/vscfl/vscfl/internal/typer"
)

// colorEnabled mirrors the teacher's NO_COLOR/TERM/isatty detection in
// internal/evaluator/builtins_term.go, simplified to the on/off decision a
// diagnostic printer needs (no 256-color/truecolor tiers).
func colorEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}

func printErrors(errs diagnostics.Errors) {
	red, reset := "", ""
	if colorEnabled() {
		red, reset = "\x1b[31m", "\x1b[0m"
	}
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "%s%s%s\n", red, err.Error(), reset)
	}
}

// Run is the entry point for cmd/vscflc. It expects exactly one source file
// argument and returns the process exit code.
func Run(args []string) int {
	if len(args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <file%s>\n", args[0], config.SourceFileExt)
		return 2
	}

	path := args[1]
	if !strings.HasSuffix(path, config.SourceFileExt) {
		fmt.Fprintf(os.Stderr, "warning: %s does not have the %s extension\n", path, config.SourceFileExt)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading %s: %s\n", path, err)
		return 1
	}

	cfg, err := config.LoadOrDefault(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading vscfl.yaml: %s\n", err)
		return 1
	}

	tree, diags := compile(stdlib.Prelude(cfg), string(source), path)
	if len(diags) > 0 {
		printErrors(diags)
		return 1
	}

	_ = tree // the Tree is available for future reporting (e.g. -print-mangled)
	fmt.Fprintf(os.Stderr, "%s: ok\n", path)
	return 0
}

// compile runs the full pipeline over preludeSource followed by userSource,
// parsed as one Tree since the prelude's builtin impls must be visible to
// the namer/typer/instancer/evaluator/limiter stages alongside user
// definitions, and returns the combined Tree plus every diagnostic emitted
// by any stage. The lexer and parser run through pipeline.Pipeline.Run,
// which never stops early; after that, errors from the parser, the namer,
// the typer, or the instancer/limiter pair each stop compile before the
// next stage, since later stages assume a well-formed, well-typed Tree.
func compile(preludeSource, userSource, path string) (*ast.Tree, diagnostics.Errors) {
	ctx := pipeline.NewPipelineContext(preludeSource + "\n" + userSource)
	ctx.FilePath = path

	pl := pipeline.New(&lexer.Processor{}, &parser.Processor{})
	ctx = pl.Run(ctx)
	if len(ctx.Errors) > 0 || ctx.AstRoot == nil {
		return ctx.AstRoot, ctx.Errors
	}

	tree := ctx.AstRoot
	errs := append(diagnostics.Errors{}, ctx.Errors...)

	errs = append(errs, namer.New(tree).Run()...)
	if len(errs) > 0 {
		return tree, errs
	}

	ty := typer.New(tree)
	errs = append(errs, ty.ElaborateAll()...)
	if len(errs) > 0 {
		return tree, errs
	}

	errs = append(errs, instancer.New(tree, ty).RunAll()...)
	errs = append(errs, limiter.New().CheckLimits(tree)...)
	if len(errs) > 0 {
		return tree, errs
	}

	errs = append(errs, evaluator.New(tree).EvaluateAll()...)
	return tree, errs
}
