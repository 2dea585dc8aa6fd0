// Package pipeline composes the lex/parse, analyze, and evaluate stages
// behind one Processor interface, grounded on the teacher's
// Pipeline{processors []Processor}/Run shape — generalized here from an
// unspecified processor contract into the three concrete FHIRPath stages
// pkg/fhirpath actually needs, since a caller of Parse/Evaluate/Analyze
// wants a subset of the same staged state (source, AST, diagnostics,
// result) rather than three disconnected call sites.
package pipeline

import (
	"github.com/funvibe/fhirpath/internal/analyzer"
	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/diagnostics"
	"github.com/funvibe/fhirpath/internal/parser"
	"github.com/funvibe/fhirpath/internal/runtime"
	"github.com/funvibe/fhirpath/internal/typesystem"
)

// Processor is one staged transformation over a PipelineContext.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// PipelineContext threads the state of one parse/analyze/evaluate run.
// Callers set Source, TypeInfo, Input and Options before Run; each stage
// that runs appends to Diagnostics and either advances AST/Result or sets
// Err, which causes Run to stop before the next stage.
type PipelineContext struct {
	Source string

	AST         ast.Expr
	Diagnostics []diagnostics.Diagnostic
	HasErrors   bool

	// TypeInfo is the root focus type handed to the analyzer as is; its
	// zero value has an empty Type and is not typesystem.AnyCollection.
	TypeInfo typesystem.TypeInfo

	Input  runtime.Collection
	Result runtime.Collection

	Options Options

	// Err is a hard error from a stage (*parser.ParseError,
	// *runtime.EvalError). Once set, Run stops advancing.
	Err error
}

// Options configures every stage a Pipeline might run; a caller building a
// parse-only or analyze-only Pipeline simply leaves the other fields zero.
type Options struct {
	ParserOptions   parser.Options
	AnalyzerOptions analyzer.Options
	// RuntimeSetup, if set, runs against the freshly built runtime.Context
	// before EvaluateStage evaluates the AST — the hook a caller uses to
	// bind %env variables or CustomFunctions (spec §6.1).
	RuntimeSetup func(*runtime.Context)
}

// Pipeline runs a fixed ordered sequence of Processors over one
// PipelineContext, stopping early once a stage sets Err.
type Pipeline struct {
	processors []Processor
}

// New builds a Pipeline over the given stages, in order.
func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes every stage of p in order, feeding each stage's output
// PipelineContext to the next, until a stage sets Err or the stages are
// exhausted.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, proc := range p.processors {
		if ctx.Err != nil {
			break
		}
		ctx = proc.Process(ctx)
	}
	return ctx
}
