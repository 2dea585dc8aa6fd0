// Package fhirpath is the public surface over the internal lexer/parser/
// analyzer/interpreter packages (spec §6.1): Parse, Evaluate, Analyze,
// plus the Options/result/error types a host application actually touches.
// Everything under internal/ stays unexported; this package is the only
// supported import path for consumers outside this module.
package fhirpath

import (
	"github.com/funvibe/fhirpath/internal/analyzer"
	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/diagnostics"
	"github.com/funvibe/fhirpath/internal/interpreter"
	"github.com/funvibe/fhirpath/internal/parser"
	"github.com/funvibe/fhirpath/internal/pipeline"
	"github.com/funvibe/fhirpath/internal/registry"
	"github.com/funvibe/fhirpath/internal/runtime"
	"github.com/funvibe/fhirpath/internal/typesystem"
)

// Mode mirrors spec §6.1's mode ∈ {strict, lenient}. Lenient is CORE's
// default behavior throughout (graceful degradation to empty collections).
// Options.Mode is carried but not read by Parse, Evaluate or Analyze, so a
// Strict call behaves exactly like a Lenient one.
type Mode int

const (
	Lenient Mode = iota
	Strict
)

// Options configures one Parse/Evaluate/Analyze call (spec §6.1).
type Options struct {
	// UserVariables bind %name environment variables visible to the
	// expression (spec §4.3); keys are given without the leading %.
	UserVariables map[string]runtime.Collection
	// InputType is the root focus type handed to Analyze; leave the zero
	// value to analyze with no ModelProvider-resolved root type.
	InputType typesystem.TypeInfo
	Mode      Mode
	// Trivia, when true, preserves comments/whitespace tokens through the
	// lexer (useful for formatting tools; ignored by Evaluate/Analyze).
	Trivia bool
	// ErrorRecovery, when true, makes Parse never return an error: syntax
	// problems become diagnostics plus an ast.ErrorNode in the result.
	ErrorRecovery   bool
	ModelProvider   typesystem.ModelProvider
	CustomFunctions map[string]runtime.CustomFunction
	// Registry overrides the builtin operator/function catalog; nil uses
	// registry.Default.
	Registry *registry.Registry
	// Trace receives trace() calls; nil keeps runtime.NoopTrace (spec
	// §A.2: the engine itself is silent, cmd/fhirpath is the one caller
	// that backs this with a real sink).
	Trace runtime.TraceSink
}

// ParseResult is Parse's return value.
type ParseResult struct {
	AST         ast.Expr
	Diagnostics []diagnostics.Diagnostic
	HasErrors   bool
}

// AnalysisResult is Analyze's return value; AST is the same tree passed
// in, annotated in place with TypeInfo.
type AnalysisResult struct {
	AST         ast.Expr
	Diagnostics []diagnostics.Diagnostic
	HasErrors   bool
}

// Parse tokenizes and parses source. With Options.ErrorRecovery unset
// (the default), the first syntax error aborts and is returned as *parser.
// ParseError/*lexer.LexError; with it set, Parse never errors and problems
// surface as ParseResult.Diagnostics/HasErrors.
func Parse(source string, opts Options) (ParseResult, error) {
	res, err := parser.Parse(source, toParserOptions(opts))
	if err != nil {
		return ParseResult{}, err
	}
	return ParseResult{AST: res.AST, Diagnostics: res.Diagnostics, HasErrors: res.HasErrors}, nil
}

// Analyze runs the evaluation-free static analyzer over an already-parsed
// AST (typically ParseResult.AST).
func Analyze(root ast.Expr, opts Options) AnalysisResult {
	reg := opts.Registry
	if reg == nil {
		reg = registry.Default
	}
	result := analyzer.Analyze(root, opts.InputType, analyzer.Options{
		Registry:      reg,
		ModelProvider: opts.ModelProvider,
	})
	return AnalysisResult{AST: root, Diagnostics: result.Diagnostics, HasErrors: result.HasErrors}
}

// Evaluate parses source and interprets it against input (spec §6.1's
// `evaluate(source | AST, input, options) → Collection`). A parse error
// returns immediately; runtime failures return *runtime.EvalError.
func Evaluate(source string, input runtime.Collection, opts Options) (runtime.Collection, []diagnostics.Diagnostic, error) {
	parsed, err := Parse(source, opts)
	if err != nil {
		return nil, nil, err
	}
	result, diags, err := EvaluateAST(parsed.AST, input, opts)
	return result, append(parsed.Diagnostics, diags...), err
}

// EvaluateAST interprets an already-parsed AST against input, skipping the
// parse stage entirely (useful when the same AST is evaluated repeatedly
// against different inputs, since internal/ast trees are immutable after
// SetTypeInfo and safe to share — spec §5 "Sharing").
func EvaluateAST(root ast.Expr, input runtime.Collection, opts Options) (runtime.Collection, []diagnostics.Diagnostic, error) {
	reg := opts.Registry
	if reg == nil {
		reg = registry.Default
	}
	rctx := runtime.NewRootContext(input)
	rctx.ModelProvider = opts.ModelProvider
	if len(opts.CustomFunctions) > 0 {
		rctx.CustomFunctions = opts.CustomFunctions
	}
	if opts.Trace != nil {
		rctx.Trace = opts.Trace
	}
	for name, v := range opts.UserVariables {
		rctx.Set(name, v)
	}
	result, err := interpreter.New(reg).Eval(rctx, root)
	if err != nil {
		return nil, nil, err
	}
	return result, nil, nil
}

// Run executes parse, analyze, and evaluate in one staged pipeline,
// returning every diagnostic the run produced even when evaluation itself
// succeeds (spec §6.1's three operations, composed for callers that want
// all three without wiring the Pipeline themselves — e.g. the LSP-style
// use case of wanting both parse and semantic diagnostics alongside a
// result, per internal/pipeline's doc comment).
func Run(source string, input runtime.Collection, opts Options) (runtime.Collection, []diagnostics.Diagnostic, error) {
	reg := opts.Registry
	if reg == nil {
		reg = registry.Default
	}
	p := pipeline.New(
		pipeline.ParseStage{},
		pipeline.AnalyzeStage{},
		pipeline.EvaluateStage{Registry: reg},
	)
	pc := &pipeline.PipelineContext{
		Source:   source,
		TypeInfo: opts.InputType,
		Input:    input,
		Options: pipeline.Options{
			ParserOptions:   toParserOptions(opts),
			AnalyzerOptions: analyzer.Options{Registry: reg, ModelProvider: opts.ModelProvider},
			RuntimeSetup: func(rctx *runtime.Context) {
				rctx.ModelProvider = opts.ModelProvider
				if len(opts.CustomFunctions) > 0 {
					rctx.CustomFunctions = opts.CustomFunctions
				}
				if opts.Trace != nil {
					rctx.Trace = opts.Trace
				}
				for name, v := range opts.UserVariables {
					rctx.Set(name, v)
				}
			},
		},
	}
	out := p.Run(pc)
	return out.Result, out.Diagnostics, out.Err
}

func toParserOptions(opts Options) parser.Options {
	return parser.Options{
		ErrorRecovery:  opts.ErrorRecovery,
		PreserveTrivia: opts.Trivia,
	}
}
