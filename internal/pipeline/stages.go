package pipeline

import (
	"github.com/funvibe/fhirpath/internal/analyzer"
	"github.com/funvibe/fhirpath/internal/interpreter"
	"github.com/funvibe/fhirpath/internal/parser"
	"github.com/funvibe/fhirpath/internal/registry"
	"github.com/funvibe/fhirpath/internal/runtime"
)

// ParseStage turns pc.Source into an AST. It always parses in recovery
// mode: a Pipeline caller wants diagnostics collected alongside whatever
// later stages manage to do with a partially-broken AST, never a bare
// *parser.ParseError — fast-mode Parse is exposed directly by
// pkg/fhirpath for callers who want the first-error-aborts behavior
// without building a Pipeline.
type ParseStage struct{}

func (ParseStage) Process(pc *PipelineContext) *PipelineContext {
	opts := pc.Options.ParserOptions
	opts.ErrorRecovery = true
	res, err := parser.Parse(pc.Source, opts)
	if err != nil {
		pc.Err = err
		return pc
	}
	pc.AST = res.AST
	pc.Diagnostics = append(pc.Diagnostics, res.Diagnostics...)
	pc.HasErrors = pc.HasErrors || res.HasErrors
	return pc
}

// AnalyzeStage annotates pc.AST in place (via ast.SetTypeInfo) and appends
// its diagnostics. A no-op if an earlier stage left pc.AST nil.
type AnalyzeStage struct{}

func (AnalyzeStage) Process(pc *PipelineContext) *PipelineContext {
	if pc.AST == nil {
		return pc
	}
	result := analyzer.Analyze(pc.AST, pc.TypeInfo, pc.Options.AnalyzerOptions)
	pc.Diagnostics = append(pc.Diagnostics, result.Diagnostics...)
	pc.HasErrors = pc.HasErrors || result.HasErrors
	return pc
}

// EvaluateStage interprets pc.AST against pc.Input using reg (or
// registry.Default when reg is nil), binding pc.Options.RuntimeSetup
// before evaluation.
type EvaluateStage struct {
	Registry *registry.Registry
}

func (s EvaluateStage) Process(pc *PipelineContext) *PipelineContext {
	if pc.AST == nil {
		return pc
	}
	reg := s.Registry
	if reg == nil {
		reg = registry.Default
	}
	rctx := runtime.NewRootContext(pc.Input)
	if pc.Options.RuntimeSetup != nil {
		pc.Options.RuntimeSetup(rctx)
	}
	result, err := interpreter.New(reg).Eval(rctx, pc.AST)
	if err != nil {
		pc.Err = err
		return pc
	}
	pc.Result = result
	return pc
}
