// Package interpreter is the tree-walking FHIRPath evaluator (spec §4.5):
// per-node-kind dispatch implementing ast.Visitor, singleton evaluation
// rules, and the higher-order function / operator mechanics wired through
// internal/registry's EvalContext seam. It is the FHIRPath-scoped
// replacement for the teacher's internal/evaluator tree-walker — same
// Visitor-dispatch idiom, generalized from funxy's expression language to
// FHIRPath's collection-everywhere evaluation model.
package interpreter

import (
	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/registry"
	"github.com/funvibe/fhirpath/internal/runtime"
)

// Interpreter evaluates an AST against a RuntimeContext using a Registry of
// operators and functions. The zero value is not usable; use New.
type Interpreter struct {
	Registry *registry.Registry
}

// New returns an Interpreter backed by the given registry (pass
// registry.Default for the standard CORE catalog).
func New(reg *registry.Registry) *Interpreter {
	return &Interpreter{Registry: reg}
}

// Eval evaluates n against ctx, returning the resulting Collection. This is
// the function registry.EvalContext.Eval is backed by, closing the
// registry<->interpreter seam.
func (in *Interpreter) Eval(ctx *runtime.Context, n ast.Expr) (runtime.Collection, error) {
	if ctx.Steps != nil && ctx.Steps.Tick() {
		return nil, runtime.NewEvalError(runtime.ErrResourceExhausted, "evaluation step budget exceeded")
	}
	if ctx.GoContext != nil {
		select {
		case <-ctx.GoContext.Done():
			return nil, runtime.NewEvalError(runtime.ErrResourceExhausted, "evaluation cancelled: %v", ctx.GoContext.Err())
		default:
		}
	}

	v := &visitor{in: in, ctx: ctx}
	n.Accept(v)
	return v.result, v.err
}

// evalContextFor builds the registry.EvalContext seam for a given ctx,
// wiring Eval back to in.Eval so function/operator evaluators can recurse.
func (in *Interpreter) evalContextFor(ctx *runtime.Context) *registry.EvalContext {
	return &registry.EvalContext{
		RuntimeCtx: ctx,
		Eval:       in.Eval,
	}
}

// visitor carries one Eval call's context and accumulates its result/error;
// ast.Visitor has no return values, so each Visit* method stashes its
// outcome here.
type visitor struct {
	in     *Interpreter
	ctx    *runtime.Context
	result runtime.Collection
	err    error
}

func (vi *visitor) eval(ctx *runtime.Context, n ast.Expr) (runtime.Collection, error) {
	return vi.in.Eval(ctx, n)
}
