package interpreter

import (
	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/runtime"
)

// VisitFunction dispatches a call node to a host-registered
// runtime.CustomFunction of that name or, failing that, a registry.Function
// (builtin). Its input is the evaluated Receiver() when the callee has one,
// and the current focus otherwise. A call with no resolvable name, an
// unknown function, or a wrong argument count is an invalid-operand
// EvalError.
func (vi *visitor) VisitFunction(n *ast.Function) {
	name := n.Name()
	if name == "" {
		vi.err = runtime.NewEvalError(runtime.ErrInvalidOperand, "malformed function call")
		return
	}

	var input runtime.Collection
	if recv := n.Receiver(); recv != nil {
		v, err := vi.eval(vi.ctx, recv)
		if err != nil {
			vi.err = err
			return
		}
		input = v
	} else {
		input = vi.ctx.Focus
	}

	if fn, ok := vi.ctx.CustomFunctions[name]; ok {
		args := make([]runtime.Collection, len(n.Arguments))
		for i, a := range n.Arguments {
			v, err := vi.eval(vi.ctx, a)
			if err != nil {
				vi.err = err
				return
			}
			args[i] = v
		}
		vi.result, vi.err = fn(vi.ctx, input, args)
		return
	}

	fn, ok := vi.in.Registry.Function(name)
	if !ok {
		vi.err = runtime.NewEvalError(runtime.ErrInvalidOperand, "unknown function %q", name)
		return
	}
	if len(n.Arguments) < fn.Arity.Min || (fn.Arity.Max >= 0 && len(n.Arguments) > fn.Arity.Max) {
		vi.err = runtime.NewEvalError(runtime.ErrInvalidOperand, "function %q called with %d arguments", name, len(n.Arguments))
		return
	}

	ec := vi.in.evalContextFor(vi.ctx)
	vi.result, vi.err = fn.Eval(ec, input, n.Arguments)
}

// VisitMembershipTest evaluates `expr is Type` (spec §4.4/§4.5): singleton
// input required; empty input yields empty, never false.
func (vi *visitor) VisitMembershipTest(n *ast.MembershipTest) {
	coll, err := vi.eval(vi.ctx, n.Expression)
	if err != nil {
		vi.err = err
		return
	}
	v, ok, err := singletonOrNil(coll)
	if err != nil {
		vi.err = err
		return
	}
	if !ok {
		vi.result = runtime.Empty
		return
	}
	vi.result = runtime.Single(runtime.Boolean{Value: matchesType(vi.ctx, v, n.TargetType)})
}

// VisitTypeCast evaluates `expr as Type`: passes the singleton through
// unchanged if it matches, else empty.
func (vi *visitor) VisitTypeCast(n *ast.TypeCast) {
	coll, err := vi.eval(vi.ctx, n.Expression)
	if err != nil {
		vi.err = err
		return
	}
	v, ok, err := singletonOrNil(coll)
	if err != nil {
		vi.err = err
		return
	}
	if !ok {
		vi.result = runtime.Empty
		return
	}
	if matchesType(vi.ctx, v, n.TargetType) {
		vi.result = runtime.Single(v)
		return
	}
	vi.result = runtime.Empty
}

// VisitTypeReference never appears as a stand-alone evaluated node — it is
// only ever reached through MembershipTest/TypeCast's TargetType field,
// which matchesType reads directly without visiting.
func (vi *visitor) VisitTypeReference(n *ast.TypeReference) {
	vi.result = runtime.Empty
}

func matchesType(ctx *runtime.Context, v runtime.Value, ref *ast.TypeReference) bool {
	if c, ok := v.(*runtime.Complex); ok {
		if c.ResourceType == ref.Name {
			return true
		}
		if ctx.ModelProvider != nil && c.Model != nil {
			target, ok := ctx.ModelProvider.GetType(ref.QualifiedName())
			if ok {
				return ctx.ModelProvider.IsAssignable(*c.Model, target)
			}
		}
		return false
	}
	return primitiveTypeName(v) == ref.Name
}

func primitiveTypeName(v runtime.Value) string {
	switch v.(type) {
	case runtime.Boolean:
		return "Boolean"
	case runtime.String:
		return "String"
	case runtime.Integer:
		return "Integer"
	case runtime.Decimal:
		return "Decimal"
	case runtime.Date:
		return "Date"
	case runtime.DateTime:
		return "DateTime"
	case runtime.Time:
		return "Time"
	case runtime.Quantity:
		return "Quantity"
	}
	return ""
}
