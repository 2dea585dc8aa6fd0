package interpreter

import (
	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/runtime"
)

// VisitBinary evaluates '.', '|', and every registry-backed infix operator.
// '.' is special-cased rather than routed through the registry because its
// semantics (evaluate Right with Focus replaced by Left's result) don't fit
// the left/right-already-evaluated OpEvaluator shape every other operator
// uses.
func (vi *visitor) VisitBinary(n *ast.Binary) {
	if n.Op == ast.OpDot {
		vi.visitDot(n)
		return
	}

	left, err := vi.eval(vi.ctx, n.Left)
	if err != nil {
		vi.err = err
		return
	}
	right, err := vi.eval(vi.ctx, n.Right)
	if err != nil {
		vi.err = err
		return
	}

	op, ok := vi.in.Registry.Operator(string(n.Op))
	if !ok {
		vi.err = runtime.NewEvalError(runtime.ErrInvalidOperand, "unknown operator %q", n.Op)
		return
	}
	ec := vi.in.evalContextFor(vi.ctx)
	vi.result, vi.err = op.Eval(ec, left, right)
}

// visitDot evaluates a `.`-chain. The parser folds `a.b.c` into a
// left-associated Binary(.) tree; flattening it into a step list and
// threading ONE extended context across every step (rather than recursing
// step-by-step through fresh contexts) is what lets defineVariable's
// binding — set on the shared context frame — stay visible to the rest of
// the same chain (spec §4.3's defineVariable scope contract).
func (vi *visitor) visitDot(n *ast.Binary) {
	steps := flattenDotChain(n)

	focus, err := vi.eval(vi.ctx, steps[0])
	if err != nil {
		vi.err = err
		return
	}

	child := vi.ctx.Extend()
	for _, step := range steps[1:] {
		child.Focus = focus
		focus, err = vi.eval(child, step)
		if err != nil {
			vi.err = err
			return
		}
	}
	vi.result = focus
}

// flattenDotChain returns every step of a left-associated Binary(.) tree,
// left to right: for Binary(.,Binary(.,a,b),c) it returns [a, b, c].
func flattenDotChain(n *ast.Binary) []ast.Expr {
	if left, ok := n.Left.(*ast.Binary); ok && left.Op == ast.OpDot {
		return append(flattenDotChain(left), n.Right)
	}
	return []ast.Expr{n.Left, n.Right}
}

func (vi *visitor) VisitUnary(n *ast.Unary) {
	operand, err := vi.eval(vi.ctx, n.Operand)
	if err != nil {
		vi.err = err
		return
	}
	switch n.Op {
	case ast.OpNot:
		b, err := asBoolCollection(operand)
		if err != nil {
			vi.err = err
			return
		}
		vi.result = b
	case ast.OpUnaryPlus:
		vi.result = operand
	case ast.OpUnaryMinus:
		vi.result = negate(operand)
	}
}

func negate(c runtime.Collection) runtime.Collection {
	v, ok, err := singletonOrNil(c)
	if err != nil || !ok {
		return runtime.Empty
	}
	switch n := v.(type) {
	case runtime.Integer:
		return runtime.Single(runtime.Integer{Value: -n.Value})
	case runtime.Decimal:
		return runtime.Single(runtime.Decimal{Value: -n.Value})
	case runtime.Quantity:
		return runtime.Single(runtime.Quantity{Value: -n.Value, Unit: n.Unit})
	}
	return runtime.Empty
}

func (vi *visitor) VisitIndex(n *ast.Index) {
	coll, err := vi.eval(vi.ctx, n.Expression)
	if err != nil {
		vi.err = err
		return
	}
	idxColl, err := vi.eval(vi.ctx, n.IndexExpr)
	if err != nil {
		vi.err = err
		return
	}
	idxVal, ok, err := singletonOrNil(idxColl)
	if err != nil {
		vi.err = err
		return
	}
	if !ok {
		vi.result = runtime.Empty
		return
	}
	idx, ok := idxVal.(runtime.Integer)
	if !ok || idx.Value < 0 || int(idx.Value) >= len(coll) {
		vi.result = runtime.Empty
		return
	}
	vi.result = runtime.Single(coll[idx.Value])
}

func (vi *visitor) VisitCollection(n *ast.Collection) {
	var out runtime.Collection
	for _, e := range n.Elements {
		v, err := vi.eval(vi.ctx, e)
		if err != nil {
			vi.err = err
			return
		}
		out = append(out, v...)
	}
	vi.result = out
}

func (vi *visitor) VisitError(n *ast.ErrorNode) {
	vi.result = runtime.Empty
}

func singletonOrNil(c runtime.Collection) (runtime.Value, bool, error) {
	switch len(c) {
	case 0:
		return nil, false, nil
	case 1:
		return c[0], true, nil
	default:
		return nil, false, runtime.NewEvalError(runtime.ErrSingletonRequired, "expected a singleton collection, got %d elements", len(c))
	}
}

func asBoolCollection(c runtime.Collection) (runtime.Collection, error) {
	v, ok, err := singletonOrNil(c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return runtime.Empty, nil
	}
	b, isBool := v.(runtime.Boolean)
	if !isBool {
		// Non-Boolean singleton coerces to true (spec §4.5 singleton
		// evaluation rule 2) before negation.
		return runtime.Single(runtime.Boolean{Value: false}), nil
	}
	return runtime.Single(runtime.Boolean{Value: !b.Value}), nil
}
