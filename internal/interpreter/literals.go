package interpreter

import (
	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/runtime"
)

func (vi *visitor) VisitLiteral(n *ast.Literal) {
	switch n.ValueKind {
	case ast.ValueNull:
		vi.result = runtime.Empty
	case ast.ValueString:
		vi.result = runtime.Single(runtime.String{Value: n.Value.(string)})
	case ast.ValueBoolean:
		vi.result = runtime.Single(runtime.Boolean{Value: n.Value.(bool)})
	case ast.ValueNumber:
		vi.result = runtime.Single(numberLiteralValue(n))
	case ast.ValueDate:
		vi.result = runtime.Single(parseDateLiteral(n.Value.(string)))
	case ast.ValueDateTime:
		vi.result = runtime.Single(parseDateTimeLiteral(n.Value.(string)))
	case ast.ValueTime:
		vi.result = runtime.Single(parseTimeLiteral(n.Value.(string)))
	case ast.ValueQuantity:
		vi.result = runtime.Single(runtime.Quantity{Value: n.Value.(float64), Unit: n.Unit})
	default:
		vi.err = runtime.NewEvalError(runtime.ErrInvalidOperand, "unknown literal kind")
	}
}

// numberLiteralValue renders a numeric literal as Integer when its source
// lexeme has no '.' (the lexer always produces a float64 Literal value, so
// Integer vs. Decimal is decided from the surface text, per spec §3.4's
// literal grammar where "4" is Integer and "4.0" is Decimal).
func numberLiteralValue(n *ast.Literal) runtime.Value {
	f := n.Value.(float64)
	for _, r := range n.Token.Lexeme {
		if r == '.' || r == 'e' || r == 'E' {
			return runtime.Decimal{Value: f}
		}
	}
	return runtime.Integer{Value: int64(f)}
}

func (vi *visitor) VisitIdentifier(n *ast.Identifier) {
	vi.result = navigate(vi.ctx.Focus, n.Name)
}

func (vi *visitor) VisitTypeOrIdentifier(n *ast.TypeOrIdentifier) {
	var out runtime.Collection
	for _, v := range vi.ctx.Focus {
		if c, ok := v.(*runtime.Complex); ok && c.ResourceType == n.Name {
			out = append(out, c)
		}
	}
	if len(out) > 0 {
		vi.result = out
		return
	}
	vi.result = navigate(vi.ctx.Focus, n.Name)
}

// navigate implements `.`-step property access: each Complex element of
// focus contributes its named field's collection, flattened (spec §4.2 "a
// path step applied to a collection applies to every element and flattens
// the results").
func navigate(focus runtime.Collection, name string) runtime.Collection {
	var out runtime.Collection
	for _, v := range focus {
		c, ok := v.(*runtime.Complex)
		if !ok {
			continue
		}
		if field, ok := c.Get(name); ok {
			out = append(out, field...)
		}
	}
	return out
}

func (vi *visitor) VisitVariable(n *ast.Variable) {
	switch n.Kind {
	case ast.VarThis:
		if v, ok := vi.ctx.Lookup("$this"); ok {
			vi.result = v
			return
		}
		vi.result = vi.ctx.Focus
	case ast.VarIndex:
		if v, ok := vi.ctx.Lookup("$index"); ok {
			vi.result = v
			return
		}
		vi.result = runtime.Empty
	case ast.VarTotal:
		if v, ok := vi.ctx.Lookup("$total"); ok {
			vi.result = v
			return
		}
		vi.result = runtime.Empty
	case ast.VarEnv:
		// Env vars and defineVariable()-bound vars share one namespace, keyed
		// by bare name (no leading '%'), so defineVariable("x", ...) is
		// visible to a later %x reference.
		if v, ok := vi.ctx.Lookup(n.Name); ok {
			vi.result = v
			return
		}
		vi.result = runtime.Empty
	}
}
