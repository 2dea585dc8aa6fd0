package analyzer

import (
	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/diagnostics"
	"github.com/funvibe/fhirpath/internal/typesystem"
)

// annotate stamps n's TypeInfo (and recurses into its children with tctx
// threaded per node kind's navigation rule), returning the stamped type for
// callers that need it without a re-lookup.
func (a *analyzer) annotate(tctx *typeContext, n ast.Expr) typesystem.TypeInfo {
	v := &annotateVisitor{a: a, tctx: tctx}
	n.Accept(v)
	ast.SetTypeInfo(n, v.out)
	return v.out
}

type annotateVisitor struct {
	a    *analyzer
	tctx *typeContext
	out  typesystem.TypeInfo
}

func (v *annotateVisitor) VisitLiteral(n *ast.Literal) {
	switch n.ValueKind {
	case ast.ValueNull:
		v.out = typesystem.AnyCollection
	case ast.ValueString:
		v.out = typesystem.Singleton(typesystem.String)
	case ast.ValueBoolean:
		v.out = typesystem.Singleton(typesystem.Boolean)
	case ast.ValueNumber:
		v.out = typesystem.Singleton(typesystem.Integer)
		for _, r := range n.Token.Lexeme {
			if r == '.' || r == 'e' || r == 'E' {
				v.out = typesystem.Singleton(typesystem.Decimal)
			}
		}
	case ast.ValueDate:
		v.out = typesystem.Singleton(typesystem.Date)
	case ast.ValueDateTime:
		v.out = typesystem.Singleton(typesystem.DateTime)
	case ast.ValueTime:
		v.out = typesystem.Singleton(typesystem.Time)
	case ast.ValueQuantity:
		v.out = typesystem.Singleton(typesystem.Quantity)
	}
}

func (v *annotateVisitor) VisitIdentifier(n *ast.Identifier) {
	v.out = v.resolveElement(n, n.Name)
}

func (v *annotateVisitor) VisitTypeOrIdentifier(n *ast.TypeOrIdentifier) {
	if v.a.provider != nil {
		if t, ok := v.a.provider.GetType(n.Name); ok {
			v.out = t.AsCollection()
			return
		}
	}
	v.out = v.resolveElement(n, n.Name)
}

// resolveElement looks up name as a child of the current focus type via the
// ModelProvider, reporting CodeUnknownProperty when the provider is present
// but doesn't recognize it. With no ModelProvider attached, navigation is
// unconstrained (Any), since CORE specifies ModelProvider as an optional
// collaborator (spec §6.2).
func (v *annotateVisitor) resolveElement(n ast.Node, name string) typesystem.TypeInfo {
	if v.a.provider == nil {
		return typesystem.AnyCollection
	}
	t, ok := v.a.provider.GetElementType(v.tctx.focus, name)
	if !ok {
		v.a.warn(diagnostics.CodeUnknownProperty, n, "unknown property %q on type %s", name, v.a.provider.TypeName(v.tctx.focus))
		return typesystem.AnyCollection
	}
	return t
}

func (v *annotateVisitor) VisitVariable(n *ast.Variable) {
	switch n.Kind {
	case ast.VarThis:
		if t, ok := v.tctx.lookup("$this"); ok {
			v.out = t
			return
		}
		v.out = v.tctx.focus
	case ast.VarIndex:
		v.out = typesystem.Singleton(typesystem.Integer)
	case ast.VarTotal:
		if t, ok := v.tctx.lookup("$total"); ok {
			v.out = t
			return
		}
		v.out = typesystem.AnyCollection
	case ast.VarEnv:
		if t, ok := v.tctx.lookup(n.Name); ok {
			v.out = t
			return
		}
		v.a.warn(diagnostics.CodeUnknownVariable, n, "undefined variable %%%s", n.Name)
		v.out = typesystem.AnyCollection
	}
}

func (v *annotateVisitor) VisitBinary(n *ast.Binary) {
	if n.Op == ast.OpDot {
		left := v.a.annotate(v.tctx, n.Left)
		right := v.a.annotate(v.tctx.withFocus(left), n.Right)
		v.out = right
		return
	}

	left := v.a.annotate(v.tctx, n.Left)
	right := v.a.annotate(v.tctx, n.Right)

	if _, ok := v.a.registry.Operator(string(n.Op)); !ok {
		v.a.report(diagnostics.CodeUnknownOperator, n, "unknown operator %q", n.Op)
		v.out = typesystem.AnyCollection
		return
	}

	switch n.Op {
	case ast.OpAnd, ast.OpOr, ast.OpXor, ast.OpImplies,
		ast.OpEq, ast.OpNeq, ast.OpEquiv, ast.OpNequiv,
		ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte,
		ast.OpIn, ast.OpContains:
		v.out = typesystem.Singleton(typesystem.Boolean)
	case ast.OpUnion:
		v.out = unionResultType(left, right)
	case ast.OpConcat:
		v.out = typesystem.Singleton(typesystem.String)
	default: // arithmetic: + - * / div mod
		v.out = arithmeticResultType(left, right)
	}
}

func unionResultType(a, b typesystem.TypeInfo) typesystem.TypeInfo {
	if a.Type == b.Type && a.Name == b.Name {
		return a.AsCollection()
	}
	return typesystem.AnyCollection
}

func arithmeticResultType(a, b typesystem.TypeInfo) typesystem.TypeInfo {
	if a.Type == typesystem.Quantity || b.Type == typesystem.Quantity {
		return typesystem.Singleton(typesystem.Quantity)
	}
	if a.Type == typesystem.Decimal || b.Type == typesystem.Decimal {
		return typesystem.Singleton(typesystem.Decimal)
	}
	if a.Type == typesystem.Integer && b.Type == typesystem.Integer {
		return typesystem.Singleton(typesystem.Integer)
	}
	return typesystem.AnyType
}

func (v *annotateVisitor) VisitUnary(n *ast.Unary) {
	operand := v.a.annotate(v.tctx, n.Operand)
	if n.Op == ast.OpNot {
		v.out = typesystem.Singleton(typesystem.Boolean)
		return
	}
	v.out = operand
}

func (v *annotateVisitor) VisitIndex(n *ast.Index) {
	coll := v.a.annotate(v.tctx, n.Expression)
	idxType := v.a.annotate(v.tctx, n.IndexExpr)
	if idxType.Type != typesystem.Integer && idxType.Type != typesystem.Any {
		v.a.report(diagnostics.CodeTypeMismatch, n.IndexExpr, "index expression must be Integer, got %s", idxType)
	}
	v.out = coll.AsSingleton()
}

func (v *annotateVisitor) VisitCollection(n *ast.Collection) {
	for _, e := range n.Elements {
		v.a.annotate(v.tctx, e)
	}
	v.out = typesystem.AnyCollection
}

func (v *annotateVisitor) VisitMembershipTest(n *ast.MembershipTest) {
	v.a.annotate(v.tctx, n.Expression)
	v.checkTypeReference(n.TargetType)
	v.out = typesystem.Singleton(typesystem.Boolean)
}

func (v *annotateVisitor) VisitTypeCast(n *ast.TypeCast) {
	v.a.annotate(v.tctx, n.Expression)
	v.checkTypeReference(n.TargetType)
	if v.a.provider != nil {
		if t, ok := v.a.provider.GetType(n.TargetType.QualifiedName()); ok {
			v.out = t.AsSingleton()
			return
		}
	}
	v.out = typesystem.AnyType
}

func (v *annotateVisitor) VisitTypeReference(n *ast.TypeReference) {
	v.checkTypeReference(n)
	v.out = typesystem.AnyType
}

func (v *annotateVisitor) checkTypeReference(t *ast.TypeReference) {
	if v.a.provider == nil {
		switch typesystem.PrimitiveKind(t.Name) {
		case typesystem.Boolean, typesystem.String, typesystem.Integer, typesystem.Long, typesystem.Decimal,
			typesystem.Date, typesystem.DateTime, typesystem.Time, typesystem.Quantity:
		default:
			v.a.report(diagnostics.CodeModelProviderNeeded, t, "type %q cannot be resolved without a ModelProvider", t.QualifiedName())
		}
		return
	}
	if _, ok := v.a.provider.GetType(t.QualifiedName()); !ok {
		v.a.report(diagnostics.CodeInvalidTypeTest, t, "unknown type %q", t.QualifiedName())
	}
}

func (v *annotateVisitor) VisitError(n *ast.ErrorNode) {
	v.out = typesystem.AnyCollection
}
