package analyzer

import (
	"strconv"

	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/diagnostics"
	"github.com/funvibe/fhirpath/internal/registry"
	"github.com/funvibe/fhirpath/internal/typesystem"
)

// VisitFunction annotates a call node: the receiver (if any) sets the
// input type function arguments see; each Expression-kind parameter is
// annotated with $this/$index pushed to the element type of that input
// (spec §4.4's "higher-order functions push $this"), while Value-kind
// parameters are annotated against the call-site's own focus.
func (v *annotateVisitor) VisitFunction(n *ast.Function) {
	name := n.Name()

	input := v.tctx.focus
	if recv := n.Receiver(); recv != nil {
		input = v.a.annotate(v.tctx, recv)
	}

	fn, ok := v.a.registry.Function(name)
	if !ok {
		v.a.report(diagnostics.CodeUnknownFunction, n, "unknown function %q", name)
		for _, arg := range n.Arguments {
			v.a.annotate(v.tctx, arg)
		}
		v.out = typesystem.AnyCollection
		return
	}

	if len(n.Arguments) < fn.Arity.Min || (fn.Arity.Max >= 0 && len(n.Arguments) > fn.Arity.Max) {
		v.a.report(diagnostics.CodeWrongArgumentCount, n, "function %q expects %s arguments, got %d", name, arityString(fn.Arity), len(n.Arguments))
	}

	elementCtx := v.tctx.withFocus(input.AsSingleton())
	elementCtx.set("$this", input.AsSingleton())
	elementCtx.set("$index", typesystem.Singleton(typesystem.Integer))

	// aggregate's accumulator expression sees $total as the init
	// expression's inferred type (or Any if omitted, per spec §4.4), so the
	// init argument (a Value-kind parameter) is annotated ahead of the
	// general loop to compute it.
	if name == "aggregate" {
		total := typesystem.AnyType
		if len(n.Arguments) > 1 {
			total = v.a.annotate(v.tctx, n.Arguments[1])
		}
		elementCtx.set("$total", total)
	}

	for i, arg := range n.Arguments {
		if name == "aggregate" && i == 1 {
			continue // already annotated above to compute $total
		}
		if fn.ParamKindAt(i) == registry.ParamExpression {
			v.a.annotate(elementCtx, arg)
		} else {
			v.a.annotate(v.tctx, arg)
		}
	}

	if name == "ofType" && len(n.Arguments) == 1 && v.a.provider != nil {
		if t, ok := v.a.provider.GetType(typeArgumentName(n.Arguments[0])); ok {
			v.out = t.AsCollection()
			return
		}
	}

	switch name {
	case "iif":
		// Least-upper-bound of the then/else branch types (spec §4.4).
		var thenType, elseType typesystem.TypeInfo
		if len(n.Arguments) > 1 {
			thenType = typeInfoOrAny(n.Arguments[1])
		}
		if len(n.Arguments) > 2 {
			elseType = typeInfoOrAny(n.Arguments[2])
		} else {
			elseType = typesystem.AnyCollection
		}
		v.out = typesystem.LeastUpperBound(thenType, elseType)
		return
	case "defineVariable":
		v.out = input
		return
	case "children":
		if v.a.provider != nil {
			if t, ok := v.a.provider.GetChildrenType(input); ok {
				v.out = t
				return
			}
		}
	}

	v.out = resultTypeFor(name, input)
}

// typeInfoOrAny reads back a node's type annotation after it has already
// been stamped by the general argument-annotation loop, defaulting to Any
// if the node was somehow left unannotated.
func typeInfoOrAny(n ast.Expr) typesystem.TypeInfo {
	if t := n.TypeInfo(); t != nil {
		return *t
	}
	return typesystem.AnyCollection
}

// typeArgumentName extracts the qualified type name from ofType's
// argument: the parser gives it a generic Identifier/TypeOrIdentifier/
// Binary(.) chain rather than a dedicated TypeReference, since ofType's
// grammar rule isn't the same production is/as use.
func typeArgumentName(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.Identifier:
		return n.Name
	case *ast.TypeOrIdentifier:
		return n.Name
	case *ast.Binary:
		if n.Op == ast.OpDot {
			return typeArgumentName(n.Right)
		}
	}
	return ""
}

func arityString(a registry.Arity) string {
	if a.Max < 0 {
		return strconv.Itoa(a.Min) + "+"
	}
	if a.Min == a.Max {
		return strconv.Itoa(a.Min)
	}
	return strconv.Itoa(a.Min) + ".." + strconv.Itoa(a.Max)
}

// resultTypeFor special-cases the handful of functions whose static result
// type depends on more than "same shape as input" (spec §4.4): empty/
// exists/all*/subsetOf/supersetOf/isDistinct and the string predicates
// return Boolean, count/length/indexOf return Integer, first/last/single
// narrow to singleton, the to* conversions and date/time/string functions
// return their fixed type, the rest default to the input's own collection
// type (select/where/repeat/combine/etc.). ofType's narrowing is done in
// VisitFunction, not here.
func resultTypeFor(name string, input typesystem.TypeInfo) typesystem.TypeInfo {
	switch name {
	case "empty", "exists", "all", "allTrue", "anyTrue", "allFalse", "anyFalse",
		"subsetOf", "supersetOf", "isDistinct",
		"startsWith", "endsWith", "contains", "matches":
		return typesystem.Singleton(typesystem.Boolean)
	case "count":
		return typesystem.Singleton(typesystem.Integer)
	case "first", "last", "single":
		return input.AsSingleton()
	case "length", "indexOf":
		return typesystem.Singleton(typesystem.Integer)
	case "toBoolean":
		return typesystem.Singleton(typesystem.Boolean)
	case "toInteger":
		return typesystem.Singleton(typesystem.Integer)
	case "toDecimal":
		return typesystem.Singleton(typesystem.Decimal)
	case "toString", "upper", "lower", "trim", "substring", "replace", "replaceMatches", "join":
		return typesystem.Singleton(typesystem.String)
	case "toDate":
		return typesystem.Singleton(typesystem.Date)
	case "toDateTime", "now":
		return typesystem.Singleton(typesystem.DateTime)
	case "toTime", "timeOfDay":
		return typesystem.Singleton(typesystem.Time)
	case "today":
		return typesystem.Singleton(typesystem.Date)
	case "toQuantity":
		return typesystem.Singleton(typesystem.Quantity)
	default:
		return input.AsCollection()
	}
}
