package registry

import (
	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/runtime"
)

// registerFilteringFunctions installs where/select/repeat/ofType plus the
// special-form functions whose arguments need bespoke evaluation order:
// iif (short-circuiting), defineVariable (binds into the caller's scope),
// and aggregate (threads $total across iterations).
func registerFilteringFunctions(r *Registry) {
	r.RegisterFunction(&Function{Name: "where", Params: []ParamKind{ParamExpression}, Arity: Arity{1, 1}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		return filterBy(ec, input, args[0])
	}})

	r.RegisterFunction(&Function{Name: "select", Params: []ParamKind{ParamExpression}, Arity: Arity{1, 1}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		var out runtime.Collection
		for i, v := range input {
			child := ec.RuntimeCtx.WithThisIndexTotal(v, i, nil)
			res, err := ec.Eval(child, args[0])
			if err != nil {
				return nil, err
			}
			out = append(out, res...)
		}
		return out, nil
	}})

	r.RegisterFunction(&Function{Name: "repeat", Params: []ParamKind{ParamExpression}, Arity: Arity{1, 1}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		var out runtime.Collection
		frontier := input
		for len(frontier) > 0 {
			var next runtime.Collection
			for i, v := range frontier {
				child := ec.RuntimeCtx.WithThisIndexTotal(v, i, nil)
				res, err := ec.Eval(child, args[0])
				if err != nil {
					return nil, err
				}
				for _, rv := range res {
					if containsValue(out, rv) {
						continue
					}
					out = append(out, rv)
					next = append(next, rv)
				}
			}
			frontier = next
		}
		return out, nil
	}})

	r.RegisterFunction(&Function{Name: "ofType", Params: []ParamKind{ParamValue}, Arity: Arity{1, 1}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		typeName := typeReferenceName(args[0])
		var out runtime.Collection
		for _, v := range input {
			if valueIsType(v, typeName) {
				out = append(out, v)
			}
		}
		return out, nil
	}})

	// iif(criterion, true-result [, otherwise-result]): criterion is
	// evaluated once against the whole input; only the taken branch's
	// expression is ever evaluated (spec §4.3 short-circuit contract).
	r.RegisterFunction(&Function{Name: "iif", Params: []ParamKind{ParamValue, ParamExpression, ParamExpression}, Arity: Arity{2, 3}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		cond, err := ec.Eval(ec.RuntimeCtx, args[0])
		if err != nil {
			return nil, err
		}
		b, err := asBool(cond)
		if err != nil {
			return nil, err
		}
		if b != nil && *b {
			return ec.Eval(ec.RuntimeCtx, args[1])
		}
		if len(args) == 3 {
			return ec.Eval(ec.RuntimeCtx, args[2])
		}
		return runtime.Empty, nil
	}})

	// defineVariable(name [, expr]) binds name for the rest of the
	// enclosing expression chain. Because the interpreter evaluates a
	// `.`-chain left to right extending the context at each step, binding
	// directly onto ec.RuntimeCtx here is visible to every subsequent step
	// sharing that context frame.
	r.RegisterFunction(&Function{Name: "defineVariable", Params: []ParamKind{ParamValue, ParamValue}, Arity: Arity{1, 2}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		nameColl, err := ec.Eval(ec.RuntimeCtx, args[0])
		if err != nil {
			return nil, err
		}
		nameVal, ok, err := singleton(nameColl)
		if err != nil {
			return nil, err
		}
		if !ok {
			return input, nil
		}
		name, _ := nameVal.(runtime.String)
		value := input
		if len(args) == 2 {
			value, err = ec.Eval(ec.RuntimeCtx, args[1])
			if err != nil {
				return nil, err
			}
		}
		ec.RuntimeCtx.Set(name.Value, value)
		return input, nil
	}})

	// aggregate(aggregator [, init]) threads $total across $this
	// iterations, per spec §4.3's accumulator contract.
	r.RegisterFunction(&Function{Name: "aggregate", Params: []ParamKind{ParamExpression, ParamValue}, Arity: Arity{1, 2}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		var total runtime.Collection
		if len(args) == 2 {
			init, err := ec.Eval(ec.RuntimeCtx, args[1])
			if err != nil {
				return nil, err
			}
			total = init
		}
		for i, v := range input {
			child := ec.RuntimeCtx.WithThisIndexTotal(v, i, total)
			res, err := ec.Eval(child, args[0])
			if err != nil {
				return nil, err
			}
			total = res
		}
		return total, nil
	}})
}

// typeReferenceName extracts the qualified type name from ofType's
// argument, whose surface grammar is a generic expression (§6.4's
// type-specifier production is written as `Identifier ('.' Identifier)?`,
// which the parser already parses as a plain Identifier/TypeOrIdentifier
// or Binary(.) chain — no dedicated TypeReference node, since ofType isn't
// part of the is/as grammar rule).
func typeReferenceName(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.Identifier:
		return n.Name
	case *ast.TypeOrIdentifier:
		return n.Name
	case *ast.Binary:
		if n.Op == ast.OpDot {
			return typeReferenceName(n.Right)
		}
	}
	return ""
}

// valueIsType reports whether v's runtime type matches typeName, by
// primitive kind name or (for Complex resources) ResourceType / Model name.
func valueIsType(v runtime.Value, typeName string) bool {
	if c, ok := v.(*runtime.Complex); ok {
		if c.ResourceType == typeName {
			return true
		}
		if c.Model != nil && c.Model.Name == typeName {
			return true
		}
		return false
	}
	return primitiveTypeName(v) == typeName
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
