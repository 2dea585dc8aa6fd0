package registry

import (
	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/runtime"
)

// registerExistenceFunctions installs the existence-testing and counting
// functions of spec §4.3's catalog: empty, exists, all*, count, distinct,
// isDistinct, subsetOf, supersetOf.
func registerExistenceFunctions(r *Registry) {
	r.RegisterFunction(&Function{Name: "empty", Arity: Arity{0, 0}, Eval: valueFn(func(input runtime.Collection) (runtime.Collection, error) {
		return boolCollection(len(input) == 0), nil
	})})

	r.RegisterFunction(&Function{Name: "exists", Params: []ParamKind{ParamExpression}, Arity: Arity{0, 1}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		if len(args) == 0 {
			return boolCollection(len(input) != 0), nil
		}
		matched, err := filterBy(ec, input, args[0])
		if err != nil {
			return nil, err
		}
		return boolCollection(len(matched) != 0), nil
	}})

	r.RegisterFunction(&Function{Name: "all", Params: []ParamKind{ParamExpression}, Arity: Arity{1, 1}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		for i, v := range input {
			child := ec.RuntimeCtx.WithThisIndexTotal(v, i, nil)
			res, err := ec.Eval(child, args[0])
			if err != nil {
				return nil, err
			}
			b, err := asBool(res)
			if err != nil {
				return nil, err
			}
			if b == nil || !*b {
				return boolCollection(false), nil
			}
		}
		return boolCollection(true), nil
	}})

	r.RegisterFunction(&Function{Name: "allTrue", Arity: Arity{0, 0}, Eval: valueFn(func(input runtime.Collection) (runtime.Collection, error) {
		for _, v := range input {
			if b, ok := v.(runtime.Boolean); !ok || !b.Value {
				return boolCollection(false), nil
			}
		}
		return boolCollection(true), nil
	})})
	r.RegisterFunction(&Function{Name: "anyTrue", Arity: Arity{0, 0}, Eval: valueFn(func(input runtime.Collection) (runtime.Collection, error) {
		for _, v := range input {
			if b, ok := v.(runtime.Boolean); ok && b.Value {
				return boolCollection(true), nil
			}
		}
		return boolCollection(false), nil
	})})
	r.RegisterFunction(&Function{Name: "allFalse", Arity: Arity{0, 0}, Eval: valueFn(func(input runtime.Collection) (runtime.Collection, error) {
		for _, v := range input {
			if b, ok := v.(runtime.Boolean); !ok || b.Value {
				return boolCollection(false), nil
			}
		}
		return boolCollection(true), nil
	})})
	r.RegisterFunction(&Function{Name: "anyFalse", Arity: Arity{0, 0}, Eval: valueFn(func(input runtime.Collection) (runtime.Collection, error) {
		for _, v := range input {
			if b, ok := v.(runtime.Boolean); ok && !b.Value {
				return boolCollection(true), nil
			}
		}
		return boolCollection(false), nil
	})})

	r.RegisterFunction(&Function{Name: "count", Arity: Arity{0, 0}, Eval: valueFn(func(input runtime.Collection) (runtime.Collection, error) {
		return runtime.Single(runtime.Integer{Value: int64(len(input))}), nil
	})})

	r.RegisterFunction(&Function{Name: "distinct", Arity: Arity{0, 0}, Eval: valueFn(func(input runtime.Collection) (runtime.Collection, error) {
		return runtime.Dedup(input), nil
	})})
	r.RegisterFunction(&Function{Name: "isDistinct", Arity: Arity{0, 0}, Eval: valueFn(func(input runtime.Collection) (runtime.Collection, error) {
		return boolCollection(len(runtime.Dedup(input)) == len(input)), nil
	})})

	r.RegisterFunction(&Function{Name: "subsetOf", Params: []ParamKind{ParamValue}, Arity: Arity{1, 1}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		other, err := ec.Eval(ec.RuntimeCtx, args[0])
		if err != nil {
			return nil, err
		}
		for _, v := range input {
			if !containsValue(other, v) {
				return boolCollection(false), nil
			}
		}
		return boolCollection(true), nil
	}})
	r.RegisterFunction(&Function{Name: "supersetOf", Params: []ParamKind{ParamValue}, Arity: Arity{1, 1}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		other, err := ec.Eval(ec.RuntimeCtx, args[0])
		if err != nil {
			return nil, err
		}
		for _, v := range other {
			if !containsValue(input, v) {
				return boolCollection(false), nil
			}
		}
		return boolCollection(true), nil
	}})
}

func containsValue(c runtime.Collection, v runtime.Value) bool {
	for _, e := range c {
		if e.Equal(v) {
			return true
		}
	}
	return false
}

// valueFn adapts a function that only needs the focus collection (no
// arguments, no Expression-kind parameters) to the registry's FuncEvaluator
// shape.
func valueFn(fn func(input runtime.Collection) (runtime.Collection, error)) FuncEvaluator {
	return func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		return fn(input)
	}
}

// filterBy evaluates criteria once per input element with $this/$index
// bound and returns the elements for which it evaluated truthy — the
// shared mechanics behind where/exists(criteria).
func filterBy(ec *EvalContext, input runtime.Collection, criteria ast.Expr) (runtime.Collection, error) {
	var out runtime.Collection
	for i, v := range input {
		child := ec.RuntimeCtx.WithThisIndexTotal(v, i, nil)
		res, err := ec.Eval(child, criteria)
		if err != nil {
			return nil, err
		}
		b, err := asBool(res)
		if err != nil {
			return nil, err
		}
		if b != nil && *b {
			out = append(out, v)
		}
	}
	return out, nil
}
