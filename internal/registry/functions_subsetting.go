package registry

import (
	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/runtime"
)

// registerSubsettingFunctions installs single/first/last/tail/skip/take/
// intersect/exclude/[] indexer helpers (spec §4.3).
func registerSubsettingFunctions(r *Registry) {
	r.RegisterFunction(&Function{Name: "single", Arity: Arity{0, 0}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		if len(input) == 0 {
			return runtime.Empty, nil
		}
		if len(input) > 1 {
			return nil, runtime.NewEvalError(runtime.ErrSingletonRequired, "single() called on a collection of %d elements", len(input))
		}
		return input, nil
	}})

	r.RegisterFunction(&Function{Name: "first", Arity: Arity{0, 0}, Eval: valueFn(func(input runtime.Collection) (runtime.Collection, error) {
		if len(input) == 0 {
			return runtime.Empty, nil
		}
		return runtime.Single(input[0]), nil
	})})
	r.RegisterFunction(&Function{Name: "last", Arity: Arity{0, 0}, Eval: valueFn(func(input runtime.Collection) (runtime.Collection, error) {
		if len(input) == 0 {
			return runtime.Empty, nil
		}
		return runtime.Single(input[len(input)-1]), nil
	})})
	r.RegisterFunction(&Function{Name: "tail", Arity: Arity{0, 0}, Eval: valueFn(func(input runtime.Collection) (runtime.Collection, error) {
		if len(input) <= 1 {
			return runtime.Empty, nil
		}
		return input[1:], nil
	})})

	r.RegisterFunction(&Function{Name: "skip", Params: []ParamKind{ParamValue}, Arity: Arity{1, 1}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		n, ok, err := intArg(ec, args[0])
		if err != nil {
			return nil, err
		}
		if !ok || n < 0 {
			return runtime.Empty, nil
		}
		if n >= len(input) {
			return runtime.Empty, nil
		}
		return input[n:], nil
	}})
	r.RegisterFunction(&Function{Name: "take", Params: []ParamKind{ParamValue}, Arity: Arity{1, 1}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		n, ok, err := intArg(ec, args[0])
		if err != nil {
			return nil, err
		}
		if !ok || n <= 0 {
			return runtime.Empty, nil
		}
		if n > len(input) {
			n = len(input)
		}
		return input[:n], nil
	}})

	r.RegisterFunction(&Function{Name: "intersect", Params: []ParamKind{ParamValue}, Arity: Arity{1, 1}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		other, err := ec.Eval(ec.RuntimeCtx, args[0])
		if err != nil {
			return nil, err
		}
		var out runtime.Collection
		for _, v := range input {
			if containsValue(other, v) && !containsValue(out, v) {
				out = append(out, v)
			}
		}
		return out, nil
	}})
	r.RegisterFunction(&Function{Name: "exclude", Params: []ParamKind{ParamValue}, Arity: Arity{1, 1}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		other, err := ec.Eval(ec.RuntimeCtx, args[0])
		if err != nil {
			return nil, err
		}
		var out runtime.Collection
		for _, v := range input {
			if !containsValue(other, v) {
				out = append(out, v)
			}
		}
		return out, nil
	}})
}

func intArg(ec *EvalContext, e ast.Expr) (int, bool, error) {
	coll, err := ec.Eval(ec.RuntimeCtx, e)
	if err != nil {
		return 0, false, err
	}
	v, ok, err := singleton(coll)
	if err != nil || !ok {
		return 0, false, err
	}
	i, ok := v.(runtime.Integer)
	if !ok {
		return 0, false, nil
	}
	return int(i.Value), true, nil
}
