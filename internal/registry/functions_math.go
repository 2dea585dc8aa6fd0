package registry

import (
	"math"

	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/runtime"
)

// registerMathFunctions installs the numeric functions of spec §4.3: abs,
// ceiling, floor, round, sqrt, truncate, exp, ln, log, power. Each
// propagates empty on an empty or non-numeric input rather than erroring,
// and raises singleton-required on a multi-element input; power()/sqrt()
// of a negative base yield empty per the spec's "undefined result" rule.
func registerMathFunctions(r *Registry) {
	mathFn := func(name string, fn func(n numericOperand) (runtime.Value, bool)) {
		r.RegisterFunction(&Function{Name: name, Arity: Arity{0, 0}, Eval: valueFn(func(input runtime.Collection) (runtime.Collection, error) {
			v, ok, err := singleton(input)
			if err != nil {
				return nil, err
			}
			if !ok {
				return runtime.Empty, nil
			}
			n, ok := toNumeric(v)
			if !ok {
				return runtime.Empty, nil
			}
			out, ok := fn(n)
			if !ok {
				return runtime.Empty, nil
			}
			return runtime.Single(out), nil
		})})
	}

	mathFn("abs", func(n numericOperand) (runtime.Value, bool) {
		n.Float = math.Abs(n.Float)
		return numericToValue(n), true
	})
	mathFn("ceiling", func(n numericOperand) (runtime.Value, bool) {
		return runtime.Integer{Value: int64(math.Ceil(n.Float))}, true
	})
	mathFn("floor", func(n numericOperand) (runtime.Value, bool) {
		return runtime.Integer{Value: int64(math.Floor(n.Float))}, true
	})
	mathFn("truncate", func(n numericOperand) (runtime.Value, bool) {
		return runtime.Integer{Value: int64(math.Trunc(n.Float))}, true
	})
	mathFn("round", func(n numericOperand) (runtime.Value, bool) {
		return runtime.Decimal{Value: math.Round(n.Float)}, true
	})
	mathFn("sqrt", func(n numericOperand) (runtime.Value, bool) {
		if n.Float < 0 {
			return nil, false
		}
		return runtime.Decimal{Value: math.Sqrt(n.Float)}, true
	})
	mathFn("exp", func(n numericOperand) (runtime.Value, bool) {
		return runtime.Decimal{Value: math.Exp(n.Float)}, true
	})
	mathFn("ln", func(n numericOperand) (runtime.Value, bool) {
		if n.Float <= 0 {
			return nil, false
		}
		return runtime.Decimal{Value: math.Log(n.Float)}, true
	})

	r.RegisterFunction(&Function{Name: "log", Params: []ParamKind{ParamValue}, Arity: Arity{1, 1}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		v, ok, err := singleton(input)
		if err != nil || !ok {
			return runtime.Empty, err
		}
		n, ok := toNumeric(v)
		if !ok || n.Float <= 0 {
			return runtime.Empty, nil
		}
		base, ok, err := numericArg(ec, args[0])
		if err != nil || !ok || base.Float <= 0 || base.Float == 1 {
			return runtime.Empty, err
		}
		return runtime.Single(runtime.Decimal{Value: math.Log(n.Float) / math.Log(base.Float)}), nil
	}})

	r.RegisterFunction(&Function{Name: "power", Params: []ParamKind{ParamValue}, Arity: Arity{1, 1}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		v, ok, err := singleton(input)
		if err != nil || !ok {
			return runtime.Empty, err
		}
		n, ok := toNumeric(v)
		if !ok {
			return runtime.Empty, nil
		}
		exp, ok, err := numericArg(ec, args[0])
		if err != nil || !ok {
			return runtime.Empty, err
		}
		result := math.Pow(n.Float, exp.Float)
		if math.IsNaN(result) {
			return runtime.Empty, nil
		}
		if n.IsInteger && exp.IsInteger && exp.Float >= 0 {
			return runtime.Single(runtime.Integer{Value: int64(result)}), nil
		}
		return runtime.Single(runtime.Decimal{Value: result}), nil
	}})
}

func numericArg(ec *EvalContext, e ast.Expr) (numericOperand, bool, error) {
	coll, err := ec.Eval(ec.RuntimeCtx, e)
	if err != nil {
		return numericOperand{}, false, err
	}
	v, ok, err := singleton(coll)
	if err != nil || !ok {
		return numericOperand{}, false, err
	}
	n, ok := toNumeric(v)
	return n, ok, nil
}
