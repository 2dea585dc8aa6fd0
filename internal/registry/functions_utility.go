package registry

import (
	"time"

	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/runtime"
)

// registerUtilityFunctions installs trace() and the wall-clock accessors
// now()/today()/timeOfDay() (spec §4.3). now()/today() are evaluated once
// per Context.GoContext-scoped call rather than memoized across an entire
// expression tree — CORE places no "single evaluation instant" contract on
// them, unlike some FHIRPath profiles.
func registerUtilityFunctions(r *Registry) {
	r.RegisterFunction(&Function{Name: "trace", Params: []ParamKind{ParamValue, ParamExpression}, Arity: Arity{1, 2}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		name, _, err := evalString(ec, args[0])
		if err != nil {
			return nil, err
		}
		values := input
		if len(args) == 2 {
			values, err = ec.Eval(ec.RuntimeCtx, args[1])
			if err != nil {
				return nil, err
			}
		}
		if ec.RuntimeCtx.Trace != nil {
			ec.RuntimeCtx.Trace(name, values)
		}
		return input, nil
	}})

	r.RegisterFunction(&Function{Name: "now", Arity: Arity{0, 0}, Eval: valueFn(func(runtime.Collection) (runtime.Collection, error) {
		n := time.Now()
		_, offset := n.Zone()
		return runtime.Single(runtime.DateTime{
			Year: n.Year(), Month: int(n.Month()), Day: n.Day(),
			Hour: n.Hour(), Minute: n.Minute(), Second: n.Second(),
			Millisecond: n.Nanosecond() / 1e6,
			HasTimezone: true, TZOffsetMinutes: offset / 60,
			Precision: 7,
		}), nil
	})})

	r.RegisterFunction(&Function{Name: "today", Arity: Arity{0, 0}, Eval: valueFn(func(runtime.Collection) (runtime.Collection, error) {
		n := time.Now()
		return runtime.Single(runtime.Date{Year: n.Year(), Month: int(n.Month()), Day: n.Day(), Precision: 3}), nil
	})})

	r.RegisterFunction(&Function{Name: "timeOfDay", Arity: Arity{0, 0}, Eval: valueFn(func(runtime.Collection) (runtime.Collection, error) {
		n := time.Now()
		return runtime.Single(runtime.Time{Hour: n.Hour(), Minute: n.Minute(), Second: n.Second(), Millisecond: n.Nanosecond() / 1e6, Precision: 3}), nil
	})})
}
