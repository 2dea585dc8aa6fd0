package registry

import (
	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/runtime"
)

// registerCombiningFunctions installs union()/combine() (spec §4.3); the
// `|` union *operator* is registered separately in operators.go.
func registerCombiningFunctions(r *Registry) {
	r.RegisterFunction(&Function{Name: "union", Params: []ParamKind{ParamValue}, Arity: Arity{1, 1}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		other, err := ec.Eval(ec.RuntimeCtx, args[0])
		if err != nil {
			return nil, err
		}
		return runtime.Dedup(runtime.Concat(input, other)), nil
	}})
	r.RegisterFunction(&Function{Name: "combine", Params: []ParamKind{ParamValue}, Arity: Arity{1, 1}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		other, err := ec.Eval(ec.RuntimeCtx, args[0])
		if err != nil {
			return nil, err
		}
		// combine() keeps duplicates, unlike union()/`|` — it is a plain
		// concatenation (spec §4.3).
		return runtime.Concat(input, other), nil
	}})
}
