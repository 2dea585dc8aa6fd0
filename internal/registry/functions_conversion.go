package registry

import (
	"strconv"

	"github.com/funvibe/fhirpath/internal/runtime"
)

// registerConversionFunctions installs the to*/convertsTo* family (spec
// §4.3): each to* function returns empty (not an error) when the singleton
// input cannot be converted, per the "errors are rare" design note — only
// a multi-element input raises singleton-required.
func registerConversionFunctions(r *Registry) {
	conv := func(name string, fn func(v runtime.Value) (runtime.Value, bool)) {
		r.RegisterFunction(&Function{Name: name, Arity: Arity{0, 0}, Eval: valueFn(func(input runtime.Collection) (runtime.Collection, error) {
			v, ok, err := singleton(input)
			if err != nil {
				return nil, err
			}
			if !ok {
				return runtime.Empty, nil
			}
			out, ok := fn(v)
			if !ok {
				return runtime.Empty, nil
			}
			return runtime.Single(out), nil
		})})
		r.RegisterFunction(&Function{Name: "convertsTo" + name[2:], Arity: Arity{0, 0}, Eval: valueFn(func(input runtime.Collection) (runtime.Collection, error) {
			v, ok, err := singleton(input)
			if err != nil {
				return nil, err
			}
			if !ok {
				return runtime.Empty, nil
			}
			_, ok = fn(v)
			return boolCollection(ok), nil
		})})
	}

	conv("toBoolean", func(v runtime.Value) (runtime.Value, bool) {
		switch t := v.(type) {
		case runtime.Boolean:
			return t, true
		case runtime.String:
			switch t.Value {
			case "true", "t", "yes", "y", "1", "1.0":
				return runtime.Boolean{Value: true}, true
			case "false", "f", "no", "n", "0", "0.0":
				return runtime.Boolean{Value: false}, true
			}
		case runtime.Integer:
			if t.Value == 0 || t.Value == 1 {
				return runtime.Boolean{Value: t.Value == 1}, true
			}
		}
		return nil, false
	})
	conv("toInteger", func(v runtime.Value) (runtime.Value, bool) {
		switch t := v.(type) {
		case runtime.Integer:
			return t, true
		case runtime.String:
			i, err := strconv.ParseInt(t.Value, 10, 64)
			if err != nil {
				return nil, false
			}
			return runtime.Integer{Value: i}, true
		case runtime.Boolean:
			if t.Value {
				return runtime.Integer{Value: 1}, true
			}
			return runtime.Integer{Value: 0}, true
		}
		return nil, false
	})
	conv("toDecimal", func(v runtime.Value) (runtime.Value, bool) {
		switch t := v.(type) {
		case runtime.Decimal:
			return t, true
		case runtime.Integer:
			return runtime.Decimal{Value: float64(t.Value)}, true
		case runtime.String:
			f, err := strconv.ParseFloat(t.Value, 64)
			if err != nil {
				return nil, false
			}
			return runtime.Decimal{Value: f}, true
		case runtime.Boolean:
			if t.Value {
				return runtime.Decimal{Value: 1}, true
			}
			return runtime.Decimal{Value: 0}, true
		}
		return nil, false
	})
	conv("toString", func(v runtime.Value) (runtime.Value, bool) {
		return runtime.String{Value: v.String()}, true
	})
	conv("toQuantity", func(v runtime.Value) (runtime.Value, bool) {
		switch t := v.(type) {
		case runtime.Quantity:
			return t, true
		case runtime.Integer:
			return runtime.Quantity{Value: float64(t.Value), Unit: "1"}, true
		case runtime.Decimal:
			return runtime.Quantity{Value: t.Value, Unit: "1"}, true
		}
		return nil, false
	})
	conv("toDate", func(v runtime.Value) (runtime.Value, bool) {
		switch t := v.(type) {
		case runtime.Date:
			return t, true
		case runtime.DateTime:
			return runtime.Date{Year: t.Year, Month: t.Month, Day: t.Day, Precision: 3}, true
		}
		return nil, false
	})
	conv("toDateTime", func(v runtime.Value) (runtime.Value, bool) {
		switch t := v.(type) {
		case runtime.DateTime:
			return t, true
		case runtime.Date:
			return runtime.DateTime{Year: t.Year, Month: t.Month, Day: t.Day, Precision: t.Precision}, true
		}
		return nil, false
	})
	conv("toTime", func(v runtime.Value) (runtime.Value, bool) {
		if t, ok := v.(runtime.Time); ok {
			return t, true
		}
		return nil, false
	})
}
