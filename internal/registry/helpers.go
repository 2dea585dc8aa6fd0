package registry

import (
	"strings"

	"github.com/funvibe/fhirpath/internal/runtime"
)

// singleton applies FHIRPath's singleton evaluation rule (spec §3.7): an
// empty collection evaluates to (nil, false, nil); a one-element
// collection to (v, true, nil); anything longer is a *runtime.EvalError.
func singleton(c runtime.Collection) (runtime.Value, bool, error) {
	switch len(c) {
	case 0:
		return nil, false, nil
	case 1:
		return c[0], true, nil
	default:
		return nil, false, runtime.NewEvalError(runtime.ErrSingletonRequired, "expected a singleton collection, got %d elements", len(c))
	}
}

// asBool applies the singleton-to-Boolean coercion FHIRPath uses for
// conditions (spec §4.5 singleton evaluation rule 2): an empty collection
// stays empty; a singleton Boolean is used directly; a singleton of any
// other single type coerces to true (existence coercion) rather than
// propagating empty.
func asBool(c runtime.Collection) (*bool, error) {
	v, ok, err := singleton(c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	b, isBool := v.(runtime.Boolean)
	if !isBool {
		t := true
		return &t, nil
	}
	return &b.Value, nil
}

func boolCollection(b bool) runtime.Collection {
	return runtime.Single(runtime.Boolean{Value: b})
}

// threeValuedAnd implements FHIRPath's Boolean `and` truth table: false
// dominates (false and empty => false), otherwise empty propagates,
// otherwise both-true => true.
func threeValuedAnd(l, r *bool) *bool {
	f := false
	t := true
	if l != nil && !*l {
		return &f
	}
	if r != nil && !*r {
		return &f
	}
	if l == nil || r == nil {
		return nil
	}
	return &t
}

// threeValuedOr implements `or`: true dominates, else empty propagates,
// else both-false => false.
func threeValuedOr(l, r *bool) *bool {
	f := false
	t := true
	if l != nil && *l {
		return &t
	}
	if r != nil && *r {
		return &t
	}
	if l == nil || r == nil {
		return nil
	}
	return &f
}

// threeValuedXor implements `xor`: requires both operands present (no
// dominance rule), else empty.
func threeValuedXor(l, r *bool) *bool {
	if l == nil || r == nil {
		return nil
	}
	v := *l != *r
	return &v
}

// threeValuedImplies implements `implies`: true antecedent defers to the
// consequent; false antecedent short-circuits to true regardless of the
// consequent's presence; empty antecedent propagates unless the consequent
// is already known true.
func threeValuedImplies(l, r *bool) *bool {
	t := true
	if l != nil && !*l {
		return &t
	}
	if r != nil && *r {
		return &t
	}
	if l == nil {
		return nil
	}
	return r
}

// numeric widens Integer/Decimal/Quantity values to a common float64 plus
// an "isQuantity"/"unit" tag so arithmetic can decide whether the result is
// Integer, Decimal, or Quantity.
type numericOperand struct {
	Float      float64
	IsInteger  bool
	IsQuantity bool
	Unit       string
}

func toNumeric(v runtime.Value) (numericOperand, bool) {
	switch n := v.(type) {
	case runtime.Integer:
		return numericOperand{Float: float64(n.Value), IsInteger: true}, true
	case runtime.Decimal:
		return numericOperand{Float: n.Value}, true
	case runtime.Quantity:
		return numericOperand{Float: n.Value, IsQuantity: true, Unit: n.Unit}, true
	}
	return numericOperand{}, false
}

func numericToValue(n numericOperand) runtime.Value {
	if n.IsQuantity {
		return runtime.Quantity{Value: n.Float, Unit: n.Unit}
	}
	if n.IsInteger {
		return runtime.Integer{Value: int64(n.Float)}
	}
	return runtime.Decimal{Value: n.Float}
}

// compareOrdered returns -1/0/1 for ordered FHIRPath types (numeric,
// String, Date, DateTime, Time), or (0, false) if l and r are not
// comparable to each other.
func compareOrdered(l, r runtime.Value) (int, bool) {
	if ln, lok := toNumeric(l); lok {
		if rn, rok := toNumeric(r); rok {
			if ln.IsQuantity && rn.IsQuantity && !(runtime.Quantity{Unit: ln.Unit}).Equal(runtime.Quantity{Unit: rn.Unit}) {
				return 0, false
			}
			switch {
			case ln.Float < rn.Float:
				return -1, true
			case ln.Float > rn.Float:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}
	if ls, lok := l.(runtime.String); lok {
		if rs, rok := r.(runtime.String); rok {
			return strings.Compare(ls.Value, rs.Value), true
		}
		return 0, false
	}
	if ld, lok := l.(runtime.Date); lok {
		if rd, rok := r.(runtime.Date); rok {
			return compareDateParts(ld.Year, ld.Month, ld.Day, rd.Year, rd.Month, rd.Day), true
		}
		return 0, false
	}
	if ldt, lok := l.(runtime.DateTime); lok {
		if rdt, rok := r.(runtime.DateTime); rok {
			return compareDateTime(ldt, rdt), true
		}
		return 0, false
	}
	if lt, lok := l.(runtime.Time); lok {
		if rt, rok := r.(runtime.Time); rok {
			return compareTimeParts(lt.Hour, lt.Minute, lt.Second, lt.Millisecond, rt.Hour, rt.Minute, rt.Second, rt.Millisecond), true
		}
		return 0, false
	}
	return 0, false
}

func compareDateParts(y1, m1, d1, y2, m2, d2 int) int {
	if c := cmpInt(y1, y2); c != 0 {
		return c
	}
	if c := cmpInt(m1, m2); c != 0 {
		return c
	}
	return cmpInt(d1, d2)
}

func compareTimeParts(h1, m1, s1, ms1, h2, m2, s2, ms2 int) int {
	if c := cmpInt(h1, h2); c != 0 {
		return c
	}
	if c := cmpInt(m1, m2); c != 0 {
		return c
	}
	if c := cmpInt(s1, s2); c != 0 {
		return c
	}
	return cmpInt(ms1, ms2)
}

func compareDateTime(a, b runtime.DateTime) int {
	if c := compareDateParts(a.Year, a.Month, a.Day, b.Year, b.Month, b.Day); c != 0 {
		return c
	}
	return compareTimeParts(a.Hour, a.Minute, a.Second, a.Millisecond, b.Hour, b.Minute, b.Second, b.Millisecond)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// collectionsEqual implements `=`'s collection-level semantics: same
// length, pairwise Value.Equal in order. FHIRPath propagates empty rather
// than returning false when either side is empty, which callers handle
// before reaching here.
func collectionsEqual(a, b runtime.Collection) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
