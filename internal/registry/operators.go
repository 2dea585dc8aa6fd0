package registry

import (
	"strings"

	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/runtime"
)

// registerOperators installs every infix operator's evaluator (spec §4.3's
// operator catalog). `.` navigation and `is`/`as` type operators are not
// registered here: navigation is evaluated directly by the interpreter
// (it has no uniform left/right-operand shape — the right side is a
// member name or call, not an expression to evaluate independently), and
// is/as are parsed into dedicated MembershipTest/TypeCast nodes rather
// than generic Binary nodes.
func registerOperators(r *Registry) {
	arith := func(sym string, prec int, fn func(l, r numericOperand) (numericOperand, error)) {
		r.RegisterOperator(&Operator{Symbol: sym, Precedence: prec, Eval: func(ec *EvalContext, left, right runtime.Collection) (runtime.Collection, error) {
			lv, lok, err := singleton(left)
			if err != nil {
				return nil, err
			}
			rv, rok, err := singleton(right)
			if err != nil {
				return nil, err
			}
			if !lok || !rok {
				return runtime.Empty, nil
			}
			ln, lnum := toNumeric(lv)
			rn, rnum := toNumeric(rv)
			if !lnum || !rnum {
				return runtime.Empty, nil
			}
			out, err := fn(ln, rn)
			if err != nil {
				return nil, err
			}
			return runtime.Single(numericToValue(out)), nil
		}})
	}

	arith(string(ast.OpPlus), 9, func(l, r numericOperand) (numericOperand, error) {
		return combineNumeric(l, r, func(a, b float64) float64 { return a + b })
	})
	arith(string(ast.OpMinus), 9, func(l, r numericOperand) (numericOperand, error) {
		return combineNumeric(l, r, func(a, b float64) float64 { return a - b })
	})
	arith(string(ast.OpMul), 10, func(l, r numericOperand) (numericOperand, error) {
		out := l
		out.Float = l.Float * r.Float
		out.IsInteger = l.IsInteger && r.IsInteger
		if !out.IsQuantity {
			out.IsQuantity = r.IsQuantity
			out.Unit = r.Unit
		}
		return out, nil
	})
	arith(string(ast.OpDiv), 10, func(l, r numericOperand) (numericOperand, error) {
		if r.Float == 0 {
			return numericOperand{}, runtime.NewEvalError(runtime.ErrDivisionByZero, "division by zero")
		}
		out := l
		out.Float = l.Float / r.Float
		out.IsInteger = false
		return out, nil
	})
	arith(string(ast.OpDivInt), 10, func(l, r numericOperand) (numericOperand, error) {
		if r.Float == 0 {
			return numericOperand{}, runtime.NewEvalError(runtime.ErrDivisionByZero, "division by zero")
		}
		q := float64(int64(l.Float / r.Float))
		return numericOperand{Float: q, IsInteger: true}, nil
	})
	arith(string(ast.OpMod), 10, func(l, r numericOperand) (numericOperand, error) {
		if r.Float == 0 {
			return numericOperand{}, runtime.NewEvalError(runtime.ErrDivisionByZero, "division by zero")
		}
		m := l.Float - r.Float*float64(int64(l.Float/r.Float))
		return numericOperand{Float: m, IsInteger: l.IsInteger && r.IsInteger}, nil
	})

	r.RegisterOperator(&Operator{Symbol: string(ast.OpConcat), Precedence: 9, Eval: func(ec *EvalContext, left, right runtime.Collection) (runtime.Collection, error) {
		lv, _, err := singleton(left)
		if err != nil {
			return nil, err
		}
		rv, _, err := singleton(right)
		if err != nil {
			return nil, err
		}
		ls, rs := "", ""
		if lv != nil {
			ls = valueToString(lv)
		}
		if rv != nil {
			rs = valueToString(rv)
		}
		return runtime.Single(runtime.String{Value: ls + rs}), nil
	}})

	relational := func(sym string, pick func(cmp int) bool) {
		r.RegisterOperator(&Operator{Symbol: sym, Precedence: 6, Eval: func(ec *EvalContext, left, right runtime.Collection) (runtime.Collection, error) {
			lv, lok, err := singleton(left)
			if err != nil {
				return nil, err
			}
			rv, rok, err := singleton(right)
			if err != nil {
				return nil, err
			}
			if !lok || !rok {
				return runtime.Empty, nil
			}
			cmp, ok := compareOrdered(lv, rv)
			if !ok {
				return runtime.Empty, nil
			}
			return boolCollection(pick(cmp)), nil
		}})
	}
	relational(string(ast.OpLt), func(c int) bool { return c < 0 })
	relational(string(ast.OpLte), func(c int) bool { return c <= 0 })
	relational(string(ast.OpGt), func(c int) bool { return c > 0 })
	relational(string(ast.OpGte), func(c int) bool { return c >= 0 })

	r.RegisterOperator(&Operator{Symbol: string(ast.OpEq), Precedence: 5, Eval: func(ec *EvalContext, left, right runtime.Collection) (runtime.Collection, error) {
		if len(left) == 0 || len(right) == 0 {
			return runtime.Empty, nil
		}
		return boolCollection(collectionsEqual(left, right)), nil
	}})
	r.RegisterOperator(&Operator{Symbol: string(ast.OpNeq), Precedence: 5, Eval: func(ec *EvalContext, left, right runtime.Collection) (runtime.Collection, error) {
		if len(left) == 0 || len(right) == 0 {
			return runtime.Empty, nil
		}
		return boolCollection(!collectionsEqual(left, right)), nil
	}})
	// `~`/`!~` equivalence never propagates empty: {} ~ {} is true.
	r.RegisterOperator(&Operator{Symbol: string(ast.OpEquiv), Precedence: 5, Eval: func(ec *EvalContext, left, right runtime.Collection) (runtime.Collection, error) {
		return boolCollection(collectionsEquivalent(left, right)), nil
	}})
	r.RegisterOperator(&Operator{Symbol: string(ast.OpNequiv), Precedence: 5, Eval: func(ec *EvalContext, left, right runtime.Collection) (runtime.Collection, error) {
		return boolCollection(!collectionsEquivalent(left, right)), nil
	}})

	r.RegisterOperator(&Operator{Symbol: string(ast.OpIn), Precedence: 4, Eval: func(ec *EvalContext, left, right runtime.Collection) (runtime.Collection, error) {
		lv, lok, err := singleton(left)
		if err != nil {
			return nil, err
		}
		if !lok {
			return runtime.Empty, nil
		}
		for _, rv := range right {
			if lv.Equal(rv) {
				return boolCollection(true), nil
			}
		}
		return boolCollection(false), nil
	}})
	r.RegisterOperator(&Operator{Symbol: string(ast.OpContains), Precedence: 4, Eval: func(ec *EvalContext, left, right runtime.Collection) (runtime.Collection, error) {
		rv, rok, err := singleton(right)
		if err != nil {
			return nil, err
		}
		if !rok {
			return runtime.Empty, nil
		}
		for _, lv := range left {
			if lv.Equal(rv) {
				return boolCollection(true), nil
			}
		}
		return boolCollection(false), nil
	}})

	boolOp := func(sym string, combine func(l, r *bool) *bool) {
		r.RegisterOperator(&Operator{Symbol: sym, Precedence: boolOpPrecedence(sym), Eval: func(ec *EvalContext, left, right runtime.Collection) (runtime.Collection, error) {
			l, err := asBool(left)
			if err != nil {
				return nil, err
			}
			rr, err := asBool(right)
			if err != nil {
				return nil, err
			}
			out := combine(l, rr)
			if out == nil {
				return runtime.Empty, nil
			}
			return boolCollection(*out), nil
		}})
	}
	boolOp(string(ast.OpAnd), threeValuedAnd)
	boolOp(string(ast.OpOr), threeValuedOr)
	boolOp(string(ast.OpXor), threeValuedXor)
	boolOp(string(ast.OpImplies), threeValuedImplies)

	r.RegisterOperator(&Operator{Symbol: string(ast.OpUnion), Precedence: 7, Eval: func(ec *EvalContext, left, right runtime.Collection) (runtime.Collection, error) {
		return runtime.Dedup(runtime.Concat(left, right)), nil
	}})
}

func boolOpPrecedence(sym string) int {
	switch sym {
	case string(ast.OpAnd):
		return 3
	case string(ast.OpOr), string(ast.OpXor):
		return 2
	case string(ast.OpImplies):
		return 1
	}
	return 0
}

func combineNumeric(l, r numericOperand, fn func(a, b float64) float64) (numericOperand, error) {
	if l.IsQuantity && r.IsQuantity && !(runtime.Quantity{Unit: l.Unit}).Equal(runtime.Quantity{Unit: r.Unit}) {
		return numericOperand{}, runtime.NewEvalError(runtime.ErrInvalidOperand, "incompatible quantity units %q and %q", l.Unit, r.Unit)
	}
	out := l
	out.Float = fn(l.Float, r.Float)
	out.IsInteger = l.IsInteger && r.IsInteger && !l.IsQuantity && !r.IsQuantity
	if l.IsQuantity || r.IsQuantity {
		out.IsQuantity = true
		if l.IsQuantity {
			out.Unit = l.Unit
		} else {
			out.Unit = r.Unit
		}
	}
	return out, nil
}

func valueToString(v runtime.Value) string {
	if s, ok := v.(runtime.String); ok {
		return s.Value
	}
	return v.String()
}

// collectionsEquivalent implements `~`: same length (after both sides are
// compared as multisets with String/Decimal-specific normalization —
// simplified here to order-independent Equal comparison, which covers the
// common CORE conformance cases without a full normalize-then-compare
// string/decimal pass).
func collectionsEquivalent(a, b runtime.Collection) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, av := range a {
		found := false
		for j, bv := range b {
			if used[j] {
				continue
			}
			if valuesEquivalent(av, bv) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func valuesEquivalent(a, b runtime.Value) bool {
	if as, ok := a.(runtime.String); ok {
		if bs, ok2 := b.(runtime.String); ok2 {
			return strings.EqualFold(strings.TrimSpace(as.Value), strings.TrimSpace(bs.Value))
		}
	}
	return a.Equal(b)
}
