package registry

import (
	"regexp"
	"strings"

	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/runtime"
)

// registerStringFunctions installs the String-manipulation functions of
// spec §4.3: indexOf, substring, startsWith, endsWith, matches, replace,
// replaceMatches, contains, upper, lower, trim, split, join, toChars,
// length.
func registerStringFunctions(r *Registry) {
	strFn1 := func(name string, fn func(s string) (runtime.Value, bool)) {
		r.RegisterFunction(&Function{Name: name, Arity: Arity{0, 0}, Eval: valueFn(func(input runtime.Collection) (runtime.Collection, error) {
			s, ok, err := singletonString(input)
			if err != nil {
				return nil, err
			}
			if !ok {
				return runtime.Empty, nil
			}
			out, ok := fn(s)
			if !ok {
				return runtime.Empty, nil
			}
			return runtime.Single(out), nil
		})})
	}

	strFn1("upper", func(s string) (runtime.Value, bool) { return runtime.String{Value: strings.ToUpper(s)}, true })
	strFn1("lower", func(s string) (runtime.Value, bool) { return runtime.String{Value: strings.ToLower(s)}, true })
	strFn1("trim", func(s string) (runtime.Value, bool) { return runtime.String{Value: strings.TrimSpace(s)}, true })
	strFn1("length", func(s string) (runtime.Value, bool) { return runtime.Integer{Value: int64(len([]rune(s)))}, true })

	r.RegisterFunction(&Function{Name: "toChars", Arity: Arity{0, 0}, Eval: valueFn(func(input runtime.Collection) (runtime.Collection, error) {
		s, ok, err := singletonString(input)
		if err != nil || !ok {
			return runtime.Empty, err
		}
		var out runtime.Collection
		for _, ch := range s {
			out = append(out, runtime.String{Value: string(ch)})
		}
		return out, nil
	})})

	r.RegisterFunction(&Function{Name: "indexOf", Params: []ParamKind{ParamValue}, Arity: Arity{1, 1}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		s, ok, err := singletonString(input)
		if err != nil || !ok {
			return runtime.Empty, err
		}
		sub, ok, err := evalString(ec, args[0])
		if err != nil || !ok {
			return runtime.Empty, err
		}
		idx := strings.Index(s, sub)
		return runtime.Single(runtime.Integer{Value: int64(idx)}), nil
	}})

	r.RegisterFunction(&Function{Name: "substring", Params: []ParamKind{ParamValue, ParamValue}, Arity: Arity{1, 2}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		s, ok, err := singletonString(input)
		if err != nil || !ok {
			return runtime.Empty, err
		}
		runes := []rune(s)
		start, ok, err := intArg(ec, args[0])
		if err != nil || !ok || start < 0 || start >= len(runes) {
			return runtime.Empty, err
		}
		end := len(runes)
		if len(args) == 2 {
			length, ok, err := intArg(ec, args[1])
			if err != nil {
				return nil, err
			}
			if ok {
				if length < 0 {
					length = 0
				}
				if start+length < end {
					end = start + length
				}
			}
		}
		return runtime.Single(runtime.String{Value: string(runes[start:end])}), nil
	}})

	boolStrFn := func(name string, fn func(s, arg string) bool) {
		r.RegisterFunction(&Function{Name: name, Params: []ParamKind{ParamValue}, Arity: Arity{1, 1}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
			s, ok, err := singletonString(input)
			if err != nil || !ok {
				return runtime.Empty, err
			}
			arg, ok, err := evalString(ec, args[0])
			if err != nil || !ok {
				return runtime.Empty, err
			}
			return boolCollection(fn(s, arg)), nil
		}})
	}
	boolStrFn("startsWith", strings.HasPrefix)
	boolStrFn("endsWith", strings.HasSuffix)
	boolStrFn("contains", strings.Contains)

	r.RegisterFunction(&Function{Name: "matches", Params: []ParamKind{ParamValue}, Arity: Arity{1, 1}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		s, ok, err := singletonString(input)
		if err != nil || !ok {
			return runtime.Empty, err
		}
		pattern, ok, err := evalString(ec, args[0])
		if err != nil || !ok {
			return runtime.Empty, err
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return runtime.Empty, nil
		}
		return boolCollection(re.MatchString(s)), nil
	}})

	r.RegisterFunction(&Function{Name: "replace", Params: []ParamKind{ParamValue, ParamValue}, Arity: Arity{2, 2}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		s, ok, err := singletonString(input)
		if err != nil || !ok {
			return runtime.Empty, err
		}
		pattern, ok, err := evalString(ec, args[0])
		if err != nil || !ok {
			return runtime.Empty, err
		}
		replacement, ok, err := evalString(ec, args[1])
		if err != nil || !ok {
			return runtime.Empty, err
		}
		return runtime.Single(runtime.String{Value: strings.ReplaceAll(s, pattern, replacement)}), nil
	}})

	r.RegisterFunction(&Function{Name: "replaceMatches", Params: []ParamKind{ParamValue, ParamValue}, Arity: Arity{2, 2}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		s, ok, err := singletonString(input)
		if err != nil || !ok {
			return runtime.Empty, err
		}
		pattern, ok, err := evalString(ec, args[0])
		if err != nil || !ok {
			return runtime.Empty, err
		}
		replacement, ok, err := evalString(ec, args[1])
		if err != nil || !ok {
			return runtime.Empty, err
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return runtime.Empty, nil
		}
		return runtime.Single(runtime.String{Value: re.ReplaceAllString(s, replacement)}), nil
	}})

	r.RegisterFunction(&Function{Name: "split", Params: []ParamKind{ParamValue}, Arity: Arity{1, 1}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		s, ok, err := singletonString(input)
		if err != nil || !ok {
			return runtime.Empty, err
		}
		sep, ok, err := evalString(ec, args[0])
		if err != nil || !ok {
			return runtime.Empty, err
		}
		var out runtime.Collection
		for _, part := range strings.Split(s, sep) {
			out = append(out, runtime.String{Value: part})
		}
		return out, nil
	}})

	r.RegisterFunction(&Function{Name: "join", Params: []ParamKind{ParamValue}, Arity: Arity{0, 1}, Eval: func(ec *EvalContext, input runtime.Collection, args []ast.Expr) (runtime.Collection, error) {
		sep := ""
		if len(args) == 1 {
			s, ok, err := evalString(ec, args[0])
			if err != nil {
				return nil, err
			}
			if ok {
				sep = s
			}
		}
		parts := make([]string, 0, len(input))
		for _, v := range input {
			s, ok := v.(runtime.String)
			if !ok {
				return nil, runtime.NewEvalError(runtime.ErrInvalidOperand, "join() requires a collection of String")
			}
			parts = append(parts, s.Value)
		}
		return runtime.Single(runtime.String{Value: strings.Join(parts, sep)}), nil
	}})
}

func singletonString(c runtime.Collection) (string, bool, error) {
	v, ok, err := singleton(c)
	if err != nil || !ok {
		return "", ok, err
	}
	s, isStr := v.(runtime.String)
	if !isStr {
		return "", false, nil
	}
	return s.Value, true, nil
}

func evalString(ec *EvalContext, e ast.Expr) (string, bool, error) {
	coll, err := ec.Eval(ec.RuntimeCtx, e)
	if err != nil {
		return "", false, err
	}
	return singletonString(coll)
}
