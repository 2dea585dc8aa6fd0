// Package registry is FHIRPath's metadata-driven catalog of operators and
// functions (spec §4.3): each entry carries its signature, evaluator, and
// the flags the analyzer/interpreter need (parameter kind, empty
// propagation). It follows the teacher's package-level builtin-table idiom
// (a `var Builtins = map[string]*Builtin{...}` registered at package init,
// internal/evaluator/builtins.go) generalized from funxy's single callable
// shape to FHIRPath's two catalogs (infix/prefix operators, named
// functions) and its value-vs-expression parameter distinction (§4.3).
package registry

import (
	"sync"

	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/runtime"
	"github.com/funvibe/fhirpath/internal/typesystem"
)

// ParamKind distinguishes a function parameter that the caller must
// pre-evaluate (Value) from one the callee evaluates itself, once per
// input element, with $this/$index/$total bound (Expression) — spec
// §4.3's "parameter evaluation kind".
type ParamKind int

const (
	ParamValue ParamKind = iota
	ParamExpression
)

// Arity bounds a function's argument count; Max == -1 means unbounded.
type Arity struct {
	Min int
	Max int
}

// FuncEvaluator is a function's evaluation logic. input is the focus
// collection the function is applied to (nil/empty for a top-level call
// with no receiver); rawArgs are the unevaluated argument expressions
// (used for Expression-kind parameters); ctx is the call-site context the
// function should extend for any per-element evaluation it performs.
// Concretely implemented in internal/interpreter, which injects the actual
// node-evaluation callback via EvalFunc to avoid an import cycle between
// registry and interpreter.
type FuncEvaluator func(ec *EvalContext, input runtime.Collection, rawArgs []ast.Expr) (runtime.Collection, error)

// OpEvaluator is an operator's evaluation logic over already-evaluated
// left/right operands.
type OpEvaluator func(ec *EvalContext, left, right runtime.Collection) (runtime.Collection, error)

// EvalContext is the thin seam between registry entries and the
// interpreter: it carries the runtime Context plus a callback to evaluate
// an arbitrary ast.Expr (so higher-order functions like where/select can
// evaluate their Expression-kind argument once per element without
// registry importing interpreter).
type EvalContext struct {
	RuntimeCtx *runtime.Context
	Eval       func(ctx *runtime.Context, n ast.Expr) (runtime.Collection, error)
}

// Function describes one named FHIRPath function (spec §4.3's function
// catalog): its parameter kinds (positional, one ParamKind per declared
// parameter; the last repeats for variadic functions), arity, whether it
// short-circuits to empty when its non-expression input/args are empty
// (propagates_empty), and its evaluator.
type Function struct {
	Name            string
	Params          []ParamKind
	Variadic        bool
	Arity           Arity
	PropagatesEmpty bool
	ReturnType      typesystem.TypeInfo
	Eval            FuncEvaluator
}

// ParamKindAt returns the parameter kind for positional argument i,
// repeating the last declared kind for variadic trailing arguments.
func (f *Function) ParamKindAt(i int) ParamKind {
	if len(f.Params) == 0 {
		return ParamValue
	}
	if i < len(f.Params) {
		return f.Params[i]
	}
	return f.Params[len(f.Params)-1]
}

// Associativity of a binary operator. FHIRPath defines every binary
// operator as left-associative (§6.4); the field exists so a future
// operator addition isn't forced to assume it.
type Associativity int

const (
	LeftAssoc Associativity = iota
	RightAssoc
)

// Operator describes one infix operator (spec §4.3's operator catalog):
// its symbol, precedence level (matching internal/parser's table),
// associativity, and evaluator.
type Operator struct {
	Symbol        string
	Precedence    int
	Associativity Associativity
	Eval          OpEvaluator
}

// Registry is the live catalog consulted by the analyzer and interpreter.
// The zero value is not usable; construct with New or use Default.
type Registry struct {
	mu        sync.RWMutex
	functions map[string]*Function
	operators map[string]*Operator
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{functions: map[string]*Function{}, operators: map[string]*Operator{}}
}

// RegisterFunction adds or replaces a function entry.
func (r *Registry) RegisterFunction(f *Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[f.Name] = f
}

// RegisterOperator adds or replaces an operator entry.
func (r *Registry) RegisterOperator(op *Operator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operators[op.Symbol] = op
}

// Function looks up a function by name.
func (r *Registry) Function(name string) (*Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.functions[name]
	return f, ok
}

// Operator looks up an operator by its AST symbol (e.g. "+", "and").
func (r *Registry) Operator(symbol string) (*Operator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.operators[symbol]
	return op, ok
}

// FunctionNames returns every registered function name, in no particular
// order.
func (r *Registry) FunctionNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for n := range r.functions {
		names = append(names, n)
	}
	return names
}

// Default is the registry pre-populated with every CORE builtin operator
// and function (operators.go, functions_*.go). Hosts that need a
// custom catalog should clone it (there's no deep-copy helper since CORE
// never mutates Default after init) or build a fresh Registry and call
// RegisterFunction/RegisterOperator for each builtin they still want.
var Default = New()

func init() {
	registerOperators(Default)
	registerExistenceFunctions(Default)
	registerFilteringFunctions(Default)
	registerSubsettingFunctions(Default)
	registerCombiningFunctions(Default)
	registerConversionFunctions(Default)
	registerStringFunctions(Default)
	registerMathFunctions(Default)
	registerTreeFunctions(Default)
	registerUtilityFunctions(Default)
}
