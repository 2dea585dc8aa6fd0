// Package analyzer implements FHIRPath's evaluation-free static analysis
// (spec §4.4): a single annotation traversal that stamps every node's
// TypeInfo and, as it goes, raises diagnostics for unknown
// functions/operators, wrong arity, and statically-incompatible types. It
// never evaluates a
// value — only types flow through it, via a RuntimeContext-shaped
// TypeContext mirroring internal/runtime.Context's parent-pointer
// extension idiom but carrying TypeInfo instead of Collection.
package analyzer

import (
	"fmt"

	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/diagnostics"
	"github.com/funvibe/fhirpath/internal/registry"
	"github.com/funvibe/fhirpath/internal/typesystem"
)

// Options configures one Analyze call.
type Options struct {
	Registry      *registry.Registry
	ModelProvider typesystem.ModelProvider
}

// Result carries every diagnostic the analyzer raised; the input AST is
// annotated in place via ast.SetTypeInfo.
type Result struct {
	Diagnostics []diagnostics.Diagnostic
	HasErrors   bool
}

// Analyze runs the annotation traversal over root, whose top-level focus has type
// rootType (typically the ModelProvider's resolved type for the evaluation
// root resource, or typesystem.AnyCollection when no ModelProvider/root
// type is known).
func Analyze(root ast.Expr, rootType typesystem.TypeInfo, opts Options) Result {
	reg := opts.Registry
	if reg == nil {
		reg = registry.Default
	}
	a := &analyzer{registry: reg, provider: opts.ModelProvider}
	tctx := &typeContext{focus: rootType, vars: map[string]typesystem.TypeInfo{
		"$this": rootType,
	}}
	a.annotate(tctx, root)
	return Result{Diagnostics: a.diags, HasErrors: a.hasErrors}
}

// typeContext is the analyzer's type-flow analogue of runtime.Context: a
// parent-pointer chain of variable-type bindings plus the current focus
// type, extended (never mutated) at each navigation/higher-order step.
type typeContext struct {
	focus  typesystem.TypeInfo
	vars   map[string]typesystem.TypeInfo
	parent *typeContext
}

func (c *typeContext) extend() *typeContext {
	return &typeContext{focus: c.focus, vars: map[string]typesystem.TypeInfo{}, parent: c}
}

func (c *typeContext) withFocus(t typesystem.TypeInfo) *typeContext {
	child := c.extend()
	child.focus = t
	return child
}

func (c *typeContext) set(name string, t typesystem.TypeInfo) {
	c.vars[name] = t
}

func (c *typeContext) lookup(name string) (typesystem.TypeInfo, bool) {
	for f := c; f != nil; f = f.parent {
		if t, ok := f.vars[name]; ok {
			return t, true
		}
	}
	return typesystem.TypeInfo{}, false
}

type analyzer struct {
	registry  *registry.Registry
	provider  typesystem.ModelProvider
	diags     []diagnostics.Diagnostic
	hasErrors bool
}

func (a *analyzer) report(code string, n ast.Node, format string, args ...interface{}) {
	d := diagnostics.New(code, n.Range(), fmt.Sprintf(format, args...))
	a.diags = append(a.diags, d)
	a.hasErrors = true
}

func (a *analyzer) warn(code string, n ast.Node, format string, args ...interface{}) {
	d := diagnostics.New(code, n.Range(), fmt.Sprintf(format, args...))
	d.Severity = diagnostics.Warning
	a.diags = append(a.diags, d)
}
