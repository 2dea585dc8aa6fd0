package runtime

import (
	"context"

	"github.com/funvibe/fhirpath/internal/typesystem"
)

// Context is a RuntimeContext (spec §3.6): the original top-level input,
// the current focus stream, variable bindings, system env values, and the
// optional ModelProvider/custom-function extension points. It uses the
// teacher's prototype-style parent-pointer extension (ContextFrame {
// parent, locals }, §9 design notes) rather than copying the whole variable
// map on every `.` step or every defineVariable call.
type Context struct {
	Input Collection
	Focus Collection

	vars   map[string]Collection
	parent *Context

	ModelProvider    typesystem.ModelProvider
	CustomFunctions  map[string]CustomFunction
	Trace            TraceSink

	// Go cancellation/step-budget plumbing (SPEC_FULL §C bounded-resource
	// evaluation); CORE itself places no contract on these.
	GoContext context.Context
	Steps     *StepBudget
}

// CustomFunction is a host-registered function: name -> fn(ctx, input,
// args...) -> Collection (spec §6.1 Options.custom_functions).
type CustomFunction func(ctx *Context, input Collection, args []Collection) (Collection, error)

// TraceSink receives trace() calls; the default NoopTrace discards them.
type TraceSink func(name string, values Collection)

// NoopTrace is the default TraceSink: it does nothing.
func NoopTrace(string, Collection) {}

// StepBudget is an optional bounded-resource guard: evaluation aborts with
// EvalError{Code: resource-exhausted} once Used exceeds Max; a Max of 0
// means no limit.
type StepBudget struct {
	Max  int
	Used int
}

// Tick increments the step counter and reports whether the budget is
// exhausted.
func (b *StepBudget) Tick() bool {
	if b == nil {
		return false
	}
	b.Used++
	return b.Max > 0 && b.Used > b.Max
}

// NewRootContext builds the top-level context for a fresh evaluation: input
// becomes both Input and Focus, $this defaults to input (per §4.5 dispatch
// contract: "$this env variable is ensured present at entry"), and the env
// variables %context, %resource and %rootResource are bound to input; a
// caller's Set of the same name replaces them.
func NewRootContext(input Collection) *Context {
	c := &Context{
		Input: input,
		Focus: input,
		vars: map[string]Collection{
			"$this":        input,
			"context":      input,
			"resource":     input,
			"rootResource": input,
		},
		Trace: NoopTrace,
	}
	return c
}

// Extend returns a new child Context that inherits every variable/env of
// ctx; writes on the child never mutate the parent (§3.6 extension
// semantics). The parent pointer is never written after construction, so
// concurrent reads of a shared parent from multiple extended children are
// safe (§5 sharing rule).
func (c *Context) Extend() *Context {
	return &Context{
		Input:           c.Input,
		Focus:           c.Focus,
		parent:          c,
		vars:            map[string]Collection{},
		ModelProvider:   c.ModelProvider,
		CustomFunctions: c.CustomFunctions,
		Trace:           c.Trace,
		GoContext:       c.GoContext,
		Steps:           c.Steps,
	}
}

// WithFocus returns a child context with Focus replaced (used when a '.'
// step or a higher-order function call changes what subsequent nodes see).
func (c *Context) WithFocus(focus Collection) *Context {
	child := c.Extend()
	child.Focus = focus
	return child
}

// Set binds name in this context frame only (never touches the parent).
func (c *Context) Set(name string, value Collection) {
	c.vars[name] = value
}

// Lookup walks the parent chain, returning the nearest binding for name.
func (c *Context) Lookup(name string) (Collection, bool) {
	for frame := c; frame != nil; frame = frame.parent {
		if v, ok := frame.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// WithThisIndexTotal returns a child context with $this/$index/$total bound
// for one iteration of a higher-order function (where/select/all/exists/
// repeat/aggregate, §4.5). total may be nil when the callee doesn't use
// $total.
func (c *Context) WithThisIndexTotal(element Value, index int, total Collection) *Context {
	child := c.Extend()
	child.Set("$this", Single(element))
	child.Set("$index", Single(Integer{Value: int64(index)}))
	if total != nil {
		child.Set("$total", total)
	}
	return child
}
