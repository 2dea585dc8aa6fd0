package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/interpreter"
	"github.com/funvibe/fhirpath/internal/parser"
	"github.com/funvibe/fhirpath/internal/registry"
	"github.com/funvibe/fhirpath/internal/runtime"
)

// These tests live in the external registry_test package: the interpreter
// package imports registry, so an in-package test importing interpreter
// would form an import cycle. evalIn parses source and evaluates it with
// interpreter.New(registry.Default) against an empty root context.
func evalIn(t *testing.T, source string) runtime.Collection {
	t.Helper()
	res, err := parser.Parse(source, parser.Options{})
	require.NoError(t, err)
	result, err := interpreter.New(registry.Default).Eval(runtime.NewRootContext(nil), res.AST)
	require.NoError(t, err)
	return result
}

func TestStringFunctions(t *testing.T) {
	cases := []struct {
		expr string
		want string
	}{
		{"'Hello'.upper()", "HELLO"},
		{"'Hello'.lower()", "hello"},
		{"'  hi  '.trim()", "hi"},
		{"'abc'.substring(1)", "bc"},
		{"'abc'.replace('b', 'x')", "axc"},
		{"'a,b,c'.split(',').join('-')", "a-b-c"},
	}
	for _, c := range cases {
		t.Run(c.expr, func(t *testing.T) {
			result := evalIn(t, c.expr)
			require.Len(t, result, 1)
			assert.Equal(t, c.want, result[0].(runtime.String).Value)
		})
	}
}

func TestStringPredicates(t *testing.T) {
	assertBool(t, "'abc'.startsWith('ab')", true)
	assertBool(t, "'abc'.endsWith('bc')", true)
	assertBool(t, "'abc'.contains('b')", true)
	assertBool(t, "'abc123'.matches('^[a-z]+[0-9]+$')", true)
}

func assertBool(t *testing.T, expr string, want bool) {
	t.Helper()
	result := evalIn(t, expr)
	require.Len(t, result, 1)
	assert.Equal(t, want, result[0].(runtime.Boolean).Value)
}

func TestMathFunctions(t *testing.T) {
	cases := []struct {
		expr string
		want int64
	}{
		{"(-4).abs()", 4},
		{"4.2.ceiling()", 5},
		{"4.8.floor()", 4},
		{"4.sqrt().truncate()", 2},
		{"2.power(10)", 1024},
	}
	for _, c := range cases {
		t.Run(c.expr, func(t *testing.T) {
			result := evalIn(t, c.expr)
			require.Len(t, result, 1)
			switch v := result[0].(type) {
			case runtime.Integer:
				assert.Equal(t, c.want, v.Value)
			case runtime.Decimal:
				assert.Equal(t, float64(c.want), v.Value)
			default:
				t.Fatalf("unexpected value type %T", v)
			}
		})
	}
}

var _ ast.Expr // keep ast imported for readers who extend this file with AST-level assertions
