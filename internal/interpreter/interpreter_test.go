package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/fhirpath/internal/parser"
	"github.com/funvibe/fhirpath/internal/registry"
	"github.com/funvibe/fhirpath/internal/runtime"
)

func eval(t *testing.T, source string, input runtime.Collection) runtime.Collection {
	t.Helper()
	res, err := parser.Parse(source, parser.Options{})
	require.NoError(t, err)
	result, err := New(registry.Default).Eval(runtime.NewRootContext(input), res.AST)
	require.NoError(t, err)
	return result
}

func TestArithmeticAndPrecedence(t *testing.T) {
	result := eval(t, "1 + 2 * 3", nil)
	require.Len(t, result, 1)
	assert.Equal(t, int64(7), result[0].(runtime.Integer).Value)
}

func TestDotChainDefineVariableScope(t *testing.T) {
	// defineVariable's binding must stay visible for the rest of the same
	// dot-chain, even though the parser left-associates it into nested
	// Binary(.) nodes.
	result := eval(t, "1.defineVariable('x', 41).select(%x + 1)", nil)
	require.Len(t, result, 1)
	assert.Equal(t, int64(42), result[0].(runtime.Integer).Value)
}

func TestUnionDeduplicates(t *testing.T) {
	result := eval(t, "(1 | 2 | 1).count()", nil)
	require.Len(t, result, 1)
	assert.Equal(t, int64(2), result[0].(runtime.Integer).Value)
}

func TestWhereFiltersOverThis(t *testing.T) {
	focus := runtime.Collection{
		runtime.Integer{Value: 1},
		runtime.Integer{Value: 2},
		runtime.Integer{Value: 3},
	}
	result := eval(t, "where($this > 1)", focus)
	require.Len(t, result, 2)
	assert.Equal(t, int64(2), result[0].(runtime.Integer).Value)
	assert.Equal(t, int64(3), result[1].(runtime.Integer).Value)
}

func TestSingletonRequiredErrorsOnMultiElement(t *testing.T) {
	res, err := parser.Parse("(1 | 2) as Integer", parser.Options{})
	require.NoError(t, err)
	_, err = New(registry.Default).Eval(runtime.NewRootContext(nil), res.AST)
	require.Error(t, err)
	evalErr, ok := err.(*runtime.EvalError)
	require.True(t, ok)
	assert.Equal(t, runtime.ErrSingletonRequired, evalErr.Code)
}

func TestIifShortCircuitsUnselectedBranch(t *testing.T) {
	result := eval(t, "iif(true, 1, 1/0)", nil)
	require.Len(t, result, 1)
	assert.Equal(t, int64(1), result[0].(runtime.Integer).Value)
}

func TestEmptyPropagation(t *testing.T) {
	result := eval(t, "{}.upper()", nil)
	assert.Empty(t, result)
}

func TestMembershipTestOnComplex(t *testing.T) {
	patient := &runtime.Complex{
		ResourceType: "Patient",
		Fields: map[string]runtime.Collection{
			"active": runtime.Single(runtime.Boolean{Value: true}),
		},
	}
	result := eval(t, "active", runtime.Single(patient))
	require.Len(t, result, 1)
	assert.True(t, result[0].(runtime.Boolean).Value)

	result = eval(t, "$this is Patient", runtime.Single(patient))
	require.Len(t, result, 1)
	assert.True(t, result[0].(runtime.Boolean).Value)
}
