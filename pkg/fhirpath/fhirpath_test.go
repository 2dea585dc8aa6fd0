package fhirpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/fhirpath/internal/runtime"
	"github.com/funvibe/fhirpath/pkg/modelprovider/basic"
)

func TestParseReturnsDiagnosticsUnderErrorRecovery(t *testing.T) {
	result, err := Parse("1 +", Options{ErrorRecovery: true})
	require.NoError(t, err)
	assert.True(t, result.HasErrors)
	assert.NotEmpty(t, result.Diagnostics)
}

func TestParseWithoutErrorRecoveryReturnsError(t *testing.T) {
	_, err := Parse("1 +", Options{})
	assert.Error(t, err)
}

func TestEvaluateArithmetic(t *testing.T) {
	result, diags, err := Evaluate("2 + 3 * 4", nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, result, 1)
	assert.Equal(t, int64(14), result[0].(runtime.Integer).Value)
}

func TestEvaluateWithUserVariables(t *testing.T) {
	result, _, err := Evaluate("%greeting", nil, Options{
		UserVariables: map[string]runtime.Collection{
			"greeting": runtime.Single(runtime.String{Value: "hi"}),
		},
	})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "hi", result[0].(runtime.String).Value)
}

func TestAnalyzeFlagsUnknownFunction(t *testing.T) {
	parsed, err := Parse("1.notAFunction()", Options{})
	require.NoError(t, err)
	result := Analyze(parsed.AST, Options{})
	assert.True(t, result.HasErrors)
}

func TestRunCombinesParseAnalyzeEvaluate(t *testing.T) {
	provider := basic.New()
	patientType, ok := provider.GetType("Patient")
	require.True(t, ok)

	patient := &runtime.Complex{
		ResourceType: "Patient",
		Fields: map[string]runtime.Collection{
			"active": runtime.Single(runtime.Boolean{Value: true}),
		},
	}
	result, diags, err := Run("active", runtime.Single(patient), Options{
		ModelProvider: provider,
		InputType:     patientType,
	})
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, result, 1)
	assert.True(t, result[0].(runtime.Boolean).Value)
}

func TestRunSurfacesAnalyzerDiagnosticsAlongsideResult(t *testing.T) {
	provider := basic.New()
	patientType, ok := provider.GetType("Patient")
	require.True(t, ok)

	patient := &runtime.Complex{ResourceType: "Patient", Fields: map[string]runtime.Collection{}}
	_, diags, err := Run("bogusField", runtime.Single(patient), Options{
		ModelProvider: provider,
		InputType:     patientType,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, diags)
}

func TestFromJSONRoundTrip(t *testing.T) {
	input := []byte(`{"resourceType":"Patient","active":true,"name":[{"use":"official"}]}`)
	collection, err := FromJSON(input)
	require.NoError(t, err)
	require.Len(t, collection, 1)

	patient, ok := collection[0].(*runtime.Complex)
	require.True(t, ok)
	assert.Equal(t, "Patient", patient.ResourceType)

	rendered := CollectionToJSON(collection)
	require.Len(t, rendered, 1)
	m, ok := rendered[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Patient", m["resourceType"])
}

func TestToCollectionFlattensArrays(t *testing.T) {
	collection := ToCollection([]interface{}{"a", "b"})
	require.Len(t, collection, 2)
	assert.Equal(t, "a", collection[0].(runtime.String).Value)
	assert.Equal(t, "b", collection[1].(runtime.String).Value)
}

func TestFromJSONDistinguishesIntegerFromDecimal(t *testing.T) {
	collection, err := FromJSON([]byte(`{"resourceType":"Observation","valueInteger":5,"valueDecimal":5.5}`))
	require.NoError(t, err)
	require.Len(t, collection, 1)

	obs := collection[0].(*runtime.Complex)
	intVal := obs.Fields["valueInteger"][0]
	decVal := obs.Fields["valueDecimal"][0]
	assert.IsType(t, runtime.Integer{}, intVal)
	assert.IsType(t, runtime.Decimal{}, decVal)
}
