package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/fhirpath/internal/diagnostics"
	"github.com/funvibe/fhirpath/internal/parser"
	"github.com/funvibe/fhirpath/internal/typesystem"
	"github.com/funvibe/fhirpath/pkg/modelprovider/basic"
)

func analyze(t *testing.T, source string, rootType typesystem.TypeInfo, opts Options) Result {
	t.Helper()
	res, err := parser.Parse(source, parser.Options{})
	require.NoError(t, err)
	return Analyze(res.AST, rootType, opts)
}

func TestAnalyzeCleanExpressionHasNoDiagnostics(t *testing.T) {
	result := analyze(t, "1 + 2 * 3", typesystem.AnyCollection, Options{})
	assert.False(t, result.HasErrors)
	assert.Empty(t, result.Diagnostics)
}

func TestAnalyzeUnknownFunctionReported(t *testing.T) {
	result := analyze(t, "1.bogusFunction()", typesystem.AnyCollection, Options{})
	require.True(t, result.HasErrors)
	require.NotEmpty(t, result.Diagnostics)
	assert.Equal(t, diagnostics.CodeUnknownFunction, result.Diagnostics[0].Code)
}

func TestAnalyzeWrongArgumentCountReported(t *testing.T) {
	result := analyze(t, "'x'.substring(1, 2, 3)", typesystem.AnyCollection, Options{})
	require.True(t, result.HasErrors)
	found := false
	for _, d := range result.Diagnostics {
		if d.Code == diagnostics.CodeWrongArgumentCount {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAnalyzeUnknownPropertyAgainstModelProvider(t *testing.T) {
	// Unknown-property is reported as a warning, not an error: navigation to
	// an unrecognized element still type-checks as Any so the rest of the
	// expression can be analyzed.
	provider := basic.New()
	patientType, ok := provider.GetType("Patient")
	require.True(t, ok)

	result := analyze(t, "nonexistentField", patientType, Options{ModelProvider: provider})
	assert.False(t, result.HasErrors)
	require.NotEmpty(t, result.Diagnostics)
	assert.Equal(t, diagnostics.CodeUnknownProperty, result.Diagnostics[0].Code)
	assert.Equal(t, diagnostics.Warning, result.Diagnostics[0].Severity)
}

func TestAnalyzeKnownPropertyAgainstModelProviderIsClean(t *testing.T) {
	provider := basic.New()
	patientType, ok := provider.GetType("Patient")
	require.True(t, ok)

	result := analyze(t, "active", patientType, Options{ModelProvider: provider})
	assert.False(t, result.HasErrors)
}

func TestAnalyzeTypeTestWithoutModelProviderReported(t *testing.T) {
	result := analyze(t, "1 is NoSuchType", typesystem.AnyCollection, Options{})
	require.True(t, result.HasErrors)
	assert.Equal(t, diagnostics.CodeModelProviderNeeded, result.Diagnostics[0].Code)
}
