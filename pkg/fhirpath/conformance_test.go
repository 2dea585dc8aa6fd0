package fhirpath

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kr/pretty"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

// conformance_test.go runs every scenario archive under testdata/conformance
// through Run and compares the rendered JSON result against the archive's
// expected.json, printing a pretty.Diff of the two when they disagree.
func TestConformance(t *testing.T) {
	archives, err := filepath.Glob("../../testdata/conformance/*.txtar")
	require.NoError(t, err)
	require.NotEmpty(t, archives, "expected at least one conformance archive")

	for _, path := range archives {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			runArchive(t, path)
		})
	}
}

func runArchive(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	archive := txtar.Parse(data)

	files := make(map[string]string, len(archive.Files))
	for _, f := range archive.Files {
		files[f.Name] = strings.TrimSpace(string(f.Data))
	}

	expression, ok := files["expression"]
	require.True(t, ok, "archive missing 'expression' section")

	var input interface{}
	if raw, ok := files["input.json"]; ok && raw != "" {
		require.NoError(t, json.Unmarshal([]byte(raw), &input))
	}

	var expected []interface{}
	if raw, ok := files["expected.json"]; ok && raw != "" {
		require.NoError(t, json.Unmarshal([]byte(raw), &expected))
	}

	result, diags, err := Run(expression, ToCollection(input), Options{})
	require.NoError(t, err, "evaluation error; diagnostics: %v", diags)

	got := CollectionToJSON(result)
	// Normalize both sides through one more json round trip so numeric
	// types compare equal regardless of int64 vs. float64 representation.
	gotJSON, err := json.Marshal(got)
	require.NoError(t, err)
	var gotNormalized []interface{}
	require.NoError(t, json.Unmarshal(gotJSON, &gotNormalized))

	if len(expected) == 0 {
		require.Empty(t, gotNormalized)
		return
	}
	if diff := pretty.Diff(expected, gotNormalized); len(diff) > 0 {
		t.Fatalf("result mismatch for %s:\n%s", expression, strings.Join(diff, "\n"))
	}
}
