package main

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/fhirpath/internal/config"
	"github.com/funvibe/fhirpath/pkg/fhirpath"
)

// batchCase is one YAML test-case entry; Input is decoded generically
// (map[string]interface{}/[]interface{}/scalars) since yaml.v3 normalizes
// YAML into the shapes encoding/json would produce from JSON, except that
// numbers arrive as int or float64 rather than json.Number;
// fhirpath.ToCollection accepts all of these.
type batchCase struct {
	Name       string      `yaml:"name"`
	Expression string      `yaml:"expression"`
	Input      interface{} `yaml:"input"`
	Expected   []string    `yaml:"expected"`
}

type batchFile struct {
	Cases []batchCase `yaml:"cases"`
}

// runBatch loads a YAML batch file (the teacher's lib/yaml encode/decode
// convention, repurposed here as a test-case runner) and reports
// pass/fail per case plus a humanized summary.
func runBatch(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("batch: expected exactly one file argument")
	}
	if !config.HasBatchExt(args[0]) {
		fmt.Fprintf(os.Stderr, "fhirpath: warning: %s does not have a recognized batch extension (%v)\n", args[0], config.BatchFileExtensions)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	var file batchFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	opts := loadOptions()
	start := time.Now()
	passed, failed := 0, 0
	for _, c := range file.Cases {
		input := fhirpath.ToCollection(c.Input)
		result, diags, err := fhirpath.Run(c.Expression, input, opts)
		if err != nil {
			failed++
			fmt.Printf("FAIL %s: %v\n", c.Name, err)
			continue
		}
		got := stringifyResults(fhirpath.CollectionToJSON(result))
		if reflect.DeepEqual(got, c.Expected) {
			passed++
			fmt.Printf("PASS %s\n", c.Name)
		} else {
			failed++
			fmt.Printf("FAIL %s: got %v, want %v\n", c.Name, got, c.Expected)
		}
		printDiagnostics(os.Stderr, diags)
	}

	fmt.Printf("\n%s passed, %s failed (%s)\n",
		humanize.Comma(int64(passed)), humanize.Comma(int64(failed)), time.Since(start))
	if failed > 0 {
		os.Exit(1)
	}
	return nil
}

func stringifyResults(values []interface{}) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = jsonOneLine(v)
	}
	return out
}
