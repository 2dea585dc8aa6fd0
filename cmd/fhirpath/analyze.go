package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/funvibe/fhirpath/pkg/fhirpath"
	"github.com/funvibe/fhirpath/pkg/modelprovider/basic"
)

func runAnalyze(args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	expr := fs.String("expr", "", "FHIRPath expression")
	useModel := fs.Bool("model", false, "analyze against the reference in-memory ModelProvider")
	rootType := fs.String("root", "Patient", "root resource type, when -model is set")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *expr == "" {
		return fmt.Errorf("analyze: -expr is required")
	}

	opts := loadOptions()
	opts.ErrorRecovery = true

	var provider *basic.Provider
	if *useModel {
		provider = basic.New()
		opts.ModelProvider = provider
		if t, ok := provider.GetType(*rootType); ok {
			opts.InputType = t
		}
	}

	parsed, err := fhirpath.Parse(*expr, opts)
	if err != nil {
		return err
	}
	if parsed.HasErrors {
		printDiagnostics(os.Stderr, parsed.Diagnostics)
		os.Exit(1)
	}

	result := fhirpath.Analyze(parsed.AST, opts)
	printDiagnostics(os.Stderr, result.Diagnostics)
	if result.HasErrors {
		os.Exit(1)
	}
	return nil
}
