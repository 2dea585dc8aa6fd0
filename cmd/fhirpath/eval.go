package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/funvibe/fhirpath/pkg/fhirpath"
)

func runEval(args []string) error {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	expr := fs.String("expr", "", "FHIRPath expression")
	inputPath := fs.String("input", "", "path to a FHIR resource JSON file (omitted = no input)")
	stats := fs.Bool("stats", false, "print timing/size stats to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *expr == "" {
		return fmt.Errorf("eval: -expr is required")
	}

	var input []byte
	var err error
	if *inputPath != "" {
		input, err = os.ReadFile(*inputPath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", *inputPath, err)
		}
	}

	collection, err := inputCollection(input)
	if err != nil {
		return err
	}

	opts := loadOptions()
	opts.Trace = newTraceSink(os.Stderr)

	start := time.Now()
	result, diags, err := fhirpath.Run(*expr, collection, opts)
	elapsed := time.Since(start)

	printDiagnostics(os.Stderr, diags)
	if err != nil {
		return err
	}

	for _, v := range fhirpath.CollectionToJSON(result) {
		fmt.Println(jsonOneLine(v))
	}

	if *stats {
		fmt.Fprintf(os.Stderr, "evaluated in %s, input %s, %d result(s)\n",
			elapsed, humanize.Bytes(uint64(len(input))), len(result))
	}
	return nil
}
