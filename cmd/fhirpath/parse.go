package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/pkg/fhirpath"
)

func runParse(args []string) error {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	expr := fs.String("expr", "", "FHIRPath expression")
	printTree := fs.Bool("ast", false, "print the parsed AST")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *expr == "" {
		return fmt.Errorf("parse: -expr is required")
	}

	opts := loadOptions()
	opts.ErrorRecovery = true
	result, err := fhirpath.Parse(*expr, opts)
	if err != nil {
		return err
	}

	printDiagnostics(os.Stderr, result.Diagnostics)
	if *printTree && result.AST != nil {
		fmt.Println(ast.Print(result.AST))
	}
	if result.HasErrors {
		os.Exit(1)
	}
	return nil
}
