// Command fhirpath is a small CLI front end over pkg/fhirpath: eval/parse/
// analyze/batch subcommands, grounded on the teacher's cmd/funxy dispatch
// shape (a single main.go reading a subcommand/file argument and wiring
// the same internal packages the library itself uses).
package main

import (
	"fmt"
	"os"

	"github.com/funvibe/fhirpath/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "eval":
		err = runEval(os.Args[2:])
	case "parse":
		err = runParse(os.Args[2:])
	case "analyze":
		err = runAnalyze(os.Args[2:])
	case "batch":
		err = runBatch(os.Args[2:])
	case "version", "-v", "--version":
		fmt.Println(config.Version)
		return
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "fhirpath: unknown subcommand %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "fhirpath: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: fhirpath <subcommand> [flags]

subcommands:
  eval     -expr EXPR -input FILE   evaluate an expression against a FHIR resource
  parse    -expr EXPR [-ast]        parse an expression, printing diagnostics (and the AST with -ast)
  analyze  -expr EXPR [-model]      statically analyze an expression
  batch    FILE                     run a YAML batch test file
  version                           print the module version`)
}
