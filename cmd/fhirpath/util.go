package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/fhirpath/internal/diagnostics"
	"github.com/funvibe/fhirpath/internal/runtime"
	"github.com/funvibe/fhirpath/pkg/fhirpath"
	"github.com/funvibe/fhirpath/pkg/modelprovider/basic"
)

// inputCollection decodes raw FHIR resource JSON into a Collection, or
// returns an empty Collection when no input was given (e.g. `fhirpath eval
// -expr "1+1"` needs none).
func inputCollection(raw []byte) (runtime.Collection, error) {
	if len(raw) == 0 {
		return runtime.Empty, nil
	}
	return fhirpath.FromJSON(raw)
}

func jsonOneLine(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// printDiagnostics writes one line per diagnostic, colorized when stderr is
// a terminal (detected via mattn/go-isatty) and NO_COLOR is not set.
func printDiagnostics(out io.Writer, diags []diagnostics.Diagnostic) {
	_, noColor := os.LookupEnv("NO_COLOR")
	color := !noColor && (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()))
	for _, d := range diags {
		if color {
			fmt.Fprintf(out, "\x1b[33m%s\x1b[0m [%s] %s\n", d.Severity, d.Code, d.Message)
		} else {
			fmt.Fprintf(out, "%s [%s] %s\n", d.Severity, d.Code, d.Message)
		}
	}
}

// newTraceSink backs FHIRPath's trace() function with a human-readable
// writer to out, colorized under the same NO_COLOR/isatty convention
// cmd/fhirpath uses for diagnostics.
func newTraceSink(out io.Writer) runtime.TraceSink {
	_, noColor := os.LookupEnv("NO_COLOR")
	color := !noColor && (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()))
	return func(name string, values runtime.Collection) {
		label := name
		if color {
			label = "\x1b[36m" + name + "\x1b[0m"
		}
		fmt.Fprintf(out, "trace(%s): %d value(s)\n", label, len(values))
		for _, v := range values {
			fmt.Fprintf(out, "  %s\n", v.String())
		}
	}
}

// loadOptions builds the Options a subcommand starts from, as
// .fhirpathrc.yaml supplies them (see config.go): mode, trivia, and a
// basic.New ModelProvider only when model_provider is "basic".
func loadOptions() fhirpath.Options {
	cfg := loadConfig()
	opts := fhirpath.Options{}
	if cfg.Mode == "strict" {
		opts.Mode = fhirpath.Strict
	}
	opts.Trivia = cfg.Trivia
	if cfg.ModelProvider == "basic" {
		opts.ModelProvider = basic.New()
	}
	return opts
}
