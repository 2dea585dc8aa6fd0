// Package diagnostics holds the structured message type shared by the
// parser (error-recovery mode) and the analyzer. Reconstructed from the
// call-site shape `diagnostics.NewError(code, token, message)` observed in
// the teacher's pkg/embed/vm.go — the package itself was not present in the
// retrieval pack.
package diagnostics

import (
	"fmt"

	"github.com/funvibe/fhirpath/internal/token"
)

// Severity ranks a Diagnostic for tooling consumption.
type Severity int

const (
	Error Severity = iota
	Warning
	Information
	Hint
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Information:
		return "information"
	case Hint:
		return "hint"
	}
	return "unknown"
}

// Stable diagnostic codes (spec §3.5 / §6.5).
const (
	CodeParseError           = "parse-error"
	CodeUnknownOperator      = "unknown-operator"
	CodeUnknownFunction      = "unknown-function"
	CodeUnknownVariable      = "unknown-variable"
	CodeUnknownProperty      = "unknown-property"
	CodeWrongArgumentCount   = "wrong-argument-count"
	CodeTypeMismatch         = "type-mismatch"
	CodeSingletonRequired    = "singleton-required"
	CodeTypeNotAssignable    = "type-not-assignable"
	CodeModelProviderNeeded  = "model-provider-required"
	CodeInvalidTypeFilter    = "invalid-type-filter"
	CodeInvalidTypeTest      = "invalid-type-test"
	CodeInvalidTypeCast      = "invalid-type-cast"
)

// RelatedInformation points from one diagnostic at another location that
// helps explain it.
type RelatedInformation struct {
	Range   token.Range
	Message string
}

// Diagnostic is a structured message produced by the parser or analyzer.
// It never carries Go error semantics — callers collect these into a slice,
// they are never returned as `error`.
type Diagnostic struct {
	Range    token.Range
	Severity Severity
	Code     string
	Message  string
	Source   string
	Related  []RelatedInformation
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: [%s] %s (%s)", d.Severity, d.Code, d.Message, d.Range)
}

// New builds a Diagnostic at Error severity.
func New(code string, rng token.Range, message string) Diagnostic {
	return Diagnostic{Range: rng, Severity: Error, Code: code, Message: message, Source: "fhirpath"}
}

// Newf builds a Diagnostic at Error severity with a formatted message.
func Newf(code string, rng token.Range, format string, args ...interface{}) Diagnostic {
	return New(code, rng, fmt.Sprintf(format, args...))
}

// NewAt builds a Diagnostic anchored at a single token's position (used for
// parser recovery nodes, which often don't yet have a meaningful range).
func NewAt(code string, tok token.Token, message string) Diagnostic {
	return New(code, tok.Range(), message)
}

// WithSeverity returns a copy of d with Severity replaced.
func (d Diagnostic) WithSeverity(s Severity) Diagnostic {
	d.Severity = s
	return d
}
