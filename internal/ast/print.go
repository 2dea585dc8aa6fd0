package ast

import (
	"fmt"
	"strings"
)

// Print renders n as an indented S-expression tree, useful for
// `cmd/fhirpath --ast` debugging output. Adapted in spirit (a Visitor that
// reconstructs a textual form of the tree) from the teacher's
// internal/prettyprinter/code_printer.go, but scoped down from full
// source-code regeneration to a debug dump since FHIRPath's AST is walked
// for diagnostics far more often than it is serialized back to source.
func Print(n Node) string {
	p := &printer{}
	n.Accept(p)
	return p.buf.String()
}

type printer struct {
	buf    strings.Builder
	indent int
}

func (p *printer) line(format string, args ...interface{}) {
	p.buf.WriteString(strings.Repeat("  ", p.indent))
	fmt.Fprintf(&p.buf, format, args...)
	p.buf.WriteByte('\n')
}

func (p *printer) child(n Node) {
	p.indent++
	n.Accept(p)
	p.indent--
}

func (p *printer) VisitLiteral(n *Literal) {
	p.line("Literal(%v, kind=%d, unit=%q)", n.Value, n.ValueKind, n.Unit)
}

func (p *printer) VisitIdentifier(n *Identifier) {
	p.line("Identifier(%s)", n.Name)
}

func (p *printer) VisitTypeOrIdentifier(n *TypeOrIdentifier) {
	p.line("TypeOrIdentifier(%s)", n.Name)
}

func (p *printer) VisitVariable(n *Variable) {
	p.line("Variable(kind=%d, name=%s)", n.Kind, n.Name)
}

func (p *printer) VisitBinary(n *Binary) {
	p.line("Binary(%s)", n.Op)
	p.child(n.Left)
	p.child(n.Right)
}

func (p *printer) VisitUnary(n *Unary) {
	p.line("Unary(%s)", n.Op)
	p.child(n.Operand)
}

func (p *printer) VisitIndex(n *Index) {
	p.line("Index")
	p.child(n.Expression)
	p.child(n.IndexExpr)
}

func (p *printer) VisitFunction(n *Function) {
	p.line("Function(%s, argc=%d)", n.Name(), len(n.Arguments))
	p.child(n.Callee)
	for _, a := range n.Arguments {
		p.child(a)
	}
}

func (p *printer) VisitCollection(n *Collection) {
	p.line("Collection(len=%d)", len(n.Elements))
	for _, e := range n.Elements {
		p.child(e)
	}
}

func (p *printer) VisitMembershipTest(n *MembershipTest) {
	p.line("MembershipTest(%s)", n.TargetType.QualifiedName())
	p.child(n.Expression)
}

func (p *printer) VisitTypeCast(n *TypeCast) {
	p.line("TypeCast(%s)", n.TargetType.QualifiedName())
	p.child(n.Expression)
}

func (p *printer) VisitTypeReference(n *TypeReference) {
	p.line("TypeReference(%s)", n.QualifiedName())
}

func (p *printer) VisitError(n *ErrorNode) {
	p.line("Error(%s)", n.Message)
}
