// Package ast defines the FHIRPath abstract syntax tree: a single Node
// interface implemented by every variant named in spec §3.3, walked via the
// Visitor pattern the teacher's internal/ast package uses throughout
// (Accept(v Visitor), TokenLiteral() for error messages). The AST is a
// strict tree: every child is exclusively owned by its parent, there are no
// shared subexpressions and no cycles, and no node's Range extends beyond
// its parent's.
package ast

import (
	"github.com/funvibe/fhirpath/internal/token"
	"github.com/funvibe/fhirpath/internal/typesystem"
)

// ValueKind tags the literal kind of a Literal node.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueNumber
	ValueBoolean
	ValueDate
	ValueDateTime
	ValueTime
	ValueQuantity
	ValueNull
)

// Node is the base interface every AST node implements.
type Node interface {
	Range() token.Range
	TokenLiteral() string
	Accept(v Visitor)
	// TypeInfo returns the node's inferred type, or nil if the node has not
	// been annotated by the analyzer.
	TypeInfo() *typesystem.TypeInfo
	setTypeInfo(t typesystem.TypeInfo)
	// SetRange lets the parser (re)stamp a node's source range, e.g. widening
	// a parenthesized expression's range to include the parens.
	SetRange(r token.Range)
}

// base is embedded by every concrete node to provide Range/TypeInfo storage.
type base struct {
	Rng  token.Range
	Type *typesystem.TypeInfo
}

func (b *base) Range() token.Range                    { return b.Rng }
func (b *base) TypeInfo() *typesystem.TypeInfo         { return b.Type }
func (b *base) setTypeInfo(t typesystem.TypeInfo)      { b.Type = &t }

// SetTypeInfo lets the analyzer annotate any node in place.
func SetTypeInfo(n Node, t typesystem.TypeInfo) { n.setTypeInfo(t) }

// SetRange lets the parser stamp a node's source range after construction,
// since base's Rng field is unexported and so cannot be set via a keyed
// struct literal from outside this package.
func (b *base) SetRange(r token.Range) { b.Rng = r }

// Visitor is implemented by consumers that walk the tree generically (the
// interpreter, analyzer, and pretty-printer each provide one).
type Visitor interface {
	VisitLiteral(n *Literal)
	VisitIdentifier(n *Identifier)
	VisitTypeOrIdentifier(n *TypeOrIdentifier)
	VisitVariable(n *Variable)
	VisitBinary(n *Binary)
	VisitUnary(n *Unary)
	VisitIndex(n *Index)
	VisitFunction(n *Function)
	VisitCollection(n *Collection)
	VisitMembershipTest(n *MembershipTest)
	VisitTypeCast(n *TypeCast)
	VisitTypeReference(n *TypeReference)
	VisitError(n *ErrorNode)
}

// Literal is a string/number/boolean/date/dateTime/time/quantity/null
// constant.
type Literal struct {
	base
	Token     token.Token
	Value     interface{} // string, float64, bool, or nil
	ValueKind ValueKind
	// Unit is set only for ValueQuantity literals (the calendar-duration or
	// UCUM unit suffix, e.g. "years" or "mg").
	Unit string
}

func (n *Literal) TokenLiteral() string { return n.Token.Lexeme }
func (n *Literal) Accept(v Visitor)     { v.VisitLiteral(n) }

// Identifier is a lowercase-leading (or delimited) property/member name.
type Identifier struct {
	base
	Token token.Token
	Name  string
}

func (n *Identifier) TokenLiteral() string { return n.Token.Lexeme }
func (n *Identifier) Accept(v Visitor)     { v.VisitIdentifier(n) }

// TypeOrIdentifier is the surface form for an ambiguous uppercase-leading
// bare identifier: could be a resource-type filter or a property name.
type TypeOrIdentifier struct {
	base
	Token token.Token
	Name  string
}

func (n *TypeOrIdentifier) TokenLiteral() string { return n.Token.Lexeme }
func (n *TypeOrIdentifier) Accept(v Visitor)     { v.VisitTypeOrIdentifier(n) }

// VariableKind distinguishes the four variable forms.
type VariableKind int

const (
	VarThis VariableKind = iota
	VarIndex
	VarTotal
	VarEnv
)

// Variable is $this, $index, $total, or %name.
type Variable struct {
	base
	Token token.Token
	Kind  VariableKind
	Name  string // the %name for VarEnv; "this"/"index"/"total" otherwise
}

func (n *Variable) TokenLiteral() string { return n.Token.Lexeme }
func (n *Variable) Accept(v Visitor)     { v.VisitVariable(n) }

// BinaryOp enumerates every infix operator, including '.' (navigation) and
// '|' (union).
type BinaryOp string

const (
	OpDot      BinaryOp = "."
	OpPlus     BinaryOp = "+"
	OpMinus    BinaryOp = "-"
	OpMul      BinaryOp = "*"
	OpDiv      BinaryOp = "/"
	OpDivInt   BinaryOp = "div"
	OpMod      BinaryOp = "mod"
	OpConcat   BinaryOp = "&"
	OpLt       BinaryOp = "<"
	OpLte      BinaryOp = "<="
	OpGt       BinaryOp = ">"
	OpGte      BinaryOp = ">="
	OpEq       BinaryOp = "="
	OpNeq      BinaryOp = "!="
	OpEquiv    BinaryOp = "~"
	OpNequiv   BinaryOp = "!~"
	OpIn       BinaryOp = "in"
	OpContains BinaryOp = "contains"
	OpAnd      BinaryOp = "and"
	OpOr       BinaryOp = "or"
	OpXor      BinaryOp = "xor"
	OpImplies  BinaryOp = "implies"
	OpUnion    BinaryOp = "|"
)

// Binary is any infix expression, including `.` navigation and `|` union.
type Binary struct {
	base
	Token token.Token
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (n *Binary) TokenLiteral() string { return n.Token.Lexeme }
func (n *Binary) Accept(v Visitor)     { v.VisitBinary(n) }

// UnaryOp enumerates prefix operators.
type UnaryOp string

const (
	OpUnaryPlus  UnaryOp = "+"
	OpUnaryMinus UnaryOp = "-"
	OpNot        UnaryOp = "not"
)

// Unary is a prefix +, -, or not.
type Unary struct {
	base
	Token   token.Token
	Op      UnaryOp
	Operand Expr
}

func (n *Unary) TokenLiteral() string { return n.Token.Lexeme }
func (n *Unary) Accept(v Visitor)     { v.VisitUnary(n) }

// Index is postfix `expr[index]`.
type Index struct {
	base
	Token      token.Token
	Expression Expr
	IndexExpr  Expr
}

func (n *Index) TokenLiteral() string { return n.Token.Lexeme }
func (n *Index) Accept(v Visitor)     { v.VisitIndex(n) }

// Function is a call `name(args...)`. Callee may also be a *Binary with
// Op == OpDot whose Right is the Identifier naming the function, in which
// case Receiver() returns its Left; the parser does not build that shape,
// and parses `receiver.name(args...)` as a Binary(.) whose Right is a
// Function with an Identifier callee.
type Function struct {
	base
	Token     token.Token
	Callee    Expr
	Arguments []Expr
}

func (n *Function) TokenLiteral() string { return n.Token.Lexeme }
func (n *Function) Accept(v Visitor)     { v.VisitFunction(n) }

// Name returns the called function's bare name, whether Callee is a plain
// Identifier/TypeOrIdentifier or a method-call Binary(.).
func (n *Function) Name() string {
	switch c := n.Callee.(type) {
	case *Identifier:
		return c.Name
	case *TypeOrIdentifier:
		return c.Name
	case *Binary:
		if c.Op == OpDot {
			switch r := c.Right.(type) {
			case *Identifier:
				return r.Name
			case *TypeOrIdentifier:
				return r.Name
			}
		}
	}
	return ""
}

// Receiver returns the left side of a method-call Binary(.) callee, or nil
// for a plain function call applied to the enclosing focus.
func (n *Function) Receiver() Expr {
	if b, ok := n.Callee.(*Binary); ok && b.Op == OpDot {
		return b.Left
	}
	return nil
}

// Collection is a `{ e, e, ... }` or `{}` literal. The empty form is
// identical to the null literal and the parser produces a Literal(ValueNull)
// for it instead, per spec §4.2.
type Collection struct {
	base
	Token    token.Token
	Elements []Expr
}

func (n *Collection) TokenLiteral() string { return n.Token.Lexeme }
func (n *Collection) Accept(v Visitor)     { v.VisitCollection(n) }

// MembershipTest is the `expr is Type` operator.
type MembershipTest struct {
	base
	Token      token.Token
	Expression Expr
	TargetType *TypeReference
}

func (n *MembershipTest) TokenLiteral() string { return n.Token.Lexeme }
func (n *MembershipTest) Accept(v Visitor)     { v.VisitMembershipTest(n) }

// TypeCast is the `expr as Type` operator.
type TypeCast struct {
	base
	Token      token.Token
	Expression Expr
	TargetType *TypeReference
}

func (n *TypeCast) TokenLiteral() string { return n.Token.Lexeme }
func (n *TypeCast) Accept(v Visitor)     { v.VisitTypeCast(n) }

// TypeReference names a type, possibly namespace-qualified
// (`Namespace.Name`), appearing on the right of `is`/`as`. The argument of
// `ofType(...)` is an ordinary expression, not a TypeReference.
type TypeReference struct {
	base
	Token     token.Token
	Namespace string // empty if unqualified
	Name      string
}

func (n *TypeReference) TokenLiteral() string { return n.Token.Lexeme }
func (n *TypeReference) Accept(v Visitor)     { v.VisitTypeReference(n) }

// QualifiedName renders "Namespace.Name" or just "Name".
func (n *TypeReference) QualifiedName() string {
	if n.Namespace == "" {
		return n.Name
	}
	return n.Namespace + "." + n.Name
}

// ErrorNode stands in for a syntax error in error-recovery mode; it carries
// no children, so traversal treats it as Any-typed and evaluates to empty.
type ErrorNode struct {
	base
	Token    token.Token
	Message  string
	Severity string
	Code     string
}

func (n *ErrorNode) TokenLiteral() string { return n.Token.Lexeme }
func (n *ErrorNode) Accept(v Visitor)     { v.VisitError(n) }

// Expr is the marker interface for expression nodes (every node kind in
// this package; FHIRPath has no statements).
type Expr interface {
	Node
}

// NewRange builds a token.Range spanning [start, end).
func NewRange(start, end token.Position) token.Range {
	return token.Range{Start: start, End: end}
}
