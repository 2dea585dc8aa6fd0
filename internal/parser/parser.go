// Package parser implements FHIRPath's Pratt (precedence-climbing) parser:
// a prefix/infix parse-function table keyed by token kind, a fixed
// precedence map with exactly 13 levels (spec §4.2/§6.4), and two modes —
// fast mode aborts on the first syntax error, error-recovery mode records a
// diagnostic, splices in an Error node, and resynchronizes. The overall
// shape (parseExpression(minPrecedence) driving a prefix table then an
// infix loop keyed by peek-token precedence, plus a recursion-depth guard)
// is adapted directly from the teacher's internal/parser/expressions_core.go.
package parser

import (
	"fmt"

	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/diagnostics"
	"github.com/funvibe/fhirpath/internal/lexer"
	"github.com/funvibe/fhirpath/internal/token"
)

// MaxRecursionDepth bounds parseExpression nesting so a pathological input
// (deeply nested parens) fails cleanly instead of overflowing the Go stack.
const MaxRecursionDepth = 250

// ParseError is returned by fast-mode Parse on the first syntax error.
type ParseError struct {
	Message  string
	Position token.Position
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at %s", e.Message, e.Position)
}

// Options controls parsing mode.
type Options struct {
	// ErrorRecovery, when true, never aborts: syntax errors become
	// diagnostics plus an ast.ErrorNode, and the parser resynchronizes.
	ErrorRecovery bool
	// PreserveTrivia threads through to the lexer.
	PreserveTrivia bool
}

// Result is what Parse returns.
type Result struct {
	AST         ast.Expr
	Diagnostics []diagnostics.Diagnostic
	HasErrors   bool
}

// Parse tokenizes and parses source per opts. In fast mode (the default,
// ErrorRecovery=false) the first syntax error is returned as *ParseError and
// Result is the zero value. In recovery mode, Parse never returns an error;
// all problems are reported via Result.Diagnostics/HasErrors.
func Parse(source string, opts Options) (Result, error) {
	toks, err := lexer.TokenizeWithOptions(source, lexer.Options{PreserveTrivia: opts.PreserveTrivia})
	if err != nil {
		if opts.ErrorRecovery {
			lexErr := err.(*lexer.LexError)
			d := diagnostics.Newf(diagnostics.CodeParseError, token.Range{Start: lexErr.Position, End: lexErr.Position}, "%s", lexErr.Message)
			return Result{AST: &ast.ErrorNode{Message: lexErr.Message}, Diagnostics: []diagnostics.Diagnostic{d}, HasErrors: true}, nil
		}
		return Result{}, &ParseError{Message: err.Error(), Position: err.(*lexer.LexError).Position}
	}
	p := New(toks, opts)
	node := p.ParseExpression(0)
	if !opts.ErrorRecovery && p.firstError != nil {
		return Result{}, p.firstError
	}
	if !p.atEOF() {
		p.errorf(p.cur(), diagnostics.CodeParseError, "unexpected trailing token %q", p.cur().Lexeme)
		if !opts.ErrorRecovery && p.firstError != nil {
			return Result{}, p.firstError
		}
	}
	return Result{AST: node, Diagnostics: p.diags, HasErrors: len(p.diags) > 0}, nil
}

// Parser holds token-stream position and the prefix/infix dispatch tables.
type Parser struct {
	toks []token.Token
	pos  int // index of the "current" token in ParseExpression's sense: toks[pos] is current
	opts Options

	diags     []diagnostics.Diagnostic
	firstError *ParseError
	depth     int

	prefixFns map[token.Kind]prefixFn
	infixFns  map[token.Kind]infixFn
}

type prefixFn func() ast.Expr
type infixFn func(left ast.Expr) ast.Expr

// New builds a Parser over an already-tokenized stream, keeping only its
// Default-channel tokens: hidden-channel (trivia) tokens are filtered out
// here, so a stream tokenized with or without trivia may be passed as is.
func New(toks []token.Token, opts Options) *Parser {
	filtered := toks[:0:0]
	for _, t := range toks {
		if t.Channel == token.Default {
			filtered = append(filtered, t)
		}
	}
	p := &Parser{toks: filtered, opts: opts}
	p.registerPrefix()
	p.registerInfix()
	return p
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peek() token.Token {
	if p.pos+1 >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos+1]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) atEOF() bool { return p.cur().Kind == token.EOF }

func (p *Parser) expect(k token.Kind, what string) (token.Token, bool) {
	if p.cur().Kind == k {
		return p.advance(), true
	}
	p.errorf(p.cur(), diagnostics.CodeParseError, "expected %s, got %q", what, p.cur().Lexeme)
	return p.cur(), false
}

// errorf records a diagnostic (recovery mode) or, in fast mode, latches the
// first *ParseError encountered (subsequent calls are no-ops so the first
// failure wins, matching "Fast mode: stops at first parse error").
func (p *Parser) errorf(at token.Token, code, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if !p.opts.ErrorRecovery {
		if p.firstError == nil {
			p.firstError = &ParseError{Message: msg, Position: at.Position}
		}
		return
	}
	p.diags = append(p.diags, diagnostics.New(code, at.Range(), msg))
}

// recoveryNode builds an ast.ErrorNode anchored at tok and resynchronizes
// the token stream to a stable boundary: one of , ) ] } or EOF.
func (p *Parser) recoveryNode(tok token.Token, message string) ast.Expr {
	p.synchronize()
	n := &ast.ErrorNode{
		Token:    tok,
		Message:  message,
		Severity: "error",
		Code:     diagnostics.CodeParseError,
	}
	n.SetRange(tok.Range())
	return n
}

func (p *Parser) synchronize() {
	for !p.atEOF() {
		switch p.cur().Kind {
		case token.COMMA, token.RPAREN, token.RBRACKET, token.RBRACE:
			return
		}
		p.advance()
	}
}

// ParseExpression is the Pratt driver: get a prefix parser for the current
// token, then repeatedly fold in infix operators whose precedence binds
// tighter than minPrecedence. minPrecedence=0 parses a full expression;
// callers that need "everything but trailing |" or similar pass a higher
// floor. Mirrors the teacher's parseExpression(precedence int) shape,
// minus the newline/`return`-statement handling the FHIRPath grammar (which
// has no statements and no significant newlines, §6.4) doesn't need.
func (p *Parser) ParseExpression(minPrecedence int) ast.Expr {
	p.depth++
	if p.depth > MaxRecursionDepth {
		p.depth--
		tok := p.cur()
		p.errorf(tok, diagnostics.CodeParseError, "expression nested too deeply")
		return p.recoveryNode(tok, "expression nested too deeply")
	}
	defer func() { p.depth-- }()

	prefix, ok := p.prefixFns[p.cur().Kind]
	if !ok {
		tok := p.cur()
		p.errorf(tok, diagnostics.CodeParseError, "unexpected token %q", tok.Lexeme)
		return p.recoveryNode(tok, fmt.Sprintf("unexpected token %q", tok.Lexeme))
	}
	left := prefix()

	for {
		opKind := p.cur().Kind
		prec, has := precedenceOf(opKind)
		if !has || prec < minPrecedence {
			break
		}
		infix, ok := p.infixFns[opKind]
		if !ok {
			break
		}
		left = infix(left)
	}
	return left
}

// precedence levels, following FHIRPath's 13-level table (spec §6.4) from
// tightest (.) to loosest (implies). Higher numeric value binds tighter;
// ParseExpression's Pratt loop continues while an operator's level is >=
// minPrecedence.
const (
	precDot        = 13 // .
	precIndex      = 12 // []
	precUnary      = 11 // unary + -, not
	precMulDiv     = 10 // * / div mod
	precAddSub     = 9  // + - &
	precIsAs       = 8  // is as
	precUnion      = 7  // |
	precRelational = 6  // < <= > >=
	precEquality   = 5  // = != ~ !~
	precMembership = 4  // in contains
	precAnd        = 3
	precOrXor      = 2
	precImplies    = 1
)

// precedenceOf returns an infix/postfix binding power for tok, scaled so
// that ParseExpression's Pratt loop walks from tightest (.) to loosest
// (implies) exactly as spec §6.4 lists them; it returns (0, false) for
// tokens that never start an infix/postfix operator.
func precedenceOf(k token.Kind) (int, bool) {
	switch k {
	case token.DOT:
		return precDot, true
	case token.LBRACKET:
		return precIndex, true
	case token.STAR, token.SLASH, token.DIV, token.MOD:
		return precMulDiv, true
	case token.PLUS, token.MINUS, token.AMP:
		return precAddSub, true
	case token.IS, token.AS:
		return precIsAs, true
	case token.UNION:
		return precUnion, true
	case token.LT, token.LTE, token.GT, token.GTE:
		return precRelational, true
	case token.EQ, token.NEQ, token.EQUIV, token.NEQUIV:
		return precEquality, true
	case token.IN, token.CONTAINS:
		return precMembership, true
	case token.AND:
		return precAnd, true
	case token.OR, token.XOR:
		return precOrXor, true
	case token.IMPLIES:
		return precImplies, true
	}
	return 0, false
}

