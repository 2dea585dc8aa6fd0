package parser

import (
	"github.com/funvibe/fhirpath/internal/ast"
	"github.com/funvibe/fhirpath/internal/diagnostics"
	"github.com/funvibe/fhirpath/internal/token"
)

// registerPrefix installs every prefix (primary-expression-starting) parse
// function, keyed by the token kind that begins it. Shape mirrors the
// teacher's prefixParseFns registration in expressions_core.go.
func (p *Parser) registerPrefix() {
	p.prefixFns = map[token.Kind]prefixFn{
		token.STRING:               p.parseStringLiteral,
		token.NUMBER:                p.parseNumberLiteral,
		token.TRUE:                  p.parseBoolLiteral,
		token.FALSE:                 p.parseBoolLiteral,
		token.NULL_LITERAL:          p.parseNullLiteral,
		token.DATE:                  p.parseDateLiteral,
		token.DATETIME:              p.parseDateTimeLiteral,
		token.TIME:                  p.parseTimeLiteral,
		token.IDENTIFIER:            p.parseIdentifier,
		token.DELIMITED_IDENTIFIER:  p.parseIdentifier,
		token.TYPE_OR_IDENTIFIER:    p.parseTypeOrIdentifier,
		token.THIS:                  p.parseVariable,
		token.INDEX:                 p.parseVariable,
		token.TOTAL:                 p.parseVariable,
		token.ENV:                   p.parseVariable,
		token.LPAREN:                p.parseGroup,
		token.LBRACE:                p.parseCollectionLiteral,
		token.PLUS:                  p.parseUnary,
		token.MINUS:                 p.parseUnary,
		token.NOT:                   p.parseUnaryNot,
		// FHIRPath keywords are valid unqualified identifiers whenever they
		// appear where an expression may start (spec §6.3 "keywords as
		// identifiers"), e.g. `Patient.where(...)`'s `where` is not special
		// here, but a bare `contains` or `is` used as a function/member name
		// needs the same prefix handling an IDENTIFIER gets.
		token.DIV:      p.parseKeywordAsIdentifier,
		token.MOD:      p.parseKeywordAsIdentifier,
		token.IN:       p.parseKeywordAsIdentifier,
		token.CONTAINS: p.parseKeywordAsIdentifier,
		token.AND:      p.parseKeywordAsIdentifier,
		token.OR:       p.parseKeywordAsIdentifier,
		token.XOR:      p.parseKeywordAsIdentifier,
		token.IMPLIES:  p.parseKeywordAsIdentifier,
		token.IS:       p.parseKeywordAsIdentifier,
		token.AS:       p.parseKeywordAsIdentifier,
	}
}

// registerInfix installs every infix/postfix parse function, keyed by the
// operator token kind.
func (p *Parser) registerInfix() {
	p.infixFns = map[token.Kind]infixFn{
		token.DOT:      p.parseDot,
		token.LBRACKET: p.parseIndex,
		token.STAR:     p.binaryOf(ast.OpMul, precMulDiv),
		token.SLASH:    p.binaryOf(ast.OpDiv, precMulDiv),
		token.DIV:      p.binaryOf(ast.OpDivInt, precMulDiv),
		token.MOD:      p.binaryOf(ast.OpMod, precMulDiv),
		token.PLUS:     p.binaryOf(ast.OpPlus, precAddSub),
		token.MINUS:    p.binaryOf(ast.OpMinus, precAddSub),
		token.AMP:      p.binaryOf(ast.OpConcat, precAddSub),
		token.UNION:    p.binaryOf(ast.OpUnion, precUnion),
		token.LT:       p.binaryOf(ast.OpLt, precRelational),
		token.LTE:      p.binaryOf(ast.OpLte, precRelational),
		token.GT:       p.binaryOf(ast.OpGt, precRelational),
		token.GTE:      p.binaryOf(ast.OpGte, precRelational),
		token.EQ:       p.binaryOf(ast.OpEq, precEquality),
		token.NEQ:      p.binaryOf(ast.OpNeq, precEquality),
		token.EQUIV:    p.binaryOf(ast.OpEquiv, precEquality),
		token.NEQUIV:   p.binaryOf(ast.OpNequiv, precEquality),
		token.IN:       p.binaryOf(ast.OpIn, precMembership),
		token.CONTAINS: p.binaryOf(ast.OpContains, precMembership),
		token.AND:      p.binaryOf(ast.OpAnd, precAnd),
		token.OR:       p.binaryOf(ast.OpOr, precOrXor),
		token.XOR:      p.binaryOf(ast.OpXor, precOrXor),
		token.IMPLIES:  p.binaryOf(ast.OpImplies, precImplies),
		token.IS:       p.parseIs,
		token.AS:       p.parseAs,
	}
}

func setRange(n ast.Node, start, end token.Token) {
	n.SetRange(ast.NewRange(start.Position, end.Range().End))
}

// --- literals ---

func (p *Parser) parseStringLiteral() ast.Expr {
	tok := p.advance()
	n := &ast.Literal{Token: tok, Value: tok.Literal, ValueKind: ast.ValueString}
	setRange(n, tok, tok)
	return n
}

func (p *Parser) parseNumberLiteral() ast.Expr {
	tok := p.advance()
	n := &ast.Literal{Token: tok, Value: tok.Literal, ValueKind: ast.ValueNumber}
	// `4 'mg'` / `4 days` quantity-literal suffix: a NUMBER immediately
	// followed by a STRING (UCUM unit) or a unit keyword forms one Literal.
	if p.cur().Kind == token.STRING && p.noTriviaBetween(tok, p.cur()) {
		unitTok := p.advance()
		n.ValueKind = ast.ValueQuantity
		n.Unit, _ = unitTok.Literal.(string)
		setRange(n, tok, unitTok)
		return n
	}
	if p.cur().Kind == token.UNIT && p.noTriviaBetween(tok, p.cur()) {
		unitTok := p.advance()
		n.ValueKind = ast.ValueQuantity
		n.Unit = unitTok.Lexeme
		setRange(n, tok, unitTok)
		return n
	}
	setRange(n, tok, tok)
	return n
}

// noTriviaBetween is a conservative always-true stand-in: the lexer's
// default (non-trivia-preserving) mode never hands the parser whitespace
// tokens, so adjacency in the filtered stream already means "next token",
// which is what FHIRPath's quantity-literal grammar requires ("a number
// followed by whitespace then a unit" is still one literal, §3.4).
func (p *Parser) noTriviaBetween(token.Token, token.Token) bool { return true }

func (p *Parser) parseBoolLiteral() ast.Expr {
	tok := p.advance()
	n := &ast.Literal{Token: tok, Value: tok.Kind == token.TRUE, ValueKind: ast.ValueBoolean}
	setRange(n, tok, tok)
	return n
}

func (p *Parser) parseNullLiteral() ast.Expr {
	tok := p.advance()
	n := &ast.Literal{Token: tok, Value: nil, ValueKind: ast.ValueNull}
	setRange(n, tok, tok)
	return n
}

func (p *Parser) parseDateLiteral() ast.Expr {
	tok := p.advance()
	n := &ast.Literal{Token: tok, Value: tok.Literal, ValueKind: ast.ValueDate}
	setRange(n, tok, tok)
	return n
}

func (p *Parser) parseDateTimeLiteral() ast.Expr {
	tok := p.advance()
	n := &ast.Literal{Token: tok, Value: tok.Literal, ValueKind: ast.ValueDateTime}
	setRange(n, tok, tok)
	return n
}

func (p *Parser) parseTimeLiteral() ast.Expr {
	tok := p.advance()
	n := &ast.Literal{Token: tok, Value: tok.Literal, ValueKind: ast.ValueTime}
	setRange(n, tok, tok)
	return n
}

// --- identifiers, type references, variables ---

func identName(tok token.Token) string {
	if tok.Kind == token.DELIMITED_IDENTIFIER {
		if s, ok := tok.Literal.(string); ok {
			return s
		}
	}
	return tok.Lexeme
}

// parseIdentifier parses a bare identifier and, if immediately followed by
// '(', folds it into a Function call — this is how a top-level function
// like `exists()`, `today()`, or `iif(...)` (applied to the ambient focus,
// no explicit receiver) gets parsed; `receiver.name(...)` reaches here too,
// via parseDot, so its member side is this same receiver-less Function.
func (p *Parser) parseIdentifier() ast.Expr {
	tok := p.advance()
	n := &ast.Identifier{Token: tok, Name: identName(tok)}
	setRange(n, tok, tok)
	if p.cur().Kind == token.LPAREN {
		return p.parseCallArgs(n)
	}
	return n
}

// parseKeywordAsIdentifier handles a reserved word used in identifier
// position (e.g. `Patient.contains` as a member access target, or a bare
// `is` appearing where only an expression can start). Spec §6.3 permits
// this; the parser does not special-case it beyond accepting the token.
func (p *Parser) parseKeywordAsIdentifier() ast.Expr {
	tok := p.advance()
	n := &ast.Identifier{Token: tok, Name: tok.Lexeme}
	setRange(n, tok, tok)
	if p.cur().Kind == token.LPAREN {
		return p.parseCallArgs(n)
	}
	return n
}

func (p *Parser) parseTypeOrIdentifier() ast.Expr {
	tok := p.advance()
	n := &ast.TypeOrIdentifier{Token: tok, Name: identName(tok)}
	setRange(n, tok, tok)
	if p.cur().Kind == token.LPAREN {
		return p.parseCallArgs(n)
	}
	return n
}

func (p *Parser) parseVariable() ast.Expr {
	tok := p.advance()
	var kind ast.VariableKind
	name := tok.Lexeme
	switch tok.Kind {
	case token.THIS:
		kind, name = ast.VarThis, "this"
	case token.INDEX:
		kind, name = ast.VarIndex, "index"
	case token.TOTAL:
		kind, name = ast.VarTotal, "total"
	case token.ENV:
		kind = ast.VarEnv
		if s, ok := tok.Literal.(string); ok {
			name = s
		}
	}
	n := &ast.Variable{Token: tok, Kind: kind, Name: name}
	setRange(n, tok, tok)
	return n
}

// --- grouping, collection literal ---

func (p *Parser) parseGroup() ast.Expr {
	open := p.advance()
	inner := p.ParseExpression(0)
	close, ok := p.expect(token.RPAREN, "')'")
	if !ok {
		return p.recoveryNode(open, "unterminated parenthesized expression")
	}
	// A parenthesized expression is transparent to the grammar (it only
	// affects precedence during parsing); its Range still spans the parens
	// so diagnostics point at the whole group.
	inner.SetRange(ast.NewRange(open.Position, close.Range().End))
	return inner
}

func (p *Parser) parseCollectionLiteral() ast.Expr {
	open := p.advance()
	if p.cur().Kind == token.RBRACE {
		close := p.advance()
		n := &ast.Literal{Token: open, Value: nil, ValueKind: ast.ValueNull}
		setRange(n, open, close)
		return n
	}
	n := &ast.Collection{Token: open}
	n.Elements = append(n.Elements, p.ParseExpression(0))
	for p.cur().Kind == token.COMMA {
		p.advance()
		n.Elements = append(n.Elements, p.ParseExpression(0))
	}
	close, ok := p.expect(token.RBRACE, "'}'")
	if !ok {
		return p.recoveryNode(open, "unterminated collection literal")
	}
	setRange(n, open, close)
	return n
}

// --- unary ---

func (p *Parser) parseUnary() ast.Expr {
	tok := p.advance()
	op := ast.OpUnaryPlus
	if tok.Kind == token.MINUS {
		op = ast.OpUnaryMinus
	}
	operand := p.ParseExpression(precUnary)
	n := &ast.Unary{Token: tok, Op: op, Operand: operand}
	n.SetRange(ast.NewRange(tok.Position, operand.Range().End))
	return n
}

func (p *Parser) parseUnaryNot() ast.Expr {
	tok := p.advance()
	operand := p.ParseExpression(precUnary)
	n := &ast.Unary{Token: tok, Op: ast.OpNot, Operand: operand}
	n.SetRange(ast.NewRange(tok.Position, operand.Range().End))
	return n
}

// --- binary / dot / index / is / as ---

// binaryOf returns an infixFn for a simple left-associative binary operator
// at the given precedence: consume the operator, recurse at prec+1 (one
// tighter) so repeated same-level operators fold left, per the standard
// precedence-climbing left-associativity rule.
func (p *Parser) binaryOf(op ast.BinaryOp, prec int) infixFn {
	return func(left ast.Expr) ast.Expr {
		tok := p.advance()
		right := p.ParseExpression(prec + 1)
		n := &ast.Binary{Token: tok, Op: op, Left: left, Right: right}
		n.SetRange(ast.NewRange(left.Range().Start, right.Range().End))
		return n
	}
}

// parseDot handles `.` navigation, which on its right side accepts either a
// bare member name or a function call `name(args)` — a method call is
// represented as Binary(.){Left: receiver, Right: Function{Callee:
// Identifier(name)}}. The parser does not build the Function{Callee:
// Binary(.)} shape, so ast.Function.Receiver() is nil on what it produces.
func (p *Parser) parseDot(left ast.Expr) ast.Expr {
	dotTok := p.advance()
	var member ast.Expr
	switch p.cur().Kind {
	case token.IDENTIFIER, token.DELIMITED_IDENTIFIER:
		member = p.parseIdentifier()
	case token.TYPE_OR_IDENTIFIER:
		member = p.parseTypeOrIdentifier()
	case token.THIS, token.INDEX, token.TOTAL:
		member = p.parseVariable()
	case token.DIV, token.MOD, token.IN, token.CONTAINS, token.AND, token.OR,
		token.XOR, token.IMPLIES, token.IS, token.AS:
		member = p.parseKeywordAsIdentifier()
	default:
		tok := p.cur()
		p.errorf(tok, diagnostics.CodeParseError, "expected member name after '.', got %q", tok.Lexeme)
		return p.recoveryNode(tok, "expected member name after '.'")
	}
	dot := &ast.Binary{Token: dotTok, Op: ast.OpDot, Left: left, Right: member}
	dot.SetRange(ast.NewRange(left.Range().Start, member.Range().End))

	if p.cur().Kind == token.LPAREN {
		return p.parseCallArgs(dot)
	}
	return dot
}

// parseCallArgs parses `(arg, arg, ...)` following callee (either a plain
// Identifier/TypeOrIdentifier for a bare function call, or a Binary(.) for
// a method call) and produces a Function node.
func (p *Parser) parseCallArgs(callee ast.Expr) ast.Expr {
	open := p.advance()
	fn := &ast.Function{Token: open, Callee: callee}
	if p.cur().Kind != token.RPAREN {
		fn.Arguments = append(fn.Arguments, p.ParseExpression(0))
		for p.cur().Kind == token.COMMA {
			p.advance()
			fn.Arguments = append(fn.Arguments, p.ParseExpression(0))
		}
	}
	close, ok := p.expect(token.RPAREN, "')'")
	if !ok {
		return p.recoveryNode(open, "unterminated argument list")
	}
	fn.SetRange(ast.NewRange(callee.Range().Start, close.Range().End))
	return fn
}

func (p *Parser) parseIndex(left ast.Expr) ast.Expr {
	open := p.advance()
	idx := p.ParseExpression(0)
	close, ok := p.expect(token.RBRACKET, "']'")
	if !ok {
		return p.recoveryNode(open, "unterminated index expression")
	}
	n := &ast.Index{Token: open, Expression: left, IndexExpr: idx}
	n.SetRange(ast.NewRange(left.Range().Start, close.Range().End))
	return n
}

// parseTypeReference reads an unqualified or `Namespace.Name`-qualified
// type name, the grammar `is`/`as` share (§6.4); `ofType(...)` parses its
// argument as an ordinary expression instead.
func (p *Parser) parseTypeReference() *ast.TypeReference {
	first, ok := p.expectTypeName()
	if !ok {
		return &ast.TypeReference{Token: first, Name: first.Lexeme}
	}
	name := identName(first)
	namespace := ""
	if p.cur().Kind == token.DOT {
		p.advance()
		second, ok2 := p.expectTypeName()
		if ok2 {
			namespace = name
			name = identName(second)
			ref := &ast.TypeReference{Token: first, Namespace: namespace, Name: name}
			ref.SetRange(ast.NewRange(first.Position, second.Range().End))
			return ref
		}
	}
	ref := &ast.TypeReference{Token: first, Name: name}
	ref.SetRange(first.Range())
	return ref
}

func (p *Parser) expectTypeName() (token.Token, bool) {
	switch p.cur().Kind {
	case token.TYPE_OR_IDENTIFIER, token.IDENTIFIER, token.DELIMITED_IDENTIFIER:
		return p.advance(), true
	}
	tok := p.cur()
	p.errorf(tok, diagnostics.CodeParseError, "expected type name, got %q", tok.Lexeme)
	return tok, false
}

func (p *Parser) parseIs(left ast.Expr) ast.Expr {
	tok := p.advance()
	target := p.parseTypeReference()
	n := &ast.MembershipTest{Token: tok, Expression: left, TargetType: target}
	n.SetRange(ast.NewRange(left.Range().Start, target.Range().End))
	return n
}

func (p *Parser) parseAs(left ast.Expr) ast.Expr {
	tok := p.advance()
	target := p.parseTypeReference()
	n := &ast.TypeCast{Token: tok, Expression: left, TargetType: target}
	n.SetRange(ast.NewRange(left.Range().Start, target.Range().End))
	return n
}
