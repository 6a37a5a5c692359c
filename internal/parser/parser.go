// Package parser turns query text into expression trees. It is a small
// Pratt parser: prefix and infix parse functions are looked up per token
// type, and postfix forms (field access, filter brackets) are infix
// functions at the highest precedence.
package parser

import (
	"fmt"
	"strconv"

	"github.com/funvibe/ember/internal/diagnostics"
	"github.com/funvibe/ember/internal/lexer"
	"github.com/funvibe/ember/internal/pipeline"
	"github.com/funvibe/ember/internal/token"
	"github.com/funvibe/ember/pkg/expr"
)

type (
	prefixParseFn func() *expr.Node
	infixParseFn  func(*expr.Node) *expr.Node
)

const (
	_ int = iota
	LOWEST
	OR_PREC      // or
	AND_PREC     // and
	EQUALS       // == !=
	LESSGREATER  // < > <= >=
	SUM          // + -
	PRODUCT      // * / %
	POSTFIX      // .field  [predicate]
)

var precedences = map[token.TokenType]int{
	token.OR:       OR_PREC,
	token.AND:      AND_PREC,
	token.EQ:       EQUALS,
	token.NOT_EQ:   EQUALS,
	token.LT:       LESSGREATER,
	token.GT:       LESSGREATER,
	token.LE:       LESSGREATER,
	token.GE:       LESSGREATER,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
	token.DOT:      POSTFIX,
	token.LBRACKET: POSTFIX,
}

var builtins = map[string]bool{
	"sum":      true,
	"count":    true,
	"min":      true,
	"max":      true,
	"distinct": true,
	"head":     true,
	"sort":     true,
	"project":  true,
}

type Parser struct {
	l   *lexer.Lexer
	ctx *pipeline.Context

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(l *lexer.Lexer, ctx *pipeline.Context) *Parser {
	p := &Parser{l: l, ctx: ctx}

	p.prefixParseFns = map[token.TokenType]prefixParseFn{
		token.IDENT:  p.parseIdentifier,
		token.INT:    p.parseIntegerLiteral,
		token.FLOAT:  p.parseFloatLiteral,
		token.STRING: p.parseStringLiteral,
		token.TRUE:   p.parseBoolean,
		token.FALSE:  p.parseBoolean,
		token.LPAREN: p.parseGrouped,
		token.MINUS:  p.parseNegation,
	}
	p.infixParseFns = map[token.TokenType]infixParseFn{
		token.PLUS:     p.parseInfix,
		token.MINUS:    p.parseInfix,
		token.ASTERISK: p.parseInfix,
		token.SLASH:    p.parseInfix,
		token.PERCENT:  p.parseInfix,
		token.LT:       p.parseInfix,
		token.GT:       p.parseInfix,
		token.LE:       p.parseInfix,
		token.GE:       p.parseInfix,
		token.EQ:       p.parseInfix,
		token.NOT_EQ:   p.parseInfix,
		token.AND:      p.parseInfix,
		token.OR:       p.parseInfix,
		token.DOT:      p.parseFieldAccess,
		token.LBRACKET: p.parseFilter,
	}

	p.nextToken()
	p.nextToken()
	return p
}

// ParseQuery parses one complete expression and expects end of input.
func (p *Parser) ParseQuery() *expr.Node {
	e := p.parseExpression(LOWEST)
	if e == nil {
		return nil
	}
	if !p.peekTokenIs(token.EOF) {
		p.errorf(diagnostics.ErrP001, p.peekToken, "unexpected %q after expression", p.peekToken.Lexeme)
		return nil
	}
	return e
}

func (p *Parser) parseExpression(precedence int) *expr.Node {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.errorf(diagnostics.ErrP001, p.curToken, "unexpected %q", p.curToken.Lexeme)
		return nil
	}
	left := prefix()

	for left != nil && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

func (p *Parser) parseIdentifier() *expr.Node {
	name := p.curToken.Lexeme
	if builtins[name] && p.peekTokenIs(token.LPAREN) {
		return p.parseCall(name)
	}
	sym, ok := p.ctx.Symbols[name]
	if !ok {
		p.errorf(diagnostics.ErrP002, p.curToken, "unknown source %q", name)
		return nil
	}
	return sym
}

func (p *Parser) parseIntegerLiteral() *expr.Node {
	n, err := strconv.ParseInt(p.curToken.Lexeme, 10, 64)
	if err != nil {
		p.errorf(diagnostics.ErrP001, p.curToken, "bad integer %q", p.curToken.Lexeme)
		return nil
	}
	return expr.Literal(n)
}

func (p *Parser) parseFloatLiteral() *expr.Node {
	f, err := strconv.ParseFloat(p.curToken.Lexeme, 64)
	if err != nil {
		p.errorf(diagnostics.ErrP001, p.curToken, "bad float %q", p.curToken.Lexeme)
		return nil
	}
	return expr.Literal(f)
}

func (p *Parser) parseStringLiteral() *expr.Node {
	return expr.Literal(p.curToken.Lexeme)
}

func (p *Parser) parseBoolean() *expr.Node {
	return expr.Literal(p.curTokenIs(token.TRUE))
}

func (p *Parser) parseGrouped() *expr.Node {
	p.nextToken()
	e := p.parseExpression(LOWEST)
	if e == nil || !p.expectPeek(token.RPAREN) {
		return nil
	}
	return e
}

func (p *Parser) parseNegation() *expr.Node {
	tok := p.curToken
	p.nextToken()
	switch p.curToken.Type {
	case token.INT:
		n, err := strconv.ParseInt(p.curToken.Lexeme, 10, 64)
		if err != nil {
			p.errorf(diagnostics.ErrP001, p.curToken, "bad integer %q", p.curToken.Lexeme)
			return nil
		}
		return expr.Literal(-n)
	case token.FLOAT:
		f, err := strconv.ParseFloat(p.curToken.Lexeme, 64)
		if err != nil {
			p.errorf(diagnostics.ErrP001, p.curToken, "bad float %q", p.curToken.Lexeme)
			return nil
		}
		return expr.Literal(-f)
	}
	p.errorf(diagnostics.ErrP001, tok, "minus needs a numeric literal")
	return nil
}

func (p *Parser) parseInfix(left *expr.Node) *expr.Node {
	op := p.curToken.Lexeme
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil
	}
	return expr.BinOp(op, left, right)
}

func (p *Parser) parseFieldAccess(left *expr.Node) *expr.Node {
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	name := p.curToken.Lexeme
	if fields := left.Shape().FieldNames(); fields != nil {
		if _, ok := left.Shape().Field(name); !ok {
			p.errorf(diagnostics.ErrP003, p.curToken, "no field %q in %s", name, left.Shape())
			return nil
		}
	}
	return expr.Field(left, name)
}

func (p *Parser) parseFilter(left *expr.Node) *expr.Node {
	p.nextToken()
	pred := p.parseExpression(LOWEST)
	if pred == nil || !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return expr.Filter(left, pred)
}

func (p *Parser) parseCall(name string) *expr.Node {
	callTok := p.curToken
	p.nextToken() // (
	p.nextToken()
	arg := p.parseExpression(LOWEST)
	if arg == nil {
		return nil
	}
	switch name {
	case "sum", "count", "min", "max":
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		return expr.Reduce(name, arg)

	case "distinct":
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		return expr.Distinct(arg)

	case "head":
		if !p.expectPeek(token.COMMA) || !p.expectPeek(token.INT) {
			return nil
		}
		n, err := strconv.ParseInt(p.curToken.Lexeme, 10, 64)
		if err != nil {
			p.errorf(diagnostics.ErrP003, p.curToken, "bad count %q", p.curToken.Lexeme)
			return nil
		}
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		return expr.Head(arg, n)

	case "sort":
		if !p.expectPeek(token.COMMA) {
			return nil
		}
		field, ok := p.parseFieldName()
		if !ok {
			return nil
		}
		ascending := true
		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			switch p.curToken.Lexeme {
			case "asc":
				ascending = true
			case "desc":
				ascending = false
			default:
				p.errorf(diagnostics.ErrP003, p.curToken, "sort direction must be asc or desc, got %q", p.curToken.Lexeme)
				return nil
			}
		}
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		return expr.Sort(arg, field, ascending)

	case "project":
		var fields []string
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			field, ok := p.parseFieldName()
			if !ok {
				return nil
			}
			fields = append(fields, field)
		}
		if len(fields) == 0 {
			p.errorf(diagnostics.ErrP003, callTok, "project needs at least one field")
			return nil
		}
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		return expr.Project(arg, fields...)
	}
	p.errorf(diagnostics.ErrP003, callTok, "unknown function %q", name)
	return nil
}

// parseFieldName accepts a bare identifier or a quoted string as a field
// argument, advancing onto it.
func (p *Parser) parseFieldName() (string, bool) {
	if p.peekTokenIs(token.IDENT) || p.peekTokenIs(token.STRING) {
		p.nextToken()
		return p.curToken.Lexeme, true
	}
	p.errorf(diagnostics.ErrP001, p.peekToken, "expected field name, got %q", p.peekToken.Lexeme)
	return "", false
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(tt token.TokenType) bool  { return p.curToken.Type == tt }
func (p *Parser) peekTokenIs(tt token.TokenType) bool { return p.peekToken.Type == tt }

func (p *Parser) expectPeek(tt token.TokenType) bool {
	if p.peekTokenIs(tt) {
		p.nextToken()
		return true
	}
	p.errorf(diagnostics.ErrP001, p.peekToken, "expected %q, got %q", string(tt), p.peekToken.Lexeme)
	return false
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) errorf(code diagnostics.Code, tok token.Token, format string, a ...any) {
	p.ctx.Errors = append(p.ctx.Errors, diagnostics.NewError(code, tok, fmt.Sprintf(format, a...)))
}
