/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package filter

import "fmt"

// parser is a recursive-descent parser over the lexer's token stream.
// Precedence, lowest to highest: OR, AND, NOT, comparison, primary.
type parser struct {
	lex *lexer
	cur Token
	err *ParseError
}

func newParser(src string) *parser {
	p := &parser{lex: newLexer(src)}
	p.advance()
	return p
}

func (p *parser) advance() {
	if p.err != nil {
		return
	}
	tok, err := p.lex.next()
	if err != nil {
		p.err = err
		p.cur = Token{Kind: TokEOF}
		return
	}
	p.cur = tok
}

func (p *parser) fail(format string, args ...any) {
	if p.err != nil {
		return
	}
	p.err = &ParseError{
		Message: fmt.Sprintf(format, args...),
		Pos:     p.cur.Pos,
		Line:    p.cur.Line,
		Col:     p.cur.Col,
	}
}

func (p *parser) expect(kind TokenKind) Token {
	if p.cur.Kind != kind {
		p.fail("expected %s, got %s", kind, p.cur.Kind)
		return Token{}
	}
	tok := p.cur
	p.advance()
	return tok
}

// Parse parses src into an AST. On failure the returned root may be nil
// or partial, and the returned error is a *ParseError.
func Parse(src string) (Node, error) {
	p := newParser(src)
	root := p.parseOr()
	if p.err == nil && p.cur.Kind != TokEOF {
		p.fail("unexpected trailing token %s", p.cur.Kind)
	}
	if p.err != nil {
		return root, p.err
	}
	return root, nil
}

func (p *parser) parseOr() Node {
	left := p.parseAnd()
	for p.err == nil && p.cur.Kind == TokOr {
		p.advance()
		right := p.parseAnd()
		left = &Logical{Op: TokOr, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseAnd() Node {
	left := p.parseNot()
	for p.err == nil && p.cur.Kind == TokAnd {
		p.advance()
		right := p.parseNot()
		left = &Logical{Op: TokAnd, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseNot() Node {
	if p.cur.Kind == TokNot {
		p.advance()
		operand := p.parseNot()
		return &Logical{Op: TokNot, Right: operand}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() Node {
	if p.err != nil {
		return nil
	}

	if p.cur.Kind == TokLParen {
		p.advance()
		inner := p.parseOr()
		p.expect(TokRParen)
		return inner
	}

	return p.parseComparison()
}

func (p *parser) parseComparison() Node {
	fieldTok := p.expect(TokIdent)
	if p.err != nil {
		return nil
	}
	if !IsKnownField(fieldTok.Text) {
		p.err = &ParseError{
			Message: fmt.Sprintf("unknown field %q", fieldTok.Text),
			Pos:     fieldTok.Pos, Line: fieldTok.Line, Col: fieldTok.Col,
		}
		return nil
	}

	op, opOk := p.parseCompareOp()
	if !opOk {
		return nil
	}

	var value Node
	if op == OpIn {
		value = p.parseListLit()
	} else {
		value = p.parseLiteral()
	}
	if p.err != nil {
		return nil
	}

	return &Comparison{Field: fieldTok.Text, Op: op, Value: value}
}

func (p *parser) parseCompareOp() (CompareOp, bool) {
	switch p.cur.Kind {
	case TokEq:
		p.advance()
		return OpEq, true
	case TokNe:
		p.advance()
		return OpNe, true
	case TokLt:
		p.advance()
		return OpLt, true
	case TokGt:
		p.advance()
		return OpGt, true
	case TokLe:
		p.advance()
		return OpLe, true
	case TokGe:
		p.advance()
		return OpGe, true
	case TokMatch:
		p.advance()
		return OpMatch, true
	case TokNMatch:
		p.advance()
		return OpNMatch, true
	case TokIn:
		p.advance()
		return OpIn, true
	default:
		p.fail("expected comparison operator, got %s", p.cur.Kind)
		return 0, false
	}
}

func (p *parser) parseLiteral() Node {
	switch p.cur.Kind {
	case TokInt:
		v := p.cur.IntVal
		p.advance()
		return &IntLit{Value: v}
	case TokString:
		v := p.cur.Text
		p.advance()
		return &StringLit{Value: v}
	default:
		p.fail("expected literal, got %s", p.cur.Kind)
		return nil
	}
}

func (p *parser) parseListLit() Node {
	if p.err != nil {
		return nil
	}
	p.expect(TokLBracket)
	if p.err != nil {
		return nil
	}

	var items []Node
	if p.cur.Kind != TokRBracket {
		items = append(items, p.parseLiteral())
		for p.err == nil && p.cur.Kind == TokComma {
			p.advance()
			items = append(items, p.parseLiteral())
		}
	}
	p.expect(TokRBracket)
	if p.err != nil {
		return nil
	}
	return &ListLit{Items: items}
}
