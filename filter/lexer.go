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

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError is the structured failure the parser/lexer records. A
// filter compiled from invalid text is still returned to the caller
// (spec: "the handle itself is successfully returned") with Err set.
type ParseError struct {
	Message string
	Pos     int
	Line    int
	Col     int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (line %d, col %d)", e.Message, e.Line, e.Col)
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

func (l *lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		b := l.peekByte()
		if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
			l.advance()
			continue
		}
		break
	}
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9') || b == '.'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// next returns the next token, or a *ParseError describing a lexical
// failure (unterminated string literal, invalid integer literal, or
// unexpected character).
func (l *lexer) next() (Token, *ParseError) {
	l.skipSpace()

	startPos, startLine, startCol := l.pos, l.line, l.col

	if l.pos >= len(l.src) {
		return Token{Kind: TokEOF, Pos: startPos, Line: startLine, Col: startCol}, nil
	}

	b := l.peekByte()

	switch {
	case isIdentStart(b):
		for l.pos < len(l.src) && isIdentCont(l.peekByte()) {
			l.advance()
		}
		text := l.src[startPos:l.pos]
		if kind, ok := keywords[strings.ToUpper(text)]; ok {
			return Token{Kind: kind, Text: text, Pos: startPos, Line: startLine, Col: startCol}, nil
		}
		return Token{Kind: TokIdent, Text: text, Pos: startPos, Line: startLine, Col: startCol}, nil

	case isDigit(b) || (b == '-' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
		if b == '-' {
			l.advance()
		}
		base := 10
		if l.peekByte() == '0' && l.pos+1 < len(l.src) && (l.src[l.pos+1] == 'x' || l.src[l.pos+1] == 'X') {
			base = 0 // hex literal (spec: "decimal or hex (0x...)"); ParseInt reads the 0x prefix itself
			l.advance() // '0'
			l.advance() // 'x'/'X'
			for l.pos < len(l.src) && isHexDigit(l.peekByte()) {
				l.advance()
			}
		} else {
			for l.pos < len(l.src) && isDigit(l.peekByte()) {
				l.advance()
			}
		}
		text := l.src[startPos:l.pos]
		n, err := strconv.ParseInt(text, base, 64)
		if err != nil {
			return Token{}, &ParseError{Message: fmt.Sprintf("invalid integer literal %q", text), Pos: startPos, Line: startLine, Col: startCol}
		}
		return Token{Kind: TokInt, Text: text, IntVal: n, Pos: startPos, Line: startLine, Col: startCol}, nil

	case b == '"':
		l.advance()
		var sb strings.Builder
		closed := false
		for l.pos < len(l.src) {
			c := l.advance()
			if c == '"' {
				closed = true
				break
			}
			if c == '\\' && l.pos < len(l.src) {
				switch esc := l.advance(); esc {
				case 'n':
					sb.WriteByte('\n')
				case 'r':
					sb.WriteByte('\r')
				case 't':
					sb.WriteByte('\t')
				default:
					sb.WriteByte(esc)
				}
				continue
			}
			sb.WriteByte(c)
		}
		if !closed {
			return Token{}, &ParseError{Message: "unterminated string literal", Pos: startPos, Line: startLine, Col: startCol}
		}
		return Token{Kind: TokString, Text: sb.String(), Pos: startPos, Line: startLine, Col: startCol}, nil

	case b == '(':
		l.advance()
		return Token{Kind: TokLParen, Pos: startPos, Line: startLine, Col: startCol}, nil
	case b == ')':
		l.advance()
		return Token{Kind: TokRParen, Pos: startPos, Line: startLine, Col: startCol}, nil
	case b == '[':
		l.advance()
		return Token{Kind: TokLBracket, Pos: startPos, Line: startLine, Col: startCol}, nil
	case b == ']':
		l.advance()
		return Token{Kind: TokRBracket, Pos: startPos, Line: startLine, Col: startCol}, nil
	case b == ',':
		l.advance()
		return Token{Kind: TokComma, Pos: startPos, Line: startLine, Col: startCol}, nil

	case b == '=':
		l.advance()
		if l.peekByte() == '=' {
			l.advance()
			return Token{Kind: TokEq, Pos: startPos, Line: startLine, Col: startCol}, nil
		}
		if l.peekByte() == '~' {
			l.advance()
			return Token{Kind: TokMatch, Pos: startPos, Line: startLine, Col: startCol}, nil
		}
		return Token{}, &ParseError{Message: "unexpected character '='", Pos: startPos, Line: startLine, Col: startCol}

	case b == '!':
		l.advance()
		if l.peekByte() == '=' {
			l.advance()
			return Token{Kind: TokNe, Pos: startPos, Line: startLine, Col: startCol}, nil
		}
		if l.peekByte() == '~' {
			l.advance()
			return Token{Kind: TokNMatch, Pos: startPos, Line: startLine, Col: startCol}, nil
		}
		return Token{}, &ParseError{Message: "unexpected character '!'", Pos: startPos, Line: startLine, Col: startCol}

	case b == '<':
		l.advance()
		if l.peekByte() == '=' {
			l.advance()
			return Token{Kind: TokLe, Pos: startPos, Line: startLine, Col: startCol}, nil
		}
		return Token{Kind: TokLt, Pos: startPos, Line: startLine, Col: startCol}, nil

	case b == '>':
		l.advance()
		if l.peekByte() == '=' {
			l.advance()
			return Token{Kind: TokGe, Pos: startPos, Line: startLine, Col: startCol}, nil
		}
		return Token{Kind: TokGt, Pos: startPos, Line: startLine, Col: startCol}, nil

	default:
		l.advance()
		return Token{}, &ParseError{Message: fmt.Sprintf("unexpected character %q", b), Pos: startPos, Line: startLine, Col: startCol}
	}
}
