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

// Package filter implements the filter expression language: a
// hand-written lexer, a recursive-descent parser producing an AST, a
// stack-machine bytecode compiler, and a deterministic evaluator. The
// recursive-descent shape mirrors the flag/argument parsers throughout
// the example corpus's cobra-based CLIs; nothing here depends on a
// parser-generator or combinator library since the grammar is small and
// fixed.
package filter

// TokenKind enumerates the lexer's token classes.
type TokenKind uint8

const (
	TokEOF TokenKind = iota
	TokIdent
	TokInt
	TokString
	TokLParen
	TokRParen
	TokLBracket
	TokRBracket
	TokComma

	TokAnd
	TokOr
	TokNot
	TokIn

	TokEq
	TokNe
	TokLt
	TokGt
	TokLe
	TokGe
	TokMatch
	TokNMatch
)

var tokenNames = map[TokenKind]string{
	TokEOF:      "EOF",
	TokIdent:    "identifier",
	TokInt:      "integer",
	TokString:   "string",
	TokLParen:   "(",
	TokRParen:   ")",
	TokLBracket: "[",
	TokRBracket: "]",
	TokComma:    ",",
	TokAnd:      "AND",
	TokOr:       "OR",
	TokNot:      "NOT",
	TokIn:       "IN",
	TokEq:       "==",
	TokNe:       "!=",
	TokLt:       "<",
	TokGt:       ">",
	TokLe:       "<=",
	TokGe:       ">=",
	TokMatch:    "=~",
	TokNMatch:   "!~",
}

func (k TokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	return "unknown"
}

// Token is one lexed unit, with its source position for error reporting.
type Token struct {
	Kind   TokenKind
	Text   string
	IntVal int64
	Pos    int // 0-based byte offset into the source
	Line   int // 1-based
	Col    int // 1-based
}

var keywords = map[string]TokenKind{
	"AND": TokAnd,
	"OR":  TokOr,
	"NOT": TokNot,
	"IN":  TokIn,
}
