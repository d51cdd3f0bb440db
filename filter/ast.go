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

// CompareOp enumerates the relational/regex operators a Comparison node
// may carry.
type CompareOp uint8

const (
	OpEq CompareOp = iota
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
	OpMatch
	OpNMatch
	OpIn
)

// Node is the sum type of the filter AST. Each concrete node owns its
// children; the tree never shares subtrees.
type Node interface {
	node()
}

// Comparison is `field OP literal` (or `field IN list`).
type Comparison struct {
	Field string
	Op    CompareOp
	Value Node // *StringLit, *IntLit, or *ListLit (for OpIn)
}

// Logical is a binary AND/OR, or a unary NOT (Right only, Left nil).
type Logical struct {
	Op    TokenKind // TokAnd, TokOr, or TokNot
	Left  Node
	Right Node
}

type FieldRef struct {
	Name string
}

type StringLit struct {
	Value string
}

type IntLit struct {
	Value int64
}

type ListLit struct {
	Items []Node // *StringLit or *IntLit
}

func (*Comparison) node() {}
func (*Logical) node()    {}
func (*FieldRef) node()   {}
func (*StringLit) node()  {}
func (*IntLit) node()     {}
func (*ListLit) node()    {}
