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
	"regexp"
)

// OpCode is a bytecode instruction opcode.
type OpCode uint8

const (
	OpPushCompare OpCode = iota // push bool result of comparators[operand]
	OpJumpIfFalse                // if top is false, jump to operand WITHOUT popping (AND short-circuit)
	OpJumpIfTrue                  // if top is true, jump to operand WITHOUT popping (OR short-circuit)
	OpJump
	OpPop
	OpNot // pop, push logical negation
)

// Instruction is one bytecode step; Operand's meaning depends on Op.
type Instruction struct {
	Op      OpCode
	Operand int
}

// comparator is a single comparison node's resolved, compile-time form:
// field/op are fixed, the literal/list/regex are precomputed once so
// evaluation never reparses or recompiles anything.
type comparator struct {
	field string
	op    CompareOp

	litIsInt bool
	litInt   int64
	litStr   string

	list []litValue

	regex *regexp.Regexp
}

type litValue struct {
	isInt bool
	i     int64
	s     string
}

// Program is a compiled filter expression: a flat instruction stream
// plus the resolved comparator table the instructions index into.
type Program struct {
	Instructions []Instruction
	Comparators  []comparator
}

type compiler struct {
	prog *Program
	err  error
}

// Compile lowers an AST into a Program. It returns an error (never
// panics) if a regex literal fails to compile; per spec.md §4.5, a
// regex compile failure marks the filter invalid at compile time.
func Compile(root Node) (*Program, error) {
	c := &compiler{prog: &Program{}}
	c.compileNode(root)
	if c.err != nil {
		return nil, c.err
	}
	return c.prog, nil
}

func (c *compiler) emit(op OpCode, operand int) int {
	c.prog.Instructions = append(c.prog.Instructions, Instruction{Op: op, Operand: operand})
	return len(c.prog.Instructions) - 1
}

func (c *compiler) patchJump(idx int) {
	c.prog.Instructions[idx].Operand = len(c.prog.Instructions)
}

func (c *compiler) compileNode(n Node) {
	if c.err != nil || n == nil {
		return
	}

	switch v := n.(type) {
	case *Comparison:
		c.compileComparison(v)

	case *Logical:
		switch v.Op {
		case TokAnd:
			c.compileNode(v.Left)
			jf := c.emit(OpJumpIfFalse, 0)
			c.emit(OpPop, 0)
			c.compileNode(v.Right)
			c.patchJump(jf)

		case TokOr:
			c.compileNode(v.Left)
			jt := c.emit(OpJumpIfTrue, 0)
			c.emit(OpPop, 0)
			c.compileNode(v.Right)
			c.patchJump(jt)

		case TokNot:
			c.compileNode(v.Right)
			c.emit(OpNot, 0)

		default:
			c.err = fmt.Errorf("filter: unknown logical operator %v", v.Op)
		}

	default:
		c.err = fmt.Errorf("filter: unexpected AST node %T at top level", n)
	}
}

func (c *compiler) compileComparison(cmp *Comparison) {
	comp := comparator{field: cmp.Field, op: cmp.Op}

	switch cmp.Op {
	case OpIn:
		list, ok := cmp.Value.(*ListLit)
		if !ok {
			c.err = fmt.Errorf("filter: IN requires a list literal")
			return
		}
		for _, item := range list.Items {
			switch lv := item.(type) {
			case *IntLit:
				comp.list = append(comp.list, litValue{isInt: true, i: lv.Value})
			case *StringLit:
				comp.list = append(comp.list, litValue{s: lv.Value})
			default:
				c.err = fmt.Errorf("filter: list literal contains non-literal item")
				return
			}
		}

	case OpMatch, OpNMatch:
		sl, ok := cmp.Value.(*StringLit)
		if !ok {
			c.err = fmt.Errorf("filter: =~/!~ requires a string literal pattern")
			return
		}
		re, err := regexp.Compile(sl.Value)
		if err != nil {
			c.err = fmt.Errorf("filter: invalid regex %q: %w", sl.Value, err)
			return
		}
		comp.regex = re

	default:
		switch lv := cmp.Value.(type) {
		case *IntLit:
			comp.litIsInt = true
			comp.litInt = lv.Value
		case *StringLit:
			comp.litStr = lv.Value
		default:
			c.err = fmt.Errorf("filter: comparison requires a scalar literal")
			return
		}
	}

	idx := len(c.prog.Comparators)
	c.prog.Comparators = append(c.prog.Comparators, comp)
	c.emit(OpPushCompare, idx)
}
