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

import "github.com/sabouaram/netlinkmon/event"

// Eval runs the compiled program against e. It is deterministic and
// side-effect-free: the same program evaluated twice against the same
// event yields the same result.
func (p *Program) Eval(e *event.Event) bool {
	var stack []bool

	for pc := 0; pc < len(p.Instructions); pc++ {
		ins := p.Instructions[pc]
		switch ins.Op {
		case OpPushCompare:
			stack = append(stack, p.evalComparator(&p.Comparators[ins.Operand], e))

		case OpJumpIfFalse:
			if len(stack) > 0 && !stack[len(stack)-1] {
				pc = ins.Operand - 1
			}

		case OpJumpIfTrue:
			if len(stack) > 0 && stack[len(stack)-1] {
				pc = ins.Operand - 1
			}

		case OpJump:
			pc = ins.Operand - 1

		case OpPop:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case OpNot:
			if len(stack) > 0 {
				stack[len(stack)-1] = !stack[len(stack)-1]
			}
		}
	}

	if len(stack) == 0 {
		return false
	}
	return stack[len(stack)-1]
}

func (p *Program) evalComparator(c *comparator, e *event.Event) bool {
	fv := resolveField(e, c.field)
	if !fv.ok {
		// Missing field: NE/NMATCH ask for non-equality/non-match, which a
		// missing field satisfies vacuously; every other operator (EQ, IN,
		// MATCH, ordered comparisons) has nothing to compare against and
		// evaluates false.
		return c.op == OpNe || c.op == OpNMatch
	}

	switch c.op {
	case OpEq:
		return compareEqual(fv, c)
	case OpNe:
		if fv.isInt != c.litIsInt {
			return false
		}
		return !compareEqual(fv, c)
	case OpLt, OpGt, OpLe, OpGe:
		return compareOrdered(fv, c)
	case OpMatch, OpNMatch:
		if fv.isInt {
			// Regex against an integer field: silent false, not an error.
			return false
		}
		matched := c.regex.MatchString(fv.s)
		if c.op == OpNMatch {
			return !matched
		}
		return matched
	case OpIn:
		return compareIn(fv, c)
	default:
		return false
	}
}

func compareEqual(fv fieldValue, c *comparator) bool {
	if fv.isInt != c.litIsInt {
		// Mismatched types at a comparison evaluate to false without raising.
		return false
	}
	if fv.isInt {
		return fv.i == c.litInt
	}
	return fv.s == c.litStr
}

func compareOrdered(fv fieldValue, c *comparator) bool {
	if fv.isInt != c.litIsInt {
		return false
	}
	var cmp int
	if fv.isInt {
		switch {
		case fv.i < c.litInt:
			cmp = -1
		case fv.i > c.litInt:
			cmp = 1
		}
	} else {
		switch {
		case fv.s < c.litStr:
			cmp = -1
		case fv.s > c.litStr:
			cmp = 1
		}
	}

	switch c.op {
	case OpLt:
		return cmp < 0
	case OpGt:
		return cmp > 0
	case OpLe:
		return cmp <= 0
	case OpGe:
		return cmp >= 0
	}
	return false
}

func compareIn(fv fieldValue, c *comparator) bool {
	for _, item := range c.list {
		if item.isInt != fv.isInt {
			continue
		}
		if fv.isInt {
			if item.i == fv.i {
				return true
			}
		} else if item.s == fv.s {
			return true
		}
	}
	return false
}
