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

// Filter is a compiled filter expression handle. A Filter compiled from
// invalid source is still returned (never nil) with Err set and
// Valid() false, per spec.md §4.5: "the handle itself is successfully
// returned so callers can inspect the error."
type Filter struct {
	Source string
	prog   *Program
	Err    error
}

// New parses and compiles src. The returned *Filter is never nil, even
// on failure; check Valid() or Err before Eval.
func New(src string) *Filter {
	f := &Filter{Source: src}

	root, err := Parse(src)
	if err != nil {
		f.Err = err
		return f
	}

	prog, err := Compile(root)
	if err != nil {
		f.Err = err
		return f
	}

	f.prog = prog
	return f
}

// Valid reports whether the filter parsed and compiled successfully.
func (f *Filter) Valid() bool {
	return f.Err == nil && f.prog != nil
}

// Eval evaluates the filter against e. An invalid filter always
// evaluates to false.
func (f *Filter) Eval(e *event.Event) bool {
	if !f.Valid() {
		return false
	}
	return f.prog.Eval(e)
}
