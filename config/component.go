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

package config

import (
	"github.com/sabouaram/netlinkmon/errors"
)

// Component is this module's narrowed take on the teacher's
// config/component.go Component interface: Start/Stop/Reload plus
// state introspection and a default-config dump. The teacher's
// interface additionally threads cobra flag registration and
// dependency declaration through Config's central registry, which this
// module does not need (cmd/netlinkmond wires flags directly); the
// lifecycle contract itself (Start → running → Reload* → Stop) is kept.
type Component interface {
	// Start applies cfg and begins the component's background work, if
	// any.
	Start(cfg *Snapshot) errors.Error

	// Reload applies a new Snapshot to an already-started component.
	Reload(cfg *Snapshot) errors.Error

	// Stop cleanly stops the component.
	Stop()

	// IsStarted reports whether Start has been called without a
	// matching Stop.
	IsStarted() bool

	// DefaultConfig returns the default configuration for this
	// component rendered as indented YAML.
	DefaultConfig(indent string) []byte
}
