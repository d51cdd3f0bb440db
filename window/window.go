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

// Package window implements the sliding time window the correlation,
// pattern, and anomaly detectors scan: a mutex-protected circular
// buffer bounded by both a capacity and a time horizon. There is no
// pack library for a bounded time-ordered ring of domain records, so
// this is hand-rolled over a plain slice and sync.Mutex the way the
// teacher's own small stateful types are.
package window

import (
	"sync"

	"github.com/sabouaram/netlinkmon/event"
)

type slot struct {
	ev    *event.Event
	ts    int64
	valid bool
}

// Window is a fixed-capacity circular buffer of recent events bounded
// by a time horizon. The zero value is not usable; construct with New.
type Window struct {
	mu       sync.Mutex
	buf      []slot
	head     int // oldest valid (or next-to-overwrite) slot
	tail     int // next insertion point
	size     int
	horizonS int64
}

// New creates a Window with capacity slots, expiring entries older than
// horizonSeconds.
func New(capacity int, horizonSeconds int64) *Window {
	if capacity <= 0 {
		capacity = 1
	}
	return &Window{
		buf:      make([]slot, capacity),
		horizonS: horizonSeconds,
	}
}

// Add inserts ev (timestamped ev.Timestamp) at the tail. If the buffer
// is already at capacity, the oldest entry is overwritten and head
// advances.
func (w *Window) Add(ev *event.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf[w.tail] = slot{ev: ev, ts: ev.Timestamp, valid: true}
	if w.size == len(w.buf) {
		w.head = (w.head + 1) % len(w.buf)
	} else {
		w.size++
	}
	w.tail = (w.tail + 1) % len(w.buf)
}

// Expire sweeps from head, invalidating entries whose age relative to
// now exceeds the configured horizon, and returns the count expired.
func (w *Window) Expire(now int64) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	expired := 0
	for w.size > 0 {
		idx := w.head
		if !w.buf[idx].valid || now-w.buf[idx].ts <= w.horizonS {
			break
		}
		w.buf[idx] = slot{}
		w.head = (w.head + 1) % len(w.buf)
		w.size--
		expired++
	}
	return expired
}

// Query scans valid entries in insertion order, appending those
// matching the given (optional, empty-string/TypeUnknown-means-"any")
// criteria to out, until out reaches its capacity; an out with zero
// capacity is not limited. It returns the
// (possibly truncated) slice of borrowed *event.Event references.
func (w *Window) Query(eventType event.Type, iface string, out []*event.Event) []*event.Event {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, n := 0, w.size; i < n; i++ {
		if cap(out) > 0 && len(out) >= cap(out) {
			break
		}
		idx := (w.head + i) % len(w.buf)
		s := w.buf[idx]
		if !s.valid {
			continue
		}
		if eventType != event.TypeUnknown && s.ev.EventType != eventType {
			continue
		}
		if iface != "" && s.ev.Interface != iface {
			continue
		}
		out = append(out, s.ev)
	}
	return out
}

// Count returns the current number of valid entries.
func (w *Window) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}
