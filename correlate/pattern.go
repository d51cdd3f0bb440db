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

package correlate

import (
	"sync"

	"github.com/sabouaram/netlinkmon/event"
)

// PatternResult is one pattern-detector emission (spec.md §4.8).
type PatternResult struct {
	EventType       event.Type
	Count           int
	EventsPerSecond float64
	FirstTS         int64
	LastTS          int64
}

type patternState struct {
	count    int
	firstTS  int64
	lastTS   int64
	reported bool
}

// patternDetector tracks, per event type, a count and first/last
// timestamp within the pattern window, emitting a result once the
// count reaches minFrequency. "Reported" is cleared once the count
// falls back under minFrequency (the window has moved on from the
// burst that triggered the prior emission).
type patternDetector struct {
	mu            sync.Mutex
	minFrequency  int
	horizonS      int64
	states        map[event.Type]*patternState
}

func newPatternDetector(minFrequency int, horizonS int64) *patternDetector {
	return &patternDetector{
		minFrequency: minFrequency,
		horizonS:     horizonS,
		states:       make(map[event.Type]*patternState),
	}
}

func (d *patternDetector) observe(ev *event.Event) (PatternResult, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.states[ev.EventType]
	if !ok {
		s = &patternState{firstTS: ev.Timestamp}
		d.states[ev.EventType] = s
	}

	if d.horizonS > 0 && ev.Timestamp-s.firstTS > d.horizonS {
		// Window has rolled past the prior burst: start a fresh count.
		s.count = 0
		s.firstTS = ev.Timestamp
		s.reported = false
	}

	s.count++
	s.lastTS = ev.Timestamp

	if s.count < d.minFrequency {
		s.reported = false
		return PatternResult{}, false
	}
	if s.reported {
		return PatternResult{}, false
	}

	s.reported = true

	elapsed := s.lastTS - s.firstTS
	var rate float64
	if elapsed > 0 {
		rate = float64(s.count) / float64(elapsed)
	}

	return PatternResult{
		EventType:       ev.EventType,
		Count:           s.count,
		EventsPerSecond: rate,
		FirstTS:         s.firstTS,
		LastTS:          s.lastTS,
	}, true
}
