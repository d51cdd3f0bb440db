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
	"math"
	"sync"
	"time"

	"github.com/sabouaram/netlinkmon/event"
)

const ewmaAlpha = 0.1

// AnomalyResult is one anomaly-detector emission (spec.md §4.8).
type AnomalyResult struct {
	EventType event.Type
	ZScore    float64
	Mean      float64
	StdDev    float64
}

type anomalyState struct {
	mean      float64
	variance  float64
	lastSeen  time.Time
	primed    bool
}

// anomalyDetector maintains an exponentially weighted mean/stddev of
// inter-arrival time per event type; a new arrival whose z-score
// exceeds the configured threshold is reported as an anomaly.
type anomalyDetector struct {
	mu        sync.Mutex
	threshold float64
	states    map[event.Type]*anomalyState
	now       func() time.Time
}

func newAnomalyDetector(threshold float64) *anomalyDetector {
	return &anomalyDetector{
		threshold: threshold,
		states:    make(map[event.Type]*anomalyState),
		now:       time.Now,
	}
}

func (d *anomalyDetector) observe(ev *event.Event) (AnomalyResult, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	s, ok := d.states[ev.EventType]
	if !ok {
		s = &anomalyState{lastSeen: now}
		d.states[ev.EventType] = s
		return AnomalyResult{}, false
	}

	interval := now.Sub(s.lastSeen).Seconds()
	s.lastSeen = now

	if !s.primed {
		s.mean = interval
		s.variance = 0
		s.primed = true
		return AnomalyResult{}, false
	}

	stddev := math.Sqrt(s.variance)
	var z float64
	if stddev > 0 {
		z = (interval - s.mean) / stddev
	}

	detected := stddev > 0 && math.Abs(z) >= d.threshold

	// EWMA update happens after detection, per spec.md §4.8.
	delta := interval - s.mean
	s.mean += ewmaAlpha * delta
	s.variance = (1 - ewmaAlpha) * (s.variance + ewmaAlpha*delta*delta)

	if !detected {
		return AnomalyResult{}, false
	}

	return AnomalyResult{
		EventType: ev.EventType,
		ZScore:    z,
		Mean:      s.mean,
		StdDev:    math.Sqrt(s.variance),
	}, true
}
