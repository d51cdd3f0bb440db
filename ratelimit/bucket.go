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

// Package ratelimit implements a per-key token bucket map. golang.org/x/
// time/rate's Limiter is a per-instance bucket with an internal
// monotonic clock and no exposed fractional-token state; this needs a
// map keyed by event type with real-valued refill and an explicit
// "missing key means unlimited" default, so the bucket itself is
// hand-rolled the way the teacher hand-rolls its own small stateful
// primitives (see atomic/value.go) rather than wrapped around x/time/rate.
package ratelimit

import (
	"sync"
	"time"
)

// bucket holds one key's token state. tokens and rate are real-valued so
// fractional refill (e.g. 2.5 events/sec) is exact rather than rounded.
type bucket struct {
	tokens       float64
	rate         float64 // tokens per second
	capacity     float64 // max tokens (burst)
	lastRefillNs int64
}

// Limiter is a thread-safe map of per-key token buckets. A key with no
// registered bucket is always allowed (no limit). The zero value is
// not usable; construct with New.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time // overridable for tests
}

// New creates an empty Limiter.
func New() *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Set upserts the bucket for key with the given refill rate (tokens per
// second) and burst capacity. A newly created bucket starts full; an
// existing bucket has its rate/capacity replaced in place, current
// token count clamped to the new capacity.
func (l *Limiter) Set(key string, rate, burst float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{
			tokens:       burst,
			rate:         rate,
			capacity:     burst,
			lastRefillNs: l.now().UnixNano(),
		}
		return
	}

	b.rate = rate
	b.capacity = burst
	if b.tokens > burst {
		b.tokens = burst
	}
}

// Remove deletes key's bucket, restoring the "no limit" default for it.
func (l *Limiter) Remove(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Allow refills key's bucket for elapsed time since its last refill,
// clamps to capacity, and consumes one token if available. A key with
// no registered bucket always returns true.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		return true
	}

	nowNs := l.now().UnixNano()
	elapsed := float64(nowNs-b.lastRefillNs) / float64(time.Second)
	if elapsed > 0 {
		b.tokens += elapsed * b.rate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.lastRefillNs = nowNs
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Tokens returns the current token count for key, for diagnostics. It
// returns (0, false) if key has no registered bucket.
func (l *Limiter) Tokens(key string) (float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		return 0, false
	}
	return b.tokens, true
}
