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

// Package telemetry scrapes process RSS/VMS and tracks the pipeline's
// hot-path rate/volume counters (spec.md §4.16). Memory is read via
// shirou/gopsutil's process.Process.MemoryInfo(), which on Linux reads
// /proc/[pid]/status the same way the spec's own wording describes;
// gopsutil is grounded on the other_examples Hyperledger Fabric peer
// file that samples a child process's MemoryInfoStat the same way.
package telemetry

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"

	"github.com/sabouaram/netlinkmon/errors"
)

const errProcessLookup = errors.MinPkgTelemetry

// Thresholds bounds the health classifier (spec.md §4.16).
type Thresholds struct {
	MemoryWarningBytes  uint64
	MemoryCriticalBytes uint64
	RateWarningPerSec   float64
	RateCriticalPerSec  float64
	BufferWarningPct    float64
	BufferCriticalPct   float64
	DropRateWarningPct  float64
	DropRateCriticalPct float64
}

// Snapshot is a point-in-time telemetry reading.
type Snapshot struct {
	RSSBytes   uint64
	VMSBytes   uint64
	Allocated  uint64
	Freed      uint64
	Current    uint64
	Peak       uint64
	AllocCount uint64
	FreeCount  uint64

	MessagesPerSec float64
	BufferUsagePct float64
	DropRatePct    float64

	MemoryWarning bool
	MemoryCritical bool
	RateWarning    bool
	RateCritical   bool
	BufferWarning  bool
	BufferCritical bool
	DropsWarning   bool
	DropsCritical  bool
}

// Collector samples process memory and hot-path counters. The zero
// value is not usable; construct with New.
type Collector struct {
	proc       *process.Process
	thresholds Thresholds
	now        func() time.Time

	mu           sync.Mutex
	lastSampleAt time.Time
	lastMessages uint64

	allocated  uint64
	freed      uint64
	allocCount uint64
	freeCount  uint64
	peak       uint64

	messages  uint64
	dropped   uint64
	submitted uint64

	bufferUsagePct float64
}

// New constructs a Collector scraping the current process's own memory.
func New(thresholds Thresholds) (*Collector, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, errors.New(errProcessLookup, fmt.Sprintf("telemetry: cannot look up own process: %v", err))
	}
	return &Collector{
		proc:       p,
		thresholds: thresholds,
		now:        time.Now,
	}, nil
}

// RecordAlloc/RecordFree track the object pool's alloc/free activity
// (spec.md §4.16 "alloc/free counts").
func (c *Collector) RecordAlloc(bytes uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allocated += bytes
	c.allocCount++
	current := c.allocated - c.freed
	if current > c.peak {
		c.peak = current
	}
}

func (c *Collector) RecordFree(bytes uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.freed += bytes
	c.freeCount++
}

// RecordMessage increments the message-rate counter once per processed
// event.
func (c *Collector) RecordMessage() {
	c.mu.Lock()
	c.messages++
	c.mu.Unlock()
}

// RecordSubmission records one submit attempt, dropped reporting
// whether it was dropped, for the drop-rate statistic.
func (c *Collector) RecordSubmission(dropped bool) {
	c.mu.Lock()
	c.submitted++
	if dropped {
		c.dropped++
	}
	c.mu.Unlock()
}

// SetBufferUsagePct records the current socket/ring buffer occupancy as
// a percentage in [0, 100].
func (c *Collector) SetBufferUsagePct(pct float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bufferUsagePct = pct
}

// Sample reads current memory usage and derives the rate/buffer/drop
// statistics since the previous Sample call, then applies the health
// classifier.
func (c *Collector) Sample() (Snapshot, error) {
	mem, err := c.proc.MemoryInfo()
	if err != nil {
		return Snapshot{}, errors.New(errProcessLookup, fmt.Sprintf("telemetry: cannot read memory info: %v", err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var msgsPerSec float64
	if !c.lastSampleAt.IsZero() {
		elapsed := now.Sub(c.lastSampleAt).Seconds()
		if elapsed > 0 {
			msgsPerSec = float64(c.messages-c.lastMessages) / elapsed
		}
	}
	c.lastSampleAt = now
	c.lastMessages = c.messages

	var dropRatePct float64
	if c.submitted > 0 {
		dropRatePct = float64(c.dropped) / float64(c.submitted) * 100
	}

	s := Snapshot{
		RSSBytes:       mem.RSS,
		VMSBytes:       mem.VMS,
		Allocated:      c.allocated,
		Freed:          c.freed,
		Current:        c.allocated - c.freed,
		Peak:           c.peak,
		AllocCount:     c.allocCount,
		FreeCount:      c.freeCount,
		MessagesPerSec: msgsPerSec,
		BufferUsagePct: c.bufferUsagePct,
		DropRatePct:    dropRatePct,
	}

	t := c.thresholds
	s.MemoryWarning = t.MemoryWarningBytes > 0 && s.RSSBytes >= t.MemoryWarningBytes
	s.MemoryCritical = t.MemoryCriticalBytes > 0 && s.RSSBytes >= t.MemoryCriticalBytes
	s.RateWarning = t.RateWarningPerSec > 0 && msgsPerSec >= t.RateWarningPerSec
	s.RateCritical = t.RateCriticalPerSec > 0 && msgsPerSec >= t.RateCriticalPerSec
	s.BufferWarning = t.BufferWarningPct > 0 && s.BufferUsagePct >= t.BufferWarningPct
	s.BufferCritical = t.BufferCriticalPct > 0 && s.BufferUsagePct >= t.BufferCriticalPct
	s.DropsWarning = t.DropRateWarningPct > 0 && dropRatePct >= t.DropRateWarningPct
	s.DropsCritical = t.DropRateCriticalPct > 0 && dropRatePct >= t.DropRateCriticalPct

	return s, nil
}
