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

// Package retention runs the background cleanup cycle (spec.md §4.14):
// age-based deletion, count-based deletion, and size-based deletion
// followed by a vacuum, against a narrow Store interface so this
// package has no import-time dependency on eventdb's driver stack
// (eventdb.DB satisfies Store without referencing this package, the
// same interface-narrowing idiom storage.go uses). The state machine
// (Created -> Stopped -> Running <-> Stopped -> Destroyed) is enforced
// with a small explicit state field rather than a generic FSM library,
// since the pack carries no state-machine dependency to ground one on.
// The interval-driven loop is supervised by golang.org/x/sync/errgroup,
// the same shutdown handshake dispatcher.Processor uses for its own
// background goroutine.
package retention

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Store is the subset of eventdb.DB the retention policy drives.
type Store interface {
	DeleteBefore(ts int64) (int64, error)
	DeleteOldest(keepCount int64) (int64, error)
	Count() (int64, error)
	Vacuum() error
}

// Config bounds one cleanup cycle (spec.md §4.14).
type Config struct {
	MaxAgeS         int64
	MaxEvents       int64
	MaxDBSizeMB     int64
	CleanupInterval time.Duration
	BatchDeleteSize int64
	CleanupOnStart  bool
}

type state uint8

const (
	stateCreated state = iota
	stateStopped
	stateRunning
	stateDestroyed
)

// Stats is a point-in-time snapshot of cleanup activity (spec.md §4.14).
type Stats struct {
	TotalCleanups      uint64
	TotalDeleted       uint64
	LastCleanupTS      int64
	LastDeletedCount   int64
	CurrentEventCount  int64
	CurrentDBSizeBytes int64
}

// SizeReporter optionally reports byte size for the size-based cleanup
// step; eventdb.DB.DBSizeBytes() supplies this beyond the narrow Store
// interface.
type SizeReporter interface {
	DBSizeBytes() (int64, error)
}

// Policy is the retention background loop. Construct with New; call
// Start to begin the interval-driven cycle, Stop to pause it, Destroy
// to release it permanently.
type Policy struct {
	cfg   Config
	store Store
	sizer SizeReporter
	now   func() time.Time

	mu    sync.Mutex
	st    state
	stats Stats

	stopCh chan struct{}
	group  *errgroup.Group
}

// New constructs a Policy in the Created state.
func New(cfg Config, store Store, sizer SizeReporter) *Policy {
	return &Policy{
		cfg:   cfg,
		store: store,
		sizer: sizer,
		now:   time.Now,
		st:    stateCreated,
	}
}

// Start transitions Created/Stopped -> Running and launches the
// interval-driven cleanup loop. It is a no-op if already Running.
func (p *Policy) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.st == stateRunning || p.st == stateDestroyed {
		return
	}
	if p.st == stateCreated && p.cfg.CleanupOnStart {
		p.runCycleLocked()
	}
	p.st = stateRunning
	p.stopCh = make(chan struct{})
	g, _ := errgroup.WithContext(context.Background())
	p.group = g
	stopCh := p.stopCh
	g.Go(func() error {
		p.loop(stopCh)
		return nil
	})
}

func (p *Policy) loop(stopCh chan struct{}) {
	interval := p.cfg.CleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			p.mu.Lock()
			p.runCycleLocked()
			p.mu.Unlock()
		}
	}
}

// Stop transitions Running -> Stopped, halting the background loop
// without releasing resources. It is a no-op if not Running.
func (p *Policy) Stop() {
	p.mu.Lock()
	if p.st != stateRunning {
		p.mu.Unlock()
		return
	}
	p.st = stateStopped
	stopCh := p.stopCh
	group := p.group
	p.mu.Unlock()

	close(stopCh)
	group.Wait()
}

// Destroy stops the loop (if running) and transitions to Destroyed.
// A destroyed Policy cannot be Started again.
func (p *Policy) Destroy() {
	p.Stop()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.st = stateDestroyed
}

// RunCycle runs one cleanup cycle synchronously, outside the
// interval-driven loop (used by manual/CLI-triggered cleanup).
func (p *Policy) RunCycle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runCycleLocked()
}

func (p *Policy) runCycleLocked() {
	var deleted int64

	if p.cfg.MaxAgeS > 0 {
		cutoff := p.now().Unix() - p.cfg.MaxAgeS
		n, err := p.store.DeleteBefore(cutoff)
		if err == nil {
			deleted += n
		}
	}

	total, err := p.store.Count()
	if err == nil && p.cfg.MaxEvents > 0 && total > p.cfg.MaxEvents {
		remaining := total - p.cfg.MaxEvents
		batch := p.cfg.BatchDeleteSize
		if batch <= 0 {
			batch = remaining
		}
		for remaining > 0 {
			chunk := batch
			if chunk > remaining {
				chunk = remaining
			}
			keep, dErr := p.store.Count()
			if dErr != nil {
				break
			}
			n, dErr := p.store.DeleteOldest(keep - chunk)
			if dErr != nil {
				break
			}
			deleted += n
			remaining -= chunk
		}
	}

	if p.sizer != nil && p.cfg.MaxDBSizeMB > 0 {
		sizeBytes, sErr := p.sizer.DBSizeBytes()
		if sErr == nil && sizeBytes > p.cfg.MaxDBSizeMB*1024*1024 {
			total, cErr := p.store.Count()
			if cErr == nil {
				keep := int64(float64(total) * 0.9)
				n, dErr := p.store.DeleteOldest(keep)
				if dErr == nil {
					deleted += n
					p.store.Vacuum()
				}
			}
		}
	}

	p.stats.TotalCleanups++
	p.stats.TotalDeleted += uint64(deleted)
	p.stats.LastCleanupTS = p.now().Unix()
	p.stats.LastDeletedCount = deleted
	if total, err := p.store.Count(); err == nil {
		p.stats.CurrentEventCount = total
	}
	if p.sizer != nil {
		if sz, err := p.sizer.DBSizeBytes(); err == nil {
			p.stats.CurrentDBSizeBytes = sz
		}
	}
}

// Stats returns a point-in-time snapshot of cleanup activity.
func (p *Policy) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
