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

// Package dispatcher wires ring, pool, ratelimit and workerpool into the
// submit/dispatch pipeline (spec.md §4.10). Processor.Submit is the hot
// path callers invoke directly; the dispatcher goroutine it starts is
// the ring's sole consumer, handing each dequeued event to the worker
// pool as a NORMAL-priority task that runs every registered handler.
// The start/stop shape (running flag, join on Stop) mirrors the
// teacher's dropped runner/startStop contract (tests only in the pack;
// re-derived here against the documented Create->Start->Stop lifecycle
// since no source file survived the trim — see DESIGN.md). The
// dispatcher goroutine is supervised by golang.org/x/sync/errgroup, the
// same way workerpool.Pool supervises its own worker goroutines.
package dispatcher

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sabouaram/netlinkmon/errors"
	"github.com/sabouaram/netlinkmon/event"
	"github.com/sabouaram/netlinkmon/pool"
	"github.com/sabouaram/netlinkmon/ratelimit"
	"github.com/sabouaram/netlinkmon/ring"
	"github.com/sabouaram/netlinkmon/workerpool"
)

const (
	errBadConfig = errors.MinPkgDispatcher + iota
)

// retryBackoff is how long the dispatcher goroutine sleeps after a
// failed submit-to-workerpool attempt (work queue full) before retrying.
const retryBackoff = 2 * time.Millisecond

// idleBackoff is how long the dispatcher goroutine sleeps when the ring
// is empty, to avoid a busy spin.
const idleBackoff = 1 * time.Millisecond

// Config bounds the Processor's resources (spec.md §4.10 construction).
type Config struct {
	RingBufferSize   int
	ThreadPoolSize   int
	WorkQueueSize    int
	RateLimit        float64
	RateBurst        float64
	ObjectPoolSize   int
	EnableObjectPool bool
}

// Handler processes one event. It must not block longer than a few
// milliseconds; long-running work belongs on a separate goroutine the
// handler itself starts.
type Handler func(ev *event.Event)

// Stats is a point-in-time snapshot of Processor activity counters.
type Stats struct {
	Submitted   uint64
	Processed   uint64
	Dropped     uint64
	RateLimited uint64
	QueueSize   int
	PoolUsage   int
}

type handlerEntry struct {
	id int
	fn Handler
}

// Processor is the event dispatcher: a ring buffer fed by Submit, a
// dispatcher goroutine that drains it into a worker pool, and a
// registry of handlers invoked for every event.
type Processor struct {
	cfg Config

	ring    *ring.Ring
	pool    *pool.Pool
	limiter *ratelimit.Limiter
	workers *workerpool.Pool

	seq uint64

	submitted   uint64
	processed   uint64
	dropped     uint64
	rateLimited uint64

	handlersMu    sync.RWMutex
	handlers      []handlerEntry
	nextHandlerID int

	runningMu sync.Mutex
	running   bool
	stopCh    chan struct{}
	group     *errgroup.Group
}

// New constructs a Processor. It does not start the dispatcher
// goroutine; call Start for that.
func New(cfg Config) (*Processor, error) {
	if cfg.RingBufferSize <= 0 || cfg.ThreadPoolSize <= 0 || cfg.WorkQueueSize <= 0 {
		return nil, errors.New(errBadConfig, "dispatcher: ring_buffer_size, thread_pool_size and work_queue_size must be > 0")
	}

	r, err := ring.New(cfg.RingBufferSize)
	if err != nil {
		return nil, errors.New(errBadConfig, "dispatcher: ring construction failed", err)
	}
	wp, err := workerpool.New(cfg.ThreadPoolSize, cfg.WorkQueueSize)
	if err != nil {
		return nil, errors.New(errBadConfig, "dispatcher: workerpool construction failed", err)
	}

	var p *pool.Pool
	if cfg.EnableObjectPool {
		p = pool.New(cfg.ObjectPoolSize)
	}

	limiter := ratelimit.New()

	return &Processor{
		cfg:     cfg,
		ring:    r,
		pool:    p,
		limiter: limiter,
		workers: wp,
	}, nil
}

// SetRateLimit configures (or clears, with rate<=0) the bucket for
// eventType. Missing/cleared keys are unlimited (spec.md §4.3).
func (p *Processor) SetRateLimit(eventType event.Type, rate, burst float64) {
	if rate <= 0 {
		p.limiter.Remove(eventType.String())
		return
	}
	p.limiter.Set(eventType.String(), rate, burst)
}

// RegisterHandler appends fn to the handler list and returns its id.
// Handlers run in registration order for every dispatched event.
func (p *Processor) RegisterHandler(fn Handler) int {
	p.handlersMu.Lock()
	defer p.handlersMu.Unlock()
	id := p.nextHandlerID
	p.nextHandlerID++
	p.handlers = append(p.handlers, handlerEntry{id: id, fn: fn})
	return id
}

// UnregisterHandler removes the handler with the given id, if any.
func (p *Processor) UnregisterHandler(id int) {
	p.handlersMu.Lock()
	defer p.handlersMu.Unlock()
	for i, h := range p.handlers {
		if h.id == id {
			p.handlers = append(p.handlers[:i], p.handlers[i+1:]...)
			return
		}
	}
}

// Submit runs the full submit path (spec.md §4.10): rate-limit check,
// pool allocation, deep copy, sequence assignment, ring enqueue. It
// returns false (and increments the relevant drop counter) at the first
// failing step.
func (p *Processor) Submit(ev *event.Event) bool {
	if p.limiter != nil {
		if !p.limiter.Allow(ev.EventType.String()) {
			atomic.AddUint64(&p.rateLimited, 1)
			return false
		}
	}

	var rec *event.Event
	if p.pool != nil {
		rec = p.pool.Alloc()
	} else {
		rec = &event.Event{}
	}

	rec.Timestamp = ev.Timestamp
	rec.EventType = ev.EventType
	rec.MessageType = ev.MessageType
	rec.Interface = ev.Interface
	rec.Namespace = ev.Namespace
	rec.ProtocolFamily = ev.ProtocolFamily
	rec.Payload = ev.Payload.Clone()
	if ev.Raw != nil {
		rec.Raw = make([]byte, len(ev.Raw))
		copy(rec.Raw, ev.Raw)
	} else {
		rec.Raw = nil
	}

	rec.Sequence = atomic.AddUint64(&p.seq, 1)

	if !p.ring.Enqueue(rec) {
		if p.pool != nil {
			p.pool.Free(rec)
		}
		atomic.AddUint64(&p.dropped, 1)
		return false
	}

	atomic.AddUint64(&p.submitted, 1)
	return true
}

// Start launches the dispatcher goroutine. Start is a no-op if the
// Processor is already running.
func (p *Processor) Start() {
	p.runningMu.Lock()
	defer p.runningMu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	g, _ := errgroup.WithContext(context.Background())
	p.group = g
	stopCh := p.stopCh
	g.Go(func() error {
		p.dispatchLoop(stopCh)
		return nil
	})
}

func (p *Processor) dispatchLoop(stopCh chan struct{}) {
	for {
		select {
		case <-stopCh:
			return
		default:
		}

		item, ok := p.ring.Dequeue()
		if !ok {
			select {
			case <-stopCh:
				return
			case <-time.After(idleBackoff):
			}
			continue
		}

		ev := item.(*event.Event)
		for {
			submitted := p.workers.Submit(workerpool.Normal, func() {
				p.runHandlers(ev)
			})
			if submitted {
				break
			}
			select {
			case <-stopCh:
				return
			case <-time.After(retryBackoff):
			}
		}
	}
}

func (p *Processor) runHandlers(ev *event.Event) {
	p.handlersMu.RLock()
	handlers := make([]handlerEntry, len(p.handlers))
	copy(handlers, p.handlers)
	p.handlersMu.RUnlock()

	for _, h := range handlers {
		h.fn(ev)
	}

	atomic.AddUint64(&p.processed, 1)
	if p.pool != nil {
		p.pool.Free(ev)
	}
}

// Stop signals the dispatcher goroutine to exit and joins it. If drain
// is true, it then waits for the worker pool to finish all in-flight
// and queued tasks before returning; if false, the worker pool is
// destroyed without waiting and any remaining ring contents are dropped
// and returned to the pool. Records left in the ring are returned to the
// pool in both cases, also when the Processor was never started.
func (p *Processor) Stop(drain bool) {
	p.runningMu.Lock()
	wasRunning := p.running
	if wasRunning {
		p.running = false
		close(p.stopCh)
	}
	group := p.group
	p.runningMu.Unlock()

	if wasRunning {
		group.Wait()
		p.workers.Destroy(drain)
	}

	for {
		item, ok := p.ring.Dequeue()
		if !ok {
			break
		}
		if p.pool != nil {
			p.pool.Free(item.(*event.Event))
		}
	}
}

// Stats returns a point-in-time snapshot of processor counters.
func (p *Processor) Stats() Stats {
	s := Stats{
		Submitted:   atomic.LoadUint64(&p.submitted),
		Processed:   atomic.LoadUint64(&p.processed),
		Dropped:     atomic.LoadUint64(&p.dropped),
		RateLimited: atomic.LoadUint64(&p.rateLimited),
		QueueSize:   p.ring.Size(),
	}
	if p.pool != nil {
		s.PoolUsage = p.pool.Usage()
	}
	return s
}
