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

// Package workerpool implements a fixed-size worker pool draining a
// bounded three-priority queue (HIGH drains before NORMAL before LOW,
// FIFO within a priority). The queue itself is a container/heap keyed on
// (priority, sequence) so FIFO-within-priority falls out of the
// sequence tiebreak; golang.org/x/sync/errgroup supervises the worker
// goroutines and Destroy's drain handshake the way the teacher uses
// errgroup to supervise its own background loops.
package workerpool

import (
	"container/heap"
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/sabouaram/netlinkmon/errors"
)

const (
	errQueueCapacity = errors.MinPkgWorkerPool + iota
)

// Priority is the submission priority; higher values drain first.
type Priority uint8

const (
	Low Priority = iota
	Normal
	High
)

// Task is a unit of work submitted to the pool.
type Task func()

type item struct {
	priority Priority
	seq      uint64
	task     Task
}

// taskHeap is a max-heap on (priority, then lower seq first) so that
// within a priority, the earliest-submitted task pops first.
type taskHeap []item

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)        { *h = append(*h, x.(item)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// Stats is a point-in-time snapshot of pool activity counters.
type Stats struct {
	Submitted uint64
	Completed uint64
	Rejected  uint64
}

// Pool is a fixed-worker, bounded-priority-queue thread pool. Construct
// with New; the pool must be Destroyed exactly once.
type Pool struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    taskHeap
	capacity int
	nextSeq  uint64
	closed   bool

	busyWorkers int

	submitted uint64
	completed uint64
	rejected  uint64

	group *errgroup.Group
}

// New starts a Pool with workers worker goroutines (runtime.NumCPU() if
// workers <= 0) draining a queue bounded to capacity pending tasks.
func New(workers, capacity int) (*Pool, error) {
	if capacity <= 0 {
		return nil, errors.New(errQueueCapacity, "workerpool: capacity must be > 0")
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	p := &Pool{
		queue:    make(taskHeap, 0, capacity),
		capacity: capacity,
	}
	p.cond = sync.NewCond(&p.mu)

	g, _ := errgroup.WithContext(context.Background())
	p.group = g

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			p.workerLoop()
			return nil
		})
	}

	return p, nil
}

// Submit enqueues task at the given priority. It returns false without
// enqueuing if the queue is at capacity or the pool has been destroyed.
func (p *Pool) Submit(priority Priority, task Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		atomic.AddUint64(&p.rejected, 1)
		return false
	}
	if len(p.queue) >= p.capacity {
		atomic.AddUint64(&p.rejected, 1)
		return false
	}

	heap.Push(&p.queue, item{priority: priority, seq: p.nextSeq, task: task})
	p.nextSeq++
	atomic.AddUint64(&p.submitted, 1)
	p.cond.Signal()
	return true
}

func (p *Pool) workerLoop() {
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 && p.closed {
			p.mu.Unlock()
			return
		}
		it := heap.Pop(&p.queue).(item)
		p.busyWorkers++
		p.mu.Unlock()

		it.task()

		p.mu.Lock()
		p.busyWorkers--
		atomic.AddUint64(&p.completed, 1)
		p.cond.Broadcast()
		p.mu.Unlock()
	}
}

// Wait blocks until the queue is empty and no worker is currently
// executing a task.
func (p *Pool) Wait() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.queue) != 0 || p.busyWorkers != 0 {
		p.cond.Wait()
	}
}

// Destroy stops accepting new submissions. If wait is true, Destroy
// drains the remaining queue before returning; if false, pending tasks
// are discarded and workers exit once their current task finishes.
func (p *Pool) Destroy(wait bool) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	if !wait {
		p.queue = p.queue[:0]
	}
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	if wait {
		p.Wait()
	}

	_ = p.group.Wait()
}

// Stats returns a point-in-time snapshot of the pool's counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: atomic.LoadUint64(&p.submitted),
		Completed: atomic.LoadUint64(&p.completed),
		Rejected:  atomic.LoadUint64(&p.rejected),
	}
}
