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

// Package ring implements the single-producer/single-consumer lock-free
// ring buffer at the heart of the dispatch pipeline. Capacity is rounded
// up to the next power of two so index arithmetic reduces to a bitmask;
// head/tail are published with release-ordered atomic stores so the
// consumer never observes a torn slot. A bitset mirrors slot occupancy
// for the stats/debug snapshot rather than re-deriving it from head/tail
// on every call.
package ring

import (
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"

	"github.com/sabouaram/netlinkmon/errors"
)

const (
	errCapacityZero = errors.MinPkgRing + iota
)

// Stats is an immutable snapshot of a Ring's counters.
type Stats struct {
	Enqueued  uint64
	Dequeued  uint64
	Overflows uint64
	PeakUsage uint64
}

// Ring is a fixed-capacity, power-of-two-sized SPSC queue of opaque
// pointers. The zero value is not usable; construct with New.
//
// Exactly one goroutine may call Enqueue and exactly one goroutine may
// call Dequeue concurrently with it; both may be the same goroutine.
// Stats/Size/IsEmpty/IsFull may be called from any goroutine.
type Ring struct {
	mask uint64
	buf  []any

	head uint64 // next write index, producer-owned
	tail uint64 // next read index, consumer-owned

	enqueued  uint64
	dequeued  uint64
	overflows uint64
	peakUsage uint64

	occupancy *bitset.BitSet
}

// New creates a Ring whose capacity is the next power of two >= capacity.
// capacity must be > 0.
func New(capacity int) (*Ring, error) {
	if capacity <= 0 {
		return nil, errors.New(errCapacityZero, "ring: capacity must be > 0")
	}

	n := nextPowerOfTwo(uint64(capacity))
	return &Ring{
		mask:      n - 1,
		buf:       make([]any, n),
		occupancy: bitset.New(uint(n)),
	}, nil
}

func nextPowerOfTwo(n uint64) uint64 {
	if n&(n-1) == 0 {
		return n
	}
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

// Capacity returns the power-of-two slot count backing the ring.
func (r *Ring) Capacity() int {
	return int(r.mask + 1)
}

// Size returns the current number of occupied slots. It is a snapshot:
// under concurrent enqueue/dequeue it may be stale by the time it
// returns.
func (r *Ring) Size() int {
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail)
	return int(head - tail)
}

func (r *Ring) IsEmpty() bool {
	return atomic.LoadUint64(&r.head) == atomic.LoadUint64(&r.tail)
}

// IsFull reports whether the ring holds its usable capacity of
// Capacity()-1 items. One slot is always kept empty so a full ring's
// head+1 (mod Capacity()) never collides with tail.
func (r *Ring) IsFull() bool {
	return r.Size() >= r.Capacity()-1
}

// Enqueue stores item at the current head slot. It returns false and
// increments the overflow counter if the ring is full; the item is not
// stored in that case. One slot is always left empty so a full head
// (mod Capacity()) never collides with tail, giving a usable capacity
// of Capacity()-1.
func (r *Ring) Enqueue(item any) bool {
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail)

	if head-tail >= uint64(len(r.buf))-1 {
		atomic.AddUint64(&r.overflows, 1)
		return false
	}

	idx := head & r.mask
	r.buf[idx] = item
	r.occupancy.Set(uint(idx))

	atomic.StoreUint64(&r.head, head+1)
	atomic.AddUint64(&r.enqueued, 1)
	r.bumpPeakUsage(head + 1 - tail)
	return true
}

// Dequeue removes and returns the item at the current tail slot. ok is
// false if the ring was empty.
func (r *Ring) Dequeue() (item any, ok bool) {
	head := atomic.LoadUint64(&r.head)
	tail := atomic.LoadUint64(&r.tail)

	if head == tail {
		return nil, false
	}

	idx := tail & r.mask
	item = r.buf[idx]
	r.buf[idx] = nil
	r.occupancy.Clear(uint(idx))

	atomic.StoreUint64(&r.tail, tail+1)
	atomic.AddUint64(&r.dequeued, 1)
	return item, true
}

func (r *Ring) bumpPeakUsage(usage uint64) {
	for {
		cur := atomic.LoadUint64(&r.peakUsage)
		if usage <= cur {
			return
		}
		if atomic.CompareAndSwapUint64(&r.peakUsage, cur, usage) {
			return
		}
	}
}

// Stats returns a point-in-time snapshot of the ring's counters.
func (r *Ring) Stats() Stats {
	return Stats{
		Enqueued:  atomic.LoadUint64(&r.enqueued),
		Dequeued:  atomic.LoadUint64(&r.dequeued),
		Overflows: atomic.LoadUint64(&r.overflows),
		PeakUsage: atomic.LoadUint64(&r.peakUsage),
	}
}

// OccupiedSlots returns the count of slots the internal occupancy
// bitset currently marks as live. Used by diagnostics to cross-check
// Size() against the bitset independently of head/tail arithmetic.
func (r *Ring) OccupiedSlots() uint {
	return r.occupancy.Count()
}
