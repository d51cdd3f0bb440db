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

// Package storage implements the composite sink (spec.md §4.11): a
// Store fans one event out to an in-memory buffer, an event database,
// and an audit log, tolerating a failure in any one sink without
// aborting the others. Sinks are narrow interfaces rather than concrete
// eventdb/audit types so Storage has no import-time dependency on
// either package's third-party driver stack; eventdb.DB and audit.Log
// satisfy Inserter and Appender respectively without referencing this
// package.
package storage

import (
	"sync/atomic"

	"github.com/sabouaram/netlinkmon/event"
)

// Buffer receives every stored event, in order. ring.Ring satisfies
// this with Enqueue(item any) bool.
type Buffer interface {
	Enqueue(item any) bool
}

// Inserter receives a batched event-database insert.
type Inserter interface {
	Insert(ev *event.Event) error
}

// Appender receives one audit-log line.
type Appender interface {
	Append(severity event.Severity, text string) error
}

// RetentionChecker reports whether a timestamp already falls outside
// the retention horizon, in which case Store skips it entirely.
type RetentionChecker interface {
	IsExpired(timestampUnix int64) bool
}

// Config wires the (all optional) sinks a Storage composes.
type Config struct {
	Buffer        Buffer
	DB            Inserter
	Audit         Appender
	SecurityAudit Appender
	Retention     RetentionChecker
}

// Stats is a point-in-time snapshot of sink activity/failure counters.
type Stats struct {
	Stored       uint64
	Expired      uint64
	BufferFailed uint64
	DBFailed     uint64
	AuditFailed  uint64
}

// Storage is the composite sink described by spec.md §4.11.
type Storage struct {
	cfg Config

	stored       uint64
	expired      uint64
	bufferFailed uint64
	dbFailed     uint64
	auditFailed  uint64
}

// New constructs a Storage over the given (optional) sinks.
func New(cfg Config) *Storage {
	return &Storage{cfg: cfg}
}

// Store fans ev out to every configured sink. isSecurity selects
// whether the audit entry carries severity SECURITY or INFO; events
// older than the retention horizon are silently accepted without being
// stored anywhere (Open Question decision in DESIGN.md). The return
// value is false if any configured sink failed.
func (s *Storage) Store(ev *event.Event, isSecurity bool) bool {
	if s.cfg.Retention != nil && s.cfg.Retention.IsExpired(ev.Timestamp) {
		atomic.AddUint64(&s.expired, 1)
		return true
	}

	ok := true

	if s.cfg.Buffer != nil {
		if !s.cfg.Buffer.Enqueue(ev) {
			atomic.AddUint64(&s.bufferFailed, 1)
			ok = false
		}
	}

	if s.cfg.DB != nil {
		if err := s.cfg.DB.Insert(ev); err != nil {
			atomic.AddUint64(&s.dbFailed, 1)
			ok = false
		}
	}

	severity := event.SeverityInfo
	if isSecurity {
		severity = event.SeveritySecurity
	}
	text := auditText(ev)

	if s.cfg.Audit != nil {
		if err := s.cfg.Audit.Append(severity, text); err != nil {
			atomic.AddUint64(&s.auditFailed, 1)
			ok = false
		}
	}
	if isSecurity && s.cfg.SecurityAudit != nil {
		if err := s.cfg.SecurityAudit.Append(severity, text); err != nil {
			atomic.AddUint64(&s.auditFailed, 1)
			ok = false
		}
	}

	if ok {
		atomic.AddUint64(&s.stored, 1)
	}
	return ok
}

func auditText(ev *event.Event) string {
	iface := ev.Interface
	if iface == "" {
		iface = "-"
	}
	return ev.EventType.String() + " " + iface
}

// Stats returns a point-in-time snapshot of sink counters.
func (s *Storage) Stats() Stats {
	return Stats{
		Stored:       atomic.LoadUint64(&s.stored),
		Expired:      atomic.LoadUint64(&s.expired),
		BufferFailed: atomic.LoadUint64(&s.bufferFailed),
		DBFailed:     atomic.LoadUint64(&s.dbFailed),
		AuditFailed:  atomic.LoadUint64(&s.auditFailed),
	}
}
