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

// Package eventdb is the batched, transactional event database (spec.md
// §4.12) over gorm.io/gorm, narrowed to the one driver the
// configuration snapshot names (file-backed SQLite via
// gorm.io/driver/sqlite, backed by mattn/go-sqlite3). Open always uses
// sqlite.Open; there is no driver selection. DB itself replaces
// the teacher's full Component/Monitor-wired gorm wrapper (not kept,
// see DESIGN.md) with a purpose-built batch-insert/query/maintenance
// surface.
package eventdb

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sabouaram/netlinkmon/errors"
	"github.com/sabouaram/netlinkmon/event"
)

const (
	errOpen = errors.MinPkgEventDB + iota
	errMigrate
	errFlush
)

// Record is the row persisted for one event (spec.md §4.12: indexed on
// timestamp, event_type, interface, namespace).
type Record struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement"`
	Sequence       uint64 `gorm:"index"`
	Timestamp      int64  `gorm:"index"`
	EventType      string `gorm:"index"`
	MessageType    int
	Interface      string `gorm:"index"`
	Namespace      string `gorm:"index"`
	ProtocolFamily uint8
	Details        string
}

func (Record) TableName() string { return "events" }

// Config selects the backing file and batch threshold.
type Config struct {
	Path      string
	BatchSize int
}

// DB is a batched, transactional event store. The zero value is not
// usable; construct with Open.
type DB struct {
	cfg  Config
	gdb  *gorm.DB
	pend []Record
}

// Open creates (or attaches to) the SQLite file at cfg.Path and runs the
// schema migration.
func Open(cfg Config) (*DB, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	gdb, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.New(errOpen, fmt.Sprintf("eventdb: open %s", cfg.Path), err)
	}
	if err := gdb.AutoMigrate(&Record{}); err != nil {
		return nil, errors.New(errMigrate, "eventdb: migrate schema", err)
	}
	return &DB{cfg: cfg, gdb: gdb}, nil
}

// Insert stages ev for a batched transaction; the batch commits once
// Config.BatchSize records have accumulated, or on explicit Flush.
func (d *DB) Insert(ev *event.Event) error {
	d.pend = append(d.pend, toRecord(ev))
	if len(d.pend) >= d.cfg.BatchSize {
		return d.Flush()
	}
	return nil
}

// Flush commits any pending records in a single transaction.
func (d *DB) Flush() error {
	if len(d.pend) == 0 {
		return nil
	}
	batch := d.pend
	d.pend = nil
	if err := d.gdb.Create(&batch).Error; err != nil {
		return errors.New(errFlush, "eventdb: flush batch", err)
	}
	return nil
}

func toRecord(ev *event.Event) Record {
	return Record{
		Sequence:       ev.Sequence,
		Timestamp:      ev.Timestamp,
		EventType:      ev.EventType.String(),
		MessageType:    ev.MessageType,
		Interface:      ev.Interface,
		Namespace:      ev.Namespace,
		ProtocolFamily: ev.ProtocolFamily,
		Details:        auditText(ev),
	}
}

func auditText(ev *event.Event) string {
	iface := ev.Interface
	if iface == "" {
		iface = "-"
	}
	return ev.EventType.String() + " " + iface
}

// QueryFilter narrows Query's result set (spec.md §4.12).
type QueryFilter struct {
	InterfacePattern string // SQL LIKE pattern
	EventType        string
	MessageType      *int
	Namespace        string
	StartTS          *int64
	EndTS            *int64
	Limit            int
	Offset           int
	OrderBy          string
	Descending       bool
}

// Query runs a filtered, paginated read over the events table.
func (d *DB) Query(f QueryFilter) ([]Record, error) {
	tx := d.gdb.Model(&Record{})

	if f.InterfacePattern != "" {
		tx = tx.Where("interface LIKE ?", f.InterfacePattern)
	}
	if f.EventType != "" {
		tx = tx.Where("event_type = ?", f.EventType)
	}
	if f.MessageType != nil {
		tx = tx.Where("message_type = ?", *f.MessageType)
	}
	if f.Namespace != "" {
		tx = tx.Where("namespace = ?", f.Namespace)
	}
	if f.StartTS != nil {
		tx = tx.Where("timestamp >= ?", *f.StartTS)
	}
	if f.EndTS != nil {
		tx = tx.Where("timestamp <= ?", *f.EndTS)
	}

	orderBy := f.OrderBy
	if orderBy == "" {
		orderBy = "timestamp"
	}
	if f.Descending {
		orderBy += " DESC"
	}
	tx = tx.Order(orderBy)

	if f.Limit > 0 {
		tx = tx.Limit(f.Limit)
	}
	if f.Offset > 0 {
		tx = tx.Offset(f.Offset)
	}

	var out []Record
	if err := tx.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteBefore removes every record with timestamp < ts.
func (d *DB) DeleteBefore(ts int64) (int64, error) {
	res := d.gdb.Where("timestamp < ?", ts).Delete(&Record{})
	return res.RowsAffected, res.Error
}

// DeleteOldest removes the oldest records until at most keepCount
// remain.
func (d *DB) DeleteOldest(keepCount int64) (int64, error) {
	total, err := d.Count()
	if err != nil {
		return 0, err
	}
	if total <= keepCount {
		return 0, nil
	}
	toDelete := total - keepCount

	var ids []uint64
	if err := d.gdb.Model(&Record{}).Order("timestamp ASC").Limit(int(toDelete)).Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	res := d.gdb.Where("id IN ?", ids).Delete(&Record{})
	return res.RowsAffected, res.Error
}

// Count returns the current row count.
func (d *DB) Count() (int64, error) {
	var n int64
	err := d.gdb.Model(&Record{}).Count(&n).Error
	return n, err
}

// Vacuum reclaims free space in the backing SQLite file.
func (d *DB) Vacuum() error {
	return d.gdb.Exec("VACUUM").Error
}

// Analyze refreshes SQLite's query planner statistics.
func (d *DB) Analyze() error {
	return d.gdb.Exec("ANALYZE").Error
}

// Stats is a point-in-time snapshot of database size/volume (spec.md
// §4.12).
type Stats struct {
	TotalEvents int64
	DBSizeBytes int64
	PageCount   int64
}

// Stats reports total row count and the SQLite file's page accounting.
func (d *DB) Stats() (Stats, error) {
	total, err := d.Count()
	if err != nil {
		return Stats{}, err
	}

	var pageCount, pageSize int64
	if err := d.gdb.Raw("PRAGMA page_count").Scan(&pageCount).Error; err != nil {
		return Stats{}, err
	}
	if err := d.gdb.Raw("PRAGMA page_size").Scan(&pageSize).Error; err != nil {
		return Stats{}, err
	}

	return Stats{
		TotalEvents: total,
		DBSizeBytes: pageCount * pageSize,
		PageCount:   pageCount,
	}, nil
}

// DBSizeBytes reports the backing SQLite file's current size, for
// retention's size-based cleanup trigger (satisfies
// retention.SizeReporter).
func (d *DB) DBSizeBytes() (int64, error) {
	s, err := d.Stats()
	if err != nil {
		return 0, err
	}
	return s.DBSizeBytes, nil
}

// Close releases the underlying *sql.DB connection.
func (d *DB) Close() error {
	if err := d.Flush(); err != nil {
		return err
	}
	sqlDB, err := d.gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
