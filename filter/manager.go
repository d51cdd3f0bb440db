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

package filter

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sabouaram/netlinkmon/errors"
	"github.com/sabouaram/netlinkmon/event"
)

const (
	errUnknownFilter = errors.MinPkgFilter + iota
	errPersistOpen
	errPersistWrite
	errPersistRecord
)

// Stats is a point-in-time snapshot of one named filter's eval counters.
type Stats struct {
	EvalCount   uint64
	MatchCount  uint64
	TotalTimeNs uint64
}

type entry struct {
	filter  *Filter
	enabled bool

	evalCount   atomic.Uint64
	matchCount  atomic.Uint64
	totalTimeNs atomic.Uint64
}

// Manager is a named registry of compiled filters with per-filter eval
// statistics and optional flat-file persistence.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

// NewManager creates an empty filter registry.
func NewManager() *Manager {
	return &Manager{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Add compiles src under name and registers it, enabled by default. It
// overwrites any existing filter of the same name. The returned *Filter
// is the same handle Get would subsequently return; inspect Valid()/Err
// to detect a bad expression (it is still registered).
func (m *Manager) Add(name, src string) *Filter {
	f := New(src)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[name] = &entry{filter: f, enabled: true}
	return f
}

// Remove deletes name from the registry. It is a no-op if name is not
// registered.
func (m *Manager) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, name)
}

// Update recompiles name's expression in place, preserving its current
// enabled/disabled state and resetting its stats.
func (m *Manager) Update(name, src string) (*Filter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[name]
	if !ok {
		return nil, errors.New(errUnknownFilter, fmt.Sprintf("filter: unknown filter %q", name))
	}

	f := New(src)
	m.entries[name] = &entry{filter: f, enabled: e.enabled}
	return f, nil
}

// Enable/Disable toggle whether EvalAll considers name. Both are
// no-ops if name is not registered.
func (m *Manager) Enable(name string) {
	m.setEnabled(name, true)
}

func (m *Manager) Disable(name string) {
	m.setEnabled(name, false)
}

func (m *Manager) setEnabled(name string, enabled bool) {
	m.mu.RLock()
	e, ok := m.entries[name]
	m.mu.RUnlock()
	if ok {
		e.enabled = enabled
	}
}

// Get returns the named filter and whether it is registered.
func (m *Manager) Get(name string) (*Filter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[name]
	if !ok {
		return nil, false
	}
	return e.filter, true
}

// List returns all registered filter names in sorted order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.entries))
	for n := range m.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Eval evaluates the single named filter against e, updating its
// per-filter stats. It returns an error if name is not registered.
func (m *Manager) Eval(name string, e *event.Event) (bool, error) {
	m.mu.RLock()
	en, ok := m.entries[name]
	m.mu.RUnlock()
	if !ok {
		return false, errors.New(errUnknownFilter, fmt.Sprintf("filter: unknown filter %q", name))
	}
	return m.evalEntry(en, e), nil
}

func (m *Manager) evalEntry(en *entry, e *event.Event) bool {
	start := m.now()
	result := en.filter.Eval(e)
	elapsed := m.now().Sub(start)

	en.evalCount.Add(1)
	en.totalTimeNs.Add(uint64(elapsed.Nanoseconds()))
	if result {
		en.matchCount.Add(1)
	}
	return result
}

// EvalAll runs every enabled filter against e and appends matching
// names to out, stopping once out reaches its capacity; an out with zero
// capacity is not limited. It returns the (possibly truncated) slice.
func (m *Manager) EvalAll(e *event.Event, out []string) []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.entries))
	for n := range m.entries {
		names = append(names, n)
	}
	sort.Strings(names)

	type pair struct {
		name string
		en   *entry
	}
	pairs := make([]pair, 0, len(names))
	for _, n := range names {
		pairs = append(pairs, pair{n, m.entries[n]})
	}
	m.mu.RUnlock()

	for _, p := range pairs {
		if len(out) >= cap(out) && cap(out) > 0 {
			break
		}
		if !p.en.enabled {
			continue
		}
		if m.evalEntry(p.en, e) {
			out = append(out, p.name)
		}
	}
	return out
}

// Stats returns a snapshot of name's eval counters. ok is false if name
// is not registered.
func (m *Manager) Stats(name string) (Stats, bool) {
	m.mu.RLock()
	e, ok := m.entries[name]
	m.mu.RUnlock()
	if !ok {
		return Stats{}, false
	}
	return Stats{
		EvalCount:   e.evalCount.Load(),
		MatchCount:  e.matchCount.Load(),
		TotalTimeNs: e.totalTimeNs.Load(),
	}, true
}

// Save persists the registry to path as a simple text store: one
// "name\tenabled\texpression" record per line, tab-separated,
// newlines/tabs in the expression escaped.
func (m *Manager) Save(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return errors.New(errPersistOpen, fmt.Sprintf("filter: cannot create %s: %v", path, err))
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	names := make([]string, 0, len(m.entries))
	for n := range m.entries {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		e := m.entries[n]
		line := fmt.Sprintf("%s\t%t\t%s\n", n, e.enabled, escapeRecord(e.filter.Source))
		if _, err := w.WriteString(line); err != nil {
			return errors.New(errPersistWrite, fmt.Sprintf("filter: write failed: %v", err))
		}
	}
	return w.Flush()
}

// Load replaces the registry's contents with the records in path,
// recompiling every saved expression.
func (m *Manager) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.New(errPersistOpen, fmt.Sprintf("filter: cannot open %s: %v", path, err))
	}
	defer f.Close()

	entries := make(map[string]*entry)

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			return errors.New(errPersistRecord, fmt.Sprintf("filter: malformed record at line %d", lineNo))
		}
		enabled, err := strconv.ParseBool(parts[1])
		if err != nil {
			return errors.New(errPersistRecord, fmt.Sprintf("filter: malformed enabled flag at line %d", lineNo))
		}
		src := unescapeRecord(parts[2])
		entries[parts[0]] = &entry{filter: New(src), enabled: enabled}
	}
	if err := scanner.Err(); err != nil {
		return errors.New(errPersistRecord, fmt.Sprintf("filter: read failed: %v", err))
	}

	m.mu.Lock()
	m.entries = entries
	m.mu.Unlock()
	return nil
}

func escapeRecord(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}

func unescapeRecord(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				sb.WriteByte('\n')
				i++
				continue
			case 't':
				sb.WriteByte('\t')
				i++
				continue
			case '\\':
				sb.WriteByte('\\')
				i++
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
