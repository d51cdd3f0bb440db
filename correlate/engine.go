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

// Package correlate implements the rule-driven correlation engine, the
// pattern detector, and the per-event-type anomaly detector (spec.md
// §4.8). Correlation ids combine google/uuid's random generator with a
// monotonic counter and the triggering rule's name, the way the spec's
// "monotonic counter + rule name suffix" requirement is grounded on the
// pack's one real id-generation library. The engine scans its rule set
// over one window.Window per distinct rule horizon rather than one
// shared history list, so a long-horizon rule is never pruned by a
// short-horizon one's eviction.
package correlate

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/sabouaram/netlinkmon/event"
	"github.com/sabouaram/netlinkmon/window"
)

// Condition tests a single field for equality. Grouping by interface is
// not a Condition; it is set by Rule.GroupBySameInterface. The field
// set intentionally covers only the coarse, top-level Event fields the
// example S6 scenario and typical rules need (event_type, interface,
// namespace, protocol_family, message_type); nested payload fields are
// the filter language's concern, not the correlation rule's.
type Condition struct {
	Field string
	Value string
}

// Rule is one correlation rule (spec.md §3 "Correlation rule").
type Rule struct {
	Name                 string
	HorizonS              int64
	Conditions            []Condition
	GroupBySameInterface  bool
	MinEventCount         int
	GenerateAlert         bool
}

// Result is one correlation emission (spec.md §3 "Correlation result").
type Result struct {
	CorrelationID string
	RuleName      string
	EventCount    int
	Events        []*event.Event
	FirstTS       int64
	LastTS        int64
	GenerateAlert bool
}

// Config bounds the engine's resource usage and detector behavior
// (spec.md §4.8).
type Config struct {
	MaxWindowSize          int
	DefaultHorizonS        int64
	MaxRules               int
	EnablePatternDetection bool
	EnableAnomalyDetection bool
	PatternMinFrequency    int
	AnomalyThreshold       float64
}

// defaultWindowCapacity bounds a per-horizon window when Config.MaxWindowSize
// is left at zero.
const defaultWindowCapacity = 4096

// Engine runs the correlation rule set plus the pattern and anomaly
// detectors over every processed event. Each distinct rule horizon gets
// its own window.Window — the engine scans "one or more time windows"
// (spec.md §4.8), not a single shared history list, so a rule with a
// longer look-back never gets starved by a shorter one's eviction.
type Engine struct {
	cfg   Config
	rules []Rule

	mu       sync.Mutex
	windows  map[int64]*window.Window   // horizon seconds -> window of every event seen within it
	reported map[string]map[string]bool // rule name -> group key ("" if ungrouped) -> already emitted for the current burst

	counter atomic.Uint64

	pattern *patternDetector
	anomaly *anomalyDetector
}

// New creates an Engine. Rules are evaluated in the order given to
// AddRule (spec.md §4.8 tie-break: "rule-declaration order").
func New(cfg Config) *Engine {
	return &Engine{
		cfg:      cfg,
		windows:  make(map[int64]*window.Window),
		reported: make(map[string]map[string]bool),
		pattern:  newPatternDetector(cfg.PatternMinFrequency, cfg.DefaultHorizonS),
		anomaly:  newAnomalyDetector(cfg.AnomalyThreshold),
	}
}

// effectiveHorizon resolves a rule's look-back window: its own HorizonS
// if set, otherwise the engine's DefaultHorizonS.
func effectiveHorizon(rule Rule, defaultHorizonS int64) int64 {
	if rule.HorizonS > 0 {
		return rule.HorizonS
	}
	return defaultHorizonS
}

// windowFor returns the window for horizon, creating it on first use.
// Callers must hold en.mu.
func (en *Engine) windowFor(horizon int64) *window.Window {
	w, ok := en.windows[horizon]
	if ok {
		return w
	}
	capacity := en.cfg.MaxWindowSize
	if capacity <= 0 {
		capacity = defaultWindowCapacity
	}
	w = window.New(capacity, horizon)
	en.windows[horizon] = w
	return w
}

// AddRule appends rule to the engine's rule set, up to Config.MaxRules.
// It returns false if the rule set is already full.
func (en *Engine) AddRule(r Rule) bool {
	en.mu.Lock()
	defer en.mu.Unlock()
	if en.cfg.MaxRules > 0 && len(en.rules) >= en.cfg.MaxRules {
		return false
	}
	en.rules = append(en.rules, r)
	return true
}

// Process evaluates every rule (and, if enabled, the pattern and
// anomaly detectors) against ev, returning any correlation/pattern/
// anomaly results it produced.
func (en *Engine) Process(ev *event.Event) ([]Result, []PatternResult, []AnomalyResult) {
	en.mu.Lock()
	touched := make(map[int64]bool, len(en.rules))
	for _, rule := range en.rules {
		h := effectiveHorizon(rule, en.cfg.DefaultHorizonS)
		if touched[h] {
			continue
		}
		touched[h] = true
		w := en.windowFor(h)
		w.Add(ev)
		w.Expire(ev.Timestamp)
	}

	var results []Result
	for _, rule := range en.rules {
		results = append(results, en.evalRule(rule, ev)...)
	}
	en.mu.Unlock()

	var patterns []PatternResult
	if en.cfg.EnablePatternDetection {
		if pr, ok := en.pattern.observe(ev); ok {
			patterns = append(patterns, pr)
		}
	}

	var anomalies []AnomalyResult
	if en.cfg.EnableAnomalyDetection {
		if ar, ok := en.anomaly.observe(ev); ok {
			anomalies = append(anomalies, ar)
		}
	}

	return results, patterns, anomalies
}

func (en *Engine) evalRule(rule Rule, current *event.Event) []Result {
	horizon := effectiveHorizon(rule, en.cfg.DefaultHorizonS)
	w := en.windowFor(horizon)

	var matching []*event.Event
	for _, e := range w.Query(event.TypeUnknown, "", nil) {
		if matchesConditions(e, rule.Conditions) {
			matching = append(matching, e)
		}
	}

	ruleReported, ok := en.reported[rule.Name]
	if !ok {
		ruleReported = make(map[string]bool)
		en.reported[rule.Name] = ruleReported
	}

	if !rule.GroupBySameInterface {
		if len(matching) < rule.MinEventCount {
			ruleReported[""] = false
			return nil
		}
		if ruleReported[""] {
			return nil
		}
		ruleReported[""] = true
		return []Result{en.buildResult(rule, matching)}
	}

	groups := make(map[string][]*event.Event)
	for _, e := range matching {
		groups[e.Interface] = append(groups[e.Interface], e)
	}

	// An interface that dropped out of the matching set entirely (every
	// one of its events aged past the horizon) re-arms for next time.
	for iface := range ruleReported {
		if _, present := groups[iface]; !present {
			ruleReported[iface] = false
		}
	}

	ifaces := make([]string, 0, len(groups))
	for iface := range groups {
		ifaces = append(ifaces, iface)
	}
	sort.Strings(ifaces)

	var results []Result
	for _, iface := range ifaces {
		group := groups[iface]
		if len(group) < rule.MinEventCount {
			ruleReported[iface] = false
			continue
		}
		if ruleReported[iface] {
			continue
		}
		ruleReported[iface] = true
		results = append(results, en.buildResult(rule, group))
	}
	return results
}

func (en *Engine) buildResult(rule Rule, events []*event.Event) Result {
	first, last := events[0].Timestamp, events[0].Timestamp
	for _, e := range events {
		if e.Timestamp < first {
			first = e.Timestamp
		}
		if e.Timestamp > last {
			last = e.Timestamp
		}
	}

	n := en.counter.Add(1)
	id := fmt.Sprintf("%s-%d-%s", uuid.NewString(), n, rule.Name)

	return Result{
		CorrelationID: id,
		RuleName:      rule.Name,
		EventCount:    len(events),
		Events:        events,
		FirstTS:       first,
		LastTS:        last,
		GenerateAlert: rule.GenerateAlert,
	}
}

func matchesConditions(e *event.Event, conditions []Condition) bool {
	for _, c := range conditions {
		if !matchesField(e, c.Field, c.Value) {
			return false
		}
	}
	return true
}

func matchesField(e *event.Event, field, value string) bool {
	switch field {
	case "event_type":
		return e.EventType.String() == value
	case "interface":
		return e.Interface == value
	case "namespace":
		return e.Namespace == value
	case "message_type":
		return fmt.Sprintf("%d", e.MessageType) == value
	case "protocol_family":
		return fmt.Sprintf("%d", e.ProtocolFamily) == value
	default:
		return false
	}
}
