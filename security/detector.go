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

// Package security specializes the correlation engine into four
// concrete detectors (spec.md §4.9): promiscuous mode, ARP flood, route
// hijack, and interface storm. Rate-based detectors (ARP flood,
// interface storm) delegate to a correlate.Engine rule; the other two
// are stateful checks evaluated directly against each event, grounded
// on the same "specialization of correlation" relationship the spec
// describes rather than re-implementing windowing.
package security

import (
	"fmt"
	"sync"

	"github.com/sabouaram/netlinkmon/correlate"
	"github.com/sabouaram/netlinkmon/event"
)

// Priority is the detector's severity label, distinct from
// event.Severity: the spec names both an INFO/HIGH/MEDIUM label and an
// event.Severity for each alert kind.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Alert is one security detector emission.
type Alert struct {
	Kind      string // "promiscuous_mode", "arp_flood", "route_hijack", "interface_storm"
	Severity  event.Severity
	Priority  Priority
	Message   string
	Event     *event.Event
	Timestamp int64
}

// AlertFunc receives published alerts. Callbacks run synchronously on
// the goroutine that called Process; a slow callback slows detection.
type AlertFunc func(Alert)

// Config bounds the two rate-based detectors.
type Config struct {
	ArpFloodThreshold       int
	ArpFloodWindowS         int64
	InterfaceStormThreshold int
	InterfaceStormWindowS   int64
}

// Detector runs all four security checks over the event stream and
// publishes Alerts to registered callbacks.
type Detector struct {
	cfg Config

	mu        sync.Mutex
	callbacks map[string]AlertFunc

	routeGateways map[string]string // "dest/prefixlen" -> last-seen gateway

	arpEngine   *correlate.Engine
	stormEngine *correlate.Engine
}

// New creates a Detector. Register callbacks with RegisterCallback
// before calling Process.
func New(cfg Config) *Detector {
	d := &Detector{
		cfg:           cfg,
		callbacks:     make(map[string]AlertFunc),
		routeGateways: make(map[string]string),
	}

	d.arpEngine = correlate.New(correlate.Config{
		MaxWindowSize:   4096,
		DefaultHorizonS: cfg.ArpFloodWindowS,
	})
	d.arpEngine.AddRule(correlate.Rule{
		Name:                 "arp_flood",
		HorizonS:             cfg.ArpFloodWindowS,
		Conditions:           []correlate.Condition{{Field: "event_type", Value: event.TypeNeighbor.String()}},
		GroupBySameInterface: true,
		MinEventCount:        cfg.ArpFloodThreshold,
	})

	d.stormEngine = correlate.New(correlate.Config{
		MaxWindowSize:   4096,
		DefaultHorizonS: cfg.InterfaceStormWindowS,
	})
	d.stormEngine.AddRule(correlate.Rule{
		Name:                 "interface_storm",
		HorizonS:             cfg.InterfaceStormWindowS,
		Conditions:           []correlate.Condition{{Field: "event_type", Value: event.TypeLink.String()}},
		GroupBySameInterface: true,
		MinEventCount:        cfg.InterfaceStormThreshold,
	})

	return d
}

// RegisterCallback registers fn under id, replacing any existing
// registration with the same id.
func (d *Detector) RegisterCallback(id string, fn AlertFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callbacks[id] = fn
}

// UnregisterCallback removes id's callback. It is idempotent: removing
// an id that is not registered is a no-op, not an error.
func (d *Detector) UnregisterCallback(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.callbacks, id)
}

func (d *Detector) publish(a Alert) {
	d.mu.Lock()
	fns := make([]AlertFunc, 0, len(d.callbacks))
	for _, fn := range d.callbacks {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(a)
	}
}

// Process runs every detector against ev, publishing any alerts.
func (d *Detector) Process(ev *event.Event) {
	d.checkPromiscuous(ev)
	d.checkArpFlood(ev)
	d.checkRouteHijack(ev)
	d.checkInterfaceStorm(ev)
}

func (d *Detector) checkPromiscuous(ev *event.Event) {
	if ev.MessageType != event.RTM_NEWLINK || ev.Payload == nil || ev.Payload.Link == nil {
		return
	}
	if ev.Payload.Link.Flags&event.IFF_PROMISC == 0 {
		return
	}
	d.publish(Alert{
		Kind:      "promiscuous_mode",
		Severity:  event.SeverityInfo,
		Priority:  PriorityMedium,
		Message:   fmt.Sprintf("interface %s entered promiscuous mode", ev.Interface),
		Event:     ev,
		Timestamp: ev.Timestamp,
	})
}

func (d *Detector) checkArpFlood(ev *event.Event) {
	results, _, _ := d.arpEngine.Process(ev)
	for _, r := range results {
		d.publish(Alert{
			Kind:      "arp_flood",
			Severity:  event.SeveritySecurity,
			Priority:  PriorityHigh,
			Message:   fmt.Sprintf("ARP flood on %s: %d events", ev.Interface, r.EventCount),
			Event:     ev,
			Timestamp: ev.Timestamp,
		})
	}
}

func (d *Detector) checkInterfaceStorm(ev *event.Event) {
	if ev.MessageType != event.RTM_NEWLINK && ev.MessageType != event.RTM_DELLINK {
		return
	}
	results, _, _ := d.stormEngine.Process(ev)
	for _, r := range results {
		d.publish(Alert{
			Kind:      "interface_storm",
			Severity:  event.SeverityWarning,
			Priority:  PriorityMedium,
			Message:   fmt.Sprintf("interface churn on %s: %d events", ev.Interface, r.EventCount),
			Event:     ev,
			Timestamp: ev.Timestamp,
		})
	}
}

func (d *Detector) checkRouteHijack(ev *event.Event) {
	if ev.MessageType != event.RTM_NEWROUTE || ev.Payload == nil || ev.Payload.Route == nil {
		return
	}
	r := ev.Payload.Route

	key := fmt.Sprintf("%s/%d", r.Destination, r.PrefixLen)

	d.mu.Lock()
	prevGateway, seen := d.routeGateways[key]
	d.routeGateways[key] = r.Gateway
	d.mu.Unlock()

	if !seen || prevGateway == r.Gateway {
		return
	}

	d.publish(Alert{
		Kind:      "route_hijack",
		Severity:  event.SeveritySecurity,
		Priority:  PriorityHigh,
		Message:   fmt.Sprintf("route %s changed gateway from %s to %s", key, prevGateway, r.Gateway),
		Event:     ev,
		Timestamp: ev.Timestamp,
	})
}
