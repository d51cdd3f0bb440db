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

package event

const maxInterfaceName = 16

// Payload is the variant data carried by an Event. Exactly the fields
// relevant to EventType are populated; the rest stay at zero value.
// A nil *Payload is valid and behaves as an all-empty payload.
type Payload struct {
	// Link carries RTM_*LINK attributes.
	Link *LinkAttrs `json:"link,omitempty"`
	// Addr carries RTM_*ADDR attributes.
	Addr *AddrAttrs `json:"addr,omitempty"`
	// Route carries RTM_*ROUTE attributes.
	Route *RouteAttrs `json:"route,omitempty"`
	// Neigh carries RTM_*NEIGH attributes.
	Neigh *NeighAttrs `json:"neigh,omitempty"`
	// Diag carries sock-diag tuples.
	Diag *DiagAttrs `json:"diag,omitempty"`
	// Conntrack carries conntrack tuples.
	Conntrack *ConntrackAttrs `json:"conntrack,omitempty"`
	// Generic carries an opaque command/attribute bag for nl80211, QCA
	// vendor commands, and any other decoder that does not warrant its
	// own typed variant.
	Generic *GenericAttrs `json:"generic,omitempty"`
}

// LinkAttrs mirrors the subset of struct ifinfomsg + IFLA_* attributes the
// filter language and security detector need.
type LinkAttrs struct {
	IfIndex int32  `json:"if_index"`
	Flags   uint32 `json:"flags"`
	MTU     uint32 `json:"mtu,omitempty"`
	Address string `json:"address,omitempty"`
}

const (
	IFF_UP       uint32 = 1 << 0
	IFF_RUNNING  uint32 = 1 << 6
	IFF_PROMISC  uint32 = 1 << 8
	IFF_LOOPBACK uint32 = 1 << 3
)

type AddrAttrs struct {
	Address   string `json:"address"`
	PrefixLen uint8  `json:"prefix_len"`
	Scope     uint8  `json:"scope,omitempty"`
}

type RouteAttrs struct {
	Destination string `json:"destination,omitempty"`
	PrefixLen   uint8  `json:"prefix_len"`
	Gateway     string `json:"gateway,omitempty"`
	OutIface    string `json:"out_iface,omitempty"`
	Table       uint32 `json:"table,omitempty"`
	Protocol    uint8  `json:"protocol,omitempty"`
}

// IsDefault reports whether the route's destination is the IPv4/IPv6
// default route (0.0.0.0/0 or ::/0).
func (r *RouteAttrs) IsDefault() bool {
	if r == nil {
		return false
	}
	return r.PrefixLen == 0 && (r.Destination == "" || r.Destination == "0.0.0.0" || r.Destination == "::")
}

type NeighAttrs struct {
	Destination string `json:"destination"`
	LinkLayer   string `json:"link_layer,omitempty"`
	State       uint16 `json:"state,omitempty"`
}

type DiagAttrs struct {
	SrcAddr string `json:"src_addr,omitempty"`
	SrcPort uint16 `json:"src_port,omitempty"`
	DstAddr string `json:"dst_addr,omitempty"`
	DstPort uint16 `json:"dst_port,omitempty"`
	State   uint8  `json:"state,omitempty"`
	INode   uint32 `json:"inode,omitempty"`
}

type ConntrackAttrs struct {
	Protocol  uint8  `json:"protocol,omitempty"`
	SrcAddr   string `json:"src_addr,omitempty"`
	DstAddr   string `json:"dst_addr,omitempty"`
	SrcPort   uint16 `json:"src_port,omitempty"`
	DstPort   uint16 `json:"dst_port,omitempty"`
	State     string `json:"state,omitempty"`
	Mark      uint32 `json:"mark,omitempty"`
}

type GenericAttrs struct {
	Command uint8             `json:"command,omitempty"`
	Vendor  uint32             `json:"vendor,omitempty"`
	Attrs   map[string]string `json:"attrs,omitempty"`
}

// Clone returns a deep copy of the payload, allocating fresh backing
// storage for the populated variant and its map, if any.
func (p *Payload) Clone() *Payload {
	if p == nil {
		return nil
	}
	c := &Payload{}
	if p.Link != nil {
		v := *p.Link
		c.Link = &v
	}
	if p.Addr != nil {
		v := *p.Addr
		c.Addr = &v
	}
	if p.Route != nil {
		v := *p.Route
		c.Route = &v
	}
	if p.Neigh != nil {
		v := *p.Neigh
		c.Neigh = &v
	}
	if p.Diag != nil {
		v := *p.Diag
		c.Diag = &v
	}
	if p.Conntrack != nil {
		v := *p.Conntrack
		c.Conntrack = &v
	}
	if p.Generic != nil {
		v := *p.Generic
		if p.Generic.Attrs != nil {
			v.Attrs = make(map[string]string, len(p.Generic.Attrs))
			for k, val := range p.Generic.Attrs {
				v.Attrs[k] = val
			}
		}
		c.Generic = &v
	}
	return c
}

// Event is the canonical, normalized record passed through the pipeline
// (spec.md §3). Sequence is assigned by the dispatcher on acceptance and
// is not meaningful (zero) before submission.
type Event struct {
	Sequence       uint64   `json:"sequence"`
	Timestamp      int64    `json:"timestamp"` // unix seconds, UTC, at decode time
	EventType      Type     `json:"event_type"`
	MessageType    int      `json:"message_type"`
	Interface      string   `json:"interface,omitempty"`
	Namespace      string   `json:"namespace,omitempty"`
	ProtocolFamily uint8    `json:"protocol_family,omitempty"`
	Payload        *Payload `json:"payload,omitempty"`
	Raw            []byte   `json:"-"`
}

// Clone deep-copies e, including its payload and raw bytes. Used by the
// dispatcher's submit path (spec.md §4.10 step 3) so the caller's Event
// can be mutated/reused freely after Submit returns.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	c.Payload = e.Payload.Clone()
	if e.Raw != nil {
		c.Raw = make([]byte, len(e.Raw))
		copy(c.Raw, e.Raw)
	}
	return &c
}

// Reset zeroes e in place so a pooled record carries no residual payload
// across allocations (spec.md §4.2: "On release, the payload buffer is
// freed and the record zeroed").
func (e *Event) Reset() {
	if e == nil {
		return
	}
	*e = Event{}
}

// TruncatedInterface returns Interface bounded to the 16-byte budget the
// data model documents for interface names (spec.md §3).
func (e *Event) TruncatedInterface() string {
	if len(e.Interface) <= maxInterfaceName {
		return e.Interface
	}
	return e.Interface[:maxInterfaceName]
}
