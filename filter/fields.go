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

import "github.com/sabouaram/netlinkmon/event"

// fieldValue is either a string or an int64; ok is false when the field
// does not apply to this event (wrong variant, or never set).
type fieldValue struct {
	s     string
	i     int64
	isInt bool
	ok    bool
}

// knownFields is the fixed, enumerated field set the grammar allows
// (spec.md §4.5): top-level Event fields plus the dotted nested fields
// of each payload variant. A name outside this set is rejected at parse
// time: the parser checks IsKnownField and returns a ParseError (an
// unknown field is as much a structural mistake as a syntax error).
var knownFields = map[string]bool{
	"event_type":      true,
	"message_type":    true,
	"interface":       true,
	"namespace":       true,
	"protocol_family": true,

	"link.if_index": true,
	"link.flags":    true,
	"link.mtu":      true,
	"link.address":  true,

	"addr.address":    true,
	"addr.prefix_len": true,
	"addr.scope":      true,

	"route.destination": true,
	"route.prefix_len":  true,
	"route.gateway":     true,
	"route.out_iface":   true,
	"route.table":       true,
	"route.protocol":    true,

	"neigh.destination": true,
	"neigh.link_layer":  true,
	"neigh.state":       true,

	"diag.src_addr": true,
	"diag.src_port": true,
	"diag.dst_addr": true,
	"diag.dst_port": true,
	"diag.state":    true,
	"diag.inode":    true,

	"conntrack.protocol": true,
	"conntrack.src_addr": true,
	"conntrack.dst_addr": true,
	"conntrack.src_port": true,
	"conntrack.dst_port": true,
	"conntrack.state":    true,
	"conntrack.mark":     true,

	"generic.command": true,
	"generic.vendor":  true,
}

// IsKnownField reports whether name is in the fixed field set the
// filter grammar accepts.
func IsKnownField(name string) bool {
	return knownFields[name]
}

// resolveField extracts name's value from e. ok is false if the field
// does not apply (missing payload variant, or an unrecognized name);
// the evaluator treats that as "not equal" / "not in" / non-matching
// per spec.md §4.5.
func resolveField(e *event.Event, name string) fieldValue {
	switch name {
	case "event_type":
		return fieldValue{s: e.EventType.String(), ok: true}
	case "message_type":
		return fieldValue{i: int64(e.MessageType), isInt: true, ok: true}
	case "interface":
		return fieldValue{s: e.Interface, ok: true}
	case "namespace":
		return fieldValue{s: e.Namespace, ok: true}
	case "protocol_family":
		return fieldValue{i: int64(e.ProtocolFamily), isInt: true, ok: true}
	}

	if e.Payload == nil {
		return fieldValue{}
	}

	switch name {
	case "link.if_index":
		if e.Payload.Link == nil {
			return fieldValue{}
		}
		return fieldValue{i: int64(e.Payload.Link.IfIndex), isInt: true, ok: true}
	case "link.flags":
		if e.Payload.Link == nil {
			return fieldValue{}
		}
		return fieldValue{i: int64(e.Payload.Link.Flags), isInt: true, ok: true}
	case "link.mtu":
		if e.Payload.Link == nil {
			return fieldValue{}
		}
		return fieldValue{i: int64(e.Payload.Link.MTU), isInt: true, ok: true}
	case "link.address":
		if e.Payload.Link == nil {
			return fieldValue{}
		}
		return fieldValue{s: e.Payload.Link.Address, ok: true}

	case "addr.address":
		if e.Payload.Addr == nil {
			return fieldValue{}
		}
		return fieldValue{s: e.Payload.Addr.Address, ok: true}
	case "addr.prefix_len":
		if e.Payload.Addr == nil {
			return fieldValue{}
		}
		return fieldValue{i: int64(e.Payload.Addr.PrefixLen), isInt: true, ok: true}
	case "addr.scope":
		if e.Payload.Addr == nil {
			return fieldValue{}
		}
		return fieldValue{i: int64(e.Payload.Addr.Scope), isInt: true, ok: true}

	case "route.destination":
		if e.Payload.Route == nil {
			return fieldValue{}
		}
		return fieldValue{s: e.Payload.Route.Destination, ok: true}
	case "route.prefix_len":
		if e.Payload.Route == nil {
			return fieldValue{}
		}
		return fieldValue{i: int64(e.Payload.Route.PrefixLen), isInt: true, ok: true}
	case "route.gateway":
		if e.Payload.Route == nil {
			return fieldValue{}
		}
		return fieldValue{s: e.Payload.Route.Gateway, ok: true}
	case "route.out_iface":
		if e.Payload.Route == nil {
			return fieldValue{}
		}
		return fieldValue{s: e.Payload.Route.OutIface, ok: true}
	case "route.table":
		if e.Payload.Route == nil {
			return fieldValue{}
		}
		return fieldValue{i: int64(e.Payload.Route.Table), isInt: true, ok: true}
	case "route.protocol":
		if e.Payload.Route == nil {
			return fieldValue{}
		}
		return fieldValue{i: int64(e.Payload.Route.Protocol), isInt: true, ok: true}

	case "neigh.destination":
		if e.Payload.Neigh == nil {
			return fieldValue{}
		}
		return fieldValue{s: e.Payload.Neigh.Destination, ok: true}
	case "neigh.link_layer":
		if e.Payload.Neigh == nil {
			return fieldValue{}
		}
		return fieldValue{s: e.Payload.Neigh.LinkLayer, ok: true}
	case "neigh.state":
		if e.Payload.Neigh == nil {
			return fieldValue{}
		}
		return fieldValue{i: int64(e.Payload.Neigh.State), isInt: true, ok: true}

	case "diag.src_addr":
		if e.Payload.Diag == nil {
			return fieldValue{}
		}
		return fieldValue{s: e.Payload.Diag.SrcAddr, ok: true}
	case "diag.src_port":
		if e.Payload.Diag == nil {
			return fieldValue{}
		}
		return fieldValue{i: int64(e.Payload.Diag.SrcPort), isInt: true, ok: true}
	case "diag.dst_addr":
		if e.Payload.Diag == nil {
			return fieldValue{}
		}
		return fieldValue{s: e.Payload.Diag.DstAddr, ok: true}
	case "diag.dst_port":
		if e.Payload.Diag == nil {
			return fieldValue{}
		}
		return fieldValue{i: int64(e.Payload.Diag.DstPort), isInt: true, ok: true}
	case "diag.state":
		if e.Payload.Diag == nil {
			return fieldValue{}
		}
		return fieldValue{i: int64(e.Payload.Diag.State), isInt: true, ok: true}
	case "diag.inode":
		if e.Payload.Diag == nil {
			return fieldValue{}
		}
		return fieldValue{i: int64(e.Payload.Diag.INode), isInt: true, ok: true}

	case "conntrack.protocol":
		if e.Payload.Conntrack == nil {
			return fieldValue{}
		}
		return fieldValue{i: int64(e.Payload.Conntrack.Protocol), isInt: true, ok: true}
	case "conntrack.src_addr":
		if e.Payload.Conntrack == nil {
			return fieldValue{}
		}
		return fieldValue{s: e.Payload.Conntrack.SrcAddr, ok: true}
	case "conntrack.dst_addr":
		if e.Payload.Conntrack == nil {
			return fieldValue{}
		}
		return fieldValue{s: e.Payload.Conntrack.DstAddr, ok: true}
	case "conntrack.src_port":
		if e.Payload.Conntrack == nil {
			return fieldValue{}
		}
		return fieldValue{i: int64(e.Payload.Conntrack.SrcPort), isInt: true, ok: true}
	case "conntrack.dst_port":
		if e.Payload.Conntrack == nil {
			return fieldValue{}
		}
		return fieldValue{i: int64(e.Payload.Conntrack.DstPort), isInt: true, ok: true}
	case "conntrack.state":
		if e.Payload.Conntrack == nil {
			return fieldValue{}
		}
		return fieldValue{s: e.Payload.Conntrack.State, ok: true}
	case "conntrack.mark":
		if e.Payload.Conntrack == nil {
			return fieldValue{}
		}
		return fieldValue{i: int64(e.Payload.Conntrack.Mark), isInt: true, ok: true}

	case "generic.command":
		if e.Payload.Generic == nil {
			return fieldValue{}
		}
		return fieldValue{i: int64(e.Payload.Generic.Command), isInt: true, ok: true}
	case "generic.vendor":
		if e.Payload.Generic == nil {
			return fieldValue{}
		}
		return fieldValue{i: int64(e.Payload.Generic.Vendor), isInt: true, ok: true}
	}

	return fieldValue{}
}
