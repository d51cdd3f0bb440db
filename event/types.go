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

// Package event defines the canonical record that flows through the
// netlink monitoring pipeline: decoder -> processor -> handlers.
//
// A Type is a coarse category (Link, Address, Route, ...); the raw kernel
// message type integer is carried separately in Event.MessageType since
// several raw types can map to the same Type (e.g. RTM_NEWLINK and
// RTM_DELLINK are both Type Link).
package event

import (
	"fmt"
	"strings"
)

// Type is the coarse event category used for rate limiting, filtering and
// correlation grouping. It intentionally does not distinguish NEW/DEL/GET
// variants of a netlink message; MessageType carries that detail.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeLink
	TypeAddress
	TypeRoute
	TypeNeighbor
	TypeRule
	TypeSockDiag
	TypeGeneric
	TypeConntrack
)

var typeNames = map[Type]string{
	TypeUnknown:   "unknown",
	TypeLink:      "link",
	TypeAddress:   "address",
	TypeRoute:     "route",
	TypeNeighbor:  "neighbor",
	TypeRule:      "rule",
	TypeSockDiag:  "sockdiag",
	TypeGeneric:   "generic",
	TypeConntrack: "conntrack",
}

// String returns the lowercase field name used by the filter language's
// "event_type" comparisons (spec.md §4.5, §6).
func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// TypeFromString parses the case-insensitive textual form used in
// configuration and filter expressions. Unknown strings map to
// TypeUnknown rather than an error: an unrecognized event_type compared
// against is simply never equal, per the filter language's "missing field
// is a mismatch" rule (spec.md §4.5).
func TypeFromString(s string) Type {
	for t, n := range typeNames {
		if strings.EqualFold(n, s) {
			return t
		}
	}
	return TypeUnknown
}

// Severity classifies audit entries (spec.md §6 "Audit log line format").
type Severity uint8

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeveritySecurity
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeveritySecurity:
		return "SECURITY"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "INFO"
	}
}
