/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeInfo describes how a node type is presented.
type TypeInfo struct {
	Type           NodeType
	Label          string
	Color          string // #rrggbb
	Icon           string
	DefaultDetails []string
}

type PriorityInfo struct {
	Label  string
	Color  string
	Weight int
}

type StatusInfo struct {
	Label string
	Color string
	Icon  string
}

var typeCatalog = []TypeInfo{
	{TypeFlight, "Flight", "#64b5f6", "flight", []string{"airline", "flightNumber", "departure", "arrival", "bookingReference"}},
	{TypeHotel, "Hotel", "#81c784", "hotel", []string{"hotelName", "checkIn", "checkOut", "roomType", "address"}},
	{TypeEvent, "Event", "#ffb74d", "event", []string{"location", "duration", "cost", "website"}},
	{TypeTransport, "Transport", "#ba68c8", "directions_car", []string{"vehicleType", "pickupLocation", "dropoffLocation"}},
	{TypeRestaurant, "Restaurant", "#ff8a65", "restaurant", []string{"location", "cost", "phone", "website"}},
	{TypeActivity, "Activity", "#4db6ac", "local_activity", []string{"location", "duration", "cost", "notes"}},
}

var priorityCatalog = map[Priority]PriorityInfo{
	PriorityLow:      {"Low", "#9e9e9e", 1},
	PriorityMedium:   {"Medium", "#ff9800", 2},
	PriorityHigh:     {"High", "#f44336", 3},
	PriorityCritical: {"Critical", "#d32f2f", 4},
}

var statusCatalog = map[Status]StatusInfo{
	StatusPending:   {"Pending", "#ff9800", "schedule"},
	StatusConfirmed: {"Confirmed", "#4caf50", "check_circle"},
	StatusCancelled: {"Cancelled", "#f44336", "cancel"},
	StatusCompleted: {"Completed", "#2196f3", "done_all"},
}

// Types lists all node types in display order.
func Types() []TypeInfo {
	out := make([]TypeInfo, len(typeCatalog))
	copy(out, typeCatalog)
	return out
}

func (t NodeType) Info() (TypeInfo, bool) {
	for _, ti := range typeCatalog {
		if ti.Type == t {
			return ti, true
		}
	}
	return TypeInfo{}, false
}

func (t NodeType) Valid() bool { _, ok := t.Info(); return ok }

// Label returns the display label, or the raw value for unknown types.
func (t NodeType) Label() string {
	if ti, ok := t.Info(); ok {
		return ti.Label
	}
	return string(t)
}

func (p Priority) Info() (PriorityInfo, bool) { pi, ok := priorityCatalog[p]; return pi, ok }

// Weight orders priorities; unknown values weigh 0.
func (p Priority) Weight() int { return priorityCatalog[p].Weight }

func (s Status) Info() (StatusInfo, bool) { si, ok := statusCatalog[s]; return si, ok }

func ParseType(s string) (NodeType, error) {
	t := NodeType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown node type %q", s)
	}
	return t, nil
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := p.Info(); !ok {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := st.Info(); !ok {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// RGB decodes a #rrggbb color.
func RGB(hex string) (r, g, b uint8, err error) {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid color %q", hex)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

// TypeRGB returns the color of t, grey for unknown types.
func TypeRGB(t NodeType) (r, g, b uint8) {
	ti, ok := t.Info()
	if !ok {
		return 0x9e, 0x9e, 0x9e
	}
	r, g, b, _ = RGB(ti.Color)
	return r, g, b
}
