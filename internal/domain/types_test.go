/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"travelcanvas/internal/geometry"
)

func TestNewNodeDefaults(t *testing.T) {
	n := NewNode(TypeHotel, geometry.P(10, 20), "")
	if n.Title != "New Hotel" {
		t.Fatalf("title = %q", n.Title)
	}
	if n.Priority != PriorityMedium || n.Status != StatusPending || n.Confirmed {
		t.Fatalf("unexpected defaults: %+v", n)
	}
	if n.ID == "" || n.CreatedAt.IsZero() || !n.CreatedAt.Equal(n.UpdatedAt) {
		t.Fatalf("id/timestamps not set: %+v", n)
	}
	if err := Validate(n); err != nil {
		t.Fatalf("fresh node invalid: %v", err)
	}
	if NewNode(TypeHotel, geometry.P(0, 0), "").ID == n.ID {
		t.Fatal("ids must be unique")
	}
}

func TestValidateReportsEveryViolation(t *testing.T) {
	n := NewNode(TypeEvent, geometry.P(0, 0), " x ")
	n.Description = strings.Repeat("d", MaxDescriptionLength+1)
	n.Tags = []string{"ok", strings.Repeat("t", MaxTagLength+1)}
	n.Status = "lost"
	n.Position = geometry.P(math.NaN(), 0)

	err := Validate(n)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	want := []string{
		"title must be at least 2 characters",
		"description must be at most 500 characters",
		"tags must be at most 20 characters",
		"status must be one of",
		"position must be finite",
	}
	for _, w := range want {
		if !strings.Contains(err.Error(), w) {
			t.Fatalf("error %q lacks %q", err, w)
		}
	}
}

func TestValidateLimits(t *testing.T) {
	n := NewNode(TypeFlight, geometry.P(0, 0), strings.Repeat("é", MaxTitleLength))
	n.Tags = make([]string, MaxTags)
	for i := range n.Tags {
		n.Tags[i] = "tag"
	}
	if err := Validate(n); err != nil {
		t.Fatalf("limits should be inclusive: %v", err)
	}
	n.Title += "x"
	n.Tags = append(n.Tags, "one-too-many")
	err := Validate(n)
	if err == nil || !strings.Contains(err.Error(), "title must be at most 50") || !strings.Contains(err.Error(), "at most 10 tags") {
		t.Fatalf("unexpected error: %v", err)
	}
	n = NewNode("boat", geometry.P(0, 0), "Boat trip")
	if err := Validate(n); err == nil || !strings.Contains(err.Error(), "type must be one of") {
		t.Fatalf("unknown type accepted: %v", err)
	}
}

func TestDuplicate(t *testing.T) {
	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	src := NewNode(TypeRestaurant, geometry.P(300, 200), "Dinner")
	src.Tags = []string{"food"}
	src.Date = &day

	dup := Duplicate(src)
	if dup.ID == src.ID || dup.Title != "Dinner (Copy)" || !dup.Position.Equal(geometry.P(400, 250)) {
		t.Fatalf("unexpected duplicate: %+v", dup)
	}
	dup.Tags[0] = "changed"
	*dup.Date = dup.Date.Add(time.Hour)
	if src.Tags[0] != "food" || !src.Date.Equal(day) {
		t.Fatal("duplicate shares memory with its source")
	}

	long := NewNode(TypeRestaurant, geometry.P(0, 0), strings.Repeat("a", MaxTitleLength))
	if err := Validate(Duplicate(long)); err != nil {
		t.Fatalf("duplicate of a long title invalid: %v", err)
	}
}

func TestNodeJSONShape(t *testing.T) {
	n := NewNode(TypeFlight, geometry.P(1, 2), "To Lisbon")
	n.Details.Airline = "TAP"
	b, err := json.Marshal(n)
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	for _, key := range []string{`"position":{"x":1,"y":2}`, `"createdAt"`, `"airline":"TAP"`, `"type":"flight"`} {
		if !strings.Contains(s, key) {
			t.Fatalf("json %s lacks %s", s, key)
		}
	}
	if strings.Contains(s, `"date"`) || strings.Contains(s, `"hotelName"`) {
		t.Fatalf("empty optionals serialized: %s", s)
	}
}

func TestCatalog(t *testing.T) {
	if len(Types()) != 6 {
		t.Fatalf("types = %d", len(Types()))
	}
	ti, ok := TypeTransport.Info()
	if !ok || ti.Icon != "directions_car" || ti.Color != "#ba68c8" {
		t.Fatalf("transport info = %+v", ti)
	}
	if PriorityCritical.Weight() != 4 || Priority("x").Weight() != 0 {
		t.Fatal("priority weights wrong")
	}
	if r, g, b := TypeRGB(TypeFlight); r != 0x64 || g != 0xb5 || b != 0xf6 {
		t.Fatalf("flight rgb = %x %x %x", r, g, b)
	}
	if _, _, _, err := RGB("#12"); err == nil {
		t.Fatal("short color accepted")
	}
	if got, err := ParseType(" Hotel "); err != nil || got != TypeHotel {
		t.Fatalf("ParseType = %v, %v", got, err)
	}
	if _, err := ParseStatus("done"); err == nil {
		t.Fatal("unknown status parsed")
	}
	if p, err := ParsePriority("HIGH"); err != nil || p != PriorityHigh {
		t.Fatalf("ParsePriority = %v, %v", p, err)
	}
}

func TestTrimminCountsRunesAfterTrimming(t *testing.T) {
	v := newValidator()
	if err := v.Var("  éé  ", "trimmin=2"); err != nil {
		t.Fatalf("two runes rejected: %v", err)
	}
	if err := v.Var("  é  ", "trimmin=2"); err == nil {
		t.Fatal("padded single rune accepted")
	}
}
