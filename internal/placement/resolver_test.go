/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package placement

import (
	"errors"
	"math"
	"testing"

	"travelcanvas/internal/geometry"
)

func TestResolveEmptyCanvasReturnsDesired(t *testing.T) {
	want := geometry.P(400, 300)
	res, err := New(150, 50).Resolve(want, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Position.Equal(want) || res.Attempts != 0 || res.Exhausted {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestResolveFirstSpiralCandidate(t *testing.T) {
	desired := geometry.P(400, 300)
	const r = 150.0
	res, err := New(r, 50).Resolve(desired, []geometry.Point{desired})
	if err != nil {
		t.Fatal(err)
	}
	a := 30 * math.Pi / 180
	want := geometry.P(400+160*math.Cos(a), 300+160*math.Sin(a))
	if !res.Position.Near(want, 1e-9) {
		t.Fatalf("position = %v, want %v", res.Position, want)
	}
	if res.Attempts != 1 || res.Exhausted {
		t.Fatalf("unexpected bookkeeping: %+v", res)
	}
	if d := geometry.Distance(res.Position, desired); d < r {
		t.Fatalf("distance %v < %v", d, r)
	}
}

func TestResolveBoundaryDistanceIsAccepted(t *testing.T) {
	desired := geometry.P(0, 0)
	res, _ := New(150, 50).Resolve(desired, []geometry.Point{geometry.P(150, 0)})
	if !res.Position.Equal(desired) {
		t.Fatalf("exactly min distance should be accepted, got %v", res.Position)
	}
}

func TestResolveIsOrderIndependentAndDeterministic(t *testing.T) {
	desired := geometry.P(600, 400)
	occ := []geometry.Point{desired, geometry.P(740, 480), geometry.P(600, 560), geometry.P(450, 400)}
	rev := []geometry.Point{occ[3], occ[2], occ[1], occ[0]}
	res := New(150, 50)
	a, _ := res.Resolve(desired, occ)
	b, _ := res.Resolve(desired, rev)
	c, _ := res.Resolve(desired, occ)
	if !a.Position.Equal(b.Position) || !a.Position.Equal(c.Position) {
		t.Fatalf("results differ: %v %v %v", a.Position, b.Position, c.Position)
	}
	if a.Exhausted {
		t.Fatalf("should find a free spot")
	}
	for _, o := range occ {
		if geometry.Distance(a.Position, o) < 150 {
			t.Fatalf("placed %v too close to %v", a.Position, o)
		}
	}
}

func TestResolveExhaustionReturnsLastCandidate(t *testing.T) {
	desired := geometry.P(0, 0)
	res := Resolver{MinDistance: 150, MaxAttempts: 3}
	// A wall of points covering every candidate.
	var occ []geometry.Point
	for k := 0; k <= 3; k++ {
		occ = append(occ, res.Candidate(desired, k))
	}
	occ[0] = desired
	got, err := res.Resolve(desired, occ)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Exhausted || got.Attempts != 3 {
		t.Fatalf("expected exhaustion after 3 attempts: %+v", got)
	}
	if !got.Position.Equal(res.Candidate(desired, 3)) {
		t.Fatalf("expected last candidate %v, got %v", res.Candidate(desired, 3), got.Position)
	}
}

func TestResolveRejectsNonFiniteDesired(t *testing.T) {
	_, err := New(0, 0).Resolve(geometry.P(math.NaN(), 0), nil)
	if !errors.Is(err, geometry.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestZeroValueUsesDefaults(t *testing.T) {
	var r Resolver
	got := r.Candidate(geometry.P(0, 0), 2)
	want := geometry.Polar(geometry.P(0, 0), DefaultMinDistance+2*DefaultRadiusStep, 2*DefaultAngleStep)
	if !got.Equal(want) {
		t.Fatalf("zero-value candidate = %v, want %v", got, want)
	}
}
