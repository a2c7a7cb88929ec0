/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package placement finds a spawn position for a new node that keeps a
// minimum distance to the nodes already on the canvas.
//
// The search walks an outward spiral around the desired point: attempt k
// (starting at 1) tries angle k*AngleStep at radius MinDistance + k*RadiusStep.
// The first candidate clear of every occupied point wins. When the budget runs
// out the last candidate is returned anyway and Result.Exhausted is set; the
// caller decides whether an overlapping node is acceptable.
package placement

import (
	"math"

	"travelcanvas/internal/geometry"
)

const (
	DefaultMinDistance = 150.0
	DefaultMaxAttempts = 50
	DefaultAngleStep   = math.Pi / 6 // 30 degrees
	DefaultRadiusStep  = 10.0
)

// Resolver holds the placement policy. The zero value uses the defaults.
type Resolver struct {
	MinDistance float64
	MaxAttempts int
	AngleStep   float64
	RadiusStep  float64
}

// Result describes a resolved placement.
type Result struct {
	Position geometry.Point
	// Attempts is the number of spiral candidates generated; 0 when the
	// desired point was free.
	Attempts int
	// Exhausted is set when no candidate cleared the constraint.
	Exhausted bool
}

// New returns a resolver with the given separation and budget; non-positive
// values fall back to the defaults.
func New(minDistance float64, maxAttempts int) Resolver {
	return Resolver{MinDistance: minDistance, MaxAttempts: maxAttempts}.withDefaults()
}

func (r Resolver) withDefaults() Resolver {
	if !(r.MinDistance > 0) {
		r.MinDistance = DefaultMinDistance
	}
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = DefaultMaxAttempts
	}
	if !(r.AngleStep > 0) {
		r.AngleStep = DefaultAngleStep
	}
	if !(r.RadiusStep > 0) {
		r.RadiusStep = DefaultRadiusStep
	}
	return r
}

// Resolve returns desired if it is at least MinDistance from every occupied
// point, otherwise the first clear spiral candidate. The order of occupied does
// not affect the result.
func (r Resolver) Resolve(desired geometry.Point, occupied []geometry.Point) (Result, error) {
	if err := geometry.Validate(desired); err != nil {
		return Result{Position: desired}, err
	}
	r = r.withDefaults()
	if r.clear(desired, occupied) {
		return Result{Position: desired}, nil
	}
	var candidate geometry.Point
	for k := 1; k <= r.MaxAttempts; k++ {
		candidate = r.Candidate(desired, k)
		if r.clear(candidate, occupied) {
			return Result{Position: candidate, Attempts: k}, nil
		}
	}
	return Result{Position: candidate, Attempts: r.MaxAttempts, Exhausted: true}, nil
}

// Candidate returns the k-th spiral point around desired (k >= 1).
func (r Resolver) Candidate(desired geometry.Point, k int) geometry.Point {
	r = r.withDefaults()
	kf := float64(k)
	return geometry.Polar(desired, r.MinDistance+kf*r.RadiusStep, kf*r.AngleStep)
}

// clear reports whether p keeps MinDistance to all occupied points.
// Non-finite occupied entries never conflict.
func (r Resolver) clear(p geometry.Point, occupied []geometry.Point) bool {
	for _, o := range occupied {
		if geometry.Distance(p, o) < r.MinDistance {
			return false
		}
	}
	return true
}
