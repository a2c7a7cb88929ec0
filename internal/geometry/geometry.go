/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geometry holds the 2D value types and pure functions used to place
// and move nodes on the canvas. Nothing here keeps state.
package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument is returned for non-finite coordinates and non-positive grid sizes.
var ErrInvalidArgument = errors.New("invalid argument")

// Point is a position in canvas space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func P(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(q Point) Point     { return Point{X: p.X + q.X, Y: p.Y + q.Y} }
func (p Point) Sub(q Point) Point     { return Point{X: p.X - q.X, Y: p.Y - q.Y} }
func (p Point) Scale(f float64) Point { return Point{X: p.X * f, Y: p.Y * f} }
func (p Point) String() string        { return fmt.Sprintf("(%g,%g)", p.X, p.Y) }
func (p Point) IsFinite() bool        { return finite(p.X) && finite(p.Y) }
func (p Point) Equal(q Point) bool    { return p.X == q.X && p.Y == q.Y }
func (p Point) Near(q Point, eps float64) bool {
	return math.Abs(p.X-q.X) <= eps && math.Abs(p.Y-q.Y) <= eps
}

// Validate reports ErrInvalidArgument for NaN or infinite coordinates.
func Validate(p Point) error {
	if !p.IsFinite() {
		return fmt.Errorf("%w: non-finite position %v", ErrInvalidArgument, p)
	}
	return nil
}

// Distance is the Euclidean distance between a and b.
func Distance(a, b Point) float64 { return math.Hypot(b.X-a.X, b.Y-a.Y) }

// Angle returns the direction of from->to in radians, in (-Pi, Pi].
// The zero vector yields 0.
func Angle(from, to Point) float64 { return math.Atan2(to.Y-from.Y, to.X-from.X) }

// Clamp restricts each axis of p to [margin, dim-margin]. When a dimension is
// smaller than 2*margin both bounds collapse to dim/2.
func Clamp(p Point, width, height, margin float64) Point {
	return Point{X: clampAxis(p.X, width, margin), Y: clampAxis(p.Y, height, margin)}
}

func clampAxis(v, dim, margin float64) float64 {
	lo, hi := margin, dim-margin
	if dim < 2*margin {
		lo, hi = dim/2, dim/2
	}
	return math.Max(lo, math.Min(hi, v))
}

// SnapToGrid rounds each axis to the nearest multiple of grid. Halves round up
// (towards +Inf), so 30.5 cells becomes 31 and -30.5 becomes -30.
func SnapToGrid(p Point, grid float64) (Point, error) {
	if !(grid > 0) || math.IsInf(grid, 1) {
		return p, fmt.Errorf("%w: grid size %v", ErrInvalidArgument, grid)
	}
	if err := Validate(p); err != nil {
		return p, err
	}
	return Point{X: snapAxis(p.X, grid), Y: snapAxis(p.Y, grid)}, nil
}

func snapAxis(v, grid float64) float64 {
	s := math.Floor(v/grid+0.5) * grid
	if s == 0 {
		return 0 // no negative zero
	}
	return s
}

// Rect is an axis-aligned rectangle given by its min corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Min() Point    { return Point{X: r.X, Y: r.Y} }
func (r Rect) Max() Point    { return Point{X: r.X + r.W, Y: r.Y + r.H} }
func (r Rect) Center() Point { return Point{X: r.X + r.W/2, Y: r.Y + r.H/2} }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Inset shrinks r by dx,dy on every side (negative grows).
func (r Rect) Inset(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - 2*dx, H: r.H - 2*dy}
}

// Around returns the square of the given size centered on p.
func Around(p Point, size float64) Rect {
	return Rect{X: p.X - size/2, Y: p.Y - size/2, W: size, H: size}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
