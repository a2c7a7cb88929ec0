/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

import "math"

// Polar returns the point at radius r and angle rad around c.
func Polar(c Point, r, rad float64) Point {
	return Point{X: c.X + r*math.Cos(rad), Y: c.Y + r*math.Sin(rad)}
}

// MoveTowards steps d units from `from` in the direction of `to`.
func MoveTowards(from, to Point, d float64) Point {
	return Polar(from, d, Angle(from, to))
}

// InCircle reports whether p lies inside or on the circle (c, r).
func InCircle(p, c Point, r float64) bool { return Distance(p, c) <= r }

// CircleIntersection returns the two intersection points of the circles
// (c1, r1) and (c2, r2). Concentric, disjoint or nested circles yield nil.
// Tangent circles yield the touching point twice.
func CircleIntersection(c1 Point, r1 float64, c2 Point, r2 float64) []Point {
	d := Distance(c1, c2)
	if d == 0 || d > r1+r2 || d < math.Abs(r1-r2) {
		return nil
	}
	a := (r1*r1 - r2*r2 + d*d) / (2 * d)
	h := math.Sqrt(math.Max(0, r1*r1-a*a))
	ux, uy := (c2.X-c1.X)/d, (c2.Y-c1.Y)/d
	mid := Point{X: c1.X + a*ux, Y: c1.Y + a*uy}
	return []Point{
		{X: mid.X + h*uy, Y: mid.Y - h*ux},
		{X: mid.X - h*uy, Y: mid.Y + h*ux},
	}
}

// Center returns the middle of a width x height surface.
func Center(width, height float64) Point { return Point{X: width / 2, Y: height / 2} }

// Viewport returns the canvas region visible at the given zoom and pan.
// A non-positive zoom is treated as 1.
func Viewport(width, height, zoom float64, pan Point) Rect {
	if zoom <= 0 {
		zoom = 1
	}
	return Rect{X: -pan.X, Y: -pan.Y, W: width / zoom, H: height / zoom}
}

// DistributeInCircle spreads n points evenly on the circle (c, r), starting at angle 0.
func DistributeInCircle(c Point, r float64, n int) []Point {
	if n <= 0 {
		return nil
	}
	out := make([]Point, n)
	step := 2 * math.Pi / float64(n)
	for i := range out {
		out[i] = Polar(c, r, float64(i)*step)
	}
	return out
}

// DistributeInGrid lays out n points row by row, `columns` per row.
func DistributeInGrid(start Point, columns int, spacing float64, n int) []Point {
	if n <= 0 || columns <= 0 {
		return nil
	}
	out := make([]Point, n)
	for i := range out {
		row, col := i/columns, i%columns
		out[i] = Point{X: start.X + float64(col)*spacing, Y: start.Y + float64(row)*spacing}
	}
	return out
}
