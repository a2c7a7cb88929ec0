/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders the board to PDF and PNG.
package export

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"travelcanvas/internal/domain"
)

const (
	defaultWidth    = 1200.0
	defaultHeight   = 800.0
	defaultNodeSize = 120.0
	defaultGrid     = 20.0
)

// Options controls both exporters. Coordinates are canvas units; the PDF maps
// one unit to one point, the PNG to Scale pixels.
type Options struct {
	// Width and Height of the board. The page grows to fit nodes placed
	// outside it.
	Width, Height float64
	NodeSize      float64
	Grid          bool
	GridSize      float64
	Title         string
	Scale         float64 // PNG only
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = defaultWidth
	}
	if o.Height <= 0 {
		o.Height = defaultHeight
	}
	if o.NodeSize <= 0 {
		o.NodeSize = defaultNodeSize
	}
	if o.GridSize <= 0 {
		o.GridSize = defaultGrid
	}
	if o.Scale <= 0 {
		o.Scale = 1
	}
	return o
}

// pageSize returns the board size enlarged to contain every node's footprint.
func (o Options) pageSize(nodes []domain.Node) (w, h float64) {
	w, h = o.Width, o.Height
	half := o.NodeSize / 2
	for _, n := range nodes {
		if !n.Position.IsFinite() {
			continue
		}
		w = math.Max(w, n.Position.X+half)
		h = math.Max(h, n.Position.Y+half)
	}
	return w, h
}

// markerRadius is the radius of the circle drawn for a node.
func (o Options) markerRadius() float64 { return o.NodeSize / 4 }

func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	return nil
}
