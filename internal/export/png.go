/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"travelcanvas/internal/domain"
)

var (
	white    = color.RGBA{255, 255, 255, 255}
	gridGrey = color.RGBA{230, 230, 230, 255}
	ink      = color.RGBA{40, 40, 40, 255}
)

// Render rasterizes the board. Labels use the fixed 7x13 bitmap face so the
// output does not depend on installed fonts.
func Render(nodes []domain.Node, opt Options) *image.RGBA {
	opt = opt.withDefaults()
	w, h := opt.pageSize(nodes)
	s := opt.Scale
	img := image.NewRGBA(image.Rect(0, 0, int(math.Ceil(w*s)), int(math.Ceil(h*s))))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: white}, image.Point{}, draw.Src)

	if opt.Grid {
		step := opt.GridSize * s
		for x := step; x < float64(img.Bounds().Dx()); x += step {
			vline(img, int(math.Round(x)), gridGrey)
		}
		for y := step; y < float64(img.Bounds().Dy()); y += step {
			hline(img, int(math.Round(y)), gridGrey)
		}
	}

	face := basicfont.Face7x13
	if opt.Title != "" {
		drawLabel(img, face, opt.Title, 8, 18, ink)
	}
	r := opt.markerRadius() * s
	for _, n := range nodes {
		if !n.Position.IsFinite() {
			continue
		}
		cr, cg, cb := domain.TypeRGB(n.Type)
		fill := color.RGBA{cr, cg, cb, 255}
		edge := color.RGBA{cr / 2, cg / 2, cb / 2, 255}
		cx, cy := n.Position.X*s, n.Position.Y*s
		fillCircle(img, cx, cy, r, fill)
		strokeCircle(img, cx, cy, r, edge)

		lw := font.MeasureString(face, n.Title).Round()
		drawLabel(img, face, n.Title, int(math.Round(cx))-lw/2, int(math.Round(cy+r))+14, ink)
	}
	return img
}

// PNG renders the board and writes it to path.
func PNG(path string, nodes []domain.Node, opt Options) error {
	img := Render(nodes, opt)
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

func drawLabel(img *image.RGBA, face font.Face, s string, x, y int, col color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func fillCircle(img *image.RGBA, cx, cy, r float64, col color.RGBA) {
	b := img.Bounds()
	x0, x1 := int(math.Floor(cx-r)), int(math.Ceil(cx+r))
	y0, y1 := int(math.Floor(cy-r)), int(math.Ceil(cy+r))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if !(image.Point{X: x, Y: y}).In(b) {
				continue
			}
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if dx*dx+dy*dy <= r*r {
				img.SetRGBA(x, y, col)
			}
		}
	}
}

// strokeCircle draws a 1px ring just inside radius r.
func strokeCircle(img *image.RGBA, cx, cy, r float64, col color.RGBA) {
	b := img.Bounds()
	x0, x1 := int(math.Floor(cx-r)), int(math.Ceil(cx+r))
	y0, y1 := int(math.Floor(cy-r)), int(math.Ceil(cy+r))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if !(image.Point{X: x, Y: y}).In(b) {
				continue
			}
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			d := math.Sqrt(dx*dx + dy*dy)
			if d <= r && d > r-1 {
				img.SetRGBA(x, y, col)
			}
		}
	}
}

func vline(img *image.RGBA, x int, col color.RGBA) {
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		img.SetRGBA(x, y, col)
	}
}

func hline(img *image.RGBA, y int, col color.RGBA) {
	for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
		img.SetRGBA(x, y, col)
	}
}
