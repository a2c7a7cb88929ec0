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

	"github.com/jung-kurt/gofpdf"

	"travelcanvas/internal/domain"
)

// PDF writes the board as a single-page vector PDF: one filled circle per
// node in its type color with the title underneath, optionally over a grid.
// Built-in Helvetica keeps the file free of embedded fonts.
func PDF(path string, nodes []domain.Node, opt Options) error {
	opt = opt.withDefaults()
	w, h := opt.pageSize(nodes)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: w, Ht: h},
	})
	title := opt.Title
	if title == "" {
		title = "Travel Canvas"
	}
	pdf.SetTitle(title, true)
	pdf.SetAuthor("travelcanvas", false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if opt.Grid {
		pdf.SetDrawColor(230, 230, 230)
		pdf.SetLineWidth(0.3)
		for x := opt.GridSize; x < w; x += opt.GridSize {
			pdf.Line(x, 0, x, h)
		}
		for y := opt.GridSize; y < h; y += opt.GridSize {
			pdf.Line(0, y, w, y)
		}
	}

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(40, 40, 40)
	pdf.Text(12, 22, tr(title))

	r := opt.markerRadius()
	pdf.SetLineWidth(1)
	for _, n := range nodes {
		if !n.Position.IsFinite() {
			continue
		}
		cr, cg, cb := domain.TypeRGB(n.Type)
		pdf.SetFillColor(int(cr), int(cg), int(cb))
		pdf.SetDrawColor(int(cr)/2, int(cg)/2, int(cb)/2)
		pdf.Circle(n.Position.X, n.Position.Y, r, "FD")

		pdf.SetFont("Helvetica", "", 10)
		label := tr(n.Title)
		lw := pdf.GetStringWidth(label)
		pdf.Text(n.Position.X-lw/2, n.Position.Y+r+12, label)

		pdf.SetFont("Helvetica", "", 7)
		sub := tr(n.Type.Label())
		sw := pdf.GetStringWidth(sub)
		pdf.Text(n.Position.X-sw/2, n.Position.Y+2.5, sub)
	}

	if err := ensureDir(path); err != nil {
		return err
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
