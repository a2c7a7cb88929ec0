/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"travelcanvas/internal/domain"
	"travelcanvas/internal/geometry"
)

// Output styles
var (
	Brand  = color.New(color.FgHiGreen, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Warn   = color.New(color.FgYellow)
	Info   = color.New(color.FgCyan)
	Good   = color.New(color.FgGreen)
	Bad    = color.New(color.FgRed)
)

const shortIDLen = 8

// Table prints an aligned table to w. paint, when non-nil, styles a padded
// cell after the widths are measured.
func Table(w io.Writer, headers []string, rows [][]string, paint func(col int, cell string) string) {
	if len(rows) == 0 {
		return
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && utf8.RuneCountInString(cell) > widths[i] {
				widths[i] = utf8.RuneCountInString(cell)
			}
		}
	}

	headerLine := "  "
	sepLine := "  "
	for i, h := range headers {
		headerLine += pad(h, widths[i]) + "  "
		sepLine += strings.Repeat("─", widths[i]) + "  "
	}
	_, _ = Subtle.Fprintln(w, strings.TrimRight(headerLine, " "))
	_, _ = Subtle.Fprintln(w, strings.TrimRight(sepLine, " "))

	for _, row := range rows {
		line := "  "
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			padded := pad(cell, widths[i])
			if paint != nil {
				padded = paint(i, padded)
			}
			line += padded + "  "
		}
		_, _ = fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// typeColor returns the catalog color of t for terminal output.
func typeColor(t domain.NodeType) *color.Color {
	r, g, b := domain.TypeRGB(t)
	return color.RGB(int(r), int(g), int(b))
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func formatPoint(p geometry.Point) string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

func formatDate(n domain.Node) string {
	if n.Date == nil {
		return "-"
	}
	return n.Date.Format("2006-01-02")
}

func statusColor(st domain.Status) *color.Color {
	switch st {
	case domain.StatusConfirmed, domain.StatusCompleted:
		return Good
	case domain.StatusCancelled:
		return Bad
	default:
		return Warn
	}
}
