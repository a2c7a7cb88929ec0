//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	tc "travelcanvas/internal/canvas"
	"travelcanvas/internal/domain"
	"travelcanvas/internal/drag"
	"travelcanvas/internal/geometry"
)

var (
	boardBackground = color.RGBA{R: 248, G: 248, B: 246, A: 255}
	gridColor       = color.RGBA{R: 225, G: 225, B: 222, A: 255}
	selectColor     = color.RGBA{R: 0, G: 120, B: 255, A: 255}
	labelColor      = color.RGBA{R: 40, G: 40, B: 40, A: 255}
)

// BoardCanvas draws the board's nodes and turns mouse input into drag
// gestures. It is the drag.Surface of the board: pointer moves and releases
// anywhere on the widget reach the active gesture.
type BoardCanvas struct {
	widget.BaseWidget

	board  *tc.Board
	events *drag.Dispatcher

	mu       sync.Mutex
	pressed  string // node under the last mouse down
	additive bool
	last     geometry.Point

	// OnChange runs after input changed nodes or the selection.
	OnChange func()
}

var (
	_ drag.Surface      = (*BoardCanvas)(nil)
	_ desktop.Mouseable = (*BoardCanvas)(nil)
	_ desktop.Hoverable = (*BoardCanvas)(nil)
	_ fyne.Draggable    = (*BoardCanvas)(nil)
)

func NewBoardCanvas(b *tc.Board, events *drag.Dispatcher) *BoardCanvas {
	c := &BoardCanvas{board: b, events: events}
	c.ExtendBaseWidget(c)
	return c
}

// Subscribe implements drag.Surface.
func (c *BoardCanvas) Subscribe(l drag.Listener) func() { return c.events.Subscribe(l) }

func (c *BoardCanvas) MinSize() fyne.Size { return fyne.NewSize(400, 300) }

func toPoint(p fyne.Position) geometry.Point { return geometry.P(float64(p.X), float64(p.Y)) }

func (c *BoardCanvas) radius() float64 { return c.board.Settings.Canvas().NodeSize / 4 }

// hitTest returns the topmost node whose marker contains p.
func (c *BoardCanvas) hitTest(p geometry.Point) string {
	nodes := c.board.Store.List()
	r := c.radius()
	for i := len(nodes) - 1; i >= 0; i-- {
		if geometry.InCircle(p, nodes[i].Position, r) {
			return nodes[i].ID
		}
	}
	return ""
}

func (c *BoardCanvas) MouseDown(e *desktop.MouseEvent) {
	p := toPoint(e.Position)
	id := c.hitTest(p)
	c.mu.Lock()
	c.pressed = id
	c.additive = e.Modifier&fyne.KeyModifierShift != 0
	c.last = p
	c.mu.Unlock()
	if id != "" {
		c.board.BeginDrag(id, p)
	}
}

func (c *BoardCanvas) Dragged(e *fyne.DragEvent) {
	p := toPoint(e.Position)
	c.mu.Lock()
	c.last = p
	c.mu.Unlock()
	c.events.Move(p)
	c.Refresh()
}

func (c *BoardCanvas) DragEnd() {
	c.mu.Lock()
	p := c.last
	c.mu.Unlock()
	c.events.Up(p)
}

func (c *BoardCanvas) MouseUp(e *desktop.MouseEvent) {
	c.events.Up(toPoint(e.Position))
	c.mu.Lock()
	id, additive := c.pressed, c.additive
	c.pressed = ""
	c.mu.Unlock()
	switch {
	case id != "":
		c.board.Click(id, additive)
	case !additive:
		c.board.Store.ClearSelection()
	}
	c.Refresh()
	c.changed()
}

func (c *BoardCanvas) MouseIn(e *desktop.MouseEvent) { c.hover(toPoint(e.Position)) }

func (c *BoardCanvas) MouseMoved(e *desktop.MouseEvent) { c.hover(toPoint(e.Position)) }

func (c *BoardCanvas) MouseOut() {
	if c.board.Store.Hovered() != "" {
		c.board.Store.Hover("")
		c.Refresh()
	}
}

func (c *BoardCanvas) hover(p geometry.Point) {
	if c.board.Controller.IsDragging() {
		return
	}
	id := c.hitTest(p)
	if id != c.board.Store.Hovered() {
		c.board.Store.Hover(id)
		c.Refresh()
	}
}

func (c *BoardCanvas) changed() {
	if c.OnChange != nil {
		c.OnChange()
	}
}

func (c *BoardCanvas) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(boardBackground)
	r := &boardRenderer{c: c, bg: bg}
	r.rebuild()
	return r
}

type nodeVisual struct {
	marker *canvas.Circle
	kind   *canvas.Text
	title  *canvas.Text
}

type boardRenderer struct {
	c       *BoardCanvas
	bg      *canvas.Rectangle
	grid    []*canvas.Line
	nodes   []nodeVisual
	objects []fyne.CanvasObject
}

func (r *boardRenderer) Destroy()                     {}
func (r *boardRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *boardRenderer) MinSize() fyne.Size           { return r.c.MinSize() }

func (r *boardRenderer) Refresh() {
	r.rebuild()
	r.Layout(r.c.Size())
	canvas.Refresh(r.c)
}

// rebuild recreates the node visuals from the store.
func (r *boardRenderer) rebuild() {
	b := r.c.board
	nodes := b.Store.List()
	hovered := b.Store.Hovered()
	r.nodes = make([]nodeVisual, 0, len(nodes))
	for _, n := range nodes {
		cr, cg, cb := domain.TypeRGB(n.Type)
		m := canvas.NewCircle(color.RGBA{R: cr, G: cg, B: cb, A: 255})
		m.StrokeColor = color.RGBA{R: cr / 2, G: cg / 2, B: cb / 2, A: 255}
		m.StrokeWidth = 1
		if b.Store.IsSelected(n.ID) {
			m.StrokeColor = selectColor
			m.StrokeWidth = 3
		} else if n.ID == hovered {
			m.StrokeWidth = 2
		}
		kind := canvas.NewText(n.Type.Label(), color.White)
		kind.TextSize = 9
		kind.Alignment = fyne.TextAlignCenter
		title := canvas.NewText(n.Title, labelColor)
		title.TextSize = 12
		title.Alignment = fyne.TextAlignCenter
		r.nodes = append(r.nodes, nodeVisual{marker: m, kind: kind, title: title})
	}
	r.objects = make([]fyne.CanvasObject, 0, 1+len(r.grid)+3*len(r.nodes))
	r.objects = append(r.objects, r.bg)
	for _, l := range r.grid {
		r.objects = append(r.objects, l)
	}
	for _, v := range r.nodes {
		r.objects = append(r.objects, v.marker, v.kind, v.title)
	}
}

func (r *boardRenderer) Layout(size fyne.Size) {
	b := r.c.board
	b.Resize(float64(size.Width), float64(size.Height))
	r.bg.Resize(size)
	r.bg.Move(fyne.NewPos(0, 0))
	r.layoutGrid(size)

	rad := float32(r.c.radius())
	nodes := b.Store.List()
	for i, v := range r.nodes {
		if i >= len(nodes) {
			break
		}
		p := nodes[i].Position
		x, y := float32(p.X), float32(p.Y)
		v.marker.Move(fyne.NewPos(x-rad, y-rad))
		v.marker.Resize(fyne.NewSize(2*rad, 2*rad))
		v.kind.Move(fyne.NewPos(x-rad, y-7))
		v.kind.Resize(fyne.NewSize(2*rad, 14))
		v.title.Move(fyne.NewPos(x-2*rad, y+rad+2))
		v.title.Resize(fyne.NewSize(4*rad, 16))
	}
}

// layoutGrid shows grid lines while snapping is on.
func (r *boardRenderer) layoutGrid(size fyne.Size) {
	settings := r.c.board.Settings
	step := float32(settings.GridSize())
	var xs, ys []float32
	if settings.GridSnap() && step > 0 {
		for x := step; x < size.Width; x += step {
			xs = append(xs, x)
		}
		for y := step; y < size.Height; y += step {
			ys = append(ys, y)
		}
	}
	if len(xs)+len(ys) != len(r.grid) {
		r.grid = make([]*canvas.Line, 0, len(xs)+len(ys))
		for i := 0; i < len(xs)+len(ys); i++ {
			l := canvas.NewLine(gridColor)
			l.StrokeWidth = 1
			r.grid = append(r.grid, l)
		}
		r.rebuild()
	}
	for i, x := range xs {
		r.grid[i].Position1 = fyne.NewPos(x, 0)
		r.grid[i].Position2 = fyne.NewPos(x, size.Height)
	}
	for j, y := range ys {
		l := r.grid[len(xs)+j]
		l.Position1 = fyne.NewPos(0, y)
		l.Position2 = fyne.NewPos(size.Width, y)
	}
}
