/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package drag implements the pointer drag state machine for canvas nodes.
//
// A Controller is Idle or Dragging exactly one node. PointerDown starts a
// session and subscribes the controller to surface-wide pointer events, so the
// node keeps following the pointer after it leaves the node's bounds. Every
// move is converted into a node position, clamped to the canvas and optionally
// snapped to the grid, then reported through the MoveFunc. PointerUp and Cancel
// end the session and unsubscribe. Events without a session are ignored.
package drag

import (
	"log/slog"
	"sync"

	"travelcanvas/internal/geometry"
	applog "travelcanvas/internal/log"
)

const (
	// DragThreshold is the pointer travel (surface units) after which a
	// gesture counts as a drag rather than a click.
	DragThreshold = 5.0
	// DefaultFootprint is the node size; the clamp margin is half of it.
	DefaultFootprint = 120.0
	DefaultGridSize  = 20.0
)

// Frame is the measured canvas surface. Pointer coordinates are relative to
// the surface; Origin is the canvas' offset within it.
type Frame struct {
	Width, Height float64
	Origin        geometry.Point
}

// Local converts a surface coordinate into canvas space.
func (f Frame) Local(p geometry.Point) geometry.Point { return p.Sub(f.Origin) }

// FrameProvider reports the current frame, or false before the canvas is measured.
type FrameProvider interface {
	Frame() (Frame, bool)
}

// FrameFunc adapts a function to FrameProvider.
type FrameFunc func() (Frame, bool)

func (f FrameFunc) Frame() (Frame, bool) { return f() }

// Settings exposes the grid-snap flag, read once per pointer move.
type Settings interface {
	GridSnap() bool
}

// GridSizer is optionally implemented by Settings to supply a live grid size.
type GridSizer interface {
	GridSize() float64
}

// MoveFunc receives every accepted position. It runs synchronously on the
// caller's goroutine and must not block.
type MoveFunc func(id string, p geometry.Point)

// Options tunes a Controller. Zero fields take the package defaults.
type Options struct {
	Footprint float64
	GridSize  float64
	Threshold float64
}

func (o Options) withDefaults() Options {
	if o.Footprint <= 0 {
		o.Footprint = DefaultFootprint
	}
	if o.GridSize <= 0 {
		o.GridSize = DefaultGridSize
	}
	if o.Threshold <= 0 {
		o.Threshold = DragThreshold
	}
	return o
}

// Session is the state of an in-progress gesture.
type Session struct {
	EntityID string
	// Offset is pointer (canvas space) minus node position at PointerDown.
	Offset geometry.Point
	// Origin is the surface coordinate of PointerDown.
	Origin geometry.Point
	Active bool
}

// Controller tracks at most one drag session. Methods are safe to call from
// any goroutine; the MoveFunc is invoked without internal locks held.
type Controller struct {
	frames   FrameProvider
	settings Settings
	surface  Surface
	onMove   MoveFunc
	opts     Options
	log      *slog.Logger

	mu          sync.Mutex
	session     Session
	dragged     bool // pointer travelled beyond the threshold in this session
	lastDragged bool // marker of the last completed gesture
	unsubscribe func()
}

// New builds an idle controller. settings and surface may be nil: no snapping,
// and no surface subscription respectively.
func New(frames FrameProvider, settings Settings, surface Surface, onMove MoveFunc, opts Options) *Controller {
	return &Controller{
		frames:   frames,
		settings: settings,
		surface:  surface,
		onMove:   onMove,
		opts:     opts.withDefaults(),
		log:      applog.WithComponent("drag"),
	}
}

// PointerDown starts dragging id. It returns false, leaving the controller
// untouched, when a session is already active or no frame is available.
func (c *Controller) PointerDown(id string, pointer, entityPos geometry.Point) bool {
	if c.frames == nil {
		return false
	}
	frame, ok := c.frames.Frame()
	if !ok {
		c.log.Debug("pointer down ignored: frame unavailable", slog.String("node", id))
		return false
	}
	if !pointer.IsFinite() || !entityPos.IsFinite() {
		return false
	}

	c.mu.Lock()
	if c.session.Active {
		c.mu.Unlock()
		return false
	}
	c.session = Session{
		EntityID: id,
		Offset:   frame.Local(pointer).Sub(entityPos),
		Origin:   pointer,
		Active:   true,
	}
	c.dragged = false
	c.mu.Unlock()

	// Subscribe outside the lock: a surface may deliver events synchronously.
	if c.surface != nil {
		unsub := c.surface.Subscribe(c)
		c.mu.Lock()
		if c.session.Active && c.session.EntityID == id {
			c.unsubscribe = unsub
			unsub = nil
		}
		c.mu.Unlock()
		if unsub != nil {
			unsub()
		}
	}
	c.log.Debug("drag started", slog.String("node", id))
	return true
}

// PointerMove moves the dragged node to follow pointer. Without an active
// session or a measurable frame it does nothing.
func (c *Controller) PointerMove(pointer geometry.Point) {
	if !pointer.IsFinite() {
		return
	}
	c.mu.Lock()
	s, opts := c.session, c.opts
	c.mu.Unlock()
	if !s.Active {
		return
	}
	frame, ok := c.frames.Frame()
	if !ok {
		return
	}

	pos := frame.Local(pointer).Sub(s.Offset)
	pos = geometry.Clamp(pos, frame.Width, frame.Height, opts.Footprint/2)
	if c.settings != nil && c.settings.GridSnap() {
		grid := opts.GridSize
		if gs, ok := c.settings.(GridSizer); ok && gs.GridSize() > 0 {
			grid = gs.GridSize()
		}
		if snapped, err := geometry.SnapToGrid(pos, grid); err == nil {
			pos = snapped
		} else {
			c.log.Debug("grid snap skipped", slog.Any("err", err))
		}
	}

	c.mu.Lock()
	if !c.session.Active || c.session.EntityID != s.EntityID {
		// ended while we were computing
		c.mu.Unlock()
		return
	}
	if geometry.Distance(pointer, s.Origin) > opts.Threshold {
		c.dragged = true
	}
	c.mu.Unlock()

	if c.onMove != nil {
		c.onMove(s.EntityID, pos)
	}
}

// SetOptions replaces the tuning. It applies from the next move, including
// moves of a session already in progress.
func (c *Controller) SetOptions(opts Options) {
	c.mu.Lock()
	c.opts = opts.withDefaults()
	c.mu.Unlock()
}

// PointerUp ends the gesture. It always succeeds.
func (c *Controller) PointerUp(geometry.Point) { c.end("drag finished") }

// Cancel ends the gesture without further moves. It always succeeds.
func (c *Controller) Cancel() { c.end("drag cancelled") }

func (c *Controller) end(msg string) {
	c.mu.Lock()
	if !c.session.Active {
		c.mu.Unlock()
		return
	}
	id := c.session.EntityID
	c.lastDragged = c.dragged
	c.dragged = false
	c.session = Session{}
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	c.log.Debug(msg, slog.String("node", id))
}

// IsDragging reports whether any session is active.
func (c *Controller) IsDragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Active
}

// IsDraggingEntity reports whether id is the node being dragged.
func (c *Controller) IsDraggingEntity(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Active && c.session.EntityID == id
}

// WasJustClicked reports whether the current gesture, or the last completed
// one when idle, stayed within the drag threshold. Callers use it to tell a
// tap on a node from the end of a drag.
func (c *Controller) WasJustClicked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Active {
		return !c.dragged
	}
	return !c.lastDragged
}

// Session returns a copy of the current session.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}
