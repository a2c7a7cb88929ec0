/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package canvas ties the node store, the placement resolver and the drag
// controller into one board.
package canvas

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"travelcanvas/internal/config"
	"travelcanvas/internal/domain"
	"travelcanvas/internal/drag"
	"travelcanvas/internal/geometry"
	applog "travelcanvas/internal/log"
	"travelcanvas/internal/placement"
	"travelcanvas/internal/store"
	"travelcanvas/internal/telemetry"
)

// JitterRange is the width of the random offset applied to the default
// placement point, centred on zero.
const JitterRange = 200.0

// DefaultCenter is used for placement before the board has been measured.
var DefaultCenter = geometry.P(400, 300)

// Options wires optional collaborators into a Board.
type Options struct {
	// Surface delivers surface-wide pointer events to the drag controller.
	Surface drag.Surface
	// Telemetry receives usage events; nil disables them.
	Telemetry telemetry.Emitter
	// Rand provides placement jitter; nil seeds one from the clock.
	Rand *rand.Rand
}

// Board is the interactive canvas. It implements drag.FrameProvider.
type Board struct {
	Store      *store.Store
	Settings   *config.Settings
	Controller *drag.Controller

	surface drag.Surface
	events  telemetry.Emitter
	log     *slog.Logger

	mu       sync.RWMutex
	resolver placement.Resolver
	rnd      *rand.Rand
	frame    drag.Frame
	sized    bool
	watch    *dragWatch
}

// New builds a board over st. Placement and drag constants come from
// settings, which the board follows when they change.
func New(st *store.Store, settings *config.Settings, opts Options) *Board {
	if settings == nil {
		settings = config.NewSettings(config.Defaults().Canvas)
	}
	c := settings.Canvas()
	b := &Board{
		Store:    st,
		Settings: settings,
		surface:  opts.Surface,
		events:   opts.Telemetry,
		log:      applog.WithComponent("canvas"),
		resolver: placement.New(c.MinDistance, c.MaxAttempts),
		rnd:      opts.Rand,
	}
	if b.events == nil {
		b.events = telemetry.Nop{}
	}
	if b.rnd == nil {
		b.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	b.Controller = drag.New(b, settings, opts.Surface, b.MoveNode, drag.Options{
		Footprint: c.NodeSize,
		GridSize:  c.GridSize,
	})
	settings.OnChange(func(c config.CanvasConfig) {
		b.mu.Lock()
		b.resolver = placement.New(c.MinDistance, c.MaxAttempts)
		b.mu.Unlock()
		b.Controller.SetOptions(drag.Options{Footprint: c.NodeSize, GridSize: c.GridSize})
	})
	return b
}

// Frame implements drag.FrameProvider.
func (b *Board) Frame() (drag.Frame, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frame, b.sized
}

// Resize records the measured canvas size. Non-positive sizes mark the board
// as unmeasured.
func (b *Board) Resize(width, height float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frame.Width, b.frame.Height = width, height
	b.sized = width > 0 && height > 0
}

// SetOrigin records where the canvas sits inside the pointer surface.
func (b *Board) SetOrigin(p geometry.Point) {
	b.mu.Lock()
	b.frame.Origin = p
	b.mu.Unlock()
}

// Center is the default placement point.
func (b *Board) Center() geometry.Point {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.sized {
		return DefaultCenter
	}
	return geometry.Center(b.frame.Width, b.frame.Height)
}

func (b *Board) jitter() geometry.Point {
	b.mu.Lock()
	defer b.mu.Unlock()
	return geometry.P((b.rnd.Float64()-0.5)*JitterRange, (b.rnd.Float64()-0.5)*JitterRange)
}

// AddNode creates a node of type t. Without a desired point the node goes
// near the centre; either way the resolver moves it clear of existing nodes.
// An empty title takes the type's default.
func (b *Board) AddNode(t domain.NodeType, title string, desired *geometry.Point) (domain.Node, error) {
	if !t.Valid() {
		return domain.Node{}, fmt.Errorf("add node: unknown type %q", t)
	}
	var want geometry.Point
	if desired != nil {
		want = *desired
	} else {
		want = b.Center().Add(b.jitter())
	}
	b.mu.RLock()
	r := b.resolver
	b.mu.RUnlock()
	res, err := r.Resolve(want, b.Store.Positions())
	if err != nil {
		return domain.Node{}, fmt.Errorf("add node: %w", err)
	}
	if res.Exhausted {
		b.log.Warn("placement budget exhausted; node may overlap", slog.String("type", string(t)), slog.Int("attempts", res.Attempts))
	}
	n := domain.NewNode(t, res.Position, title)
	if err := b.Store.Insert(n); err != nil {
		return domain.Node{}, fmt.Errorf("add node: %w", err)
	}
	b.events.Event(telemetry.EventNodeCreated, map[string]any{
		"type":      string(t),
		"attempts":  res.Attempts,
		"exhausted": res.Exhausted,
	})
	return n, nil
}

// MoveNode is the drag controller's MoveFunc.
func (b *Board) MoveNode(id string, p geometry.Point) { b.Store.UpsertPosition(id, p) }

// BeginDrag starts dragging node id from the surface point pointer.
func (b *Board) BeginDrag(id string, pointer geometry.Point) bool {
	n, ok := b.Store.Get(id)
	if !ok {
		return false
	}
	if !b.Controller.PointerDown(id, pointer, n.Position) {
		return false
	}
	if b.surface != nil {
		w := &dragWatch{board: b, id: id}
		w.unsubscribe = b.surface.Subscribe(w)
		b.mu.Lock()
		stale := b.watch
		b.watch = w
		b.mu.Unlock()
		if stale != nil {
			stale.stop()
		}
	}
	return true
}

// CancelDrag abandons the current gesture without reporting it.
func (b *Board) CancelDrag() {
	b.mu.Lock()
	w := b.watch
	b.watch = nil
	b.mu.Unlock()
	if w != nil {
		w.stop()
	}
	b.Controller.Cancel()
}

// Click handles a tap on node id after the pointer was released. It selects
// the node unless the gesture was a drag; additive toggles membership
// instead. It reports whether the selection changed.
func (b *Board) Click(id string, additive bool) bool {
	if !b.Controller.WasJustClicked() {
		return false
	}
	if _, ok := b.Store.Get(id); !ok {
		return false
	}
	if additive {
		b.Store.ToggleSelection(id)
	} else {
		b.Store.Select(id)
	}
	return true
}

// Duplicate copies node id, see store.Store.Duplicate.
func (b *Board) Duplicate(id string) (domain.Node, error) { return b.Store.Duplicate(id) }

// Delete removes the given nodes and returns how many existed.
func (b *Board) Delete(ids ...string) int { return b.Store.RemoveMany(ids) }

// Nodes returns the nodes matching f.
func (b *Board) Nodes(f domain.Filter) []domain.Node { return b.Store.Find(f) }

// Snapshot returns all nodes; used for crash snapshots.
func (b *Board) Snapshot() []domain.Node { return b.Store.List() }

// dragWatch reports the end of one gesture to telemetry.
type dragWatch struct {
	board       *Board
	id          string
	once        sync.Once
	unsubscribe func()
}

func (w *dragWatch) PointerMove(geometry.Point) {}

func (w *dragWatch) PointerUp(geometry.Point) {
	w.once.Do(func() {
		moved := !w.board.Controller.WasJustClicked()
		w.board.events.Event(telemetry.EventDragFinished, map[string]any{"moved": moved})
		w.release()
	})
}

// stop detaches the watch without emitting anything.
func (w *dragWatch) stop() { w.once.Do(w.release) }

func (w *dragWatch) release() {
	if w.unsubscribe != nil {
		w.unsubscribe()
	}
	w.board.mu.Lock()
	if w.board.watch == w {
		w.board.watch = nil
	}
	w.board.mu.Unlock()
}
