/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drag

import (
	"testing"

	"travelcanvas/internal/geometry"
)

type snapFlag struct {
	on    bool
	size  float64
	reads int
}

func (s *snapFlag) GridSnap() bool { s.reads++; return s.on }
func (s *snapFlag) GridSize() float64 {
	return s.size
}

type moveLog struct {
	ids []string
	pos []geometry.Point
}

func (m *moveLog) record(id string, p geometry.Point) {
	m.ids = append(m.ids, id)
	m.pos = append(m.pos, p)
}

func (m *moveLog) last() geometry.Point { return m.pos[len(m.pos)-1] }

func fixedFrame(w, h float64, origin geometry.Point) FrameProvider {
	return FrameFunc(func() (Frame, bool) { return Frame{Width: w, Height: h, Origin: origin}, true })
}

func newTestController(settings Settings) (*Controller, *Dispatcher, *moveLog) {
	d := NewDispatcher()
	m := &moveLog{}
	c := New(fixedFrame(1200, 800, geometry.P(0, 0)), settings, d, m.record, Options{})
	return c, d, m
}

func TestDragClampsToCanvasCorner(t *testing.T) {
	c, d, m := newTestController(nil)
	if !c.PointerDown("n1", geometry.P(600, 400), geometry.P(600, 400)) {
		t.Fatal("pointer down rejected")
	}
	d.Move(geometry.P(50, 50))
	if len(m.pos) != 1 || m.ids[0] != "n1" {
		t.Fatalf("expected one move for n1, got %v", m.ids)
	}
	if !m.last().Equal(geometry.P(60, 60)) {
		t.Fatalf("position = %v, want (60,60)", m.last())
	}
	d.Up(geometry.P(50, 50))
	if c.IsDragging() || d.Len() != 0 {
		t.Fatalf("pointer up should end the session and unsubscribe")
	}
}

func TestDragOffsetPreservesGrabPoint(t *testing.T) {
	d := NewDispatcher()
	m := &moveLog{}
	c := New(fixedFrame(1200, 800, geometry.P(100, 50)), nil, d, m.record, Options{})
	// Grab the node 10px right of its center, with the canvas offset in the surface.
	c.PointerDown("n1", geometry.P(710, 450), geometry.P(600, 400))
	if s := c.Session(); !s.Offset.Equal(geometry.P(10, 0)) || !s.Origin.Equal(geometry.P(710, 450)) {
		t.Fatalf("unexpected session: %+v", s)
	}
	d.Move(geometry.P(710, 450))
	if !m.last().Equal(geometry.P(600, 400)) {
		t.Fatalf("zero movement moved the node to %v", m.last())
	}
	d.Move(geometry.P(760, 480))
	if !m.last().Equal(geometry.P(650, 430)) {
		t.Fatalf("position = %v, want (650,430)", m.last())
	}
}

func TestDragSnapsWhenEnabledAndReadsFlagPerMove(t *testing.T) {
	flag := &snapFlag{on: true}
	c, d, m := newTestController(flag)
	c.PointerDown("n1", geometry.P(605, 615), geometry.P(605, 615))
	d.Move(geometry.P(605, 615))
	if !m.last().Equal(geometry.P(600, 620)) {
		t.Fatalf("snapped = %v, want (600,620)", m.last())
	}
	flag.on = false
	d.Move(geometry.P(607, 611))
	if !m.last().Equal(geometry.P(607, 611)) {
		t.Fatalf("unsnapped = %v", m.last())
	}
	flag.on, flag.size = true, 50
	d.Move(geometry.P(630, 611))
	if !m.last().Equal(geometry.P(650, 600)) {
		t.Fatalf("live grid size ignored: %v", m.last())
	}
	if flag.reads != 3 {
		t.Fatalf("grid flag read %d times, want 3", flag.reads)
	}
}

func TestSecondPointerDownIsIgnored(t *testing.T) {
	c, d, _ := newTestController(nil)
	c.PointerDown("a", geometry.P(100, 100), geometry.P(100, 100))
	if c.PointerDown("b", geometry.P(300, 300), geometry.P(300, 300)) {
		t.Fatal("second pointer down accepted")
	}
	if !c.IsDraggingEntity("a") || c.IsDraggingEntity("b") {
		t.Fatalf("session changed: %+v", c.Session())
	}
	if d.Len() != 1 {
		t.Fatalf("subscriptions = %d, want 1", d.Len())
	}
}

func TestPointerDownWithoutFrameIsNoOp(t *testing.T) {
	d := NewDispatcher()
	c := New(FrameFunc(func() (Frame, bool) { return Frame{}, false }), nil, d, nil, Options{})
	if c.PointerDown("n1", geometry.P(1, 1), geometry.P(1, 1)) {
		t.Fatal("pointer down without frame accepted")
	}
	if c.IsDragging() || d.Len() != 0 {
		t.Fatal("controller should remain idle")
	}
}

func TestIdleEventsAreIgnored(t *testing.T) {
	c, _, m := newTestController(nil)
	c.PointerMove(geometry.P(10, 10))
	c.PointerUp(geometry.P(10, 10))
	c.Cancel()
	if len(m.pos) != 0 || c.IsDragging() {
		t.Fatal("idle controller reacted to events")
	}
	if !c.WasJustClicked() {
		t.Fatal("fresh controller should report a click")
	}
}

func TestWasJustClicked(t *testing.T) {
	c, d, _ := newTestController(nil)

	c.PointerDown("n1", geometry.P(200, 200), geometry.P(200, 200))
	d.Up(geometry.P(200, 200))
	if !c.WasJustClicked() {
		t.Fatal("down/up without movement should be a click")
	}

	c.PointerDown("n1", geometry.P(200, 200), geometry.P(200, 200))
	d.Move(geometry.P(203, 204)) // exactly 5px: still a click
	if !c.WasJustClicked() {
		t.Fatal("5px displacement should not count as a drag")
	}
	d.Move(geometry.P(206, 200))
	d.Move(geometry.P(200, 200)) // returning does not undo the drag
	d.Up(geometry.P(200, 200))
	if c.WasJustClicked() {
		t.Fatal("drag beyond threshold reported as click")
	}

	c.PointerDown("n1", geometry.P(200, 200), geometry.P(200, 200))
	if !c.WasJustClicked() {
		t.Fatal("new gesture should start as a click")
	}
	c.Cancel()
	if !c.WasJustClicked() {
		t.Fatal("cancelled stationary gesture should be a click")
	}
}

func TestCancelUnsubscribesAndStopsMoves(t *testing.T) {
	c, d, m := newTestController(nil)
	c.PointerDown("n1", geometry.P(200, 200), geometry.P(200, 200))
	c.Cancel()
	d.Move(geometry.P(400, 400))
	if len(m.pos) != 0 {
		t.Fatalf("moves after cancel: %v", m.pos)
	}
	if d.Len() != 0 {
		t.Fatal("cancel should unsubscribe")
	}
	// A new session can start right away.
	if !c.PointerDown("n2", geometry.P(1, 1), geometry.P(1, 1)) {
		t.Fatal("controller not reusable after cancel")
	}
}

func TestMoveCallbackMayQueryController(t *testing.T) {
	d := NewDispatcher()
	var c *Controller
	var seen bool
	c = New(fixedFrame(1200, 800, geometry.P(0, 0)), nil, d, func(id string, _ geometry.Point) {
		seen = c.IsDraggingEntity(id)
	}, Options{})
	c.PointerDown("n1", geometry.P(300, 300), geometry.P(300, 300))
	d.Move(geometry.P(320, 300))
	if !seen {
		t.Fatal("callback could not observe the active session")
	}
}

func TestFootprintOptionSetsClampMargin(t *testing.T) {
	d := NewDispatcher()
	m := &moveLog{}
	c := New(fixedFrame(1200, 800, geometry.P(0, 0)), nil, d, m.record, Options{Footprint: 200})
	c.PointerDown("n1", geometry.P(600, 400), geometry.P(600, 400))
	d.Move(geometry.P(2000, -50))
	if !m.last().Equal(geometry.P(1100, 100)) {
		t.Fatalf("position = %v, want (1100,100)", m.last())
	}
}

func TestSetOptionsAppliesToActiveSession(t *testing.T) {
	d := NewDispatcher()
	m := &moveLog{}
	c := New(fixedFrame(1200, 800, geometry.P(0, 0)), nil, d, m.record, Options{})
	c.PointerDown("n1", geometry.P(600, 400), geometry.P(600, 400))
	d.Move(geometry.P(0, 0))
	if !m.last().Equal(geometry.P(60, 60)) {
		t.Fatalf("default clamp = %v, want (60,60)", m.last())
	}
	c.SetOptions(Options{Footprint: 200})
	d.Move(geometry.P(0, 0))
	if !m.last().Equal(geometry.P(100, 100)) {
		t.Fatalf("clamp after SetOptions = %v, want (100,100)", m.last())
	}
}
