/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package drag

import (
	"sync"

	"travelcanvas/internal/geometry"
)

// Listener receives surface-wide pointer events. Controller implements it.
type Listener interface {
	PointerMove(p geometry.Point)
	PointerUp(p geometry.Point)
}

// Surface delivers pointer events regardless of which node is under the
// pointer. Subscribe returns the matching unsubscribe function.
type Surface interface {
	Subscribe(l Listener) (unsubscribe func())
}

// Dispatcher is a Surface that fans pointer events out to its subscribers.
// UI front ends feed raw events into Move and Up; tests drive it directly.
type Dispatcher struct {
	mu        sync.Mutex
	next      int
	listeners map[int]Listener
}

func NewDispatcher() *Dispatcher { return &Dispatcher{listeners: map[int]Listener{}} }

func (d *Dispatcher) Subscribe(l Listener) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.next
	d.next++
	d.listeners[id] = l
	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.listeners, id)
			d.mu.Unlock()
		})
	}
}

// Len returns the number of live subscriptions.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners)
}

func (d *Dispatcher) Move(p geometry.Point) {
	for _, l := range d.snapshot() {
		l.PointerMove(p)
	}
}

func (d *Dispatcher) Up(p geometry.Point) {
	for _, l := range d.snapshot() {
		l.PointerUp(p)
	}
}

// snapshot copies the listeners so handlers may unsubscribe while being called.
func (d *Dispatcher) snapshot() []Listener {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Listener, 0, len(d.listeners))
	for _, l := range d.listeners {
		out = append(out, l)
	}
	return out
}
