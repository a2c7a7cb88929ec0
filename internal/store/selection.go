/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package store

// Selection and hover cursors. They only ever reference existing nodes and
// are not persisted.

// Select makes id the only selected node. Unknown ids clear the selection.
func (s *Store) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = map[string]struct{}{}
	if _, ok := s.nodes[id]; ok {
		s.selected[id] = struct{}{}
	}
}

// SelectMany replaces the selection with the known ids among ids.
func (s *Store) SelectMany(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = map[string]struct{}{}
	for _, id := range ids {
		if _, ok := s.nodes[id]; ok {
			s.selected[id] = struct{}{}
		}
	}
}

// ToggleSelection adds or removes id and reports whether it is now selected.
func (s *Store) ToggleSelection(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
		return false
	}
	if _, ok := s.nodes[id]; !ok {
		return false
	}
	s.selected[id] = struct{}{}
	return true
}

func (s *Store) ClearSelection() {
	s.mu.Lock()
	s.selected = map[string]struct{}{}
	s.mu.Unlock()
}

// Selected returns the selected ids in node order.
func (s *Store) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, id := range s.order {
		if _, ok := s.selected[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func (s *Store) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selected[id]
	return ok
}

// Hover sets the hovered node; "" or an unknown id clears it.
func (s *Store) Hover(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[id]; !ok {
		id = ""
	}
	s.hovered = id
}

func (s *Store) Hovered() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hovered
}
