/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package store holds the in-memory node collection, the single source of
// truth for occupied canvas positions. Every mutation is applied synchronously
// and then handed to a Persister; persistence never blocks or rolls back the
// in-memory state.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"travelcanvas/internal/domain"
	"travelcanvas/internal/geometry"
	applog "travelcanvas/internal/log"
)

var (
	ErrNotFound    = errors.New("node not found")
	ErrDuplicateID = errors.New("duplicate node id")
)

// Persister receives mutations after they have been applied. Implementations
// must return quickly; slow work belongs on their own goroutine.
type Persister interface {
	NodeChanged(n domain.Node)
	NodeRemoved(id string)
}

type nopPersister struct{}

func (nopPersister) NodeChanged(domain.Node) {}
func (nopPersister) NodeRemoved(string)      {}

// Store is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	order    []string
	nodes    map[string]domain.Node
	retired  map[string]struct{}
	selected map[string]struct{}
	hovered  string

	persist Persister
	now     func() time.Time
	log     *slog.Logger
}

// New returns an empty store. p may be nil.
func New(p Persister) *Store {
	if p == nil {
		p = nopPersister{}
	}
	return &Store{
		nodes:    map[string]domain.Node{},
		retired:  map[string]struct{}{},
		selected: map[string]struct{}{},
		persist:  p,
		now:      func() time.Time { return time.Now().UTC() },
		log:      applog.WithComponent("store"),
	}
}

// SetPersister swaps the persistence collaborator, e.g. once storage is open.
func (s *Store) SetPersister(p Persister) {
	if p == nil {
		p = nopPersister{}
	}
	s.mu.Lock()
	s.persist = p
	s.mu.Unlock()
}

func (s *Store) persister() Persister {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persist
}

// List returns all nodes in insertion order.
func (s *Store) List() []domain.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Node, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id].Clone())
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) Get(id string) (domain.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[id]
	if !ok {
		return domain.Node{}, false
	}
	return n.Clone(), true
}

// Positions returns the occupied points fed to the placement resolver.
func (s *Store) Positions() []geometry.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]geometry.Point, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id].Position)
	}
	return out
}

func (s *Store) ByType(t domain.NodeType) []domain.Node {
	return s.Find(domain.Filter{Types: []domain.NodeType{t}})
}

// Find returns the nodes matching f in insertion order.
func (s *Store) Find(f domain.Filter) []domain.Node {
	return domain.FilterNodes(s.List(), f)
}

// Insert adds n. Its id must be new for the lifetime of the store, including
// ids of removed nodes.
func (s *Store) Insert(n domain.Node) error {
	if err := domain.Validate(n); err != nil {
		return err
	}
	n = n.Clone()
	s.mu.Lock()
	if _, ok := s.nodes[n.ID]; ok {
		s.mu.Unlock()
		return fmt.Errorf("insert %s: %w", n.ID, ErrDuplicateID)
	}
	if _, ok := s.retired[n.ID]; ok {
		s.mu.Unlock()
		return fmt.Errorf("insert %s: id was retired: %w", n.ID, ErrDuplicateID)
	}
	s.nodes[n.ID] = n
	s.order = append(s.order, n.ID)
	p := s.persist
	s.mu.Unlock()

	s.log.Debug("node inserted", slog.String("node", n.ID), slog.String("type", string(n.Type)))
	p.NodeChanged(n.Clone())
	return nil
}

// UpsertPosition moves node id. Unknown ids are ignored: a drag may outlive
// a concurrent delete.
func (s *Store) UpsertPosition(id string, p geometry.Point) {
	if !p.IsFinite() {
		s.log.Warn("non-finite position ignored", slog.String("node", id))
		return
	}
	s.mu.Lock()
	n, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	if n.Position.Equal(p) {
		s.mu.Unlock()
		return
	}
	n.Position = p
	n.UpdatedAt = s.now()
	s.nodes[id] = n
	per := s.persist
	s.mu.Unlock()

	per.NodeChanged(n.Clone())
}

// Update applies fn to a copy of node id and stores it if it still validates.
// fn must not change the id.
func (s *Store) Update(id string, fn func(n *domain.Node)) (domain.Node, error) {
	s.mu.Lock()
	cur, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return domain.Node{}, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	next := cur.Clone()
	fn(&next)
	next.ID = id
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = s.now()
	if err := domain.Validate(next); err != nil {
		s.mu.Unlock()
		return cur.Clone(), err
	}
	s.nodes[id] = next
	per := s.persist
	s.mu.Unlock()

	per.NodeChanged(next.Clone())
	return next.Clone(), nil
}

// Remove deletes node id and retires the id. Unknown ids are a no-op.
func (s *Store) Remove(id string) {
	if s.remove(id) {
		s.persister().NodeRemoved(id)
	}
}

// RemoveMany deletes every listed node and returns how many existed.
func (s *Store) RemoveMany(ids []string) int {
	var removed []string
	for _, id := range ids {
		if s.remove(id) {
			removed = append(removed, id)
		}
	}
	p := s.persister()
	for _, id := range removed {
		p.NodeRemoved(id)
	}
	return len(removed)
}

func (s *Store) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[id]; !ok {
		return false
	}
	delete(s.nodes, id)
	delete(s.selected, id)
	if s.hovered == id {
		s.hovered = ""
	}
	s.retired[id] = struct{}{}
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Duplicate inserts a copy of node id, see domain.Duplicate.
func (s *Store) Duplicate(id string) (domain.Node, error) {
	src, ok := s.Get(id)
	if !ok {
		return domain.Node{}, fmt.Errorf("duplicate %s: %w", id, ErrNotFound)
	}
	c := domain.Duplicate(src)
	if err := s.Insert(c); err != nil {
		return domain.Node{}, err
	}
	return c, nil
}

// Clear removes all nodes. Removed ids stay retired.
func (s *Store) Clear() {
	s.mu.Lock()
	ids := s.order
	for _, id := range ids {
		s.retired[id] = struct{}{}
	}
	s.order = nil
	s.nodes = map[string]domain.Node{}
	s.selected = map[string]struct{}{}
	s.hovered = ""
	p := s.persist
	s.mu.Unlock()

	for _, id := range ids {
		p.NodeRemoved(id)
	}
}

// Replace swaps in a full collection, as loaded from storage, an import or a
// sync. Nothing is reported to the Persister. Invalid nodes and repeated ids
// are skipped; the number skipped is returned.
func (s *Store) Replace(nodes []domain.Node) int {
	skipped := 0
	order := make([]string, 0, len(nodes))
	byID := make(map[string]domain.Node, len(nodes))
	for _, n := range nodes {
		if _, dup := byID[n.ID]; dup {
			skipped++
			continue
		}
		if err := domain.Validate(n); err != nil {
			s.log.Warn("skipping invalid node", slog.String("node", n.ID), slog.Any("err", err))
			skipped++
			continue
		}
		byID[n.ID] = n.Clone()
		order = append(order, n.ID)
	}

	s.mu.Lock()
	for _, id := range s.order {
		if _, keep := byID[id]; !keep {
			s.retired[id] = struct{}{}
		}
	}
	for id := range byID {
		delete(s.retired, id)
	}
	s.order = order
	s.nodes = byID
	for id := range s.selected {
		if _, ok := byID[id]; !ok {
			delete(s.selected, id)
		}
	}
	if _, ok := byID[s.hovered]; !ok {
		s.hovered = ""
	}
	s.mu.Unlock()
	return skipped
}
