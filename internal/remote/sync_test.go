/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"travelcanvas/internal/domain"
	"travelcanvas/internal/persist"
)

var _ persist.Sink = OwnerSink{}

type fakeStore struct {
	nodes   map[string]map[string]domain.Node
	listErr error
	deleted []string
}

func newFakeStore() *fakeStore { return &fakeStore{nodes: map[string]map[string]domain.Node{}} }

func (f *fakeStore) ListNodes(_ context.Context, owner string) ([]domain.Node, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Node
	for _, n := range f.nodes[owner] {
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeStore) UpsertNodes(_ context.Context, owner string, nodes []domain.Node) error {
	if f.nodes[owner] == nil {
		f.nodes[owner] = map[string]domain.Node{}
	}
	for _, n := range nodes {
		if cur, ok := f.nodes[owner][n.ID]; ok && !n.UpdatedAt.After(cur.UpdatedAt) {
			continue
		}
		f.nodes[owner][n.ID] = n
	}
	return nil
}

func (f *fakeStore) DeleteNodes(_ context.Context, owner string, ids []string) error {
	for _, id := range ids {
		delete(f.nodes[owner], id)
		f.deleted = append(f.deleted, id)
	}
	return nil
}

func TestSyncPushesAndMerges(t *testing.T) {
	fs := newFakeStore()
	t0 := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	_ = fs.UpsertNodes(context.Background(), "alice", []domain.Node{nodeAt("r1", "Remote", t0)})
	_ = fs.UpsertNodes(context.Background(), "bob", []domain.Node{nodeAt("b1", "Bob's", t0)})

	s := Syncer{Store: fs, Owner: "alice"}
	merged, err := s.Sync(context.Background(), []domain.Node{nodeAt("l1", "Local", t0)})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if len(merged) != 2 || merged[0].ID != "l1" || merged[1].ID != "r1" {
		t.Fatalf("merged = %v", merged)
	}
	if _, ok := fs.nodes["alice"]["l1"]; !ok {
		t.Fatal("local-only node was not pushed")
	}
	if len(fs.nodes["bob"]) != 1 {
		t.Fatal("other owner's nodes touched")
	}
}

func TestSyncListFailure(t *testing.T) {
	fs := newFakeStore()
	fs.listErr = ErrUnavailable
	_, err := Syncer{Store: fs, Owner: "alice"}.Sync(context.Background(), nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestOwnerSink(t *testing.T) {
	fs := newFakeStore()
	sink := OwnerSink{Store: fs, Owner: "carol"}
	n := nodeAt("n1", "Sink", time.Now())
	if err := sink.UpsertNodes(context.Background(), []domain.Node{n}); err != nil {
		t.Fatal(err)
	}
	if _, ok := fs.nodes["carol"]["n1"]; !ok {
		t.Fatal("upsert not scoped to owner")
	}
	if err := sink.DeleteNodes(context.Background(), []string{"n1"}); err != nil {
		t.Fatal(err)
	}
	if len(fs.nodes["carol"]) != 0 || len(fs.deleted) != 1 {
		t.Fatalf("delete not applied: %v", fs.nodes["carol"])
	}
}
