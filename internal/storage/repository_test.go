/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"travelcanvas/internal/domain"
	"travelcanvas/internal/geometry"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestOpenCreatesSchema(t *testing.T) {
	repo := openTestRepo(t)
	v, err := repo.SchemaVersion(context.Background())
	if err != nil || v != schemaVersion {
		t.Fatalf("schema = %d err %v", v, err)
	}
	if _, err := Open("  "); err == nil {
		t.Fatal("blank dir accepted")
	}
}

func TestUpsertListGetDelete(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	a := domain.NewNode(domain.TypeFlight, geometry.P(100, 200), "Outbound")
	a.Details.Airline = "KLM"
	a.Tags = []string{"work"}
	b := domain.NewNode(domain.TypeHotel, geometry.P(300, 200), "Hotel")
	b.CreatedAt = a.CreatedAt.Add(time.Second)
	if err := repo.UpsertNodes(ctx, []domain.Node{b, a}); err != nil {
		t.Fatalf("UpsertNodes: %v", err)
	}

	list, err := repo.ListNodes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != b.ID {
		t.Fatalf("unexpected order: %v", list)
	}
	if list[0].Details.Airline != "KLM" || list[0].Tags[0] != "work" || !list[0].CreatedAt.Equal(a.CreatedAt) {
		t.Fatalf("fields lost: %+v", list[0])
	}

	a.Position = geometry.P(60, 60)
	a.Title = "Moved"
	if err := repo.UpsertNodes(ctx, []domain.Node{a}); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetNode(ctx, a.ID)
	if err != nil || got.Title != "Moved" || !got.Position.Equal(geometry.P(60, 60)) {
		t.Fatalf("GetNode = %+v err %v", got, err)
	}

	if err := repo.DeleteNodes(ctx, []string{a.ID, "unknown"}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetNode(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted node still present: %v", err)
	}
	if n, _ := repo.Count(ctx); n != 1 {
		t.Fatalf("count = %d", n)
	}
}

func TestReplaceAllAndMeta(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	_ = repo.UpsertNodes(ctx, []domain.Node{domain.NewNode(domain.TypeEvent, geometry.P(0, 0), "Old")})
	fresh := domain.NewNode(domain.TypeEvent, geometry.P(0, 0), "New")
	if err := repo.ReplaceAll(ctx, []domain.Node{fresh}); err != nil {
		t.Fatal(err)
	}
	list, _ := repo.ListNodes(ctx)
	if len(list) != 1 || list[0].ID != fresh.ID {
		t.Fatalf("ReplaceAll left %v", list)
	}

	if v, err := repo.Meta(ctx, "last_sync"); err != nil || v != "" {
		t.Fatalf("unset meta = %q err %v", v, err)
	}
	_ = repo.SetMeta(ctx, "last_sync", "a")
	_ = repo.SetMeta(ctx, "last_sync", "b")
	if v, _ := repo.Meta(ctx, "last_sync"); v != "b" {
		t.Fatalf("meta = %q", v)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	repo, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	n := domain.NewNode(domain.TypeActivity, geometry.P(1, 2), "Kayak")
	if err := repo.UpsertNodes(context.Background(), []domain.Node{n}); err != nil {
		t.Fatal(err)
	}
	_ = repo.Close()

	again, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer again.Close()
	if got, err := again.GetNode(context.Background(), n.ID); err != nil || got.Title != "Kayak" {
		t.Fatalf("after reopen: %+v %v", got, err)
	}
}
