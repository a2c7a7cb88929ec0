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
	"os"
	"testing"
	"time"

	"travelcanvas/internal/domain"
	"travelcanvas/internal/geometry"
)

// openPGForTest connects to TC_PG_TEST_DSN or skips.
func openPGForTest(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TC_PG_TEST_DSN")
	if dsn == "" {
		t.Skip("TC_PG_TEST_DSN not set; skipping Postgres tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Skipf("postgres not reachable: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPGUpsertIsLastWriteWins(t *testing.T) {
	s := openPGForTest(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	owner := "test-" + domain.NewID()
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(context.Background(), `DELETE FROM nodes WHERE owner = $1`, owner)
	})

	n := domain.NewNode(domain.TypeFlight, geometry.P(10, 20), "Outbound")
	n.UpdatedAt = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := s.UpsertNodes(ctx, owner, []domain.Node{n}); err != nil {
		t.Fatalf("UpsertNodes: %v", err)
	}

	stale := n.Clone()
	stale.Title = "Stale"
	stale.UpdatedAt = n.UpdatedAt.Add(-time.Minute)
	if err := s.UpsertNodes(ctx, owner, []domain.Node{stale}); err != nil {
		t.Fatal(err)
	}
	list, err := s.ListNodes(ctx, owner)
	if err != nil || len(list) != 1 || list[0].Title != "Outbound" {
		t.Fatalf("stale write won: %v %v", list, err)
	}

	fresh := n.Clone()
	fresh.Title = "Fresh"
	fresh.UpdatedAt = n.UpdatedAt.Add(time.Minute)
	if err := s.UpsertNodes(ctx, owner, []domain.Node{fresh}); err != nil {
		t.Fatal(err)
	}
	list, _ = s.ListNodes(ctx, owner)
	if len(list) != 1 || list[0].Title != "Fresh" {
		t.Fatalf("newer write lost: %v", list)
	}

	if err := s.DeleteNodes(ctx, owner, []string{n.ID}); err != nil {
		t.Fatal(err)
	}
	if list, _ := s.ListNodes(ctx, owner); len(list) != 0 {
		t.Fatalf("delete left %v", list)
	}
}

func TestPGMigrationsRecorded(t *testing.T) {
	s := openPGForTest(t)
	var n int
	if err := s.db.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n < 2 {
		t.Fatalf("expected recorded migrations, got %d", n)
	}
}
