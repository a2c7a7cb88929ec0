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
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// TestMigrations_UpgradeV1 ensures that an older DB (schema=1) is migrated to schemaVersion and its rows survive.
func TestMigrations_UpgradeV1(t *testing.T) {
	dir := t.TempDir()
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(2000)", filepath.ToSlash(DBPath(dir)))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version(id, schema, app, created_at, updated_at) VALUES(1, 1, 'test', '2020-01-01T00:00:00Z', '2020-01-01T00:00:00Z');`,
		nodesDDL,
		`INSERT INTO nodes VALUES('n1','hotel','Old','pending','medium',1,2,'{"id":"n1","title":"Old","type":"hotel","position":{"x":1,"y":2}}','2020-01-01T00:00:00Z','2020-01-01T00:00:00Z');`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed v1 schema: %v (q=%s)", err, q)
		}
	}
	db.Close()

	repo, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer repo.Close()
	if v, err := repo.SchemaVersion(ctx); err != nil || v != schemaVersion {
		t.Fatalf("expected schema %d after migration, got %d (%v)", schemaVersion, v, err)
	}
	var cnt int
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE name IN ('idx_nodes_type','idx_nodes_updated','snapshots','fts_nodes')`).Scan(&cnt); err != nil {
		t.Fatalf("query schema objects: %v", err)
	}
	if cnt != 4 {
		t.Fatalf("expected indexes, snapshots and search tables after migration, got %d", cnt)
	}
	if n, err := repo.GetNode(ctx, "n1"); err != nil || n.Title != "Old" {
		t.Fatalf("row lost in migration: %+v %v", n, err)
	}
	if res, err := repo.Search(ctx, SearchQuery{Text: "old"}); err != nil || len(res) != 1 {
		t.Fatalf("existing row not backfilled into search: %v %v", res, err)
	}
}
