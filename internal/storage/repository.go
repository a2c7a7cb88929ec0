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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"travelcanvas/internal/domain"
	applog "travelcanvas/internal/log"
	"travelcanvas/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	DBFileName = "nodes.sqlite"

	// schemaVersion tracks the local SQLite schema.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 4

	tsLayout = "2006-01-02T15:04:05.000000000Z07:00" // fixed width, sorts lexicographically
)

// ErrNotFound is returned for unknown node or snapshot ids.
var ErrNotFound = errors.New("not found")

// Repository is the local node table. It implements persist.Sink.
type Repository struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// DBPath returns the database file inside dir.
func DBPath(dir string) string { return filepath.Join(dir, DBFileName) }

// Open creates or opens the node database in dir, enables WAL mode, ensures
// the meta/version tables and the node schema, and runs migrations.
func Open(dir string) (*Repository, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(
		slog.String("dir", dir),
	)
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("data dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.Error("create data dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := DBPath(dir)
	// Shared cache plus busy timeout; SQLite URIs want forward slashes.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureNodeSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure node schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("storage ready", slog.String("path", path))
	return &Repository{db: db, path: path, log: applog.WithComponent("storage")}, nil
}

func (r *Repository) Path() string { return r.path }

func (r *Repository) Close() error { return r.db.Close() }

// SchemaVersion reports the schema recorded in the version table.
func (r *Repository) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := r.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&v)
	return v, err
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// A fresh database starts at schema 1 and migrates forward.
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// language=SQL
// dialect=SQLite
const nodesDDL = `CREATE TABLE IF NOT EXISTS nodes (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	title      TEXT NOT NULL,
	status     TEXT NOT NULL,
	priority   TEXT NOT NULL,
	pos_x      REAL NOT NULL,
	pos_y      REAL NOT NULL,
	doc        TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

func ensureNodeSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, nodesDDL); err != nil {
		return fmt.Errorf("create nodes: %w", err)
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	// never downgrade
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(type);`,
				`CREATE INDEX IF NOT EXISTS idx_nodes_updated ON nodes(updated_at);`,
			}
		case 3:
			stmts = []string{snapshotsDDL}
		case 4:
			stmts = []string{ftsNodesDDL, ftsBackfillSQL}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// ListNodes returns all nodes ordered by creation time.
func (r *Repository) ListNodes(ctx context.Context) ([]domain.Node, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, doc FROM nodes ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()
	var out []domain.Node
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		n, err := decodeDoc(doc)
		if err != nil {
			// one bad row must not hide the rest of the board
			r.log.Warn("skipping unreadable node", slog.String("node", id), slog.Any("err", err))
			continue
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *Repository) GetNode(ctx context.Context, id string) (domain.Node, error) {
	var doc string
	err := r.db.QueryRowContext(ctx, `SELECT doc FROM nodes WHERE id=?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Node{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Node{}, fmt.Errorf("get %s: %w", id, err)
	}
	return decodeDoc(doc)
}

// Count returns the number of stored nodes.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&n)
	return n, err
}

// language=SQL
// dialect=SQLite
const upsertNodeSQL = `INSERT INTO nodes (id, type, title, status, priority, pos_x, pos_y, doc, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	type=excluded.type, title=excluded.title, status=excluded.status, priority=excluded.priority,
	pos_x=excluded.pos_x, pos_y=excluded.pos_y, doc=excluded.doc, updated_at=excluded.updated_at`

// UpsertNodes writes nodes in one transaction.
func (r *Repository) UpsertNodes(ctx context.Context, nodes []domain.Node) error {
	return r.inTx(ctx, func(tx *sql.Tx) error { return upsertTx(ctx, tx, nodes) })
}

func upsertTx(ctx context.Context, tx *sql.Tx, nodes []domain.Node) error {
	stmt, err := tx.PrepareContext(ctx, upsertNodeSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()
	for _, n := range nodes {
		doc, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("encode %s: %w", n.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, n.ID, string(n.Type), n.Title, string(n.Status), string(n.Priority),
			n.Position.X, n.Position.Y, string(doc),
			n.CreatedAt.UTC().Format(tsLayout), n.UpdatedAt.UTC().Format(tsLayout)); err != nil {
			return fmt.Errorf("upsert %s: %w", n.ID, err)
		}
		if err := indexNodeTx(ctx, tx, n); err != nil {
			return err
		}
	}
	return nil
}

// DeleteNodes removes the listed ids; unknown ids are ignored.
func (r *Repository) DeleteNodes(ctx context.Context, ids []string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE id=?`, id); err != nil {
				return fmt.Errorf("delete %s: %w", id, err)
			}
			if _, err := tx.ExecContext(ctx, `DELETE FROM fts_nodes WHERE node_id=?`, id); err != nil {
				return fmt.Errorf("unindex %s: %w", id, err)
			}
		}
		return nil
	})
}

// ReplaceAll swaps the whole table for nodes, e.g. after an import.
func (r *Repository) ReplaceAll(ctx context.Context, nodes []domain.Node) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM nodes`); err != nil {
			return fmt.Errorf("clear nodes: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM fts_nodes`); err != nil {
			return fmt.Errorf("clear search index: %w", err)
		}
		return upsertTx(ctx, tx, nodes)
	})
}

// SetMeta stores a free-form key, e.g. the last successful sync time.
func (r *Repository) SetMeta(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	return err
}

// Meta returns the value for key, "" when unset.
func (r *Repository) Meta(ctx context.Context, key string) (string, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key=?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

func (r *Repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func decodeDoc(doc string) (domain.Node, error) {
	var n domain.Node
	if err := json.Unmarshal([]byte(doc), &n); err != nil {
		return domain.Node{}, fmt.Errorf("decode node: %w", err)
	}
	return n, nil
}
