/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package remote is the optional PostgreSQL document store. Each node is one
// row owned by a user; concurrent writers are reconciled last-write-wins on
// the node's UpdatedAt, both in SQL and in Merge.
package remote

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sony/gobreaker"

	"travelcanvas/internal/domain"
	applog "travelcanvas/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("remote store unavailable")

// BreakerConfig tunes the circuit breaker around database calls.
type BreakerConfig struct {
	Name        string
	MaxRequests uint32        // probes allowed while half-open
	Interval    time.Duration // closed-state counter reset period
	Timeout     time.Duration // how long the breaker stays open
	MaxFailures uint32        // consecutive failures that trip the breaker
}

// DefaultBreakerConfig returns the breaker settings used by Open.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:        "remote-store",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		MaxFailures: 3,
	}
}

// Store is a PostgreSQL-backed node store.
type Store struct {
	db  *sql.DB
	cb  *gobreaker.CircuitBreaker
	log *slog.Logger
}

// Open connects to dsn, verifies the connection and applies pending migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	return OpenWith(ctx, dsn, DefaultBreakerConfig())
}

// OpenWith is Open with explicit breaker settings.
func OpenWith(ctx context.Context, dsn string, bc BreakerConfig) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("remote: empty dsn")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	s := &Store{db: db, log: applog.WithComponent("remote")}
	s.cb = newBreaker(bc, s.log)
	if err := applyMigrations(ctx, db, s.log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func newBreaker(bc BreakerConfig, l *slog.Logger) *gobreaker.CircuitBreaker {
	if bc.MaxFailures == 0 {
		bc.MaxFailures = DefaultBreakerConfig().MaxFailures
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        bc.Name,
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bc.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn("circuit breaker state changed", slog.String("breaker", name), slog.String("from", from.String()), slog.String("to", to.String()))
		},
		// A cancelled caller says nothing about the health of the database.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// do runs fn through the breaker.
func (s *Store) do(fn func() error) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// ListNodes returns all nodes of owner ordered by id.
func (s *Store) ListNodes(ctx context.Context, owner string) ([]domain.Node, error) {
	var out []domain.Node
	err := s.do(func() error {
		out = nil
		rows, err := s.db.QueryContext(ctx, `SELECT id, doc FROM nodes WHERE owner = $1 ORDER BY id`, owner)
		if err != nil {
			return fmt.Errorf("list nodes: %w", err)
		}
		defer func() { _ = rows.Close() }()
		for rows.Next() {
			var (
				id  string
				doc []byte
			)
			if err := rows.Scan(&id, &doc); err != nil {
				return fmt.Errorf("scan node: %w", err)
			}
			var n domain.Node
			if err := json.Unmarshal(doc, &n); err != nil {
				s.log.Warn("skipping undecodable remote node", slog.String("node", id), slog.Any("err", err))
				continue
			}
			out = append(out, n)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// language=SQL
// dialect=PostgreSQL
const upsertSQL = `INSERT INTO nodes (id, owner, type, title, doc, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    type = excluded.type,
    title = excluded.title,
    doc = excluded.doc,
    updated_at = excluded.updated_at
WHERE nodes.owner = excluded.owner AND nodes.updated_at < excluded.updated_at`

// UpsertNodes writes nodes for owner. A row is only replaced when the incoming
// copy is strictly newer, so a stale writer can never clobber a newer node.
func (s *Store) UpsertNodes(ctx context.Context, owner string, nodes []domain.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	return s.do(func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			stmt, err := tx.PrepareContext(ctx, upsertSQL)
			if err != nil {
				return fmt.Errorf("prepare upsert: %w", err)
			}
			defer func() { _ = stmt.Close() }()
			for _, n := range nodes {
				doc, err := json.Marshal(n)
				if err != nil {
					return fmt.Errorf("encode %s: %w", n.ID, err)
				}
				if _, err := stmt.ExecContext(ctx, n.ID, owner, string(n.Type), n.Title, string(doc), n.CreatedAt.UTC(), n.UpdatedAt.UTC()); err != nil {
					return fmt.Errorf("upsert %s: %w", n.ID, err)
				}
			}
			return nil
		})
	})
}

// DeleteNodes removes ids owned by owner. Unknown ids are ignored.
func (s *Store) DeleteNodes(ctx context.Context, owner string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.do(func() error {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM nodes WHERE owner = $1 AND id = ANY($2)`, owner, ids); err != nil {
			return fmt.Errorf("delete nodes: %w", err)
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// applyMigrations applies embedded SQL migrations in filename order and
// records each one in schema_migrations.
func applyMigrations(ctx context.Context, db *sql.DB, l *slog.Logger) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	// dialect=PostgreSQL
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}
	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		sqlText := string(b)
		if strings.TrimSpace(sqlText) == "" {
			continue
		}
		l.Info("applying migration", slog.String("file", fname))
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, sqlText); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES($1, $2)`, version, fname); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", fname, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", fname, err)
		}
	}
	return nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[int64]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("select schema_migrations: %w", err)
	}
	defer func() { _ = rows.Close() }()
	applied := map[int64]bool{}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func parseVersion(name string) (int64, error) {
	base := path.Base(name)
	prefix, _, ok := strings.Cut(base, "_")
	if !ok {
		return 0, errors.New("invalid migration filename: " + name)
	}
	v, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}
