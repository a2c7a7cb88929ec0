/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"travelcanvas/internal/domain"
)

// Snapshots are full copies of the board kept for restore, e.g. before an
// import replaces everything or when a session ends.

// language=SQL
// dialect=SQLite
const snapshotsDDL = `CREATE TABLE IF NOT EXISTS snapshots (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	ts     TEXT NOT NULL,
	reason TEXT NOT NULL,
	blob   BLOB NOT NULL
);`

// language=SQL
// dialect=SQLite
const insertSnapshotSQL = `INSERT INTO snapshots(ts, reason, blob) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const listSnapshotsSQL = `SELECT id, ts, reason FROM snapshots ORDER BY id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const selectSnapshotSQL = `SELECT blob FROM snapshots WHERE id = ?`

// language=SQL
// dialect=SQLite
const pruneOldSnapshotsSQL = `DELETE FROM snapshots WHERE id NOT IN (
	SELECT id FROM snapshots ORDER BY id DESC LIMIT ?
)`

// SnapshotInfo describes a stored snapshot without its payload.
type SnapshotInfo struct {
	ID     int64
	TS     time.Time
	Reason string
}

// SaveSnapshot stores nodes in the export format and returns the snapshot id.
func (r *Repository) SaveSnapshot(ctx context.Context, reason string, nodes []domain.Node) (int64, error) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, nodes); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, insertSnapshotSQL, time.Now().UTC().Format(tsLayout), reason, buf.Bytes())
	if err != nil {
		return 0, fmt.Errorf("save snapshot: %w", err)
	}
	return res.LastInsertId()
}

// ListSnapshots returns up to limit most recent snapshots, newest first.
func (r *Repository) ListSnapshots(ctx context.Context, limit int) ([]SnapshotInfo, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listSnapshotsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []SnapshotInfo
	for rows.Next() {
		var si SnapshotInfo
		var ts string
		if err := rows.Scan(&si.ID, &ts, &si.Reason); err != nil {
			return nil, err
		}
		si.TS, _ = time.Parse(tsLayout, ts)
		out = append(out, si)
	}
	return out, rows.Err()
}

// LoadSnapshot decodes snapshot id.
func (r *Repository) LoadSnapshot(ctx context.Context, id int64) ([]domain.Node, error) {
	var blob []byte
	err := r.db.QueryRowContext(ctx, selectSnapshotSQL, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodeExport(blob)
}

// PruneSnapshots keeps at most keepLast snapshots and deletes older ones.
func (r *Repository) PruneSnapshots(ctx context.Context, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, pruneOldSnapshotsSQL, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
