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
	"strings"

	"travelcanvas/internal/domain"
)

// language=SQL
// dialect=SQLite
const ftsNodesDDL = `CREATE VIRTUAL TABLE IF NOT EXISTS fts_nodes USING fts5(node_id UNINDEXED, title, description, tags, tokenize='unicode61');`

// language=SQL
// dialect=SQLite
const ftsBackfillSQL = `INSERT INTO fts_nodes(node_id, title, description, tags)
SELECT id, title, COALESCE(json_extract(doc, '$.description'), ''), COALESCE(json_extract(doc, '$.tags'), '') FROM nodes`

// SearchQuery describes a node search.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT, prefix*).
// Filters are optional. Limit/Offset implement pagination; reasonable defaults applied if zero.
type SearchQuery struct {
	Text     string
	Types    []domain.NodeType
	Statuses []domain.Status
	Limit    int
	Offset   int
}

// SearchResult is a single match. Snippet highlights the match with [ ]
// markers when FTS text is used.
type SearchResult struct {
	ID      string
	Type    domain.NodeType
	Title   string
	Snippet string
}

func indexNodeTx(ctx context.Context, tx *sql.Tx, n domain.Node) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM fts_nodes WHERE node_id=?`, n.ID); err != nil {
		return fmt.Errorf("unindex %s: %w", n.ID, err)
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO fts_nodes(node_id, title, description, tags) VALUES(?, ?, ?, ?)`,
		n.ID, n.Title, n.Description, strings.Join(n.Tags, " "))
	if err != nil {
		return fmt.Errorf("index %s: %w", n.ID, err)
	}
	return nil
}

// Search performs full-text search with optional filters over the stored nodes.
// When q.Text is empty, it falls back to a plain scan with filters applied.
func (r *Repository) Search(ctx context.Context, q SearchQuery) ([]SearchResult, error) {
	var args []any
	var sb strings.Builder
	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		sb.WriteString("SELECT n.id, n.type, n.title, snippet(fts_nodes, -1, '[', ']', '…', 10)\n")
		sb.WriteString("FROM fts_nodes JOIN nodes n ON fts_nodes.node_id = n.id\n")
		sb.WriteString("WHERE fts_nodes MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT n.id, n.type, n.title, ''\n")
		sb.WriteString("FROM nodes n\nWHERE 1=1\n")
	}
	if len(q.Types) > 0 {
		sb.WriteString(" AND n.type IN (" + placeholders(len(q.Types)) + ")\n")
		for _, t := range q.Types {
			args = append(args, string(t))
		}
	}
	if len(q.Statuses) > 0 {
		sb.WriteString(" AND n.status IN (" + placeholders(len(q.Statuses)) + ")\n")
		for _, s := range q.Statuses {
			args = append(args, string(s))
		}
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if useFTS {
		sb.WriteString("ORDER BY rank, n.created_at\n")
	} else {
		sb.WriteString("ORDER BY n.created_at, n.id\n")
	}
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var res SearchResult
		var typ string
		var sn sql.NullString
		if err := rows.Scan(&res.ID, &typ, &res.Title, &sn); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		res.Type = domain.NodeType(typ)
		res.Snippet = sn.String
		out = append(out, res)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := strings.Builder{}
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("?")
	}
	return b.String()
}
