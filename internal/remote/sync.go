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
	"fmt"
	"log/slog"

	"travelcanvas/internal/domain"
	applog "travelcanvas/internal/log"
)

// NodeStore is the part of Store the syncer needs.
type NodeStore interface {
	ListNodes(ctx context.Context, owner string) ([]domain.Node, error)
	UpsertNodes(ctx context.Context, owner string, nodes []domain.Node) error
	DeleteNodes(ctx context.Context, owner string, ids []string) error
}

// Syncer reconciles a local node set with the remote copy of one owner.
type Syncer struct {
	Store NodeStore
	Owner string
}

// Sync lists the remote nodes, merges them with local and pushes the local
// copies that won. It returns the merged set, which callers install with
// store.Replace.
func (s Syncer) Sync(ctx context.Context, local []domain.Node) ([]domain.Node, error) {
	l := applog.WithOperation(applog.WithComponent("remote"), "sync")
	remote, err := s.Store.ListNodes(ctx, s.Owner)
	if err != nil {
		return nil, fmt.Errorf("sync list: %w", err)
	}
	merged, push := Merge(local, remote)
	if err := s.Store.UpsertNodes(ctx, s.Owner, push); err != nil {
		return nil, fmt.Errorf("sync push: %w", err)
	}
	l.Info("sync complete", slog.Int("local", len(local)), slog.Int("remote", len(remote)), slog.Int("pushed", len(push)), slog.Int("merged", len(merged)))
	return merged, nil
}

// OwnerSink adapts a NodeStore to persist.Sink for a fixed owner.
type OwnerSink struct {
	Store NodeStore
	Owner string
}

func (o OwnerSink) UpsertNodes(ctx context.Context, nodes []domain.Node) error {
	return o.Store.UpsertNodes(ctx, o.Owner, nodes)
}

func (o OwnerSink) DeleteNodes(ctx context.Context, ids []string) error {
	return o.Store.DeleteNodes(ctx, o.Owner, ids)
}
