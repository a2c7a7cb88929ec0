/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"travelcanvas/internal/remote"
	"travelcanvas/internal/telemetry"
)

const metaLastSync = "last_sync"

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the board with the remote PostgreSQL store",
		Long: `Fetch the owner's nodes from the remote store, merge them with the local
board (the most recently updated copy of a node wins) and push the local
copies that won. The DSN comes from TC_PG_DSN or the keyring, see
"travelcanvas config set-dsn".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				if s.dsn == "" {
					return errors.New("no remote DSN configured; run \"travelcanvas config set-dsn\" or set TC_PG_DSN")
				}
				ctx, cancel := context.WithTimeout(cmd.Context(), s.cfg.Remote.Timeout())
				defer cancel()

				rs := s.remote
				if rs == nil {
					var err error
					if rs, err = remote.Open(ctx, s.dsn); err != nil {
						return err
					}
					defer func() { _ = rs.Close() }()
				}
				// Pending edits go out before the remote copy is read.
				if err := s.writer.Flush(ctx); err != nil {
					return err
				}

				start := time.Now()
				local := s.store.List()
				merged, err := remote.Syncer{Store: rs, Owner: s.cfg.Remote.Owner}.Sync(ctx, local)
				s.tel.Event(telemetry.EventSyncFinished, map[string]any{"ok": err == nil, "nodes": len(merged), "ms": time.Since(start).Milliseconds()})
				if err != nil {
					return err
				}
				if err := s.replaceBoard(ctx, "before sync", merged); err != nil {
					return err
				}
				if err := s.repo.SetMeta(ctx, metaLastSync, time.Now().UTC().Format(time.RFC3339)); err != nil {
					s.log.Warn("record last sync", slog.Any("err", err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d local, %d after merge (owner %s)\n", Good.Sprint("Synced"), len(local), len(merged), Brand.Sprint(s.cfg.Remote.Owner))
				return nil
			})
		},
	}
}
