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
	"log/slog"

	"github.com/spf13/cobra"

	"travelcanvas/internal/config"
	"travelcanvas/internal/ui"
)

func uiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the desktop canvas",
		Long: `Open the desktop canvas. The binary must be built with the fyne tag:

  go run -tags fyne ./cmd/travelcanvas ui

Edits to the config file's canvas section (grid snapping, grid size,
placement distances) are applied to the open board.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				ctx, cancel := context.WithCancel(cmd.Context())
				defer cancel()
				if path, err := config.ConfigPath(); err == nil {
					if err := config.Watch(ctx, path, s.settings); err != nil {
						s.log.Debug("config not watched", slog.Any("err", err))
					}
				}
				go func() {
					for {
						select {
						case <-ctx.Done():
							return
						case err := <-s.writer.Errors():
							s.log.Error("autosave failed", slog.Any("err", err))
						}
					}
				}()
				return ui.Run(ui.Env{
					Board:   s.board,
					Events:  s.events,
					DataDir: s.cfg.Storage.DataDir,
					Flush:   s.writer.Flush,
				})
			})
		},
	}
}
