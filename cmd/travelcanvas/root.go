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
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"travelcanvas/internal/version"
)

// closeTimeout bounds the final flush of pending changes.
const closeTimeout = 30 * time.Second

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "travelcanvas",
		Short: "Plan trips as nodes on a canvas",
		Long: `travelcanvas keeps flights, hotels, events and other travel items as nodes
on a 2D board. New nodes are placed automatically so they do not overlap;
nodes can be dragged, snapped to a grid, exported and synced.

Run "travelcanvas ui" for the desktop canvas (build with -tags fyne).`,
		Version:      version.String(),
		SilenceUsage: true,
	}
	root.SetVersionTemplate("travelcanvas {{.Version}}\n")
	root.AddCommand(
		versionCmd(),
		addCmd(),
		listCmd(),
		showCmd(),
		editCmd(),
		moveCmd(),
		dragCmd(),
		dupCmd(),
		rmCmd(),
		searchCmd(),
		exportCmd(),
		importCmd(),
		snapshotCmd(),
		syncCmd(),
		configCmd(),
		uiCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", Brand.Sprint("travelcanvas"), version.String())
		},
	}
}

// withSession opens the board for the duration of fn and flushes pending
// changes afterwards.
func withSession(cmd *cobra.Command, fn func(s *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	runErr := fn(s)
	cctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := s.Close(cctx); err != nil && runErr == nil {
		runErr = fmt.Errorf("save: %w", err)
	}
	return runErr
}
