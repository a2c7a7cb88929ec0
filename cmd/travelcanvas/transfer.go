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
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"travelcanvas/internal/domain"
	"travelcanvas/internal/export"
	"travelcanvas/internal/remote"
	"travelcanvas/internal/storage"
	"travelcanvas/internal/telemetry"
)

// exportFormat picks the format from an explicit name or the file extension.
func exportFormat(path, format string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	if f == "" {
		f = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch f {
	case "json", "pdf", "png":
		return f, nil
	case "":
		return "", fmt.Errorf("cannot tell the format of %q; use --format", path)
	default:
		return "", fmt.Errorf("unsupported export format %q (json, pdf, png)", f)
	}
}

func exportCmd() *cobra.Command {
	var (
		format string
		types  []string
		title  string
		grid   bool
		scale  float64
	)
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export nodes as JSON, PDF or PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := exportFormat(path, format)
			if err != nil {
				return err
			}
			var filter domain.Filter
			for _, v := range types {
				t, err := domain.ParseType(v)
				if err != nil {
					return err
				}
				filter.Types = append(filter.Types, t)
			}
			return withSession(cmd, func(s *session) error {
				nodes := s.board.Nodes(filter)
				c := s.cfg.Canvas
				opt := export.Options{
					Width:    c.Width,
					Height:   c.Height,
					NodeSize: c.NodeSize,
					Grid:     grid,
					GridSize: s.settings.GridSize(),
					Title:    title,
					Scale:    scale,
				}
				switch f {
				case "json":
					err = storage.WriteExportFile(path, nodes)
				case "pdf":
					err = export.PDF(path, nodes, opt)
				case "png":
					err = export.PNG(path, nodes, opt)
				}
				if err != nil {
					return err
				}
				s.tel.Event(telemetry.EventExported, map[string]any{"format": f, "nodes": len(nodes)})
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d node(s) to %s\n", Good.Sprint("Exported"), len(nodes), path)
				return nil
			})
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&format, "format", "", "json, pdf or png (default: from the file extension)")
	fs.StringSliceVar(&types, "type", nil, "only export this type (repeatable)")
	fs.StringVar(&title, "title", "", "heading drawn on PDF and PNG exports")
	fs.BoolVar(&grid, "grid", false, "draw the snap grid")
	fs.Float64Var(&scale, "scale", 1, "PNG pixels per canvas unit")
	return cmd
}

func importCmd() *cobra.Command {
	var merge bool
	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import nodes from a JSON export",
		Long: `Import a JSON export. By default the board is replaced by the file's nodes;
with --merge both sets are combined and, for ids present in both, the most
recently updated copy wins. A snapshot of the current board is saved first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nodes, err := storage.ReadExportFile(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, func(s *session) error {
				ctx := cmd.Context()
				if merge {
					nodes, _ = remote.Merge(s.store.List(), nodes)
				}
				if err := s.replaceBoard(ctx, "before import", nodes); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d node(s) from %s\n", Good.Sprint("Imported"), s.store.Len(), args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&merge, "merge", false, "merge with the current nodes instead of replacing them")
	return cmd
}

// replaceBoard snapshots the current board under reason, then swaps in nodes
// both in memory and in the repository.
func (s *session) replaceBoard(ctx context.Context, reason string, nodes []domain.Node) error {
	if s.store.Len() > 0 {
		if _, err := s.repo.SaveSnapshot(ctx, reason, s.store.List()); err != nil {
			return err
		}
	}
	if skipped := s.store.Replace(nodes); skipped > 0 {
		s.log.Warn("skipped invalid or repeated nodes", slog.Int("count", skipped))
	}
	return s.repo.ReplaceAll(ctx, s.store.List())
}

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshot",
		Aliases: []string{"snap"},
		Short:   "Save, list and restore board snapshots",
	}
	cmd.AddCommand(snapshotSaveCmd(), snapshotListCmd(), snapshotRestoreCmd(), snapshotPruneCmd())
	return cmd
}

func snapshotSaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "save [reason]",
		Short: "Save the current board",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason := "manual"
			if len(args) == 1 {
				reason = args[0]
			}
			return withSession(cmd, func(s *session) error {
				id, err := s.repo.SaveSnapshot(cmd.Context(), reason, s.store.List())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s snapshot %d (%d nodes)\n", Good.Sprint("Saved"), id, s.store.Len())
				return nil
			})
		},
	}
}

func snapshotListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				infos, err := s.repo.ListSnapshots(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(infos) == 0 {
					fmt.Fprintln(out, Subtle.Sprint("No snapshots."))
					return nil
				}
				rows := make([][]string, 0, len(infos))
				for _, in := range infos {
					rows = append(rows, []string{strconv.FormatInt(in.ID, 10), in.TS.Local().Format("2006-01-02 15:04:05"), in.Reason})
				}
				Table(out, []string{"ID", "TAKEN", "REASON"}, rows, nil)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum snapshots to show")
	return cmd
}

func snapshotRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Replace the board with a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid snapshot id %q", args[0])
			}
			return withSession(cmd, func(s *session) error {
				ctx := cmd.Context()
				nodes, err := s.repo.LoadSnapshot(ctx, id)
				if err != nil {
					return err
				}
				if err := s.replaceBoard(ctx, fmt.Sprintf("before restore of %d", id), nodes); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s snapshot %d (%d nodes)\n", Good.Sprint("Restored"), id, s.store.Len())
				return nil
			})
		},
	}
}

func snapshotPruneCmd() *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				n, err := s.repo.PruneSnapshots(cmd.Context(), keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d snapshot(s)\n", Good.Sprint("Pruned"), n)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&keep, "keep", 10, "snapshots to keep")
	return cmd
}
