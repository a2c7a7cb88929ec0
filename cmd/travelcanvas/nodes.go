/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"travelcanvas/internal/domain"
	"travelcanvas/internal/geometry"
	"travelcanvas/internal/storage"
)

// fieldFlags are the editable node fields shared by add and edit.
type fieldFlags struct {
	title    string
	desc     string
	tags     []string
	priority string
	status   string
	date     string
	confirm  bool
}

func (f *fieldFlags) bind(fs *pflag.FlagSet, withTitle bool) {
	if withTitle {
		fs.StringVar(&f.title, "title", "", "node title")
	}
	fs.StringVar(&f.desc, "desc", "", "description")
	fs.StringSliceVar(&f.tags, "tag", nil, "tag (repeatable)")
	fs.StringVar(&f.priority, "priority", "", "low, medium, high or critical")
	fs.StringVar(&f.status, "status", "", "pending, confirmed, cancelled or completed")
	fs.StringVar(&f.date, "date", "", "planned date (YYYY-MM-DD, empty string clears)")
	fs.BoolVar(&f.confirm, "confirmed", false, "mark the booking as confirmed")
}

// apply returns an edit for the flags that were set on the command line.
func (f *fieldFlags) apply(fs *pflag.FlagSet) (func(n *domain.Node), bool, error) {
	var edits []func(n *domain.Node)
	if fs.Lookup("title") != nil && fs.Changed("title") {
		title := f.title
		edits = append(edits, func(n *domain.Node) { n.Title = title })
	}
	if fs.Changed("desc") {
		desc := f.desc
		edits = append(edits, func(n *domain.Node) { n.Description = desc })
	}
	if fs.Changed("tag") {
		tags := append([]string{}, f.tags...)
		edits = append(edits, func(n *domain.Node) { n.Tags = tags })
	}
	if fs.Changed("priority") {
		p, err := domain.ParsePriority(f.priority)
		if err != nil {
			return nil, false, err
		}
		edits = append(edits, func(n *domain.Node) { n.Priority = p })
	}
	if fs.Changed("status") {
		st, err := domain.ParseStatus(f.status)
		if err != nil {
			return nil, false, err
		}
		edits = append(edits, func(n *domain.Node) { n.Status = st })
	}
	if fs.Changed("date") {
		d, err := parseDate(f.date)
		if err != nil {
			return nil, false, err
		}
		edits = append(edits, func(n *domain.Node) { n.Date = d })
	}
	if fs.Changed("confirmed") {
		c := f.confirm
		edits = append(edits, func(n *domain.Node) { n.Confirmed = c })
	}
	return func(n *domain.Node) {
		for _, e := range edits {
			e(n)
		}
	}, len(edits) > 0, nil
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return &t, nil
}

// parsePoint reads "x,y".
func parsePoint(s string) (geometry.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return geometry.Point{}, fmt.Errorf("invalid point %q, want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("invalid x in %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("invalid y in %q: %w", s, err)
	}
	p := geometry.P(x, y)
	if err := geometry.Validate(p); err != nil {
		return geometry.Point{}, err
	}
	return p, nil
}

func addCmd() *cobra.Command {
	var (
		at     string
		fields fieldFlags
	)
	cmd := &cobra.Command{
		Use:   "add <type> [title]",
		Short: "Add a node; it is placed clear of existing nodes",
		Long: `Add a node of the given type (flight, hotel, event, transport, restaurant,
activity). Without --at the node goes near the board centre. Either way it is
moved along a spiral until it keeps the minimum distance to every other node.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := domain.ParseType(args[0])
			if err != nil {
				return err
			}
			var desired *geometry.Point
			if cmd.Flags().Changed("at") {
				p, err := parsePoint(at)
				if err != nil {
					return err
				}
				desired = &p
			}
			edit, changed, err := fields.apply(cmd.Flags())
			if err != nil {
				return err
			}
			title := ""
			if len(args) == 2 {
				title = args[1]
			}
			return withSession(cmd, func(s *session) error {
				n, err := s.board.AddNode(t, title, desired)
				if err != nil {
					return err
				}
				if changed {
					if n, err = s.store.Update(n.ID, edit); err != nil {
						return err
					}
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %s %s at %s\n", Good.Sprint("Added"), typeColor(n.Type).Sprint(n.Type.Label()), Brand.Sprint(n.Title), formatPoint(n.Position))
				fmt.Fprintf(out, "  %s %s\n", Subtle.Sprint("id"), n.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "desired position x,y")
	fields.bind(cmd.Flags(), false)
	return cmd
}

func listCmd() *cobra.Command {
	var (
		types    []string
		statuses []string
		prios    []string
		search   string
		sortBy   string
		from, to string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List nodes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := domain.Filter{Search: search}
			for _, v := range types {
				t, err := domain.ParseType(v)
				if err != nil {
					return err
				}
				f.Types = append(f.Types, t)
			}
			for _, v := range statuses {
				st, err := domain.ParseStatus(v)
				if err != nil {
					return err
				}
				f.Statuses = append(f.Statuses, st)
			}
			for _, v := range prios {
				p, err := domain.ParsePriority(v)
				if err != nil {
					return err
				}
				f.Priorities = append(f.Priorities, p)
			}
			var err error
			if f.From, err = parseDate(from); err != nil {
				return err
			}
			if f.To, err = parseDate(to); err != nil {
				return err
			}
			return withSession(cmd, func(s *session) error {
				nodes := s.board.Nodes(f)
				switch sortBy {
				case "", "created":
				case "date":
					nodes = domain.SortByDate(nodes)
				case "priority":
					nodes = domain.SortByPriority(nodes)
				default:
					return fmt.Errorf("unknown sort %q (created, date, priority)", sortBy)
				}
				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(nodes)
				}
				if len(nodes) == 0 {
					fmt.Fprintln(out, Subtle.Sprint("No nodes."))
					return nil
				}
				printNodes(cmd, nodes)
				fmt.Fprintf(out, "\n  %s\n", Subtle.Sprintf("%d of %d nodes", len(nodes), s.store.Len()))
				return nil
			})
		},
	}
	fs := cmd.Flags()
	fs.StringSliceVar(&types, "type", nil, "filter by type (repeatable)")
	fs.StringSliceVar(&statuses, "status", nil, "filter by status (repeatable)")
	fs.StringSliceVar(&prios, "priority", nil, "filter by priority (repeatable)")
	fs.StringVar(&search, "search", "", "case-insensitive match on title, description and tags")
	fs.StringVar(&from, "from", "", "planned on or after YYYY-MM-DD")
	fs.StringVar(&to, "to", "", "planned on or before YYYY-MM-DD")
	fs.StringVar(&sortBy, "sort", "", "created, date or priority")
	fs.BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printNodes(cmd *cobra.Command, nodes []domain.Node) {
	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, []string{
			shortID(n.ID),
			string(n.Type),
			n.Title,
			formatPoint(n.Position),
			string(n.Status),
			string(n.Priority),
			formatDate(n),
		})
	}
	Table(cmd.OutOrStdout(), []string{"ID", "TYPE", "TITLE", "POSITION", "STATUS", "PRIORITY", "DATE"}, rows, func(col int, cell string) string {
		switch col {
		case 1:
			return typeColor(domain.NodeType(strings.TrimSpace(cell))).Sprint(cell)
		case 4:
			return statusColor(domain.Status(strings.TrimSpace(cell))).Sprint(cell)
		}
		return cell
	})
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one node as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				id, err := s.resolve(args[0])
				if err != nil {
					return err
				}
				n, _ := s.store.Get(id)
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(n)
			})
		},
	}
}

func editCmd() *cobra.Command {
	var fields fieldFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change node fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			edit, changed, err := fields.apply(cmd.Flags())
			if err != nil {
				return err
			}
			if !changed {
				return errors.New("nothing to change")
			}
			return withSession(cmd, func(s *session) error {
				id, err := s.resolve(args[0])
				if err != nil {
					return err
				}
				n, err := s.store.Update(id, edit)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", Good.Sprint("Updated"), Brand.Sprint(n.Title))
				return nil
			})
		},
	}
	fields.bind(cmd.Flags(), true)
	return cmd
}

func moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <x,y>",
		Short: "Set a node's position directly",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePoint(args[1])
			if err != nil {
				return err
			}
			return withSession(cmd, func(s *session) error {
				id, err := s.resolve(args[0])
				if err != nil {
					return err
				}
				s.board.MoveNode(id, p)
				n, _ := s.store.Get(id)
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s to %s\n", Good.Sprint("Moved"), Brand.Sprint(n.Title), formatPoint(n.Position))
				return nil
			})
		},
	}
}

func dragCmd() *cobra.Command {
	var (
		to    string
		steps int
		snap  bool
	)
	cmd := &cobra.Command{
		Use:   "drag <id> --to x,y",
		Short: "Drag a node as the canvas would",
		Long: `Replay a pointer gesture: press on the node, move the pointer to the target
in a number of steps and release. The node is clamped to the board and,
with --snap or grid snapping enabled, snapped to the grid. A gesture that
never moves the pointer more than 5 pixels counts as a click.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parsePoint(to)
			if err != nil {
				return err
			}
			if steps < 1 {
				steps = 1
			}
			return withSession(cmd, func(s *session) error {
				id, err := s.resolve(args[0])
				if err != nil {
					return err
				}
				if snap {
					s.settings.SetGridSnap(true)
				}
				n, _ := s.store.Get(id)
				start := n.Position
				if !s.board.BeginDrag(id, start) {
					return fmt.Errorf("cannot drag %s", shortID(id))
				}
				for i := 1; i <= steps; i++ {
					f := float64(i) / float64(steps)
					s.events.Move(start.Add(target.Sub(start).Scale(f)))
				}
				s.events.Up(target)

				out := cmd.OutOrStdout()
				n, _ = s.store.Get(id)
				if s.board.Controller.WasJustClicked() {
					fmt.Fprintf(out, "%s %s now at %s (below the drag threshold)\n", Info.Sprint("Click:"), Brand.Sprint(n.Title), formatPoint(n.Position))
					return nil
				}
				fmt.Fprintf(out, "%s %s to %s\n", Good.Sprint("Dragged"), Brand.Sprint(n.Title), formatPoint(n.Position))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "pointer release point x,y")
	cmd.Flags().IntVar(&steps, "steps", 10, "pointer move events between press and release")
	cmd.Flags().BoolVar(&snap, "snap", false, "snap to the grid for this gesture")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func dupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dup <id>",
		Short: "Duplicate a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				id, err := s.resolve(args[0])
				if err != nil {
					return err
				}
				c, err := s.board.Duplicate(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s at %s\n  %s %s\n", Good.Sprint("Duplicated"), Brand.Sprint(c.Title), formatPoint(c.Position), Subtle.Sprint("id"), c.ID)
				return nil
			})
		},
	}
}

func rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete nodes",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *session) error {
				ids := make([]string, 0, len(args))
				for _, a := range args {
					id, err := s.resolve(a)
					if err != nil {
						return err
					}
					ids = append(ids, id)
				}
				n := s.board.Delete(ids...)
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d node(s)\n", Good.Sprint("Deleted"), n)
				return nil
			})
		},
	}
}

func searchCmd() *cobra.Command {
	var (
		types []string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over saved nodes",
		Long: `Search titles, descriptions and tags of the saved nodes. The query uses
SQLite FTS5 syntax: terms, "quoted phrases", AND/OR/NOT and prefix*.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := storage.SearchQuery{Text: strings.Join(args, " "), Limit: limit}
			for _, v := range types {
				t, err := domain.ParseType(v)
				if err != nil {
					return err
				}
				q.Types = append(q.Types, t)
			}
			return withSession(cmd, func(s *session) error {
				res, err := s.repo.Search(cmd.Context(), q)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(res) == 0 {
					fmt.Fprintln(out, Subtle.Sprint("No matches."))
					return nil
				}
				rows := make([][]string, 0, len(res))
				for _, r := range res {
					rows = append(rows, []string{shortID(r.ID), string(r.Type), r.Title, r.Snippet})
				}
				Table(out, []string{"ID", "TYPE", "TITLE", "MATCH"}, rows, nil)
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&types, "type", nil, "restrict to type (repeatable)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum results")
	return cmd
}
