/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"travelcanvas/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change settings",
	}
	cmd.AddCommand(configShowCmd(), configPathCmd(), configSetCmd(), configSetDSNCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, dsn, err := config.Load()
			if err != nil {
				return err
			}
			flat, err := flatten(cfg)
			if err != nil {
				return err
			}
			if dsn != "" {
				flat["remote.dsn"] = "(set)"
			} else {
				flat["remote.dsn"] = "(not set)"
			}
			keys := make([]string, 0, len(flat))
			for k := range flat {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			rows := make([][]string, 0, len(keys))
			for _, k := range keys {
				src := ""
				if env, ok := config.EnvOverrideFor(k); ok {
					src = env
				}
				rows = append(rows, []string{k, flat[k], src})
			}
			out := cmd.OutOrStdout()
			if path, err := config.ConfigPath(); err == nil {
				fmt.Fprintf(out, "%s %s\n\n", Subtle.Sprint("file"), path)
			}
			Table(out, []string{"KEY", "VALUE", "ENV"}, rows, func(col int, cell string) string {
				if col == 2 && strings.TrimSpace(cell) != "" {
					return Warn.Sprint(cell)
				}
				return cell
			})
			return nil
		},
	}
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting in the config file",
		Example: `  travelcanvas config set canvas.grid_snap true
  travelcanvas config set remote.owner alice`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ConfigPath()
			if err != nil {
				return err
			}
			if err := setConfigValue(path, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", Good.Sprint("Set"), args[0], args[1])
			if env, ok := config.EnvOverrideFor(args[0]); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s overrides this value\n", Warn.Sprint("Note:"), env)
			}
			return nil
		},
	}
}

func configSetDSNCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-dsn [dsn]",
		Short: "Store the remote PostgreSQL DSN in the OS keyring",
		Long: `Store the remote DSN in the OS keyring. Without an argument the DSN is read
from stdin so it stays out of the shell history. An empty DSN removes it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dsn string
			if len(args) == 1 {
				dsn = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read dsn: %w", err)
				}
				dsn = strings.TrimSpace(line)
			}
			if err := config.StoreDSN(dsn); err != nil {
				return fmt.Errorf("keyring: %w", err)
			}
			if dsn == "" {
				fmt.Fprintln(cmd.OutOrStdout(), Good.Sprint("Removed remote DSN"))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), Good.Sprint("Stored remote DSN"))
			}
			return nil
		},
	}
}

// flatten renders cfg as dotted keys, the form config set accepts.
func flatten(cfg config.AppConfig) (map[string]string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	out := map[string]string{}
	var walk func(prefix string, v any)
	walk = func(prefix string, v any) {
		if m, ok := v.(map[string]any); ok {
			for k, sub := range m {
				key := k
				if prefix != "" {
					key = prefix + "." + k
				}
				walk(key, sub)
			}
			return
		}
		out[prefix] = fmt.Sprint(v)
	}
	walk("", tree)
	return out, nil
}

// setConfigValue sets the dotted key in the file at path. Only the file is
// read, so environment overrides are never written back. The result must
// decode into a valid config.
func setConfigValue(path, key, value string) error {
	parts := strings.Split(strings.TrimSpace(key), ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("invalid key %q, want section.name", key)
	}
	tree := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return err
	default:
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if tree == nil {
			tree = map[string]any{}
		}
	}

	var v any
	if err := yaml.Unmarshal([]byte(value), &v); err != nil || v == nil {
		v = value
	}
	section, _ := tree[parts[0]].(map[string]any)
	if section == nil {
		section = map[string]any{}
	}
	section[parts[1]] = v
	tree[parts[0]] = section
	if _, ok := tree["config_version"]; !ok {
		tree["config_version"] = config.CurrentVersion
	}

	out, err := yaml.Marshal(tree)
	if err != nil {
		return err
	}
	cfg := config.Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(out))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return config.SaveFile(path, cfg)
}
