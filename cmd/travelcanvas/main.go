/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"log/slog"
	"os"

	"travelcanvas/internal/config"
	"travelcanvas/internal/crash"
	applog "travelcanvas/internal/log"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	applog.Init(applog.FromEnv())
	defer func() { _ = applog.Close() }()
	l := applog.WithComponent("cli")
	defer crash.Recover(crashDataDir(), currentSnapshot)

	l.Debug("start", slog.Int("args", len(args)))
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		l.Debug("command failed", slog.Any("err", err))
		return 1
	}
	return 0
}

// crashDataDir reads the data directory without touching the keyring.
func crashDataDir() string {
	path, err := config.ConfigPath()
	if err != nil {
		return ""
	}
	cfg, _ := config.LoadFile(path)
	return cfg.Storage.DataDir
}
