/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log provides centralized slog-based logging for travelcanvas.
// Records are enriched with the application name and version; packages
// derive their own loggers through WithComponent and WithOperation.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"travelcanvas/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// AppName is attached to every record as the "app" attribute.
const AppName = "travelcanvas"

// Env var names read by FromEnv.
const (
	EnvLevel  = "TC_LOG_LEVEL"
	EnvFormat = "TC_LOG_FORMAT"
	EnvFile   = "TC_LOG_FILE"
	EnvSource = "TC_LOG_SOURCE"
)

// Options controls logger initialization.
//
// Format is "console" (one line per record, human friendly) or "json".
// If File is set, a rotating JSON file log is written in addition to stderr.
type Options struct {
	Level     string
	Format    string
	AddSource bool
	File      string

	// Output replaces stderr for the console handler. Used by tests.
	Output io.Writer
}

// state is the installed logger and the rotating file behind it, if any.
var state struct {
	sync.RWMutex
	logger *slog.Logger
	file   *lj.Logger
}

// L returns the application logger. Before Init it configures one from the
// environment.
func L() *slog.Logger {
	state.RLock()
	l := state.logger
	state.RUnlock()
	if l == nil {
		Init(FromEnv())
		state.RLock()
		l = state.logger
		state.RUnlock()
	}
	return l
}

// Init installs a logger built from opts, also as slog.Default. A log file
// opened by an earlier Init is closed.
func Init(opts Options) {
	lvl := parseLevel(opts.Level)
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var handlers []slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		handlers = append(handlers, slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}))
	} else {
		handlers = append(handlers, &lineHandler{level: lvl, addSource: opts.AddSource, w: out})
	}

	var fw *lj.Logger
	if path := strings.TrimSpace(opts.File); path != "" {
		fw = &lj.Logger{Filename: path, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		handlers = append(handlers, slog.NewJSONHandler(fw, &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}))
	}

	h := handlers[0]
	if len(handlers) > 1 {
		h = fanout(handlers)
	}
	logger := slog.New(h).With(
		slog.String("app", AppName),
		slog.String("ver", version.String()),
		slog.Time("ts_init", time.Now()),
	)

	state.Lock()
	prev := state.file
	state.logger, state.file = logger, fw
	state.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	slog.SetDefault(logger)
}

// FromEnv builds Options from TC_LOG_* environment variables.
func FromEnv() Options {
	return Options{
		Level:     envOr(EnvLevel, "info"),
		Format:    envOr(EnvFormat, "console"),
		AddSource: parseBool(os.Getenv(EnvSource)),
		File:      os.Getenv(EnvFile),
	}
}

// Close flushes and closes the rotating log file, if any.
func Close() error {
	state.Lock()
	fw := state.file
	state.file = nil
	state.Unlock()
	if fw == nil {
		return nil
	}
	return fw.Close()
}

// WithComponent returns a logger with the component attribute pre-set.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation annotates the logger with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// parseLevel maps a level name to slog.Level; unknown names are info.
func parseLevel(s string) slog.Level {
	if l, ok := levels[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l
	}
	return slog.LevelInfo
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
