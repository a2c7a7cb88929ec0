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
	"strings"
	"sync"

	"travelcanvas/internal/canvas"
	"travelcanvas/internal/config"
	"travelcanvas/internal/domain"
	"travelcanvas/internal/drag"
	applog "travelcanvas/internal/log"
	"travelcanvas/internal/persist"
	"travelcanvas/internal/remote"
	"travelcanvas/internal/storage"
	"travelcanvas/internal/store"
	"travelcanvas/internal/telemetry"
)

// session is one open board: the local repository, the in-memory store
// persisting to it, and the board on top.
type session struct {
	cfg      config.AppConfig
	dsn      string
	repo     *storage.Repository
	remote   *remote.Store
	store    *store.Store
	writer   *persist.Writer
	settings *config.Settings
	events   *drag.Dispatcher
	board    *canvas.Board
	tel      *telemetry.Client
	log      *slog.Logger
}

var (
	currentMu sync.Mutex
	current   *session
)

// currentSnapshot feeds crash.Recover with whatever board is open.
func currentSnapshot() []domain.Node {
	currentMu.Lock()
	s := current
	currentMu.Unlock()
	if s == nil {
		return nil
	}
	return s.board.Snapshot()
}

// openSession loads the configuration and the stored nodes. With remote
// sync enabled and a DSN configured, changes are also written to the remote
// store; an unreachable remote only produces a warning.
func openSession(ctx context.Context) (*session, error) {
	cfg, dsn, err := config.Load()
	if err != nil {
		return nil, err
	}
	applog.Init(cfg.Logging.Options())
	l := applog.WithComponent("cli")
	repo, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}
	nodes, err := repo.ListNodes(ctx)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	s := &session{cfg: cfg, dsn: dsn, repo: repo, log: l}
	s.store = store.New(nil)
	s.store.Replace(nodes)

	sinks := []persist.Sink{repo}
	if cfg.Remote.Enabled && dsn != "" {
		rctx, cancel := context.WithTimeout(ctx, cfg.Remote.Timeout())
		rs, err := remote.Open(rctx, dsn)
		cancel()
		if err != nil {
			l.Warn("remote store unavailable, working locally", slog.Any("err", err))
		} else {
			s.remote = rs
			sinks = append(sinks, remote.OwnerSink{Store: rs, Owner: cfg.Remote.Owner})
		}
	}
	s.writer = persist.NewWriter(cfg.Canvas.AutoSaveDelay(), sinks...)
	s.store.SetPersister(s.writer)

	tcfg := telemetry.FromEnv()
	tcfg.OptIn = tcfg.OptIn || cfg.General.TelemetryOptIn
	s.tel = telemetry.New(tcfg)
	telemetry.SetDefault(s.tel)

	s.settings = config.NewSettings(cfg.Canvas)
	s.events = drag.NewDispatcher()
	s.board = canvas.New(s.store, s.settings, canvas.Options{Surface: s.events, Telemetry: s.tel})
	s.board.Resize(cfg.Canvas.Width, cfg.Canvas.Height)

	currentMu.Lock()
	current = s
	currentMu.Unlock()
	l.Debug("session opened", slog.String("data_dir", cfg.Storage.DataDir), slog.Int("nodes", len(nodes)))
	return s, nil
}

// Close flushes pending changes and releases every resource. The first
// error wins.
func (s *session) Close(ctx context.Context) error {
	currentMu.Lock()
	if current == s {
		current = nil
	}
	currentMu.Unlock()

	err := s.writer.Close(ctx)
	s.tel.Flush(ctx)
	s.tel.Close()
	if s.remote != nil {
		if cerr := s.remote.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := s.repo.Close(); err == nil {
		err = cerr
	}
	return err
}

// resolve maps a full id or a unique id prefix to a node id.
func (s *session) resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("empty node id")
	}
	if _, ok := s.store.Get(ref); ok {
		return ref, nil
	}
	var matches []string
	for _, n := range s.store.List() {
		if strings.HasPrefix(n.ID, ref) {
			matches = append(matches, n.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no node %q", ref)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("ambiguous id %q matches %d nodes", ref, len(matches))
	}
}
