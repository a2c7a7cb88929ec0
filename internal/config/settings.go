/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	applog "travelcanvas/internal/log"

	"github.com/fsnotify/fsnotify"
)

// Settings is the live view of the canvas section. The drag controller reads
// GridSnap on every pointer move, so toggles take effect mid-gesture.
type Settings struct {
	mu     sync.RWMutex
	canvas CanvasConfig
	subs   []func(CanvasConfig)
}

func NewSettings(c CanvasConfig) *Settings { return &Settings{canvas: c} }

func (s *Settings) GridSnap() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canvas.GridSnap
}

func (s *Settings) GridSize() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canvas.GridSize
}

// Canvas returns a copy of the current canvas section.
func (s *Settings) Canvas() CanvasConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canvas
}

func (s *Settings) SetGridSnap(on bool) {
	s.update(func(c *CanvasConfig) { c.GridSnap = on })
}

// Apply replaces the canvas section and notifies subscribers if it changed.
func (s *Settings) Apply(c CanvasConfig) {
	s.update(func(cur *CanvasConfig) { *cur = c })
}

// OnChange registers fn to be called after every effective change.
func (s *Settings) OnChange(fn func(CanvasConfig)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func (s *Settings) update(fn func(*CanvasConfig)) {
	s.mu.Lock()
	before := s.canvas
	fn(&s.canvas)
	after := s.canvas
	subs := append([]func(CanvasConfig){}, s.subs...)
	s.mu.Unlock()
	if before == after {
		return
	}
	for _, sub := range subs {
		sub(after)
	}
}

// reloadDelay coalesces the burst of events editors produce on save.
const reloadDelay = 250 * time.Millisecond

// Watch reloads path whenever it changes and applies its canvas section to s.
// The parent directory is watched so atomic rename-on-save is picked up.
// Watching stops when ctx is cancelled.
func Watch(ctx context.Context, path string, s *Settings) error {
	l := applog.WithOperation(applog.WithComponent("config"), "watch").With(slog.String("path", path))
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	target := filepath.Clean(path)

	go func() {
		defer w.Close()
		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDelay, func() {
					cfg, err := LoadFile(path)
					if err != nil {
						l.Warn("config reload failed", slog.Any("err", err))
						return
					}
					s.Apply(cfg.Canvas)
					l.Debug("config reloaded", slog.Bool("grid_snap", cfg.Canvas.GridSnap))
				})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				l.Warn("watcher error", slog.Any("err", err))
			}
		}
	}()
	return nil
}
