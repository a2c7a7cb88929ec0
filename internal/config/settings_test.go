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
	"path/filepath"
	"testing"
	"time"
)

func TestSettingsNotifiesOnlyOnChange(t *testing.T) {
	s := NewSettings(Defaults().Canvas)
	calls := 0
	s.OnChange(func(c CanvasConfig) {
		calls++
		if !c.GridSnap {
			t.Fatalf("subscriber saw stale value")
		}
	})
	s.SetGridSnap(true)
	s.SetGridSnap(true)
	if !s.GridSnap() {
		t.Fatalf("GridSnap not set")
	}
	if calls != 1 {
		t.Fatalf("expected 1 notification, got %d", calls)
	}
	if s.GridSize() != 20 {
		t.Fatalf("GridSize = %v", s.GridSize())
	}
}

func TestWatchReloadsCanvasSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := Defaults()
	if err := SaveFile(path, cfg); err != nil {
		t.Fatal(err)
	}
	s := NewSettings(cfg.Canvas)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := Watch(ctx, path, s); err != nil {
		t.Fatalf("Watch() error: %v", err)
	}

	cfg.Canvas.GridSnap = true
	cfg.Canvas.GridSize = 10
	if err := SaveFile(path, cfg); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if s.GridSnap() && s.GridSize() == 10 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("settings not reloaded: %+v", s.Canvas())
}
