/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
)

type memSecrets map[string]string

func (m memSecrets) Get(service, key string) (string, error) { return m[service+"/"+key], nil }
func (m memSecrets) Set(service, key, value string) error {
	m[service+"/"+key] = value
	return nil
}
func (m memSecrets) Delete(service, key string) error {
	delete(m, service+"/"+key)
	return nil
}

func useTempConfig(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, p)
	prev := SetSecretStore(memSecrets{})
	t.Cleanup(func() { SetSecretStore(prev) })
	return p
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	useTempConfig(t)
	t.Setenv(EnvDataDir, "")
	cfg, dsn, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	def := Defaults()
	if cfg.Canvas.NodeSize != 120 || cfg.Canvas.MinDistance != 150 || cfg.Canvas.MaxAttempts != 50 || cfg.Canvas.GridSize != 20 {
		t.Fatalf("canvas defaults mismatch: %+v", cfg.Canvas)
	}
	if cfg.Canvas.AutoSaveDelay() != def.Canvas.AutoSaveDelay() {
		t.Fatalf("autosave delay = %v", cfg.Canvas.AutoSaveDelay())
	}
	if dsn != "" {
		t.Fatalf("expected empty dsn, got %q", dsn)
	}
}

func TestLoadKeepsDefaultsForAbsentKeys(t *testing.T) {
	p := useTempConfig(t)
	data := "canvas:\n  grid_snap: true\n  grid_size: 25\nlogging:\n  level: DEBUG\n"
	if err := os.WriteFile(p, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.Canvas.GridSnap || cfg.Canvas.GridSize != 25 {
		t.Fatalf("file values not applied: %+v", cfg.Canvas)
	}
	if cfg.Canvas.Width != 1200 || cfg.Canvas.Height != 800 {
		t.Fatalf("absent keys lost their defaults: %+v", cfg.Canvas)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging level not normalized: %q", cfg.Logging.Level)
	}
}

func TestNormalizeRejectsNonPositiveGeometry(t *testing.T) {
	cfg := Defaults()
	cfg.Canvas.GridSize = -5
	cfg.Canvas.NodeSize = 0
	cfg.Canvas.MaxAttempts = -1
	normalize(&cfg)
	if cfg.Canvas.GridSize != 20 || cfg.Canvas.NodeSize != 120 || cfg.Canvas.MaxAttempts != 50 {
		t.Fatalf("normalize did not restore defaults: %+v", cfg.Canvas)
	}
}

func TestEnvOverrides(t *testing.T) {
	useTempConfig(t)
	t.Setenv(EnvGridSnap, "on")
	t.Setenv(EnvGridSize, "40")
	t.Setenv(EnvTelemetryOptIn, "true")
	t.Setenv(EnvRemoteOwner, "alice")
	t.Setenv(EnvLogFormat, "JSON")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.Canvas.GridSnap || cfg.Canvas.GridSize != 40 {
		t.Fatalf("grid overrides not applied: %+v", cfg.Canvas)
	}
	if !cfg.General.TelemetryOptIn || cfg.Remote.Owner != "alice" || cfg.Logging.Format != "json" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if name, ok := EnvOverrideFor("canvas.grid_snap"); !ok || name != EnvGridSnap {
		t.Fatalf("EnvOverrideFor(canvas.grid_snap) = %q, %v", name, ok)
	}
	if _, ok := EnvOverrideFor("canvas.width"); ok {
		t.Fatalf("canvas.width has no env override")
	}
}

func TestInvalidGridSizeEnvIgnored(t *testing.T) {
	useTempConfig(t)
	t.Setenv(EnvGridSize, "-3")
	cfg, _, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Canvas.GridSize != 20 {
		t.Fatalf("grid size = %v, want default 20", cfg.Canvas.GridSize)
	}
}

func TestSaveRoundTripAndDSN(t *testing.T) {
	p := useTempConfig(t)
	cfg := Defaults()
	cfg.Canvas.GridSnap = true
	cfg.Remote.Enabled = true
	if err := Save(cfg, "postgres://u:p@localhost/tc"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	got, dsn, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !got.Canvas.GridSnap || !got.Remote.Enabled {
		t.Fatalf("round trip lost values: %+v", got)
	}
	if dsn != "postgres://u:p@localhost/tc" {
		t.Fatalf("dsn = %q", dsn)
	}
	t.Setenv(EnvPGDSN, "postgres://env/tc")
	if LoadDSN() != "postgres://env/tc" {
		t.Fatalf("env dsn should win over keyring")
	}
	t.Setenv(EnvPGDSN, "")
	if err := StoreDSN(""); err != nil {
		t.Fatal(err)
	}
	if LoadDSN() != "" {
		t.Fatalf("dsn should be deleted")
	}
}

func TestBrokenFileReportsError(t *testing.T) {
	p := useTempConfig(t)
	if err := os.WriteFile(p, []byte("canvas: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, _, err := Load()
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if cfg.Canvas.GridSize != 20 {
		t.Fatalf("defaults expected on parse error: %+v", cfg.Canvas)
	}
}
