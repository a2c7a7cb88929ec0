/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package config loads the user configuration of travelcanvas.
//
// The YAML file lives in the per-user config directory. Values missing from the
// file keep their defaults; environment variables override both at runtime and
// are never written back. The remote database DSN is a secret and is kept in the
// OS keyring instead of the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	applog "travelcanvas/internal/log"

	"gopkg.in/yaml.v3"
)

// CurrentVersion is written into new config files.
const CurrentVersion = 1

type GeneralConfig struct {
	TelemetryOptIn bool `yaml:"telemetry_opt_in"`
}

// CanvasConfig holds the board geometry and interaction constants.
type CanvasConfig struct {
	Width           float64 `yaml:"width"`
	Height          float64 `yaml:"height"`
	NodeSize        float64 `yaml:"node_size"`
	MinDistance     float64 `yaml:"min_distance"`
	MaxAttempts     int     `yaml:"max_attempts"`
	GridSnap        bool    `yaml:"grid_snap"`
	GridSize        float64 `yaml:"grid_size"`
	AutoSaveDelayMs int     `yaml:"autosave_delay_ms"`
}

// AutoSaveDelay returns the write-behind quiet period.
func (c CanvasConfig) AutoSaveDelay() time.Duration {
	return time.Duration(c.AutoSaveDelayMs) * time.Millisecond
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

// RemoteConfig configures the optional PostgreSQL sync target.
// The DSN itself is not stored here; see LoadDSN.
type RemoteConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Owner     string `yaml:"owner"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

func (r RemoteConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMs) * time.Millisecond
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Options converts the logging section into logger options.
func (l LoggingConfig) Options() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Canvas        CanvasConfig  `yaml:"canvas"`
	Storage       StorageConfig `yaml:"storage"`
	Remote        RemoteConfig  `yaml:"remote"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: CurrentVersion,
		Canvas: CanvasConfig{
			Width:           1200,
			Height:          800,
			NodeSize:        120,
			MinDistance:     150,
			MaxAttempts:     50,
			GridSize:        20,
			AutoSaveDelayMs: 2000,
		},
		Remote:  RemoteConfig{Owner: "local", TimeoutMs: 10000},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath     = "TC_CONFIG"
	EnvTelemetryOptIn = "TC_TELEMETRY_OPT_IN"
	EnvGridSnap       = "TC_GRID_SNAP"
	EnvGridSize       = "TC_GRID_SIZE"
	EnvDataDir        = "TC_DATA_DIR"
	EnvRemoteEnabled  = "TC_REMOTE_ENABLED"
	EnvRemoteOwner    = "TC_REMOTE_OWNER"
	EnvPGDSN          = "TC_PG_DSN"
	EnvLogLevel       = applog.EnvLevel
	EnvLogFormat      = applog.EnvFormat
	EnvLogSource      = applog.EnvSource
	EnvLogFile        = applog.EnvFile
)

// ConfigPath returns the per-user config file path. TC_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	base, err := appDir(os.UserConfigDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "config.yaml"), nil
}

// DefaultDataDir returns the per-user directory for the local database and backups.
func DefaultDataDir() (string, error) {
	if runtime.GOOS == "linux" {
		if x := os.Getenv("XDG_DATA_HOME"); x != "" {
			return filepath.Join(x, "travelcanvas"), nil
		}
		if h, err := os.UserHomeDir(); err == nil {
			return filepath.Join(h, ".local", "share", "travelcanvas"), nil
		}
	}
	return appDir(os.UserConfigDir)
}

func appDir(base func() (string, error)) (string, error) {
	dir, err := base()
	if err != nil || dir == "" {
		return "", errors.New("cannot resolve config directory")
	}
	if runtime.GOOS == "linux" {
		return filepath.Join(dir, "travelcanvas"), nil
	}
	return filepath.Join(dir, "TravelCanvas"), nil
}

// Load reads the user config (if present), applies defaults and environment
// overrides, and returns the remote DSN from the keyring or TC_PG_DSN.
func Load() (AppConfig, string, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), "", err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return cfg, "", err
	}
	return cfg, LoadDSN(), nil
}

// LoadFile reads one config file. A missing file yields the defaults; a file
// that does not parse is reported and the defaults are kept.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Defaults(), fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	normalize(&cfg)
	applyEnvOverrides(&cfg)
	if cfg.Storage.DataDir == "" {
		if dir, err := DefaultDataDir(); err == nil {
			cfg.Storage.DataDir = dir
		}
	}
	return cfg, nil
}

// Save writes the user config YAML and stores a non-empty DSN in the keyring.
func Save(cfg AppConfig, dsn string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := SaveFile(path, cfg); err != nil {
		return err
	}
	if dsn != "" {
		return StoreDSN(dsn)
	}
	return nil
}

// SaveFile writes cfg to path via a temp file and rename.
func SaveFile(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// normalize replaces values that would break the canvas with their defaults.
func normalize(cfg *AppConfig) {
	def := Defaults()
	c := &cfg.Canvas
	if c.Width <= 0 {
		c.Width = def.Canvas.Width
	}
	if c.Height <= 0 {
		c.Height = def.Canvas.Height
	}
	if c.NodeSize <= 0 {
		c.NodeSize = def.Canvas.NodeSize
	}
	if c.MinDistance <= 0 {
		c.MinDistance = def.Canvas.MinDistance
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.Canvas.MaxAttempts
	}
	if c.GridSize <= 0 {
		c.GridSize = def.Canvas.GridSize
	}
	if c.AutoSaveDelayMs < 0 {
		c.AutoSaveDelayMs = def.Canvas.AutoSaveDelayMs
	}
	if cfg.Remote.TimeoutMs <= 0 {
		cfg.Remote.TimeoutMs = def.Remote.TimeoutMs
	}
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	cfg.Logging.File = strings.TrimSpace(cfg.Logging.File)
}

func applyEnvOverrides(cfg *AppConfig) {
	if v, ok := lookup(EnvTelemetryOptIn); ok {
		cfg.General.TelemetryOptIn = parseBool(v)
	}
	if v, ok := lookup(EnvGridSnap); ok {
		cfg.Canvas.GridSnap = parseBool(v)
	}
	if v, ok := lookup(EnvGridSize); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Canvas.GridSize = f
		}
	}
	if v, ok := lookup(EnvDataDir); ok {
		cfg.Storage.DataDir = v
	}
	if v, ok := lookup(EnvRemoteEnabled); ok {
		cfg.Remote.Enabled = parseBool(v)
	}
	if v, ok := lookup(EnvRemoteOwner); ok {
		cfg.Remote.Owner = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLogFormat); ok {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v, ok := lookup(EnvLogSource); ok {
		cfg.Logging.Source = parseBool(v)
	}
	if v, ok := lookup(EnvLogFile); ok {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"general.telemetry_opt_in": EnvTelemetryOptIn,
	"canvas.grid_snap":         EnvGridSnap,
	"canvas.grid_size":         EnvGridSize,
	"storage.data_dir":         EnvDataDir,
	"remote.enabled":           EnvRemoteEnabled,
	"remote.owner":             EnvRemoteOwner,
	"remote.dsn":               EnvPGDSN,
	"logging.level":            EnvLogLevel,
	"logging.format":           EnvLogFormat,
	"logging.source":           EnvLogSource,
	"logging.file":             EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envKeys[key]
	if !ok {
		return "", false
	}
	if _, set := lookup(name); !set {
		return "", false
	}
	return name, true
}

func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
