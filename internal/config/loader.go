package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMeshesDir     = "Data/Meshes"
	DefaultOverrideDir   = "AnimGroupOverride"
	DefaultWatchInterval = "2s"
	DefaultLogLevel      = "info"
)

// Paths helper for base/local config files.
type Paths struct {
	BaseDir string // base directory, e.g., the game install dir
}

func (p Paths) BasePath() string {
	return filepath.Join(p.BaseDir, "animoverride.yaml")
}
func (p Paths) LocalPath() string {
	return filepath.Join(p.BaseDir, "animoverride.local.yaml")
}

// Loader reads YAML configs and merges builtin → base → local → env.
type Loader struct {
	paths Paths

	mu     sync.RWMutex
	cached *RawConfig
}

// NewLoader creates a config loader with the given base directory.
func NewLoader(baseDir string) *Loader {
	return &Loader{paths: Paths{BaseDir: baseDir}}
}

// LoadMerged loads and merges every layer. It returns the merged RawConfig
// (without normalization).
func (l *Loader) LoadMerged() (RawConfig, error) {
	l.mu.RLock()
	if l.cached != nil {
		cfg := *l.cached
		l.mu.RUnlock()
		return cfg, nil
	}
	l.mu.RUnlock()

	baseCfg, err := readYAML(l.paths.BasePath()) // base file may not exist
	if err != nil {
		return RawConfig{}, fmt.Errorf("read base: %w", err)
	}
	localCfg, err := readYAML(l.paths.LocalPath())
	if err != nil {
		return RawConfig{}, fmt.Errorf("read local: %w", err)
	}

	// Merge: local <- base <- builtin (earlier layers win)
	merged := mergeRaw(localCfg, baseCfg)
	merged = mergeRaw(merged, Builtin())

	var e Env
	if err := env.Parse(&e); err != nil {
		return RawConfig{}, fmt.Errorf("parse env: %w", err)
	}
	merged = applyEnv(merged, e)

	l.mu.Lock()
	l.cached = &merged
	l.mu.Unlock()
	return merged, nil
}

// Load merges, validates and normalizes.
func (l *Loader) Load() (Settings, error) {
	raw, err := l.LoadMerged()
	if err != nil {
		return Settings{}, err
	}
	if err := ValidateRaw(raw); err != nil {
		return Settings{}, err
	}
	return Normalize(raw), nil
}

// Invalidate clears loader's cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
}

// Builtin returns the lowest-priority layer.
func Builtin() RawConfig {
	return RawConfig{
		Version: "1",
		Data: DataConfig{
			MeshesDir:   DefaultMeshesDir,
			OverrideDir: DefaultOverrideDir,
		},
		Watch: &WatchConfig{Enabled: false, Interval: DefaultWatchInterval},
		Log:   LogConfig{Level: DefaultLogLevel},
	}
}

// readYAML loads a YAML file into RawConfig. Missing files return zero cfg, no error.
func readYAML(path string) (RawConfig, error) {
	var cfg RawConfig
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RawConfig{}, nil
		}
		return RawConfig{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawConfig{}, err
	}
	return cfg, nil
}

// mergeRaw fills what 'a' leaves unset from 'b'.
// Fixture is taken whole from the first layer that has one.
func mergeRaw(a, b RawConfig) RawConfig {
	out := a

	if out.Version == "" {
		out.Version = b.Version
	}
	if out.Notes == "" {
		out.Notes = b.Notes
	}

	// data
	if out.Data.MeshesDir == "" {
		out.Data.MeshesDir = b.Data.MeshesDir
	}
	if out.Data.OverrideDir == "" {
		out.Data.OverrideDir = b.Data.OverrideDir
	}

	// primary
	if out.Primary.Ref == nil && b.Primary.Ref != nil {
		out.Primary.Ref = b.Primary.Ref
	}
	if out.Primary.Base == nil && b.Primary.Base != nil {
		out.Primary.Base = b.Primary.Base
	}

	if out.Resolve.Seed == nil && b.Resolve.Seed != nil {
		out.Resolve.Seed = b.Resolve.Seed
	}

	// watch
	switch {
	case out.Watch == nil && b.Watch != nil:
		c := *b.Watch
		out.Watch = &c
	case out.Watch != nil && b.Watch != nil:
		if out.Watch.Interval == "" {
			out.Watch.Interval = b.Watch.Interval
		}
	}

	if out.Log.Level == "" {
		out.Log.Level = b.Log.Level
	}

	if out.Fixture == nil && b.Fixture != nil {
		c := *b.Fixture
		out.Fixture = &c
	}
	return out
}

// applyEnv lets non-empty environment values win over every file layer.
func applyEnv(cfg RawConfig, e Env) RawConfig {
	if e.MeshesDir != "" {
		cfg.Data.MeshesDir = e.MeshesDir
	}
	if e.OverrideDir != "" {
		cfg.Data.OverrideDir = e.OverrideDir
	}
	if e.LogLevel != "" {
		cfg.Log.Level = e.LogLevel
	}
	if e.Seed != 0 {
		seed := e.Seed
		cfg.Resolve.Seed = &seed
	}
	if e.Watch {
		if cfg.Watch == nil {
			cfg.Watch = &WatchConfig{Interval: DefaultWatchInterval}
		}
		cfg.Watch.Enabled = true
	}
	return cfg
}

// Normalize converts a validated RawConfig into Settings.
func Normalize(raw RawConfig) Settings {
	s := Settings{
		MeshesDir:   raw.Data.MeshesDir,
		OverrideDir: raw.Data.OverrideDir,
		LogLevel:    raw.Log.Level,
		Version:     raw.Version,
	}
	if raw.Primary.Ref != nil {
		s.PrimaryRef = *raw.Primary.Ref
	}
	if raw.Primary.Base != nil {
		s.PrimaryBase = *raw.Primary.Base
	}
	if raw.Resolve.Seed != nil {
		s.Seed = *raw.Resolve.Seed
	}
	if raw.Watch != nil {
		s.Watch = raw.Watch.Enabled
		s.WatchInterval = raw.Watch.Interval
	}
	if s.WatchInterval == "" {
		s.WatchInterval = DefaultWatchInterval
	}
	if raw.Fixture != nil {
		s.Fixture = *raw.Fixture
	}
	return s
}
