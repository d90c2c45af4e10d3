// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

// Package config loads fpac tool settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/woozymasta/fpac"
	"github.com/woozymasta/fpac/transcode"
)

// ErrInvalidConfig is returned for configuration values that cannot be used.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full tool configuration.
type Config struct {
	// WorkDir is the root of per-task workspaces.
	WorkDir string `yaml:"work_dir"`
	Log     Log     `yaml:"log"`
	Tools   Tools   `yaml:"tools"`
	Archive Archive `yaml:"archive"`
	Extract Extract `yaml:"extract"`
	Batch   Batch   `yaml:"batch"`
}

// Tools configures external audio tools.
type Tools struct {
	FFmpeg  string        `yaml:"ffmpeg"`
	XWBTool string        `yaml:"xwbtool"`
	Wine    string        `yaml:"wine"`
	Display string        `yaml:"display"`
	Timeout time.Duration `yaml:"timeout"`
}

// Archive configures archive rewrites.
type Archive struct {
	// BackupKeep is number of backup generations kept per archive; 0 disables backups.
	BackupKeep  int `yaml:"backup_keep"`
	WriteBuffer int `yaml:"write_buffer"`
}

// Extract configures extraction.
type Extract struct {
	Workers int `yaml:"workers"`
}

// Batch configures batch replacement.
type Batch struct {
	// Limit is the maximum number of tasks running at once.
	Limit int `yaml:"limit"`
}

// Log configures the logger.
type Log struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// Default returns configuration used when no file is given.
func Default() Config {
	cfg := Config{
		WorkDir: filepath.Join(os.TempDir(), "fpac"),
		Log:     Log{Level: "info", Format: "text"},
		Tools: Tools{
			FFmpeg:  "ffmpeg",
			XWBTool: filepath.Join("tools", "XWBTool.exe"),
			Timeout: transcode.DefaultTimeout,
		},
		Archive: Archive{WriteBuffer: fpac.DefaultWriteBuffer},
		Extract: Extract{Workers: runtime.GOMAXPROCS(0)},
		Batch:   Batch{Limit: 2},
	}
	if runtime.GOOS != "windows" {
		cfg.Tools.Wine = "wine"
		cfg.Tools.Display = transcode.DefaultDisplay
	}

	return cfg
}

// Load reads YAML config from path over Default. Empty path returns Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML config over Default and validates it. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.WorkDir == "":
		return fmt.Errorf("%w: work_dir is empty", ErrInvalidConfig)
	case c.Tools.Timeout <= 0:
		return fmt.Errorf("%w: tools.timeout must be positive", ErrInvalidConfig)
	case c.Archive.BackupKeep < 0:
		return fmt.Errorf("%w: archive.backup_keep must not be negative", ErrInvalidConfig)
	case c.Archive.WriteBuffer <= 0:
		return fmt.Errorf("%w: archive.write_buffer must be positive", ErrInvalidConfig)
	case c.Extract.Workers < 0:
		return fmt.Errorf("%w: extract.workers must not be negative", ErrInvalidConfig)
	case c.Batch.Limit <= 0:
		return fmt.Errorf("%w: batch.limit must be positive", ErrInvalidConfig)
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("%w: log.format %q", ErrInvalidConfig, c.Log.Format)
	}

	return nil
}

// Encoder returns the configured ffmpeg encoder.
func (c Config) Encoder() transcode.FFmpeg {
	return transcode.FFmpeg{Path: c.Tools.FFmpeg, Timeout: c.Tools.Timeout}
}

// Builder returns the configured XWBTool builder.
func (c Config) Builder() transcode.XWBTool {
	return transcode.XWBTool{
		Path:    c.Tools.XWBTool,
		Wine:    c.Tools.Wine,
		Display: c.Tools.Display,
		Timeout: c.Tools.Timeout,
	}
}

// EditOptions returns archive rewrite options.
func (c Config) EditOptions() fpac.EditOptions {
	return fpac.EditOptions{
		BackupKeep:       c.Archive.BackupKeep,
		WriterBufferSize: c.Archive.WriteBuffer,
	}
}
