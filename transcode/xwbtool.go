// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

package transcode

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"
)

// DefaultDisplay is the X display handed to wine on headless hosts.
const DefaultDisplay = ":1"

// Builder packs a WAVE file into a wave bank sub-container.
type Builder interface {
	BuildSubContainer(ctx context.Context, wavPath string, outPath string) error
}

// XWBTool builds wave banks with the XWBTool command line utility.
type XWBTool struct {
	// Path is the XWBTool.exe location.
	Path string `json:"path" yaml:"path"`
	// Wine is the wine launcher. Empty runs Path directly.
	Wine string `json:"wine,omitempty" yaml:"wine,omitempty"`
	// Display is the DISPLAY value set for wine runs. Defaults to DefaultDisplay.
	Display string `json:"display,omitempty" yaml:"display,omitempty"`
	// Env lists extra KEY=VALUE pairs added to the inherited environment.
	Env []string `json:"env,omitempty" yaml:"env,omitempty"`
	// Timeout bounds one build run. Defaults to DefaultTimeout.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// NewXWBTool returns a builder for path, launched through wine on non-Windows hosts.
func NewXWBTool(path string) XWBTool {
	t := XWBTool{Path: path}
	if runtime.GOOS != "windows" {
		t.Wine = "wine"
		t.Display = DefaultDisplay
	}

	return t
}

// BuildSubContainer runs `XWBTool -o <out> <wav> -f -nc` inside the wav directory.
// Relative paths are resolved against the caller's working directory first.
func (x XWBTool) BuildSubContainer(ctx context.Context, wavPath string, outPath string) error {
	if x.Path == "" {
		return &TranscodeError{Tool: "xwbtool", ExitCode: -1, Err: ErrInvalidJob}
	}

	toolPath, err := absToolPath(x.Path)
	if err != nil {
		return err
	}
	wavPath, err = filepath.Abs(wavPath)
	if err != nil {
		return fmt.Errorf("%w: wav path: %w", ErrInvalidJob, err)
	}
	outPath, err = filepath.Abs(outPath)
	if err != nil {
		return fmt.Errorf("%w: output path: %w", ErrInvalidJob, err)
	}

	args := []string{"-o", outPath, wavPath, "-f", "-nc"}
	path := toolPath
	env := x.Env
	if x.Wine != "" {
		args = append([]string{toolPath}, args...)
		if path, err = absToolPath(x.Wine); err != nil {
			return err
		}

		display := x.Display
		if display == "" {
			display = DefaultDisplay
		}
		env = append([]string{"DISPLAY=" + display}, env...)
	}

	return runTool(ctx, toolRun{
		tool:    "xwbtool",
		path:    path,
		dir:     filepath.Dir(wavPath),
		args:    args,
		env:     env,
		timeout: x.Timeout,
	})
}

// absToolPath makes a tool path with a directory part absolute.
// Bare names are left for PATH lookup.
func absToolPath(path string) (string, error) {
	if filepath.Base(path) == path {
		return path, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: tool path %q: %w", ErrInvalidJob, path, err)
	}

	return abs, nil
}
