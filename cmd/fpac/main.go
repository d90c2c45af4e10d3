// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/fpac

// Command fpac lists, extracts, and patches FPAC archives.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/woozymasta/fpac/config"
)

// command is one CLI subcommand.
type command struct {
	run   func(ctx context.Context, env *cliEnv, args []string) error
	name  string
	usage string
}

// cliEnv carries shared state of one CLI invocation.
type cliEnv struct {
	stdout io.Writer
	stderr io.Writer
	log    *slog.Logger
	cfg    config.Config
}

var commands = []command{
	{name: "list", usage: "list [-json] <archive>", run: runList},
	{name: "extract", usage: "extract [-o dir] [-include glob]... [-workers n] [-raw] <archive>", run: runExtract},
	{name: "pack", usage: "pack <dir> <archive>", run: runPack},
	{name: "replace", usage: "replace [-id n | -name entry] <archive> <payload>", run: runReplace},
	{name: "music", usage: "music -audio file [-audio file]... <archive>...", run: runMusic},
	{name: "volume", usage: "volume [-sound n] [-track n] [-name entry] <archive>", run: runVolume},
	{name: "checksum", usage: "checksum [-fix] <file.xsb>", run: runChecksum},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run parses global flags, loads config, and dispatches a subcommand. It returns the exit code.
func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("fpac", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var configPath, logLevel string
	fs.StringVar(&configPath, "config", os.Getenv("FPAC_CONFIG"), "Path to YAML config")
	fs.StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	fs.Usage = func() { printUsage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		printUsage(stderr, fs)
		return 2
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(stderr, "fpac:", err)
		return 1
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, err := cfg.NewLogger(stderr)
	if err != nil {
		fmt.Fprintln(stderr, "fpac:", err)
		return 1
	}

	env := &cliEnv{cfg: cfg, log: log, stdout: stdout, stderr: stderr}
	name := fs.Arg(0)
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}

		if err := cmd.run(ctx, env, fs.Args()[1:]); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return 0
			}
			if errors.Is(err, errUsage) {
				fmt.Fprintf(stderr, "usage: fpac %s\n", cmd.usage)
				return 2
			}

			fmt.Fprintf(stderr, "fpac %s: %v\n", name, err)
			return 1
		}

		return 0
	}

	fmt.Fprintf(stderr, "fpac: unknown command %q\n", name)
	printUsage(stderr, fs)
	return 2
}

// errUsage marks wrong command line arguments.
var errUsage = errors.New("usage")

// printUsage writes global usage text.
func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: fpac [-config file] [-log-level level] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %s\n", cmd.usage)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global flags:")
	fs.PrintDefaults()
}

// stringList is a repeatable string flag.
type stringList []string

// String implements flag.Value.
func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

// Set implements flag.Value.
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
