// Copyright 2025 The pdfserve Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the pdfserve completion server and CLI [DBG] application.

Note: This is a BETA release. APIs and functionality may rapidly change.

pdfserve completes words and whole lines from a reference PDF while you write
Markdown or Typst. The PDF text is extracted, repaired and tokenized once, then
cached until it expires, the configured source changes, or the file changes on disk.

# Usage

Start the server for the PDF named in the config file:

	pdfserve

Point it at another PDF and enable debug mode:

	pdfserve -src ~/papers/thesis.pdf -d

Run in CLI mode for interactive testing:

	pdfserve -cli -limit 10 -prmin 2

# Configuration

Runtime configuration lives in a TOML file, created with defaults when missing:

	[source]
	path = "~/papers/thesis.pdf"
	supported_languages = ["markdown", "typst"]

	[completion]
	enable_line_completion = false  # opt-in
	matching_mode = "containment"   # or "strict-prefix"

	[cache]
	ttl = "1h"
	backend = "file"                # memory, file, sqlite or redis
	# key defaults to one derived from the workspace dir
	watch_source = false

	[debug]
	disable_cache = false
	generate_processing_output = false

# IPC Protocol

The server communicates via MessagePack over stdin/stdout, see package server.

	{"id": "req1", "action": "words", "p": "kap", "l": 20}
	{"id": "req2", "action": "line", "text": "I saw the quick brown", "lang": "typst"}

# Command Line Flags

	-config string
	    Path to a config file (default: user config dir)
	-src string
	    Source PDF, overrides [source] path
	-backend string
	    Cache backend, overrides [cache] backend
	-workspace string
	    Workspace dir the default cache key derives from (default: cwd)
	-env string
	    Env file with PDFSERVE_* overrides (default ".env")
	-d  Enable debug mode with detailed logging
	-cli
	    Run CLI mode instead of server mode
	-limit int
	    Number of suggestions to return in CLI mode
	-prmin int
	    Minimum prefix length for suggestions
	-prmax int
	    Maximum prefix length for suggestions
	-no-filter
	    Disable input filtering for debugging
	-version
	    Show current version
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/pdfserve/internal/cli"
	"github.com/bastiangx/pdfserve/internal/logger"
	"github.com/bastiangx/pdfserve/internal/utils"
	"github.com/bastiangx/pdfserve/pkg/config"
	"github.com/bastiangx/pdfserve/pkg/provider"
	"github.com/bastiangx/pdfserve/pkg/server"
	"github.com/bastiangx/pdfserve/pkg/store"
	"github.com/bastiangx/pdfserve/pkg/watch"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	AppName = "pdfserve"
	gh      = "https://github.com/bastiangx/pdfserve"
)

// sigHandler runs cleanup and exits on SIGINT or SIGTERM. The IPC loop blocks
// on stdin, so cancelling its context alone would not stop it.
func sigHandler(cleanup func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		cleanup()
		os.Exit(0)
	}()
}

// main wires config, store, provider and the chosen front end together.
func main() {
	defaultConfig := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	configPath := flag.String("config", "", "Path to a config file")
	sourcePath := flag.String("src", "", "Source PDF (overrides [source] path)")
	envFile := flag.String("env", ".env", "Env file with PDFSERVE_* overrides")
	backend := flag.String("backend", "", "Cache backend: memory, file, sqlite or redis")
	workspace := flag.String("workspace", "", "Workspace dir the default cache key derives from (default: cwd)")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("cli", false, "Run CLI -- useful for testing and debugging")
	limit := flag.Int("limit", defaultConfig.CLI.DefaultLimit, "Number of suggestions to return")
	minPrefix := flag.Int("prmin", defaultConfig.Completion.MinPrefix, "Minimum prefix length for suggestions")
	maxPrefix := flag.Int("prmax", 60, "Maximum prefix length for suggestions")
	noFilter := flag.Bool("no-filter", false, "Disable input filtering (DBG only)")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	if *debugMode {
		for k, v := range utils.NewPathResolver().RuntimeInfo() {
			log.Debug("runtime", k, v)
		}
	}

	cfg, usedPath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(usedPath))

	if err := cfg.ApplyEnv(*envFile); err != nil {
		log.Warnf("Reading %s: %v", *envFile, err)
	}
	if *sourcePath != "" {
		cfg.Source.Path = *sourcePath
	}
	if *backend != "" {
		cfg.Cache.Backend = *backend
	}
	cfg.Validate()

	ctx, cancel := context.WithCancel(context.Background())
	kv := store.OpenOrMemory(ctx, cfg.Cache)
	sigHandler(func() {
		cancel()
		kv.Close()
	})
	defer kv.Close()
	defer cancel()

	p := provider.New(cfg, kv,
		provider.WithWorkspace(*workspace),
		provider.WithLogger(componentLogger("provider", *debugMode)),
	)

	if cfg.Cache.WatchSource && p.SourcePath() != "" {
		w, err := watch.New(p.SourcePath(), func(ctx context.Context) {
			if err := p.Invalidate(ctx); err != nil {
				log.Warnf("Invalidating cache: %v", err)
			}
		}, watch.WithLogger(componentLogger("watch", *debugMode)))
		if err != nil {
			log.Warnf("Not watching source: %v", err)
		} else {
			go w.Run(ctx)
		}
	}

	// CLI would be mainly used for testing and dbg purposes.
	if *cliMode {
		log.SetReportTimestamp(false)
		log.Debug("Input info:",
			"minPrefix", *minPrefix,
			"maxPrefix", *maxPrefix,
			"limit", *limit,
			"noFilter", *noFilter)

		inputHandler := cli.NewInputHandler(p, *minPrefix, *maxPrefix, *limit, *noFilter)
		if err := inputHandler.Start(ctx, os.Stdin, os.Stderr); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	showStartupInfo(cfg)
	srv := server.NewServer(p, cfg)
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// componentLogger reports callers in debug mode.
func componentLogger(prefix string, debug bool) *log.Logger {
	if debug {
		return logger.NewWithConfig(os.Stderr, prefix, log.DebugLevel, true, true, log.TextFormatter)
	}
	return logger.New(prefix)
}

func printVersion() {
	banner := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	banner.SetStyles(styles)

	banner.Print("")
	banner.Print("[ pdfserve ] Completions from the PDF you are writing about")
	banner.Print("", "version", Version)
	banner.Print("")
	banner.Print("use -h or --help to see available options")
	banner.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process on stderr.
func showStartupInfo(cfg *config.Config) {
	if log.GetLevel() > log.DebugLevel {
		return
	}
	log.Infof("%s %s, pid [ %d ]", AppName, Version, os.Getpid())
	log.Infof("source: ( %s )", cfg.Source.Path)
	log.Infof("cache: %s, ttl %s, matching %s", cfg.Cache.Backend, cfg.Cache.TTL, cfg.Completion.MatchingMode)
}
