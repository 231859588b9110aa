package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/lumastack/agentdraft/internal/auditlog"
	"github.com/lumastack/agentdraft/internal/config"
	"github.com/lumastack/agentdraft/internal/httpapi"
	"github.com/lumastack/agentdraft/internal/llm"
	"github.com/lumastack/agentdraft/internal/lockfile"
	"github.com/lumastack/agentdraft/internal/monitor"
	"github.com/lumastack/agentdraft/internal/store"
	"github.com/lumastack/agentdraft/internal/synthesis"
)

var (
	// Version is set via -ldflags at build time.
	Version = "dev"
	// Commit is set via -ldflags at build time.
	Commit = "unknown"
	// BuildTime is set via -ldflags at build time.
	BuildTime = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "init":
		initCmd(os.Args[2:])
	case "serve":
		serveCmd(os.Args[2:])
	case "version":
		fmt.Printf("agentdraft %s (%s) %s\n", Version, Commit, BuildTime)
	default:
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `agentdraft

Usage:
  agentdraft init [flags]
  agentdraft serve [flags]
  agentdraft version

Commands:
  init        Write a starter config file.
  serve       Run the synthesis API server using the local config file.
  version     Print build information.

`)
}

func initCmd(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)

	cfgPath := fs.String("config", config.DefaultConfigPath(), "Config file path")
	providerType := fs.String("provider", "anthropic", "Provider type: anthropic|openai|openai_compatible")
	model := fs.String("model", "", "Model id for synthesis calls")
	addr := fs.String("addr", "", "HTTP listen address (default 127.0.0.1:8787)")
	dataDir := fs.String("data-dir", "", "State directory (default: ~/.agentdraft)")
	logFormat := fs.String("log-format", "json", "Log format: json|text")
	logLevel := fs.String("log-level", "info", "Log level: debug|info|warn|error")

	_ = fs.Parse(args)

	if strings.TrimSpace(*model) == "" {
		fs.Usage()
		os.Exit(2)
	}

	cfg := &config.Config{
		Addr: strings.TrimSpace(*addr),
		Provider: config.ProviderConfig{
			Type:  *providerType,
			Model: *model,
		},
		DataDir:   strings.TrimSpace(*dataDir),
		LogFormat: *logFormat,
		LogLevel:  *logLevel,
	}
	if err := config.Save(filepath.Clean(*cfgPath), cfg); err != nil {
		fmt.Fprintf(os.Stderr, "init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Config written: %s\n", filepath.Clean(*cfgPath))
}

func serveCmd(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", config.DefaultConfigPath(), "Config file path")
	_ = fs.Parse(args)

	cfg, err := config.Load(filepath.Clean(*cfgPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	provider, err := llm.New(llm.Options{
		Type:    cfg.Provider.Type,
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  cfg.APIKey(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init provider: %v\n", err)
		os.Exit(1)
	}

	synth, err := synthesis.NewService(synthesis.Options{
		Logger:   log,
		Provider: provider,
		Model:    cfg.Provider.Model,
		Retry:    cfg.RetryPolicy(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init synthesis: %v\n", err)
		os.Exit(1)
	}

	stateDir := cfg.StateDir()
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create state dir: %v\n", err)
		os.Exit(1)
	}

	// One serving process per state directory: the design store runs on a
	// single sqlite connection.
	lock, err := lockfile.Acquire(filepath.Join(stateDir, "agentdraft.lock"))
	if err != nil {
		if errors.Is(err, lockfile.ErrAlreadyLocked) {
			fmt.Fprintf(os.Stderr, "another agentdraft instance is already serving %s\n", stateDir)
		} else {
			fmt.Fprintf(os.Stderr, "failed to acquire state lock: %v\n", err)
		}
		os.Exit(1)
	}
	defer lock.Release()

	designs, err := store.Open(filepath.Join(stateDir, "designs.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open design store: %v\n", err)
		os.Exit(1)
	}
	defer designs.Close()

	audit, err := auditlog.New(auditlog.Options{Logger: log, StateDir: stateDir})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init audit log: %v\n", err)
		os.Exit(1)
	}

	srv, err := httpapi.New(httpapi.Options{
		Logger:    log,
		Addr:      cfg.ListenAddr(),
		Synthesis: synth,
		Designs:   designs,
		Audit:     audit,
		Monitor:   monitor.NewService(log),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init api server: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown on SIGINT/SIGTERM.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()

	if err := srv.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "server failed to start: %v\n", err)
		os.Exit(1)
	}

	printWelcomeBanner(os.Stdout, welcomeBannerOptions{
		Version: Version,
		Addr:    cfg.ListenAddr(),
		Model:   cfg.Provider.Model,
	})

	<-ctx.Done()
	_ = srv.Close()
}

func newLogger(format string, level string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		lvl = slog.LevelInfo
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		h = slog.NewJSONHandler(os.Stdout, opts)
	case "text":
		h = slog.NewTextHandler(os.Stdout, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return slog.New(h), nil
}
