// dashsync keeps a local view of a probablyprofit trading agent in sync with
// its HTTP API and push channel.
//
// Usage:
//
//	dashsync [-config dashsync.yaml] watch   [-addr :9090]
//	dashsync [-config dashsync.yaml] control start|stop|dry-run <bool>|scan
//	dashsync [-config dashsync.yaml] export  [-side buy] [-range 7d] [-search q] [-sort pnl] [-order desc] [-out file.csv] [-archive]
//	dashsync [-config dashsync.yaml] tail
//
// Without -config the defaults target http://localhost:8000.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/probablyprofit/dashsync/internal/config"
	"github.com/probablyprofit/dashsync/internal/logging"
	"github.com/probablyprofit/dashsync/internal/version"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, env *env, args []string) error
}

var commands = []command{
	{"watch", "poll every resource and serve /health, /debug/snapshots and /metrics", runWatch},
	{"control", "start|stop|dry-run <bool>|scan", runControl},
	{"export", "fetch trades, filter and sort them, write CSV", runExport},
	{"tail", "print push channel frames", runTail},
}

// env is shared by every command.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

func main() {
	configPath := flag.String("config", "", "path to config file")
	baseURL := flag.String("url", "", "agent base URL (overrides config)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath, *baseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dashsync: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := logging.New(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Output:     os.Stderr,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "dashsync: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	slog.SetDefault(logger)

	cmd, ok := lookup(args[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "dashsync: unknown command %q\n", args[0])
		usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := cmd.run(ctx, &env{cfg: cfg, logger: logger, stdout: os.Stdout, stderr: os.Stderr}, args[1:]); err != nil {
		logger.Error("command failed", "command", cmd.name, "error", err)
		closeLog()
		os.Exit(1)
	}
}

func loadConfig(path, baseURL string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("validate config: %w", err)
		}
	}
	return cfg, nil
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: dashsync [flags] <command> [args]\n\ncommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.usage)
	}
	fmt.Fprintf(os.Stderr, "\nflags:\n")
	flag.PrintDefaults()
}
