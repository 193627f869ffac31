package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"calendario-local/internal/config"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to configuration file")
	force := flag.Bool("force", false, "Overwrite an existing file (init-config)")
	flag.Usage = usage
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	args := flag.Args()
	if len(args) > 0 && args[0] == "init-config" {
		if err := config.WriteDefault(*configPath, *force); err != nil {
			slog.Error("Failed to write config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		slog.Info("Config written", "path", *configPath)
		return
	}

	path := *configPath
	if path == config.DefaultPath {
		// The default file is optional.
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	level, _ := cfg.Log.SlogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, args, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		slog.Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: calendario [-config path] <command> [args]\n\n")
	fmt.Fprintf(out, "Commands:\n")
	fmt.Fprintf(out, "  serve              run the calendar web UI (default)\n")
	fmt.Fprintf(out, "  backup [file]      write a snapshot of the store\n")
	fmt.Fprintf(out, "  restore <file>     replace the store with a snapshot\n")
	fmt.Fprintf(out, "  export-ics [file]  export events as iCalendar\n")
	fmt.Fprintf(out, "  agenda             print upcoming events\n")
	fmt.Fprintf(out, "  init-config        write the default config file\n\n")
	flag.PrintDefaults()
}
