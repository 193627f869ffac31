package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gorm.io/gorm"

	"calendario-local/internal/bus"
	"calendario-local/internal/config"
	"calendario-local/internal/repository"
	"calendario-local/internal/service"
	"calendario-local/internal/storage"
	"calendario-local/internal/view"
	"calendario-local/internal/web"
)

var errUsage = errors.New("usage")

// app wires the store shared by every command.
type app struct {
	cfg     *config.Config
	db      *gorm.DB
	entries *repository.EntryRepository
	store   *storage.Adapter
	bus     *bus.Bus
	events  *service.EventService
	backups *service.BackupService
}

func newApp(cfg *config.Config) (*app, error) {
	db, err := repository.NewDB(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	logger := slog.Default()
	entries := repository.NewEntryRepository(db)
	store := storage.New(entries, logger)
	b := bus.New(logger)

	return &app{
		cfg:     cfg,
		db:      db,
		entries: entries,
		store:   store,
		bus:     b,
		events:  service.NewEventService(store, b, cfg.Storage.EventsKey, service.WithLogger(logger)),
		backups: service.NewBackupService(store, cfg.Backup.Dir, cfg.Backup.Keep, logger),
	}, nil
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	switch command {
	case "serve":
		return a.serve(ctx)
	case "backup":
		return a.backup(ctx, args, out)
	case "restore":
		if len(args) != 1 {
			return errUsage
		}
		if err := a.backups.RestoreFile(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(out, "restored %s\n", args[0])
		return nil
	case "export-ics":
		return a.exportICS(ctx, args, out)
	case "agenda":
		agenda := service.NewAgendaService(cfg.Agenda.Days)
		fmt.Fprintln(out, agenda.Summary(a.events.GetAll(ctx), time.Now()))
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", command, errUsage)
	}
}

func (a *app) serve(ctx context.Context) error {
	calendar := view.NewCalendar(ctx, a.events, a.bus, time.Now)
	defer calendar.Close()
	form := view.NewForm(a.events, service.NewCategoryService(a.events), a.bus)
	defer form.Close()

	if a.cfg.Backup.Cron != "" {
		scheduler := service.NewSchedulerService(time.Local)
		if _, err := scheduler.ScheduleCron(a.cfg.Backup.Cron, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := a.backups.Rotate(jobCtx); err != nil {
				slog.Error("scheduled backup failed", "error", err)
			}
		}); err != nil {
			return fmt.Errorf("schedule backups: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	srv := web.New(a.cfg.Server.Listen, a.cfg.Server.Mode, web.Deps{
		Calendar: calendar,
		Form:     form,
		Events:   a.events,
		Export:   service.NewExportService(service.DefaultEventDuration),
		Health:   a.entries,
	})
	slog.Info("Calendar started", "address", a.cfg.Server.Listen)
	if err := srv.Run(ctx); err != nil {
		return err
	}
	slog.Info("Shutdown complete")
	return nil
}

func (a *app) backup(ctx context.Context, args []string, out io.Writer) error {
	if len(args) > 1 {
		return errUsage
	}
	if len(args) == 1 {
		if err := a.backups.WriteSnapshot(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(out, "snapshot written to %s\n", args[0])
		return nil
	}
	path, err := a.backups.Rotate(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "snapshot written to %s\n", path)
	return nil
}

func (a *app) exportICS(ctx context.Context, args []string, out io.Writer) error {
	if len(args) > 1 {
		return errUsage
	}
	body := service.NewExportService(service.DefaultEventDuration).ICS(a.events.GetAll(ctx))
	if len(args) == 0 {
		_, err := io.WriteString(out, body)
		return err
	}
	if err := os.WriteFile(args[0], []byte(body), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", args[0], err)
	}
	fmt.Fprintf(out, "exported to %s\n", args[0])
	return nil
}
