package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/ericfisherdev/totpvault/internal/adapter/driven/backup"
	sqliteadapter "github.com/ericfisherdev/totpvault/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/totpvault/internal/adapter/driving/cli"
	"github.com/ericfisherdev/totpvault/internal/application"
	"github.com/ericfisherdev/totpvault/internal/config"
	"github.com/ericfisherdev/totpvault/internal/worker"
)

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, cli.ErrReported) {
			color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// 2. Install the structured logger on stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	slog.Debug("config loaded",
		"config_dir", cfg.Path(),
		"workers", cfg.Workers,
		"log_level", cfg.LogLevel,
	)

	// 3. Make sure the configuration directory exists; nothing works without it.
	if err := cfg.CheckConfigurationDir(); err != nil {
		return fmt.Errorf("could not create configuration directory %s: %w", cfg.Path(), err)
	}

	// 4. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Open database.
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Debug("database opened", "path", db.Path())

	// 6. Run migrations; a store we cannot migrate is not usable.
	if err := sqliteadapter.RunMigrations(db); err != nil {
		return err
	}
	slog.Debug("migrations complete")

	// 7. Wire adapters and services.
	repo := sqliteadapter.NewVaultRepo(db)
	pool := worker.New(cfg.Workers, slog.Default())
	defer pool.Close()
	backupSvc := application.NewBackupService(repo, backup.File{}, pool, slog.Default())

	// 8. Run the command.
	root := cli.NewRootCommand(cli.Deps{
		Store:   repo,
		Backups: backupSvc,
		Icons:   cfg,
		Logger:  slog.Default(),
	})
	return root.ExecuteContext(ctx)
}
