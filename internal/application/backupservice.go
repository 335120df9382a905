// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/totpvault/internal/completion"
	"github.com/ericfisherdev/totpvault/internal/domain/port/driven"
)

// TaskRunner accepts background work without blocking the caller.
// *worker.Pool satisfies it.
type TaskRunner interface {
	Spawn(name string, task func()) (string, error)
}

// BackupService moves the whole vault to and from a backup file.
//
// SaveAccounts and RestoreAccounts do the work synchronously and are what
// the background tasks run. Export and Import submit those tasks and return
// at once; the outcome arrives later on the completion sender, exactly once
// per call, whether the task succeeded, failed or panicked.
type BackupService struct {
	store  driven.VaultStore
	file   driven.BackupFile
	runner TaskRunner
	logger *slog.Logger
}

// NewBackupService creates a new BackupService with all required dependencies.
func NewBackupService(store driven.VaultStore, file driven.BackupFile, runner TaskRunner, logger *slog.Logger) *BackupService {
	return &BackupService{
		store:  store,
		file:   file,
		runner: runner,
		logger: logger.With("component", "backup"),
	}
}

// SaveAccounts writes every group and account to path. It reports whether
// the export succeeded; a failed export leaves any existing file untouched.
func (s *BackupService) SaveAccounts(ctx context.Context, path string) bool {
	if err := s.save(ctx, path); err != nil {
		s.logger.Error("export failed", "path", path, "error", err)
		return false
	}
	return true
}

func (s *BackupService) save(ctx context.Context, path string) error {
	start := time.Now()

	vault, err := s.store.LoadAccountGroups(ctx)
	if err != nil {
		return fmt.Errorf("load vault: %w", err)
	}

	snapshot := vault.Snapshot()
	if err := s.file.WriteFile(path, snapshot); err != nil {
		return err
	}

	s.logger.Info("accounts exported",
		"path", path,
		"groups", len(snapshot.Groups),
		"accounts", snapshot.Accounts(),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// RestoreAccounts replaces the store content with the backup at path. It
// reports whether the import succeeded; on failure the store is unchanged.
func (s *BackupService) RestoreAccounts(ctx context.Context, path string) bool {
	if err := s.restore(ctx, path); err != nil {
		s.logger.Error("import failed", "path", path, "error", err)
		return false
	}
	return true
}

func (s *BackupService) restore(ctx context.Context, path string) error {
	start := time.Now()

	snapshot, err := s.file.ReadFile(path)
	if err != nil {
		return err
	}

	if err := s.store.ReplaceAll(ctx, snapshot); err != nil {
		return fmt.Errorf("replace vault: %w", err)
	}

	s.logger.Info("accounts imported",
		"path", path,
		"groups", len(snapshot.Groups),
		"accounts", snapshot.Accounts(),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// Export runs SaveAccounts in the background and sends its result on done.
func (s *BackupService) Export(path string, done *completion.Sender[bool]) {
	s.submit("export", done, func(ctx context.Context) bool {
		return s.SaveAccounts(ctx, path)
	})
}

// Import runs RestoreAccounts in the background and sends its result on done.
func (s *BackupService) Import(path string, done *completion.Sender[bool]) {
	s.submit("import", done, func(ctx context.Context) bool {
		return s.RestoreAccounts(ctx, path)
	})
}

func (s *BackupService) submit(name string, done *completion.Sender[bool], op func(ctx context.Context) bool) {
	_, err := s.runner.Spawn(name, func() {
		ok := false
		// Deferred so a panicking task still reports failure.
		defer func() { done.Send(ok) }()
		ok = op(context.Background())
	})
	if err != nil {
		s.logger.Error("could not submit task", "task", name, "error", err)
		done.Send(false)
	}
}
