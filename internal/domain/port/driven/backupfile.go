package driven

import "github.com/ericfisherdev/totpvault/internal/domain/model"

// BackupFile defines the driven port for the external backup file.
// WriteFile must never leave a partially written file at path; ReadFile
// must reject malformed content without returning a partial snapshot.
type BackupFile interface {
	WriteFile(path string, snapshot model.Snapshot) error
	ReadFile(path string) (model.Snapshot, error)
}
