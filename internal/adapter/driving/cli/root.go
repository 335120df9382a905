// Package cli is the command-line presentation surface. Commands talk to the
// vault through the VaultStore port; export and import run on an event loop
// and report their outcome when the background task completes.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/totpvault/internal/completion"
	"github.com/ericfisherdev/totpvault/internal/domain/port/driven"
)

// ErrReported is returned by commands whose failure has already been
// printed to the user.
var ErrReported = errors.New("failure already reported")

// Backups submits export and import tasks. *application.BackupService
// satisfies it.
type Backups interface {
	Export(path string, done *completion.Sender[bool])
	Import(path string, done *completion.Sender[bool])
}

// IconResolver maps an icon name to its location on disk.
// *config.Config satisfies it.
type IconResolver interface {
	IconsPath(name string) string
}

// Deps holds everything the command tree needs.
type Deps struct {
	Store   driven.VaultStore
	Backups Backups
	Icons   IconResolver
	Logger  *slog.Logger
	Now     func() time.Time
}

// NewRootCommand builds the totpvault command tree.
func NewRootCommand(deps Deps) *cobra.Command {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	root := &cobra.Command{
		Use:   "totpvault",
		Short: "Local TOTP credential vault",
		Long: `totpvault keeps TOTP secrets grouped by service in a local database,
prints current codes, and exports or imports the whole vault as a YAML backup.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newListCmd(deps))
	root.AddCommand(newGroupCommands(deps))
	root.AddCommand(newAccountCommands(deps))
	root.AddCommand(newExportCmd(deps))
	root.AddCommand(newImportCmd(deps))

	return root
}

func parseID(kind, arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, arg)
	}
	return id, nil
}
