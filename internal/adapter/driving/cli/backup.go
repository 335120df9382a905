package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/totpvault/internal/completion"
	"github.com/ericfisherdev/totpvault/internal/eventloop"
)

func newExportCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "export PATH",
		Short: "Write every group and account to a YAML backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(cmd, deps, args[0], deps.Backups.Export, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported accounts to %s\n", args[0])
			}, "Could not export accounts!")
		},
	}
}

func newImportCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "import PATH",
		Short: "Replace the vault with the content of a YAML backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(cmd, deps, args[0], deps.Backups.Import, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Imported accounts from %s\n", args[0])
				vault, err := deps.Store.LoadAccountGroups(cmd.Context())
				if err != nil {
					deps.Logger.Error("refresh after import failed", "error", err)
					return
				}
				renderVault(cmd.OutOrStdout(), deps, vault, false)
			}, "Could not import accounts!")
		},
	}
}

// runBackup submits one background task from the event loop and reacts to
// its completion value on the loop. The loop quits once the value arrives.
func runBackup(
	cmd *cobra.Command,
	deps Deps,
	path string,
	submit func(string, *completion.Sender[bool]),
	onSuccess func(),
	failure string,
) error {
	loop := eventloop.New(deps.Logger)
	tx, rx := completion.New[bool]()
	defer rx.Close()

	ok := false
	rx.Attach(loop, func(v bool) {
		defer loop.Quit()
		ok = v
		if v {
			onSuccess()
			return
		}
		errorStyle.Fprintln(cmd.ErrOrStderr(), failure)
	})
	loop.Post(func() { submit(path, tx) })

	if err := loop.Run(cmd.Context()); err != nil {
		return fmt.Errorf("waiting for %s: %w", cmd.Name(), err)
	}
	if !ok {
		return ErrReported
	}
	return nil
}
