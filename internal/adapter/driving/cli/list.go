package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ericfisherdev/totpvault/internal/domain/model"
)

var (
	groupStyle = color.New(color.Bold, color.FgCyan)
	codeStyle  = color.New(color.FgGreen)
	mutedStyle = color.New(color.Faint)
	errorStyle = color.New(color.FgRed)
)

func newListCmd(deps Deps) *cobra.Command {
	var showCodes bool

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List groups and accounts",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			vault, err := deps.Store.LoadAccountGroups(cmd.Context())
			if err != nil {
				return fmt.Errorf("load accounts: %w", err)
			}
			renderVault(cmd.OutOrStdout(), deps, vault, showCodes)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showCodes, "codes", "c", false, "Show the current one-time code of each account")
	return cmd
}

// renderVault prints every group followed by its accounts in display order.
func renderVault(w io.Writer, deps Deps, vault *model.Vault, showCodes bool) {
	if len(vault.Groups) == 0 {
		mutedStyle.Fprintln(w, "No accounts yet. Add a group with 'totpvault group add NAME'.")
		return
	}

	now := deps.Now()
	remaining := model.RemainingSeconds(now)

	for _, g := range vault.Groups {
		groupStyle.Fprintf(w, "%s", g.Name)
		fmt.Fprintf(w, " [%d]", g.ID)
		if g.URL != nil {
			fmt.Fprintf(w, "  %s", *g.URL)
		}
		if g.Icon != nil {
			mutedStyle.Fprintf(w, "  icon: %s", deps.Icons.IconsPath(*g.Icon))
		}
		fmt.Fprintln(w)

		entries := vault.Entries(g.ID)
		if len(entries) == 0 {
			mutedStyle.Fprintln(w, "  (empty)")
			continue
		}
		for _, a := range entries {
			fmt.Fprintf(w, "  [%d] %s", a.ID, a.Label)
			if showCodes {
				code, err := a.Code(now)
				if err != nil {
					errorStyle.Fprint(w, "  invalid secret")
				} else {
					codeStyle.Fprintf(w, "  %s", code)
					mutedStyle.Fprintf(w, " (%ds)", remaining)
				}
			}
			fmt.Fprintln(w)
		}
	}
}
