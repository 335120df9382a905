package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/totpvault/internal/domain/model"
	"github.com/ericfisherdev/totpvault/internal/domain/port/driven"
)

func newAccountCommands(deps Deps) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:     "account",
		Short:   "Manage accounts",
		Aliases: []string{"accounts", "acc"},
	}

	accountCmd.AddCommand(newAccountAddCmd(deps))
	accountCmd.AddCommand(newAccountUpdateCmd(deps))
	accountCmd.AddCommand(newAccountDeleteCmd(deps))

	return accountCmd
}

func newAccountAddCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "add GROUP_ID LABEL SECRET",
		Short: "Add an account to the end of a group",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			groupID, err := parseID("group", args[0])
			if err != nil {
				return err
			}
			id, err := deps.Store.AddAccount(cmd.Context(), groupID, model.NewAccount(groupID, args[1], args[2]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created account %q [%d]\n", args[1], id)
			return nil
		},
	}
}

func newAccountUpdateCmd(deps Deps) *cobra.Command {
	var (
		label   string
		secret  string
		groupID int64
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change the label, secret or group of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("account", args[0])
			if err != nil {
				return err
			}

			vault, err := deps.Store.LoadAccountGroups(cmd.Context())
			if err != nil {
				return fmt.Errorf("load accounts: %w", err)
			}
			account, ok := vault.Accounts[id]
			if !ok {
				return fmt.Errorf("update account %d: %w", id, driven.ErrAccountNotFound)
			}

			flags := cmd.Flags()
			if flags.Changed("label") {
				account.Label = label
			}
			if flags.Changed("secret") {
				account.Secret = secret
			}
			if flags.Changed("group") {
				account.GroupID = groupID
			}

			if err := deps.Store.UpdateAccount(cmd.Context(), account); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated account [%d]\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "New label")
	cmd.Flags().StringVar(&secret, "secret", "", "New base32 secret")
	cmd.Flags().Int64Var(&groupID, "group", 0, "Move the account to the end of this group")
	return cmd
}

func newAccountDeleteCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Short:   "Delete an account",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("account", args[0])
			if err != nil {
				return err
			}
			if err := deps.Store.DeleteAccount(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted account [%d]\n", id)
			return nil
		},
	}
}
