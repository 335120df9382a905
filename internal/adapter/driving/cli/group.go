package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/totpvault/internal/domain/model"
	"github.com/ericfisherdev/totpvault/internal/domain/port/driven"
)

func newGroupCommands(deps Deps) *cobra.Command {
	groupCmd := &cobra.Command{
		Use:     "group",
		Short:   "Manage account groups",
		Aliases: []string{"groups"},
	}

	groupCmd.AddCommand(newGroupAddCmd(deps))
	groupCmd.AddCommand(newGroupUpdateCmd(deps))
	groupCmd.AddCommand(newGroupDeleteCmd(deps))

	return groupCmd
}

func newGroupAddCmd(deps Deps) *cobra.Command {
	var url, icon string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := deps.Store.AddGroup(cmd.Context(), model.NewAccountGroup(args[0], icon, url))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created group %q [%d]\n", args[0], id)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Website of the service")
	cmd.Flags().StringVar(&icon, "icon", "", "Icon file name inside the icons directory")
	return cmd
}

func newGroupUpdateCmd(deps Deps) *cobra.Command {
	var name, url, icon string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change the name, url or icon of a group",
		Long:  "Change the name, url or icon of a group. Pass an empty --url or --icon to clear it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("group", args[0])
			if err != nil {
				return err
			}

			vault, err := deps.Store.LoadAccountGroups(cmd.Context())
			if err != nil {
				return fmt.Errorf("load accounts: %w", err)
			}
			group, ok := vault.Group(id)
			if !ok {
				return fmt.Errorf("update group %d: %w", id, driven.ErrGroupNotFound)
			}

			flags := cmd.Flags()
			if flags.Changed("name") {
				group.Name = name
			}
			if flags.Changed("url") {
				group.URL = model.OptionalString(url)
			}
			if flags.Changed("icon") {
				group.Icon = model.OptionalString(icon)
			}

			if err := deps.Store.UpdateGroup(cmd.Context(), group); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated group [%d]\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New group name")
	cmd.Flags().StringVar(&url, "url", "", "New website of the service")
	cmd.Flags().StringVar(&icon, "icon", "", "New icon file name")
	return cmd
}

func newGroupDeleteCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Short:   "Delete an empty group",
		Aliases: []string{"rm"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("group", args[0])
			if err != nil {
				return err
			}

			vault, err := deps.Store.LoadAccountGroups(cmd.Context())
			if err != nil {
				return fmt.Errorf("load accounts: %w", err)
			}
			group, ok := vault.Group(id)
			if !ok {
				return fmt.Errorf("delete group %d: %w", id, driven.ErrGroupNotFound)
			}
			if !group.IsEmpty() {
				return fmt.Errorf("delete group %d: %w: move or delete its %d accounts first",
					id, driven.ErrGroupNotEmpty, len(group.AccountIDs))
			}

			if err := deps.Store.DeleteGroup(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted group [%d]\n", id)
			return nil
		},
	}
}
