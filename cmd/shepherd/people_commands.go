package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProfileCommand(ctx *commandContext) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage profiles",
	}

	profileCmd.AddCommand(newProfileAddCommand(ctx))
	profileCmd.AddCommand(newProfileListCommand(ctx))
	profileCmd.AddCommand(newProfileShowCommand(ctx))

	return profileCmd
}

func newProfileAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <first-name> <last-name>",
		Short: "Create a profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime()
			if err != nil {
				return err
			}
			profile, err := rt.people.CreateProfile(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created profile %s (%s)\n", profile.FullName(), profile.ID)
			return nil
		},
	}
}

func newProfileListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime()
			if err != nil {
				return err
			}
			profiles, err := rt.people.ListProfiles(cmd.Context())
			if err != nil {
				return err
			}
			if len(profiles) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No profiles found")
				return nil
			}

			rows := make([][]string, 0, len(profiles))
			for _, profile := range profiles {
				rows = append(rows, []string{
					shortID(profile.ID),
					profile.FullName(),
					string(profile.Role),
					formatWhen(profile.CreatedAt),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Role", "Created"},
				rows,
				false,
			))
			return nil
		},
	}
}

func newProfileShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <profile>",
		Short: "Show a profile and its group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime()
			if err != nil {
				return err
			}
			profile, err := ctx.resolveProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Name:    %s\n", profile.FullName())
			fmt.Fprintf(out, "ID:      %s\n", profile.ID)
			fmt.Fprintf(out, "Slug:    %s\n", profile.Slug)
			fmt.Fprintf(out, "Role:    %s\n", profile.Role)
			fmt.Fprintf(out, "Created: %s\n", formatWhen(profile.CreatedAt))

			group, err := rt.people.GroupOf(cmd.Context(), profile.ID)
			if err != nil {
				return err
			}
			if group == nil {
				fmt.Fprintln(out, "Group:   (none)")
			} else {
				fmt.Fprintf(out, "Group:   %s (%s)\n", group.Name, shortID(group.ID))
			}
			return nil
		},
	}
}

func newGroupCommand(ctx *commandContext) *cobra.Command {
	groupCmd := &cobra.Command{
		Use:   "group",
		Short: "Manage groups",
	}

	groupCmd.AddCommand(newGroupAddCommand(ctx))
	groupCmd.AddCommand(newGroupListCommand(ctx))
	groupCmd.AddCommand(newGroupJoinCommand(ctx))

	return groupCmd
}

func newGroupAddCommand(ctx *commandContext) *cobra.Command {
	var parentRef string

	cmd := &cobra.Command{
		Use:   "add <name> <leader>",
		Short: "Create a group",
		Long:  "Create a group led by the given profile. Without --parent the group is an origin group.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime()
			if err != nil {
				return err
			}
			leader, err := ctx.resolveProfile(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			parentID := ""
			if parentRef != "" {
				parent, err := ctx.resolveGroup(cmd.Context(), parentRef)
				if err != nil {
					return err
				}
				parentID = parent.ID
			}

			group, err := rt.people.CreateGroup(cmd.Context(), args[0], leader.ID, parentID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created group %s (%s)\n", group.Name, group.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&parentRef, "parent", "", "Parent group id or slug")
	return cmd
}

func newGroupListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime()
			if err != nil {
				return err
			}
			groups, err := rt.people.ListGroups(cmd.Context())
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No groups found")
				return nil
			}

			rows := make([][]string, 0, len(groups))
			for _, group := range groups {
				rows = append(rows, []string{
					shortID(group.ID),
					group.Name,
					shortID(group.LeaderID),
					yesNo(group.Origin()),
					formatWhen(group.CreatedAt),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Name", "Leader", "Origin", "Created"},
				rows,
				false,
			))
			return nil
		},
	}
}

func newGroupJoinCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "join <profile> <group>",
		Short: "Add a profile to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.ensureRuntime()
			if err != nil {
				return err
			}
			profile, err := ctx.resolveProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			group, err := ctx.resolveGroup(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			if err := rt.people.Join(cmd.Context(), profile.ID, group.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s joined %s\n", profile.FullName(), group.Name)
			return nil
		},
	}
}
