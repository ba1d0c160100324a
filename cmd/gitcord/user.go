package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/gitcord/internal/model"
	"github.com/sakif/gitcord/internal/service"
)

func newUserCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage Gitcord users",
	}
	cmd.AddCommand(
		newModeratorCommand(configPath, "promote", "Grant the moderator flag to a user", true),
		newModeratorCommand(configPath, "demote", "Revoke the moderator flag from a user", false),
		newPrivacyCommand(configPath),
	)
	return cmd
}

// withUserService opens the store and runs fn with a UserService over it.
func withUserService(cmd *cobra.Command, configPath string, fn func(*service.UserService) (*model.User, error)) error {
	ctx := cmd.Context()
	cfg, log, err := setup(configPath)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	u, err := fn(service.NewUserService(store.Users(), store.Accounts(), log))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: moderator=%t private=%t\n", u.Username, u.IsModerator, u.IsPrivate)
	return nil
}

func newModeratorCommand(configPath *string, use, short string, moderator bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUserService(cmd, *configPath, func(users *service.UserService) (*model.User, error) {
				return users.SetModerator(cmd.Context(), args[0], moderator)
			})
		},
	}
}

func newPrivacyCommand(configPath *string) *cobra.Command {
	var private bool
	cmd := &cobra.Command{
		Use:   "privacy <username>",
		Short: "Set or clear a user's privacy flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUserService(cmd, *configPath, func(users *service.UserService) (*model.User, error) {
				return users.SetPrivacyByUsername(cmd.Context(), args[0], private)
			})
		},
	}
	cmd.Flags().BoolVar(&private, "private", false, "hide the user's profile from other users")
	return cmd
}
