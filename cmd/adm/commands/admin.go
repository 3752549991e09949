package commands

import (
	"context"
	"fmt"

	"feedbackportal/internal/observability"
	"feedbackportal/internal/services"
	contextutils "feedbackportal/internal/utils"

	"github.com/spf13/cobra"
)

// AdminCommands returns commands for managing the admin credential store
func AdminCommands(adminAuthService *services.AdminAuthService, logger *observability.Logger) *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin credential management commands",
		Long: `Admin credential management for the feedback portal.

Admin credentials live in a dedicated table, separate from portal accounts.

Available commands:
  seed - Create an admin credential if it does not exist`,
	}

	adminCmd.AddCommand(adminSeedCmd(adminAuthService, logger))

	return adminCmd
}

func adminSeedCmd(adminAuthService *services.AdminAuthService, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [username]",
		Short: "Create an admin credential if it does not exist",
		Long:  `Create an admin credential. The password is prompted for securely and stored as a bcrypt hash. Existing credentials are left untouched.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runAdminSeed(adminAuthService, logger),
	}
}

func runAdminSeed(adminAuthService *services.AdminAuthService, logger *observability.Logger) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, args []string) error {
		ctx := context.Background()

		username := args[0]
		password, err := promptPassword()
		if err != nil {
			return err
		}

		if err := adminAuthService.EnsureAdminCredentials(ctx, username, password); err != nil {
			logger.Error(ctx, "Failed to seed admin credentials", err, map[string]interface{}{"username": username})
			return contextutils.WrapErrorf(err, "failed to seed admin credential '%s'", username)
		}

		fmt.Printf("Admin credential '%s' is in place\n", username)
		return nil
	}
}
