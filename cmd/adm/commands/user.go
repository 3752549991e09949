package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	"feedbackportal/internal/services"
	contextutils "feedbackportal/internal/utils"

	"github.com/spf13/cobra"
)

// UserCommands returns the user management commands
func UserCommands(userService *services.UserService, logger *observability.Logger, databaseURL string) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long: `User management commands for the feedback portal.

Available commands:
  list           - List all portal accounts
  create         - Create a new portal account
  reset-password - Reset password for a specific account`,
	}

	userCmd.AddCommand(listCmd(userService, logger, databaseURL))
	userCmd.AddCommand(createCmd(userService, logger))
	userCmd.AddCommand(resetPasswordCmd(userService, logger))

	return userCmd
}

// listCmd returns the list command
func listCmd(userService *services.UserService, logger *observability.Logger, databaseURL string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all portal accounts",
		Long:  `List all portal accounts with their role and status.`,
		RunE:  runListUsers(userService, logger, databaseURL),
	}
}

// createCmd returns the create command
func createCmd(userService *services.UserService, logger *observability.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [username]",
		Short: "Create a new portal account",
		Long:  `Create a new portal account. The password is prompted for securely.`,
		RunE:  runCreateUser(userService, logger),
	}
	cmd.Flags().String("type", string(models.UserTypeExecutive), "account role (admin, executive, manager, operator)")
	cmd.Flags().Bool("inactive", false, "create the account deactivated")
	return cmd
}

// resetPasswordCmd returns the reset-password command
func resetPasswordCmd(userService *services.UserService, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password [username]",
		Short: "Reset password for an account",
		Long:  `Reset the password for a specific account. If username is not provided, you will be prompted for it.`,
		RunE:  runResetPassword(userService, logger),
	}
}

// promptPassword reads a password from the terminal twice and verifies both
// entries match
func promptPassword() (string, error) {
	fmt.Print("Enter password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to read password: %v", err)
	}
	fmt.Println()

	password := string(passwordBytes)
	if password == "" {
		return "", contextutils.ErrorWithContextf("password cannot be empty")
	}

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to read password confirmation: %v", err)
	}
	fmt.Println()

	if password != string(confirmBytes) {
		return "", contextutils.ErrorWithContextf("passwords do not match")
	}
	return password, nil
}

// runListUsers returns a function that lists all portal accounts
func runListUsers(userService *services.UserService, logger *observability.Logger, databaseURL string) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		logger.Info(ctx, "Admin command diagnostics", map[string]interface{}{"config_file": os.Getenv("PORTAL_CONFIG_FILE"), "database_url": maskDatabaseURL(databaseURL)})

		users, err := userService.GetAllUsers(ctx)
		if err != nil {
			logger.Error(ctx, "Failed to get users", err, map[string]interface{}{})
			return contextutils.WrapError(err, "failed to get users")
		}

		if len(users) == 0 {
			logger.Info(ctx, "No users found in the database", nil)
			return nil
		}

		fmt.Printf("%-5s %-25s %-12s %-8s %-12s\n", "ID", "Username", "Type", "Active", "Created")
		fmt.Println(strings.Repeat("-", 70))

		for _, user := range users {
			active := "No"
			if user.IsActive {
				active = "Yes"
			}

			fmt.Printf("%-5d %-25s %-12s %-8s %-12s\n",
				user.ID,
				user.Username,
				string(user.UserType),
				active,
				user.CreatedAt.Format("2006-01-02"),
			)
		}

		logger.Info(ctx, "Listed users", map[string]interface{}{"total": len(users)})
		return nil
	}
}

// runCreateUser returns a function that creates a portal account
func runCreateUser(userService *services.UserService, logger *observability.Logger) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		var username string
		if len(args) > 0 {
			username = args[0]
		} else {
			fmt.Print("Enter username: ")
			if _, err := fmt.Scanln(&username); err != nil {
				return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to read username: %v", err)
			}
		}
		if username == "" {
			return contextutils.ErrorWithContextf("username is required")
		}

		userType, _ := cmd.Flags().GetString("type")
		inactive, _ := cmd.Flags().GetBool("inactive")

		password, err := promptPassword()
		if err != nil {
			return err
		}

		user, err := userService.CreateUserWithPassword(ctx, username, password, models.UserType(userType), !inactive)
		if err != nil {
			logger.Error(ctx, "Failed to create user", err, map[string]interface{}{"username": username})
			return contextutils.WrapErrorf(err, "failed to create user '%s'", username)
		}

		fmt.Printf("Created %s account '%s' (ID: %d)\n", string(user.UserType), user.Username, user.ID)
		return nil
	}
}

// runResetPassword returns a function that resets an account's password
func runResetPassword(userService *services.UserService, logger *observability.Logger) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, args []string) error {
		ctx := context.Background()

		var username string
		if len(args) > 0 {
			username = args[0]
		} else {
			fmt.Print("Enter username: ")
			if _, err := fmt.Scanln(&username); err != nil {
				return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to read username: %v", err)
			}
		}
		if username == "" {
			return contextutils.ErrorWithContextf("username is required")
		}

		newPassword, err := promptPassword()
		if err != nil {
			return err
		}

		logger.Info(ctx, "Resetting password for user", map[string]interface{}{"username": username})

		user, err := userService.GetUserByUsername(ctx, username)
		if err != nil {
			logger.Error(ctx, "Failed to get user", err, map[string]interface{}{"username": username})
			return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to get user '%s': %v", username, err)
		}
		if user == nil {
			return contextutils.ErrorWithContextf("user '%s' not found", username)
		}

		if err := userService.UpdateUserPassword(ctx, user.ID, newPassword); err != nil {
			logger.Error(ctx, "Failed to update password", err, map[string]interface{}{
				"username": username,
				"user_id":  user.ID,
			})
			return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to update password for user '%s': %v", username, err)
		}

		fmt.Printf("Password successfully reset for user '%s' (ID: %d)\n", username, user.ID)
		logger.Info(ctx, "Password reset successful", map[string]interface{}{
			"username": username,
			"user_id":  user.ID,
		})

		return nil
	}
}
