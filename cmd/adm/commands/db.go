// Package commands provides CLI commands for the admin tool
package commands

import (
	"context"
	"database/sql"
	"os"

	"feedbackportal/internal/observability"
	"feedbackportal/internal/services"
	contextutils "feedbackportal/internal/utils"

	"github.com/spf13/cobra"
)

// DatabaseCommands returns the database management commands
func DatabaseCommands(userService *services.UserService, feedbackService *services.FeedbackService, logger *observability.Logger, db *sql.DB) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Database management commands for the feedback portal.

Available commands:
  stats     - Show database statistics
  cleanup   - Purge resolved feedback past the retention window`,
	}

	dbCmd.AddCommand(statsCmd(userService, feedbackService, logger, db))
	dbCmd.AddCommand(cleanupCmd(logger, db))

	return dbCmd
}

// statsCmd returns the stats command
func statsCmd(userService *services.UserService, feedbackService *services.FeedbackService, logger *observability.Logger, db *sql.DB) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Long:  `Show database statistics including account and feedback counts.`,
		RunE:  runStats(userService, feedbackService, logger, db),
	}
}

// cleanupCmd returns the cleanup command
func cleanupCmd(logger *observability.Logger, db *sql.DB) *cobra.Command {
	var statsOnly bool
	var retentionDays int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Purge resolved feedback past the retention window",
		Long: `Delete resolved feedback whose last update is older than the retention
window. Pending feedback is never removed.

Use --stats to see what would be removed without deleting anything.`,
		RunE: runCleanup(logger, &statsOnly, &retentionDays, db),
	}

	cmd.Flags().BoolVar(&statsOnly, "stats", false, "Only show cleanup statistics, don't perform cleanup")
	cmd.Flags().IntVar(&retentionDays, "retention-days", services.DefaultFeedbackRetentionDays, "Age in days before resolved feedback is purged")

	return cmd
}

// runStats returns a function that shows database statistics
func runStats(userService *services.UserService, feedbackService *services.FeedbackService, logger *observability.Logger, db *sql.DB) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		logger.Info(ctx, "Diagnostic info", map[string]interface{}{"config_file": os.Getenv("PORTAL_CONFIG_FILE"), "database": getDatabaseInfo(db)})

		users, err := userService.GetAllUsers(ctx)
		if err != nil {
			logger.Error(ctx, "Failed to get user statistics", err, map[string]interface{}{})
			return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to get user statistics: %v", err)
		}

		stats, err := feedbackService.GetFeedbackStats(ctx)
		if err != nil {
			logger.Error(ctx, "Failed to get feedback statistics", err, map[string]interface{}{})
			return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to get feedback statistics: %v", err)
		}

		logger.Info(ctx, "Database statistics", map[string]interface{}{
			"total_users":    len(users),
			"total_feedback": stats.Total,
			"pending":        stats.Pending,
			"resolved":       stats.Resolved,
			"database":       "PostgreSQL",
			"status":         "Connected",
		})

		return nil
	}
}

// runCleanup returns a function that runs database cleanup
func runCleanup(logger *observability.Logger, statsOnly *bool, retentionDays *int, db *sql.DB) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		logger.Info(ctx, "Diagnostic info", map[string]interface{}{"config_file": os.Getenv("PORTAL_CONFIG_FILE"), "database": getDatabaseInfo(db)})
		logger.Info(ctx, "Running database cleanup", map[string]interface{}{"stats_only": *statsOnly, "retention_days": *retentionDays})

		if db == nil {
			return contextutils.WrapErrorf(contextutils.ErrInternalError, "database connection not available")
		}

		cleanupService := services.NewCleanupServiceWithLogger(db, logger)

		if *statsOnly {
			stats, err := cleanupService.GetCleanupStats(ctx, *retentionDays)
			if err != nil {
				logger.Error(ctx, "Failed to get cleanup stats", err, map[string]interface{}{"stats_only": true})
				return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to get cleanup stats: %v", err)
			}

			logger.Info(ctx, "Database cleanup statistics", map[string]interface{}{
				"expired_resolved_feedback": stats["expired_resolved_feedback"],
				"inactive_users":            stats["inactive_users"],
			})

			if stats["expired_resolved_feedback"] == 0 {
				logger.Info(ctx, "No cleanup needed - database is clean", nil)
			}
			return nil
		}

		removed, err := cleanupService.PurgeResolvedFeedback(ctx, *retentionDays)
		if err != nil {
			logger.Error(ctx, "Cleanup failed", err, map[string]interface{}{"service": "cleanup"})
			return contextutils.WrapErrorf(contextutils.ErrInternalError, "cleanup failed: %v", err)
		}

		logger.Info(ctx, "Database cleanup completed successfully", map[string]interface{}{"removed": removed})
		return nil
	}
}
