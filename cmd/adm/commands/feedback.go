package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"feedbackportal/internal/models"
	"feedbackportal/internal/observability"
	"feedbackportal/internal/services"
	contextutils "feedbackportal/internal/utils"

	"github.com/spf13/cobra"
)

// FeedbackCommands returns the feedback management commands
func FeedbackCommands(feedbackService *services.FeedbackService, logger *observability.Logger) *cobra.Command {
	feedbackCmd := &cobra.Command{
		Use:   "feedback",
		Short: "Feedback management commands",
		Long: `Feedback management commands for the feedback portal.

Available commands:
  list    - List feedback records
  resolve - Mark a feedback record as resolved
  stats   - Show aggregate feedback counts`,
	}

	feedbackCmd.AddCommand(feedbackListCmd(feedbackService, logger))
	feedbackCmd.AddCommand(feedbackResolveCmd(feedbackService, logger))
	feedbackCmd.AddCommand(feedbackStatsCmd(feedbackService, logger))

	return feedbackCmd
}

func feedbackListCmd(feedbackService *services.FeedbackService, logger *observability.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List feedback records",
		Long:  `List feedback records, newest submission first. Filterable by status.`,
		RunE:  runListFeedback(feedbackService, logger),
	}
	cmd.Flags().String("status", "", "filter by status (pending, resolved)")
	return cmd
}

func feedbackResolveCmd(feedbackService *services.FeedbackService, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [id]",
		Short: "Mark a feedback record as resolved",
		Args:  cobra.ExactArgs(1),
		RunE:  runResolveFeedback(feedbackService, logger),
	}
}

func feedbackStatsCmd(feedbackService *services.FeedbackService, logger *observability.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate feedback counts",
		RunE:  runFeedbackStats(feedbackService, logger),
	}
}

func runListFeedback(feedbackService *services.FeedbackService, logger *observability.Logger) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := context.Background()

		status, _ := cmd.Flags().GetString("status")
		if status != "" && !models.FeedbackStatus(status).IsValid() {
			return contextutils.ErrorWithContextf("invalid status '%s': must be 'pending' or 'resolved'", status)
		}

		feedback, err := feedbackService.GetFeedbackFiltered(ctx, status, "", "")
		if err != nil {
			logger.Error(ctx, "Failed to list feedback", err, nil)
			return contextutils.WrapError(err, "failed to list feedback")
		}

		if len(feedback) == 0 {
			fmt.Println("No feedback records found")
			return nil
		}

		fmt.Printf("%-5s %-15s %-12s %-20s %-14s %-10s %-12s\n", "ID", "Call ID", "Mobile", "Citizen", "Satisfaction", "Status", "Submitted")
		fmt.Println(strings.Repeat("-", 95))

		for _, fb := range feedback {
			fmt.Printf("%-5d %-15s %-12s %-20s %-14s %-10s %-12s\n",
				fb.ID,
				fb.CallID,
				fb.CitizenMobile,
				fb.CitizenName,
				string(fb.Satisfaction),
				string(fb.Status),
				fb.SubmittedAt.Format("2006-01-02"),
			)
		}

		logger.Info(ctx, "Listed feedback", map[string]interface{}{"total": len(feedback)})
		return nil
	}
}

func runResolveFeedback(feedbackService *services.FeedbackService, logger *observability.Logger) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, args []string) error {
		ctx := context.Background()

		id, err := strconv.Atoi(args[0])
		if err != nil {
			return contextutils.ErrorWithContextf("invalid feedback id '%s'", args[0])
		}

		fb, err := feedbackService.UpdateFeedbackStatus(ctx, id, models.FeedbackStatusResolved)
		if err != nil {
			logger.Error(ctx, "Failed to resolve feedback", err, map[string]interface{}{"feedback_id": id})
			return contextutils.WrapErrorf(err, "failed to resolve feedback %d", id)
		}

		fmt.Printf("Feedback %d (call %s) marked as resolved\n", fb.ID, fb.CallID)
		return nil
	}
}

func runFeedbackStats(feedbackService *services.FeedbackService, logger *observability.Logger) func(cmd *cobra.Command, args []string) error {
	return func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()

		stats, err := feedbackService.GetFeedbackStats(ctx)
		if err != nil {
			logger.Error(ctx, "Failed to compute feedback stats", err, nil)
			return contextutils.WrapError(err, "failed to compute feedback stats")
		}

		fmt.Printf("Total:         %d\n", stats.Total)
		fmt.Printf("Satisfied:     %d\n", stats.Satisfied)
		fmt.Printf("Not satisfied: %d\n", stats.NotSatisfied)
		fmt.Printf("Pending:       %d\n", stats.Pending)
		fmt.Printf("Resolved:      %d\n", stats.Resolved)
		return nil
	}
}
