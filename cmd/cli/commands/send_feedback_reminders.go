package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-portal/pkg/core/services"
)

// SendFeedbackRemindersCmd creates the sendFeedbackReminders command
func SendFeedbackRemindersCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sendFeedbackReminders <event_id>",
		Short: "Email attendees of an event who have not rated it yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := parseID("event_id", args[0])
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			event, err := services.FindEvent(app.Ctx, app.Portal, eventID, app.EventYears())
			if err != nil {
				return err
			}

			var mailer services.Mailer
			if !dryRun {
				gmail, err := app.GmailClient()
				if err != nil {
					return err
				}
				mailer = gmail
			}

			result, err := services.SendFeedbackReminders(app.Ctx, app.Portal, mailer, app.Cfg, app.Clock, app.Logger, *event, services.ReminderOptions{
				Force:  force,
				DryRun: dryRun,
			})
			if err != nil {
				return err
			}

			if !result.Due {
				fmt.Fprintln(app.Out, "\n⚠️  Reminders are not scheduled for today (use --force to send anyway)")
				return nil
			}

			verb := "Sent"
			if dryRun {
				verb = "Would send"
			}
			fmt.Fprintf(app.Out, "\n✓ %s %d reminders for %s\n", verb, len(result.Recipients), event.Name)
			for _, r := range result.Recipients {
				fmt.Fprintf(app.Out, "  %s\n", r)
			}
			if result.Skipped > 0 {
				fmt.Fprintf(app.Out, "%sSkipped %d volunteers who already rated or did not attend%s\n", colorDim, result.Skipped, colorReset)
			}
			if len(result.Failed) > 0 {
				fmt.Fprintf(app.Out, "%s⚠️  Failed for %d: %v%s\n", colorYellow, len(result.Failed), result.Failed, colorReset)
			}
			fmt.Fprintln(app.Out)
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Send even if the reminder schedule is not due today")
	cmd.Flags().Bool("dry-run", false, "List recipients without sending")
	return cmd
}
