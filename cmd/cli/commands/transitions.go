package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-portal/pkg/core/services"
)

func parseID(name, value string) (int, error) {
	id, err := strconv.Atoi(value)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got: %s", name, value)
	}
	return id, nil
}

// ConfirmCmd creates the confirm command
func ConfirmCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "confirm <volunteer_id>",
		Short: "Confirm participation in an upcoming event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteerID, err := parseID("volunteer_id", args[0])
			if err != nil {
				return err
			}
			loaded, err := boardFor(app, cmd)
			if err != nil {
				return err
			}

			app.Logger.Debug("confirm command", zap.Int("volunteer_id", volunteerID))

			if err := services.ConfirmParticipation(app.Ctx, app.Portal, loaded.Board, app.Guard(), app.Logger, volunteerID); err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "\n✓ Participation confirmed for volunteer record %d\n\n", volunteerID)
			return nil
		},
	}

	addEmployeeFlag(cmd)
	return cmd
}

// RejectCmd creates the reject command
func RejectCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reject <volunteer_id>",
		Short: "Reject participation in an upcoming event (asks for confirmation)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteerID, err := parseID("volunteer_id", args[0])
			if err != nil {
				return err
			}
			yes, _ := cmd.Flags().GetBool("yes")

			loaded, err := boardFor(app, cmd)
			if err != nil {
				return err
			}

			prompter := newLinePrompter(app.Input(), app.Out, yes)
			err = services.RejectParticipation(app.Ctx, app.Portal, loaded.Board, app.Guard(), prompter, app.Logger, volunteerID)
			if errors.Is(err, services.ErrRejectCancelled) {
				fmt.Fprintln(app.Out, "Rejection cancelled, nothing was changed.")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "\n✓ Participation rejected for volunteer record %d\n\n", volunteerID)
			return nil
		},
	}

	addEmployeeFlag(cmd)
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// RateCmd creates the rate command
func RateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rate <volunteer_id> <rating>",
		Short: "Rate an attended event from 1 to 5 (once only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteerID, err := parseID("volunteer_id", args[0])
			if err != nil {
				return err
			}
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("rating must be a number: %w", err)
			}

			loaded, err := boardFor(app, cmd)
			if err != nil {
				return err
			}

			if err := services.RateEvent(app.Ctx, app.Portal, loaded.Board, app.Guard(), app.Logger, volunteerID, rating); err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "\n✓ Rated volunteer record %d: %s\n\n", volunteerID, strings.Repeat("*", rating))
			return nil
		},
	}

	addEmployeeFlag(cmd)
	return cmd
}

// FeedbackCmd creates the feedback command
func FeedbackCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback <volunteer_id> <description>",
		Short: "Submit feedback for a rated event (once only)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			volunteerID, err := parseID("volunteer_id", args[0])
			if err != nil {
				return err
			}
			description := strings.Join(args[1:], " ")

			loaded, err := boardFor(app, cmd)
			if err != nil {
				return err
			}

			stored, err := services.SubmitFeedback(app.Ctx, app.Portal, loaded, app.Guard(), app.Logger, volunteerID, description)
			if err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "\n✓ Feedback saved for volunteer record %d (id %d)\n\n", volunteerID, stored.FeedbackID)
			return nil
		},
	}

	addEmployeeFlag(cmd)
	return cmd
}

func boardFor(app *AppContext, cmd *cobra.Command) (*services.AchievementsResult, error) {
	employeeID, err := app.EmployeeID(cmd)
	if err != nil {
		return nil, err
	}
	return app.Board(employeeID, false)
}
