package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-portal/pkg/core/services"
)

// SuggestionsCmd creates the suggestions command and its review subcommands
func SuggestionsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggestions",
		Short: "Review event suggestions and feedback",
	}

	list := &cobra.Command{
		Use:   "list <event_id>",
		Short: "List suggestions for an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := parseID("event_id", args[0])
			if err != nil {
				return err
			}
			pending, _ := cmd.Flags().GetBool("pending")

			suggestions, err := services.ListSuggestions(app.Ctx, app.Portal, app.Logger, eventID, pending)
			if err != nil {
				return err
			}

			if len(suggestions) == 0 {
				fmt.Fprintln(app.Out, "\nNo suggestions found")
				return nil
			}

			fmt.Fprintln(app.Out)
			for _, s := range suggestions {
				mark := colorYellow + "pending" + colorReset
				if s.Approved {
					mark = colorGreen + "approved" + colorReset
				}
				fmt.Fprintf(app.Out, "  %-5d %-10s %s  %s\n", s.SuggestionID, s.Type, mark, s.Description)
			}
			fmt.Fprintln(app.Out)
			return nil
		},
	}
	list.Flags().Bool("pending", false, "Only show suggestions awaiting approval")

	approve := &cobra.Command{
		Use:   "approve <suggestion_id>",
		Short: "Approve a suggestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			suggestionID, err := parseID("suggestion_id", args[0])
			if err != nil {
				return err
			}

			if err := services.ApproveSuggestion(app.Ctx, app.Portal, app.Logger, suggestionID); err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "\n✓ Suggestion %d approved\n\n", suggestionID)
			return nil
		},
	}

	cmd.AddCommand(list, approve)
	return cmd
}
