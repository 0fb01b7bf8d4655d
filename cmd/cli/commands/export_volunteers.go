package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-portal/pkg/core/services"
)

// ExportVolunteersCmd creates the exportVolunteers command
func ExportVolunteersCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "exportVolunteers <event_id>",
		Short: "Publish an event's volunteers to the report spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventID, err := parseID("event_id", args[0])
			if err != nil {
				return err
			}

			event, err := services.FindEvent(app.Ctx, app.Portal, eventID, app.EventYears())
			if err != nil {
				return err
			}

			sheets, err := app.SheetsClient()
			if err != nil {
				return err
			}

			result, err := services.ExportVolunteers(app.Ctx, app.Portal, sheets, app.Logger, app.Cfg.ReportSheetID, *event)
			if err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "\n✓ Exported %d volunteers to tab %q\n\n", result.Volunteers, result.TabTitle)
			return nil
		},
	}
}
