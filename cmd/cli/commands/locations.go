package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-portal/pkg/core/services"
)

// LocationsCmd creates the locations command
func LocationsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locations",
		Short: "List office locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			city, _ := cmd.Flags().GetString("city")

			locations, err := services.ListLocations(app.Ctx, app.Portal, app.Logger, city)
			if err != nil {
				return err
			}

			if len(locations) == 0 {
				fmt.Fprintln(app.Out, "\nNo locations found")
				return nil
			}

			fmt.Fprintln(app.Out)
			for _, l := range locations {
				fmt.Fprintf(app.Out, "  %-5d %-15s %s\n", l.LocationID, l.City, l.Name)
			}
			fmt.Fprintln(app.Out)
			return nil
		},
	}

	cmd.Flags().String("city", "", "Only show locations in this city")
	return cmd
}
