package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jakechorley/volunteer-portal/pkg/core/model"
	"github.com/jakechorley/volunteer-portal/pkg/core/services"
)

// ActivitiesCmd creates the activities command and its admin subcommands
func ActivitiesCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activities",
		Short: "Manage volunteering activities",
	}

	cmd.AddCommand(
		listActivitiesCmd(app),
		createActivityCmd(app),
		updateActivityCmd(app),
		activityStatusCmd(app),
		addActivityImageCmd(app),
	)
	return cmd
}

func listActivitiesCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list [query]",
		Short: "List activities, optionally filtered by name or description",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			activities, err := services.ListActivities(app.Ctx, app.Portal, app.Logger, query)
			if err != nil {
				return err
			}

			if len(activities) == 0 {
				fmt.Fprintln(app.Out, "\nNo activities found")
				return nil
			}

			fmt.Fprintf(app.Out, "\n%d activities:\n\n", len(activities))
			for _, a := range activities {
				fmt.Fprintf(app.Out, "  %-5d %-30s %-10s %s\n", a.ActivityID, a.Name, a.Status, a.StartDate)
			}
			fmt.Fprintln(app.Out)
			return nil
		},
	}
}

func addActivityFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Activity name")
	cmd.Flags().String("description", "", "Activity description")
	cmd.Flags().Int("location", 0, "Location id")
	cmd.Flags().String("start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().Int("capacity", 0, "Maximum number of volunteers")
}

func activityFromFlags(cmd *cobra.Command) model.Activity {
	var a model.Activity
	a.Name, _ = cmd.Flags().GetString("name")
	a.Description, _ = cmd.Flags().GetString("description")
	a.LocationID, _ = cmd.Flags().GetInt("location")
	a.StartDate, _ = cmd.Flags().GetString("start")
	a.EndDate, _ = cmd.Flags().GetString("end")
	a.Capacity, _ = cmd.Flags().GetInt("capacity")
	return a
}

func createActivityCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := services.CreateActivity(app.Ctx, app.Portal, app.Logger, activityFromFlags(cmd))
			if err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "\n✓ Created activity %d: %s\n\n", created.ActivityID, created.Name)
			return nil
		},
	}

	addActivityFlags(cmd)
	return cmd
}

func updateActivityCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <activity_id>",
		Short: "Replace an activity's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			activityID, err := parseID("activity_id", args[0])
			if err != nil {
				return err
			}

			activity := activityFromFlags(cmd)
			activity.ActivityID = activityID

			updated, err := services.UpdateActivity(app.Ctx, app.Portal, app.Logger, activity)
			if err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "\n✓ Updated activity %d: %s\n\n", updated.ActivityID, updated.Name)
			return nil
		},
	}

	addActivityFlags(cmd)
	return cmd
}

func activityStatusCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <activity_id> <status>",
		Short: "Change an activity's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			activityID, err := parseID("activity_id", args[0])
			if err != nil {
				return err
			}

			if err := services.UpdateActivityStatus(app.Ctx, app.Portal, app.Logger, activityID, args[1]); err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "\n✓ Activity %d is now %s\n\n", activityID, args[1])
			return nil
		},
	}
}

func addActivityImageCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "addImage <activity_id> <path>",
		Short: "Upload an image for an activity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			activityID, err := parseID("activity_id", args[0])
			if err != nil {
				return err
			}

			image, err := services.AddActivityImage(app.Ctx, app.Portal, app.Logger, activityID, args[1])
			if err != nil {
				return err
			}

			fmt.Fprintf(app.Out, "\n✓ Uploaded %s to activity %d\n", image.FileName, activityID)
			if image.URL != "" {
				fmt.Fprintf(app.Out, "URL: %s\n", image.URL)
			}
			fmt.Fprintln(app.Out)
			return nil
		},
	}
}
