package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-portal/pkg/core/achievements"
	"github.com/jakechorley/volunteer-portal/pkg/core/model"
	"github.com/jakechorley/volunteer-portal/pkg/core/services"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorDim    = "\033[2m"
)

// AchievementsCmd creates the achievements command
func AchievementsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "achievements",
		Short: "Show volunteer records grouped into upcoming, attended and other",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			refresh, _ := cmd.Flags().GetBool("refresh")

			employeeID, err := app.EmployeeID(cmd)
			if err != nil {
				return err
			}

			app.Logger.Debug("achievements command", zap.String("employee_id", employeeID), zap.Bool("refresh", refresh))

			loaded, err := app.Board(employeeID, refresh)
			if err != nil {
				return err
			}

			renderAchievements(app.Out, loaded, app.Clock.Now().In(time.Local))
			return nil
		},
	}

	addEmployeeFlag(cmd)
	cmd.Flags().Bool("refresh", false, "Reload records from the portal")

	return cmd
}

func renderAchievements(w io.Writer, loaded *services.AchievementsResult, now time.Time) {
	buckets := loaded.Board.Buckets(now)

	fmt.Fprintf(w, "\nAchievements for %s (%d records)\n", loaded.EmployeeID, buckets.Len())

	sections := []struct {
		title   string
		records []model.VolunteerRecord
		empty   string
	}{
		{"Upcoming", buckets.Upcoming, "No upcoming events."},
		{"Attended", buckets.Attended, "No attended events yet."},
		{"Other", buckets.Other, "Nothing else."},
	}

	for _, section := range sections {
		fmt.Fprintf(w, "\n%s (%d)\n", section.title, len(section.records))
		fmt.Fprintln(w, strings.Repeat("-", 60))
		if len(section.records) == 0 {
			fmt.Fprintf(w, "  %s%s%s\n", colorDim, section.empty, colorReset)
			continue
		}
		for _, rec := range section.records {
			renderRecord(w, loaded, rec, now)
		}
	}
	fmt.Fprintln(w)
}

func renderRecord(w io.Writer, loaded *services.AchievementsResult, rec model.VolunteerRecord, now time.Time) {
	title := rec.EventName
	if rec.EventSubName != "" {
		title += " - " + rec.EventSubName
	}

	fmt.Fprintf(w, "  [%d] %s\n", rec.VolunteerID, title)

	when := achievements.FormatEventDate(rec, now.Location())
	if times := achievements.FormatTimeRange(rec); times != "" {
		when += ", " + times
	}
	fmt.Fprintf(w, "       %s", when)
	if rec.EventLocationName != "" {
		fmt.Fprintf(w, " @ %s", rec.EventLocationName)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "       Status: %s", statusColor(rec.Status))
	if rec.Rating > 0 {
		fmt.Fprintf(w, "  Rating: %s", strings.Repeat("*", rec.Rating))
	}
	fmt.Fprintln(w)

	if fb, ok := loaded.Board.Feedback(rec.VolunteerID); ok {
		fmt.Fprintf(w, "       Feedback: %q\n", fb.Description)
	}

	elig, err := loaded.Board.Eligibility(rec.VolunteerID)
	if err != nil {
		return
	}
	var actions []string
	if elig.CanConfirm {
		actions = append(actions, "confirm", "reject")
	}
	if elig.CanRate {
		actions = append(actions, "rate")
	}
	if elig.CanFeedback {
		actions = append(actions, "feedback")
	}
	if achievements.Classify(rec, now) == achievements.BucketAttended {
		actions = append(actions, "certificate")
	}
	if len(actions) > 0 {
		fmt.Fprintf(w, "       %sActions: %s%s\n", colorDim, strings.Join(actions, ", "), colorReset)
	}
}

func statusColor(status model.Status) string {
	switch status {
	case model.StatusAttended, model.StatusConfirmed:
		return colorGreen + status.Label() + colorReset
	case model.StatusRejected, model.StatusNotAttended:
		return colorRed + status.Label() + colorReset
	default:
		return colorYellow + status.Label() + colorReset
	}
}
