package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-portal/internal/config"
	"github.com/jakechorley/volunteer-portal/pkg/core/achievements"
	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

const defaultReminderSubject = "How was your volunteering event?"

// Mailer sends plain-text email
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// ReminderOptions controls a reminder run
type ReminderOptions struct {
	// Force sends even when the schedule is not due today
	Force bool
	// DryRun lists recipients without sending
	DryRun bool
}

// ReminderResult summarises a reminder run
type ReminderResult struct {
	Due        bool
	Recipients []string
	Failed     []string
	Skipped    int
}

// ReminderDue reports whether the rrule has an occurrence on now's calendar day
func ReminderDue(rule string, now time.Time) (bool, error) {
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return false, fmt.Errorf("failed to parse rrule: %w", err)
	}

	dayStart := achievements.StartOfDay(now)
	dayEnd := dayStart.AddDate(0, 0, 1).Add(-time.Nanosecond)

	r.DTStart(dayStart)
	return len(r.Between(dayStart, dayEnd, true)) > 0, nil
}

// SendFeedbackReminders emails attended volunteers of an event who have not rated it yet
func SendFeedbackReminders(
	ctx context.Context,
	client EventVolunteersClient,
	mailer Mailer,
	cfg *config.Config,
	clk clock.Clock,
	logger *zap.Logger,
	event model.Event,
	opts ReminderOptions,
) (*ReminderResult, error) {
	if cfg.FeedbackReminders == nil {
		return nil, fmt.Errorf("feedbackReminders is not configured")
	}

	// Step 1: Check the schedule
	due, err := ReminderDue(cfg.FeedbackReminders.RRule, clk.Now())
	if err != nil {
		return nil, err
	}
	result := &ReminderResult{Due: due}
	if !due && !opts.Force {
		logger.Info("Feedback reminders not due today", zap.String("rrule", cfg.FeedbackReminders.RRule))
		return result, nil
	}

	// Step 2: Find attended, unrated volunteers
	records, err := client.VolunteersByEvent(ctx, event.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event volunteers: %w", err)
	}

	subject := cfg.FeedbackReminders.Subject
	if subject == "" {
		subject = defaultReminderSubject
	}

	// Step 3: Email each one, sequentially (the mailer throttles)
	for _, rec := range achievements.Dedupe(records) {
		if rec.Status != model.StatusAttended || rec.Rating > 0 {
			result.Skipped++
			continue
		}

		employee, err := client.GetEmployee(ctx, rec.EmployeeID)
		if err != nil || employee.Email == "" {
			logger.Warn("No email for volunteer", zap.Int("volunteer_id", rec.VolunteerID), zap.String("employee_id", rec.EmployeeID), zap.Error(err))
			result.Failed = append(result.Failed, rec.EmployeeID)
			continue
		}

		if opts.DryRun {
			result.Recipients = append(result.Recipients, employee.Email)
			continue
		}

		if err := mailer.SendEmail(ctx, employee.Email, subject, reminderBody(*employee, event)); err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			logger.Warn("Failed to send reminder", zap.String("email", employee.Email), zap.Error(err))
			result.Failed = append(result.Failed, employee.Email)
			continue
		}
		result.Recipients = append(result.Recipients, employee.Email)
	}

	logger.Info("Feedback reminders processed",
		zap.Int("event_id", event.EventID),
		zap.Int("sent", len(result.Recipients)),
		zap.Int("failed", len(result.Failed)),
		zap.Bool("dry_run", opts.DryRun))

	return result, nil
}

func reminderBody(employee model.Employee, event model.Event) string {
	name := employee.FirstName
	if name == "" {
		name = "there"
	}
	eventName := event.Name
	if event.SubName != "" {
		eventName += " - " + event.SubName
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Thank you for volunteering at %s.\n", eventName)
	b.WriteString("Please rate the event and leave your feedback in the volunteering portal under My Achievements.\n\n")
	b.WriteString("Thanks,\nThe Volunteering Team\n")
	return b.String()
}
