package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-portal/pkg/clients/sheetsclient"
	"github.com/jakechorley/volunteer-portal/pkg/core/achievements"
	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

// EventVolunteersClient defines the portal operations needed to list an event's volunteers
type EventVolunteersClient interface {
	GetEventsByYear(ctx context.Context, year int) ([]model.Event, error)
	VolunteersByEvent(ctx context.Context, eventID int) ([]model.VolunteerRecord, error)
	GetEmployee(ctx context.Context, employeeID string) (*model.Employee, error)
}

// RosterPublisher writes an event roster to a spreadsheet
type RosterPublisher interface {
	PublishRoster(ctx context.Context, spreadsheetID string, roster *sheetsclient.Roster) error
}

// FindEvent looks the event up in the given years
func FindEvent(ctx context.Context, client EventVolunteersClient, eventID int, years []int) (*model.Event, error) {
	for _, year := range years {
		events, err := client.GetEventsByYear(ctx, year)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch events for %d: %w", year, err)
		}
		for _, ev := range events {
			if ev.EventID == eventID {
				return &ev, nil
			}
		}
	}
	return nil, fmt.Errorf("event %d not found in years %v", eventID, years)
}

// ExportVolunteersResult summarises an export
type ExportVolunteersResult struct {
	TabTitle   string
	Volunteers int
}

// ExportVolunteers publishes an event's volunteers to its own tab of the report spreadsheet
func ExportVolunteers(
	ctx context.Context,
	client EventVolunteersClient,
	publisher RosterPublisher,
	logger *zap.Logger,
	spreadsheetID string,
	event model.Event,
) (*ExportVolunteersResult, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("%w: reportSheetID is not configured", ErrValidation)
	}

	// Step 1: Fetch the event's volunteers
	records, err := client.VolunteersByEvent(ctx, event.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event volunteers: %w", err)
	}

	// Step 2: Resolve names, one employee lookup per distinct employee
	names := resolveEmployeeNames(ctx, client, records, logger)

	// Step 3: Build and publish the roster
	roster := &sheetsclient.Roster{EventID: event.EventID, EventName: event.Name}
	for _, rec := range achievements.Dedupe(records) {
		roster.Rows = append(roster.Rows, sheetsclient.RosterRow{
			VolunteerID: rec.VolunteerID,
			EmployeeID:  rec.EmployeeID,
			Name:        names[rec.EmployeeID],
			Status:      rec.Status.Label(),
			Rating:      rec.Rating,
			AddedOn:     rec.AddedOn,
		})
	}

	if err := publisher.PublishRoster(ctx, spreadsheetID, roster); err != nil {
		return nil, fmt.Errorf("failed to publish roster: %w", err)
	}

	logger.Info("Exported event volunteers",
		zap.Int("event_id", event.EventID),
		zap.String("tab", roster.TabTitle()),
		zap.Int("volunteers", len(roster.Rows)))

	return &ExportVolunteersResult{TabTitle: roster.TabTitle(), Volunteers: len(roster.Rows)}, nil
}

// resolveEmployeeNames looks up each distinct employee once. Failed lookups fall back to the employee id.
func resolveEmployeeNames(ctx context.Context, client EventVolunteersClient, records []model.VolunteerRecord, logger *zap.Logger) map[string]string {
	names := make(map[string]string)
	for _, rec := range records {
		if _, done := names[rec.EmployeeID]; done || rec.EmployeeID == "" {
			continue
		}
		employee, err := client.GetEmployee(ctx, rec.EmployeeID)
		if err != nil || employee.FullName() == "" {
			if err != nil {
				logger.Warn("Failed to fetch employee", zap.String("employee_id", rec.EmployeeID), zap.Error(err))
			}
			names[rec.EmployeeID] = rec.EmployeeID
			continue
		}
		names[rec.EmployeeID] = employee.FullName()
	}
	return names
}
