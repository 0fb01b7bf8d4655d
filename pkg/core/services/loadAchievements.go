package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/juju/clock"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-portal/pkg/clients/portalclient"
	"github.com/jakechorley/volunteer-portal/pkg/core/achievements"
	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

// AchievementsClient defines the portal operations needed to load an employee's records
type AchievementsClient interface {
	VolunteerRecordsByEmployeeRaw(ctx context.Context, employeeID string) ([]byte, error)
	VolunteersByEvent(ctx context.Context, eventID int) ([]model.VolunteerRecord, error)
	GetEventsByYear(ctx context.Context, year int) ([]model.Event, error)
	GetFeedbackByVolunteerID(ctx context.Context, volunteerID int) (*model.FeedbackRecord, error)
}

// StrategyInput is what every record fetch strategy works from
type StrategyInput struct {
	Client     AchievementsClient
	EmployeeID string
	// Events fetched for the event index, reused by the per-event strategy
	Events []model.Event

	raw     []byte
	rawErr  error
	rawDone bool
}

// employeeRecordsRaw fetches the employee's records once and shares the body between strategies
func (in *StrategyInput) employeeRecordsRaw(ctx context.Context) ([]byte, error) {
	if !in.rawDone {
		in.raw, in.rawErr = in.Client.VolunteerRecordsByEmployeeRaw(ctx, in.EmployeeID)
		in.rawDone = true
	}
	return in.raw, in.rawErr
}

// RecordStrategy is one way of obtaining an employee's volunteer records.
// Strategies are tried in order until one yields records without error.
type RecordStrategy struct {
	Name  string
	Fetch func(ctx context.Context, in *StrategyInput) ([]model.VolunteerRecord, error)
}

// DefaultRecordStrategies: the current record shape, the legacy field names,
// then one request per known event filtered to the employee
var DefaultRecordStrategies = []RecordStrategy{
	{Name: "primary", Fetch: fetchPrimaryRecords},
	{Name: "legacy", Fetch: fetchLegacyRecords},
	{Name: "per-event", Fetch: fetchRecordsPerEvent},
}

func fetchPrimaryRecords(ctx context.Context, in *StrategyInput) ([]model.VolunteerRecord, error) {
	raw, err := in.employeeRecordsRaw(ctx)
	if err != nil {
		return nil, err
	}
	return portalclient.DecodeVolunteerRecords(raw)
}

func fetchLegacyRecords(ctx context.Context, in *StrategyInput) ([]model.VolunteerRecord, error) {
	raw, err := in.employeeRecordsRaw(ctx)
	if err != nil {
		return nil, err
	}
	return portalclient.DecodeLegacyVolunteerRecords(raw)
}

func fetchRecordsPerEvent(ctx context.Context, in *StrategyInput) ([]model.VolunteerRecord, error) {
	if len(in.Events) == 0 {
		return nil, fmt.Errorf("no events available for per-event lookup")
	}

	var records []model.VolunteerRecord
	var errs []error
	for _, ev := range in.Events {
		eventRecords, err := in.Client.VolunteersByEvent(ctx, ev.EventID)
		if err != nil {
			errs = append(errs, fmt.Errorf("event %d: %w", ev.EventID, err))
			continue
		}
		for _, rec := range eventRecords {
			if rec.EmployeeID != in.EmployeeID {
				continue
			}
			records = append(records, withEventFields(rec, ev))
		}
	}

	if len(records) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return records, nil
}

// withEventFields fills in event details the per-event endpoint leaves out
func withEventFields(rec model.VolunteerRecord, ev model.Event) model.VolunteerRecord {
	if rec.EventName == "" {
		rec.EventName = ev.Name
		rec.EventSubName = ev.SubName
	}
	if rec.TentativeMonth == "" {
		rec.TentativeMonth = ev.TentativeMonth
	}
	if rec.TentativeYear == "" {
		rec.TentativeYear = ev.TentativeYear
	}
	return rec
}

// FetchRecords runs the strategies in order. The first strategy returning
// records wins. Only when every strategy fails are the failures returned;
// otherwise an employee with no records gets an empty result.
func FetchRecords(ctx context.Context, strategies []RecordStrategy, in *StrategyInput, logger *zap.Logger) ([]model.VolunteerRecord, string, error) {
	var errs []error
	for _, strategy := range strategies {
		records, err := strategy.Fetch(ctx, in)
		if err != nil {
			logger.Debug("Record strategy failed", zap.String("strategy", strategy.Name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", strategy.Name, err))
			continue
		}
		if len(records) > 0 {
			logger.Debug("Record strategy succeeded",
				zap.String("strategy", strategy.Name),
				zap.Int("count", len(records)))
			return records, strategy.Name, nil
		}
		logger.Debug("Record strategy returned no records", zap.String("strategy", strategy.Name))
	}

	if ctx.Err() != nil {
		return nil, "", ctx.Err()
	}
	if len(errs) == len(strategies) && len(errs) > 0 {
		return nil, "", fmt.Errorf("failed to fetch volunteer records: %w", errors.Join(errs...))
	}
	return nil, "", nil
}

// LoadOptions tunes LoadAchievements. Nil Clock, Location and Strategies use
// the defaults; zero years fetch only the current year's events.
type LoadOptions struct {
	Clock      clock.Clock
	Location   *time.Location
	YearsBack  int
	YearsAhead int
	Strategies []RecordStrategy
}

// AchievementsResult is a loaded board with its event index
type AchievementsResult struct {
	EmployeeID string
	Board      *achievements.Board
	Events     *achievements.EventIndex
	Strategy   string
	LoadedAt   time.Time
}

// LoadAchievements fetches an employee's volunteer records and the feedback of
// their attended records, ready for classification
func LoadAchievements(
	ctx context.Context,
	client AchievementsClient,
	employeeID string,
	opts LoadOptions,
	logger *zap.Logger,
) (*AchievementsResult, error) {
	if employeeID == "" {
		return nil, fmt.Errorf("employee id is required")
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	strategies := opts.Strategies
	if strategies == nil {
		strategies = DefaultRecordStrategies
	}
	now := clk.Now().In(loc)

	logger.Debug("Loading achievements", zap.String("employee_id", employeeID))

	// Step 1: Fetch events across the configured window (failures only shrink the index)
	var events []model.Event
	for _, year := range achievements.EventYears(now.Year(), opts.YearsBack, opts.YearsAhead) {
		yearEvents, err := client.GetEventsByYear(ctx, year)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("Failed to fetch events", zap.Int("year", year), zap.Error(err))
			continue
		}
		events = append(events, yearEvents...)
	}
	index := achievements.NewEventIndex(events)
	logger.Debug("Built event index", zap.Int("events", len(events)), zap.Int("keys", index.Len()))

	// Step 2: Fetch records through the strategy chain
	in := &StrategyInput{Client: client, EmployeeID: employeeID, Events: events}
	records, strategy, err := FetchRecords(ctx, strategies, in, logger)
	if err != nil {
		return nil, err
	}

	board := achievements.NewBoard(records)

	// Step 3: Load feedback for attended records, one request at a time
	for _, rec := range board.Records() {
		if achievements.Classify(rec, now) != achievements.BucketAttended {
			continue
		}
		feedback, err := client.GetFeedbackByVolunteerID(ctx, rec.VolunteerID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("Failed to fetch feedback", zap.Int("volunteer_id", rec.VolunteerID), zap.Error(err))
			continue
		}
		if feedback != nil {
			feedback.VolunteerID = rec.VolunteerID
			if err := board.SetFeedback(*feedback); err != nil {
				return nil, fmt.Errorf("failed to record feedback: %w", err)
			}
		}
	}

	logger.Info("Loaded achievements",
		zap.String("employee_id", employeeID),
		zap.String("strategy", strategy),
		zap.Int("records", board.Len()))

	return &AchievementsResult{
		EmployeeID: employeeID,
		Board:      board,
		Events:     index,
		Strategy:   strategy,
		LoadedAt:   now,
	}, nil
}
