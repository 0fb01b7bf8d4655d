package server

import (
	"time"

	"github.com/jakechorley/volunteer-portal/pkg/core/achievements"
	"github.com/jakechorley/volunteer-portal/pkg/core/model"
	"github.com/jakechorley/volunteer-portal/pkg/core/services"
)

// recordView is a volunteer record with everything the page needs to render it
type recordView struct {
	model.VolunteerRecord
	achievements.Eligibility
	EventID     int                   `json:"eventId"`
	Bucket      string                `json:"bucket"`
	DisplayDate string                `json:"displayDate"`
	DisplayTime string                `json:"displayTime"`
	Feedback    *model.FeedbackRecord `json:"feedback,omitempty"`
}

type achievementsView struct {
	EmployeeID string       `json:"employeeId"`
	Strategy   string       `json:"strategy"`
	LoadedAt   time.Time    `json:"loadedAt"`
	Upcoming   []recordView `json:"upcoming"`
	Attended   []recordView `json:"attended"`
	Other      []recordView `json:"other"`
}

func newAchievementsView(loaded *services.AchievementsResult, now time.Time) achievementsView {
	buckets := loaded.Board.Buckets(now)
	return achievementsView{
		EmployeeID: loaded.EmployeeID,
		Strategy:   loaded.Strategy,
		LoadedAt:   loaded.LoadedAt,
		Upcoming:   recordViews(loaded, buckets.Upcoming, achievements.BucketUpcoming, now),
		Attended:   recordViews(loaded, buckets.Attended, achievements.BucketAttended, now),
		Other:      recordViews(loaded, buckets.Other, achievements.BucketOther, now),
	}
}

func recordViews(loaded *services.AchievementsResult, records []model.VolunteerRecord, bucket achievements.Bucket, now time.Time) []recordView {
	views := make([]recordView, 0, len(records))
	for _, rec := range records {
		views = append(views, buildRecordView(loaded, rec, bucket, now))
	}
	return views
}

func newRecordView(loaded *services.AchievementsResult, volunteerID int, now time.Time) (recordView, error) {
	rec, ok := loaded.Board.Record(volunteerID)
	if !ok {
		return recordView{}, achievements.ErrUnknownVolunteer
	}
	return buildRecordView(loaded, rec, achievements.Classify(rec, now), now), nil
}

func buildRecordView(loaded *services.AchievementsResult, rec model.VolunteerRecord, bucket achievements.Bucket, now time.Time) recordView {
	view := recordView{
		VolunteerRecord: rec,
		EventID:         loaded.Events.EventIDFor(rec),
		Bucket:          bucket.String(),
		DisplayDate:     achievements.FormatEventDate(rec, now.Location()),
		DisplayTime:     achievements.FormatTimeRange(rec),
	}
	if elig, err := loaded.Board.Eligibility(rec.VolunteerID); err == nil {
		view.Eligibility = elig
	}
	if fb, ok := loaded.Board.Feedback(rec.VolunteerID); ok {
		view.Feedback = &fb
	}
	return view
}
