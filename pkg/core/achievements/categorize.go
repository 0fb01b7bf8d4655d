package achievements

import (
	"sort"
	"time"

	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

// Bucket is one of the three display groups a volunteer record falls into
type Bucket int

const (
	BucketUpcoming Bucket = iota
	BucketAttended
	BucketOther
)

func (b Bucket) String() string {
	switch b {
	case BucketUpcoming:
		return "upcoming"
	case BucketAttended:
		return "attended"
	default:
		return "other"
	}
}

// upcomingFallbackMonths is how many months back addedOn may lie for an undated record to still count as upcoming
const upcomingFallbackMonths = 3

// Buckets holds a partition of volunteer records
type Buckets struct {
	Upcoming []model.VolunteerRecord
	Attended []model.VolunteerRecord
	Other    []model.VolunteerRecord
}

// Len returns the total number of records across all buckets
func (b Buckets) Len() int {
	return len(b.Upcoming) + len(b.Attended) + len(b.Other)
}

// Dedupe removes repeated volunteer IDs, keeping the first occurrence in source order
func Dedupe(records []model.VolunteerRecord) []model.VolunteerRecord {
	seen := make(map[int]bool, len(records))
	result := make([]model.VolunteerRecord, 0, len(records))
	for _, rec := range records {
		if seen[rec.VolunteerID] {
			continue
		}
		seen[rec.VolunteerID] = true
		result = append(result, rec)
	}
	return result
}

// Classify decides which bucket a single record belongs to.
// Rules are evaluated in order:
//  1. attended status always wins
//  2. not-attended goes to other
//  3. no-action is upcoming unless the record is closed for competition
//  4. anything else is upcoming only while its date window is open
func Classify(rec model.VolunteerRecord, now time.Time) Bucket {
	switch rec.Status {
	case model.StatusAttended:
		return BucketAttended
	case model.StatusNotAttended:
		return BucketOther
	case model.StatusNoAction:
		if IsTruthy(rec.EnableComp) {
			return BucketOther
		}
		return BucketUpcoming
	}

	if IsUpcoming(rec, now) {
		return BucketUpcoming
	}
	return BucketOther
}

// IsUpcoming applies the date-window test. The first applicable rule wins:
// a real event date is compared to the start of today, then the tentative
// year and month, then addedOn within the last three months. A value that
// cannot be parsed keeps the record visible as upcoming.
func IsUpcoming(rec model.VolunteerRecord, now time.Time) bool {
	if HasEventDate(rec.EventDate) {
		eventDate, err := ParseTimestamp(rec.EventDate, now.Location())
		if err != nil {
			return true
		}
		return !eventDate.Before(StartOfDay(now))
	}

	if rec.TentativeYear != "" && rec.TentativeMonth != "" {
		year, err := ParseYear(string(rec.TentativeYear))
		if err != nil {
			return true
		}
		month, err := ParseMonth(string(rec.TentativeMonth))
		if err != nil {
			return true
		}
		return year > now.Year() || (year == now.Year() && month >= now.Month())
	}

	addedOn, err := ParseTimestamp(rec.AddedOn, now.Location())
	if err != nil {
		return true
	}
	return !addedOn.Before(now.AddDate(0, -upcomingFallbackMonths, 0))
}

// Categorize dedupes records and partitions them into upcoming, attended and other.
// Attended and other are sorted by addedOn, newest first; upcoming by addedOn, oldest first.
func Categorize(records []model.VolunteerRecord, now time.Time) Buckets {
	var buckets Buckets
	for _, rec := range Dedupe(records) {
		switch Classify(rec, now) {
		case BucketAttended:
			buckets.Attended = append(buckets.Attended, rec)
		case BucketUpcoming:
			buckets.Upcoming = append(buckets.Upcoming, rec)
		default:
			buckets.Other = append(buckets.Other, rec)
		}
	}

	sortByAddedOn(buckets.Upcoming, true, now.Location())
	sortByAddedOn(buckets.Attended, false, now.Location())
	sortByAddedOn(buckets.Other, false, now.Location())

	return buckets
}

// sortByAddedOn sorts in place; records with an unparseable addedOn sort as the zero time
func sortByAddedOn(records []model.VolunteerRecord, ascending bool, loc *time.Location) {
	keys := make(map[int]time.Time, len(records))
	for _, rec := range records {
		t, _ := ParseTimestamp(rec.AddedOn, loc)
		keys[rec.VolunteerID] = t
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := keys[records[i].VolunteerID], keys[records[j].VolunteerID]
		if ascending {
			return a.Before(b)
		}
		return a.After(b)
	})
}
