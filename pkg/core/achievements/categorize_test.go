package achievements

import (
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

var testNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func ids(records []model.VolunteerRecord) []int {
	result := make([]int, len(records))
	for i, r := range records {
		result[i] = r.VolunteerID
	}
	return result
}

func TestClassify_Scenarios(t *testing.T) {
	nextYear := strconv.Itoa(testNow.Year() + 1)

	tests := []struct {
		name     string
		record   model.VolunteerRecord
		expected Bucket
	}{
		{
			name: "no action, open competition, tentative next december is upcoming",
			record: model.VolunteerRecord{
				Status: model.StatusNoAction, EnableComp: "false",
				TentativeMonth: "12", TentativeYear: model.FlexString(nextYear),
			},
			expected: BucketUpcoming,
		},
		{
			name:     "no action with competition closed is other",
			record:   model.VolunteerRecord{Status: model.StatusNoAction, EnableComp: "true"},
			expected: BucketOther,
		},
		{
			name:     "no action with competition flag 1 is other",
			record:   model.VolunteerRecord{Status: model.StatusNoAction, EnableComp: "1"},
			expected: BucketOther,
		},
		{
			name:     "no action with old date is still upcoming",
			record:   model.VolunteerRecord{Status: model.StatusNoAction, EventDate: "2000-01-01T00:00:00"},
			expected: BucketUpcoming,
		},
		{
			name:     "not attended is other regardless of date",
			record:   model.VolunteerRecord{Status: model.StatusNotAttended, EventDate: "2099-01-01T00:00:00"},
			expected: BucketOther,
		},
		{
			name:     "confirmed with past event date is other",
			record:   model.VolunteerRecord{Status: model.StatusConfirmed, EventDate: "2000-01-01T00:00:00"},
			expected: BucketOther,
		},
		{
			name:     "confirmed with event later today is upcoming",
			record:   model.VolunteerRecord{Status: model.StatusConfirmed, EventDate: "2025-06-15T08:00:00"},
			expected: BucketUpcoming,
		},
		{
			name:     "rejected with future event date is upcoming",
			record:   model.VolunteerRecord{Status: model.StatusRejected, EventDate: "2025-07-01T00:00:00"},
			expected: BucketUpcoming,
		},
		{
			name:     "attended with future date is attended",
			record:   model.VolunteerRecord{Status: model.StatusAttended, EventDate: "2099-01-01T00:00:00"},
			expected: BucketAttended,
		},
		{
			name:     "empty status with recent addedOn is upcoming",
			record:   model.VolunteerRecord{AddedOn: "2025-05-01T00:00:00"},
			expected: BucketUpcoming,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.record, testNow))
		})
	}
}

func TestIsUpcoming_Rules(t *testing.T) {
	tests := []struct {
		name     string
		record   model.VolunteerRecord
		expected bool
	}{
		{"event date tomorrow", model.VolunteerRecord{EventDate: "2025-06-16T00:00:00"}, true},
		{"event date yesterday", model.VolunteerRecord{EventDate: "2025-06-14T23:59:59"}, false},
		{"event date start of today", model.VolunteerRecord{EventDate: "2025-06-15T00:00:00"}, true},
		{"null event date falls through to tentative", model.VolunteerRecord{EventDate: NullDate, TentativeMonth: "5", TentativeYear: "2025"}, false},
		{"tentative same month", model.VolunteerRecord{TentativeMonth: "6", TentativeYear: "2025"}, true},
		{"tentative earlier month", model.VolunteerRecord{TentativeMonth: "5", TentativeYear: "2025"}, false},
		{"tentative later year earlier month", model.VolunteerRecord{TentativeMonth: "1", TentativeYear: "2026"}, true},
		{"tentative month name", model.VolunteerRecord{TentativeMonth: "September", TentativeYear: "2025"}, true},
		{"tentative previous year", model.VolunteerRecord{TentativeMonth: "12", TentativeYear: "2024"}, false},
		{"only year falls back to addedOn", model.VolunteerRecord{TentativeYear: "2020", AddedOn: "2025-04-01T00:00:00"}, true},
		{"addedOn within three months", model.VolunteerRecord{AddedOn: "2025-03-16T00:00:00"}, true},
		{"addedOn older than three months", model.VolunteerRecord{AddedOn: "2025-03-14T00:00:00"}, false},
		{"unparseable event date", model.VolunteerRecord{EventDate: "next tuesday"}, true},
		{"unparseable tentative year", model.VolunteerRecord{TentativeMonth: "5", TentativeYear: "twenty"}, true},
		{"unparseable tentative month", model.VolunteerRecord{TentativeMonth: "Smarch", TentativeYear: "2024"}, true},
		{"no dates at all", model.VolunteerRecord{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsUpcoming(tt.record, testNow))
		})
	}
}

func TestDedupe_KeepsFirstOccurrence(t *testing.T) {
	records := []model.VolunteerRecord{
		{VolunteerID: 1, EventName: "first"},
		{VolunteerID: 2, EventName: "other"},
		{VolunteerID: 1, EventName: "duplicate"},
	}

	result := Dedupe(records)

	require.Len(t, result, 2)
	assert.Equal(t, "first", result[0].EventName)
	assert.Equal(t, 2, result[1].VolunteerID)
}

func TestCategorize_PartitionIsTotal(t *testing.T) {
	statuses := []model.Status{model.StatusNoAction, model.StatusConfirmed, model.StatusAttended, model.StatusRejected, model.StatusNotAttended, ""}
	dates := []string{"", "2000-01-01T00:00:00", "2099-01-01T00:00:00", NullDate, "garbage"}

	var records []model.VolunteerRecord
	id := 0
	for _, s := range statuses {
		for _, d := range dates {
			id++
			records = append(records, model.VolunteerRecord{
				VolunteerID: id,
				Status:      s,
				EventDate:   d,
				AddedOn:     fmt.Sprintf("2025-0%d-01T00:00:00", id%6+1),
				EnableComp:  model.FlexString(strconv.FormatBool(id%2 == 0)),
			})
		}
	}
	// Duplicates from a second fetch path
	records = append(records, records[0], records[5])

	buckets := Categorize(records, testNow)

	assert.Equal(t, id, buckets.Len())
	seen := make(map[int]int)
	for _, group := range [][]model.VolunteerRecord{buckets.Upcoming, buckets.Attended, buckets.Other} {
		for _, r := range group {
			seen[r.VolunteerID]++
		}
	}
	for i := 1; i <= id; i++ {
		assert.Equal(t, 1, seen[i], "volunteer %d", i)
	}
}

func TestCategorize_AttendedAlwaysWins(t *testing.T) {
	records := []model.VolunteerRecord{
		{VolunteerID: 1, Status: model.StatusAttended, EventDate: "2099-01-01T00:00:00"},
		{VolunteerID: 2, Status: model.StatusAttended, EnableComp: "true"},
		{VolunteerID: 3, Status: model.StatusAttended, TentativeMonth: "1", TentativeYear: "1999"},
	}

	buckets := Categorize(records, testNow)

	assert.ElementsMatch(t, []int{1, 2, 3}, ids(buckets.Attended))
	assert.Empty(t, buckets.Upcoming)
	assert.Empty(t, buckets.Other)
}

func TestCategorize_SortOrder(t *testing.T) {
	records := []model.VolunteerRecord{
		{VolunteerID: 1, Status: model.StatusNoAction, AddedOn: "2025-05-10T00:00:00"},
		{VolunteerID: 2, Status: model.StatusNoAction, AddedOn: "2025-04-10T00:00:00"},
		{VolunteerID: 3, Status: model.StatusNoAction, AddedOn: "2025-06-01T00:00:00"},
		{VolunteerID: 4, Status: model.StatusAttended, AddedOn: "2024-01-01T00:00:00"},
		{VolunteerID: 5, Status: model.StatusAttended, AddedOn: "2024-09-01T00:00:00"},
		{VolunteerID: 6, Status: model.StatusNotAttended, AddedOn: "2023-01-01T00:00:00"},
		{VolunteerID: 7, Status: model.StatusNotAttended, AddedOn: "2024-01-01T00:00:00"},
	}

	buckets := Categorize(records, testNow)

	assert.Equal(t, []int{2, 1, 3}, ids(buckets.Upcoming))
	assert.Equal(t, []int{5, 4}, ids(buckets.Attended))
	assert.Equal(t, []int{7, 6}, ids(buckets.Other))
}

func TestCategorize_Empty(t *testing.T) {
	buckets := Categorize(nil, testNow)
	assert.Equal(t, 0, buckets.Len())
}
