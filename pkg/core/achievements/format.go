package achievements

import (
	"fmt"
	"strings"
	"time"

	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

const DateToBeAnnounced = "Date to be announced"

var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04 PM",
	"3:04PM",
	"03:04 PM",
}

// FormatEventDate renders the best known date for the record: the event date
// if set, otherwise the tentative month and year
func FormatEventDate(rec model.VolunteerRecord, loc *time.Location) string {
	if HasEventDate(rec.EventDate) {
		if t, err := ParseTimestamp(rec.EventDate, loc); err == nil {
			return t.Format("Mon, 02 Jan 2006")
		}
		return rec.EventDate
	}

	if rec.TentativeMonth != "" && rec.TentativeYear != "" {
		month, err := ParseMonth(string(rec.TentativeMonth))
		year, yerr := ParseYear(string(rec.TentativeYear))
		if err == nil && yerr == nil {
			return fmt.Sprintf("%s %d", month, year)
		}
		return fmt.Sprintf("%s %s", rec.TentativeMonth, rec.TentativeYear)
	}

	return DateToBeAnnounced
}

// FormatTimeRange renders the event's start and end time on a 12-hour clock.
// eventStime/eventEtime are preferred; startTime/endTime are the fallback.
func FormatTimeRange(rec model.VolunteerRecord) string {
	start := firstNonEmpty(rec.EventStime, rec.StartTime)
	end := firstNonEmpty(rec.EventEtime, rec.EndTime)

	switch {
	case start == "" && end == "":
		return ""
	case end == "":
		return formatClock(start)
	case start == "":
		return "until " + formatClock(end)
	}
	return formatClock(start) + " - " + formatClock(end)
}

// formatClock renders a time-of-day or timestamp as "3:04 PM"; unparseable input is returned trimmed
func formatClock(value string) string {
	value = strings.TrimSpace(value)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("3:04 PM")
		}
	}
	if t, err := ParseTimestamp(value, time.UTC); err == nil {
		return t.Format("3:04 PM")
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
