package achievements

import (
	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

// NoEventID is returned when a record cannot be matched to an event
const NoEventID = 0

// EventIndex resolves the event ID for volunteer records that only carry the event's name.
// Each event is registered under its name and under both "name - subName" and
// "name_subName". The first event registered under a key keeps it.
type EventIndex struct {
	byName map[string]model.Event
}

// NewEventIndex indexes events by their lookup keys
func NewEventIndex(events []model.Event) *EventIndex {
	idx := &EventIndex{byName: make(map[string]model.Event, len(events))}
	for _, ev := range events {
		idx.add(ev.Name, ev)
		if ev.SubName != "" {
			idx.add(ev.Name+" - "+ev.SubName, ev)
			idx.add(ev.Name+"_"+ev.SubName, ev)
		}
	}
	return idx
}

func (idx *EventIndex) add(key string, ev model.Event) {
	if key == "" {
		return
	}
	if _, exists := idx.byName[key]; !exists {
		idx.byName[key] = ev
	}
}

// Len returns the number of lookup keys
func (idx *EventIndex) Len() int {
	return len(idx.byName)
}

// EventIDFor returns the event ID for the record, or NoEventID if none of the
// candidate keys match
func (idx *EventIndex) EventIDFor(rec model.VolunteerRecord) int {
	if idx == nil {
		return NoEventID
	}
	for _, key := range candidateKeys(rec) {
		if ev, ok := idx.byName[key]; ok {
			return ev.EventID
		}
	}
	return NoEventID
}

func candidateKeys(rec model.VolunteerRecord) []string {
	keys := []string{rec.EventName}
	if rec.EventSubName != "" {
		keys = append(keys,
			rec.EventName+" - "+rec.EventSubName,
			rec.EventName+"_"+rec.EventSubName,
		)
	}
	return keys
}

// EventYears lists the years whose events are fetched to build the index:
// yearsBack years before the current year through yearsAhead years after it
func EventYears(currentYear, yearsBack, yearsAhead int) []int {
	years := make([]int, 0, yearsBack+yearsAhead+1)
	for y := currentYear - yearsBack; y <= currentYear+yearsAhead; y++ {
		years = append(years, y)
	}
	return years
}
