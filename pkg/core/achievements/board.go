package achievements

import (
	"sync"
	"time"

	"github.com/juju/collections/set"

	"github.com/jakechorley/volunteer-portal/pkg/core/model"
)

// Board is the in-memory state of one employee's volunteer records.
// Records are stored once, keyed by volunteer ID; buckets are derived on demand.
// A Board is safe for concurrent use.
type Board struct {
	mu       sync.RWMutex
	records  map[int]*model.VolunteerRecord
	order    []int
	feedback map[int]model.FeedbackRecord
	inFlight set.Ints
}

// NewBoard builds a board from fetched records, dropping repeated volunteer IDs
func NewBoard(records []model.VolunteerRecord) *Board {
	deduped := Dedupe(records)

	b := &Board{
		records:  make(map[int]*model.VolunteerRecord, len(deduped)),
		order:    make([]int, 0, len(deduped)),
		feedback: make(map[int]model.FeedbackRecord),
		inFlight: set.NewInts(),
	}
	for i := range deduped {
		rec := deduped[i]
		b.records[rec.VolunteerID] = &rec
		b.order = append(b.order, rec.VolunteerID)
	}
	return b
}

// Len returns the number of distinct records
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}

// Record returns a copy of the record with the given volunteer ID
func (b *Board) Record(volunteerID int) (model.VolunteerRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.records[volunteerID]
	if !ok {
		return model.VolunteerRecord{}, false
	}
	return *rec, true
}

// Records returns copies of all records in source order
func (b *Board) Records() []model.VolunteerRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]model.VolunteerRecord, 0, len(b.order))
	for _, id := range b.order {
		result = append(result, *b.records[id])
	}
	return result
}

// Buckets partitions the current records as of now
func (b *Board) Buckets(now time.Time) Buckets {
	return Categorize(b.Records(), now)
}

// Feedback returns the feedback recorded for a volunteer record, if any
func (b *Board) Feedback(volunteerID int) (model.FeedbackRecord, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	fb, ok := b.feedback[volunteerID]
	return fb, ok
}

// SetFeedback records feedback for a volunteer record. Once set the record is read-only for rating and feedback.
func (b *Board) SetFeedback(fb model.FeedbackRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.records[fb.VolunteerID]; !ok {
		return ErrUnknownVolunteer
	}
	b.feedback[fb.VolunteerID] = fb
	return nil
}

// BeginTransition marks a volunteer record as having a mutation in flight.
// It fails with ErrTransitionInFlight if one is already outstanding.
func (b *Board) BeginTransition(volunteerID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.records[volunteerID]; !ok {
		return ErrUnknownVolunteer
	}
	if b.inFlight.Contains(volunteerID) {
		return ErrTransitionInFlight
	}
	b.inFlight.Add(volunteerID)
	return nil
}

// EndTransition clears the in-flight mark set by BeginTransition
func (b *Board) EndTransition(volunteerID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inFlight.Remove(volunteerID)
}

// InFlight reports whether a mutation is outstanding for the record
func (b *Board) InFlight(volunteerID int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.inFlight.Contains(volunteerID)
}

// HasInFlight reports whether any record has a mutation outstanding
func (b *Board) HasInFlight() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return !b.inFlight.IsEmpty()
}

// ApplyStatus replaces the status of a record after a successful update
func (b *Board) ApplyStatus(volunteerID int, status model.Status) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.records[volunteerID]
	if !ok {
		return ErrUnknownVolunteer
	}
	rec.Status = status
	return nil
}

// ApplyRating sets the rating of a record after a successful update
func (b *Board) ApplyRating(volunteerID int, rating int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.records[volunteerID]
	if !ok {
		return ErrUnknownVolunteer
	}
	rec.Rating = rating
	return nil
}

// Eligibility derives the action flags for a record from the board's current state
func (b *Board) Eligibility(volunteerID int) (Eligibility, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.records[volunteerID]
	if !ok {
		return Eligibility{}, ErrUnknownVolunteer
	}
	_, hasFeedback := b.feedback[volunteerID]
	return EligibilityFor(*rec, b.inFlight.Contains(volunteerID), hasFeedback), nil
}
