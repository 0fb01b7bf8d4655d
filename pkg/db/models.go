package db

import "time"

// TransitionKind groups the owner-initiated mutations that may happen at most once per volunteer record
type TransitionKind string

const (
	// KindStatus covers both confirm and reject
	KindStatus   TransitionKind = "status"
	KindRating   TransitionKind = "rating"
	KindFeedback TransitionKind = "feedback"
)

func (k TransitionKind) IsValid() bool {
	switch k {
	case KindStatus, KindRating, KindFeedback:
		return true
	}
	return false
}

type TransitionState string

const (
	StatePending   TransitionState = "pending"
	StateCompleted TransitionState = "completed"
)

// Transition is one claim in the ledger
type Transition struct {
	ID          string
	VolunteerID int
	Kind        TransitionKind
	Value       string
	State       TransitionState
	ClaimedAt   time.Time
	CompletedAt *time.Time
}
