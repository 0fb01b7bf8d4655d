package db

import (
	"context"
	"errors"
	"time"
)

// DefaultStaleAfter is how long a pending claim blocks others before it may be taken over
const DefaultStaleAfter = 2 * time.Minute

var (
	// ErrAlreadyCompleted means the transition kind has already been applied for the volunteer
	ErrAlreadyCompleted = errors.New("transition already completed")
	// ErrClaimPending means another process holds a fresh claim
	ErrClaimPending = errors.New("transition claimed by another request")
	// ErrClaimNotFound means the claim was released, completed or taken over
	ErrClaimNotFound = errors.New("transition claim not found")
)

// TransitionLedger is a compare-and-swap record of owner-initiated mutations.
// Claim succeeds for at most one caller per (volunteer, kind) until the claim
// is released or goes stale; a completed claim blocks that kind for good.
// Both the in-memory MemoryLedger and postgres.DB implement this interface.
type TransitionLedger interface {
	Claim(ctx context.Context, volunteerID int, kind TransitionKind, value string) (*Transition, error)
	Complete(ctx context.Context, claimID string) error
	Release(ctx context.Context, claimID string) error
	ListTransitions(ctx context.Context, volunteerID int) ([]Transition, error)
}
