package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
)

type ledgerKey struct {
	volunteerID int
	kind        TransitionKind
}

// MemoryLedger is a process-local TransitionLedger used when no database is configured
type MemoryLedger struct {
	clock      clock.Clock
	staleAfter time.Duration

	mu      sync.Mutex
	entries map[ledgerKey]*Transition
}

// NewMemoryLedger creates an empty ledger; a nil clock uses the wall clock
func NewMemoryLedger(clk clock.Clock, staleAfter time.Duration) *MemoryLedger {
	if clk == nil {
		clk = clock.WallClock
	}
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &MemoryLedger{
		clock:      clk,
		staleAfter: staleAfter,
		entries:    make(map[ledgerKey]*Transition),
	}
}

func (l *MemoryLedger) Claim(ctx context.Context, volunteerID int, kind TransitionKind, value string) (*Transition, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid transition kind %q", kind)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	key := ledgerKey{volunteerID, kind}

	if existing, ok := l.entries[key]; ok {
		if existing.State == StateCompleted {
			return nil, ErrAlreadyCompleted
		}
		if now.Sub(existing.ClaimedAt) < l.staleAfter {
			return nil, ErrClaimPending
		}
	}

	t := &Transition{
		ID:          uuid.NewString(),
		VolunteerID: volunteerID,
		Kind:        kind,
		Value:       value,
		State:       StatePending,
		ClaimedAt:   now,
	}
	l.entries[key] = t

	copied := *t
	return &copied, nil
}

func (l *MemoryLedger) Complete(ctx context.Context, claimID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.findPending(claimID)
	if t == nil {
		return ErrClaimNotFound
	}
	now := l.clock.Now()
	t.State = StateCompleted
	t.CompletedAt = &now
	return nil
}

func (l *MemoryLedger) Release(ctx context.Context, claimID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.findPending(claimID)
	if t == nil {
		return ErrClaimNotFound
	}
	delete(l.entries, ledgerKey{t.VolunteerID, t.Kind})
	return nil
}

func (l *MemoryLedger) ListTransitions(ctx context.Context, volunteerID int) ([]Transition, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var transitions []Transition
	for key, t := range l.entries {
		if key.volunteerID == volunteerID {
			transitions = append(transitions, *t)
		}
	}
	sort.Slice(transitions, func(i, j int) bool {
		return transitions[i].ClaimedAt.Before(transitions[j].ClaimedAt)
	})
	return transitions, nil
}

func (l *MemoryLedger) findPending(claimID string) *Transition {
	for _, t := range l.entries {
		if t.ID == claimID && t.State == StatePending {
			return t
		}
	}
	return nil
}
