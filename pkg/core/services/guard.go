package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-portal/pkg/core/achievements"
	"github.com/jakechorley/volunteer-portal/pkg/core/model"
	"github.com/jakechorley/volunteer-portal/pkg/db"
)

// ErrTransitionClaimed means the ledger refused the claim: the mutation was
// already applied or another process is applying it
var ErrTransitionClaimed = errors.New("update already applied or in progress elsewhere")

// Transition outcomes reported to the TransitionRecorder
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeInFlight = "in_flight"
	OutcomeClaimed  = "claimed"
	OutcomeFailed   = "failed"
)

// TransitionRecorder receives one call per attempted transition
type TransitionRecorder interface {
	ObserveTransition(kind, outcome string)
}

// Guard serialises owner-initiated mutations of a volunteer record: within a
// board through its in-flight set, across processes through the ledger.
// A zero Guard only uses the in-flight set.
type Guard struct {
	Ledger  db.TransitionLedger
	Metrics TransitionRecorder
}

// transition describes one guarded mutation
type transition struct {
	kind  db.TransitionKind
	value string
	// check is the eligibility gate, run while the record is held
	check func(rec model.VolunteerRecord, hasFeedback bool) error
	// send issues the remote request
	send func(ctx context.Context, rec model.VolunteerRecord) error
	// apply updates the board after send succeeded
	apply func(rec model.VolunteerRecord) error
}

func (g *Guard) run(ctx context.Context, board *achievements.Board, volunteerID int, t transition, logger *zap.Logger) error {
	logger = logger.With(zap.Int("volunteer_id", volunteerID), zap.String("kind", string(t.kind)))

	// Step 1: Hold the record so a second attempt fails fast without a request
	if err := board.BeginTransition(volunteerID); err != nil {
		if errors.Is(err, achievements.ErrTransitionInFlight) {
			g.observe(t.kind, OutcomeInFlight)
		}
		return err
	}
	defer board.EndTransition(volunteerID)

	// Step 2: Eligibility gate against the current record
	rec, ok := board.Record(volunteerID)
	if !ok {
		return achievements.ErrUnknownVolunteer
	}
	_, hasFeedback := board.Feedback(volunteerID)
	if err := t.check(rec, hasFeedback); err != nil {
		g.observe(t.kind, OutcomeRejected)
		return err
	}

	// Step 3: Claim in the ledger
	var claim *db.Transition
	if g != nil && g.Ledger != nil {
		var err error
		claim, err = g.Ledger.Claim(ctx, volunteerID, t.kind, t.value)
		if errors.Is(err, db.ErrAlreadyCompleted) || errors.Is(err, db.ErrClaimPending) {
			g.observe(t.kind, OutcomeClaimed)
			return fmt.Errorf("%w: %w", ErrTransitionClaimed, err)
		}
		if err != nil {
			g.observe(t.kind, OutcomeFailed)
			return fmt.Errorf("failed to claim transition: %w", err)
		}
	}

	// Step 4: Send; state only changes after success
	if err := t.send(ctx, rec); err != nil {
		g.observe(t.kind, OutcomeFailed)
		if claim != nil {
			if relErr := g.Ledger.Release(context.WithoutCancel(ctx), claim.ID); relErr != nil {
				logger.Warn("Failed to release transition claim", zap.Error(relErr))
			}
		}
		return err
	}

	// Step 5: The portal has accepted the change, so complete the claim before applying locally
	if claim != nil {
		if err := g.Ledger.Complete(context.WithoutCancel(ctx), claim.ID); err != nil {
			logger.Warn("Failed to complete transition claim", zap.Error(err))
		}
	}
	if err := t.apply(rec); err != nil {
		g.observe(t.kind, OutcomeFailed)
		return fmt.Errorf("failed to apply transition: %w", err)
	}

	g.observe(t.kind, OutcomeApplied)
	logger.Info("Transition applied", zap.String("value", t.value))
	return nil
}

func (g *Guard) observe(kind db.TransitionKind, outcome string) {
	if g != nil && g.Metrics != nil {
		g.Metrics.ObserveTransition(string(kind), outcome)
	}
}
