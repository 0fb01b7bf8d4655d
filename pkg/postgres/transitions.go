package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/volunteer-portal/pkg/db"
)

// Claim inserts a pending transition, or takes over a stale pending one.
// The conflict clause makes the check and the write a single statement.
func (d *DB) Claim(ctx context.Context, volunteerID int, kind db.TransitionKind, value string) (*db.Transition, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid transition kind %q", kind)
	}

	now := d.clock.Now().UTC()
	staleBefore := now.Add(-d.staleAfter)
	id := uuid.NewString()

	var claimedID string
	err := d.pool.QueryRow(ctx, `
		INSERT INTO transition (id, volunteer_id, kind, value, state, claimed_at)
		VALUES ($1, $2, $3, $4, 'pending', $5)
		ON CONFLICT (volunteer_id, kind) DO UPDATE
			SET id = EXCLUDED.id, value = EXCLUDED.value, claimed_at = EXCLUDED.claimed_at
			WHERE transition.state = 'pending' AND transition.claimed_at < $6
		RETURNING id
	`, id, volunteerID, string(kind), value, now, staleBefore).Scan(&claimedID)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, d.claimConflict(ctx, volunteerID, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim transition: %w", err)
	}

	return &db.Transition{
		ID:          claimedID,
		VolunteerID: volunteerID,
		Kind:        kind,
		Value:       value,
		State:       db.StatePending,
		ClaimedAt:   now,
	}, nil
}

// claimConflict explains why a claim was refused
func (d *DB) claimConflict(ctx context.Context, volunteerID int, kind db.TransitionKind) error {
	var state string
	err := d.pool.QueryRow(ctx, `
		SELECT state FROM transition WHERE volunteer_id = $1 AND kind = $2
	`, volunteerID, string(kind)).Scan(&state)
	if err != nil {
		return fmt.Errorf("failed to read conflicting transition: %w", err)
	}
	if db.TransitionState(state) == db.StateCompleted {
		return db.ErrAlreadyCompleted
	}
	return db.ErrClaimPending
}

// Complete marks a pending claim as applied
func (d *DB) Complete(ctx context.Context, claimID string) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE transition SET state = 'completed', completed_at = $2
		WHERE id = $1 AND state = 'pending'
	`, claimID, d.clock.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to complete transition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrClaimNotFound
	}
	return nil
}

// Release drops a pending claim so the transition can be retried
func (d *DB) Release(ctx context.Context, claimID string) error {
	tag, err := d.pool.Exec(ctx, `
		DELETE FROM transition WHERE id = $1 AND state = 'pending'
	`, claimID)
	if err != nil {
		return fmt.Errorf("failed to release transition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return db.ErrClaimNotFound
	}
	return nil
}

// ListTransitions returns every claim recorded for a volunteer record
func (d *DB) ListTransitions(ctx context.Context, volunteerID int) ([]db.Transition, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, volunteer_id, kind, value, state, claimed_at, completed_at
		FROM transition
		WHERE volunteer_id = $1
		ORDER BY claimed_at
	`, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions: %w", err)
	}
	defer rows.Close()

	var transitions []db.Transition
	for rows.Next() {
		var t db.Transition
		var kind, state string
		if err := rows.Scan(&t.ID, &t.VolunteerID, &kind, &t.Value, &state, &t.ClaimedAt, &t.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		t.Kind = db.TransitionKind(kind)
		t.State = db.TransitionState(state)
		transitions = append(transitions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transitions: %w", err)
	}

	return transitions, nil
}
