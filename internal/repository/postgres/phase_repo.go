package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/freeeve/campaign-trail/internal/model"
)

const phaseColumns = `id, game_id, turn, phase_number, state_before, state_after, deadline, resolved_at, created_at`

// PhaseRepo handles phase snapshots and the action log.
type PhaseRepo struct {
	db *sql.DB
}

// NewPhaseRepo creates a PhaseRepo.
func NewPhaseRepo(db *sql.DB) *PhaseRepo {
	return &PhaseRepo{db: db}
}

func scanPhase(s scanner) (*model.Phase, error) {
	var p model.Phase
	var stateBefore []byte
	var stateAfter sql.NullString
	if err := s.Scan(&p.ID, &p.GameID, &p.Turn, &p.PhaseNumber, &stateBefore, &stateAfter,
		&p.Deadline, &p.ResolvedAt, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.StateBefore = json.RawMessage(stateBefore)
	if stateAfter.Valid {
		p.StateAfter = json.RawMessage(stateAfter.String)
	}
	return &p, nil
}

// CreatePhase inserts a new unresolved phase.
func (r *PhaseRepo) CreatePhase(ctx context.Context, gameID string, turn, phaseNumber int, stateBefore json.RawMessage, deadline time.Time) (*model.Phase, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO phases (game_id, turn, phase_number, state_before, deadline)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+phaseColumns,
		gameID, turn, phaseNumber, []byte(stateBefore), deadline,
	)
	p, err := scanPhase(row)
	if err != nil {
		return nil, fmt.Errorf("create phase: %w", err)
	}
	return p, nil
}

// CurrentPhase returns the latest unresolved phase for a game, or nil.
func (r *PhaseRepo) CurrentPhase(ctx context.Context, gameID string) (*model.Phase, error) {
	p, err := scanPhase(r.db.QueryRowContext(ctx,
		`SELECT `+phaseColumns+` FROM phases
		 WHERE game_id = $1 AND resolved_at IS NULL
		 ORDER BY created_at DESC LIMIT 1`, gameID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current phase: %w", err)
	}
	return p, nil
}

// ListPhases returns all phases for a game in play order.
func (r *PhaseRepo) ListPhases(ctx context.Context, gameID string) ([]model.Phase, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+phaseColumns+` FROM phases WHERE game_id = $1
		 ORDER BY turn, phase_number, created_at`, gameID)
	if err != nil {
		return nil, fmt.Errorf("list phases: %w", err)
	}
	defer rows.Close()

	var phases []model.Phase
	for rows.Next() {
		p, err := scanPhase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan phase: %w", err)
		}
		phases = append(phases, *p)
	}
	return phases, rows.Err()
}

// ResolvePhase stores the final state of a phase and marks it resolved.
func (r *PhaseRepo) ResolvePhase(ctx context.Context, phaseID string, stateAfter json.RawMessage) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE phases SET state_after = $1, resolved_at = now() WHERE id = $2`,
		[]byte(stateAfter), phaseID,
	)
	if err != nil {
		return fmt.Errorf("resolve phase: %w", err)
	}
	return nil
}

// SaveAction appends an accepted action to the phase log.
func (r *PhaseRepo) SaveAction(ctx context.Context, a model.Action) error {
	var payload any
	if len(a.Payload) > 0 {
		payload = []byte(a.Payload)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO actions (phase_id, user_id, color, kind, payload) VALUES ($1, $2, $3, $4, $5)`,
		a.PhaseID, a.UserID, a.Color, a.Kind, payload)
	if err != nil {
		return fmt.Errorf("save action: %w", err)
	}
	return nil
}

// ActionsByPhase returns the action log of a phase in submission order.
func (r *PhaseRepo) ActionsByPhase(ctx context.Context, phaseID string) ([]model.Action, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, phase_id, user_id, color, kind, payload, created_at
		 FROM actions WHERE phase_id = $1 ORDER BY created_at`, phaseID)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var actions []model.Action
	for rows.Next() {
		var a model.Action
		var payload []byte
		if err := rows.Scan(&a.ID, &a.PhaseID, &a.UserID, &a.Color, &a.Kind, &payload, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		if payload != nil {
			a.Payload = json.RawMessage(payload)
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// ListExpired returns the latest unresolved phase per active game whose
// deadline has passed.
func (r *PhaseRepo) ListExpired(ctx context.Context) ([]model.Phase, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT ON (p.game_id) p.id, p.game_id, p.turn, p.phase_number, p.state_before,
		        p.state_after, p.deadline, p.resolved_at, p.created_at
		 FROM phases p
		 JOIN games g ON g.id = p.game_id
		 WHERE p.resolved_at IS NULL AND p.deadline < now() AND g.status = 'active'
		 ORDER BY p.game_id, p.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list expired phases: %w", err)
	}
	defer rows.Close()

	var phases []model.Phase
	for rows.Next() {
		p, err := scanPhase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expired phase: %w", err)
		}
		phases = append(phases, *p)
	}
	return phases, rows.Err()
}
