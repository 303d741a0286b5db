package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"focusd/internal/model"
)

// TimerStateRepository persists the engine's single-row restoration record.
type TimerStateRepository struct {
	db *sql.DB
}

func NewTimerStateRepository(db *sql.DB) *TimerStateRepository {
	return &TimerStateRepository{db: db}
}

func (r *TimerStateRepository) Save(ctx context.Context, state *model.TimerState) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT OR REPLACE INTO timer_state (
			id, phase, total_seconds, remaining_seconds, running, paused,
			planned_work_seconds, planned_break_seconds,
			mode_id, mode_name, started_at, updated_at
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(state.Phase),
		int(state.Total.Seconds()),
		int(state.Remaining.Seconds()),
		boolToInt(state.Running),
		boolToInt(state.Paused),
		int(state.PlannedWork.Seconds()),
		int(state.PlannedBreak.Seconds()),
		nullableString(state.ModeID),
		nullableString(state.ModeName),
		state.StartedAt.UTC().Format(time.RFC3339Nano),
		state.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save timer state: %w", err)
	}
	return nil
}

func (r *TimerStateRepository) Load(ctx context.Context) (*model.TimerState, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT phase, total_seconds, remaining_seconds, running, paused,
		        planned_work_seconds, planned_break_seconds,
		        mode_id, mode_name, started_at, updated_at
		 FROM timer_state WHERE id = 1`,
	)

	state := model.TimerState{}
	var phase string
	var totalSeconds int
	var remainingSeconds int
	var running int
	var paused int
	var plannedWork int
	var plannedBreak int
	var modeID sql.NullString
	var modeName sql.NullString
	var startedAt string
	var updatedAt string

	err := row.Scan(
		&phase,
		&totalSeconds,
		&remainingSeconds,
		&running,
		&paused,
		&plannedWork,
		&plannedBreak,
		&modeID,
		&modeName,
		&startedAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load timer state: %w", err)
	}

	state.Phase = model.TimerPhase(phase)
	state.Total = time.Duration(totalSeconds) * time.Second
	state.Remaining = time.Duration(remainingSeconds) * time.Second
	state.Running = running != 0
	state.Paused = paused != 0
	state.PlannedWork = time.Duration(plannedWork) * time.Second
	state.PlannedBreak = time.Duration(plannedBreak) * time.Second

	if modeID.Valid {
		value := modeID.String
		state.ModeID = &value
	}
	if modeName.Valid {
		value := modeName.String
		state.ModeName = &value
	}

	parsedStartedAt, err := parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse timer state started_at: %w", err)
	}
	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse timer state updated_at: %w", err)
	}
	state.StartedAt = parsedStartedAt
	state.UpdatedAt = parsedUpdatedAt

	return &state, nil
}

func (r *TimerStateRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM timer_state WHERE id = 1`); err != nil {
		return fmt.Errorf("clear timer state: %w", err)
	}
	return nil
}
