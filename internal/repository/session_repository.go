package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"focusd/internal/model"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Insert(ctx context.Context, session *model.Session) error {
	var endedAt interface{}
	if session.EndedAt != nil {
		endedAt = session.EndedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO sessions (
			id, started_at, ended_at,
			planned_work_seconds, planned_break_seconds,
			effective_work_seconds, effective_break_seconds,
			mode_name, outcome, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.StartedAt.UTC().Format(time.RFC3339Nano),
		endedAt,
		int(session.PlannedWork.Seconds()),
		int(session.PlannedBreak.Seconds()),
		int(session.EffectiveWork.Seconds()),
		int(session.EffectiveBreak.Seconds()),
		nullableString(session.ModeName),
		string(session.Outcome),
		session.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) List(ctx context.Context, limit int) ([]model.Session, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, started_at, ended_at,
		        planned_work_seconds, planned_break_seconds,
		        effective_work_seconds, effective_break_seconds,
		        mode_name, outcome, created_at
		 FROM sessions
		 ORDER BY started_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.Session, 0, limit)
	for rows.Next() {
		session, scanErr := scanSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(s scanner) (*model.Session, error) {
	session := model.Session{}
	var startedAt string
	var endedAt sql.NullString
	var plannedWork int
	var plannedBreak int
	var effectiveWork int
	var effectiveBreak int
	var modeName sql.NullString
	var outcome string
	var createdAt string

	err := s.Scan(
		&session.ID,
		&startedAt,
		&endedAt,
		&plannedWork,
		&plannedBreak,
		&effectiveWork,
		&effectiveBreak,
		&modeName,
		&outcome,
		&createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	parsedStartedAt, err := parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse session started_at: %w", err)
	}
	session.StartedAt = parsedStartedAt

	if endedAt.Valid {
		parsedEndedAt, parseErr := parseTime(endedAt.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse session ended_at: %w", parseErr)
		}
		session.EndedAt = &parsedEndedAt
	}

	session.PlannedWork = time.Duration(plannedWork) * time.Second
	session.PlannedBreak = time.Duration(plannedBreak) * time.Second
	session.EffectiveWork = time.Duration(effectiveWork) * time.Second
	session.EffectiveBreak = time.Duration(effectiveBreak) * time.Second

	if modeName.Valid {
		value := modeName.String
		session.ModeName = &value
	}
	session.Outcome = model.SessionOutcome(outcome)

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse session created_at: %w", err)
	}
	session.CreatedAt = parsedCreatedAt

	return &session, nil
}
