package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"focusd/internal/model"
)

type ModeRepository struct {
	db *sql.DB
}

func NewModeRepository(db *sql.DB) *ModeRepository {
	return &ModeRepository{db: db}
}

func (r *ModeRepository) Insert(ctx context.Context, mode *model.FocusMode) error {
	blockedApps, err := encodeBlockedApps(mode.BlockedApps)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(
		ctx,
		`INSERT INTO focus_modes (
			id, name, work_duration_seconds, break_duration_seconds,
			description, blocked_apps, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		mode.ID,
		mode.Name,
		int(mode.WorkDuration.Seconds()),
		int(mode.BreakDuration.Seconds()),
		nullableString(mode.Description),
		blockedApps,
		mode.CreatedAt.UTC().Format(time.RFC3339Nano),
		mode.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert mode: %w", err)
	}
	return nil
}

func (r *ModeRepository) Update(ctx context.Context, mode *model.FocusMode) error {
	blockedApps, err := encodeBlockedApps(mode.BlockedApps)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(
		ctx,
		`UPDATE focus_modes
		 SET name = ?,
		     work_duration_seconds = ?,
		     break_duration_seconds = ?,
		     description = ?,
		     blocked_apps = ?,
		     updated_at = ?
		 WHERE id = ?`,
		mode.Name,
		int(mode.WorkDuration.Seconds()),
		int(mode.BreakDuration.Seconds()),
		nullableString(mode.Description),
		blockedApps,
		mode.UpdatedAt.UTC().Format(time.RFC3339Nano),
		mode.ID,
	)
	if err != nil {
		return fmt.Errorf("update mode: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update mode rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ModeRepository) GetByID(ctx context.Context, id string) (*model.FocusMode, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, name, work_duration_seconds, break_duration_seconds,
		        description, blocked_apps, created_at, updated_at
		 FROM focus_modes WHERE id = ?`,
		id,
	)
	return scanFocusMode(row)
}

func (r *ModeRepository) List(ctx context.Context) ([]model.FocusMode, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, name, work_duration_seconds, break_duration_seconds,
		        description, blocked_apps, created_at, updated_at
		 FROM focus_modes
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list modes: %w", err)
	}
	defer rows.Close()

	modes := make([]model.FocusMode, 0)
	for rows.Next() {
		mode, scanErr := scanFocusMode(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		modes = append(modes, *mode)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate modes: %w", err)
	}

	return modes, nil
}

// SetActive writes the single-row active-mode state. The row is seeded by the
// initial migration, so an update always hits it.
func (r *ModeRepository) SetActive(ctx context.Context, active bool, modeID *string) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE active_mode SET is_active = ?, mode_id = ? WHERE id = 1`,
		boolToInt(active),
		nullableString(modeID),
	)
	if err != nil {
		return fmt.Errorf("set active mode: %w", err)
	}
	return nil
}

func (r *ModeRepository) GetActive(ctx context.Context) (model.ActiveModeState, error) {
	row := r.db.QueryRowContext(ctx, `SELECT is_active, mode_id FROM active_mode WHERE id = 1`)

	var isActive int
	var modeID sql.NullString
	if err := row.Scan(&isActive, &modeID); err != nil {
		if err == sql.ErrNoRows {
			return model.ActiveModeState{}, nil
		}
		return model.ActiveModeState{}, fmt.Errorf("get active mode: %w", err)
	}

	state := model.ActiveModeState{Active: isActive != 0}
	if modeID.Valid {
		value := modeID.String
		state.ModeID = &value
	}
	return state, nil
}

func scanFocusMode(s scanner) (*model.FocusMode, error) {
	mode := model.FocusMode{}
	var workSeconds int
	var breakSeconds int
	var description sql.NullString
	var blockedApps string
	var createdAt string
	var updatedAt string

	err := s.Scan(
		&mode.ID,
		&mode.Name,
		&workSeconds,
		&breakSeconds,
		&description,
		&blockedApps,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan mode: %w", err)
	}

	mode.WorkDuration = time.Duration(workSeconds) * time.Second
	mode.BreakDuration = time.Duration(breakSeconds) * time.Second
	if description.Valid {
		value := description.String
		mode.Description = &value
	}

	if err := json.Unmarshal([]byte(blockedApps), &mode.BlockedApps); err != nil {
		return nil, fmt.Errorf("decode blocked apps: %w", err)
	}

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse mode created_at: %w", err)
	}
	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse mode updated_at: %w", err)
	}
	mode.CreatedAt = parsedCreatedAt
	mode.UpdatedAt = parsedUpdatedAt

	return &mode, nil
}

func encodeBlockedApps(apps []string) (string, error) {
	if apps == nil {
		apps = []string{}
	}
	raw, err := json.Marshal(apps)
	if err != nil {
		return "", fmt.Errorf("encode blocked apps: %w", err)
	}
	return string(raw), nil
}

func nullableString(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
