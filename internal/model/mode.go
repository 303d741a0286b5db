package model

import "time"

const (
	DefaultWorkDuration  = 25 * time.Minute
	DefaultBreakDuration = 5 * time.Minute
)

// FocusMode is a named work/break configuration with the set of application
// identifiers to block while the mode is active.
type FocusMode struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	WorkDuration  time.Duration `json:"-"`
	BreakDuration time.Duration `json:"-"`
	Description   *string       `json:"description,omitempty"`
	BlockedApps   []string      `json:"blockedApps"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// ActiveModeState is the single persisted flag both the timer engine and the
// blocking detector observe. If Active is true, ModeID must resolve to an
// existing FocusMode; a dangling reference is treated as inactive.
type ActiveModeState struct {
	Active bool    `json:"active"`
	ModeID *string `json:"modeId,omitempty"`
}
