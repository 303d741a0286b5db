package model

import "time"

type TimerPhase string

const (
	PhaseWork  TimerPhase = "work"
	PhaseBreak TimerPhase = "break"
)

// TimerState is the restoration record the engine persists while a run is in
// flight. On cold start the elapsed wall-clock time since UpdatedAt is
// replayed against Remaining.
type TimerState struct {
	Phase        TimerPhase
	Total        time.Duration
	Remaining    time.Duration
	Running      bool
	Paused       bool
	PlannedWork  time.Duration
	PlannedBreak time.Duration
	ModeID       *string
	ModeName     *string
	StartedAt    time.Time
	UpdatedAt    time.Time
}
