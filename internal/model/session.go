package model

import "time"

type SessionOutcome string

const (
	OutcomeCompleted SessionOutcome = "completed"
	OutcomeCancelled SessionOutcome = "cancelled"
)

// Session is the immutable record of one timer run. ModeName is a free-text
// snapshot rather than a foreign key so history stays accurate if the mode is
// later renamed.
type Session struct {
	ID             string         `json:"id"`
	StartedAt      time.Time      `json:"startedAt"`
	EndedAt        *time.Time     `json:"endedAt,omitempty"`
	PlannedWork    time.Duration  `json:"-"`
	PlannedBreak   time.Duration  `json:"-"`
	EffectiveWork  time.Duration  `json:"-"`
	EffectiveBreak time.Duration  `json:"-"`
	ModeName       *string        `json:"modeName,omitempty"`
	Outcome        SessionOutcome `json:"outcome"`
	CreatedAt      time.Time      `json:"createdAt"`
}
