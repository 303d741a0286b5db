package service

import (
	"context"
	"time"

	apperrors "focusd/internal/errors"
	"focusd/internal/model"
	"focusd/internal/repository"
)

// SessionService records finished timer runs and serves history. The minimum
// floor (configurable, default off) lifts the effective work duration of very
// short cancelled runs so they remain visible in history.
type SessionService struct {
	repo       *repository.SessionRepository
	minSession time.Duration
}

type SessionView struct {
	ID                    string     `json:"id"`
	StartedAt             time.Time  `json:"startedAt"`
	EndedAt               *time.Time `json:"endedAt,omitempty"`
	PlannedWorkSeconds    int        `json:"plannedWorkSeconds"`
	PlannedBreakSeconds   int        `json:"plannedBreakSeconds"`
	EffectiveWorkSeconds  int        `json:"effectiveWorkSeconds"`
	EffectiveBreakSeconds int        `json:"effectiveBreakSeconds"`
	ModeName              *string    `json:"modeName,omitempty"`
	Outcome               string     `json:"outcome"`
	CreatedAt             time.Time  `json:"createdAt"`
}

type StatsView struct {
	TotalSessions     int `json:"totalSessions"`
	CompletedSessions int `json:"completedSessions"`
	CancelledSessions int `json:"cancelledSessions"`
	TotalFocusSeconds int `json:"totalFocusSeconds"`
	TodayFocusSeconds int `json:"todayFocusSeconds"`
}

func NewSessionService(repo *repository.SessionRepository, minSession time.Duration) *SessionService {
	return &SessionService{repo: repo, minSession: minSession}
}

// Record clamps and persists one session. Effective durations never exceed
// planned ones; cancelled runs are lifted to the configured floor.
func (s *SessionService) Record(ctx context.Context, session *model.Session) error {
	session.EffectiveWork = clamp(session.EffectiveWork, session.PlannedWork)
	session.EffectiveBreak = clamp(session.EffectiveBreak, session.PlannedBreak)

	if session.Outcome == model.OutcomeCancelled && s.minSession > 0 {
		if session.EffectiveWork < s.minSession {
			session.EffectiveWork = clamp(s.minSession, session.PlannedWork)
		}
	}

	return s.repo.Insert(ctx, session)
}

func (s *SessionService) History(ctx context.Context, limit int) ([]SessionView, *apperrors.APIError) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	sessions, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to get history")
	}

	views := make([]SessionView, 0, len(sessions))
	for i := range sessions {
		views = append(views, toSessionView(&sessions[i]))
	}
	return views, nil
}

func (s *SessionService) Stats(ctx context.Context) (*StatsView, *apperrors.APIError) {
	sessions, err := s.repo.List(ctx, 200)
	if err != nil {
		return nil, apperrors.Internal("failed to get stats")
	}

	now := time.Now().UTC()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	stats := StatsView{}
	for i := range sessions {
		session := &sessions[i]
		stats.TotalSessions++
		switch session.Outcome {
		case model.OutcomeCompleted:
			stats.CompletedSessions++
		case model.OutcomeCancelled:
			stats.CancelledSessions++
		}

		focusSeconds := int(session.EffectiveWork.Seconds())
		stats.TotalFocusSeconds += focusSeconds
		if !session.StartedAt.Before(todayStart) {
			stats.TodayFocusSeconds += focusSeconds
		}
	}

	return &stats, nil
}

func clamp(value, limit time.Duration) time.Duration {
	if value < 0 {
		return 0
	}
	if value > limit {
		return limit
	}
	return value
}

func toSessionView(session *model.Session) SessionView {
	return SessionView{
		ID:                    session.ID,
		StartedAt:             session.StartedAt,
		EndedAt:               session.EndedAt,
		PlannedWorkSeconds:    int(session.PlannedWork.Seconds()),
		PlannedBreakSeconds:   int(session.PlannedBreak.Seconds()),
		EffectiveWorkSeconds:  int(session.EffectiveWork.Seconds()),
		EffectiveBreakSeconds: int(session.EffectiveBreak.Seconds()),
		ModeName:              session.ModeName,
		Outcome:               string(session.Outcome),
		CreatedAt:             session.CreatedAt,
	}
}
