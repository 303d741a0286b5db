package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"focusd/internal/model"
	"focusd/internal/repository"
	"focusd/internal/service"
)

func newSessionService(t *testing.T, minSession time.Duration) *service.SessionService {
	t.Helper()
	return service.NewSessionService(repository.NewSessionRepository(newTestDB(t)), minSession)
}

func newSession(startedAt time.Time, outcome model.SessionOutcome, effectiveWork, effectiveBreak time.Duration) *model.Session {
	endedAt := startedAt.Add(30 * time.Minute)
	return &model.Session{
		ID:             uuid.NewString(),
		StartedAt:      startedAt,
		EndedAt:        &endedAt,
		PlannedWork:    1500 * time.Second,
		PlannedBreak:   300 * time.Second,
		EffectiveWork:  effectiveWork,
		EffectiveBreak: effectiveBreak,
		Outcome:        outcome,
		CreatedAt:      startedAt,
	}
}

func TestRecordClampsEffectiveDurations(t *testing.T) {
	sessions := newSessionService(t, 0)
	ctx := context.Background()

	session := newSession(time.Now().UTC(), model.OutcomeCompleted, 9999*time.Second, -5*time.Second)
	require.NoError(t, sessions.Record(ctx, session))

	history, apiErr := sessions.History(ctx, 10)
	require.Nil(t, apiErr)
	require.Len(t, history, 1)
	require.Equal(t, 1500, history[0].EffectiveWorkSeconds)
	require.Equal(t, 0, history[0].EffectiveBreakSeconds)
}

func TestRecordLiftsShortCancelledRunsToFloor(t *testing.T) {
	sessions := newSessionService(t, 60*time.Second)
	ctx := context.Background()

	cancelled := newSession(time.Now().UTC(), model.OutcomeCancelled, 10*time.Second, 0)
	require.NoError(t, sessions.Record(ctx, cancelled))

	history, apiErr := sessions.History(ctx, 10)
	require.Nil(t, apiErr)
	require.Len(t, history, 1)
	require.Equal(t, 60, history[0].EffectiveWorkSeconds)
}

func TestFloorDoesNotApplyToCompletedRuns(t *testing.T) {
	sessions := newSessionService(t, 60*time.Second)
	ctx := context.Background()

	completed := newSession(time.Now().UTC(), model.OutcomeCompleted, 10*time.Second, 0)
	require.NoError(t, sessions.Record(ctx, completed))

	history, apiErr := sessions.History(ctx, 10)
	require.Nil(t, apiErr)
	require.Equal(t, 10, history[0].EffectiveWorkSeconds)
}

func TestHistoryOrdersNewestFirst(t *testing.T) {
	sessions := newSessionService(t, 0)
	ctx := context.Background()

	now := time.Now().UTC()
	older := newSession(now.Add(-2*time.Hour), model.OutcomeCompleted, 1500*time.Second, 300*time.Second)
	newer := newSession(now, model.OutcomeCancelled, 100*time.Second, 0)
	require.NoError(t, sessions.Record(ctx, older))
	require.NoError(t, sessions.Record(ctx, newer))

	history, apiErr := sessions.History(ctx, 10)
	require.Nil(t, apiErr)
	require.Len(t, history, 2)
	require.Equal(t, string(model.OutcomeCancelled), history[0].Outcome)
	require.Equal(t, string(model.OutcomeCompleted), history[1].Outcome)
}

func TestStatsAggregateFocusTime(t *testing.T) {
	sessions := newSessionService(t, 0)
	ctx := context.Background()

	now := time.Now().UTC()
	today := newSession(now, model.OutcomeCompleted, 1500*time.Second, 300*time.Second)
	pastCancelled := newSession(now.Add(-48*time.Hour), model.OutcomeCancelled, 300*time.Second, 0)
	require.NoError(t, sessions.Record(ctx, today))
	require.NoError(t, sessions.Record(ctx, pastCancelled))

	stats, apiErr := sessions.Stats(ctx)
	require.Nil(t, apiErr)
	require.Equal(t, 2, stats.TotalSessions)
	require.Equal(t, 1, stats.CompletedSessions)
	require.Equal(t, 1, stats.CancelledSessions)
	require.Equal(t, 1800, stats.TotalFocusSeconds)
	require.Equal(t, 1500, stats.TodayFocusSeconds)
}
