package timer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"focusd/internal/model"
	"focusd/internal/repository"
)

type sessionLog struct {
	mu       sync.Mutex
	sessions []model.Session
}

func (l *sessionLog) Record(_ context.Context, session *model.Session) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sessions = append(l.sessions, *session)
	return nil
}

func (l *sessionLog) all() []model.Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Session, len(l.sessions))
	copy(out, l.sessions)
	return out
}

type signalCall struct {
	active bool
	modeID *string
}

type signalLog struct {
	mu    sync.Mutex
	calls []signalCall
}

func (l *signalLog) SetActive(_ context.Context, active bool, modeID *string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, signalCall{active: active, modeID: modeID})
	return nil
}

func (l *signalLog) all() []signalCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]signalCall, len(l.calls))
	copy(out, l.calls)
	return out
}

type stateStub struct {
	mu      sync.Mutex
	saved   *model.TimerState
	load    *model.TimerState
	cleared int
}

func (s *stateStub) Save(_ context.Context, state *model.TimerState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *state
	s.saved = &copied
	return nil
}

func (s *stateStub) Load(_ context.Context) (*model.TimerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.load == nil {
		return nil, repository.ErrNotFound
	}
	copied := *s.load
	return &copied, nil
}

func (s *stateStub) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
	s.saved = nil
	return nil
}

func (s *stateStub) clearCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleared
}

func (s *stateStub) lastSaved() *model.TimerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		return nil
	}
	copied := *s.saved
	return &copied
}

type fixture struct {
	engine   *Engine
	sessions *sessionLog
	signal   *signalLog
	states   *stateStub
}

func newFixture(tick time.Duration) fixture {
	sessions := &sessionLog{}
	signal := &signalLog{}
	states := &stateStub{}
	return fixture{
		engine:   New(sessions, signal, states, Config{TickInterval: tick}),
		sessions: sessions,
		signal:   signal,
		states:   states,
	}
}

// primeRun puts the engine mid-run without a tick goroutine, so cancellation
// accounting can be asserted against exact remaining values.
func primeRun(e *Engine, phase model.TimerPhase, work, brk, remaining time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.phase = phase
	e.plannedWork = work
	e.plannedBreak = brk
	if phase == model.PhaseWork {
		e.total = work
	} else {
		e.total = brk
	}
	e.remaining = remaining
	e.running = true
	e.paused = false
	e.finished = false
	e.startedAt = time.Now().UTC()
	e.sessionOpen = true
}

func TestStartRejectsNonPositiveDurations(t *testing.T) {
	f := newFixture(time.Hour)
	ctx := context.Background()

	err := f.engine.Start(ctx, StartParams{Work: 0, Break: 5 * time.Minute})
	require.ErrorIs(t, err, ErrInvalidDuration)

	err = f.engine.Start(ctx, StartParams{Work: 25 * time.Minute, Break: -time.Second})
	require.ErrorIs(t, err, ErrInvalidDuration)

	require.Empty(t, f.sessions.all())
}

func TestNaturalCompletionRecordsFullCredit(t *testing.T) {
	f := newFixture(5 * time.Millisecond)
	ctx := context.Background()

	work := 20 * time.Millisecond
	brk := 10 * time.Millisecond
	require.NoError(t, f.engine.Start(ctx, StartParams{Work: work, Break: brk}))

	require.Eventually(t, func() bool {
		return len(f.sessions.all()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	session := f.sessions.all()[0]
	require.Equal(t, model.OutcomeCompleted, session.Outcome)
	require.Equal(t, work, session.PlannedWork)
	require.Equal(t, brk, session.PlannedBreak)
	require.Equal(t, work, session.EffectiveWork)
	require.Equal(t, brk, session.EffectiveBreak)
	require.NotNil(t, session.EndedAt)

	snap := f.engine.Snapshot()
	require.False(t, snap.Running)
	require.True(t, snap.Finished)
	require.Eventually(t, func() bool {
		return f.states.clearCount() > 0
	}, time.Second, 5*time.Millisecond)
}

func TestStopDuringWorkCountsElapsedWorkOnly(t *testing.T) {
	f := newFixture(time.Hour)
	ctx := context.Background()

	primeRun(f.engine, model.PhaseWork, 1500*time.Second, 300*time.Second, 200*time.Second)
	f.engine.Stop(ctx)

	sessions := f.sessions.all()
	require.Len(t, sessions, 1)
	require.Equal(t, model.OutcomeCancelled, sessions[0].Outcome)
	require.Equal(t, 1300*time.Second, sessions[0].EffectiveWork)
	require.Equal(t, time.Duration(0), sessions[0].EffectiveBreak)

	snap := f.engine.Snapshot()
	require.False(t, snap.Running)
	require.False(t, snap.Finished)
}

func TestStopDuringBreakCreditsFullWork(t *testing.T) {
	f := newFixture(time.Hour)
	ctx := context.Background()

	primeRun(f.engine, model.PhaseBreak, 1500*time.Second, 300*time.Second, 250*time.Second)
	f.engine.Stop(ctx)

	sessions := f.sessions.all()
	require.Len(t, sessions, 1)
	require.Equal(t, model.OutcomeCancelled, sessions[0].Outcome)
	require.Equal(t, 1500*time.Second, sessions[0].EffectiveWork)
	require.Equal(t, 50*time.Second, sessions[0].EffectiveBreak)
}

func TestTickFlipsWorkToBreakWithoutRecording(t *testing.T) {
	f := newFixture(time.Second)

	primeRun(f.engine, model.PhaseWork, 1500*time.Second, 300*time.Second, time.Second)
	finished := f.engine.tick()
	require.False(t, finished)

	snap := f.engine.Snapshot()
	require.True(t, snap.Running)
	require.False(t, snap.Working)
	require.Equal(t, 300*time.Second, snap.Remaining)
	require.Empty(t, f.sessions.all())
}

func TestTickOnBreakExhaustionCompletesRun(t *testing.T) {
	f := newFixture(time.Second)

	primeRun(f.engine, model.PhaseBreak, 1500*time.Second, 300*time.Second, time.Second)
	finished := f.engine.tick()
	require.True(t, finished)

	sessions := f.sessions.all()
	require.Len(t, sessions, 1)
	require.Equal(t, model.OutcomeCompleted, sessions[0].Outcome)
	require.Equal(t, 1500*time.Second, sessions[0].EffectiveWork)
	require.Equal(t, 300*time.Second, sessions[0].EffectiveBreak)
	require.True(t, f.engine.Snapshot().Finished)
}

func TestStartWhileRunningCancelsPreviousRun(t *testing.T) {
	f := newFixture(time.Hour)
	ctx := context.Background()

	require.NoError(t, f.engine.Start(ctx, StartParams{Work: 1500 * time.Second, Break: 300 * time.Second}))
	require.NoError(t, f.engine.Start(ctx, StartParams{Work: 600 * time.Second, Break: 120 * time.Second}))

	sessions := f.sessions.all()
	require.Len(t, sessions, 1)
	require.Equal(t, model.OutcomeCancelled, sessions[0].Outcome)
	require.Equal(t, 1500*time.Second, sessions[0].PlannedWork)

	snap := f.engine.Snapshot()
	require.True(t, snap.Running)
	require.Equal(t, 600*time.Second, snap.Remaining)

	f.engine.Stop(ctx)
	require.Len(t, f.sessions.all(), 2)
}

func TestPauseResume(t *testing.T) {
	f := newFixture(time.Hour)
	ctx := context.Background()

	require.NoError(t, f.engine.Start(ctx, StartParams{Work: 1500 * time.Second, Break: 300 * time.Second}))

	f.engine.PauseResume(ctx)
	snap := f.engine.Snapshot()
	require.False(t, snap.Running)
	require.True(t, snap.Paused)

	saved := f.states.lastSaved()
	require.NotNil(t, saved)
	require.True(t, saved.Paused)

	f.engine.PauseResume(ctx)
	snap = f.engine.Snapshot()
	require.True(t, snap.Running)
	require.False(t, snap.Paused)

	f.engine.Stop(ctx)
}

func TestPauseResumeIgnoredWhenIdle(t *testing.T) {
	f := newFixture(time.Hour)

	f.engine.PauseResume(context.Background())
	snap := f.engine.Snapshot()
	require.False(t, snap.Running)
	require.False(t, snap.Paused)
	require.Nil(t, f.states.lastSaved())
}

func TestResetRestartsWithSameParameters(t *testing.T) {
	f := newFixture(time.Hour)
	ctx := context.Background()

	modeID := "mode-1"
	modeName := "Deep Work"
	require.NoError(t, f.engine.Start(ctx, StartParams{
		Work:     1500 * time.Second,
		Break:    300 * time.Second,
		ModeID:   &modeID,
		ModeName: &modeName,
	}))

	require.NoError(t, f.engine.Reset(ctx))

	sessions := f.sessions.all()
	require.Len(t, sessions, 1)
	require.Equal(t, model.OutcomeCancelled, sessions[0].Outcome)
	require.NotNil(t, sessions[0].ModeName)
	require.Equal(t, modeName, *sessions[0].ModeName)

	snap := f.engine.Snapshot()
	require.True(t, snap.Running)
	require.True(t, snap.Working)
	require.Equal(t, 1500*time.Second, snap.Remaining)

	f.engine.Stop(ctx)
}

func TestResetWithoutRunIsNoop(t *testing.T) {
	f := newFixture(time.Hour)

	require.NoError(t, f.engine.Reset(context.Background()))
	require.Empty(t, f.sessions.all())
	require.False(t, f.engine.Snapshot().Running)
}

func TestRunWithModeTogglesActiveSignal(t *testing.T) {
	f := newFixture(time.Hour)
	ctx := context.Background()

	modeID := "mode-1"
	modeName := "Deep Work"
	require.NoError(t, f.engine.Start(ctx, StartParams{
		Work:     1500 * time.Second,
		Break:    300 * time.Second,
		ModeID:   &modeID,
		ModeName: &modeName,
	}))

	calls := f.signal.all()
	require.Len(t, calls, 1)
	require.True(t, calls[0].active)
	require.NotNil(t, calls[0].modeID)
	require.Equal(t, modeID, *calls[0].modeID)

	f.engine.Stop(ctx)

	calls = f.signal.all()
	require.Len(t, calls, 2)
	require.False(t, calls[1].active)
	require.Nil(t, calls[1].modeID)
}

func TestStopIsIdempotent(t *testing.T) {
	f := newFixture(time.Hour)
	ctx := context.Background()

	require.NoError(t, f.engine.Start(ctx, StartParams{Work: 1500 * time.Second, Break: 300 * time.Second}))
	f.engine.Stop(ctx)
	f.engine.Stop(ctx)

	require.Len(t, f.sessions.all(), 1)
}

func TestShutdownCancelsRunAndClearsSignal(t *testing.T) {
	f := newFixture(time.Hour)
	ctx := context.Background()

	sub := f.engine.Subscribe(8)
	require.NoError(t, f.engine.Start(ctx, StartParams{Work: 1500 * time.Second, Break: 300 * time.Second}))

	f.engine.Shutdown(ctx)

	sessions := f.sessions.all()
	require.Len(t, sessions, 1)
	require.Equal(t, model.OutcomeCancelled, sessions[0].Outcome)

	calls := f.signal.all()
	require.NotEmpty(t, calls)
	last := calls[len(calls)-1]
	require.False(t, last.active)
	require.Nil(t, last.modeID)

	// Observer channels are closed on shutdown.
	for {
		_, ok := <-sub
		if !ok {
			break
		}
	}
}

func TestRestoreResumesPausedRun(t *testing.T) {
	f := newFixture(time.Hour)
	ctx := context.Background()

	now := time.Now().UTC()
	f.states.load = &model.TimerState{
		Phase:        model.PhaseWork,
		Total:        1500 * time.Second,
		Remaining:    600 * time.Second,
		Running:      false,
		Paused:       true,
		PlannedWork:  1500 * time.Second,
		PlannedBreak: 300 * time.Second,
		StartedAt:    now.Add(-15 * time.Minute),
		UpdatedAt:    now.Add(-time.Minute),
	}

	f.engine.Restore(ctx)

	snap := f.engine.Snapshot()
	require.True(t, snap.Paused)
	require.False(t, snap.Running)
	require.Equal(t, 600*time.Second, snap.Remaining)

	f.engine.Stop(ctx)
	sessions := f.sessions.all()
	require.Len(t, sessions, 1)
	require.Equal(t, model.OutcomeCancelled, sessions[0].Outcome)
	require.Equal(t, 900*time.Second, sessions[0].EffectiveWork)
}

func TestRestoreSpillsElapsedWorkIntoBreak(t *testing.T) {
	f := newFixture(time.Second)
	ctx := context.Background()

	now := time.Now().UTC()
	f.states.load = &model.TimerState{
		Phase:        model.PhaseWork,
		Total:        1500 * time.Second,
		Remaining:    10 * time.Second,
		Running:      true,
		Paused:       false,
		PlannedWork:  1500 * time.Second,
		PlannedBreak: 300 * time.Second,
		StartedAt:    now.Add(-25 * time.Minute),
		UpdatedAt:    now.Add(-15 * time.Second),
	}

	f.engine.Restore(ctx)

	snap := f.engine.Snapshot()
	require.True(t, snap.Running)
	require.False(t, snap.Working)
	require.LessOrEqual(t, snap.Remaining, 295*time.Second)
	require.Greater(t, snap.Remaining, 290*time.Second)

	f.engine.Stop(ctx)
}

func TestRestoreFinalizesFullyElapsedRun(t *testing.T) {
	f := newFixture(time.Second)
	ctx := context.Background()

	now := time.Now().UTC()
	f.states.load = &model.TimerState{
		Phase:        model.PhaseBreak,
		Total:        300 * time.Second,
		Remaining:    5 * time.Second,
		Running:      true,
		Paused:       false,
		PlannedWork:  1500 * time.Second,
		PlannedBreak: 300 * time.Second,
		StartedAt:    now.Add(-2 * time.Hour),
		UpdatedAt:    now.Add(-time.Hour),
	}

	f.engine.Restore(ctx)

	sessions := f.sessions.all()
	require.Len(t, sessions, 1)
	require.Equal(t, model.OutcomeCompleted, sessions[0].Outcome)
	require.Equal(t, 1500*time.Second, sessions[0].EffectiveWork)
	require.Equal(t, 300*time.Second, sessions[0].EffectiveBreak)
	require.False(t, f.engine.Snapshot().Running)
	require.Greater(t, f.states.clearCount(), 0)
}

func TestRestoreWithoutSavedStateIsNoop(t *testing.T) {
	f := newFixture(time.Second)

	f.engine.Restore(context.Background())

	require.Empty(t, f.sessions.all())
	snap := f.engine.Snapshot()
	require.False(t, snap.Running)
	require.False(t, snap.Paused)
}
