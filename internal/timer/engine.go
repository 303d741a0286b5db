package timer

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"focusd/internal/model"
	"focusd/internal/repository"
)

// ErrInvalidDuration is returned by Start for non-positive phase durations.
var ErrInvalidDuration = errors.New("work and break durations must be positive")

// SessionRecorder persists one finished run. Failures are logged and the
// record dropped; the engine never crashes on a persistence failure.
type SessionRecorder interface {
	Record(ctx context.Context, session *model.Session) error
}

// ModeSignal toggles the shared active-mode flag.
type ModeSignal interface {
	SetActive(ctx context.Context, active bool, modeID *string) error
}

// StateStore persists the restoration record while a run is in flight.
type StateStore interface {
	Save(ctx context.Context, state *model.TimerState) error
	Load(ctx context.Context) (*model.TimerState, error)
	Clear(ctx context.Context) error
}

// Snapshot is the observable view of the countdown.
type Snapshot struct {
	Total     time.Duration `json:"-"`
	Remaining time.Duration `json:"-"`
	Running   bool          `json:"isRunning"`
	Paused    bool          `json:"isPaused"`
	Working   bool          `json:"isWorking"`
	Finished  bool          `json:"isFinished"`
}

// StartParams configures one run. ModeID/ModeName are optional; when a mode is
// supplied the engine activates it for the duration of the run.
type StartParams struct {
	Work     time.Duration
	Break    time.Duration
	ModeID   *string
	ModeName *string
}

// Config contains runtime options for the engine.
type Config struct {
	TickInterval time.Duration
}

// Engine drives the two-phase work/break countdown. All mutation happens under
// one mutex; public commands are additionally serialized so a superseding
// command always waits for the previous cycle goroutine to fully stop before
// starting a new one.
type Engine struct {
	options  Config
	sessions SessionRecorder
	modes    ModeSignal
	states   StateStore

	// cmdMu serializes Start/PauseResume/Stop/Reset/Shutdown.
	cmdMu sync.Mutex

	mu        sync.Mutex
	phase     model.TimerPhase
	total     time.Duration
	remaining time.Duration
	running   bool
	paused    bool
	finished  bool

	plannedWork  time.Duration
	plannedBreak time.Duration
	modeID       *string
	modeName     *string
	startedAt    time.Time
	sessionOpen  bool

	cancel    chan struct{}
	done      chan struct{}
	observers []chan Snapshot
	shutdown  bool
}

func New(sessions SessionRecorder, modes ModeSignal, states StateStore, options Config) *Engine {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	return &Engine{
		options:  options,
		sessions: sessions,
		modes:    modes,
		states:   states,
		phase:    model.PhaseWork,
	}
}

// Subscribe registers an observer of countdown snapshots.
func (e *Engine) Subscribe(buffer int) <-chan Snapshot {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)
	e.mu.Lock()
	e.observers = append(e.observers, ch)
	e.mu.Unlock()
	return ch
}

// Snapshot returns the current countdown view.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Start begins a new run. A run already in progress is finalized as cancelled
// first, so every Start maps to exactly one eventual session record.
func (e *Engine) Start(ctx context.Context, params StartParams) error {
	if params.Work <= 0 || params.Break <= 0 {
		return ErrInvalidDuration
	}

	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()

	e.stopCycle()
	e.finalizeRun(ctx, model.OutcomeCancelled)

	now := time.Now().UTC()
	e.mu.Lock()
	e.phase = model.PhaseWork
	e.total = params.Work
	e.remaining = params.Work
	e.running = true
	e.paused = false
	e.finished = false
	e.plannedWork = params.Work
	e.plannedBreak = params.Break
	e.modeID = params.ModeID
	e.modeName = params.ModeName
	e.startedAt = now
	e.sessionOpen = true
	snap := e.snapshotLocked()
	state := e.stateLocked(now)
	e.mu.Unlock()

	if params.ModeID != nil {
		if err := e.modes.SetActive(ctx, true, params.ModeID); err != nil {
			log.Printf("timer: activate mode: %v", err)
		}
	}
	e.saveState(ctx, state)
	e.publish(snap)
	e.startCycle()
	return nil
}

// PauseResume halts a running countdown or resumes a paused one.
func (e *Engine) PauseResume(ctx context.Context) {
	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()

	e.mu.Lock()
	switch {
	case e.running && !e.paused:
		e.mu.Unlock()
		e.stopCycle()

		e.mu.Lock()
		e.running = false
		e.paused = true
		snap := e.snapshotLocked()
		state := e.stateLocked(time.Now().UTC())
		e.mu.Unlock()

		e.saveState(ctx, state)
		e.publish(snap)
	case e.paused:
		e.running = true
		e.paused = false
		snap := e.snapshotLocked()
		state := e.stateLocked(time.Now().UTC())
		e.mu.Unlock()

		e.saveState(ctx, state)
		e.publish(snap)
		e.startCycle()
	default:
		e.mu.Unlock()
	}
}

// Stop ends the current run and records it as cancelled.
func (e *Engine) Stop(ctx context.Context) {
	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()

	e.stopCycle()
	e.finalizeRun(ctx, model.OutcomeCancelled)
}

// Reset abandons the current run (recording it as cancelled) and immediately
// starts a fresh one with the same parameters.
func (e *Engine) Reset(ctx context.Context) error {
	e.cmdMu.Lock()

	e.mu.Lock()
	params := StartParams{
		Work:     e.plannedWork,
		Break:    e.plannedBreak,
		ModeID:   e.modeID,
		ModeName: e.modeName,
	}
	open := e.sessionOpen
	e.mu.Unlock()

	e.cmdMu.Unlock()
	if !open {
		return nil
	}
	return e.Start(ctx, params)
}

// Shutdown behaves like Stop for an in-flight run and unconditionally clears
// the active-mode signal, then closes all observer channels. Host teardown
// must never leave blocking stuck on or focus time unaccounted.
func (e *Engine) Shutdown(ctx context.Context) {
	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()

	e.stopCycle()
	e.finalizeRun(ctx, model.OutcomeCancelled)

	if err := e.modes.SetActive(ctx, false, nil); err != nil {
		log.Printf("timer: deactivate mode on shutdown: %v", err)
	}

	e.mu.Lock()
	if e.shutdown {
		e.mu.Unlock()
		return
	}
	e.shutdown = true
	observers := e.observers
	e.observers = nil
	e.mu.Unlock()

	for _, ch := range observers {
		close(ch)
	}
}

// Restore reconstructs an interrupted run from the persisted state record by
// replaying the wall-clock time elapsed since it was written.
func (e *Engine) Restore(ctx context.Context) {
	saved, err := e.states.Load(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Printf("timer: load saved state: %v", err)
		}
		return
	}
	if !saved.Running && !saved.Paused {
		e.clearState(ctx)
		return
	}

	e.cmdMu.Lock()
	defer e.cmdMu.Unlock()

	now := time.Now().UTC()

	e.mu.Lock()
	e.plannedWork = saved.PlannedWork
	e.plannedBreak = saved.PlannedBreak
	e.modeID = saved.ModeID
	e.modeName = saved.ModeName
	e.startedAt = saved.StartedAt
	e.sessionOpen = true
	e.finished = false

	if saved.Paused {
		e.phase = saved.Phase
		e.total = saved.Total
		e.remaining = saved.Remaining
		e.running = false
		e.paused = true
		snap := e.snapshotLocked()
		e.mu.Unlock()

		e.publish(snap)
		log.Printf("timer: restored paused %s phase with %s remaining", saved.Phase, saved.Remaining)
		return
	}

	elapsed := now.Sub(saved.UpdatedAt)
	remaining := saved.Remaining - elapsed
	phase := saved.Phase

	if phase == model.PhaseWork && remaining <= 0 {
		// The work phase ran out while the process was down; spill the
		// overshoot into the break phase.
		phase = model.PhaseBreak
		remaining = saved.PlannedBreak + remaining
	}
	if remaining <= 0 {
		// The whole cycle elapsed while the process was down.
		e.phase = model.PhaseBreak
		e.remaining = 0
		e.running = false
		e.mu.Unlock()

		log.Printf("timer: interrupted run completed while offline")
		e.finalizeRun(ctx, model.OutcomeCompleted)
		return
	}

	e.phase = phase
	e.remaining = remaining.Truncate(e.options.TickInterval)
	if e.remaining <= 0 {
		e.remaining = e.options.TickInterval
	}
	if phase == model.PhaseWork {
		e.total = saved.PlannedWork
	} else {
		e.total = saved.PlannedBreak
	}
	e.running = true
	e.paused = false
	snap := e.snapshotLocked()
	state := e.stateLocked(now)
	e.mu.Unlock()

	e.saveState(ctx, state)
	e.publish(snap)
	e.startCycle()
	log.Printf("timer: restored running %s phase with %s remaining", phase, snap.Remaining)
}

// startCycle launches the tick goroutine. The previous cycle must already be
// fully stopped.
func (e *Engine) startCycle() {
	cancel := make(chan struct{})
	done := make(chan struct{})

	e.mu.Lock()
	e.cancel = cancel
	e.done = done
	e.mu.Unlock()

	go e.run(cancel, done)
}

// stopCycle cancels the in-flight tick goroutine and waits for it to exit, so
// a stale tick can never fire after a superseding command has re-initialized
// the countdown.
func (e *Engine) stopCycle() {
	e.mu.Lock()
	cancel := e.cancel
	done := e.done
	e.cancel = nil
	e.done = nil
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	close(cancel)
	if done != nil {
		<-done
	}
}

func (e *Engine) run(cancel <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(e.options.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			if e.tick() {
				return
			}
		}
	}
}

// tick advances the countdown by one interval. It returns true when the cycle
// has finished and the goroutine should exit.
func (e *Engine) tick() bool {
	ctx := context.Background()

	e.mu.Lock()
	if !e.running || e.paused {
		e.mu.Unlock()
		return false
	}

	e.remaining -= e.options.TickInterval
	if e.remaining > 0 {
		snap := e.snapshotLocked()
		state := e.stateLocked(time.Now().UTC())
		e.mu.Unlock()

		e.publish(snap)
		e.saveState(ctx, state)
		return false
	}

	e.remaining = 0
	if e.phase == model.PhaseWork {
		// Work phase ran to completion; flip to break, no session yet.
		e.phase = model.PhaseBreak
		e.total = e.plannedBreak
		e.remaining = e.plannedBreak
		snap := e.snapshotLocked()
		state := e.stateLocked(time.Now().UTC())
		e.mu.Unlock()

		e.publish(snap)
		e.saveState(ctx, state)
		return false
	}

	// Break phase ran to completion: the cycle is done.
	e.finished = true
	e.mu.Unlock()

	e.finalizeRun(ctx, model.OutcomeCompleted)
	return true
}

// finalizeRun writes the one session record for the current run (if any),
// deactivates the mode signal and resets to idle.
func (e *Engine) finalizeRun(ctx context.Context, outcome model.SessionOutcome) {
	e.mu.Lock()
	if !e.sessionOpen {
		e.mu.Unlock()
		return
	}
	e.sessionOpen = false

	effectiveWork, effectiveBreak := e.effectiveDurationsLocked(outcome)

	now := time.Now().UTC()
	session := model.Session{
		ID:             uuid.NewString(),
		StartedAt:      e.startedAt,
		EndedAt:        &now,
		PlannedWork:    e.plannedWork,
		PlannedBreak:   e.plannedBreak,
		EffectiveWork:  effectiveWork,
		EffectiveBreak: effectiveBreak,
		ModeName:       e.modeName,
		Outcome:        outcome,
		CreatedAt:      now,
	}
	hadMode := e.modeID != nil

	e.running = false
	e.paused = false
	e.finished = outcome == model.OutcomeCompleted
	e.phase = model.PhaseWork
	e.total = 0
	e.remaining = 0
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if err := e.sessions.Record(ctx, &session); err != nil {
		log.Printf("timer: record session: %v", err)
	}
	if hadMode {
		if err := e.modes.SetActive(ctx, false, nil); err != nil {
			log.Printf("timer: deactivate mode: %v", err)
		}
	}
	e.clearState(ctx)
	e.publish(snap)
}

// effectiveDurationsLocked apportions elapsed time per phase. Cancelling
// during the break still credits the full work phase.
func (e *Engine) effectiveDurationsLocked(outcome model.SessionOutcome) (time.Duration, time.Duration) {
	if outcome == model.OutcomeCompleted {
		return e.plannedWork, e.plannedBreak
	}
	if e.phase == model.PhaseWork {
		return e.plannedWork - e.remaining, 0
	}
	return e.plannedWork, e.plannedBreak - e.remaining
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Total:     e.total,
		Remaining: e.remaining,
		Running:   e.running,
		Paused:    e.paused,
		Working:   e.phase == model.PhaseWork,
		Finished:  e.finished,
	}
}

func (e *Engine) stateLocked(now time.Time) model.TimerState {
	return model.TimerState{
		Phase:        e.phase,
		Total:        e.total,
		Remaining:    e.remaining,
		Running:      e.running,
		Paused:       e.paused,
		PlannedWork:  e.plannedWork,
		PlannedBreak: e.plannedBreak,
		ModeID:       e.modeID,
		ModeName:     e.modeName,
		StartedAt:    e.startedAt,
		UpdatedAt:    now,
	}
}

func (e *Engine) saveState(ctx context.Context, state model.TimerState) {
	if err := e.states.Save(ctx, &state); err != nil {
		log.Printf("timer: save state: %v", err)
	}
}

func (e *Engine) clearState(ctx context.Context) {
	if err := e.states.Clear(ctx); err != nil {
		log.Printf("timer: clear state: %v", err)
	}
}

func (e *Engine) publish(snap Snapshot) {
	e.mu.Lock()
	observers := e.observers
	e.mu.Unlock()

	for _, ch := range observers {
		select {
		case ch <- snap:
		default:
		}
	}
}
