package blocker

import (
	"context"
	"log"
	"sync"
	"time"

	"focusd/internal/appmeta"
	"focusd/internal/model"
)

// Event reports that the foreground application changed.
type Event struct {
	AppID string
	At    time.Time
}

// Overlay is the platform hook that renders the blocking interstitial. Show
// and Hide are only ever called from the detector loop and the dismiss path,
// one interstitial at a time.
type Overlay interface {
	Show(app appmeta.App) error
	Hide()
}

// Metadata resolves display metadata for a blocked application identifier.
type Metadata interface {
	Lookup(appID string) (appmeta.App, error)
}

// ActiveModes is the slice of the mode service the detector needs: the active
// flag stream and resolution of the active mode's blocklist.
type ActiveModes interface {
	Subscribe(buffer int) <-chan bool
	ActiveMode(ctx context.Context) (*model.FocusMode, error)
}

// Config contains runtime options for the detector.
type Config struct {
	// Cooldown suppresses re-blocking the same app for a short window after
	// its interstitial was dismissed.
	Cooldown time.Duration
	// EventBuffer sizes the foreground-event channel.
	EventBuffer int
}

// State is the externally visible interstitial state.
type State struct {
	ModeActive bool         `json:"modeActive"`
	Showing    bool         `json:"showing"`
	BlockedApp *appmeta.App `json:"blockedApp,omitempty"`
	ShownAt    *time.Time   `json:"shownAt,omitempty"`
}

// Detector watches foreground-app events and interposes the blocking
// interstitial while a focus mode is active. All decisions happen on the Run
// goroutine; Dismiss and Snapshot may be called from other goroutines.
type Detector struct {
	modes   ActiveModes
	meta    Metadata
	overlay Overlay
	options Config
	events  chan Event

	mu          sync.Mutex
	active      bool
	blocklist   map[string]struct{}
	shownApp    *appmeta.App
	shownAt     time.Time
	lastDismiss map[string]time.Time
}

func NewDetector(modes ActiveModes, meta Metadata, overlay Overlay, options Config) *Detector {
	if options.EventBuffer <= 0 {
		options.EventBuffer = 16
	}
	return &Detector{
		modes:       modes,
		meta:        meta,
		overlay:     overlay,
		options:     options,
		events:      make(chan Event, options.EventBuffer),
		lastDismiss: map[string]time.Time{},
	}
}

// Events is the sink foreground watchers feed. Pushing blocks while the
// detector catches up so no event is ever silently lost.
func (d *Detector) Events() chan<- Event {
	return d.events
}

// Run processes events until the context is cancelled. The blocklist is
// reloaded whenever the active-mode flag flips.
func (d *Detector) Run(ctx context.Context) {
	activeCh := d.modes.Subscribe(8)
	d.reload(ctx)

	for {
		select {
		case <-ctx.Done():
			d.clear()
			return
		case _, ok := <-activeCh:
			if !ok {
				d.clear()
				return
			}
			d.reload(ctx)
		case event := <-d.events:
			d.handle(event)
		}
	}
}

// Dismiss tears down the visible interstitial, arming the re-block cooldown
// for the app it covered.
func (d *Detector) Dismiss() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.shownApp == nil {
		return
	}
	d.overlay.Hide()
	d.lastDismiss[d.shownApp.ID] = time.Now()
	d.shownApp = nil
	log.Printf("blocker: interstitial dismissed")
}

// Snapshot returns the current interstitial state.
func (d *Detector) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	state := State{ModeActive: d.active, Showing: d.shownApp != nil}
	if d.shownApp != nil {
		app := *d.shownApp
		shownAt := d.shownAt
		state.BlockedApp = &app
		state.ShownAt = &shownAt
	}
	return state
}

// reload re-resolves the active mode and swaps the blocklist in one step, so
// a stale list is never consulted mid-transition.
func (d *Detector) reload(ctx context.Context) {
	mode, err := d.modes.ActiveMode(ctx)
	if err != nil {
		log.Printf("blocker: resolve active mode: %v", err)
		mode = nil
	}

	if mode == nil {
		d.clear()
		return
	}

	blocklist := make(map[string]struct{}, len(mode.BlockedApps))
	for _, appID := range mode.BlockedApps {
		blocklist[appID] = struct{}{}
	}

	d.mu.Lock()
	d.active = true
	d.blocklist = blocklist
	d.mu.Unlock()
	log.Printf("blocker: mode %q active, blocking %d apps", mode.Name, len(blocklist))
}

// clear deactivates blocking and tears down any visible interstitial.
func (d *Detector) clear() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.active = false
	d.blocklist = nil
	if d.shownApp != nil {
		d.overlay.Hide()
		d.shownApp = nil
	}
}

func (d *Detector) handle(event Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return
	}
	if _, blocked := d.blocklist[event.AppID]; !blocked {
		return
	}

	if d.shownApp != nil {
		if d.shownApp.ID == event.AppID {
			// Re-entry into the app already covered: idempotent.
			return
		}
		// A different blocked app surfaced while the interstitial is up; the
		// current one stays until dismissed.
		log.Printf("blocker: %s foregrounded while interstitial covers %s", event.AppID, d.shownApp.ID)
		return
	}

	if d.options.Cooldown > 0 {
		if dismissedAt, ok := d.lastDismiss[event.AppID]; ok {
			if time.Since(dismissedAt) < d.options.Cooldown {
				return
			}
		}
	}

	app, err := d.meta.Lookup(event.AppID)
	if err != nil {
		// Likely a stale blocklist entry; skip this event and retry on the
		// next one.
		log.Printf("blocker: metadata lookup for %s: %v", event.AppID, err)
		return
	}

	if err := d.overlay.Show(app); err != nil {
		log.Printf("blocker: show interstitial for %s: %v", event.AppID, err)
		return
	}
	d.shownApp = &app
	d.shownAt = event.At
	log.Printf("blocker: interstitial shown for %s", event.AppID)
}
