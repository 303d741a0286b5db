// Package appwatch turns a platform-specific foreground-application probe
// into a stream of change events for the blocking detector. Push-based
// platforms bypass it and feed the detector over the API instead.
package appwatch

import (
	"context"
	"log"
	"time"

	"focusd/internal/blocker"
)

// Provider reports the identifier of the current foreground application.
type Provider interface {
	Foreground(ctx context.Context) (string, error)
}

// Poller samples a Provider at a fixed interval and emits an event whenever
// the foreground application changes.
type Poller struct {
	provider Provider
	interval time.Duration
	sink     chan<- blocker.Event
}

func NewPoller(provider Provider, interval time.Duration, sink chan<- blocker.Event) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	return &Poller{provider: provider, interval: interval, sink: sink}
}

// Run polls until the context is cancelled. Probe failures are logged and the
// previous value kept; a transient failure must not fabricate a change event.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var current string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			appID, err := p.provider.Foreground(ctx)
			if err != nil {
				log.Printf("appwatch: probe foreground app: %v", err)
				continue
			}
			if appID == "" || appID == current {
				continue
			}
			current = appID

			event := blocker.Event{AppID: appID, At: time.Now()}
			select {
			case p.sink <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
