package blocker

import (
	"log"

	"focusd/internal/appmeta"
)

// LoggingOverlay is the headless overlay used by the daemon: the interstitial
// state itself is served from Detector.Snapshot, so native clients render it;
// this hook just records transitions.
type LoggingOverlay struct{}

func (LoggingOverlay) Show(app appmeta.App) error {
	log.Printf("overlay: blocking %s (%s)", app.Name, app.ID)
	return nil
}

func (LoggingOverlay) Hide() {
	log.Printf("overlay: hidden")
}
