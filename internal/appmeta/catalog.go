package appmeta

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrUnknownApp is returned when an application identifier has no catalog
// entry, e.g. a blocklisted app that was uninstalled.
var ErrUnknownApp = errors.New("unknown application")

// App is the display metadata for one application identifier.
type App struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Icon string `yaml:"icon,omitempty" json:"icon,omitempty"`
}

type catalogFile struct {
	Apps []App `yaml:"apps"`
}

// Catalog is a YAML-backed application metadata provider. A missing file is an
// empty catalog, not an error: the daemon must come up before any UI has
// written one.
type Catalog struct {
	mu   sync.RWMutex
	path string
	apps map[string]App
}

func LoadCatalog(path string) (*Catalog, error) {
	catalog := &Catalog{path: path, apps: map[string]App{}}
	if err := catalog.Reload(); err != nil {
		return nil, err
	}
	return catalog, nil
}

// Reload re-reads the catalog file, replacing the in-memory index atomically.
func (c *Catalog) Reload() error {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			c.mu.Lock()
			c.apps = map[string]App{}
			c.mu.Unlock()
			return nil
		}
		return fmt.Errorf("read app catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse app catalog: %w", err)
	}

	apps := make(map[string]App, len(file.Apps))
	for _, app := range file.Apps {
		if app.ID == "" {
			continue
		}
		apps[app.ID] = app
	}

	c.mu.Lock()
	c.apps = apps
	c.mu.Unlock()
	return nil
}

// Lookup resolves display metadata for an application identifier.
func (c *Catalog) Lookup(appID string) (App, error) {
	c.mu.RLock()
	app, ok := c.apps[appID]
	c.mu.RUnlock()
	if !ok {
		return App{}, fmt.Errorf("%w: %s", ErrUnknownApp, appID)
	}
	return app, nil
}
