package speech

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"scribe/internal/config"
	"scribe/internal/services"
)

// Factory builds a Backend from configuration. Factories report missing
// credentials as services.ErrConfiguration without touching the network.
type Factory func(cfg *config.Config, logger *slog.Logger) (Backend, error)

var (
	registryMu sync.RWMutex
	factories  = map[string]Factory{}
)

// Register adds a named backend factory. Backend packages call it from init.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Registered returns the known backend names in sorted order.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New constructs the backend selected by speech.backend.
func New(cfg *config.Config, logger *slog.Logger) (Backend, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "speech", "new backend", "configuration required", nil)
	}
	name := cfg.Speech.Backend
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "speech", "new backend",
			fmt.Sprintf("unknown backend %q (registered: %v)", name, Registered()), nil)
	}
	return factory(cfg, logger)
}
