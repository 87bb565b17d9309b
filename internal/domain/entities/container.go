package entities

import (
	"time"

	"go.uber.org/dig"
)

// Clock returns the current time; publication uses it to date branch names.
type Clock func() time.Time

// RegisterProviders registers all entity providers with the DIG container.
// Settings requires a config file path, so it is loaded by the controllers layer.
func RegisterProviders(container *dig.Container) error {
	return container.Provide(func() Clock {
		return time.Now
	})
}
