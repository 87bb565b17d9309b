package commands

import (
	"go.uber.org/dig"
)

// RegisterProviders registers all command providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	constructors := []interface{}{
		NewVersionResolver,
		NewPublicationCoordinator,
		NewUpdatePipeline,
		NewRunCommand,
		NewLocalCommand,
	}
	for _, constructor := range constructors {
		if err := container.Provide(constructor); err != nil {
			return err
		}
	}

	// Bind interfaces to implementations
	bindings := []interface{}{
		func(impl *VersionResolver) Resolver { return impl },
		func(impl *PublicationCoordinator) Publisher { return impl },
		func(impl *UpdatePipeline) Pipeline { return impl },
		func(impl *RunCommand) Run { return impl },
		func(impl *LocalCommand) Local { return impl },
	}
	for _, binding := range bindings {
		if err := container.Provide(binding); err != nil {
			return err
		}
	}

	return nil
}
