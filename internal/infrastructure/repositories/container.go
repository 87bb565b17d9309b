package repositories

import (
	"go.uber.org/dig"

	adoRepo "github.com/rios0rios0/nugetupdater/internal/infrastructure/repositories/azuredevops"
	ghRepo "github.com/rios0rios0/nugetupdater/internal/infrastructure/repositories/github"
	glRepo "github.com/rios0rios0/nugetupdater/internal/infrastructure/repositories/gitlab"
	nugetRepo "github.com/rios0rios0/nugetupdater/internal/infrastructure/repositories/nuget"
	promptRepo "github.com/rios0rios0/nugetupdater/internal/infrastructure/repositories/prompt"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register provider registry with all provider factories
	if err := container.Provide(func() *ProviderRegistry {
		reg := NewProviderRegistry()
		reg.Register("github", ghRepo.NewProviderRepository)
		reg.Register("gitlab", glRepo.NewProviderRepository)
		reg.Register("azuredevops", adoRepo.NewProviderRepository)
		return reg
	}); err != nil {
		return err
	}

	if err := container.Provide(nugetRepo.NewFeedRepository); err != nil {
		return err
	}

	return container.Provide(func() *SelectorRegistry {
		return NewSelectorRegistry(promptRepo.NewInteractiveSelector(), promptRepo.NewAutoSelector())
	})
}
