//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
	"github.com/rios0rios0/nugetupdater/internal/domain/repositories"
)

// StubSelectorRepository selects everything unless told to keep only some ids or to fail.
type StubSelectorRepository struct {
	KeepRepositories []string // repository names; nil keeps all
	KeepUpdates      []string // package ids; nil keeps all
	Err              error

	RepositoryCalls int
	UpdateCalls     int
	OfferedUpdates  []entities.ResolvedUpdate
}

var _ repositories.SelectorRepository = (*StubSelectorRepository)(nil)

func (s *StubSelectorRepository) SelectRepositories(
	_ context.Context, repos []entities.Repository,
) ([]entities.Repository, error) {
	s.RepositoryCalls++
	if s.Err != nil {
		return nil, s.Err
	}
	if s.KeepRepositories == nil {
		return repos, nil
	}

	var kept []entities.Repository
	for _, repo := range repos {
		if contains(s.KeepRepositories, repo.Name) {
			kept = append(kept, repo)
		}
	}
	return kept, nil
}

func (s *StubSelectorRepository) SelectUpdates(
	_ context.Context, _ entities.Repository, updates []entities.ResolvedUpdate,
) ([]entities.ResolvedUpdate, error) {
	s.UpdateCalls++
	s.OfferedUpdates = append(s.OfferedUpdates, updates...)
	if s.Err != nil {
		return nil, s.Err
	}
	if s.KeepUpdates == nil {
		return updates, nil
	}

	var kept []entities.ResolvedUpdate
	for _, update := range updates {
		if contains(s.KeepUpdates, update.ID) {
			kept = append(kept, update)
		}
	}
	return kept, nil
}

func contains(values []string, want string) bool {
	for _, value := range values {
		if value == want {
			return true
		}
	}
	return false
}
