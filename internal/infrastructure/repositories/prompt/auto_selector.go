package prompt

import (
	"context"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
	"github.com/rios0rios0/nugetupdater/internal/domain/repositories"
)

// AutoSelector selects everything. It backs non-interactive runs (--yes, CI, pipes).
type AutoSelector struct{}

// NewAutoSelector creates a select-all selector.
func NewAutoSelector() repositories.SelectorRepository {
	return &AutoSelector{}
}

func (s *AutoSelector) SelectRepositories(
	_ context.Context,
	repos []entities.Repository,
) ([]entities.Repository, error) {
	return repos, nil
}

func (s *AutoSelector) SelectUpdates(
	_ context.Context,
	_ entities.Repository,
	updates []entities.ResolvedUpdate,
) ([]entities.ResolvedUpdate, error) {
	return updates, nil
}
