package repositories

import (
	"context"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
)

// SelectorRepository lets an operator (or a headless policy) choose what to process.
type SelectorRepository interface {
	SelectRepositories(ctx context.Context, repos []entities.Repository) ([]entities.Repository, error)
	SelectUpdates(
		ctx context.Context, repo entities.Repository, updates []entities.ResolvedUpdate,
	) ([]entities.ResolvedUpdate, error)
}
