//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/nugetupdater/internal/domain/commands"
	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
	"github.com/rios0rios0/nugetupdater/internal/domain/repositories"
)

// StubPipeline is a stub implementation of commands.Pipeline. Results and errors
// are looked up by repository name; Outcome is used for every other repository.
type StubPipeline struct {
	Outcome   commands.RepositoryOutcome
	Results   map[string]*commands.RepositoryResult
	Errs      map[string]error
	Processed []entities.Repository
	LastOpts  commands.PipelineOptions
}

var _ commands.Pipeline = (*StubPipeline)(nil)

func (s *StubPipeline) Process(
	_ context.Context,
	_ repositories.ProviderRepository,
	repo entities.Repository,
	_ *entities.Settings,
	opts commands.PipelineOptions,
) (*commands.RepositoryResult, error) {
	s.Processed = append(s.Processed, repo)
	s.LastOpts = opts
	if err := s.Errs[repo.Name]; err != nil {
		return &commands.RepositoryResult{Repository: repo}, err
	}
	if result, ok := s.Results[repo.Name]; ok {
		return result, nil
	}
	outcome := s.Outcome
	if outcome == "" {
		outcome = commands.OutcomeUpToDate
	}
	return &commands.RepositoryResult{Repository: repo, Outcome: outcome}, nil
}
