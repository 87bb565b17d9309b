//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/nugetupdater/internal/domain/commands"
	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
	"github.com/rios0rios0/nugetupdater/internal/domain/repositories"
)

// StubPublisher is a stub implementation of commands.Publisher.
type StubPublisher struct {
	Result       entities.PublicationResult
	Transactions []entities.PublicationTransaction
}

var _ commands.Publisher = (*StubPublisher)(nil)

func (s *StubPublisher) Publish(
	_ context.Context,
	_ repositories.ProviderRepository,
	_ entities.Repository,
	transaction entities.PublicationTransaction,
) entities.PublicationResult {
	s.Transactions = append(s.Transactions, transaction)
	if s.Result.Outcome == "" {
		return entities.PublicationResult{
			Outcome:     entities.OutcomeDone,
			Stage:       entities.StagePullRequestOpened,
			Branch:      "dependency/update-test",
			PullRequest: &entities.PullRequest{ID: 1, Title: transaction.PullRequestTitle},
		}
	}
	return s.Result
}
