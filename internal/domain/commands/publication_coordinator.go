package commands

import (
	"context"
	"fmt"
	"strconv"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
	"github.com/rios0rios0/nugetupdater/internal/domain/repositories"
)

const (
	branchDateLayout  = "2006-01-02"
	maxBranchAttempts = 50
)

// Publisher is the interface for the publication step.
type Publisher interface {
	Publish(
		ctx context.Context,
		provider repositories.ProviderRepository,
		repo entities.Repository,
		transaction entities.PublicationTransaction,
	) entities.PublicationResult
}

// PublicationCoordinator moves a change set through
// Idle -> BranchCreated -> Pushed -> PullRequestOpened and reports the last
// stage reached. Nothing is rolled back on failure.
type PublicationCoordinator struct {
	clock entities.Clock
}

// NewPublicationCoordinator creates a new PublicationCoordinator.
func NewPublicationCoordinator(clock entities.Clock) *PublicationCoordinator {
	return &PublicationCoordinator{clock: clock}
}

// Publish creates the branch, pushes one commit and opens the pull request.
// An empty change set never reaches the provider.
func (it *PublicationCoordinator) Publish(
	ctx context.Context,
	provider repositories.ProviderRepository,
	repo entities.Repository,
	transaction entities.PublicationTransaction,
) entities.PublicationResult {
	if transaction.ChangeSet.IsEmpty() {
		return entities.PublicationResult{
			Outcome: entities.OutcomeNoEffectiveChanges,
			Stage:   entities.StageIdle,
			Err:     entities.ErrNoEffectiveChanges,
		}
	}

	baseBranch := entities.ShortBranchName(transaction.BaseBranch)
	head, err := provider.GetBranchHead(ctx, repo, baseBranch)
	if err != nil {
		return failed(entities.StepResolveHead, entities.StageIdle, "", "",
			fmt.Errorf("%w %q: %w", entities.ErrBranchResolution, baseBranch, err))
	}
	transaction.BaseCommitID = head

	branch, err := it.uniqueBranchName(ctx, provider, repo, transaction.BranchPrefix)
	if err != nil {
		return failed(entities.StepCreateBranch, entities.StageIdle, "", "", err)
	}
	transaction.BranchName = branch

	if err = provider.CreateBranch(ctx, repo, branch, head); err != nil {
		return failed(entities.StepCreateBranch, entities.StageIdle, branch, "", err)
	}
	logger.Infof("[publish] %s: created branch %q at %s", repo.FullName(), branch, head)

	commitID, err := provider.PushChanges(ctx, repo, entities.PushInput{
		BranchName:    branch,
		BaseCommitID:  head,
		CommitMessage: transaction.CommitMessage,
		Changes:       transaction.ChangeSet.Changes,
	})
	if err != nil {
		return failed(entities.StepPush, entities.StageBranchCreated, branch, "", err)
	}
	logger.Infof("[publish] %s: pushed %d file(s) to %q", repo.FullName(), len(transaction.ChangeSet.Changes), branch)

	pullRequest, err := provider.CreatePullRequest(ctx, repo, entities.PullRequestInput{
		SourceBranch: entities.BranchRef(branch),
		TargetBranch: entities.BranchRef(baseBranch),
		Title:        transaction.PullRequestTitle,
		Description:  transaction.PullRequestDescription,
		AutoComplete: transaction.AutoComplete,
	})
	if err != nil {
		return failed(entities.StepPullRequest, entities.StagePushed, branch, commitID, err)
	}

	return entities.PublicationResult{
		Outcome:     entities.OutcomeDone,
		Stage:       entities.StagePullRequestOpened,
		Branch:      branch,
		CommitID:    commitID,
		PullRequest: pullRequest,
	}
}

// uniqueBranchName returns prefix+date, or prefix+date-N when earlier names are taken.
func (it *PublicationCoordinator) uniqueBranchName(
	ctx context.Context,
	provider repositories.ProviderRepository,
	repo entities.Repository,
	prefix string,
) (string, error) {
	base := prefix + it.clock().Format(branchDateLayout)
	for attempt := 1; attempt <= maxBranchAttempts; attempt++ {
		candidate := base
		if attempt > 1 {
			candidate = base + "-" + strconv.Itoa(attempt)
		}

		exists, err := provider.BranchExists(ctx, repo, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check branch %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		logger.Debugf("[publish] %s: branch %q already exists", repo.FullName(), candidate)
	}
	return "", fmt.Errorf("no free branch name for %q after %d attempts", base, maxBranchAttempts)
}

func failed(
	step entities.PublicationStep,
	reached entities.PublicationStage,
	branch, commitID string,
	cause error,
) entities.PublicationResult {
	return entities.PublicationResult{
		Outcome:  entities.OutcomeFailed,
		Stage:    reached,
		Branch:   branch,
		CommitID: commitID,
		Err: &entities.PublicationError{
			Step:    step,
			Reached: reached,
			Branch:  branch,
			Err:     cause,
		},
	}
}
