//go:build integration || unit || test

// Package repositorydoubles provides test doubles (spies, stubs, dummies) for
// repository interfaces. These are hand-crafted implementations, no mock frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"
	"sync"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
	"github.com/rios0rios0/nugetupdater/internal/domain/repositories"
)

// CreateBranchCall records a single invocation of CreateBranch.
type CreateBranchCall struct {
	Branch   string
	CommitID string
}

// SpyProviderRepository implements repositories.ProviderRepository as a configurable spy.
// Configure the response fields for the methods your test exercises,
// then inspect the call-tracking fields to verify behavior.
type SpyProviderRepository struct {
	mu sync.Mutex

	// --- identity ---
	ProviderName string
	Token        string

	// --- DiscoverRepositories ---
	Repositories   []entities.Repository
	DiscoverErr    error
	DiscoveredOrgs []string

	// --- ListFiles ---
	Files       []entities.File
	ListFileErr error

	// --- GetFileContent ---
	FileContents   map[string]string
	FileContentErr error
	FetchedPaths   []string

	// --- GetBranchHead ---
	BranchHeads   map[string]string // short branch name -> commit id
	BranchHeadErr error

	// --- BranchExists ---
	ExistingBranches map[string]bool
	BranchExistsErr  error
	CheckedBranches  []string

	// --- CreateBranch ---
	CreateBranchErr   error
	CreateBranchCalls []CreateBranchCall

	// --- PushChanges ---
	PushedCommitID string
	PushErr        error
	PushInputs     []entities.PushInput

	// --- CreatePullRequest ---
	CreatedPR   *entities.PullRequest
	CreatePRErr error
	PRInputs    []entities.PullRequestInput
}

var _ repositories.ProviderRepository = (*SpyProviderRepository)(nil)

func (p *SpyProviderRepository) Name() string      { return p.ProviderName }
func (p *SpyProviderRepository) AuthToken() string { return p.Token }

func (p *SpyProviderRepository) DiscoverRepositories(
	_ context.Context, org string,
) ([]entities.Repository, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DiscoveredOrgs = append(p.DiscoveredOrgs, org)
	return p.Repositories, p.DiscoverErr
}

func (p *SpyProviderRepository) ListFiles(
	_ context.Context, _ entities.Repository,
) ([]entities.File, error) {
	return p.Files, p.ListFileErr
}

func (p *SpyProviderRepository) GetFileContent(
	_ context.Context, _ entities.Repository, path string,
) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.FetchedPaths = append(p.FetchedPaths, path)
	if content, ok := p.FileContents[path]; ok {
		return content, nil
	}
	if p.FileContentErr != nil {
		return "", p.FileContentErr
	}
	return "", fmt.Errorf("file not found: %s", path)
}

func (p *SpyProviderRepository) GetBranchHead(
	_ context.Context, _ entities.Repository, branch string,
) (string, error) {
	if p.BranchHeadErr != nil {
		return "", p.BranchHeadErr
	}
	if head, ok := p.BranchHeads[entities.ShortBranchName(branch)]; ok {
		return head, nil
	}
	return "", fmt.Errorf("%w: %s", entities.ErrBranchNotFound, branch)
}

func (p *SpyProviderRepository) BranchExists(
	_ context.Context, _ entities.Repository, branch string,
) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CheckedBranches = append(p.CheckedBranches, branch)
	if p.BranchExistsErr != nil {
		return false, p.BranchExistsErr
	}
	return p.ExistingBranches[branch], nil
}

func (p *SpyProviderRepository) CreateBranch(
	_ context.Context, _ entities.Repository, branch, commitID string,
) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CreateBranchCalls = append(p.CreateBranchCalls, CreateBranchCall{Branch: branch, CommitID: commitID})
	return p.CreateBranchErr
}

func (p *SpyProviderRepository) PushChanges(
	_ context.Context, _ entities.Repository, input entities.PushInput,
) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.PushInputs = append(p.PushInputs, input)
	if p.PushErr != nil {
		return "", p.PushErr
	}
	if p.PushedCommitID != "" {
		return p.PushedCommitID, nil
	}
	return "pushed-commit", nil
}

func (p *SpyProviderRepository) CreatePullRequest(
	_ context.Context, _ entities.Repository, input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.PRInputs = append(p.PRInputs, input)
	if p.CreatePRErr != nil {
		return nil, p.CreatePRErr
	}
	if p.CreatedPR != nil {
		return p.CreatedPR, nil
	}
	return &entities.PullRequest{
		ID:    1,
		Title: input.Title,
		URL:   "https://example.com/pr/1",
	}, nil
}
