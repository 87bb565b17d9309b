package repositories

import (
	"context"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
)

// ProviderRepository abstracts a Git hosting service (GitHub, GitLab, Azure DevOps,
// or a local clone) providing discovery, file access and the branch, push and
// pull request operations used by publication.
type ProviderRepository interface {
	// Name returns the provider identifier (e.g. "github").
	Name() string
	// AuthToken returns the token the provider was built with.
	AuthToken() string

	// DiscoverRepositories lists repositories in an organization, group or project.
	DiscoverRepositories(ctx context.Context, org string) ([]entities.Repository, error)
	// ListFiles lists every file of the default branch recursively.
	ListFiles(ctx context.Context, repo entities.Repository) ([]entities.File, error)
	// GetFileContent returns the raw content of a file on the default branch.
	GetFileContent(ctx context.Context, repo entities.Repository, path string) (string, error)

	// GetBranchHead returns the commit id a branch points at, or entities.ErrBranchNotFound.
	GetBranchHead(ctx context.Context, repo entities.Repository, branch string) (string, error)
	// BranchExists reports whether a branch with that short name exists.
	BranchExists(ctx context.Context, repo entities.Repository, branch string) (bool, error)
	// CreateBranch creates a branch pointing at commitID.
	CreateBranch(ctx context.Context, repo entities.Repository, branch, commitID string) error
	// PushChanges pushes a single commit with all changes and returns its id.
	PushChanges(ctx context.Context, repo entities.Repository, input entities.PushInput) (string, error)
	// CreatePullRequest opens a pull request.
	CreatePullRequest(
		ctx context.Context, repo entities.Repository, input entities.PullRequestInput,
	) (*entities.PullRequest, error)
}
