package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	gh "github.com/google/go-github/v66/github"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
	"github.com/rios0rios0/nugetupdater/internal/domain/repositories"
	"github.com/rios0rios0/nugetupdater/internal/infrastructure/repositories/httpclient"
)

const (
	providerName   = "github"
	perPage        = 100
	blobMode       = "100644"
	blobType       = "blob"
	requestTimeout = 0 // deadlines come from the context
)

// GitHubProviderRepository implements repositories.ProviderRepository for GitHub.
type GitHubProviderRepository struct {
	token  string
	client *gh.Client
}

// NewProviderRepository creates a new GitHub provider with the given token.
func NewProviderRepository(token string) repositories.ProviderRepository {
	return NewProviderRepositoryWithClient(
		token, gh.NewClient(httpclient.Standard(requestTimeout)).WithAuthToken(token),
	)
}

// NewProviderRepositoryWithClient wraps an already configured client (GitHub Enterprise, tests).
func NewProviderRepositoryWithClient(token string, client *gh.Client) *GitHubProviderRepository {
	return &GitHubProviderRepository{token: token, client: client}
}

func (p *GitHubProviderRepository) Name() string      { return providerName }
func (p *GitHubProviderRepository) AuthToken() string { return p.token }

// DiscoverRepositories lists all repositories in a GitHub organization, falling
// back to a user account when the organization does not exist.
func (p *GitHubProviderRepository) DiscoverRepositories(
	ctx context.Context,
	org string,
) ([]entities.Repository, error) {
	var allRepos []entities.Repository
	opts := &gh.RepositoryListByOrgOptions{
		ListOptions: gh.ListOptions{PerPage: perPage},
	}

	for {
		repos, resp, err := p.client.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			if isNotFound(err) {
				return p.discoverUserRepos(ctx, org)
			}
			return nil, fmt.Errorf("failed to list repos of %q: %w", org, err)
		}

		allRepos = appendRepositories(allRepos, org, repos)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allRepos, nil
}

func (p *GitHubProviderRepository) discoverUserRepos(
	ctx context.Context,
	user string,
) ([]entities.Repository, error) {
	var allRepos []entities.Repository
	opts := &gh.RepositoryListByUserOptions{
		ListOptions: gh.ListOptions{PerPage: perPage},
		Type:        "owner",
	}

	for {
		repos, resp, err := p.client.Repositories.ListByUser(ctx, user, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list repos for %q: %w", user, err)
		}

		allRepos = appendRepositories(allRepos, user, repos)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allRepos, nil
}

func appendRepositories(
	allRepos []entities.Repository,
	owner string,
	repos []*gh.Repository,
) []entities.Repository {
	for _, r := range repos {
		if r.GetArchived() || r.GetDisabled() {
			continue
		}
		defaultBranch := r.GetDefaultBranch()
		if defaultBranch == "" {
			defaultBranch = "main"
		}
		allRepos = append(allRepos, entities.Repository{
			ID:            strconv.FormatInt(r.GetID(), 10),
			Name:          r.GetName(),
			Organization:  owner,
			DefaultBranch: entities.BranchRef(defaultBranch),
			RemoteURL:     r.GetCloneURL(),
			SSHURL:        r.GetSSHURL(),
			ProviderName:  providerName,
		})
	}
	return allRepos
}

func (p *GitHubProviderRepository) ListFiles(
	ctx context.Context,
	repo entities.Repository,
) ([]entities.File, error) {
	tree, _, err := p.client.Git.GetTree(
		ctx, repo.Organization, repo.Name, entities.ShortBranchName(repo.DefaultBranch), true,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get repo tree: %w", err)
	}

	files := make([]entities.File, 0, len(tree.Entries))
	for _, entry := range tree.Entries {
		files = append(files, entities.File{
			Path:     entry.GetPath(),
			ObjectID: entry.GetSHA(),
			IsDir:    entry.GetType() == "tree",
		})
	}
	return files, nil
}

func (p *GitHubProviderRepository) GetFileContent(
	ctx context.Context,
	repo entities.Repository,
	path string,
) (string, error) {
	fileContent, _, _, err := p.client.Repositories.GetContents(
		ctx, repo.Organization, repo.Name, strings.TrimPrefix(path, "/"),
		&gh.RepositoryContentGetOptions{Ref: entities.ShortBranchName(repo.DefaultBranch)},
	)
	if err != nil {
		return "", fmt.Errorf("failed to get file %q: %w", path, err)
	}
	if fileContent == nil {
		return "", fmt.Errorf("path %q is a directory, not a file", path)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return "", fmt.Errorf("failed to decode file content: %w", err)
	}
	return content, nil
}

func (p *GitHubProviderRepository) GetBranchHead(
	ctx context.Context,
	repo entities.Repository,
	branch string,
) (string, error) {
	ref, _, err := p.client.Git.GetRef(ctx, repo.Organization, repo.Name, entities.BranchRef(branch))
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("%w: %s", entities.ErrBranchNotFound, branch)
		}
		return "", fmt.Errorf("failed to get branch ref: %w", err)
	}
	return ref.GetObject().GetSHA(), nil
}

func (p *GitHubProviderRepository) BranchExists(
	ctx context.Context,
	repo entities.Repository,
	branch string,
) (bool, error) {
	_, err := p.GetBranchHead(ctx, repo, branch)
	if errors.Is(err, entities.ErrBranchNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (p *GitHubProviderRepository) CreateBranch(
	ctx context.Context,
	repo entities.Repository,
	branch, commitID string,
) error {
	ref := entities.BranchRef(branch)
	_, _, err := p.client.Git.CreateRef(ctx, repo.Organization, repo.Name, &gh.Reference{
		Ref:    &ref,
		Object: &gh.GitObject{SHA: &commitID},
	})
	if err != nil {
		return fmt.Errorf("failed to create branch: %w", err)
	}
	return nil
}

// PushChanges builds a tree on top of the base commit, commits it and moves
// the branch to the new commit.
func (p *GitHubProviderRepository) PushChanges(
	ctx context.Context,
	repo entities.Repository,
	input entities.PushInput,
) (string, error) {
	owner, name := repo.Organization, repo.Name

	baseCommit, _, err := p.client.Git.GetCommit(ctx, owner, name, input.BaseCommitID)
	if err != nil {
		return "", fmt.Errorf("failed to get base commit: %w", err)
	}

	entries := make([]*gh.TreeEntry, 0, len(input.Changes))
	for _, change := range input.Changes {
		entries = append(entries, &gh.TreeEntry{
			Path:    gh.String(strings.TrimPrefix(change.Path, "/")),
			Mode:    gh.String(blobMode),
			Type:    gh.String(blobType),
			Content: gh.String(change.Content),
		})
	}

	tree, _, err := p.client.Git.CreateTree(ctx, owner, name, baseCommit.GetTree().GetSHA(), entries)
	if err != nil {
		return "", fmt.Errorf("failed to create tree: %w", err)
	}

	commit, _, err := p.client.Git.CreateCommit(ctx, owner, name, &gh.Commit{
		Message: gh.String(input.CommitMessage),
		Tree:    tree,
		Parents: []*gh.Commit{{SHA: gh.String(input.BaseCommitID)}},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create commit: %w", err)
	}

	_, _, err = p.client.Git.UpdateRef(ctx, owner, name, &gh.Reference{
		Ref:    gh.String(entities.BranchRef(input.BranchName)),
		Object: &gh.GitObject{SHA: commit.SHA},
	}, false)
	if err != nil {
		return "", fmt.Errorf("failed to update branch: %w", err)
	}

	return commit.GetSHA(), nil
}

func (p *GitHubProviderRepository) CreatePullRequest(
	ctx context.Context,
	repo entities.Repository,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	pr, _, err := p.client.PullRequests.Create(ctx, repo.Organization, repo.Name, &gh.NewPullRequest{
		Title:               gh.String(input.Title),
		Head:                gh.String(entities.ShortBranchName(input.SourceBranch)),
		Base:                gh.String(entities.ShortBranchName(input.TargetBranch)),
		Body:                gh.String(input.Description),
		MaintainerCanModify: gh.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}

	return &entities.PullRequest{
		ID:     pr.GetNumber(),
		Title:  pr.GetTitle(),
		URL:    pr.GetHTMLURL(),
		Status: pr.GetState(),
	}, nil
}

func isNotFound(err error) bool {
	var responseErr *gh.ErrorResponse
	return errors.As(err, &responseErr) &&
		responseErr.Response != nil &&
		responseErr.Response.StatusCode == http.StatusNotFound
}
