package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
	"github.com/rios0rios0/nugetupdater/internal/domain/repositories"
	"github.com/rios0rios0/nugetupdater/internal/infrastructure/repositories/httpclient"
)

const (
	providerName = "gitlab"
	perPage      = 100
)

var errClientNotInitialized = errors.New("gitlab client not initialized")

// GitLabProviderRepository implements repositories.ProviderRepository for GitLab.
type GitLabProviderRepository struct {
	token  string
	client *gl.Client
}

// NewProviderRepository creates a new GitLab provider with the given token.
func NewProviderRepository(token string) repositories.ProviderRepository {
	client, err := gl.NewClient(token, gl.WithHTTPClient(httpclient.Standard(0)))
	if err != nil {
		// fail on use rather than at construction
		return &GitLabProviderRepository{token: token}
	}
	return NewProviderRepositoryWithClient(token, client)
}

// NewProviderRepositoryWithClient wraps an already configured client (self-managed instances, tests).
func NewProviderRepositoryWithClient(token string, client *gl.Client) *GitLabProviderRepository {
	return &GitLabProviderRepository{token: token, client: client}
}

func (p *GitLabProviderRepository) Name() string      { return providerName }
func (p *GitLabProviderRepository) AuthToken() string { return p.token }

// DiscoverRepositories lists all projects in a GitLab group, including subgroups.
func (p *GitLabProviderRepository) DiscoverRepositories(
	ctx context.Context,
	group string,
) ([]entities.Repository, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	var allRepos []entities.Repository
	opts := &gl.ListGroupProjectsOptions{
		ListOptions:      gl.ListOptions{PerPage: perPage},
		IncludeSubGroups: gl.Ptr(true),
		Archived:         gl.Ptr(false),
	}

	for {
		projects, resp, err := p.client.Groups.ListGroupProjects(group, opts, gl.WithContext(ctx))
		if err != nil {
			// not a group, fall back to the projects owned by the user
			return p.discoverUserProjects(ctx, group)
		}

		allRepos = appendProjects(allRepos, group, projects)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allRepos, nil
}

func (p *GitLabProviderRepository) discoverUserProjects(
	ctx context.Context,
	user string,
) ([]entities.Repository, error) {
	var allRepos []entities.Repository
	opts := &gl.ListProjectsOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
		Owned:       gl.Ptr(true),
		Archived:    gl.Ptr(false),
	}

	for {
		projects, resp, err := p.client.Projects.ListProjects(opts, gl.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list projects for %q: %w", user, err)
		}

		allRepos = appendProjects(allRepos, user, projects)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allRepos, nil
}

func appendProjects(allRepos []entities.Repository, owner string, projects []*gl.Project) []entities.Repository {
	for _, proj := range projects {
		if proj.EmptyRepo {
			continue
		}
		defaultBranch := "main"
		if proj.DefaultBranch != "" {
			defaultBranch = proj.DefaultBranch
		}
		namespace := owner
		if proj.Namespace != nil && proj.Namespace.FullPath != "" {
			namespace = proj.Namespace.FullPath
		}
		allRepos = append(allRepos, entities.Repository{
			ID:            strconv.FormatInt(proj.ID, 10),
			Name:          proj.Path,
			Organization:  namespace,
			DefaultBranch: entities.BranchRef(defaultBranch),
			RemoteURL:     proj.HTTPURLToRepo,
			SSHURL:        proj.SSHURLToRepo,
			ProviderName:  providerName,
		})
	}
	return allRepos
}

func projectID(repo entities.Repository) string {
	return repo.Organization + "/" + repo.Name
}

func (p *GitLabProviderRepository) ListFiles(
	ctx context.Context,
	repo entities.Repository,
) ([]entities.File, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	var allFiles []entities.File
	opts := &gl.ListTreeOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
		Ref:         gl.Ptr(entities.ShortBranchName(repo.DefaultBranch)),
		Recursive:   gl.Ptr(true),
	}

	for {
		nodes, resp, err := p.client.Repositories.ListTree(projectID(repo), opts, gl.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list tree: %w", err)
		}

		for _, node := range nodes {
			allFiles = append(allFiles, entities.File{
				Path:     node.Path,
				ObjectID: node.ID,
				IsDir:    node.Type == "tree",
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return allFiles, nil
}

func (p *GitLabProviderRepository) GetFileContent(
	ctx context.Context,
	repo entities.Repository,
	path string,
) (string, error) {
	if p.client == nil {
		return "", errClientNotInitialized
	}

	raw, _, err := p.client.RepositoryFiles.GetRawFile(
		projectID(repo), strings.TrimPrefix(path, "/"),
		&gl.GetRawFileOptions{Ref: gl.Ptr(entities.ShortBranchName(repo.DefaultBranch))},
		gl.WithContext(ctx),
	)
	if err != nil {
		return "", fmt.Errorf("failed to get file %q: %w", path, err)
	}
	return string(raw), nil
}

func (p *GitLabProviderRepository) GetBranchHead(
	ctx context.Context,
	repo entities.Repository,
	branch string,
) (string, error) {
	if p.client == nil {
		return "", errClientNotInitialized
	}

	found, resp, err := p.client.Branches.GetBranch(
		projectID(repo), entities.ShortBranchName(branch), gl.WithContext(ctx),
	)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%w: %s", entities.ErrBranchNotFound, branch)
		}
		return "", fmt.Errorf("failed to get branch %q: %w", branch, err)
	}
	if found.Commit == nil {
		return "", fmt.Errorf("branch %q has no commit", branch)
	}
	return found.Commit.ID, nil
}

func (p *GitLabProviderRepository) BranchExists(
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

func (p *GitLabProviderRepository) CreateBranch(
	ctx context.Context,
	repo entities.Repository,
	branch, commitID string,
) error {
	if p.client == nil {
		return errClientNotInitialized
	}

	_, _, err := p.client.Branches.CreateBranch(projectID(repo), &gl.CreateBranchOptions{
		Branch: gl.Ptr(entities.ShortBranchName(branch)),
		Ref:    gl.Ptr(commitID),
	}, gl.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to create branch: %w", err)
	}
	return nil
}

func (p *GitLabProviderRepository) PushChanges(
	ctx context.Context,
	repo entities.Repository,
	input entities.PushInput,
) (string, error) {
	if p.client == nil {
		return "", errClientNotInitialized
	}

	actions := make([]*gl.CommitActionOptions, 0, len(input.Changes))
	for _, change := range input.Changes {
		action := gl.FileUpdate
		if change.ChangeType == "add" {
			action = gl.FileCreate
		}
		actions = append(actions, &gl.CommitActionOptions{
			Action:   gl.Ptr(action),
			FilePath: gl.Ptr(strings.TrimPrefix(change.Path, "/")),
			Content:  gl.Ptr(change.Content),
		})
	}

	commit, _, err := p.client.Commits.CreateCommit(projectID(repo), &gl.CreateCommitOptions{
		Branch:        gl.Ptr(entities.ShortBranchName(input.BranchName)),
		CommitMessage: gl.Ptr(input.CommitMessage),
		Actions:       actions,
	}, gl.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to create commit: %w", err)
	}
	return commit.ID, nil
}

func (p *GitLabProviderRepository) CreatePullRequest(
	ctx context.Context,
	repo entities.Repository,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	if p.client == nil {
		return nil, errClientNotInitialized
	}

	mr, _, err := p.client.MergeRequests.CreateMergeRequest(projectID(repo), &gl.CreateMergeRequestOptions{
		Title:              gl.Ptr(input.Title),
		Description:        gl.Ptr(input.Description),
		SourceBranch:       gl.Ptr(entities.ShortBranchName(input.SourceBranch)),
		TargetBranch:       gl.Ptr(entities.ShortBranchName(input.TargetBranch)),
		RemoveSourceBranch: gl.Ptr(true),
	}, gl.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to create merge request: %w", err)
	}

	return &entities.PullRequest{
		ID:     int(mr.IID),
		Title:  mr.Title,
		URL:    mr.WebURL,
		Status: mr.State,
	}, nil
}
