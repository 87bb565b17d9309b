package azuredevops

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
	"github.com/rios0rios0/nugetupdater/internal/domain/repositories"
	"github.com/rios0rios0/nugetupdater/internal/infrastructure/repositories/httpclient"
)

const (
	providerName   = "azuredevops"
	defaultBaseURL = "https://dev.azure.com"
	requestTimeout = 60 * time.Second
)

// AzureDevOpsProviderRepository implements repositories.ProviderRepository for Azure DevOps.
type AzureDevOpsProviderRepository struct {
	token  string
	client *client
}

// NewProviderRepository creates a new Azure DevOps provider with the given personal access token.
func NewProviderRepository(token string) repositories.ProviderRepository {
	return NewProviderRepositoryWithBaseURL(token, defaultBaseURL, httpclient.New(requestTimeout))
}

// NewProviderRepositoryWithBaseURL targets another server (Azure DevOps Server, tests).
func NewProviderRepositoryWithBaseURL(
	token, baseURL string,
	httpClient *retryablehttp.Client,
) *AzureDevOpsProviderRepository {
	return &AzureDevOpsProviderRepository{
		token:  token,
		client: newClient(baseURL, token, httpClient),
	}
}

func (p *AzureDevOpsProviderRepository) Name() string      { return providerName }
func (p *AzureDevOpsProviderRepository) AuthToken() string { return p.token }

// DiscoverRepositories lists the repositories of an organization ("org") or of a
// single project ("org/project"). Disabled and empty repositories are skipped.
func (p *AzureDevOpsProviderRepository) DiscoverRepositories(
	ctx context.Context,
	org string,
) ([]entities.Repository, error) {
	orgName, projectName := splitScope(org)

	projects := []string{projectName}
	if projectName == "" {
		found, err := p.client.getProjects(ctx, orgName)
		if err != nil {
			return nil, fmt.Errorf("failed to list projects of %q: %w", orgName, err)
		}
		projects = projects[:0]
		for _, proj := range found {
			projects = append(projects, proj.Name)
		}
	}

	var allRepos []entities.Repository
	for _, proj := range projects {
		repos, err := p.client.getRepositories(ctx, orgName, proj)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories of %s/%s: %w", orgName, proj, err)
		}
		for _, r := range repos {
			if r.IsDisabled || r.DefaultBranch == "" {
				continue
			}
			allRepos = append(allRepos, entities.Repository{
				ID:            r.ID,
				Name:          r.Name,
				Organization:  orgName,
				Project:       r.Project.Name,
				DefaultBranch: r.DefaultBranch,
				RemoteURL:     r.RemoteURL,
				SSHURL:        r.SSHURL,
				ProviderName:  providerName,
			})
		}
	}

	return allRepos, nil
}

// splitScope accepts "org", "org/project" or an organization URL.
func splitScope(scope string) (string, string) {
	scope = strings.TrimSuffix(scope, "/")
	scope = strings.TrimPrefix(scope, defaultBaseURL+"/")
	orgName, projectName, _ := strings.Cut(scope, "/")
	return orgName, projectName
}

func (p *AzureDevOpsProviderRepository) ListFiles(
	ctx context.Context,
	repo entities.Repository,
) ([]entities.File, error) {
	items, err := p.client.getItems(
		ctx, repo.Organization, repo.Project, repo.ID, entities.ShortBranchName(repo.DefaultBranch),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	files := make([]entities.File, 0, len(items))
	for _, entry := range items {
		files = append(files, entities.File{
			Path:     entry.Path,
			ObjectID: entry.ObjectID,
			IsDir:    entry.IsFolder || entry.GitObjectType == "tree",
		})
	}
	return files, nil
}

func (p *AzureDevOpsProviderRepository) GetFileContent(
	ctx context.Context,
	repo entities.Repository,
	path string,
) (string, error) {
	content, err := p.client.getItemContent(
		ctx, repo.Organization, repo.Project, repo.ID, path, entities.ShortBranchName(repo.DefaultBranch),
	)
	if err != nil {
		return "", fmt.Errorf("failed to get file %q: %w", path, err)
	}
	return string(content), nil
}

func (p *AzureDevOpsProviderRepository) GetBranchHead(
	ctx context.Context,
	repo entities.Repository,
	branch string,
) (string, error) {
	found, err := p.client.getBranchRef(
		ctx, repo.Organization, repo.Project, repo.ID, entities.ShortBranchName(branch),
	)
	if errors.Is(err, errNotFound) {
		return "", fmt.Errorf("%w: %s", entities.ErrBranchNotFound, branch)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get branch %q: %w", branch, err)
	}
	return found.ObjectID, nil
}

func (p *AzureDevOpsProviderRepository) BranchExists(
	ctx context.Context,
	repo entities.Repository,
	branch string,
) (bool, error) {
	_, err := p.client.getBranchRef(ctx, repo.Organization, repo.Project, repo.ID, branch)
	if errors.Is(err, errNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get branch %q: %w", branch, err)
	}
	return true, nil
}

func (p *AzureDevOpsProviderRepository) CreateBranch(
	ctx context.Context,
	repo entities.Repository,
	branch, commitID string,
) error {
	if err := p.client.createRef(
		ctx, repo.Organization, repo.Project, repo.ID, entities.BranchRef(branch), commitID,
	); err != nil {
		return fmt.Errorf("failed to create branch %q: %w", branch, err)
	}
	return nil
}

func (p *AzureDevOpsProviderRepository) PushChanges(
	ctx context.Context,
	repo entities.Repository,
	input entities.PushInput,
) (string, error) {
	changes := make([]fileChange, 0, len(input.Changes))
	for _, change := range input.Changes {
		changes = append(changes, fileChange{
			Path:       "/" + strings.TrimPrefix(change.Path, "/"),
			Content:    change.Content,
			ChangeType: change.ChangeType,
		})
	}

	commitID, err := p.client.push(
		ctx, repo.Organization, repo.Project, repo.ID,
		entities.BranchRef(input.BranchName), input.BaseCommitID, input.CommitMessage, changes,
	)
	if err != nil {
		return "", fmt.Errorf("failed to push changes: %w", err)
	}
	return commitID, nil
}

func (p *AzureDevOpsProviderRepository) CreatePullRequest(
	ctx context.Context,
	repo entities.Repository,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	created, err := p.client.createPullRequest(ctx, repo.Organization, repo.Project, repo.ID, map[string]interface{}{
		"sourceRefName": entities.BranchRef(input.SourceBranch),
		"targetRefName": entities.BranchRef(input.TargetBranch),
		"title":         input.Title,
		"description":   input.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create PR: %w", err)
	}

	if input.AutoComplete {
		if autoErr := p.client.setAutoComplete(ctx, repo.Organization, repo.Project, repo.ID, created.ID); autoErr != nil {
			logger.Warnf("[%s] failed to set auto-complete on PR #%d: %v", providerName, created.ID, autoErr)
		}
	}

	return &entities.PullRequest{
		ID:     created.ID,
		Title:  created.Title,
		URL:    fmt.Sprintf("%s/pullrequest/%d", created.Repository.WebURL, created.ID),
		Status: created.Status,
	}, nil
}
