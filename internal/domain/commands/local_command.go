package commands

import (
	"context"
	"fmt"
	"path/filepath"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
	infraRepos "github.com/rios0rios0/nugetupdater/internal/infrastructure/repositories"
	"github.com/rios0rios0/nugetupdater/internal/infrastructure/repositories/localgit"
)

// Local is the interface for the local command (standalone mode).
type Local interface {
	Execute(ctx context.Context, opts LocalOptions) error
}

// LocalOptions holds runtime options for the local mode.
type LocalOptions struct {
	RepoDir     string
	DryRun      bool
	Verbose     bool
	Interactive bool
	Token       string
	Settings    *entities.Settings
}

// LocalCommand updates the NuGet packages of a local clone: it commits on a new
// branch, pushes it to origin and opens the pull request through the hosting
// provider detected from the remote URL.
type LocalCommand struct {
	providerRegistry *infraRepos.ProviderRegistry
	selectorRegistry *infraRepos.SelectorRegistry
	pipeline         Pipeline
}

// NewLocalCommand creates a new LocalCommand.
func NewLocalCommand(
	providerRegistry *infraRepos.ProviderRegistry,
	selectorRegistry *infraRepos.SelectorRegistry,
	pipeline Pipeline,
) *LocalCommand {
	return &LocalCommand{
		providerRegistry: providerRegistry,
		selectorRegistry: selectorRegistry,
		pipeline:         pipeline,
	}
}

// Execute is the entry point for the standalone local mode.
func (it *LocalCommand) Execute(ctx context.Context, opts LocalOptions) error {
	if opts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}
	settings := opts.Settings
	if settings == nil {
		settings = entities.DefaultSettings()
	}

	repoDir, err := filepath.Abs(opts.RepoDir)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	local, err := localgit.Open(repoDir)
	if err != nil {
		return err
	}

	remoteURL, err := local.RemoteURL()
	if err != nil {
		return fmt.Errorf("failed to detect git provider: %w", err)
	}
	remote, err := parseRemoteURL(remoteURL)
	if err != nil {
		return fmt.Errorf("failed to detect git provider: %w", err)
	}
	logger.Infof("Detected provider: %s, org: %s, repo: %s", remote.ProviderType, remote.Org, remote.RepoName)

	token := opts.Token
	if token == "" {
		token = resolveTokenFromEnv(remote.ProviderType)
	}
	if !opts.DryRun && token == "" {
		return fmt.Errorf(
			"no auth token found for %s; set --token or the appropriate env var (%s)",
			remote.ProviderType, tokenEnvHint(remote.ProviderType),
		)
	}

	// a dirty worktree must fail before any branch is created
	if !opts.DryRun {
		if err = local.EnsureClean(); err != nil {
			return err
		}
	}

	branch, err := local.CurrentBranch()
	if err != nil {
		return fmt.Errorf("failed to detect current branch: %w", err)
	}
	logger.Infof("Base branch: %s", branch)

	if !opts.DryRun {
		remoteProvider, providerErr := it.providerRegistry.Get(remote.ProviderType, token)
		if providerErr != nil {
			return fmt.Errorf("failed to create provider: %w", providerErr)
		}
		local.Attach(token, remoteProvider)
	}

	policy, err := entities.NewUpdatePolicy(settings.Ignore)
	if err != nil {
		return fmt.Errorf("failed to compile ignore rules: %w", err)
	}

	repo := entities.Repository{
		ID:            remote.RepoName,
		Name:          remote.RepoName,
		Organization:  remote.Org,
		Project:       remote.Project,
		DefaultBranch: entities.BranchRef(branch),
		RemoteURL:     remoteURL,
		ProviderName:  remote.ProviderType,
	}

	result, err := it.pipeline.Process(ctx, local, repo, settings, PipelineOptions{
		DryRun:   opts.DryRun,
		Policy:   policy,
		Selector: it.selectorRegistry.Get(opts.Interactive),
	})
	if err != nil {
		return err
	}
	if result.Outcome == OutcomePublicationFailed {
		return result.Publication.Err
	}
	return nil
}
