package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
	"github.com/rios0rios0/nugetupdater/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/nugetupdater/internal/infrastructure/repositories"
)

var errNothingDiscovered = errors.New("no repository could be discovered from any configured provider")

// Run is the interface for the run command (batch mode).
type Run interface {
	Execute(ctx context.Context, settings *entities.Settings, opts RunOptions) error
}

// RunOptions holds runtime options for a single run.
type RunOptions struct {
	DryRun       bool
	Verbose      bool
	Interactive  bool
	ProviderName string // If set, only process this provider (CLI override)
	OrgOverride  string // If set, only process this org (CLI override)
	RepoFilter   string // If set, only process repositories whose name matches this glob
}

// RunSummary aggregates the outcome of a run.
type RunSummary struct {
	Repositories int
	PullRequests int
	Errors       int
}

// RunCommand orchestrates the batch flow:
// discover repositories -> select -> run the update pipeline on each one.
type RunCommand struct {
	providerRegistry *infraRepos.ProviderRegistry
	selectorRegistry *infraRepos.SelectorRegistry
	pipeline         Pipeline
}

// NewRunCommand creates a new RunCommand.
func NewRunCommand(
	providerRegistry *infraRepos.ProviderRegistry,
	selectorRegistry *infraRepos.SelectorRegistry,
	pipeline Pipeline,
) *RunCommand {
	return &RunCommand{
		providerRegistry: providerRegistry,
		selectorRegistry: selectorRegistry,
		pipeline:         pipeline,
	}
}

// Execute runs the full update cycle using the provided configuration. Failures
// local to a repository are logged and counted; an error is returned only when
// nothing could be discovered, the operator aborted, or ctx was cancelled.
func (it *RunCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	runOpts RunOptions,
) error {
	if runOpts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	policy, err := entities.NewUpdatePolicy(settings.Ignore)
	if err != nil {
		return fmt.Errorf("failed to compile ignore rules: %w", err)
	}
	selector := it.selectorRegistry.Get(runOpts.Interactive)
	pipelineOpts := PipelineOptions{DryRun: runOpts.DryRun, Policy: policy, Selector: selector}

	summary := RunSummary{}
	attempts, discovered := 0, 0

	for _, provCfg := range settings.Providers {
		if runOpts.ProviderName != "" && provCfg.Type != runOpts.ProviderName {
			continue
		}

		provider, providerErr := it.providerRegistry.Get(provCfg.Type, provCfg.Token)
		if providerErr != nil {
			logger.Errorf("Failed to initialize provider %q: %v", provCfg.Type, providerErr)
			summary.Errors++
			continue
		}

		logger.Infof("Processing provider: %s", provider.Name())

		for _, org := range provCfg.Organizations {
			if runOpts.OrgOverride != "" && org != runOpts.OrgOverride {
				continue
			}

			attempts++
			logger.Infof("Discovering repositories in %q...", org)
			repos, discoverErr := provider.DiscoverRepositories(ctx, org)
			if discoverErr != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Errorf("Failed to discover repos in %q: %v", org, discoverErr)
				summary.Errors++
				continue
			}
			discovered++

			repos = filterRepositories(repos, runOpts.RepoFilter)
			logger.Infof("Found %d repositories in %q", len(repos), org)

			if runErr := it.processOrganization(ctx, provider, repos, settings, pipelineOpts, &summary); runErr != nil {
				return runErr
			}
		}
	}

	logger.Infof(
		"Run complete: %d repos processed, %d PRs created, %d errors",
		summary.Repositories, summary.PullRequests, summary.Errors,
	)

	if attempts > 0 && discovered == 0 {
		return errNothingDiscovered
	}
	return nil
}

func (it *RunCommand) processOrganization(
	ctx context.Context,
	provider repositories.ProviderRepository,
	repos []entities.Repository,
	settings *entities.Settings,
	opts PipelineOptions,
	summary *RunSummary,
) error {
	if len(repos) == 0 {
		return nil
	}

	chosen, err := opts.Selector.SelectRepositories(ctx, repos)
	if err != nil {
		return fmt.Errorf("failed to select repositories: %w", err)
	}

	for _, repo := range chosen {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		summary.Repositories++
		result, processErr := it.pipeline.Process(ctx, provider, repo, settings, opts)
		if processErr != nil {
			if ctx.Err() != nil || IsSelectionAborted(processErr) {
				return processErr
			}
			logger.Errorf("Failed to update %s: %v", repo.FullName(), processErr)
			summary.Errors++
			continue
		}

		summary.Errors += result.ErrorCount()
		if result.Outcome == OutcomePublished {
			summary.PullRequests++
		}
	}
	return nil
}

func filterRepositories(repos []entities.Repository, pattern string) []entities.Repository {
	if pattern == "" {
		return repos
	}

	filtered := make([]entities.Repository, 0, len(repos))
	for _, repo := range repos {
		matched, err := doublestar.Match(strings.ToLower(pattern), strings.ToLower(repo.Name))
		if err == nil && matched {
			filtered = append(filtered, repo)
		}
	}
	return filtered
}
