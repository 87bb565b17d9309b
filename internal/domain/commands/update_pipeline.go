package commands

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
	"github.com/rios0rios0/nugetupdater/internal/domain/repositories"
)

// RepositoryOutcome summarizes what happened to one repository.
type RepositoryOutcome string

const (
	OutcomeNoManifests        RepositoryOutcome = "no-manifests"
	OutcomeUpToDate           RepositoryOutcome = "up-to-date"
	OutcomeDryRun             RepositoryOutcome = "dry-run"
	OutcomeNothingSelected    RepositoryOutcome = "nothing-selected"
	OutcomeNoEffectiveChanges RepositoryOutcome = "no-effective-changes"
	OutcomePublished          RepositoryOutcome = "published"
	OutcomePublicationFailed  RepositoryOutcome = "publication-failed"
)

// Pipeline is the interface for processing a single repository.
type Pipeline interface {
	Process(
		ctx context.Context,
		provider repositories.ProviderRepository,
		repo entities.Repository,
		settings *entities.Settings,
		opts PipelineOptions,
	) (*RepositoryResult, error)
}

// PipelineOptions holds the per-run knobs of a repository pass.
type PipelineOptions struct {
	DryRun   bool
	Policy   *entities.UpdatePolicy
	Selector repositories.SelectorRepository
}

// RepositoryResult reports one repository pass.
type RepositoryResult struct {
	Repository   entities.Repository
	Outcome      RepositoryOutcome
	Updates      []entities.ResolvedUpdate
	Selected     []entities.ResolvedUpdate
	ChangeSet    entities.ChangeSet
	Publication  *entities.PublicationResult
	FileFailures []error
	FeedFailures []FeedFailure
}

// ErrorCount is the number of local failures recorded during the pass.
func (r *RepositoryResult) ErrorCount() int {
	count := len(r.FileFailures) + len(r.FeedFailures)
	if r.Outcome == OutcomePublicationFailed {
		count++
	}
	return count
}

// UpdatePipeline runs manifest retrieval, parsing, feed resolution, version
// resolution, selection, composition and publication for one repository.
type UpdatePipeline struct {
	resolver  Resolver
	publisher Publisher
}

// NewUpdatePipeline creates a new UpdatePipeline.
func NewUpdatePipeline(resolver Resolver, publisher Publisher) *UpdatePipeline {
	return &UpdatePipeline{resolver: resolver, publisher: publisher}
}

// repositoryFiles is the classification of a repository listing.
type repositoryFiles struct {
	manifests  []entities.ManifestDocument
	feedConfig string
}

// Process runs one repository pass. The returned error is non-nil only when the
// pass could not run at all (listing failed, selection aborted, ctx cancelled);
// local failures are recorded in the result.
func (it *UpdatePipeline) Process(
	ctx context.Context,
	provider repositories.ProviderRepository,
	repo entities.Repository,
	settings *entities.Settings,
	opts PipelineOptions,
) (*RepositoryResult, error) {
	result := &RepositoryResult{Repository: repo}
	name := repo.FullName()

	files, err := provider.ListFiles(ctx, repo)
	if err != nil {
		return result, fmt.Errorf("failed to list files of %s: %w", name, err)
	}

	classified := classifyFiles(files, settings.Manifests)
	if len(classified.manifests) == 0 {
		logger.Infof("[%s] no .NET manifests found", name)
		result.Outcome = OutcomeNoManifests
		return result, nil
	}

	documents, fetchFailures, err := it.fetchManifests(ctx, provider, repo, classified.manifests, settings)
	if err != nil {
		return result, err
	}
	result.FileFailures = append(result.FileFailures, fetchFailures...)

	parsed, dependencies, parseFailures := parseDocuments(name, documents)
	result.FileFailures = append(result.FileFailures, parseFailures...)

	feeds := it.resolveFeeds(ctx, provider, repo, classified.feedConfig)
	feeds = entities.ApplyFeedCredentials(feeds, settings.Feeds.Credentials)
	logger.Debugf("[%s] %d dependencies, %d feed(s)", name, len(dependencies), len(feeds))

	resolved, err := it.resolver.Resolve(ctx, dependencies, feeds, ResolveOptions{
		Timeout:     settings.Feeds.Timeout,
		Concurrency: settings.Feeds.Concurrency,
		Policy:      opts.Policy,
	})
	if err != nil {
		return result, fmt.Errorf("failed to resolve versions of %s: %w", name, err)
	}
	result.Updates = resolved.Updates
	result.FeedFailures = resolved.Failures

	if len(result.Updates) == 0 {
		logger.Infof("[%s] all packages are up to date", name)
		result.Outcome = OutcomeUpToDate
		return result, nil
	}

	if opts.DryRun {
		for _, update := range result.Updates {
			logger.Infof("[%s] [dry-run] %s %s -> %s (%s)",
				name, update.ID, update.CurrentVersion, update.LatestVersion, update.Feed.URI)
		}
		result.Outcome = OutcomeDryRun
		return result, nil
	}

	selected, err := opts.Selector.SelectUpdates(ctx, repo, result.Updates)
	if err != nil {
		return result, fmt.Errorf("failed to select updates of %s: %w", name, err)
	}
	result.Selected = selected
	if len(selected) == 0 {
		logger.Infof("[%s] no update selected", name)
		result.Outcome = OutcomeNothingSelected
		return result, nil
	}

	changeSet, err := entities.ComposeChanges(selected, parsed)
	if err != nil {
		return result, fmt.Errorf("failed to compose changes of %s: %w", name, err)
	}
	if changeSet.IsEmpty() {
		logger.Infof("[%s] selected updates produce no file change", name)
		result.Outcome = OutcomeNoEffectiveChanges
		return result, nil
	}
	if settings.Publication.Changelog {
		changeSet = appendChangelog(ctx, provider, repo, changeSet, selected)
	}
	result.ChangeSet = changeSet

	// a cancelled pass must never reach publication
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}

	baseBranch := repo.DefaultBranch
	if settings.Publication.TargetBranch != "" {
		baseBranch = settings.Publication.TargetBranch
	}

	publication := it.publisher.Publish(ctx, provider, repo, entities.PublicationTransaction{
		BranchPrefix:           settings.Publication.BranchPrefix,
		BaseBranch:             baseBranch,
		ChangeSet:              changeSet,
		CommitMessage:          settings.Publication.CommitMessage,
		PullRequestTitle:       settings.Publication.PullRequestTitle,
		PullRequestDescription: entities.PullRequestDescription(selected),
		AutoComplete:           settings.Publication.AutoComplete,
	})
	result.Publication = &publication

	switch publication.Outcome {
	case entities.OutcomeDone:
		result.Outcome = OutcomePublished
		logger.Infof("[%s] created PR #%d: %s (%s)",
			name, publication.PullRequest.ID, publication.PullRequest.Title, publication.PullRequest.URL)
	case entities.OutcomeNoEffectiveChanges:
		result.Outcome = OutcomeNoEffectiveChanges
	default:
		result.Outcome = OutcomePublicationFailed
		logger.Errorf("[%s] publication failed: %v", name, publication.Err)
		if publication.OrphanBranch() {
			logger.Warnf("[%s] branch %q was left without a pull request", name, publication.Branch)
		}
	}

	return result, nil
}

func classifyFiles(files []entities.File, settings entities.ManifestSettings) repositoryFiles {
	var classified repositoryFiles
	for _, file := range files {
		if file.IsDir {
			continue
		}
		filePath := strings.TrimPrefix(file.Path, "/")
		base := path.Base(filePath)

		switch {
		case strings.EqualFold(base, settings.FeedConfig):
			// the configuration closest to the repository root wins
			if classified.feedConfig == "" || depth(filePath) < depth(classified.feedConfig) {
				classified.feedConfig = file.Path
			}
		case strings.EqualFold(base, settings.CentralFile):
			classified.manifests = append(classified.manifests, entities.ManifestDocument{
				Path: file.Path,
				Kind: entities.CentralVersionFile,
			})
		case matchesAny(settings.ProjectPatterns, filePath):
			classified.manifests = append(classified.manifests, entities.ManifestDocument{
				Path: file.Path,
				Kind: entities.ProjectManifest,
			})
		}
	}

	sort.SliceStable(classified.manifests, func(i, j int) bool {
		return classified.manifests[i].Path < classified.manifests[j].Path
	})
	return classified
}

func matchesAny(patterns []string, filePath string) bool {
	lowered := strings.ToLower(filePath)
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(strings.ToLower(pattern), lowered); err == nil && ok {
			return true
		}
	}
	return false
}

func depth(filePath string) int {
	return strings.Count(strings.Trim(filePath, "/"), "/")
}

// fetchManifests downloads every manifest concurrently. A file that cannot be
// fetched is reported and skipped.
func (it *UpdatePipeline) fetchManifests(
	ctx context.Context,
	provider repositories.ProviderRepository,
	repo entities.Repository,
	manifests []entities.ManifestDocument,
	settings *entities.Settings,
) ([]entities.ManifestDocument, []error, error) {
	documents := make([]entities.ManifestDocument, len(manifests))
	failures := make([]error, len(manifests))

	group, groupCtx := errgroup.WithContext(ctx)
	if settings.Feeds.Concurrency > 0 {
		group.SetLimit(settings.Feeds.Concurrency)
	}
	for i, manifest := range manifests {
		group.Go(func() error {
			content, err := provider.GetFileContent(groupCtx, repo, manifest.Path)
			if err != nil {
				failures[i] = fmt.Errorf("failed to fetch %s: %w", manifest.Path, err)
				return nil
			}
			manifest.Content = []byte(content)
			documents[i] = manifest
			return nil
		})
	}
	_ = group.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	fetched := make([]entities.ManifestDocument, 0, len(documents))
	var errs []error
	for i := range manifests {
		if failures[i] != nil {
			logger.Errorf("[%s] %v", repo.FullName(), failures[i])
			errs = append(errs, failures[i])
			continue
		}
		fetched = append(fetched, documents[i])
	}
	return fetched, errs, nil
}

// parseDocuments parses each manifest, dropping malformed ones from both the
// dependency list and the documents later handed to the composer.
func parseDocuments(
	name string,
	documents []entities.ManifestDocument,
) ([]entities.ManifestDocument, []entities.Dependency, []error) {
	var parsed []entities.ManifestDocument
	var dependencies []entities.Dependency
	var failures []error

	for _, document := range documents {
		declared, err := entities.ParseManifest(document)
		if err != nil {
			logger.Errorf("[%s] skipping %s: %v", name, document.Path, err)
			failures = append(failures, err)
			continue
		}
		parsed = append(parsed, document)
		dependencies = append(dependencies, declared...)
	}
	return parsed, dependencies, failures
}

func (it *UpdatePipeline) resolveFeeds(
	ctx context.Context,
	provider repositories.ProviderRepository,
	repo entities.Repository,
	feedConfigPath string,
) []entities.FeedEndpoint {
	if feedConfigPath == "" {
		return entities.DefaultFeeds()
	}

	content, err := provider.GetFileContent(ctx, repo, feedConfigPath)
	if err != nil {
		logger.Warnf("[%s] failed to fetch %s, using the default feed: %v", repo.FullName(), feedConfigPath, err)
		return entities.DefaultFeeds()
	}

	feeds, err := entities.ResolveFeeds([]byte(content), true)
	if err != nil {
		logger.Warnf("[%s] %s: %v; using the default feed", repo.FullName(), feedConfigPath, err)
		return entities.DefaultFeeds()
	}
	return feeds
}

func appendChangelog(
	ctx context.Context,
	provider repositories.ProviderRepository,
	repo entities.Repository,
	changeSet entities.ChangeSet,
	selected []entities.ResolvedUpdate,
) entities.ChangeSet {
	content, err := provider.GetFileContent(ctx, repo, entities.ChangelogPath)
	if err != nil {
		logger.Debugf("[%s] no %s, skipping changelog entry", repo.FullName(), entities.ChangelogPath)
		return changeSet
	}

	updated := entities.InsertChangelogEntry(content, entities.ChangelogEntries(selected))
	if updated == content {
		return changeSet
	}

	changeSet.Changes = append(changeSet.Changes, entities.FileChange{
		Path:       entities.ChangelogPath,
		Content:    updated,
		ChangeType: "edit",
	})
	return changeSet
}

// IsSelectionAborted reports whether err comes from an operator aborting a prompt.
func IsSelectionAborted(err error) bool {
	return errors.Is(err, entities.ErrSelectionAborted)
}
