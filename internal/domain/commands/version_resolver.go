package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
	"github.com/rios0rios0/nugetupdater/internal/domain/repositories"
)

// Resolver is the interface for the version resolution step.
type Resolver interface {
	Resolve(
		ctx context.Context,
		dependencies []entities.Dependency,
		feeds []entities.FeedEndpoint,
		opts ResolveOptions,
	) (*ResolveResult, error)
}

// ResolveOptions bounds and filters feed queries.
type ResolveOptions struct {
	Timeout     time.Duration
	Concurrency int
	Policy      *entities.UpdatePolicy
}

// FeedFailure records one (package, feed) query that could not be answered.
type FeedFailure struct {
	ID   string
	Feed entities.FeedEndpoint
	Err  error
}

// ResolveResult is the outcome of resolving one repository's dependencies.
type ResolveResult struct {
	Updates  []entities.ResolvedUpdate
	Failures []FeedFailure
	Queries  int
}

// VersionResolver finds the newest eligible stable version of each declared package
// across all feeds. Every (package, feed) pair is queried once per call, concurrently.
type VersionResolver struct {
	feedRepository repositories.FeedRepository
}

// NewVersionResolver creates a new VersionResolver.
func NewVersionResolver(feedRepository repositories.FeedRepository) *VersionResolver {
	return &VersionResolver{feedRepository: feedRepository}
}

type feedQuery struct {
	id        string
	feed      entities.FeedEndpoint
	feedIndex int
}

// Resolve queries every feed for every distinct package id. A failing pair is
// reported in ResolveResult.Failures and never stops the others; only a
// cancelled ctx aborts the call.
func (it *VersionResolver) Resolve(
	ctx context.Context,
	dependencies []entities.Dependency,
	feeds []entities.FeedEndpoint,
	opts ResolveOptions,
) (*ResolveResult, error) {
	var queries []feedQuery
	for _, baseline := range entities.Baselines(dependencies) {
		for index, feed := range feeds {
			queries = append(queries, feedQuery{id: baseline.ID, feed: feed, feedIndex: index})
		}
	}

	candidates := make([]*entities.FeedCandidate, len(queries))
	failures := make([]error, len(queries))

	group, groupCtx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		group.SetLimit(opts.Concurrency)
	}
	for i, query := range queries {
		group.Go(func() error {
			candidates[i], failures[i] = it.query(groupCtx, query, opts)
			return nil
		})
	}
	_ = group.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &ResolveResult{Queries: len(queries)}
	var found []entities.FeedCandidate
	for i, query := range queries {
		if failures[i] != nil {
			logger.Warnf("[resolver] %s on %s: %v", query.id, query.feed.URI, failures[i])
			result.Failures = append(result.Failures, FeedFailure{
				ID:   query.id,
				Feed: query.feed,
				Err:  failures[i],
			})
			continue
		}
		if candidates[i] != nil {
			found = append(found, *candidates[i])
		}
	}

	result.Updates = entities.BuildUpdateSet(dependencies, found)
	return result, nil
}

func (it *VersionResolver) query(
	ctx context.Context,
	query feedQuery,
	opts ResolveOptions,
) (*entities.FeedCandidate, error) {
	queryCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	versions, err := it.feedRepository.ListVersions(queryCtx, query.feed, query.id)
	if err != nil {
		if ctx.Err() == nil && errors.Is(queryCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", entities.ErrFeedUnreachable, opts.Timeout)
		}
		return nil, err
	}

	eligible := make([]entities.Version, 0, len(versions))
	for _, version := range versions {
		if version.IsPrerelease() || !opts.Policy.Allows(query.id, version) {
			continue
		}
		eligible = append(eligible, version)
	}

	latest, ok := entities.MaxVersion(eligible)
	if !ok {
		return nil, nil //nolint:nilnil // no stable version on this feed
	}

	logger.Debugf("[resolver] %s: latest stable on %s is %s", query.id, query.feed.URI, latest)
	return &entities.FeedCandidate{
		ID:        query.id,
		Latest:    latest,
		Feed:      query.feed,
		FeedIndex: query.feedIndex,
	}, nil
}
