//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
	"github.com/rios0rios0/nugetupdater/internal/domain/repositories"
)

// StubFeedRepository answers version queries from canned data keyed by feed URI
// and lower-cased package id.
type StubFeedRepository struct {
	mu sync.Mutex

	Versions map[string]map[string][]string // feed URI -> package key -> versions
	Errs     map[string]error               // feed URI -> error returned for every query
	Blocking map[string]bool                // feed URI -> wait for ctx cancellation

	CallCount int
	Queries   []string // "feedURI|id"
}

var _ repositories.FeedRepository = (*StubFeedRepository)(nil)

func (s *StubFeedRepository) ListVersions(
	ctx context.Context,
	feed entities.FeedEndpoint,
	id string,
) ([]entities.Version, error) {
	s.mu.Lock()
	s.CallCount++
	s.Queries = append(s.Queries, feed.URI+"|"+id)
	blocking := s.Blocking[feed.URI]
	err := s.Errs[feed.URI]
	raw := s.Versions[feed.URI][entities.PackageKey(id)]
	s.mu.Unlock()

	if blocking {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}

	versions := make([]entities.Version, 0, len(raw))
	for _, value := range raw {
		versions = append(versions, entities.MustParseVersion(value))
	}
	return versions, nil
}
