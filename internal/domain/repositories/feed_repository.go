package repositories

import (
	"context"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
)

// FeedRepository queries a package feed.
type FeedRepository interface {
	// ListVersions returns every published version of a package, prereleases
	// included. An unknown package yields an empty list. Failures wrap
	// entities.ErrFeedUnreachable or entities.ErrFeedMalformedResponse.
	ListVersions(ctx context.Context, feed entities.FeedEndpoint, id string) ([]entities.Version, error)
}
