//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
)

// ResolvedUpdateBuilder helps create resolved updates with a fluent interface.
type ResolvedUpdateBuilder struct {
	*testkit.BaseBuilder
	id      string
	current string
	latest  string
	feed    entities.FeedEndpoint
}

// NewResolvedUpdateBuilder creates a new builder defaulting to a nuget.org update.
func NewResolvedUpdateBuilder() *ResolvedUpdateBuilder {
	return &ResolvedUpdateBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		id:          "Newtonsoft.Json",
		current:     "12.0.0",
		latest:      "13.0.1",
		feed:        entities.DefaultFeeds()[0],
	}
}

func (b *ResolvedUpdateBuilder) WithID(id string) *ResolvedUpdateBuilder {
	b.id = id
	return b
}

func (b *ResolvedUpdateBuilder) WithCurrentVersion(version string) *ResolvedUpdateBuilder {
	b.current = version
	return b
}

func (b *ResolvedUpdateBuilder) WithLatestVersion(version string) *ResolvedUpdateBuilder {
	b.latest = version
	return b
}

func (b *ResolvedUpdateBuilder) WithFeed(name, uri string) *ResolvedUpdateBuilder {
	b.feed = entities.FeedEndpoint{Name: name, URI: uri}
	return b
}

// Build creates the update (satisfies testkit.Builder interface).
func (b *ResolvedUpdateBuilder) Build() interface{} {
	return b.BuildUpdate()
}

// BuildUpdate creates the update with a concrete return type.
func (b *ResolvedUpdateBuilder) BuildUpdate() entities.ResolvedUpdate {
	return entities.ResolvedUpdate{
		ID:             b.id,
		CurrentVersion: entities.MustParseVersion(b.current),
		LatestVersion:  entities.MustParseVersion(b.latest),
		Feed:           b.feed,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *ResolvedUpdateBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.id = "Newtonsoft.Json"
	b.current = "12.0.0"
	b.latest = "13.0.1"
	b.feed = entities.DefaultFeeds()[0]
	return b
}

// Clone creates a deep copy of the ResolvedUpdateBuilder.
func (b *ResolvedUpdateBuilder) Clone() testkit.Builder {
	return &ResolvedUpdateBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		id:          b.id,
		current:     b.current,
		latest:      b.latest,
		feed:        b.feed,
	}
}
