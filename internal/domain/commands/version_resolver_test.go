//go:build unit

package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/nugetupdater/internal/domain/commands"
	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
	builders "github.com/rios0rios0/nugetupdater/test/domain/entitybuilders"
	doubles "github.com/rios0rios0/nugetupdater/test/infrastructure/repositorydoubles"
)

const (
	feedA = "https://feed-a.example.com/v3/index.json"
	feedB = "https://feed-b.example.com/v3/index.json"
)

func twoFeeds() []entities.FeedEndpoint {
	return []entities.FeedEndpoint{
		{Name: "a", URI: feedA},
		{Name: "b", URI: feedB},
	}
}

func TestVersionResolverResolve(t *testing.T) {
	t.Parallel()

	t.Run("should propose the newest stable version and ignore prereleases", func(t *testing.T) {
		t.Parallel()

		// given
		feed := &doubles.StubFeedRepository{Versions: map[string]map[string][]string{
			entities.DefaultFeedURI: {"newtonsoft.json": {"12.0.0", "13.0.1", "13.1.0-preview"}},
		}}
		resolver := commands.NewVersionResolver(feed)
		dependencies := []entities.Dependency{builders.NewDependencyBuilder().BuildDependency()}

		// when
		result, err := resolver.Resolve(context.Background(), dependencies, entities.DefaultFeeds(), commands.ResolveOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, result.Updates, 1)
		assert.Equal(t, "Newtonsoft.Json", result.Updates[0].ID)
		assert.Equal(t, "12.0.0", result.Updates[0].CurrentVersion.String())
		assert.Equal(t, "13.0.1", result.Updates[0].LatestVersion.String())
		assert.Empty(t, result.Failures)
	})

	t.Run("should propose nothing when a feed only has prereleases", func(t *testing.T) {
		t.Parallel()

		// given
		feed := &doubles.StubFeedRepository{Versions: map[string]map[string][]string{
			entities.DefaultFeedURI: {"newtonsoft.json": {"14.0.0-beta1", "14.0.0-rc.2"}},
		}}
		resolver := commands.NewVersionResolver(feed)
		dependencies := []entities.Dependency{builders.NewDependencyBuilder().BuildDependency()}

		// when
		result, err := resolver.Resolve(context.Background(), dependencies, entities.DefaultFeeds(), commands.ResolveOptions{})

		// then
		require.NoError(t, err)
		assert.Empty(t, result.Updates)
		assert.Empty(t, result.Failures)
	})

	t.Run("should use the remaining feeds when one feed fails", func(t *testing.T) {
		t.Parallel()

		// given
		feed := &doubles.StubFeedRepository{
			Errs: map[string]error{feedA: entities.ErrFeedUnreachable},
			Versions: map[string]map[string][]string{
				feedB: {"serilog": {"2.10.0", "3.1.1"}},
			},
		}
		resolver := commands.NewVersionResolver(feed)
		dependencies := []entities.Dependency{
			builders.NewDependencyBuilder().WithID("Serilog").WithVersion("2.10.0").InCentralFile().BuildDependency(),
		}

		// when
		result, err := resolver.Resolve(context.Background(), dependencies, twoFeeds(), commands.ResolveOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, result.Updates, 1)
		assert.Equal(t, "3.1.1", result.Updates[0].LatestVersion.String())
		assert.Equal(t, feedB, result.Updates[0].Feed.URI)
		require.Len(t, result.Failures, 1)
		assert.Equal(t, feedA, result.Failures[0].Feed.URI)
		assert.ErrorIs(t, result.Failures[0].Err, entities.ErrFeedUnreachable)
	})

	t.Run("should prefer the earlier feed when two feeds report the same version", func(t *testing.T) {
		t.Parallel()

		// given
		feed := &doubles.StubFeedRepository{Versions: map[string]map[string][]string{
			feedA: {"serilog": {"3.1.1"}},
			feedB: {"serilog": {"3.1.1", "3.0.0"}},
		}}
		resolver := commands.NewVersionResolver(feed)
		dependencies := []entities.Dependency{
			builders.NewDependencyBuilder().WithID("Serilog").WithVersion("2.10.0").BuildDependency(),
		}

		// when
		result, err := resolver.Resolve(context.Background(), dependencies, twoFeeds(), commands.ResolveOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, result.Updates, 1)
		assert.Equal(t, feedA, result.Updates[0].Feed.URI)
	})

	t.Run("should query each package once per feed regardless of how many projects declare it", func(t *testing.T) {
		t.Parallel()

		// given
		feed := &doubles.StubFeedRepository{Versions: map[string]map[string][]string{
			feedA: {"newtonsoft.json": {"13.0.1"}},
			feedB: {"newtonsoft.json": {"13.0.1"}},
		}}
		resolver := commands.NewVersionResolver(feed)
		base := builders.NewDependencyBuilder()
		dependencies := []entities.Dependency{
			base.WithFilePath("a/A.csproj").BuildDependency(),
			base.WithFilePath("b/B.csproj").WithVersion("11.0.2").BuildDependency(),
			base.WithID("newtonsoft.json").WithFilePath("c/C.csproj").BuildDependency(),
		}

		// when
		result, err := resolver.Resolve(context.Background(), dependencies, twoFeeds(), commands.ResolveOptions{Concurrency: 2})

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, feed.CallCount)
		assert.Equal(t, 2, result.Queries)
		require.Len(t, result.Updates, 1)
		assert.Equal(t, "11.0.2", result.Updates[0].CurrentVersion.String())
	})

	t.Run("should report a timed out feed as unreachable", func(t *testing.T) {
		t.Parallel()

		// given
		feed := &doubles.StubFeedRepository{
			Blocking: map[string]bool{feedA: true},
			Versions: map[string]map[string][]string{feedB: {"newtonsoft.json": {"13.0.1"}}},
		}
		resolver := commands.NewVersionResolver(feed)
		dependencies := []entities.Dependency{builders.NewDependencyBuilder().BuildDependency()}

		// when
		result, err := resolver.Resolve(context.Background(), dependencies, twoFeeds(), commands.ResolveOptions{
			Timeout: 20 * time.Millisecond,
		})

		// then
		require.NoError(t, err)
		require.Len(t, result.Failures, 1)
		assert.ErrorIs(t, result.Failures[0].Err, entities.ErrFeedUnreachable)
		require.Len(t, result.Updates, 1)
		assert.Equal(t, feedB, result.Updates[0].Feed.URI)
	})

	t.Run("should return the context error when cancelled", func(t *testing.T) {
		t.Parallel()

		// given
		feed := &doubles.StubFeedRepository{Blocking: map[string]bool{feedA: true, feedB: true}}
		resolver := commands.NewVersionResolver(feed)
		dependencies := []entities.Dependency{builders.NewDependencyBuilder().BuildDependency()}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// when
		result, err := resolver.Resolve(ctx, dependencies, twoFeeds(), commands.ResolveOptions{})

		// then
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Nil(t, result)
	})

	t.Run("should skip versions excluded by an ignore rule", func(t *testing.T) {
		t.Parallel()

		// given
		feed := &doubles.StubFeedRepository{Versions: map[string]map[string][]string{
			entities.DefaultFeedURI: {"newtonsoft.json": {"12.0.3", "13.0.1"}},
		}}
		policy, err := entities.NewUpdatePolicy([]entities.IgnoreRule{
			{ID: "Newtonsoft.*", Versions: []string{">= 13.0.0"}},
		})
		require.NoError(t, err)
		resolver := commands.NewVersionResolver(feed)
		dependencies := []entities.Dependency{builders.NewDependencyBuilder().BuildDependency()}

		// when
		result, err := resolver.Resolve(context.Background(), dependencies, entities.DefaultFeeds(), commands.ResolveOptions{
			Policy: policy,
		})

		// then
		require.NoError(t, err)
		require.Len(t, result.Updates, 1)
		assert.Equal(t, "12.0.3", result.Updates[0].LatestVersion.String())
	})
}
