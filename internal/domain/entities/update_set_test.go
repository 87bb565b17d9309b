//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
	builders "github.com/rios0rios0/nugetupdater/test/domain/entitybuilders"
)

func candidate(id, version string, index int) entities.FeedCandidate {
	return entities.FeedCandidate{
		ID:        id,
		Latest:    entities.MustParseVersion(version),
		Feed:      entities.FeedEndpoint{Name: "feed", URI: "https://feed.example.com/" + string(rune('a'+index))},
		FeedIndex: index,
	}
}

func TestBaselines(t *testing.T) {
	t.Parallel()

	t.Run("should keep the lowest version declared across projects", func(t *testing.T) {
		t.Parallel()

		// given
		dependencies := []entities.Dependency{
			builders.NewDependencyBuilder().WithFilePath("a/A.csproj").WithVersion("12.0.0").BuildDependency(),
			builders.NewDependencyBuilder().WithFilePath("b/B.csproj").WithVersion("11.0.2").BuildDependency(),
		}

		// when
		baselines := entities.Baselines(dependencies)

		// then
		require.Len(t, baselines, 1)
		assert.Equal(t, "11.0.2", baselines[0].Version.String())
	})

	t.Run("should let the central version file win over project declarations", func(t *testing.T) {
		t.Parallel()

		// given
		dependencies := []entities.Dependency{
			builders.NewDependencyBuilder().WithVersion("10.0.0").BuildDependency(),
			builders.NewDependencyBuilder().WithVersion("12.0.3").InCentralFile().BuildDependency(),
			builders.NewDependencyBuilder().WithVersion("9.0.1").BuildDependency(),
		}

		// when
		baselines := entities.Baselines(dependencies)

		// then
		require.Len(t, baselines, 1)
		assert.Equal(t, "12.0.3", baselines[0].Version.String())
	})

	t.Run("should group ids case-insensitively and keep discovery order", func(t *testing.T) {
		t.Parallel()

		// given
		dependencies := []entities.Dependency{
			builders.NewDependencyBuilder().WithID("Serilog").WithVersion("2.10.0").BuildDependency(),
			builders.NewDependencyBuilder().BuildDependency(),
			builders.NewDependencyBuilder().WithID("SERILOG").WithVersion("2.9.0").BuildDependency(),
		}

		// when
		baselines := entities.Baselines(dependencies)

		// then
		require.Len(t, baselines, 2)
		assert.Equal(t, "Serilog", baselines[0].ID)
		assert.Equal(t, "2.9.0", baselines[0].Version.String())
		assert.Equal(t, "Newtonsoft.Json", baselines[1].ID)
	})
}

func TestBuildUpdateSet(t *testing.T) {
	t.Parallel()

	t.Run("should pick the highest candidate across feeds", func(t *testing.T) {
		t.Parallel()

		// given
		dependencies := []entities.Dependency{builders.NewDependencyBuilder().BuildDependency()}
		candidates := []entities.FeedCandidate{
			candidate("Newtonsoft.Json", "13.0.1", 0),
			candidate("newtonsoft.json", "13.0.3", 1),
		}

		// when
		updates := entities.BuildUpdateSet(dependencies, candidates)

		// then
		require.Len(t, updates, 1)
		assert.Equal(t, "13.0.3", updates[0].LatestVersion.String())
		assert.Equal(t, candidates[1].Feed, updates[0].Feed)
	})

	t.Run("should break ties with the earliest feed", func(t *testing.T) {
		t.Parallel()

		// given
		dependencies := []entities.Dependency{builders.NewDependencyBuilder().BuildDependency()}
		candidates := []entities.FeedCandidate{
			candidate("Newtonsoft.Json", "13.0.1", 1),
			candidate("Newtonsoft.Json", "13.0.1", 0),
		}

		// when
		updates := entities.BuildUpdateSet(dependencies, candidates)

		// then
		require.Len(t, updates, 1)
		assert.Equal(t, candidates[1].Feed, updates[0].Feed)
	})

	t.Run("should drop packages that are already current", func(t *testing.T) {
		t.Parallel()

		// given
		dependencies := []entities.Dependency{
			builders.NewDependencyBuilder().WithVersion("13.0.1").BuildDependency(),
			builders.NewDependencyBuilder().WithID("Serilog").WithVersion("2.10.0").BuildDependency(),
		}
		candidates := []entities.FeedCandidate{
			candidate("Newtonsoft.Json", "13.0.1", 0),
			candidate("Serilog", "3.1.1", 0),
		}

		// when
		updates := entities.BuildUpdateSet(dependencies, candidates)

		// then
		require.Len(t, updates, 1)
		assert.Equal(t, "Serilog", updates[0].ID)
		assert.Equal(t, "2.10.0", updates[0].CurrentVersion.String())
	})
}
