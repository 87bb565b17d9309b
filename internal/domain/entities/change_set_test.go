//go:build unit

package entities_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
	builders "github.com/rios0rios0/nugetupdater/test/domain/entitybuilders"
)

const layoutSensitiveProject = "<Project Sdk=\"Microsoft.NET.Sdk\">\r\n" +
	"  <!-- keep this comment -->\r\n" +
	"  <ItemGroup>\r\n" +
	"    <PackageReference\r\n" +
	"        Include=\"Newtonsoft.Json\"\r\n" +
	"        Version=\"12.0.0\"   />\r\n" +
	"    <PackageReference Include='Serilog' Version='2.10.0'/>\r\n" +
	"    <PackageReference Include=\"Dapper\" Version=\"2.0.0\" PrivateAssets=\"all\" />\r\n" +
	"  </ItemGroup>\r\n" +
	"</Project>"

func projectDocument(content string) entities.ManifestDocument {
	return entities.ManifestDocument{
		Path:    "src/App/App.csproj",
		Kind:    entities.ProjectManifest,
		Content: []byte(content),
	}
}

func TestComposeChanges(t *testing.T) {
	t.Parallel()

	t.Run("should only rewrite the selected version values", func(t *testing.T) {
		t.Parallel()

		// given
		selected := []entities.ResolvedUpdate{
			builders.NewResolvedUpdateBuilder().BuildUpdate(),
			builders.NewResolvedUpdateBuilder().WithID("Serilog").
				WithCurrentVersion("2.10.0").WithLatestVersion("3.1.1").BuildUpdate(),
		}
		expected := strings.Replace(layoutSensitiveProject, `"12.0.0"`, `"13.0.1"`, 1)
		expected = strings.Replace(expected, `'2.10.0'`, `'3.1.1'`, 1)

		// when
		changeSet, err := entities.ComposeChanges(selected, []entities.ManifestDocument{projectDocument(layoutSensitiveProject)})

		// then
		require.NoError(t, err)
		require.Len(t, changeSet.Changes, 1)
		assert.Equal(t, expected, changeSet.Changes[0].Content)
		assert.Equal(t, "edit", changeSet.Changes[0].ChangeType)
	})

	t.Run("should rewrite the Version attribute and not a look-alike inside another value", func(t *testing.T) {
		t.Parallel()

		// given
		content := `<Project><ItemGroup>` +
			`<PackageReference Include="Newtonsoft.Json" Label=" Version='x'" Version="12.0.0" />` +
			`</ItemGroup></Project>`
		selected := []entities.ResolvedUpdate{builders.NewResolvedUpdateBuilder().BuildUpdate()}

		// when
		changeSet, err := entities.ComposeChanges(selected, []entities.ManifestDocument{projectDocument(content)})

		// then
		require.NoError(t, err)
		require.Len(t, changeSet.Changes, 1)
		assert.Equal(t, strings.Replace(content, `"12.0.0"`, `"13.0.1"`, 1), changeSet.Changes[0].Content)
		reparsed, parseErr := entities.ParseProjectManifest("src/App/App.csproj", []byte(changeSet.Changes[0].Content))
		require.NoError(t, parseErr)
		require.Len(t, reparsed, 1)
		assert.Equal(t, "13.0.1", reparsed[0].Version.String())
	})

	t.Run("should match package ids case-insensitively", func(t *testing.T) {
		t.Parallel()

		// given
		content := `<Project><ItemGroup><PackageReference Include="newtonsoft.json" Version="12.0.0" /></ItemGroup></Project>`
		selected := []entities.ResolvedUpdate{builders.NewResolvedUpdateBuilder().BuildUpdate()}

		// when
		changeSet, err := entities.ComposeChanges(selected, []entities.ManifestDocument{projectDocument(content)})

		// then
		require.NoError(t, err)
		require.Len(t, changeSet.Changes, 1)
		assert.Contains(t, changeSet.Changes[0].Content, `Include="newtonsoft.json" Version="13.0.1"`)
	})

	t.Run("should preserve a byte order mark", func(t *testing.T) {
		t.Parallel()

		// given
		bom := "\xEF\xBB\xBF"
		content := bom + `<Project><ItemGroup><PackageReference Include="Newtonsoft.Json" Version="12.0.0" /></ItemGroup></Project>`
		selected := []entities.ResolvedUpdate{builders.NewResolvedUpdateBuilder().BuildUpdate()}

		// when
		changeSet, err := entities.ComposeChanges(selected, []entities.ManifestDocument{projectDocument(content)})

		// then
		require.NoError(t, err)
		require.Len(t, changeSet.Changes, 1)
		assert.Equal(t, strings.Replace(content, "12.0.0", "13.0.1", 1), changeSet.Changes[0].Content)
	})

	t.Run("should never downgrade an element already past the target", func(t *testing.T) {
		t.Parallel()

		// given
		content := `<Project><ItemGroup><PackageReference Include="Newtonsoft.Json" Version="14.0.0" /></ItemGroup></Project>`
		selected := []entities.ResolvedUpdate{builders.NewResolvedUpdateBuilder().BuildUpdate()}

		// when
		changeSet, err := entities.ComposeChanges(selected, []entities.ManifestDocument{projectDocument(content)})

		// then
		require.NoError(t, err)
		assert.True(t, changeSet.IsEmpty())
	})

	t.Run("should produce nothing when applied to its own output", func(t *testing.T) {
		t.Parallel()

		// given
		selected := []entities.ResolvedUpdate{builders.NewResolvedUpdateBuilder().BuildUpdate()}
		first, err := entities.ComposeChanges(selected, []entities.ManifestDocument{projectDocument(layoutSensitiveProject)})
		require.NoError(t, err)
		require.Len(t, first.Changes, 1)

		// when
		second, err := entities.ComposeChanges(selected, []entities.ManifestDocument{projectDocument(first.Changes[0].Content)})

		// then
		require.NoError(t, err)
		assert.True(t, second.IsEmpty())
	})

	t.Run("should only rewrite item group entries of the central version file", func(t *testing.T) {
		t.Parallel()

		// given
		content := `<Project>
  <PackageVersion Include="Serilog" Version="2.10.0" />
  <ItemGroup>
    <PackageVersion Include="Serilog" Version="2.10.0" />
  </ItemGroup>
</Project>`
		document := entities.ManifestDocument{
			Path:    "Directory.Packages.props",
			Kind:    entities.CentralVersionFile,
			Content: []byte(content),
		}
		selected := []entities.ResolvedUpdate{
			builders.NewResolvedUpdateBuilder().WithID("Serilog").
				WithCurrentVersion("2.10.0").WithLatestVersion("3.1.1").BuildUpdate(),
		}

		// when
		changeSet, err := entities.ComposeChanges(selected, []entities.ManifestDocument{document})

		// then
		require.NoError(t, err)
		require.Len(t, changeSet.Changes, 1)
		updated := changeSet.Changes[0].Content
		assert.Equal(t, 1, strings.Count(updated, `Version="3.1.1"`))
		assert.Contains(t, updated, "<ItemGroup>\n    <PackageVersion Include=\"Serilog\" Version=\"3.1.1\" />")
	})

	t.Run("should leave untouched documents out of the change set", func(t *testing.T) {
		t.Parallel()

		// given
		untouched := entities.ManifestDocument{
			Path:    "src/Other/Other.csproj",
			Kind:    entities.ProjectManifest,
			Content: []byte(`<Project><ItemGroup><PackageReference Include="Dapper" Version="2.0.0" /></ItemGroup></Project>`),
		}
		selected := []entities.ResolvedUpdate{builders.NewResolvedUpdateBuilder().BuildUpdate()}

		// when
		changeSet, err := entities.ComposeChanges(selected, []entities.ManifestDocument{
			projectDocument(layoutSensitiveProject), untouched,
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"src/App/App.csproj"}, changeSet.Paths())
	})

	t.Run("should return an empty change set when nothing is selected", func(t *testing.T) {
		t.Parallel()

		// given, when
		changeSet, err := entities.ComposeChanges(nil, []entities.ManifestDocument{projectDocument(layoutSensitiveProject)})

		// then
		require.NoError(t, err)
		assert.True(t, changeSet.IsEmpty())
	})
}
