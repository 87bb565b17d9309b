//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
)

func TestParseProjectManifest(t *testing.T) {
	t.Parallel()

	t.Run("should extract every package reference in document order", func(t *testing.T) {
		t.Parallel()

		// given
		content := []byte(`<Project Sdk="Microsoft.NET.Sdk">
  <ItemGroup>
    <PackageReference Include="Newtonsoft.Json" Version="12.0.0" />
    <PackageReference Include="Serilog" Version="2.10.0" />
  </ItemGroup>
  <ItemGroup Condition="'$(TargetFramework)' == 'net48'">
    <PackageReference Include="System.Memory" Version="4.5.5" />
  </ItemGroup>
</Project>`)

		// when
		dependencies, err := entities.ParseProjectManifest("src/App/App.csproj", content)

		// then
		require.NoError(t, err)
		require.Len(t, dependencies, 3)
		assert.Equal(t, "Newtonsoft.Json", dependencies[0].ID)
		assert.Equal(t, "12.0.0", dependencies[0].Version.String())
		assert.Equal(t, "src/App/App.csproj", dependencies[0].FilePath)
		assert.Equal(t, entities.ProjectManifest, dependencies[0].Kind)
		assert.Equal(t, "System.Memory", dependencies[2].ID)
	})

	t.Run("should skip references without a version attribute", func(t *testing.T) {
		t.Parallel()

		// given
		content := []byte(`<Project>
  <ItemGroup>
    <PackageReference Include="Serilog" />
    <PackageReference Include="Dapper">
      <Version>2.0.0</Version>
    </PackageReference>
    <PackageReference Update="Polly" Version="7.0.0" />
  </ItemGroup>
</Project>`)

		// when
		dependencies, err := entities.ParseProjectManifest("Api.csproj", content)

		// then
		require.NoError(t, err)
		assert.Empty(t, dependencies)
	})

	t.Run("should accept a leading byte order mark", func(t *testing.T) {
		t.Parallel()

		// given
		content := append([]byte{0xEF, 0xBB, 0xBF},
			[]byte(`<?xml version="1.0" encoding="utf-8"?><Project><ItemGroup><PackageReference Include="Serilog" Version="2.10.0" /></ItemGroup></Project>`)...)

		// when
		dependencies, err := entities.ParseProjectManifest("Api.csproj", content)

		// then
		require.NoError(t, err)
		require.Len(t, dependencies, 1)
		assert.Equal(t, "Serilog", dependencies[0].ID)
	})

	t.Run("should fail on a version range", func(t *testing.T) {
		t.Parallel()

		// given
		content := []byte(`<Project><ItemGroup><PackageReference Include="Dapper" Version="[1.0,2.0)" /></ItemGroup></Project>`)

		// when
		_, err := entities.ParseProjectManifest("Broken.csproj", content)

		// then
		require.ErrorIs(t, err, entities.ErrMalformedManifest)
		assert.Contains(t, err.Error(), "Broken.csproj")
	})

	t.Run("should fail on invalid XML", func(t *testing.T) {
		t.Parallel()

		// given
		content := []byte(`<Project><ItemGroup><<</ItemGroup></Project>`)

		// when
		_, err := entities.ParseProjectManifest("Broken.csproj", content)

		// then
		require.ErrorIs(t, err, entities.ErrMalformedManifest)
	})
}

func TestParseCentralVersionFile(t *testing.T) {
	t.Parallel()

	t.Run("should only read package versions inside item groups", func(t *testing.T) {
		t.Parallel()

		// given
		content := []byte(`<Project>
  <PropertyGroup>
    <ManagePackageVersionsCentrally>true</ManagePackageVersionsCentrally>
  </PropertyGroup>
  <ItemGroup>
    <PackageVersion Include="Serilog" Version="2.10.0" />
    <PackageVersion Include="xunit" Version="2.4.2" />
  </ItemGroup>
</Project>`)

		// when
		dependencies, err := entities.ParseCentralVersionFile("Directory.Packages.props", content)

		// then
		require.NoError(t, err)
		require.Len(t, dependencies, 2)
		assert.Equal(t, entities.CentralVersionFile, dependencies[0].Kind)
		assert.Equal(t, "xunit", dependencies[1].ID)
		assert.Equal(t, "2.4.2", dependencies[1].Version.String())
	})
}
