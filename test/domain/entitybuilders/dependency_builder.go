//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
)

// DependencyBuilder helps create test dependencies with a fluent interface.
type DependencyBuilder struct {
	*testkit.BaseBuilder
	id       string
	version  string
	filePath string
	kind     entities.ManifestKind
}

// NewDependencyBuilder creates a new dependency builder with sensible defaults.
func NewDependencyBuilder() *DependencyBuilder {
	return &DependencyBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		id:          "Newtonsoft.Json",
		version:     "12.0.0",
		filePath:    "src/App/App.csproj",
		kind:        entities.ProjectManifest,
	}
}

// WithID sets the package id.
func (b *DependencyBuilder) WithID(id string) *DependencyBuilder {
	b.id = id
	return b
}

// WithVersion sets the declared version.
func (b *DependencyBuilder) WithVersion(version string) *DependencyBuilder {
	b.version = version
	return b
}

// WithFilePath sets the declaring manifest path.
func (b *DependencyBuilder) WithFilePath(path string) *DependencyBuilder {
	b.filePath = path
	return b
}

// InCentralFile marks the dependency as declared in Directory.Packages.props.
func (b *DependencyBuilder) InCentralFile() *DependencyBuilder {
	b.kind = entities.CentralVersionFile
	b.filePath = entities.DefaultCentralFile
	return b
}

// Build creates the dependency (satisfies testkit.Builder interface).
func (b *DependencyBuilder) Build() interface{} {
	return b.BuildDependency()
}

// BuildDependency creates the dependency with a concrete return type.
func (b *DependencyBuilder) BuildDependency() entities.Dependency {
	return entities.Dependency{
		ID:       b.id,
		Version:  entities.MustParseVersion(b.version),
		FilePath: b.filePath,
		Kind:     b.kind,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *DependencyBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.id = "Newtonsoft.Json"
	b.version = "12.0.0"
	b.filePath = "src/App/App.csproj"
	b.kind = entities.ProjectManifest
	return b
}

// Clone creates a deep copy of the DependencyBuilder.
func (b *DependencyBuilder) Clone() testkit.Builder {
	return &DependencyBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		id:          b.id,
		version:     b.version,
		filePath:    b.filePath,
		kind:        b.kind,
	}
}
