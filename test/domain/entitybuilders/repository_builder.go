//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
)

// RepositoryBuilder helps create test repositories with a fluent interface.
type RepositoryBuilder struct {
	*testkit.BaseBuilder
	name          string
	organization  string
	project       string
	defaultBranch string
	provider      string
}

// NewRepositoryBuilder creates a new repository builder with sensible defaults.
func NewRepositoryBuilder() *RepositoryBuilder {
	return &RepositoryBuilder{
		BaseBuilder:   testkit.NewBaseBuilder(),
		name:          "billing-api",
		organization:  "contoso",
		defaultBranch: "refs/heads/main",
		provider:      "github",
	}
}

func (b *RepositoryBuilder) WithName(name string) *RepositoryBuilder {
	b.name = name
	return b
}

func (b *RepositoryBuilder) WithOrganization(organization string) *RepositoryBuilder {
	b.organization = organization
	return b
}

func (b *RepositoryBuilder) WithProject(project string) *RepositoryBuilder {
	b.project = project
	return b
}

func (b *RepositoryBuilder) WithDefaultBranch(branch string) *RepositoryBuilder {
	b.defaultBranch = entities.BranchRef(branch)
	return b
}

func (b *RepositoryBuilder) WithProvider(provider string) *RepositoryBuilder {
	b.provider = provider
	return b
}

// Build creates the repository (satisfies testkit.Builder interface).
func (b *RepositoryBuilder) Build() interface{} {
	return b.BuildRepository()
}

// BuildRepository creates the repository with a concrete return type.
func (b *RepositoryBuilder) BuildRepository() entities.Repository {
	return entities.Repository{
		ID:            b.name,
		Name:          b.name,
		Organization:  b.organization,
		Project:       b.project,
		DefaultBranch: b.defaultBranch,
		ProviderName:  b.provider,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *RepositoryBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.name = "billing-api"
	b.organization = "contoso"
	b.project = ""
	b.defaultBranch = "refs/heads/main"
	b.provider = "github"
	return b
}

// Clone creates a deep copy of the RepositoryBuilder.
func (b *RepositoryBuilder) Clone() testkit.Builder {
	return &RepositoryBuilder{
		BaseBuilder:   b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		name:          b.name,
		organization:  b.organization,
		project:       b.project,
		defaultBranch: b.defaultBranch,
		provider:      b.provider,
	}
}
