package entities

import "strings"

// ManifestKind tells which kind of document a dependency was declared in.
type ManifestKind int

const (
	// ProjectManifest is a *.csproj / *.fsproj / *.vbproj file.
	ProjectManifest ManifestKind = iota
	// CentralVersionFile is a Directory.Packages.props file.
	CentralVersionFile
)

func (k ManifestKind) String() string {
	if k == CentralVersionFile {
		return "central-version-file"
	}
	return "project-manifest"
}

// elementName is the tag carrying the Include/Version attributes for this kind.
func (k ManifestKind) elementName() string {
	if k == CentralVersionFile {
		return "PackageVersion"
	}
	return "PackageReference"
}

// selector is the XPath expression locating dependency elements for this kind.
func (k ManifestKind) selector() string {
	if k == CentralVersionFile {
		return "//ItemGroup/PackageVersion"
	}
	return "//PackageReference"
}

// Dependency is a single package declaration found in a manifest.
type Dependency struct {
	ID       string
	Version  Version
	FilePath string
	Kind     ManifestKind
}

// Key is the case-insensitive identity of the declared package.
func (d Dependency) Key() string {
	return PackageKey(d.ID)
}

// PackageKey normalizes a package id for case-insensitive comparison.
func PackageKey(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// ManifestDocument holds the original bytes of a manifest retrieved from a repository.
type ManifestDocument struct {
	Path    string
	Kind    ManifestKind
	Content []byte
}

// FileChange represents a file modification to be included in a commit.
type FileChange struct {
	Path       string
	Content    string
	ChangeType string // "add", "edit", "delete"
}

// ChangeSet is the ordered list of files touched by one publication.
type ChangeSet struct {
	Changes []FileChange
}

// IsEmpty reports whether the change set would produce an empty commit.
func (c ChangeSet) IsEmpty() bool {
	return len(c.Changes) == 0
}

// Paths returns the changed file paths in order.
func (c ChangeSet) Paths() []string {
	paths := make([]string, 0, len(c.Changes))
	for _, change := range c.Changes {
		paths = append(paths, change.Path)
	}
	return paths
}
