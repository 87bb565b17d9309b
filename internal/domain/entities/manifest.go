package entities

import (
	"bytes"
	"fmt"

	"github.com/antchfx/xmlquery"
)

const (
	includeAttribute = "Include"
	versionAttribute = "Version"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseProjectManifest extracts every <PackageReference Include Version> of a project file.
// Elements missing either attribute are skipped; a present but invalid version
// fails the whole document with ErrMalformedManifest.
func ParseProjectManifest(path string, content []byte) ([]Dependency, error) {
	return ParseManifest(ManifestDocument{Path: path, Kind: ProjectManifest, Content: content})
}

// ParseCentralVersionFile extracts every <ItemGroup><PackageVersion Include Version> of
// a Directory.Packages.props file, with the same rules as ParseProjectManifest.
func ParseCentralVersionFile(path string, content []byte) ([]Dependency, error) {
	return ParseManifest(ManifestDocument{Path: path, Kind: CentralVersionFile, Content: content})
}

// ParseManifest dispatches on the document kind.
func ParseManifest(document ManifestDocument) ([]Dependency, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(bytes.TrimPrefix(document.Content, utf8BOM)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedManifest, document.Path, err)
	}

	nodes, err := xmlquery.QueryAll(doc, document.Kind.selector())
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", document.Path, err)
	}

	dependencies := make([]Dependency, 0, len(nodes))
	for _, node := range nodes {
		id, hasID := attributeValue(node, includeAttribute)
		rawVersion, hasVersion := attributeValue(node, versionAttribute)
		if !hasID || !hasVersion || id == "" {
			continue
		}

		version, parseErr := ParseVersion(rawVersion)
		if parseErr != nil {
			return nil, fmt.Errorf(
				"%w: %s: package %q: %v", ErrMalformedManifest, document.Path, id, parseErr,
			)
		}

		dependencies = append(dependencies, Dependency{
			ID:       id,
			Version:  version,
			FilePath: document.Path,
			Kind:     document.Kind,
		})
	}

	return dependencies, nil
}

// attributeValue looks up an unprefixed attribute by its exact (case-sensitive) name.
func attributeValue(node *xmlquery.Node, name string) (string, bool) {
	for _, attr := range node.Attr {
		if attr.Name.Space == "" && attr.Name.Local == name {
			return attr.Value, true
		}
	}
	return "", false
}
