package entities

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
)

const changeTypeEdit = "edit"

// attributePattern matches one attribute of a start tag. Each quoted value is
// consumed whole, so names inside another attribute's value are never matched.
// The name is group 1 and the value is group 2 (double quotes) or group 3 (single quotes).
var attributePattern = regexp.MustCompile(`\s([\w:.-]+)\s*=\s*(?:"([^"]*)"|'([^']*)')`)

type attributeEdit struct {
	start int
	end   int
	value string
}

// ComposeChanges rewrites the Version attribute of every dependency element whose
// Include matches a selected update and whose declared version is older than the
// update's latest version. Only the attribute value bytes change. Documents
// without any rewrite are left out, so the result never holds a no-op edit.
func ComposeChanges(selected []ResolvedUpdate, documents []ManifestDocument) (ChangeSet, error) {
	var changeSet ChangeSet

	targets := make(map[string]Version, len(selected))
	for _, update := range selected {
		targets[update.Key()] = update.LatestVersion
	}
	if len(targets) == 0 {
		return changeSet, nil
	}

	for _, document := range documents {
		updated, err := rewriteDocument(document, targets)
		if err != nil {
			return ChangeSet{}, err
		}
		if bytes.Equal(updated, document.Content) {
			continue
		}
		changeSet.Changes = append(changeSet.Changes, FileChange{
			Path:       document.Path,
			Content:    string(updated),
			ChangeType: changeTypeEdit,
		})
	}

	return changeSet, nil
}

func rewriteDocument(document ManifestDocument, targets map[string]Version) ([]byte, error) {
	prefixLength := 0
	if bytes.HasPrefix(document.Content, utf8BOM) {
		prefixLength = len(utf8BOM)
	}
	body := document.Content[prefixLength:]

	edits, err := planEdits(document, body, targets)
	if err != nil {
		return nil, err
	}
	if len(edits) == 0 {
		return document.Content, nil
	}

	var buffer bytes.Buffer
	buffer.Grow(len(document.Content))
	buffer.Write(document.Content[:prefixLength])
	cursor := 0
	for _, edit := range edits {
		buffer.Write(body[cursor:edit.start])
		buffer.WriteString(edit.value)
		cursor = edit.end
	}
	buffer.Write(body[cursor:])

	return buffer.Bytes(), nil
}

// planEdits walks the raw token stream so each start tag can be mapped back to
// its exact byte range in body.
func planEdits(
	document ManifestDocument,
	body []byte,
	targets map[string]Version,
) ([]attributeEdit, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	elementName := document.Kind.elementName()

	var edits []attributeEdit
	var parents []string
	for {
		tokenStart := int(decoder.InputOffset())
		token, err := decoder.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedManifest, document.Path, err)
		}

		switch element := token.(type) {
		case xml.StartElement:
			parent := ""
			if len(parents) > 0 {
				parent = parents[len(parents)-1]
			}
			parents = append(parents, element.Name.Local)

			if element.Name.Local != elementName {
				continue
			}
			if document.Kind == CentralVersionFile && parent != "ItemGroup" {
				continue
			}

			tag := body[tokenStart:int(decoder.InputOffset())]
			if edit, ok := planEdit(element, tag, tokenStart, targets); ok {
				edits = append(edits, edit)
			}
		case xml.EndElement:
			if len(parents) > 0 {
				parents = parents[:len(parents)-1]
			}
		}
	}

	return edits, nil
}

func planEdit(
	element xml.StartElement,
	tag []byte,
	tagOffset int,
	targets map[string]Version,
) (attributeEdit, bool) {
	var id, declared string
	var hasID, hasVersion bool
	for _, attr := range element.Attr {
		if attr.Name.Space != "" {
			continue
		}
		switch attr.Name.Local {
		case includeAttribute:
			id, hasID = attr.Value, true
		case versionAttribute:
			declared, hasVersion = attr.Value, true
		}
	}
	if !hasID || !hasVersion {
		return attributeEdit{}, false
	}

	latest, selected := targets[PackageKey(id)]
	if !selected {
		return attributeEdit{}, false
	}
	// never downgrade an element already at or past the target
	if current, err := ParseVersion(declared); err == nil && !latest.GreaterThan(current) {
		return attributeEdit{}, false
	}

	start, end, found := versionValueRange(tag)
	if !found {
		return attributeEdit{}, false
	}

	return attributeEdit{
		start: tagOffset + start,
		end:   tagOffset + end,
		value: latest.String(),
	}, true
}

// versionValueRange returns the byte range of the Version attribute value in tag.
func versionValueRange(tag []byte) (int, int, bool) {
	for _, match := range attributePattern.FindAllSubmatchIndex(tag, -1) {
		if string(tag[match[2]:match[3]]) != versionAttribute {
			continue
		}
		if match[4] >= 0 {
			return match[4], match[5], true
		}
		return match[6], match[7], true
	}
	return 0, 0, false
}
