package entities

import (
	"fmt"
	"strings"
)

const (
	// ChangelogPath is where the optional changelog entry is written.
	ChangelogPath = "CHANGELOG.md"

	unreleasedHeading = "## [Unreleased]"
	changedHeading    = "### Changed"
)

// ChangelogEntries renders one Keep-a-Changelog bullet per applied update.
func ChangelogEntries(updates []ResolvedUpdate) []string {
	entries := make([]string, 0, len(updates))
	for _, update := range updates {
		entries = append(entries, fmt.Sprintf(
			"- changed the NuGet package `%s` from `%s` to `%s`",
			update.ID, update.CurrentVersion, update.LatestVersion,
		))
	}
	return entries
}

// InsertChangelogEntry adds bullets under "## [Unreleased]" / "### Changed".
// The Changed subsection is created when missing; content without an
// Unreleased section is returned unchanged.
func InsertChangelogEntry(content string, entries []string) string {
	if len(entries) == 0 {
		return content
	}

	lines := strings.Split(content, "\n")
	unreleased := indexOfLine(lines, 0, len(lines), unreleasedHeading)
	if unreleased < 0 {
		return content
	}

	sectionEnd := len(lines)
	for i := unreleased + 1; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "## [") {
			sectionEnd = i
			break
		}
	}

	changed := indexOfLine(lines, unreleased+1, sectionEnd, changedHeading)
	if changed < 0 {
		block := append([]string{"", changedHeading, ""}, entries...)
		return strings.Join(splice(lines, unreleased+1, block), "\n")
	}

	insertAt := changed + 1
	for i := changed + 1; i < sectionEnd; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "- ") {
			break
		}
		insertAt = i + 1
	}

	return strings.Join(splice(lines, insertAt, entries), "\n")
}

func indexOfLine(lines []string, from, to int, want string) int {
	for i := from; i < to; i++ {
		if strings.TrimSpace(lines[i]) == want {
			return i
		}
	}
	return -1
}

func splice(lines []string, at int, extra []string) []string {
	result := make([]string, 0, len(lines)+len(extra))
	result = append(result, lines[:at]...)
	result = append(result, extra...)
	return append(result, lines[at:]...)
}
