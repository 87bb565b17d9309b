package entities

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

const versionParts = 4

// versionPattern accepts NuGet versions: 1 to 4 numeric parts, optional
// prerelease label and optional build metadata.
var versionPattern = regexp.MustCompile(
	`^(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:\.(\d+))?(?:-([0-9A-Za-z][0-9A-Za-z.-]*))?(?:\+([0-9A-Za-z][0-9A-Za-z.-]*))?$`,
)

// Version is a NuGet package version (major.minor.patch[.revision][-prerelease][+metadata]).
type Version struct {
	original   string
	numbers    [versionParts]int
	prerelease string
	metadata   string
}

// ParseVersion parses a NuGet version string. Version ranges and floating
// versions are rejected.
func ParseVersion(raw string) (Version, error) {
	trimmed := strings.TrimSpace(raw)
	match := versionPattern.FindStringSubmatch(trimmed)
	if match == nil {
		return Version{}, fmt.Errorf("invalid version %q", raw)
	}

	version := Version{
		original:   trimmed,
		prerelease: match[5],
		metadata:   match[6],
	}
	for i := range versionParts {
		if match[i+1] == "" {
			continue
		}
		number, err := strconv.Atoi(match[i+1])
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: %w", raw, err)
		}
		version.numbers[i] = number
	}

	return version, nil
}

// MustParseVersion is like ParseVersion but panics on invalid input.
func MustParseVersion(raw string) Version {
	version, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return version
}

// String returns the version as it was written.
func (v Version) String() string {
	return v.original
}

// IsZero reports whether v is the zero value (never parsed).
func (v Version) IsZero() bool {
	return v.original == ""
}

// IsPrerelease reports whether the version carries a prerelease label.
func (v Version) IsPrerelease() bool {
	return v.prerelease != ""
}

// Normalized returns the version without build metadata, with at least three parts.
func (v Version) Normalized() string {
	result := v.core()
	if v.numbers[3] != 0 {
		result += "." + strconv.Itoa(v.numbers[3])
	}
	if v.prerelease != "" {
		result += "-" + v.prerelease
	}
	return result
}

// SemVer returns a three-part semantic version string (revision dropped).
func (v Version) SemVer() string {
	if v.prerelease != "" {
		return v.core() + "-" + v.prerelease
	}
	return v.core()
}

// Compare returns -1, 0 or +1. Numeric parts are compared first, then a
// stable version sorts after any prerelease of the same numbers, then
// prerelease labels are compared case-insensitively. Metadata is ignored.
func (v Version) Compare(other Version) int {
	if c := semver.Compare("v"+v.core(), "v"+other.core()); c != 0 {
		return c
	}
	if v.numbers[3] != other.numbers[3] {
		if v.numbers[3] < other.numbers[3] {
			return -1
		}
		return 1
	}
	return comparePrerelease(v.prerelease, other.prerelease)
}

// GreaterThan reports whether v sorts strictly after other.
func (v Version) GreaterThan(other Version) bool {
	return v.Compare(other) > 0
}

// Equal reports whether v and other have the same precedence.
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

func (v Version) core() string {
	return fmt.Sprintf("%d.%d.%d", v.numbers[0], v.numbers[1], v.numbers[2])
}

func comparePrerelease(left, right string) int {
	switch {
	case left == "" && right == "":
		return 0
	case left == "":
		return 1
	case right == "":
		return -1
	}

	left = "v0.0.0-" + strings.ToLower(left)
	right = "v0.0.0-" + strings.ToLower(right)
	if semver.IsValid(left) && semver.IsValid(right) {
		return semver.Compare(left, right)
	}
	return strings.Compare(left, right)
}

// MaxVersion returns the highest of the given versions, or false when empty.
func MaxVersion(versions []Version) (Version, bool) {
	if len(versions) == 0 {
		return Version{}, false
	}
	highest := versions[0]
	for _, version := range versions[1:] {
		if version.GreaterThan(highest) {
			highest = version
		}
	}
	return highest, true
}
