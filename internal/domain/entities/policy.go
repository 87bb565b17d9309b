package entities

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/bmatcuk/doublestar/v4"
)

// IgnoreRule excludes versions of matching packages from update proposals.
// ID is a glob (e.g. "Microsoft.Extensions.*"); an empty Versions list ignores
// every version of the package.
type IgnoreRule struct {
	ID       string   `yaml:"id"`
	Versions []string `yaml:"versions"`
}

type compiledRule struct {
	pattern     string
	constraints []*semver.Constraints
}

// UpdatePolicy decides whether a feed version may be proposed.
type UpdatePolicy struct {
	rules []compiledRule
}

// NewUpdatePolicy compiles the ignore rules of a configuration.
func NewUpdatePolicy(rules []IgnoreRule) (*UpdatePolicy, error) {
	policy := &UpdatePolicy{}
	for i, rule := range rules {
		pattern := strings.ToLower(strings.TrimSpace(rule.ID))
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("ignore[%d].id: invalid pattern %q", i, rule.ID)
		}

		compiled := compiledRule{pattern: pattern}
		for _, expression := range rule.Versions {
			constraint, err := semver.NewConstraint(expression)
			if err != nil {
				return nil, fmt.Errorf("ignore[%d].versions: invalid constraint %q: %w", i, expression, err)
			}
			compiled.constraints = append(compiled.constraints, constraint)
		}
		policy.rules = append(policy.rules, compiled)
	}
	return policy, nil
}

// Allows reports whether version of package id is eligible for an update.
func (p *UpdatePolicy) Allows(id string, version Version) bool {
	if p == nil {
		return true
	}

	key := PackageKey(id)
	for _, rule := range p.rules {
		matched, err := doublestar.Match(rule.pattern, key)
		if err != nil || !matched {
			continue
		}
		if len(rule.constraints) == 0 {
			return false
		}

		candidate, parseErr := semver.NewVersion(version.SemVer())
		if parseErr != nil {
			continue
		}
		for _, constraint := range rule.constraints {
			if constraint.Check(candidate) {
				return false
			}
		}
	}
	return true
}
