package repositories

import (
	domainRepos "github.com/rios0rios0/nugetupdater/internal/domain/repositories"
)

// SelectorRegistry holds the two ways of choosing repositories and updates:
// an operator prompt and a headless select-all.
type SelectorRegistry struct {
	interactive domainRepos.SelectorRepository
	headless    domainRepos.SelectorRepository
}

// NewSelectorRegistry creates a registry from its interactive and headless selectors.
func NewSelectorRegistry(interactive, headless domainRepos.SelectorRepository) *SelectorRegistry {
	return &SelectorRegistry{interactive: interactive, headless: headless}
}

// Get returns the interactive selector when asked for and available, the headless one otherwise.
func (r *SelectorRegistry) Get(interactive bool) domainRepos.SelectorRepository {
	if interactive && r.interactive != nil {
		return r.interactive
	}
	return r.headless
}
