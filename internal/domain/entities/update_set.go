package entities

// FeedCandidate is the highest eligible stable version one feed reports for a package.
type FeedCandidate struct {
	ID        string
	Latest    Version
	Feed      FeedEndpoint
	FeedIndex int // position of Feed in the configured list
}

// ResolvedUpdate proposes moving a package from CurrentVersion to LatestVersion.
// LatestVersion is always stable and strictly greater than CurrentVersion.
type ResolvedUpdate struct {
	ID             string
	CurrentVersion Version
	LatestVersion  Version
	Feed           FeedEndpoint
}

// Key is the case-insensitive identity of the updated package.
func (u ResolvedUpdate) Key() string {
	return PackageKey(u.ID)
}

// Baseline is the version a package is considered to be at across a repository.
type Baseline struct {
	ID      string
	Version Version
	central bool
}

// Baselines collapses declarations by package id, keeping first discovery order.
// A central version file declaration is authoritative for its id; otherwise the
// lowest version declared by any project wins.
func Baselines(dependencies []Dependency) []Baseline {
	index := make(map[string]int)
	var baselines []Baseline

	for _, dependency := range dependencies {
		central := dependency.Kind == CentralVersionFile
		position, seen := index[dependency.Key()]
		if !seen {
			index[dependency.Key()] = len(baselines)
			baselines = append(baselines, Baseline{
				ID:      dependency.ID,
				Version: dependency.Version,
				central: central,
			})
			continue
		}

		current := &baselines[position]
		switch {
		case central && !current.central:
			current.Version = dependency.Version
			current.central = true
		case central == current.central && current.Version.GreaterThan(dependency.Version):
			current.Version = dependency.Version
		}
	}

	return baselines
}

// BuildUpdateSet merges feed candidates into one update per package id. The highest
// version across feeds wins and the earliest configured feed breaks ties. Packages
// whose best candidate is not strictly newer than their baseline are dropped.
// The result follows first discovery order of dependencies.
func BuildUpdateSet(dependencies []Dependency, candidates []FeedCandidate) []ResolvedUpdate {
	best := make(map[string]FeedCandidate, len(candidates))
	for _, candidate := range candidates {
		key := PackageKey(candidate.ID)
		current, ok := best[key]
		if !ok || candidate.Latest.GreaterThan(current.Latest) ||
			(candidate.Latest.Equal(current.Latest) && candidate.FeedIndex < current.FeedIndex) {
			best[key] = candidate
		}
	}

	var updates []ResolvedUpdate
	for _, baseline := range Baselines(dependencies) {
		candidate, ok := best[PackageKey(baseline.ID)]
		if !ok || !candidate.Latest.GreaterThan(baseline.Version) {
			continue
		}
		updates = append(updates, ResolvedUpdate{
			ID:             baseline.ID,
			CurrentVersion: baseline.Version,
			LatestVersion:  candidate.Latest,
			Feed:           candidate.Feed,
		})
	}

	return updates
}
