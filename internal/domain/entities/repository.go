package entities

import "strings"

// Repository is a repository hosted on one of the supported Git services.
type Repository struct {
	ID            string
	Name          string
	Organization  string
	Project       string // Azure DevOps only
	DefaultBranch string // full ref, e.g. "refs/heads/main"
	RemoteURL     string
	SSHURL        string
	ProviderName  string
}

// FullName returns "org/name" (or "org/project/name" for Azure DevOps).
func (r Repository) FullName() string {
	if r.Project != "" && r.Project != r.Name {
		return r.Organization + "/" + r.Project + "/" + r.Name
	}
	return r.Organization + "/" + r.Name
}

// File is an entry of a repository tree listing.
type File struct {
	Path     string
	ObjectID string
	IsDir    bool
}

const branchRefPrefix = "refs/heads/"

// ShortBranchName strips the "refs/heads/" prefix from a branch reference.
func ShortBranchName(ref string) string {
	return strings.TrimPrefix(ref, branchRefPrefix)
}

// BranchRef returns the full reference of a branch name.
func BranchRef(name string) string {
	return branchRefPrefix + ShortBranchName(name)
}
