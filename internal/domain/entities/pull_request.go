package entities

// PushInput describes a single commit pushed on top of an existing branch.
type PushInput struct {
	BranchName    string
	BaseCommitID  string
	CommitMessage string
	Changes       []FileChange
}

// PullRequestInput describes a pull request to be opened.
type PullRequestInput struct {
	SourceBranch string
	TargetBranch string
	Title        string
	Description  string
	AutoComplete bool
}

// PullRequest is a pull request (or merge request) created on the hosting service.
type PullRequest struct {
	ID     int
	Title  string
	URL    string
	Status string
}
