package entities

import (
	"fmt"
	"strings"
)

// PublicationStage is the last stage a publication reached.
type PublicationStage string

const (
	StageIdle              PublicationStage = "idle"
	StageBranchCreated     PublicationStage = "branch-created"
	StagePushed            PublicationStage = "pushed"
	StagePullRequestOpened PublicationStage = "pull-request-opened"
)

// PublicationStep names the operation that was running when a publication failed.
type PublicationStep string

const (
	StepResolveHead  PublicationStep = "resolve-head"
	StepCreateBranch PublicationStep = "create-branch"
	StepPush         PublicationStep = "push"
	StepPullRequest  PublicationStep = "pull-request"
)

// PublicationOutcome is the terminal state of a publication.
type PublicationOutcome string

const (
	OutcomeDone               PublicationOutcome = "done"
	OutcomeFailed             PublicationOutcome = "failed"
	OutcomeNoEffectiveChanges PublicationOutcome = "no-effective-changes"
)

// PublicationTransaction carries everything needed to publish one change set.
// BranchName and BaseCommitID are filled in by the coordinator.
type PublicationTransaction struct {
	BranchPrefix           string
	BranchName             string
	BaseBranch             string
	BaseCommitID           string
	ChangeSet              ChangeSet
	CommitMessage          string
	PullRequestTitle       string
	PullRequestDescription string
	AutoComplete           bool
}

// PublicationResult reports how far a publication got.
type PublicationResult struct {
	Outcome     PublicationOutcome
	Stage       PublicationStage
	Branch      string
	CommitID    string
	PullRequest *PullRequest
	Err         error
}

// OrphanBranch reports whether a branch was left behind without a pull request.
func (r PublicationResult) OrphanBranch() bool {
	return r.Outcome == OutcomeFailed && r.Stage != StageIdle && r.Stage != StagePullRequestOpened
}

// PublicationError is returned when one publication step fails. It matches both
// ErrPublicationStep and the underlying cause with errors.Is.
type PublicationError struct {
	Step    PublicationStep
	Reached PublicationStage
	Branch  string
	Err     error
}

func (e *PublicationError) Error() string {
	if e.Branch != "" {
		return fmt.Sprintf(
			"%s at step %q (reached %q, branch %q): %v",
			ErrPublicationStep, e.Step, e.Reached, e.Branch, e.Err,
		)
	}
	return fmt.Sprintf("%s at step %q (reached %q): %v", ErrPublicationStep, e.Step, e.Reached, e.Err)
}

func (e *PublicationError) Unwrap() []error {
	return []error{ErrPublicationStep, e.Err}
}

// PullRequestDescription renders the markdown table listed in the pull request body.
func PullRequestDescription(updates []ResolvedUpdate) string {
	var builder strings.Builder
	builder.WriteString("Updates the following NuGet packages:\n\n")
	builder.WriteString("| Package | From | To | Feed |\n")
	builder.WriteString("|---------|------|----|------|\n")
	for _, update := range updates {
		feed := update.Feed.Name
		if feed == "" {
			feed = update.Feed.URI
		}
		fmt.Fprintf(&builder, "| `%s` | `%s` | `%s` | %s |\n",
			update.ID, update.CurrentVersion, update.LatestVersion, feed)
	}
	return builder.String()
}
