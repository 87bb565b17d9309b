package entities

import "errors"

var (
	// ErrMalformedManifest means a manifest could not be parsed or declares an invalid version.
	ErrMalformedManifest = errors.New("malformed manifest")
	// ErrMalformedFeedConfig means a nuget.config document could not be parsed.
	ErrMalformedFeedConfig = errors.New("malformed feed configuration")
	// ErrFeedUnreachable means a feed could not be queried (network error, non-2xx, timeout).
	ErrFeedUnreachable = errors.New("feed unreachable")
	// ErrFeedMalformedResponse means a feed answered with a body that could not be decoded.
	ErrFeedMalformedResponse = errors.New("malformed feed response")
	// ErrBranchResolution means the head commit of the base branch could not be found.
	ErrBranchResolution = errors.New("failed to resolve branch head")
	// ErrBranchNotFound is returned by providers when a branch does not exist.
	ErrBranchNotFound = errors.New("branch not found")
	// ErrPublicationStep means one of the branch, push or pull request steps failed.
	ErrPublicationStep = errors.New("publication step failed")
	// ErrNoEffectiveChanges means the selected updates did not change any file.
	ErrNoEffectiveChanges = errors.New("no effective changes")
	// ErrSelectionAborted means the operator cancelled an interactive selection.
	ErrSelectionAborted = errors.New("selection aborted by operator")
)
