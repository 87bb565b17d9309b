package localgit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	httpauth "github.com/go-git/go-git/v5/plumbing/transport/http"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
	"github.com/rios0rios0/nugetupdater/internal/domain/repositories"
)

const (
	providerName      = "localgit"
	defaultRemoteName = "origin"
	defaultAuthorName = "nugetupdater"
	defaultAuthorMail = "nugetupdater@localhost"
	defaultFileMode   = 0o644
)

var (
	ErrDirtyWorktree     = errors.New("working tree has uncommitted changes")
	ErrNoRemoteProvider  = errors.New("no hosting provider attached to open the pull request")
	ErrDetachedHead      = errors.New("HEAD is detached")
	errDiscoveryDisabled = errors.New("repository discovery is not available for a local clone")
)

// LocalRepository serves a local clone as a repositories.ProviderRepository:
// files are read from committed trees, the commit is created locally and
// pushed to origin, and the pull request is delegated to the hosting provider.
type LocalRepository struct {
	root   string
	repo   *gogit.Repository
	token  string
	remote repositories.ProviderRepository
	clock  func() time.Time
}

// Open opens the repository containing dir.
func Open(dir string) (*LocalRepository, error) {
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %q: %w", dir, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open git worktree: %w", err)
	}

	return &LocalRepository{
		root:  worktree.Filesystem.Root(),
		repo:  repo,
		clock: time.Now,
	}, nil
}

// Attach sets the token used to push and the provider that opens the pull request.
func (l *LocalRepository) Attach(token string, remote repositories.ProviderRepository) {
	l.token = token
	l.remote = remote
}

// Root returns the worktree root directory.
func (l *LocalRepository) Root() string { return l.root }

// RemoteURL returns the first URL of the origin remote.
func (l *LocalRepository) RemoteURL() (string, error) {
	remote, err := l.repo.Remote(defaultRemoteName)
	if err != nil {
		return "", fmt.Errorf("failed to read remote %q: %w", defaultRemoteName, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %q has no URL", defaultRemoteName)
	}
	return urls[0], nil
}

// CurrentBranch returns the short name of the checked out branch.
func (l *LocalRepository) CurrentBranch() (string, error) {
	head, err := l.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", ErrDetachedHead
	}
	return head.Name().Short(), nil
}

// EnsureClean fails with ErrDirtyWorktree when tracked files have uncommitted changes.
func (l *LocalRepository) EnsureClean() error {
	worktree, err := l.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open git worktree: %w", err)
	}
	return ensureClean(worktree)
}

func (l *LocalRepository) Name() string      { return providerName }
func (l *LocalRepository) AuthToken() string { return l.token }

func (l *LocalRepository) DiscoverRepositories(context.Context, string) ([]entities.Repository, error) {
	return nil, errDiscoveryDisabled
}

func (l *LocalRepository) ListFiles(_ context.Context, repo entities.Repository) ([]entities.File, error) {
	tree, err := l.branchTree(repo.DefaultBranch)
	if err != nil {
		return nil, err
	}

	var files []entities.File
	err = tree.Files().ForEach(func(file *object.File) error {
		files = append(files, entities.File{Path: file.Name, ObjectID: file.Hash.String()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk tree: %w", err)
	}
	return files, nil
}

func (l *LocalRepository) GetFileContent(_ context.Context, repo entities.Repository, path string) (string, error) {
	tree, err := l.branchTree(repo.DefaultBranch)
	if err != nil {
		return "", err
	}

	file, err := tree.File(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("failed to get file %q: %w", path, err)
	}

	reader, err := file.Reader()
	if err != nil {
		return "", fmt.Errorf("failed to read file %q: %w", path, err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read file %q: %w", path, err)
	}
	return string(content), nil
}

func (l *LocalRepository) branchTree(branch string) (*object.Tree, error) {
	hash, err := l.resolveBranch(branch)
	if err != nil {
		return nil, err
	}
	commit, err := l.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree of %s: %w", hash, err)
	}
	return tree, nil
}

// resolveBranch looks the branch up locally first, then in the origin remote-tracking refs.
func (l *LocalRepository) resolveBranch(branch string) (plumbing.Hash, error) {
	short := entities.ShortBranchName(branch)
	candidates := []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(short),
		plumbing.NewRemoteReferenceName(defaultRemoteName, short),
	}
	for _, name := range candidates {
		ref, err := l.repo.Reference(name, true)
		if err == nil {
			return ref.Hash(), nil
		}
		if !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, fmt.Errorf("failed to resolve %s: %w", name, err)
		}
	}
	return plumbing.ZeroHash, fmt.Errorf("%w: %s", entities.ErrBranchNotFound, short)
}

func (l *LocalRepository) GetBranchHead(_ context.Context, _ entities.Repository, branch string) (string, error) {
	hash, err := l.resolveBranch(branch)
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

// BranchExists checks the local refs and, when a hosting provider is attached, the remote.
func (l *LocalRepository) BranchExists(ctx context.Context, repo entities.Repository, branch string) (bool, error) {
	_, err := l.resolveBranch(branch)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, entities.ErrBranchNotFound) {
		return false, err
	}
	if l.remote == nil {
		return false, nil
	}
	return l.remote.BranchExists(ctx, repo, branch)
}

// CreateBranch refuses a dirty worktree so a failed push never leaves a branch behind.
func (l *LocalRepository) CreateBranch(_ context.Context, _ entities.Repository, branch, commitID string) error {
	if err := l.EnsureClean(); err != nil {
		return err
	}
	ref := plumbing.NewHashReference(
		plumbing.NewBranchReferenceName(entities.ShortBranchName(branch)),
		plumbing.NewHash(commitID),
	)
	if err := l.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("failed to create branch %q: %w", branch, err)
	}
	return nil
}

// PushChanges checks the branch out, writes and commits the changes, pushes the
// branch to origin and finally restores the previously checked out branch.
func (l *LocalRepository) PushChanges(
	ctx context.Context,
	_ entities.Repository,
	input entities.PushInput,
) (string, error) {
	worktree, err := l.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to open git worktree: %w", err)
	}
	if err = ensureClean(worktree); err != nil {
		return "", err
	}

	previous, err := l.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	branchRef := plumbing.NewBranchReferenceName(entities.ShortBranchName(input.BranchName))
	if err = worktree.Checkout(&gogit.CheckoutOptions{Branch: branchRef}); err != nil {
		return "", fmt.Errorf("failed to check out %s: %w", branchRef.Short(), err)
	}
	defer l.restore(worktree, previous)

	for _, change := range input.Changes {
		if err = l.writeChange(worktree, change); err != nil {
			return "", err
		}
	}

	hash, err := worktree.Commit(input.CommitMessage, &gogit.CommitOptions{Author: l.signature()})
	if err != nil {
		return "", fmt.Errorf("failed to commit changes: %w", err)
	}

	err = l.repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: defaultRemoteName,
		Auth:       l.pushAuth(),
		RefSpecs:   []gitcfg.RefSpec{gitcfg.RefSpec(fmt.Sprintf("%s:%s", branchRef, branchRef))},
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return "", fmt.Errorf("failed to push %s: %w", branchRef.Short(), err)
	}

	return hash.String(), nil
}

func (l *LocalRepository) writeChange(worktree *gogit.Worktree, change entities.FileChange) error {
	relative := strings.TrimPrefix(change.Path, "/")
	absolute := filepath.Join(l.root, filepath.FromSlash(relative))

	mode := os.FileMode(defaultFileMode)
	if info, statErr := os.Stat(absolute); statErr == nil {
		mode = info.Mode().Perm()
	}
	if err := os.MkdirAll(filepath.Dir(absolute), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", relative, err)
	}
	if err := os.WriteFile(absolute, []byte(change.Content), mode); err != nil {
		return fmt.Errorf("failed to write %q: %w", relative, err)
	}
	if _, err := worktree.Add(relative); err != nil {
		return fmt.Errorf("failed to stage %q: %w", relative, err)
	}
	return nil
}

// restore checks the previous HEAD out again. Force is not used because a hard
// reset in go-git also removes untracked files.
func (l *LocalRepository) restore(worktree *gogit.Worktree, previous *plumbing.Reference) {
	opts := &gogit.CheckoutOptions{}
	if previous.Name().IsBranch() {
		opts.Branch = previous.Name()
	} else {
		opts.Hash = previous.Hash()
	}
	if err := worktree.Checkout(opts); err != nil {
		logger.Warnf("failed to restore %s: %v", previous.Name().Short(), err)
	}
}

func (l *LocalRepository) signature() *object.Signature {
	signature := &object.Signature{Name: defaultAuthorName, Email: defaultAuthorMail, When: l.clock()}
	cfg, err := l.repo.ConfigScoped(gitcfg.GlobalScope)
	if err != nil {
		return signature
	}
	if cfg.User.Name != "" {
		signature.Name = cfg.User.Name
	}
	if cfg.User.Email != "" {
		signature.Email = cfg.User.Email
	}
	return signature
}

// pushAuth returns basic auth for HTTP remotes; SSH remotes use the default agent.
func (l *LocalRepository) pushAuth() transport.AuthMethod {
	if l.token == "" {
		return nil
	}
	remoteURL, err := l.RemoteURL()
	if err != nil || !strings.HasPrefix(remoteURL, "http") {
		return nil
	}

	username := "nugetupdater"
	if l.remote != nil {
		switch l.remote.Name() {
		case "github":
			username = "x-access-token"
		case "gitlab":
			username = "oauth2"
		}
	}
	return &httpauth.BasicAuth{Username: username, Password: l.token}
}

func (l *LocalRepository) CreatePullRequest(
	ctx context.Context,
	repo entities.Repository,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	if l.remote == nil {
		return nil, ErrNoRemoteProvider
	}
	return l.remote.CreatePullRequest(ctx, repo, input)
}

// ensureClean rejects staged or modified tracked files; untracked files are ignored.
func ensureClean(worktree *gogit.Worktree) error {
	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("failed to inspect worktree status: %w", err)
	}
	for path, fileStatus := range status {
		if fileStatus.Worktree == gogit.Untracked && fileStatus.Staging == gogit.Untracked {
			continue
		}
		if fileStatus.Worktree != gogit.Unmodified || fileStatus.Staging != gogit.Unmodified {
			return fmt.Errorf("%w: %s", ErrDirtyWorktree, path)
		}
	}
	return nil
}
