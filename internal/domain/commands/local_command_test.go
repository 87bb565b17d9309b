//go:build unit

package commands_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/nugetupdater/internal/domain/commands"
	infraRepos "github.com/rios0rios0/nugetupdater/internal/infrastructure/repositories"
	"github.com/rios0rios0/nugetupdater/internal/infrastructure/repositories/localgit"
	commanddoubles "github.com/rios0rios0/nugetupdater/test/domain/commanddoubles"
	doubles "github.com/rios0rios0/nugetupdater/test/infrastructure/repositorydoubles"
)

func TestParseRemoteURL(t *testing.T) {
	t.Parallel()

	t.Run("should parse GitHub SSH URL", func(t *testing.T) {
		t.Parallel()

		// given
		url := "git@github.com:myorg/myrepo.git"

		// when
		info, err := commands.ParseRemoteURL(url)

		// then
		require.NoError(t, err)
		assert.Equal(t, "github", info.ProviderType)
		assert.Equal(t, "myorg", info.Org)
		assert.Equal(t, "myrepo", info.RepoName)
	})

	t.Run("should parse GitHub HTTPS URL", func(t *testing.T) {
		t.Parallel()

		// given
		url := "https://github.com/myorg/myrepo.git"

		// when
		info, err := commands.ParseRemoteURL(url)

		// then
		require.NoError(t, err)
		assert.Equal(t, "github", info.ProviderType)
		assert.Equal(t, "myorg", info.Org)
		assert.Equal(t, "myrepo", info.RepoName)
	})

	t.Run("should keep nested GitLab groups in the organization", func(t *testing.T) {
		t.Parallel()

		// given
		url := "https://gitlab.com/platform/dotnet/billing.git"

		// when
		info, err := commands.ParseRemoteURL(url)

		// then
		require.NoError(t, err)
		assert.Equal(t, &commands.RemoteInfo{
			ProviderType: "gitlab",
			Org:          "platform/dotnet",
			RepoName:     "billing",
		}, info)
	})

	t.Run("should parse Azure DevOps SSH URL", func(t *testing.T) {
		t.Parallel()

		// given
		url := "git@ssh.dev.azure.com:v3/contoso/Payments/billing-api"

		// when
		info, err := commands.ParseRemoteURL(url)

		// then
		require.NoError(t, err)
		assert.Equal(t, "azuredevops", info.ProviderType)
		assert.Equal(t, "contoso", info.Org)
		assert.Equal(t, "Payments", info.Project)
		assert.Equal(t, "billing-api", info.RepoName)
	})

	t.Run("should parse Azure DevOps HTTPS URL", func(t *testing.T) {
		t.Parallel()

		// given
		url := "https://contoso@dev.azure.com/contoso/Payments/_git/billing-api"

		// when
		info, err := commands.ParseRemoteURL(url)

		// then
		require.NoError(t, err)
		assert.Equal(t, "azuredevops", info.ProviderType)
		assert.Equal(t, "contoso", info.Org)
		assert.Equal(t, "Payments", info.Project)
		assert.Equal(t, "billing-api", info.RepoName)
	})

	t.Run("should parse legacy visualstudio.com URL", func(t *testing.T) {
		t.Parallel()

		// given
		url := "https://contoso.visualstudio.com/Payments/_git/billing-api"

		// when
		info, err := commands.ParseRemoteURL(url)

		// then
		require.NoError(t, err)
		assert.Equal(t, "contoso", info.Org)
		assert.Equal(t, "Payments", info.Project)
		assert.Equal(t, "billing-api", info.RepoName)
	})

	t.Run("should return error for unsupported URL", func(t *testing.T) {
		t.Parallel()

		// given
		url := "https://bitbucket.org/myorg/myrepo.git"

		// when
		_, err := commands.ParseRemoteURL(url)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported git remote URL")
	})

	t.Run("should return error for invalid Azure DevOps SSH URL", func(t *testing.T) {
		t.Parallel()

		// given
		url := "git@ssh.dev.azure.com:v3/contoso"

		// when
		_, err := commands.ParseRemoteURL(url)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid Azure DevOps URL")
	})
}

func TestResolveTokenFromEnv(t *testing.T) {
	t.Parallel()

	t.Run("should return empty string for unknown provider", func(t *testing.T) {
		t.Parallel()

		// given
		providerType := "bitbucket"

		// when
		token := commands.ResolveTokenFromEnv(providerType)

		// then
		assert.Empty(t, token)
	})
}

func TestTokenEnvHint(t *testing.T) {
	t.Parallel()

	t.Run("should return GitHub env hint", func(t *testing.T) {
		t.Parallel()

		// given, when
		hint := commands.TokenEnvHint("github")

		// then
		assert.Equal(t, "GITHUB_TOKEN or GH_TOKEN", hint)
	})

	t.Run("should return Azure DevOps env hint", func(t *testing.T) {
		t.Parallel()

		// given, when
		hint := commands.TokenEnvHint("azuredevops")

		// then
		assert.Equal(t, "AZURE_DEVOPS_EXT_PAT or SYSTEM_ACCESSTOKEN", hint)
	})

	t.Run("should return GitLab env hint", func(t *testing.T) {
		t.Parallel()

		// given, when
		hint := commands.TokenEnvHint("gitlab")

		// then
		assert.Equal(t, "GITLAB_TOKEN or GL_TOKEN", hint)
	})

	t.Run("should return unknown for unrecognized provider", func(t *testing.T) {
		t.Parallel()

		// given, when
		hint := commands.TokenEnvHint("bitbucket")

		// then
		assert.Equal(t, "<unknown provider>", hint)
	})
}

// initClone creates a repository with one commit and an origin remote.
func initClone(t *testing.T, remoteURL string) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "App.csproj"), []byte(appProject), 0o600))
	worktree, err := repo.Worktree()
	require.NoError(t, err)
	_, err = worktree.Add("App.csproj")
	require.NoError(t, err)
	_, err = worktree.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "dev", Email: "dev@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	_, err = repo.CreateRemote(&gitcfg.RemoteConfig{Name: "origin", URLs: []string{remoteURL}})
	require.NoError(t, err)
	return dir
}

func newLocalCommand(pipeline *commanddoubles.StubPipeline) *commands.LocalCommand {
	selector := &doubles.StubSelectorRepository{}
	return commands.NewLocalCommand(
		infraRepos.NewProviderRegistry(),
		infraRepos.NewSelectorRegistry(selector, selector),
		pipeline,
	)
}

func TestLocalCommandExecute(t *testing.T) {
	t.Parallel()

	t.Run("should run the pipeline on the clone described by its origin remote", func(t *testing.T) {
		t.Parallel()

		// given
		dir := initClone(t, "git@github.com:contoso/billing-api.git")
		pipeline := &commanddoubles.StubPipeline{Outcome: commands.OutcomeDryRun}
		command := newLocalCommand(pipeline)

		// when
		err := command.Execute(context.Background(), commands.LocalOptions{RepoDir: dir, DryRun: true})

		// then
		require.NoError(t, err)
		require.Len(t, pipeline.Processed, 1)
		repo := pipeline.Processed[0]
		assert.Equal(t, "billing-api", repo.Name)
		assert.Equal(t, "contoso", repo.Organization)
		assert.Equal(t, "github", repo.ProviderName)
		assert.Equal(t, "refs/heads/master", repo.DefaultBranch)
		assert.True(t, pipeline.LastOpts.DryRun)
	})

	t.Run("should refuse a dirty worktree before the pipeline runs", func(t *testing.T) {
		t.Parallel()

		// given
		dir := initClone(t, "git@github.com:contoso/billing-api.git")
		require.NoError(t, os.WriteFile(filepath.Join(dir, "App.csproj"), []byte("edited"), 0o600))
		pipeline := &commanddoubles.StubPipeline{Outcome: commands.OutcomePublished}
		command := newLocalCommand(pipeline)

		// when
		err := command.Execute(context.Background(), commands.LocalOptions{RepoDir: dir, Token: "token"})

		// then
		require.ErrorIs(t, err, localgit.ErrDirtyWorktree)
		assert.Empty(t, pipeline.Processed)
		repo, openErr := gogit.PlainOpen(dir)
		require.NoError(t, openErr)
		branches, branchErr := repo.Branches()
		require.NoError(t, branchErr)
		count := 0
		require.NoError(t, branches.ForEach(func(*plumbing.Reference) error {
			count++
			return nil
		}))
		assert.Equal(t, 1, count)
	})

	t.Run("should fail when the remote points to an unsupported host", func(t *testing.T) {
		t.Parallel()

		// given
		dir := initClone(t, "https://bitbucket.org/contoso/billing-api.git")
		pipeline := &commanddoubles.StubPipeline{}
		command := newLocalCommand(pipeline)

		// when
		err := command.Execute(context.Background(), commands.LocalOptions{RepoDir: dir, DryRun: true})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to detect git provider")
		assert.Empty(t, pipeline.Processed)
	})

	t.Run("should fail when the directory is not a git repository", func(t *testing.T) {
		t.Parallel()

		// given
		pipeline := &commanddoubles.StubPipeline{}
		command := newLocalCommand(pipeline)

		// when
		err := command.Execute(context.Background(), commands.LocalOptions{RepoDir: t.TempDir(), DryRun: true})

		// then
		require.Error(t, err)
		assert.Empty(t, pipeline.Processed)
	})
}

func TestLocalCommandRequiresToken(t *testing.T) {
	// given
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", "")
	dir := initClone(t, "https://github.com/contoso/billing-api.git")
	pipeline := &commanddoubles.StubPipeline{}
	command := newLocalCommand(pipeline)

	// when
	err := command.Execute(context.Background(), commands.LocalOptions{RepoDir: dir})

	// then
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GITHUB_TOKEN or GH_TOKEN")
	assert.Empty(t, pipeline.Processed)
}
