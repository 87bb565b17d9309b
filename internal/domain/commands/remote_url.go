package commands

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

const (
	providerGitHub      = "github"
	providerAzureDevOps = "azuredevops"
	providerGitLab      = "gitlab"
)

// remoteInfo holds the parsed components of a Git remote URL.
type remoteInfo struct {
	ProviderType string
	Org          string
	Project      string // Azure DevOps only
	RepoName     string
}

// parseRemoteURL extracts provider, org, project and repository name from an
// HTTPS or SSH remote URL.
func parseRemoteURL(rawURL string) (*remoteInfo, error) {
	host, repoPath, err := splitRemote(strings.TrimSuffix(strings.TrimSpace(rawURL), ".git"))
	if err != nil {
		return nil, err
	}
	segments := strings.Split(strings.Trim(repoPath, "/"), "/")

	switch {
	case strings.HasSuffix(host, "dev.azure.com") || strings.HasSuffix(host, "visualstudio.com"):
		return parseAzureDevOpsPath(host, segments, rawURL)
	case strings.Contains(host, "github"):
		return ownerAndName(providerGitHub, segments, rawURL)
	case strings.Contains(host, "gitlab"):
		return ownerAndName(providerGitLab, segments, rawURL)
	default:
		return nil, fmt.Errorf("unsupported git remote URL: %s", rawURL)
	}
}

// splitRemote returns the host and path of both URL and scp-like (git@host:path) remotes.
func splitRemote(remote string) (string, string, error) {
	if !strings.Contains(remote, "://") {
		userHost, remotePath, ok := strings.Cut(remote, ":")
		if !ok {
			return "", "", fmt.Errorf("invalid git remote URL: %s", remote)
		}
		_, host, found := strings.Cut(userHost, "@")
		if !found {
			host = userHost
		}
		return strings.ToLower(host), remotePath, nil
	}

	parsed, err := url.Parse(remote)
	if err != nil {
		return "", "", fmt.Errorf("invalid git remote URL %s: %w", remote, err)
	}
	return strings.ToLower(parsed.Hostname()), parsed.Path, nil
}

func parseAzureDevOpsPath(host string, segments []string, rawURL string) (*remoteInfo, error) {
	// git@ssh.dev.azure.com:v3/org/project/repo
	if len(segments) == 4 && segments[0] == "v3" { //nolint:mnd // v3/org/project/repo
		return &remoteInfo{
			ProviderType: providerAzureDevOps,
			Org:          segments[1],
			Project:      segments[2],
			RepoName:     segments[3],
		}, nil
	}

	// https://dev.azure.com/org/project/_git/repo or https://org.visualstudio.com/project/_git/repo
	for i, segment := range segments {
		if segment != "_git" || i+1 >= len(segments) {
			continue
		}
		info := &remoteInfo{ProviderType: providerAzureDevOps, RepoName: segments[i+1]}
		switch {
		case i >= 2: //nolint:mnd // org/project/_git
			info.Org, info.Project = segments[i-2], segments[i-1]
		case i == 1 && strings.HasSuffix(host, "visualstudio.com"):
			info.Org, info.Project = strings.TrimSuffix(host, ".visualstudio.com"), segments[0]
		default:
			return nil, fmt.Errorf("invalid Azure DevOps URL: %s", rawURL)
		}
		return info, nil
	}

	return nil, fmt.Errorf("invalid Azure DevOps URL: %s", rawURL)
}

func ownerAndName(providerType string, segments []string, rawURL string) (*remoteInfo, error) {
	if len(segments) < 2 || segments[0] == "" { //nolint:mnd // owner + name
		return nil, fmt.Errorf("cannot extract org/repo from URL: %s", rawURL)
	}
	// GitLab groups can be nested: everything but the last segment is the namespace
	last := len(segments) - 1
	return &remoteInfo{
		ProviderType: providerType,
		Org:          strings.Join(segments[:last], "/"),
		RepoName:     segments[last],
	}, nil
}

func resolveTokenFromEnv(providerType string) string {
	for _, name := range tokenEnvVars(providerType) {
		if token := os.Getenv(name); token != "" {
			return token
		}
	}
	return ""
}

func tokenEnvVars(providerType string) []string {
	switch providerType {
	case providerGitHub:
		return []string{"GITHUB_TOKEN", "GH_TOKEN"}
	case providerAzureDevOps:
		return []string{"AZURE_DEVOPS_EXT_PAT", "SYSTEM_ACCESSTOKEN"}
	case providerGitLab:
		return []string{"GITLAB_TOKEN", "GL_TOKEN"}
	default:
		return nil
	}
}

func tokenEnvHint(providerType string) string {
	if names := tokenEnvVars(providerType); len(names) > 0 {
		return strings.Join(names, " or ")
	}
	return "<unknown provider>"
}
