package entities

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBranchPrefix     = "dependency/update-"
	DefaultCommitMessage    = "Updating Dependencies"
	DefaultPullRequestTitle = "Updating Dependencies"
	DefaultCentralFile      = "Directory.Packages.props"
	DefaultFeedConfigFile   = "nuget.config"
	DefaultFeedTimeout      = 30 * time.Second
	DefaultFeedConcurrency  = 8
)

// Settings is the top-level configuration file.
type Settings struct {
	Providers   []ProviderConfig    `yaml:"providers"`
	Feeds       FeedSettings        `yaml:"feeds"`
	Manifests   ManifestSettings    `yaml:"manifests"`
	Publication PublicationSettings `yaml:"publication"`
	Ignore      []IgnoreRule        `yaml:"ignore"`
}

// ProviderConfig describes a single Git hosting provider instance.
type ProviderConfig struct {
	Type          string   `yaml:"type"`          // "github", "gitlab", "azuredevops"
	Token         string   `yaml:"token"`         // Inline, ${ENV_VAR}, or file path
	Organizations []string `yaml:"organizations"` // "org" or "org/project" for Azure DevOps
}

// FeedSettings tunes package feed queries.
type FeedSettings struct {
	Timeout     time.Duration    `yaml:"timeout"`
	Concurrency int              `yaml:"concurrency"`
	Credentials []FeedCredential `yaml:"credentials"`
}

// FeedCredential supplies basic auth for a feed that nuget.config lists without credentials.
type FeedCredential struct {
	Source   string `yaml:"source"` // feed key or URI
	Username string `yaml:"username"`
	Password string `yaml:"password"` // Inline, ${ENV_VAR}, or file path
}

// ManifestSettings controls which repository files are read.
type ManifestSettings struct {
	ProjectPatterns []string `yaml:"project_patterns"`
	CentralFile     string   `yaml:"central_file"`
	FeedConfig      string   `yaml:"feed_config"`
}

// PublicationSettings controls the branch, commit and pull request produced per repository.
type PublicationSettings struct {
	BranchPrefix     string `yaml:"branch_prefix"`
	CommitMessage    string `yaml:"commit_message"`
	PullRequestTitle string `yaml:"pull_request_title"`
	TargetBranch     string `yaml:"target_branch"`
	AutoComplete     bool   `yaml:"auto_complete"`
	Changelog        bool   `yaml:"changelog"`
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// NewSettings reads and validates a configuration file.
func NewSettings(path string) (*Settings, error) {
	settings, err := LoadSettings(path)
	if err != nil {
		return nil, err
	}
	if validateErr := settings.Validate(); validateErr != nil {
		return nil, validateErr
	}
	return settings, nil
}

// LoadSettings reads a configuration file without requiring a provider section.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}
	return ParseSettings(data)
}

// ParseSettings decodes YAML, resolves secrets and applies defaults without validating.
func ParseSettings(data []byte) (*Settings, error) {
	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	for i := range settings.Providers {
		settings.Providers[i].Token = ResolveToken(settings.Providers[i].Token)
	}
	for i := range settings.Feeds.Credentials {
		settings.Feeds.Credentials[i].Username = ResolveToken(settings.Feeds.Credentials[i].Username)
		settings.Feeds.Credentials[i].Password = ResolveToken(settings.Feeds.Credentials[i].Password)
	}

	settings.applyDefaults()
	return &settings, nil
}

// DefaultSettings is used by local mode when no configuration file exists.
func DefaultSettings() *Settings {
	settings := &Settings{}
	settings.applyDefaults()
	return settings
}

func (s *Settings) applyDefaults() {
	if s.Feeds.Timeout <= 0 {
		s.Feeds.Timeout = DefaultFeedTimeout
	}
	if s.Feeds.Concurrency <= 0 {
		s.Feeds.Concurrency = DefaultFeedConcurrency
	}
	if len(s.Manifests.ProjectPatterns) == 0 {
		s.Manifests.ProjectPatterns = []string{"**/*.csproj", "**/*.fsproj", "**/*.vbproj"}
	}
	if s.Manifests.CentralFile == "" {
		s.Manifests.CentralFile = DefaultCentralFile
	}
	if s.Manifests.FeedConfig == "" {
		s.Manifests.FeedConfig = DefaultFeedConfigFile
	}
	if s.Publication.BranchPrefix == "" {
		s.Publication.BranchPrefix = DefaultBranchPrefix
	}
	if s.Publication.CommitMessage == "" {
		s.Publication.CommitMessage = DefaultCommitMessage
	}
	if s.Publication.PullRequestTitle == "" {
		s.Publication.PullRequestTitle = DefaultPullRequestTitle
	}
}

// Validate checks for required configuration values.
func (s *Settings) Validate() error {
	if len(s.Providers) == 0 {
		return errors.New("at least one provider must be configured")
	}

	for i, provider := range s.Providers {
		if provider.Type == "" {
			return fmt.Errorf("providers[%d].type is required", i)
		}
		if provider.Token == "" {
			return fmt.Errorf(
				"providers[%d].token is required (set inline, via ${ENV_VAR}, or as file path)",
				i,
			)
		}
		if len(provider.Organizations) == 0 {
			return fmt.Errorf("providers[%d].organizations must have at least one entry", i)
		}
	}

	for i, rule := range s.Ignore {
		if strings.TrimSpace(rule.ID) == "" {
			return fmt.Errorf("ignore[%d].id is required", i)
		}
	}

	return nil
}

// FindConfigFile searches for a configuration file in standard locations.
func FindConfigFile() (string, error) {
	locations := []string{".", ".config", "configs"}
	if homeDir, err := os.UserHomeDir(); err == nil && homeDir != "" {
		locations = append(locations, homeDir, filepath.Join(homeDir, ".config"))
	}

	patterns := []string{
		".nugetupdater.yaml",
		".nugetupdater.yml",
		"nugetupdater.yaml",
		"nugetupdater.yml",
	}

	for _, location := range locations {
		for _, pattern := range patterns {
			candidate := filepath.Join(location, pattern)
			if _, statErr := os.Stat(candidate); statErr == nil {
				return candidate, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// ResolveToken expands ${VAR} references and, when the result names an existing
// file, returns that file's trimmed content instead.
func ResolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value := os.Getenv(varName); value != "" {
			return value
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	if info, statErr := os.Stat(resolved); statErr == nil && !info.IsDir() {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Debugf("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}
