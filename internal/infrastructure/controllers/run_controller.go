package controllers

import (
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/nugetupdater/internal/domain/commands"
	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
)

// RunController handles the "run" subcommand (batch mode).
type RunController struct {
	command commands.Run
}

// NewRunController creates a new RunController.
func NewRunController(command commands.Run) *RunController {
	return &RunController{command: command}
}

// GetBind returns the Cobra command metadata for the run controller.
func (it *RunController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "run",
		Short: "Update NuGet packages across hosted repositories",
		Long: `Discover repositories, look for outdated NuGet packages in their
.csproj files and Directory.Packages.props, and open Pull Requests.

Repositories are discovered from each provider and organization of
the configuration file. On a terminal, the repositories and the updates
are chosen interactively; with --yes or without a terminal, everything
found is applied.`,
	}
}

// Execute runs the batch update mode.
func (it *RunController) Execute(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")
	providerFilter, _ := cmd.Flags().GetString("provider")
	orgOverride, _ := cmd.Flags().GetString("org")
	repoFilter, _ := cmd.Flags().GetString("repo")

	cfgPath := configPath
	if cfgPath == "" {
		var err error
		cfgPath, err = entities.FindConfigFile()
		if err != nil {
			return fmt.Errorf(
				"no config file found: %w; specify one with --config or create .nugetupdater.yaml", err,
			)
		}
	}

	logger.Infof("Using config file: %s", cfgPath)

	settings, err := entities.NewSettings(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("Starting NuGet update run...")

	return it.command.Execute(cmd.Context(), settings, commands.RunOptions{
		DryRun:       dryRun,
		Verbose:      verbose,
		Interactive:  isInteractive(cmd),
		ProviderName: providerFilter,
		OrgOverride:  orgOverride,
		RepoFilter:   repoFilter,
	})
}

// AddFlags adds the run-specific flags to the given Cobra command.
func (it *RunController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "Only process this provider (github, gitlab, azuredevops)")
	cmd.Flags().String("org", "", "Only process this organization, group or org/project scope")
	cmd.Flags().String("repo", "", "Only process repositories whose name matches this glob")
}
