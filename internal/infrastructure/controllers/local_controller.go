package controllers

import (
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/nugetupdater/internal/domain/commands"
	"github.com/rios0rios0/nugetupdater/internal/domain/entities"
)

// LocalController handles the standalone mode on a local clone.
type LocalController struct {
	command commands.Local
}

// NewLocalController creates a new LocalController.
func NewLocalController(command commands.Local) *LocalController {
	return &LocalController{command: command}
}

// GetBind returns the Cobra command metadata for the local controller.
func (it *LocalController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "local [path]",
		Short: "Update NuGet packages in a local repository",
		Long: `Update the NuGet packages of a local Git clone.
The hosting provider is detected from the origin remote; the update is
committed on a new branch, pushed, and proposed as a Pull Request against
the current branch.`,
	}
}

// Execute runs the local update mode.
func (it *LocalController) Execute(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")
	token, _ := cmd.Flags().GetString("token")
	configPath, _ := cmd.Flags().GetString("config")

	repoDir := "."
	if len(args) > 0 {
		repoDir = args[0]
	}

	settings, err := loadOptionalSettings(configPath)
	if err != nil {
		return err
	}

	return it.command.Execute(cmd.Context(), commands.LocalOptions{
		RepoDir:     repoDir,
		DryRun:      dryRun,
		Verbose:     verbose,
		Interactive: isInteractive(cmd),
		Token:       token,
		Settings:    settings,
	})
}

// loadOptionalSettings reads the given file, an auto-detected one, or falls back
// to the defaults. Local mode needs no provider section.
func loadOptionalSettings(configPath string) (*entities.Settings, error) {
	if configPath == "" {
		found, err := entities.FindConfigFile()
		if err != nil {
			logger.Debug("No config file found, using defaults")
			return entities.DefaultSettings(), nil
		}
		configPath = found
	}

	settings, err := entities.LoadSettings(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Infof("Using config file: %s", configPath)
	return settings, nil
}
