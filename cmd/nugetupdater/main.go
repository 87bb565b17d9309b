package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/nugetupdater/internal"
	"github.com/rios0rios0/nugetupdater/internal/infrastructure/controllers"
)

func buildRootCommand(localController *controllers.LocalController) *cobra.Command {
	//nolint:exhaustruct // Minimal Command initialization with required fields only
	cmd := &cobra.Command{
		Use:   "nugetupdater [path]",
		Short: "NuGet dependency update engine",
		Long: `Finds outdated NuGet packages in .NET repositories and opens Pull Requests
that bump them to the newest stable version available on their feeds.

Supports GitHub, GitLab, and Azure DevOps as Git hosting providers.

Usage modes:
  nugetupdater .              Update the current local repository (standalone mode)
  nugetupdater /path/to/repo  Update a specific local repository
  nugetupdater run            Batch mode using a config file (cronjob)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, args []string) error {
			if len(args) == 0 {
				return command.Help()
			}
			return localController.Execute(command, args)
		},
	}

	// Global persistent flags
	cmd.PersistentFlags().StringP("config", "c", "",
		"Path to config file (default: auto-detect)")
	cmd.PersistentFlags().String("token", "",
		"Auth token for the Git provider (overrides env var detection)")
	cmd.PersistentFlags().Bool("dry-run", false,
		"Show the available updates without publishing anything")
	cmd.PersistentFlags().BoolP("verbose", "v", false,
		"Enable verbose output")
	cmd.PersistentFlags().BoolP("yes", "y", false,
		"Apply every update without prompting")

	return cmd
}

func addSubcommands(rootCmd *cobra.Command, appContext *internal.AppInternal) {
	for _, controller := range appContext.GetControllers() {
		bind := controller.GetBind()
		//nolint:exhaustruct // Minimal Command initialization with required fields only
		subCmd := &cobra.Command{
			Use:   bind.Use,
			Short: bind.Short,
			Long:  bind.Long,
			RunE:  controller.Execute,
		}
		if _, isLocal := controller.(*controllers.LocalController); isLocal {
			subCmd.Args = cobra.MaximumNArgs(1)
		}

		// Add controller-specific flags
		if rc, ok := controller.(*controllers.RunController); ok {
			rc.AddFlags(subCmd)
		}

		rootCmd.AddCommand(subCmd)
	}
}

func main() {
	// a missing .env file is not an error
	_ = godotenv.Load()

	//nolint:exhaustruct // Minimal TextFormatter initialization with required fields only
	logger.SetFormatter(&logger.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	if os.Getenv("DEBUG") == "true" {
		logger.SetLevel(logger.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContext, localController := injectAppContext()
	cobraRoot := buildRootCommand(localController)
	addSubcommands(cobraRoot, appContext)

	if err := cobraRoot.ExecuteContext(ctx); err != nil {
		stop()
		logger.Fatalf("Error executing 'nugetupdater': %s", err)
	}
}
