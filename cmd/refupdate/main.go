package main

import (
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/refupdate/internal"
	"github.com/rios0rios0/refupdate/internal/domain/entities"
)

// flagAdder is implemented by controllers that need their own flags.
type flagAdder interface {
	AddFlags(cmd *cobra.Command)
}

func buildRootCommand() *cobra.Command {
	//nolint:exhaustruct // Minimal Command initialization with required fields only
	cmd := &cobra.Command{
		Use:   "refupdate",
		Short: "Update dependencies pinned to git refs",
		Long: `Keeps git-ref-pinned dependencies (GitHub Actions "uses:" lines,
Terraform git module sources) up to date.

Pins are resolved against the remote's tags and branches: version tags move
to the newest version in the same style, branch pins track the branch tip and
commit SHAs move to the commit of the newest release. Security advisories
(OSV format) steer the update to the lowest safe version.

Usage modes:
  refupdate local .                    Rewrite pins in the current repository
  refupdate resolve actions/checkout@v3  Show what a single pin resolves to

Each flag can also be set as REFUPDATE_<FLAG>, e.g. REFUPDATE_DRY_RUN=true.`,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, _ []string) error {
			return command.Help()
		},
	}

	// Global persistent flags
	cmd.PersistentFlags().StringP("config", "c", "",
		"Path to config file (default: auto-detect)")
	cmd.PersistentFlags().String("token", "",
		"Auth token for the Git provider (overrides env var detection)")
	cmd.PersistentFlags().String("provider", entities.ProviderGitHub,
		"Provider the --token belongs to (github, gitlab, azuredevops, bitbucket, codecommit)")
	cmd.PersistentFlags().StringSlice("advisories", nil,
		"OSV advisory files or URLs, in addition to the config file")
	cmd.PersistentFlags().Bool("raise-on-ignored", false,
		"Fail when ignore rules filter out every newer version")
	cmd.PersistentFlags().Bool("dry-run", false,
		"Show what would be done without making changes")
	cmd.PersistentFlags().BoolP("verbose", "v", false,
		"Enable verbose output")

	return cmd
}

func addSubcommands(rootCmd *cobra.Command, appContext *internal.AppInternal) {
	for _, controller := range appContext.GetControllers() {
		bind := controller.GetBind()
		ctrl := controller // capture for closure
		//nolint:exhaustruct // Minimal Command initialization with required fields only
		subCmd := &cobra.Command{
			Use:   bind.Use,
			Short: bind.Short,
			Long:  bind.Long,
			Run: func(command *cobra.Command, arguments []string) {
				ctrl.Execute(command, arguments)
			},
		}

		if adder, ok := ctrl.(flagAdder); ok {
			adder.AddFlags(subCmd)
		}

		rootCmd.AddCommand(subCmd)
	}
}

func main() {
	//nolint:exhaustruct // Minimal TextFormatter initialization with required fields only
	logger.SetFormatter(&logger.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	if os.Getenv("DEBUG") == "true" {
		logger.SetLevel(logger.DebugLevel)
	}

	cobraRoot := buildRootCommand()
	addSubcommands(cobraRoot, injectAppContext())

	if err := cobraRoot.Execute(); err != nil {
		logger.Fatalf("Error executing 'refupdate': %s", err)
	}
}
