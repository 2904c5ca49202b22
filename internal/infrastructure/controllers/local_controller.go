package controllers

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/refupdate/internal/domain/commands"
	"github.com/rios0rios0/refupdate/internal/domain/entities"
)

// LocalController handles the root command with a path argument (standalone local mode).
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
		Short: "Update git-ref pins in a local repository",
		Long: `Update git-ref-pinned dependencies in a local working tree.
Scans GitHub Actions workflows and Terraform modules, resolves every pin
against its remote and rewrites the declarations in place.`,
	}
}

// Execute runs the local update mode.
func (it *LocalController) Execute(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	values := flagValues(cmd)

	settings, err := loadSettings(values)
	if err != nil {
		logger.Errorf("failed to load config: %v", err)
		return
	}

	repoDir := "."
	if len(args) > 0 {
		repoDir = args[0]
	}

	if err = it.command.Execute(ctx, settings, commands.LocalOptions{
		UpdateOptions: entities.UpdateOptions{
			DryRun:            values.GetBool("dry-run"),
			Verbose:           values.GetBool("verbose"),
			RaiseOnAllIgnored: values.GetBool("raise-on-ignored"),
			Changelog:         values.GetString("changelog"),
		},
		RepoDir:   repoDir,
		Ecosystem: values.GetString("ecosystem"),
	}); err != nil {
		logger.Errorf("Local update failed: %v", err)
	}
}

// AddFlags adds the local-specific flags to the given Cobra command.
func (it *LocalController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("ecosystem", "", "Only update this ecosystem (github-actions, terraform)")
	cmd.Flags().String("changelog", "", "Record the updates in this Keep-a-Changelog file")
	cmd.Flags().Int("concurrency", 0, "Number of dependencies resolved in parallel")
}
