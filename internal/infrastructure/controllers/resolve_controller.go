package controllers

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/refupdate/internal/domain/commands"
	"github.com/rios0rios0/refupdate/internal/domain/entities"
)

// ResolveController handles the "resolve" subcommand.
type ResolveController struct {
	command commands.Resolve
}

// NewResolveController creates a new ResolveController.
func NewResolveController(command commands.Resolve) *ResolveController {
	return &ResolveController{command: command}
}

// GetBind returns the Cobra command metadata for the resolve controller.
func (it *ResolveController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "resolve <repository@ref>",
		Short: "Show what a single pin would be updated to",
		Long: `Resolve one git-ref pin against its remote without touching any file.

The reference is either owner/repo[/path]@ref for GitHub, or a full clone
URL followed by @ref for any other host:

  refupdate resolve actions/checkout@v3
  refupdate resolve https://gitlab.com/group/module.git@v1.2.0`,
	}
}

// resolveReport is the YAML document printed for a resolution.
type resolveReport struct {
	Dependency  string       `yaml:"dependency"`
	Source      string       `yaml:"source"`
	Current     string       `yaml:"current"`
	Latest      *resolvedPin `yaml:"latest,omitempty"`
	SecurityFix *resolvedPin `yaml:"security_fix,omitempty"`
	Target      *resolvedPin `yaml:"target,omitempty"`
	Update      bool         `yaml:"update"`
}

type resolvedPin struct {
	Kind    string `yaml:"kind"`
	Ref     string `yaml:"ref"`
	Version string `yaml:"version,omitempty"`
	Commit  string `yaml:"commit,omitempty"`
}

// Execute resolves the reference and prints the result.
func (it *ResolveController) Execute(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		logger.Error("resolve expects exactly one <repository@ref> argument")
		return
	}

	ctx := context.Background()
	values := flagValues(cmd)

	settings, err := loadSettings(values)
	if err != nil {
		logger.Errorf("failed to load config: %v", err)
		return
	}

	result, err := it.command.Execute(ctx, settings, commands.ResolveOptions{
		Reference:         args[0],
		RaiseOnAllIgnored: values.GetBool("raise-on-ignored"),
	})
	if err != nil {
		logger.Errorf("Resolve failed: %v", err)
		return
	}

	encoder := yaml.NewEncoder(cmd.OutOrStdout())
	defer encoder.Close()
	if err = encoder.Encode(newResolveReport(result)); err != nil {
		logger.Errorf("failed to print result: %v", err)
	}
}

func newResolveReport(result *commands.ResolveResult) resolveReport {
	return resolveReport{
		Dependency:  entities.DependencyName(result.Declaration),
		Source:      result.Declaration.SourceURL,
		Current:     result.Current,
		Latest:      newResolvedPin(result.Latest),
		SecurityFix: newResolvedPin(result.SecurityFix),
		Target:      newResolvedPin(result.Target),
		Update:      result.Target.IsUpdate(),
	}
}

func newResolvedPin(resolution *entities.Resolution) *resolvedPin {
	if resolution == nil {
		return nil
	}
	pin := &resolvedPin{Kind: resolution.Kind.String(), Ref: resolution.Ref, Commit: resolution.CommitSHA}
	if resolution.Version != nil {
		pin.Version = resolution.Version.Version.String()
	}
	return pin
}
