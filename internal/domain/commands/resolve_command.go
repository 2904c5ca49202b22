package commands

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
	"github.com/rios0rios0/refupdate/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/refupdate/internal/infrastructure/repositories"
)

// Resolve is the interface for the resolve command.
type Resolve interface {
	Execute(ctx context.Context, settings *entities.Settings, opts ResolveOptions) (*ResolveResult, error)
}

// ResolveOptions holds the single pin to resolve.
type ResolveOptions struct {
	Reference         string // owner/repo[/path]@ref or <clone URL>@ref
	RaiseOnAllIgnored bool
}

// ResolveResult reports what a pin would be moved to, without touching any file.
type ResolveResult struct {
	Declaration entities.Declaration
	Current     string
	Latest      *entities.Resolution
	SecurityFix *entities.Resolution
	Target      *entities.Resolution
}

// ResolveCommand answers "what would this pin be updated to?" for a single reference.
type ResolveCommand struct {
	refSourceRegistry *infraRepos.RefSourceRegistry
	advisoryRepo      repositories.AdvisoryRepository
}

// NewResolveCommand creates a new ResolveCommand.
func NewResolveCommand(
	refSourceRegistry *infraRepos.RefSourceRegistry,
	advisoryRepo repositories.AdvisoryRepository,
) *ResolveCommand {
	return &ResolveCommand{refSourceRegistry: refSourceRegistry, advisoryRepo: advisoryRepo}
}

// Execute resolves the reference against its remote.
func (it *ResolveCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts ResolveOptions,
) (*ResolveResult, error) {
	decl, err := entities.ParseDeclarationReference(opts.Reference)
	if err != nil {
		return nil, err
	}

	ignoreRules, err := settings.IgnoreRules()
	if err != nil {
		return nil, err
	}

	var advisories []entities.SecurityAdvisory
	if len(settings.Advisories) > 0 {
		advisories, err = it.advisoryRepo.LoadAdvisories(ctx, settings.Advisories)
		if err != nil {
			logger.Warnf("Some advisories could not be loaded: %v", err)
		}
	}

	planner := newDependencyPlanner(
		it.refSourceRegistry.Router(settings),
		advisories,
		resolverOptions(ignoreRules, opts.RaiseOnAllIgnored || settings.RaiseOnIgnored),
	)

	dep := entities.Dependency{
		Name:         entities.DependencyName(decl),
		SourceURL:    decl.SourceURL,
		Ecosystem:    "cli",
		Declarations: []entities.Declaration{decl},
	}
	logger.Debugf("Resolving %s at %s", dep.Name, decl.Ref)

	plan, err := planner.plan(ctx, dep)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", opts.Reference, err)
	}
	if plan.Index.IsEmpty() {
		return nil, fmt.Errorf("no refs could be listed for %s", decl.SourceURL)
	}

	return &ResolveResult{
		Declaration: decl,
		Current:     decl.Ref,
		Latest:      plan.Latest,
		SecurityFix: plan.SecurityFix,
		Target:      plan.Target,
	}, nil
}
