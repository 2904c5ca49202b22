package commands

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
	"github.com/rios0rios0/refupdate/internal/domain/repositories"
	"github.com/rios0rios0/refupdate/internal/domain/resolver"
	"github.com/rios0rios0/refupdate/internal/domain/rewriter"
)

// dependencyPlan is the outcome of resolving one dependency.
type dependencyPlan struct {
	Dependency  entities.Dependency
	Index       *entities.RefIndex
	Primary     entities.Declaration
	Latest      *entities.Resolution
	SecurityFix *entities.Resolution
	Target      *entities.Resolution
	Updates     []entities.DeclarationUpdate
}

// dependencyPlanner wires the resolution pipeline for one run:
// snapshot refs, resolve the primary pin, weigh the security fix, fan out.
type dependencyPlanner struct {
	loader     *resolver.RefIndexLoader
	versions   *resolver.VersionResolver
	security   *resolver.SecuritySelector
	rewriter   *rewriter.RequirementRewriter
	advisories []entities.SecurityAdvisory
	opts       resolver.Options
}

func newDependencyPlanner(
	refSource repositories.RefSourceRepository,
	advisories []entities.SecurityAdvisory,
	opts resolver.Options,
) *dependencyPlanner {
	return &dependencyPlanner{
		loader:     resolver.NewRefIndexLoader(refSource),
		versions:   resolver.NewVersionResolver(refSource),
		security:   resolver.NewSecuritySelector(),
		rewriter:   rewriter.NewRequirementRewriter(),
		advisories: advisories,
		opts:       opts,
	}
}

func (it *dependencyPlanner) plan(ctx context.Context, dep entities.Dependency) (*dependencyPlan, error) {
	index := it.loader.Load(ctx, dep.SourceURL)
	result := &dependencyPlan{Dependency: dep, Index: index}

	primary, latest, err := it.versions.ResolveDependency(ctx, dep, index, it.opts)
	result.Primary = primary
	result.Latest = latest
	if err != nil {
		var ambiguous *entities.AmbiguousBranchesError
		if errors.As(err, &ambiguous) || errors.Is(err, entities.ErrAllVersionsIgnored) {
			return result, err
		}
		logger.Warnf("Failed to resolve %s: %v", dep.Name, err)
		latest = entities.NoUpdate(primary.Ref, nil)
	}
	result.Target = latest

	relevant := entities.AdvisoriesFor(it.advisories, dep)
	if len(relevant) > 0 {
		fix, fixErr := it.security.LowestSecurityFixVersion(primary, index, relevant, it.opts)
		if fixErr != nil {
			return result, fixErr
		}
		result.SecurityFix = fix
		if it.preferSecurityFix(latest, fix, relevant) {
			logger.Infof("Using security fix %s for %s", fix.Ref, dep.Name)
			result.Target = fix
		}
	}

	result.Updates = it.rewriter.Updates(dep, result.Target, index)
	return result, nil
}

// preferSecurityFix picks the fix when the regular update would leave the
// dependency vulnerable.
func (it *dependencyPlanner) preferSecurityFix(
	latest, fix *entities.Resolution,
	advisories []entities.SecurityAdvisory,
) bool {
	if !fix.IsUpdate() {
		return false
	}
	if !latest.IsUpdate() || latest.Version == nil {
		return true
	}
	return it.security.IsVulnerable(latest.Version.Version, advisories)
}

func resolverOptions(rules []entities.IgnoreRule, raiseOnAllIgnored bool) resolver.Options {
	return resolver.Options{IgnoreRules: rules, RaiseOnAllIgnored: raiseOnAllIgnored}
}
