package commands

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
	"github.com/rios0rios0/refupdate/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/refupdate/internal/infrastructure/repositories"
)

const fileMode = 0o644

// Local is the interface for the local command (standalone mode).
type Local interface {
	Execute(ctx context.Context, settings *entities.Settings, opts LocalOptions) error
}

// LocalOptions holds runtime options for the local mode.
type LocalOptions struct {
	entities.UpdateOptions
	RepoDir   string
	Ecosystem string // If set, only scan files of this ecosystem (CLI override)
}

// skippedDirs are never scanned for declarations.
var skippedDirs = map[string]bool{ //nolint:gochecknoglobals // read-only lookup table
	".git":         true,
	".terraform":   true,
	"node_modules": true,
	"vendor":       true,
}

// scannedFile is one file holding declarations, with the ecosystem that owns it.
type scannedFile struct {
	Path      string
	Content   string
	Ecosystem repositories.EcosystemRepository
}

// LocalCommand rewrites git-ref pins in a working tree:
// scan files -> resolve each dependency -> rewrite the declarations in place.
type LocalCommand struct {
	refSourceRegistry *infraRepos.RefSourceRegistry
	ecosystemRegistry *infraRepos.EcosystemRegistry
	advisoryRepo      repositories.AdvisoryRepository
}

// NewLocalCommand creates a new LocalCommand with the given registries.
func NewLocalCommand(
	refSourceRegistry *infraRepos.RefSourceRegistry,
	ecosystemRegistry *infraRepos.EcosystemRegistry,
	advisoryRepo repositories.AdvisoryRepository,
) *LocalCommand {
	return &LocalCommand{
		refSourceRegistry: refSourceRegistry,
		ecosystemRegistry: ecosystemRegistry,
		advisoryRepo:      advisoryRepo,
	}
}

// Execute is the entry point for the standalone local mode.
func (it *LocalCommand) Execute(ctx context.Context, settings *entities.Settings, opts LocalOptions) error {
	if opts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	repoDir, err := filepath.Abs(opts.RepoDir)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	files, dependencies, err := it.scan(repoDir, opts.Ecosystem)
	if err != nil {
		return err
	}
	if len(dependencies) == 0 {
		logger.Info("No git-ref-pinned dependencies found, nothing to do.")
		return nil
	}
	logger.Infof("Found %d dependencies in %d files", len(dependencies), len(files))

	planner, err := it.newPlanner(ctx, settings, opts)
	if err != nil {
		return err
	}

	plans, errs := it.planAll(ctx, planner, dependencies, settings.Concurrency)

	var updates []entities.DeclarationUpdate
	for _, plan := range plans {
		if plan == nil {
			continue
		}
		updates = append(updates, plan.Updates...)
	}

	if len(updates) == 0 {
		logger.Info("All dependencies are up to date.")
		return errs.ErrorOrNil()
	}

	changed := applyPlans(files, plans)
	if opts.DryRun {
		for _, update := range updates {
			logger.Infof(
				"[DRY RUN] Would update %s from %s to %s in %s:%d",
				entities.DependencyName(update.Previous), update.Previous.Ref, update.Updated.Ref,
				update.Previous.File, update.Previous.Line,
			)
		}
		return errs.ErrorOrNil()
	}

	for _, path := range sortedPaths(changed) {
		target := filepath.Join(repoDir, path)
		if writeErr := os.WriteFile(target, []byte(changed[path]), fileMode); writeErr != nil {
			errs = multierror.Append(errs, fmt.Errorf("failed to write %s: %w", path, writeErr))
			continue
		}
		logger.Infof("Updated %s", path)
	}

	if opts.Changelog != "" {
		if changelogErr := recordChangelog(opts.Changelog, updates); changelogErr != nil {
			errs = multierror.Append(errs, changelogErr)
		}
	}

	logger.Infof("Local run complete: %d declarations updated in %d files", len(updates), len(changed))
	return errs.ErrorOrNil()
}

// scan walks repoDir and parses every file an ecosystem claims.
func (it *LocalCommand) scan(
	repoDir, onlyEcosystem string,
) (map[string]*scannedFile, []entities.Dependency, error) {
	files := make(map[string]*scannedFile)
	declarations := make(map[string][]entities.Declaration)
	var ecosystemOrder []string

	err := filepath.WalkDir(repoDir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			if skippedDirs[entry.Name()] && path != repoDir {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(repoDir, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		ecosystem := it.ecosystemRegistry.Detect(rel)
		if ecosystem == nil || (onlyEcosystem != "" && ecosystem.Name() != onlyEcosystem) {
			return nil
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			logger.Warnf("[%s] Failed to read %s: %v", ecosystem.Name(), rel, readErr)
			return nil
		}

		parsed, parseErr := ecosystem.ParseDeclarations(rel, string(content))
		if parseErr != nil {
			logger.Warnf("[%s] %v", ecosystem.Name(), parseErr)
			return nil
		}
		if len(parsed) == 0 {
			return nil
		}

		logger.Debugf("[%s] %s: %d declarations", ecosystem.Name(), rel, len(parsed))
		files[rel] = &scannedFile{Path: rel, Content: string(content), Ecosystem: ecosystem}
		if _, seen := declarations[ecosystem.Name()]; !seen {
			ecosystemOrder = append(ecosystemOrder, ecosystem.Name())
		}
		declarations[ecosystem.Name()] = append(declarations[ecosystem.Name()], parsed...)
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan %s: %w", repoDir, err)
	}

	var dependencies []entities.Dependency
	for _, name := range ecosystemOrder {
		dependencies = append(dependencies, entities.GroupDeclarations(name, declarations[name])...)
	}
	return files, dependencies, nil
}

func (it *LocalCommand) newPlanner(
	ctx context.Context,
	settings *entities.Settings,
	opts LocalOptions,
) (*dependencyPlanner, error) {
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
		logger.Infof("Loaded %d security advisories", len(advisories))
	}

	return newDependencyPlanner(
		it.refSourceRegistry.Router(settings),
		advisories,
		resolverOptions(ignoreRules, opts.RaiseOnAllIgnored || settings.RaiseOnIgnored),
	), nil
}

// planAll resolves independent dependencies in parallel. Each goroutine owns
// one slot of the result slice; failures are collected, never fatal to the batch.
func (it *LocalCommand) planAll(
	ctx context.Context,
	planner *dependencyPlanner,
	dependencies []entities.Dependency,
	concurrency int,
) ([]*dependencyPlan, *multierror.Error) {
	plans := make([]*dependencyPlan, len(dependencies))
	failures := make([]error, len(dependencies))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(concurrency, 1))
	for i, dep := range dependencies {
		group.Go(func() error {
			plan, err := planner.plan(groupCtx, dep)
			plans[i] = plan
			if err != nil {
				logger.Errorf("[%s] %s: %v", dep.Ecosystem, dep.Name, err)
				failures[i] = fmt.Errorf("%s: %w", dep.Name, err)
			}
			return nil
		})
	}
	_ = group.Wait()

	var errs *multierror.Error
	for _, failure := range failures {
		if failure != nil {
			errs = multierror.Append(errs, failure)
		}
	}
	return plans, errs
}

// applyPlans rewrites file contents and returns the files that changed.
func applyPlans(files map[string]*scannedFile, plans []*dependencyPlan) map[string]string {
	contents := make(map[string]string)
	for _, plan := range plans {
		if plan == nil {
			continue
		}
		for _, update := range plan.Updates {
			file, ok := files[update.Previous.File]
			if !ok {
				continue
			}
			current, seen := contents[file.Path]
			if !seen {
				current = file.Content
			}
			contents[file.Path] = file.Ecosystem.ApplyUpdate(current, update, plan.Index)
		}
	}

	for path, content := range contents {
		if content == files[path].Content {
			delete(contents, path)
		}
	}
	return contents
}

func recordChangelog(path string, updates []entities.DeclarationUpdate) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read changelog %s: %w", path, err)
	}
	updated := entities.RecordInChangelog(string(content), entities.ChangelogEntries(updates))
	if updated == string(content) {
		logger.Warnf("Changelog %s has no Unreleased section, leaving it untouched", path)
		return nil
	}
	if err = os.WriteFile(path, []byte(updated), fileMode); err != nil {
		return fmt.Errorf("failed to write changelog %s: %w", path, err)
	}
	return nil
}

func sortedPaths(contents map[string]string) []string {
	paths := make([]string, 0, len(contents))
	for path := range contents {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
