package core

import (
	"context"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"pangea-projects/internal/policies"
	"pangea-projects/internal/types"
)

const (
	DefaultBranch         = "kubuntu_unstable"
	defaultFactoryWorkers = 4
)

type projectBuilder interface {
	Build(ctx context.Context, params types.ProjectParams) (*types.Project, error)
}

// ProjectFactory expands a project configuration into build targets,
// builds them and links the resulting dependency graph.
type ProjectFactory struct {
	Registry *BackendRegistry
	Builder  projectBuilder
	// Defaults supplies branch and origin for entries that set neither.
	Defaults types.ProjectParams
	Workers  int
	// ListRetry bounds the repository listings of structured entries.
	ListRetry       RetryPolicy
	ContinueOnError bool
}

func NewProjectFactory(registry *BackendRegistry, builder projectBuilder) *ProjectFactory {
	return &ProjectFactory{
		Registry: registry,
		Builder:  builder,
		Defaults:  types.ProjectParams{Branch: DefaultBranch, Origin: types.OriginUnstable},
		Workers:   defaultFactoryWorkers,
		ListRetry: DefaultListRetryPolicy(),
	}
}

// FromConfig builds every project cfg names. Aborted builds are returned
// as a multierror next to the projects that did build when
// ContinueOnError is set.
func (f *ProjectFactory) FromConfig(ctx context.Context, cfg types.FactoryConfig) ([]*types.Project, types.BatchReport, error) {
	started := time.Now()
	targets, err := f.Targets(ctx, cfg)
	if err != nil {
		return nil, types.BatchReport{}, err
	}
	projects, report, buildErr := f.build(ctx, targets)
	ResolveDependencies(ctx, projects)
	_, report.Collisions = CollectProviders(ctx, projects)
	log.Ctx(ctx).Info().
		Int("built", report.Built).
		Int("skipped", len(report.Skipped)).
		Int("aborted", len(report.Aborted)).
		Dur("elapsed", time.Since(started)).
		Msg("project factory finished")
	return projects, report, buildErr
}

// Targets resolves every configuration entry into build parameters, in
// configuration order.
func (f *ProjectFactory) Targets(ctx context.Context, cfg types.FactoryConfig) ([]types.ProjectParams, error) {
	defaults := f.defaults(cfg)
	var targets []types.ProjectParams
	for _, section := range cfg.Sections {
		backend, err := f.Registry.Resolve(section.Type)
		if err != nil {
			return nil, err
		}
		for _, entry := range section.Entries {
			expanded, err := f.expand(ctx, backend, entry, defaults)
			if err != nil {
				return nil, err
			}
			targets = append(targets, expanded...)
		}
	}
	return targets, nil
}

func (f *ProjectFactory) defaults(cfg types.FactoryConfig) types.ProjectParams {
	defaults := types.ProjectParams{Branch: DefaultBranch, Origin: types.OriginUnstable}
	if f.Defaults.Branch != "" {
		defaults.Branch = f.Defaults.Branch
	}
	if f.Defaults.Origin != "" {
		defaults.Origin = f.Defaults.Origin
	}
	if cfg.Origin != "" {
		defaults.Origin = cfg.Origin
	}
	return defaults
}

func (f *ProjectFactory) expand(ctx context.Context, backend Backend, entry types.FactoryEntry, defaults types.ProjectParams) ([]types.ProjectParams, error) {
	if !entry.Structured {
		return []types.ProjectParams{withDefaults(backend.Params(entry.Path), defaults, "")}, nil
	}
	if backend.Lister == nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("backend " + string(backend.Kind) + " cannot enumerate " + entry.Base)
	}
	var names []string
	err := f.ListRetry.Do(ctx, "list", func(ctx context.Context) error {
		listed, err := backend.Lister.List(ctx, entry.Base)
		if err != nil {
			return err
		}
		names = listed
		return nil
	})
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to list " + entry.Base).
			WithCause(err)
	}
	names = uniqueSorted(names)

	rules := map[string]types.SubsetRule{}
	patterns := make([]policies.Pattern, 0, len(entry.Subsets))
	for _, subset := range entry.Subsets {
		rules[subset.Pattern] = subset
		patterns = append(patterns, policies.NewPattern(subset.Pattern))
	}

	var targets []types.ProjectParams
	for _, name := range names {
		best, ok := policies.BestMatch(name, patterns)
		if !ok {
			continue
		}
		rule := rules[best.String()]
		if rule.Exclude {
			log.Ctx(ctx).Debug().Str("repo", name).Str("pattern", best.String()).Msg("repository excluded")
			continue
		}
		repoPath := name
		if entry.Base != "" {
			repoPath = path.Join(entry.Base, name)
		}
		params := withDefaults(backend.Params(repoPath), defaults, rule.Branch)
		params.IgnoreMissingBranches = best.Wildcard()
		targets = append(targets, params)
	}
	log.Ctx(ctx).Debug().
		Str("backend", string(backend.Kind)).
		Str("base", entry.Base).
		Int("listed", len(names)).
		Int("selected", len(targets)).
		Msg("repositories enumerated")
	return targets, nil
}

func withDefaults(params types.ProjectParams, defaults types.ProjectParams, branch string) types.ProjectParams {
	params.Branch = defaults.Branch
	if branch != "" {
		params.Branch = branch
	}
	params.Origin = defaults.Origin
	return params
}

func (f *ProjectFactory) build(ctx context.Context, targets []types.ProjectParams) ([]*types.Project, types.BatchReport, error) {
	workers := f.Workers
	if workers <= 0 {
		workers = defaultFactoryWorkers
	}
	built := make([]*types.Project, len(targets))
	skipped := make([]*types.SkipRecord, len(targets))
	aborted := make([]*types.SkipRecord, len(targets))

	var mu sync.Mutex
	var aborts *multierror.Error
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i, target := range targets {
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return nil
			}
			project, err := f.Builder.Build(groupCtx, target)
			if err == nil {
				built[i] = project
				return nil
			}
			record := skipRecord(target, err)
			if buildErr, ok := AsBuildError(err); ok && buildErr.Skippable {
				log.Ctx(ctx).Info().
					Str("project", record.Project).
					Str("kind", record.Kind).
					Msg("project skipped")
				skipped[i] = &record
				return nil
			}
			if !f.ContinueOnError && groupCtx.Err() != nil {
				log.Ctx(ctx).Debug().Str("project", record.Project).Msg("project canceled")
				return nil
			}
			log.Ctx(ctx).Error().Err(err).Str("project", record.Project).Msg("project aborted")
			aborted[i] = &record
			if !f.ContinueOnError {
				return err
			}
			mu.Lock()
			aborts = multierror.Append(aborts, err)
			mu.Unlock()
			return nil
		})
	}
	waitErr := group.Wait()

	report := types.BatchReport{}
	var projects []*types.Project
	for i := range targets {
		if built[i] != nil {
			projects = append(projects, built[i])
		}
		if skipped[i] != nil {
			report.Skipped = append(report.Skipped, *skipped[i])
		}
		if aborted[i] != nil {
			report.Aborted = append(report.Aborted, *aborted[i])
		}
	}
	report.Built = len(projects)
	if waitErr != nil {
		return projects, report, waitErr
	}
	if err := ctx.Err(); err != nil {
		return projects, report, err
	}
	return projects, report, aborts.ErrorOrNil()
}

func skipRecord(target types.ProjectParams, err error) types.SkipRecord {
	id := target.Name
	if target.Component != "" {
		id = target.Component + "/" + target.Name
	}
	kind := "error"
	if buildErr, ok := AsBuildError(err); ok {
		kind = string(buildErr.Kind)
	}
	return types.SkipRecord{Project: id, Kind: kind, Reason: err.Error()}
}

func uniqueSorted(values []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok || value == "" {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}
