package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	"pangea-projects/internal/adapters"
	"pangea-projects/internal/core"
	"pangea-projects/internal/policies"
	"pangea-projects/internal/ports"
	"pangea-projects/internal/types"
)

// Projects builds every project the configuration names, links the
// dependency graph and writes it out. Outputs are written even when some
// projects aborted; the aborts are returned afterwards.
func (s Service) Projects(ctx context.Context, req ProjectsRequest) (ProjectsResult, error) {
	configPath := strings.TrimSpace(req.ConfigPath)
	if configPath == "" {
		return ProjectsResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("project config path is required")
	}
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return ProjectsResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}
	origin := types.Origin(req.Origin)
	if origin != "" && !origin.Valid() {
		return ProjectsResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unknown origin: " + req.Origin)
	}

	cfg, err := s.ConfigLoader.LoadConfig(configPath)
	if err != nil {
		return ProjectsResult{}, err
	}
	overrides, err := s.OverrideLoader.LoadOverrides(req.OverrideFiles)
	if err != nil {
		return ProjectsResult{}, err
	}
	registry, err := NewBackendRegistry(req.Backends)
	if err != nil {
		return ProjectsResult{}, err
	}
	vcs, err := newVCSAdapters(req.Backends)
	if err != nil {
		return ProjectsResult{}, err
	}
	cacheDir, err := cacheDirectory(req.CacheDir)
	if err != nil {
		return ProjectsResult{}, err
	}

	var metrics ports.MetricsPort
	if req.MetricsFile != "" {
		metrics = adapters.NewPrometheusMetricsAdapter()
	}
	retry := core.DefaultRetryPolicy()
	if req.VCSAttempts > 0 {
		retry.Attempts = req.VCSAttempts
	}
	if req.VCSRetryDelay > 0 {
		retry.Delay = req.VCSRetryDelay
	}
	if req.VCSAttemptTimeout > 0 {
		retry.AttemptTimeout = req.VCSAttemptTimeout
	}
	if metrics != nil {
		retry.OnRetry = metrics.ObserveRetry
	}

	projectsAPI := adapters.NewProjectsAPIAdapter(req.ProjectsAPI, req.HTTPTimeoutSec, req.HTTPRetries, req.HTTPRetryDelayMs)
	pills := req.PoisonPills
	if pills == nil {
		pills = policies.DefaultPoisonPills()
	}
	builder := &core.ProjectBuilder{
		Policy:     policies.NewProjectPolicy(pills),
		Overrides:  core.NewOverrideResolver(overrides),
		Classifier: core.NewClassifier(projectsAPI),
		Upstream:   core.NewUpstreamAdjuster(projectsAPI),
		VCS:        vcs,
		Packaging:  s.Packaging,
		Guard:      core.NewUpdateGuard(req.SkipUpdates),
		Retry:      retry,
		CacheDir:   cacheDir,
		WorkDir:    req.WorkDir,
	}
	factory := core.NewProjectFactory(registry, builder)
	if req.Branch != "" {
		factory.Defaults.Branch = req.Branch
	}
	if origin != "" {
		factory.Defaults.Origin = origin
	}
	if req.Workers > 0 {
		factory.Workers = req.Workers
	}
	factory.ContinueOnError = req.ContinueOnError
	if metrics != nil {
		factory.ListRetry.OnRetry = metrics.ObserveRetry
	}

	started := s.now()
	projects, report, buildErr := factory.FromConfig(ctx, cfg)
	elapsed := s.now().Sub(started).Seconds()

	result := ProjectsResult{Projects: projects, Report: report}
	var errs *multierror.Error
	if buildErr != nil {
		errs = multierror.Append(errs, buildErr)
	}
	if result.ProjectsPath, err = s.Output.WriteProjects(outputDir, projects); err != nil {
		errs = multierror.Append(errs, err)
	}
	if result.ReportPath, err = s.Output.WriteReport(outputDir, report); err != nil {
		errs = multierror.Append(errs, err)
	}
	if metrics != nil {
		metrics.ObserveReport(report, elapsed)
		if err := metrics.Flush(req.MetricsFile); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	log.Ctx(ctx).Info().
		Str("output", outputDir).
		Int("projects", len(projects)).
		Int("collisions", len(report.Collisions)).
		Msg("project graph written")
	if err := errs.ErrorOrNil(); err != nil {
		return result, flattenErrors(err)
	}
	return result, nil
}

// flattenErrors unwraps a single-error multierror so callers can match
// its code.
func flattenErrors(err error) error {
	if merr, ok := err.(*multierror.Error); ok && len(merr.Errors) == 1 {
		return merr.Errors[0]
	}
	return err
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func cacheDirectory(dir string) (string, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return "", errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg("cache directory is required").
				WithCause(err)
		}
		dir = filepath.Join(base, "pangea-projects")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid cache directory").
			WithCause(err)
	}
	return abs, nil
}
