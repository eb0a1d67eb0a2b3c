package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pangea-projects/internal/adapters"
	"pangea-projects/internal/app"
	"pangea-projects/internal/types"
)

type projectsOptions struct {
	ProjectsConfig    string
	OverrideFiles     []string
	CacheDir          string
	Branch            string
	Origin            string
	Workers           int
	ContinueOnError   bool
	OutputDir         string
	MetricsFile       string
	VCSAttempts       int
	VCSRetryDelay     time.Duration
	VCSAttemptTimeout time.Duration
	ProjectsAPI       string
	HTTPTimeoutSec    int
	HTTPRetries       int
	HTTPRetryDelayMs  int
	Backends          backendOptions
}

func newProjectsCommand() *cobra.Command {
	opts := projectsOptions{}
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Build every configured project and link the dependency graph",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProjects(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ProjectsConfig, "projects", "", "Project configuration file")
	cmd.Flags().StringSliceVar(&opts.OverrideFiles, "overrides", nil, "Override files, later files win")
	cmd.Flags().StringVar(&opts.CacheDir, "cache-dir", "", "Clone cache directory")
	cmd.Flags().StringVar(&opts.Branch, "branch", "", "Default packaging branch")
	cmd.Flags().StringVar(&opts.Origin, "origin", "", "Default release origin (unstable, stable, release)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "Concurrent project builds")
	cmd.Flags().BoolVar(&opts.ContinueOnError, "continue-on-error", false, "Keep building after a project aborts")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "out", "Output directory")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Prometheus textfile to write run metrics to")
	cmd.Flags().IntVar(&opts.VCSAttempts, "vcs-attempts", 0, "Attempts per clone or update")
	cmd.Flags().DurationVar(&opts.VCSRetryDelay, "vcs-retry-delay", 0, "Delay between clone or update attempts")
	cmd.Flags().DurationVar(&opts.VCSAttemptTimeout, "vcs-attempt-timeout", 0, "Timeout per clone or update attempt")
	cmd.Flags().StringVar(&opts.ProjectsAPI, "projects-api", adapters.DefaultProjectsAPI, "KDE projects API endpoint")
	cmd.Flags().IntVar(&opts.HTTPTimeoutSec, "http-timeout", 0, "Projects API timeout in seconds")
	cmd.Flags().IntVar(&opts.HTTPRetries, "http-retries", 0, "Projects API retries")
	cmd.Flags().IntVar(&opts.HTTPRetryDelayMs, "http-retry-delay-ms", 0, "Projects API retry delay in milliseconds")
	addBackendFlags(cmd, &opts.Backends)

	_ = viper.BindPFlag("projects_config", cmd.Flags().Lookup("projects"))
	_ = viper.BindPFlag("override_files", cmd.Flags().Lookup("overrides"))
	_ = viper.BindPFlag("cache_dir", cmd.Flags().Lookup("cache-dir"))
	_ = viper.BindPFlag("branch", cmd.Flags().Lookup("branch"))
	_ = viper.BindPFlag("origin", cmd.Flags().Lookup("origin"))
	_ = viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("continue_on_error", cmd.Flags().Lookup("continue-on-error"))
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("metrics_file", cmd.Flags().Lookup("metrics-file"))
	_ = viper.BindPFlag("vcs_attempts", cmd.Flags().Lookup("vcs-attempts"))
	_ = viper.BindPFlag("vcs_retry_delay", cmd.Flags().Lookup("vcs-retry-delay"))
	_ = viper.BindPFlag("vcs_attempt_timeout", cmd.Flags().Lookup("vcs-attempt-timeout"))
	_ = viper.BindPFlag("taxonomy_endpoint", cmd.Flags().Lookup("projects-api"))
	_ = viper.BindPFlag("http_timeout_sec", cmd.Flags().Lookup("http-timeout"))
	_ = viper.BindPFlag("http_retries", cmd.Flags().Lookup("http-retries"))
	_ = viper.BindPFlag("http_retry_delay_ms", cmd.Flags().Lookup("http-retry-delay-ms"))

	return cmd
}

func projectsRequest(cmd *cobra.Command, opts projectsOptions) (app.ProjectsRequest, error) {
	var pills []types.PoisonPill
	if viper.IsSet("poison_pills") {
		if err := viper.UnmarshalKey("poison_pills", &pills); err != nil {
			return app.ProjectsRequest{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid poison_pills").
				WithCause(err)
		}
	}
	return app.ProjectsRequest{
		ConfigPath:        resolveString(cmd, opts.ProjectsConfig, "projects_config", "projects"),
		OverrideFiles:     resolveStrings(cmd, opts.OverrideFiles, "override_files", "overrides"),
		CacheDir:          resolveString(cmd, opts.CacheDir, "cache_dir", "cache-dir"),
		Branch:            resolveString(cmd, opts.Branch, "branch", "branch"),
		Origin:            resolveString(cmd, opts.Origin, "origin", "origin"),
		Workers:           resolveInt(cmd, opts.Workers, "workers", "workers"),
		ContinueOnError:   resolveBool(cmd, opts.ContinueOnError, "continue_on_error", "continue-on-error"),
		OutputDir:         resolveString(cmd, opts.OutputDir, "output", "output"),
		MetricsFile:       resolveString(cmd, opts.MetricsFile, "metrics_file", "metrics-file"),
		SkipUpdates:       skipUpdates(),
		VCSAttempts:       resolveInt(cmd, opts.VCSAttempts, "vcs_attempts", "vcs-attempts"),
		VCSRetryDelay:     resolveDuration(cmd, opts.VCSRetryDelay, "vcs_retry_delay", "vcs-retry-delay"),
		VCSAttemptTimeout: resolveDuration(cmd, opts.VCSAttemptTimeout, "vcs_attempt_timeout", "vcs-attempt-timeout"),
		ProjectsAPI:       resolveString(cmd, opts.ProjectsAPI, "taxonomy_endpoint", "projects-api"),
		HTTPTimeoutSec:    resolveInt(cmd, opts.HTTPTimeoutSec, "http_timeout_sec", "http-timeout"),
		HTTPRetries:       resolveInt(cmd, opts.HTTPRetries, "http_retries", "http-retries"),
		HTTPRetryDelayMs:  resolveInt(cmd, opts.HTTPRetryDelayMs, "http_retry_delay_ms", "http-retry-delay-ms"),
		PoisonPills:       pills,
		Backends:          resolveBackends(cmd, opts.Backends),
	}, nil
}

func runProjects(ctx context.Context, cmd *cobra.Command, opts projectsOptions) error {
	req, err := projectsRequest(cmd, opts)
	if err != nil {
		return err
	}
	service := newAppService()
	result, err := service.Projects(ctx, req)
	if result.ProjectsPath != "" {
		fmt.Printf("projects: %d built, %d skipped, %d aborted\n",
			result.Report.Built, len(result.Report.Skipped), len(result.Report.Aborted))
		fmt.Printf("written: %s, %s\n", result.ProjectsPath, result.ReportPath)
	}
	return err
}

// skipUpdates reports whether NO_UPDATE is present in the environment,
// whatever its value, or no_update is enabled in the config file.
func skipUpdates() bool {
	if _, ok := os.LookupEnv("NO_UPDATE"); ok {
		return true
	}
	return viper.GetBool("no_update")
}
