package app

import (
	"time"

	"pangea-projects/internal/adapters"
	"pangea-projects/internal/types"
)

// BackendSettings locates every repository host a configuration can
// name. Empty values fall back to the public KDE neon infrastructure.
type BackendSettings struct {
	NeonGitHost      string
	NeonURLBase      string
	DebianGitHost    string
	DebianGitRoot    string
	DebianURLBase    string
	GitHubToken      string
	GitHubAPIURL     string
	GitHubURLBase    string
	GitLabToken      string
	GitLabURL        string
	GitLabURLBase    string
	LaunchpadURLBase string
	L10nHost         string
	L10nRoot         string
	L10nURLBase      string
	GitSSHUser       string
	SSH              adapters.SSHConfig
}

type ProjectsRequest struct {
	ConfigPath        string
	OverrideFiles     []string
	CacheDir          string
	WorkDir           string
	Branch            string
	Origin            string
	Workers           int
	ContinueOnError   bool
	OutputDir         string
	MetricsFile       string
	SkipUpdates       bool
	VCSAttempts       int
	VCSRetryDelay     time.Duration
	VCSAttemptTimeout time.Duration
	ProjectsAPI       string
	HTTPTimeoutSec    int
	HTTPRetries       int
	HTTPRetryDelayMs  int
	PoisonPills       []types.PoisonPill
	Backends          BackendSettings
}

type ProjectsResult struct {
	Projects     []*types.Project
	Report       types.BatchReport
	ProjectsPath string
	ReportPath   string
}

type ValidateRequest struct {
	ConfigPath    string
	OverrideFiles []string
}

type ValidateResult struct {
	Origin        types.Origin
	Sections      []ValidateSection
	OverrideRules int
}

type ValidateSection struct {
	Type    string
	Backend types.BackendKind
	Entries int
}

type ListRequest struct {
	Backend   string
	Namespace string
	Contains  string
	Backends  BackendSettings
}

type ListResult struct {
	Backend types.BackendKind
	Names   []string
}

type OverridesRequest struct {
	OverrideFiles []string
	Kind          string
	URL           string
	Branch        string
}

type OverridesResult struct {
	SCM   types.SCM
	Rules types.OverrideRules
}

type InspectRequest struct {
	OutputDir string
}

type InspectProjectSummary struct {
	ID           string
	KDEComponent string
	Dependencies int
	Dependees    int
}

type InspectResult struct {
	ProjectCount int
	Projects     []InspectProjectSummary
	Components   map[string]int
	Report       types.BatchReport
}
