package app

import (
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"pangea-projects/internal/adapters"
	"pangea-projects/internal/core"
	"pangea-projects/internal/ports"
	"pangea-projects/internal/types"
)

const (
	DefaultNeonGitHost      = "neon@packaging.neon.kde.org.uk"
	DefaultNeonURLBase      = "git://packaging.neon.kde.org.uk"
	DefaultDebianGitHost    = "git.debian.org"
	DefaultDebianGitRoot    = "/git"
	DefaultDebianURLBase    = "git.debian.org:/git"
	DefaultGitHubURLBase    = "https://github.com"
	DefaultGitLabURL        = "https://gitlab.com"
	DefaultLaunchpadURLBase = "lp:"
	DefaultL10nHost         = "ftpubuntu@depot.kde.org"
	DefaultL10nRoot         = "stable/applications"
	DefaultGitSSHUser       = "git"
	l10nComponent           = "kde-l10n"
)

func applyBackendDefaults(settings BackendSettings) BackendSettings {
	if settings.NeonGitHost == "" {
		settings.NeonGitHost = DefaultNeonGitHost
	}
	if settings.NeonURLBase == "" {
		settings.NeonURLBase = DefaultNeonURLBase
	}
	if settings.DebianGitHost == "" {
		settings.DebianGitHost = DefaultDebianGitHost
	}
	if settings.DebianGitRoot == "" {
		settings.DebianGitRoot = DefaultDebianGitRoot
	}
	if settings.DebianURLBase == "" {
		settings.DebianURLBase = DefaultDebianURLBase
	}
	if settings.GitHubURLBase == "" {
		settings.GitHubURLBase = DefaultGitHubURLBase
	}
	if settings.GitLabURL == "" {
		settings.GitLabURL = DefaultGitLabURL
	}
	if settings.GitLabURLBase == "" {
		settings.GitLabURLBase = settings.GitLabURL
	}
	if settings.LaunchpadURLBase == "" {
		settings.LaunchpadURLBase = DefaultLaunchpadURLBase
	}
	if settings.L10nHost == "" {
		settings.L10nHost = DefaultL10nHost
	}
	if settings.L10nRoot == "" {
		settings.L10nRoot = DefaultL10nRoot
	}
	if settings.L10nURLBase == "" {
		settings.L10nURLBase = settings.NeonURLBase
	}
	if settings.GitSSHUser == "" {
		settings.GitSSHUser = DefaultGitSSHUser
	}
	return settings
}

// NewBackendRegistry wires every recognizer to its lister and parameter
// mapping. Listers only connect when they are used.
func NewBackendRegistry(settings BackendSettings) (*core.BackendRegistry, error) {
	settings = applyBackendDefaults(settings)
	remote := adapters.NewSSHCommandAdapter(settings.SSH)
	github, err := adapters.NewGitHubLister(settings.GitHubToken, settings.GitHubAPIURL)
	if err != nil {
		return nil, err
	}
	gitlab, err := adapters.NewGitLabLister(settings.GitLabToken, settings.GitLabURL)
	if err != nil {
		return nil, err
	}

	registry := core.NewBackendRegistry()
	for _, entry := range core.DefaultRecognizers() {
		backend := core.Backend{Kind: entry.Kind}
		switch entry.Kind {
		case types.BackendGitolite:
			backend.Lister = adapters.NewGitoliteLister(remote, settings.NeonGitHost)
			backend.Params = core.GitPathParams(settings.NeonURLBase)
		case types.BackendSSHFind:
			backend.Lister = adapters.NewSSHFindLister(remote, settings.DebianGitHost, settings.DebianGitRoot)
			backend.Params = core.GitPathParams(settings.DebianURLBase)
		case types.BackendGitHub:
			backend.Lister = github
			backend.Params = core.GitPathParams(settings.GitHubURLBase)
		case types.BackendGitLab:
			backend.Lister = gitlab
			backend.Params = core.GitPathParams(settings.GitLabURLBase)
		case types.BackendLaunchpad:
			backend.Params = core.LaunchpadParams(settings.LaunchpadURLBase)
		case types.BackendMirror:
			backend.Lister = adapters.NewSFTPMirrorLister(settings.L10nHost, settings.L10nRoot, settings.SSH)
			backend.Params = core.FixedComponentParams(l10nComponent, settings.L10nURLBase)
		}
		registry.Register(entry.Recognize, backend)
	}
	return registry, nil
}

// recognizerRegistry resolves configuration keys without any network
// collaborators.
func recognizerRegistry() *core.BackendRegistry {
	registry := core.NewBackendRegistry()
	for _, entry := range core.DefaultRecognizers() {
		registry.Register(entry.Recognize, core.Backend{Kind: entry.Kind})
	}
	return registry
}

func newVCSAdapters(settings BackendSettings) (map[types.SCMKind]ports.VCSPort, error) {
	settings = applyBackendDefaults(settings)
	var auth *gitssh.PublicKeys
	if settings.SSH.KeyPath != "" {
		if _, err := os.Stat(settings.SSH.KeyPath); err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("ssh key not found").
				WithCause(err)
		}
		keys, err := gitssh.NewPublicKeysFromFile(settings.GitSSHUser, settings.SSH.KeyPath, "")
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid ssh key " + settings.SSH.KeyPath).
				WithCause(err)
		}
		if settings.SSH.KnownHostsPath != "" {
			callback, err := knownhosts.New(settings.SSH.KnownHostsPath)
			if err != nil {
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeFailedPrecondition).
					WithMsg("failed to load known_hosts").
					WithCause(err)
			}
			keys.HostKeyCallback = callback
		}
		auth = keys
	}
	git := adapters.NewGitVCSAdapter(nil)
	if auth != nil {
		git = adapters.NewGitVCSAdapter(auth)
	}
	return map[types.SCMKind]ports.VCSPort{
		types.SCMKindGit: git,
		types.SCMKindBzr: adapters.NewBzrVCSAdapter(),
	}, nil
}
