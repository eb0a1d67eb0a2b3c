package core

import (
	"path"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pangea-projects/internal/ports"
	"pangea-projects/internal/types"
)

// Backend is one configured repository host: how to list it and how a
// listed path becomes build parameters.
type Backend struct {
	Kind   types.BackendKind
	Lister ports.RepoListerPort
	Params func(repoPath string) types.ProjectParams
}

type Recognizer func(key string) bool

type registryEntry struct {
	recognize Recognizer
	backend   Backend
}

// BackendRegistry maps configuration keys onto backends. Recognizers are
// evaluated in registration order.
type BackendRegistry struct {
	entries []registryEntry
}

func NewBackendRegistry() *BackendRegistry {
	return &BackendRegistry{}
}

func (r *BackendRegistry) Register(recognize Recognizer, backend Backend) {
	r.entries = append(r.entries, registryEntry{recognize: recognize, backend: backend})
}

func (r *BackendRegistry) Resolve(key string) (Backend, error) {
	for _, entry := range r.entries {
		if entry.recognize(key) {
			return entry.backend, nil
		}
	}
	return Backend{}, errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("unknown backend type: " + key)
}

func ContainsAny(needles ...string) Recognizer {
	return func(key string) bool {
		for _, needle := range needles {
			if strings.Contains(key, needle) {
				return true
			}
		}
		return false
	}
}

type RecognizerEntry struct {
	Kind      types.BackendKind
	Recognize Recognizer
}

// DefaultRecognizers lists the backend recognizers in priority order.
func DefaultRecognizers() []RecognizerEntry {
	return []RecognizerEntry{
		{Kind: types.BackendGitolite, Recognize: ContainsAny("neon.kde.org")},
		{Kind: types.BackendSSHFind, Recognize: ContainsAny("git.debian.org", "salsa.debian.org")},
		{Kind: types.BackendGitHub, Recognize: ContainsAny("github.com")},
		{Kind: types.BackendGitLab, Recognize: ContainsAny("gitlab")},
		{Kind: types.BackendLaunchpad, Recognize: ContainsAny("launchpad.net")},
		{Kind: types.BackendMirror, Recognize: ContainsAny("kde-l10n")},
	}
}

// GitPathParams maps "<prefix>/<component>/<name>" below urlBase: the
// last directory is the component, anything above it extends the base.
func GitPathParams(urlBase string) func(string) types.ProjectParams {
	return func(repoPath string) types.ProjectParams {
		repoPath = strings.Trim(repoPath, "/")
		dir := path.Dir(repoPath)
		params := types.ProjectParams{Name: path.Base(repoPath), URLBase: urlBase}
		if dir == "." {
			return params
		}
		params.Component = path.Base(dir)
		if parent := path.Dir(dir); parent != "." {
			params.URLBase = JoinURL(urlBase, parent)
		}
		return params
	}
}

// LaunchpadParams maps "<team>/<name>" onto the lp: namespace.
func LaunchpadParams(prefix string) func(string) types.ProjectParams {
	return func(repoPath string) types.ProjectParams {
		repoPath = strings.Trim(repoPath, "/")
		dir := path.Dir(repoPath)
		base := prefix
		if dir != "." {
			base = prefix + dir
		}
		return types.ProjectParams{
			Name:      path.Base(repoPath),
			Component: types.ComponentLaunchpad,
			URLBase:   base,
		}
	}
}

// FixedComponentParams puts every repository into one component and
// ignores any listing prefix.
func FixedComponentParams(component string, urlBase string) func(string) types.ProjectParams {
	return func(repoPath string) types.ProjectParams {
		return types.ProjectParams{
			Name:      path.Base(strings.Trim(repoPath, "/")),
			Component: component,
			URLBase:   urlBase,
		}
	}
}
