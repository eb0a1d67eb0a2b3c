package core

import (
	"context"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"pangea-projects/internal/ports"
	"pangea-projects/internal/types"
)

const (
	DefaultUpstreamBase   = "https://anongit.kde.org"
	DefaultUpstreamBranch = "master"
	defaultUpstreamDomain = ".kde.org"
)

// DefaultUpstreamSCM derives the upstream repository from the packaging
// repository name.
func DefaultUpstreamSCM(packagingURL string) types.SCM {
	name := strings.TrimSuffix(path.Base(strings.TrimRight(packagingURL, "/")), ".git")
	name = strings.TrimSuffix(name, "-qt4")
	return types.NewSCM(types.SCMKindGit, DefaultUpstreamBase+"/"+name, DefaultUpstreamBranch)
}

type UpstreamAdjuster struct {
	Lookup ports.ReleaseLookupPort
	Domain string
}

func NewUpstreamAdjuster(lookup ports.ReleaseLookupPort) UpstreamAdjuster {
	return UpstreamAdjuster{Lookup: lookup, Domain: defaultUpstreamDomain}
}

// AdjustForRelease swaps the default branch for the release branch of
// the matching upstream project. It returns nil when no adjustment
// applies or the lookup is not unique.
func (a UpstreamAdjuster) AdjustForRelease(ctx context.Context, scm types.SCM, origin types.Origin) *types.SCM {
	if a.Lookup == nil || !a.applies(scm) {
		return nil
	}
	projects, err := a.Lookup.FindByRepoURL(ctx, scm.URL)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("url", scm.URL).Msg("upstream release lookup failed")
		return nil
	}
	if len(projects) != 1 {
		ids := make([]string, 0, len(projects))
		for _, project := range projects {
			ids = append(ids, project.Identifier)
		}
		log.Ctx(ctx).Warn().
			Str("url", scm.URL).
			Strs("matches", ids).
			Msg("could not uniquely resolve upstream project")
		return nil
	}
	branch := projects[0].TrunkBranch
	if origin == types.OriginStable {
		branch = projects[0].StableBranch
	}
	if strings.TrimSpace(branch) == "" {
		log.Ctx(ctx).Warn().
			Str("url", scm.URL).
			Str("origin", string(origin)).
			Msg("upstream project has no release branch")
		return nil
	}
	adjusted := scm
	adjusted.Branch = branch
	return &adjusted
}

func (a UpstreamAdjuster) applies(scm types.SCM) bool {
	domain := a.Domain
	if domain == "" {
		domain = defaultUpstreamDomain
	}
	return scm.Branch == DefaultUpstreamBranch && strings.Contains(scm.URL, domain)
}
