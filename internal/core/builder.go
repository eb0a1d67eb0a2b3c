package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"pangea-projects/internal/policies"
	"pangea-projects/internal/ports"
	"pangea-projects/internal/types"
)

// ProjectBuilder turns build parameters into a Project: it materializes
// the packaging repository, reads its metadata and applies overrides.
type ProjectBuilder struct {
	Policy     policies.ProjectPolicy
	Overrides  *OverrideResolver
	Classifier *Classifier
	Upstream   UpstreamAdjuster
	VCS        map[types.SCMKind]ports.VCSPort
	Packaging  ports.PackagingParserPort
	Guard      *UpdateGuard
	Retry      RetryPolicy
	// CacheDir holds the clone cache; WorkDir the temporary checkouts.
	CacheDir string
	WorkDir  string
}

func (b *ProjectBuilder) Build(ctx context.Context, params types.ProjectParams) (*types.Project, error) {
	fail := func(kind ErrorKind, err error) (*types.Project, error) {
		return nil, &BuildError{Kind: kind, Name: params.Name, Component: params.Component, Err: err}
	}
	if err := b.Policy.ValidateIdentity(params.Name, params.Component); err != nil {
		return fail(ErrKindValidation, err)
	}
	if err := b.Policy.PoisonPill(params.Name, params.Component); err != nil {
		buildErr := &BuildError{Kind: ErrKindPoisonPill, Name: params.Name, Component: params.Component, Skippable: true, Err: err}
		return nil, buildErr
	}

	project := &types.Project{
		Name:         params.Name,
		Component:    params.Component,
		KDEComponent: b.Classifier.Classify(ctx, params.Name),
		PackagingSCM: PackagingSCM(params),
	}

	rules := b.Overrides.RulesFor(project.PackagingSCM)
	if override, ok := rules[types.MemberPackagingSCM]; ok {
		if err := b.applyOverride(ctx, project, types.MemberPackagingSCM, override); err != nil {
			return fail(ErrKindOverride, err)
		}
	}
	assert.NotEmpty(ctx, project.PackagingSCM.URL, "packaging url must be set")

	tmp, err := os.MkdirTemp(b.WorkDir, "checkout-")
	if err != nil {
		return fail(ErrKindTransaction, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create checkout directory").
			WithCause(err))
	}
	defer os.RemoveAll(tmp)
	workdir := filepath.Join(tmp, "src")
	series, err := b.materialize(ctx, project.PackagingSCM, workdir)
	if err != nil {
		if errors.Is(err, ports.ErrBranchNotFound) {
			return nil, &BuildError{
				Kind:      ErrKindMissingBranch,
				Name:      params.Name,
				Component: params.Component,
				Skippable: params.IgnoreMissingBranches,
				Err: errbuilder.New().
					WithCode(errbuilder.CodeNotFound).
					WithMsg(fmt.Sprintf("branch %q not found in %s", project.PackagingSCM.Branch, project.PackagingSCM.URL)).
					WithCause(err),
			}
		}
		return fail(ErrKindTransaction, err)
	}
	project.SeriesBranches = series

	meta, err := b.Packaging.Parse(workdir)
	if err != nil {
		return fail(ErrKindPackaging, err)
	}
	project.BuildDepends = meta.BuildDepends
	project.ProvidedBinaries = meta.Binaries
	project.Autopkgtest = meta.Autopkgtest
	project.Native = meta.Native
	project.Debian = meta.Debian
	project.SnapcraftPath = meta.SnapcraftPath

	switch {
	case project.Component == types.ComponentLaunchpad:
		project.UpstreamSCM = nil
	case project.Native:
		if err := b.Policy.CheckNative(project.Component, true); err != nil {
			return fail(ErrKindNativeGuard, err)
		}
		project.UpstreamSCM = nil
	default:
		upstream := DefaultUpstreamSCM(project.PackagingSCM.URL)
		project.UpstreamSCM = &upstream
	}

	for _, member := range sortedRuleMembers(rules) {
		if member == types.MemberPackagingSCM {
			continue
		}
		if err := b.applyOverride(ctx, project, member, rules[member]); err != nil {
			return fail(ErrKindOverride, err)
		}
	}

	if project.UpstreamSCM != nil {
		if adjusted := b.Upstream.AdjustForRelease(ctx, *project.UpstreamSCM, params.Origin); adjusted != nil {
			project.UpstreamSCM = adjusted
		}
	}

	log.Ctx(ctx).Debug().
		Str("project", project.ID()).
		Int("deps", len(project.BuildDepends)).
		Int("binaries", len(project.ProvidedBinaries)).
		Msg("project built")
	return project, nil
}

func (b *ProjectBuilder) applyOverride(ctx context.Context, project *types.Project, member string, override types.MemberOverride) error {
	if err := policies.ApplyOverride(project, member, override); err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Str("project", project.ID()).
			Str("member", member).
			Interface("rule", override).
			Msg("override application failed")
		return err
	}
	return nil
}

// materialize clones or updates the cache for scm and exports its branch
// into checkout.
func (b *ProjectBuilder) materialize(ctx context.Context, scm types.SCM, checkout string) ([]string, error) {
	vcs, ok := b.VCS[scm.Kind]
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("no vcs adapter for %s", scm.Kind))
	}
	cachePath, err := CachePath(b.CacheDir, scm.URL)
	if err != nil {
		return nil, err
	}
	err = b.Guard.Serialize(cachePath, func(needsUpdate bool) error {
		if err := b.Retry.Do(ctx, "clone", func(ctx context.Context) error {
			return vcs.Clone(ctx, scm, cachePath)
		}); err != nil {
			return err
		}
		if !needsUpdate {
			return nil
		}
		return b.Retry.Do(ctx, "update", func(ctx context.Context) error {
			return vcs.Update(ctx, cachePath)
		})
	})
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to materialize " + scm.URL).
			WithCause(err)
	}
	series, err := vcs.SeriesBranches(cachePath, scm.Branch)
	if err != nil {
		return nil, err
	}
	err = b.Retry.Do(ctx, "checkout", func(ctx context.Context) error {
		_ = os.RemoveAll(checkout)
		return vcs.Checkout(ctx, scm, cachePath, checkout)
	})
	if err != nil {
		if errors.Is(err, ports.ErrBranchNotFound) {
			return nil, err
		}
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to check out " + scm.String()).
			WithCause(err)
	}
	return series, nil
}

// PackagingSCM resolves the packaging repository for params: bzr for
// launchpad projects, git below url_base/component/name otherwise.
func PackagingSCM(params types.ProjectParams) types.SCM {
	if params.Component == types.ComponentLaunchpad {
		base := params.URLBase
		if strings.HasSuffix(base, ":") {
			return types.NewSCM(types.SCMKindBzr, base+params.Name, "")
		}
		return types.NewSCM(types.SCMKindBzr, strings.TrimRight(base, "/")+"/"+params.Name, "")
	}
	return types.NewSCM(types.SCMKindGit, JoinURL(params.URLBase, params.Component, params.Name), params.Branch)
}

// JoinURL joins url segments, collapsing duplicate slashes outside the
// scheme separator and skipping empty segments.
func JoinURL(base string, segments ...string) string {
	scheme := ""
	rest := base
	if idx := strings.Index(base, "://"); idx >= 0 {
		scheme = base[:idx+3]
		rest = base[idx+3:]
	}
	parts := []string{}
	for _, part := range append([]string{rest}, segments...) {
		for _, piece := range strings.Split(part, "/") {
			if piece != "" {
				parts = append(parts, piece)
			}
		}
	}
	joined := strings.Join(parts, "/")
	if strings.HasPrefix(rest, "/") {
		joined = "/" + joined
	}
	return scheme + joined
}

// CachePath maps a repository url onto root/projects/<host>/<path>.
func CachePath(root string, url string) (string, error) {
	rel := stripScheme(url)
	rel = strings.ReplaceAll(rel, ":", "/")
	rel = filepath.Clean("/" + rel)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" || rel == "." {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("cannot derive cache path from url: " + url)
	}
	path, err := filepath.Abs(filepath.Join(root, "projects", rel))
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to resolve cache path").
			WithCause(err)
	}
	return path, nil
}

func sortedRuleMembers(rules types.OverrideRules) []string {
	members := make([]string, 0, len(rules))
	for member := range rules {
		members = append(members, member)
	}
	sort.Strings(members)
	return members
}
