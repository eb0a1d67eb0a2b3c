package core

import (
	"errors"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pangea-projects/internal/types"
)

const neonBase = "git://packaging.neon.kde.org.uk"

func TestBuildRejectsSlashesBeforeIO(t *testing.T) {
	tests := []types.ProjectParams{
		{Name: "a/b", Component: "frameworks", URLBase: neonBase, Branch: "master"},
		{Name: "kio", Component: "kde/frameworks", URLBase: neonBase, Branch: "master"},
	}
	for _, params := range tests {
		vcs := &fakeVCS{}
		taxonomy := &fakeTaxonomy{}
		builder := newTestBuilder(t.TempDir(), vcs, fakeParser{})
		builder.Classifier = NewClassifier(taxonomy)

		_, err := builder.Build(t.Context(), params)
		buildErr, ok := AsBuildError(err)
		require.True(t, ok)
		assert.Equal(t, ErrKindValidation, buildErr.Kind)
		assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(buildErr.Err))
		assert.Zero(t, vcs.clones)
		assert.Zero(t, taxonomy.calls)
	}
}

func TestBuildPoisonPillIsSkippable(t *testing.T) {
	vcs := &fakeVCS{}
	builder := newTestBuilder(t.TempDir(), vcs, fakeParser{})
	_, err := builder.Build(t.Context(), types.ProjectParams{Name: "telepathy", Component: "kde-extras_kde-telepathy", URLBase: neonBase})
	buildErr, ok := AsBuildError(err)
	require.True(t, ok)
	assert.Equal(t, ErrKindPoisonPill, buildErr.Kind)
	assert.True(t, buildErr.Skippable)
	assert.Zero(t, vcs.clones)
}

func TestBuildGitProject(t *testing.T) {
	vcs := &fakeVCS{series: []string{"kubuntu_unstable_yakkety"}}
	parser := fakeParser{meta: types.PackagingMetadata{
		BuildDepends:  []string{"cmake", "libkf5i18n-dev"},
		Binaries:      []string{"libkf5kio5", "libkf5kio-dev"},
		Autopkgtest:   true,
		Debian:        true,
		SnapcraftPath: "snapcraft.yaml",
	}}
	taxonomy := &fakeTaxonomy{members: map[string][]string{"frameworks": {"kio"}}}
	builder := newTestBuilder(t.TempDir(), vcs, parser)
	builder.Classifier = NewClassifier(taxonomy)

	project, err := builder.Build(t.Context(), types.ProjectParams{
		Name: "kio", Component: "frameworks", URLBase: neonBase + "//", Branch: "kubuntu_unstable", Origin: types.OriginUnstable,
	})
	require.NoError(t, err)
	want := &types.Project{
		Name:             "kio",
		Component:        "frameworks",
		KDEComponent:     types.TaxonomyFrameworks,
		PackagingSCM:     types.SCM{Kind: types.SCMKindGit, URL: neonBase + "/frameworks/kio", Branch: "kubuntu_unstable"},
		UpstreamSCM:      &types.SCM{Kind: types.SCMKindGit, URL: "https://anongit.kde.org/kio", Branch: "master"},
		ProvidedBinaries: []string{"libkf5kio5", "libkf5kio-dev"},
		BuildDepends:     []string{"cmake", "libkf5i18n-dev"},
		SeriesBranches:   []string{"kubuntu_unstable_yakkety"},
		Autopkgtest:      true,
		Debian:           true,
		SnapcraftPath:    "snapcraft.yaml",
	}
	if diff := cmp.Diff(want, project); diff != "" {
		t.Fatalf("unexpected project (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, vcs.clones)
	assert.Equal(t, 1, vcs.updates)
}

func TestBuildMissingBranch(t *testing.T) {
	newVCS := func() *fakeVCS {
		return &fakeVCS{branches: map[string][]string{neonBase + "/frameworks/kio": {"master"}}}
	}
	params := types.ProjectParams{Name: "kio", Component: "frameworks", URLBase: neonBase, Branch: "kitten"}

	vcs := newVCS()
	_, err := newTestBuilder(t.TempDir(), vcs, fakeParser{}).Build(t.Context(), params)
	buildErr, ok := AsBuildError(err)
	require.True(t, ok)
	assert.Equal(t, ErrKindMissingBranch, buildErr.Kind)
	assert.False(t, buildErr.Skippable)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(buildErr.Err))
	assert.Len(t, vcs.checkouts, 1, "missing branches are not retried")

	params.IgnoreMissingBranches = true
	_, err = newTestBuilder(t.TempDir(), newVCS(), fakeParser{}).Build(t.Context(), params)
	buildErr, ok = AsBuildError(err)
	require.True(t, ok)
	assert.True(t, buildErr.Skippable)
}

func TestBuildRetriesTransientClone(t *testing.T) {
	vcs := &fakeVCS{failClone: 1}
	project, err := newTestBuilder(t.TempDir(), vcs, fakeParser{}).Build(t.Context(), types.ProjectParams{
		Name: "kio", Component: "frameworks", URLBase: neonBase, Branch: "master",
	})
	require.NoError(t, err)
	require.NotNil(t, project)
	assert.Equal(t, 2, vcs.clones)
}

func TestBuildTransactionErrorAfterRetries(t *testing.T) {
	vcs := &fakeVCS{failClone: 5}
	_, err := newTestBuilder(t.TempDir(), vcs, fakeParser{}).Build(t.Context(), types.ProjectParams{
		Name: "kio", Component: "frameworks", URLBase: neonBase, Branch: "master",
	})
	buildErr, ok := AsBuildError(err)
	require.True(t, ok)
	assert.Equal(t, ErrKindTransaction, buildErr.Kind)
	assert.Equal(t, 2, vcs.clones)
}

func TestBuildNativeInProtectedComponent(t *testing.T) {
	parser := fakeParser{meta: types.PackagingMetadata{Native: true, Debian: true}}
	_, err := newTestBuilder(t.TempDir(), &fakeVCS{}, parser).Build(t.Context(), types.ProjectParams{
		Name: "kinfocenter", Component: "applications", URLBase: neonBase, Branch: "master",
	})
	buildErr, ok := AsBuildError(err)
	require.True(t, ok)
	assert.Equal(t, ErrKindNativeGuard, buildErr.Kind)
	assert.False(t, buildErr.Skippable)
}

func TestBuildNativeElsewhereHasNoUpstream(t *testing.T) {
	parser := fakeParser{meta: types.PackagingMetadata{Native: true, Debian: true}}
	project, err := newTestBuilder(t.TempDir(), &fakeVCS{}, parser).Build(t.Context(), types.ProjectParams{
		Name: "pkg-kde-tools", Component: "", URLBase: neonBase, Branch: "master",
	})
	require.NoError(t, err)
	assert.Nil(t, project.UpstreamSCM)
	assert.True(t, project.Native)
	assert.Equal(t, neonBase+"/pkg-kde-tools", project.PackagingSCM.URL)
}

func TestBuildLaunchpadProject(t *testing.T) {
	vcs := &fakeVCS{}
	project, err := newTestBuilder(t.TempDir(), vcs, fakeParser{}).Build(t.Context(), types.ProjectParams{
		Name: "qtubuntu-cameraplugin-fake", Component: types.ComponentLaunchpad, URLBase: "lp:qt", Branch: "kubuntu_unstable",
	})
	require.NoError(t, err)
	want := types.SCM{Kind: types.SCMKindBzr, URL: "lp:qt/qtubuntu-cameraplugin-fake"}
	if diff := cmp.Diff(want, project.PackagingSCM); diff != "" {
		t.Fatalf("unexpected packaging scm (-want +got):\n%s", diff)
	}
	assert.Nil(t, project.UpstreamSCM)
}

func TestBuildAppliesOverridesAroundMaterialize(t *testing.T) {
	vcs := &fakeVCS{}
	builder := newTestBuilder(t.TempDir(), vcs, fakeParser{})
	builder.Overrides = NewOverrideResolver([]types.OverrideFile{{
		Path: "base.yaml",
		Repos: []types.OverrideRepoRule{{
			Pattern: "*/frameworks/kio",
			Branches: []types.OverrideBranchRule{{
				Pattern: "*",
				Rules: types.OverrideRules{
					types.MemberPackagingSCM: {Fields: map[string]*string{types.FieldBranch: strPtr("<%= name %>")}},
					types.MemberUpstreamSCM: {Fields: map[string]*string{
						types.FieldType:   strPtr("tarball"),
						types.FieldURL:    strPtr("http://download.kde.org/#{name}.tar.xz"),
						types.FieldBranch: strPtr("ignored"),
					}},
				},
			}},
		}},
	}})
	project, err := builder.Build(t.Context(), types.ProjectParams{
		Name: "kio", Component: "frameworks", URLBase: neonBase, Branch: "kubuntu_unstable",
	})
	require.NoError(t, err)
	require.Len(t, vcs.checkouts, 1)
	assert.Equal(t, "kio", vcs.checkouts[0].Branch)
	want := &types.SCM{Kind: types.SCMKindTarball, URL: "http://download.kde.org/kio.tar.xz"}
	if diff := cmp.Diff(want, project.UpstreamSCM); diff != "" {
		t.Fatalf("unexpected upstream (-want +got):\n%s", diff)
	}
}

func TestBuildNullUpstreamOverride(t *testing.T) {
	builder := newTestBuilder(t.TempDir(), &fakeVCS{}, fakeParser{})
	builder.Overrides = NewOverrideResolver([]types.OverrideFile{{
		Path: "base.yaml",
		Repos: []types.OverrideRepoRule{{
			Pattern:  "*",
			Branches: []types.OverrideBranchRule{{Pattern: "*", Rules: types.OverrideRules{types.MemberUpstreamSCM: {Null: true}}}},
		}},
	}})
	project, err := builder.Build(t.Context(), types.ProjectParams{Name: "kio", Component: "frameworks", URLBase: neonBase, Branch: "master"})
	require.NoError(t, err)
	assert.Nil(t, project.UpstreamSCM)
}

func TestBuildOverrideFailureIsTyped(t *testing.T) {
	builder := newTestBuilder(t.TempDir(), &fakeVCS{}, fakeParser{})
	builder.Overrides = NewOverrideResolver([]types.OverrideFile{{
		Path: "base.yaml",
		Repos: []types.OverrideRepoRule{{
			Pattern: "*",
			Branches: []types.OverrideBranchRule{{Pattern: "*", Rules: types.OverrideRules{
				types.MemberUpstreamSCM: {Fields: map[string]*string{types.FieldBranch: strPtr("<%= version %>")}},
			}}},
		}},
	}})
	_, err := builder.Build(t.Context(), types.ProjectParams{Name: "kio", Component: "frameworks", URLBase: neonBase, Branch: "master"})
	buildErr, ok := AsBuildError(err)
	require.True(t, ok)
	assert.Equal(t, ErrKindOverride, buildErr.Kind)
}

func TestBuildAdjustsUpstreamForRelease(t *testing.T) {
	lookup := &fakeLookup{projects: []types.ReleaseProject{{Identifier: "kio", TrunkBranch: "master", StableBranch: "Applications/16.04"}}}
	builder := newTestBuilder(t.TempDir(), &fakeVCS{}, fakeParser{})
	builder.Upstream = NewUpstreamAdjuster(lookup)

	project, err := builder.Build(t.Context(), types.ProjectParams{
		Name: "kio", Component: "frameworks", URLBase: neonBase, Branch: "master", Origin: types.OriginStable,
	})
	require.NoError(t, err)
	assert.Equal(t, "Applications/16.04", project.UpstreamSCM.Branch)
}

func TestBuildSharedCachePathUpdatesOnce(t *testing.T) {
	vcs := &fakeVCS{}
	builder := newTestBuilder(t.TempDir(), vcs, fakeParser{})
	params := types.ProjectParams{Name: "kio", Component: "frameworks", URLBase: neonBase, Branch: "master"}
	for range 3 {
		_, err := builder.Build(t.Context(), params)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, vcs.updates)
}

func TestPackagingSCM(t *testing.T) {
	tests := []struct {
		name   string
		params types.ProjectParams
		want   types.SCM
	}{
		{
			name:   "git",
			params: types.ProjectParams{Name: "attica", Component: "frameworks", URLBase: neonBase, Branch: "kubuntu_unstable"},
			want:   types.SCM{Kind: types.SCMKindGit, URL: neonBase + "/frameworks/attica", Branch: "kubuntu_unstable"},
		},
		{
			name:   "slashed base",
			params: types.ProjectParams{Name: "attica", Component: "frameworks", URLBase: "/tmp//repos/", Branch: "master"},
			want:   types.SCM{Kind: types.SCMKindGit, URL: "/tmp/repos/frameworks/attica", Branch: "master"},
		},
		{
			name:   "empty component",
			params: types.ProjectParams{Name: "pkg-kde-tools", URLBase: neonBase, Branch: "master"},
			want:   types.SCM{Kind: types.SCMKindGit, URL: neonBase + "/pkg-kde-tools", Branch: "master"},
		},
		{
			name:   "launchpad colon base",
			params: types.ProjectParams{Name: "unity", Component: types.ComponentLaunchpad, URLBase: "lp:", Branch: "master"},
			want:   types.SCM{Kind: types.SCMKindBzr, URL: "lp:unity"},
		},
		{
			name:   "scp style base",
			params: types.ProjectParams{Name: "solid", Component: "frameworks", URLBase: "git.debian.org:/git/pkg-kde", Branch: "master"},
			want:   types.SCM{Kind: types.SCMKindGit, URL: "git.debian.org:/git/pkg-kde/frameworks/solid", Branch: "master"},
		},
		{
			name:   "file url",
			params: types.ProjectParams{Name: "solid", Component: "frameworks", URLBase: "file:///srv/git", Branch: "master"},
			want:   types.SCM{Kind: types.SCMKindGit, URL: "file:///srv/git/frameworks/solid", Branch: "master"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, PackagingSCM(tc.params)); diff != "" {
				t.Fatalf("unexpected scm (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCachePath(t *testing.T) {
	root := t.TempDir()
	path, err := CachePath(root, "git://packaging.neon.kde.org.uk/frameworks/kio")
	require.NoError(t, err)
	assert.Equal(t, root+"/projects/packaging.neon.kde.org.uk/frameworks/kio", path)

	path, err = CachePath(root, "lp:qt/../../etc")
	require.NoError(t, err)
	assert.Equal(t, root+"/projects/etc", path)

	_, err = CachePath(root, "")
	require.Error(t, err)
}

func TestBuildErrorUnwraps(t *testing.T) {
	inner := errors.New("boom")
	err := error(&BuildError{Kind: ErrKindPackaging, Name: "kio", Component: "frameworks", Err: inner})
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "frameworks/kio")
}
