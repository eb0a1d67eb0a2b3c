package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pangea-projects/internal/types"
)

func TestDefaultUpstreamSCM(t *testing.T) {
	assert.Equal(t, types.SCM{Kind: types.SCMKindGit, URL: "https://anongit.kde.org/kio", Branch: "master"},
		DefaultUpstreamSCM("git://packaging.neon.kde.org.uk/frameworks/kio"))
	assert.Equal(t, "https://anongit.kde.org/phonon", DefaultUpstreamSCM("git://host/qt/phonon-qt4/").URL)
	assert.Equal(t, "https://anongit.kde.org/solid", DefaultUpstreamSCM("git.debian.org:/git/pkg-kde/frameworks/solid.git").URL)
}

func TestAdjustForRelease(t *testing.T) {
	upstream := types.NewSCM(types.SCMKindGit, "https://anongit.kde.org/kio", "master")
	single := []types.ReleaseProject{{Identifier: "kio", TrunkBranch: "master", StableBranch: "Applications/16.04"}}

	tests := []struct {
		name     string
		scm      types.SCM
		origin   types.Origin
		projects []types.ReleaseProject
		err      error
		want     *types.SCM
		lookups  int
	}{
		{name: "unstable", scm: upstream, origin: types.OriginUnstable, projects: single, want: &types.SCM{Kind: types.SCMKindGit, URL: upstream.URL, Branch: "master"}, lookups: 1},
		{name: "stable", scm: upstream, origin: types.OriginStable, projects: single, want: &types.SCM{Kind: types.SCMKindGit, URL: upstream.URL, Branch: "Applications/16.04"}, lookups: 1},
		{name: "no match", scm: upstream, origin: types.OriginStable, lookups: 1},
		{name: "ambiguous", scm: upstream, origin: types.OriginStable, projects: append(single, types.ReleaseProject{Identifier: "kio-extras"}), lookups: 1},
		{name: "lookup failure", scm: upstream, origin: types.OriginStable, err: errors.New("offline"), lookups: 1},
		{name: "non default branch", scm: types.NewSCM(types.SCMKindGit, upstream.URL, "Plasma/5.5"), origin: types.OriginStable, projects: single},
		{name: "foreign host", scm: types.NewSCM(types.SCMKindGit, "https://github.com/calamares/calamares", "master"), origin: types.OriginStable, projects: single},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lookup := &fakeLookup{projects: tc.projects, err: tc.err}
			got := NewUpstreamAdjuster(lookup).AdjustForRelease(t.Context(), tc.scm, tc.origin)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.lookups, lookup.calls)
		})
	}
}

func TestAdjustForReleaseWithoutLookup(t *testing.T) {
	got := UpstreamAdjuster{}.AdjustForRelease(t.Context(), types.NewSCM(types.SCMKindGit, "https://anongit.kde.org/kio", "master"), types.OriginStable)
	require.Nil(t, got)
}
