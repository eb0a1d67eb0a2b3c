package cli

import (
	"os"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pangea-projects/internal/types"
)

// ---------- Command tree tests ----------

func TestRootCommandHasSubcommands(t *testing.T) {
	root := newRootCommand()
	names := make([]string, 0, len(root.Commands()))
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, name := range []string{"projects", "validate", "ls", "overrides", "inspect"} {
		assert.Contains(t, names, name, "missing subcommand: %s", name)
	}
}

func TestRootCommandVersion(t *testing.T) {
	root := newRootCommand()
	assert.Equal(t, "dev", root.Version)
}

func TestProjectsCommandFlags(t *testing.T) {
	cmd := newProjectsCommand()
	flags := []string{
		"projects", "overrides", "cache-dir", "branch", "origin",
		"workers", "continue-on-error", "output", "metrics-file",
		"vcs-attempts", "vcs-retry-delay", "vcs-attempt-timeout",
		"projects-api", "http-timeout", "http-retries", "http-retry-delay-ms",
		"github-token", "gitlab-token", "gitlab-url", "ssh-key",
		"ssh-known-hosts", "neon-url-base",
	}
	for _, name := range flags {
		flag := cmd.Flags().Lookup(name)
		assert.NotNil(t, flag, "missing flag: %s", name)
	}
}

func TestListAndOverridesCommandFlags(t *testing.T) {
	list := newListCommand()
	for _, name := range []string{"backend", "namespace", "contains", "github-token", "ssh-key"} {
		assert.NotNil(t, list.Flags().Lookup(name), "missing flag: %s", name)
	}
	overrides := newOverridesCommand()
	for _, name := range []string{"url", "branch", "type", "overrides"} {
		assert.NotNil(t, overrides.Flags().Lookup(name), "missing flag: %s", name)
	}
}

func TestValidateCommandFlags(t *testing.T) {
	cmd := newValidateCommand()
	assert.NotNil(t, cmd.Flags().Lookup("projects"))
	assert.NotNil(t, cmd.Flags().Lookup("overrides"))
}

func TestProjectsRequestPrefersChangedFlags(t *testing.T) {
	t.Cleanup(viper.Reset)
	cmd := newProjectsCommand()
	viper.Set("origin", "stable")
	viper.Set("vcs_retry_delay", "3s")
	viper.Set("poison_pills", []map[string]string{{"component": "kde-extras_kde-telepathy"}, {"component": "qt", "name": "qt5webkit"}})
	t.Setenv("NO_UPDATE", "1")
	require.NoError(t, cmd.Flags().Set("projects", "neon.yaml"))
	require.NoError(t, cmd.Flags().Set("workers", "8"))

	opts := projectsOptions{ProjectsConfig: "neon.yaml", Workers: 8, Origin: "release"}
	req, err := projectsRequest(cmd, opts)
	require.NoError(t, err)
	assert.Equal(t, "neon.yaml", req.ConfigPath)
	assert.Equal(t, 8, req.Workers)
	assert.Equal(t, "stable", req.Origin)
	assert.Equal(t, 3*time.Second, req.VCSRetryDelay)
	assert.True(t, req.SkipUpdates)
	assert.Equal(t, []types.PoisonPill{{Component: "kde-extras_kde-telepathy"}, {Component: "qt", Name: "qt5webkit"}}, req.PoisonPills)
}

func TestProjectsRequestSkipsUpdatesWhenNoUpdateIsEmpty(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("NO_UPDATE", "")

	req, err := projectsRequest(newProjectsCommand(), projectsOptions{})
	require.NoError(t, err)
	assert.True(t, req.SkipUpdates)
}

func TestProjectsRequestUpdatesWithoutNoUpdate(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("NO_UPDATE", "")
	require.NoError(t, os.Unsetenv("NO_UPDATE"))

	req, err := projectsRequest(newProjectsCommand(), projectsOptions{})
	require.NoError(t, err)
	assert.False(t, req.SkipUpdates)
}

// ---------- Helper function tests ----------

func TestResolveString(t *testing.T) {
	tests := []struct {
		name     string
		cmd      *cobra.Command
		value    string
		expected string
	}{
		{
			name:     "nil cmd with value returns value",
			cmd:      nil,
			value:    "explicit",
			expected: "explicit",
		},
		{
			name:     "nil cmd empty value returns empty",
			cmd:      nil,
			value:    "",
			expected: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveString(tt.cmd, tt.value, "test_key", "test-flag")
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveStrings(t *testing.T) {
	tests := []struct {
		name     string
		cmd      *cobra.Command
		values   []string
		expected []string
	}{
		{
			name:     "nil cmd with values returns values",
			cmd:      nil,
			values:   []string{"a", "b"},
			expected: []string{"a", "b"},
		},
		{
			name:     "nil cmd empty returns nil",
			cmd:      nil,
			values:   nil,
			expected: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveStrings(tt.cmd, tt.values, "test_key", "test-flag")
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveBool(t *testing.T) {
	got := resolveBool(nil, true, "test_key", "test-flag")
	assert.True(t, got)

	got = resolveBool(nil, false, "test_key", "test-flag")
	assert.False(t, got)
}

func TestResolveInt(t *testing.T) {
	got := resolveInt(nil, 42, "test_key", "test-flag")
	assert.Equal(t, 42, got)
}

func TestResolveDuration(t *testing.T) {
	got := resolveDuration(nil, time.Minute, "test_key", "test-flag")
	assert.Equal(t, time.Minute, got)
}

func TestFlagChanged(t *testing.T) {
	assert.False(t, flagChanged(nil, "anything"), "nil cmd should return false")
	assert.False(t, flagChanged(nil, ""), "nil cmd with empty name")

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("myflag", "", "test flag")
	assert.False(t, flagChanged(cmd, "myflag"), "unchanged flag")
	assert.False(t, flagChanged(cmd, "nonexistent"), "nonexistent flag")
}

func TestFlagChangedAfterSet(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("myflag", "", "test flag")
	require.NoError(t, cmd.Flags().Set("myflag", "val"))
	assert.True(t, flagChanged(cmd, "myflag"))
}

// ---------- Exit code tests ----------

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name: "invalid argument",
			err: errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("bad input"),
			expected: 2,
		},
		{
			name: "already exists",
			err: errbuilder.New().
				WithCode(errbuilder.CodeAlreadyExists).
				WithMsg("dup"),
			expected: 2,
		},
		{
			name: "poison pill",
			err: errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg("kde-extras_kde-telepathy/ktp-common-internals is blocked"),
			expected: 3,
		},
		{
			name: "permission denied",
			err: errbuilder.New().
				WithCode(errbuilder.CodePermissionDenied).
				WithMsg("nope"),
			expected: 3,
		},
		{
			name: "missing branch",
			err: errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("branch kubuntu_unstable not found"),
			expected: 4,
		},
		{
			name: "internal error",
			err: errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("boom"),
			expected: 5,
		},
		{
			name:     "unknown error",
			err:      assert.AnError,
			expected: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exitCodeForError(tt.err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
