//go:build integration

package integration

import (
	"context"
	"fmt"
	"path"
	"testing"
	"time"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"pangea-projects/internal/adapters"
)

const (
	mirrorUser     = "ftpubuntu"
	mirrorPassword = "secret"
	mirrorRoot     = "/upload/stable/applications"
)

func TestSFTPMirrorListerWithTestcontainers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers integration in short mode")
	}
	t.Setenv("SSH_AUTH_SOCK", "")

	ctx := t.Context()
	target, cleanup := startSFTPMirror(ctx, t)
	t.Cleanup(cleanup)

	cfg := adapters.SSHConfig{InsecureHostKey: true, Password: mirrorPassword, Timeout: 10 * time.Second}
	seedMirror(ctx, t, target, cfg, map[string][]string{
		"16.04.1":  {"kde-l10n-ru-16.04.1.tar.xz", "kde-l10n-de-16.04.1.tar.xz"},
		"16.04.2":  {"kde-l10n-ru-16.04.2.tar.xz", "kde-l10n-pt_BR-16.04.2.tar.xz", "kde-l10n-pt_BR-16.04.2.tar.xz.sig"},
		"16.04.10": {"kde-l10n-fr-16.04.10.tar.xz"},
	})

	lister := adapters.NewSFTPMirrorLister(target, mirrorRoot, cfg)

	names, err := lister.List(ctx, "16.04.2")
	require.NoError(t, err)
	assert.Equal(t, []string{"kde-l10n-pt_BR", "kde-l10n-ru"}, names)

	names, err = lister.List(ctx, "latest")
	require.NoError(t, err)
	assert.Equal(t, []string{"kde-l10n-fr"}, names)

	names, err = lister.List(ctx, "15.12.3")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func startSFTPMirror(ctx context.Context, t *testing.T) (string, func()) {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "atmoz/sftp:alpine",
		ExposedPorts: []string{"22/tcp"},
		Cmd:          []string{fmt.Sprintf("%s:%s:::upload", mirrorUser, mirrorPassword)},
		WaitingFor:   wait.ForListeningPort("22/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "22/tcp")
	require.NoError(t, err)

	target := fmt.Sprintf("%s@%s:%s", mirrorUser, host, port.Port())
	cleanup := func() {
		_ = container.Terminate(ctx)
	}
	return target, cleanup
}

func seedMirror(ctx context.Context, t *testing.T, target string, cfg adapters.SSHConfig, releases map[string][]string) {
	t.Helper()
	sshClient, err := adapters.DialSSH(ctx, target, cfg)
	require.NoError(t, err)
	defer sshClient.Close()
	client, err := sftp.NewClient(sshClient)
	require.NoError(t, err)
	defer client.Close()

	for version, files := range releases {
		dir := path.Join(mirrorRoot, version, "src", "kde-l10n")
		require.NoError(t, client.MkdirAll(dir))
		for _, name := range files {
			file, err := client.Create(path.Join(dir, name))
			require.NoError(t, err)
			_, err = file.Write([]byte("tarball"))
			require.NoError(t, err)
			require.NoError(t, file.Close())
		}
	}
}
