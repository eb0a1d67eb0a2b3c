package adapters

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	debversion "github.com/knqyf263/go-deb-version"
	"github.com/pkg/sftp"
	"github.com/rs/zerolog/log"

	"pangea-projects/internal/ports"
)

const latestRelease = "latest"

// SFTPMirrorLister lists the l10n tarballs of a release on the KDE
// download mirror. The namespace is a release version or "latest".
type SFTPMirrorLister struct {
	Target string
	Root   string
	SSH    SSHConfig
}

func NewSFTPMirrorLister(target string, root string, cfg SSHConfig) SFTPMirrorLister {
	return SFTPMirrorLister{Target: target, Root: root, SSH: cfg}
}

func (l SFTPMirrorLister) List(ctx context.Context, namespace string) ([]string, error) {
	sshClient, err := DialSSH(ctx, l.Target, l.SSH)
	if err != nil {
		return nil, err
	}
	defer sshClient.Close()
	client, err := sftp.NewClient(sshClient)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to start sftp session").
			WithCause(err)
	}
	defer client.Close()

	version := namespace
	if version == latestRelease {
		entries, err := client.ReadDir(l.Root)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to list releases in " + l.Root).
				WithCause(err)
		}
		var dirs []string
		for _, entry := range entries {
			if entry.IsDir() {
				dirs = append(dirs, entry.Name())
			}
		}
		version = newestRelease(dirs)
		if version == "" {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("no releases found in " + l.Root)
		}
		log.Ctx(ctx).Debug().Str("version", version).Msg("resolved latest release")
	}

	pattern := path.Join(l.Root, version, "src", "kde-l10n", "*.tar.*")
	matches, err := client.Glob(pattern)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to glob " + pattern).
			WithCause(err)
	}
	return l10nNames(matches, version), nil
}

// l10nNames turns "kde-l10n-ru-16.04.1.tar.xz" into "kde-l10n-ru".
func l10nNames(paths []string, version string) []string {
	suffix := "-" + version + ".tar."
	seen := map[string]struct{}{}
	var names []string
	for _, p := range paths {
		base := path.Base(p)
		idx := strings.LastIndex(base, suffix)
		if idx <= 0 {
			continue
		}
		name := base[:idx]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// newestRelease picks the highest version by Debian ordering, skipping
// names that are not versions.
func newestRelease(candidates []string) string {
	newest := ""
	var newestVersion debversion.Version
	for _, candidate := range candidates {
		parsed, err := debversion.NewVersion(candidate)
		if err != nil {
			continue
		}
		if newest == "" || parsed.GreaterThan(newestVersion) {
			newest = candidate
			newestVersion = parsed
		}
	}
	return newest
}

var _ ports.RepoListerPort = SFTPMirrorLister{}
