package adapters

import (
	"context"
	"path"
	"sort"
	"strings"

	"pangea-projects/internal/ports"
	"pangea-projects/internal/shared"
)

// GitoliteLister reads the repositories the configured key can access
// from gitolite's "info" command.
type GitoliteLister struct {
	Remote ports.RemoteCommandPort
	Target string
}

func NewGitoliteLister(remote ports.RemoteCommandPort, target string) GitoliteLister {
	return GitoliteLister{Remote: remote, Target: target}
}

func (l GitoliteLister) List(ctx context.Context, namespace string) ([]string, error) {
	output, err := l.Remote.Run(ctx, l.Target, "info")
	if err != nil {
		return nil, err
	}
	return ParseGitoliteInfo(output, namespace), nil
}

// ParseGitoliteInfo extracts repository paths below namespace from
// lines shaped like " R W\tframeworks/kio".
func ParseGitoliteInfo(output string, namespace string) []string {
	prefix := strings.Trim(namespace, "/")
	if prefix != "" {
		prefix += "/"
	}
	var names []string
	for _, line := range strings.Split(output, "\n") {
		tab := strings.LastIndex(line, "\t")
		if tab < 0 {
			continue
		}
		perms := strings.Fields(line[:tab])
		if len(perms) == 0 || perms[0] != "R" {
			continue
		}
		repo := shared.TrimRepoSuffix(line[tab+1:])
		if repo == "" || !strings.HasPrefix(repo, prefix) {
			continue
		}
		names = append(names, strings.TrimPrefix(repo, prefix))
	}
	sort.Strings(names)
	return names
}

// SSHFindLister lists bare repositories on plain git hosts by running
// find below Root.
type SSHFindLister struct {
	Remote ports.RemoteCommandPort
	Target string
	Root   string
}

func NewSSHFindLister(remote ports.RemoteCommandPort, target string, root string) SSHFindLister {
	if root == "" {
		root = "/git"
	}
	return SSHFindLister{Remote: remote, Target: target, Root: root}
}

func (l SSHFindLister) List(ctx context.Context, namespace string) ([]string, error) {
	dir := path.Join(l.Root, namespace)
	output, err := l.Remote.Run(ctx, l.Target, "find "+shellQuote(dir)+" -maxdepth 1 -mindepth 1 -type d")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || path.Clean(line) == dir {
			continue
		}
		names = append(names, shared.TrimRepoSuffix(path.Base(line)))
	}
	sort.Strings(names)
	return names, nil
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}

var _ ports.RepoListerPort = GitoliteLister{}
var _ ports.RepoListerPort = SSHFindLister{}
