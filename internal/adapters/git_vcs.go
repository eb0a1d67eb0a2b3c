package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/rs/zerolog/log"

	"pangea-projects/internal/ports"
	"pangea-projects/internal/types"
)

const gitRemoteName = "origin"

// GitVCSAdapter keeps bare clones in the cache and exports branch trees
// from them. Auth is only used for ssh style urls.
type GitVCSAdapter struct {
	Auth transport.AuthMethod
}

func NewGitVCSAdapter(auth transport.AuthMethod) GitVCSAdapter {
	return GitVCSAdapter{Auth: auth}
}

func (a GitVCSAdapter) Clone(ctx context.Context, scm types.SCM, dest string) error {
	if _, err := git.PlainOpen(dest); err == nil {
		return nil
	}
	if err := os.RemoveAll(dest); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	log.Ctx(ctx).Debug().Str("url", scm.URL).Str("dest", dest).Msg("cloning repository")
	_, err := git.PlainCloneContext(ctx, dest, true, &git.CloneOptions{
		URL:        scm.URL,
		RemoteName: gitRemoteName,
		Auth:       a.authFor(scm.URL),
		Tags:       git.NoTags,
	})
	if err != nil {
		_ = os.RemoveAll(dest)
		return fmt.Errorf("clone %s: %w", scm.URL, err)
	}
	return nil
}

func (a GitVCSAdapter) Update(ctx context.Context, dest string) error {
	repo, err := git.PlainOpen(dest)
	if err != nil {
		return err
	}
	remote, err := repo.Remote(gitRemoteName)
	if err != nil {
		return err
	}
	url := ""
	if urls := remote.Config().URLs; len(urls) > 0 {
		url = urls[0]
	}
	err = repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: gitRemoteName,
		Auth:       a.authFor(url),
		Force:      true,
		Prune:      true,
		Tags:       git.NoTags,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	return nil
}

// SeriesBranches lists remote branches named "<branch>_*".
func (a GitVCSAdapter) SeriesBranches(dest string, branch string) ([]string, error) {
	if branch == "" {
		return nil, nil
	}
	repo, err := git.PlainOpen(dest)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to open clone " + dest).
			WithCause(err)
	}
	refs, err := repo.References()
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to list references").
			WithCause(err)
	}
	prefix := gitRemoteName + "/" + branch + "_"
	var series []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if !ref.Name().IsRemote() {
			return nil
		}
		short := ref.Name().Short()
		if strings.HasPrefix(short, prefix) {
			series = append(series, strings.TrimPrefix(short, gitRemoteName+"/"))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(series)
	return series, nil
}

// Checkout writes the tree of the remote branch into workdir.
func (a GitVCSAdapter) Checkout(ctx context.Context, scm types.SCM, dest string, workdir string) error {
	repo, err := git.PlainOpen(dest)
	if err != nil {
		return err
	}
	ref, err := repo.Reference(plumbing.NewRemoteReferenceName(gitRemoteName, scm.Branch), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return fmt.Errorf("%s: %w", scm.Branch, ports.ErrBranchNotFound)
		}
		return err
	}
	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return err
	}
	tree, err := commit.Tree()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(workdir, 0755); err != nil {
		return err
	}
	log.Ctx(ctx).Debug().Str("branch", scm.Branch).Str("commit", commit.Hash.String()).Msg("exporting tree")
	return tree.Files().ForEach(func(file *object.File) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return exportFile(file, filepath.Join(workdir, filepath.FromSlash(file.Name)))
	})
}

func exportFile(file *object.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if file.Mode == filemode.Symlink {
		link, err := file.Contents()
		if err != nil {
			return err
		}
		return os.Symlink(link, target)
	}
	mode, err := file.Mode.ToOSFileMode()
	if err != nil {
		mode = 0644
	}
	reader, err := file.Reader()
	if err != nil {
		return err
	}
	defer reader.Close()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, reader); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (a GitVCSAdapter) authFor(url string) transport.AuthMethod {
	if a.Auth == nil {
		return nil
	}
	endpoint, err := transport.NewEndpoint(url)
	if err != nil || endpoint.Protocol != "ssh" {
		return nil
	}
	return a.Auth
}

var _ ports.VCSPort = GitVCSAdapter{}
