package adapters

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pangea-projects/internal/ports"
	"pangea-projects/internal/shared"
	"pangea-projects/internal/types"
)

// BzrVCSAdapter drives the bzr binary for Launchpad packaging branches.
// Launchpad branches have no series, and the checkout is lightweight.
type BzrVCSAdapter struct {
	Binary string
}

func NewBzrVCSAdapter() BzrVCSAdapter {
	return BzrVCSAdapter{Binary: "bzr"}
}

func (a BzrVCSAdapter) Clone(ctx context.Context, scm types.SCM, dest string) error {
	if _, err := os.Stat(filepath.Join(dest, ".bzr")); err == nil {
		return nil
	}
	if err := os.RemoveAll(dest); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	return a.run(ctx, "branch", scm.URL, dest)
}

func (a BzrVCSAdapter) Update(ctx context.Context, dest string) error {
	return a.run(ctx, "pull", "--overwrite", "-d", dest)
}

func (a BzrVCSAdapter) SeriesBranches(string, string) ([]string, error) {
	return nil, nil
}

func (a BzrVCSAdapter) Checkout(ctx context.Context, _ types.SCM, dest string, workdir string) error {
	if err := os.MkdirAll(filepath.Dir(workdir), 0755); err != nil {
		return err
	}
	return a.run(ctx, "checkout", "--lightweight", dest, workdir)
}

func (a BzrVCSAdapter) run(ctx context.Context, args ...string) error {
	binary := a.Binary
	if binary == "" {
		binary = "bzr"
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("bzr " + args[0] + " failed").
			WithCause(shared.CommandError(output, err))
	}
	return nil
}

var _ ports.VCSPort = BzrVCSAdapter{}
