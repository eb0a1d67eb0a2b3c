package ports

import (
	"context"
	"errors"

	"pangea-projects/internal/types"
)

// ErrBranchNotFound is returned by VCS adapters when a checkout names a
// branch the materialized repository does not have.
var ErrBranchNotFound = errors.New("branch not found")

// RepoListerPort enumerates repository identifiers below a namespace.
type RepoListerPort interface {
	List(ctx context.Context, namespace string) ([]string, error)
}

// VCSPort manages the local clone cache for one kind of source control.
type VCSPort interface {
	Clone(ctx context.Context, scm types.SCM, dest string) error
	Update(ctx context.Context, dest string) error
	SeriesBranches(dest string, branch string) ([]string, error)
	// Checkout exports branch from dest into workdir.
	Checkout(ctx context.Context, scm types.SCM, dest string, workdir string) error
}

// RemoteCommandPort runs a command on a remote host and returns stdout.
type RemoteCommandPort interface {
	Run(ctx context.Context, target string, command string) (string, error)
}
