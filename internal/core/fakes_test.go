package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pangea-projects/internal/policies"
	"pangea-projects/internal/ports"
	"pangea-projects/internal/types"
)

type fakeVCS struct {
	mu        sync.Mutex
	branches  map[string][]string
	series    []string
	failClone int
	clones    int
	updates   int
	checkouts []types.SCM
}

func (f *fakeVCS) Clone(_ context.Context, _ types.SCM, dest string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clones++
	if f.failClone > 0 {
		f.failClone--
		return errors.New("connection reset by peer")
	}
	return os.MkdirAll(dest, 0o755)
}

func (f *fakeVCS) Update(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
	return nil
}

func (f *fakeVCS) SeriesBranches(_ string, _ string) ([]string, error) {
	return f.series, nil
}

func (f *fakeVCS) Checkout(_ context.Context, scm types.SCM, _ string, workdir string) error {
	f.mu.Lock()
	f.checkouts = append(f.checkouts, scm)
	f.mu.Unlock()
	if f.branches != nil {
		found := false
		for _, branch := range f.branches[scm.URL] {
			if branch == scm.Branch {
				found = true
			}
		}
		if !found {
			return fmt.Errorf("%w: %s", ports.ErrBranchNotFound, scm.Branch)
		}
	}
	return os.MkdirAll(filepath.Join(workdir, "debian"), 0o755)
}

type fakeParser struct {
	meta types.PackagingMetadata
}

func (f fakeParser) Parse(_ string) (types.PackagingMetadata, error) {
	return f.meta, nil
}

type fakeTaxonomy struct {
	mu      sync.Mutex
	calls   int
	members map[string][]string
	err     error
}

func (f *fakeTaxonomy) Members(_ context.Context, namespace string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.members[namespace], nil
}

type fakeLookup struct {
	projects []types.ReleaseProject
	err      error
	calls    int
}

func (f *fakeLookup) FindByRepoURL(_ context.Context, _ string) ([]types.ReleaseProject, error) {
	f.calls++
	return f.projects, f.err
}

type fakeLister struct {
	names map[string][]string
	// transient fails that many calls before answering.
	transient int
	calls     int
}

func (f *fakeLister) List(_ context.Context, namespace string) ([]string, error) {
	f.calls++
	if f.calls <= f.transient {
		return nil, fmt.Errorf("connection reset listing %s", namespace)
	}
	names, ok := f.names[namespace]
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("unknown namespace " + namespace)
	}
	return names, nil
}

func newTestBuilder(tmp string, vcs *fakeVCS, parser fakeParser) *ProjectBuilder {
	return &ProjectBuilder{
		Policy:     policies.NewProjectPolicy(nil),
		Overrides:  NewOverrideResolver(nil),
		Classifier: NewClassifier(nil),
		VCS: map[types.SCMKind]ports.VCSPort{
			types.SCMKindGit: vcs,
			types.SCMKindBzr: vcs,
		},
		Packaging: parser,
		Guard:     NewUpdateGuard(false),
		Retry:     RetryPolicy{Attempts: 2, Delay: time.Millisecond, AttemptTimeout: time.Minute},
		CacheDir:  filepath.Join(tmp, "cache"),
		WorkDir:   tmp,
	}
}

func strPtr(value string) *string {
	return &value
}
