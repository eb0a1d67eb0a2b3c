package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pangea-projects/internal/policies"
)

// List enumerates one backend namespace, optionally keeping only names
// that contain a substring pattern.
func (s Service) List(ctx context.Context, req ListRequest) (ListResult, error) {
	key := strings.TrimSpace(req.Backend)
	if key == "" {
		return ListResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("backend is required")
	}
	registry, err := NewBackendRegistry(req.Backends)
	if err != nil {
		return ListResult{}, err
	}
	backend, err := registry.Resolve(key)
	if err != nil {
		return ListResult{}, err
	}
	if backend.Lister == nil {
		return ListResult{}, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(string(backend.Kind) + " repositories cannot be listed")
	}
	names, err := backend.Lister.List(ctx, req.Namespace)
	if err != nil {
		return ListResult{}, err
	}
	if req.Contains != "" {
		include := policies.NewIncludePattern(req.Contains)
		filtered := names[:0]
		for _, name := range names {
			if include.Matches(name) {
				filtered = append(filtered, name)
			}
		}
		names = filtered
	}
	return ListResult{Backend: backend.Kind, Names: names}, nil
}
