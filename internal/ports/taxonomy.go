package ports

import (
	"context"

	"pangea-projects/internal/types"
)

type TaxonomyPort interface {
	// Members returns the project names below a taxonomy namespace.
	Members(ctx context.Context, namespace string) ([]string, error)
}

type ReleaseLookupPort interface {
	FindByRepoURL(ctx context.Context, url string) ([]types.ReleaseProject, error)
}
