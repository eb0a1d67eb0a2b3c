package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"pangea-projects/internal/ports"
	"pangea-projects/internal/types"
)

var taxonomyNamespaces = []struct {
	bucket    types.TaxonomyBucket
	namespace string
}{
	{bucket: types.TaxonomyFrameworks, namespace: "frameworks"},
	{bucket: types.TaxonomyApplications, namespace: "kde/applications"},
	{bucket: types.TaxonomyPlasma, namespace: "kde/workspace"},
}

// Some upstream projects are packaged under a different name.
var taxonomyAliases = map[string]string{
	"kirigami": "kirigami2",
	"discover": "plasma-discover",
}

// Classifier buckets projects by taxonomy membership. Namespace lookups
// are cached for the lifetime of the classifier; failed lookups count
// as empty.
type Classifier struct {
	taxonomy ports.TaxonomyPort

	mu      sync.Mutex
	members map[string]map[string]bool
}

func NewClassifier(taxonomy ports.TaxonomyPort) *Classifier {
	return &Classifier{
		taxonomy: taxonomy,
		members:  map[string]map[string]bool{},
	}
}

func (c *Classifier) Classify(ctx context.Context, name string) types.TaxonomyBucket {
	if c == nil || c.taxonomy == nil {
		return types.TaxonomyExtragear
	}
	for _, entry := range taxonomyNamespaces {
		if c.namespaceMembers(ctx, entry.namespace)[name] {
			return entry.bucket
		}
	}
	return types.TaxonomyExtragear
}

func (c *Classifier) namespaceMembers(ctx context.Context, namespace string) map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if members, ok := c.members[namespace]; ok {
		return members
	}
	members := map[string]bool{}
	names, err := c.taxonomy.Members(ctx, namespace)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("namespace", namespace).Msg("taxonomy lookup failed, using default bucket")
	}
	for _, name := range names {
		members[name] = true
		if alias, ok := taxonomyAliases[name]; ok {
			members[alias] = true
		}
	}
	c.members[namespace] = members
	return members
}
