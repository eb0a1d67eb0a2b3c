package core

import (
	"context"

	"github.com/rs/zerolog/log"

	"pangea-projects/internal/types"
)

// CollectProviders maps every provided binary to the first project that
// claims it. Later claims are reported as collisions.
func CollectProviders(ctx context.Context, projects []*types.Project) (map[string]*types.Project, []types.BinaryCollision) {
	providers, collisions := collectProviders(projects)
	for _, collision := range collisions {
		log.Ctx(ctx).Warn().
			Str("binary", collision.Binary).
			Str("winner", collision.Winner).
			Str("loser", collision.Loser).
			Msg("binary provided by more than one project")
	}
	return providers, collisions
}

func collectProviders(projects []*types.Project) (map[string]*types.Project, []types.BinaryCollision) {
	providers := map[string]*types.Project{}
	var collisions []types.BinaryCollision
	for _, project := range projects {
		for _, binary := range project.ProvidedBinaries {
			winner, ok := providers[binary]
			if !ok {
				providers[binary] = project
				continue
			}
			if winner == project {
				continue
			}
			collisions = append(collisions, types.BinaryCollision{
				Binary: binary,
				Winner: winner.ID(),
				Loser:  project.ID(),
			})
		}
	}
	return providers, collisions
}

// ResolveDependencies links projects through their build dependencies.
// Dependencies keep control file order; names nobody provides are
// dropped. Running it again yields the same graph.
func ResolveDependencies(ctx context.Context, projects []*types.Project) []*types.Project {
	providers, _ := collectProviders(projects)
	for _, project := range projects {
		project.Dependees = nil
	}
	for _, project := range projects {
		seen := map[*types.Project]struct{}{}
		deps := []*types.Project{}
		for _, name := range project.BuildDepends {
			provider, ok := providers[name]
			if !ok || provider == project {
				continue
			}
			if _, dup := seen[provider]; dup {
				continue
			}
			seen[provider] = struct{}{}
			deps = append(deps, provider)
		}
		project.Dependencies = deps
	}
	for _, project := range projects {
		for _, dep := range project.Dependencies {
			if containsProject(dep.Dependees, project) {
				continue
			}
			dep.Dependees = append(dep.Dependees, project)
		}
	}
	log.Ctx(ctx).Debug().Int("projects", len(projects)).Int("binaries", len(providers)).Msg("dependencies resolved")
	return projects
}

func containsProject(list []*types.Project, project *types.Project) bool {
	for _, item := range list {
		if item == project {
			return true
		}
	}
	return false
}
