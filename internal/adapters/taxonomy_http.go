package adapters

import (
	"context"
	"net/url"
	"path"
	"strings"

	"pangea-projects/internal/ports"
	"pangea-projects/internal/types"
)

const DefaultProjectsAPI = "https://projects.kde.org"

// applicationsNamespace has no listing of its own; it is everything
// below kde/ that is not part of the workspace.
const (
	applicationsNamespace = "kde/applications"
	workspaceNamespace    = "kde/workspace"
)

// ProjectsAPIAdapter talks to the KDE projects API. It serves both the
// taxonomy listings and the release branch lookup.
type ProjectsAPIAdapter struct {
	Endpoint string
	http     httpRetryConfig
}

func NewProjectsAPIAdapter(endpoint string, timeoutSec int, retries int, retryDelayMs int) ProjectsAPIAdapter {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultProjectsAPI
	}
	return ProjectsAPIAdapter{
		Endpoint: strings.TrimRight(endpoint, "/"),
		http:     normalizeHTTPConfig(timeoutSec, retries, retryDelayMs),
	}
}

func (a ProjectsAPIAdapter) Members(ctx context.Context, namespace string) ([]string, error) {
	filter := namespace
	if namespace == applicationsNamespace {
		filter = "kde"
	}
	var paths []string
	if err := getJSON(ctx, a.Endpoint+"/api/v1/projects/"+filter, a.http, &paths); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(paths))
	for _, projectPath := range paths {
		if namespace == applicationsNamespace && strings.HasPrefix(projectPath, workspaceNamespace+"/") {
			continue
		}
		names = append(names, path.Base(projectPath))
	}
	return names, nil
}

type apiProject struct {
	Identifier string `json:"identifier"`
	Repo       string `json:"repo"`
	I18n       struct {
		Trunk  string `json:"trunkKF5"`
		Stable string `json:"stableKF5"`
	} `json:"i18n"`
}

// FindByRepoURL resolves every project whose repository is the last
// path element of repoURL.
func (a ProjectsAPIAdapter) FindByRepoURL(ctx context.Context, repoURL string) ([]types.ReleaseProject, error) {
	repo := path.Base(strings.TrimSuffix(strings.TrimRight(repoURL, "/"), ".git"))
	var ids []string
	query := url.Values{"repo": []string{repo}}
	if err := getJSON(ctx, a.Endpoint+"/api/v1/find?"+query.Encode(), a.http, &ids); err != nil {
		return nil, err
	}
	projects := make([]types.ReleaseProject, 0, len(ids))
	for _, id := range ids {
		var project apiProject
		if err := getJSON(ctx, a.Endpoint+"/api/v1/project/"+id, a.http, &project); err != nil {
			return nil, err
		}
		identifier := project.Identifier
		if identifier == "" {
			identifier = path.Base(id)
		}
		projects = append(projects, types.ReleaseProject{
			Identifier:   identifier,
			TrunkBranch:  project.I18n.Trunk,
			StableBranch: project.I18n.Stable,
		})
	}
	return projects, nil
}

var _ ports.TaxonomyPort = ProjectsAPIAdapter{}
var _ ports.ReleaseLookupPort = ProjectsAPIAdapter{}
