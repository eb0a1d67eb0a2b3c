package adapters

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-github/v74/github"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"pangea-projects/internal/ports"
)

const hostedListPageSize = 100

// GitHubLister lists the repositories of an organization.
type GitHubLister struct {
	client *github.Client
}

// NewGitHubLister creates a lister; apiURL overrides the public API
// endpoint and may be empty.
func NewGitHubLister(token string, apiURL string) (GitHubLister, error) {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if apiURL != "" {
		base, err := url.Parse(strings.TrimRight(apiURL, "/") + "/")
		if err != nil {
			return GitHubLister{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid github api url").
				WithCause(err)
		}
		client.BaseURL = base
	}
	return GitHubLister{client: client}, nil
}

func (l GitHubLister) List(ctx context.Context, namespace string) ([]string, error) {
	opt := &github.RepositoryListByOrgOptions{ListOptions: github.ListOptions{PerPage: hostedListPageSize}}
	var names []string
	for {
		repos, resp, err := l.client.Repositories.ListByOrg(ctx, namespace, opt)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to list github organization " + namespace).
				WithCause(err)
		}
		for _, repo := range repos {
			names = append(names, repo.GetName())
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	sort.Strings(names)
	return names, nil
}

// GitLabLister lists the projects of the group whose full path equals
// the namespace.
type GitLabLister struct {
	client *gitlab.Client
}

func NewGitLabLister(token string, baseURL string) (GitLabLister, error) {
	var options []gitlab.ClientOptionFunc
	if baseURL != "" {
		options = append(options, gitlab.WithBaseURL(baseURL))
	}
	client, err := gitlab.NewClient(token, options...)
	if err != nil {
		return GitLabLister{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to create gitlab client").
			WithCause(err)
	}
	return GitLabLister{client: client}, nil
}

func (l GitLabLister) List(ctx context.Context, namespace string) ([]string, error) {
	groups, _, err := l.client.Groups.SearchGroup(namespace, gitlab.WithContext(ctx))
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to search gitlab group " + namespace).
			WithCause(err)
	}
	var group *gitlab.Group
	for _, candidate := range groups {
		if candidate.FullPath == namespace {
			group = candidate
			break
		}
	}
	if group == nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("gitlab group not found: " + namespace)
	}

	opt := &gitlab.ListGroupProjectsOptions{ListOptions: gitlab.ListOptions{PerPage: hostedListPageSize}}
	var names []string
	for {
		projects, resp, err := l.client.Groups.ListGroupProjects(group.ID, opt, gitlab.WithContext(ctx))
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to list gitlab group " + namespace).
				WithCause(err)
		}
		for _, project := range projects {
			names = append(names, project.Path)
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	sort.Strings(names)
	return names, nil
}

var _ ports.RepoListerPort = GitHubLister{}
var _ ports.RepoListerPort = GitLabLister{}
