package tickets

import (
	"context"

	"github.com/google/go-github/v45/github"
)

// githubClient is the subset of the go-github client GitHubTracker calls,
// narrowed to an interface so tests can substitute a stub.
type githubClient interface {
	SearchIssues(ctx context.Context, query string, opts *github.SearchOptions) (*github.IssuesSearchResult, *github.Response, error)
	GetIssue(ctx context.Context, owner, repo string, number int) (*github.Issue, *github.Response, error)
	GetRateLimits(ctx context.Context) (*github.RateLimits, *github.Response, error)
}

// realGitHubClient adapts *github.Client to githubClient.
type realGitHubClient struct {
	client *github.Client
}

func (r *realGitHubClient) SearchIssues(ctx context.Context, query string, opts *github.SearchOptions) (*github.IssuesSearchResult, *github.Response, error) {
	return r.client.Search.Issues(ctx, query, opts)
}

func (r *realGitHubClient) GetIssue(ctx context.Context, owner, repo string, number int) (*github.Issue, *github.Response, error) {
	return r.client.Issues.Get(ctx, owner, repo, number)
}

func (r *realGitHubClient) GetRateLimits(ctx context.Context) (*github.RateLimits, *github.Response, error) {
	return r.client.RateLimits(ctx)
}
