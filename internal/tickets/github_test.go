package tickets

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-github/v45/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGitHubTracker_RequiresToken(t *testing.T) {
	_, err := NewGitHubTracker(GitHubConfig{Owner: "o", Repo: "r"})
	require.Error(t, err)
}

func TestNewGitHubTracker_RequiresOwnerAndRepo(t *testing.T) {
	_, err := NewGitHubTracker(GitHubConfig{Token: "tok"})
	require.Error(t, err)
}

func TestNewGitHubTracker_Success(t *testing.T) {
	tr, err := NewGitHubTracker(GitHubConfig{Token: "tok", Owner: "o", Repo: "r"})
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.Equal(t, "o", tr.owner)
	assert.Equal(t, "r", tr.repo)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestIssueToTicket_MapsFields(t *testing.T) {
	now := time.Now()
	issue := &github.Issue{
		Number:    intPtr(7),
		Title:     strPtr("Fix the thing"),
		Body:      strPtr("details here"),
		State:     strPtr("open"),
		HTMLURL:   strPtr("https://example.com/issues/7"),
		Labels:    []*github.Label{{Name: strPtr("bug")}, {Name: strPtr("p1")}},
		Assignee:  &github.User{Login: strPtr("alice")},
		CreatedAt: &now,
		UpdatedAt: &now,
	}

	ticket := issueToTicket(issue)
	assert.Equal(t, "7", ticket.ID)
	assert.Equal(t, "Fix the thing", ticket.Title)
	assert.Equal(t, "details here", ticket.Body)
	assert.Equal(t, "open", ticket.State)
	assert.Equal(t, "https://example.com/issues/7", ticket.URL)
	assert.Equal(t, []string{"bug", "p1"}, ticket.Labels)
	assert.Equal(t, "alice", ticket.Assignee)
	assert.Equal(t, now, ticket.CreatedAt)
}

func TestIssueToTicket_NilOptionalFields(t *testing.T) {
	issue := &github.Issue{
		Number: intPtr(1),
		Title:  strPtr("t"),
		State:  strPtr("open"),
	}
	ticket := issueToTicket(issue)
	assert.Equal(t, "1", ticket.ID)
	assert.Empty(t, ticket.Assignee)
	assert.True(t, ticket.CreatedAt.IsZero())
}

// stubGitHubClient is a githubClient test double.
type stubGitHubClient struct {
	searchFn func(ctx context.Context, query string, opts *github.SearchOptions) (*github.IssuesSearchResult, *github.Response, error)
	getFn    func(ctx context.Context, owner, repo string, number int) (*github.Issue, *github.Response, error)
}

func (s *stubGitHubClient) SearchIssues(ctx context.Context, query string, opts *github.SearchOptions) (*github.IssuesSearchResult, *github.Response, error) {
	return s.searchFn(ctx, query, opts)
}

func (s *stubGitHubClient) GetIssue(ctx context.Context, owner, repo string, number int) (*github.Issue, *github.Response, error) {
	return s.getFn(ctx, owner, repo, number)
}

func (s *stubGitHubClient) GetRateLimits(_ context.Context) (*github.RateLimits, *github.Response, error) {
	return nil, nil, nil
}

func newTestTracker(t *testing.T, client githubClient) *GitHubTracker {
	t.Helper()
	tr, err := NewGitHubTracker(GitHubConfig{Token: "tok", Owner: "o", Repo: "r"})
	require.NoError(t, err)
	tr.client = client
	return tr
}

func TestGitHubTracker_Search_ScopesQueryToRepo(t *testing.T) {
	var gotQuery string
	client := &stubGitHubClient{
		searchFn: func(_ context.Context, query string, _ *github.SearchOptions) (*github.IssuesSearchResult, *github.Response, error) {
			gotQuery = query
			return &github.IssuesSearchResult{Issues: []github.Issue{
				{Number: intPtr(1), Title: strPtr("a"), State: strPtr("open")},
			}}, &github.Response{}, nil
		},
	}
	tr := newTestTracker(t, client)

	results, err := tr.Search(context.Background(), "memory leak", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, gotQuery, "repo:o/r")
	assert.Contains(t, gotQuery, "memory leak")
}

func TestGitHubTracker_Get_CacheHit(t *testing.T) {
	calls := 0
	client := &stubGitHubClient{
		getFn: func(_ context.Context, _, _ string, number int) (*github.Issue, *github.Response, error) {
			calls++
			return &github.Issue{Number: intPtr(number), Title: strPtr("cached"), State: strPtr("open")}, &github.Response{}, nil
		},
	}
	tr := newTestTracker(t, client)

	first, err := tr.Get(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "cached", first.Title)

	second, err := tr.Get(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "cached", second.Title)
	assert.Equal(t, 1, calls, "second Get should be served from cache, not hit the client again")
}

func TestGitHubTracker_Get_InvalidID(t *testing.T) {
	tr := newTestTracker(t, &stubGitHubClient{})
	_, err := tr.Get(context.Background(), "not-a-number")
	require.Error(t, err)
}

func TestGitHubTracker_WaitForRateLimit_NoWaitWhenUnknownOrAboveBuffer(t *testing.T) {
	tr := newTestTracker(t, &stubGitHubClient{})
	// remaining defaults to -1 (unknown)
	err := tr.waitForRateLimit(context.Background())
	require.NoError(t, err)

	tr.remaining = rateLimitBuffer + 1
	err = tr.waitForRateLimit(context.Background())
	require.NoError(t, err)
}

func TestGitHubTracker_WaitForRateLimit_RespectsContextCancellation(t *testing.T) {
	tr := newTestTracker(t, &stubGitHubClient{})
	tr.remaining = 0
	tr.reset = time.Now().Add(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tr.waitForRateLimit(ctx)
	require.Error(t, err)
}
