package tickets

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/go-github/v45/github"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/oauth2"
)

// GitHubConfig configures a GitHubTracker.
type GitHubConfig struct {
	Token     string // personal access token
	Owner     string
	Repo      string
	CacheSize int           // number of tickets to keep cached, default DefaultCacheSize
	CacheTTL  time.Duration // per-entry freshness window, default DefaultCacheTTL
}

const (
	// DefaultCacheSize caps the ticket cache, grounded on the embedder's
	// CachedEmbedder sizing (a few thousand entries is cheap and plenty for
	// one project's active ticket set).
	DefaultCacheSize = 500
	// DefaultCacheTTL is how long a cached ticket is served before a refetch.
	DefaultCacheTTL = 5 * time.Minute
	// rateLimitBuffer keeps this many requests in reserve before pausing,
	// matching the teacher's ferg-cod3s-conexus connector's buffer of 10.
	rateLimitBuffer = 10
)

type cacheEntry struct {
	ticket    *Ticket
	expiresAt time.Time
}

// GitHubTracker is a Tracker backed by the GitHub Issues API, with an
// in-process LRU cache and a rate limiter that waits out the API's reset
// window rather than erroring when the budget is exhausted.
type GitHubTracker struct {
	client githubClient
	owner  string
	repo   string
	cache  *lru.Cache[string, cacheEntry]
	ttl    time.Duration

	rlMu      sync.RWMutex
	remaining int
	reset     time.Time
}

// NewGitHubTracker builds a GitHubTracker from an access token.
func NewGitHubTracker(cfg GitHubConfig) (*GitHubTracker, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("github token is required")
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("github owner and repo are required")
	}

	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	cache, err := lru.New[string, cacheEntry](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating ticket cache: %w", err)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	httpClient := oauth2.NewClient(context.Background(), ts)

	return &GitHubTracker{
		client:    &realGitHubClient{client: github.NewClient(httpClient)},
		owner:     cfg.Owner,
		repo:      cfg.Repo,
		cache:     cache,
		ttl:       ttl,
		remaining: -1, // unknown until the first call
	}, nil
}

// Search runs a GitHub issue search scoped to this tracker's repo.
func (t *GitHubTracker) Search(ctx context.Context, query string, limit int) ([]*Ticket, error) {
	if limit <= 0 {
		limit = 10
	}
	if err := t.waitForRateLimit(ctx); err != nil {
		return nil, err
	}

	scoped := fmt.Sprintf("repo:%s/%s %s", t.owner, t.repo, query)
	result, resp, err := t.client.SearchIssues(ctx, scoped, &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: limit},
	})
	t.recordRateLimit(resp)
	if err != nil {
		return nil, fmt.Errorf("searching tickets: %w", err)
	}

	tickets := make([]*Ticket, 0, len(result.Issues))
	for i, issue := range result.Issues {
		if i >= limit {
			break
		}
		ticket := issueToTicket(&issue)
		tickets = append(tickets, ticket)
		t.cache.Add(ticket.ID, cacheEntry{ticket: ticket, expiresAt: time.Now().Add(t.ttl)})
	}
	return tickets, nil
}

// Get fetches one ticket by issue number, serving from cache when fresh.
func (t *GitHubTracker) Get(ctx context.Context, id string) (*Ticket, error) {
	if entry, ok := t.cache.Get(id); ok && time.Now().Before(entry.expiresAt) {
		return entry.ticket, nil
	}

	number, err := strconv.Atoi(id)
	if err != nil {
		return nil, fmt.Errorf("invalid ticket id %q: %w", id, err)
	}

	if err := t.waitForRateLimit(ctx); err != nil {
		return nil, err
	}

	issue, resp, err := t.client.GetIssue(ctx, t.owner, t.repo, number)
	t.recordRateLimit(resp)
	if err != nil {
		return nil, fmt.Errorf("fetching ticket %s: %w", id, err)
	}

	ticket := issueToTicket(issue)
	t.cache.Add(ticket.ID, cacheEntry{ticket: ticket, expiresAt: time.Now().Add(t.ttl)})
	return ticket, nil
}

// waitForRateLimit blocks until the API's rate-limit reset if the tracked
// remaining budget has dropped into the buffer zone.
func (t *GitHubTracker) waitForRateLimit(ctx context.Context) error {
	t.rlMu.RLock()
	remaining, reset := t.remaining, t.reset
	t.rlMu.RUnlock()

	if remaining < 0 || remaining > rateLimitBuffer {
		return nil
	}

	wait := time.Until(reset)
	if wait <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}

func (t *GitHubTracker) recordRateLimit(resp *github.Response) {
	if resp == nil {
		return
	}
	t.rlMu.Lock()
	defer t.rlMu.Unlock()
	t.remaining = resp.Rate.Remaining
	t.reset = resp.Rate.Reset.Time
}

func issueToTicket(issue *github.Issue) *Ticket {
	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}
	var assignee string
	if issue.Assignee != nil {
		assignee = issue.Assignee.GetLogin()
	}

	var createdAt, updatedAt time.Time
	if issue.CreatedAt != nil {
		createdAt = *issue.CreatedAt
	}
	if issue.UpdatedAt != nil {
		updatedAt = *issue.UpdatedAt
	}

	return &Ticket{
		ID:        strconv.Itoa(issue.GetNumber()),
		Title:     issue.GetTitle(),
		Body:      issue.GetBody(),
		State:     issue.GetState(),
		URL:       issue.GetHTMLURL(),
		Labels:    labels,
		Assignee:  assignee,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}
