// Package tickets implements a thin read-through cache over an external
// ticket tracker, backing the search_tickets/get_ticket MCP tools.
package tickets

import (
	"context"
	"time"
)

// Ticket is the tracker-agnostic shape search_tickets/get_ticket return,
// regardless of which Tracker implementation produced it.
type Ticket struct {
	ID        string
	Title     string
	Body      string
	State     string
	URL       string
	Labels    []string
	Assignee  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tracker is the adapter interface every ticket-tracker backend implements.
type Tracker interface {
	// Search finds tickets matching query, newest first, capped at limit.
	Search(ctx context.Context, query string, limit int) ([]*Ticket, error)
	// Get fetches a single ticket by tracker-native ID (e.g. issue number).
	Get(ctx context.Context, id string) (*Ticket, error)
}
