// Package relations implements graph traversal over the relation edges
// persisted alongside chunks in the metadata store, backing the MCP
// read_graph tool.
package relations

import (
	"context"
	"fmt"

	"github.com/Aman-CERP/amanmcp/internal/store"
)

// Mode selects how Traverse shapes its output.
type Mode string

const (
	// ModeSmart returns a condensed view: entities plus a summary of their
	// relationships, trimmed to what's useful for an LLM prompt.
	ModeSmart Mode = "smart"
	// ModeEntities returns only the entities reached, no edges.
	ModeEntities Mode = "entities"
	// ModeRelationships returns only the edges, no entity bodies.
	ModeRelationships Mode = "relationships"
	// ModeRaw returns entities and edges exactly as stored, unfiltered.
	ModeRaw Mode = "raw"
)

// DefaultMaxDepth bounds traversal so a cyclic or densely connected graph
// can't run away; depth 0 means "just the starting entity".
const DefaultMaxDepth = 3

// Options configures a single Traverse call.
type Options struct {
	Mode      Mode
	MaxDepth  int                // 0 uses DefaultMaxDepth
	Kinds     []store.RelationKind // empty = all kinds
	Direction Direction
}

// Direction selects which edges to follow from a node.
type Direction string

const (
	DirectionOutbound Direction = "outbound" // FromID == node
	DirectionInbound  Direction = "inbound"  // ToID == node
	DirectionBoth     Direction = "both"
)

// Node is one visited entity in a traversal result.
type Node struct {
	Chunk *store.Chunk
	Depth int
}

// Edge is one traversed relation.
type Edge struct {
	Relation *store.Relation
	Depth    int
}

// Result is the shape returned to callers, with Entities/Edges populated
// according to the requested Mode.
type Result struct {
	Entities []*Node
	Edges    []*Edge
	Truncated bool // true if MaxDepth bound was hit before the frontier emptied
}

// Traverse walks the relation graph starting at rootID using a bounded BFS,
// guarded by a visited set so cycles terminate.
func Traverse(ctx context.Context, metadata store.MetadataStore, rootID string, opts Options) (*Result, error) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	direction := opts.Direction
	if direction == "" {
		direction = DirectionOutbound
	}

	visited := map[string]bool{rootID: true}
	result := &Result{}

	type frontierEntry struct {
		id    string
		depth int
	}
	frontier := []frontierEntry{{id: rootID, depth: 0}}

	if opts.Mode != ModeRelationships {
		if chunk, err := metadata.GetChunk(ctx, rootID); err == nil && chunk != nil {
			result.Entities = append(result.Entities, &Node{Chunk: chunk, Depth: 0})
		}
	}

	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]

		if current.depth >= maxDepth {
			if len(frontier) == 0 {
				continue
			}
			result.Truncated = true
			continue
		}

		edges, err := edgesFor(ctx, metadata, current.id, direction, opts.Kinds)
		if err != nil {
			return nil, fmt.Errorf("fetching relations for %q: %w", current.id, err)
		}

		for _, rel := range edges {
			neighbor := rel.ToID
			if rel.FromID != current.id {
				neighbor = rel.FromID
			}

			if opts.Mode != ModeEntities {
				result.Edges = append(result.Edges, &Edge{Relation: rel, Depth: current.depth + 1})
			}

			if visited[neighbor] {
				continue
			}
			visited[neighbor] = true

			if opts.Mode != ModeRelationships {
				if chunk, err := metadata.GetChunk(ctx, neighbor); err == nil && chunk != nil {
					result.Entities = append(result.Entities, &Node{Chunk: chunk, Depth: current.depth + 1})
				}
			}

			frontier = append(frontier, frontierEntry{id: neighbor, depth: current.depth + 1})
		}
	}

	return result, nil
}

func edgesFor(ctx context.Context, metadata store.MetadataStore, id string, direction Direction, kinds []store.RelationKind) ([]*store.Relation, error) {
	var edges []*store.Relation

	if direction == DirectionOutbound || direction == DirectionBoth {
		out, err := metadata.GetRelationsFrom(ctx, id, kinds)
		if err != nil {
			return nil, err
		}
		edges = append(edges, out...)
	}
	if direction == DirectionInbound || direction == DirectionBoth {
		in, err := metadata.GetRelationsTo(ctx, id, kinds)
		if err != nil {
			return nil, err
		}
		edges = append(edges, in...)
	}

	return edges, nil
}
