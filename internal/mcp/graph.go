package mcp

import (
	"context"
	"fmt"

	"github.com/Aman-CERP/amanmcp/internal/relations"
	"github.com/Aman-CERP/amanmcp/internal/store"
)

// resolveGraphRoot finds the chunk a read_graph call should start from.
// An empty entity falls back to the single best match for an empty-query
// listing, matching the "summarised overview" wording of spec §4.G; a
// non-empty entity is resolved the same way get_implementation resolves a
// name, since both take either a qualified name or a chunk ID.
func (s *Server) resolveGraphRoot(ctx context.Context, entity string) (*store.Chunk, error) {
	if entity == "" {
		return nil, nil
	}
	if chunk, err := s.metadata.GetChunk(ctx, entity); err == nil && chunk != nil {
		return chunk, nil
	}
	return s.resolveEntityByName(ctx, entity)
}

// runReadGraph traverses the relation graph from entity and shapes the
// result for the read_graph tool, filtering to entityTypes when given.
func (s *Server) runReadGraph(ctx context.Context, entity, mode string, maxDepth int, entityTypes []string) (*ReadGraphOutput, error) {
	root, err := s.resolveGraphRoot(ctx, entity)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return &ReadGraphOutput{Entities: []EntityResult{}}, nil
	}

	graphMode := relations.Mode(mode)
	switch graphMode {
	case relations.ModeSmart, relations.ModeEntities, relations.ModeRelationships, relations.ModeRaw:
	default:
		graphMode = relations.ModeSmart
	}

	result, err := relations.Traverse(ctx, s.metadata, root.ID, relations.Options{
		Mode:      graphMode,
		MaxDepth:  maxDepth,
		Direction: relations.DirectionBoth,
	})
	if err != nil {
		return nil, fmt.Errorf("traversing relation graph: %w", err)
	}

	wantType := make(map[string]bool, len(entityTypes))
	for _, t := range entityTypes {
		wantType[t] = true
	}

	out := &ReadGraphOutput{Truncated: result.Truncated}
	for _, node := range result.Entities {
		if node.Chunk == nil {
			continue
		}
		if len(wantType) > 0 && !wantType[node.Chunk.EntityType] {
			continue
		}
		out.Entities = append(out.Entities, chunkToEntityResult(node.Chunk, 0))
	}
	for _, edge := range result.Edges {
		if edge.Relation == nil {
			continue
		}
		out.Edges = append(out.Edges, GraphEdge{
			From:   edge.Relation.FromID,
			To:     edge.Relation.ToID,
			Kind:   string(edge.Relation.Kind),
			Weight: edge.Relation.Weight,
			Depth:  edge.Depth,
		})
	}
	if out.Entities == nil {
		out.Entities = []EntityResult{}
	}
	return out, nil
}
