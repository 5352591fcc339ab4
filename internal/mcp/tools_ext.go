package mcp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/amanmcp/internal/search"
	"github.com/Aman-CERP/amanmcp/internal/store"
	"github.com/Aman-CERP/amanmcp/internal/tickets"
)

// SetTicketTracker wires an external issue tracker into search_tickets/
// get_ticket. Left nil, those tools report ErrCodeInternalError rather
// than panicking - a project simply not configured with a tracker.
func (s *Server) SetTicketTracker(t tickets.Tracker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = t
}

// chunkToEntityResult converts a stored chunk to the envelope shape every
// retrieval tool returns, per spec §6.
func chunkToEntityResult(c *store.Chunk, score float64) EntityResult {
	name := c.QualifiedName
	var signature string
	if len(c.Symbols) > 0 {
		if name == "" {
			name = c.Symbols[0].Name
		}
		signature = c.Symbols[0].Signature
	}
	if name == "" {
		name = c.FilePath
	}
	return EntityResult{
		ID:           c.ID,
		EntityType:   c.EntityType,
		Name:         name,
		SourcePath:   c.FilePath,
		LineStart:    c.StartLine,
		LineEnd:      c.EndLine,
		Score:        score,
		Content:      c.Content,
		Observations: c.Observations,
		Language:     c.Language,
		Signature:    signature,
	}
}

// resolveEntityByName finds the chunk best matching a qualified name,
// preferring an exact qualified-name or file-path match over the top
// search hit. Used by get_implementation and read_graph, which both take
// a human-supplied name rather than a raw chunk ID.
func (s *Server) resolveEntityByName(ctx context.Context, name string) (*store.Chunk, error) {
	if name == "" {
		return nil, nil
	}
	results, err := s.engine.Search(ctx, name, search.SearchOptions{Limit: 5})
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.Chunk != nil && (r.Chunk.QualifiedName == name || r.Chunk.FilePath == name) {
			return r.Chunk, nil
		}
	}
	if len(results) > 0 && results[0].Chunk != nil {
		return results[0].Chunk, nil
	}
	return nil, nil
}

// searchSimilar is the core search_similar logic shared by the typed MCP
// handler and the generic CallTool dispatch.
func (s *Server) searchSimilar(ctx context.Context, input SearchSimilarInput) (*SearchSimilarOutput, error) {
	if input.Query == "" {
		return nil, NewInvalidParamsError("query parameter is required")
	}

	opts := search.SearchOptions{Limit: clampLimit(input.Limit, 10, 1, 50)}
	switch input.Mode {
	case "semantic":
		opts.VectorOnly = true
	case "keyword":
		opts.BM25Only = true
	case "", "hybrid":
	default:
		return nil, NewInvalidParamsError("mode must be one of semantic, keyword, hybrid")
	}

	results, err := s.engine.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, MapError(err)
	}

	wantType := make(map[string]bool, len(input.EntityTypes))
	for _, t := range input.EntityTypes {
		wantType[t] = true
	}

	builder := newBudgetBuilder(DefaultTokenBudget)
	for _, r := range results {
		if r.Chunk == nil {
			continue
		}
		if len(wantType) > 0 && !wantType[r.Chunk.EntityType] {
			continue
		}
		if !builder.Add(chunkToEntityResult(r.Chunk, r.Score)) {
			break
		}
	}

	return &SearchSimilarOutput{Results: builder.Results(), Truncated: builder.Truncated()}, nil
}

func (s *Server) mcpSearchSimilarHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchSimilarInput) (
	*mcp.CallToolResult, SearchSimilarOutput, error,
) {
	out, err := s.searchSimilar(ctx, input)
	if err != nil {
		return nil, SearchSimilarOutput{}, err
	}
	return nil, *out, nil
}

// readGraph is the core read_graph logic.
func (s *Server) readGraph(ctx context.Context, input ReadGraphInput) (*ReadGraphOutput, error) {
	out, err := s.runReadGraph(ctx, input.Entity, input.Mode, input.Limit, input.EntityTypes)
	if err != nil {
		return nil, MapError(err)
	}
	return out, nil
}

func (s *Server) mcpReadGraphHandler(ctx context.Context, _ *mcp.CallToolRequest, input ReadGraphInput) (
	*mcp.CallToolResult, ReadGraphOutput, error,
) {
	out, err := s.readGraph(ctx, input)
	if err != nil {
		return nil, ReadGraphOutput{}, err
	}
	return nil, *out, nil
}

// getImplementation is the core get_implementation logic: minimal returns
// just the named entity's implementation chunk, logical adds same-file
// calls targets, dependencies additionally follows one hop of imports.
func (s *Server) getImplementation(ctx context.Context, input GetImplementationInput) (*GetImplementationOutput, error) {
	if input.Name == "" {
		return nil, NewInvalidParamsError("name parameter is required")
	}
	scope := input.Scope
	if scope == "" {
		scope = "minimal"
	}
	if scope != "minimal" && scope != "logical" && scope != "dependencies" {
		return nil, NewInvalidParamsError("scope must be one of minimal, logical, dependencies")
	}

	root, err := s.resolveEntityByName(ctx, input.Name)
	if err != nil {
		return nil, MapError(err)
	}
	if root == nil {
		return &GetImplementationOutput{Results: []EntityResult{}}, nil
	}

	impl, err := s.metadata.GetChunkByQualifiedName(ctx, root.FilePath, root.QualifiedName, store.ChunkKindImplementation)
	if err != nil {
		return nil, MapError(err)
	}

	out := &GetImplementationOutput{Results: []EntityResult{}}
	seen := map[string]bool{}
	add := func(c *store.Chunk) {
		if c == nil || seen[c.ID] {
			return
		}
		seen[c.ID] = true
		out.Results = append(out.Results, chunkToEntityResult(c, 0))
	}
	if impl != nil {
		add(impl)
	} else {
		add(root)
	}

	if scope == "logical" || scope == "dependencies" {
		calls, err := s.metadata.GetRelationsFrom(ctx, root.ID, []store.RelationKind{store.RelationCalls})
		if err != nil {
			return nil, MapError(err)
		}
		for _, rel := range calls {
			if target, err := s.metadata.GetChunk(ctx, rel.ToID); err == nil && target != nil && target.FilePath == root.FilePath {
				add(target)
			}
		}
	}
	if scope == "dependencies" {
		imports, err := s.metadata.GetRelationsFrom(ctx, root.ID, []store.RelationKind{store.RelationImports})
		if err != nil {
			return nil, MapError(err)
		}
		for _, rel := range imports {
			if target, err := s.metadata.GetChunk(ctx, rel.ToID); err == nil && target != nil {
				add(target)
			}
		}
	}

	return out, nil
}

func (s *Server) mcpGetImplementationHandler(ctx context.Context, _ *mcp.CallToolRequest, input GetImplementationInput) (
	*mcp.CallToolResult, GetImplementationOutput, error,
) {
	out, err := s.getImplementation(ctx, input)
	if err != nil {
		return nil, GetImplementationOutput{}, err
	}
	return nil, *out, nil
}

// getDoc fetches a documentation chunk by id, optionally narrowed to one
// section using the markdown chunker's "section_title" metadata.
func (s *Server) getDoc(ctx context.Context, input GetDocInput) (*GetDocOutput, error) {
	if input.DocID == "" {
		return nil, NewInvalidParamsError("doc_id parameter is required")
	}

	chunk, err := s.metadata.GetChunk(ctx, input.DocID)
	if err != nil {
		return nil, MapError(err)
	}
	if chunk == nil {
		return &GetDocOutput{Results: []EntityResult{}}, nil
	}

	if input.Section == "" {
		return &GetDocOutput{Results: []EntityResult{chunkToEntityResult(chunk, 0)}}, nil
	}

	siblings, err := s.metadata.GetChunksByFile(ctx, chunk.FileID)
	if err != nil {
		return nil, MapError(err)
	}
	out := &GetDocOutput{Results: []EntityResult{}}
	for _, c := range siblings {
		if strings.EqualFold(c.Metadata["section_title"], input.Section) {
			out.Results = append(out.Results, chunkToEntityResult(c, 0))
		}
	}
	return out, nil
}

func (s *Server) mcpGetDocHandler(ctx context.Context, _ *mcp.CallToolRequest, input GetDocInput) (
	*mcp.CallToolResult, GetDocOutput, error,
) {
	out, err := s.getDoc(ctx, input)
	if err != nil {
		return nil, GetDocOutput{}, err
	}
	return nil, *out, nil
}

func ticketToResult(t *tickets.Ticket) TicketResult {
	return TicketResult{
		ID:          t.ID,
		Source:      "github",
		Title:       t.Title,
		Description: t.Body,
		Status:      t.State,
		Labels:      t.Labels,
		URL:         t.URL,
	}
}

// searchTickets is the core search_tickets logic. Status/labels filtering
// happens client-side since internal/tickets.Tracker's Search contract is
// a plain text query.
func (s *Server) searchTickets(ctx context.Context, input SearchTicketsInput) (*SearchTicketsOutput, error) {
	s.mu.RLock()
	tracker := s.tickets
	s.mu.RUnlock()

	if tracker == nil {
		return &SearchTicketsOutput{
			Error: &ToolError{Code: "TICKET_TRACKER_UNCONFIGURED", Tool: "search_tickets",
				Hint: "no ticket tracker is configured for this project"},
		}, nil
	}
	if input.Query == "" {
		return nil, NewInvalidParamsError("query parameter is required")
	}

	limit := clampLimit(input.Limit, 10, 1, 50)
	found, err := tracker.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, MapError(err)
	}

	wantLabel := make(map[string]bool, len(input.Labels))
	for _, l := range input.Labels {
		wantLabel[l] = true
	}

	out := &SearchTicketsOutput{Results: []TicketResult{}}
	for _, t := range found {
		if input.Status != "" && !strings.EqualFold(t.State, input.Status) {
			continue
		}
		if len(wantLabel) > 0 {
			match := false
			for _, l := range t.Labels {
				if wantLabel[l] {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out.Results = append(out.Results, ticketToResult(t))
	}
	return out, nil
}

func (s *Server) mcpSearchTicketsHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchTicketsInput) (
	*mcp.CallToolResult, SearchTicketsOutput, error,
) {
	out, err := s.searchTickets(ctx, input)
	if err != nil {
		return nil, SearchTicketsOutput{}, err
	}
	return nil, *out, nil
}

func (s *Server) getTicket(ctx context.Context, input GetTicketInput) (*GetTicketOutput, error) {
	s.mu.RLock()
	tracker := s.tickets
	s.mu.RUnlock()

	if tracker == nil {
		return &GetTicketOutput{
			Error: &ToolError{Code: "TICKET_TRACKER_UNCONFIGURED", Tool: "get_ticket",
				Hint: "no ticket tracker is configured for this project"},
		}, nil
	}
	if input.ID == "" {
		return nil, NewInvalidParamsError("id parameter is required")
	}

	t, err := tracker.Get(ctx, input.ID)
	if err != nil {
		return nil, MapError(err)
	}
	result := ticketToResult(t)
	return &GetTicketOutput{Ticket: &result}, nil
}

func (s *Server) mcpGetTicketHandler(ctx context.Context, _ *mcp.CallToolRequest, input GetTicketInput) (
	*mcp.CallToolResult, GetTicketOutput, error,
) {
	out, err := s.getTicket(ctx, input)
	if err != nil {
		return nil, GetTicketOutput{}, err
	}
	return nil, *out, nil
}

// generateManualChunkID derives a stable id for an entity created through
// the write tools, the same content-addressable approach the indexer's
// chunker uses for parsed chunks (sha256 of a namespaced key, truncated).
func generateManualChunkID(entityType, name string) string {
	h := sha256.Sum256([]byte("manual:" + entityType + ":" + name))
	return hex.EncodeToString(h[:])[:16]
}

// createEntities is the core create_entities logic.
func (s *Server) createEntities(ctx context.Context, input CreateEntitiesInput) (*CreateEntitiesOutput, error) {
	if denied := s.checkPlanMode("create_entities"); denied != nil {
		return &CreateEntitiesOutput{Error: denied}, nil
	}
	if len(input.Entities) == 0 {
		return nil, NewInvalidParamsError("entities parameter is required")
	}

	now := time.Now()
	chunks := make([]*store.Chunk, 0, len(input.Entities))
	created := make([]string, 0, len(input.Entities))
	for _, e := range input.Entities {
		if e.Name == "" || e.EntityType == "" {
			return nil, NewInvalidParamsError("each entity requires name and entity_type")
		}
		id := generateManualChunkID(e.EntityType, e.Name)
		chunks = append(chunks, &store.Chunk{
			ID:            id,
			FilePath:      ".amanmcp/manual/" + e.EntityType,
			Content:       e.Content,
			RawContent:    e.Content,
			ContentType:   store.ContentTypeManual,
			EntityType:    e.EntityType,
			ChunkKind:     store.ChunkKindMetadata,
			QualifiedName: e.Name,
			Observations:  e.Observations,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
		created = append(created, id)
	}

	if err := s.metadata.SaveChunks(ctx, chunks); err != nil {
		return nil, MapError(err)
	}
	if err := s.engine.Index(ctx, chunks); err != nil {
		slog.Warn("failed to index manual entities", slog.String("error", err.Error()))
	}

	return &CreateEntitiesOutput{Created: created}, nil
}

func (s *Server) mcpCreateEntitiesHandler(ctx context.Context, _ *mcp.CallToolRequest, input CreateEntitiesInput) (
	*mcp.CallToolResult, CreateEntitiesOutput, error,
) {
	out, err := s.createEntities(ctx, input)
	if err != nil {
		return nil, CreateEntitiesOutput{}, err
	}
	return nil, *out, nil
}

// addObservations is the core add_observations logic.
func (s *Server) addObservations(ctx context.Context, input AddObservationsInput) (*AddObservationsOutput, error) {
	if denied := s.checkPlanMode("add_observations"); denied != nil {
		return &AddObservationsOutput{Error: denied}, nil
	}
	updated := make([]string, 0, len(input.Observations))
	for _, spec := range input.Observations {
		chunk, err := s.metadata.GetChunk(ctx, spec.EntityID)
		if err != nil {
			return nil, MapError(err)
		}
		if chunk == nil {
			continue
		}
		chunk.Observations = append(chunk.Observations, spec.Observations...)
		chunk.UpdatedAt = time.Now()
		if err := s.metadata.SaveChunks(ctx, []*store.Chunk{chunk}); err != nil {
			return nil, MapError(err)
		}
		updated = append(updated, chunk.ID)
	}
	return &AddObservationsOutput{Updated: updated}, nil
}

func (s *Server) mcpAddObservationsHandler(ctx context.Context, _ *mcp.CallToolRequest, input AddObservationsInput) (
	*mcp.CallToolResult, AddObservationsOutput, error,
) {
	out, err := s.addObservations(ctx, input)
	if err != nil {
		return nil, AddObservationsOutput{}, err
	}
	return nil, *out, nil
}

// deleteObservations removes matching observation strings from entities.
func (s *Server) deleteObservations(ctx context.Context, input DeleteObservationsInput) (*DeleteObservationsOutput, error) {
	if denied := s.checkPlanMode("delete_observations"); denied != nil {
		return &DeleteObservationsOutput{Error: denied}, nil
	}
	updated := make([]string, 0, len(input.Observations))
	for _, spec := range input.Observations {
		chunk, err := s.metadata.GetChunk(ctx, spec.EntityID)
		if err != nil {
			return nil, MapError(err)
		}
		if chunk == nil {
			continue
		}
		remove := make(map[string]bool, len(spec.Observations))
		for _, o := range spec.Observations {
			remove[o] = true
		}
		kept := chunk.Observations[:0]
		for _, o := range chunk.Observations {
			if !remove[o] {
				kept = append(kept, o)
			}
		}
		chunk.Observations = kept
		chunk.UpdatedAt = time.Now()
		if err := s.metadata.SaveChunks(ctx, []*store.Chunk{chunk}); err != nil {
			return nil, MapError(err)
		}
		updated = append(updated, chunk.ID)
	}
	return &DeleteObservationsOutput{Updated: updated}, nil
}

func (s *Server) mcpDeleteObservationsHandler(ctx context.Context, _ *mcp.CallToolRequest, input DeleteObservationsInput) (
	*mcp.CallToolResult, DeleteObservationsOutput, error,
) {
	out, err := s.deleteObservations(ctx, input)
	if err != nil {
		return nil, DeleteObservationsOutput{}, err
	}
	return nil, *out, nil
}

// createRelations is the core create_relations logic.
func (s *Server) createRelations(ctx context.Context, input CreateRelationsInput) (*CreateRelationsOutput, error) {
	if denied := s.checkPlanMode("create_relations"); denied != nil {
		return &CreateRelationsOutput{Error: denied}, nil
	}
	if len(input.Relations) == 0 {
		return nil, NewInvalidParamsError("relations parameter is required")
	}

	rels := make([]*store.Relation, 0, len(input.Relations))
	for _, spec := range input.Relations {
		if spec.FromID == "" || spec.ToID == "" || spec.Kind == "" {
			return nil, NewInvalidParamsError("each relation requires from_id, to_id, and kind")
		}
		rels = append(rels, &store.Relation{
			FromID: spec.FromID,
			ToID:   spec.ToID,
			Kind:   store.RelationKind(spec.Kind),
			Weight: spec.Weight,
		})
	}

	if err := s.metadata.SaveRelations(ctx, rels); err != nil {
		return nil, MapError(err)
	}
	return &CreateRelationsOutput{Created: len(rels)}, nil
}

func (s *Server) mcpCreateRelationsHandler(ctx context.Context, _ *mcp.CallToolRequest, input CreateRelationsInput) (
	*mcp.CallToolResult, CreateRelationsOutput, error,
) {
	out, err := s.createRelations(ctx, input)
	if err != nil {
		return nil, CreateRelationsOutput{}, err
	}
	return nil, *out, nil
}

// deleteEntities is the core delete_entities logic.
func (s *Server) deleteEntities(ctx context.Context, input DeleteEntitiesInput) (*DeleteEntitiesOutput, error) {
	if denied := s.checkPlanMode("delete_entities"); denied != nil {
		return &DeleteEntitiesOutput{Error: denied}, nil
	}
	if len(input.IDs) == 0 {
		return nil, NewInvalidParamsError("ids parameter is required")
	}

	if err := s.metadata.DeleteRelationsForChunks(ctx, input.IDs); err != nil {
		return nil, MapError(err)
	}
	if err := s.metadata.DeleteChunks(ctx, input.IDs); err != nil {
		return nil, MapError(err)
	}
	if err := s.engine.Delete(ctx, input.IDs); err != nil {
		slog.Warn("failed to remove manual entities from search index", slog.String("error", err.Error()))
	}

	return &DeleteEntitiesOutput{Deleted: input.IDs}, nil
}

func (s *Server) mcpDeleteEntitiesHandler(ctx context.Context, _ *mcp.CallToolRequest, input DeleteEntitiesInput) (
	*mcp.CallToolResult, DeleteEntitiesOutput, error,
) {
	out, err := s.deleteEntities(ctx, input)
	if err != nil {
		return nil, DeleteEntitiesOutput{}, err
	}
	return nil, *out, nil
}

// deleteRelations is the core delete_relations logic. Relations are
// matched by (from_id, to_id, kind) and removed by recomputing the same
// deterministic id SaveRelations derives for an unset ID.
func (s *Server) deleteRelations(ctx context.Context, input DeleteRelationsInput) (*DeleteRelationsOutput, error) {
	if denied := s.checkPlanMode("delete_relations"); denied != nil {
		return &DeleteRelationsOutput{Error: denied}, nil
	}
	if len(input.Relations) == 0 {
		return nil, NewInvalidParamsError("relations parameter is required")
	}

	count := 0
	for _, spec := range input.Relations {
		fromRels, err := s.metadata.GetRelationsFrom(ctx, spec.FromID, []store.RelationKind{store.RelationKind(spec.Kind)})
		if err != nil {
			return nil, MapError(err)
		}
		for _, rel := range fromRels {
			if rel.ToID == spec.ToID {
				if err := s.deleteRelationByID(ctx, rel.ID); err != nil {
					return nil, MapError(err)
				}
				count++
			}
		}
	}
	return &DeleteRelationsOutput{Deleted: count}, nil
}

func (s *Server) deleteRelationByID(ctx context.Context, id string) error {
	return s.metadata.DeleteRelations(ctx, []string{id})
}

func (s *Server) mcpDeleteRelationsHandler(ctx context.Context, _ *mcp.CallToolRequest, input DeleteRelationsInput) (
	*mcp.CallToolResult, DeleteRelationsOutput, error,
) {
	out, err := s.deleteRelations(ctx, input)
	if err != nil {
		return nil, DeleteRelationsOutput{}, err
	}
	return nil, *out, nil
}

// checkPlanMode returns a ToolError if the process-wide plan-mode gate is
// active, nil otherwise.
func (s *Server) checkPlanMode(tool string) *ToolError {
	if PlanModeActive() {
		return planModeDeniedError(tool)
	}
	return nil
}

func (s *Server) setPlanMode(input SetPlanModeInput) *SetPlanModeOutput {
	previous := SetPlanMode(input.Enabled)
	return &SetPlanModeOutput{PlanModeActive: PlanModeActive(), Previous: previous}
}

func (s *Server) mcpSetPlanModeHandler(_ context.Context, _ *mcp.CallToolRequest, input SetPlanModeInput) (
	*mcp.CallToolResult, SetPlanModeOutput, error,
) {
	return nil, *s.setPlanMode(input), nil
}

// The decode* helpers below translate a generic map[string]any (the shape
// CallTool receives) into the typed Input structs the MCP SDK otherwise
// builds automatically from a JSON-RPC request, matching the pattern the
// existing handleSearchTool/handleSearchCodeTool functions use.

func stringSliceArg(args map[string]any, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if str, ok := v.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]any, key string) int {
	if f, ok := args[key].(float64); ok {
		return int(f)
	}
	return 0
}

func boolArg(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func decodeSearchSimilarInput(args map[string]any) SearchSimilarInput {
	return SearchSimilarInput{
		Query:       stringArg(args, "query"),
		EntityTypes: stringSliceArg(args, "entity_types"),
		Limit:       intArg(args, "limit"),
		Mode:        stringArg(args, "mode"),
	}
}

func decodeReadGraphInput(args map[string]any) ReadGraphInput {
	return ReadGraphInput{
		Entity:      stringArg(args, "entity"),
		Mode:        stringArg(args, "mode"),
		Limit:       intArg(args, "limit"),
		EntityTypes: stringSliceArg(args, "entity_types"),
	}
}

func decodeGetImplementationInput(args map[string]any) GetImplementationInput {
	return GetImplementationInput{
		Name:  stringArg(args, "name"),
		Scope: stringArg(args, "scope"),
	}
}

func decodeGetDocInput(args map[string]any) GetDocInput {
	return GetDocInput{
		DocID:   stringArg(args, "doc_id"),
		Section: stringArg(args, "section"),
	}
}

func decodeSearchTicketsInput(args map[string]any) SearchTicketsInput {
	return SearchTicketsInput{
		Query:  stringArg(args, "query"),
		Status: stringArg(args, "status"),
		Labels: stringSliceArg(args, "labels"),
		Source: stringArg(args, "source"),
		Limit:  intArg(args, "limit"),
	}
}

func decodeGetTicketInput(args map[string]any) GetTicketInput {
	return GetTicketInput{ID: stringArg(args, "id")}
}

func decodeSetPlanModeInput(args map[string]any) SetPlanModeInput {
	return SetPlanModeInput{Enabled: boolArg(args, "enabled")}
}
