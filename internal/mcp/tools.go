package mcp

// SearchCodeInput defines the input schema for the search_code tool.
type SearchCodeInput struct {
	Query      string   `json:"query" jsonschema:"the code search query to execute"`
	Language   string   `json:"language,omitempty" jsonschema:"filter by programming language (go, typescript, python)"`
	SymbolType string   `json:"symbol_type,omitempty" jsonschema:"filter by symbol type: function, class, interface, type, method, or any"`
	Limit      int      `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	Scope      []string `json:"scope,omitempty" jsonschema:"filter by path prefixes (OR logic)"`
}

// SearchDocsInput defines the input schema for the search_docs tool.
type SearchDocsInput struct {
	Query string   `json:"query" jsonschema:"the documentation search query to execute"`
	Limit int      `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	Scope []string `json:"scope,omitempty" jsonschema:"filter by path prefixes (OR logic)"`
}

// IndexStatusInput defines the input schema for the index_status tool (no parameters).
type IndexStatusInput struct{}

// IndexStatusOutput defines the output schema for the index_status tool.
type IndexStatusOutput struct {
	Project    ProjectInfo       `json:"project"`
	Stats      IndexStats        `json:"stats"`
	Embeddings EmbeddingInfo     `json:"embeddings"`
	Indexing   *IndexingProgress `json:"indexing,omitempty"` // Present during background indexing
}

// IndexingProgress contains information about ongoing background indexing.
type IndexingProgress struct {
	Status         string  `json:"status"`                     // "indexing", "ready", or "error"
	Stage          string  `json:"stage,omitempty"`            // "scanning", "chunking", "embedding", "indexing"
	FilesTotal     int     `json:"files_total"`                // Total files to process
	FilesProcessed int     `json:"files_processed"`            // Files processed so far
	ChunksIndexed  int     `json:"chunks_indexed"`             // Chunks indexed so far
	ProgressPct    float64 `json:"progress_pct"`               // Progress percentage (0-100)
	ElapsedSeconds int     `json:"elapsed_seconds"`            // Time since indexing started
	ErrorMessage   string  `json:"error_message,omitempty"`    // Error message if status is "error"
}

// ProjectInfo contains information about the indexed project.
type ProjectInfo struct {
	Name     string `json:"name"`
	RootPath string `json:"root_path"`
	Type     string `json:"type"`
}

// IndexStats contains statistics about the index.
type IndexStats struct {
	FileCount      int    `json:"file_count"`
	ChunkCount     int    `json:"chunk_count"`
	IndexSizeBytes int64  `json:"index_size_bytes"`
	LastIndexed    string `json:"last_indexed"`
}

// ToolError is the structured error envelope carried in a tool's Error
// field, rather than a transport-level MCP error, per spec §6. Today only
// the plan-mode gate produces one, but the shape is general.
type ToolError struct {
	Code           string   `json:"error"`
	Tool           string   `json:"tool,omitempty"`
	PlanModeActive bool     `json:"planModeActive,omitempty"`
	BlockedTools   []string `json:"blockedTools,omitempty"`
	Hint           string   `json:"hint,omitempty"`
	Message        string   `json:"message,omitempty"`
}

// EntityResult is the envelope shape every retrieval tool returns a result
// list of, per spec §6: id, entity_type, name, source_path, line range,
// score, content, observations, plus language/signature for implementation
// chunks.
type EntityResult struct {
	ID           string   `json:"id"`
	EntityType   string   `json:"entity_type"`
	Name         string   `json:"name"`
	SourcePath   string   `json:"source_path"`
	LineStart    int      `json:"line_start"`
	LineEnd      int      `json:"line_end"`
	Score        float64  `json:"score,omitempty"`
	Content      string   `json:"content"`
	Observations []string `json:"observations,omitempty"`
	Language     string   `json:"language,omitempty"`
	Signature    string   `json:"signature,omitempty"`
}

// SearchSimilarInput defines the input schema for the search_similar tool.
type SearchSimilarInput struct {
	Query       string   `json:"query" jsonschema:"the search query to execute"`
	EntityTypes []string `json:"entity_types,omitempty" jsonschema:"restrict results to these entity types"`
	Limit       int      `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	Mode        string   `json:"mode,omitempty" jsonschema:"semantic, keyword, or hybrid (default hybrid)"`
}

// SearchSimilarOutput defines the output schema for the search_similar tool.
type SearchSimilarOutput struct {
	Results   []EntityResult `json:"results"`
	Truncated bool           `json:"truncated"`
	Warnings  []string       `json:"warnings,omitempty"`
	Error     *ToolError     `json:"error,omitempty"`
}

// ReadGraphInput defines the input schema for the read_graph tool.
type ReadGraphInput struct {
	Entity      string   `json:"entity,omitempty" jsonschema:"starting entity id or qualified name; empty summarises the whole graph"`
	Mode        string   `json:"mode,omitempty" jsonschema:"smart, entities, relationships, or raw (default smart)"`
	Limit       int      `json:"limit,omitempty" jsonschema:"maximum traversal depth, default 3"`
	EntityTypes []string `json:"entity_types,omitempty" jsonschema:"restrict returned entities to these types"`
}

// GraphEdge is one traversed relation in a read_graph response.
type GraphEdge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Kind   string  `json:"kind"`
	Weight float64 `json:"weight,omitempty"`
	Depth  int     `json:"depth"`
}

// ReadGraphOutput defines the output schema for the read_graph tool.
type ReadGraphOutput struct {
	Entities  []EntityResult `json:"entities"`
	Edges     []GraphEdge    `json:"edges,omitempty"`
	Truncated bool           `json:"truncated"`
	Warnings  []string       `json:"warnings,omitempty"`
	Error     *ToolError     `json:"error,omitempty"`
}

// GetImplementationInput defines the input schema for the get_implementation tool.
type GetImplementationInput struct {
	Name  string `json:"name" jsonschema:"qualified name of the entity to fetch the implementation for"`
	Scope string `json:"scope,omitempty" jsonschema:"minimal, logical, or dependencies (default minimal)"`
}

// GetImplementationOutput defines the output schema for the get_implementation tool.
type GetImplementationOutput struct {
	Results   []EntityResult `json:"results"`
	Truncated bool           `json:"truncated"`
	Warnings  []string       `json:"warnings,omitempty"`
	Error     *ToolError     `json:"error,omitempty"`
}

// GetDocInput defines the input schema for the get_doc tool.
type GetDocInput struct {
	DocID   string `json:"doc_id" jsonschema:"chunk or file id of the document"`
	Section string `json:"section,omitempty" jsonschema:"restrict to the section with this heading"`
}

// GetDocOutput defines the output schema for the get_doc tool.
type GetDocOutput struct {
	Results   []EntityResult `json:"results"`
	Truncated bool           `json:"truncated"`
	Warnings  []string       `json:"warnings,omitempty"`
	Error     *ToolError     `json:"error,omitempty"`
}

// SearchTicketsInput defines the input schema for the search_tickets tool.
type SearchTicketsInput struct {
	Query  string   `json:"query" jsonschema:"the ticket search query to execute"`
	Status string   `json:"status,omitempty" jsonschema:"filter by ticket status, e.g. open, closed"`
	Labels []string `json:"labels,omitempty" jsonschema:"filter by labels (OR logic)"`
	Source string   `json:"source,omitempty" jsonschema:"ticket tracker source, reserved for multi-tracker setups"`
	Limit  int      `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

// TicketResult is the shape search_tickets/get_ticket return, matching
// spec §6's TicketEntity.
type TicketResult struct {
	ID                 string   `json:"id"`
	Source             string   `json:"source"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Status             string   `json:"status"`
	Labels             []string `json:"labels,omitempty"`
	Priority           string   `json:"priority,omitempty"`
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty"`
	LinkedPRs          []string `json:"linked_prs,omitempty"`
	URL                string   `json:"url,omitempty"`
}

// SearchTicketsOutput defines the output schema for the search_tickets tool.
type SearchTicketsOutput struct {
	Results   []TicketResult `json:"results"`
	Truncated bool           `json:"truncated"`
	Warnings  []string       `json:"warnings,omitempty"`
	Error     *ToolError     `json:"error,omitempty"`
}

// GetTicketInput defines the input schema for the get_ticket tool.
type GetTicketInput struct {
	ID string `json:"id" jsonschema:"tracker-native ticket id, e.g. issue number"`
}

// GetTicketOutput defines the output schema for the get_ticket tool.
type GetTicketOutput struct {
	Ticket *TicketResult `json:"ticket,omitempty"`
	Error  *ToolError    `json:"error,omitempty"`
}

// EntitySpec describes one entity to create via create_entities.
type EntitySpec struct {
	Name         string   `json:"name" jsonschema:"qualified name of the new entity"`
	EntityType   string   `json:"entity_type" jsonschema:"one of the manual entity types, e.g. knowledge_insight, active_issue, idea"`
	Observations []string `json:"observations,omitempty" jsonschema:"initial observation strings"`
	Content      string   `json:"content,omitempty" jsonschema:"free-form body text for this entity"`
}

// CreateEntitiesInput defines the input schema for the create_entities tool.
type CreateEntitiesInput struct {
	Entities []EntitySpec `json:"entities" jsonschema:"entities to create"`
}

// CreateEntitiesOutput defines the output schema for the create_entities tool.
type CreateEntitiesOutput struct {
	Created []string   `json:"created"`
	Error   *ToolError `json:"error,omitempty"`
}

// ObservationSpec appends observations to an existing entity.
type ObservationSpec struct {
	EntityID     string   `json:"entity_id" jsonschema:"id of the entity to append to"`
	Observations []string `json:"observations" jsonschema:"observation strings to append"`
}

// AddObservationsInput defines the input schema for the add_observations tool.
type AddObservationsInput struct {
	Observations []ObservationSpec `json:"observations" jsonschema:"per-entity observations to add"`
}

// AddObservationsOutput defines the output schema for the add_observations tool.
type AddObservationsOutput struct {
	Updated []string   `json:"updated"`
	Error   *ToolError `json:"error,omitempty"`
}

// DeleteObservationsInput defines the input schema for the delete_observations tool.
type DeleteObservationsInput struct {
	Observations []ObservationSpec `json:"observations" jsonschema:"per-entity observations to remove (exact match)"`
}

// DeleteObservationsOutput defines the output schema for the delete_observations tool.
type DeleteObservationsOutput struct {
	Updated []string   `json:"updated"`
	Error   *ToolError `json:"error,omitempty"`
}

// RelationSpec describes one relation to create/delete.
type RelationSpec struct {
	FromID string  `json:"from_id" jsonschema:"source entity id"`
	ToID   string  `json:"to_id" jsonschema:"target entity id"`
	Kind   string  `json:"kind" jsonschema:"relation kind, e.g. references, documents, implements_requirement"`
	Weight float64 `json:"weight,omitempty" jsonschema:"edge weight, default 1.0"`
}

// CreateRelationsInput defines the input schema for the create_relations tool.
type CreateRelationsInput struct {
	Relations []RelationSpec `json:"relations" jsonschema:"relations to create"`
}

// CreateRelationsOutput defines the output schema for the create_relations tool.
type CreateRelationsOutput struct {
	Created int        `json:"created"`
	Error   *ToolError `json:"error,omitempty"`
}

// DeleteEntitiesInput defines the input schema for the delete_entities tool.
type DeleteEntitiesInput struct {
	IDs []string `json:"ids" jsonschema:"entity ids to delete"`
}

// DeleteEntitiesOutput defines the output schema for the delete_entities tool.
type DeleteEntitiesOutput struct {
	Deleted []string   `json:"deleted"`
	Error   *ToolError `json:"error,omitempty"`
}

// DeleteRelationsInput defines the input schema for the delete_relations tool.
type DeleteRelationsInput struct {
	Relations []RelationSpec `json:"relations" jsonschema:"relations to delete (matched by from_id/to_id/kind)"`
}

// DeleteRelationsOutput defines the output schema for the delete_relations tool.
type DeleteRelationsOutput struct {
	Deleted int        `json:"deleted"`
	Error   *ToolError `json:"error,omitempty"`
}

// SetPlanModeInput defines the input schema for the set_plan_mode tool.
type SetPlanModeInput struct {
	Enabled bool `json:"enabled" jsonschema:"true to block write tools, false to allow them"`
}

// SetPlanModeOutput defines the output schema for the set_plan_mode tool.
type SetPlanModeOutput struct {
	PlanModeActive bool `json:"planModeActive"`
	Previous       bool `json:"previous"`
}

// EmbeddingInfo contains information about the embedding configuration.
type EmbeddingInfo struct {
	// Config values
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Status   string `json:"status"`

	// Runtime state - allows AI clients to adjust search strategy
	ActualProvider   string `json:"actual_provider"`    // "hugot" or "static"
	ActualModel      string `json:"actual_model"`       // e.g., "embeddinggemma-300m" or "static"
	Dimensions       int    `json:"dimensions"`         // 768 (hugot) or 256 (static)
	IsFallbackActive bool   `json:"is_fallback_active"` // true if using static fallback
	SemanticQuality  string `json:"semantic_quality"`   // "high" (hugot) or "low" (static)
}
