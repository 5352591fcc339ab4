package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amanmcp/internal/search"
	"github.com/Aman-CERP/amanmcp/internal/store"
	"github.com/Aman-CERP/amanmcp/internal/tickets"
)

// fakeTracker is a minimal tickets.Tracker stub for MCP handler tests.
type fakeTracker struct {
	searchFn func(ctx context.Context, query string, limit int) ([]*tickets.Ticket, error)
	getFn    func(ctx context.Context, id string) (*tickets.Ticket, error)
}

func (f *fakeTracker) Search(ctx context.Context, query string, limit int) ([]*tickets.Ticket, error) {
	return f.searchFn(ctx, query, limit)
}

func (f *fakeTracker) Get(ctx context.Context, id string) (*tickets.Ticket, error) {
	return f.getFn(ctx, id)
}

func TestSearchSimilar_RequiresQuery(t *testing.T) {
	srv := newTestServer(t)
	_, err := srv.searchSimilar(context.Background(), SearchSimilarInput{})
	require.Error(t, err)
}

func TestSearchSimilar_InvalidMode(t *testing.T) {
	srv := newTestServer(t)
	_, err := srv.searchSimilar(context.Background(), SearchSimilarInput{Query: "x", Mode: "bogus"})
	require.Error(t, err)
}

func TestSearchSimilar_SemanticModeSetsVectorOnly(t *testing.T) {
	var gotOpts search.SearchOptions
	engine := &MockSearchEngine{SearchFn: func(_ context.Context, _ string, opts search.SearchOptions) ([]*search.SearchResult, error) {
		gotOpts = opts
		return nil, nil
	}}
	srv, err := NewServer(engine, &MockMetadataStore{}, &MockEmbedder{}, nil, "")
	require.NoError(t, err)

	_, err = srv.searchSimilar(context.Background(), SearchSimilarInput{Query: "x", Mode: "semantic"})
	require.NoError(t, err)
	assert.True(t, gotOpts.VectorOnly)
}

func TestSearchSimilar_FiltersByEntityType(t *testing.T) {
	chunkA := &store.Chunk{ID: "a", EntityType: "function", Content: "foo"}
	chunkB := &store.Chunk{ID: "b", EntityType: "class", Content: "bar"}
	engine := &MockSearchEngine{SearchFn: func(_ context.Context, _ string, _ search.SearchOptions) ([]*search.SearchResult, error) {
		return []*search.SearchResult{{Chunk: chunkA, Score: 1}, {Chunk: chunkB, Score: 0.5}}, nil
	}}
	srv, err := NewServer(engine, &MockMetadataStore{}, &MockEmbedder{}, nil, "")
	require.NoError(t, err)

	out, err := srv.searchSimilar(context.Background(), SearchSimilarInput{Query: "x", EntityTypes: []string{"function"}})
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "a", out.Results[0].ID)
}

func TestGetImplementation_RequiresName(t *testing.T) {
	srv := newTestServer(t)
	_, err := srv.getImplementation(context.Background(), GetImplementationInput{})
	require.Error(t, err)
}

func TestGetImplementation_InvalidScope(t *testing.T) {
	srv := newTestServer(t)
	_, err := srv.getImplementation(context.Background(), GetImplementationInput{Name: "Foo", Scope: "bogus"})
	require.Error(t, err)
}

func TestGetImplementation_UnknownName_ReturnsEmpty(t *testing.T) {
	srv := newTestServer(t)
	out, err := srv.getImplementation(context.Background(), GetImplementationInput{Name: "Nope"})
	require.NoError(t, err)
	assert.Empty(t, out.Results)
}

func TestGetImplementation_MinimalScope_ReturnsRootOnly(t *testing.T) {
	root := &store.Chunk{ID: "root", FilePath: "a.go", QualifiedName: "Root", EntityType: "function"}
	engine := &MockSearchEngine{SearchFn: func(_ context.Context, _ string, _ search.SearchOptions) ([]*search.SearchResult, error) {
		return []*search.SearchResult{{Chunk: root, Score: 1}}, nil
	}}
	metadata := &MockMetadataStore{Chunks: []*store.Chunk{root}}
	srv, err := NewServer(engine, metadata, &MockEmbedder{}, nil, "")
	require.NoError(t, err)

	out, err := srv.getImplementation(context.Background(), GetImplementationInput{Name: "Root"})
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "root", out.Results[0].ID)
}

func TestGetDoc_RequiresDocID(t *testing.T) {
	srv := newTestServer(t)
	_, err := srv.getDoc(context.Background(), GetDocInput{})
	require.Error(t, err)
}

func TestGetDoc_UnknownID_ReturnsEmpty(t *testing.T) {
	srv := newTestServer(t)
	out, err := srv.getDoc(context.Background(), GetDocInput{DocID: "missing"})
	require.NoError(t, err)
	assert.Empty(t, out.Results)
}

func TestGetDoc_NoSection_ReturnsWholeChunk(t *testing.T) {
	doc := &store.Chunk{ID: "doc1", FileID: "f1", FilePath: "README.md", Content: "hello"}
	metadata := &MockMetadataStore{Chunks: []*store.Chunk{doc}}
	srv, err := NewServer(&MockSearchEngine{}, metadata, &MockEmbedder{}, nil, "")
	require.NoError(t, err)

	out, err := srv.getDoc(context.Background(), GetDocInput{DocID: "doc1"})
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "doc1", out.Results[0].ID)
}

func TestGetDoc_SectionFilter(t *testing.T) {
	doc := &store.Chunk{ID: "doc1", FileID: "f1", FilePath: "README.md"}
	secA := &store.Chunk{ID: "sec-a", FileID: "f1", Metadata: map[string]string{"section_title": "Install"}}
	secB := &store.Chunk{ID: "sec-b", FileID: "f1", Metadata: map[string]string{"section_title": "Usage"}}
	metadata := &MockMetadataStore{Chunks: []*store.Chunk{doc, secA, secB}}
	srv, err := NewServer(&MockSearchEngine{}, metadata, &MockEmbedder{}, nil, "")
	require.NoError(t, err)

	out, err := srv.getDoc(context.Background(), GetDocInput{DocID: "doc1", Section: "install"})
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "sec-a", out.Results[0].ID)
}

func TestSearchTickets_UnconfiguredTracker(t *testing.T) {
	srv := newTestServer(t)
	out, err := srv.searchTickets(context.Background(), SearchTicketsInput{Query: "bug"})
	require.NoError(t, err)
	require.NotNil(t, out.Error)
	assert.Equal(t, "TICKET_TRACKER_UNCONFIGURED", out.Error.Code)
}

func TestSearchTickets_FiltersByStatusAndLabel(t *testing.T) {
	srv := newTestServer(t)
	srv.SetTicketTracker(&fakeTracker{
		searchFn: func(_ context.Context, _ string, _ int) ([]*tickets.Ticket, error) {
			return []*tickets.Ticket{
				{ID: "1", Title: "A", State: "open", Labels: []string{"bug"}},
				{ID: "2", Title: "B", State: "closed", Labels: []string{"bug"}},
				{ID: "3", Title: "C", State: "open", Labels: []string{"feature"}},
			}, nil
		},
	})

	out, err := srv.searchTickets(context.Background(), SearchTicketsInput{Query: "x", Status: "open", Labels: []string{"bug"}})
	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "1", out.Results[0].ID)
}

func TestGetTicket_UnconfiguredTracker(t *testing.T) {
	srv := newTestServer(t)
	out, err := srv.getTicket(context.Background(), GetTicketInput{ID: "1"})
	require.NoError(t, err)
	require.NotNil(t, out.Error)
	assert.Equal(t, "TICKET_TRACKER_UNCONFIGURED", out.Error.Code)
}

func TestGetTicket_Found(t *testing.T) {
	srv := newTestServer(t)
	srv.SetTicketTracker(&fakeTracker{
		getFn: func(_ context.Context, id string) (*tickets.Ticket, error) {
			return &tickets.Ticket{ID: id, Title: "Found it", State: "open"}, nil
		},
	})

	out, err := srv.getTicket(context.Background(), GetTicketInput{ID: "42"})
	require.NoError(t, err)
	require.NotNil(t, out.Ticket)
	assert.Equal(t, "42", out.Ticket.ID)
	assert.Equal(t, "github", out.Ticket.Source)
}

func TestCreateEntities_RequiresEntities(t *testing.T) {
	srv := newTestServer(t)
	_, err := srv.createEntities(context.Background(), CreateEntitiesInput{})
	require.Error(t, err)
}

func TestCreateEntities_CreatesManualChunk(t *testing.T) {
	srv := newTestServer(t)
	out, err := srv.createEntities(context.Background(), CreateEntitiesInput{
		Entities: []EntitySpec{{Name: "insight-1", EntityType: "knowledge_insight", Content: "noted"}},
	})
	require.NoError(t, err)
	require.Len(t, out.Created, 1)
}

func TestCreateEntities_BlockedByPlanMode(t *testing.T) {
	defer SetPlanMode(false)
	SetPlanMode(true)
	srv := newTestServer(t)

	out, err := srv.createEntities(context.Background(), CreateEntitiesInput{
		Entities: []EntitySpec{{Name: "x", EntityType: "idea"}},
	})
	require.NoError(t, err)
	require.NotNil(t, out.Error)
	assert.Equal(t, "PLAN_MODE_ACCESS_DENIED", out.Error.Code)
}

func TestDeleteRelations_BlockedByPlanMode(t *testing.T) {
	defer SetPlanMode(false)
	SetPlanMode(true)
	srv := newTestServer(t)

	out, err := srv.deleteRelations(context.Background(), DeleteRelationsInput{
		Relations: []RelationSpec{{FromID: "a", ToID: "b", Kind: "calls"}},
	})
	require.NoError(t, err)
	require.NotNil(t, out.Error)
	assert.Equal(t, "PLAN_MODE_ACCESS_DENIED", out.Error.Code)
}

func TestDeleteRelations_DeletesMatchingEdge(t *testing.T) {
	rel := &store.Relation{ID: "a:b:calls", FromID: "a", ToID: "b", Kind: store.RelationCalls}
	base := &MockMetadataStore{}
	metadata := &graphTestStore{MockMetadataStore: base, relations: []*store.Relation{rel}}
	srv, err := NewServer(&MockSearchEngine{}, metadata, &MockEmbedder{}, nil, "")
	require.NoError(t, err)

	out, err := srv.deleteRelations(context.Background(), DeleteRelationsInput{
		Relations: []RelationSpec{{FromID: "a", ToID: "b", Kind: "calls"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Deleted)
}

func TestSetPlanMode_ReturnsNewAndPreviousState(t *testing.T) {
	defer SetPlanMode(false)
	SetPlanMode(false)
	srv := newTestServer(t)

	out := srv.setPlanMode(SetPlanModeInput{Enabled: true})
	assert.True(t, out.PlanModeActive)
	assert.False(t, out.Previous)
}
