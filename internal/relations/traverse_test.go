package relations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amanmcp/internal/store"
)

// fakeMetadataStore is a minimal in-memory MetadataStore stub, only
// implementing the methods Traverse actually calls.
type fakeMetadataStore struct {
	store.MetadataStore
	chunks    map[string]*store.Chunk
	relations []*store.Relation
}

func (f *fakeMetadataStore) GetChunk(_ context.Context, id string) (*store.Chunk, error) {
	return f.chunks[id], nil
}

func (f *fakeMetadataStore) GetRelationsFrom(_ context.Context, fromID string, kinds []store.RelationKind) ([]*store.Relation, error) {
	var out []*store.Relation
	for _, r := range f.relations {
		if r.FromID == fromID && matchesKind(r.Kind, kinds) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeMetadataStore) GetRelationsTo(_ context.Context, toID string, kinds []store.RelationKind) ([]*store.Relation, error) {
	var out []*store.Relation
	for _, r := range f.relations {
		if r.ToID == toID && matchesKind(r.Kind, kinds) {
			out = append(out, r)
		}
	}
	return out, nil
}

func matchesKind(k store.RelationKind, kinds []store.RelationKind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}

func newFixture() *fakeMetadataStore {
	return &fakeMetadataStore{
		chunks: map[string]*store.Chunk{
			"a": {ID: "a", QualifiedName: "a"},
			"b": {ID: "b", QualifiedName: "b"},
			"c": {ID: "c", QualifiedName: "c"},
		},
		relations: []*store.Relation{
			{FromID: "a", ToID: "b", Kind: store.RelationCalls},
			{FromID: "b", ToID: "c", Kind: store.RelationCalls},
			{FromID: "b", ToID: "a", Kind: store.RelationCalls}, // cycle back to root
		},
	}
}

func TestTraverse_FollowsOutboundEdges(t *testing.T) {
	fixture := newFixture()
	result, err := Traverse(context.Background(), fixture, "a", Options{MaxDepth: 3})
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, n := range result.Entities {
		ids[n.Chunk.ID] = true
	}
	assert.True(t, ids["a"])
	assert.True(t, ids["b"])
	assert.True(t, ids["c"])
}

func TestTraverse_TerminatesOnCycle(t *testing.T) {
	fixture := newFixture()
	result, err := Traverse(context.Background(), fixture, "a", Options{MaxDepth: 10})
	require.NoError(t, err)
	assert.Len(t, result.Entities, 3, "cycle back to a must not revisit it")
}

func TestTraverse_RespectsMaxDepth(t *testing.T) {
	fixture := newFixture()
	result, err := Traverse(context.Background(), fixture, "a", Options{MaxDepth: 1})
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, n := range result.Entities {
		ids[n.Chunk.ID] = true
	}
	assert.True(t, ids["a"])
	assert.True(t, ids["b"])
	assert.False(t, ids["c"], "c is two hops away, beyond MaxDepth 1")
}

func TestTraverse_EntitiesOnlyModeSkipsEdges(t *testing.T) {
	fixture := newFixture()
	result, err := Traverse(context.Background(), fixture, "a", Options{Mode: ModeEntities, MaxDepth: 3})
	require.NoError(t, err)
	assert.Empty(t, result.Edges)
	assert.NotEmpty(t, result.Entities)
}

func TestTraverse_RelationshipsOnlyModeSkipsEntities(t *testing.T) {
	fixture := newFixture()
	result, err := Traverse(context.Background(), fixture, "a", Options{Mode: ModeRelationships, MaxDepth: 3})
	require.NoError(t, err)
	assert.Empty(t, result.Entities)
	assert.NotEmpty(t, result.Edges)
}

func TestTraverse_KindFilter(t *testing.T) {
	fixture := newFixture()
	fixture.relations = append(fixture.relations, &store.Relation{FromID: "a", ToID: "z", Kind: store.RelationImports})
	fixture.chunks["z"] = &store.Chunk{ID: "z"}

	result, err := Traverse(context.Background(), fixture, "a", Options{Kinds: []store.RelationKind{store.RelationImports}, MaxDepth: 1})
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, n := range result.Entities {
		ids[n.Chunk.ID] = true
	}
	assert.True(t, ids["z"])
	assert.False(t, ids["b"], "calls edges excluded by kind filter")
}
