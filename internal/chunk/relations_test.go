package chunk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amanmcp/internal/store"
)

func TestRelationExtractor_Go_CallsWithinFile(t *testing.T) {
	source := `package main

import "fmt"

func helper() {
	fmt.Println("hi")
}

func main() {
	helper()
}
`
	chunker := NewCodeChunker()
	defer chunker.Close()

	_, relations, err := chunker.ChunkWithRelations(context.Background(), &FileInput{
		Path:     "main.go",
		Content:  []byte(source),
		Language: "go",
	})
	require.NoError(t, err)

	var found bool
	for _, r := range relations {
		if r.Kind == store.RelationCalls && r.FromID == "main.go#main" && r.ToID == "main.go#helper" {
			found = true
		}
	}
	assert.True(t, found, "expected a calls edge from main to helper, got %+v", relations)
}

func TestRelationExtractor_Go_Imports(t *testing.T) {
	source := `package main

import "fmt"

func main() {
	fmt.Println("hi")
}
`
	chunker := NewCodeChunker()
	defer chunker.Close()

	_, relations, err := chunker.ChunkWithRelations(context.Background(), &FileInput{
		Path:     "main.go",
		Content:  []byte(source),
		Language: "go",
	})
	require.NoError(t, err)

	var found bool
	for _, r := range relations {
		if r.Kind == store.RelationImports && r.ToID == "fmt" {
			found = true
		}
	}
	assert.True(t, found, "expected an imports edge to fmt, got %+v", relations)
}

func TestRelationExtractor_Go_StructEmbeddingInherits(t *testing.T) {
	source := `package main

type Base struct {
	Name string
}

type Derived struct {
	Base
	Extra string
}
`
	chunker := NewCodeChunker()
	defer chunker.Close()

	_, relations, err := chunker.ChunkWithRelations(context.Background(), &FileInput{
		Path:     "types.go",
		Content:  []byte(source),
		Language: "go",
	})
	require.NoError(t, err)

	var found bool
	for _, r := range relations {
		if r.Kind == store.RelationInherits && r.FromID == "types.go#Derived" && r.ToID == "types.go#Base" {
			found = true
		}
	}
	assert.True(t, found, "expected Derived to inherit from Base via embedding, got %+v", relations)
}

func TestRelationExtractor_UnsupportedLanguage_NoRelations(t *testing.T) {
	chunker := NewCodeChunker()
	defer chunker.Close()

	chunks, relations, err := chunker.ChunkWithRelations(context.Background(), &FileInput{
		Path:     "data.unknownlang",
		Content:  []byte("some content that has no grammar"),
		Language: "unknownlang",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, chunks, "fallback line chunking should still produce chunks")
	assert.Nil(t, relations, "unsupported languages have no parsed tree to extract relations from")
}
