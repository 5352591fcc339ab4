package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ManualMirror is a JSON fallback copy of hand-authored entities (the
// manualEntityTypes set: debugging/implementation/integration/configuration/
// architecture/performance patterns, knowledge insights, active issues,
// ideas). These are written by MCP write tools rather than the parser
// pipeline, so unlike parsed chunks they can't be regenerated by re-running
// the indexer - the mirror lets them survive a corrupted or deleted
// metadata.db and be reconciled back in on the next startup.
type ManualMirror struct {
	mu   sync.Mutex
	path string
}

// manualMirrorFile is the JSON mirror's filename, stored alongside metadata.db
// in the project's data directory.
const manualMirrorFile = "manual_entities.json"

// NewManualMirror creates a mirror rooted at dataDir/manual_entities.json.
func NewManualMirror(dataDir string) *ManualMirror {
	return &ManualMirror{path: filepath.Join(dataDir, manualMirrorFile)}
}

// manualMirrorDoc is the on-disk shape of the mirror file.
type manualMirrorDoc struct {
	Chunks map[string]*Chunk `json:"chunks"` // keyed by chunk ID
}

// Save writes the given manual chunks into the mirror, replacing any
// existing entries with the same ID and leaving the rest untouched.
func (m *ManualMirror) Save(chunks []*Chunk) error {
	var manual []*Chunk
	for _, c := range chunks {
		if c.IsManual() {
			manual = append(manual, c)
		}
	}
	if len(manual) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.load()
	if err != nil {
		return err
	}
	for _, c := range manual {
		doc.Chunks[c.ID] = c
	}
	return m.write(doc)
}

// Delete removes the given chunk IDs from the mirror, if present.
func (m *ManualMirror) Delete(chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.load()
	if err != nil {
		return err
	}
	var changed bool
	for _, id := range chunkIDs {
		if _, ok := doc.Chunks[id]; ok {
			delete(doc.Chunks, id)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return m.write(doc)
}

// All returns every manual chunk currently in the mirror.
func (m *ManualMirror) All() ([]*Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.load()
	if err != nil {
		return nil, err
	}
	chunks := make([]*Chunk, 0, len(doc.Chunks))
	for _, c := range doc.Chunks {
		chunks = append(chunks, c)
	}
	return chunks, nil
}

func (m *ManualMirror) load() (*manualMirrorDoc, error) {
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return &manualMirrorDoc{Chunks: make(map[string]*Chunk)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manual mirror: %w", err)
	}
	var doc manualMirrorDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse manual mirror: %w", err)
	}
	if doc.Chunks == nil {
		doc.Chunks = make(map[string]*Chunk)
	}
	return &doc, nil
}

func (m *ManualMirror) write(doc *manualMirrorDoc) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create manual mirror directory: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manual mirror: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write manual mirror: %w", err)
	}
	return os.Rename(tmp, m.path)
}

// ReconcileManualMirror re-inserts any manual chunks present in the JSON
// mirror but missing from the metadata store, and prunes mirror entries for
// chunks the store no longer carries. Called on startup so a corrupted or
// reset metadata.db doesn't silently drop hand-authored entities.
func ReconcileManualMirror(ctx context.Context, metadata MetadataStore, mirror *ManualMirror) error {
	mirrored, err := mirror.All()
	if err != nil {
		return fmt.Errorf("failed to load manual mirror: %w", err)
	}
	if len(mirrored) == 0 {
		return nil
	}

	ids := make([]string, len(mirrored))
	for i, c := range mirrored {
		ids[i] = c.ID
	}
	existing, err := metadata.GetChunks(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to check existing manual chunks: %w", err)
	}
	found := make(map[string]bool, len(existing))
	for _, c := range existing {
		found[c.ID] = true
	}

	var missing []*Chunk
	for _, c := range mirrored {
		if !found[c.ID] {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if err := metadata.SaveChunks(ctx, missing); err != nil {
		return fmt.Errorf("failed to restore manual chunks from mirror: %w", err)
	}
	slog.Info("restored manual entities from mirror", slog.Int("count", len(missing)))
	return nil
}
