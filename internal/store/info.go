package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FormatBytes formats a byte count in human-readable form (B/KB/MB/GB).
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatTime formats a timestamp for `amanmcp index info` output, or "unknown"
// for a zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format("2006-01-02 15:04:05")
}

// containsAny reports whether s contains any of the given substrings.
func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// inferBackendFromModel guesses which embedder backend produced a model name,
// for display in `amanmcp index info` when the backend wasn't recorded directly.
func inferBackendFromModel(model string) string {
	if model == "static" || strings.HasPrefix(model, "static") {
		return "static"
	}
	if filepath.IsAbs(model) || containsAny(model, []string{"mlx-community/", "mlx-", "/mlx/"}) {
		return "mlx"
	}
	return "ollama"
}

// getDirSize returns the total size in bytes of all files under path,
// recursing into subdirectories. Returns 0 if path doesn't exist.
func getDirSize(path string) int64 {
	var size int64
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}

// BuildIndexInfo assembles an IndexInfo summary from the current store and
// on-disk index artifacts, used by `amanmcp index info`.
func BuildIndexInfo(location, projectRoot string, project *Project, indexModel string, indexDimensions int, currentModel string, currentDimensions int) *IndexInfo {
	indexBackend := inferBackendFromModel(indexModel)
	currentBackend := inferBackendFromModel(currentModel)

	info := &IndexInfo{
		Location:          location,
		ProjectRoot:       projectRoot,
		IndexModel:        indexModel,
		IndexBackend:      indexBackend,
		IndexDimensions:    indexDimensions,
		CurrentModel:       currentModel,
		CurrentBackend:     currentBackend,
		CurrentDimensions:  currentDimensions,
		Compatible:         indexModel == currentModel && indexDimensions == currentDimensions,
		BM25SizeBytes:      getDirSize(filepath.Join(location, "bm25")),
		VectorSizeBytes:    getDirSize(filepath.Join(location, "vector")),
	}
	if project != nil {
		info.ChunkCount = project.ChunkCount
		info.DocumentCount = project.FileCount
		info.UpdatedAt = project.IndexedAt
	}
	info.IndexSizeBytes = info.BM25SizeBytes + info.VectorSizeBytes
	return info
}
