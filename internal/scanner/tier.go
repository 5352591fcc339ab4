package scanner

import "strings"

// Tier classifies how much indexing depth a file earns: generated/minified
// output gets the cheapest treatment, files under sensitive path markers
// (routes, handlers, auth, ...) get the most thorough one.
type Tier string

const (
	TierLight    Tier = "light"
	TierStandard Tier = "standard"
	TierDeep     Tier = "deep"
)

// DefaultDeepPathMarkers are path segments that, when present, promote a
// file to TierDeep regardless of language.
var DefaultDeepPathMarkers = []string{
	"routes/", "handlers/", "store/", "auth/", "middleware/",
}

// minifiedSuffixes mark build output that should stay at TierLight even
// though it wasn't caught by the generated-file heuristic.
var minifiedSuffixes = []string{".min.js", ".min.css", ".d.ts", ".bundle.js"}

// ClassifyTier assigns a Tier to relPath. isGenerated comes from the
// scanner's existing generated-file heuristic; markers overrides
// DefaultDeepPathMarkers when non-empty (wired from config).
func ClassifyTier(relPath string, isGenerated bool, markers []string) Tier {
	if isGenerated || isMinified(relPath) {
		return TierLight
	}

	if len(markers) == 0 {
		markers = DefaultDeepPathMarkers
	}
	normalized := strings.ReplaceAll(relPath, "\\", "/")
	for _, marker := range markers {
		if strings.Contains(normalized, marker) {
			return TierDeep
		}
	}

	return TierStandard
}

func isMinified(relPath string) bool {
	lower := strings.ToLower(relPath)
	for _, suffix := range minifiedSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
