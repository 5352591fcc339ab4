// Package collection derives the human-readable collection identifier used
// to name a project's on-disk index directory.
package collection

import (
	"path/filepath"
	"regexp"
	"strings"
)

var invalidCollectionChars = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeName derives a collection identifier from a project folder name:
// lowercase ASCII plus hyphens, any non-matching character replaced with a
// hyphen, and runs of hyphens collapsed to one.
func SanitizeName(folderName string) string {
	lower := strings.ToLower(folderName)
	replaced := invalidCollectionChars.ReplaceAllString(lower, "-")
	trimmed := strings.Trim(replaced, "-")
	if trimmed == "" {
		return "project"
	}
	return trimmed
}

// NameForPath derives the collection identifier from a project root path,
// using its base directory name.
func NameForPath(projectRoot string) string {
	return SanitizeName(filepath.Base(filepath.Clean(projectRoot)))
}
