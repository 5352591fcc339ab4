package hooks

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// VCSSummarizer shells out to git to build the short repository summary
// SessionStart emits. The command runner is a field (not a direct exec.Command
// call) so tests can stub it out, matching the lifecycle package's Ollama
// manager convention.
type VCSSummarizer struct {
	execCommand func(name string, args ...string) *exec.Cmd
}

// NewVCSSummarizer returns a summarizer backed by the real git binary.
func NewVCSSummarizer() *VCSSummarizer {
	return &VCSSummarizer{execCommand: exec.Command}
}

// Summarize returns a short human-readable VCS status for rootPath: current
// branch, ahead/behind counts, and a dirty-file count. Any git failure
// (not a repo, git not installed) yields an empty string, never an error —
// SessionStart must not fail just because VCS info is unavailable.
func (v *VCSSummarizer) Summarize(rootPath string) string {
	branch, err := v.run(rootPath, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil || branch == "" {
		return ""
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("branch %s", branch))

	if status, err := v.run(rootPath, "status", "--porcelain"); err == nil {
		dirty := 0
		for _, line := range strings.Split(status, "\n") {
			if strings.TrimSpace(line) != "" {
				dirty++
			}
		}
		if dirty > 0 {
			parts = append(parts, fmt.Sprintf("%d uncommitted change(s)", dirty))
		}
	}

	if ahead, err := v.run(rootPath, "rev-list", "--count", "@{u}..HEAD"); err == nil && ahead != "" && ahead != "0" {
		parts = append(parts, fmt.Sprintf("%s commit(s) ahead of upstream", ahead))
	}

	return strings.Join(parts, ", ")
}

func (v *VCSSummarizer) run(rootPath string, args ...string) (string, error) {
	cmd := v.execCommand("git", args...)
	cmd.Dir = rootPath
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}

// MemoryFirstReminder is appended to SessionStart's additional context,
// nudging the model to search the index before re-deriving context from
// scratch.
const MemoryFirstReminder = "Before exploring the codebase manually, use search/search_code/read_graph — the index already has the answer for most questions."
