package hooks

import (
	"context"
	"fmt"
	"time"

	"github.com/Aman-CERP/amanmcp/internal/daemon"
)

// Handlers bundles the collaborators the four hook entry points share, so
// cmd/amanmcp-hook can construct one set and dispatch by HookType.
type Handlers struct {
	VCS      *VCSSummarizer
	FastRule *FastRuleRunner
	Daemon   *daemon.Client
}

// NewHandlers builds a Handlers with the default collaborators.
func NewHandlers() *Handlers {
	return &Handlers{
		VCS:      NewVCSSummarizer(),
		FastRule: NewFastRuleRunner(),
		Daemon:   daemon.NewClient(daemon.DefaultConfig()),
	}
}

// Dispatch runs ev through the handler matching its HookType and always
// returns a non-nil Output and an exit code, even on internal error — hooks
// fail open per spec.md §4.I.
func (h *Handlers) Dispatch(ctx context.Context, ev *Event) (out *Output, exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			out = &Output{}
			exitCode = ExitAllow
		}
	}()

	budget, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	switch ev.HookType {
	case "SessionStart":
		return h.SessionStart(budget, ev), ExitAllow
	case "UserPromptSubmit":
		return h.UserPromptSubmit(budget, ev), ExitAllow
	case "PreToolUse":
		return h.PreToolUse(budget, ev)
	case "PostToolUse":
		return h.PostToolUse(budget, ev), ExitAllow
	default:
		return &Output{}, ExitAllow
	}
}

// SessionStart emits a VCS summary plus the memory-first reminder as
// additional context. Never blocks: a failed git lookup just yields an
// empty summary.
func (h *Handlers) SessionStart(_ context.Context, ev *Event) *Output {
	summary := h.VCS.Summarize(ev.RootPath)

	ctxLines := MemoryFirstReminder
	if summary != "" {
		ctxLines = summary + "\n" + ctxLines
	}
	return &Output{AdditionalContext: ctxLines}
}

// UserPromptSubmit detects planning intent in the prompt and, when detected,
// prepends planning guidelines to the model's context.
func (h *Handlers) UserPromptSubmit(_ context.Context, ev *Event) *Output {
	result := DetectPlanningIntent(ev.Prompt)
	if !result.Detected {
		return &Output{}
	}
	return &Output{
		AdditionalContext: PlanningGuidelines,
		Reason:            result.Reason,
	}
}

// PreToolUse runs the fast rule catalog against a proposed edit and maps the
// worst finding to an allow/warn/block decision. Any internal failure
// (timeout, engine error) fails open to allow.
func (h *Handlers) PreToolUse(ctx context.Context, ev *Event) (*Output, int) {
	findings, err := h.FastRule.Check(ctx, ev.FilePath, ev.Content)
	if err != nil {
		return &Output{}, ExitAllow
	}

	code := Decision(findings)
	if len(findings) == 0 {
		return &Output{Decision: "allow"}, code
	}

	warnings := make([]string, 0, len(findings))
	for _, f := range findings {
		warnings = append(warnings, fmt.Sprintf("[%s] %s", f.Severity, f.Summary))
	}

	decision := "warn"
	if code == ExitBlock {
		decision = "block"
	}
	return &Output{Decision: decision, Reason: findings[0].Summary, Warnings: warnings}, code
}

// PostToolUse enqueues a single-file re-index via the daemon after a write
// tool completes. The daemon may be unreachable (not running, AutoStart
// disabled); that's reported as a warning, never a failure.
func (h *Handlers) PostToolUse(ctx context.Context, ev *Event) *Output {
	if ev.FilePath == "" || ev.RootPath == "" {
		return &Output{}
	}

	_, err := h.Daemon.Reindex(ctx, daemon.ReindexParams{
		RootPath: ev.RootPath,
		FilePath: ev.FilePath,
	})
	if err != nil {
		return &Output{Warnings: []string{"reindex not enqueued: " + err.Error()}}
	}
	return &Output{}
}
