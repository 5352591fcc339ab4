// Package main provides the amanmcp-hook command, a short-lived process
// invoked by an editor/agent integration at SessionStart, UserPromptSubmit,
// PreToolUse, and PostToolUse. It reads one JSON Event from stdin, runs the
// matching handler, and writes one JSON Output to stdout with an exit code
// of 0 (allow), 1 (warn), or 2 (block). Every handler fails open: an
// internal error still exits 0.
//
// Usage:
//
//	amanmcp-hook
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/amanmcp/internal/hooks"
	"github.com/Aman-CERP/amanmcp/pkg/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return hooks.ExitAllow
	}
	return exitCode
}

// exitCode is set by runHook and read back by run after cmd.Execute
// returns, since cobra's RunE only reports error, not an int.
var exitCode = hooks.ExitAllow

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "amanmcp-hook",
		Short:   "Run a hook handler against a JSON event on stdin",
		Version: version.Version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHook(cmd.Context(), os.Stdin, os.Stdout)
		},
	}
	return cmd
}

func runHook(ctx context.Context, stdin *os.File, stdout *os.File) error {
	ev, err := hooks.DecodeEvent(stdin)
	if err != nil {
		exitCode = hooks.ExitAllow
		return fmt.Errorf("decoding hook event: %w", err)
	}

	h := hooks.NewHandlers()
	out, code := h.Dispatch(ctx, ev)
	exitCode = code

	return out.Encode(stdout)
}
