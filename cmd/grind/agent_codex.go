package main

import (
	"context"
	"io"
)

func init() { registerAgent(&codexAgent{}) }

// codexAgent drives the codex CLI. Codex has no resumable sessions, so
// the returned token is always empty.
type codexAgent struct {
	echo io.Writer
}

func (a *codexAgent) Name() string { return "codex" }

func (a *codexAgent) Invoke(ctx context.Context, req invokeRequest) (invokeResult, error) {
	output, status, err := runAgentCommand(ctx, codexArgs(req), a.echo)
	if err != nil {
		return invokeResult{}, err
	}
	return invokeResult{Output: output, ExitStatus: status}, nil
}

func codexArgs(req invokeRequest) []string {
	argv := []string{"codex", "--json"}
	switch req.PermissionMode {
	case permYolo:
		argv = append(argv, "--yolo")
	case permPathRestricted:
		for _, p := range req.AllowPaths {
			argv = append(argv, "--add-dir", p)
		}
	}
	return append(argv, req.Prompt)
}
