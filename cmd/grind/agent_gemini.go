package main

import (
	"context"
	"io"
	"strings"
)

func init() { registerAgent(&geminiAgent{}) }

// geminiAgent drives the gemini CLI. No session support.
type geminiAgent struct {
	echo io.Writer
}

func (a *geminiAgent) Name() string { return "gemini" }

func (a *geminiAgent) Invoke(ctx context.Context, req invokeRequest) (invokeResult, error) {
	output, status, err := runAgentCommand(ctx, geminiArgs(req), a.echo)
	if err != nil {
		return invokeResult{}, err
	}
	return invokeResult{Output: output, ExitStatus: status}, nil
}

func geminiArgs(req invokeRequest) []string {
	argv := []string{"gemini", "-p", req.Prompt}
	switch req.PermissionMode {
	case permYolo:
		argv = append(argv, "--yolo")
	case permPathRestricted:
		if len(req.AllowPaths) > 0 {
			argv = append(argv, "--include-directories", strings.Join(req.AllowPaths, ","))
		}
	}
	return argv
}
