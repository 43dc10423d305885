package main

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

func init() { registerAgent(&claudeAgent{newSessionID: uuid.NewString}) }

// claudeAgent drives the claude CLI in print mode. It is the only agent
// with real session continuity: a fresh invocation pins a generated
// session id, later ones resume it.
type claudeAgent struct {
	newSessionID func() string
	echo         io.Writer
}

func (a *claudeAgent) Name() string { return "claude" }

func (a *claudeAgent) Invoke(ctx context.Context, req invokeRequest) (invokeResult, error) {
	argv, token := claudeArgs(req, a.newSessionID)
	output, status, err := runAgentCommand(ctx, argv, a.echo)
	if err != nil {
		return invokeResult{}, err
	}
	return invokeResult{Output: output, ExitStatus: status, SessionToken: token}, nil
}

// claudeArgs builds the argv and the session token the invocation will be
// known by afterwards.
func claudeArgs(req invokeRequest, newSessionID func() string) ([]string, string) {
	argv := []string{"claude", "--print"}

	token := req.SessionToken
	if token == "" {
		token = newSessionID()
		argv = append(argv, "--session-id", token)
	} else {
		argv = append(argv, "--resume", token)
	}

	switch req.PermissionMode {
	case permYolo:
		argv = append(argv, "--dangerously-skip-permissions")
	case permPathRestricted:
		for _, p := range req.AllowPaths {
			argv = append(argv,
				"--allowedTools", fmt.Sprintf("Edit:%s*", p),
				"--allowedTools", fmt.Sprintf("Write:%s*", p),
			)
		}
	}

	argv = append(argv, "-p", req.Prompt)
	return argv, token
}
