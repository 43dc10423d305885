package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"sync"
)

// Permission modes controlling how much latitude the agent process gets.
const (
	permConservative   = "conservative"
	permPathRestricted = "path_restricted"
	permYolo           = "yolo"
)

// invokeRequest is one agent invocation. SessionToken is opaque: it is
// whatever the same agent returned from a previous invocation, or empty
// for a fresh session.
type invokeRequest struct {
	Prompt         string
	SessionToken   string
	PermissionMode string
	AllowPaths     []string
}

// invokeResult carries the raw output and the token to pass to the next
// invocation. Agents without session support return an empty token.
type invokeResult struct {
	Output       string
	ExitStatus   int
	SessionToken string
}

// agentInvoker runs one external coding agent.
type agentInvoker interface {
	Name() string
	Invoke(ctx context.Context, req invokeRequest) (invokeResult, error)
}

var (
	agentsMu sync.Mutex
	agents   = map[string]agentInvoker{}
)

func registerAgent(a agentInvoker) {
	agentsMu.Lock()
	defer agentsMu.Unlock()
	agents[a.Name()] = a
}

func lookupAgent(name string) (agentInvoker, error) {
	agentsMu.Lock()
	defer agentsMu.Unlock()
	if a, ok := agents[name]; ok {
		return a, nil
	}
	names := make([]string, 0, len(agents))
	for n := range agents {
		names = append(names, n)
	}
	sort.Strings(names)
	return nil, fmt.Errorf("unknown agent %q (available: %v)", name, names)
}

// execCommand builds the agent process. Tests swap it to avoid running
// real binaries.
var execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// maxCapturedOutput caps how much agent output is retained in memory.
const maxCapturedOutput = 4 << 20

// limitedBuffer keeps at most max bytes, discarding the oldest when the
// cap is exceeded. The tail of a long run matters more than the head.
type limitedBuffer struct {
	max  int
	data []byte
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	if len(b.data) > b.max {
		b.data = b.data[len(b.data)-b.max:]
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string { return string(b.data) }

// runAgentCommand executes argv, capturing combined output up to the cap
// and optionally echoing it to echo. A nonzero exit is reported via
// exitStatus, not error; error means the process could not run at all.
func runAgentCommand(ctx context.Context, argv []string, echo io.Writer) (output string, exitStatus int, err error) {
	buf := &limitedBuffer{max: maxCapturedOutput}
	var sink io.Writer = buf
	if echo != nil {
		sink = io.MultiWriter(buf, echo)
	}

	cmd := execCommand(ctx, argv[0], argv[1:]...)
	cmd.Stdout = sink
	cmd.Stderr = sink

	err = cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return buf.String(), exitErr.ExitCode(), nil
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", 0, fmt.Errorf("%s: command not found", argv[0])
		}
		return buf.String(), 0, fmt.Errorf("run %s: %w", argv[0], err)
	}
	return buf.String(), 0, nil
}
