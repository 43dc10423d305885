package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"reflect"
	"strings"
	"testing"
)

func TestClaudeArgsFreshSession(t *testing.T) {
	req := invokeRequest{Prompt: "do it", PermissionMode: permYolo}
	argv, token := claudeArgs(req, func() string { return "fixed-id" })
	want := []string{"claude", "--print", "--session-id", "fixed-id", "--dangerously-skip-permissions", "-p", "do it"}
	if !reflect.DeepEqual(argv, want) {
		t.Fatalf("argv = %v, want %v", argv, want)
	}
	if token != "fixed-id" {
		t.Fatalf("token = %q", token)
	}
}

func TestClaudeArgsResume(t *testing.T) {
	req := invokeRequest{Prompt: "continue", SessionToken: "tok-1", PermissionMode: permConservative}
	argv, token := claudeArgs(req, func() string { t.Fatal("must not mint a new id"); return "" })
	want := []string{"claude", "--print", "--resume", "tok-1", "-p", "continue"}
	if !reflect.DeepEqual(argv, want) {
		t.Fatalf("argv = %v, want %v", argv, want)
	}
	if token != "tok-1" {
		t.Fatalf("token = %q, token must pass through unchanged", token)
	}
}

func TestClaudeArgsPathRestricted(t *testing.T) {
	req := invokeRequest{
		Prompt:         "p",
		PermissionMode: permPathRestricted,
		AllowPaths:     []string{"src/", "docs/"},
	}
	argv, _ := claudeArgs(req, func() string { return "id" })
	joined := strings.Join(argv, " ")
	for _, want := range []string{"--allowedTools Edit:src/*", "--allowedTools Write:src/*", "--allowedTools Edit:docs/*", "--allowedTools Write:docs/*"} {
		if !strings.Contains(joined, want) {
			t.Errorf("argv missing %q: %v", want, argv)
		}
	}
	if strings.Contains(joined, "--dangerously-skip-permissions") {
		t.Errorf("path restriction must not skip permissions: %v", argv)
	}
}

func TestCodexArgs(t *testing.T) {
	tests := []struct {
		name string
		req  invokeRequest
		want []string
	}{
		{
			"yolo",
			invokeRequest{Prompt: "p", PermissionMode: permYolo},
			[]string{"codex", "--json", "--yolo", "p"},
		},
		{
			"paths",
			invokeRequest{Prompt: "p", PermissionMode: permPathRestricted, AllowPaths: []string{"a", "b"}},
			[]string{"codex", "--json", "--add-dir", "a", "--add-dir", "b", "p"},
		},
		{
			"conservative",
			invokeRequest{Prompt: "p", PermissionMode: permConservative},
			[]string{"codex", "--json", "p"},
		},
	}
	for _, tt := range tests {
		if got := codexArgs(tt.req); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: argv = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestGeminiArgs(t *testing.T) {
	req := invokeRequest{Prompt: "p", PermissionMode: permPathRestricted, AllowPaths: []string{"x", "y"}}
	want := []string{"gemini", "-p", "p", "--include-directories", "x,y"}
	if got := geminiArgs(req); !reflect.DeepEqual(got, want) {
		t.Fatalf("argv = %v, want %v", got, want)
	}
	yolo := invokeRequest{Prompt: "p", PermissionMode: permYolo}
	if got := geminiArgs(yolo); !reflect.DeepEqual(got, []string{"gemini", "-p", "p", "--yolo"}) {
		t.Fatalf("argv = %v", got)
	}
}

func TestLimitedBufferKeepsTail(t *testing.T) {
	buf := &limitedBuffer{max: 8}
	buf.Write([]byte("abcdefgh"))
	buf.Write([]byte("ij"))
	if got := buf.String(); got != "cdefghij" {
		t.Fatalf("buffer = %q, want the most recent bytes", got)
	}
}

func TestLookupAgent(t *testing.T) {
	for _, name := range []string{"claude", "codex", "gemini"} {
		if _, err := lookupAgent(name); err != nil {
			t.Errorf("lookup %s: %v", name, err)
		}
	}
	if _, err := lookupAgent("nonexistent"); err == nil {
		t.Error("expected an error for an unknown agent")
	}
}

func TestRunAgentCommand(t *testing.T) {
	saved := execCommand
	defer func() { execCommand = saved }()
	execCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := []string{"-test.run=TestAgentHelperProcess", "--", name}
		cs = append(cs, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1")
		return cmd
	}

	output, status, err := runAgentCommand(context.Background(), []string{"echo-agent", "hello"}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if status != 0 {
		t.Fatalf("status = %d", status)
	}
	if !strings.Contains(output, "hello") {
		t.Fatalf("output = %q", output)
	}

	_, status, err = runAgentCommand(context.Background(), []string{"fail-agent"}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if status != 3 {
		t.Fatalf("status = %d, want the process exit code", status)
	}
}

func TestAgentHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}
	switch args[0] {
	case "echo-agent":
		fmt.Println(strings.Join(args[1:], " "))
		os.Exit(0)
	case "fail-agent":
		fmt.Fprintln(os.Stderr, "agent blew up")
		os.Exit(3)
	}
	os.Exit(2)
}
