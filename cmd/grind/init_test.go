package main

import (
	"os"
	"strings"
	"testing"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestRenderLoopPromptTemplate(t *testing.T) {
	out, err := renderTemplate("LOOP-PROMPT.md", templateData{TasksFile: "WORK.md", Goal: "ship it"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "WORK.md") {
		t.Fatalf("tasks file not substituted:\n%s", out)
	}
	if !strings.Contains(out, "ship it") {
		t.Fatalf("goal not substituted:\n%s", out)
	}
	if !strings.Contains(out, completionSentinel) {
		t.Fatalf("prompt must tell the agent about the sentinel:\n%s", out)
	}
}

func TestRenderMetaPromptTemplate(t *testing.T) {
	out, err := renderTemplate("META-PROMPT.md", templateData{
		TasksFile:     "TASKS.md",
		ExistingTasks: "- [ ] already known\n",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "already known") {
		t.Fatalf("existing tasks not included:\n%s", out)
	}
	if !strings.Contains(out, "```markdown") {
		t.Fatalf("meta prompt must request a markdown fence:\n%s", out)
	}
}

func TestInferGoalFromReadme(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	if got := inferGoalFromReadme(); got != "" {
		t.Fatalf("got %q without a README", got)
	}

	writeFile(t, "README.md", "# My Project\n\nA tool that grinds through\ntask lists.\n\n## Install\n")
	got := inferGoalFromReadme()
	if got != "A tool that grinds through task lists." {
		t.Fatalf("goal = %q", got)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	wrote, err := writeDefaultConfig(false)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !wrote {
		t.Fatal("first write reported as skipped")
	}
	cfg, err := loadRunConfig(defaultConfigFile)
	if err != nil {
		t.Fatalf("load back: %v", err)
	}
	if cfg.Agent != "claude" || cfg.MaxIterations != 10 {
		t.Fatalf("round trip = %+v", cfg)
	}

	writeFile(t, defaultConfigFile, "loop:\n  agent: codex\n")
	wrote, err = writeDefaultConfig(false)
	if err != nil {
		t.Fatalf("second write: %v", err)
	}
	if wrote {
		t.Fatal("existing config reported as written")
	}
	cfg, _ = loadRunConfig(defaultConfigFile)
	if cfg.Agent != "codex" {
		t.Fatal("existing config was overwritten without --force")
	}
}
