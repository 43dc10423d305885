package main

import (
	"reflect"
	"testing"
)

func TestParsePrefersMarkdownFence(t *testing.T) {
	// A text fence appears first but the markdown fence must win.
	input := "```text\n- [ ] decoy task\n```\n\n```markdown\n## Tasks\n\n- [ ] real task\n```\n"
	result := parseAgentOutput(input)
	if !result.OK {
		t.Fatalf("parse failed: %s", result.Reason)
	}
	if result.Strategy != strategyFencedMarkdown {
		t.Fatalf("strategy = %s, want %s", result.Strategy, strategyFencedMarkdown)
	}
	if len(result.Items) != 1 || result.Items[0].Text != "real task" {
		t.Fatalf("items = %+v", result.Items)
	}
}

func TestParseMarkdownFenceCaseInsensitive(t *testing.T) {
	input := "```Markdown\n- [ ] task\n```\n"
	result := parseAgentOutput(input)
	if !result.OK || result.Strategy != strategyFencedMarkdown {
		t.Fatalf("result = %+v", result)
	}
}

func TestParseFallsBackToAnyFence(t *testing.T) {
	for _, label := range []string{"", "text", "md"} {
		input := "```" + label + "\n- [ ] fenced task\n```\n"
		result := parseAgentOutput(input)
		if !result.OK {
			t.Fatalf("label %q: parse failed: %s", label, result.Reason)
		}
		if result.Strategy != strategyFencedAny {
			t.Fatalf("label %q: strategy = %s, want %s", label, result.Strategy, strategyFencedAny)
		}
	}
}

func TestParseUnfenced(t *testing.T) {
	input := "Here is my plan for the work ahead.\n\n## Tasks\n\n- [ ] first\n- [x] second\n"
	result := parseAgentOutput(input)
	if !result.OK {
		t.Fatalf("parse failed: %s", result.Reason)
	}
	if result.Strategy != strategyUnfenced {
		t.Fatalf("strategy = %s, want %s", result.Strategy, strategyUnfenced)
	}
	want := []TaskItem{
		{Text: "first", Status: TaskPending},
		{Text: "second", Status: TaskDone},
	}
	if !reflect.DeepEqual(result.Items, want) {
		t.Fatalf("items = %+v, want %+v", result.Items, want)
	}
}

func TestParseHeadingLevels(t *testing.T) {
	for _, heading := range []string{"# Tasks", "## Tasks", "### tasks", "###### TASKS"} {
		input := heading + "\n- [ ] item\n\n## Notes\n- [ ] out of scope\n"
		result := parseAgentOutput(input)
		if !result.OK {
			t.Fatalf("heading %q: parse failed: %s", heading, result.Reason)
		}
		if len(result.Items) != 1 || result.Items[0].Text != "item" {
			t.Fatalf("heading %q: items = %+v", heading, result.Items)
		}
	}
}

func TestParseSectionScoping(t *testing.T) {
	input := "## Goal\nShip the widget\n\n## Tasks\n- [ ] inside\n\n## Constraints\nsecurity_mode: yolo\n- [ ] outside\n"
	result := parseAgentOutput(input)
	if !result.OK {
		t.Fatalf("parse failed: %s", result.Reason)
	}
	if len(result.Items) != 1 || result.Items[0].Text != "inside" {
		t.Fatalf("items = %+v, want only the entry under Tasks", result.Items)
	}
	if result.Goal != "Ship the widget" {
		t.Fatalf("goal = %q", result.Goal)
	}
	if result.Constraints.SecurityMode != "yolo" {
		t.Fatalf("constraints = %+v", result.Constraints)
	}
}

func TestParseEntryStylePrecedence(t *testing.T) {
	// Checkbox entries claim the scope; plain bullets are not merged in.
	input := "## Tasks\n- [ ] checked style\n- plain bullet\n1. numbered\n"
	result := parseAgentOutput(input)
	if !result.OK {
		t.Fatalf("parse failed: %s", result.Reason)
	}
	if len(result.Items) != 1 || result.Items[0].Text != "checked style" {
		t.Fatalf("items = %+v, want only the checkbox entry", result.Items)
	}
}

func TestParseBulletAndNumberedStyles(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"bullets", "## Tasks\n- alpha\n* beta\n", []string{"alpha", "beta"}},
		{"numbered", "## Tasks\n1. one\n2) two\n", []string{"one", "two"}},
	}
	for _, tt := range tests {
		result := parseAgentOutput(tt.input)
		if !result.OK {
			t.Fatalf("%s: parse failed: %s", tt.name, result.Reason)
		}
		if len(result.Items) != len(tt.want) {
			t.Fatalf("%s: items = %+v", tt.name, result.Items)
		}
		for i, text := range tt.want {
			if result.Items[i].Text != text {
				t.Errorf("%s: item %d = %q, want %q", tt.name, i, result.Items[i].Text, text)
			}
			if result.Items[i].Status != TaskPending {
				t.Errorf("%s: item %d status = %s", tt.name, i, result.Items[i].Status)
			}
		}
	}
}

func TestParseIndentedEntriesIgnored(t *testing.T) {
	input := "## Tasks\n- [ ] top level\n  - [ ] nested\n\t- [ ] tab nested\n"
	result := parseAgentOutput(input)
	if !result.OK {
		t.Fatalf("parse failed: %s", result.Reason)
	}
	if len(result.Items) != 1 || result.Items[0].Text != "top level" {
		t.Fatalf("items = %+v, want only the top-level entry", result.Items)
	}
}

func TestParseMalformedEntriesSkipped(t *testing.T) {
	input := "## Tasks\n- [ ] good\n- [ ]\n- [] missing space\n- [ ] also good\n"
	result := parseAgentOutput(input)
	if !result.OK {
		t.Fatalf("parse failed: %s", result.Reason)
	}
	if len(result.Items) != 2 {
		t.Fatalf("items = %+v, want the two well-formed entries", result.Items)
	}
}

func TestParseEmptyTasksSectionSucceeds(t *testing.T) {
	input := "## Tasks\n\nAll items are finished.\n"
	result := parseAgentOutput(input)
	if !result.OK {
		t.Fatalf("parse failed: %s", result.Reason)
	}
	if len(result.Items) != 0 {
		t.Fatalf("items = %+v, want none", result.Items)
	}
}

func TestParseProseFails(t *testing.T) {
	result := parseAgentOutput("I thought about the problem and decided to rest instead.\n")
	if result.OK {
		t.Fatalf("expected failure, got %+v", result)
	}
	wantTried := []string{strategyFencedMarkdown, strategyFencedAny, strategyUnfenced}
	if !reflect.DeepEqual(result.StrategiesTried, wantTried) {
		t.Fatalf("strategies tried = %v, want %v", result.StrategiesTried, wantTried)
	}
	if result.Reason == "" {
		t.Fatal("failure result must carry a reason")
	}
}

func TestParseEmptyInputFails(t *testing.T) {
	if result := parseAgentOutput(""); result.OK {
		t.Fatalf("expected failure, got %+v", result)
	}
}

func TestParseFencedCandidateWithoutEntriesFails(t *testing.T) {
	// The candidate is chosen by the fence, not by what is inside it.
	input := "```\njust prose in a fence\n```\n\n## Tasks\n- [ ] never reached\n"
	result := parseAgentOutput(input)
	if result.OK {
		t.Fatalf("expected failure, got %+v", result)
	}
}

func TestParseConstraints(t *testing.T) {
	input := "## Tasks\n- [ ] t\n\n## Constraints\nsecurity_mode: path_restricted\nallow_paths: src/\ninternet_access: yes\nunknown_key: ignored\n"
	result := parseAgentOutput(input)
	if !result.OK {
		t.Fatalf("parse failed: %s", result.Reason)
	}
	c := result.Constraints
	if c.SecurityMode != "path_restricted" || c.AllowPaths != "src/" {
		t.Fatalf("constraints = %+v", c)
	}
	if c.InternetAccess == nil || !*c.InternetAccess {
		t.Fatalf("internet access = %v, want true", c.InternetAccess)
	}
}

func TestParseDeterministic(t *testing.T) {
	input := "```markdown\n## Tasks\n- [ ] a\n- [x] b\n```\n"
	first := parseAgentOutput(input)
	for i := 0; i < 5; i++ {
		if got := parseAgentOutput(input); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differed: %+v vs %+v", i, got, first)
		}
	}
}
