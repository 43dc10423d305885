package main

import (
	"fmt"
	"os/exec"
	"strings"
)

// gitOutput runs a git subcommand and returns its stdout. Swapped in tests.
var gitOutput = func(args ...string) (string, error) {
	out, err := exec.Command("git", args...).Output()
	return string(out), err
}

// fileChanges summarizes the working tree since the last commit, for
// verbose progress reporting between iterations. Empty string when the
// tree is clean.
func fileChanges() (string, error) {
	out, err := gitOutput("status", "--porcelain")
	if err != nil {
		return "", fmt.Errorf("git status: %w", err)
	}
	return formatPorcelain(out), nil
}

// formatPorcelain turns porcelain status lines into a readable change
// listing grouped by kind.
func formatPorcelain(porcelain string) string {
	var modified, added, deleted, other []string
	for _, line := range strings.Split(porcelain, "\n") {
		if len(line) < 4 {
			continue
		}
		code := line[:2]
		path := strings.TrimSpace(line[3:])
		switch {
		case strings.Contains(code, "M"):
			modified = append(modified, path)
		case code == "??" || strings.Contains(code, "A"):
			added = append(added, path)
		case strings.Contains(code, "D"):
			deleted = append(deleted, path)
		default:
			other = append(other, path)
		}
	}

	var b strings.Builder
	writeGroup := func(label string, paths []string) {
		for _, p := range paths {
			fmt.Fprintf(&b, "  %s: %s\n", label, p)
		}
	}
	writeGroup("Modified", modified)
	writeGroup("New", added)
	writeGroup("Deleted", deleted)
	writeGroup("Other", other)
	if b.Len() == 0 {
		return ""
	}
	return "Changes:\n" + b.String()
}
