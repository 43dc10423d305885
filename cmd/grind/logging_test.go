package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestIterationLogAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	log := &iterationLog{path: path}

	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	if err := log.Append(1, ts, "first output"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := log.Append(2, ts.Add(time.Minute), "second output"); err != nil {
		t.Fatalf("append: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "Iteration 1 - 2026-03-14 09:26:53") {
		t.Fatalf("header missing:\n%s", content)
	}
	if !strings.Contains(content, "first output") || !strings.Contains(content, "second output") {
		t.Fatalf("entries missing:\n%s", content)
	}
	if strings.Index(content, "first output") > strings.Index(content, "second output") {
		t.Fatal("entries out of order")
	}
	if got := strings.Count(content, strings.Repeat("=", 60)); got != 4 {
		t.Fatalf("separator count = %d, want 4", got)
	}
}
