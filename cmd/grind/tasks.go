package main

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	uncheckedItem = regexp.MustCompile(`(?m)^\s*[-*]\s+\[ \]`)
	taskFileLine  = regexp.MustCompile(`^\s*[-*]\s+\[([ xX])\]\s+(.+)$`)
	todoHeading   = regexp.MustCompile(`(?i)^#{1,6}\s*todo\s*$`)
)

// TaskRecord is one checkbox entry read from the task file.
type TaskRecord struct {
	Text   string
	Status TaskStatus
}

// hasUncheckedItems reports whether the task file still contains unchecked
// checkbox entries. A missing or unreadable file counts as incomplete so
// the loop keeps going until the agent creates it.
func hasUncheckedItems(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return true
	}
	return uncheckedItem.Match(data)
}

// readAllTasks returns every checkbox entry in the file, in order. Missing
// file yields an empty slice, not an error.
func readAllTasks(path string) ([]TaskRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read tasks file: %w", err)
	}
	var records []TaskRecord
	for _, line := range strings.Split(string(data), "\n") {
		m := taskFileLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		status := TaskPending
		if m[1] != " " {
			status = TaskDone
		}
		records = append(records, TaskRecord{Text: strings.TrimSpace(m[2]), Status: status})
	}
	return records, nil
}

// currentTask returns the first pending task, if any.
func currentTask(path string) (string, bool) {
	records, err := readAllTasks(path)
	if err != nil {
		return "", false
	}
	for _, rec := range records {
		if rec.Status == TaskPending {
			return rec.Text, true
		}
	}
	return "", false
}

// existingTaskDescriptions returns the lowercased text of every entry,
// used to filter out duplicate suggestions.
func existingTaskDescriptions(path string) map[string]bool {
	records, _ := readAllTasks(path)
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		seen[strings.ToLower(rec.Text)] = true
	}
	return seen
}

// existingTasksContext renders the current entries as a checklist for
// inclusion in planning prompts. Empty string when there are none.
func existingTasksContext(path string) string {
	records, _ := readAllTasks(path)
	if len(records) == 0 {
		return ""
	}
	var b strings.Builder
	for _, rec := range records {
		mark := " "
		if rec.Status == TaskDone {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s\n", mark, rec.Text)
	}
	return b.String()
}

// addTaskToFile appends a pending checkbox entry under the file's Todo
// section, creating the file or the section as needed.
func addTaskToFile(path, description string) error {
	entry := fmt.Sprintf("- [ ] %s\n", strings.TrimSpace(description))

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		content := "# Tasks\n\n## Todo\n\n" + entry
		return os.WriteFile(path, []byte(content), 0o644)
	}
	if err != nil {
		return fmt.Errorf("read tasks file: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	insertAt := -1
	for i, line := range lines {
		if !todoHeading.MatchString(strings.TrimSpace(line)) {
			continue
		}
		insertAt = len(lines)
		for j := i + 1; j < len(lines); j++ {
			if headingLine.MatchString(strings.TrimSpace(lines[j])) {
				insertAt = j
				break
			}
		}
		break
	}

	if insertAt < 0 {
		content := string(data)
		if !strings.HasSuffix(content, "\n") && content != "" {
			content += "\n"
		}
		content += "\n## Todo\n\n" + entry
		return os.WriteFile(path, []byte(content), 0o644)
	}

	// Insert just before the next heading, after trailing blank lines of
	// the section body.
	for insertAt > 0 && strings.TrimSpace(lines[insertAt-1]) == "" {
		insertAt--
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:insertAt]...)
	out = append(out, strings.TrimSuffix(entry, "\n"))
	out = append(out, lines[insertAt:]...)
	return os.WriteFile(path, []byte(strings.Join(out, "\n")), 0o644)
}
