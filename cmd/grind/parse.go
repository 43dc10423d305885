package main

import (
	"regexp"
	"strings"
)

// TaskStatus is the completion state of one extracted task entry.
type TaskStatus string

const (
	TaskPending TaskStatus = "pending"
	TaskDone    TaskStatus = "done"
)

// TaskItem is one entry extracted from agent output.
type TaskItem struct {
	Text   string     `json:"text"`
	Status TaskStatus `json:"status"`
}

// Constraints carries the optional security suggestions an agent may emit in
// a Constraints section during planning.
type Constraints struct {
	SecurityMode   string `json:"security_mode,omitempty"`
	AllowPaths     string `json:"allow_paths,omitempty"`
	InternetAccess *bool  `json:"internet_access,omitempty"`
}

// Extraction strategy names, in fallback order.
const (
	strategyFencedMarkdown = "fenced-markdown"
	strategyFencedAny      = "fenced-any"
	strategyUnfenced       = "unfenced"
)

// ParseResult is the outcome of parsing raw agent output. OK distinguishes
// the success variant (Items, Goal, Constraints, Strategy) from the failure
// variant (Reason). StrategiesTried records the fallback chain walked before
// settling, for diagnostics.
type ParseResult struct {
	OK              bool        `json:"ok"`
	Items           []TaskItem  `json:"items,omitempty"`
	Goal            string      `json:"goal,omitempty"`
	Constraints     Constraints `json:"constraints,omitempty"`
	Strategy        string      `json:"strategy,omitempty"`
	Reason          string      `json:"reason,omitempty"`
	StrategiesTried []string    `json:"strategies_tried,omitempty"`
}

var (
	headingLine = regexp.MustCompile(`^#{1,6}\s+\S`)

	checkboxItem = regexp.MustCompile(`^[-*]\s+\[([ xX])\]\s+(.+)$`)
	bulletItem   = regexp.MustCompile(`^[-*]\s+(\S.*)$`)
	numberedItem = regexp.MustCompile(`^\d+[.)]\s+(\S.*)$`)

	constraintLine = regexp.MustCompile(`^([A-Za-z_]+)\s*:\s*(.+)$`)
)

// parseAgentOutput extracts structured task content from raw agent output.
// It is pure and total: identical input always yields an identical result and
// every failure mode is represented in the returned value.
//
// Candidate text is located by progressive fallback: a fenced block labeled
// "markdown", then any fenced block, then the raw text from its first
// structural marker (heading or list item). Within the candidate, a Tasks
// heading scopes the entry scan when present; entry styles are tried in the
// order checkbox, plain bullet, numbered, and the first style found wins.
func parseAgentOutput(raw string) ParseResult {
	candidate, strategy, tried, ok := findCandidate(raw)
	if !ok {
		return ParseResult{Reason: "no structural content", StrategiesTried: tried}
	}

	lines := strings.Split(candidate, "\n")
	scope, scoped := sectionScope(lines, "tasks")
	if !scoped {
		scope = lines
	}

	items, found := scanEntries(scope)
	if !found && !scoped {
		return ParseResult{Reason: "no task entries", StrategiesTried: tried}
	}

	result := ParseResult{
		OK:              true,
		Items:           items,
		Strategy:        strategy,
		StrategiesTried: tried,
	}
	result.Goal = extractGoal(lines)
	result.Constraints = extractConstraints(lines)
	return result
}

// findCandidate picks the candidate text via the fallback chain, returning
// the strategy that matched and the ordered list of strategies tried.
func findCandidate(raw string) (candidate, strategy string, tried []string, ok bool) {
	tried = append(tried, strategyFencedMarkdown)
	if content, found := firstFencedBlock(raw, func(label string) bool {
		return strings.EqualFold(label, "markdown")
	}); found {
		return content, strategyFencedMarkdown, tried, true
	}

	tried = append(tried, strategyFencedAny)
	if content, found := firstFencedBlock(raw, func(string) bool { return true }); found {
		return content, strategyFencedAny, tried, true
	}

	tried = append(tried, strategyUnfenced)
	if content, found := fromFirstStructuralMarker(raw); found {
		return content, strategyUnfenced, tried, true
	}

	return "", "", tried, false
}

// fromFirstStructuralMarker returns raw starting at its first heading or
// list-item line.
func fromFirstStructuralMarker(raw string) (string, bool) {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isStructuralMarker(trimmed) {
			return strings.Join(lines[i:], "\n"), true
		}
	}
	return "", false
}

func isStructuralMarker(trimmed string) bool {
	return headingLine.MatchString(trimmed) ||
		bulletItem.MatchString(trimmed) ||
		numberedItem.MatchString(trimmed)
}

// sectionScope returns the lines between a heading named name (any level,
// case-insensitive) and the next heading, or found=false when no such
// heading exists.
func sectionScope(lines []string, name string) (scope []string, found bool) {
	re := regexp.MustCompile(`^#{1,6}\s*(?i:` + regexp.QuoteMeta(name) + `)\s*$`)
	start := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if start < 0 {
			if re.MatchString(trimmed) {
				start = i + 1
			}
			continue
		}
		if headingLine.MatchString(trimmed) {
			return lines[start:i], true
		}
	}
	if start < 0 {
		return nil, false
	}
	return lines[start:], true
}

// scanEntries recognizes list entries within scope. Styles are mutually
// exclusive: the first style that matches any top-level line claims the
// whole scope. Indented items are ignored; found reports whether any style
// matched at all.
func scanEntries(scope []string) (items []TaskItem, found bool) {
	type style struct {
		re   *regexp.Regexp
		make func(match []string) TaskItem
	}
	styles := []style{
		{checkboxItem, func(m []string) TaskItem {
			status := TaskPending
			if m[1] == "x" || m[1] == "X" {
				status = TaskDone
			}
			return TaskItem{Text: strings.TrimSpace(m[2]), Status: status}
		}},
		{bulletItem, func(m []string) TaskItem {
			return TaskItem{Text: strings.TrimSpace(m[1]), Status: TaskPending}
		}},
		{numberedItem, func(m []string) TaskItem {
			return TaskItem{Text: strings.TrimSpace(m[1]), Status: TaskPending}
		}},
	}

	for _, st := range styles {
		var out []TaskItem
		matched := false
		for _, line := range scope {
			if line != strings.TrimLeft(line, " \t") {
				// Indented: nested item, skip.
				continue
			}
			m := st.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			matched = true
			out = append(out, st.make(m))
		}
		if matched {
			if out == nil {
				out = []TaskItem{}
			}
			return out, true
		}
	}
	return []TaskItem{}, false
}

// extractGoal returns the first non-empty line of a Goal section, if any.
func extractGoal(lines []string) string {
	scope, found := sectionScope(lines, "goal")
	if !found {
		return ""
	}
	for _, line := range scope {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// extractConstraints reads key: value lines from a Constraints section.
// Unknown keys are ignored.
func extractConstraints(lines []string) Constraints {
	var c Constraints
	scope, found := sectionScope(lines, "constraints")
	if !found {
		return c
	}
	for _, line := range scope {
		m := constraintLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[2])
		switch strings.ToLower(m[1]) {
		case "security_mode":
			c.SecurityMode = value
		case "allow_paths":
			c.AllowPaths = value
		case "internet_access":
			enabled := isTruthy(value)
			c.InternetAccess = &enabled
		}
	}
	return c
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "1":
		return true
	default:
		return false
	}
}
