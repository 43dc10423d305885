package main

import "strings"

// fencedBlock is one closed code fence with its info-string label and inner
// content, as found in agent output.
type fencedBlock struct {
	label   string
	content string
}

// openingFence reports whether trimmed opens a code fence. Fences use at
// least three backticks or tildes; the remainder of the line is the label.
// Backtick labels may not themselves contain backticks, which rules out
// inline-code lines like "```x``` text".
func openingFence(trimmed string) (char byte, length int, label string, ok bool) {
	if len(trimmed) < 3 {
		return 0, 0, "", false
	}
	if trimmed[0] != '`' && trimmed[0] != '~' {
		return 0, 0, "", false
	}
	char = trimmed[0]
	length = countLeadingChars(trimmed, char)
	if length < 3 {
		return 0, 0, "", false
	}
	label = strings.TrimSpace(trimmed[length:])
	if char == '`' && strings.Contains(label, "`") {
		return 0, 0, "", false
	}
	return char, length, label, true
}

// closingFence reports whether trimmed closes a fence opened with char and
// length. A closing fence has at least as many fence characters as the
// opening one and nothing else on the line.
func closingFence(trimmed string, char byte, length int) bool {
	if len(trimmed) < length || trimmed[0] != char {
		return false
	}
	count := countLeadingChars(trimmed, char)
	return count >= length && count == len(trimmed)
}

// fencedBlocks returns every closed fenced block in output, in document
// order. An unterminated fence swallows the rest of the document and yields
// no block.
func fencedBlocks(output string) []fencedBlock {
	var blocks []fencedBlock
	lines := strings.Split(output, "\n")
	for i := 0; i < len(lines); i++ {
		char, length, label, ok := openingFence(strings.TrimSpace(lines[i]))
		if !ok {
			continue
		}
		closed := false
		var body []string
		j := i + 1
		for ; j < len(lines); j++ {
			if closingFence(strings.TrimSpace(lines[j]), char, length) {
				closed = true
				break
			}
			body = append(body, lines[j])
		}
		if !closed {
			break
		}
		blocks = append(blocks, fencedBlock{label: label, content: strings.Join(body, "\n")})
		i = j
	}
	return blocks
}

// firstFencedBlock returns the content of the first closed fenced block whose
// label satisfies match.
func firstFencedBlock(output string, match func(label string) bool) (string, bool) {
	for _, block := range fencedBlocks(output) {
		if match(block.label) {
			return block.content, true
		}
	}
	return "", false
}

// fenceState tracks fence parsing state for line-at-a-time scans.
type fenceState struct {
	inFence   bool
	fenceChar byte
	fenceLen  int
}

// processLine updates fence state based on the current line. Returns true if
// the line is inside a code fence (should be skipped for content matching).
func (f *fenceState) processLine(trimmed string) bool {
	if len(trimmed) < 3 {
		return f.inFence
	}

	if !f.inFence {
		if trimmed[0] == '`' || trimmed[0] == '~' {
			fenceChar := trimmed[0]
			fenceLen := countLeadingChars(trimmed, fenceChar)
			if fenceLen >= 3 {
				f.inFence = true
				f.fenceChar = fenceChar
				f.fenceLen = fenceLen
				return true
			}
		}
		return false
	}

	if closingFence(trimmed, f.fenceChar, f.fenceLen) {
		f.inFence = false
		f.fenceChar = 0
		f.fenceLen = 0
		return true
	}
	return true
}

// countLeadingChars counts consecutive occurrences of char at the start of s.
func countLeadingChars(s string, char byte) int {
	count := 0
	for count < len(s) && s[count] == char {
		count++
	}
	return count
}

// scanLinesOutsideFence calls match for each trimmed line that sits outside
// code fences and reports whether any line matched.
func scanLinesOutsideFence(output string, match func(trimmed string) bool) bool {
	var fence fenceState
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if fence.processLine(trimmed) {
			continue
		}
		if match(trimmed) {
			return true
		}
	}
	return false
}
