package main

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// iterationLog appends full iteration transcripts to a log file so a
// long run can be reviewed afterwards.
type iterationLog struct {
	path string
}

func (l *iterationLog) Append(index int, ts time.Time, content string) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	sep := strings.Repeat("=", 60)
	entry := fmt.Sprintf("\n%s\nIteration %d - %s\n%s\n%s\n",
		sep, index, ts.Format("2006-01-02 15:04:05"), sep, content)
	if _, err := f.WriteString(entry); err != nil {
		return fmt.Errorf("write log entry: %w", err)
	}
	return nil
}
