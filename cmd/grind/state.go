package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// sessionState is what survives between runs: the opaque token the agent
// handed back, and which agent it belongs to. A token is never reused
// across agents.
type sessionState struct {
	Token     string    `json:"token"`
	Agent     string    `json:"agent"`
	UpdatedAt time.Time `json:"updated_at"`
}

var sessionStatePath = func() string {
	return filepath.Join(".grind", "session.json")
}

// loadSessionState reads the persisted session, returning a zero state
// when none exists or the file is unreadable. A corrupt state file is a
// recoverable condition: log and start fresh.
func loadSessionState() sessionState {
	path := sessionStatePath()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("session state unreadable, starting fresh", "path", path, "error", err)
		}
		return sessionState{}
	}
	var st sessionState
	if err := json.Unmarshal(data, &st); err != nil {
		slog.Warn("session state corrupt, starting fresh", "path", path, "error", err)
		return sessionState{}
	}
	return st
}

// saveSessionState writes the state atomically: temp file in the same
// directory, then rename.
func saveSessionState(st sessionState) error {
	path := sessionStatePath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write session state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close session state: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace session state: %w", err)
	}
	return nil
}

func clearSessionState() error {
	err := os.Remove(sessionStatePath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear session state: %w", err)
	}
	return nil
}
