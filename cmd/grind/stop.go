package main

import (
	"os"
	"strings"
)

// StopReason identifies why a loop run ended.
type StopReason string

const (
	StopTasksComplete  StopReason = "tasks_complete"
	StopIterationLimit StopReason = "iteration_limit_reached"
	StopExplicitSignal StopReason = "explicit_signal"
	StopTargetFile     StopReason = "target_file_exists"
	StopCancelled      StopReason = "cancelled"
	StopError          StopReason = "error"
)

// completionSentinel is the marker an agent prints on its own line to
// declare the work finished regardless of task-file state.
const completionSentinel = "GRIND_COMPLETE"

// stopEvaluator decides before each iteration whether the loop should stop.
// It holds no cached state: the task file and target file are re-read on
// every call so external edits between iterations take effect immediately.
type stopEvaluator struct {
	tasksFile   string
	targetFile  string
	keepRunning bool
	sentinel    string
}

func newStopEvaluator(tasksFile, targetFile string, keepRunning bool) *stopEvaluator {
	return &stopEvaluator{
		tasksFile:   tasksFile,
		targetFile:  targetFile,
		keepRunning: keepRunning,
		sentinel:    completionSentinel,
	}
}

// evaluate checks the stop conditions in fixed precedence: explicit
// sentinel in the last output, target file existence, task completion,
// then the iteration limit. lastOutput is the full output of the most
// recent iteration, empty before the first.
func (e *stopEvaluator) evaluate(lastOutput string, iterationsRun, maxIterations int) (StopReason, bool) {
	if e.sentinelDeclared(lastOutput) {
		return StopExplicitSignal, true
	}
	if e.targetFile != "" {
		if _, err := os.Stat(e.targetFile); err == nil {
			return StopTargetFile, true
		}
	}
	if !e.keepRunning && !hasUncheckedItems(e.tasksFile) {
		return StopTasksComplete, true
	}
	if maxIterations > 0 && iterationsRun >= maxIterations {
		return StopIterationLimit, true
	}
	return "", false
}

// sentinelDeclared reports whether the output contains the completion
// sentinel on its own line outside any fenced code block. Fenced
// occurrences are quoted text, not declarations.
func (e *stopEvaluator) sentinelDeclared(output string) bool {
	if output == "" {
		return false
	}
	return scanLinesOutsideFence(output, func(line string) bool {
		return strings.TrimSpace(line) == e.sentinel
	})
}
