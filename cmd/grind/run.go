package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	var (
		promptFile    string
		tasksFile     string
		maxIterations int
		agentName     string
		yolo          bool
		allowPaths    []string
		continueSess  bool
		resetSess     bool
		keepRunning   bool
		stopWhenDone  bool
		timeout       time.Duration
		retryLimit    int
		stopFile      string
		dryRun        bool
		logFile       string
		verbose       bool
		jsonOut       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the agent loop against the task file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(flagConfigPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("file") {
				cfg.PromptFile = promptFile
			}
			if flags.Changed("tasks") {
				cfg.TasksFile = tasksFile
			}
			if flags.Changed("max-iterations") {
				cfg.MaxIterations = maxIterations
			}
			if flags.Changed("agent") {
				cfg.Agent = agentName
			}
			if flags.Changed("allow-paths") {
				cfg.AllowPaths = allowPaths
			}
			if flags.Changed("continue") {
				cfg.ContinueSession = continueSess
			}
			if flags.Changed("reset") && resetSess {
				cfg.ContinueSession = false
			}
			if flags.Changed("keep-running") {
				cfg.KeepRunning = keepRunning
			}
			if flags.Changed("stop-when-done") && stopWhenDone {
				cfg.KeepRunning = false
			}
			if flags.Changed("timeout") {
				cfg.AttemptTimeout = timeout
			}
			if flags.Changed("retry-limit") {
				cfg.RetryLimit = retryLimit
			}
			if flags.Changed("stop-file") {
				cfg.TargetFile = stopFile
			}
			if flags.Changed("log-file") {
				cfg.LogFile = logFile
			}
			if flags.Changed("verbose") {
				cfg.Verbose = verbose
			}
			cfg.DryRun = dryRun
			cfg.JSONOutput = jsonOut

			// Paths imply path restriction; otherwise the yolo flag decides.
			if len(cfg.AllowPaths) > 0 {
				cfg.SecurityMode = permPathRestricted
			} else if flags.Changed("yolo") {
				if yolo {
					cfg.SecurityMode = permYolo
				} else {
					cfg.SecurityMode = permConservative
				}
			}

			if err := cfg.validate(); err != nil {
				return err
			}
			return executeRun(cmd, cfg)
		},
	}

	cmd.Flags().StringVarP(&promptFile, "file", "f", "LOOP-PROMPT.md", "prompt file sent to the agent each iteration")
	cmd.Flags().StringVar(&tasksFile, "tasks", "TASKS.md", "task checklist file")
	cmd.Flags().IntVarP(&maxIterations, "max-iterations", "n", 10, "iteration limit")
	cmd.Flags().StringVar(&agentName, "agent", "claude", "agent to drive (claude, codex, gemini)")
	cmd.Flags().BoolVar(&yolo, "yolo", true, "run the agent with permission prompts disabled")
	cmd.Flags().StringSliceVar(&allowPaths, "allow-paths", nil, "restrict agent writes to these paths")
	cmd.Flags().BoolVar(&continueSess, "continue", false, "resume the persisted agent session")
	cmd.Flags().BoolVar(&resetSess, "reset", false, "discard any persisted agent session")
	cmd.Flags().BoolVar(&keepRunning, "keep-running", false, "ignore task completion, run until the iteration limit")
	cmd.Flags().BoolVar(&stopWhenDone, "stop-when-done", false, "stop as soon as all tasks are checked")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-attempt timeout (0 disables)")
	cmd.Flags().IntVar(&retryLimit, "retry-limit", defaultRetryLimit, "attempts per iteration before aborting")
	cmd.Flags().StringVar(&stopFile, "stop-file", "", "stop once this file exists")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would run without invoking the agent")
	cmd.Flags().StringVar(&logFile, "log-file", "", "append iteration transcripts to this file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "report file changes after each iteration")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the run summary as JSON")

	cmd.MarkFlagsMutuallyExclusive("continue", "reset")
	cmd.MarkFlagsMutuallyExclusive("keep-running", "stop-when-done")
	return cmd
}

func executeRun(cmd *cobra.Command, cfg runConfig) error {
	out := cmd.OutOrStdout()
	styles := newStyleSet(os.Stdout)

	if cfg.DryRun {
		fmt.Fprintln(out, styles.Heading.Render("Dry run"))
		fmt.Fprintf(out, "  Agent:          %s\n", cfg.Agent)
		fmt.Fprintf(out, "  Prompt file:    %s\n", cfg.PromptFile)
		fmt.Fprintf(out, "  Tasks file:     %s\n", cfg.TasksFile)
		fmt.Fprintf(out, "  Max iterations: %d\n", cfg.MaxIterations)
		fmt.Fprintf(out, "  Security mode:  %s\n", cfg.SecurityMode)
		session := "fresh"
		if cfg.ContinueSession {
			session = "continue"
		}
		fmt.Fprintf(out, "  Session:        %s\n", session)
		fmt.Fprintf(out, "  Keep running:   %v\n", cfg.KeepRunning)
		if task, ok := currentTask(cfg.TasksFile); ok {
			fmt.Fprintf(out, "  Next task:      %s\n", task)
		}
		return nil
	}

	agent, err := lookupAgent(cfg.Agent)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	controller := newLoopController(cfg, agent)
	summary := controller.Run(ctx)

	if cfg.JSONOutput {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("encode summary: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		renderSummary(out, styles, summary)
	}

	switch summary.StopReason {
	case StopError:
		return &exitCodeError{code: 1, msg: summary.Diagnostic}
	case StopCancelled:
		return &exitCodeError{code: 130, msg: "cancelled"}
	}
	return nil
}
