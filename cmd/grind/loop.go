package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

// loopPhase tracks where the controller is in its lifecycle.
type loopPhase string

const (
	phaseInit      loopPhase = "init"
	phaseRunning   loopPhase = "running"
	phaseStopping  loopPhase = "stopping"
	phaseDone      loopPhase = "done"
	phaseAborted   loopPhase = "aborted"
	phaseCancelled loopPhase = "cancelled"
)

// Iteration is the record of one agent invocation cycle.
type Iteration struct {
	Index      int         `json:"index"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Output     string      `json:"-"`
	Result     ParseResult `json:"result"`
	Attempts   int         `json:"attempts"`
	Err        string      `json:"error,omitempty"`
}

// RunSummary is the final account of a loop run.
type RunSummary struct {
	RunID         string      `json:"run_id"`
	Phase         loopPhase   `json:"phase"`
	IterationsRun int         `json:"iterations_run"`
	StopReason    StopReason  `json:"stop_reason"`
	Diagnostic    string      `json:"diagnostic,omitempty"`
	StartTime     time.Time   `json:"start_time"`
	EndTime       time.Time   `json:"end_time"`
	Duration      string      `json:"duration"`
	Iterations    []Iteration `json:"iterations"`
}

// loopController drives the iterate-evaluate cycle until a stop condition
// fires, retries are exhausted, or the context is cancelled.
type loopController struct {
	cfg    runConfig
	agent  agentInvoker
	eval   *stopEvaluator
	log    *iterationLog
	out    io.Writer
	styles styleSet

	phase      loopPhase
	session    sessionState
	lastOutput string
}

func newLoopController(cfg runConfig, agent agentInvoker) *loopController {
	c := &loopController{
		cfg:    cfg,
		agent:  agent,
		eval:   newStopEvaluator(cfg.TasksFile, cfg.TargetFile, cfg.KeepRunning),
		out:    os.Stdout,
		styles: newStyleSet(os.Stdout),
		phase:  phaseInit,
	}
	if cfg.LogFile != "" {
		c.log = &iterationLog{path: cfg.LogFile}
	}
	return c
}

// Run executes the loop. The summary is always populated, including on
// abort and cancellation, so callers can report what happened.
func (c *loopController) Run(ctx context.Context) (summary RunSummary) {
	summary.RunID = uuid.NewString()
	summary.StartTime = time.Now()
	defer func() {
		summary.Phase = c.phase
		summary.EndTime = time.Now()
		summary.Duration = summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond).String()
		summary.IterationsRun = len(summary.Iterations)
	}()

	if c.cfg.ContinueSession {
		c.session = loadSessionState()
		if c.session.Agent != "" && c.session.Agent != c.agent.Name() {
			slog.Warn("stored session belongs to a different agent, starting fresh",
				"stored", c.session.Agent, "current", c.agent.Name())
			c.session = sessionState{}
		}
	} else {
		if err := clearSessionState(); err != nil {
			slog.Warn("could not clear session state", "error", err)
		}
	}

	prompt, err := os.ReadFile(c.cfg.PromptFile)
	if err != nil {
		c.phase = phaseAborted
		summary.StopReason = StopError
		summary.Diagnostic = fmt.Sprintf("read prompt file: %v", err)
		return summary
	}

	c.phase = phaseRunning
	for {
		if reason, stop := c.eval.evaluate(c.lastOutput, len(summary.Iterations), c.cfg.MaxIterations); stop {
			c.phase = phaseStopping
			summary.StopReason = reason
			c.phase = phaseDone
			return summary
		}
		if ctx.Err() != nil {
			c.phase = phaseCancelled
			summary.StopReason = StopCancelled
			return summary
		}

		iter, err := c.runIteration(ctx, len(summary.Iterations)+1, string(prompt))
		summary.Iterations = append(summary.Iterations, iter)

		if err != nil {
			if ctx.Err() != nil {
				c.phase = phaseCancelled
				summary.StopReason = StopCancelled
				return summary
			}
			c.phase = phaseAborted
			summary.StopReason = StopError
			summary.Diagnostic = err.Error()
			return summary
		}
	}
}

// runIteration performs one full attempt cycle: invoke the agent with
// retries, record the transcript, and persist the session token. A
// returned error means retries were exhausted and the loop must abort.
func (c *loopController) runIteration(ctx context.Context, index int, prompt string) (Iteration, error) {
	iter := Iteration{Index: index, StartedAt: time.Now()}
	fmt.Fprintln(c.out, c.styles.Heading.Render(fmt.Sprintf("Iteration %d", index)))

	var rawOutput, newToken string
	produce := func(ctx context.Context) (string, error) {
		attemptCtx := ctx
		if c.cfg.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, c.cfg.AttemptTimeout)
			defer cancel()
		}

		req := invokeRequest{
			Prompt:         prompt,
			PermissionMode: c.cfg.SecurityMode,
			AllowPaths:     c.cfg.AllowPaths,
		}
		if c.cfg.ContinueSession {
			req.SessionToken = c.session.Token
		}

		res, err := c.agent.Invoke(attemptCtx, req)
		if err != nil {
			return "", err
		}
		rawOutput = res.Output
		newToken = res.SessionToken
		if res.ExitStatus != 0 {
			return "", fmt.Errorf("%s exited with status %d", c.agent.Name(), res.ExitStatus)
		}
		return res.Output, nil
	}

	result, attempts, err := attemptGeneration(ctx, produce, retrySettings{
		Limit:       c.cfg.RetryLimit,
		BackoffBase: c.cfg.BackoffBase,
		BackoffMax:  c.cfg.BackoffMax,
	})

	iter.FinishedAt = time.Now()
	iter.Output = rawOutput
	iter.Result = result
	iter.Attempts = attempts
	c.lastOutput = rawOutput

	if c.log != nil {
		if logErr := c.log.Append(index, iter.StartedAt, rawOutput); logErr != nil {
			slog.Warn("could not append iteration log", "error", logErr)
		}
	}
	if c.cfg.Verbose {
		c.printChanges()
	}

	if c.cfg.ContinueSession && newToken != "" {
		c.session = sessionState{Token: newToken, Agent: c.agent.Name(), UpdatedAt: time.Now()}
		if saveErr := saveSessionState(c.session); saveErr != nil {
			slog.Warn("could not persist session state", "error", saveErr)
		}
	}

	if err != nil {
		iter.Err = err.Error()
		return iter, err
	}
	if !result.OK {
		iter.Err = result.Reason
		return iter, fmt.Errorf("gave up after %d attempts: %s", attempts, result.Reason)
	}

	fmt.Fprintln(c.out, c.styles.Muted.Render(
		fmt.Sprintf("parsed %d task entries via %s (%d attempt(s))",
			len(result.Items), result.Strategy, attempts)))
	return iter, nil
}

func (c *loopController) printChanges() {
	changes, err := fileChanges()
	if err != nil {
		slog.Debug("could not determine file changes", "error", err)
		return
	}
	if changes != "" {
		fmt.Fprint(c.out, changes)
	}
}
