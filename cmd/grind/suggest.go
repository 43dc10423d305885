package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSuggestCommand() *cobra.Command {
	var goal string
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Ask the agent to propose new tasks and merge them into the task file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(flagConfigPath)
			if err != nil {
				return err
			}
			if goal == "" {
				goal = inferGoalFromReadme()
			}
			return suggestTasks(cmd, cfg, goal)
		},
	}
	cmd.Flags().StringVar(&goal, "goal", "", "project goal for the planning prompt")
	return cmd
}

// suggestTasks runs one planning invocation: render the meta prompt,
// invoke the configured agent with retries, and merge novel entries into
// the task file. Already-known descriptions are dropped case-insensitively.
func suggestTasks(cmd *cobra.Command, cfg runConfig, goal string) error {
	agent, err := lookupAgent(cfg.Agent)
	if err != nil {
		return err
	}

	prompt, err := renderTemplate("META-PROMPT.md", templateData{
		TasksFile:     cfg.TasksFile,
		Goal:          goal,
		ExistingTasks: existingTasksContext(cfg.TasksFile),
	})
	if err != nil {
		return err
	}

	produce := func(ctx context.Context) (string, error) {
		res, err := agent.Invoke(ctx, invokeRequest{
			Prompt:         prompt,
			PermissionMode: permConservative,
		})
		if err != nil {
			return "", err
		}
		if res.ExitStatus != 0 {
			return "", fmt.Errorf("%s exited with status %d", agent.Name(), res.ExitStatus)
		}
		return res.Output, nil
	}

	result, attempts, err := attemptGeneration(cmd.Context(), produce, retrySettings{
		Limit:       cfg.RetryLimit,
		BackoffBase: cfg.BackoffBase,
		BackoffMax:  cfg.BackoffMax,
	})
	if err != nil {
		return err
	}
	if !result.OK {
		return fmt.Errorf("no usable task list after %d attempts: %s", attempts, result.Reason)
	}

	out := cmd.OutOrStdout()
	known := existingTaskDescriptions(cfg.TasksFile)
	added := 0
	for _, item := range result.Items {
		if item.Status == TaskDone || known[strings.ToLower(item.Text)] {
			continue
		}
		if err := addTaskToFile(cfg.TasksFile, item.Text); err != nil {
			return err
		}
		known[strings.ToLower(item.Text)] = true
		fmt.Fprintf(out, "added: %s\n", item.Text)
		added++
	}
	if added == 0 {
		fmt.Fprintln(out, "no new tasks suggested")
	}
	return nil
}
