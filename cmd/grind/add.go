package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAddCommand() *cobra.Command {
	var tasksFile string
	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Append a pending task to the task file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := strings.TrimSpace(strings.Join(args, " "))
			if description == "" {
				return fmt.Errorf("task description is empty")
			}
			if existingTaskDescriptions(tasksFile)[strings.ToLower(description)] {
				fmt.Fprintf(cmd.OutOrStdout(), "task already exists: %s\n", description)
				return nil
			}
			if err := addTaskToFile(tasksFile, description); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added: %s\n", description)
			return nil
		},
	}
	cmd.Flags().StringVar(&tasksFile, "tasks", "TASKS.md", "task checklist file")
	return cmd
}
