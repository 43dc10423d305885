package main

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

//go:embed templates/*.md
var templateFS embed.FS

type templateData struct {
	TasksFile     string
	Goal          string
	ExistingTasks string
}

func renderTemplate(name string, data templateData) (string, error) {
	raw, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("load template %s: %w", name, err)
	}
	tmpl, err := template.New(name).Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}

func newInitCommand() *cobra.Command {
	var (
		force   bool
		goal    string
		noAgent bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold the prompt, task, and config files for a loop run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(flagConfigPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if goal == "" {
				goal = inferGoalFromReadme()
			}
			data := templateData{TasksFile: cfg.TasksFile, Goal: goal}

			files := []struct {
				path, tmpl string
			}{
				{cfg.PromptFile, "LOOP-PROMPT.md"},
				{cfg.TasksFile, "TASKS.md"},
			}
			for _, f := range files {
				if _, err := os.Stat(f.path); err == nil && !force {
					fmt.Fprintf(out, "skipping %s (exists, use --force to overwrite)\n", f.path)
					continue
				}
				content, err := renderTemplate(f.tmpl, data)
				if err != nil {
					return err
				}
				if err := os.WriteFile(f.path, []byte(content), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", f.path, err)
				}
				fmt.Fprintf(out, "wrote %s\n", f.path)
			}

			wrote, err := writeDefaultConfig(force)
			if err != nil {
				return err
			}
			if wrote {
				fmt.Fprintf(out, "wrote %s\n", defaultConfigFile)
			} else {
				fmt.Fprintf(out, "skipping %s (exists, use --force to overwrite)\n", defaultConfigFile)
			}

			if !noAgent {
				if err := suggestTasks(cmd, cfg, goal); err != nil {
					fmt.Fprintf(out, "task suggestion skipped: %v\n", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	cmd.Flags().StringVar(&goal, "goal", "", "project goal for the generated prompts")
	cmd.Flags().BoolVar(&noAgent, "no-agent", false, "skip agent-assisted task planning")
	return cmd
}

// inferGoalFromReadme takes the first prose paragraph of a README as the
// project goal. Best effort.
func inferGoalFromReadme() string {
	for _, name := range []string{"README.md", "README"} {
		data, err := os.ReadFile(name)
		if err != nil {
			continue
		}
		for _, block := range strings.Split(string(data), "\n\n") {
			line := strings.TrimSpace(block)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if len(line) > 300 {
				line = line[:300]
			}
			return strings.ReplaceAll(line, "\n", " ")
		}
	}
	return ""
}

func writeDefaultConfig(force bool) (bool, error) {
	if _, err := os.Stat(defaultConfigFile); err == nil && !force {
		return false, nil
	}
	var fc fileConfig
	max := 10
	fc.Loop.MaxIterations = &max
	fc.Loop.TasksFile = "TASKS.md"
	fc.Loop.PromptFile = "LOOP-PROMPT.md"
	fc.Loop.Agent = "claude"
	fc.Security.Mode = permYolo

	data, err := yaml.Marshal(&fc)
	if err != nil {
		return false, fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(defaultConfigFile, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", defaultConfigFile, err)
	}
	return true, nil
}
