package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// exitCodeError carries a specific process exit code up to main.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

var (
	flagDebug      bool
	flagConfigPath string
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "grind",
		Short:         "Run a coding agent in a loop until its task list is done",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if flagDebug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file (default grind.yaml)")

	root.AddCommand(newRunCommand())
	root.AddCommand(newParseCommand())
	root.AddCommand(newInitCommand())
	root.AddCommand(newAddCommand())
	root.AddCommand(newSuggestCommand())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the grind version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "grind %s\n", version)
		},
	})
	return root
}

func main() {
	os.Exit(runMain())
}

func runMain() int {
	return exitStatusFor(newRootCommand().Execute())
}

func exitStatusFor(err error) int {
	if err == nil {
		return 0
	}
	var exit *exitCodeError
	if errors.As(err, &exit) {
		if exit.msg != "" {
			fmt.Fprintln(os.Stderr, exit.msg)
		}
		return exit.code
	}
	fmt.Fprintf(os.Stderr, "grind: %v\n", err)
	return 1
}
