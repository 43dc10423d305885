package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "grind.yaml"

// duration lets yaml carry "30s" style values.
type duration time.Duration

func (d *duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = duration(parsed)
	return nil
}

func (d duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// fileConfig mirrors grind.yaml.
type fileConfig struct {
	Loop struct {
		MaxIterations  *int     `yaml:"max_iterations,omitempty"`
		TasksFile      string   `yaml:"tasks_file,omitempty"`
		PromptFile     string   `yaml:"prompt_file,omitempty"`
		Agent          string   `yaml:"agent,omitempty"`
		KeepRunning    *bool    `yaml:"keep_running,omitempty"`
		AttemptTimeout duration `yaml:"attempt_timeout,omitempty"`
	} `yaml:"loop,omitempty"`
	Retry struct {
		Limit       *int     `yaml:"limit,omitempty"`
		BackoffBase duration `yaml:"backoff_base,omitempty"`
		BackoffMax  duration `yaml:"backoff_max,omitempty"`
	} `yaml:"retry,omitempty"`
	Security struct {
		Mode       string   `yaml:"mode,omitempty"`
		AllowPaths []string `yaml:"allow_paths,omitempty"`
	} `yaml:"security,omitempty"`
	Session struct {
		Continue *bool `yaml:"continue,omitempty"`
	} `yaml:"session,omitempty"`
	Output struct {
		LogFile string `yaml:"log_file,omitempty"`
		Verbose *bool  `yaml:"verbose,omitempty"`
	} `yaml:"output,omitempty"`
	Stop struct {
		TargetFile string `yaml:"target_file,omitempty"`
	} `yaml:"stop,omitempty"`
}

// runConfig is the fully resolved configuration a loop run executes with.
type runConfig struct {
	MaxIterations  int
	TasksFile      string
	PromptFile     string
	Agent          string
	KeepRunning    bool
	AttemptTimeout time.Duration

	RetryLimit  int
	BackoffBase time.Duration
	BackoffMax  time.Duration

	SecurityMode string
	AllowPaths   []string

	ContinueSession bool

	TargetFile string
	LogFile    string
	Verbose    bool
	DryRun     bool
	JSONOutput bool
}

func defaultRunConfig() runConfig {
	return runConfig{
		MaxIterations: 10,
		TasksFile:     "TASKS.md",
		PromptFile:    "LOOP-PROMPT.md",
		Agent:         "claude",
		RetryLimit:    defaultRetryLimit,
		BackoffBase:   2 * time.Second,
		BackoffMax:    30 * time.Second,
		SecurityMode:  permYolo,
	}
}

// loadRunConfig resolves configuration in precedence order: defaults,
// then the config file, then GRIND_* environment variables. Flags are
// merged on top by the command layer.
func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()

	if path == "" {
		path = defaultConfigFile
	}
	data, err := os.ReadFile(path)
	if err == nil {
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
		applyFileConfig(&cfg, fc)
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnvConfig(&cfg)
	return cfg, nil
}

func applyFileConfig(cfg *runConfig, fc fileConfig) {
	if fc.Loop.MaxIterations != nil {
		cfg.MaxIterations = *fc.Loop.MaxIterations
	}
	if fc.Loop.TasksFile != "" {
		cfg.TasksFile = fc.Loop.TasksFile
	}
	if fc.Loop.PromptFile != "" {
		cfg.PromptFile = fc.Loop.PromptFile
	}
	if fc.Loop.Agent != "" {
		cfg.Agent = fc.Loop.Agent
	}
	if fc.Loop.KeepRunning != nil {
		cfg.KeepRunning = *fc.Loop.KeepRunning
	}
	if fc.Loop.AttemptTimeout != 0 {
		cfg.AttemptTimeout = time.Duration(fc.Loop.AttemptTimeout)
	}
	if fc.Retry.Limit != nil {
		cfg.RetryLimit = *fc.Retry.Limit
	}
	if fc.Retry.BackoffBase != 0 {
		cfg.BackoffBase = time.Duration(fc.Retry.BackoffBase)
	}
	if fc.Retry.BackoffMax != 0 {
		cfg.BackoffMax = time.Duration(fc.Retry.BackoffMax)
	}
	if fc.Security.Mode != "" {
		cfg.SecurityMode = fc.Security.Mode
	}
	if len(fc.Security.AllowPaths) > 0 {
		cfg.AllowPaths = fc.Security.AllowPaths
	}
	if fc.Session.Continue != nil {
		cfg.ContinueSession = *fc.Session.Continue
	}
	if fc.Output.LogFile != "" {
		cfg.LogFile = fc.Output.LogFile
	}
	if fc.Output.Verbose != nil {
		cfg.Verbose = *fc.Output.Verbose
	}
	if fc.Stop.TargetFile != "" {
		cfg.TargetFile = fc.Stop.TargetFile
	}
}

func applyEnvConfig(cfg *runConfig) {
	cfg.TasksFile = envFirst("GRIND_TASKS_FILE", cfg.TasksFile)
	cfg.PromptFile = envFirst("GRIND_PROMPT_FILE", cfg.PromptFile)
	cfg.Agent = envFirst("GRIND_AGENT", cfg.Agent)
	cfg.SecurityMode = envFirst("GRIND_SECURITY_MODE", cfg.SecurityMode)
	cfg.LogFile = envFirst("GRIND_LOG_FILE", cfg.LogFile)
	cfg.TargetFile = envFirst("GRIND_STOP_FILE", cfg.TargetFile)
	cfg.MaxIterations = envInt("GRIND_MAX_ITERATIONS", cfg.MaxIterations)
	cfg.RetryLimit = envInt("GRIND_RETRY_LIMIT", cfg.RetryLimit)
	cfg.KeepRunning = envBool("GRIND_KEEP_RUNNING", cfg.KeepRunning)
	cfg.Verbose = envBool("GRIND_VERBOSE", cfg.Verbose)
	if v := os.Getenv("GRIND_ATTEMPT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.AttemptTimeout = d
		}
	}
	if v := os.Getenv("GRIND_ALLOW_PATHS"); v != "" {
		cfg.AllowPaths = splitNonEmpty(v, ",")
	}
}

func envFirst(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// configError reports a configuration problem detected before the loop
// starts.
type configError struct{ msg string }

func (e *configError) Error() string { return e.msg }

func (c *runConfig) validate() error {
	if c.MaxIterations < 1 {
		return &configError{"max iterations must be at least 1"}
	}
	if c.RetryLimit < 1 {
		return &configError{"retry limit must be at least 1"}
	}
	switch c.SecurityMode {
	case permConservative, permPathRestricted, permYolo:
	default:
		return &configError{fmt.Sprintf("unknown security mode %q", c.SecurityMode)}
	}
	if c.SecurityMode == permPathRestricted && len(c.AllowPaths) == 0 {
		return &configError{"path_restricted mode requires allow paths"}
	}
	if _, err := lookupAgent(c.Agent); err != nil {
		return &configError{err.Error()}
	}
	return nil
}
