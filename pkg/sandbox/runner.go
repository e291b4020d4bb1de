package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrUnsupportedLanguage is returned for languages without a runtime image.
var ErrUnsupportedLanguage = errors.New("unsupported language")

const (
	inputFile       = "input.txt"
	maxOutputLength = 4000
)

// Language describes how to run a source file.
type Language struct {
	Image    string
	FileName string
	Command  string
}

// DefaultLanguages lists the runtimes answers can be executed with.
func DefaultLanguages() map[string]Language {
	return map[string]Language{
		"python": {
			Image:    "python:3.11-alpine",
			FileName: "main.py",
			Command:  "python main.py",
		},
		"javascript": {
			Image:    "node:20-alpine",
			FileName: "main.js",
			Command:  "node main.js",
		},
		"go": {
			Image:    "golang:1.22-alpine",
			FileName: "main.go",
			Command:  "go run main.go",
		},
	}
}

// RunnerConfig configures answer execution.
type RunnerConfig struct {
	Timeout       time.Duration
	MemoryLimitMB int
	CPUShares     int
	WorkspaceRoot string
}

// Runner executes a single answer with sample input on stdin.
type Runner struct {
	executor  Executor
	cfg       RunnerConfig
	languages map[string]Language
}

// NewRunner builds a Runner over an executor.
func NewRunner(executor Executor, cfg RunnerConfig) *Runner {
	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = os.TempDir()
	}
	return &Runner{
		executor:  executor,
		cfg:       cfg,
		languages: DefaultLanguages(),
	}
}

// Supports reports whether language can be executed.
func (r *Runner) Supports(language string) bool {
	_, ok := r.languages[normalizeLanguage(language)]
	return ok
}

// Run writes the source and stdin into a scratch workspace and executes it.
func (r *Runner) Run(ctx context.Context, language, source, stdin string) (Result, error) {
	lang, ok := r.languages[normalizeLanguage(language)]
	if !ok {
		return Result{}, ErrUnsupportedLanguage
	}

	workspace, err := os.MkdirTemp(r.cfg.WorkspaceRoot, "answer-")
	if err != nil {
		return Result{}, fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(workspace)

	if err := os.WriteFile(filepath.Join(workspace, lang.FileName), []byte(source), 0o644); err != nil {
		return Result{}, fmt.Errorf("write source: %w", err)
	}
	if err := os.WriteFile(filepath.Join(workspace, inputFile), []byte(stdin), 0o644); err != nil {
		return Result{}, fmt.Errorf("write input: %w", err)
	}

	return r.executor.Run(ctx, Request{
		Image:         lang.Image,
		Cmd:           []string{"sh", "-c", lang.Command + " < " + inputFile},
		Timeout:       r.cfg.Timeout,
		Workspace:     workspace,
		MemoryLimitMB: int64(r.cfg.MemoryLimitMB),
		CPUShares:     int64(r.cfg.CPUShares),
	})
}

// Describe renders a result as text suitable for an evaluator prompt.
func Describe(result Result, runErr error) string {
	var builder strings.Builder
	switch {
	case result.TimedOut:
		builder.WriteString("status: timed out\n")
	case runErr != nil:
		builder.WriteString("status: failed to run: " + runErr.Error() + "\n")
	default:
		fmt.Fprintf(&builder, "status: exited with code %d\n", result.ExitCode)
	}
	if result.Stdout != "" {
		builder.WriteString("stdout:\n" + truncate(result.Stdout) + "\n")
	}
	if result.Stderr != "" {
		builder.WriteString("stderr:\n" + truncate(result.Stderr) + "\n")
	}
	return strings.TrimSpace(builder.String())
}

func truncate(value string) string {
	if len(value) <= maxOutputLength {
		return value
	}
	return value[:maxOutputLength] + "...(truncated)"
}

func normalizeLanguage(language string) string {
	normalized := strings.ToLower(strings.TrimSpace(language))
	switch normalized {
	case "py", "python3":
		return "python"
	case "js", "node", "nodejs", "typescript":
		return "javascript"
	case "golang":
		return "go"
	default:
		return normalized
	}
}
