package match

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/BirchJD/RPi-433MHz/internal/protocol"
)

// Executor runs the command of a matched rule.
type Executor interface {
	Execute(ctx context.Context, command string) error
}

// ShellExecutor runs commands through /bin/sh -c, waiting for them to finish.
type ShellExecutor struct {
	Shell string // defaults to /bin/sh
}

func (s ShellExecutor) Execute(ctx context.Context, command string) error {
	shell := s.Shell
	if shell == "" {
		shell = "/bin/sh"
	}
	out, err := exec.CommandContext(ctx, shell, "-c", command).CombinedOutput()
	if err != nil {
		return fmt.Errorf("command %q failed: %w (output: %s)", command, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Engine matches captures against an ordered rule list.
type Engine struct {
	rules    []Rule
	executor Executor
	logger   *slog.Logger
}

// NewEngine creates an engine over rules. Order is significant.
func NewEngine(rules []Rule, executor Executor, logger *slog.Logger) *Engine {
	return &Engine{
		rules:    rules,
		executor: executor,
		logger:   logger,
	}
}

// Rules returns the configured rules.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Match returns the first rule whose prefix starts the hex rendering of data.
func (e *Engine) Match(data []byte) (Rule, bool) {
	hexData := protocol.HexString(data)
	for _, rule := range e.rules {
		if len(rule.Prefix) <= len(hexData) && strings.HasPrefix(hexData, rule.Prefix) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Dispatch runs the command of the rule matching data. It reports whether a
// rule matched; the error is from the command.
func (e *Engine) Dispatch(ctx context.Context, data []byte) (Rule, bool, error) {
	rule, ok := e.Match(data)
	if !ok {
		return Rule{}, false, nil
	}

	e.logger.Debug("Running match command",
		slog.String("prefix", rule.Prefix),
		slog.String("command", rule.Command),
	)
	if err := e.executor.Execute(ctx, rule.Command); err != nil {
		return rule, true, err
	}
	return rule, true, nil
}
