package checks

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"goodmorning/internal/shell"
)

// LineLimit runs a command and fails when it prints more than max lines,
// ignoring lines matching any skip pattern. It covers "you have too many X"
// checks such as leftover remote dev machines.
func LineLimit(ctx context.Context, env *Env, params Params) error {
	command, args, err := commandParams(params)
	if err != nil {
		return err
	}
	skipPatterns, err := params.Strings("skip", nil)
	if err != nil {
		return err
	}
	limit, err := params.Int("max", 1)
	if err != nil {
		return err
	}
	skips := make([]*regexp.Regexp, 0, len(skipPatterns))
	for _, pattern := range skipPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("param skip: %w", err)
		}
		skips = append(skips, re)
	}

	res, err := env.run(ctx, command, args...)
	if err != nil {
		return err
	}
	var kept []string
	for _, line := range shell.Lines(res.Stdout) {
		if !matchesAny(skips, line) {
			kept = append(kept, line)
		}
	}
	if len(kept) > limit {
		hint, _ := params.String("hint", "")
		msg := fmt.Sprintf("'%s' listed %d entries (max %d): %s", shell.Command{Name: command, Args: args}, len(kept), limit, strings.Join(kept, ", "))
		if hint != "" {
			msg += "\n" + hint
		}
		return errors.New(msg)
	}
	return nil
}

// Output runs a command and queues its stdout for display after the run.
func Output(ctx context.Context, env *Env, params Params) error {
	command, args, err := commandParams(params)
	if err != nil {
		return err
	}
	res, err := env.run(ctx, command, args...)
	if err != nil {
		return err
	}
	text := strings.TrimRight(res.Stdout, "\n ")
	if text == "" {
		return nil
	}
	env.State.AppendOutput(strings.Split(text, "\n")...)
	env.State.AppendOutput("")
	return nil
}

// Note queues fixed reminder lines for display after the run.
func Note(_ context.Context, env *Env, params Params) error {
	lines, err := params.Strings("lines", nil)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return errors.New("note: lines param is required")
	}
	env.State.AppendOutput(lines...)
	env.State.AppendOutput("")
	return nil
}

func commandParams(params Params) (string, []string, error) {
	command, err := params.String("command", "")
	if err != nil {
		return "", nil, err
	}
	if strings.TrimSpace(command) == "" {
		return "", nil, errors.New("command param is required")
	}
	args, err := params.Strings("args", nil)
	if err != nil {
		return "", nil, err
	}
	return command, args, nil
}

func matchesAny(patterns []*regexp.Regexp, line string) bool {
	for _, re := range patterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
