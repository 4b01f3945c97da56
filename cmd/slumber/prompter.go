package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/LucasPickering/slumber/template"
)

// stdioPrompter answers `prompt`/`select` builtins by reading from the
// controlling terminal, falling back to a prompt's default (or erroring
// if none) when stdin isn't a terminal — a non-interactive dispatch (a
// script piping a collection through slumber) shouldn't hang forever
// waiting on input that will never arrive.
type stdioPrompter struct{}

func (stdioPrompter) Prompt(ctx context.Context, p template.Prompt) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		if p.Default != nil {
			return *p.Default, nil
		}
		return "", fmt.Errorf("prompt %q has no default and stdin is not a terminal", p.Message)
	}

	fmt.Fprint(os.Stderr, promptLine(p.Message, p.Default))
	line, err := readLine(p.Sensitive)
	if err != nil {
		return "", err
	}
	if line == "" && p.Default != nil {
		return *p.Default, nil
	}
	return line, nil
}

func (stdioPrompter) Select(ctx context.Context, s template.Select) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("select %q requires a terminal", s.Message)
	}

	fmt.Fprintln(os.Stderr, s.Message)
	for i, opt := range s.Options {
		fmt.Fprintf(os.Stderr, "  %d) %s\n", i+1, opt)
	}
	fmt.Fprint(os.Stderr, "> ")
	line, err := readLine(false)
	if err != nil {
		return "", err
	}
	idx, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || idx < 1 || idx > len(s.Options) {
		return "", fmt.Errorf("invalid selection %q", line)
	}
	return s.Options[idx-1], nil
}

func promptLine(message string, def *string) string {
	if def != nil {
		return fmt.Sprintf("%s [%s]: ", message, *def)
	}
	return fmt.Sprintf("%s: ", message)
}

func readLine(sensitive bool) (string, error) {
	if sensitive && term.IsTerminal(int(os.Stdin.Fd())) {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
