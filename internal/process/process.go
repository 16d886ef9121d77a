// Package process wraps os/exec the way the teacher's build and
// bootstrap helpers invoke external tools: exec.CommandContext plus
// explicit stdio wiring, here generalized into a small typed builder so
// manifest commands can describe a subprocess invocation (program,
// arguments, working directory, environment overlay) before deciding
// how to run it.
package process

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"golang.org/x/xerrors"
)

// Command describes a subprocess invocation. The zero value runs
// Program with no arguments in the caller's current directory and
// environment.
type Command struct {
	Program string
	Args    []string
	Dir     string // "" means the caller's current directory
	Env     []string // overlay applied on top of os.Environ(), "" entries are ignored
}

// New returns a Command for program with args.
func New(program string, args ...string) Command {
	return Command{Program: program, Args: args}
}

// WithDir returns a copy of c rooted at dir.
func (c Command) WithDir(dir string) Command {
	c.Dir = dir
	return c
}

// WithEnv returns a copy of c with additional "KEY=VALUE" entries
// overlaid on the inherited environment.
func (c Command) WithEnv(env ...string) Command {
	c.Env = append(append([]string{}, c.Env...), env...)
	return c
}

func (c Command) build(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Program, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	return cmd
}

// Run executes the command with inherited stdio, as the teacher's
// bootstrap helper does for its self-build invocation.
func (c Command) Run(ctx context.Context) error {
	cmd := c.build(ctx)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return xerrors.Errorf("running %s: %w", c.Program, err)
	}
	return nil
}

// Output executes the command and returns its captured, trimmed
// standard output; standard error is captured separately and included
// in the error on failure.
func (c Command) Output(ctx context.Context) ([]byte, error) {
	cmd := c.build(ctx)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, xerrors.Errorf("running %s: %w: %s", c.Program, err, stderr.String())
	}
	return bytes.TrimRight(out, "\n"), nil
}

// LookPath reports whether program is resolvable on $PATH, used by the
// "is_command" condition and the satisfier's command predicate.
func LookPath(program string) (string, error) {
	return exec.LookPath(program)
}
