// Package satisfier evaluates "wants" predicates (§4.8) used to decide
// whether a dependency installer can be skipped: a command already on
// $PATH, a file that already exists, a pkg-config module already
// registered, or a regular expression matched against a command's
// captured output.
package satisfier

import (
	"context"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/legeana/lontra-go/internal/process"
)

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func bgctx() context.Context { return context.Background() }

// Satisfier reports whether a dependency is already satisfied and can
// therefore be skipped, per §4.8: "satisfied dependencies are skipped
// unless force_update is set".
type Satisfier interface {
	Satisfied() (bool, error)
}

// Command is satisfied when exe resolves on $PATH.
type Command struct{ Exe string }

func (c Command) Satisfied() (bool, error) {
	_, err := process.LookPath(c.Exe)
	return err == nil, nil
}

// AnyCommand is satisfied when at least one of Exes resolves on $PATH.
type AnyCommand struct{ Exes []string }

func (a AnyCommand) Satisfied() (bool, error) {
	for _, exe := range a.Exes {
		if ok, err := (Command{Exe: exe}).Satisfied(); err != nil {
			return false, err
		} else if ok {
			return true, nil
		}
	}
	return false, nil
}

// AllCommands is satisfied when every one of Exes resolves on $PATH.
type AllCommands struct{ Exes []string }

func (a AllCommands) Satisfied() (bool, error) {
	for _, exe := range a.Exes {
		if ok, err := (Command{Exe: exe}).Satisfied(); err != nil {
			return false, err
		} else if !ok {
			return false, nil
		}
	}
	return true, nil
}

// File is satisfied when path (with a leading "~" expanded against the
// current user's home directory) exists.
type File struct{ Path string }

func (f File) Satisfied() (bool, error) {
	path, err := expandHome(f.Path)
	if err != nil {
		return false, err
	}
	return fileExists(path), nil
}

// AnyFile is satisfied when at least one of Paths exists.
type AnyFile struct{ Paths []string }

func (a AnyFile) Satisfied() (bool, error) {
	for _, p := range a.Paths {
		if ok, err := (File{Path: p}).Satisfied(); err != nil {
			return false, err
		} else if ok {
			return true, nil
		}
	}
	return false, nil
}

// AllFiles is satisfied when every one of Paths exists.
type AllFiles struct{ Paths []string }

func (a AllFiles) Satisfied() (bool, error) {
	for _, p := range a.Paths {
		if ok, err := (File{Path: p}).Satisfied(); err != nil {
			return false, err
		} else if !ok {
			return false, nil
		}
	}
	return true, nil
}

// PkgConfig is satisfied when `pkg-config --exists <name>` exits zero.
type PkgConfig struct{ Name string }

func (p PkgConfig) Satisfied() (bool, error) {
	cmd := exec.Command("pkg-config", "--exists", p.Name)
	return cmd.Run() == nil, nil
}

// PatternKind selects how CommandOutput's Patterns are combined.
type PatternKind int

const (
	// AnyRegex is satisfied if at least one pattern matches.
	AnyRegex PatternKind = iota
	// AllRegexes is satisfied only if every pattern matches.
	AllRegexes
)

// CommandOutput runs Exec (an argv, or, if len(Exec) == 1, a bash
// one-liner) and matches its captured output against Patterns.
type CommandOutput struct {
	Exec     []string
	Patterns []string
	Kind     PatternKind
}

func (c CommandOutput) Satisfied() (bool, error) {
	var cmd process.Command
	if len(c.Exec) == 1 {
		cmd = process.New("bash", "-c", c.Exec[0])
	} else {
		cmd = process.New(c.Exec[0], c.Exec[1:]...)
	}
	out, err := cmd.Output(bgctx())
	if err != nil {
		return false, nil // command failing outright is "not satisfied", not an error
	}
	matched := 0
	for _, pat := range c.Patterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			return false, err
		}
		if re.Match(out) {
			matched++
		}
	}
	switch c.Kind {
	case AllRegexes:
		return matched == len(c.Patterns), nil
	default:
		return matched > 0, nil
	}
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return u.HomeDir, nil
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(u.HomeDir, path[2:]), nil
	}
	return path, nil
}
