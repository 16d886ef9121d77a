package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"

	"github.com/legeana/lontra-go/internal/localstate"
	"github.com/legeana/lontra-go/internal/manifest"
	"github.com/legeana/lontra-go/internal/module"
	"github.com/legeana/lontra-go/internal/process"
	"github.com/legeana/lontra-go/internal/registry"
)

// gitCloneModule shallow-clones remote into a content-addressed shadow
// directory once, then symlinks link to it. It never updates an
// existing clone (matching the content-addressed model: a different
// remote or branch hashes to a different shadow path entirely).
type gitCloneModule struct {
	module.Base
	remote, branch string
	shadow         localstate.Linked
}

func (m gitCloneModule) PreInstall(rules module.Rules, reg registry.Registry) error {
	return localstate.PreInstallDir(m.shadow.Path)
}

func (m gitCloneModule) Install(rules module.Rules, reg registry.Registry) error {
	if empty, err := dirIsEmpty(m.shadow.Path); err == nil && empty {
		args := []string{"clone", "--depth=1"}
		if m.branch != "" {
			args = append(args, "--branch", m.branch)
		}
		args = append(args, m.remote, m.shadow.Path)
		if err := process.New("git", args...).Run(bgctx()); err != nil {
			return xerrors.Errorf("git_clone %s: %w", m.remote, err)
		}
	}
	if err := localstate.InstallSymlink(bgctx(), reg, m.shadow); err != nil {
		return xerrors.Errorf("git_clone %s: %w", m.remote, err)
	}
	return nil
}

func dirIsEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	return len(entries) == 0, nil
}

type gitCloneBuilder struct{ manifest.BaseCommand }

func (gitCloneBuilder) Name() string { return "git_clone" }
func (gitCloneBuilder) Help() string {
	return "git_clone <remote> <filename> [<branch>]\n\tshallow clone remote, cache it, and symlink filename to it in prefix"
}

func (gitCloneBuilder) Build(bc manifest.BuildContext, args []manifest.Argument) (manifest.Command, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, fmt.Errorf("git_clone: expected 2 or 3 arguments, got %d", len(args))
	}
	s := &gitCloneStatement{remote: args[0], name: args[1]}
	if len(args) == 3 {
		s.branch = args[2]
	}
	return s, nil
}

type gitCloneStatement struct {
	manifest.BaseCommand
	remote, name, branch manifest.Argument
}

func (s *gitCloneStatement) Run(ctx *manifest.Context) (manifest.StatementResult, error) {
	remote, err := s.remote.Expand(ctx)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	name, err := s.name.Expand(ctx)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	var branch string
	if s.branch != nil {
		branch, err = s.branch.Expand(ctx)
		if err != nil {
			return manifest.StatementResult{}, err
		}
	}
	link := filepath.Join(ctx.Prefix(), name)
	shadow, err := localstate.LinkedDir(link, remote, branch)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	mod := gitCloneModule{remote: remote, branch: branch, shadow: shadow}
	return manifest.StatementResult{Module: mod}, nil
}
