package commands

import (
	"fmt"
	"path/filepath"

	"github.com/legeana/lontra-go/internal/manifest"
	"github.com/legeana/lontra-go/internal/module"
)

// subdirBuilder implements "subdir <path>": recursively loads and
// evaluates the MANIFEST file in a subdirectory of the current package,
// against a child Context rooted at prefix/path.
type subdirBuilder struct{ manifest.BaseCommand }

func (subdirBuilder) Name() string { return "subdir" }
func (subdirBuilder) Help() string {
	return "subdir <subdirectory>\n\tload subdirectory configuration recursively"
}

func (subdirBuilder) Build(bc manifest.BuildContext, args []manifest.Argument) (manifest.Command, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("subdir: expected 1 argument, got %d", len(args))
	}
	return &subdirStatement{bc: bc, subdir: args[0]}, nil
}

type subdirStatement struct {
	manifest.BaseCommand
	bc     manifest.BuildContext
	subdir manifest.Argument
}

func (s *subdirStatement) Run(ctx *manifest.Context) (manifest.StatementResult, error) {
	subdir, err := s.subdir.Expand(ctx)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	path := filepath.Join(s.bc.WorkDir, subdir, "MANIFEST")
	mod, err := s.bc.Resolver.EvaluateFile(path, ctx, subdir)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	return manifest.StatementResult{Module: mod}, nil
}

// subdirOptBuilder implements "subdir_opt <path>", identical to subdir
// except a missing MANIFEST file is not an error: it is used for
// optional sub-packages.
type subdirOptBuilder struct{ manifest.BaseCommand }

func (subdirOptBuilder) Name() string { return "subdir_opt" }
func (subdirOptBuilder) Help() string {
	return "subdir_opt <subdirectory>\n\tload subdirectory configuration recursively, ignoring a missing MANIFEST"
}

func (subdirOptBuilder) Build(bc manifest.BuildContext, args []manifest.Argument) (manifest.Command, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("subdir_opt: expected 1 argument, got %d", len(args))
	}
	return &subdirOptStatement{bc: bc, subdir: args[0]}, nil
}

type subdirOptStatement struct {
	manifest.BaseCommand
	bc     manifest.BuildContext
	subdir manifest.Argument
}

func (s *subdirOptStatement) Run(ctx *manifest.Context) (manifest.StatementResult, error) {
	subdir, err := s.subdir.Expand(ctx)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	path := filepath.Join(s.bc.WorkDir, subdir, "MANIFEST")
	if _, err := statFile(path); err != nil {
		return manifest.StatementResult{Module: module.Seq{}}, nil
	}
	mod, err := s.bc.Resolver.EvaluateFile(path, ctx, subdir)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	return manifest.StatementResult{Module: mod}, nil
}
