package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"

	"github.com/legeana/lontra-go/internal/localstate"
	"github.com/legeana/lontra-go/internal/manifest"
	"github.com/legeana/lontra-go/internal/module"
	"github.com/legeana/lontra-go/internal/registry"
)

// symlinkModule is the Module produced by every symlink-family command:
// it links dst -> src, with src resolved at build time against the
// package's work directory.
type symlinkModule struct {
	module.Base
	src, dst string
}

func (m symlinkModule) PreInstall(rules module.Rules, reg registry.Registry) error {
	return localstate.PreInstallFile(m.dst)
}

func (m symlinkModule) Install(rules module.Rules, reg registry.Registry) error {
	l := localstate.Linked{Path: m.src, Link: m.dst}
	if err := localstate.InstallSymlink(context.Background(), reg, l); err != nil {
		return xerrors.Errorf("symlink %s -> %s: %w", m.dst, m.src, err)
	}
	return nil
}

// symlinkBuilder implements "symlink <filename>": links
// prefix/filename -> workdir/filename.
type symlinkBuilder struct{ manifest.BaseCommand }

func (symlinkBuilder) Name() string { return "symlink" }
func (symlinkBuilder) Help() string {
	return "symlink <filename>\n\tcreate a symlink for filename in prefix"
}

func (symlinkBuilder) Build(bc manifest.BuildContext, args []manifest.Argument) (manifest.Command, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("symlink: expected 1 argument, got %d", len(args))
	}
	return &symlinkStatement{workdir: bc.WorkDir, src: args[0], dst: args[0]}, nil
}

// symlinkToBuilder implements "symlink_to <destination> <filename>":
// links prefix/destination -> workdir/filename.
type symlinkToBuilder struct{ manifest.BaseCommand }

func (symlinkToBuilder) Name() string { return "symlink_to" }
func (symlinkToBuilder) Help() string {
	return "symlink_to <destination> <filename>\n\tcreate a symlink for filename in prefix under a different name"
}

func (symlinkToBuilder) Build(bc manifest.BuildContext, args []manifest.Argument) (manifest.Command, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("symlink_to: expected 2 arguments, got %d", len(args))
	}
	return &symlinkStatement{workdir: bc.WorkDir, dst: args[0], src: args[1]}, nil
}

type symlinkStatement struct {
	manifest.BaseCommand
	workdir  string
	src, dst manifest.Argument
}

func (s *symlinkStatement) Run(ctx *manifest.Context) (manifest.StatementResult, error) {
	src, err := s.src.Expand(ctx)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	dst, err := s.dst.Expand(ctx)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	mod := symlinkModule{
		src: filepath.Join(s.workdir, src),
		dst: filepath.Join(ctx.Prefix(), dst),
	}
	return manifest.StatementResult{Module: mod}, nil
}

// symlinkTreeBuilder implements "symlink_tree <directory>": recursively
// mirrors workdir/directory into prefix, creating one symlink per leaf
// file and directories as plain mkdir'd entries (not symlinked), so
// that files added to the tree later (outside this package) can coexist
// under the same prefix directory.
type symlinkTreeBuilder struct{ manifest.BaseCommand }

func (symlinkTreeBuilder) Name() string { return "symlink_tree" }
func (symlinkTreeBuilder) Help() string {
	return "symlink_tree <directory>\n\trecursively symlink every file under directory into prefix"
}

func (symlinkTreeBuilder) Build(bc manifest.BuildContext, args []manifest.Argument) (manifest.Command, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("symlink_tree: expected 1 argument, got %d", len(args))
	}
	return &symlinkTreeStatement{workdir: bc.WorkDir, dir: args[0]}, nil
}

type symlinkTreeStatement struct {
	manifest.BaseCommand
	workdir string
	dir     manifest.Argument
}

func (s *symlinkTreeStatement) Run(ctx *manifest.Context) (manifest.StatementResult, error) {
	dir, err := s.dir.Expand(ctx)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	root := filepath.Join(s.workdir, dir)
	mod, err := walkSymlinkTree(root, root, ctx.Prefix())
	if err != nil {
		return manifest.StatementResult{}, xerrors.Errorf("symlink_tree %s: %w", dir, err)
	}
	return manifest.StatementResult{Module: mod}, nil
}

func walkSymlinkTree(root, dir, prefix string) (module.Module, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var seq module.Seq
	for _, e := range entries {
		full := filepath.Join(dir, e.Name())
		rel, err := filepath.Rel(root, full)
		if err != nil {
			return nil, err
		}
		dst := filepath.Join(prefix, rel)
		if e.IsDir() {
			sub, err := walkSymlinkTree(root, full, prefix)
			if err != nil {
				return nil, err
			}
			seq = append(seq, sub)
			continue
		}
		seq = append(seq, symlinkModule{src: full, dst: dst})
	}
	return seq, nil
}
