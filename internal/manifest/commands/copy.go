package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"

	"github.com/legeana/lontra-go/internal/manifest"
	"github.com/legeana/lontra-go/internal/module"
	"github.com/legeana/lontra-go/internal/registry"
)

// copyModule copies src to dst once, at install time. Unlike symlink,
// the destination is a real, independent file: a second install run
// with a changed source will not pick up the change until dst is
// removed (matching the teacher's "skip already existing state" idiom
// used throughout internal/build's output caching).
type copyModule struct {
	module.Base
	src, dst string
	mode     os.FileMode
}

func (m copyModule) PreInstall(rules module.Rules, reg registry.Registry) error {
	return ensureParentDir(m.dst)
}

func (m copyModule) Install(rules module.Rules, reg registry.Registry) error {
	if _, err := os.Stat(m.dst); err == nil {
		return nil
	}
	if err := copyFile(m.src, m.dst, m.mode); err != nil {
		return xerrors.Errorf("copy %s -> %s: %w", m.src, m.dst, err)
	}
	return reg.RegisterUserFile(bgctx(), registry.FilePath{Type: registry.File, Path: m.dst})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

type copyBuilder struct{ manifest.BaseCommand }

func (copyBuilder) Name() string { return "copy" }
func (copyBuilder) Help() string {
	return "copy <filename>\n\tcopy filename into prefix, independent of the source afterward"
}

func (copyBuilder) Build(bc manifest.BuildContext, args []manifest.Argument) (manifest.Command, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("copy: expected 1 argument, got %d", len(args))
	}
	return &copyStatement{workdir: bc.WorkDir, name: args[0], mode: 0o644}, nil
}

type executableCopyBuilder struct{ manifest.BaseCommand }

func (executableCopyBuilder) Name() string { return "executable" }
func (executableCopyBuilder) Help() string {
	return "executable <filename>\n\tcopy filename into prefix with the executable bit set"
}

func (executableCopyBuilder) Build(bc manifest.BuildContext, args []manifest.Argument) (manifest.Command, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("executable: expected 1 argument, got %d", len(args))
	}
	return &copyStatement{workdir: bc.WorkDir, name: args[0], mode: 0o755}, nil
}

type copyStatement struct {
	manifest.BaseCommand
	workdir string
	name    manifest.Argument
	mode    os.FileMode
}

func (s *copyStatement) Run(ctx *manifest.Context) (manifest.StatementResult, error) {
	name, err := s.name.Expand(ctx)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	mod := copyModule{
		src:  filepath.Join(s.workdir, name),
		dst:  filepath.Join(ctx.Prefix(), name),
		mode: s.mode,
	}
	return manifest.StatementResult{Module: mod}, nil
}
