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

// catGlobModule concatenates every file matched by globs, in argument
// order, into a single output file created in the post-install phase
// (the globbed sources may not exist until an earlier phase creates
// them).
type catGlobModule struct {
	module.Base
	globs  []string
	output string
}

func (m catGlobModule) PostInstall(rules module.Rules, reg registry.Registry) error {
	if err := ensureParentDir(m.output); err != nil {
		return err
	}
	out, err := os.Create(m.output)
	if err != nil {
		return xerrors.Errorf("cat_glob: creating %s: %w", m.output, err)
	}
	defer out.Close()
	for _, g := range m.globs {
		matches, err := filepath.Glob(g)
		if err != nil {
			return xerrors.Errorf("cat_glob: invalid pattern %s: %w", g, err)
		}
		for _, path := range matches {
			if err := catInto(out, path); err != nil {
				return xerrors.Errorf("cat_glob: %s: %w", path, err)
			}
		}
	}
	return reg.RegisterUserFile(bgctx(), registry.FilePath{Type: registry.File, Path: m.output})
}

func catInto(out io.Writer, path string) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()
	_, err = io.Copy(out, in)
	return err
}

type catGlobBuilder struct{ manifest.BaseCommand }

func (catGlobBuilder) Name() string { return "cat_glob" }
func (catGlobBuilder) Help() string {
	return "cat_glob <output> <glob> [<glob>...]\n\tconcatenate every file matching the globs into output"
}

func (catGlobBuilder) Build(bc manifest.BuildContext, args []manifest.Argument) (manifest.Command, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("cat_glob: expected at least 2 arguments, got %d", len(args))
	}
	return &catGlobStatement{output: args[0], globs: args[1:]}, nil
}

type catGlobStatement struct {
	manifest.BaseCommand
	output manifest.Argument
	globs  []manifest.Argument
}

func (s *catGlobStatement) Run(ctx *manifest.Context) (manifest.StatementResult, error) {
	output, err := s.output.Expand(ctx)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	globs, err := expandAll(ctx, s.globs)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	mod := catGlobModule{globs: globs, output: filepath.Join(ctx.Prefix(), output)}
	return manifest.StatementResult{Module: mod}, nil
}
