package commands

import (
	"fmt"
	"path/filepath"

	"github.com/legeana/lontra-go/internal/manifest"
	"github.com/legeana/lontra-go/internal/module"
	"github.com/legeana/lontra-go/internal/registry"
)

// mkdirModule creates a plain directory under the destination prefix
// and registers it as a User Directory row, so uninstall can remove it
// again once empty.
type mkdirModule struct {
	module.Base
	path string
}

func (m mkdirModule) Install(rules module.Rules, reg registry.Registry) error {
	if err := ensureDir(m.path); err != nil {
		return fmt.Errorf("mkdir %s: %w", m.path, err)
	}
	return reg.RegisterUserFile(bgctx(), registry.FilePath{Type: registry.Directory, Path: m.path})
}

type mkdirBuilder struct{ manifest.BaseCommand }

func (mkdirBuilder) Name() string { return "mkdir" }
func (mkdirBuilder) Help() string {
	return "mkdir <directory>\n\tcreate a directory in prefix"
}

func (mkdirBuilder) Build(bc manifest.BuildContext, args []manifest.Argument) (manifest.Command, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("mkdir: expected 1 argument, got %d", len(args))
	}
	return &mkdirStatement{dir: args[0]}, nil
}

type mkdirStatement struct {
	manifest.BaseCommand
	dir manifest.Argument
}

func (s *mkdirStatement) Run(ctx *manifest.Context) (manifest.StatementResult, error) {
	dir, err := s.dir.Expand(ctx)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	return manifest.StatementResult{Module: mkdirModule{path: filepath.Join(ctx.Prefix(), dir)}}, nil
}
