package commands

import (
	"fmt"

	"github.com/legeana/lontra-go/internal/manifest"
)

// prefixBuilder implements "prefix <path>": sets the destination root
// for every file-creating command that follows, in this Context only.
type prefixBuilder struct{ manifest.BaseCommand }

func (prefixBuilder) Name() string { return "prefix" }
func (prefixBuilder) Help() string {
	return "prefix <directory>\n\tset the destination prefix for subsequent commands"
}

func (prefixBuilder) Build(bc manifest.BuildContext, args []manifest.Argument) (manifest.Command, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("prefix: expected 1 argument, got %d", len(args))
	}
	return &prefixStatement{path: args[0]}, nil
}

type prefixStatement struct {
	manifest.BaseCommand
	path manifest.Argument
}

func (s *prefixStatement) Run(ctx *manifest.Context) (manifest.StatementResult, error) {
	p, err := s.path.Expand(ctx)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	ctx.SetPrefix(p)
	return manifest.StatementResult{}, nil
}
