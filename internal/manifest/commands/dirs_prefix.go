package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/legeana/lontra-go/internal/manifest"
)

// dirsPrefixBuilder implements the "prefix_config"/"prefix_cache" family:
// set the destination prefix to a subdirectory of one of the platform
// base directories, rather than an explicit path.
type dirsPrefixBuilder struct {
	manifest.BaseCommand
	name   string
	baseFn func() (string, error)
}

func (b dirsPrefixBuilder) Name() string { return b.name }
func (b dirsPrefixBuilder) Help() string {
	return fmt.Sprintf("%s [<subdirectory>]\n\tset the destination prefix to this platform directory", b.name)
}

func (b dirsPrefixBuilder) Build(bc manifest.BuildContext, args []manifest.Argument) (manifest.Command, error) {
	if len(args) > 1 {
		return nil, fmt.Errorf("%s: expected at most 1 argument, got %d", b.name, len(args))
	}
	var subdir manifest.Argument
	if len(args) == 1 {
		subdir = args[0]
	}
	return &dirsPrefixStatement{name: b.name, baseFn: b.baseFn, subdir: subdir}, nil
}

type dirsPrefixStatement struct {
	manifest.BaseCommand
	name   string
	baseFn func() (string, error)
	subdir manifest.Argument
}

func (s *dirsPrefixStatement) Run(ctx *manifest.Context) (manifest.StatementResult, error) {
	base, err := s.baseFn()
	if err != nil {
		return manifest.StatementResult{}, fmt.Errorf("%s: %w", s.name, err)
	}
	if s.subdir == nil {
		ctx.SetPrefix(base)
		return manifest.StatementResult{}, nil
	}
	sub, err := s.subdir.Expand(ctx)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	ctx.SetPrefix(filepath.Join(base, sub))
	return manifest.StatementResult{}, nil
}

func newDirsPrefixBuilders() []manifest.CommandBuilder {
	return []manifest.CommandBuilder{
		dirsPrefixBuilder{name: "prefix_home", baseFn: os.UserHomeDir},
		dirsPrefixBuilder{name: "prefix_config", baseFn: os.UserConfigDir},
		dirsPrefixBuilder{name: "prefix_cache", baseFn: os.UserCacheDir},
	}
}
