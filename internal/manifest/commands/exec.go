package commands

import (
	"fmt"

	"github.com/legeana/lontra-go/internal/manifest"
	"github.com/legeana/lontra-go/internal/module"
	"github.com/legeana/lontra-go/internal/process"
	"github.com/legeana/lontra-go/internal/registry"
)

// execPhase picks which of the module's phase methods runs the command.
type execPhase int

const (
	execPostInstall execPhase = iota
	execPostInstallUpdate
)

// execModule runs a subprocess in the post-install phase, optionally
// gated on rules.ForceUpdate.
type execModule struct {
	module.Base
	phase execPhase
	dir   string
	argv  []string
}

func (m execModule) PostInstall(rules module.Rules, reg registry.Registry) error {
	if m.phase == execPostInstallUpdate && !rules.ForceUpdate {
		return nil
	}
	cmd := process.New(m.argv[0], m.argv[1:]...).WithDir(m.dir)
	return cmd.Run(bgctx())
}

type execBuilder struct {
	manifest.BaseCommand
	name  string
	phase execPhase
}

func (b execBuilder) Name() string { return b.name }
func (b execBuilder) Help() string {
	return fmt.Sprintf("%s <arg0> [<arg1>...]\n\texecute a command in the post-install phase", b.name)
}

func (b execBuilder) Build(bc manifest.BuildContext, args []manifest.Argument) (manifest.Command, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("%s: expected at least 1 argument", b.name)
	}
	return &execStatement{bc: bc, phase: b.phase, argv: args}, nil
}

type execStatement struct {
	manifest.BaseCommand
	bc    manifest.BuildContext
	phase execPhase
	argv  []manifest.Argument
}

func (s *execStatement) Run(ctx *manifest.Context) (manifest.StatementResult, error) {
	argv, err := expandAll(ctx, s.argv)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	mod := execModule{phase: s.phase, dir: ctx.Prefix(), argv: argv}
	return manifest.StatementResult{Module: mod}, nil
}

func newExecBuilders() []manifest.CommandBuilder {
	return []manifest.CommandBuilder{
		execBuilder{name: "post_install_exec", phase: execPostInstall},
		execBuilder{name: "post_install_update", phase: execPostInstallUpdate},
	}
}
