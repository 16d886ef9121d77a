package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"

	"github.com/legeana/lontra-go/internal/manifest/commands"
	"github.com/legeana/lontra-go/internal/pipeline"

	"github.com/legeana/lontra-go/internal/manifest"
)

const installHelp = `lontra install [-flags]

Discover every repository under the configuration root and bring the
local machine in line with what their manifests describe.
`

// pipelineFlags are the knobs shared by install, update, reinstall and
// system-install.
type pipelineFlags struct {
	keepGoing  *bool
	noUserDeps *bool
}

func registerPipelineFlags(fset *flag.FlagSet) *pipelineFlags {
	return &pipelineFlags{
		keepGoing:  fset.Bool("keep-going", false, "continue past a failing package's pre_uninstall instead of aborting"),
		noUserDeps: fset.Bool("no-user-deps", false, "skip user_dependencies declared by packages"),
	}
}

func newDriver() (*pipeline.Driver, error) {
	root, err := configRoot()
	if err != nil {
		return nil, xerrors.Errorf("resolving configuration root: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, xerrors.Errorf("creating configuration root %s: %w", root, err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, xerrors.Errorf("resolving home directory: %w", err)
	}
	inv := manifest.NewInventory()
	commands.Register(inv)
	return &pipeline.Driver{
		Inventory:    inv,
		Root:         root,
		Prefix:       home,
		Home:         home,
		RegistryPath: filepath.Join(root, registryFileName),
	}, nil
}

func runPipeline(ctx context.Context, name string, args []string, verb pipeline.Verb) error {
	fset := flag.NewFlagSet(name, flag.ExitOnError)
	fset.Usage = usage(fset, installHelp)
	flags := registerPipelineFlags(fset)
	fset.Parse(args)

	d, err := newDriver()
	if err != nil {
		return err
	}
	log.Printf("%s: configuration root %s", name, d.Root)
	return d.Run(ctx, verb, *flags.keepGoing, !*flags.noUserDeps)
}

func install(ctx context.Context, args []string) error {
	return runPipeline(ctx, "install", args, pipeline.VerbInstall)
}

func update(ctx context.Context, args []string) error {
	return runPipeline(ctx, "update", args, pipeline.VerbUpdate)
}

func reinstall(ctx context.Context, args []string) error {
	return runPipeline(ctx, "reinstall", args, pipeline.VerbReinstall)
}
