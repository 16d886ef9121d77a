package main

import (
	"context"
	"flag"
	"path/filepath"

	"golang.org/x/xerrors"

	"github.com/legeana/lontra-go/internal/localstate"
	"github.com/legeana/lontra-go/internal/registry"
	"github.com/legeana/lontra-go/internal/uninstall"
)

const uninstallHelp = `lontra uninstall [-flags]

Remove every file and directory the registry has on record, in
reverse installation order, without reinstalling anything.
`

func uninstallVerb(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("uninstall", flag.ExitOnError)
	fset.Usage = usage(fset, uninstallHelp)
	fset.Parse(args)

	root, err := configRoot()
	if err != nil {
		return xerrors.Errorf("resolving configuration root: %w", err)
	}
	regPath := filepath.Join(root, registryFileName)
	reg, err := registry.Open(ctx, regPath)
	if err != nil {
		return xerrors.Errorf("opening registry %s: %w", regPath, err)
	}
	defer reg.Close()

	stateRoot, cacheRoot, err := localstate.Roots()
	if err != nil {
		return xerrors.Errorf("resolving shadow storage roots: %w", err)
	}
	opts := uninstall.Options{Roots: []string{stateRoot, cacheRoot}}
	return uninstall.All(ctx, reg, opts)
}
