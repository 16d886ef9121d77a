package main

import (
	"context"
	"flag"
	"path/filepath"

	"golang.org/x/xerrors"

	"github.com/legeana/lontra-go/internal/registry"
)

const migrateRegistryHelp = `lontra migrate-registry [-flags]

Open the registry, applying any pending schema migrations, then exit
without installing or uninstalling anything.
`

func migrateRegistry(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("migrate-registry", flag.ExitOnError)
	fset.Usage = usage(fset, migrateRegistryHelp)
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
	return reg.Close()
}
