package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/legeana/lontra-go/internal/manifest"
	"github.com/legeana/lontra-go/internal/manifest/commands"
)

const manifestHelpHelp = `lontra manifest-help [-flags]

List every manifest command this build understands, with its
one-line description.
`

func manifestHelp(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("manifest-help", flag.ExitOnError)
	fset.Usage = usage(fset, manifestHelpHelp)
	fset.Parse(args)

	inv := manifest.NewInventory()
	commands.Register(inv)
	fmt.Print(inv.Help())
	return nil
}
