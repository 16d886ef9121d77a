package main

import (
	"context"
	"flag"
	"log"
)

const systemInstallHelp = `lontra system-install [-flags]

Run only the system_install phase across every discovered package,
without touching the registry or the user's prefix.
`

func systemInstall(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("system-install", flag.ExitOnError)
	fset.Usage = usage(fset, systemInstallHelp)
	flags := registerPipelineFlags(fset)
	fset.Parse(args)

	d, err := newDriver()
	if err != nil {
		return err
	}
	log.Printf("system-install: configuration root %s", d.Root)
	return d.SystemInstall(ctx, *flags.keepGoing, !*flags.noUserDeps)
}
