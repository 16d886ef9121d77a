package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/dustin/go-humanize"

	lontra "github.com/legeana/lontra-go"
	"github.com/legeana/lontra-go/internal/loader"
	"golang.org/x/xerrors"
)

const listHelp = `lontra list [-flags]

List every discovered repository and its packages, marking each
[enabled] or [disabled] against the current host's tags.
`

func list(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("list", flag.ExitOnError)
	fset.Usage = usage(fset, listHelp)
	fset.Parse(args)

	root, err := configRoot()
	if err != nil {
		return xerrors.Errorf("resolving configuration root: %w", err)
	}
	repos, err := loader.Discover(root)
	if err != nil {
		return xerrors.Errorf("discovering repositories: %w", err)
	}

	tags := lontra.CurrentTags()
	totalPackages := 0
	for _, repo := range repos {
		fmt.Printf("%s [%s]\n", repo.Path, enabledLabel(repo.Meta.Enabled(tags)))
		for _, pkg := range repo.Packages {
			name := pkg.Meta.Name
			if name == "" {
				name = pkg.Path
			}
			fmt.Printf("  %s [%s]\n", name, enabledLabel(pkg.Meta.Enabled(tags)))
		}
		totalPackages += len(repo.Packages)
	}
	fmt.Printf("%s repositories, %s packages\n",
		humanize.Comma(int64(len(repos))), humanize.Comma(int64(totalPackages)))
	return nil
}

func enabledLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
