package main

import (
	"context"
	"flag"
	"fmt"

	lontra "github.com/legeana/lontra-go"
)

const tagsHelp = `lontra tags [-flags]

Print every tag this host currently matches (os=..., distro=...,
feature=...), one per line.
`

func tagsVerb(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("tags", flag.ExitOnError)
	fset.Usage = usage(fset, tagsHelp)
	fset.Parse(args)

	t := lontra.CurrentTags()
	fmt.Printf("os=%s\n", t.OS)
	fmt.Printf("family=%s\n", t.Family)
	if t.Distro != "" {
		fmt.Printf("distro=%s\n", t.Distro)
	}
	for _, like := range t.DistroLike {
		fmt.Printf("distro_like=%s\n", like)
	}
	fmt.Printf("hostname=%s\n", t.Hostname)
	fmt.Printf("uid=%d\n", t.UID)
	for feature := range t.Features {
		fmt.Printf("feature=%s\n", feature)
	}
	return nil
}
