// Command lontra applies declarative configuration manifests to the
// local machine: it discovers repositories of packages, evaluates
// their MANIFEST files, and realises the result through a registry
// that makes every change reversible.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	lontra "github.com/legeana/lontra-go"
)

var (
	debug      = flag.Bool("debug", false, "enable debug mode: format error messages with additional detail")
	cpuprofile = flag.String("cpuprofile", "", "path to store a CPU profile at")
	memprofile = flag.String("memprofile", "", "path to store a memory profile at")
)

func funcmain() error {
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return err
		}
		pprof.StartCPUProfile(f)
		lontra.RegisterAtExit(func() error {
			pprof.StopCPUProfile()
			return nil
		})
	}

	type cmd struct {
		fn func(ctx context.Context, args []string) error
	}
	verbs := map[string]cmd{
		"install":          {install},
		"update":           {update},
		"reinstall":        {reinstall},
		"system-install":   {systemInstall},
		"uninstall":        {uninstallVerb},
		"tags":             {tagsVerb},
		"list":             {list},
		"manifest-help":    {manifestHelp},
		"migrate-registry": {migrateRegistry},
	}

	args := flag.Args()
	verb := "install"
	if len(args) > 0 {
		verb, args = args[0], args[1:]
	}

	if verb == "help" {
		fmt.Fprintf(os.Stderr, "lontra [-flags] <command> [-flags] <args>\n")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "\tinstall        - install every discovered package\n")
		fmt.Fprintf(os.Stderr, "\tupdate         - re-run install, forcing post_install_update hooks\n")
		fmt.Fprintf(os.Stderr, "\treinstall      - uninstall then fully reinstall\n")
		fmt.Fprintf(os.Stderr, "\tsystem-install - run only the system_install phase\n")
		fmt.Fprintf(os.Stderr, "\tuninstall      - remove everything the registry knows about\n")
		fmt.Fprintf(os.Stderr, "\ttags           - print the tags this host currently matches\n")
		fmt.Fprintf(os.Stderr, "\tlist           - list discovered repositories and packages\n")
		fmt.Fprintf(os.Stderr, "\tmanifest-help  - list every manifest command\n")
		fmt.Fprintf(os.Stderr, "\tmigrate-registry - apply pending registry schema migrations and exit\n")
		lontra.RunAtExit()
		os.Exit(2)
	}

	ctx, canc := lontra.InterruptibleContext()
	defer canc()
	v, ok := verbs[verb]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", verb)
		fmt.Fprintf(os.Stderr, "syntax: lontra <command> [options]\n")
		lontra.RunAtExit()
		os.Exit(2)
	}
	runErr := v.fn(ctx, args)
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			lontra.RunAtExit()
			return fmt.Errorf("could not create memory profile: %w", err)
		}
		defer f.Close()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			lontra.RunAtExit()
			return fmt.Errorf("could not write memory profile: %w", err)
		}
	}
	if err := lontra.RunAtExit(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		if *debug {
			return fmt.Errorf("%s: %+v", verb, runErr)
		}
		return fmt.Errorf("%s: %v", verb, runErr)
	}
	return nil
}

func main() {
	if err := funcmain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
