// Package pipeline implements the driver described by §4.10: it
// discovers repositories, evaluates their manifests into module trees,
// opens the registry, and orchestrates the four lifecycle phases in
// the right order with the right Rules.
package pipeline

import (
	"context"
	"log"
	"path/filepath"

	"golang.org/x/xerrors"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	lontra "github.com/legeana/lontra-go"
	"github.com/legeana/lontra-go/internal/loader"
	"github.com/legeana/lontra-go/internal/localstate"
	"github.com/legeana/lontra-go/internal/manifest"
	"github.com/legeana/lontra-go/internal/module"
	"github.com/legeana/lontra-go/internal/registry"
	"github.com/legeana/lontra-go/internal/uninstall"
)

// Driver owns everything a pipeline run needs beyond the discovered
// repository tree: the manifest inventory, the home/prefix root for
// top-level Context construction, and the registry path.
type Driver struct {
	Inventory    *manifest.Inventory
	Root         string // repository discovery root
	Prefix       string // destination prefix (normally $HOME)
	Home         string
	RegistryPath string
}

// Run executes the full install/update/reinstall pipeline for verb
// (§4.10 steps 1-7).
func (d *Driver) Run(ctx context.Context, verb Verb, keepGoing, userDeps bool) error {
	rules, err := RulesForVerb(verb, keepGoing, userDeps)
	if err != nil {
		return err
	}

	repos, err := loader.Discover(d.Root)
	if err != nil {
		return xerrors.Errorf("discovering repositories: %w", err)
	}
	mod, err := d.buildModuleTree(repos)
	if err != nil {
		return xerrors.Errorf("evaluating manifests: %w", err)
	}

	reg, err := registry.Open(ctx, d.RegistryPath)
	if err != nil {
		return xerrors.Errorf("opening registry: %w", err)
	}
	defer func() {
		if cerr := reg.Close(); cerr != nil {
			log.Printf("pipeline: closing registry: %v", cerr)
		}
	}()

	if err := runKeepGoing(mod.PreUninstall, rules); err != nil {
		return xerrors.Errorf("pre_uninstall: %w", err)
	}
	stateRoot, cacheRoot, err := localstate.Roots()
	if err != nil {
		return xerrors.Errorf("resolving shadow storage roots: %w", err)
	}
	opts := uninstall.Options{Roots: []string{stateRoot, cacheRoot}}
	if err := uninstall.All(ctx, reg, opts); err != nil {
		return xerrors.Errorf("uninstalling prior generation: %w", err)
	}
	// The new generation is allocated lazily by the registry's own
	// currentUpdate on the first write below; no explicit CreateUpdate
	// call is needed here.

	if err := mod.PreInstall(rules, reg); err != nil {
		return xerrors.Errorf("pre_install: %w", err)
	}
	if err := mod.Install(rules, reg); err != nil {
		return xerrors.Errorf("install: %w", err)
	}
	if err := mod.PostInstall(rules, reg); err != nil {
		return xerrors.Errorf("post_install: %w", err)
	}
	if err := reg.FinishGeneration(ctx); err != nil {
		return xerrors.Errorf("finishing generation: %w", err)
	}
	return nil
}

// SystemInstall runs only discovery and the system_install phase
// (§4.10: "a separate verb... runs only step 2 plus system_install").
func (d *Driver) SystemInstall(ctx context.Context, keepGoing, userDeps bool) error {
	rules, err := RulesForVerb(VerbSystemInstall, keepGoing, userDeps)
	if err != nil {
		return err
	}
	repos, err := loader.Discover(d.Root)
	if err != nil {
		return xerrors.Errorf("discovering repositories: %w", err)
	}
	mod, err := d.buildModuleTree(repos)
	if err != nil {
		return xerrors.Errorf("evaluating manifests: %w", err)
	}
	return mod.SystemInstall(rules)
}

func runKeepGoing(phase func(module.Rules) error, rules module.Rules) error {
	if err := phase(rules); err != nil {
		if !rules.KeepGoing {
			return err
		}
		log.Printf("pipeline: pre_uninstall failed, continuing (keep_going): %v", err)
	}
	return nil
}

// buildModuleTree evaluates every package's MANIFEST (if any) across
// every repository, in dependency-then-discovery order, and returns the
// combined tree as a single module.Seq.
func (d *Driver) buildModuleTree(repos []loader.Repository) (module.Module, error) {
	tags := lontra.CurrentTags()
	enabledRepos := make([]loader.Repository, 0, len(repos))
	for _, repo := range repos {
		if !repo.Meta.Enabled(tags) {
			log.Printf("pipeline: repository %s skipped (requires not satisfied)", repo.Path)
			continue
		}
		enabledRepos = append(enabledRepos, repo)
	}

	ordered, err := orderPackages(enabledRepos)
	if err != nil {
		return nil, err
	}
	ev := manifest.NewEvaluator(d.Inventory)
	root := manifest.NewContext(d.Prefix, d.Home)
	var seq module.Seq
	for _, pkg := range ordered {
		if pkg.Manifest == "" {
			continue
		}
		rel, err := filepath.Rel(pkg.RepoPath, pkg.Path)
		if err != nil {
			return nil, xerrors.Errorf("package %s: not under its repository %s: %w", pkg.Path, pkg.RepoPath, err)
		}
		pkgCtx := root.Child(rel)
		mod, err := ev.EvaluateFile(pkg.Manifest, pkgCtx, "")
		if err != nil {
			return nil, xerrors.Errorf("package %s: %w", pkg.Path, err)
		}
		// The manifest must be syntactically validated above even when the
		// package itself is gated off: only its evaluated module tree is
		// withheld from execution.
		if !pkg.Meta.Enabled(tags) {
			log.Printf("pipeline: package %s skipped (requires not satisfied)", pkg.Path)
			continue
		}
		seq = append(seq, module.Wrap(mod, pkg.Path))
	}
	return seq, nil
}

// orderPackages returns every package across every repository,
// respecting declared package.toml dependency edges (by name) via a
// topological sort, and falling back to lexicographic discovery order
// among packages with no dependency relationship (topo.SortStabilized
// with a nil order breaks ties by node ID, and orderPackages assigns IDs
// in discovery order). A dependency entry whose own requires criterion is not
// satisfied contributes no edges.
func orderPackages(repos []loader.Repository) ([]loader.Package, error) {
	tags := lontra.CurrentTags()
	var all []loader.Package
	byName := map[string]int64{}
	g := simple.NewDirectedGraph()
	var id int64
	for _, repo := range repos {
		for _, pkg := range repo.Packages {
			all = append(all, pkg)
			g.AddNode(simple.Node(id))
			if pkg.Meta.Name != "" {
				byName[pkg.Meta.Name] = id
			}
			id++
		}
	}
	for i, pkg := range all {
		for _, dep := range pkg.Meta.Dependencies {
			if !dep.Enabled(tags) {
				continue
			}
			for _, name := range dep.Names {
				if depID, ok := byName[name]; ok {
					g.SetEdge(g.NewEdge(simple.Node(depID), simple.Node(int64(i))))
				}
			}
		}
	}
	sorted, err := topo.SortStabilized(g, nil)
	if err != nil {
		if _, ok := err.(topo.Unorderable); ok {
			log.Printf("pipeline: dependency cycle detected, falling back to discovery order: %v", err)
			return all, nil
		}
		return nil, xerrors.Errorf("ordering packages: %w", err)
	}
	out := make([]loader.Package, 0, len(sorted))
	for _, n := range sorted {
		out = append(out, all[n.ID()])
	}
	return out, nil
}
