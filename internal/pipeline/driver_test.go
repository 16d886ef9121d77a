package pipeline

import (
	"testing"

	"github.com/legeana/lontra-go/internal/loader"
)

func TestRulesForVerb(t *testing.T) {
	cases := []struct {
		verb           Verb
		wantUpdate     bool
		wantReinstall  bool
	}{
		{VerbInstall, false, false},
		{VerbUpdate, true, false},
		{VerbReinstall, true, true},
		{VerbSystemInstall, false, false},
	}
	for _, c := range cases {
		rules, err := RulesForVerb(c.verb, false, false)
		if err != nil {
			t.Fatalf("%s: %v", c.verb, err)
		}
		if rules.ForceUpdate != c.wantUpdate {
			t.Errorf("%s: ForceUpdate = %v, want %v", c.verb, rules.ForceUpdate, c.wantUpdate)
		}
		if rules.ForceReinstall != c.wantReinstall {
			t.Errorf("%s: ForceReinstall = %v, want %v", c.verb, rules.ForceReinstall, c.wantReinstall)
		}
	}
}

func TestRulesForVerbUnknown(t *testing.T) {
	if _, err := RulesForVerb("bogus", false, false); err == nil {
		t.Fatal("expected an error for an unknown verb")
	}
}

func pkg(name string, deps ...string) loader.Package {
	var d []loader.Dependency
	if len(deps) > 0 {
		d = append(d, loader.Dependency{Names: deps})
	}
	return loader.Package{
		Path: "/repo/" + name,
		Meta: loader.PackageMeta{Name: name, Dependencies: d},
	}
}

func TestOrderPackagesRespectsDependencies(t *testing.T) {
	repos := []loader.Repository{{
		Path: "/repo",
		Packages: []loader.Package{
			pkg("zlib-config", "base"),
			pkg("base"),
			pkg("editor", "zlib-config"),
		},
	}}
	ordered, err := orderPackages(repos)
	if err != nil {
		t.Fatal(err)
	}
	pos := map[string]int{}
	for i, p := range ordered {
		pos[p.Meta.Name] = i
	}
	if pos["base"] > pos["zlib-config"] {
		t.Errorf("expected base before zlib-config, got order %v", ordered)
	}
	if pos["zlib-config"] > pos["editor"] {
		t.Errorf("expected zlib-config before editor, got order %v", ordered)
	}
}

func TestOrderPackagesFallsBackOnCycle(t *testing.T) {
	repos := []loader.Repository{{
		Path: "/repo",
		Packages: []loader.Package{
			pkg("a", "b"),
			pkg("b", "a"),
		},
	}}
	ordered, err := orderPackages(repos)
	if err != nil {
		t.Fatal(err)
	}
	if len(ordered) != 2 {
		t.Fatalf("expected both packages preserved on cycle fallback, got %v", ordered)
	}
}

func TestOrderPackagesNoDependencies(t *testing.T) {
	repos := []loader.Repository{{
		Path: "/repo",
		Packages: []loader.Package{
			pkg("alpha"),
			pkg("beta"),
		},
	}}
	ordered, err := orderPackages(repos)
	if err != nil {
		t.Fatal(err)
	}
	if ordered[0].Meta.Name != "alpha" || ordered[1].Meta.Name != "beta" {
		t.Errorf("expected discovery order preserved, got %v", ordered)
	}
}
