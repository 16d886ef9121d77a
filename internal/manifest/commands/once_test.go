package commands

import (
	"context"
	"testing"

	"github.com/legeana/lontra-go/internal/manifest"
	"github.com/legeana/lontra-go/internal/module"
	"github.com/legeana/lontra-go/internal/registry"
)

// fakeConfigRegistry is a minimal registry.Registry backed by an
// in-memory map, used to observe once's config_get/config_set calls
// without needing a real SQLite file.
type fakeConfigRegistry struct {
	cfg map[string]string
}

func newFakeConfigRegistry() *fakeConfigRegistry {
	return &fakeConfigRegistry{cfg: map[string]string{}}
}

func (f *fakeConfigRegistry) UserFiles(context.Context) ([]registry.FilePath, error) { return nil, nil }
func (f *fakeConfigRegistry) RegisterUserFile(context.Context, registry.FilePath) error {
	return nil
}
func (f *fakeConfigRegistry) ClearUserFiles(context.Context) error { return nil }
func (f *fakeConfigRegistry) StateFiles(context.Context) ([]registry.FilePath, error) {
	return nil, nil
}
func (f *fakeConfigRegistry) RegisterStateFile(context.Context, registry.FilePath) error {
	return nil
}
func (f *fakeConfigRegistry) ClearStateFiles(context.Context) error { return nil }
func (f *fakeConfigRegistry) ConfigGet(_ context.Context, key, def string) (string, error) {
	if v, ok := f.cfg[key]; ok {
		return v, nil
	}
	return def, nil
}
func (f *fakeConfigRegistry) ConfigSet(_ context.Context, key, value string) error {
	f.cfg[key] = value
	return nil
}

type countingModule struct {
	module.Base
	installs int
}

func (m *countingModule) Install(rules module.Rules, reg registry.Registry) error {
	m.installs++
	return nil
}

func TestOnceRunsInstallOnlyOnce(t *testing.T) {
	inner := &countingModule{}
	b := onceBuilder{}
	mod, err := b.Build(manifest.BuildContext{WorkDir: "/repo/pkg"}, nil, inner)
	if err != nil {
		t.Fatal(err)
	}
	reg := newFakeConfigRegistry()
	if err := mod.Install(module.Rules{}, reg); err != nil {
		t.Fatal(err)
	}
	if err := mod.Install(module.Rules{}, reg); err != nil {
		t.Fatal(err)
	}
	if inner.installs != 1 {
		t.Fatalf("expected the wrapped module to install exactly once, got %d", inner.installs)
	}
}

func TestOnceForceReinstallReruns(t *testing.T) {
	inner := &countingModule{}
	b := onceBuilder{}
	mod, err := b.Build(manifest.BuildContext{WorkDir: "/repo/pkg"}, nil, inner)
	if err != nil {
		t.Fatal(err)
	}
	reg := newFakeConfigRegistry()
	if err := mod.Install(module.Rules{}, reg); err != nil {
		t.Fatal(err)
	}
	if err := mod.Install(module.Rules{ForceReinstall: true}, reg); err != nil {
		t.Fatal(err)
	}
	if inner.installs != 2 {
		t.Fatalf("expected ForceReinstall to rerun the wrapped module, got %d installs", inner.installs)
	}
}

func TestOnceIsKeyedByWorkDir(t *testing.T) {
	innerA := &countingModule{}
	innerB := &countingModule{}
	b := onceBuilder{}
	modA, err := b.Build(manifest.BuildContext{WorkDir: "/repo/pkg-a"}, nil, innerA)
	if err != nil {
		t.Fatal(err)
	}
	modB, err := b.Build(manifest.BuildContext{WorkDir: "/repo/pkg-b"}, nil, innerB)
	if err != nil {
		t.Fatal(err)
	}
	reg := newFakeConfigRegistry()
	if err := modA.Install(module.Rules{}, reg); err != nil {
		t.Fatal(err)
	}
	if err := modB.Install(module.Rules{}, reg); err != nil {
		t.Fatal(err)
	}
	if innerA.installs != 1 || innerB.installs != 1 {
		t.Fatalf("expected both packages' once-wrapped modules to run independently, got %d and %d", innerA.installs, innerB.installs)
	}
}

func TestOnceRejectsArguments(t *testing.T) {
	b := onceBuilder{}
	if _, err := b.Build(manifest.BuildContext{WorkDir: "/repo/pkg"}, []manifest.Argument{manifest.Raw("x")}, &countingModule{}); err == nil {
		t.Fatal("expected once to reject arguments")
	}
}
