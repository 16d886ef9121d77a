package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/legeana/lontra-go/internal/manifest"
	"github.com/legeana/lontra-go/internal/module"
	"github.com/legeana/lontra-go/internal/registry"
)

type recordingRegistry struct {
	user []registry.FilePath
}

func (r *recordingRegistry) UserFiles(context.Context) ([]registry.FilePath, error) {
	return r.user, nil
}
func (r *recordingRegistry) RegisterUserFile(_ context.Context, p registry.FilePath) error {
	r.user = append(r.user, p)
	return nil
}
func (r *recordingRegistry) ClearUserFiles(context.Context) error { r.user = nil; return nil }
func (r *recordingRegistry) StateFiles(context.Context) ([]registry.FilePath, error) {
	return nil, nil
}
func (r *recordingRegistry) RegisterStateFile(context.Context, registry.FilePath) error {
	return nil
}
func (r *recordingRegistry) ClearStateFiles(context.Context) error { return nil }
func (r *recordingRegistry) ConfigGet(_ context.Context, _, def string) (string, error) {
	return def, nil
}
func (r *recordingRegistry) ConfigSet(context.Context, string, string) error { return nil }

func TestRenderUsesSourceFileAndDestinationFileHelpers(t *testing.T) {
	workdir := t.TempDir()
	home := t.TempDir()
	prefix := t.TempDir()

	tmplPath := filepath.Join(workdir, "greeting.tmpl")
	tmplBody := "source={{ source_file }} dest={{ destination_file }} workdir={{ workdir }} prefix={{ prefix }}\n"
	if err := os.WriteFile(tmplPath, []byte(tmplBody), 0o600); err != nil {
		t.Fatal(err)
	}

	inv := manifest.NewInventory()
	Register(inv)

	b, ok := inv.Command("render")
	if !ok {
		t.Fatal("render command not registered")
	}
	cmd, err := b.Build(manifest.BuildContext{WorkDir: workdir}, []manifest.Argument{manifest.Raw("greeting.tmpl")})
	if err != nil {
		t.Fatal(err)
	}
	stmt := cmd.(manifest.StatementCommand)

	ctx := manifest.NewContext(prefix, home)
	result, err := stmt.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if result.Module == nil {
		t.Fatal("expected a module to install")
	}

	reg := &recordingRegistry{}
	if err := result.Module.Install(module.Rules{}, reg); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(prefix, "greeting.tmpl")
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := "source=" + tmplPath + " dest=" + out + " workdir=" + workdir + " prefix=" + prefix + "\n"
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if len(reg.user) != 1 || reg.user[0].Path != out {
		t.Fatalf("expected the rendered output to be registered as a user file, got %+v", reg.user)
	}
}

func TestRenderMatchesSourcePermissions(t *testing.T) {
	workdir := t.TempDir()
	home := t.TempDir()
	prefix := t.TempDir()

	tmplPath := filepath.Join(workdir, "exe.tmpl")
	if err := os.WriteFile(tmplPath, []byte("hi\n"), 0o751); err != nil {
		t.Fatal(err)
	}

	inv := manifest.NewInventory()
	Register(inv)
	b, _ := inv.Command("render")
	cmd, err := b.Build(manifest.BuildContext{WorkDir: workdir}, []manifest.Argument{manifest.Raw("exe.tmpl")})
	if err != nil {
		t.Fatal(err)
	}
	stmt := cmd.(manifest.StatementCommand)

	ctx := manifest.NewContext(prefix, home)
	result, err := stmt.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := result.Module.Install(module.Rules{}, &recordingRegistry{}); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(prefix, "exe.tmpl")
	fi, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o751 {
		t.Fatalf("got mode %o, want %o", fi.Mode().Perm(), 0o751)
	}
}

func TestRenderToUsesDistinctDestination(t *testing.T) {
	workdir := t.TempDir()
	home := t.TempDir()
	prefix := t.TempDir()

	tmplPath := filepath.Join(workdir, "src.tmpl")
	if err := os.WriteFile(tmplPath, []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	inv := manifest.NewInventory()
	Register(inv)
	b, ok := inv.Command("render_to")
	if !ok {
		t.Fatal("render_to command not registered")
	}
	cmd, err := b.Build(manifest.BuildContext{WorkDir: workdir}, []manifest.Argument{
		manifest.Raw("dest.txt"), manifest.Raw("src.tmpl"),
	})
	if err != nil {
		t.Fatal(err)
	}
	stmt := cmd.(manifest.StatementCommand)
	ctx := manifest.NewContext(prefix, home)
	result, err := stmt.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := result.Module.Install(module.Rules{}, &recordingRegistry{}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(prefix, "dest.txt")); err != nil {
		t.Fatalf("expected render_to to write to dest.txt: %v", err)
	}
}
