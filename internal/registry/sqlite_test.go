package registry_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/legeana/lontra-go/internal/registry"
)

func openTestRegistry(t *testing.T) *registry.SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.db")
	db, err := registry.Open(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUserFilesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	db := openTestRegistry(t)
	want := []registry.FilePath{
		{Type: registry.Symlink, Path: "/home/u/a"},
		{Type: registry.Symlink, Path: "/home/u/b"},
		{Type: registry.File, Path: "/home/u/c"},
	}
	for _, p := range want {
		if err := db.RegisterUserFile(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	got, err := db.UserFiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("insertion order not preserved: diff (-want +got):\n%s", diff)
	}
}

func TestStateFilesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	db := openTestRegistry(t)
	want := []registry.FilePath{
		{Type: registry.Directory, Path: "/state/a"},
		{Type: registry.Directory, Path: "/state/b"},
	}
	for _, p := range want {
		if err := db.RegisterStateFile(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	got, err := db.StateFiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("insertion order not preserved: diff (-want +got):\n%s", diff)
	}
}

func TestUserAndStateFilesDoNotMix(t *testing.T) {
	ctx := context.Background()
	db := openTestRegistry(t)
	if err := db.RegisterUserFile(ctx, registry.FilePath{Type: registry.Symlink, Path: "/home/u/a"}); err != nil {
		t.Fatal(err)
	}
	if err := db.RegisterStateFile(ctx, registry.FilePath{Type: registry.Directory, Path: "/state/a"}); err != nil {
		t.Fatal(err)
	}
	userFiles, err := db.UserFiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(userFiles) != 1 {
		t.Fatalf("expected 1 user file, got %d: %+v", len(userFiles), userFiles)
	}
	stateFiles, err := db.StateFiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(stateFiles) != 1 {
		t.Fatalf("expected 1 state file, got %d: %+v", len(stateFiles), stateFiles)
	}
}

func TestClearUserFiles(t *testing.T) {
	ctx := context.Background()
	db := openTestRegistry(t)
	if err := db.RegisterUserFile(ctx, registry.FilePath{Type: registry.Symlink, Path: "/home/u/a"}); err != nil {
		t.Fatal(err)
	}
	if err := db.ClearUserFiles(ctx); err != nil {
		t.Fatal(err)
	}
	got, err := db.UserFiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no user files after ClearUserFiles, got %+v", got)
	}
}

func TestConfigGetDefaultWhenUnset(t *testing.T) {
	ctx := context.Background()
	db := openTestRegistry(t)
	v, err := db.ConfigGet(ctx, "missing", "fallback")
	if err != nil {
		t.Fatal(err)
	}
	if v != "fallback" {
		t.Fatalf("got %q, want %q", v, "fallback")
	}
}

func TestConfigSetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestRegistry(t)
	if err := db.ConfigSet(ctx, "once:/repo/pkg:install", "done"); err != nil {
		t.Fatal(err)
	}
	v, err := db.ConfigGet(ctx, "once:/repo/pkg:install", "")
	if err != nil {
		t.Fatal(err)
	}
	if v != "done" {
		t.Fatalf("got %q, want %q", v, "done")
	}
}

func TestConfigSetOverwrites(t *testing.T) {
	ctx := context.Background()
	db := openTestRegistry(t)
	if err := db.ConfigSet(ctx, "k", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := db.ConfigSet(ctx, "k", "v2"); err != nil {
		t.Fatal(err)
	}
	v, err := db.ConfigGet(ctx, "k", "")
	if err != nil {
		t.Fatal(err)
	}
	if v != "v2" {
		t.Fatalf("got %q, want %q", v, "v2")
	}
}

func TestGenerationLazilyAllocated(t *testing.T) {
	ctx := context.Background()
	db := openTestRegistry(t)
	if _, ok := db.Generation(); ok {
		t.Fatal("expected no generation before any write")
	}
	if err := db.RegisterUserFile(ctx, registry.FilePath{Type: registry.Symlink, Path: "/home/u/a"}); err != nil {
		t.Fatal(err)
	}
	gen, ok := db.Generation()
	if !ok {
		t.Fatal("expected a generation to be allocated after the first write")
	}
	if err := db.RegisterUserFile(ctx, registry.FilePath{Type: registry.Symlink, Path: "/home/u/b"}); err != nil {
		t.Fatal(err)
	}
	gen2, _ := db.Generation()
	if gen != gen2 {
		t.Fatalf("expected the generation to stay stable across writes in one session: %v != %v", gen, gen2)
	}
}

func TestFinishGenerationPrunesOthers(t *testing.T) {
	ctx := context.Background()
	db := openTestRegistry(t)

	oldGen, err := db.CreateUpdate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.RegisterFile(ctx, oldGen, registry.User, registry.FilePath{Type: registry.Symlink, Path: "/home/u/stale"}); err != nil {
		t.Fatal(err)
	}

	if err := db.RegisterUserFile(ctx, registry.FilePath{Type: registry.Symlink, Path: "/home/u/fresh"}); err != nil {
		t.Fatal(err)
	}
	if err := db.FinishGeneration(ctx); err != nil {
		t.Fatal(err)
	}

	got, err := db.UserFiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Path != "/home/u/fresh" {
		t.Fatalf("expected only the current generation's file to survive, got %+v", got)
	}
}

func TestFinishGenerationNoOpWithoutWrites(t *testing.T) {
	ctx := context.Background()
	db := openTestRegistry(t)
	if err := db.FinishGeneration(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestOpenReopensMatchingApplicationID(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "foreign.db")
	db, err := registry.Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	db.Close()

	// Re-opening the same (now-initialized) file must succeed and keep
	// the same application_id, rather than clobbering it.
	db2, err := registry.Open(ctx, path)
	if err != nil {
		t.Fatalf("re-opening an existing registry with a matching application_id should succeed: %v", err)
	}
	db2.Close()
}
