package uninstall_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/legeana/lontra-go/internal/registry"
	"github.com/legeana/lontra-go/internal/uninstall"
)

// fakeRegistry is a minimal in-memory registry.Registry used only to
// observe which rows Purpose clears, mirroring the teacher's own
// preference for small hand-written fakes over a mocking framework.
type fakeRegistry struct {
	user, state []registry.FilePath
}

func (f *fakeRegistry) UserFiles(context.Context) ([]registry.FilePath, error) { return f.user, nil }
func (f *fakeRegistry) RegisterUserFile(ctx context.Context, p registry.FilePath) error {
	f.user = append(f.user, p)
	return nil
}
func (f *fakeRegistry) ClearUserFiles(context.Context) error { f.user = nil; return nil }
func (f *fakeRegistry) StateFiles(context.Context) ([]registry.FilePath, error) {
	return f.state, nil
}
func (f *fakeRegistry) RegisterStateFile(ctx context.Context, p registry.FilePath) error {
	f.state = append(f.state, p)
	return nil
}
func (f *fakeRegistry) ClearStateFiles(context.Context) error { f.state = nil; return nil }
func (f *fakeRegistry) ConfigGet(_ context.Context, _, def string) (string, error) {
	return def, nil
}
func (f *fakeRegistry) ConfigSet(context.Context, string, string) error { return nil }

func TestPurposeRemovesSymlinksAndDirs(t *testing.T) {
	tmp := t.TempDir()
	shadow := filepath.Join(tmp, "shadow", "hello")
	if err := os.MkdirAll(filepath.Dir(shadow), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(shadow, []byte("hi\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(tmp, "home", "hello")
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(shadow, dst); err != nil {
		t.Fatal(err)
	}

	reg := &fakeRegistry{
		user: []registry.FilePath{{Type: registry.Symlink, Path: dst}},
	}
	opts := uninstall.Options{Roots: []string{filepath.Join(tmp, "shadow")}}
	if err := uninstall.Purpose(context.Background(), reg, registry.User, opts); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Lstat(dst); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be removed, stat err = %v", dst, err)
	}
	if diff := cmp.Diff([]registry.FilePath(nil), reg.user); diff != "" {
		t.Fatalf("user rows not cleared: diff (-want +got):\n%s", diff)
	}
}

func TestPurposeSkipsReplacedSymlink(t *testing.T) {
	tmp := t.TempDir()
	outside := filepath.Join(tmp, "outside", "hello")
	if err := os.MkdirAll(filepath.Dir(outside), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(outside, []byte("user file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(tmp, "home", "hello")
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		t.Fatal(err)
	}
	// The user replaced the managed symlink with one pointing elsewhere.
	if err := os.Symlink(outside, dst); err != nil {
		t.Fatal(err)
	}

	reg := &fakeRegistry{
		user: []registry.FilePath{{Type: registry.Symlink, Path: dst}},
	}
	opts := uninstall.Options{Roots: []string{filepath.Join(tmp, "shadow")}}
	if err := uninstall.Purpose(context.Background(), reg, registry.User, opts); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Lstat(dst); err != nil {
		t.Fatalf("expected %s to survive, stat err = %v", dst, err)
	}
}

func TestPurposeReverseOrder(t *testing.T) {
	tmp := t.TempDir()
	// Nested directories, registered parent first: only a reverse walk
	// finds each one empty by the time it is reached.
	for _, name := range []string{"a", "a/b", "a/b/c"} {
		dir := filepath.Join(tmp, name)
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	reg := &fakeRegistry{
		state: []registry.FilePath{
			{Type: registry.Directory, Path: filepath.Join(tmp, "a")},
			{Type: registry.Directory, Path: filepath.Join(tmp, "a/b")},
			{Type: registry.Directory, Path: filepath.Join(tmp, "a/b/c")},
		},
	}
	if err := uninstall.Purpose(context.Background(), reg, registry.State, uninstall.Options{}); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a", "a/b", "a/b/c"} {
		if _, err := os.Stat(filepath.Join(tmp, name)); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed", name)
		}
	}
}
