// Package uninstall reverses what the registry recorded for a purpose:
// it deletes recorded files, then empty directories, in reverse
// insertion order, and is used both for the explicit "uninstall" verb
// and by the pipeline driver to clear a stale prior generation before
// a new install (§4.6).
package uninstall

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/xerrors"

	"github.com/legeana/lontra-go/internal/registry"
)

// Options controls how aggressively Purpose reverses rows.
type Options struct {
	// Roots are the shadow-storage namespace directories a Symlink row
	// must resolve inside for its target to be considered ours to
	// remove; a symlink now pointing outside all of them (replaced by
	// the user) is left alone. Normally localstate.Roots()'s two
	// values.
	Roots []string
}

// Purpose deletes every row of the given purpose from reg, in reverse
// insertion order, per §4.6's uninstall algorithm, then clears the
// corresponding registry rows.
func Purpose(ctx context.Context, reg registry.Registry, purpose registry.Purpose, opts Options) error {
	var files []registry.FilePath
	var err error
	switch purpose {
	case registry.User:
		files, err = reg.UserFiles(ctx)
	case registry.State:
		files, err = reg.StateFiles(ctx)
	default:
		return xerrors.Errorf("uninstall: unknown purpose %v", purpose)
	}
	if err != nil {
		return xerrors.Errorf("uninstall: listing %v files: %w", purpose, err)
	}
	for i := len(files) - 1; i >= 0; i-- {
		if err := removeOne(files[i], opts.Roots); err != nil {
			return xerrors.Errorf("uninstall: %s: %w", files[i].Path, err)
		}
	}
	switch purpose {
	case registry.User:
		err = reg.ClearUserFiles(ctx)
	case registry.State:
		err = reg.ClearStateFiles(ctx)
	}
	if err != nil {
		return xerrors.Errorf("uninstall: clearing %v rows: %w", purpose, err)
	}
	return nil
}

// All reverses both User and State purposes, User first (its symlinks
// may point into State-owned shadow directories, so directories must
// not be pruned before the links referencing them are gone).
func All(ctx context.Context, reg registry.Registry, opts Options) error {
	if err := Purpose(ctx, reg, registry.User, opts); err != nil {
		return err
	}
	return Purpose(ctx, reg, registry.State, opts)
}

func removeOne(fp registry.FilePath, roots []string) error {
	switch fp.Type {
	case registry.Symlink:
		return removeSymlink(fp.Path, roots)
	case registry.Directory:
		return removeEmptyDir(fp.Path)
	case registry.File:
		return removeFile(fp.Path)
	default:
		return xerrors.Errorf("unknown file type %v for %s", fp.Type, fp.Path)
	}
}

// removeSymlink deletes path iff it is still a symlink pointing inside
// one of roots: "a symlink whose target has been replaced by the user
// is skipped with a warning, so user-replaced links are preserved"
// (§4.6). With no roots given, any symlink at path is removed.
func removeSymlink(path string, roots []string) error {
	target, err := os.Readlink(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(roots) > 0 && !withinAnyRoot(target, roots) {
		log.Printf("uninstall: %s no longer points inside owned storage, skipping", path)
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func withinAnyRoot(target string, roots []string) bool {
	for _, root := range roots {
		if withinRoot(target, root) {
			return true
		}
	}
	return false
}

func withinRoot(target, root string) bool {
	if !filepath.IsAbs(target) {
		return false
	}
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// removeEmptyDir deletes path iff it exists and is empty: "removed only
// when it is empty" (§4.6).
func removeEmptyDir(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(entries) > 0 {
		log.Printf("uninstall: %s is not empty, skipping", path)
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// removeFile deletes an independent regular file unconditionally: it
// has no shared target the way a Symlink does, so there is nothing to
// protect against.
func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
