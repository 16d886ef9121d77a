package localstate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"

	"github.com/legeana/lontra-go/internal/registry"
)

// PreInstallDir creates the shadow directory itself, for a LinkedDir or
// EphemeralDir: "the shadow path's parent directory is created (for
// files) or the shadow path itself (for directories)" (§4.4).
func PreInstallDir(path string) error {
	if err := EnsureDir(path); err != nil {
		return xerrors.Errorf("creating shadow directory %s: %w", path, err)
	}
	return nil
}

// PreInstallFile creates the shadow file's parent directory, for a
// LinkedFile or EphemeralFile.
func PreInstallFile(path string) error {
	if err := EnsureParentDir(path); err != nil {
		return xerrors.Errorf("creating shadow directory for %s: %w", path, err)
	}
	return nil
}

// InstallSymlink atomically creates l.Link -> l.Path, replacing any
// existing non-directory entry at l.Link, and registers it as a User
// Symlink file. This is the "install" phase half of a LinkedDir/
// LinkedFile: the shadow storage must already exist (see
// PreInstallDir/PreInstallFile).
func InstallSymlink(ctx context.Context, reg registry.Registry, l Linked) error {
	if err := EnsureParentDir(l.Link); err != nil {
		return xerrors.Errorf("creating parent of %s: %w", l.Link, err)
	}
	if err := atomicSymlink(l.Path, l.Link); err != nil {
		return xerrors.Errorf("linking %s -> %s: %w", l.Link, l.Path, err)
	}
	if err := reg.RegisterUserFile(ctx, registry.FilePath{Type: registry.Symlink, Path: l.Link}); err != nil {
		return xerrors.Errorf("registering %s: %w", l.Link, err)
	}
	return nil
}

// atomicSymlink creates target -> dest, replacing whatever currently
// occupies dest. It builds the link at a sibling temp path and renames
// it into place (the same temp-then-rename shape the teacher uses for
// atomic file replacement via github.com/google/renameio in
// internal/install/install.go's hookinstall), so a concurrent reader
// never observes a missing or half-written symlink.
func atomicSymlink(target, dest string) error {
	if existing, err := os.Readlink(dest); err == nil && existing == target {
		return nil // idempotent: already correct
	}
	tmp := filepath.Join(filepath.Dir(dest), fmt.Sprintf(".%s.tmp%d", filepath.Base(dest), os.Getpid()))
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Symlink(target, tmp); err != nil {
		return err
	}
	return os.Rename(tmp, dest)
}

// RegisterEphemeralDir records path as a State Directory row: the
// install-phase half of an EphemeralDir/EphemeralFile, which has no
// user-visible symlink to create.
func RegisterEphemeralDir(ctx context.Context, reg registry.Registry, path string) error {
	return reg.RegisterStateFile(ctx, registry.FilePath{Type: registry.Directory, Path: path})
}
