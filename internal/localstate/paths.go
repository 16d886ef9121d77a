// Package localstate implements the content-addressed shadow filesystem
// that backs every linked file and ephemeral artifact: it maps
// destination paths to deterministic, hash-addressed storage locations
// rooted under the platform state and cache directories.
package localstate

import (
	"crypto/sha256"
	"encoding/base64"
	"os"
	"path/filepath"
)

// appName is the namespace directory created under the platform
// state/cache roots, analogous to distri's own per-tool subdirectory
// under $XDG_CACHE_HOME (see internal/repo.cacheFn in the teacher).
const appName = "lontra"

// Purpose names one of the five storage subtrees described in §4.4:
// dirs and output live under the state root, ephemeral_dir also lives
// under the state root, files and linked_files live under the cache
// root.
type Purpose string

const (
	PurposeDirs         Purpose = "dirs"
	PurposeOutput        Purpose = "output"
	PurposeEphemeralDir  Purpose = "ephemeral_dir"
	PurposeFiles         Purpose = "files"
	PurposeLinkedFiles   Purpose = "linked_files"
)

// rootKind distinguishes the two top-level families state and cache.
type rootKind int

const (
	kindState rootKind = iota
	kindCache
)

func rootOf(kind rootKind, purpose Purpose) (string, error) {
	var base string
	var err error
	switch kind {
	case kindState:
		base, err = stateDir()
	case kindCache:
		base, err = cacheDir()
	}
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appName, string(purpose)), nil
}

func stateDir() (string, error) {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state"), nil
}

func cacheDir() (string, error) {
	return os.UserCacheDir()
}

// hashPath derives the stable, URL-safe base64 SHA-256 digest of link
// (plus optional resource discriminators): invariant 6, "the shadow
// path derived from a destination path is stable across runs".
func hashPath(link string, discriminators []string) string {
	h := sha256.New()
	h.Write([]byte(link))
	for _, r := range discriminators {
		h.Write([]byte{0})
		h.Write([]byte(r))
	}
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(h.Sum(nil))
}

// Linked is a shadow-storage location paired with the user-visible
// symlink that points at it.
type Linked struct {
	Path string // shadow storage location
	Link string // destination path the symlink will occupy
}

// LinkedDir returns the shadow directory that backs link, under the
// state root's "dirs" purpose.
func LinkedDir(link string, discriminators ...string) (Linked, error) {
	root, err := rootOf(kindState, PurposeDirs)
	if err != nil {
		return Linked{}, err
	}
	return Linked{Path: filepath.Join(root, hashPath(link, discriminators)), Link: link}, nil
}

// LinkedFile returns the shadow file that backs link, under the cache
// root's "linked_files" purpose.
func LinkedFile(link string, discriminators ...string) (Linked, error) {
	root, err := rootOf(kindCache, PurposeLinkedFiles)
	if err != nil {
		return Linked{}, err
	}
	return Linked{Path: filepath.Join(root, hashPath(link, discriminators)), Link: link}, nil
}

// Ephemeral is a shadow-storage location with no corresponding
// destination symlink: it is referenced only by the module that
// created it.
type Ephemeral struct {
	Path string
}

// EphemeralDir returns a shadow directory keyed by workdir (and any
// discriminators), under the state root's "ephemeral_dir" purpose.
func EphemeralDir(workdir string, discriminators ...string) (Ephemeral, error) {
	root, err := rootOf(kindState, PurposeEphemeralDir)
	if err != nil {
		return Ephemeral{}, err
	}
	return Ephemeral{Path: filepath.Join(root, hashPath(workdir, discriminators))}, nil
}

// EphemeralFile returns a shadow file keyed by workdir (and any
// discriminators), under the cache root's "files" purpose.
func EphemeralFile(workdir string, discriminators ...string) (Ephemeral, error) {
	root, err := rootOf(kindCache, PurposeFiles)
	if err != nil {
		return Ephemeral{}, err
	}
	return Ephemeral{Path: filepath.Join(root, hashPath(workdir, discriminators))}, nil
}

// OutputDir returns the state root's "output" directory itself (not
// hash-keyed): the destination for rendered/post-install content that
// is addressed directly by the modules that created it, mirroring the
// teacher's single shared output root used by post-install hooks.
func OutputDir() (string, error) {
	return rootOf(kindState, PurposeOutput)
}

// Roots returns the two top-level namespace directories shadow storage
// lives under: the state root (backing "dirs" and "ephemeral_dir") and
// the cache root (backing "files" and "linked_files"). The uninstaller
// uses these to check that a symlink's target still points inside
// storage this program owns before removing it.
func Roots() (stateRoot, cacheRoot string, err error) {
	s, err := stateDir()
	if err != nil {
		return "", "", err
	}
	c, err := cacheDir()
	if err != nil {
		return "", "", err
	}
	return filepath.Join(s, appName), filepath.Join(c, appName), nil
}

// EnsureParentDir creates the parent directory of path (used before
// creating a file), matching distri's os.MkdirAll(filepath.Dir(dest),
// 0755) idiom throughout internal/build and internal/install.
func EnsureParentDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}

// EnsureDir creates path itself as a directory.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
