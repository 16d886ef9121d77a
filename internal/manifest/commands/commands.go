// Package commands implements the concrete command, condition and
// with-wrapper builders referenced by name from a manifest, and wires
// them all into a manifest.Inventory via Register. Builders here are the
// only place that depends on localstate, registry, process and tags:
// the manifest package itself knows nothing about what a "symlink" or
// "exec" command actually does.
package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/legeana/lontra-go/internal/manifest"
)

// statFile is a thin os.Stat wrapper used by commands that need to know
// whether a path exists without caring why it might not.
func statFile(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// ensureDir creates path and its parents with the same mode every
// command in this package uses for destination directories.
func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// ensureParentDir creates the parent directory of path.
func ensureParentDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// bgctx is the context passed to registry calls from commands that have
// no caller-supplied context.Context to thread through: module.Module's
// phase methods are not context-aware (they are bounded, local
// filesystem operations, §4.3), so a fresh background context is
// sufficient here.
func bgctx() context.Context {
	return context.Background()
}

// expandAll expands every argument in args against ctx, in order.
func expandAll(ctx *manifest.Context, args []manifest.Argument) ([]string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		v, err := a.Expand(ctx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// expectArgs requires exactly n arguments, returning their expanded
// string values.
func expectArgs(name string, ctx *manifest.Context, args []manifest.Argument, n int) ([]string, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%s: expected %d argument(s), got %d", name, n, len(args))
	}
	return expandAll(ctx, args)
}

// expectAtLeast requires at least n arguments, returning their expanded
// string values.
func expectAtLeast(name string, ctx *manifest.Context, args []manifest.Argument, n int) ([]string, error) {
	if len(args) < n {
		return nil, fmt.Errorf("%s: expected at least %d argument(s), got %d", name, n, len(args))
	}
	return expandAll(ctx, args)
}
