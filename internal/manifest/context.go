package manifest

import (
	"fmt"
	"path/filepath"
)

// Context is the per-package evaluation context described by the core
// data model: an enabled flag, a destination prefix, the package's home
// variable, and a set of variables that do not carry across package
// boundaries.
type Context struct {
	enabled bool
	prefix  string
	homeVar string
	vars    map[string][]byte
}

// NewContext creates a fresh Context rooted at prefix (normally the
// user's home directory), enabled by default.
func NewContext(prefix, home string) *Context {
	return &Context{
		enabled: true,
		prefix:  prefix,
		homeVar: home,
		vars:    make(map[string][]byte),
	}
}

// Child returns a new Context for a nested package (subdir), inheriting
// prefix and home but never the parent's vars: variables are
// package-scoped, not inherited.
func (c *Context) Child(subdir string) *Context {
	return &Context{
		enabled: c.enabled,
		prefix:  filepath.Join(c.prefix, subdir),
		homeVar: c.homeVar,
		vars:    make(map[string][]byte),
	}
}

// Enabled reports whether the current branch of the manifest is active.
func (c *Context) Enabled() bool { return c.enabled }

// SetEnabled sets the enabled flag. The evaluator does not call it:
// "if" selects a branch by evaluating its conditions directly.
func (c *Context) SetEnabled(v bool) { c.enabled = v }

// Prefix returns the current destination root for file-creating commands.
func (c *Context) Prefix() string { return c.prefix }

// SetPrefix mutates the destination root, as a "prefix"-style command does.
func (c *Context) SetPrefix(p string) { c.prefix = p }

// Home returns the home directory substituted for "~" in VarsAndHome
// arguments.
func (c *Context) Home() string { return c.homeVar }

// Bind assigns name := value. Rebinding an already-bound name is a
// single-assignment violation and fails (invariant 7: context variable
// assignment is single-assignment within a package).
func (c *Context) Bind(name string, value []byte) error {
	if _, ok := c.vars[name]; ok {
		return fmt.Errorf("variable %q already bound in this package", name)
	}
	c.vars[name] = value
	return nil
}

// Lookup returns the bound value for name, if any.
func (c *Context) Lookup(name string) ([]byte, bool) {
	v, ok := c.vars[name]
	return v, ok
}
