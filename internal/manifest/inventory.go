package manifest

import (
	"fmt"
	"sort"

	"github.com/legeana/lontra-go/internal/module"
)

// BuildContext is passed to every builder at build time: the package
// directory a relative source path should resolve against, plus a
// handle back into the evaluator for commands (subdir, subdir_opt) that
// need to recursively evaluate another manifest.
type BuildContext struct {
	WorkDir  string
	Resolver Resolver
}

// Resolver lets a command builder recurse into the evaluator, e.g. to
// load a nested MANIFEST file (the "subdir" and "subdir_opt" commands).
type Resolver interface {
	// EvaluateFile parses and evaluates the manifest at path against a
	// child of parent rooted at parent's prefix joined with subdir.
	EvaluateFile(path string, parent *Context, subdir string) (module.Module, error)
}

// StatementResult is what evaluating a Statement-form Command produces:
// an optional module (nil means the statement had no runtime effect,
// e.g. a pure assignment).
type StatementResult struct {
	Module module.Module
}

// ExpressionResult is what evaluating an Expression-form Command
// produces: an optional module plus the output bytes bound to the
// left-hand side of a command assignment.
type ExpressionResult struct {
	Module module.Module
	Output []byte
}

// Command is the closed sum type "Statement | Expression" described by
// §4.2. A concrete command builder returns something implementing one
// (sometimes both) of StatementCommand and ExpressionCommand.
type Command interface {
	commandMarker()
}

// StatementCommand can be run as a bare statement.
type StatementCommand interface {
	Command
	Run(ctx *Context) (StatementResult, error)
}

// ExpressionCommand can appear as the right-hand side of a command
// assignment ("var = $(cmd args)").
type ExpressionCommand interface {
	Command
	Eval(ctx *Context) (ExpressionResult, error)
}

// BaseCommand implements the unexported commandMarker method; embed it
// in concrete command types.
type BaseCommand struct{}

func (BaseCommand) commandMarker() {}

// CommandBuilder builds a Command from already-typed arguments. Builders
// are registered by name in the Inventory and are otherwise stateless.
type CommandBuilder interface {
	Name() string
	Help() string
	Build(bc BuildContext, args []Argument) (Command, error)
}

// ConditionFunc evaluates a condition's Invocation against a Context.
type ConditionFunc func(ctx *Context) (bool, error)

// ConditionBuilder builds a ConditionFunc from already-typed arguments.
type ConditionBuilder interface {
	Name() string
	Help() string
	Build(bc BuildContext, args []Argument) (ConditionFunc, error)
}

// WithWrapperBuilder builds the module that wraps a with-block's
// body module with meta-behaviour (e.g. "once").
type WithWrapperBuilder interface {
	Name() string
	Help() string
	Build(bc BuildContext, args []Argument, body module.Module) (module.Module, error)
}

// RenderHelper is a named function made available to the render
// command's template engine, analogous to the teacher's tera_helper.rs
// role (kept generic here since the template engine itself is an
// external collaborator per the engine's scope).
type RenderHelper func(args ...string) (string, error)

// Inventory is the process-wide, initialise-once-then-read-only
// registry of builders described by §4.2 and the design notes: it must
// be created by an explicit initialization function, never by an
// implicit package-level side effect, so tests can construct isolated
// inventories.
type Inventory struct {
	commands      map[string]CommandBuilder
	conditions    map[string]ConditionBuilder
	wrappers      map[string]WithWrapperBuilder
	renderHelpers map[string]RenderHelper
}

// NewInventory returns an empty Inventory ready for registration.
func NewInventory() *Inventory {
	return &Inventory{
		commands:      make(map[string]CommandBuilder),
		conditions:    make(map[string]ConditionBuilder),
		wrappers:      make(map[string]WithWrapperBuilder),
		renderHelpers: make(map[string]RenderHelper),
	}
}

func (inv *Inventory) RegisterCommand(b CommandBuilder) {
	inv.commands[b.Name()] = b
}

func (inv *Inventory) RegisterCondition(b ConditionBuilder) {
	inv.conditions[b.Name()] = b
}

func (inv *Inventory) RegisterWrapper(b WithWrapperBuilder) {
	inv.wrappers[b.Name()] = b
}

func (inv *Inventory) RegisterRenderHelper(name string, fn RenderHelper) {
	inv.renderHelpers[name] = fn
}

func (inv *Inventory) Command(name string) (CommandBuilder, bool) {
	b, ok := inv.commands[name]
	return b, ok
}

func (inv *Inventory) Condition(name string) (ConditionBuilder, bool) {
	b, ok := inv.conditions[name]
	return b, ok
}

func (inv *Inventory) Wrapper(name string) (WithWrapperBuilder, bool) {
	b, ok := inv.wrappers[name]
	return b, ok
}

func (inv *Inventory) RenderHelper(name string) (RenderHelper, bool) {
	fn, ok := inv.renderHelpers[name]
	return fn, ok
}

// RenderHelpers returns every registered render helper, keyed by name,
// for a template engine to install as globals.
func (inv *Inventory) RenderHelpers() map[string]RenderHelper {
	out := make(map[string]RenderHelper, len(inv.renderHelpers))
	for k, v := range inv.renderHelpers {
		out[k] = v
	}
	return out
}

// CommandNames returns every registered command name, sorted, for
// "manifest-help" output.
func (inv *Inventory) CommandNames() []string {
	names := make([]string, 0, len(inv.commands))
	for n := range inv.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Help renders a "distri manifest-help"-style summary of every
// registered command, one "name: help" entry per command in name order.
// Conditions and with-wrappers are not listed.
func (inv *Inventory) Help() string {
	var out string
	for _, n := range inv.CommandNames() {
		out += fmt.Sprintf("%s: %s\n", n, inv.commands[n].Help())
	}
	return out
}
