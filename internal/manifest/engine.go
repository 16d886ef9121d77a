package manifest

import (
	"fmt"

	"golang.org/x/xerrors"

	"github.com/legeana/lontra-go/internal/module"
)

// Evaluator walks a Manifest AST, dispatching to the builders
// registered in inv, and implements Resolver so commands (subdir,
// subdir_opt) can recurse into nested manifests without an import cycle
// back into this package.
type Evaluator struct {
	inv *Inventory
}

// NewEvaluator returns an Evaluator bound to inv.
func NewEvaluator(inv *Inventory) *Evaluator {
	return &Evaluator{inv: inv}
}

// ValidateNames walks m and returns an error for the first unresolvable
// builder name: "unknown names are fatal at parse time" (§4.2). It does
// not evaluate any condition or run any command.
func (e *Evaluator) ValidateNames(m *Manifest) error {
	return e.validateStatements(m.Statements)
}

func (e *Evaluator) validateStatements(stmts []Statement) error {
	for _, s := range stmts {
		if err := e.validateStatement(s); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) validateStatement(s Statement) error {
	switch {
	case s.Command != nil:
		if _, ok := e.inv.Command(s.Command.Name); !ok {
			return AtRange(Range{s.Command.Loc, s.Command.Loc}, fmt.Errorf("unknown command %q", s.Command.Name))
		}
	case s.If != nil:
		for _, c := range s.If.Clauses {
			if err := e.validateCondition(c.Cond); err != nil {
				return err
			}
			if err := e.validateStatements(c.Body); err != nil {
				return err
			}
		}
		if err := e.validateStatements(s.If.Else); err != nil {
			return err
		}
	case s.CommandAssignment != nil:
		if _, ok := e.inv.Command(s.CommandAssignment.Cmd.Name); !ok {
			return fmt.Errorf("unknown command %q", s.CommandAssignment.Cmd.Name)
		}
	case s.ValueAssignment != nil:
		// nothing to validate: literal/template assignment
	case s.With != nil:
		if _, ok := e.inv.Wrapper(s.With.Wrapper.Name); !ok {
			return fmt.Errorf("unknown with-wrapper %q", s.With.Wrapper.Name)
		}
		if err := e.validateStatements(s.With.Body); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) validateCondition(c Condition) error {
	if c.Inner != nil {
		return e.validateCondition(*c.Inner)
	}
	if _, ok := e.inv.Condition(c.Call.Name); !ok {
		return fmt.Errorf("unknown condition %q", c.Call.Name)
	}
	return nil
}

// Evaluate walks m against ctx and returns the resulting module tree
// (a module.Seq in declaration order, per §5's ordering guarantee).
func (e *Evaluator) Evaluate(bc BuildContext, ctx *Context, m *Manifest) (module.Module, error) {
	return e.evalStatements(bc, ctx, m.Statements)
}

func (e *Evaluator) evalStatements(bc BuildContext, ctx *Context, stmts []Statement) (module.Module, error) {
	var seq module.Seq
	for _, s := range stmts {
		mod, err := e.evalStatement(bc, ctx, s)
		if err != nil {
			return nil, err
		}
		if mod != nil {
			seq = append(seq, mod)
		}
	}
	return seq, nil
}

func (e *Evaluator) evalStatement(bc BuildContext, ctx *Context, s Statement) (module.Module, error) {
	switch {
	case s.Command != nil:
		return e.evalCommandStatement(bc, ctx, *s.Command)
	case s.If != nil:
		return e.evalIf(bc, ctx, s.If)
	case s.CommandAssignment != nil:
		return e.evalCommandAssignment(bc, ctx, *s.CommandAssignment)
	case s.ValueAssignment != nil:
		return nil, e.evalValueAssignment(ctx, *s.ValueAssignment)
	case s.With != nil:
		return e.evalWith(bc, ctx, s.With)
	}
	return nil, nil
}

func (e *Evaluator) evalCommandStatement(bc BuildContext, ctx *Context, inv Invocation) (module.Module, error) {
	builder, ok := e.inv.Command(inv.Name)
	if !ok {
		return nil, fmt.Errorf("unknown command %q", inv.Name)
	}
	cmd, err := builder.Build(bc, inv.Args)
	if err != nil {
		return nil, AtRange(Range{inv.Loc, inv.Loc}, err)
	}
	stmtCmd, ok := cmd.(StatementCommand)
	if !ok {
		return nil, fmt.Errorf("command %q cannot be used as a statement", inv.Name)
	}
	res, err := stmtCmd.Run(ctx)
	if err != nil {
		return nil, AtRange(Range{inv.Loc, inv.Loc}, err)
	}
	return res.Module, nil
}

func (e *Evaluator) evalCommandAssignment(bc BuildContext, ctx *Context, ca CommandAssignment) (module.Module, error) {
	builder, ok := e.inv.Command(ca.Cmd.Name)
	if !ok {
		return nil, fmt.Errorf("unknown command %q", ca.Cmd.Name)
	}
	cmd, err := builder.Build(bc, ca.Cmd.Args)
	if err != nil {
		return nil, err
	}
	exprCmd, ok := cmd.(ExpressionCommand)
	if !ok {
		return nil, fmt.Errorf("command %q cannot be used in an assignment", ca.Cmd.Name)
	}
	res, err := exprCmd.Eval(ctx)
	if err != nil {
		return nil, AtRange(Range{ca.Cmd.Loc, ca.Cmd.Loc}, err)
	}
	if err := ctx.Bind(ca.Var, res.Output); err != nil {
		return nil, err
	}
	return res.Module, nil
}

func (e *Evaluator) evalValueAssignment(ctx *Context, va ValueAssignment) error {
	val, err := va.Value.Expand(ctx)
	if err != nil {
		return err
	}
	return ctx.Bind(va.Var, []byte(val))
}

// evalCondition evaluates c against ctx, applying any stacked negations.
// Conditions are built with the enclosing bc so that file tests resolve
// relative paths against the package's work directory.
func (e *Evaluator) evalCondition(bc BuildContext, ctx *Context, c Condition) (bool, error) {
	if c.Inner != nil {
		v, err := e.evalCondition(bc, ctx, *c.Inner)
		if err != nil {
			return false, err
		}
		return !v, nil
	}
	builder, ok := e.inv.Condition(c.Call.Name)
	if !ok {
		return false, fmt.Errorf("unknown condition %q", c.Call.Name)
	}
	fn, err := builder.Build(bc, c.Call.Args)
	if err != nil {
		return false, err
	}
	v, err := fn(ctx)
	if err != nil {
		return false, AtRange(Range{c.Call.Loc, c.Call.Loc}, err)
	}
	if c.Negate {
		v = !v
	}
	return v, nil
}

func (e *Evaluator) evalIf(bc BuildContext, ctx *Context, s *IfStatement) (module.Module, error) {
	for _, clause := range s.Clauses {
		v, err := e.evalCondition(bc, ctx, clause.Cond)
		if err != nil {
			return nil, err
		}
		if v {
			return e.evalStatements(bc, ctx, clause.Body)
		}
	}
	if s.Else != nil {
		return e.evalStatements(bc, ctx, s.Else)
	}
	return nil, nil
}

func (e *Evaluator) evalWith(bc BuildContext, ctx *Context, s *WithStatement) (module.Module, error) {
	body, err := e.evalStatements(bc, ctx, s.Body)
	if err != nil {
		return nil, err
	}
	builder, ok := e.inv.Wrapper(s.Wrapper.Name)
	if !ok {
		return nil, fmt.Errorf("unknown with-wrapper %q", s.Wrapper.Name)
	}
	wrapped, err := builder.Build(bc, s.Wrapper.Args, body)
	if err != nil {
		return nil, AtRange(Range{s.Wrapper.Loc, s.Wrapper.Loc}, err)
	}
	return wrapped, nil
}

// EvaluateFile implements Resolver: it parses, validates and evaluates
// the manifest at path against a child of parent. It is the recursion
// point used by the "subdir" and "subdir_opt" commands.
func (e *Evaluator) EvaluateFile(path string, parent *Context, subdir string) (module.Module, error) {
	src, err := readManifestFile(path)
	if err != nil {
		return nil, xerrors.Errorf("reading %s: %w", path, err)
	}
	m, err := Parse(src)
	if err != nil {
		return nil, xerrors.Errorf("parsing %s: %w", path, err)
	}
	if err := e.ValidateNames(m); err != nil {
		return nil, xerrors.Errorf("%s: %w", path, err)
	}
	childCtx := parent.Child(subdir)
	bc := BuildContext{WorkDir: dirOf(path), Resolver: e}
	mod, err := e.Evaluate(bc, childCtx, m)
	if err != nil {
		return nil, xerrors.Errorf("evaluating %s: %w", path, err)
	}
	return mod, nil
}
