// Package module defines the uniform interface over every installable
// unit the manifest evaluator produces, plus the composition and
// wrapper types used to build module trees: sequences (and the Tuple
// alias), keep_going, user_deps and error-context wrappers.
package module

import (
	"fmt"

	"github.com/legeana/lontra-go/internal/registry"
)

// Rules are the run's decision knobs, built once by the pipeline driver
// from the command verb and never mutated afterward.
type Rules struct {
	ForceUpdate    bool
	ForceReinstall bool
	KeepGoing      bool
	UserDeps       bool
}

// Module is implemented by every installable unit. Every method has a
// default no-op implementation (embed Base to get it for free) so that
// modules only override the phases they actually participate in.
type Module interface {
	PreUninstall(rules Rules) error
	PreInstall(rules Rules, reg registry.Registry) error
	Install(rules Rules, reg registry.Registry) error
	PostInstall(rules Rules, reg registry.Registry) error
	SystemInstall(rules Rules) error
}

// Base is a no-op Module; embed it in concrete module types to avoid
// implementing every phase.
type Base struct{}

func (Base) PreUninstall(Rules) error                       { return nil }
func (Base) PreInstall(Rules, registry.Registry) error       { return nil }
func (Base) Install(Rules, registry.Registry) error          { return nil }
func (Base) PostInstall(Rules, registry.Registry) error      { return nil }
func (Base) SystemInstall(Rules) error                       { return nil }

// Seq is an ordered sequence of modules. Every phase call is forwarded
// to each child in declaration order; the statement ordering
// invariant (§5) falls directly out of this being a plain slice walk.
type Seq []Module

func (s Seq) PreUninstall(rules Rules) error {
	for _, m := range s {
		if err := m.PreUninstall(rules); err != nil {
			return err
		}
	}
	return nil
}

func (s Seq) PreInstall(rules Rules, reg registry.Registry) error {
	for _, m := range s {
		if err := m.PreInstall(rules, reg); err != nil {
			return err
		}
	}
	return nil
}

func (s Seq) Install(rules Rules, reg registry.Registry) error {
	for _, m := range s {
		if err := m.Install(rules, reg); err != nil {
			return err
		}
	}
	return nil
}

func (s Seq) PostInstall(rules Rules, reg registry.Registry) error {
	for _, m := range s {
		if err := m.PostInstall(rules, reg); err != nil {
			return err
		}
	}
	return nil
}

func (s Seq) SystemInstall(rules Rules) error {
	for _, m := range s {
		if err := m.SystemInstall(rules); err != nil {
			return err
		}
	}
	return nil
}

// Tuple is a type alias of Seq, not a distinct type: a Tuple is the
// same slice type and forwards in declaration order exactly like Seq.
type Tuple = Seq

// contextWrapper attaches a breadcrumb to every error a wrapped module's
// phase methods return, per §7's error-context chain (file path, package
// name, phase, statement location, each added at a stack level).
type contextWrapper struct {
	inner   Module
	context string
}

// Wrap attaches contextString as a prefix to any error returned by
// inner's phase methods.
func Wrap(inner Module, contextString string) Module {
	return &contextWrapper{inner: inner, context: contextString}
}

func (w *contextWrapper) wrap(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", w.context, err)
}

func (w *contextWrapper) PreUninstall(rules Rules) error {
	return w.wrap(w.inner.PreUninstall(rules))
}
func (w *contextWrapper) PreInstall(rules Rules, reg registry.Registry) error {
	return w.wrap(w.inner.PreInstall(rules, reg))
}
func (w *contextWrapper) Install(rules Rules, reg registry.Registry) error {
	return w.wrap(w.inner.Install(rules, reg))
}
func (w *contextWrapper) PostInstall(rules Rules, reg registry.Registry) error {
	return w.wrap(w.inner.PostInstall(rules, reg))
}
func (w *contextWrapper) SystemInstall(rules Rules) error {
	return w.wrap(w.inner.SystemInstall(rules))
}

// keepGoing runs each child module and, depending on rules.KeepGoing,
// either propagates the first error or logs it (via onError) and
// continues to the next sibling.
type keepGoing struct {
	children []Module
	onError  func(error)
}

// WrapKeepGoing returns a Module that runs children in order. If
// rules.KeepGoing is false, the first error aborts and is returned
// immediately. If true, every error is reported to onError and
// evaluation continues; once all children have run, the first error
// (if any child failed) is returned.
func WrapKeepGoing(children []Module, onError func(error)) Module {
	return &keepGoing{children: children, onError: onError}
}

func (k *keepGoing) runAll(rules Rules, call func(Module) error) error {
	var firstErr error
	for _, m := range k.children {
		if err := call(m); err != nil {
			if !rules.KeepGoing {
				return err
			}
			if k.onError != nil {
				k.onError(err)
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (k *keepGoing) PreUninstall(rules Rules) error {
	return k.runAll(rules, func(m Module) error { return m.PreUninstall(rules) })
}
func (k *keepGoing) PreInstall(rules Rules, reg registry.Registry) error {
	return k.runAll(rules, func(m Module) error { return m.PreInstall(rules, reg) })
}
func (k *keepGoing) Install(rules Rules, reg registry.Registry) error {
	return k.runAll(rules, func(m Module) error { return m.Install(rules, reg) })
}
func (k *keepGoing) PostInstall(rules Rules, reg registry.Registry) error {
	return k.runAll(rules, func(m Module) error { return m.PostInstall(rules, reg) })
}
func (k *keepGoing) SystemInstall(rules Rules) error {
	return k.runAll(rules, func(m Module) error { return m.SystemInstall(rules) })
}

// userDeps becomes a no-op when rules.UserDeps is false, otherwise
// forwards to inner.
type userDeps struct {
	inner Module
}

// WrapUserDeps gates inner's phases on rules.UserDeps.
func WrapUserDeps(inner Module) Module {
	return &userDeps{inner: inner}
}

func (u *userDeps) PreUninstall(rules Rules) error {
	if !rules.UserDeps {
		return nil
	}
	return u.inner.PreUninstall(rules)
}
func (u *userDeps) PreInstall(rules Rules, reg registry.Registry) error {
	if !rules.UserDeps {
		return nil
	}
	return u.inner.PreInstall(rules, reg)
}
func (u *userDeps) Install(rules Rules, reg registry.Registry) error {
	if !rules.UserDeps {
		return nil
	}
	return u.inner.Install(rules, reg)
}
func (u *userDeps) PostInstall(rules Rules, reg registry.Registry) error {
	if !rules.UserDeps {
		return nil
	}
	return u.inner.PostInstall(rules, reg)
}
func (u *userDeps) SystemInstall(rules Rules) error {
	if !rules.UserDeps {
		return nil
	}
	return u.inner.SystemInstall(rules)
}
