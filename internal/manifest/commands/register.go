package commands

import (
	"github.com/legeana/lontra-go/internal/manifest"
)

// Register installs every builder in this package into inv. It is the
// single explicit initialization point referenced by §4.2's design
// note: nothing in this package runs at package-load time via init().
func Register(inv *manifest.Inventory) {
	for _, b := range []manifest.CommandBuilder{
		subdirBuilder{},
		subdirOptBuilder{},
		prefixBuilder{},
		symlinkBuilder{},
		symlinkToBuilder{},
		symlinkTreeBuilder{},
		mkdirBuilder{},
		copyBuilder{},
		executableCopyBuilder{},
		catGlobBuilder{},
		fetchBuilder{},
		fetchExeBuilder{},
		gitCloneBuilder{},
	} {
		inv.RegisterCommand(b)
	}
	for _, b := range newDirsPrefixBuilders() {
		inv.RegisterCommand(b)
	}
	for _, b := range newExecBuilders() {
		inv.RegisterCommand(b)
	}
	inv.RegisterCommand(renderBuilder{inv: inv})
	inv.RegisterCommand(renderToBuilder{inv: inv})

	for _, b := range newTagConditionBuilders() {
		inv.RegisterCondition(b)
	}
	inv.RegisterCondition(isCommandBuilder{})
	for _, b := range newFileTestBuilders() {
		inv.RegisterCondition(b)
	}

	inv.RegisterWrapper(onceBuilder{})
}
