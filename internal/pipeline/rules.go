package pipeline

import (
	"fmt"

	"github.com/legeana/lontra-go/internal/module"
)

// Verb names one of the pipeline-driving CLI verbs (§4.10 step 1).
type Verb string

const (
	VerbInstall      Verb = "install"
	VerbUpdate       Verb = "update"
	VerbReinstall    Verb = "reinstall"
	VerbSystemInstall Verb = "system-install"
)

// RulesForVerb builds module.Rules from verb: install leaves every flag
// false, update sets ForceUpdate, reinstall sets both ForceUpdate and
// ForceReinstall. keepGoing and userDeps are independent CLI flags
// layered on afterward.
func RulesForVerb(verb Verb, keepGoing, userDeps bool) (module.Rules, error) {
	rules := module.Rules{KeepGoing: keepGoing, UserDeps: userDeps}
	switch verb {
	case VerbInstall, VerbSystemInstall:
	case VerbUpdate:
		rules.ForceUpdate = true
	case VerbReinstall:
		rules.ForceUpdate = true
		rules.ForceReinstall = true
	default:
		return module.Rules{}, fmt.Errorf("unknown verb %q", verb)
	}
	return rules, nil
}
