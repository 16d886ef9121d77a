package commands

import (
	"fmt"

	"github.com/legeana/lontra-go/internal/manifest"
	"github.com/legeana/lontra-go/internal/module"
	"github.com/legeana/lontra-go/internal/registry"
)

// onceModule runs each of a wrapped module's phases at most once ever,
// tracked by a config_get/config_set row per phase (C7's registry
// configuration store): a later install or update run (even after an
// uninstall, which leaves config rows in place) skips the body once its
// row is set, unless rules.ForceReinstall is set, as it is for reinstall.
type onceModule struct {
	inner                                     module.Module
	preInstallKey, installKey, postInstallKey string
}

const onceDone = "done"

func (m onceModule) PreUninstall(rules module.Rules) error {
	return m.inner.PreUninstall(rules)
}

func (m onceModule) PreInstall(rules module.Rules, reg registry.Registry) error {
	return runOnce(m.preInstallKey, rules.ForceReinstall, reg, func() error {
		return m.inner.PreInstall(rules, reg)
	})
}

func (m onceModule) Install(rules module.Rules, reg registry.Registry) error {
	return runOnce(m.installKey, rules.ForceReinstall, reg, func() error {
		return m.inner.Install(rules, reg)
	})
}

func (m onceModule) PostInstall(rules module.Rules, reg registry.Registry) error {
	return runOnce(m.postInstallKey, rules.ForceReinstall, reg, func() error {
		return m.inner.PostInstall(rules, reg)
	})
}

func (m onceModule) SystemInstall(rules module.Rules) error {
	return m.inner.SystemInstall(rules)
}

func runOnce(key string, force bool, reg registry.Registry, f func() error) error {
	ctx := bgctx()
	if !force {
		v, err := reg.ConfigGet(ctx, key, "")
		if err != nil {
			return err
		}
		if v == onceDone {
			return nil
		}
	}
	if err := f(); err != nil {
		return err
	}
	return reg.ConfigSet(ctx, key, onceDone)
}

type onceBuilder struct{ manifest.BaseCommand }

func (onceBuilder) Name() string { return "once" }
func (onceBuilder) Help() string {
	return "with once:\n\trun the wrapped block's phases at most once, ever"
}

func (onceBuilder) Build(bc manifest.BuildContext, args []manifest.Argument, body module.Module) (module.Module, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("once: expected no arguments, got %d", len(args))
	}
	return onceModule{
		inner:          body,
		preInstallKey:  "once:" + bc.WorkDir + ":pre_install",
		installKey:     "once:" + bc.WorkDir + ":install",
		postInstallKey: "once:" + bc.WorkDir + ":post_install",
	}, nil
}
