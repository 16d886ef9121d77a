package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"golang.org/x/xerrors"

	"github.com/legeana/lontra-go/internal/manifest"
	"github.com/legeana/lontra-go/internal/module"
	"github.com/legeana/lontra-go/internal/registry"
)

// renderModule renders src as a text/template against the manifest's
// registered render helpers and writes the result to output, mirroring
// the original's minijinja Context{source_file, destination_file,
// workdir, prefix}: those four are exposed as zero-argument template
// functions alongside the registered helpers, since they are known
// only at render time, not when RenderHelpers() was captured.
type renderModule struct {
	module.Base
	src, output, workdir, prefix string
	helpers                      map[string]manifest.RenderHelper
}

func (m renderModule) Install(rules module.Rules, reg registry.Registry) error {
	if err := ensureParentDir(m.output); err != nil {
		return err
	}
	srcInfo, err := os.Stat(m.src)
	if err != nil {
		return xerrors.Errorf("render: stat %s: %w", m.src, err)
	}
	tmpl, err := template.New(filepath.Base(m.src)).Funcs(m.funcMap()).ParseFiles(m.src)
	if err != nil {
		return xerrors.Errorf("render: parsing %s: %w", m.src, err)
	}
	out, err := os.OpenFile(m.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return xerrors.Errorf("render: creating %s: %w", m.output, err)
	}
	defer out.Close()
	if err := tmpl.ExecuteTemplate(out, filepath.Base(m.src), nil); err != nil {
		return xerrors.Errorf("render: executing %s: %w", m.src, err)
	}
	if err := out.Sync(); err != nil {
		return xerrors.Errorf("render: flushing %s: %w", m.output, err)
	}
	if err := out.Chmod(srcInfo.Mode().Perm()); err != nil {
		return xerrors.Errorf("render: matching permissions of %s: %w", m.src, err)
	}
	return reg.RegisterUserFile(bgctx(), registry.FilePath{Type: registry.File, Path: m.output})
}

func (m renderModule) funcMap() template.FuncMap {
	fm := make(template.FuncMap, len(m.helpers)+4)
	for name, h := range m.helpers {
		h := h
		fm[name] = func(args ...string) (string, error) { return h(args...) }
	}
	fm["source_file"] = func() string { return m.src }
	fm["destination_file"] = func() string { return m.output }
	fm["workdir"] = func() string { return m.workdir }
	fm["prefix"] = func() string { return m.prefix }
	return fm
}

type renderBuilder struct {
	manifest.BaseCommand
	inv *manifest.Inventory
}

func (renderBuilder) Name() string { return "render" }
func (renderBuilder) Help() string {
	return "render <filename>\n\trender filename as a template into prefix"
}

func (b renderBuilder) Build(bc manifest.BuildContext, args []manifest.Argument) (manifest.Command, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("render: expected 1 argument, got %d", len(args))
	}
	return &renderStatement{workdir: bc.WorkDir, src: args[0], dst: args[0], inv: b.inv}, nil
}

type renderToBuilder struct {
	manifest.BaseCommand
	inv *manifest.Inventory
}

func (renderToBuilder) Name() string { return "render_to" }
func (renderToBuilder) Help() string {
	return "render_to <destination> <filename>\n\trender template filename into destination"
}

func (b renderToBuilder) Build(bc manifest.BuildContext, args []manifest.Argument) (manifest.Command, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("render_to: expected 2 arguments, got %d", len(args))
	}
	return &renderStatement{workdir: bc.WorkDir, dst: args[0], src: args[1], inv: b.inv}, nil
}

type renderStatement struct {
	manifest.BaseCommand
	workdir  string
	src, dst manifest.Argument
	inv      *manifest.Inventory
}

func (s *renderStatement) Run(ctx *manifest.Context) (manifest.StatementResult, error) {
	src, err := s.src.Expand(ctx)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	dst, err := s.dst.Expand(ctx)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	srcPath := filepath.Join(s.workdir, src)
	mod := renderModule{
		src:     srcPath,
		output:  filepath.Join(ctx.Prefix(), dst),
		workdir: s.workdir,
		prefix:  ctx.Prefix(),
		helpers: s.inv.RenderHelpers(),
	}
	return manifest.StatementResult{Module: mod}, nil
}
