package commands

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio"
	"golang.org/x/xerrors"

	"github.com/legeana/lontra-go/internal/localstate"
	"github.com/legeana/lontra-go/internal/manifest"
	"github.com/legeana/lontra-go/internal/module"
	"github.com/legeana/lontra-go/internal/registry"
)

// fetchClient is shared by every fetch invocation; a finite timeout
// keeps a stalled remote from hanging an install indefinitely.
var fetchClient = &http.Client{Timeout: 30 * time.Second}

// fetchModule downloads url into a content-addressed shadow file once,
// then symlinks the destination to it, mirroring the teacher's
// hookinstall use of renameio for atomic file replacement: the download
// is written to a temp file and renamed into place so a crash mid-fetch
// never leaves a half-written shadow file.
type fetchModule struct {
	module.Base
	url        string
	executable bool
	shadow     localstate.Linked
}

func (m fetchModule) PreInstall(rules module.Rules, reg registry.Registry) error {
	return localstate.PreInstallFile(m.shadow.Path)
}

func (m fetchModule) Install(rules module.Rules, reg registry.Registry) error {
	if _, err := os.Stat(m.shadow.Path); err != nil {
		if err := fetchInto(m.url, m.shadow.Path, m.executable); err != nil {
			return xerrors.Errorf("fetch %s: %w", m.url, err)
		}
	}
	if err := localstate.InstallSymlink(bgctx(), reg, m.shadow); err != nil {
		return xerrors.Errorf("fetch %s: %w", m.url, err)
	}
	return nil
}

func fetchInto(url, dest string, executable bool) error {
	resp, err := fetchClient.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	mode := os.FileMode(0o644)
	if executable {
		mode = 0o755
	}
	t, err := renameio.TempFile("", dest)
	if err != nil {
		return err
	}
	defer t.Cleanup()
	if err := t.Chmod(mode); err != nil {
		return err
	}
	if _, err := io.Copy(t, resp.Body); err != nil {
		return err
	}
	return t.CloseAtomicallyReplace()
}

type fetchBuilder struct{ manifest.BaseCommand }

func (fetchBuilder) Name() string { return "fetch" }
func (fetchBuilder) Help() string {
	return "fetch <url> <filename>\n\tdownload url, cache it, and symlink filename to it in prefix"
}

func (fetchBuilder) Build(bc manifest.BuildContext, args []manifest.Argument) (manifest.Command, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("fetch: expected 2 arguments, got %d", len(args))
	}
	return &fetchStatement{url: args[0], name: args[1]}, nil
}

type fetchExeBuilder struct{ manifest.BaseCommand }

func (fetchExeBuilder) Name() string { return "fetch_exe" }
func (fetchExeBuilder) Help() string {
	return "fetch_exe <url> <filename>\n\tdownload url as an executable, cache it, and symlink filename to it in prefix"
}

func (fetchExeBuilder) Build(bc manifest.BuildContext, args []manifest.Argument) (manifest.Command, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("fetch_exe: expected 2 arguments, got %d", len(args))
	}
	return &fetchStatement{url: args[0], name: args[1], executable: true}, nil
}

type fetchStatement struct {
	manifest.BaseCommand
	url, name  manifest.Argument
	executable bool
}

func (s *fetchStatement) Run(ctx *manifest.Context) (manifest.StatementResult, error) {
	url, err := s.url.Expand(ctx)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	name, err := s.name.Expand(ctx)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	link := filepath.Join(ctx.Prefix(), name)
	shadow, err := localstate.LinkedFile(link, url)
	if err != nil {
		return manifest.StatementResult{}, err
	}
	mod := fetchModule{url: url, executable: s.executable, shadow: shadow}
	return manifest.StatementResult{Module: mod}, nil
}
