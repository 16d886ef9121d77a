package satisfier_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/legeana/lontra-go/internal/satisfier"
)

func TestCommandSatisfiedForPathBinary(t *testing.T) {
	ok, err := (satisfier.Command{Exe: "ls"}).Satisfied()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected ls to resolve on $PATH")
	}
}

func TestCommandNotSatisfiedForBogusName(t *testing.T) {
	ok, err := (satisfier.Command{Exe: "definitely-not-a-real-binary-xyz"}).Satisfied()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected a made-up binary name to not resolve")
	}
}

func TestFileSatisfied(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marker")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	ok, err := (satisfier.File{Path: path}).Satisfied()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected existing file to satisfy File")
	}
	ok, err = (satisfier.File{Path: filepath.Join(dir, "missing")}).Satisfied()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected missing file to not satisfy File")
	}
}

func TestAllCommandsRequiresEvery(t *testing.T) {
	ok, err := (satisfier.AllCommands{Exes: []string{"ls", "definitely-not-a-real-binary-xyz"}}).Satisfied()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected AllCommands to fail when one entry is missing")
	}
}

func TestAnyCommandSucceedsOnOneMatch(t *testing.T) {
	ok, err := (satisfier.AnyCommand{Exes: []string{"definitely-not-a-real-binary-xyz", "ls"}}).Satisfied()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected AnyCommand to succeed when one entry matches")
	}
}

func TestCommandOutputMatchesRegex(t *testing.T) {
	co := satisfier.CommandOutput{
		Exec:     []string{"echo hello-world"},
		Patterns: []string{"^hello-"},
		Kind:     satisfier.AnyRegex,
	}
	ok, err := co.Satisfied()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected regex to match command output")
	}
}
