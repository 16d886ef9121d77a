package commands

import (
	"fmt"
	"os"
	"path/filepath"

	lontra "github.com/legeana/lontra-go"
	"github.com/legeana/lontra-go/internal/manifest"
	"github.com/legeana/lontra-go/internal/process"
)

// hasTagBuilder implements "has_tag <category>=<value>", matched
// against the process's tags (os, family, distro, distro_like,
// hostname, uid, feature), per lontra.Criterion/MatchAll.
type hasTagBuilder struct {
	manifest.BaseCommand
	name string
	all  bool // require every criterion vs. any criterion
}

func (b hasTagBuilder) Name() string { return b.name }
func (b hasTagBuilder) Help() string {
	return fmt.Sprintf("%s <category=value> [<category=value>...]\n\ttest the process's tags", b.name)
}

func (b hasTagBuilder) Build(bc manifest.BuildContext, args []manifest.Argument) (manifest.ConditionFunc, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("%s: expected at least 1 argument", b.name)
	}
	return func(ctx *manifest.Context) (bool, error) {
		strs, err := expandAll(ctx, args)
		if err != nil {
			return false, err
		}
		criteria := make([]lontra.Criterion, len(strs))
		for i, s := range strs {
			c, ok := lontra.ParseCriterion(s)
			if !ok {
				return false, fmt.Errorf("%s: invalid tag %q", b.name, s)
			}
			criteria[i] = c
		}
		tags := lontra.CurrentTags()
		if b.all {
			return lontra.MatchAll(criteria, tags), nil
		}
		for _, c := range criteria {
			if c.Matches(tags) {
				return true, nil
			}
		}
		return false, nil
	}, nil
}

func newTagConditionBuilders() []manifest.ConditionBuilder {
	return []manifest.ConditionBuilder{
		hasTagBuilder{name: "has_tag", all: true},
		hasTagBuilder{name: "has_all_tags", all: true},
		hasTagBuilder{name: "has_any_tags", all: false},
	}
}

// isCommandBuilder implements "is_command <program>": true if program
// resolves on $PATH.
type isCommandBuilder struct{ manifest.BaseCommand }

func (isCommandBuilder) Name() string { return "is_command" }
func (isCommandBuilder) Help() string {
	return "is_command <program>\n\ttest whether program is resolvable on $PATH"
}

func (isCommandBuilder) Build(bc manifest.BuildContext, args []manifest.Argument) (manifest.ConditionFunc, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("is_command: expected 1 argument, got %d", len(args))
	}
	arg := args[0]
	return func(ctx *manifest.Context) (bool, error) {
		program, err := arg.Expand(ctx)
		if err != nil {
			return false, err
		}
		_, err = process.LookPath(program)
		return err == nil, nil
	}, nil
}

// fileTestBuilder implements the "is_file"/"is_dir"/"path_exists" family
// against a path resolved relative to the package's work directory.
type fileTestBuilder struct {
	manifest.BaseCommand
	name string
	test func(os.FileInfo) bool
}

func (b fileTestBuilder) Name() string { return b.name }
func (b fileTestBuilder) Help() string {
	return fmt.Sprintf("%s <path>\n\ttest a filesystem path relative to the package directory", b.name)
}

func (b fileTestBuilder) Build(bc manifest.BuildContext, args []manifest.Argument) (manifest.ConditionFunc, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%s: expected 1 argument, got %d", b.name, len(args))
	}
	arg := args[0]
	return func(ctx *manifest.Context) (bool, error) {
		p, err := arg.Expand(ctx)
		if err != nil {
			return false, err
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(bc.WorkDir, p)
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}
			return false, err
		}
		return b.test(info), nil
	}, nil
}

func newFileTestBuilders() []manifest.ConditionBuilder {
	return []manifest.ConditionBuilder{
		fileTestBuilder{name: "path_exists", test: func(os.FileInfo) bool { return true }},
		fileTestBuilder{name: "is_file", test: func(fi os.FileInfo) bool { return fi.Mode().IsRegular() }},
		fileTestBuilder{name: "is_dir", test: func(fi os.FileInfo) bool { return fi.IsDir() }},
	}
}
