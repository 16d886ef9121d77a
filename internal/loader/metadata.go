package loader

import lontra "github.com/legeana/lontra-go"

// RepositoryMeta is the decoded contents of a repository.toml marker
// file: an optional requires tag criterion gating the whole repository,
// plus an optional conflicts criterion.
type RepositoryMeta struct {
	Requires  []string `toml:"requires,omitempty"`
	Conflicts []string `toml:"conflicts,omitempty"`
}

// Dependency names one or more packages a dependencies/
// system_dependencies/user_dependencies entry depends on, plus the tag
// criterion (ANDed) under which the entry applies at all.
type Dependency struct {
	Names    []string `toml:"names,omitempty"`
	Requires []string `toml:"requires,omitempty"`
}

// Enabled reports whether d's requires criterion is satisfied by t. An
// entry with no requires is unconditional.
func (d Dependency) Enabled(t lontra.Tags) bool {
	return matchCriteria(d.Requires, t)
}

// PackageMeta is the decoded contents of a package.toml marker file.
// Requires is the tag criterion gating whether this package applies at
// all: "a package whose requires fails is skipped entirely; its
// manifest must still be syntactically validated."
type PackageMeta struct {
	Name               string       `toml:"name,omitempty"`
	Requires           []string     `toml:"requires,omitempty"`
	HasContents        bool         `toml:"has_contents"`
	Dependencies       []Dependency `toml:"dependencies,omitempty"`
	SystemDependencies []Dependency `toml:"system_dependencies,omitempty"`
	UserDependencies   []Dependency `toml:"user_dependencies,omitempty"`
}

// Enabled reports whether m's requires criterion is satisfied by t. A
// package with no requires is unconditional.
func (m PackageMeta) Enabled(t lontra.Tags) bool {
	return matchCriteria(m.Requires, t)
}

// Enabled reports whether r's requires criterion is satisfied by t. A
// repository with no requires is unconditional.
func (r RepositoryMeta) Enabled(t lontra.Tags) bool {
	return matchCriteria(r.Requires, t)
}

func matchCriteria(raw []string, t lontra.Tags) bool {
	var criteria []lontra.Criterion
	for _, s := range raw {
		c, ok := lontra.ParseCriterion(s)
		if !ok {
			continue
		}
		criteria = append(criteria, c)
	}
	return lontra.MatchAll(criteria, t)
}
