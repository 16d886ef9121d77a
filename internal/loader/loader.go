// Package loader discovers repositories and packages under a root
// directory and loads their TOML metadata, per §4.10 step 2: a
// breadth-first walk where a directory is a repository iff it contains
// repository.toml, ".git" subtrees are pruned, and each repository
// subdirectory containing package.toml is a package.
package loader

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
)

// Package is one discovered package directory plus its decoded
// metadata. If Meta.HasContents is true, Manifest is the path to its
// MANIFEST file. RepoPath is the owning repository's directory, so
// callers can compute a package's location relative to its repository.
type Package struct {
	Path     string
	RepoPath string
	Meta     PackageMeta
	Manifest string
}

// Repository is one discovered repository directory, its decoded
// metadata, and its packages in lexicographic path order.
type Repository struct {
	Path     string
	Meta     RepositoryMeta
	Packages []Package
}

// Discover walks root breadth-first and returns every repository found,
// in lexicographic path order, each with its packages likewise ordered.
func Discover(root string) ([]Repository, error) {
	var repoPaths []string
	if err := walkBreadthFirst(root, func(dir string) (descend bool, err error) {
		if filepath.Base(dir) == ".git" {
			return false, nil
		}
		if fileExists(filepath.Join(dir, "repository.toml")) {
			repoPaths = append(repoPaths, dir)
			return false, nil // a repository does not nest another repository
		}
		return true, nil
	}); err != nil {
		return nil, xerrors.Errorf("discovering repositories under %s: %w", root, err)
	}
	sort.Strings(repoPaths)

	repos := make([]Repository, len(repoPaths))
	var g errgroup.Group
	for i, rp := range repoPaths {
		i, rp := i, rp
		g.Go(func() error {
			repo, err := loadRepository(rp)
			if err != nil {
				return xerrors.Errorf("loading repository %s: %w", rp, err)
			}
			repos[i] = repo
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return repos, nil
}

func loadRepository(path string) (Repository, error) {
	var meta RepositoryMeta
	if err := decodeTOML(filepath.Join(path, "repository.toml"), &meta); err != nil {
		return Repository{}, err
	}
	var pkgPaths []string
	if err := walkBreadthFirst(path, func(dir string) (bool, error) {
		if filepath.Base(dir) == ".git" {
			return false, nil
		}
		if dir != path && fileExists(filepath.Join(dir, "package.toml")) {
			pkgPaths = append(pkgPaths, dir)
		}
		return true, nil
	}); err != nil {
		return Repository{}, err
	}
	sort.Strings(pkgPaths)

	pkgs := make([]Package, len(pkgPaths))
	var g errgroup.Group
	for i, pp := range pkgPaths {
		i, pp := i, pp
		g.Go(func() error {
			pkg, err := loadPackage(pp, path)
			if err != nil {
				return xerrors.Errorf("loading package %s: %w", pp, err)
			}
			pkgs[i] = pkg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Repository{}, err
	}
	return Repository{Path: path, Meta: meta, Packages: pkgs}, nil
}

func loadPackage(path, repoPath string) (Package, error) {
	var meta PackageMeta
	if err := decodeTOML(filepath.Join(path, "package.toml"), &meta); err != nil {
		return Package{}, err
	}
	pkg := Package{Path: path, RepoPath: repoPath, Meta: meta}
	if meta.HasContents {
		pkg.Manifest = filepath.Join(path, "MANIFEST")
	}
	return pkg, nil
}

func decodeTOML(path string, v interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return xerrors.Errorf("reading %s: %w", path, err)
	}
	if err := toml.Unmarshal(b, v); err != nil {
		return xerrors.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// walkBreadthFirst walks root breadth-first, calling visit on every
// directory (including root). visit returns whether to descend into
// dir's children. A plain recursive filepath.WalkDir is depth-first;
// breadth-first is used here so sibling repositories at the same depth
// are discovered (and therefore ordered) independent of how deep any
// one of them happens to be nested.
func walkBreadthFirst(root string, visit func(dir string) (descend bool, err error)) error {
	queue := []string{root}
	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]
		descend, err := visit(dir)
		if err != nil {
			return err
		}
		if !descend {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return xerrors.Errorf("reading %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				queue = append(queue, filepath.Join(dir, e.Name()))
			}
		}
	}
	return nil
}
