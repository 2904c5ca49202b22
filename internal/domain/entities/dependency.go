package entities

import (
	"strings"

	"github.com/package-url/packageurl-go"
)

// Dependency is one logical git-ref-pinned dependency (a repository, optionally
// scoped to a sub-path) together with every place it is declared.
type Dependency struct {
	Name         string // owner/repo or owner/repo/path
	SourceURL    string
	Ecosystem    string
	Declarations []Declaration
}

// GroupDeclarations folds declarations into dependencies keyed by name,
// preserving the order in which names were first seen.
func GroupDeclarations(ecosystem string, declarations []Declaration) []Dependency {
	var order []string
	byName := make(map[string]*Dependency)

	for _, decl := range declarations {
		name := DependencyName(decl)
		dep, ok := byName[name]
		if !ok {
			dep = &Dependency{Name: name, SourceURL: decl.SourceURL, Ecosystem: ecosystem}
			byName[name] = dep
			order = append(order, name)
		}
		dep.Declarations = append(dep.Declarations, decl)
	}

	result := make([]Dependency, 0, len(order))
	for _, name := range order {
		result = append(result, *byName[name])
	}
	return result
}

// DependencyName renders the "owner/repo[/path]" identity of a declaration.
func DependencyName(decl Declaration) string {
	if decl.Path == "" {
		return decl.Repository
	}
	return decl.Repository + "/" + strings.Trim(decl.Path, "/")
}

// UniqueRefs returns the distinct (source, ref) pins of the dependency in declaration order.
func (d Dependency) UniqueRefs() []Declaration {
	seen := make(map[string]bool)
	var unique []Declaration
	for _, decl := range d.Declarations {
		if seen[decl.Key()] {
			continue
		}
		seen[decl.Key()] = true
		unique = append(unique, decl)
	}
	return unique
}

// PackageURL renders the dependency as a purl ("pkg:github/actions/checkout@v4")
// so that advisories keyed by purl can be matched.
func (d Dependency) PackageURL(ref string) string {
	namespace, name, found := strings.Cut(d.Name, "/")
	if !found {
		name, namespace = namespace, ""
	}
	var subpath string
	if repoName, rest, nested := strings.Cut(name, "/"); nested {
		name, subpath = repoName, rest
	}
	return packageurl.NewPackageURL(
		packageurl.TypeGithub, namespace, name, ref, nil, subpath,
	).ToString()
}
