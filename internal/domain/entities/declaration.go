package entities

import (
	"fmt"
	"strings"
)

// RefStyle tells how the ref is embedded in a declaration string.
type RefStyle string

const (
	RefStyleAt    RefStyle = "at"    // owner/repo/path@ref
	RefStyleQuery RefStyle = "query" // git::https://host/repo.git//path?ref=ref
)

// Declaration is one place in one file where a git-ref-pinned dependency is declared.
type Declaration struct {
	File              string
	SourceURL         string // canonical clone URL, e.g. https://github.com/actions/checkout
	Repository        string // owner/name
	Path              string // sub-directory inside the repository, empty at the root
	Ref               string
	DeclarationString string // literal text used to re-locate the occurrence
	Style             RefStyle
	Branch            bool // the declaration explicitly names a branch
	Line              int
}

// Key groups declarations that must be rewritten identically.
func (d Declaration) Key() string {
	return d.SourceURL + "@" + d.Ref
}

// WithRef returns a copy pinned at ref, with its declaration string rewritten.
func (d Declaration) WithRef(ref string) Declaration {
	updated := d
	updated.Ref = ref
	updated.DeclarationString = replaceRef(d.DeclarationString, d.Style, d.Ref, ref)
	return updated
}

func replaceRef(declaration string, style RefStyle, oldRef, newRef string) string {
	var marker string
	switch style {
	case RefStyleQuery:
		marker = "ref="
	default:
		marker = "@"
	}

	idx := strings.LastIndex(declaration, marker+oldRef)
	if idx < 0 {
		return declaration
	}
	start := idx + len(marker)
	return declaration[:start] + newRef + declaration[start+len(oldRef):]
}

// DeclarationUpdate pairs a declaration with the value it is rewritten to.
type DeclarationUpdate struct {
	Previous Declaration
	Updated  Declaration
}

// Changed reports whether the rewrite actually moves the pin.
func (u DeclarationUpdate) Changed() bool {
	return u.Previous.Ref != u.Updated.Ref
}

// ParseDeclarationReference reads a pin written on the command line, either
// "owner/repo[/path]@ref" for GitHub or "<clone URL>@ref" for any host.
func ParseDeclarationReference(reference string) (Declaration, error) {
	idx := strings.LastIndex(reference, "@")
	if idx <= 0 || idx == len(reference)-1 {
		return Declaration{}, fmt.Errorf("invalid reference %q: expected <repository>@<ref>", reference)
	}
	location, ref := reference[:idx], reference[idx+1:]

	if !strings.Contains(location, "://") && !strings.HasPrefix(location, "git@") {
		parts := strings.SplitN(location, "/", 3) //nolint:mnd // owner, name, path
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return Declaration{}, fmt.Errorf("invalid reference %q: expected owner/repo@ref", reference)
		}
		decl := Declaration{
			SourceURL:         "https://github.com/" + parts[0] + "/" + parts[1],
			Repository:        parts[0] + "/" + parts[1],
			Ref:               ref,
			DeclarationString: reference,
			Style:             RefStyleAt,
		}
		if len(parts) == 3 { //nolint:mnd // owner, name, path
			decl.Path = strings.Trim(parts[2], "/")
		}
		return decl, nil
	}

	repo, err := ParseSourceRepository(location)
	if err != nil {
		return Declaration{}, err
	}
	return Declaration{
		SourceURL:         location,
		Repository:        repo.ID,
		Ref:               ref,
		DeclarationString: reference,
		Style:             RefStyleAt,
	}, nil
}
