//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"strings"

	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
)

// DeclarationBuilder helps create test declarations with a fluent interface.
// The declaration string is derived from the other fields unless set explicitly.
type DeclarationBuilder struct {
	*testkit.BaseBuilder
	file              string
	sourceURL         string
	repository        string
	path              string
	ref               string
	declarationString string
	style             entities.RefStyle
	branch            bool
	line              int
}

// NewDeclarationBuilder creates a new declaration builder with sensible defaults.
func NewDeclarationBuilder() *DeclarationBuilder {
	b := &DeclarationBuilder{BaseBuilder: testkit.NewBaseBuilder()}
	b.defaults()
	return b
}

func (b *DeclarationBuilder) defaults() {
	b.file = ".github/workflows/ci.yml"
	b.sourceURL = "https://github.com/actions/setup-node"
	b.repository = "actions/setup-node"
	b.path = ""
	b.ref = "v1"
	b.declarationString = ""
	b.style = entities.RefStyleAt
	b.branch = false
	b.line = 1
}

// WithRepository sets owner/name and derives the GitHub clone URL from it.
func (b *DeclarationBuilder) WithRepository(repository string) *DeclarationBuilder {
	b.repository = repository
	b.sourceURL = "https://github.com/" + repository
	return b
}

// WithSourceURL overrides the clone URL.
func (b *DeclarationBuilder) WithSourceURL(sourceURL string) *DeclarationBuilder {
	b.sourceURL = sourceURL
	return b
}

// WithPath sets the sub-directory inside the repository.
func (b *DeclarationBuilder) WithPath(path string) *DeclarationBuilder {
	b.path = path
	return b
}

// WithRef sets the pinned ref.
func (b *DeclarationBuilder) WithRef(ref string) *DeclarationBuilder {
	b.ref = ref
	return b
}

// WithFile sets the file the declaration lives in.
func (b *DeclarationBuilder) WithFile(file string) *DeclarationBuilder {
	b.file = file
	return b
}

// WithLine sets the line number.
func (b *DeclarationBuilder) WithLine(line int) *DeclarationBuilder {
	b.line = line
	return b
}

// WithDeclarationString sets the literal text of the declaration.
func (b *DeclarationBuilder) WithDeclarationString(declaration string) *DeclarationBuilder {
	b.declarationString = declaration
	return b
}

// WithQueryStyle switches to the Terraform "?ref=" style.
func (b *DeclarationBuilder) WithQueryStyle() *DeclarationBuilder {
	b.style = entities.RefStyleQuery
	return b
}

// AsBranch marks the declaration as explicitly naming a branch.
func (b *DeclarationBuilder) AsBranch() *DeclarationBuilder {
	b.branch = true
	return b
}

// Build creates the declaration (satisfies testkit.Builder interface).
func (b *DeclarationBuilder) Build() interface{} {
	return b.BuildDeclaration()
}

// BuildDeclaration creates the declaration with a concrete return type.
func (b *DeclarationBuilder) BuildDeclaration() entities.Declaration {
	declaration := b.declarationString
	if declaration == "" {
		declaration = b.defaultDeclarationString()
	}
	return entities.Declaration{
		File:              b.file,
		SourceURL:         b.sourceURL,
		Repository:        b.repository,
		Path:              b.path,
		Ref:               b.ref,
		DeclarationString: declaration,
		Style:             b.style,
		Branch:            b.branch,
		Line:              b.line,
	}
}

func (b *DeclarationBuilder) defaultDeclarationString() string {
	if b.style == entities.RefStyleQuery {
		declaration := "git::" + b.sourceURL + ".git"
		if b.path != "" {
			declaration += "//" + b.path
		}
		return declaration + "?ref=" + b.ref
	}
	name := b.repository
	if b.path != "" {
		name += "/" + strings.Trim(b.path, "/")
	}
	return name + "@" + b.ref
}

// Reset clears the builder state, allowing it to be reused.
func (b *DeclarationBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.defaults()
	return b
}

// Clone creates a deep copy of the DeclarationBuilder.
func (b *DeclarationBuilder) Clone() testkit.Builder {
	clone := *b
	clone.BaseBuilder = b.BaseBuilder.Clone().(*testkit.BaseBuilder)
	return &clone
}
