package terraform

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	logger "github.com/sirupsen/logrus"
	"github.com/zclconf/go-cty/cty"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
	"github.com/rios0rios0/refupdate/internal/domain/repositories"
	"github.com/rios0rios0/refupdate/internal/domain/rewriter"
)

const (
	ecosystemName = "terraform"
	minMatchLen   = 6
)

var modulePattern = regexp.MustCompile(`(?s)module\s+"([^"]+)"\s*\{[^}]*source\s*=\s*"([^"]+)"`)

// TerraformEcosystemRepository reads git-pinned module sources ("?ref=") from .tf files.
type TerraformEcosystemRepository struct {
	files *rewriter.FileRewriter
}

// NewTerraformEcosystemRepository creates the Terraform ecosystem.
func NewTerraformEcosystemRepository() repositories.EcosystemRepository {
	return &TerraformEcosystemRepository{files: rewriter.NewFileRewriter()}
}

func (it *TerraformEcosystemRepository) Name() string { return ecosystemName }

// Detect accepts .tf files.
func (it *TerraformEcosystemRepository) Detect(filePath string) bool {
	return strings.HasSuffix(filePath, ".tf")
}

// ParseDeclarations extracts every module block whose source is a git URL with a ref.
// Files HCL cannot parse fall back to a regular expression scan.
func (it *TerraformEcosystemRepository) ParseDeclarations(
	filePath, content string,
) ([]entities.Declaration, error) {
	file, diags := hclparse.NewParser().ParseHCL([]byte(content), filePath)
	if diags.HasErrors() || file.Body == nil {
		logger.Debugf("[%s] Falling back to regex scan of %s: %s", ecosystemName, filePath, diags.Error())
		return scanWithRegex(filePath, content), nil
	}

	bodyContent, _, partialDiags := file.Body.PartialContent(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{{Type: "module", LabelNames: []string{"name"}}},
	})
	if partialDiags.HasErrors() {
		return scanWithRegex(filePath, content), nil
	}

	var declarations []entities.Declaration
	for _, block := range bodyContent.Blocks {
		attrs, _ := block.Body.JustAttributes()
		sourceAttr, ok := attrs["source"]
		if !ok {
			continue
		}

		value, valueDiags := sourceAttr.Expr.Value(&hcl.EvalContext{})
		if valueDiags.HasErrors() || value.Type() != cty.String {
			continue
		}

		if decl, parsed := parseSource(value.AsString()); parsed {
			decl.File = filePath
			decl.Line = sourceAttr.Range.Start.Line
			declarations = append(declarations, decl)
		}
	}
	return declarations, nil
}

// ApplyUpdate swaps the module source string, which is always quoted.
func (it *TerraformEcosystemRepository) ApplyUpdate(
	content string,
	update entities.DeclarationUpdate,
	index *entities.RefIndex,
) string {
	return it.files.Apply(content, update, index)
}

func scanWithRegex(filePath, content string) []entities.Declaration {
	var declarations []entities.Declaration
	for _, match := range modulePattern.FindAllStringSubmatchIndex(content, -1) {
		if len(match) < minMatchLen {
			continue
		}
		decl, ok := parseSource(content[match[4]:match[5]])
		if !ok {
			continue
		}
		decl.File = filePath
		decl.Line = strings.Count(content[:match[4]], "\n") + 1
		declarations = append(declarations, decl)
	}
	return declarations
}

// parseSource splits "git::https://host/org/repo.git//sub/dir?ref=v1.2.0"
// into the clone URL, the module sub-directory, and the ref.
func parseSource(source string) (entities.Declaration, bool) {
	if !isGitModule(source) {
		return entities.Declaration{}, false
	}

	address, rawQuery, _ := strings.Cut(strings.TrimPrefix(source, "git::"), "?")
	query, err := url.ParseQuery(rawQuery)
	if err != nil || query.Get("ref") == "" {
		return entities.Declaration{}, false
	}

	cloneURL, subDir := splitSubDir(address)
	if !strings.Contains(cloneURL, "://") && !strings.HasPrefix(cloneURL, "git@") {
		cloneURL = "https://" + cloneURL
	}

	repo, err := entities.ParseSourceRepository(cloneURL)
	if err != nil {
		logger.Debugf("[%s] Skipping module source %q: %v", ecosystemName, source, err)
		return entities.Declaration{}, false
	}

	return entities.Declaration{
		SourceURL:         cloneURL,
		Repository:        repo.ID,
		Path:              subDir,
		Ref:               query.Get("ref"),
		DeclarationString: source,
		Style:             entities.RefStyleQuery,
	}, true
}

// splitSubDir separates the "//sub/dir" suffix Terraform uses for modules inside a repository.
func splitSubDir(address string) (string, string) {
	offset := 0
	if idx := strings.Index(address, "://"); idx >= 0 {
		offset = idx + len("://")
	}
	idx := strings.Index(address[offset:], "//")
	if idx < 0 {
		return address, ""
	}
	return address[:offset+idx], strings.Trim(address[offset+idx+2:], "/")
}

func isGitModule(source string) bool {
	return strings.HasPrefix(source, "git::") ||
		strings.HasPrefix(source, "git@") ||
		strings.Contains(source, "github.com") ||
		strings.Contains(source, "gitlab.com") ||
		strings.Contains(source, "bitbucket.org") ||
		strings.Contains(source, "dev.azure.com") ||
		strings.Contains(source, "_git/")
}
