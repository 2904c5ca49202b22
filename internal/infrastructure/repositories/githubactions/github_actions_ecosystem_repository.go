package githubactions

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
	"github.com/rios0rios0/refupdate/internal/domain/repositories"
	"github.com/rios0rios0/refupdate/internal/domain/rewriter"
)

const (
	ecosystemName = "github-actions"
	githubBaseURL = "https://github.com/"
)

// usesPattern matches "owner/repo[/path]@ref".
var usesPattern = regexp.MustCompile(`^([\w.-]+)/([\w.-]+)(?:/([^@]+))?@(\S+)$`)

// GitHubActionsEcosystemRepository reads "uses:" steps from workflow and
// composite action files.
type GitHubActionsEcosystemRepository struct {
	files *rewriter.FileRewriter
}

// NewGitHubActionsEcosystemRepository creates the GitHub Actions ecosystem.
func NewGitHubActionsEcosystemRepository() repositories.EcosystemRepository {
	return &GitHubActionsEcosystemRepository{files: rewriter.NewFileRewriter()}
}

func (it *GitHubActionsEcosystemRepository) Name() string { return ecosystemName }

// Detect accepts workflows under .github/workflows and action.yml metadata files.
func (it *GitHubActionsEcosystemRepository) Detect(filePath string) bool {
	slashed := path.Clean(strings.ReplaceAll(filePath, "\\", "/"))
	ext := path.Ext(slashed)
	if ext != ".yml" && ext != ".yaml" {
		return false
	}

	base := path.Base(slashed)
	if base == "action.yml" || base == "action.yaml" {
		return true
	}
	return path.Base(path.Dir(slashed)) == "workflows" && path.Base(path.Dir(path.Dir(slashed))) == ".github"
}

// ParseDeclarations walks the YAML tree and collects every remote "uses:" value.
func (it *GitHubActionsEcosystemRepository) ParseDeclarations(
	filePath, content string,
) ([]entities.Declaration, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(content), &root); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}

	var declarations []entities.Declaration
	walkUses(&root, func(node *yaml.Node) {
		decl, ok := parseUses(node.Value)
		if !ok {
			logger.Debugf("[%s] Skipping %q in %s:%d", ecosystemName, node.Value, filePath, node.Line)
			return
		}
		decl.File = filePath
		decl.Line = node.Line
		declarations = append(declarations, decl)
	})
	return declarations, nil
}

// ApplyUpdate rewrites the "uses:" value and refreshes its version comment.
func (it *GitHubActionsEcosystemRepository) ApplyUpdate(
	content string,
	update entities.DeclarationUpdate,
	index *entities.RefIndex,
) string {
	return it.files.Apply(content, update, index)
}

func walkUses(node *yaml.Node, visit func(*yaml.Node)) {
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			if key.Value == "uses" && value.Kind == yaml.ScalarNode {
				visit(value)
				continue
			}
			walkUses(value, visit)
		}
		return
	}
	for _, child := range node.Content {
		walkUses(child, visit)
	}
}

func parseUses(value string) (entities.Declaration, bool) {
	if strings.HasPrefix(value, "./") || strings.HasPrefix(value, "docker://") {
		return entities.Declaration{}, false
	}

	match := usesPattern.FindStringSubmatch(value)
	if match == nil {
		return entities.Declaration{}, false
	}

	owner, name, subPath, ref := match[1], match[2], match[3], match[4]
	return entities.Declaration{
		SourceURL:         githubBaseURL + owner + "/" + name,
		Repository:        owner + "/" + name,
		Path:              strings.Trim(subPath, "/"),
		Ref:               ref,
		DeclarationString: value,
		Style:             entities.RefStyleAt,
	}, true
}
