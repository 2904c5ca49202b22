package rewriter

import (
	"regexp"

	"github.com/rios0rios0/refupdate/internal/domain/entities"
)

// FileRewriter replaces declaration strings inside file content and keeps
// trailing version comments of SHA pins in sync.
type FileRewriter struct{}

// NewFileRewriter creates a FileRewriter.
func NewFileRewriter() *FileRewriter {
	return &FileRewriter{}
}

// Apply rewrites every standalone occurrence of the previous declaration
// string. An occurrence is standalone when it is delimited by whitespace,
// a quote, or the end of the line. A trailing "# ..." annotation on the same
// line is refreshed when it names the version of the old commit.
func (it *FileRewriter) Apply(content string, update entities.DeclarationUpdate, index *entities.RefIndex) string {
	old := update.Previous.DeclarationString
	if old == "" || !update.Changed() {
		return content
	}

	pattern := regexp.MustCompile(`(?m)(^|[\s"'])` + regexp.QuoteMeta(old) + `([ \t]+#.*)?([\s"']|$)`)
	previousVersion, nextVersion, refreshComments := commentVersions(update, index)

	var trailing *regexp.Regexp
	if refreshComments {
		trailing = trailingVersionPattern(previousVersion)
	}

	return pattern.ReplaceAllStringFunc(content, func(match string) string {
		groups := pattern.FindStringSubmatch(match)
		comment := groups[2]
		if trailing != nil && comment != "" {
			comment = trailing.ReplaceAllString(comment, "${1}${2}"+nextVersion+"${3}")
		}
		return groups[1] + update.Updated.DeclarationString + comment + groups[3]
	})
}

// trailingVersionPattern matches version as the last whole token of a comment,
// so "# v2.0.0" matches 2.0.0 while "# v12.0.0" does not.
func trailingVersionPattern(version string) *regexp.Regexp {
	return regexp.MustCompile(`(^|[^0-9A-Za-z.])(v?)` + regexp.QuoteMeta(version) + `([ \t\r]*)$`)
}

// commentVersions returns the numeric versions a comment should move between.
// Only SHA pins carry such comments, and both commits must map to a version tag.
func commentVersions(update entities.DeclarationUpdate, index *entities.RefIndex) (string, string, bool) {
	if index == nil || !entities.LooksLikeCommitSHA(update.Previous.Ref) {
		return "", "", false
	}

	scope := index.ScopeFor(update.Previous.Path)
	previous, ok := index.MostSpecificTagForSHA(update.Previous.Ref, scope)
	if !ok {
		return "", "", false
	}
	next, ok := index.MostSpecificTagForSHA(update.Updated.Ref, scope)
	if !ok {
		return "", "", false
	}
	return previous.Version.String(), next.Version.String(), true
}
