package entities

import (
	"fmt"
	"slices"
	"strings"
)

const (
	unreleasedHeading = "## [Unreleased]"
	changedHeading    = "### Changed"
	releaseMarker     = "## ["
	bullet            = "- "
)

// ChangelogEntries renders one Keep-a-Changelog bullet per distinct pin move.
func ChangelogEntries(updates []DeclarationUpdate) []string {
	var entries []string
	for _, update := range updates {
		if !update.Changed() {
			continue
		}
		entry := fmt.Sprintf(
			"%schanged `%s` from `%s` to `%s`",
			bullet, DependencyName(update.Previous), update.Previous.Ref, update.Updated.Ref,
		)
		if !slices.Contains(entries, entry) {
			entries = append(entries, entry)
		}
	}
	return entries
}

// RecordInChangelog adds entries under "## [Unreleased]" / "### Changed".
// Content without an Unreleased section is returned as is; a missing
// Changed heading is created directly below Unreleased.
func RecordInChangelog(content string, entries []string) string {
	if len(entries) == 0 {
		return content
	}

	lines := strings.Split(content, "\n")
	section, ok := locateUnreleased(lines)
	if !ok {
		return content
	}

	if section.changed < 0 {
		block := append([]string{"", changedHeading, ""}, entries...)
		return strings.Join(slices.Insert(lines, section.start+1, block...), "\n")
	}

	at := section.changed
	for i := section.changed + 1; i < section.end; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, bullet) {
			break
		}
		at = i
	}
	if at == section.changed {
		entries = append([]string{""}, entries...)
	}
	return strings.Join(slices.Insert(lines, at+1, entries...), "\n")
}

type unreleasedSection struct {
	start   int
	end     int
	changed int
}

func locateUnreleased(lines []string) (unreleasedSection, bool) {
	section := unreleasedSection{start: -1, end: len(lines), changed: -1}
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case section.start < 0:
			if trimmed == unreleasedHeading {
				section.start = i
			}
		case strings.HasPrefix(trimmed, releaseMarker):
			section.end = i
			return section, true
		case trimmed == changedHeading && section.changed < 0:
			section.changed = i
		}
	}
	return section, section.start >= 0
}
