package entities

import (
	"strings"

	"github.com/package-url/packageurl-go"
)

// SecurityAdvisory marks a set of versions of one dependency as unsafe.
type SecurityAdvisory struct {
	ID               string
	DependencyName   string // owner/repo[/path]
	PackageURL       string // optional purl, matched without version
	VulnerableRanges []VersionRange
}

// AppliesTo reports whether the advisory targets the given dependency.
func (a SecurityAdvisory) AppliesTo(dep Dependency) bool {
	if a.DependencyName != "" && strings.EqualFold(a.DependencyName, dep.Name) {
		return true
	}
	if a.PackageURL == "" {
		return false
	}
	want, err := packageurl.FromString(a.PackageURL)
	if err != nil {
		return false
	}
	have, err := packageurl.FromString(dep.PackageURL(""))
	if err != nil {
		return false
	}
	return strings.EqualFold(want.Type, have.Type) &&
		strings.EqualFold(want.Namespace, have.Namespace) &&
		strings.EqualFold(want.Name, have.Name) &&
		strings.Trim(want.Subpath, "/") == strings.Trim(have.Subpath, "/")
}

// Vulnerable reports whether version falls in one of the advisory's ranges.
func (a SecurityAdvisory) Vulnerable(version VersionTag) bool {
	return AnyContains(a.VulnerableRanges, version)
}

// AdvisoriesFor keeps the advisories that apply to dep.
func AdvisoriesFor(advisories []SecurityAdvisory, dep Dependency) []SecurityAdvisory {
	var relevant []SecurityAdvisory
	for _, advisory := range advisories {
		if advisory.AppliesTo(dep) {
			relevant = append(relevant, advisory)
		}
	}
	return relevant
}
