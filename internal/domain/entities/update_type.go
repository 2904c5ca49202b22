package entities

import "fmt"

// UpdateType is the size of a version change, named as in Dependabot's
// "update-types" ignore condition.
type UpdateType string

const (
	UpdateTypeMajor UpdateType = "version-update:semver-major"
	UpdateTypeMinor UpdateType = "version-update:semver-minor"
	UpdateTypePatch UpdateType = "version-update:semver-patch"
)

// ParseUpdateType accepts the Dependabot spelling or the bare "major", "minor", "patch".
func ParseUpdateType(raw string) (UpdateType, error) {
	switch raw {
	case string(UpdateTypeMajor), "major":
		return UpdateTypeMajor, nil
	case string(UpdateTypeMinor), "minor":
		return UpdateTypeMinor, nil
	case string(UpdateTypePatch), "patch":
		return UpdateTypePatch, nil
	default:
		return "", fmt.Errorf("invalid update type %q", raw)
	}
}

// ClassifyUpdate tells which component first differs between current and
// target. Missing components count as zero, so "v1" to "v1.3" is a minor
// update; changes past the third component are reported as patches.
func ClassifyUpdate(current, target VersionTag) UpdateType {
	switch {
	case current.Segment(0) != target.Segment(0):
		return UpdateTypeMajor
	case current.Segment(1) != target.Segment(1):
		return UpdateTypeMinor
	default:
		return UpdateTypePatch
	}
}
