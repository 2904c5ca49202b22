package entities

// ResolutionKind says how the resolved target is expressed.
type ResolutionKind int

const (
	ResolutionNone   ResolutionKind = iota // nothing to update, Ref is the current pin
	ResolutionTag                          // Ref is a tag name
	ResolutionBranch                       // Ref is a branch name
	ResolutionCommit                       // Ref is a commit SHA
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolutionTag:
		return "tag"
	case ResolutionBranch:
		return "branch"
	case ResolutionCommit:
		return "commit"
	default:
		return "none"
	}
}

// Resolution is the outcome of resolving a single pinned ref.
type Resolution struct {
	Kind           ResolutionKind
	FromRef        string      // the pin that was resolved
	Ref            string      // the ref to pin to
	CommitSHA      string      // commit Ref points to, when known
	Version        *VersionRef // target version, nil for non-version targets
	CurrentVersion *VersionTag // version of the current pin, nil when unknown
}

// NoUpdate builds the "stay where you are" resolution for ref.
func NoUpdate(ref string, current *VersionTag) *Resolution {
	return &Resolution{Kind: ResolutionNone, FromRef: ref, Ref: ref, CurrentVersion: current}
}

// IsUpdate reports whether the resolution moves the pin.
func (r *Resolution) IsUpdate() bool {
	return r != nil && r.Kind != ResolutionNone && r.Ref != r.FromRef
}

// VersionString returns the numeric target version. Targets without a version
// report their commit, falling back to the ref itself.
func (r *Resolution) VersionString() string {
	switch {
	case r == nil:
		return ""
	case r.Version != nil:
		return r.Version.Version.String()
	case r.CommitSHA != "":
		return r.CommitSHA
	default:
		return r.Ref
	}
}
