package entities

// RefKind tells branches and tags apart in a remote advertisement.
type RefKind string

const (
	RefKindBranch RefKind = "branch"
	RefKindTag    RefKind = "tag"
)

// RemoteRef is one advertised branch or tag of a remote repository.
type RemoteRef struct {
	Name      string // short name, without "refs/heads/" or "refs/tags/"
	CommitSHA string // commit the ref resolves to (peeled for annotated tags)
	TagSHA    string // annotated tag object, empty for lightweight tags and branches
	Kind      RefKind
}

// VersionRef pairs a version-shaped ref with its parsed version.
type VersionRef struct {
	Ref     RemoteRef
	Version VersionTag
}

// Name is a shorthand for the underlying ref name.
func (v VersionRef) Name() string { return v.Ref.Name }

// IsBranch reports whether the version comes from a branch name.
func (v VersionRef) IsBranch() bool { return v.Ref.Kind == RefKindBranch }
