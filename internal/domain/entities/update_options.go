package entities

// UpdateOptions holds runtime options passed to ecosystem updaters.
type UpdateOptions struct {
	DryRun            bool
	Verbose           bool
	RaiseOnAllIgnored bool
	Changelog         string // path of a Keep-a-Changelog file to record updates in, optional
}
