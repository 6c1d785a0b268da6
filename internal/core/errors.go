package core

import "errors"

// Selection errors. Transitions that return one of these leave the state
// unchanged, so callers may treat them as no-ops.
var (
	// ErrContactNotFound is returned when a toggle names a contact that is
	// not in the list it is being moved out of.
	ErrContactNotFound = errors.New("contact not found in source list")

	// ErrStaleImport is returned when a toggle was rendered against an
	// import that has since been replaced by a newer upload.
	ErrStaleImport = errors.New("stale import: contacts were re-uploaded")

	// ErrNothingSelected is returned by Export when no contact is selected.
	ErrNothingSelected = errors.New("nothing selected to export")
)
