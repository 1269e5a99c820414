package common

import "errors"

// Sentinel errors for each decode-time failure kind in spec.md §7.
// Callers wrap these with fmt.Errorf("...: %w", ...) to attach the
// path/checksum/offset diagnostics that kind calls for, while still
// letting callers errors.Is against the kind.
var (
	ErrTooSmall           = errors.New("archive too small")
	ErrBadMagic           = errors.New("does not contain magic number")
	ErrBadArchiveChecksum = errors.New("could not verify archive integrity")
	ErrBadBundleChecksum  = errors.New("bundle checksum mismatch")
	ErrBadListingChecksum = errors.New("listing checksum mismatch")
	ErrInvalidPath        = errors.New("invalid listing path")
	ErrPathTooLong        = errors.New("path is too long")
)
