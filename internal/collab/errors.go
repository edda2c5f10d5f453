package collab

import "errors"

// ErrOutOfRange marks an operation that addressed a location past the
// document. Delete and Substr clamp instead of returning this; Insert on a
// non-empty document treats an out-of-range offset as a caller bug and
// returns this error wrapped with detail.
var ErrOutOfRange = errors.New("piece table: offset out of range")

// ErrInvariantViolation marks an internal inconsistency — a piece whose
// lineStarts sum diverges from its length, or an edit that left the piece
// sequence empty on a non-empty document. Seeing this means a bug in this
// package, not a caller mistake.
var ErrInvariantViolation = errors.New("piece table: invariant violation")
