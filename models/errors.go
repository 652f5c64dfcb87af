package models

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSegment is returned when a segment is missing from the payout table
	ErrUnknownSegment = errors.New("unknown segment")

	// ErrInvalidImport is returned when bulk data lacks required fields or cannot be parsed
	ErrInvalidImport = errors.New("invalid import")

	// ErrSessionNotFound is returned when a named session does not exist
	ErrSessionNotFound = errors.New("session not found")

	// ErrInsufficientData is returned when there are not enough rows to compute a result
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidRound is returned when a round record breaks a value constraint
	ErrInvalidRound = errors.New("invalid round")

	// ErrInvalidPosition is returned when a round position is out of range
	ErrInvalidPosition = errors.New("invalid round position")
)

// UnknownSegmentError carries the identifier that failed to resolve
type UnknownSegmentError struct {
	Segment string
}

func (e *UnknownSegmentError) Error() string {
	return fmt.Sprintf("unknown segment %q", e.Segment)
}

func (e *UnknownSegmentError) Unwrap() error {
	return ErrUnknownSegment
}

// ImportError describes why a bulk import was rejected.
// Line is 0 when the problem is not tied to a single row.
type ImportError struct {
	Line   int
	Reason string
}

func (e *ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid import at line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("invalid import: %s", e.Reason)
}

func (e *ImportError) Unwrap() error {
	return ErrInvalidImport
}
