package schedule

import (
	"errors"
	"fmt"
)

var (
	ErrShiftNotFound = errors.New("shift not found")

	// ErrInvalidShift is returned by single-shift scheduling; the two causes below wrap it.
	ErrInvalidShift     = errors.New("invalid shift")
	ErrShiftInvalidSpan = fmt.Errorf("%w: start must be before end", ErrInvalidShift)
	ErrShiftOverlap     = fmt.Errorf("%w: overlaps an existing shift for this user and date", ErrInvalidShift)
)

// Reasons recorded for windows skipped by weekly scheduling.
const (
	SkipReasonInvalidSpan = "start must be before end"
	SkipReasonOverlap     = "overlaps existing shift"
)
