package quietblock

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTitle    = errors.New("title must not be empty")
	ErrTitleTooLong  = errors.New("title is too long")
	ErrInvalidRange  = errors.New("end must be after start")
	ErrOverlap       = errors.New("quiet block overlaps an existing active block")
	ErrBlockNotFound = errors.New("quiet block not found")
)

// OverlapError identifies the active block a rejected interval collides with.
// errors.Is(err, ErrOverlap) holds for it.
type OverlapError struct {
	Conflict *QuietBlock
}

func (e *OverlapError) Error() string {
	if e.Conflict == nil {
		return ErrOverlap.Error()
	}
	return fmt.Sprintf("%s (%s)", ErrOverlap.Error(), e.Conflict.ID)
}

func (e *OverlapError) Unwrap() error {
	return ErrOverlap
}

// ReasonCode maps a rejection to the code reported to clients
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrEmptyTitle):
		return "EmptyTitle"
	case errors.Is(err, ErrTitleTooLong):
		return "TitleTooLong"
	case errors.Is(err, ErrInvalidRange):
		return "InvalidRange"
	case errors.Is(err, ErrOverlap):
		return "Overlap"
	default:
		return ""
	}
}
