package buf

import (
	"errors"
	"fmt"
)

// ErrOffset matches every *OffsetError via errors.Is.
var ErrOffset = errors.New("buf: offset out of range")

// OffsetKind classifies an out-of-range offset.
type OffsetKind uint8

const (
	OffsetInvalid OffsetKind = iota // negative or overflowing
	OffsetAhead                     // runs past the end of the span
	OffsetBehind                    // starts before the span
)

func (k OffsetKind) String() string {
	switch k {
	case OffsetAhead:
		return "ahead"
	case OffsetBehind:
		return "behind"
	default:
		return "invalid"
	}
}

// OffsetError reports a span that does not fit the buffer or file it was
// resolved against.
type OffsetError struct {
	Entity Entity
	Kind   OffsetKind
	Offset int64
	Size   int64
	Base   int64
	Limit  int64
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("offset %s: %s [%d,+%d) outside [%d,%d)",
		e.Kind, e.Entity, e.Offset, e.Size, e.Base, e.Limit)
}

// Is lets errors.Is(err, ErrOffset) match any OffsetError.
func (e *OffsetError) Is(target error) bool { return target == ErrOffset }
