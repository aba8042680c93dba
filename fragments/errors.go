package fragments

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrShortBuffer is returned when a value's header or body
	// extends beyond the end of the input.
	ErrShortBuffer = errors.New("short buffer")
	// ErrRange is returned when a decoded integer does not fit in an
	// int64.
	ErrRange = errors.New("integer out of range")
)

// TagError is the error returned when the wire tag at the cursor
// does not belong to the category the caller asked for.
type TagError struct {
	// Offset is the position of the offending tag in the input.
	Offset int
	// Got is the tag found in the input.
	Got Tag
	// Want lists the tags that would have been accepted.
	Want []Tag
}

func (e *TagError) Error() string {
	want := make([]string, len(e.Want))
	for i, t := range e.Want {
		want[i] = t.String()
	}
	return fmt.Sprintf("unexpected tag %s at offset %d, want %s", e.Got, e.Offset, strings.Join(want, " or "))
}

// VersionError is the error returned when a buffer does not start
// with the supported format version.
type VersionError struct {
	Got byte
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("unsupported format version %d, want %d", e.Got, Version)
}
