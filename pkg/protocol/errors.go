package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompleteFrame is returned by Decode when the input ends before the
	// declared frame length. The streaming Decoder never returns it; it waits
	// for more bytes instead.
	ErrIncompleteFrame = errors.New("protocol: incomplete frame")

	ErrFrameTooShort    = errors.New("protocol: declared frame length shorter than header")
	ErrFrameTooLarge    = errors.New("protocol: frame exceeds maximum size")
	ErrFieldOverrun     = errors.New("protocol: field overruns frame")
	ErrUnknownFieldType = errors.New("protocol: unknown field type")
	ErrDuplicateTag     = errors.New("protocol: duplicate field tag")
	ErrBadFieldValue    = errors.New("protocol: malformed field value")
	ErrDecompress       = errors.New("protocol: cannot decompress payload")
	ErrTrailingData     = errors.New("protocol: trailing bytes after frame")
)

// FramingError reports a frame that cannot be decoded. After a framing
// error the position of the next frame in the byte stream is unknown, so
// the connection carrying it must be dropped.
type FramingError struct {
	Code   uint16 // command code from the header, when it was readable
	Offset int    // byte offset within the frame
	Err    error  // one of the Err* sentinels above
	Detail string
}

func (e *FramingError) Error() string {
	msg := fmt.Sprintf("%v at offset %d (%s)", e.Err, e.Offset, CommandName(e.Code))
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *FramingError) Unwrap() error {
	return e.Err
}

// IsFramingError reports whether err is or wraps a *FramingError.
func IsFramingError(err error) bool {
	var fe *FramingError
	return errors.As(err, &fe)
}
