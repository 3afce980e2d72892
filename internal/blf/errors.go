package blf

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrBadFileSignature   = errors.New("bad file signature")
	ErrBadObjectSignature = errors.New("bad object signature")
	ErrShortHeader        = errors.New("truncated header")
	ErrBadObjectSize      = errors.New("inconsistent object size")
	ErrInflate            = errors.New("log container inflate failed")
	ErrInvalidDLC         = errors.New("dlc exceeds data width")
	ErrShortBody          = errors.New("object body too short")
)

// FormatError reports a fatal structural problem in a BLF stream.
// Err is one of the Err* sentinels above.
type FormatError struct {
	Offset   int64 // file offset of the top-level object, or 0 for the file header
	Nested   int   // offset inside the inflated container buffer, -1 at top level
	Expected string
	Actual   string
	Err      error
	Cause    error // underlying I/O or inflate error, if any
}

func (e *FormatError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "blf: %v at offset %d", e.Err, e.Offset)
	if e.Nested >= 0 {
		fmt.Fprintf(&b, " (container +%d)", e.Nested)
	}
	if e.Expected != "" || e.Actual != "" {
		fmt.Fprintf(&b, ": expected %s, got %s", e.Expected, e.Actual)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *FormatError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func newFormatError(sentinel error, expected, actual string) *FormatError {
	return &FormatError{Nested: -1, Err: sentinel, Expected: expected, Actual: actual}
}
