package blf

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
)

// ReadFileHeader reads exactly FileHeaderSize bytes from r and validates
// the "LOGG" signature.
func ReadFileHeader(r io.Reader) (FileHeader, error) {
	buf := make([]byte, FileHeaderSize)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return FileHeader{}, newFormatError(ErrShortHeader,
				fmt.Sprintf("%d bytes", FileHeaderSize), fmt.Sprintf("%d bytes", n))
		}
		return FileHeader{}, errors.Wrap(err, "failed to read file header")
	}

	h := parseFileHeader(buf)
	if h.Signature != fileSignature {
		return FileHeader{}, newFormatError(ErrBadFileSignature,
			fmt.Sprintf("%q", fileSignature[:]), fmt.Sprintf("%q", h.Signature[:]))
	}
	return h, nil
}

// Anchor converts the system time to epoch seconds, interpreting the
// calendar fields in loc. DayOfWeek is ignored. A structurally invalid
// date yields 0.
func (st SystemTime) Anchor(loc *time.Location) float64 {
	if !st.valid() {
		return 0
	}
	if loc == nil {
		loc = time.Local
	}
	t := time.Date(int(st.Year), time.Month(st.Month), int(st.Day),
		int(st.Hour), int(st.Minute), int(st.Second), 0, loc)
	return float64(t.Unix()) + float64(st.Millisecond)/1000
}

// Time returns the system time as a time.Time in loc, or the zero Time if
// the fields do not form a valid date.
func (st SystemTime) Time(loc *time.Location) time.Time {
	if !st.valid() {
		return time.Time{}
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Date(int(st.Year), time.Month(st.Month), int(st.Day),
		int(st.Hour), int(st.Minute), int(st.Second), int(st.Millisecond)*int(time.Millisecond), loc)
}

// valid rejects anything time.Date would silently normalize.
func (st SystemTime) valid() bool {
	switch {
	case st.Year < 1 || st.Year > 9999:
		return false
	case st.Month < 1 || st.Month > 12:
		return false
	case st.Day < 1 || int(st.Day) > daysIn(time.Month(st.Month), int(st.Year)):
		return false
	case st.Hour > 23, st.Minute > 59, st.Second > 59, st.Millisecond > 999:
		return false
	}
	return true
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
