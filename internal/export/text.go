package export

import (
	"bufio"
	"bytes"
	"io"
	"math"
	"strconv"

	"github.com/coffersTech/blflog/internal/model"
)

// TextHeader is the first line of a text export.
const TextHeader = "timestamp\tis_remote_frame\textended_id\tis_error_frame\tdlc\tarbitration_id\tdata"

// TextWriter writes one tab separated line per event:
//
//	timestamp  remote  extended  error  dlc  "ID B0 B1 B2 B3 B4 B5 B6 B7"
//
// The id is hex padded to 3 digits and the payload is always shown as
// 8 hex bytes, zero filled past dlc.
type TextWriter struct {
	w             *bufio.Writer
	buf           []byte
	headerWritten bool
}

func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: newBuffered(w)}
}

func (tw *TextWriter) WriteEvent(ev *model.Event) error {
	if !tw.headerWritten {
		if _, err := tw.w.WriteString(TextHeader + "\n"); err != nil {
			return err
		}
		tw.headerWritten = true
	}
	tw.buf = AppendTextLine(tw.buf[:0], ev)
	tw.buf = append(tw.buf, '\n')
	_, err := tw.w.Write(tw.buf)
	return err
}

// Flush writes the header if no event was written, then flushes.
func (tw *TextWriter) Flush() error {
	if !tw.headerWritten {
		if _, err := tw.w.WriteString(TextHeader + "\n"); err != nil {
			return err
		}
		tw.headerWritten = true
	}
	return tw.w.Flush()
}

// AppendTextLine appends the text form of ev, without a newline, to dst.
func AppendTextLine(dst []byte, ev *model.Event) []byte {
	dst = appendTimestamp(dst, ev.Timestamp)
	dst = append(dst, '\t')
	dst = appendTitleBool(dst, ev.IsRemoteFrame)
	dst = append(dst, '\t')
	dst = appendTitleBool(dst, ev.IsExtendedID)
	dst = append(dst, '\t')
	dst = appendTitleBool(dst, ev.IsErrorFrame)
	dst = append(dst, '\t')
	dst = strconv.AppendUint(dst, uint64(ev.DLC), 10)
	dst = append(dst, '\t')

	id := strconv.FormatUint(uint64(ev.ArbitrationID), 16)
	for i := len(id); i < 3; i++ {
		dst = append(dst, '0')
	}
	dst = append(dst, id...)

	for i := 0; i < 8; i++ {
		var b byte
		if i < len(ev.Data) {
			b = ev.Data[i]
		}
		dst = append(dst, ' ', hexDigits[b>>4], hexDigits[b&0x0f])
	}
	return dst
}

const hexDigits = "0123456789abcdef"

// appendTimestamp writes the shortest decimal that reads back as ts, always
// with a fractional part ("1600000003.0"). Magnitudes below 1e-4 or from
// 1e16 up use exponent notation ("1e-05").
func appendTimestamp(dst []byte, ts float64) []byte {
	abs := math.Abs(ts)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) || math.IsInf(ts, 0) || math.IsNaN(ts) {
		return strconv.AppendFloat(dst, ts, 'e', -1, 64)
	}
	start := len(dst)
	dst = strconv.AppendFloat(dst, ts, 'f', -1, 64)
	if bytes.IndexByte(dst[start:], '.') < 0 {
		dst = append(dst, '.', '0')
	}
	return dst
}

func appendTitleBool(dst []byte, v bool) []byte {
	if v {
		return append(dst, "True"...)
	}
	return append(dst, "False"...)
}
