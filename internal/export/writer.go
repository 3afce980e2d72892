package export

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/coffersTech/blflog/internal/model"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// EventWriter serializes decoded events. Output is buffered; call Flush
// once all events are written.
type EventWriter interface {
	WriteEvent(ev *model.Event) error
	Flush() error
}

// NewWriter returns the writer for format.
func NewWriter(format string, w io.Writer) (EventWriter, error) {
	switch strings.ToLower(format) {
	case FormatText, "txt", "":
		return NewTextWriter(w), nil
	case FormatJSON, "ndjson":
		return NewJSONWriter(w), nil
	default:
		return nil, errors.Errorf("unknown output format %q", format)
	}
}

// Copy drains it into w and flushes. It returns the number of events written.
// Events written before an iterator error are still flushed.
func Copy(w EventWriter, it interface {
	Next() bool
	Event() model.Event
	Err() error
}) (int, error) {
	n := 0
	for it.Next() {
		ev := it.Event()
		if err := w.WriteEvent(&ev); err != nil {
			return n, errors.Wrap(err, "write event")
		}
		n++
	}
	if err := it.Err(); err != nil {
		if ferr := w.Flush(); ferr != nil {
			log.WithError(ferr).Warn("failed to flush events before decode error")
		}
		return n, err
	}
	return n, errors.Wrap(w.Flush(), "flush")
}

func newBuffered(w io.Writer) *bufio.Writer {
	if bw, ok := w.(*bufio.Writer); ok {
		return bw
	}
	return bufio.NewWriterSize(w, 64*1024)
}
