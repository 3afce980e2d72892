package blf

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/coffersTech/blflog/internal/model"
	"github.com/coffersTech/blflog/internal/pkg/canql"
)

// EventIterator provides a forward-only view of decoded events.
type EventIterator interface {
	Next() bool
	Event() model.Event
	Err() error
	Close() error
}

// Options configures a Reader. The zero value is usable.
type Options struct {
	// Location is the time zone the file start time is interpreted in.
	// Defaults to time.Local.
	Location *time.Location
	// Logger receives debug output. Defaults to a discarding logger.
	Logger *log.Entry
	// Query drops events that do not match. Nil matches everything.
	Query canql.Node
}

// Stats counts what a Reader has consumed so far.
type Stats struct {
	Objects        int // top-level objects
	Containers     int
	NestedObjects  int
	Skipped        int // objects of types that produce no event
	DataFrames     int
	ErrorFrames    int
	Filtered       int // events dropped by Options.Query
	TruncatedBytes int // trailing fragment dropped at end of stream
}

// Reader decodes a BLF stream into events. It is single-pass and not
// safe for concurrent use; the source is closed once the stream is
// exhausted, on a fatal error, or by Close.
type Reader struct {
	src  io.ReadCloser
	br   *bufio.Reader
	opts Options
	log  *log.Entry

	header FileHeader
	anchor float64

	offset    int64 // file offset of the next top-level object
	objOffset int64 // file offset of the container being walked
	walker    objectWalker
	inflater  inflater

	curr   model.Event
	err    error
	done   bool
	closed bool
	stats  Stats
}

var _ EventIterator = (*Reader)(nil)

// Open opens the named file and reads its header.
func Open(path string, opts Options) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	return NewReader(f, opts)
}

// NewReader takes ownership of src and reads the file header from it.
// src is closed if the header is invalid.
func NewReader(src io.ReadCloser, opts Options) (*Reader, error) {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	logger := opts.Logger
	if logger == nil {
		l := log.New()
		l.SetOutput(io.Discard)
		logger = log.NewEntry(l)
	}

	r := &Reader{
		src:    src,
		br:     bufio.NewReaderSize(src, 64*1024),
		opts:   opts,
		log:    logger,
		offset: FileHeaderSize,
	}

	h, err := ReadFileHeader(r.br)
	if err != nil {
		src.Close()
		return nil, err
	}
	r.header = h
	r.anchor = h.StartTime.Anchor(opts.Location)

	r.log.WithFields(log.Fields{
		"app_id":  h.ApplicationID,
		"objects": h.ObjectCount,
		"anchor":  r.anchor,
	}).Debug("file header read")
	return r, nil
}

// Header returns the parsed file header.
func (r *Reader) Header() FileHeader {
	return r.header
}

// Anchor returns the session start in epoch seconds, or 0 if the header
// start time was not a valid date.
func (r *Reader) Anchor() float64 {
	return r.anchor
}

// Stats returns the counters accumulated so far.
func (r *Reader) Stats() Stats {
	return r.stats
}

// Next advances to the next event. It returns false at end of stream or
// on a fatal error; check Err to tell them apart.
func (r *Reader) Next() bool {
	if r.done {
		return false
	}

	for {
		obj, ok, err := r.walker.next()
		if err != nil {
			r.fail(r.locate(err))
			return false
		}
		if ok {
			r.stats.NestedObjects++
			ev, emit, err := decodeObject(obj.header, obj.body, r.anchor)
			if err != nil {
				if fe, isFE := err.(*FormatError); isFE {
					fe.Nested = obj.pos
				}
				r.fail(r.locate(err))
				return false
			}
			if !emit {
				r.stats.Skipped++
				r.log.WithField("type", obj.header.ObjectType).Debug("object skipped")
				continue
			}
			if ev.IsErrorFrame {
				r.stats.ErrorFrames++
			} else {
				r.stats.DataFrames++
			}
			if !canql.Match(r.opts.Query, &ev) {
				r.stats.Filtered++
				continue
			}
			r.curr = ev
			return true
		}

		more, err := r.readObject()
		if err != nil {
			r.fail(err)
			return false
		}
		if !more {
			r.finish()
			return false
		}
	}
}

// Event returns the event produced by the last successful Next.
func (r *Reader) Event() model.Event {
	return r.curr
}

// Err returns the fatal error that stopped iteration, if any.
func (r *Reader) Err() error {
	return r.err
}

// Close releases the source. It is safe to call more than once.
func (r *Reader) Close() error {
	r.done = true
	if r.closed {
		return nil
	}
	r.closed = true
	return r.src.Close()
}

// Events returns the remaining events as a single-use sequence. A fatal
// error is yielded once as the last element. The source is closed when
// the loop ends, including on break.
func (r *Reader) Events() iter.Seq2[model.Event, error] {
	return func(yield func(model.Event, error) bool) {
		defer r.Close()
		for r.Next() {
			if !yield(r.Event(), nil) {
				return
			}
		}
		if err := r.Err(); err != nil {
			yield(model.Event{}, err)
		}
	}
}

// readObject consumes one top-level object. Containers are inflated and
// fed to the walker; everything else is discarded. It returns false at
// end of stream.
func (r *Reader) readObject() (bool, error) {
	start := r.offset

	hdrBuf := make([]byte, ObjectHeaderSize)
	n, err := io.ReadFull(r.br, hdrBuf)
	switch {
	case err == io.EOF:
		return false, nil
	case err == io.ErrUnexpectedEOF:
		fe := newFormatError(ErrShortHeader,
			fmt.Sprintf("%d bytes", ObjectHeaderSize), fmt.Sprintf("%d bytes", n))
		fe.Offset = start
		return false, fe
	case err != nil:
		return false, errors.Wrapf(err, "failed to read object header at offset %d", start)
	}

	h := parseObjectHeader(hdrBuf)
	if h.Signature != objectSignature {
		fe := newFormatError(ErrBadObjectSignature,
			fmt.Sprintf("%q", objectSignature[:]), fmt.Sprintf("%q", h.Signature[:]))
		fe.Offset = start
		return false, fe
	}
	if h.HeaderSize < ObjectHeaderSize || uint32(h.HeaderSize) > h.ObjectSize {
		fe := newFormatError(ErrBadObjectSize,
			fmt.Sprintf("%d <= header_size <= object_size", ObjectHeaderSize),
			fmt.Sprintf("header_size=%d object_size=%d", h.HeaderSize, h.ObjectSize))
		fe.Offset = start
		return false, fe
	}
	r.stats.Objects++

	rest := int64(h.ObjectSize) - ObjectHeaderSize
	extra := int64(h.HeaderSize) - ObjectHeaderSize

	if h.ObjectType != TypeLogContainer {
		got, err := r.br.Discard(int(rest))
		if err != nil {
			return r.truncated(start, int64(ObjectHeaderSize+got), err)
		}
		r.stats.Skipped++
		r.log.WithField("type", h.ObjectType).Debug("top-level object skipped")
		r.skipPadding(h)
		return true, nil
	}

	var body bytes.Buffer
	got, err := io.CopyN(&body, r.br, rest)
	if err != nil {
		return r.truncated(start, ObjectHeaderSize+got, err)
	}
	r.skipPadding(h)

	size, _ := h.UncompressedSize()
	data, err := r.inflater.inflate(body.Bytes()[extra:], size)
	if err != nil {
		fe := newFormatError(ErrInflate, fmt.Sprintf("%d bytes", size), "")
		fe.Offset = start
		fe.Cause = err
		return false, fe
	}
	r.stats.Containers++
	r.objOffset = start
	r.walker.feed(data)

	r.log.WithFields(log.Fields{
		"offset":       start,
		"compressed":   rest - extra,
		"uncompressed": len(data),
		"tail":         len(r.walker.tail()),
	}).Debug("log container inflated")
	return true, nil
}

// skipPadding consumes the alignment bytes after a top-level object.
// Missing padding at end of file is not an error.
func (r *Reader) skipPadding(h ObjectHeader) {
	pad := padding(h.ObjectSize)
	got, _ := r.br.Discard(pad)
	r.offset += int64(h.ObjectSize) + int64(got)
}

// truncated handles a top-level object cut short by end of file: the
// fragment is dropped and decoding ends without error.
func (r *Reader) truncated(start, got int64, err error) (bool, error) {
	if err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, errors.Wrapf(err, "failed to read object at offset %d", start)
	}
	r.stats.TruncatedBytes += int(got)
	r.log.WithFields(log.Fields{
		"offset": start,
		"bytes":  got,
	}).Debug("truncated trailing object dropped")
	return false, nil
}

// locate stamps a nested decode error with the container's file offset.
func (r *Reader) locate(err error) error {
	if fe, ok := err.(*FormatError); ok {
		fe.Offset = r.objOffset
	}
	return err
}

func (r *Reader) fail(err error) {
	r.err = err
	r.Close()
}

// finish ends a clean decode. A tail left in the walker is an object
// that no later container completed; it is dropped silently.
func (r *Reader) finish() {
	if tail := r.walker.tail(); len(tail) > 0 {
		r.stats.TruncatedBytes += len(tail)
		r.log.WithField("bytes", len(tail)).Debug("incomplete trailing object dropped")
	}
	r.walker = objectWalker{}
	r.Close()
}
