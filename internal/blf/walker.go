package blf

import (
	"fmt"
)

// object is one complete nested object inside an inflated buffer.
type object struct {
	header ObjectHeader
	body   []byte
	pos    int // offset of the header inside the walker buffer
}

// objectWalker iterates nested objects across a sequence of inflated
// container buffers. An object that runs past the end of the current
// buffer stays in the tail and is completed by the next feed.
type objectWalker struct {
	buf  []byte
	pos  int
	skip int // padding bytes still owed by the previous buffer
}

// feed appends the next inflated buffer after the unconsumed tail and
// restarts the walk at the tail's first byte.
func (w *objectWalker) feed(data []byte) {
	tail := w.tail()
	if w.pos > len(w.buf) {
		w.skip += w.pos - len(w.buf)
	}
	if w.skip > 0 {
		n := min(w.skip, len(data))
		data = data[n:]
		w.skip -= n
	}
	if len(tail) == 0 {
		w.buf = data
	} else {
		buf := make([]byte, 0, len(tail)+len(data))
		buf = append(buf, tail...)
		w.buf = append(buf, data...)
	}
	w.pos = 0
}

// tail returns the bytes not yet consumed by next.
func (w *objectWalker) tail() []byte {
	if w.pos >= len(w.buf) {
		return nil
	}
	return w.buf[w.pos:]
}

// next returns the next complete object. ok is false when the remaining
// bytes do not hold a complete object; those bytes become the tail.
func (w *objectWalker) next() (obj object, ok bool, err error) {
	if w.pos+ObjectHeaderSize > len(w.buf) {
		return object{}, false, nil
	}

	h := parseObjectHeader(w.buf[w.pos:])
	if h.Signature != objectSignature {
		fe := newFormatError(ErrBadObjectSignature,
			fmt.Sprintf("%q", objectSignature[:]), fmt.Sprintf("%q", h.Signature[:]))
		fe.Nested = w.pos
		return object{}, false, fe
	}
	if h.HeaderSize < ObjectHeaderSize || uint32(h.HeaderSize) > h.ObjectSize {
		fe := newFormatError(ErrBadObjectSize,
			fmt.Sprintf("%d <= header_size <= object_size", ObjectHeaderSize),
			fmt.Sprintf("header_size=%d object_size=%d", h.HeaderSize, h.ObjectSize))
		fe.Nested = w.pos
		return object{}, false, fe
	}

	end := int64(w.pos) + int64(h.ObjectSize)
	if end > int64(len(w.buf)) {
		return object{}, false, nil
	}

	obj = object{
		header: h,
		body:   w.buf[w.pos+int(h.HeaderSize) : end],
		pos:    w.pos,
	}
	w.pos = int(end) + padding(h.ObjectSize)
	return obj, true, nil
}
