// Package blftest builds synthetic BLF captures for tests.
package blftest

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/zlib"
)

const (
	fileHeaderSize   = 144
	objectHeaderSize = 32

	TypeCANMessage   uint32 = 1
	TypeCANError     uint32 = 2
	TypeLogContainer uint32 = 10
	TypeGlobalMarker uint32 = 96
)

// Start is 2020-09-13 12:26:40.000, i.e. Unix 1_600_000_000 in UTC.
var Start = [8]uint16{2020, 9, 0, 13, 12, 26, 40, 0}

// FileHeader returns a 144-byte "LOGG" header with the given start time
// (year, month, day-of-week, day, hour, minute, second, millisecond).
func FileHeader(start [8]uint16) []byte {
	b := make([]byte, fileHeaderSize)
	le := binary.LittleEndian
	copy(b, "LOGG")
	le.PutUint32(b[4:], fileHeaderSize)
	b[8] = 5 // application id
	for i, v := range start {
		le.PutUint16(b[40+i*2:], v)
	}
	return b
}

// Object returns header + body followed by (object_size mod 4) zero bytes.
func Object(typ uint32, value uint64, body []byte) []byte {
	return ObjectWithHeader(typ, objectHeaderSize, value, body)
}

// ObjectWithHeader is Object with a header_size of headerSize. Header bytes
// past the first 32 are zero.
func ObjectWithHeader(typ uint32, headerSize int, value uint64, body []byte) []byte {
	size := headerSize + len(body)
	b := make([]byte, size+size%4)
	le := binary.LittleEndian
	copy(b, "LOBJ")
	le.PutUint16(b[4:], uint16(headerSize))
	le.PutUint16(b[6:], 1)
	le.PutUint32(b[8:], uint32(size))
	le.PutUint32(b[12:], typ)
	le.PutUint64(b[24:], value)
	copy(b[headerSize:], body)
	return b
}

// CANMessage returns a data frame object with timestamp ts in nanoseconds.
func CANMessage(ts uint64, channel uint16, flags, dlc uint8, id uint32, data [8]byte) []byte {
	body := make([]byte, 16)
	le := binary.LittleEndian
	le.PutUint16(body[0:], channel)
	body[2] = flags
	body[3] = dlc
	le.PutUint32(body[4:], id)
	copy(body[8:], data[:])
	return Object(TypeCANMessage, ts, body)
}

// CANError returns an error frame object with timestamp ts in nanoseconds.
func CANError(ts uint64, channel, length uint16) []byte {
	body := make([]byte, 8)
	binary.LittleEndian.PutUint16(body[0:], channel)
	binary.LittleEndian.PutUint16(body[2:], length)
	return Object(TypeCANError, ts, body)
}

// Compress zlib-compresses raw.
func Compress(t testing.TB, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// Container wraps raw nested objects in a log container object.
func Container(t testing.TB, raw []byte) []byte {
	t.Helper()
	return Object(TypeLogContainer, uint64(len(raw)), Compress(t, raw))
}

// File packs a nested object stream into log containers, cutting the
// stream at the given offsets, behind a file header.
func File(t testing.TB, start [8]uint16, stream []byte, cuts ...int) []byte {
	t.Helper()
	out := FileHeader(start)
	prev := 0
	for _, c := range append(cuts[:len(cuts):len(cuts)], len(stream)) {
		out = append(out, Container(t, stream[prev:c])...)
		prev = c
	}
	return out
}

// Concat joins byte slices.
func Concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
