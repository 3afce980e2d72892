package blf

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coffersTech/blflog/internal/blf/blftest"
)

// epochStart is 2020-09-13 12:26:40 UTC, i.e. Unix 1_600_000_000.
var epochStart = SystemTime{Year: 2020, Month: 9, DayOfWeek: 0, Day: 13, Hour: 12, Minute: 26, Second: 40}

func (st SystemTime) fields() [8]uint16 {
	return [8]uint16{st.Year, st.Month, st.DayOfWeek, st.Day, st.Hour, st.Minute, st.Second, st.Millisecond}
}

func encodeFileHeader(st SystemTime) []byte {
	return blftest.FileHeader(st.fields())
}

func encodeObject(typ ObjectType, value uint64, body []byte) []byte {
	return blftest.Object(uint32(typ), value, body)
}

func encodeObjectWithHeader(typ ObjectType, headerSize int, value uint64, body []byte) []byte {
	return blftest.ObjectWithHeader(uint32(typ), headerSize, value, body)
}

var (
	canMessageObject = blftest.CANMessage
	canErrorObject   = blftest.CANError
	compress         = blftest.Compress
	containerObject  = blftest.Container
	concat           = blftest.Concat
)

func buildFile(t testing.TB, st SystemTime, stream []byte, cuts ...int) []byte {
	t.Helper()
	return blftest.File(t, st.fields(), stream, cuts...)
}

type trackingCloser struct {
	io.Reader
	closed int
}

func (c *trackingCloser) Close() error {
	c.closed++
	return nil
}

func openBytes(t testing.TB, data []byte, opts Options) (*Reader, *trackingCloser) {
	t.Helper()
	src := &trackingCloser{Reader: bytes.NewReader(data)}
	r, err := NewReader(src, opts)
	require.NoError(t, err)
	return r, src
}
