package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"

	"github.com/coffersTech/blflog/internal/model"
)

type sliceIter struct {
	evs []model.Event
	i   int
	err error
}

func (s *sliceIter) Next() bool {
	if s.i >= len(s.evs) {
		return false
	}
	s.i++
	return true
}

func (s *sliceIter) Event() model.Event { return s.evs[s.i-1] }
func (s *sliceIter) Err() error         { return s.err }

var sample = []model.Event{
	{Timestamp: 1600000002.5, Channel: 1, ArbitrationID: 0x64, IsExtendedID: true, IsRemoteFrame: true, DLC: 3, Data: []byte{1, 2, 3}},
	{Timestamp: 1600000003, Channel: 2, IsErrorFrame: true},
	{Timestamp: 1600000004.000001, Channel: 1, ArbitrationID: 0x7FF, DLC: 8, Data: []byte{0xde, 0xad, 0xbe, 0xef, 0, 1, 2, 3}},
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	n, err := Copy(NewTextWriter(&buf), &sliceIter{evs: sample})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, TextHeader, lines[0])
	assert.Equal(t, "1600000002.5\tTrue\tTrue\tFalse\t3\t064 01 02 03 00 00 00 00 00", lines[1])
	assert.Equal(t, "1600000003.0\tFalse\tFalse\tTrue\t0\t000 00 00 00 00 00 00 00 00", lines[2])
	assert.Equal(t, "1600000004.000001\tFalse\tFalse\tFalse\t8\t7ff de ad be ef 00 01 02 03", lines[3])
}

func TestTextWriterEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf)
	require.NoError(t, w.Flush())
	assert.Equal(t, TextHeader+"\n", buf.String())
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	_, err := Copy(NewJSONWriter(&buf), &sliceIter{evs: sample})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	var p fastjson.Parser
	v, err := p.Parse(lines[0])
	require.NoError(t, err)
	assert.Equal(t, 100, v.GetInt("id"))
	assert.True(t, v.GetBool("extended"))
	assert.True(t, v.GetBool("remote"))
	assert.Equal(t, "010203", string(v.GetStringBytes("data")))
	assert.InDelta(t, 1600000002.5, v.GetFloat64("timestamp"), 1e-6)

	v, err = p.Parse(lines[1])
	require.NoError(t, err)
	assert.True(t, v.GetBool("error"))
	assert.Nil(t, v.Get("id"))
}

func TestJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	_, err := Copy(NewJSONWriter(&buf), &sliceIter{evs: sample})
	require.NoError(t, err)

	r := NewJSONReader(&buf)
	var got []model.Event
	for r.Next() {
		got = append(got, r.Event())
	}
	require.NoError(t, r.Err())
	require.Len(t, got, len(sample))
	for i := range sample {
		assert.InDelta(t, sample[i].Timestamp, got[i].Timestamp, 1e-6)
		got[i].Timestamp = sample[i].Timestamp
	}
	assert.Equal(t, sample, got)
}

func TestJSONReaderBadLine(t *testing.T) {
	r := NewJSONReader(strings.NewReader("{\"channel\":1}\n{oops\n"))
	assert.True(t, r.Next())
	assert.False(t, r.Next())
	assert.Error(t, r.Err())
	assert.Contains(t, r.Err().Error(), "line 2")
}

func TestNewWriter(t *testing.T) {
	for _, f := range []string{"text", "txt", "", "json", "NDJSON"} {
		_, err := NewWriter(f, &bytes.Buffer{})
		assert.NoError(t, err, f)
	}
	_, err := NewWriter("xml", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestCopyPropagatesIteratorError(t *testing.T) {
	var buf bytes.Buffer
	it := &sliceIter{evs: sample[:1], err: assert.AnError}
	n, err := Copy(NewTextWriter(&buf), it)
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestCopyFlushesEventsBeforeIteratorError(t *testing.T) {
	var buf bytes.Buffer
	n, err := Copy(NewTextWriter(&buf), &sliceIter{evs: sample[:2], err: assert.AnError})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 2, n)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, TextHeader, lines[0])
	assert.Equal(t, "1600000002.5\tTrue\tTrue\tFalse\t3\t064 01 02 03 00 00 00 00 00", lines[1])
	assert.Equal(t, "1600000003.0\tFalse\tFalse\tTrue\t0\t000 00 00 00 00 00 00 00 00", lines[2])
}

func TestJSONCopyFlushesEventsBeforeIteratorError(t *testing.T) {
	var buf bytes.Buffer
	_, err := Copy(NewJSONWriter(&buf), &sliceIter{evs: sample[:1], err: assert.AnError})
	assert.ErrorIs(t, err, assert.AnError)

	jr := NewJSONReader(&buf)
	require.True(t, jr.Next())
	ev := jr.Event()
	assert.InDelta(t, sample[0].Timestamp, ev.Timestamp, 1e-6)
	assert.Equal(t, sample[0].ArbitrationID, ev.ArbitrationID)
	assert.Equal(t, sample[0].Data, ev.Data)
	assert.False(t, jr.Next())
}

func TestCompressedRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	zw, err := CompressWriter(&buf, "capture.ndjson.zst")
	require.NoError(t, err)

	w := NewJSONWriter(zw)
	ev := model.Event{Timestamp: 1.5, Channel: 3, ArbitrationID: 0x7ff, DLC: 1, Data: []byte{0xaa}}
	require.NoError(t, w.WriteEvent(&ev))
	require.NoError(t, w.Flush())
	require.NoError(t, zw.Close())
	assert.NotContains(t, buf.String(), "timestamp")

	zr, err := DecompressReader(&buf, "capture.ndjson.zst")
	require.NoError(t, err)
	defer zr.Close()

	jr := NewJSONReader(zr)
	require.True(t, jr.Next())
	assert.Equal(t, ev, jr.Event())
	assert.False(t, jr.Next())
	assert.NoError(t, jr.Err())
}

func TestCompressionBySuffix(t *testing.T) {
	assert.True(t, IsCompressed("a.ndjson.zst"))
	assert.True(t, IsCompressed("A.NDJSON.ZST"))
	assert.False(t, IsCompressed("a.ndjson"))
	assert.Equal(t, ".ndjson", BaseExt("a.ndjson.zst"))
	assert.Equal(t, ".jsonl", BaseExt("a.jsonl"))

	var buf bytes.Buffer
	w, err := CompressWriter(&buf, "plain.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, "x", buf.String())
}

func TestAppendTimestamp(t *testing.T) {
	tests := []struct {
		ts   float64
		want string
	}{
		{1600000000.001, "1600000000.001"},
		{1600000003, "1600000003.0"},
		{1600000004.000001, "1600000004.000001"},
		{0, "0.0"},
		{2.5, "2.5"},
		{0.00001, "1e-05"},
		{1e16, "1e+16"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, string(appendTimestamp(nil, tt.ts)), "ts=%v", tt.ts)
	}
}
