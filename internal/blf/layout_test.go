package blf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseObjectHeader(t *testing.T) {
	raw := canMessageObject(2_000_000_000, 1, 0, 0, 0, [8]byte{})
	h := parseObjectHeader(raw)

	assert.Equal(t, objectSignature, h.Signature)
	assert.Equal(t, uint16(ObjectHeaderSize), h.HeaderSize)
	assert.Equal(t, uint16(1), h.HeaderVersion)
	assert.Equal(t, uint32(48), h.ObjectSize)
	assert.Equal(t, TypeCANMessage, h.ObjectType)

	ns, ok := h.TimestampNanos()
	assert.True(t, ok)
	assert.Equal(t, uint64(2_000_000_000), ns)
	_, ok = h.UncompressedSize()
	assert.False(t, ok)
}

func TestObjectHeaderOverloadedField(t *testing.T) {
	h := parseObjectHeader(encodeObject(TypeLogContainer, 4096, nil))

	size, ok := h.UncompressedSize()
	assert.True(t, ok)
	assert.Equal(t, uint64(4096), size)

	_, ok = h.TimestampNanos()
	assert.False(t, ok)
	assert.Equal(t, 10.0, h.Seconds(10), "containers carry no timestamp")
}

func TestParseFileHeader(t *testing.T) {
	h := parseFileHeader(encodeFileHeader(epochStart))

	assert.Equal(t, fileSignature, h.Signature)
	assert.Equal(t, uint32(FileHeaderSize), h.HeaderSize)
	assert.Equal(t, uint8(5), h.ApplicationID)
	assert.Equal(t, epochStart, h.StartTime)
}

func TestPadding(t *testing.T) {
	tests := []struct {
		size uint32
		want int
	}{
		{48, 0},
		{37, 1},
		{38, 2},
		{39, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, padding(tt.size), "size %d", tt.size)
	}
}

func TestObjectTypeString(t *testing.T) {
	assert.Equal(t, "CAN_MESSAGE", TypeCANMessage.String())
	assert.Equal(t, "LOG_CONTAINER", TypeLogContainer.String())
	assert.Equal(t, "TYPE_999", ObjectType(999).String())
}
