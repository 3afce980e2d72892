package blf

import (
	"encoding/binary"
	"strconv"
)

// On-disk sizes. All integers are little-endian.
const (
	FileHeaderSize   = 144
	ObjectHeaderSize = 32

	canMessageSize = 16
	canErrorSize   = 8
)

var (
	fileSignature   = [4]byte{'L', 'O', 'G', 'G'}
	objectSignature = [4]byte{'L', 'O', 'B', 'J'}
)

// ObjectType discriminates the payload of an object.
type ObjectType uint32

const (
	TypeCANMessage   ObjectType = 1
	TypeCANError     ObjectType = 2
	TypeLogContainer ObjectType = 10
	TypeGlobalMarker ObjectType = 96
)

func (t ObjectType) String() string {
	switch t {
	case TypeCANMessage:
		return "CAN_MESSAGE"
	case TypeCANError:
		return "CAN_ERROR"
	case TypeLogContainer:
		return "LOG_CONTAINER"
	case TypeGlobalMarker:
		return "GLOBAL_MARKER"
	default:
		return "TYPE_" + strconv.FormatUint(uint64(t), 10)
	}
}

const (
	remoteFlag        = 0x80
	extendedIDFlag    = 0x80000000
	arbitrationIDMask = 0x1FFFFFFF
)

// SystemTime is the 8 x u16 calendar record used for session start/stop.
type SystemTime struct {
	Year        uint16
	Month       uint16
	DayOfWeek   uint16
	Day         uint16
	Hour        uint16
	Minute      uint16
	Second      uint16
	Millisecond uint16
}

// FileHeader is the 144-byte "LOGG" header at the start of every file.
//
// Layout:
//
//	signature(4) header_size(u32)
//	app_id(u8) app_major(u8) app_minor(u8) app_build(u8)
//	log_major(u8) log_minor(u8) log_build(u8) log_patch(u8)
//	file_size(u64) uncompressed_size(u64)
//	object_count(u32) object_count_read(u32)
//	start_time(8 x u16) stop_time(8 x u16)
//	reserved(72)
type FileHeader struct {
	Signature        [4]byte
	HeaderSize       uint32
	ApplicationID    uint8
	ApplicationMajor uint8
	ApplicationMinor uint8
	ApplicationBuild uint8
	LogMajor         uint8
	LogMinor         uint8
	LogBuild         uint8
	LogPatch         uint8
	FileSize         uint64
	UncompressedSize uint64
	ObjectCount      uint32
	ObjectCountRead  uint32
	StartTime        SystemTime
	StopTime         SystemTime
}

// ObjectHeader is the 32-byte "LOBJ" header preceding every object.
//
// The last 64-bit field is overloaded: it holds the uncompressed payload
// size for log containers and a timestamp in nanoseconds for everything
// else. Use UncompressedSize or TimestampNanos to read it.
type ObjectHeader struct {
	Signature     [4]byte
	HeaderSize    uint16
	HeaderVersion uint16
	ObjectSize    uint32
	ObjectType    ObjectType
	Flags         uint32
	ObjectVersion uint16

	value uint64
}

// UncompressedSize returns the declared inflated size of a log container.
// ok is false for any other object type.
func (h ObjectHeader) UncompressedSize() (size uint64, ok bool) {
	if h.ObjectType != TypeLogContainer {
		return 0, false
	}
	return h.value, true
}

// TimestampNanos returns the object timestamp relative to the file anchor.
// ok is false for log containers.
func (h ObjectHeader) TimestampNanos() (ns uint64, ok bool) {
	if h.ObjectType == TypeLogContainer {
		return 0, false
	}
	return h.value, true
}

// Seconds resolves the object timestamp against anchor (epoch seconds).
func (h ObjectHeader) Seconds(anchor float64) float64 {
	ns, _ := h.TimestampNanos()
	return anchor + float64(ns)/1e9
}

// padding returns the number of alignment bytes following an object.
// The rule is size mod 4, not a round-up to the next multiple of 4.
func padding(objectSize uint32) int {
	return int(objectSize % 4)
}

// canMessage is the 16-byte CAN data frame body.
type canMessage struct {
	Channel uint16
	Flags   uint8
	DLC     uint8
	ID      uint32
	Data    [8]byte
}

// canError is the 8-byte CAN error frame body (4 reserved bytes).
type canError struct {
	Channel uint16
	Length  uint16
}

func parseSystemTime(b []byte) SystemTime {
	le := binary.LittleEndian
	return SystemTime{
		Year:        le.Uint16(b[0:2]),
		Month:       le.Uint16(b[2:4]),
		DayOfWeek:   le.Uint16(b[4:6]),
		Day:         le.Uint16(b[6:8]),
		Hour:        le.Uint16(b[8:10]),
		Minute:      le.Uint16(b[10:12]),
		Second:      le.Uint16(b[12:14]),
		Millisecond: le.Uint16(b[14:16]),
	}
}

// parseFileHeader decodes b, which must hold at least FileHeaderSize bytes.
func parseFileHeader(b []byte) FileHeader {
	le := binary.LittleEndian
	var h FileHeader
	copy(h.Signature[:], b[0:4])
	h.HeaderSize = le.Uint32(b[4:8])
	h.ApplicationID = b[8]
	h.ApplicationMajor = b[9]
	h.ApplicationMinor = b[10]
	h.ApplicationBuild = b[11]
	h.LogMajor = b[12]
	h.LogMinor = b[13]
	h.LogBuild = b[14]
	h.LogPatch = b[15]
	h.FileSize = le.Uint64(b[16:24])
	h.UncompressedSize = le.Uint64(b[24:32])
	h.ObjectCount = le.Uint32(b[32:36])
	h.ObjectCountRead = le.Uint32(b[36:40])
	h.StartTime = parseSystemTime(b[40:56])
	h.StopTime = parseSystemTime(b[56:72])
	return h
}

// parseObjectHeader decodes b, which must hold at least ObjectHeaderSize bytes.
func parseObjectHeader(b []byte) ObjectHeader {
	le := binary.LittleEndian
	var h ObjectHeader
	copy(h.Signature[:], b[0:4])
	h.HeaderSize = le.Uint16(b[4:6])
	h.HeaderVersion = le.Uint16(b[6:8])
	h.ObjectSize = le.Uint32(b[8:12])
	h.ObjectType = ObjectType(le.Uint32(b[12:16]))
	h.Flags = le.Uint32(b[16:20])
	// b[20:22] reserved
	h.ObjectVersion = le.Uint16(b[22:24])
	h.value = le.Uint64(b[24:32])
	return h
}

func parseCANMessage(b []byte) canMessage {
	le := binary.LittleEndian
	m := canMessage{
		Channel: le.Uint16(b[0:2]),
		Flags:   b[2],
		DLC:     b[3],
		ID:      le.Uint32(b[4:8]),
	}
	copy(m.Data[:], b[8:16])
	return m
}

func parseCANError(b []byte) canError {
	le := binary.LittleEndian
	return canError{
		Channel: le.Uint16(b[0:2]),
		Length:  le.Uint16(b[2:4]),
	}
}
