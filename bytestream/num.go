package bytestream

import (
	"math"

	"github.com/torresjeff/go-rtmp/internal/binary24"
)

// Numeric streaming helpers. Reads are total: when fewer bytes than the
// value width are buffered the available bytes are consumed and the missing
// ones read as zero, so callers check Size before reading.

func (s *Stream) readN(n int) []byte {
	var b [8]byte
	s.Read(b[:n])
	return b[:n]
}

func (s *Stream) peekN(n int) []byte {
	var b [8]byte
	s.Peek(b[:n])
	return b[:n]
}

func ReadUint8(s *Stream) uint8 {
	return s.readN(1)[0]
}

func ReadUint16(s *Stream, order binary24.ByteOrder) uint16 {
	return order.Uint16(s.readN(2))
}

func ReadInt16(s *Stream, order binary24.ByteOrder) int16 {
	return int16(ReadUint16(s, order))
}

func ReadUint24(s *Stream, order binary24.ByteOrder) uint32 {
	return order.Uint24(s.readN(3))
}

func ReadInt24(s *Stream, order binary24.ByteOrder) int32 {
	return binary24.Int24(ReadUint24(s, order))
}

func ReadUint32(s *Stream, order binary24.ByteOrder) uint32 {
	return order.Uint32(s.readN(4))
}

func ReadInt32(s *Stream, order binary24.ByteOrder) int32 {
	return int32(ReadUint32(s, order))
}

func ReadUint64(s *Stream, order binary24.ByteOrder) uint64 {
	return order.Uint64(s.readN(8))
}

func ReadInt64(s *Stream, order binary24.ByteOrder) int64 {
	return int64(ReadUint64(s, order))
}

func ReadFloat32(s *Stream, order binary24.ByteOrder) float32 {
	return math.Float32frombits(ReadUint32(s, order))
}

func ReadFloat64(s *Stream, order binary24.ByteOrder) float64 {
	return math.Float64frombits(ReadUint64(s, order))
}

func PeekUint8(s *Stream) uint8 {
	return s.peekN(1)[0]
}

func PeekUint16(s *Stream, order binary24.ByteOrder) uint16 {
	return order.Uint16(s.peekN(2))
}

func PeekUint24(s *Stream, order binary24.ByteOrder) uint32 {
	return order.Uint24(s.peekN(3))
}

func PeekUint32(s *Stream, order binary24.ByteOrder) uint32 {
	return order.Uint32(s.peekN(4))
}

func PeekInt32(s *Stream, order binary24.ByteOrder) int32 {
	return int32(PeekUint32(s, order))
}

func WriteUint8(s *Stream, v uint8) {
	s.Write([]byte{v})
}

func WriteUint16(s *Stream, v uint16, order binary24.ByteOrder) {
	var b [2]byte
	order.PutUint16(b[:], v)
	s.Write(b[:])
}

func WriteInt16(s *Stream, v int16, order binary24.ByteOrder) {
	WriteUint16(s, uint16(v), order)
}

func WriteUint24(s *Stream, v uint32, order binary24.ByteOrder) {
	var b [3]byte
	order.PutUint24(b[:], v)
	s.Write(b[:])
}

func WriteInt24(s *Stream, v int32, order binary24.ByteOrder) {
	WriteUint24(s, uint32(v), order)
}

func WriteUint32(s *Stream, v uint32, order binary24.ByteOrder) {
	var b [4]byte
	order.PutUint32(b[:], v)
	s.Write(b[:])
}

func WriteInt32(s *Stream, v int32, order binary24.ByteOrder) {
	WriteUint32(s, uint32(v), order)
}

func WriteUint64(s *Stream, v uint64, order binary24.ByteOrder) {
	var b [8]byte
	order.PutUint64(b[:], v)
	s.Write(b[:])
}

func WriteInt64(s *Stream, v int64, order binary24.ByteOrder) {
	WriteUint64(s, uint64(v), order)
}

func WriteFloat32(s *Stream, v float32, order binary24.ByteOrder) {
	WriteUint32(s, math.Float32bits(v), order)
}

func WriteFloat64(s *Stream, v float64, order binary24.ByteOrder) {
	WriteUint64(s, math.Float64bits(v), order)
}
