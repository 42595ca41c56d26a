// Package binary24 extends encoding/binary byte orders with the 24-bit
// integers used all over RTMP and FLV headers.
package binary24

import "encoding/binary"

// ByteOrder is a binary.ByteOrder that also knows 24-bit integers.
type ByteOrder interface {
	binary.ByteOrder
	Uint24(b []byte) uint32
	PutUint24(b []byte, v uint32)
}

var BigEndian ByteOrder = bigEndian{}

var LittleEndian ByteOrder = littleEndian{}

// Int24 sign-extends a 24-bit value read with Uint24.
func Int24(v uint32) int32 {
	return int32(v<<8) >> 8
}

type bigEndian struct{}

func (bigEndian) Uint16(b []byte) uint16 { return binary.BigEndian.Uint16(b) }
func (bigEndian) Uint32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }
func (bigEndian) Uint64(b []byte) uint64 { return binary.BigEndian.Uint64(b) }
func (bigEndian) PutUint16(b []byte, v uint16) { binary.BigEndian.PutUint16(b, v) }
func (bigEndian) PutUint32(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }
func (bigEndian) PutUint64(b []byte, v uint64) { binary.BigEndian.PutUint64(b, v) }
func (bigEndian) String() string { return "BigEndian" }

func (bigEndian) Uint24(b []byte) uint32 {
	return uint32(b[2]) | uint32(b[1])<<8 | uint32(b[0])<<16
}

func (bigEndian) PutUint24(b []byte, v uint32) {
	_ = b[2] // early bounds check to guarantee safety of writes below
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

type littleEndian struct{}

func (littleEndian) Uint16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }
func (littleEndian) Uint32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func (littleEndian) Uint64(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }
func (littleEndian) PutUint16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func (littleEndian) PutUint32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func (littleEndian) PutUint64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }
func (littleEndian) String() string { return "LittleEndian" }

func (littleEndian) Uint24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func (littleEndian) PutUint24(b []byte, v uint32) {
	_ = b[2] // early bounds check to guarantee safety of writes below
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}
