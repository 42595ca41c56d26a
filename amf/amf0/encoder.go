package amf0

import (
	"github.com/torresjeff/go-rtmp/bytestream"
)

// WriteString writes s as a string, or as a long string when it is 65535
// bytes or longer.
func WriteString(out *bytestream.Stream, s string) {
	if len(s) < longStringThreshold {
		// byte 0 => string type (TypeString)
		// bytes 1-2 => string length
		// bytes 3-end => string content
		bytestream.WriteUint8(out, TypeString)
		bytestream.WriteUint16(out, uint16(len(s)), bigEndian)
	} else {
		// byte 0 => string type (TypeLongString)
		// bytes 1-4 => string length
		// bytes 5-end => string content
		bytestream.WriteUint8(out, TypeLongString)
		bytestream.WriteUint32(out, uint32(len(s)), bigEndian)
	}
	out.WriteString(s)
}

// PutString writes a bare string (no type marker), as used for keys.
func PutString(out *bytestream.Stream, s string) {
	bytestream.WriteUint16(out, uint16(len(s)), bigEndian)
	out.WriteString(s)
}

// WriteAll encodes values one after the other.
func WriteAll(out *bytestream.Stream, values ...Value) {
	for _, v := range values {
		v.Encode(out)
	}
}

// EncodingSize is the number of bytes WriteAll writes for values.
func EncodingSize(values ...Value) int {
	n := 0
	for _, v := range values {
		n += v.Size()
	}
	return n
}

// Encode returns the encoding of v as a byte slice.
func Encode(v Value) []byte {
	out := bytestream.New(v.Size())
	v.Encode(out)
	return out.Bytes()
}

// Decode decodes a single value from b.
func Decode(b []byte) (Value, error) {
	return ReadNext(bytestream.NewFromBytes(b))
}
