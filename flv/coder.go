package flv

import (
	"bytes"
	"encoding/binary"

	"github.com/torresjeff/go-rtmp/bytestream"
	"github.com/torresjeff/go-rtmp/status"
	"github.com/torresjeff/go-rtmp/tag"
	"github.com/torresjeff/go-rtmp/video"
)

// IsHeader reports whether in starts with an FLV file header. It needs four
// buffered bytes and consumes nothing.
func IsHeader(in *bytestream.Stream) bool {
	if in.Size() < 4 {
		return false
	}
	return bytestream.PeekUint32(in, bigEndian)&headerMask == headerMark
}

// DecodeHeader reads the 9 byte file header. It returns status.NoData,
// consuming nothing, when fewer bytes are buffered.
func DecodeHeader(in *bytestream.Stream) (*Header, error) {
	if in.Size() < HeaderSize {
		return nil, status.NoData
	}
	h := &Header{Base: tag.NewBase(0, tag.DefaultFlavourMask, 0)}
	h.Signature = bytestream.ReadUint24(in, bigEndian)
	h.Version = bytestream.ReadUint8(in)
	h.Flags = bytestream.ReadUint8(in)
	h.DataOffset = bytestream.ReadUint32(in, bigEndian)
	return h, nil
}

// DecodeTag reads one tag, including the previous tag size that precedes it.
//
// Nothing is consumed on error. The body size is checked against maxTagSize
// before the body is buffered, so a corrupt length cannot make the caller
// wait for gigabytes of input.
func DecodeTag(in *bytestream.Stream, maxTagSize int) (*Tag, error) {
	if in.Size() < TagHeaderSize {
		return nil, status.NoData
	}
	in.MarkerSet()
	prevTagSize := bytestream.ReadUint32(in, bigEndian)
	frameType := FrameType(bytestream.ReadUint8(in))
	bodySize := int(bytestream.ReadUint24(in, bigEndian))
	if bodySize > maxTagSize {
		in.MarkerRestore()
		return nil, status.Errorf(status.OversizedTag, "flv: oversized tag: %d bytes", bodySize)
	}
	if !frameType.Valid() {
		in.MarkerRestore()
		return nil, status.Errorf(status.CorruptedFail, "flv: illegal frame type: 0x%02x", uint8(frameType))
	}
	if bodySize == 0 && frameType != FrameMetadata {
		in.MarkerRestore()
		return nil, status.Errorf(status.CorruptedFail, "flv: zero sized %s tag", frameType)
	}
	tsLow := bytestream.ReadUint24(in, bigEndian)
	tsHigh := uint32(bytestream.ReadUint8(in))
	streamID := bytestream.ReadUint24(in, bigEndian)
	if in.Size() < bodySize {
		in.MarkerRestore()
		return nil, status.NoData
	}
	in.MarkerClear()

	t := NewTag(0, tag.DefaultFlavourMask, int64(tsLow|tsHigh<<24), NewBody(frameType))
	t.PreviousTagSize = prevTagSize
	t.StreamID = streamID
	err := t.body.Decode(in, bodySize)
	if err != nil && frameType == FrameMetadata {
		return nil, err
	}
	// Short audio and video flags are kept as they are: the payload is
	// still forwarded untouched.
	return t, nil
}

var (
	aflmeMoovBeginning = []byte{0x17, 0x01, 0x00, 0x00, 0x00}
	aflmeMoovSignal    = []byte{0x65, 0x88, 0x80, 0x40}
	x264MoovBeginning  = []byte{0x17, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02, 0x09, 0x10}
	x264MoovMark       = []byte("x264")
)

const (
	aflmeMoovSignalBegin = 9
	x264MoovMarkBegin    = 35
)

// DecodeAuxiliaryMoovTag recognizes the decoder configuration that Adobe
// Flash Live Media Encoder 3 and x264 prepend to AVC key frames and returns
// it as a tag of its own, or nil. t is left untouched.
func DecodeAuxiliaryMoovTag(t *Tag) *Tag {
	v := t.VideoBody()
	if v == nil ||
		v.VideoFrameType != video.KeyFrame ||
		v.Codec != video.H264 ||
		v.AVCPacketType != video.AVCNALU {
		return nil
	}
	check := make([]byte, x264MoovMarkBegin+len(x264MoovMark))
	if v.data.Size() < len(check) {
		return nil
	}
	v.data.Peek(check)

	var size int
	switch {
	case bytes.HasPrefix(check, aflmeMoovBeginning) &&
		bytes.Equal(check[aflmeMoovSignalBegin:aflmeMoovSignalBegin+len(aflmeMoovSignal)], aflmeMoovSignal):
		n := len(aflmeMoovBeginning)
		size = n + 4 + int(int32(binary.BigEndian.Uint32(check[n:n+4])))
	case bytes.HasPrefix(check, x264MoovBeginning) &&
		bytes.Equal(check[x264MoovMarkBegin:], x264MoovMark):
		n := len(x264MoovBeginning)
		size = n + 4 + int(int32(binary.BigEndian.Uint32(check[n:n+4])))
	default:
		return nil
	}
	if size <= 0 || size > v.data.Size() {
		return nil
	}

	data := bytestream.New(bytestream.DefaultBlockSize)
	data.AppendStreamNonDestructive(v.data, 0, size)
	return NewTag(t.Attributes(), t.FlavourMask(), t.Timestamp(), NewVideo(data))
}
