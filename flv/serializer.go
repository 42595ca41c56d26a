package flv

import (
	"github.com/torresjeff/go-rtmp/bytestream"
	"github.com/torresjeff/go-rtmp/tag"
)

// Serializer writes tags as an FLV stream. It is the inverse of Splitter:
// FLV tags are written with the given timestamp, every other tag is ignored.
type Serializer struct {
	writeHeader bool
	hasVideo    bool
	hasAudio    bool

	prevTagSize uint32
}

// NewSerializer returns a serializer that starts the stream with a file
// header when writeHeader is set.
func NewSerializer(writeHeader, hasVideo, hasAudio bool) *Serializer {
	return &Serializer{writeHeader: writeHeader, hasVideo: hasVideo, hasAudio: hasAudio}
}

func (s *Serializer) Initialize(out *bytestream.Stream) {
	s.prevTagSize = 0
	if s.writeHeader {
		NewHeader(s.hasVideo, s.hasAudio).Encode(out)
	}
}

func (s *Serializer) Serialize(t tag.Tag, ts int64, out *bytestream.Stream) error {
	ft, ok := t.(*Tag)
	if !ok {
		return nil
	}
	s.prevTagSize = EncodeTag(ft, ts, s.prevTagSize, out)
	return nil
}

// Finalize writes the size of the last tag, so readers that expect a size
// after every tag can read the last one.
func (s *Serializer) Finalize(out *bytestream.Stream) {
	bytestream.WriteUint32(out, s.prevTagSize, bigEndian)
	s.prevTagSize = 0
}

// EncodeTag writes prevTagSize followed by t with timestamp ts and returns
// the size of what it wrote after prevTagSize.
func EncodeTag(t *Tag, ts int64, prevTagSize uint32, out *bytestream.Stream) uint32 {
	size := t.Size()
	bytestream.WriteUint32(out, prevTagSize, bigEndian)
	bytestream.WriteUint8(out, uint8(t.FrameType()))
	bytestream.WriteUint24(out, uint32(size), bigEndian)
	bytestream.WriteUint24(out, uint32(ts)&0xFFFFFF, bigEndian)
	bytestream.WriteUint8(out, uint8(uint32(ts)>>24))
	bytestream.WriteUint24(out, 0, bigEndian)
	t.body.Encode(out)
	return uint32(TagHeaderSize - 4 + size)
}

// EncodingSize returns the number of bytes Serialize writes for t.
func EncodingSize(t *Tag) int {
	return TagHeaderSize + t.Size()
}
