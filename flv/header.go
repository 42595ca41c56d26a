package flv

import (
	"fmt"

	"github.com/torresjeff/go-rtmp/bytestream"
	"github.com/torresjeff/go-rtmp/internal/binary24"
	"github.com/torresjeff/go-rtmp/tag"
)

var bigEndian = binary24.BigEndian

// Header is the FLV file header. It travels through the splitters as a tag
// of its own.
type Header struct {
	tag.Base
	// Signature holds the "FLV" bytes.
	Signature  uint32
	Version    uint8
	Flags      uint8
	DataOffset uint32
}

// NewHeader returns the header written at the start of every FLV file.
func NewHeader(hasVideo, hasAudio bool) *Header {
	var flags uint8
	if hasVideo {
		flags |= flagHasVideo
	}
	if hasAudio {
		flags |= flagHasAudio
	}
	return &Header{
		Base:       tag.NewBase(0, tag.DefaultFlavourMask, 0),
		Signature:  headerMark >> 8,
		Version:    1,
		Flags:      flags,
		DataOffset: HeaderSize,
	}
}

func (h *Header) HasAudio() bool { return h.Flags&flagHasAudio != 0 }
func (h *Header) HasVideo() bool { return h.Flags&flagHasVideo != 0 }

func (*Header) Type() tag.Type           { return tag.TypeFLVHeader }
func (*Header) Size() int                { return HeaderSize }
func (*Header) Data() *bytestream.Stream { return nil }

func (h *Header) Clone(ts int64) tag.Tag {
	c := *h
	c.Base = h.CloneAt(ts)
	return &c
}

func (h *Header) Encode(out *bytestream.Stream) {
	bytestream.WriteUint24(out, h.Signature, bigEndian)
	bytestream.WriteUint8(out, h.Version)
	bytestream.WriteUint8(out, h.Flags)
	bytestream.WriteUint32(out, h.DataOffset, bigEndian)
}

func (h *Header) String() string {
	return fmt.Sprintf("FlvHeader{version: %d, has_audio: %v, has_video: %v, data_offset: %d}",
		h.Version, h.HasAudio(), h.HasVideo(), h.DataOffset)
}
