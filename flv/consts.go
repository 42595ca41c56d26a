// Package flv reads and writes the FLV container: the file header and the
// audio, video and script data tags that follow it.
package flv

import "fmt"

// FrameType is the tag type byte.
type FrameType uint8

const (
	FrameAudio    FrameType = 8
	FrameVideo    FrameType = 9
	FrameMetadata FrameType = 18
)

func (t FrameType) Valid() bool {
	return t == FrameAudio || t == FrameVideo || t == FrameMetadata
}

func (t FrameType) String() string {
	switch t {
	case FrameAudio:
		return "FLV_FRAMETYPE_AUDIO"
	case FrameVideo:
		return "FLV_FRAMETYPE_VIDEO"
	case FrameMetadata:
		return "FLV_FRAMETYPE_METADATA"
	}
	return fmt.Sprintf("FLV_FRAMETYPE_UNKNOWN(0x%02x)", uint8(t))
}

const (
	// HeaderSize is the size of the file header.
	HeaderSize = 9
	// TagHeaderSize counts the previous tag size that precedes every tag.
	TagHeaderSize = 15
	// DefaultMaxTagSize bounds the body size accepted by DecodeTag.
	DefaultMaxTagSize = 5 << 20

	OnMetaData = "onMetaData"
	OnCuePoint = "onCuePoint"

	headerMark = 0x464c5600 // "FLV" followed by any version
	headerMask = 0xFFFFFF00

	flagHasAudio = 0x04
	flagHasVideo = 0x01
)
