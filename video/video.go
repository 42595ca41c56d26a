package video

import "fmt"

// Video flags as stored in the first byte of an FLV video tag:
// frame type (high 4 bits) and codec (low 4 bits).

type FrameType uint8

const (
	KeyFrame             FrameType = 1
	InterFrame           FrameType = 2
	DisposableInterFrame FrameType = 3
	GeneratedKeyFrame    FrameType = 4
	// Video info/command frame
	CommandFrame FrameType = 5
)

func (t FrameType) String() string {
	switch t {
	case KeyFrame:
		return "KEYFRAME"
	case InterFrame:
		return "INTERFRAME"
	case DisposableInterFrame:
		return "DISPOSABLE"
	case GeneratedKeyFrame:
		return "GENERATED"
	case CommandFrame:
		return "COMMAND"
	}
	return fmt.Sprintf("FRAMETYPE_UNKNOWN(%d)", uint8(t))
}

type Codec uint8

const (
	JPEG            Codec = 1
	SorensonH263    Codec = 2
	ScreenVideo     Codec = 3
	VP6             Codec = 4
	VP6AlphaChannel Codec = 5
	ScreenVideoV2   Codec = 6
	H264            Codec = 7
)

func (c Codec) String() string {
	switch c {
	case JPEG:
		return "JPEG"
	case SorensonH263:
		return "H263"
	case ScreenVideo:
		return "SCREEN"
	case VP6:
		return "VP6"
	case VP6AlphaChannel:
		return "VP6_WITH_ALPHA"
	case ScreenVideoV2:
		return "SCREEN_VIDEO_V2"
	case H264:
		return "AVC"
	}
	return fmt.Sprintf("CODEC_UNKNOWN(%d)", uint8(c))
}

type AVCPacketType uint8

const (
	AVCSequenceHeader AVCPacketType = 0
	AVCNALU           AVCPacketType = 1
	AVCEndOfSequence  AVCPacketType = 2
)

func (t AVCPacketType) String() string {
	switch t {
	case AVCSequenceHeader:
		return "AVC_SEQUENCE_HEADER"
	case AVCNALU:
		return "AVC_NALU"
	case AVCEndOfSequence:
		return "AVC_END_OF_SEQUENCE"
	}
	return fmt.Sprintf("AVC_UNKNOWN(%d)", uint8(t))
}

// ParseFlags splits the first byte of a video tag.
func ParseFlags(b byte) (FrameType, Codec) {
	return FrameType(b >> 4), Codec(b & 0x0f)
}

func FlagsByte(t FrameType, c Codec) byte {
	return byte(t)<<4 | byte(c&0x0f)
}
