package flv

import (
	"fmt"

	"github.com/ossrs/go-oryx-lib/aac"

	"github.com/torresjeff/go-rtmp/amf/amf0"
	"github.com/torresjeff/go-rtmp/audio"
	"github.com/torresjeff/go-rtmp/video"
)

// MediaInfo describes a stream as learned from its first metadata, audio and
// video tags.
type MediaInfo struct {
	Audio *AudioInfo
	Video *VideoInfo

	DurationMs int64
	FileSize   int64
	Seekable   bool
	Pausable   bool
	// Extra holds the metadata values that are not reflected in the fields
	// above.
	Extra *amf0.ECMAArray
}

type AudioInfo struct {
	Format     audio.Format
	SampleRate int
	SampleSize int
	Channels   int
	Bps        int
	// AACObjectType and AACConfig are set from the AAC sequence header.
	AACObjectType aac.ObjectType
	AACConfig     []byte
}

type VideoInfo struct {
	Codec     video.Codec
	Bps       int
	FrameRate float64
	Width     int
	Height    int
	ClockRate int
	// AVCC is the AVCDecoderConfigurationRecord of an AVC sequence header.
	AVCC       []byte
	AVCProfile uint8
	AVCLevel   uint8
}

// metadata keys reflected in MediaInfo fields.
var mediaInfoKeys = []string{
	"duration", "filesize", "unseekable", "unpausable",
	"audiocodecid", "audiosamplesize", "audiodatarate",
	"videocodecid", "videodatarate", "cuePoints",
}

// ExtractMediaInfo builds a MediaInfo out of the first metadata tag and the
// first audio and video tags of a stream. audioTag and videoTag may be nil.
func ExtractMediaInfo(metadata, audioTag, videoTag *Tag) *MediaInfo {
	info := &MediaInfo{Seekable: true, Pausable: true, Extra: amf0.NewECMAArray()}
	var meta *Metadata
	if metadata != nil {
		meta = metadata.MetadataBody()
	}
	number := func(key string) float64 {
		if meta == nil {
			return 0
		}
		n, _ := meta.Number(key)
		return n
	}
	boolean := func(key string) bool {
		if meta == nil {
			return false
		}
		b, _ := meta.Get(key).(amf0.Boolean)
		return bool(b)
	}

	if audioTag != nil {
		if a := audioTag.AudioBody(); a != nil {
			info.Audio = extractAudioInfo(a)
		}
	}
	if info.Audio != nil {
		info.Audio.SampleSize = int(number("audiosamplesize"))
		info.Audio.Bps = int(number("audiodatarate")) * 1000
	}
	if videoTag != nil {
		if v := videoTag.VideoBody(); v != nil {
			info.Video = extractVideoInfo(v)
		}
	}
	if info.Video != nil {
		info.Video.Bps = int(number("videodatarate")) * 1000
		info.Video.FrameRate = number("framerate")
		info.Video.Width = int(number("width"))
		info.Video.Height = int(number("height"))
		info.Video.ClockRate = 90000
	}

	info.DurationMs = int64(number("duration")) * 1000
	info.FileSize = int64(number("filesize"))
	info.Seekable = !boolean("unseekable")
	info.Pausable = !boolean("unpausable")
	if meta != nil {
		if p, ok := meta.Values.(propertyMap); ok {
			for _, prop := range p.Properties() {
				info.Extra.Set(prop.Key, prop.Value)
			}
		}
	}
	for _, key := range mediaInfoKeys {
		info.Extra.Delete(key)
	}
	return info
}

func extractAudioInfo(a *Audio) *AudioInfo {
	info := &AudioInfo{Format: a.Flags.Format}
	switch a.Flags.Format {
	case audio.MP3, audio.MP38KHz:
	case audio.AAC:
		if a.IsAACHeader {
			b := a.data.Bytes()
			if len(b) >= 4 {
				info.AACConfig = b[2:]
				info.AACObjectType = aac.ObjectType(b[2] >> 3)
			}
		}
	default:
		return nil
	}
	info.SampleRate = int(a.Flags.Rate.Hz())
	info.Channels = 1
	if a.Flags.Channels == audio.Stereo {
		info.Channels = 2
	}
	return info
}

func extractVideoInfo(v *Video) *VideoInfo {
	info := &VideoInfo{Codec: v.Codec}
	switch v.Codec {
	case video.SorensonH263, video.VP6:
	case video.H264:
		if v.AVCPacketType == video.AVCSequenceHeader {
			b := v.data.Bytes()
			if len(b) > 5 {
				info.AVCC = b[5:]
			}
			// configurationVersion, AVCProfileIndication, profile_compatibility,
			// AVCLevelIndication
			if len(info.AVCC) >= 4 {
				info.AVCProfile = info.AVCC[1]
				info.AVCLevel = info.AVCC[3]
			}
		}
	default:
		return nil
	}
	return info
}

func (m *MediaInfo) String() string {
	s := fmt.Sprintf("MediaInfo{duration_ms: %d, file_size: %d, seekable: %v, pausable: %v",
		m.DurationMs, m.FileSize, m.Seekable, m.Pausable)
	if a := m.Audio; a != nil {
		s += fmt.Sprintf(", audio: {format: %s, sample_rate: %d, channels: %d, bps: %d", a.Format, a.SampleRate, a.Channels, a.Bps)
		if a.Format == audio.AAC {
			s += fmt.Sprintf(", aac_object_type: %s", a.AACObjectType)
		}
		s += "}"
	}
	if v := m.Video; v != nil {
		s += fmt.Sprintf(", video: {codec: %s, width: %d, height: %d, frame_rate: %v, bps: %d}",
			v.Codec, v.Width, v.Height, v.FrameRate, v.Bps)
	}
	return s + "}"
}
